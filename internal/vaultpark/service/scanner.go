package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Kushanz7/VaultPark-sub001/internal/logging"
	"github.com/Kushanz7/VaultPark-sub001/internal/vaultpark/billing"
	"github.com/Kushanz7/VaultPark-sub001/internal/vaultpark/clock"
	"github.com/Kushanz7/VaultPark-sub001/internal/vaultpark/qrcode"
	"github.com/Kushanz7/VaultPark-sub001/internal/vaultpark/store"
)

type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseProcessing Phase = "processing"
	PhaseSuccess    Phase = "success"
	PhaseError      Phase = "error"
)

type Outcome string

const (
	OutcomeEntry Outcome = "entry"
	OutcomeExit  Outcome = "exit"
)

// DefaultErrorResetDelay is how long an error stays on screen before the
// scanner returns to idle on its own.
const DefaultErrorResetDelay = 2 * time.Second

// Operator is the guard working the gate device. It is read at scan time
// and never stored by the scanner.
type Operator struct {
	ID   string
	Name string
}

type ScanInput struct {
	Raw      string
	Gate     string
	Operator Operator
}

// State is one snapshot of a scanner. Session and Quote are set on success
// (Quote on exit only); Err is set in the error phase. DriverID is the
// decoded driver when decoding got that far.
type State struct {
	Phase    Phase
	Outcome  Outcome
	Session  *store.ParkingSession
	Quote    *billing.Quote
	Err      error
	DriverID string
	Seq      uint64
	At       time.Time
}

func (s State) Message() string {
	switch {
	case s.Err != nil:
		return s.Err.Error()
	case s.Outcome == OutcomeEntry:
		return "entry recorded"
	case s.Outcome == OutcomeExit:
		return "exit recorded"
	default:
		return ""
	}
}

// ScannerConfig tunes scanner timing. Zero values take the package defaults.
type ScannerConfig struct {
	ValidityWindow   time.Duration
	DebounceWindow   time.Duration
	ErrorResetDelay  time.Duration
	NormalizeVehicle bool
}

// ScannerDeps are the collaborators a scanner resolves scans with. Sessions
// and Users are required; the rest have defaults.
type ScannerDeps struct {
	Codec    *qrcode.Codec
	Sessions store.SessionStore
	Users    store.UserStore
	Schedule billing.Schedule
	Claimer  Claimer
	Clock    clock.Clock
	Logger   logging.Logger
}

func (d ScannerDeps) withDefaults() ScannerDeps {
	if d.Codec == nil {
		d.Codec = qrcode.Default()
	}
	if d.Claimer == nil {
		d.Claimer = NoopClaimer{}
	}
	if d.Clock == nil {
		d.Clock = clock.System{}
	}
	if d.Logger == nil {
		d.Logger = logging.Discard()
	}
	if d.Schedule.Location == nil {
		d.Schedule.Location = time.UTC
	}
	return d
}

func (c ScannerConfig) withDefaults() ScannerConfig {
	if c.ValidityWindow <= 0 {
		c.ValidityWindow = qrcode.DefaultValidityWindow
	}
	if c.DebounceWindow <= 0 {
		c.DebounceWindow = DefaultDebounceWindow
	}
	if c.ErrorResetDelay <= 0 {
		c.ErrorResetDelay = DefaultErrorResetDelay
	}
	return c
}

// Scanner resolves QR scans for a single gate device.
//
// Phases move Idle -> Processing -> Success|Error -> Idle. Only an idle
// scanner admits a scan, so scans on one device never overlap. Errors return
// to idle after ErrorResetDelay; success waits for Reset.
type Scanner struct {
	deviceID string
	deps     ScannerDeps
	cfg      ScannerConfig
	debounce *DebounceGuard
	log      logging.Logger

	mu       sync.Mutex
	state    State
	seq      uint64
	gen      uint64
	timer    clock.Timer
	subs     map[int]chan State
	nextSub  int
	closed   bool
	lastUsed time.Time
}

func NewScanner(deviceID string, deps ScannerDeps, cfg ScannerConfig) *Scanner {
	deps = deps.withDefaults()
	cfg = cfg.withDefaults()

	s := &Scanner{
		deviceID: deviceID,
		deps:     deps,
		cfg:      cfg,
		debounce: NewDebounceGuard(cfg.DebounceWindow),
		log:      deps.Logger.With("module", "scanner", "device_id", deviceID),
		subs:     make(map[int]chan State),
		lastUsed: deps.Clock.Now(),
	}
	s.state = State{Phase: PhaseIdle, At: s.lastUsed}
	return s
}

func (s *Scanner) DeviceID() string { return s.deviceID }

func (s *Scanner) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Scan admits and resolves one raw payload. The returned error is only
// ever an admission result (ErrScannerBusy, ErrDebounced, ErrScannerClosed);
// resolution failures are reported in the returned State.
//
// Once admitted a scan runs to completion even if ctx is cancelled.
func (s *Scanner) Scan(ctx context.Context, in ScanInput) (State, error) {
	now := s.deps.Clock.Now()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return State{}, ErrScannerClosed
	}
	s.lastUsed = now
	if s.state.Phase != PhaseIdle {
		st := s.state
		s.mu.Unlock()
		return st, ErrScannerBusy
	}
	if !s.debounce.Admit(in.Raw, now) {
		st := s.state
		s.mu.Unlock()
		return st, ErrDebounced
	}
	s.setLocked(State{Phase: PhaseProcessing})
	s.mu.Unlock()

	final := s.resolve(context.WithoutCancel(ctx), in)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.setLocked(final)
	if final.Phase == PhaseError && !s.closed {
		gen := s.gen
		s.timer = s.deps.Clock.AfterFunc(s.cfg.ErrorResetDelay, func() { s.autoReset(gen) })
	}
	return s.state, nil
}

// Reset acknowledges a finished scan and returns the scanner to idle.
// It reports false when there was nothing to acknowledge; an in-flight
// scan is never interrupted.
func (s *Scanner) Reset() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Phase != PhaseSuccess && s.state.Phase != PhaseError {
		return false
	}
	s.toIdleLocked()
	return true
}

func (s *Scanner) autoReset(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || gen != s.gen || s.state.Phase != PhaseError {
		return
	}
	s.toIdleLocked()
}

func (s *Scanner) toIdleLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.gen++
	s.setLocked(State{Phase: PhaseIdle})
}

func (s *Scanner) setLocked(st State) {
	s.seq++
	st.Seq = s.seq
	if st.At.IsZero() {
		st.At = s.deps.Clock.Now()
	}
	s.state = st

	for _, ch := range s.subs {
		select {
		case ch <- st:
		default:
			// Slow subscriber; it will see a later state.
		}
	}
}

// Subscribe streams state transitions, starting with the current state.
// The channel is closed by cancel or when the scanner is closed.
func (s *Scanner) Subscribe(buffer int) (<-chan State, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan State, buffer)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		close(ch)
		return ch, func() {}
	}
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	ch <- s.state

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if c, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(c)
		}
	}
	return ch, cancel
}

// Close stops the reset timer and ends every subscription.
func (s *Scanner) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeLocked()
}

func (s *Scanner) closeLocked() {
	if s.closed {
		return
	}
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
}

// closeIfReapable closes the scanner when it is idle, unobserved and unused
// since before cutoff. The check and the close share one lock hold so a
// concurrent Scan is either admitted first or sees ErrScannerClosed.
func (s *Scanner) closeIfReapable(cutoff time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.state.Phase != PhaseIdle || len(s.subs) > 0 || !s.lastUsed.Before(cutoff) {
		return false
	}
	s.closeLocked()
	return true
}

func (s *Scanner) resolve(ctx context.Context, in ScanInput) State {
	now := s.deps.Clock.Now()

	p, err := s.deps.Codec.Decode(in.Raw)
	if err != nil {
		return s.fail(ctx, err, "")
	}
	if qrcode.IsExpired(p, now, s.cfg.ValidityWindow) {
		return s.fail(ctx, ErrExpired, p.UserID)
	}

	release, err := s.deps.Claimer.Claim(ctx, p.UserID)
	switch {
	case errors.Is(err, ErrDriverClaimed):
		return s.fail(ctx, err, p.UserID)
	case err != nil:
		s.log.Warn(ctx, "driver claim unavailable, continuing without it", "driver_id", p.UserID, "err", err)
		release = func() {}
	}
	defer release()

	user, err := s.deps.Users.FindUser(ctx, p.UserID)
	if err != nil {
		return s.fail(ctx, persistenceErr(err), p.UserID)
	}
	if user == nil || user.Role != store.RoleDriver {
		return s.fail(ctx, ErrDriverNotFound, p.UserID)
	}

	active, err := s.deps.Sessions.FindActiveSession(ctx, p.UserID)
	if err != nil {
		return s.fail(ctx, persistenceErr(err), p.UserID)
	}
	if active == nil {
		return s.enter(ctx, in, p, user, now)
	}
	return s.exit(ctx, in, p, active, now)
}

func (s *Scanner) enter(ctx context.Context, in ScanInput, p qrcode.Payload, user *store.User, now time.Time) State {
	sess, err := s.deps.Sessions.CreateSession(ctx, store.SessionDraft{
		DriverID:         p.UserID,
		DriverName:       user.Name,
		VehicleNumber:    p.VehicleNumber,
		EntryTime:        now,
		GateLocation:     in.Gate,
		ScannedByGuardID: in.Operator.ID,
		GuardName:        in.Operator.Name,
	})
	if err != nil {
		return s.fail(ctx, persistenceErr(err), p.UserID)
	}

	s.log.Info(ctx, "entry recorded", "driver_id", sess.DriverID, "session_id", sess.ID, "gate", sess.GateLocation)
	return State{Phase: PhaseSuccess, Outcome: OutcomeEntry, Session: &sess, DriverID: p.UserID}
}

func (s *Scanner) exit(ctx context.Context, in ScanInput, p qrcode.Payload, active *store.ParkingSession, now time.Time) State {
	if !s.sameVehicle(active.VehicleNumber, p.VehicleNumber) {
		return s.fail(ctx, &VehicleMismatchError{Expected: active.VehicleNumber, Got: p.VehicleNumber}, p.UserID)
	}

	exitAt := store.Timestamp(now)
	if exitAt.Before(active.EntryTime) {
		exitAt = active.EntryTime
	}

	sess, err := s.deps.Sessions.CloseSession(ctx, active.ID, store.SessionClose{
		ExitTime:      exitAt,
		ExitGate:      in.Gate,
		ExitGuardID:   in.Operator.ID,
		ExitGuardName: in.Operator.Name,
	})
	if err != nil {
		return s.fail(ctx, persistenceErr(err), p.UserID)
	}

	q := s.deps.Schedule.Quote(sess.EntryTime, exitAt, sess.GateLocation)
	s.log.Info(ctx, "exit recorded",
		"driver_id", sess.DriverID, "session_id", sess.ID,
		"duration", q.Elapsed.String(), "amount", q.Amount, "tier", q.Tier)
	return State{Phase: PhaseSuccess, Outcome: OutcomeExit, Session: &sess, Quote: &q, DriverID: p.UserID}
}

func (s *Scanner) fail(ctx context.Context, err error, driverID string) State {
	s.log.Info(ctx, "scan rejected", "driver_id", driverID, "reason", ReasonFor(err), "err", err)
	return State{Phase: PhaseError, Err: err, DriverID: driverID}
}

func (s *Scanner) sameVehicle(want, got string) bool {
	if s.cfg.NormalizeVehicle {
		return normalizeVehicle(want) == normalizeVehicle(got)
	}
	return want == got
}

func normalizeVehicle(v string) string {
	return strings.ToUpper(strings.TrimSpace(v))
}

// persistenceErr keeps store sentinels the core reports on their own and
// tags everything else as ErrPersistence.
func persistenceErr(err error) error {
	if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrActiveSessionExists) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrPersistence, err)
}

// ReasonFor maps a scan error to the short code used in audit events and
// API responses.
func ReasonFor(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMalformedPayload):
		return "malformed_payload"
	case errors.Is(err, ErrIntegrityMismatch):
		return "integrity_mismatch"
	case errors.Is(err, ErrExpired):
		return "expired"
	case errors.Is(err, ErrDriverNotFound):
		return "driver_not_found"
	case errors.Is(err, ErrVehicleMismatch):
		return "vehicle_mismatch"
	case errors.Is(err, ErrDriverClaimed):
		return "driver_claimed"
	case errors.Is(err, store.ErrNotFound):
		return "session_not_found"
	case errors.Is(err, store.ErrActiveSessionExists):
		return "active_session_exists"
	case errors.Is(err, ErrScannerBusy):
		return "busy"
	case errors.Is(err, ErrDebounced):
		return "debounced"
	case errors.Is(err, ErrUnknownGate):
		return "unknown_gate"
	default:
		return "persistence_error"
	}
}
