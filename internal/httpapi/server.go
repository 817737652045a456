package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Kushanz7/VaultPark-sub001/internal/logging"
	"github.com/Kushanz7/VaultPark-sub001/internal/vaultpark/qrcode"
	"github.com/Kushanz7/VaultPark-sub001/internal/vaultpark/service"
	"github.com/Kushanz7/VaultPark-sub001/internal/vaultpark/store"
	"github.com/Kushanz7/VaultPark-sub001/internal/vaultpark/types"
)

type Dependencies struct {
	Logger         logging.Logger
	Addr           string
	ScanService    *service.ScanService
	QRService      *service.QRService
	SessionService *service.SessionService
}

type Server struct {
	httpServer     *http.Server
	logger         logging.Logger
	mux            *http.ServeMux
	scanService    *service.ScanService
	qrService      *service.QRService
	sessionService *service.SessionService
}

func NewServer(d Dependencies) *Server {
	mux := http.NewServeMux()

	logger := d.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	s := &Server{
		logger:         logger.With("module", "httpapi"),
		mux:            mux,
		scanService:    d.ScanService,
		qrService:      d.QRService,
		sessionService: d.SessionService,
	}

	mux.HandleFunc("POST /v1/scan", s.handleScan)
	mux.HandleFunc("GET /v1/scan/state", s.handleScanState)
	mux.HandleFunc("POST /v1/scan/reset", s.handleScanReset)
	mux.HandleFunc("GET /v1/scan/stream", s.handleScanStream)
	mux.HandleFunc("POST /v1/qr", s.handleIssueQR)
	mux.HandleFunc("GET /v1/sessions/active", s.handleActiveSession)
	mux.HandleFunc("GET /v1/sessions", s.handleListSessions)

	handler := loggingMiddleware(s.logger, mux)

	s.httpServer = &http.Server{
		Addr:              d.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ── Scan ─────────────────────────────────────────────────────────────────────

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	proto := isProtobuf(r)

	var req types.ScanRequest
	if proto {
		msg, err := readStruct(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_protobuf", "invalid protobuf body")
			return
		}
		if req, err = scanRequestFromStruct(msg); err != nil {
			writeError(w, http.StatusBadRequest, "bad_protobuf", "invalid scan request")
			return
		}
	} else if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := s.scanService.Scan(r.Context(), req)

	status := http.StatusOK
	switch {
	case err == nil:
	case errors.Is(err, service.ErrInvalidDeviceID):
		writeError(w, http.StatusBadRequest, "invalid_device_id", err.Error())
		return
	case errors.Is(err, service.ErrInvalidGate):
		writeError(w, http.StatusBadRequest, "invalid_gate", err.Error())
		return
	case errors.Is(err, service.ErrInvalidGuardID):
		writeError(w, http.StatusBadRequest, "invalid_guard_id", err.Error())
		return
	case errors.Is(err, service.ErrUnknownGate):
		// Unknown gates are blocked from the scan flow
		status = http.StatusForbidden
	case errors.Is(err, service.ErrScannerBusy):
		status = http.StatusConflict
	case errors.Is(err, service.ErrDebounced):
		status = http.StatusAccepted
	default:
		s.logger.Error(r.Context(), "scan error", "err", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
		return
	}

	if proto {
		msg, err := scanResponseToStruct(resp)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
			return
		}
		writeProto(w, status, msg)
		return
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleScanState(w http.ResponseWriter, r *http.Request) {
	resp, err := s.scanService.State(r.Context(), r.URL.Query().Get("device_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_device_id", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleScanReset(w http.ResponseWriter, r *http.Request) {
	var req types.ResetRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.scanService.Reset(r.Context(), req.DeviceID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_device_id", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// ── QR ───────────────────────────────────────────────────────────────────────

func (s *Server) handleIssueQR(w http.ResponseWriter, r *http.Request) {
	var req types.QRRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := s.qrService.Issue(r.Context(), req.UserID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidUserID):
			writeError(w, http.StatusBadRequest, "invalid_user_id", err.Error())
		case errors.Is(err, service.ErrDriverNotFound):
			writeError(w, http.StatusNotFound, "driver_not_found", err.Error())
		case errors.Is(err, qrcode.ErrInvalidField):
			writeError(w, http.StatusUnprocessableEntity, "invalid_driver_record", err.Error())
		default:
			s.logger.Error(r.Context(), "qr issue error", "err", err)
			writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
		}
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// ── Sessions ─────────────────────────────────────────────────────────────────

func (s *Server) handleActiveSession(w http.ResponseWriter, r *http.Request) {
	resp, err := s.sessionService.Active(r.Context(), r.URL.Query().Get("driver_id"))
	if err != nil {
		if errors.Is(err, service.ErrInvalidUserID) {
			writeError(w, http.StatusBadRequest, "invalid_driver_id", "driver_id is required")
			return
		}
		s.logger.Error(r.Context(), "active session error", "err", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	f, err := parseSessionFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_filter", err.Error())
		return
	}

	resp, err := s.sessionService.List(r.Context(), f)
	if err != nil {
		s.logger.Error(r.Context(), "list sessions error", "err", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func parseSessionFilter(r *http.Request) (store.SessionFilter, error) {
	q := r.URL.Query()
	f := store.SessionFilter{
		DriverID: strings.TrimSpace(q.Get("driver_id")),
		Gate:     strings.TrimSpace(q.Get("gate")),
	}

	if v := strings.TrimSpace(q.Get("status")); v != "" {
		st, err := store.ParseSessionStatus(strings.ToUpper(v))
		if err != nil {
			return f, err
		}
		f.Status = st
	}

	var err error
	if f.From, err = parseTimeParam(q.Get("from"), "from"); err != nil {
		return f, err
	}
	if f.To, err = parseTimeParam(q.Get("to"), "to"); err != nil {
		return f, err
	}
	if f.Limit, err = parseIntParam(q.Get("limit"), "limit"); err != nil {
		return f, err
	}
	if f.Offset, err = parseIntParam(q.Get("offset"), "offset"); err != nil {
		return f, err
	}
	return f, nil
}

func parseTimeParam(v, name string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, errors.New(name + " must be an RFC3339 timestamp")
	}
	return t.UTC(), nil
}

func parseIntParam(v, name string) (int, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, errors.New(name + " must be a non-negative integer")
	}
	return n, nil
}

// ── Helpers ──────────────────────────────────────────────────────────────────

// decodeJSON decodes a size-limited JSON body into v, writing a 400 and
// returning false on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid JSON body")
		return false
	}
	return true
}

type errorBody struct {
	OK      bool   `json:"ok"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorBody{OK: false, Error: code, Message: msg})
}
