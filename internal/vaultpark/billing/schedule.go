package billing

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

var ErrUnknownTier = errors.New("unknown pricing tier")

// Schedule selects a Tariff per entry gate.
type Schedule struct {
	Location *time.Location
	Default  Tariff
	Gates    map[string]Tariff
}

// Quote is the billing outcome for a closed session.
type Quote struct {
	Elapsed   time.Duration
	Breakdown Breakdown
	Amount    float64
	Tier      string
}

// Flat builds a single-tier schedule.
func Flat(hourlyRate float64, dailyCap *float64, loc *time.Location) Schedule {
	if loc == nil {
		loc = time.UTC
	}
	return Schedule{
		Location: loc,
		Default:  Tariff{Name: "standard", HourlyRate: hourlyRate, DailyCap: dailyCap},
	}
}

// TariffFor returns the tier mapped to gate, or the default tier.
func (s Schedule) TariffFor(gate string) Tariff {
	if t, ok := s.Gates[gate]; ok {
		return t
	}
	return s.Default
}

// Quote prices a stay using the tariff of the entry gate.
func (s Schedule) Quote(entry, exit time.Time, gate string) Quote {
	t := s.TariffFor(gate)
	d := Elapsed(entry, exit)
	return Quote{
		Elapsed:   d,
		Breakdown: Split(d),
		Amount:    t.Amount(entry, exit, s.Location),
		Tier:      t.Name,
	}
}

type scheduleFile struct {
	Timezone    string            `yaml:"timezone"`
	DefaultTier string            `yaml:"default_tier"`
	Tiers       []tierFile        `yaml:"tiers"`
	Gates       map[string]string `yaml:"gates"`
}

type tierFile struct {
	Name       string   `yaml:"name"`
	HourlyRate float64  `yaml:"hourly_rate"`
	DailyCap   *float64 `yaml:"daily_cap"`
}

// LoadSchedule reads a YAML pricing file.
func LoadSchedule(path string) (Schedule, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Schedule{}, fmt.Errorf("read pricing file: %w", err)
	}
	return ParseSchedule(b)
}

// ParseSchedule parses a pricing document of the form:
//
//	timezone: Asia/Kolkata
//	default_tier: standard
//	tiers:
//	  - name: standard
//	    hourly_rate: 50
//	    daily_cap: 400
//	gates:
//	  north-gate: premium
func ParseSchedule(data []byte) (Schedule, error) {
	var f scheduleFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Schedule{}, fmt.Errorf("could not parse pricing yaml: %w", err)
	}
	if len(f.Tiers) == 0 {
		return Schedule{}, errors.New("pricing file defines no tiers")
	}

	loc := time.UTC
	if f.Timezone != "" {
		l, err := time.LoadLocation(f.Timezone)
		if err != nil {
			return Schedule{}, fmt.Errorf("pricing timezone: %w", err)
		}
		loc = l
	}

	tiers := make(map[string]Tariff, len(f.Tiers))
	for _, tf := range f.Tiers {
		if tf.Name == "" {
			return Schedule{}, errors.New("pricing tier without a name")
		}
		if tf.HourlyRate < 0 || (tf.DailyCap != nil && *tf.DailyCap < 0) {
			return Schedule{}, fmt.Errorf("pricing tier %q: negative amount", tf.Name)
		}
		tiers[tf.Name] = Tariff{Name: tf.Name, HourlyRate: tf.HourlyRate, DailyCap: tf.DailyCap}
	}

	defName := f.DefaultTier
	if defName == "" {
		defName = f.Tiers[0].Name
	}
	def, ok := tiers[defName]
	if !ok {
		return Schedule{}, fmt.Errorf("default tier %q: %w", defName, ErrUnknownTier)
	}

	s := Schedule{Location: loc, Default: def}
	if len(f.Gates) > 0 {
		s.Gates = make(map[string]Tariff, len(f.Gates))
		for gate, name := range f.Gates {
			t, ok := tiers[name]
			if !ok {
				return Schedule{}, fmt.Errorf("gate %q tier %q: %w", gate, name, ErrUnknownTier)
			}
			s.Gates[gate] = t
		}
	}
	return s, nil
}
