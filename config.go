package eduengine

import (
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"eduengine/domain"
)

// SM2Options carries the tunable SM-2 parameters from spec.md §4.1.
type SM2Options struct {
	InitialIntervalDays float64 `validate:"gt=0"`
	SecondIntervalDays  float64 `validate:"gt=0"`
	EFMin               float64 `validate:"gt=0"`
	EFDefault           float64 `validate:"gt=0"`
	LapseMultiplier     float64 `validate:"gt=0,lte=1"`
	MinIntervalDays     float64 `validate:"gt=0"`
	MaxIntervalDays     float64 `validate:"gt=0"`
	HardFactor          float64 `validate:"gt=0,lte=1"`
	EasyBonus           float64 `validate:"gte=1"`
}

// DefaultSM2Options returns the spec.md §6 defaults.
func DefaultSM2Options() SM2Options {
	return SM2Options{
		InitialIntervalDays: 1,
		SecondIntervalDays:  6,
		EFMin:               1.3,
		EFDefault:           2.5,
		LapseMultiplier:     0.5,
		MinIntervalDays:     1,
		MaxIntervalDays:     365,
		HardFactor:          0.8,
		EasyBonus:           1.3,
	}
}

// AdaptiveTargetRange is the accuracy band the adaptive engine tries to
// keep a subject within (spec.md §4.2).
type AdaptiveTargetRange struct {
	Lower float64 `validate:"gte=0,ltefield=Upper"`
	Upper float64 `validate:"lte=1"`
}

// Options is the single configuration bundle accepted by the facade
// (spec.md §6). It is built programmatically by the host — the engine
// accepts no config files, CLI flags, or env vars — but, following the
// teacher's CustomValidator discipline, the namespace and every numeric
// field carry a validator tag and are checked by Validate() before use.
// StorePath and Logger are not validated.
type Options struct {
	StorageNamespace string `validate:"required"`

	SM2 SM2Options

	AdaptiveSensitivity float64 `validate:"gte=0,lte=1"`
	AdaptiveWindowSize  int     `validate:"gt=0"`
	AdaptiveTargetRange AdaptiveTargetRange

	MaxNewCardsPerDay int `validate:"gt=0"`
	MaxReviewsPerDay  int `validate:"gt=0"`

	// StorePath is the SQLite file backing LocalStore. Empty defaults to
	// ":memory:" (no file is ever written unless the host asks for one).
	StorePath string

	// Logger is handed to LocalStore, which logs its encode, write, read
	// and decode failures at debug level (spec.md §7). Clamped invariants
	// are not logged. Defaults to slog.Default().
	Logger *slog.Logger
}

// DefaultOptions returns the spec.md §6 defaults.
func DefaultOptions() Options {
	return Options{
		StorageNamespace:    "com.educationai.storage",
		SM2:                 DefaultSM2Options(),
		AdaptiveSensitivity: 0.5,
		AdaptiveWindowSize:  20,
		AdaptiveTargetRange: AdaptiveTargetRange{Lower: 0.70, Upper: 0.85},
		MaxNewCardsPerDay:   20,
		MaxReviewsPerDay:    100,
		StorePath:           ":memory:",
		Logger:              slog.Default(),
	}
}

var optionsValidator = validator.New()

// Validate runs struct-tag validation over the bundle, mirroring the
// teacher's ValidateConfig/CustomValidator pattern.
func (o Options) Validate() error {
	if err := optionsValidator.Struct(o); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if o.SM2.EFDefault < o.SM2.EFMin {
		return fmt.Errorf("%w: sm2 ef_default must be >= ef_min", domain.ErrInvalidInput)
	}
	if o.SM2.MinIntervalDays > o.SM2.MaxIntervalDays {
		return fmt.Errorf("%w: sm2 min_interval_days must be <= max_interval_days", domain.ErrInvalidInput)
	}
	return nil
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.StorePath == "" {
		o.StorePath = ":memory:"
	}
	return o
}
