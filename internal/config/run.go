package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"go-jobfilter-automation/internal/normalize"
)

const (
	DefaultMaxListingsPerPage = 25
	DefaultMaxPages           = 3
)

// Settings are the user-editable values read at the start of every run.
type Settings struct {
	IncludeKeywords      string `yaml:"includeKeywords" json:"includeKeywords"`
	ExcludeKeywords      string `yaml:"excludeKeywords" json:"excludeKeywords"`
	LocationRequirements string `yaml:"locationRequirements" json:"locationRequirements"`
	MaxListingsPerPage   int    `yaml:"maxListingsPerPage" json:"maxListingsPerPage"`
	MaxPages             int    `yaml:"maxPages" json:"maxPages"`
	ClassifierAPIKey     string `yaml:"classifierApiKey" json:"classifierApiKey,omitempty"`
	DestinationID        string `yaml:"destinationId" json:"destinationId"`
}

// RunConfig is fixed for the duration of one run.
type RunConfig struct {
	IncludeKeywords      []string
	ExcludeKeywords      []string
	LocationRequirements []string

	MaxListingsPerPage int `validate:"min=1,max=100"`
	MaxPages           int `validate:"min=1,max=100"`

	RequestsPerMinute int           `validate:"min=0"`
	TokensPerMinute   int           `validate:"min=0"`
	BackoffBase       time.Duration `validate:"gt=0"`
	SettleDelay       time.Duration `validate:"min=0"`
	ItemDelayMin      time.Duration `validate:"min=0"`
	ItemDelayMax      time.Duration `validate:"gtefield=ItemDelayMin"`
	RequestTimeout    time.Duration `validate:"gt=0"`

	ClassifierAPIKey string
	DestinationID    string
	AffirmativeToken string `validate:"required"`
}

var validate = validator.New()

// BuildRunConfig merges settings with the static limits. Unset or invalid
// page limits fall back to 25 listings and 3 pages.
func BuildRunConfig(s Settings, limits Limits, affirmative string) (RunConfig, error) {
	rc := RunConfig{
		IncludeKeywords:      normalize.SplitList(s.IncludeKeywords),
		ExcludeKeywords:      normalize.SplitList(s.ExcludeKeywords),
		LocationRequirements: normalize.SplitList(s.LocationRequirements),
		MaxListingsPerPage:   s.MaxListingsPerPage,
		MaxPages:             s.MaxPages,
		RequestsPerMinute:    limits.RequestsPerMinute,
		TokensPerMinute:      limits.TokensPerMinute,
		BackoffBase:          limits.BackoffBase,
		SettleDelay:          limits.SettleDelay,
		ItemDelayMin:         limits.ItemDelayMin,
		ItemDelayMax:         limits.ItemDelayMax,
		RequestTimeout:       limits.RequestTimeout,
		ClassifierAPIKey:     s.ClassifierAPIKey,
		DestinationID:        s.DestinationID,
		AffirmativeToken:     affirmative,
	}
	if rc.MaxListingsPerPage <= 0 {
		rc.MaxListingsPerPage = DefaultMaxListingsPerPage
	}
	if rc.MaxPages <= 0 {
		rc.MaxPages = DefaultMaxPages
	}

	if err := validate.Struct(rc); err != nil {
		return RunConfig{}, fmt.Errorf("invalid run config: %w", err)
	}
	return rc, nil
}

// NeedsClassifier reports whether the run will call the LLM at all.
func (rc RunConfig) NeedsClassifier() bool {
	return len(rc.IncludeKeywords) > 0
}
