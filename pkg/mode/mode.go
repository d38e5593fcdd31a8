package mode

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Mode is a named answering preset. It selects which resolution stages run
// and the thresholds applied at each of them.
type Mode string

const (
	ModeSafe     Mode = "safe"
	ModeStandard Mode = "standard"
	ModeEnhanced Mode = "enhanced"
)

// Stage identifies one step of the resolution pipeline.
type Stage string

const (
	StageFixedQAExact   Stage = "fixed_qa_exact"
	StageFixedQASimilar Stage = "fixed_qa_similar"
	StageVectorKB       Stage = "vector_kb"
	StageWebSearch      Stage = "web_search"
	StageGeneration     Stage = "ai_generation"

	// StageNone marks an exhausted resolution (fallback answer).
	StageNone Stage = "none"
)

var knownStages = map[Stage]bool{
	StageFixedQAExact:   true,
	StageFixedQASimilar: true,
	StageVectorKB:       true,
	StageWebSearch:      true,
	StageGeneration:     true,
}

// KnownStage reports whether s is a member of the pipeline stage set.
func KnownStage(s Stage) bool {
	return knownStages[s]
}

// ConfigError signals an invalid mode, override field or threshold.
// It is fatal: resolution never starts on a broken configuration.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid mode configuration: %s: %s", e.Field, e.Reason)
}

// PipelineConfig is a fully-resolved resolution pipeline: the ordered stages
// to attempt, their acceptance thresholds and the escalation knobs.
type PipelineConfig struct {
	Mode   Mode
	Stages []Stage

	// Acceptance thresholds, all in [0,1].
	ExactThreshold     float64
	SimilarThreshold   float64
	VectorThreshold    float64
	WebSearchThreshold float64

	// VectorFloor is the retrieval cutoff: chunks scoring below it are never
	// surfaced, not even as grounding context. It sits below VectorThreshold
	// so sub-acceptance chunks can still ground generation.
	VectorFloor float64

	// WebSearchAutoThreshold is the trigger bar: web search fires only when
	// the best vector score falls below it. A separate bar from acceptance;
	// "good enough to answer" and "bad enough to pay for a search" differ.
	WebSearchAutoThreshold float64

	// RecommendThreshold is the floor for similar-question suggestions.
	RecommendThreshold float64
	RecommendCount     int

	TopK      int
	MaxTokens int

	AllowGeneration bool
	AllowWebSearch  bool

	// SimilarAnswerEnabled lets the FixedQASimilar stage answer directly at
	// SimilarThreshold. When false the stage only gathers recommendations.
	SimilarAnswerEnabled bool

	EnableLLMPolish bool

	// DisclaimerOnLowVector marks accepted vector answers below the high
	// confidence tier with a disclaimer. Off by default.
	DisclaimerOnLowVector bool

	WebSearchDomains []string
	FallbackMessage  string
}

// Overrides is a sparse per-application override of a mode preset.
// Nil fields keep the preset value. Field names mirror the stored
// application configuration keys.
type Overrides struct {
	Stages                 []Stage  `json:"priority_order,omitempty"`
	ExactThreshold         *float64 `json:"fixed_qa_threshold,omitempty" validate:"omitempty,gte=0,lte=1"`
	SimilarThreshold       *float64 `json:"fixed_qa_similar_threshold,omitempty" validate:"omitempty,gte=0,lte=1"`
	VectorThreshold        *float64 `json:"vector_kb_threshold,omitempty" validate:"omitempty,gte=0,lte=1"`
	VectorFloor            *float64 `json:"vector_kb_floor,omitempty" validate:"omitempty,gte=0,lte=1"`
	WebSearchThreshold     *float64 `json:"web_search_threshold,omitempty" validate:"omitempty,gte=0,lte=1"`
	WebSearchAutoThreshold *float64 `json:"web_search_auto_threshold,omitempty" validate:"omitempty,gte=0,lte=1"`
	RecommendThreshold     *float64 `json:"recommend_threshold,omitempty" validate:"omitempty,gte=0,lte=1"`
	RecommendCount         *int     `json:"recommend_count,omitempty" validate:"omitempty,gte=0"`
	TopK                   *int     `json:"top_k,omitempty" validate:"omitempty,gte=1"`
	MaxTokens              *int     `json:"max_tokens,omitempty" validate:"omitempty,gte=1"`
	AllowGeneration        *bool    `json:"allow_ai_generation,omitempty"`
	AllowWebSearch         *bool    `json:"allow_web_search,omitempty"`
	SimilarAnswerEnabled   *bool    `json:"similar_answer_enabled,omitempty"`
	EnableLLMPolish        *bool    `json:"enable_llm_polish,omitempty"`
	DisclaimerOnLowVector  *bool    `json:"disclaimer_on_low_vector,omitempty"`
	WebSearchDomains       []string `json:"web_search_domains,omitempty"`
	FallbackMessage        *string  `json:"fallback_message,omitempty"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report offending fields by their stored configuration key, not the Go name.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ParseOverrides decodes stored override JSON strictly. An unknown key is a
// configuration mistake and fails with ConfigError rather than being
// silently ignored.
func ParseOverrides(raw []byte) (*Overrides, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	var o Overrides
	if err := dec.Decode(&o); err != nil {
		return nil, &ConfigError{Field: "overrides", Reason: err.Error()}
	}
	return &o, nil
}

// Resolve merges overrides over the preset of m and validates the result.
// Pure function: identical inputs yield identical configs, and the returned
// config never aliases preset or override slices.
func Resolve(m Mode, o *Overrides) (PipelineConfig, error) {
	cfg, ok := presetFor(m)
	if !ok {
		return PipelineConfig{}, &ConfigError{Field: "mode", Reason: fmt.Sprintf("unknown mode %q", m)}
	}

	if o != nil {
		if err := validate.Struct(o); err != nil {
			return PipelineConfig{}, asConfigError(err)
		}
		applyOverrides(&cfg, o)
	}

	if err := checkInvariants(&cfg); err != nil {
		return PipelineConfig{}, err
	}

	return cfg, nil
}

func asConfigError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &ConfigError{Field: "overrides", Reason: err.Error()}
	}
	fe := fieldErrs[0]
	return &ConfigError{
		Field:  fe.Field(),
		Reason: fmt.Sprintf("value %v violates %q", fe.Value(), fe.Tag()),
	}
}

func applyOverrides(cfg *PipelineConfig, o *Overrides) {
	if o.Stages != nil {
		cfg.Stages = append([]Stage(nil), o.Stages...)
	}
	if o.ExactThreshold != nil {
		cfg.ExactThreshold = *o.ExactThreshold
	}
	if o.SimilarThreshold != nil {
		cfg.SimilarThreshold = *o.SimilarThreshold
	}
	if o.VectorThreshold != nil {
		cfg.VectorThreshold = *o.VectorThreshold
	}
	if o.VectorFloor != nil {
		cfg.VectorFloor = *o.VectorFloor
	}
	if o.WebSearchThreshold != nil {
		cfg.WebSearchThreshold = *o.WebSearchThreshold
	}
	if o.WebSearchAutoThreshold != nil {
		cfg.WebSearchAutoThreshold = *o.WebSearchAutoThreshold
	}
	if o.RecommendThreshold != nil {
		cfg.RecommendThreshold = *o.RecommendThreshold
	}
	if o.RecommendCount != nil {
		cfg.RecommendCount = *o.RecommendCount
	}
	if o.TopK != nil {
		cfg.TopK = *o.TopK
	}
	if o.MaxTokens != nil {
		cfg.MaxTokens = *o.MaxTokens
	}
	if o.AllowGeneration != nil {
		cfg.AllowGeneration = *o.AllowGeneration
	}
	if o.AllowWebSearch != nil {
		cfg.AllowWebSearch = *o.AllowWebSearch
	}
	if o.SimilarAnswerEnabled != nil {
		cfg.SimilarAnswerEnabled = *o.SimilarAnswerEnabled
	}
	if o.EnableLLMPolish != nil {
		cfg.EnableLLMPolish = *o.EnableLLMPolish
	}
	if o.DisclaimerOnLowVector != nil {
		cfg.DisclaimerOnLowVector = *o.DisclaimerOnLowVector
	}
	if o.WebSearchDomains != nil {
		cfg.WebSearchDomains = append([]string(nil), o.WebSearchDomains...)
	}
	if o.FallbackMessage != nil {
		cfg.FallbackMessage = *o.FallbackMessage
	}
}

func checkInvariants(cfg *PipelineConfig) error {
	if len(cfg.Stages) == 0 {
		return &ConfigError{Field: "priority_order", Reason: "stage list must not be empty"}
	}

	seen := make(map[Stage]bool, len(cfg.Stages))
	for _, s := range cfg.Stages {
		if !KnownStage(s) {
			return &ConfigError{Field: "priority_order", Reason: fmt.Sprintf("unknown stage %q", s)}
		}
		if seen[s] {
			return &ConfigError{Field: "priority_order", Reason: fmt.Sprintf("duplicate stage %q", s)}
		}
		seen[s] = true
	}

	if cfg.ExactThreshold < cfg.SimilarThreshold {
		return &ConfigError{
			Field:  "fixed_qa_threshold",
			Reason: fmt.Sprintf("exact threshold %.2f must be >= similar threshold %.2f", cfg.ExactThreshold, cfg.SimilarThreshold),
		}
	}

	if cfg.VectorFloor > cfg.VectorThreshold {
		return &ConfigError{
			Field:  "vector_kb_floor",
			Reason: fmt.Sprintf("retrieval floor %.2f must be <= vector threshold %.2f", cfg.VectorFloor, cfg.VectorThreshold),
		}
	}

	// Generation answers must be groundable: when both stages are configured,
	// generation comes after vector retrieval.
	genIdx, vecIdx := -1, -1
	for i, s := range cfg.Stages {
		switch s {
		case StageGeneration:
			genIdx = i
		case StageVectorKB:
			vecIdx = i
		}
	}
	if genIdx >= 0 && vecIdx >= 0 && genIdx < vecIdx {
		return &ConfigError{Field: "priority_order", Reason: "ai_generation must come after vector_kb"}
	}

	return nil
}
