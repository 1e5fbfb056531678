package orchestrator

import (
	"github.com/chiziuwaga/fixitforme-contractor-sub002/internal/logging"
)

// DefaultHighConfidence is the score an intent must exceed to override thread continuity.
const DefaultHighConfidence = 0.6

// Option configures an Orchestrator. Use With* functions to create Options.
type Option func(*orchestratorOptions)

type orchestratorOptions struct {
	table          *KeywordTable
	highConfidence float64
	intentFloor    float64
	logger         *logging.DebugLogger
}

func defaultOptions() orchestratorOptions {
	return orchestratorOptions{
		highConfidence: DefaultHighConfidence,
		intentFloor:    DefaultIntentFloor,
		logger:         logging.NopLogger(),
	}
}

// WithKeywordTable sets the keyword table used for intent scoring.
func WithKeywordTable(t *KeywordTable) Option {
	return func(o *orchestratorOptions) { o.table = t }
}

// WithThresholds sets the high-confidence routing threshold and the intent floor.
// Both comparisons are strict: a score equal to the threshold does not pass.
func WithThresholds(highConfidence, intentFloor float64) Option {
	return func(o *orchestratorOptions) {
		o.highConfidence = highConfidence
		o.intentFloor = intentFloor
	}
}

// WithLogger sets the debug logger.
func WithLogger(l *logging.DebugLogger) Option {
	return func(o *orchestratorOptions) {
		if l != nil {
			o.logger = l
		}
	}
}
