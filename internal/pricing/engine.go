package pricing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// SplitPolicy selects how byproduct is divided between bran and the secondary byproduct.
type SplitPolicy string

const (
	// SplitShare divides total byproduct by SecondaryByproductSharePct.
	SplitShare SplitPolicy = "share"
	// SplitTable takes bran and secondary percentages from a yield table keyed by extraction rate.
	SplitTable SplitPolicy = "table"
)

// ParseSplitPolicy accepts "share" or "table", case-insensitively.
func ParseSplitPolicy(s string) (SplitPolicy, error) {
	switch p := SplitPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case SplitShare, SplitTable:
		return p, nil
	}
	return "", fmt.Errorf("unknown split policy %q", s)
}

// SplitResolver looks up the byproduct split for an extraction rate.
type SplitResolver interface {
	ResolveSplit(ctx context.Context, extractionRatePct float64) (Split, error)
}

const defaultLookupTimeout = 2 * time.Second

// Engine prices batches under a configured split policy.
type Engine struct {
	policy   SplitPolicy
	resolver SplitResolver
	timeout  time.Duration
	logger   *zap.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithSplitTable switches the engine to SplitTable using resolver.
func WithSplitTable(resolver SplitResolver) EngineOption {
	return func(e *Engine) {
		e.policy = SplitTable
		e.resolver = resolver
	}
}

// WithLookupTimeout bounds each yield table lookup.
func WithLookupTimeout(d time.Duration) EngineOption {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// NewEngine returns an engine using SplitShare unless an option says otherwise.
func NewEngine(logger *zap.Logger, opts ...EngineOption) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{
		policy:  SplitShare,
		timeout: defaultLookupTimeout,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.policy == SplitTable && e.resolver == nil {
		e.policy = SplitShare
	}
	return e
}

// Policy reports the split policy in effect.
func (e *Engine) Policy() SplitPolicy {
	return e.policy
}

// ComputePricing validates in and prices one batch. Under SplitTable the split is looked up
// before any arithmetic; a failed lookup is logged and the closed-form split is used instead.
func (e *Engine) ComputePricing(ctx context.Context, in CostInputs) (CostBreakdown, error) {
	if err := Validate(in); err != nil {
		return CostBreakdown{}, err
	}
	if e.policy != SplitTable {
		return Compute(in)
	}

	split, err := e.lookup(ctx, in.ExtractionRatePct)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return CostBreakdown{}, ctxErr
		}
		e.logger.Warn("yield table lookup failed, using share split",
			zap.Float64("extraction_rate_pct", in.ExtractionRatePct),
			zap.Error(err),
		)
		return Compute(in)
	}

	breakdown, err := ComputeWithSplit(in, split)
	var ve *ValidationError
	if errors.As(err, &ve) && ve.Field(FieldSplit) != nil {
		e.logger.Warn("yield table returned an unusable split, using share split",
			zap.Float64("extraction_rate_pct", in.ExtractionRatePct),
			zap.Float64("bran_pct", split.BranPct),
			zap.Float64("secondary_pct", split.SecondaryPct),
		)
		return Compute(in)
	}
	return breakdown, err
}

func (e *Engine) lookup(ctx context.Context, rate float64) (Split, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	return e.resolver.ResolveSplit(ctx, rate)
}
