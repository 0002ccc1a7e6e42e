package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/trustpipe/trustpipe/internal/cache"
	"github.com/trustpipe/trustpipe/internal/metrics"
)

// ErrDisabled is returned when no inference provider is configured.
// Callers treat it like any provider failure and fall back to heuristics.
var ErrDisabled = errors.New("inference disabled: no provider configured")

// Service wraps a Provider with rate limiting and response caching.
// It is the single suspension point every pipeline stage calls through.
type Service struct {
	provider Provider
	limiter  *rate.Limiter
	cache    cache.Cache
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewService creates an inference service. provider may be nil (disabled);
// c may be nil (no caching).
func NewService(provider Provider, rps float64, burst int, c cache.Cache, cacheTTL time.Duration, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if rps <= 0 {
		rps = 2
	}
	if burst <= 0 {
		burst = 5
	}

	return &Service{
		provider: provider,
		limiter:  rate.NewLimiter(rate.Limit(rps), burst),
		cache:    c,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

// Enabled reports whether a provider is configured
func (s *Service) Enabled() bool {
	return s != nil && s.provider != nil
}

// Infer runs one rate-limited inference call, serving repeated prompts
// from cache. Identical prompts produce identical cached responses, which
// keeps resumed pipeline runs from re-billing completed stages.
func (s *Service) Infer(ctx context.Context, req InferRequest) (*InferResponse, error) {
	if !s.Enabled() {
		return nil, ErrDisabled
	}

	cacheKey := ""
	if s.cache != nil {
		cacheKey = cache.Key(req.System + "\x00" + req.Prompt)
		if raw, ok := s.cache.Get(cacheKey); ok {
			var resp InferResponse
			if err := json.Unmarshal(raw, &resp); err == nil {
				return &resp, nil
			}
		}
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	resp, err := s.provider.Infer(ctx, req)
	if err != nil {
		return nil, err
	}
	metrics.InferenceTokens.Add(float64(resp.TokensUsed))

	if s.cache != nil && cacheKey != "" {
		if raw, err := json.Marshal(resp); err == nil {
			_ = s.cache.Set(cacheKey, raw, s.cacheTTL)
		}
	}

	return resp, nil
}

// InferJSON runs Infer and unmarshals the extracted JSON block into out
func (s *Service) InferJSON(ctx context.Context, req InferRequest, out interface{}) error {
	resp, err := s.Infer(ctx, req)
	if err != nil {
		return err
	}

	block := ExtractJSON(resp.Content)
	if block == "" {
		return fmt.Errorf("no JSON block in model output")
	}

	if err := json.Unmarshal([]byte(block), out); err != nil {
		return fmt.Errorf("unmarshal model output: %w", err)
	}
	return nil
}
