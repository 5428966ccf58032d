package ai

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/DukeRupert/jyotai/internal/metrics"
	"github.com/patrickmn/go-cache"
)

// =============================================================================
// Cache
// =============================================================================

// CachedProvider serves repeated prompts from memory.
//
// Entries are keyed by a hash of the model, temperature and prompt, so two
// requests only share a completion when they would have sent the same
// request upstream.
type CachedProvider struct {
	next  Provider
	cache *cache.Cache
}

// NewCachedProvider wraps next with a cache whose entries live for ttl.
func NewCachedProvider(next Provider, ttl time.Duration) *CachedProvider {
	return &CachedProvider{
		next:  next,
		cache: cache.New(ttl, 2*ttl),
	}
}

// Name returns the wrapped provider's name.
func (p *CachedProvider) Name() string {
	return p.next.Name()
}

// Complete returns a cached completion or calls the wrapped provider.
// Failures are never cached.
func (p *CachedProvider) Complete(ctx context.Context, params CompletionParams) (*Completion, error) {
	key := cacheKey(params)

	if v, ok := p.cache.Get(key); ok {
		metrics.CacheLookup(true)
		hit := *v.(*Completion)
		hit.Cached = true
		return &hit, nil
	}
	metrics.CacheLookup(false)

	out, err := p.next.Complete(ctx, params)
	if err != nil {
		return nil, err
	}
	p.cache.SetDefault(key, out)
	return out, nil
}

// Len returns the number of cached completions.
func (p *CachedProvider) Len() int {
	return p.cache.ItemCount()
}

func cacheKey(params CompletionParams) string {
	temp := "default"
	if params.Temperature != nil {
		temp = fmt.Sprintf("%.2f", *params.Temperature)
	}
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00%s\x00%d\x00", params.Model, params.Purpose, temp, params.MaxTokens)
	h.Write([]byte(params.Prompt))
	return hex.EncodeToString(h.Sum(nil))
}

// =============================================================================
// Instrumentation
// =============================================================================

type instrumented struct {
	next   Provider
	logger *slog.Logger
}

// Instrument records call counts, latency and token usage for every call
// made through next.
func Instrument(next Provider, logger *slog.Logger) Provider {
	return &instrumented{next: next, logger: logger}
}

func (p *instrumented) Name() string {
	return p.next.Name()
}

func (p *instrumented) Complete(ctx context.Context, params CompletionParams) (*Completion, error) {
	start := time.Now()
	out, err := p.next.Complete(ctx, params)
	duration := time.Since(start)

	if err != nil {
		status := "error"
		if IsTimeout(err) {
			status = "timeout"
		}
		metrics.AICall(p.next.Name(), status, duration, 0, 0)
		p.logger.Warn("AI completion failed",
			"provider", p.next.Name(),
			"purpose", params.Purpose,
			"duration_ms", duration.Milliseconds(),
			"error", err,
		)
		return nil, err
	}

	metrics.AICall(p.next.Name(), "success", duration, out.Usage.InputTokens, out.Usage.OutputTokens)
	p.logger.Debug("AI completion",
		"provider", p.next.Name(),
		"model", out.Usage.Model,
		"purpose", params.Purpose,
		"input_tokens", out.Usage.InputTokens,
		"output_tokens", out.Usage.OutputTokens,
		"duration_ms", duration.Milliseconds(),
	)
	return out, nil
}
