package research

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/suPer8Hu/tone-platform/internal/ai"
	"github.com/suPer8Hu/tone-platform/internal/cache"
	"github.com/suPer8Hu/tone-platform/internal/rules"
	"github.com/suPer8Hu/tone-platform/internal/tone"
	"go.uber.org/zap"
)

const cleanGainWarning = "Gain adjusted to 0 for clean tone"

var hypothesisWarnings = []string{
	"This is a reasoning-based analysis, not web research",
	"Settings are based on typical gear characteristics for this style",
	"Accuracy may vary from the original recording",
}

const hypothesisCap = 0.7

type Options struct {
	ResearchModel string
	FallbackModel string
	TTL           time.Duration
}

// Outcome is a research result plus where it came from.
type Outcome struct {
	Result   *tone.ResearchResult
	Cached   bool
	CachedAt time.Time
	Mode     tone.Mode
}

type Service struct {
	store    cache.Store
	provider ai.ProviderFactory
	rules    *rules.Set
	opts     Options
	log      *zap.Logger
	now      func() time.Time

	// strategies overrides the list built from opts; tests use it.
	strategies []Strategy
}

func NewService(store cache.Store, provider ai.ProviderFactory, set *rules.Set, opts Options, log *zap.Logger) *Service {
	if opts.TTL <= 0 {
		opts.TTL = 24 * time.Hour
	}
	if set == nil {
		set = rules.NewSet(nil)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, provider: provider, rules: set, opts: opts, log: log, now: time.Now}
}

func (s *Service) strategyList() []Strategy {
	if s.strategies != nil {
		return s.strategies
	}
	return []Strategy{
		WebSearch{Model: s.opts.ResearchModel},
		Reasoning{Model: s.opts.FallbackModel},
	}
}

// Research returns the tone for q, from the cache when a fresh entry exists.
func (s *Service) Research(ctx context.Context, q tone.Query) (*Outcome, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	key := q.Key()

	if out := s.lookup(ctx, key); out != nil {
		return out, nil
	}

	provider, err := s.resolve(ctx)
	if err != nil {
		return nil, err
	}

	d, mode, sources, err := s.run(ctx, provider, q)
	if err != nil {
		return nil, err
	}

	res := s.finalize(d, mode, q, sources)
	if err := checkSchema(res, d.confidenceSet); err != nil {
		s.log.Warn("research output failed validation", zap.String("key", key), zap.Error(err))
		return nil, err
	}

	s.save(ctx, key, res, mode)
	return &Outcome{Result: res, Mode: mode}, nil
}

// lookup returns a fresh cache hit or nil. Read errors count as misses.
func (s *Service) lookup(ctx context.Context, key string) *Outcome {
	if s.store == nil {
		return nil
	}
	e, err := s.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			s.log.Warn("cache lookup failed", zap.String("key", key), zap.Error(err))
		}
		return nil
	}
	if !e.Fresh(s.now(), s.opts.TTL) {
		s.log.Debug("cache entry stale", zap.String("key", key), zap.Time("updated_at", e.UpdatedAt))
		return nil
	}
	payload := e.Payload
	return &Outcome{Result: &payload, Cached: true, CachedAt: e.UpdatedAt, Mode: e.Mode}
}

func (s *Service) resolve(ctx context.Context) (ai.Provider, error) {
	if s.provider == nil {
		return nil, tone.NotConfigured(errors.New("no ai provider"))
	}
	if strings.TrimSpace(s.opts.ResearchModel) == "" {
		return nil, tone.NotConfigured(errors.New("research model not set"))
	}
	p, err := s.provider(ctx)
	if err != nil {
		s.log.Error("ai provider unavailable", zap.Error(err))
		return nil, tone.NotConfigured(err)
	}
	return p, nil
}

// run walks the strategy list until one succeeds or one fails fatally.
func (s *Service) run(ctx context.Context, p ai.Provider, q tone.Query) (*draft, tone.Mode, []ai.Source, error) {
	var errs []error
	for _, st := range s.strategyList() {
		start := s.now()
		a := st.Run(ctx, p, q)
		fields := []zap.Field{
			zap.String("strategy", st.Name()),
			zap.Stringer("status", a.Status),
			zap.Duration("cost", s.now().Sub(start)),
		}
		switch a.Status {
		case Success:
			s.log.Info("research strategy succeeded", append(fields, zap.String("parser", a.Parser))...)
			return a.draft, st.Mode(), a.Sources, nil
		case Fatal:
			s.log.Warn("research strategy failed", append(fields, zap.Error(a.Err))...)
			return nil, "", nil, tone.Upstream("Research request failed", fmt.Errorf("%s: %w", st.Name(), a.Err))
		default:
			s.log.Warn("research strategy failed, trying next", append(fields, zap.Error(a.Err))...)
			errs = append(errs, fmt.Errorf("%s: %w", st.Name(), a.Err))
		}
	}
	return nil, "", nil, tone.Upstream("Both web search and reasoning fallback failed", errors.Join(errs...))
}

// finalize applies the deterministic post-processing rules to a parsed
// result.
func (s *Service) finalize(d *draft, mode tone.Mode, q tone.Query, sources []ai.Source) *tone.ResearchResult {
	res := d.result
	r := s.rules.Current()

	if mode == tone.ModeHypothesis {
		c := res.Confidence
		if !d.confidenceSet || c == 0 {
			c = hypothesisCap
		}
		res.Confidence = min(c, hypothesisCap)
		d.confidenceSet = true
		res.Warnings = append(append([]string{}, hypothesisWarnings...), res.Warnings...)
	}

	if res.Settings != nil && res.Settings.Gain != nil {
		gain := *res.Settings.Gain
		notes := ""
		if res.OriginalGear != nil {
			notes = res.OriginalGear.Notes
		}
		song := res.Song
		if song == "" {
			song = q.Song
		}
		if gain > 0 && r.ResearchCleanHit(gain, notes, strings.Join(res.Warnings, " "), song) {
			s.log.Info("forcing clean gain", zap.Int("from", gain))
			res.Settings.Gain = tone.Knob(0)
			res.Warnings = append([]string{cleanGainWarning}, res.Warnings...)
		}
	}

	if res.Settings != nil {
		if res.Settings.Presence == nil {
			res.Settings.Presence = tone.Knob(0)
		}
		if res.Settings.Reverb == nil {
			res.Settings.Reverb = tone.Knob(0)
		}
	}

	if k := res.GuitarKnobSettings; k != nil {
		if k.Volume == "full" || k.Volume == "Full" {
			k.Volume = "8-10"
		}
		if k.Tone == "full" || k.Tone == "Full" {
			k.Tone = "7-8"
		}
	}

	if len(res.Citations) == 0 && len(sources) > 0 {
		res.Citations = make([]tone.Citation, 0, len(sources))
		for _, src := range sources {
			c := tone.CitationFromURL(src.URL)
			if src.Title != "" {
				c.Title = src.Title
			}
			res.Citations = append(res.Citations, c)
		}
	}

	if res.Warnings == nil {
		res.Warnings = []string{}
	}
	res.Confidence = tone.Clamp01(res.Confidence)
	return &res
}

func checkSchema(res *tone.ResearchResult, confidenceSet bool) error {
	if res.OriginalGear == nil || res.Settings == nil || res.Citations == nil || !confidenceSet {
		return tone.Schema("Invalid response format from AI provider")
	}
	return nil
}

// save upserts the result. Failures are logged and never fail the request.
func (s *Service) save(ctx context.Context, key string, res *tone.ResearchResult, mode tone.Mode) {
	if s.store == nil {
		return
	}
	now := s.now()
	err := s.store.Upsert(ctx, &cache.Entry{
		CacheKey:   key,
		Payload:    *res,
		Confidence: res.Confidence,
		Citations:  res.Citations,
		Mode:       mode,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		s.log.Error("cache write failed", zap.String("key", key), zap.Error(tone.Store("cache write failed", err)))
	}
}
