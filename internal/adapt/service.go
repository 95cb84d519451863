package adapt

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/suPer8Hu/tone-platform/internal/ai"
	"github.com/suPer8Hu/tone-platform/internal/rules"
	"github.com/suPer8Hu/tone-platform/internal/tone"
	"go.uber.org/zap"
)

type rawAdaptation struct {
	PickupChoice     string              `json:"pickup_choice"`
	AmpSettings      *tone.SettingsInput `json:"amp_settings"`
	GuitarKnobTweaks tone.KnobSettings   `json:"guitar_knob_tweaks"`
	PlayingTips      []string            `json:"playing_tips"`
	TechniqueNotes   []string            `json:"technique_notes"`
	Confidence       tone.Number         `json:"confidence"`
}

type Service struct {
	provider ai.ProviderFactory
	model    string
	rules    *rules.Set
	log      *zap.Logger
}

func NewService(provider ai.ProviderFactory, model string, set *rules.Set, log *zap.Logger) *Service {
	if set == nil {
		set = rules.NewSet(nil)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{provider: provider, model: model, rules: set, log: log}
}

// Adapt translates the original tone to the player's rig and enforces the
// gain, technique and coil-split rules on the model's answer.
func (s *Service) Adapt(ctx context.Context, req tone.AdaptationRequest) (*tone.AdaptationResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	p, err := s.resolve(ctx)
	if err != nil {
		return nil, err
	}

	text, err := p.CompleteJSON(ctx, ai.Request{
		Model:       s.model,
		System:      systemPrompt,
		Messages:    ai.UserPrompt(userPrompt(&req)),
		Temperature: 0.3,
		MaxTokens:   1500,
	})
	if err != nil {
		return nil, tone.Upstream("Failed to adapt tone", err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, tone.Upstream("Failed to adapt tone", ai.ErrEmptyResponse)
	}
	var raw rawAdaptation
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, tone.Upstream("Failed to adapt tone", err)
	}

	return s.apply(&req, &raw), nil
}

func (s *Service) resolve(ctx context.Context) (ai.Provider, error) {
	if s.provider == nil {
		return nil, tone.NotConfigured(errors.New("no ai provider"))
	}
	if strings.TrimSpace(s.model) == "" {
		return nil, tone.NotConfigured(errors.New("adapt model not set"))
	}
	p, err := s.provider(ctx)
	if err != nil {
		s.log.Error("ai provider unavailable", zap.Error(err))
		return nil, tone.NotConfigured(err)
	}
	return p, nil
}

// apply runs the deterministic post-processing over a decoded model answer.
func (s *Service) apply(req *tone.AdaptationRequest, raw *rawAdaptation) *tone.AdaptationResult {
	r := s.rules.Current()
	out := &tone.AdaptationResult{
		PickupChoice:     raw.PickupChoice,
		GuitarKnobTweaks: raw.GuitarKnobTweaks,
		PlayingTips:      raw.PlayingTips,
		TechniqueNotes:   raw.TechniqueNotes,
		Confidence:       tone.Clamp01(raw.Confidence.Value),
	}

	// Clean-gain enforcement
	origGain := req.Original.Settings.Gain
	isZero := origGain.Valid && origGain.Value == 0
	isClean := false
	if prof := req.OriginalSectionProfile; prof != nil {
		isClean = prof.Distortion == tone.DistortionClean ||
			(prof.Confidence.Valid && r.EvidenceIsClean(prof.Confidence.Value, prof.EvidencePhrases))
	}
	forceClean := isZero && isClean

	// Technique alignment
	if fingerstyle(r, req.TechniqueTexts()) {
		out.PlayingTips = filter(out.PlayingTips, r.MentionsPick)
		if !anyMatch(out.TechniqueNotes, r.IsFingerstyle) {
			out.TechniqueNotes = append([]string{r.Technique.FingerstyleNote}, out.TechniqueNotes...)
		}
	}

	out.PlayingTips = capped(filter(out.PlayingTips, r.BlockedTip), r.Technique.MaxTips)
	out.TechniqueNotes = capped(dedupe(filter(out.TechniqueNotes, r.BlockedNote)), r.Technique.MaxNotes)

	// Clamping, and dropping knobs the player does not have
	if raw.AmpSettings != nil {
		out.AmpSettings = raw.AmpSettings.Normalize()
		if !req.Features.Presence {
			out.AmpSettings.Presence = nil
		}
		if !req.Features.Reverb {
			out.AmpSettings.Reverb = nil
		}
	}
	if forceClean {
		if out.AmpSettings == nil {
			out.AmpSettings = &tone.AmpSettings{Gain: tone.Knob(0), Bass: tone.Knob(5), Mid: tone.Knob(5), Treble: tone.Knob(5)}
		} else {
			out.AmpSettings.Gain = tone.Knob(0)
		}
	}

	origDesc := pickupDescriptor(req.Original.Gear.Pickups, req.Original.Gear.Guitar)
	before := out.PickupChoice
	out.PickupChoice = coilSplitChoice(r.Gear, out.PickupChoice, origDesc, req.GuitarLabel, req.Features.CoilSplit)

	s.log.Debug("adaptation rules applied",
		zap.Bool("is_zero", isZero),
		zap.Bool("is_clean", isClean),
		zap.String("original_pickups", string(r.Gear.Classify(rules.SideOriginal, origDesc))),
		zap.String("player_pickups", string(r.Gear.Classify(rules.SidePlayer, req.GuitarLabel))),
		zap.String("pickup_before", before),
		zap.String("pickup_after", out.PickupChoice),
	)
	return out
}

func fingerstyle(r *rules.Rules, texts []string) bool {
	return anyMatch(texts, r.IsFingerstyle)
}

func anyMatch(items []string, pred func(string) bool) bool {
	for _, it := range items {
		if pred(it) {
			return true
		}
	}
	return false
}

// filter drops the items for which drop reports true. It never returns nil.
func filter(items []string, drop func(string) bool) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if !drop(it) {
			out = append(out, it)
		}
	}
	return out
}

// dedupe trims, drops empties and keeps the first occurrence of each item.
func dedupe(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, it := range items {
		it = strings.TrimSpace(it)
		if it == "" {
			continue
		}
		if _, ok := seen[it]; ok {
			continue
		}
		seen[it] = struct{}{}
		out = append(out, it)
	}
	return out
}

func capped(items []string, n int) []string {
	if n > 0 && len(items) > n {
		return items[:n]
	}
	return items
}
