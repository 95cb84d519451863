// Package rules holds the keyword tables behind the deterministic
// post-processing of AI output: gear classification, clean-tone detection and
// technique-note filtering. The tables are plain data so the lexical
// heuristics stay auditable, and a YAML file can override any of them.
package rules

import (
	"fmt"
	"regexp"
	"strings"
)

// ResearchClean decides when a researched tone is treated as clean and its
// gain forced to 0.
type ResearchClean struct {
	// GainCeiling: any gain at or below it counts as clean.
	GainCeiling int `yaml:"gain_ceiling"`
	// Keywords are matched against gear notes, warnings and the song title.
	Keywords []string `yaml:"keywords"`
	// LightDriveKeywords count as clean only when gain <= LightDriveCeiling.
	LightDriveKeywords []string `yaml:"light_drive_keywords"`
	LightDriveCeiling  int      `yaml:"light_drive_ceiling"`
}

// AdaptClean decides whether the original section profile's evidence proves
// a clean tone.
type AdaptClean struct {
	EvidencePattern string  `yaml:"evidence_pattern"`
	MinConfidence   float64 `yaml:"min_confidence"`
}

type Technique struct {
	FingerstyleWord string   `yaml:"fingerstyle_word"`
	FingerstyleNote string   `yaml:"fingerstyle_note"`
	PickWords       []string `yaml:"pick_words"`
	// TipBlocklist removes playing tips about other band members.
	TipBlocklist []string `yaml:"tip_blocklist"`
	// NoteBlocklist removes technique notes; it is applied on top of
	// TipBlocklist.
	NoteBlocklist []string `yaml:"note_blocklist"`
	AdvicePattern string   `yaml:"advice_pattern"`
	MaxNotes      int      `yaml:"max_notes"`
	MaxTips       int      `yaml:"max_tips"`
}

type Rules struct {
	Gear          GearTable     `yaml:"gear"`
	ResearchClean ResearchClean `yaml:"research_clean"`
	AdaptClean    AdaptClean    `yaml:"adapt_clean"`
	Technique     Technique     `yaml:"technique"`

	evidence *regexp.Regexp
	advice   *regexp.Regexp
}

// Defaults returns the built-in tables.
func Defaults() *Rules {
	r := &Rules{
		Gear: GearTable{
			Original: GearKeywords{
				Humbucker:  []string{"humbucker", "paf", "les paul", "lp", "les-paul"},
				SingleCoil: []string{"single coil", "single-coil", "strat", "telecaster", "tele", "fender"},
				P90:        []string{"p90", "p-90", "soapbar"},
			},
			Player: GearKeywords{
				Humbucker:  []string{"les paul", "lp", "humbucker", "les-paul"},
				SingleCoil: []string{"strat", "telecaster", "tele", "single coil", "single-coil", "fender"},
				P90:        []string{"p90", "p-90", "soapbar"},
			},
		},
		ResearchClean: ResearchClean{
			GainCeiling:        2,
			Keywords:           []string{"clean", "no distortion", "no overdrive"},
			LightDriveKeywords: []string{"slight", "light"},
			LightDriveCeiling:  3,
		},
		AdaptClean: AdaptClean{
			EvidencePattern: `(?i)clean|no.*distortion|no.*overdrive`,
			MinConfidence:   0.7,
		},
		Technique: Technique{
			FingerstyleWord: "fingerstyle",
			FingerstyleNote: "fingerstyle, no pick",
			PickWords:       []string{"pick", "picking"},
			TipBlocklist:    []string{"bassist", "drummer", "bandmate", "band member"},
			NoteBlocklist:   []string{"flea", "bass guitar", "keys", "keyboard"},
			AdvicePattern:   `(?i)\b(use|try|you should|aim to|consider)\b`,
			MaxNotes:        5,
			MaxTips:         5,
		},
	}
	if err := r.compile(); err != nil {
		panic(err)
	}
	return r
}

func (r *Rules) compile() error {
	var err error
	if r.evidence, err = regexp.Compile(r.AdaptClean.EvidencePattern); err != nil {
		return fmt.Errorf("adapt_clean.evidence_pattern: %w", err)
	}
	if r.advice, err = regexp.Compile(r.Technique.AdvicePattern); err != nil {
		return fmt.Errorf("technique.advice_pattern: %w", err)
	}
	return nil
}

// ResearchCleanHit reports whether a researched tone reads as clean.
func (r *Rules) ResearchCleanHit(gain int, notes, warnings, song string) bool {
	c := r.ResearchClean
	if gain <= c.GainCeiling {
		return true
	}
	notes = strings.ToLower(notes)
	warnings = strings.ToLower(warnings)
	song = strings.ToLower(song)
	if containsAny(notes, c.Keywords) || containsAny(warnings, c.Keywords) || containsAny(song, c.Keywords) {
		return true
	}
	return gain <= c.LightDriveCeiling && containsAny(notes, c.LightDriveKeywords)
}

// EvidenceIsClean reports whether a profile with the given confidence and
// evidence phrases proves a clean section.
func (r *Rules) EvidenceIsClean(confidence float64, phrases []string) bool {
	if confidence <= r.AdaptClean.MinConfidence {
		return false
	}
	for _, p := range phrases {
		if r.evidence.MatchString(p) {
			return true
		}
	}
	return false
}

// MentionsPick reports whether a playing tip suggests using a pick.
func (r *Rules) MentionsPick(tip string) bool {
	return containsAny(strings.ToLower(tip), r.Technique.PickWords)
}

// IsFingerstyle reports whether s mentions fingerstyle playing.
func (r *Rules) IsFingerstyle(s string) bool {
	w := strings.ToLower(r.Technique.FingerstyleWord)
	return w != "" && strings.Contains(strings.ToLower(s), w)
}

// BlockedTip reports whether a playing tip is about someone other than the
// guitarist.
func (r *Rules) BlockedTip(tip string) bool {
	return containsAny(strings.ToLower(tip), r.Technique.TipBlocklist)
}

// BlockedNote reports whether a technique note mentions other band members,
// other instruments, or is phrased as advice.
func (r *Rules) BlockedNote(note string) bool {
	l := strings.ToLower(note)
	if containsAny(l, r.Technique.TipBlocklist) || containsAny(l, r.Technique.NoteBlocklist) {
		return true
	}
	return r.advice.MatchString(note)
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if k == "" {
			continue
		}
		if strings.Contains(s, strings.ToLower(k)) {
			return true
		}
	}
	return false
}
