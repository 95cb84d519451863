package tone

import "strings"

type Part string

const (
	PartRiff Part = "riff"
	PartSolo Part = "solo"
)

// ParsePart accepts exactly "riff" or "solo".
func ParsePart(s string) (Part, bool) {
	p := Part(s)
	switch p {
	case PartRiff, PartSolo:
		return p, true
	}
	return p, false
}

type Mode string

const (
	ModeAuthoritative Mode = "authoritative"
	ModeHypothesis    Mode = "hypothesis"
)

type Distortion string

const (
	DistortionClean    Distortion = "clean"
	DistortionEdge     Distortion = "edge"
	DistortionCrunch   Distortion = "crunch"
	DistortionHighGain Distortion = "high-gain"
)

// Query identifies a song section to research.
type Query struct {
	Song   string `json:"song"`
	Artist string `json:"artist,omitempty"`
	Part   Part   `json:"part"`
}

// Validate trims the query in place and reports the first problem.
func (q *Query) Validate() error {
	q.Song = strings.TrimSpace(q.Song)
	q.Artist = strings.TrimSpace(q.Artist)
	if q.Song == "" {
		return Validation("Song title is required and cannot be empty")
	}
	p, ok := ParsePart(string(q.Part))
	if !ok {
		return Validation(`Part must be either "riff" or "solo"`)
	}
	q.Part = p
	return nil
}

// Key is the cache identity of the query: song|artist|part, lowercased and
// trimmed, with "unknown" standing in for a blank artist.
func (q Query) Key() string {
	artist := strings.ToLower(strings.TrimSpace(q.Artist))
	if artist == "" {
		artist = "unknown"
	}
	return strings.ToLower(strings.TrimSpace(q.Song)) + "|" + artist + "|" + strings.ToLower(strings.TrimSpace(string(q.Part)))
}

type OriginalGear struct {
	Guitar  string `json:"guitar"`
	Pickups string `json:"pickups"`
	Amp     string `json:"amp"`
	Notes   string `json:"notes,omitempty"`
}

// AmpSettings holds integer knob positions in [0,10]. Nil fields are knobs
// that are absent, either unknown or not available on the amp.
type AmpSettings struct {
	Gain     *int `json:"gain,omitempty"`
	Bass     *int `json:"bass,omitempty"`
	Mid      *int `json:"mid,omitempty"`
	Treble   *int `json:"treble,omitempty"`
	Presence *int `json:"presence,omitempty"`
	Reverb   *int `json:"reverb,omitempty"`
}

type KnobSettings struct {
	Volume string `json:"volume"`
	Tone   string `json:"tone"`
}

type SectionProfile struct {
	Distortion      Distortion `json:"distortion"`
	Confidence      float64    `json:"confidence"`
	EvidencePhrases []string   `json:"evidence_phrases,omitempty"`
}

// ResearchResult is the normalized research payload; it is also what the
// cache stores.
type ResearchResult struct {
	OriginalGear       *OriginalGear  `json:"original_gear"`
	Settings           *AmpSettings   `json:"settings"`
	GuitarKnobSettings *KnobSettings  `json:"guitar_knob_settings,omitempty"`
	SectionProfile     SectionProfile `json:"section_profile"`
	Citations          []Citation     `json:"citations"`
	Confidence         float64        `json:"confidence"`
	Warnings           []string       `json:"warnings"`
	Song               string         `json:"song,omitempty"`
	Artist             string         `json:"artist,omitempty"`
}

type Features struct {
	CoilSplit bool `json:"coilSplit"`
	Presence  bool `json:"presence"`
	Reverb    bool `json:"reverb"`
	FXLoop    bool `json:"fxLoop"`
}

type OriginalTone struct {
	Gear               OriginalGear  `json:"gear"`
	Settings           SettingsInput `json:"settings"`
	GuitarKnobSettings *KnobSettings `json:"guitar_knob_settings,omitempty"`
}

// ProfileInput is the client-supplied section profile. Every field is
// optional.
type ProfileInput struct {
	Distortion      Distortion `json:"distortion,omitempty"`
	Confidence      Number     `json:"confidence"`
	EvidencePhrases []string   `json:"evidence_phrases,omitempty"`
}

type AdaptationRequest struct {
	Song                   string          `json:"song"`
	Artist                 string          `json:"artist,omitempty"`
	Part                   Part            `json:"part"`
	Original               OriginalTone    `json:"original"`
	OriginalSectionProfile *ProfileInput   `json:"originalSectionProfile,omitempty"`
	GuitarLabel            string          `json:"guitarLabel"`
	AmpLabel               string          `json:"ampLabel"`
	Features               Features        `json:"features"`
	OriginalTechnique      []TechniqueFact `json:"originalTechnique,omitempty"`
}

// Validate trims the request in place and reports the first problem.
func (r *AdaptationRequest) Validate() error {
	q := Query{Song: r.Song, Artist: r.Artist, Part: r.Part}
	if err := q.Validate(); err != nil {
		return err
	}
	r.Song, r.Artist, r.Part = q.Song, q.Artist, q.Part
	r.GuitarLabel = strings.TrimSpace(r.GuitarLabel)
	r.AmpLabel = strings.TrimSpace(r.AmpLabel)
	if r.GuitarLabel == "" || r.AmpLabel == "" {
		return Validation("Guitar and amp labels are required")
	}
	return nil
}

// TechniqueTexts returns the non-empty technique fact texts.
func (r *AdaptationRequest) TechniqueTexts() []string {
	out := make([]string, 0, len(r.OriginalTechnique))
	for _, f := range r.OriginalTechnique {
		if t := strings.TrimSpace(f.Text); t != "" {
			out = append(out, t)
		}
	}
	return out
}

type AdaptationResult struct {
	PickupChoice     string       `json:"pickup_choice"`
	AmpSettings      *AmpSettings `json:"amp_settings"`
	GuitarKnobTweaks KnobSettings `json:"guitar_knob_tweaks"`
	PlayingTips      []string     `json:"playing_tips"`
	TechniqueNotes   []string     `json:"technique_notes"`
	Confidence       float64      `json:"confidence"`
}
