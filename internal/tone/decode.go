package tone

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var numberPattern = regexp.MustCompile(`\d+(?:\.\d+)?`)

// Number is a JSON value that may arrive as a number, a numeric string, or a
// string carrying a number such as "0(clean)". Anything else decodes as
// not valid instead of failing the whole document.
type Number struct {
	Value float64
	Valid bool
}

func NumberOf(v float64) Number { return Number{Value: v, Valid: true} }

func (n *Number) UnmarshalJSON(b []byte) error {
	*n = Number{}
	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		*n = Number{Value: f, Valid: true}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return nil
	}
	if m := numberPattern.FindString(s); m != "" {
		if f, err := strconv.ParseFloat(m, 64); err == nil {
			*n = Number{Value: f, Valid: true}
		}
	}
	return nil
}

func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

// SettingsInput is amp settings as produced by a model or a client, before
// clamping.
type SettingsInput struct {
	Gain     Number `json:"gain"`
	Bass     Number `json:"bass"`
	Mid      Number `json:"mid"`
	Treble   Number `json:"treble"`
	Presence Number `json:"presence"`
	Reverb   Number `json:"reverb"`
}

// Normalize rounds and clamps every valid field; invalid fields stay nil.
func (s SettingsInput) Normalize() *AmpSettings {
	return &AmpSettings{
		Gain:     s.Gain.knob(),
		Bass:     s.Bass.knob(),
		Mid:      s.Mid.knob(),
		Treble:   s.Treble.knob(),
		Presence: s.Presence.knob(),
		Reverb:   s.Reverb.knob(),
	}
}

func (n Number) knob() *int {
	if !n.Valid {
		return nil
	}
	v := ClampKnob(n.Value)
	return &v
}

// ClampKnob rounds to the nearest integer and clamps to [0,10].
func ClampKnob(v float64) int {
	if math.IsNaN(v) {
		return 0
	}
	return int(math.Max(0, math.Min(10, math.Round(v))))
}

// Clamp01 clamps a confidence value to [0,1].
func Clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}

// Knob returns a pointer to v, clamped.
func Knob(v int) *int {
	c := ClampKnob(float64(v))
	return &c
}

type Citation struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// UnmarshalJSON also accepts a bare URL string.
func (c *Citation) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*c = CitationFromURL(s)
		return nil
	}
	type plain Citation
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*c = Citation(p)
	return nil
}

// CitationFromURL titles a citation with the last path segment of its URL.
func CitationFromURL(u string) Citation {
	u = strings.TrimSpace(u)
	title := u[strings.LastIndex(u, "/")+1:]
	if title == "" {
		title = "Source"
	}
	return Citation{Title: title, URL: u}
}

// TechniqueFact is one documented technique bullet. Clients send either
// objects with a source URL or plain strings.
type TechniqueFact struct {
	Text      string `json:"text"`
	SourceURL string `json:"source_url,omitempty"`
}

func (f *TechniqueFact) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = TechniqueFact{Text: s}
		return nil
	}
	type plain TechniqueFact
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*f = TechniqueFact(p)
	return nil
}

// UnmarshalJSON accepts knob positions as strings or bare numbers.
func (k *KnobSettings) UnmarshalJSON(b []byte) error {
	var raw struct {
		Volume json.RawMessage `json:"volume"`
		Tone   json.RawMessage `json:"tone"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*k = KnobSettings{Volume: knobString(raw.Volume), Tone: knobString(raw.Tone)}
	return nil
}

func knobString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return ""
}
