package research

import (
	"encoding/json"
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/suPer8Hu/tone-platform/internal/tone"
)

var errNoLabels = errors.New("no labeled fields found")

// draft is a parsed result before post-processing. confidenceSet is false
// when the model gave no usable numeric confidence.
type draft struct {
	result        tone.ResearchResult
	confidenceSet bool
}

type rawProfile struct {
	Distortion      tone.Distortion `json:"distortion"`
	Confidence      tone.Number     `json:"confidence"`
	EvidencePhrases []string        `json:"evidence_phrases"`
}

type rawResult struct {
	OriginalGear       *tone.OriginalGear  `json:"original_gear"`
	Settings           *tone.SettingsInput `json:"settings"`
	GuitarKnobSettings *tone.KnobSettings  `json:"guitar_knob_settings"`
	SectionProfile     *rawProfile         `json:"section_profile"`
	Citations          []tone.Citation     `json:"citations"`
	Confidence         tone.Number         `json:"confidence"`
	Warnings           []string            `json:"warnings"`
	Song               string              `json:"song"`
	Artist             string              `json:"artist"`
}

func (r *rawResult) draft() *draft {
	d := &draft{confidenceSet: r.Confidence.Valid}
	res := &d.result
	res.OriginalGear = r.OriginalGear
	if r.Settings != nil {
		res.Settings = r.Settings.Normalize()
	}
	res.GuitarKnobSettings = r.GuitarKnobSettings
	if r.SectionProfile != nil {
		res.SectionProfile = tone.SectionProfile{
			Distortion:      r.SectionProfile.Distortion,
			Confidence:      tone.Clamp01(r.SectionProfile.Confidence.Value),
			EvidencePhrases: r.SectionProfile.EvidencePhrases,
		}
	}
	res.Citations = r.Citations
	res.Confidence = r.Confidence.Value
	res.Warnings = r.Warnings
	res.Song = r.Song
	res.Artist = r.Artist
	return d
}

type parser struct {
	name string
	fn   func(text string, q tone.Query) (*draft, error)
}

var parsers = []parser{
	{"strict", parseStrict},
	{"bracket", parseBracket},
	{"labeled", parseLabeled},
}

// parse runs the parser chain over model output; the first parser that
// succeeds wins. The returned name identifies it for logging.
func parse(text string, q tone.Query) (*draft, string, error) {
	var errs []error
	for _, p := range parsers {
		d, err := p.fn(text, q)
		if err == nil {
			return d, p.name, nil
		}
		errs = append(errs, errors.New(p.name+": "+err.Error()))
	}
	return nil, "", errors.Join(errs...)
}

func parseStrict(text string, _ tone.Query) (*draft, error) {
	var r rawResult
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &r); err != nil {
		return nil, err
	}
	return r.draft(), nil
}

func parseBracket(text string, q tone.Query) (*draft, error) {
	var lastErr error = errors.New("no JSON object found")
	for start := strings.IndexByte(text, '{'); start >= 0; {
		end := matchBrace(text, start)
		if end < 0 {
			break
		}
		d, err := parseStrict(text[start:end+1], q)
		if err == nil {
			return d, nil
		}
		lastErr = err
		next := strings.IndexByte(text[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return nil, lastErr
}

// matchBrace returns the index of the brace closing the one at start,
// skipping braces inside JSON strings, or -1.
func matchBrace(s string, start int) int {
	depth := 0
	inString, escaped := false, false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func label(name, value string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\*\*` + name + `:\*\*\s*` + value)
}

var (
	guitarLabel   = label("Guitar", `([^\n]+)`)
	pickupsLabel  = label("Pickups", `([^\n]+)`)
	ampLabel      = label("Amplifier", `([^\n]+)`)
	notesLabel    = label("Notes", `([^\n]+)`)
	gainLabel     = label("Gain", `([0-9]+)`)
	bassLabel     = label("Bass", `([0-9]+)`)
	midLabel      = label("Mid", `([0-9]+)`)
	trebleLabel   = label("Treble", `([0-9]+)`)
	presenceLabel = label("Presence", `([^\n]+)`)
	reverbLabel   = label("Reverb", `([0-9]+)`)

	confidenceLabel = regexp.MustCompile(`(?i)Confidence:\s*([0-9.]+)`)
	warningsBlock   = regexp.MustCompile(`(?is)\*\*Warnings:\*\*(.*?)(?:\*\*|\z)`)
	parenthesized   = regexp.MustCompile(`\(([^)]+)\)`)
	leadingNumber   = regexp.MustCompile(`[0-9]+`)
)

const labeledEvidence = "Fallback classification based on gain settings"

// parseLabeled rebuilds a minimal result from markdown such as
// "**Guitar:** Les Paul". Missing fields get defaults; at least one labeled
// field must be present.
func parseLabeled(text string, q tone.Query) (*draft, error) {
	found := false
	str := func(re *regexp.Regexp, def string) string {
		if m := re.FindStringSubmatch(text); m != nil {
			found = true
			return strings.TrimSpace(m[1])
		}
		return def
	}
	num := func(re *regexp.Regexp, def int) (int, bool) {
		if m := re.FindStringSubmatch(text); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				found = true
				return n, true
			}
		}
		return def, false
	}

	gear := &tone.OriginalGear{
		Guitar:  str(guitarLabel, "Unknown"),
		Pickups: str(pickupsLabel, "Unknown"),
		Amp:     str(ampLabel, "Unknown"),
		Notes:   str(notesLabel, ""),
	}

	gain, gainFound := num(gainLabel, 0)
	bass, _ := num(bassLabel, 5)
	mid, _ := num(midLabel, 5)
	treble, _ := num(trebleLabel, 5)
	reverb, _ := num(reverbLabel, 0)
	settings := &tone.AmpSettings{
		Gain:     tone.Knob(gain),
		Bass:     tone.Knob(bass),
		Mid:      tone.Knob(mid),
		Treble:   tone.Knob(treble),
		Presence: tone.Knob(5),
		Reverb:   tone.Knob(reverb),
	}
	if m := presenceLabel.FindStringSubmatch(text); m != nil {
		found = true
		switch v := m[1]; {
		case strings.Contains(strings.ToLower(v), "not"):
			settings.Presence = nil
		case leadingNumber.MatchString(v):
			n, _ := strconv.Atoi(leadingNumber.FindString(v))
			settings.Presence = tone.Knob(n)
		}
	}

	if !found {
		return nil, errNoLabels
	}

	profile := tone.SectionProfile{
		Distortion:      tone.DistortionCrunch,
		Confidence:      0.6,
		EvidencePhrases: []string{labeledEvidence},
	}
	if gainFound && gain <= 2 {
		profile.Distortion = tone.DistortionClean
	}

	citations := []tone.Citation{}
	for _, m := range parenthesized.FindAllStringSubmatch(text, -1) {
		if strings.Contains(m[1], "http") {
			citations = append(citations, tone.CitationFromURL(m[1]))
		}
	}

	confidence := 0.8
	if m := confidenceLabel.FindStringSubmatch(text); m != nil {
		if f, err := strconv.ParseFloat(strings.TrimRight(m[1], "."), 64); err == nil {
			confidence = f
		}
	}

	warnings := []string{}
	if m := warningsBlock.FindStringSubmatch(text); m != nil {
		for _, line := range strings.Split(m[1], "\n") {
			line = strings.TrimSpace(line)
			if !strings.HasPrefix(line, "-") {
				continue
			}
			if w := strings.TrimSpace(strings.TrimPrefix(line, "-")); w != "" {
				warnings = append(warnings, w)
			}
		}
	}

	return &draft{
		result: tone.ResearchResult{
			OriginalGear:   gear,
			Settings:       settings,
			SectionProfile: profile,
			Citations:      citations,
			Confidence:     confidence,
			Warnings:       warnings,
			Song:           q.Song,
			Artist:         artistOr(q, "Unknown Artist"),
		},
		confidenceSet: true,
	}, nil
}
