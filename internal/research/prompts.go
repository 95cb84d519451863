package research

import (
	"fmt"
	"strings"

	"github.com/suPer8Hu/tone-platform/internal/tone"
)

func artistOr(q tone.Query, def string) string {
	if q.Artist == "" {
		return def
	}
	return q.Artist
}

var searchTerms = []string{
	"amp settings",
	"guitar tone settings",
	"rig rundown",
	"gear setup",
	"amp knobs",
	"tone guide",
	"guitar volume tone knobs",
	"guitar pickup selector position",
	"guitar volume tone settings",
	"guitar knob positions",
	"guitar controls settings",
	"guitar volume tone knob settings",
	"guitar volume tone controls",
}

const resultShape = `{
  "original_gear": {
    "guitar": "string",
    "pickups": "string",
    "amp": "string",
    "notes": "string"
  },
  "settings": {
    "gain": number,
    "bass": number,
    "mid": number,
    "treble": number,
    "presence": number,
    "reverb": number
  },
  "guitar_knob_settings": {
    "volume": "string (e.g., '7', '8-9', 'full')",
    "tone": "string (e.g., '6', '7-8', 'full')"
  },
  "section_profile": {
    "distortion": "clean" | "edge" | "crunch" | "high-gain",
    "confidence": number,
    "evidence_phrases": ["short quoted phrases from sources that indicate clean vs distorted"]
  },
  "citations": [
    {
      "title": "string",
      "url": "string"
    }
  ],
  "confidence": number,
  "warnings": ["string"],
  "song": "string",
  "artist": "string"
}`

const gainRules = `GAIN RULES:
- If the tone is clean, set gain to 0
- If the tone has light overdrive, set gain to 1-2
- If the tone is distorted, set gain to 3-10
- Always prioritize clean tone detection and set gain to 0 when appropriate`

// SearchPrompt is the single-input prompt for the web search strategy.
func SearchPrompt(q tone.Query) string {
	var terms strings.Builder
	for _, t := range searchTerms {
		fmt.Fprintf(&terms, "- %q %q %s\n", q.Song, q.Artist, t)
	}

	return fmt.Sprintf(`Research the guitar tone for %q by %s - %s section.

SEARCH FOR:
1. Specific amp settings, pickup selector positions, and guitar knob settings for this exact song
2. Guitar rig rundowns, gear interviews, and technical articles
3. Amp settings guides, tone tutorials, and gear recommendations
4. Official gear lists, studio notes, and live setup information
5. Guitar volume and tone knob settings, pickup selector positions

IMPORTANT: For guitar knob settings, look for specific numbers (e.g., "volume at 7", "tone at 6") rather than generic terms like "full" or "high". Be precise with the settings found.

SEARCH TERMS TO USE:
%s
PREFERRED SOURCES:
- Guitar World, Guitar Player, Premier Guitar, ToneDB, Reddit, Quora, other guitar forums
- Rig rundown videos and interviews
- Gear forums and communities
- Official artist websites and interviews
- Studio and live setup documentation
- User reviews and comments

IMPORTANT: For clean tones, set gain to 0 or very low (1-2). For distorted/overdriven tones, use appropriate gain levels (3-10). Consider the musical style and tone characteristics.

%s

SECTION CLASSIFICATION:
Classify the requested SECTION's distortion level as one of:
- "clean" | "edge" | "crunch" | "high-gain"
Only mark "clean" if at least one source explicitly describes a clean/no-drive guitar sound for THIS section (riff vs solo). Otherwise choose edge/crunch/high-gain.

CRITICAL: You MUST return ONLY a valid JSON object. Do not include any text before or after the JSON. Do not use markdown formatting. The response must start with { and end with }.

IMPORTANT: Use the exact song and artist names as found in your research. If the user made typos, correct them based on the actual song/artist names found online.

Return the information in this EXACT JSON format:
%s`, q.Song, artistOr(q, "unknown artist"), q.Part, terms.String(), gainRules, resultShape)
}

const reasoningSystem = `You are an expert guitar tone analyst. Based on your knowledge of guitar gear, amps, and tone characteristics, analyze the requested song and create realistic amp settings that would achieve the desired tone. Consider the guitar type, amp type, and playing style.

IMPORTANT: For guitar knob settings, always try to find specific numbers from research. If you can't find specific settings, use realistic ranges based on the tone type:
- Clean tones: volume 5-7, tone 6-8
- Overdriven tones: volume 7-9, tone 5-7
- Distorted tones: volume 8-10, tone 4-6
- Avoid generic terms like "full", "high", "low"

IMPORTANT GAIN GUIDELINES:
- Clean tones: Set gain to 0 or very low (1-2)
- Light overdrive: Set gain to 2-4
- Medium distortion: Set gain to 4-7
- Heavy distortion: Set gain to 7-10
- Consider the musical style, era, and tone characteristics

` + gainRules + `

SECTION CLASSIFICATION:
Classify the requested SECTION's distortion level as one of:
- "clean" | "edge" | "crunch" | "high-gain"
Only mark "clean" if you have strong evidence this section uses a clean/no-drive guitar sound. Otherwise choose edge/crunch/high-gain based on the musical style and era.

Return ONLY a valid JSON object with the following structure: {"original_gear": {"guitar": "string", "pickups": "string", "amp": "string", "notes": "string?"}, "settings": {"gain": number?, "bass": number?, "mid": number?, "treble": number?, "presence": number?, "reverb": number?}, "guitar_knob_settings": {"volume": "string (e.g., '7', '8-9')", "tone": "string (e.g., '6', '7-8')"}, "section_profile": {"distortion": "clean" | "edge" | "crunch" | "high-gain", "confidence": number, "evidence_phrases": ["string"]}, "citations": [{"title": "string", "url": "string"}], "confidence": number, "warnings": ["string"], "song": "string", "artist": "string"}. Do not include any text before or after the JSON.`

// ReasoningPrompt is the user message for the search-free strategy.
func ReasoningPrompt(q tone.Query) string {
	return fmt.Sprintf(`Analyze the guitar tone for %q by %s - %s section.

SEARCH FOR SPECIFIC INFORMATION:
- Exact amp settings and knob positions for this song
- Guitar volume and tone knob settings (be specific: "volume at 7", "tone at 6", not just "full")
- Pickup selector positions
- Guitar rig rundowns and gear interviews
- Amp settings guides and tone tutorials
- Official gear lists and studio notes

IMPORTANT: For guitar knob settings, be specific with numbers (e.g., "volume at 7", "tone at 6") rather than generic terms like "full" or "high". If specific settings aren't found, use realistic defaults like "volume: 7-8", "tone: 6-7".

GUITAR KNOB SETTINGS GUIDELINES:
- Volume: Usually 7-10 for most tones, 5-7 for clean tones
- Tone: Usually 5-8 for most tones, 6-8 for clean tones
- Be specific with numbers when possible
- Avoid generic terms like "full", "high", "low"

If you find specific amp settings for this exact song, use them. If not, create realistic settings based on the typical gear and style. Pay special attention to whether this is a clean or distorted tone and set gain accordingly.

IMPORTANT: Use the exact song and artist names as found in your research. If the user made typos, correct them based on the actual song/artist names found online.

Return ONLY valid JSON.`, q.Song, artistOr(q, "unknown artist"), q.Part)
}
