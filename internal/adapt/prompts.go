package adapt

import (
	"encoding/json"
	"fmt"

	"github.com/suPer8Hu/tone-platform/internal/tone"
)

const systemPrompt = `You are a tone adaptation expert. Given (A) ORIGINAL tone + technique for a specific song section and (B) the PLAYER's gear, output adapted settings that compensate for differences only where needed.

Non-negotiables
- Do NOT mirror the original numbers. Compute changes from concrete deltas (pickup type/output/position, guitar build/scale, amp family voicing, available controls). If no delta warrants a change for a knob, KEEP the original numeric value.
- Output ONLY JSON matching our schema. Include ONLY knobs the player actually has (gain/bass/mid/treble; presence only if available; reverb only if available). Omit unknowns instead of guessing. Integers 0–10.
- Only set gain=0 if ORIGINAL reported gain=0 AND originalSectionProfile.distortion === "clean". Otherwise, compute gain normally from gear deltas.
- Technique fidelity: you will receive ` + "`originalTechnique`" + ` (bullets from research). Treat these as ground truth for how the guitarist plays this section (e.g., "fingerstyle, no pick", "Strat position 2/4"). **Never contradict them.**

COIL-SPLIT RULES (CRITICAL):
- ONLY use coil-split when the ORIGINAL guitar has SINGLE COIL pickups and your guitar has HUMBUCKERS
- If both original and your guitar have humbuckers, DO NOT coil-split - use the full humbucker
- If both original and your guitar have single coils, DO NOT coil-split
- Coil-split is ONLY for emulating single coil tone from humbuckers, not for general tone shaping
- Examples: Original Strat (single coils) → Your Les Paul (humbuckers) = use coil-split
- Examples: Original Les Paul (humbuckers) → Your Les Paul (humbuckers) = NO coil-split

What to consider (qualitative, flexible)
- Pickup/output + position differences (HB↔SC, P90 ≈ mid; preserve pickup POSITION if possible).
- Guitar construction/scale (LP/mahogany = thicker/darker; Strat/long scale = brighter/snappier).
- Amp family voicing translation (Fender scooped ↔ Marshall/Vox mid-forward; modern high-gain ↔ classic crunch).
- Presence vs treble synergy (no presence → subtle treble compensation; if harsh and presence exists → reduce presence before treble).
- Reverb: prefer preserving the original value; change only if your rig translation clearly requires it, and state why.

Explanations: list only changes you actually made and the reason for each (e.g., "HB→SC target: −2 gain, +1 treble", "Fender→mid-forward: +2 mids, −1 bass"). If a control was kept the same for a reason, include a short bullet like "kept bass to avoid flub on 4x12".

Also include ` + "`technique_notes`" + ` (3–5 concise bullets) that repeat or refine the guitarist-only facts from ` + "`originalTechnique`" + `, adapted to the player's rig (e.g., preserve "fingerstyle, no pick"; note pickup selector position). No advice language, no bandmates.

OUTPUT fields:
- pickup_choice: specific pickup selector position (e.g., "Bridge pickup", "Neck pickup", "Bridge + Neck", "Middle pickup", "Bridge + Middle", "Neck + Middle", "All three pickups", "Coil-split bridge", "Coil-split neck"). Focus on the pickup selector position, not playing technique. Only use coil-split when emulating single coil from humbuckers.
- amp_settings: only include knobs the player actually has; integers 0–10.
- guitar_knob_tweaks: volume/tone guidance (e.g., "vol ~8 for edge-of-breakup").
- playing_tips: 3–5 specific playing technique tips based on the original guitarist's style for this song/part (e.g., "Use palm muting for tight rhythm", "Pick near the bridge for brightness", "Alternate pick for fast runs", "Use hybrid picking for complex parts").
- technique_notes: 3–5 concise bullets that repeat or refine the guitarist-only facts from originalTechnique, adapted to the player's rig. No advice language, no bandmates.
- confidence: 0–1.`

const outputShape = `{
  "pickup_choice": "string",
  "amp_settings": { "gain": number, "bass": number, "mid": number, "treble": number, "presence": number?, "reverb": number? },
  "guitar_knob_tweaks": { "volume": "string", "tone": "string" },
  "playing_tips": ["string"],
  "technique_notes": ["string"],
  "confidence": number
}`

func compact(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}

func userPrompt(req *tone.AdaptationRequest) string {
	artist := req.Artist
	if artist == "" {
		artist = "unknown artist"
	}
	knobs := "Not specified"
	if req.Original.GuitarKnobSettings != nil {
		knobs = compact(req.Original.GuitarKnobSettings)
	}
	technique := "No technique data available"
	if len(req.OriginalTechnique) > 0 {
		technique = compact(req.OriginalTechnique)
	}
	g := req.Original.Gear

	return fmt.Sprintf(`Adapt the tone for %q by %s - %s section.

Original gear: %s with %s → %s
Original settings: %s
Original guitar knobs: %s
Original technique: %s

Your gear: %s → %s
Features: %s

Return ONLY valid JSON with this structure:
%s`,
		req.Song, artist, req.Part,
		g.Guitar, g.Pickups, g.Amp,
		compact(req.Original.Settings),
		knobs,
		technique,
		req.GuitarLabel, req.AmpLabel,
		compact(req.Features),
		outputShape,
	)
}
