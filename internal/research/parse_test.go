package research

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suPer8Hu/tone-platform/internal/tone"
)

var testQuery = tone.Query{Song: "Example Riff", Part: tone.PartRiff}

func TestParse_Strict(t *testing.T) {
	d, name, err := parse(`  {"original_gear":{"guitar":"SG","pickups":"humbucker","amp":"Vox"},"settings":{"gain":4},"citations":[],"confidence":"0.75"}`, testQuery)
	require.NoError(t, err)
	assert.Equal(t, "strict", name)
	assert.True(t, d.confidenceSet)
	assert.Equal(t, 0.75, d.result.Confidence)
	assert.Equal(t, 4, *d.result.Settings.Gain)
}

func TestParse_BracketSkipsProseAndStringBraces(t *testing.T) {
	text := "Here is the tone {not json}.\n```json\n" +
		`{"original_gear":{"guitar":"Strat {reissue}","pickups":"single coil","amp":"Twin \"}\" Reverb"},"settings":{"gain":1},"citations":["https://example.test/a/b"],"confidence":0.6}` +
		"\n```\nHope that helps!"

	d, name, err := parse(text, testQuery)
	require.NoError(t, err)
	assert.Equal(t, "bracket", name)
	assert.Equal(t, "Strat {reissue}", d.result.OriginalGear.Guitar)
	assert.Equal(t, `Twin "}" Reverb`, d.result.OriginalGear.Amp)
	assert.Equal(t, []tone.Citation{{Title: "b", URL: "https://example.test/a/b"}}, d.result.Citations)
}

func TestParse_Labeled(t *testing.T) {
	text := `**Guitar:** Fender Stratocaster
**Pickups:** Single coils
**Amplifier:** Fender Twin Reverb
**Notes:** glassy
**Gain:** 2
**Bass:** 4
**Treble:** 7
**Presence:** not available
Source (https://example.test/rig/twin) and (see below)
Confidence: 0.65
**Warnings:**
- Live rig may differ
-
**End**`

	d, name, err := parse(text, testQuery)
	require.NoError(t, err)
	assert.Equal(t, "labeled", name)

	r := d.result
	assert.Equal(t, &tone.OriginalGear{Guitar: "Fender Stratocaster", Pickups: "Single coils", Amp: "Fender Twin Reverb", Notes: "glassy"}, r.OriginalGear)
	assert.Equal(t, 2, *r.Settings.Gain)
	assert.Equal(t, 4, *r.Settings.Bass)
	assert.Equal(t, 5, *r.Settings.Mid)
	assert.Equal(t, 7, *r.Settings.Treble)
	assert.Nil(t, r.Settings.Presence)
	assert.Equal(t, 0, *r.Settings.Reverb)
	assert.Equal(t, tone.DistortionClean, r.SectionProfile.Distortion)
	assert.Equal(t, 0.6, r.SectionProfile.Confidence)
	assert.Equal(t, []string{labeledEvidence}, r.SectionProfile.EvidencePhrases)
	assert.Equal(t, []tone.Citation{{Title: "twin", URL: "https://example.test/rig/twin"}}, r.Citations)
	assert.Equal(t, 0.65, r.Confidence)
	assert.Equal(t, []string{"Live rig may differ"}, r.Warnings)
	assert.Equal(t, "Example Riff", r.Song)
	assert.Equal(t, "Unknown Artist", r.Artist)
}

func TestParse_LabeledDefaults(t *testing.T) {
	d, _, err := parse("**Amplifier:** Mesa Boogie", testQuery)
	require.NoError(t, err)
	assert.Equal(t, "Unknown", d.result.OriginalGear.Guitar)
	assert.Equal(t, 0, *d.result.Settings.Gain)
	assert.Equal(t, 5, *d.result.Settings.Presence)
	assert.Equal(t, tone.DistortionCrunch, d.result.SectionProfile.Distortion)
	assert.Equal(t, 0.8, d.result.Confidence)
	assert.NotNil(t, d.result.Citations)
}

func TestParse_NothingUsable(t *testing.T) {
	_, _, err := parse("Sorry, I can't help with that.", testQuery)
	require.Error(t, err)
}

func TestMatchBrace(t *testing.T) {
	s := `x{"a":{"b":"}"}}y`
	assert.Equal(t, len(s)-2, matchBrace(s, 1))
	assert.Equal(t, -1, matchBrace(`{"open"`, 0))
}
