package tone

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumber_LenientDecoding(t *testing.T) {
	cases := []struct {
		in    string
		want  float64
		valid bool
	}{
		{`7`, 7, true},
		{`6.5`, 6.5, true},
		{`"8"`, 8, true},
		{`"0(clean)"`, 0, true},
		{`"around 7-8"`, 7, true},
		{`"full"`, 0, false},
		{`null`, 0, false},
		{`true`, 0, false},
	}
	for _, tc := range cases {
		var n Number
		require.NoError(t, json.Unmarshal([]byte(tc.in), &n), tc.in)
		assert.Equal(t, tc.valid, n.Valid, tc.in)
		assert.Equal(t, tc.want, n.Value, tc.in)
	}
}

func TestSettingsInput_NormalizeClampsAndRounds(t *testing.T) {
	var in SettingsInput
	require.NoError(t, json.Unmarshal([]byte(`{"gain":12,"bass":-3,"mid":4.5,"treble":"6","presence":null}`), &in))

	got := in.Normalize()
	require.NotNil(t, got.Gain)
	assert.Equal(t, 10, *got.Gain)
	assert.Equal(t, 0, *got.Bass)
	assert.Equal(t, 5, *got.Mid)
	assert.Equal(t, 6, *got.Treble)
	assert.Nil(t, got.Presence)
	assert.Nil(t, got.Reverb)
}

func TestQuery_KeyIsNormalized(t *testing.T) {
	a := Query{Song: "  Little Wing ", Artist: "Jimi HENDRIX", Part: PartSolo}
	b := Query{Song: "little wing", Artist: " jimi hendrix", Part: "solo"}
	assert.Equal(t, "little wing|jimi hendrix|solo", a.Key())
	assert.Equal(t, a.Key(), b.Key())

	noArtist := Query{Song: "Example Riff", Part: PartRiff}
	assert.Equal(t, "example riff|unknown|riff", noArtist.Key())
}

func TestQuery_Validate(t *testing.T) {
	q := Query{Song: "  ", Part: PartRiff}
	err := q.Validate()
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))

	q = Query{Song: "Song", Part: "chorus"}
	err = q.Validate()
	require.Error(t, err)
	assert.Equal(t, `Part must be either "riff" or "solo"`, Message(err, ""))

	q = Query{Song: " Song ", Part: PartRiff}
	require.NoError(t, q.Validate())
	assert.Equal(t, "Song", q.Song)
	assert.Equal(t, PartRiff, q.Part)

	for _, part := range []Part{"RIFF", " solo ", "Solo", ""} {
		q = Query{Song: "Song", Part: part}
		err = q.Validate()
		require.Error(t, err, part)
		assert.Equal(t, KindValidation, KindOf(err))
	}
}

func TestAdaptationRequest_ValidateRequiresLabels(t *testing.T) {
	r := AdaptationRequest{Song: "Song", Part: PartRiff, GuitarLabel: "Les Paul"}
	err := r.Validate()
	require.Error(t, err)
	assert.Equal(t, "Guitar and amp labels are required", Message(err, ""))
}

func TestTechniqueFact_AcceptsStringsAndObjects(t *testing.T) {
	var facts []TechniqueFact
	require.NoError(t, json.Unmarshal([]byte(`["fingerstyle", {"text":"neck pickup","source_url":"https://x.test/a"}]`), &facts))
	require.Len(t, facts, 2)
	assert.Equal(t, "fingerstyle", facts[0].Text)
	assert.Equal(t, "https://x.test/a", facts[1].SourceURL)
}

func TestCitation_AcceptsBareURL(t *testing.T) {
	var cs []Citation
	require.NoError(t, json.Unmarshal([]byte(`["https://site.test/rig-rundown", {"title":"T","url":"u"}]`), &cs))
	assert.Equal(t, Citation{Title: "rig-rundown", URL: "https://site.test/rig-rundown"}, cs[0])
	assert.Equal(t, Citation{Title: "T", URL: "u"}, cs[1])
	assert.Equal(t, "Source", CitationFromURL("https://site.test/").Title)
}

func TestError_KindAndUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := Upstream("Both web search and reasoning fallback failed", cause)
	assert.Equal(t, KindUpstream, KindOf(err))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, KindUnknown, KindOf(cause))
	assert.Equal(t, "fallback", Message(cause, "fallback"))
}
