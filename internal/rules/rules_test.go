package rules

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestClassify(t *testing.T) {
	g := Defaults().Gear
	cases := []struct {
		side Side
		desc string
		want PickupClass
	}{
		{SideOriginal, "Seymour Duncan humbuckers", Humbucker},
		{SideOriginal, "PAF-style pickups", Humbucker},
		{SideOriginal, "Stock single coil pickups", SingleCoil},
		{SideOriginal, "Gibson P-90", P90},
		{SideOriginal, "mystery pickups", Unknown},
		{SidePlayer, "Epiphone Les Paul Standard", Humbucker},
		{SidePlayer, "Squier Stratocaster", SingleCoil},
		// lexical ambiguity: brand and pickup keywords collide
		{SidePlayer, "Fender Les Paul copy", Unknown},
		// "paf" is only an original-side keyword
		{SidePlayer, "PAF loaded guitar", Unknown},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, g.Classify(tc.side, tc.desc), tc.desc)
	}
}

func TestTraits_ReportsOverlaps(t *testing.T) {
	tr := Defaults().Gear.Traits(SideOriginal, "Fender humbucker")
	assert.True(t, tr.Humbucker)
	assert.True(t, tr.SingleCoil)
	assert.False(t, tr.P90)
}

func TestResearchCleanHit(t *testing.T) {
	r := Defaults()
	assert.True(t, r.ResearchCleanHit(2, "", "", ""))
	assert.True(t, r.ResearchCleanHit(7, "Clean Fender twin", "", ""))
	assert.True(t, r.ResearchCleanHit(7, "", "played with no overdrive", ""))
	assert.True(t, r.ResearchCleanHit(7, "", "", "Clean Machine"))
	assert.True(t, r.ResearchCleanHit(3, "slight breakup", "", ""))
	assert.False(t, r.ResearchCleanHit(4, "slight breakup", "", ""))
	assert.False(t, r.ResearchCleanHit(8, "cranked plexi", "heavy", "Paranoid"))
}

func TestEvidenceIsClean(t *testing.T) {
	r := Defaults()
	assert.True(t, r.EvidenceIsClean(0.9, []string{"a clean Strat tone"}))
	assert.True(t, r.EvidenceIsClean(0.8, []string{"no real distortion here"}))
	assert.False(t, r.EvidenceIsClean(0.7, []string{"clean"}))
	assert.False(t, r.EvidenceIsClean(0.9, []string{"fuzz"}))
}

func TestTechniqueFilters(t *testing.T) {
	r := Defaults()
	assert.True(t, r.BlockedTip("Lock in with the drummer"))
	assert.False(t, r.BlockedTip("Mute with the palm"))
	assert.True(t, r.BlockedNote("Flea doubles the line"))
	assert.True(t, r.BlockedNote("Use the neck pickup"))
	assert.True(t, r.BlockedNote("You should roll off the tone"))
	assert.False(t, r.BlockedNote("Neck pickup, thumb over the neck"))
	assert.True(t, r.MentionsPick("Alternate picking for runs"))
	assert.True(t, r.IsFingerstyle("Fingerstyle with thumb"))
}

func TestParse_MergesOverDefaults(t *testing.T) {
	r, err := Parse([]byte(`
gear:
  player:
    humbucker: ["sg", "les paul"]
research_clean:
  gain_ceiling: 1
`))
	require.NoError(t, err)
	assert.Equal(t, Humbucker, r.Gear.Classify(SidePlayer, "Gibson SG"))
	// untouched lists keep defaults
	assert.Equal(t, SingleCoil, r.Gear.Classify(SidePlayer, "Telecaster"))
	assert.Equal(t, 1, r.ResearchClean.GainCeiling)
	assert.Equal(t, []string{"clean", "no distortion", "no overdrive"}, r.ResearchClean.Keywords)
	assert.False(t, r.ResearchCleanHit(2, "", "", ""))
}

func TestParse_RejectsBadPattern(t *testing.T) {
	_, err := Parse([]byte("technique:\n  advice_pattern: \"(unclosed\"\n"))
	require.Error(t, err)
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("research_clean:\n  gain_ceiling: 2\n"), 0o644))

	set := NewSet(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, Watch(ctx, path, set, zap.NewNop()))

	require.NoError(t, os.WriteFile(path, []byte("research_clean:\n  gain_ceiling: 4\n"), 0o644))
	require.Eventually(t, func() bool {
		return set.Current().ResearchClean.GainCeiling == 4
	}, 5*time.Second, 20*time.Millisecond)
}
