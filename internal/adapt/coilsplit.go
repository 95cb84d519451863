package adapt

import (
	"regexp"
	"strings"

	"github.com/suPer8Hu/tone-platform/internal/rules"
)

var (
	splitBridge = regexp.MustCompile(`(?i)coil-split bridge`)
	splitNeck   = regexp.MustCompile(`(?i)coil-split neck`)
	splitAny    = regexp.MustCompile(`(?i)coil-split`)
)

// stripCoilSplit rewrites coil-split wording to the plain pickup position.
func stripCoilSplit(choice string) string {
	choice = splitBridge.ReplaceAllString(choice, "Bridge pickup")
	choice = splitNeck.ReplaceAllString(choice, "Neck pickup")
	return splitAny.ReplaceAllString(choice, "Bridge pickup")
}

func hasCoilSplit(choice string) bool {
	return strings.Contains(strings.ToLower(choice), "coil-split")
}

// pickupDescriptor is what the original side is classified from: the
// pickups string, or the guitar when pickups is blank.
func pickupDescriptor(pickups, guitar string) string {
	if strings.TrimSpace(pickups) != "" {
		return pickups
	}
	return guitar
}

// coilSplitChoice applies the coil-split decision table. Coil-split only
// makes sense when emulating single coils with humbuckers.
func coilSplitChoice(gear rules.GearTable, choice, originalPickups, playerGuitar string, coilSplitAvailable bool) string {
	orig := gear.Traits(rules.SideOriginal, originalPickups)
	player := gear.Traits(rules.SidePlayer, playerGuitar)

	if orig.Humbucker && player.Humbucker && hasCoilSplit(choice) {
		choice = stripCoilSplit(choice)
	}
	if orig.SingleCoil && player.SingleCoil && hasCoilSplit(choice) {
		choice = stripCoilSplit(choice)
	}

	scToHB := orig.SingleCoil && player.Humbucker
	if !scToHB && hasCoilSplit(choice) {
		choice = stripCoilSplit(choice)
	}

	if scToHB && coilSplitAvailable && !hasCoilSplit(choice) {
		if strings.Contains(strings.ToLower(choice), "neck") && !strings.Contains(strings.ToLower(choice), "bridge") {
			return "Coil-split neck"
		}
		return "Coil-split bridge"
	}
	return choice
}
