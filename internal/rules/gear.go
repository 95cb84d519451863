package rules

import "strings"

// Side selects which keyword list a gear descriptor is classified with. The
// researched rig and the player's rig are described differently: research
// output names pickups, players name guitars.
type Side int

const (
	SideOriginal Side = iota
	SidePlayer
)

type PickupClass string

const (
	Humbucker  PickupClass = "humbucker"
	SingleCoil PickupClass = "single-coil"
	P90        PickupClass = "p90"
	Unknown    PickupClass = "unknown"
)

type GearKeywords struct {
	Humbucker  []string `yaml:"humbucker"`
	SingleCoil []string `yaml:"single_coil"`
	P90        []string `yaml:"p90"`
}

type GearTable struct {
	Original GearKeywords `yaml:"original"`
	Player   GearKeywords `yaml:"player"`
}

// Traits records every keyword family a descriptor matched. Matching is
// substring-based, so a descriptor can carry more than one trait (for example
// "Fender Les Paul copy").
type Traits struct {
	Humbucker  bool
	SingleCoil bool
	P90        bool
}

func (t GearTable) keywords(side Side) GearKeywords {
	if side == SidePlayer {
		return t.Player
	}
	return t.Original
}

func (t GearTable) Traits(side Side, descriptor string) Traits {
	kw := t.keywords(side)
	d := strings.ToLower(descriptor)
	return Traits{
		Humbucker:  containsAny(d, kw.Humbucker),
		SingleCoil: containsAny(d, kw.SingleCoil),
		P90:        containsAny(d, kw.P90),
	}
}

// Classify reduces a descriptor to one pickup class. P90 wins; a descriptor
// that matches both humbucker and single-coil keywords is Unknown.
func (t GearTable) Classify(side Side, descriptor string) PickupClass {
	tr := t.Traits(side, descriptor)
	switch {
	case tr.P90:
		return P90
	case tr.Humbucker && !tr.SingleCoil:
		return Humbucker
	case tr.SingleCoil && !tr.Humbucker:
		return SingleCoil
	}
	return Unknown
}
