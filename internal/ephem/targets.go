package ephem

import (
	"errors"
	"fmt"
	"strings"

	"github.com/litescript/ls-synodic/internal/astro"
)

// ErrUnknownBody reports a body name outside the registry.
var ErrUnknownBody = errors.New("unknown body")

// Body identifies a solar-system body or point.
type Body string

const (
	Sun      Body = "sun"
	Moon     Body = "moon"
	Mercury  Body = "mercury"
	Venus    Body = "venus"
	Mars     Body = "mars"
	Jupiter  Body = "jupiter"
	Saturn   Body = "saturn"
	Uranus   Body = "uranus"
	Neptune  Body = "neptune"
	Pluto    Body = "pluto"
	MeanNode Body = "mean_node"
)

// BodyInfo contains display and lookup information for a body.
type BodyInfo struct {
	Body   Body
	Label  string
	Glyph  string
	NAIFID int                 // NAIF SPICE ID, 0 if none
	Range  astro.DistanceRange // approximate geocentric distance span
}

// Bodies is the canonical list of bodies in display order.
// Sourced from https://naif.jpl.nasa.gov/pub/naif/toolkit_docs/C/req/naif_ids.html
var Bodies = []BodyInfo{
	{Body: Sun, Label: "Sun", Glyph: "☉", NAIFID: 10, Range: astro.DistanceRange{MinAU: 0.983, MaxAU: 1.017}},
	{Body: Moon, Label: "Moon", Glyph: "☽", NAIFID: 301, Range: astro.DistanceRange{MinAU: 0.00243, MaxAU: 0.00271}},
	{Body: Mercury, Label: "Mercury", Glyph: "☿", NAIFID: 199, Range: astro.DistanceRange{MinAU: 0.53, MaxAU: 1.47}},
	{Body: Venus, Label: "Venus", Glyph: "♀", NAIFID: 299, Range: astro.DistanceRange{MinAU: 0.27, MaxAU: 1.73}},
	{Body: Mars, Label: "Mars", Glyph: "♂", NAIFID: 499, Range: astro.DistanceRange{MinAU: 0.37, MaxAU: 2.68}},
	{Body: Jupiter, Label: "Jupiter", Glyph: "♃", NAIFID: 599, Range: astro.DistanceRange{MinAU: 3.93, MaxAU: 6.48}},
	{Body: Saturn, Label: "Saturn", Glyph: "♄", NAIFID: 699, Range: astro.DistanceRange{MinAU: 8.0, MaxAU: 11.1}},
	{Body: Uranus, Label: "Uranus", Glyph: "♅", NAIFID: 799, Range: astro.DistanceRange{MinAU: 17.1, MaxAU: 21.2}},
	{Body: Neptune, Label: "Neptune", Glyph: "♆", NAIFID: 899, Range: astro.DistanceRange{MinAU: 28.8, MaxAU: 31.3}},
	{Body: Pluto, Label: "Pluto", Glyph: "♇", NAIFID: 999, Range: astro.DistanceRange{MinAU: 28.7, MaxAU: 50.3}},
	{Body: MeanNode, Label: "Mean Node", Glyph: "☊"},
}

// BodiesByName maps body names (lowercase) and labels to body info.
var BodiesByName = func() map[string]BodyInfo {
	m := make(map[string]BodyInfo, len(Bodies)*2)
	for _, b := range Bodies {
		m[string(b.Body)] = b
		m[strings.ToLower(b.Label)] = b
	}
	// Common spellings of the node
	m["node"] = m[string(MeanNode)]
	m["north_node"] = m[string(MeanNode)]
	return m
}()

// ParseBody resolves a body name, case-insensitively.
func ParseBody(s string) (Body, error) {
	b, ok := Lookup(s)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownBody, s)
	}
	return b.Body, nil
}

// Lookup returns body info for a name or label.
func Lookup(s string) (BodyInfo, bool) {
	b, ok := BodiesByName[strings.ToLower(strings.TrimSpace(s))]
	return b, ok
}

// Info returns the registry entry for b. Unknown bodies get a bare entry.
func (b Body) Info() BodyInfo {
	if info, ok := BodiesByName[string(b)]; ok {
		return info
	}
	return BodyInfo{Body: b, Label: string(b)}
}

// IsSun reports whether b is the Sun.
func (b Body) IsSun() bool { return b == Sun }

// IsInner reports whether b is an inferior planet (Mercury or Venus).
func (b Body) IsInner() bool { return b == Mercury || b == Venus }

func (b Body) String() string { return string(b) }
