package astro

import (
	"fmt"
	"math"
)

// Sign is one of the twelve 30° ecliptic sectors.
type Sign struct {
	Key   string
	Label string
	Glyph string
}

// Zodiac lists the signs in ecliptic order starting at 0°.
var Zodiac = [12]Sign{
	{Key: "aries", Label: "Aries", Glyph: "♈"},
	{Key: "taurus", Label: "Taurus", Glyph: "♉"},
	{Key: "gemini", Label: "Gemini", Glyph: "♊"},
	{Key: "cancer", Label: "Cancer", Glyph: "♋"},
	{Key: "leo", Label: "Leo", Glyph: "♌"},
	{Key: "virgo", Label: "Virgo", Glyph: "♍"},
	{Key: "libra", Label: "Libra", Glyph: "♎"},
	{Key: "scorpio", Label: "Scorpio", Glyph: "♏"},
	{Key: "sagittarius", Label: "Sagittarius", Glyph: "♐"},
	{Key: "capricorn", Label: "Capricorn", Glyph: "♑"},
	{Key: "aquarius", Label: "Aquarius", Glyph: "♒"},
	{Key: "pisces", Label: "Pisces", Glyph: "♓"},
}

// ZodiacIndex returns the sign index (0-11) for an ecliptic longitude.
func ZodiacIndex(lonRad float64) int {
	deg := RadToDeg(WrapTo2Pi(lonRad))
	return int(math.Floor(deg/30)) % 12
}

// FormatZodiacPosition renders a longitude as degrees and minutes within its
// sign, e.g. "12°07' ♌".
func FormatZodiacPosition(lonRad float64) string {
	lonDeg := RadToDeg(WrapTo2Pi(lonRad))
	idx := int(math.Floor(lonDeg/30)) % 12

	inSign := lonDeg - float64(idx)*30
	whole := int(math.Floor(inSign))
	minutes := int(math.Round((inSign - float64(whole)) * 60))
	if minutes == 60 {
		minutes = 0
		whole++
		if whole == 30 {
			whole = 0
			idx = (idx + 1) % 12
		}
	}
	return fmt.Sprintf("%d°%02d' %s", whole, minutes, Zodiac[idx].Glyph)
}

// FormatSignedDegrees renders a value with an explicit sign, e.g. "+12.3°".
func FormatSignedDegrees(deg float64, digits int) string {
	sign := "+"
	if deg < 0 {
		sign = "−"
	}
	return fmt.Sprintf("%s%.*f°", sign, digits, math.Abs(deg))
}
