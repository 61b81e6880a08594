package trail

import (
	"math"
	"time"

	"github.com/litescript/ls-synodic/internal/astro"
	"github.com/litescript/ls-synodic/internal/ephem"
)

// MaxResolvePasses caps the window fixed-point iteration. The window size
// moves the bucketed center, which can move the conjunction search, so the
// loop runs a few times rather than to convergence.
const MaxResolvePasses = 3

// BucketFraction is the center bucket width as a fraction of the window.
// Reference instants inside one bucket share a center and hence cache keys.
const BucketFraction = 0.25

// Window is a resolved sampling window.
type Window struct {
	Center     time.Time `json:"center"`
	WindowDays float64   `json:"window_days"`
}

// WindowOptions controls conjunction anchoring.
type WindowOptions struct {
	EnsureConjunctions bool    // widen the window to reach both bracketing conjunctions
	MarginDays         float64 // added beyond the farther conjunction
	SearchMaxDays      float64 // search horizon in each direction
	NearZeroDeg        float64 // largest |elongation| accepted at a sign change
	MaxWindowDays      float64 // upper bound on the resolved window
}

// DefaultWindowOptions returns the stock resolver settings. Anchoring is off.
func DefaultWindowOptions() WindowOptions {
	return WindowOptions{
		EnsureConjunctions: false,
		MarginDays:         6,
		SearchMaxDays:      900,
		NearZeroDeg:        120,
		MaxWindowDays:      900,
	}
}

// CenterFor snaps ref to a bucket of windowDays × BucketFraction days.
func CenterFor(ref time.Time, windowDays float64) time.Time {
	bucketMs := windowDays * float64(astro.Day.Milliseconds()) * BucketFraction
	if !(bucketMs > 0) || math.IsInf(bucketMs, 0) {
		return ref
	}
	ms := math.Round(float64(ref.UnixMilli())/bucketMs) * bucketMs
	return time.UnixMilli(int64(math.Round(ms))).UTC()
}

// clampInt rounds x and clamps it to [lo, hi]; hi wins when lo > hi.
func clampInt(x, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, math.Round(x)))
}

// withDefaults fills unset fields from DefaultWindowOptions. A zero margin
// is kept; the other fields must be positive.
func (o WindowOptions) withDefaults() WindowOptions {
	d := DefaultWindowOptions()
	if !(o.MarginDays >= 0) {
		o.MarginDays = d.MarginDays
	}
	if !(o.SearchMaxDays > 0) {
		o.SearchMaxDays = d.SearchMaxDays
	}
	if !(o.NearZeroDeg > 0) {
		o.NearZeroDeg = d.NearZeroDeg
	}
	if !(o.MaxWindowDays > 0) {
		o.MaxWindowDays = d.MaxWindowDays
	}
	return o
}

// ResolveWindow sizes the window around ref. With anchoring enabled it
// searches outward for the nearest conjunctions and widens the window to
// reach the farther one plus a margin, capped at MaxWindowDays. Failing to
// find both conjunctions is not an error: the last window size is kept.
// Unset option fields take their defaults.
func (e *Engine) ResolveWindow(body ephem.Body, ref time.Time, baseWindowDays, stepHours float64, opts WindowOptions) Window {
	opts = opts.withDefaults()
	key := windowKey{
		body:      body,
		refMs:     ref.UnixMilli(),
		base:      baseWindowDays,
		step:      stepHours,
		ensure:    opts.EnsureConjunctions,
		margin:    opts.MarginDays,
		searchMax: opts.SearchMaxDays,
		nearZero:  opts.NearZeroDeg,
		maxWindow: opts.MaxWindowDays,
	}
	if w, ok := e.windows.Get(key); ok {
		return w
	}

	windowDays := clampInt(baseWindowDays, baseWindowDays, opts.MaxWindowDays)
	for pass := 0; pass < MaxResolvePasses; pass++ {
		if !opts.EnsureConjunctions || body.IsSun() {
			break
		}
		center := CenterFor(ref, windowDays)

		required, ok := e.requiredWindowDays(body, center, stepHours, opts)
		if !ok {
			break
		}
		next := clampInt(math.Max(baseWindowDays, required), baseWindowDays, opts.MaxWindowDays)
		if next == windowDays {
			break
		}
		windowDays = next
	}

	w := Window{Center: CenterFor(ref, windowDays), WindowDays: windowDays}
	e.windows.Set(key, w)
	return w
}

// requiredWindowDays returns the window reaching the nearest conjunction on
// each side of center, plus the margin, rounded up.
func (e *Engine) requiredWindowDays(body ephem.Body, center time.Time, stepHours float64, opts WindowOptions) (float64, bool) {
	step := astro.HoursToDuration(math.Max(1, stepHours))
	maxSteps := int(math.Ceil(float64(astro.DaysToDuration(opts.SearchMaxDays)) / float64(step)))
	nearZero := astro.DegToRad(opts.NearZeroDeg)

	prev, ok := e.findConjunction(body, center.Add(-step), -1, step, maxSteps, nearZero)
	if !ok {
		return 0, false
	}
	next, ok := e.findConjunction(body, center.Add(step), 1, step, maxSteps, nearZero)
	if !ok {
		return 0, false
	}

	toPrev := astro.DurationDays(center.Sub(prev))
	toNext := astro.DurationDays(next.Sub(center))
	return math.Ceil(math.Max(toPrev, toNext) + opts.MarginDays), true
}

// findConjunction walks from start in direction dir until elongation changes
// sign with both magnitudes within nearZero, then interpolates the crossing.
// A provider miss or an exhausted horizon returns false.
func (e *Engine) findConjunction(body ephem.Body, start time.Time, dir int, step time.Duration, maxSteps int, nearZero float64) (time.Time, bool) {
	tPrev := start
	ePrev, ok := e.elongationAt(body, tPrev)
	if !ok {
		return time.Time{}, false
	}

	for i := 1; i <= maxSteps; i++ {
		t := start.Add(time.Duration(dir*i) * step)
		el, ok := e.elongationAt(body, t)
		if !ok {
			return time.Time{}, false
		}

		if ePrev == 0 {
			return tPrev, true
		}
		if el == 0 {
			return t, true
		}
		if ePrev*el < 0 && math.Max(math.Abs(ePrev), math.Abs(el)) <= nearZero {
			return lerpTime(tPrev, t, -ePrev/(el-ePrev)), true
		}

		tPrev, ePrev = t, el
	}
	return time.Time{}, false
}

func (e *Engine) elongationAt(body ephem.Body, t time.Time) (float64, bool) {
	bs, ss, ok := e.statesAt(body, t)
	if !ok {
		return 0, false
	}
	return astro.Elongation(bs.LonRad, ss.LonRad), true
}
