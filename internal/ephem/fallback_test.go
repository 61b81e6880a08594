package ephem

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

type stubProvider struct {
	name  string
	err   error
	calls int
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) State(body Body, t time.Time) (State, error) {
	p.calls++
	if p.err != nil {
		return State{}, p.err
	}
	return State{Body: body, Time: t, DistAU: 1}, nil
}

func TestFallbackProvider(t *testing.T) {
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("primary answers", func(t *testing.T) {
		primary := &stubProvider{name: "A"}
		secondary := &stubProvider{name: "B"}
		p := NewFallbackProvider(primary, secondary, nil)

		if _, err := p.State(Mars, at); err != nil {
			t.Fatalf("State() error = %v", err)
		}
		if secondary.calls != 0 || p.Fallbacks() != 0 {
			t.Errorf("secondary called %d times", secondary.calls)
		}
	})

	t.Run("primary missing", func(t *testing.T) {
		primary := &stubProvider{name: "A", err: fmt.Errorf("%w: offline", ErrNoData)}
		secondary := &stubProvider{name: "B"}
		p := NewFallbackProvider(primary, secondary, nil)

		for i := 0; i < 2; i++ {
			if _, err := p.State(Mars, at); err != nil {
				t.Fatalf("State() error = %v", err)
			}
		}
		if p.Fallbacks() != 2 {
			t.Errorf("Fallbacks() = %d, want 2", p.Fallbacks())
		}
	})

	t.Run("both missing", func(t *testing.T) {
		p := NewFallbackProvider(
			&stubProvider{name: "A", err: errors.New("down")},
			&stubProvider{name: "B", err: fmt.Errorf("%w: gap", ErrNoData)},
			nil,
		)
		if _, err := p.State(Mars, at); !errors.Is(err, ErrNoData) {
			t.Errorf("State() error = %v, want secondary ErrNoData", err)
		}
	})
}

type recordingObserver struct {
	outcomes []string
	bodies   []Body
}

func (o *recordingObserver) ObserveProviderCall(_ string, body Body, _ time.Duration, outcome string) {
	o.outcomes = append(o.outcomes, outcome)
	o.bodies = append(o.bodies, body)
}

func TestInstrumented(t *testing.T) {
	if p := Instrument(&stubProvider{name: "A"}, nil); p.Name() != "A" {
		t.Errorf("nil observer should return the provider unchanged")
	}

	obs := &recordingObserver{}
	at := time.Now()

	ok := Instrument(&stubProvider{name: "A"}, obs)
	missing := Instrument(&stubProvider{name: "B", err: fmt.Errorf("%w: x", ErrNoData)}, obs)
	broken := Instrument(&stubProvider{name: "C", err: errors.New("boom")}, obs)

	_, _ = ok.State(Mars, at)
	_, _ = missing.State(Venus, at)
	_, _ = broken.State(Moon, at)

	want := []string{OutcomeOK, OutcomeNoData, OutcomeError}
	for i, o := range want {
		if obs.outcomes[i] != o {
			t.Errorf("outcome[%d] = %q, want %q", i, obs.outcomes[i], o)
		}
	}
	if obs.bodies[1] != Venus {
		t.Errorf("body[1] = %s, want venus", obs.bodies[1])
	}
}
