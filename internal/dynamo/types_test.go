package dynamo

import (
	"math"
	"testing"
)

func TestState_IsValid(t *testing.T) {
	tests := []struct {
		name  string
		state State
		valid bool
	}{
		{"empty", State{}, true},
		{"normal", State{1.0, 2.0, 3.0}, true},
		{"zeros", State{0.0, 0.0}, true},
		{"with NaN", State{1.0, math.NaN()}, false},
		{"with +Inf", State{1.0, math.Inf(1)}, false},
		{"with -Inf", State{1.0, math.Inf(-1)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsValid(); got != tt.valid {
				t.Errorf("IsValid() = %v, want %v", got, tt.valid)
			}
		})
	}
}

func TestState_Norm(t *testing.T) {
	tests := []struct {
		state    State
		expected float64
	}{
		{State{3, 4}, 5.0},
		{State{1, 0}, 1.0},
		{State{0, 0}, 0.0},
		{State{1, 1, 1, 1}, 2.0},
	}

	for _, tt := range tests {
		if got := tt.state.Norm(); math.Abs(got-tt.expected) > 1e-10 {
			t.Errorf("Norm(%v) = %v, want %v", tt.state, got, tt.expected)
		}
	}
}

func TestState_Arithmetic(t *testing.T) {
	a := State{1, 2, 3}
	b := State{4, 5, 6}

	sum := a.Add(b)
	if sum[0] != 5 || sum[1] != 7 || sum[2] != 9 {
		t.Errorf("Add failed: got %v", sum)
	}

	diff := b.Sub(a)
	if diff[0] != 3 || diff[1] != 3 || diff[2] != 3 {
		t.Errorf("Sub failed: got %v", diff)
	}

	scaled := a.Scale(2)
	if scaled[0] != 2 || scaled[1] != 4 || scaled[2] != 6 {
		t.Errorf("Scale failed: got %v", scaled)
	}

	mid := a.Lerp(b, 0.5)
	if mid[0] != 2.5 || mid[1] != 3.5 || mid[2] != 4.5 {
		t.Errorf("Lerp failed: got %v", mid)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Dt <= 0 {
		t.Error("DefaultConfig has invalid Dt")
	}
	if cfg.Duration() != 3600 {
		t.Errorf("DefaultConfig duration = %v, want 3600", cfg.Duration())
	}
	if cfg.Tolerance <= 0 {
		t.Error("DefaultConfig has invalid Tolerance")
	}
}

func TestResult_EventName(t *testing.T) {
	r := &Result{Termination: TerminationFinalTime}
	if r.EventName() != "" {
		t.Errorf("expected no event, got %q", r.EventName())
	}
	r.Termination = "event: Minimum voltage"
	if r.EventName() != "Minimum voltage" {
		t.Errorf("expected Minimum voltage, got %q", r.EventName())
	}
}

func TestLookupTable(t *testing.T) {
	table := NewLookupTable(func(x float64) float64 { return 2 * x }, 0, 1, 100)

	if got := table.At(0.255); math.Abs(got-0.51) > 1e-12 {
		t.Errorf("At(0.255) = %v, want 0.51", got)
	}
	if got := table.At(-1); got != 0 {
		t.Errorf("below range should clamp to 0, got %v", got)
	}
	if got := table.At(3); got != 2 {
		t.Errorf("above range should clamp to 2, got %v", got)
	}
	if !math.IsNaN(table.At(math.NaN())) {
		t.Error("NaN input should give NaN")
	}
}

func TestParallelFor(t *testing.T) {
	out := make([]int, 1000)
	ParallelFor(len(out), 10, func(start, end int) {
		for i := start; i < end; i++ {
			out[i] = i * i
		}
	})
	for i, v := range out {
		if v != i*i {
			t.Fatalf("index %d not processed", i)
		}
	}
}
