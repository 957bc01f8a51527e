package control

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/cellsim/internal/dynamo"
	"github.com/san-kum/cellsim/internal/params"
)

func TestNone(t *testing.T) {
	ctrl := NewNone(1)
	u := ctrl.Compute(dynamo.State{1.0, 2.0}, 0.0)

	if len(u) != 1 {
		t.Errorf("expected 1 control, got %d", len(u))
	}
	if u[0] != 0 {
		t.Errorf("control should be 0, got %f", u[0])
	}
}

func TestDriveRestsAtZeroCurrent(t *testing.T) {
	pv, err := params.FromPreset(params.DefaultPreset)
	if err != nil {
		t.Fatal(err)
	}

	ctrl, err := Drive(pv, 1)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := ctrl.(*Current); !ok {
		t.Errorf("expected a current drive, got %T", ctrl)
	}

	if err := pv.Update(map[string]any{params.CurrentFunction: 0.0}, true); err != nil {
		t.Fatal(err)
	}
	ctrl, err = Drive(pv, 1)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := ctrl.(*None); !ok {
		t.Errorf("expected open circuit at zero current, got %T", ctrl)
	}
	if u := ctrl.Compute(dynamo.State{0}, 10); len(u) != 1 || u[0] != 0 {
		t.Errorf("expected [0], got %v", u)
	}
}

func TestConstant(t *testing.T) {
	ctrl := NewConstant(2.5)
	for _, tm := range []float64{0, 100, 3600} {
		u := ctrl.Compute(dynamo.State{0}, tm)
		if u[0] != 2.5 {
			t.Errorf("t=%g: expected 2.5, got %f", tm, u[0])
		}
	}
}

func TestFromParameters(t *testing.T) {
	pv, err := params.New(map[string]any{params.CurrentFunction: 5})
	if err != nil {
		t.Fatal(err)
	}
	ctrl, err := FromParameters(pv)
	if err != nil {
		t.Fatal(err)
	}
	if u := ctrl.Compute(nil, 10); u[0] != 5 {
		t.Errorf("expected 5, got %f", u[0])
	}

	pulse := func(t float64) float64 {
		if math.Mod(t, 20) < 10 {
			return 1
		}
		return 0
	}
	if err := pv.Update(map[string]any{params.CurrentFunction: pulse}, true); err != nil {
		t.Fatal(err)
	}
	ctrl, _ = FromParameters(pv)
	if u := ctrl.Compute(nil, 5); u[0] != 1 {
		t.Errorf("expected pulse on at t=5, got %f", u[0])
	}
	if u := ctrl.Compute(nil, 15); u[0] != 0 {
		t.Errorf("expected pulse off at t=15, got %f", u[0])
	}
}

func TestFromParametersMissing(t *testing.T) {
	pv, _ := params.New(map[string]any{})
	if _, err := FromParameters(pv); !errors.Is(err, params.ErrMissingParameter) {
		t.Errorf("expected ErrMissingParameter, got %v", err)
	}
}

func TestDerate(t *testing.T) {
	ctrl := NewDerate(NewConstant(5), 0, 310)

	u := ctrl.Compute(dynamo.State{300}, 0)
	if u[0] != 5 {
		t.Errorf("below limit should pass through, got %f", u[0])
	}

	u = ctrl.Compute(dynamo.State{314}, 1)
	if u[0] >= 5 || u[0] < 0 {
		t.Errorf("above limit should cut current, got %f", u[0])
	}

	u = ctrl.Compute(dynamo.State{400}, 2)
	if u[0] != 0 {
		t.Errorf("far above limit should stop at zero, got %f", u[0])
	}

	ctrl.Reset()
	if u := ctrl.Compute(dynamo.State{300}, 0); u[0] != 5 {
		t.Errorf("reset should clear history, got %f", u[0])
	}
}

func TestDerateKeepsSign(t *testing.T) {
	ctrl := NewDerate(NewConstant(-4), 0, 310)
	u := ctrl.Compute(dynamo.State{312}, 0)
	if u[0] > 0 || u[0] <= -4 {
		t.Errorf("charging current should shrink towards zero, got %f", u[0])
	}
}
