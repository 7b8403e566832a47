package common

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/jakecoffman/cp"
)

func TestVectorRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		v    mgl64.Vec2
	}{
		{"zero", mgl64.Vec2{}},
		{"negative_zero", mgl64.Vec2{math.Copysign(0, -1), 0}},
		{"unit", mgl64.Vec2{1, -1}},
		{"tiny", mgl64.Vec2{math.SmallestNonzeroFloat64, -math.SmallestNonzeroFloat64}},
		{"huge", mgl64.Vec2{math.MaxFloat64, -math.MaxFloat64}},
		{"fractional", mgl64.Vec2{0.1, 1.0 / 3.0}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := ToHost(ToNative(c.v))
			for i := range got {
				if math.Float64bits(got[i]) != math.Float64bits(c.v[i]) {
					t.Fatalf("component %d: expected %v, got %v", i, c.v, got)
				}
			}
		})
	}
}

func TestNativeRoundTrip(t *testing.T) {
	v := cp.Vector{X: -12.5, Y: 7.25}
	if got := ToNative(ToHost(v)); got != v {
		t.Fatalf("expected %v, got %v", v, got)
	}
}

func TestAngleRoundTrip(t *testing.T) {
	for _, a := range []float64{0, math.Pi, -math.Pi / 2, 1e-9} {
		if got := ToHostAngle(ToNativeAngle(a)); got != a {
			t.Fatalf("expected %g, got %g", a, got)
		}
	}
}
