// Package common holds the host/native numeric conversions shared by the
// scene layer and the physics layer. Host values are mathgl vectors; native
// values are Chipmunk vectors. Both sides are pairs of float64, so the
// mapping is exact.
package common

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/jakecoffman/cp"
)

func ToNative(v mgl64.Vec2) cp.Vector {
	return cp.Vector{X: v[0], Y: v[1]}
}

func ToHost(v cp.Vector) mgl64.Vec2 {
	return mgl64.Vec2{v.X, v.Y}
}

// ToNativeAngle converts a host rotation to the engine's. Both are radians.
func ToNativeAngle(radians float64) float64 {
	return radians
}

func ToHostAngle(radians float64) float64 {
	return radians
}
