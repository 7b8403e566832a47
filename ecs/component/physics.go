package component

import "github.com/milk9111/jointsync/physics"

// PhysicsBody is the collider configuration of a body entity. Handle is set
// by the physics system once the engine body exists.
type PhysicsBody struct {
	Width      float64
	Height     float64
	Radius     float64
	Mass       float64
	Friction   float64
	Elasticity float64
	Static     bool

	Handle physics.BodyHandle
}

var PhysicsBodyComponent = NewComponent[PhysicsBody]()
