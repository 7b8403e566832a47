package component

// Transform is the host-side pose of a body entity, copied from the
// simulation after every step.
type Transform struct {
	X        float64
	Y        float64
	Rotation float64
}

var TransformComponent = NewComponent[Transform]()
