package component

// ConstraintScript names a tengo script that drives the parameters of the
// constraint on the same entity.
type ConstraintScript struct {
	Path string
}

var ConstraintScriptComponent = NewComponent[ConstraintScript]()
