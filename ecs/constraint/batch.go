package constraint

// batch is an insertion-ordered set of components. Adding a component that
// is already present keeps its original position.
type batch struct {
	order []Constraint
	set   map[Constraint]struct{}
}

func (b *batch) add(c Constraint) bool {
	if b.set == nil {
		b.set = make(map[Constraint]struct{})
	}
	if _, ok := b.set[c]; ok {
		return false
	}
	b.set[c] = struct{}{}
	b.order = append(b.order, c)
	return true
}

func (b *batch) has(c Constraint) bool {
	_, ok := b.set[c]
	return ok
}

func (b *batch) remove(c Constraint) bool {
	if _, ok := b.set[c]; !ok {
		return false
	}
	delete(b.set, c)
	for i, v := range b.order {
		if v == c {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
	return true
}

// items returns a copy of the members in insertion order.
func (b *batch) items() []Constraint {
	return append([]Constraint(nil), b.order...)
}

// drain returns the members in insertion order and empties the batch.
func (b *batch) drain() []Constraint {
	out := b.order
	b.order = nil
	b.set = nil
	return out
}

func (b *batch) len() int {
	return len(b.order)
}
