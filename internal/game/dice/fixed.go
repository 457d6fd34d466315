package dice

// FixedSource is a deterministic Source that replays a fixed sequence of
// values, cycling when exhausted. Intended for tests that need scripted rolls.
type FixedSource struct {
	values []int
	next   int
}

// NewFixedSource creates a FixedSource over the given values.
//
// Precondition: len(values) > 0.
// Postcondition: Returns a Source whose Intn yields values[i % len(values)]
// clamped into [0, n).
func NewFixedSource(values ...int) *FixedSource {
	if len(values) == 0 {
		panic("dice: NewFixedSource requires at least one value")
	}
	return &FixedSource{values: values}
}

// Intn returns the next scripted value reduced modulo n.
//
// Precondition: n > 0.
func (f *FixedSource) Intn(n int) int {
	if n <= 0 {
		panic("dice: Intn called with n <= 0")
	}
	v := f.values[f.next%len(f.values)]
	f.next++
	if v < 0 {
		v = -v
	}
	return v % n
}
