package cell

// Accessor looks up the current value of a cell. Implementations must be
// side-effect free and return consistent values for the duration of one
// evaluation call.
type Accessor interface {
	Value(a Address) (Value, error)
}

// AccessorFunc adapts a function to [Accessor].
type AccessorFunc func(a Address) (Value, error)

// Value implements [Accessor].
func (f AccessorFunc) Value(a Address) (Value, error) {
	return f(a)
}

// CountingAccessor wraps an [Accessor] and counts lookups.
type CountingAccessor struct {
	Accessor Accessor
	Calls    int
}

// Value implements [Accessor].
func (c *CountingAccessor) Value(a Address) (Value, error) {
	c.Calls++

	return c.Accessor.Value(a)
}
