package calculator

// Value is an indicator reading that may be undefined, e.g. during warm-up.
type Value struct {
	Float float64
	Valid bool
}

// Some wraps a defined reading.
func Some(f float64) Value { return Value{Float: f, Valid: true} }

// None is the undefined reading.
var None = Value{}

// Get returns the reading and whether it is defined.
func (v Value) Get() (float64, bool) { return v.Float, v.Valid }

func allNone(n int) []Value {
	if n < 0 {
		n = 0
	}
	return make([]Value, n)
}
