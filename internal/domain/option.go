package domain

// Option is a filter dimension that is either unset or pinned to one value.
// It replaces "all" sentinel strings so a legitimate value is never mistaken
// for "no filter".
type Option[T comparable] struct {
	value T
	set   bool
}

// Some pins the option to v.
func Some[T comparable](v T) Option[T] {
	return Option[T]{value: v, set: true}
}

// None returns an unset option.
func None[T comparable]() Option[T] {
	return Option[T]{}
}

// Get returns the value and whether it is set.
func (o Option[T]) Get() (T, bool) {
	return o.value, o.set
}

// IsSet reports whether the option restricts its dimension.
func (o Option[T]) IsSet() bool {
	return o.set
}

// Allows reports whether v passes the option.
func (o Option[T]) Allows(v T) bool {
	return !o.set || o.value == v
}
