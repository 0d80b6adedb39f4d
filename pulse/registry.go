package pulse

import (
	"cmp"
	"fmt"
	"reflect"
	"slices"
)

// Handle identifies a registered scene or post-process for as long as it
// stays registered. Handles are never reused.
type Handle uint64

type entry[T any] struct {
	handle   Handle
	identity identity
	value    T
	priority int
}

// registry is an ordered arena of values that are unique by identity.
type registry[T any] struct {
	entries []entry[T]
	next    Handle
}

type identity struct {
	typ reflect.Type
	ptr uintptr
}

// identityOf returns the key a value is registered under. Pointers, maps,
// channels and unsafe pointers are keyed by type and address, all other
// kinds have no identity and are rejected.
func identityOf(value any) (identity, error) {
	if value == nil {
		return identity{}, ErrNotComparable
	}

	rv := reflect.ValueOf(value)

	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Chan, reflect.UnsafePointer:
		return identity{typ: rv.Type(), ptr: rv.Pointer()}, nil

	default:
		return identity{}, fmt.Errorf("%w: %s has no identity", ErrNotComparable, rv.Type())
	}
}

func (r *registry[T]) find(id identity) (int, bool) {
	for idx, e := range r.entries {
		if e.identity == id {
			return idx, true
		}
	}

	return 0, false
}

// add appends value unless it is already registered. In both cases the
// handle of the registered value is returned.
func (r *registry[T]) add(value T, priority int) (Handle, bool, error) {
	id, err := identityOf(value)
	if err != nil {
		return 0, false, err
	}

	if idx, ok := r.find(id); ok {
		return r.entries[idx].handle, false, nil
	}

	r.next += 1

	r.entries = append(r.entries, entry[T]{
		handle:   r.next,
		identity: id,
		value:    value,
		priority: priority,
	})

	return r.next, true, nil
}

func (r *registry[T]) remove(value T) bool {
	id, err := identityOf(value)
	if err != nil {
		return false
	}

	idx, ok := r.find(id)
	if !ok {
		return false
	}

	r.entries = slices.Delete(r.entries, idx, idx+1)
	return true
}

// sortByPriority orders by ascending priority, keeping the registration
// order for equal priorities.
func (r *registry[T]) sortByPriority() {
	slices.SortStableFunc(r.entries, func(a, b entry[T]) int {
		return cmp.Compare(a.priority, b.priority)
	})
}

func (r *registry[T]) len() int {
	return len(r.entries)
}

func (r *registry[T]) values() []T {
	values := make([]T, 0, len(r.entries))
	for _, e := range r.entries {
		values = append(values, e.value)
	}

	return values
}

func (r *registry[T]) each(fn func(handle Handle, value T) error) error {
	for _, e := range r.entries {
		if err := fn(e.handle, e.value); err != nil {
			return err
		}
	}

	return nil
}
