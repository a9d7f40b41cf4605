package drift

// Pool is a free-list arena keyed by type. Released values are handed back
// by Acquire for the same key, most recently released first. Pool does not
// reset values; callers reinitialise every field after Acquire.
//
// The zero value is ready to use.
type Pool[T any] struct {
	free map[string][]T
}

// Acquire pops a released value for key. ok is false when the free list for
// key is empty.
func (p *Pool[T]) Acquire(key string) (v T, ok bool) {
	list := p.free[key]
	if len(list) == 0 {
		return v, false
	}
	v = list[len(list)-1]
	var zero T
	list[len(list)-1] = zero
	p.free[key] = list[:len(list)-1]
	return v, true
}

// Release pushes v onto key's free list.
func (p *Pool[T]) Release(key string, v T) {
	if p.free == nil {
		p.free = make(map[string][]T)
	}
	p.free[key] = append(p.free[key], v)
}

// Len returns the number of values waiting under key.
func (p *Pool[T]) Len(key string) int {
	return len(p.free[key])
}

// Total returns the number of values waiting under every key.
func (p *Pool[T]) Total() int {
	n := 0
	for _, list := range p.free {
		n += len(list)
	}
	return n
}

// Clear drops every pooled value.
func (p *Pool[T]) Clear() {
	clear(p.free)
}
