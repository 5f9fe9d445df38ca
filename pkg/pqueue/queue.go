package pqueue

import (
	"fmt"
	"reflect"
)

var (
	ErrInvalidCapacity = fmt.Errorf("queue capacity must be positive")
	ErrEmpty           = fmt.Errorf("queue is empty")
	ErrOutOfRange      = fmt.Errorf("queue index out of range")
)

// WithEqual sets the equality used by Contains. The default is reflect.DeepEqual.
func WithEqual[T any](fn func(a, b T) bool) Option[T] {
	return func(q *Queue[T]) {
		q.equal = fn
	}
}

type Option[T any] func(*Queue[T])

type item[T any] struct {
	value T
	prior float64
}

// New returns a queue holding at most capacity elements, kept in ascending
// order of priority. When full, enqueueing ejects the highest priority element,
// which may be the one just offered.
func New[T any](capacity int, opts ...Option[T]) (*Queue[T], error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("new queue with capacity %d: %w", capacity, ErrInvalidCapacity)
	}
	q := &Queue[T]{
		items: make([]item[T], 0, capacity),
		cap:   capacity,
		equal: func(a, b T) bool { return reflect.DeepEqual(a, b) },
	}
	for _, opt := range opts {
		opt(q)
	}
	return q, nil
}

type Queue[T any] struct {
	cap   int
	items []item[T]
	equal func(a, b T) bool
}

func (q *Queue[T]) Enqueue(val T, priority float64) {
	if len(q.items) < q.cap {
		q.items = append(q.items, item[T]{value: val, prior: priority})
		for i := len(q.items) - 1; i > 0 && q.items[i].prior < q.items[i-1].prior; i-- {
			q.swap(i, i-1)
		}
		return
	}

	last := len(q.items) - 1
	if priority >= q.items[last].prior {
		return
	}
	q.items[last] = item[T]{value: val, prior: priority}
	for i := last; i > 0 && q.items[i].prior < q.items[i-1].prior; i-- {
		q.swap(i, i-1)
	}
}

// Dequeue removes and returns the minimum priority element.
func (q *Queue[T]) Dequeue() (T, error) {
	var zero T
	if len(q.items) == 0 {
		return zero, ErrEmpty
	}
	x := q.items[0]
	copy(q.items, q.items[1:])
	q.items[len(q.items)-1] = item[T]{}
	q.items = q.items[:len(q.items)-1]
	return x.value, nil
}

func (q *Queue[T]) First() (T, error) {
	var zero T
	if len(q.items) == 0 {
		return zero, ErrEmpty
	}
	return q.items[0].value, nil
}

// Last returns the maximum priority element in constant time.
func (q *Queue[T]) Last() (T, error) {
	var zero T
	if len(q.items) == 0 {
		return zero, ErrEmpty
	}
	return q.items[len(q.items)-1].value, nil
}

// LastPriority returns the priority of the maximum priority element.
func (q *Queue[T]) LastPriority() (float64, error) {
	if len(q.items) == 0 {
		return 0, ErrEmpty
	}
	return q.items[len(q.items)-1].prior, nil
}

func (q *Queue[T]) Contains(val T) bool {
	for i := range q.items {
		if q.equal(q.items[i].value, val) {
			return true
		}
	}
	return false
}

// Values returns the elements in ascending priority order.
func (q *Queue[T]) Values() []T {
	values := make([]T, len(q.items))
	for i := range q.items {
		values[i] = q.items[i].value
	}
	return values
}

// Walk calls fn for each element in ascending priority order until fn returns false.
func (q *Queue[T]) Walk(fn func(val T, priority float64) bool) {
	snapshot := make([]item[T], len(q.items))
	copy(snapshot, q.items)
	for _, it := range snapshot {
		if !fn(it.value, it.prior) {
			return
		}
	}
}

// Seek returns the element at position idx in ascending priority order.
func (q *Queue[T]) Seek(idx int) (T, float64, error) {
	var zero T
	if idx < 0 || idx >= len(q.items) {
		return zero, 0, fmt.Errorf("seek %d in a queue of %d: %w", idx, len(q.items), ErrOutOfRange)
	}
	it := q.items[idx]
	return it.value, it.prior, nil
}

func (q *Queue[T]) Full() bool { return len(q.items) == q.cap }

func (q *Queue[T]) IsEmpty() bool { return len(q.items) == 0 }

func (q *Queue[T]) Cap() int { return q.cap }

func (q *Queue[T]) Len() int { return len(q.items) }

func (q *Queue[T]) swap(i, j int) { q.items[i], q.items[j] = q.items[j], q.items[i] }
