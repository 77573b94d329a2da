package circular

import (
	"sync"
)

/*
 * Data structure implementing a fixed size ring of values.
 *
 * Once full, every new value overwrites the oldest one.
 */
type Buffer[T any] struct {
	mutex   sync.RWMutex
	values  []T
	pointer int
	count   int
}

/*
 * Creates a ring that holds at most size values.
 */
func CreateBuffer[T any](size int) *Buffer[T] {

	if size < 1 {
		size = 1
	}

	buf := Buffer[T]{
		values: make([]T, size),
	}

	return &buf
}

/*
 * Adds values to the ring, overwriting the oldest ones when full.
 *
 * Pointer points to the next slot to be written.
 */
func (b *Buffer[T]) Push(elems ...T) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	n := len(b.values)

	/*
	 * Only the tail of an oversized batch can survive.
	 */
	if len(elems) > n {
		elems = elems[len(elems)-n:]
	}

	for _, elem := range elems {
		b.values[b.pointer] = elem
		b.pointer = (b.pointer + 1) % n

		if b.count < n {
			b.count++
		}

	}

}

/*
 * Returns the capacity of the ring.
 */
func (b *Buffer[T]) Cap() int {
	return len(b.values)
}

/*
 * Returns the number of values currently held.
 */
func (b *Buffer[T]) Len() int {
	b.mutex.RLock()
	defer b.mutex.RUnlock()
	return b.count
}

/*
 * Appends the held values to out, oldest first, and returns it.
 */
func (b *Buffer[T]) Retrieve(out []T) []T {
	b.mutex.RLock()
	defer b.mutex.RUnlock()
	n := len(b.values)
	start := (b.pointer - b.count + n) % n

	for i := 0; i < b.count; i++ {
		out = append(out, b.values[(start+i)%n])
	}

	return out
}

/*
 * Returns the value written last.
 */
func (b *Buffer[T]) Last() (T, bool) {
	b.mutex.RLock()
	defer b.mutex.RUnlock()
	var zero T

	if b.count == 0 {
		return zero, false
	}

	n := len(b.values)
	return b.values[(b.pointer-1+n)%n], true
}

/*
 * Drops all values.
 */
func (b *Buffer[T]) Reset() {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	var zero T

	for i := range b.values {
		b.values[i] = zero
	}

	b.pointer = 0
	b.count = 0
}
