// Package history keeps fixed-length rolling sample buffers for plotting.
package history

// DefaultLength is the number of samples kept by most buffers.
const DefaultLength = 50

// Buffer is a first-in first-out window of the most recent samples. It is
// created full so that plots have a constant width from the first tick.
type Buffer struct {
	values []float64
	next   int
}

// New returns a buffer of length n filled with fill. n below 1 is raised
// to 1.
func New(n int, fill float64) *Buffer {
	if n < 1 {
		n = 1
	}
	b := &Buffer{values: make([]float64, n)}
	for i := range b.values {
		b.values[i] = fill
	}
	return b
}

// Push appends v, evicting the oldest sample.
func (b *Buffer) Push(v float64) {
	b.values[b.next] = v
	b.next = (b.next + 1) % len(b.values)
}

// Len returns the fixed buffer length.
func (b *Buffer) Len() int {
	return len(b.values)
}

// Last returns the most recent sample.
func (b *Buffer) Last() float64 {
	return b.values[(b.next+len(b.values)-1)%len(b.values)]
}

// Values returns a copy of the samples, oldest first.
func (b *Buffer) Values() []float64 {
	out := make([]float64, 0, len(b.values))
	out = append(out, b.values[b.next:]...)
	return append(out, b.values[:b.next]...)
}
