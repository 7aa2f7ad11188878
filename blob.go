package labelsampler

import (
	"strconv"
	"strings"
)

// Blob is a dense float32 tensor in row-major order. The leading dimension
// indexes batch items.
type Blob struct {
	Shape []int
	Data  []float32
}

// NewBlob returns a zeroed blob of shape.
func NewBlob(shape ...int) *Blob {
	b := &Blob{}
	b.Reshape(shape...)
	return b
}

// Reshape sets the shape, reusing the backing array when it is large enough.
// Contents are not preserved.
func (b *Blob) Reshape(shape ...int) {
	b.Shape = append(b.Shape[:0], shape...)
	n := b.Count()
	if cap(b.Data) >= n {
		b.Data = b.Data[:n]
		clear(b.Data)
		return
	}
	b.Data = make([]float32, n)
}

// Count returns the number of elements.
func (b *Blob) Count() int {
	if len(b.Shape) == 0 {
		return 0
	}
	n := 1
	for _, d := range b.Shape {
		n *= d
	}
	return n
}

// Num returns the leading dimension.
func (b *Blob) Num() int {
	if len(b.Shape) == 0 {
		return 0
	}
	return b.Shape[0]
}

// ItemCount returns the number of elements per item.
func (b *Blob) ItemCount() int {
	if b.Num() == 0 {
		return 0
	}
	return b.Count() / b.Num()
}

// Offset returns the index of the first element of item i.
func (b *Blob) Offset(i int) int {
	return i * b.ItemCount()
}

// Item returns the elements of item i. The slice aliases Data.
func (b *Blob) Item(i int) []float32 {
	n := b.ItemCount()
	return b.Data[i*n : (i+1)*n]
}

func shapeString(shape []int) string {
	parts := make([]string, len(shape))
	for i, d := range shape {
		parts[i] = strconv.Itoa(d)
	}
	return strings.Join(parts, ",")
}
