package math

import (
	"fmt"
	m "math"
	"unsafe"
)

// PackedVector3 is a 3-component vector stored as three contiguous scalars
// with no padding, wasted space or intrusive bookkeeping. It is meant for
// tightly packed buffers (vertex streams, variable blocks, file payloads)
// where the richer vector types cannot be memory mapped directly.
type PackedVector3[T Scalar] struct {
	X, Y, Z T
}

// The standard variations.
type (
	PackedVector3f = PackedVector3[float32]
	PackedVector3i = PackedVector3[int32]
)

/**
 * @brief Creates and returns a packed vector using the supplied values.
 *
 * @param x The x value.
 * @param y The y value.
 * @param z The z value.
 * @return A new packed vector.
 */
func NewPackedVector3[T Scalar](x, y, z T) PackedVector3[T] {
	return PackedVector3[T]{X: x, Y: y, Z: z}
}

/**
 * @brief Creates and returns a packed vector with all three components
 * set to the supplied value.
 *
 * @param value The value for all components.
 * @return A new packed vector.
 */
func NewPackedVector3Splat[T Scalar](value T) PackedVector3[T] {
	return PackedVector3[T]{X: value, Y: value, Z: value}
}

/**
 * @brief Creates and returns a packed vector from the first three elements
 * of the supplied slice. Panics if the slice holds fewer than three.
 *
 * @param values The source slice.
 * @return A new packed vector.
 */
func NewPackedVector3FromSlice[T Scalar](values []T) PackedVector3[T] {
	_ = values[2]
	return PackedVector3[T]{X: values[0], Y: values[1], Z: values[2]}
}

/**
 * @brief Creates and returns a packed float vector carrying the components
 * of the supplied vec3.
 *
 * @param v The source vector.
 * @return A new packed vector.
 */
func NewPackedVector3FromVec3(v Vec3) PackedVector3f {
	return PackedVector3f{X: v.X, Y: v.Y, Z: v.Z}
}

/**
 * @brief Returns a vec3 carrying the components of the packed vector.
 */
func (p PackedVector3[T]) ToVec3() Vec3 {
	return Vec3{X: float32(p.X), Y: float32(p.Y), Z: float32(p.Z)}
}

// Set assigns all three components at once.
func (p *PackedVector3[T]) Set(x, y, z T) {
	p.X = x
	p.Y = y
	p.Z = z
}

/**
 * @brief Returns the component at the given index, where 0 is x, 1 is y
 * and 2 is z. Panics on any other index.
 *
 * @param index The component index.
 * @return The component value.
 */
func (p PackedVector3[T]) Elem(index int) T {
	switch index {
	case 0:
		return p.X
	case 1:
		return p.Y
	case 2:
		return p.Z
	}
	panic(fmt.Sprintf("packed vector index %d out of range", index))
}

/**
 * @brief Assigns the component at the given index, where 0 is x, 1 is y
 * and 2 is z. Panics on any other index.
 *
 * @param index The component index.
 * @param value The value to assign.
 */
func (p *PackedVector3[T]) SetElem(index int, value T) {
	switch index {
	case 0:
		p.X = value
	case 1:
		p.Y = value
	case 2:
		p.Z = value
	default:
		panic(fmt.Sprintf("packed vector index %d out of range", index))
	}
}

// Array returns a copy of the components as a fixed-size array.
func (p PackedVector3[T]) Array() [3]T {
	return [3]T{p.X, p.Y, p.Z}
}

// Elems returns a mutable slice view over the packed components. The view
// aliases the vector's storage, relying on the contiguous field layout.
func (p *PackedVector3[T]) Elems() []T {
	return unsafe.Slice(&p.X, 3)
}

// PackedVector3fSize is the encoded size of a packed float vector in bytes.
const PackedVector3fSize = 12

/**
 * @brief Appends the packed float vector to dst as three little-endian
 * float32 lanes and returns the extended slice.
 *
 * @param dst The destination buffer.
 * @param v The vector to encode.
 * @return The extended buffer.
 */
func AppendPackedVector3f(dst []byte, v PackedVector3f) []byte {
	for _, lane := range v.Array() {
		bits := m.Float32bits(lane)
		dst = append(dst,
			byte(bits),
			byte(bits>>8),
			byte(bits>>16),
			byte(bits>>24))
	}
	return dst
}

/**
 * @brief Decodes a packed float vector from the first twelve bytes of b,
 * reading three little-endian float32 lanes.
 *
 * @param b The source buffer.
 * @return The decoded vector, or an error if b is too short.
 */
func DecodePackedVector3f(b []byte) (PackedVector3f, error) {
	if len(b) < PackedVector3fSize {
		return PackedVector3f{}, fmt.Errorf("packed vector needs %d bytes, have %d", PackedVector3fSize, len(b))
	}
	var out PackedVector3f
	elems := out.Elems()
	for i := 0; i < 3; i++ {
		off := i * 4
		bits := uint32(b[off]) |
			uint32(b[off+1])<<8 |
			uint32(b[off+2])<<16 |
			uint32(b[off+3])<<24
		elems[i] = m.Float32frombits(bits)
	}
	return out, nil
}
