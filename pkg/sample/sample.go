// Package sample defines the element types carried on flowgraph streams.
//
// Sample files are flat, headerless raw-binary dumps. The element type is
// external metadata: the file extension is a cosmetic tag, not a format
// header, so every consumer must be told the type explicitly.
package sample

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

// Type identifies the element type of a sample stream.
type Type int

const (
	// Byte is an 8-bit integer sample.
	Byte Type = iota
	// Short is a 16-bit integer sample.
	Short
	// Int is a 32-bit integer sample.
	Int
	// Float is a 32-bit IEEE float sample.
	Float
	// Complex is a pair of 32-bit floats (real, imaginary).
	Complex
)

// Size returns the number of bytes one element occupies on the wire and on
// disk.
func (t Type) Size() int {
	switch t {
	case Byte:
		return 1
	case Short:
		return 2
	case Int, Float:
		return 4
	case Complex:
		return 8
	default:
		return 0
	}
}

// Ext returns the conventional file extension for the type.
func (t Type) Ext() string {
	switch t {
	case Byte:
		return ".byte"
	case Short:
		return ".16i"
	case Int:
		return ".32i"
	case Float:
		return ".32rf"
	case Complex:
		return ".32cf"
	default:
		return ""
	}
}

func (t Type) String() string {
	switch t {
	case Byte:
		return "byte"
	case Short:
		return "short"
	case Int:
		return "int"
	case Float:
		return "float"
	case Complex:
		return "complex"
	default:
		return fmt.Sprintf("sample.Type(%d)", int(t))
	}
}

// MarshalText encodes the type as its name, for JSON and YAML documents.
func (t Type) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText decodes a type from its name.
func (t *Type) UnmarshalText(text []byte) error {
	typ, err := Parse(string(text))
	if err != nil {
		return err
	}
	*t = typ
	return nil
}

// Parse resolves a type from its name, case-insensitively.
func Parse(name string) (Type, error) {
	switch strings.ToLower(name) {
	case "byte":
		return Byte, nil
	case "short":
		return Short, nil
	case "int":
		return Int, nil
	case "float":
		return Float, nil
	case "complex":
		return Complex, nil
	default:
		return 0, fmt.Errorf("unknown sample type %q", name)
	}
}

// Types lists every defined element type, in declaration order.
func Types() []Type {
	return []Type{Byte, Short, Int, Float, Complex}
}

// Samples are stored little-endian, matching the raw dumps produced by the
// usual capture tooling.

// PutFloat32 encodes vals into dst, which must be at least 4*len(vals) bytes.
func PutFloat32(dst []byte, vals []float32) {
	for i, v := range vals {
		binary.LittleEndian.PutUint32(dst[4*i:], math.Float32bits(v))
	}
}

// Float32s decodes a raw buffer into float32 samples. Trailing bytes that do
// not fill an element are ignored.
func Float32s(raw []byte) []float32 {
	n := len(raw) / 4
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[4*i:]))
	}
	return out
}

// PutComplex64 encodes vals into dst, which must be at least 8*len(vals)
// bytes. Layout is interleaved real, imaginary.
func PutComplex64(dst []byte, vals []complex64) {
	for i, v := range vals {
		binary.LittleEndian.PutUint32(dst[8*i:], math.Float32bits(real(v)))
		binary.LittleEndian.PutUint32(dst[8*i+4:], math.Float32bits(imag(v)))
	}
}

// Complex64s decodes a raw buffer into complex64 samples.
func Complex64s(raw []byte) []complex64 {
	n := len(raw) / 8
	out := make([]complex64, n)
	for i := 0; i < n; i++ {
		re := math.Float32frombits(binary.LittleEndian.Uint32(raw[8*i:]))
		im := math.Float32frombits(binary.LittleEndian.Uint32(raw[8*i+4:]))
		out[i] = complex(re, im)
	}
	return out
}
