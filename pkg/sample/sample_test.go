package sample

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeSizes(t *testing.T) {
	tests := []struct {
		typ  Type
		size int
		ext  string
	}{
		{Byte, 1, ".byte"},
		{Short, 2, ".16i"},
		{Int, 4, ".32i"},
		{Float, 4, ".32rf"},
		{Complex, 8, ".32cf"},
	}

	for _, tc := range tests {
		t.Run(tc.typ.String(), func(t *testing.T) {
			assert.Equal(t, tc.size, tc.typ.Size())
			assert.Equal(t, tc.ext, tc.typ.Ext())
		})
	}
}

func TestParse(t *testing.T) {
	typ, err := Parse("COMPLEX")
	require.NoError(t, err)
	assert.Equal(t, Complex, typ)

	typ, err = Parse("float")
	require.NoError(t, err)
	assert.Equal(t, Float, typ)

	_, err = Parse("quaternion")
	assert.ErrorContains(t, err, "quaternion")
}

func TestComplexRoundTrip(t *testing.T) {
	in := []complex64{1, complex(0, -1), complex(0.5, 2.25)}
	raw := make([]byte, Complex.Size()*len(in))
	PutComplex64(raw, in)

	out := Complex64s(raw)
	require.Len(t, out, len(in))
	assert.Equal(t, in, out)

	// A trailing partial element is dropped, not decoded.
	out = Complex64s(raw[:len(raw)-3])
	assert.Len(t, out, len(in)-1)
}

func TestFloatRoundTrip(t *testing.T) {
	in := []float32{0, -1.5, 3e6}
	raw := make([]byte, Float.Size()*len(in))
	PutFloat32(raw, in)
	assert.Equal(t, in, Float32s(raw))
}
