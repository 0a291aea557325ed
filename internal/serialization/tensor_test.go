package serialization

import (
	"errors"
	"testing"

	"github.com/born-ml/neuralkit/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"
)

func mustStruct(t *testing.T, m map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	require.NoError(t, err)
	return s
}

func TestDecode_Vector(t *testing.T) {
	s := mustStruct(t, map[string]any{"width": 2, "height": 1, "values": []any{1, 2}})

	got, err := Decode(s)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Count())
	assert.Equal(t, tensor.VectorShape(2), got.Shape())
	assert.Equal(t, []float32{1, 2}, got.Values())
}

func TestEncode_OmitsUnitDepth(t *testing.T) {
	m, err := tensor.MatrixFrom(2, 2, []float32{1, 2, 3, 4})
	require.NoError(t, err)

	s := Encode(m)
	assert.NotContains(t, s.GetFields(), KeyDepth)
	assert.Equal(t, float64(2), s.GetFields()[KeyWidth].GetNumberValue())

	deep := tensor.NewMatrix3(tensor.Matrix3Shape(1, 1, 3))
	assert.Equal(t, float64(3), Encode(deep).GetFields()[KeyDepth].GetNumberValue())
}

func TestEncodeDecode_Matrix3(t *testing.T) {
	shape := tensor.Matrix3Shape(2, 3, 2)
	values := make([]float32, shape.NumElements())
	for i := range values {
		values[i] = float32(i) * 0.5
	}
	in, err := tensor.Matrix3From(shape, values)
	require.NoError(t, err)

	out, err := Decode(Encode(in))
	require.NoError(t, err)
	assert.Equal(t, shape, out.Shape())
	assert.Equal(t, values, out.Values())
}

func TestMarshalJSON(t *testing.T) {
	data, err := MarshalJSON(tensor.VectorOf(0.5, -1))
	require.NoError(t, err)
	assert.JSONEq(t, `{"width":2,"height":1,"values":[0.5,-1]}`, string(data))

	got, err := UnmarshalJSON(data)
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, -1}, got.Values())
}

func TestMarshalBinary(t *testing.T) {
	data, err := Marshal(tensor.VectorOf(3, 4, 5))
	require.NoError(t, err)

	got, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, []float32{3, 4, 5}, got.Values())
}

func TestDecode_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		input   map[string]any
		missing string
		invalid string
	}{
		{"no width", map[string]any{"height": 1, "values": []any{1}}, KeyWidth, ""},
		{"no height", map[string]any{"width": 1, "values": []any{1}}, KeyHeight, ""},
		{"no values", map[string]any{"width": 1, "height": 1}, KeyValues, ""},
		{"string width", map[string]any{"width": "2", "height": 1, "values": []any{1, 2}}, "", KeyWidth},
		{"fractional height", map[string]any{"width": 1, "height": 1.5, "values": []any{1}}, "", KeyHeight},
		{"zero depth", map[string]any{"width": 1, "height": 1, "depth": 0, "values": []any{1}}, "", KeyDepth},
		{"values not a list", map[string]any{"width": 1, "height": 1, "values": 1}, "", KeyValues},
		{"too few values", map[string]any{"width": 3, "height": 1, "values": []any{1, 2}}, "", KeyValues},
		{"non-numeric value", map[string]any{"width": 2, "height": 1, "values": []any{1, "x"}}, "", KeyValues},
		{"element count overflows", map[string]any{"width": 1 << 22, "height": 1 << 21, "depth": 1 << 21, "values": []any{}}, "", KeyValues},
		{"too many elements", map[string]any{"width": 1 << 16, "height": 1 << 16, "values": []any{}}, "", KeyValues},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(mustStruct(t, tt.input))
			require.Error(t, err)

			if tt.missing != "" {
				var mk *MissingKeyError
				require.True(t, errors.As(err, &mk), "got %v", err)
				assert.Equal(t, tt.missing, mk.Key)
				assert.ErrorIs(t, err, ErrMissingKey)
				return
			}
			var it *InvalidTypeError
			require.True(t, errors.As(err, &it), "got %v", err)
			assert.Equal(t, tt.invalid, it.Key)
			assert.ErrorIs(t, err, ErrInvalidType)
		})
	}
}

func TestUnmarshalJSON_Garbage(t *testing.T) {
	_, err := UnmarshalJSON([]byte("{not json"))
	assert.Error(t, err)
}

func TestChecksum(t *testing.T) {
	a := ComputeChecksum([]float32{1, 2}, []float32{3})
	assert.Len(t, a, 64)
	assert.Equal(t, a, ComputeChecksum([]float32{1, 2, 3}))
	assert.NotEqual(t, a, ComputeChecksum([]float32{1, 2, 4}))

	assert.NoError(t, ValidateChecksum(a, a))
	assert.ErrorIs(t, ValidateChecksum(a, "00"), ErrChecksumMismatch)
}
