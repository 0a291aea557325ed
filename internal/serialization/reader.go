package serialization

import (
	"fmt"
	"math"

	"github.com/born-ml/neuralkit/internal/tensor"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Decode converts a structured value back to a host tensor.
//
// width, height and values are required; depth defaults to 1. Returns a
// *MissingKeyError or *InvalidTypeError if the value is malformed.
func Decode(s *structpb.Struct) (*tensor.Matrix3, error) {
	return decodeAt("", s)
}

// UnmarshalJSON decodes a JSON-encoded tensor.
func UnmarshalJSON(data []byte) (*tensor.Matrix3, error) {
	var s structpb.Struct
	if err := protojson.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("serialization: unmarshal tensor: %w", err)
	}
	return Decode(&s)
}

// Unmarshal decodes a tensor from the protobuf binary format.
func Unmarshal(data []byte) (*tensor.Matrix3, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("serialization: unmarshal tensor: %w", err)
	}
	return Decode(&s)
}

func decodeAt(path string, s *structpb.Struct) (*tensor.Matrix3, error) {
	if s == nil {
		return nil, &MissingKeyError{Path: path, Key: KeyValues}
	}
	fields := s.GetFields()

	width, err := dimension(path, fields, KeyWidth, true)
	if err != nil {
		return nil, err
	}
	height, err := dimension(path, fields, KeyHeight, true)
	if err != nil {
		return nil, err
	}
	depth, err := dimension(path, fields, KeyDepth, false)
	if err != nil {
		return nil, err
	}

	v, ok := fields[KeyValues]
	if !ok {
		return nil, &MissingKeyError{Path: path, Key: KeyValues}
	}
	list := v.GetListValue()
	if list == nil {
		return nil, &InvalidTypeError{Path: path, Key: KeyValues, Details: "want list, got " + kindName(v)}
	}

	shape := tensor.Matrix3Shape(width, height, depth)
	if err := shape.Validate(); err != nil {
		return nil, &InvalidTypeError{Path: path, Key: KeyValues, Details: err.Error()}
	}
	items := list.GetValues()
	if len(items) != shape.NumElements() {
		return nil, &InvalidTypeError{Path: path, Key: KeyValues,
			Details: fmt.Sprintf("%d values for shape %v", len(items), shape)}
	}
	values := make([]float32, len(items))
	for i, item := range items {
		n, ok := item.GetKind().(*structpb.Value_NumberValue)
		if !ok {
			return nil, &InvalidTypeError{Path: path, Key: KeyValues,
				Details: fmt.Sprintf("element %d: want number, got %s", i, kindName(item))}
		}
		values[i] = float32(n.NumberValue)
	}

	return tensor.Matrix3From(shape, values)
}

// dimension reads a positive integer field. Optional fields default to 1.
func dimension(path string, fields map[string]*structpb.Value, key string, required bool) (int, error) {
	v, ok := fields[key]
	if !ok {
		if required {
			return 0, &MissingKeyError{Path: path, Key: key}
		}
		return 1, nil
	}
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, &InvalidTypeError{Path: path, Key: key, Details: "want number, got " + kindName(v)}
	}
	f := n.NumberValue
	if f < 1 || f != math.Trunc(f) || f > math.MaxInt32 {
		return 0, &InvalidTypeError{Path: path, Key: key, Details: fmt.Sprintf("want positive integer, got %v", f)}
	}
	return int(f), nil
}

// kindName names the kind of a structured value for error messages.
func kindName(v *structpb.Value) string {
	switch v.GetKind().(type) {
	case *structpb.Value_NullValue:
		return "null"
	case *structpb.Value_NumberValue:
		return "number"
	case *structpb.Value_StringValue:
		return "string"
	case *structpb.Value_BoolValue:
		return "bool"
	case *structpb.Value_StructValue:
		return "object"
	case *structpb.Value_ListValue:
		return "list"
	default:
		return "nothing"
	}
}
