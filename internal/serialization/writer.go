package serialization

import (
	"fmt"

	"github.com/born-ml/neuralkit/internal/tensor"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Field names of an encoded tensor.
const (
	KeyWidth  = "width"
	KeyHeight = "height"
	KeyDepth  = "depth"
	KeyValues = "values"
)

// Encode converts a host tensor to its structured form. depth is written
// only for tensors with more than one slice.
func Encode(t tensor.Tensor) *structpb.Struct {
	shape := t.Shape()
	values := make([]*structpb.Value, len(t.Values()))
	for i, v := range t.Values() {
		values[i] = structpb.NewNumberValue(float64(v))
	}

	fields := map[string]*structpb.Value{
		KeyWidth:  structpb.NewNumberValue(float64(shape.Width)),
		KeyHeight: structpb.NewNumberValue(float64(shape.Height)),
		KeyValues: structpb.NewListValue(&structpb.ListValue{Values: values}),
	}
	if shape.Depth > 1 {
		fields[KeyDepth] = structpb.NewNumberValue(float64(shape.Depth))
	}
	return &structpb.Struct{Fields: fields}
}

// MarshalJSON encodes a host tensor as JSON.
func MarshalJSON(t tensor.Tensor) ([]byte, error) {
	data, err := protojson.Marshal(Encode(t))
	if err != nil {
		return nil, fmt.Errorf("serialization: marshal tensor: %w", err)
	}
	return data, nil
}

// Marshal encodes a host tensor in the protobuf binary format of
// google.protobuf.Struct.
func Marshal(t tensor.Tensor) ([]byte, error) {
	data, err := proto.Marshal(Encode(t))
	if err != nil {
		return nil, fmt.Errorf("serialization: marshal tensor: %w", err)
	}
	return data, nil
}
