package serialization

import (
	"fmt"

	"github.com/born-ml/neuralkit/internal/nn"
	"github.com/born-ml/neuralkit/internal/tensor"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Snapshot format identifiers.
const (
	FormatName    = "neuralkit.weights"
	FormatVersion = 1
)

// Field names of a weight snapshot.
const (
	KeyFormat   = "format"
	KeyVersion  = "version"
	KeyLayers   = "layers"
	KeyIndex    = "index"
	KeyName     = "name"
	KeyWeights  = "weights"
	KeyBias     = "bias"
	KeyChecksum = "checksum"
)

// EncodeWeights captures the host parameters of every FullyConnected layer
// in net. Call net.FinishTraining first so host copies are current.
func EncodeWeights(net *nn.Network) *structpb.Struct {
	var layers []*structpb.Value
	for i, layer := range net.Layers() {
		fc, ok := layer.(*nn.FullyConnected)
		if !ok {
			continue
		}
		w, b := fc.Weights(), fc.Bias()
		entry := &structpb.Struct{Fields: map[string]*structpb.Value{
			KeyIndex:    structpb.NewNumberValue(float64(i)),
			KeyName:     structpb.NewStringValue(fc.Name()),
			KeyWeights:  structpb.NewStructValue(Encode(w)),
			KeyBias:     structpb.NewStructValue(Encode(b)),
			KeyChecksum: structpb.NewStringValue(ComputeChecksum(w.Values(), b.Values())),
		}}
		layers = append(layers, structpb.NewStructValue(entry))
	}

	return &structpb.Struct{Fields: map[string]*structpb.Value{
		KeyFormat:  structpb.NewStringValue(FormatName),
		KeyVersion: structpb.NewNumberValue(FormatVersion),
		KeyLayers:  structpb.NewListValue(&structpb.ListValue{Values: layers}),
	}}
}

// DecodeWeights loads a snapshot into net. Every layer entry is validated
// before any parameter is written, so a failed load leaves net unchanged.
func DecodeWeights(net *nn.Network, s *structpb.Struct) error {
	fields := s.GetFields()

	format, ok := fields[KeyFormat]
	if !ok {
		return &MissingKeyError{Key: KeyFormat}
	}
	if format.GetStringValue() != FormatName {
		return &InvalidTypeError{Key: KeyFormat, Details: fmt.Sprintf("want %q, got %s", FormatName, format.String())}
	}
	version, ok := fields[KeyVersion]
	if !ok {
		return &MissingKeyError{Key: KeyVersion}
	}
	if v := version.GetNumberValue(); v != FormatVersion {
		return fmt.Errorf("%w: %v", ErrUnsupportedVersion, v)
	}

	list, ok := fields[KeyLayers]
	if !ok {
		return &MissingKeyError{Key: KeyLayers}
	}
	if list.GetListValue() == nil {
		return &InvalidTypeError{Key: KeyLayers, Details: "want list, got " + kindName(list)}
	}

	targets := denseLayers(net)
	entries := list.GetListValue().GetValues()
	if len(entries) != len(targets) {
		return fmt.Errorf("%w: %d layer entries for %d dense layers", ErrLayerMismatch, len(entries), len(targets))
	}

	type update struct {
		layer   *nn.FullyConnected
		weights *tensor.Matrix
		bias    *tensor.Vector
	}
	updates := make([]update, len(entries))
	for i, v := range entries {
		path := fmt.Sprintf("layers[%d]", i)
		entry := v.GetStructValue()
		if entry == nil {
			return &InvalidTypeError{Path: KeyLayers, Key: fmt.Sprint(i), Details: "want object, got " + kindName(v)}
		}
		target := targets[i]

		idx, err := dimensionOrZero(path, entry.GetFields(), KeyIndex)
		if err != nil {
			return err
		}
		if idx != target.index {
			return fmt.Errorf("%w: %s: index %d, network has dense layer at %d", ErrLayerMismatch, path, idx, target.index)
		}

		weights, err := decodeMatrix(path+"."+KeyWeights, entry, KeyWeights)
		if err != nil {
			return err
		}
		bias, err := decodeVector(path+"."+KeyBias, entry, KeyBias)
		if err != nil {
			return err
		}
		if weights.Shape() != target.layer.Weights().Shape() || bias.Shape() != target.layer.Bias().Shape() {
			return fmt.Errorf("%w: %s: parameters %v/%v, %s wants %v/%v", ErrLayerMismatch, path,
				weights.Shape(), bias.Shape(), target.layer.Name(), target.layer.Weights().Shape(), target.layer.Bias().Shape())
		}

		sum, ok := entry.GetFields()[KeyChecksum]
		if !ok {
			return &MissingKeyError{Path: path, Key: KeyChecksum}
		}
		if err := ValidateChecksum(ComputeChecksum(weights.Values(), bias.Values()), sum.GetStringValue()); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		updates[i] = update{target.layer, weights, bias}
	}

	for _, u := range updates {
		if err := u.layer.SetParameters(u.weights, u.bias); err != nil {
			return err
		}
	}
	return nil
}

// MarshalWeightsJSON encodes a weight snapshot of net as JSON.
func MarshalWeightsJSON(net *nn.Network) ([]byte, error) {
	data, err := protojson.MarshalOptions{Multiline: true}.Marshal(EncodeWeights(net))
	if err != nil {
		return nil, fmt.Errorf("serialization: marshal weights: %w", err)
	}
	return data, nil
}

// UnmarshalWeightsJSON loads a JSON weight snapshot into net.
func UnmarshalWeightsJSON(net *nn.Network, data []byte) error {
	var s structpb.Struct
	if err := protojson.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("serialization: unmarshal weights: %w", err)
	}
	return DecodeWeights(net, &s)
}

// MarshalWeights encodes a weight snapshot of net in protobuf binary form.
func MarshalWeights(net *nn.Network) ([]byte, error) {
	data, err := proto.Marshal(EncodeWeights(net))
	if err != nil {
		return nil, fmt.Errorf("serialization: marshal weights: %w", err)
	}
	return data, nil
}

// UnmarshalWeights loads a binary weight snapshot into net.
func UnmarshalWeights(net *nn.Network, data []byte) error {
	var s structpb.Struct
	if err := proto.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("serialization: unmarshal weights: %w", err)
	}
	return DecodeWeights(net, &s)
}

type denseLayer struct {
	index int
	layer *nn.FullyConnected
}

func denseLayers(net *nn.Network) []denseLayer {
	var out []denseLayer
	for i, layer := range net.Layers() {
		if fc, ok := layer.(*nn.FullyConnected); ok {
			out = append(out, denseLayer{i, fc})
		}
	}
	return out
}

func decodeMatrix(path string, entry *structpb.Struct, key string) (*tensor.Matrix, error) {
	t, err := nested(path, entry, key)
	if err != nil {
		return nil, err
	}
	shape := t.Shape()
	if shape.Depth != 1 {
		return nil, &InvalidTypeError{Path: path, Key: KeyDepth, Details: fmt.Sprintf("want matrix, got %v", shape)}
	}
	return tensor.MatrixFrom(shape.Width, shape.Height, t.Values())
}

func decodeVector(path string, entry *structpb.Struct, key string) (*tensor.Vector, error) {
	t, err := nested(path, entry, key)
	if err != nil {
		return nil, err
	}
	shape := t.Shape()
	if shape.Height != 1 || shape.Depth != 1 {
		return nil, &InvalidTypeError{Path: path, Key: KeyHeight, Details: fmt.Sprintf("want vector, got %v", shape)}
	}
	return t.Flatten(), nil
}

func nested(path string, entry *structpb.Struct, key string) (*tensor.Matrix3, error) {
	v, ok := entry.GetFields()[key]
	if !ok {
		return nil, &MissingKeyError{Path: path, Key: key}
	}
	s := v.GetStructValue()
	if s == nil {
		return nil, &InvalidTypeError{Path: path, Key: key, Details: "want object, got " + kindName(v)}
	}
	return decodeAt(path, s)
}

// dimensionOrZero reads a non-negative integer field.
func dimensionOrZero(path string, fields map[string]*structpb.Value, key string) (int, error) {
	v, ok := fields[key]
	if !ok {
		return 0, &MissingKeyError{Path: path, Key: key}
	}
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok || n.NumberValue < 0 || n.NumberValue != float64(int(n.NumberValue)) {
		return 0, &InvalidTypeError{Path: path, Key: key, Details: "want non-negative integer, got " + kindName(v)}
	}
	return int(n.NumberValue), nil
}
