// Package serialization converts neuralkit tensors and network weights to
// and from generic structured values.
//
// A tensor is encoded as a google.protobuf.Struct:
//
//	{
//	  "width":  2,
//	  "height": 1,
//	  "depth":  1,        // omitted for 1-D and 2-D tensors
//	  "values": [1, 2]    // row-major, then slice-major
//	}
//
// The same value renders to JSON through protojson, and to the protobuf
// binary wire format through proto. Decoding is strict: a missing field
// yields a *MissingKeyError and a field of the wrong type or length yields
// an *InvalidTypeError. Both are recoverable; callers can skip the record.
//
// Weight snapshots wrap the tensors of every FullyConnected layer of a
// network together with a SHA-256 checksum of their values:
//
//	// After training:
//	if err := net.FinishTraining(); err != nil {
//	    return err
//	}
//	data, err := serialization.MarshalWeightsJSON(net)
//
//	// Later, on a network of the same architecture:
//	err = serialization.UnmarshalWeightsJSON(net, data)
//
// Optimizer velocity is not part of a snapshot.
package serialization
