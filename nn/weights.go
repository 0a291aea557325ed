// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/born-ml/neuralkit/internal/serialization"
)

// SaveWeights encodes the FullyConnected parameters of net as JSON with a
// checksum per layer. Call FinishTraining first.
func SaveWeights(net *Network) ([]byte, error) {
	return serialization.MarshalWeightsJSON(net)
}

// LoadWeights restores parameters saved by SaveWeights into a network of
// the same architecture. net is unchanged if the snapshot is rejected.
func LoadWeights(net *Network, data []byte) error {
	return serialization.UnmarshalWeightsJSON(net, data)
}
