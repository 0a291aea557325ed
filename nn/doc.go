// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides feed-forward networks trained on a compute device.
//
// # Overview
//
// This package contains:
//   - Layers: FullyConnected, Activation (ReLU, Sigmoid, Tanh), Reshape
//   - Output layers: LinearOutput (squared error), SoftmaxOutput
//     (negative log-likelihood)
//   - Network: shape-checked layer chain with FeedForward and Train
//   - Weight snapshots: SaveWeights, LoadWeights
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/neuralkit/backend/cpu"
//	    "github.com/born-ml/neuralkit/nn"
//	    "github.com/born-ml/neuralkit/tensor"
//	)
//
//	func main() {
//	    ctx := cpu.New()
//	    defer ctx.Release()
//
//	    rng := rand.New(rand.NewSource(1))
//	    net, err := nn.New(ctx, []nn.Layer{
//	        nn.NewFullyConnected(ctx, tensor.VectorShape(2), 8, rng),
//	        nn.NewActivation(nn.Tanh, tensor.VectorShape(8)),
//	        nn.NewFullyConnected(ctx, tensor.VectorShape(8), 1, rng),
//	    }, nn.NewLinearOutput(tensor.VectorShape(1)))
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    defer net.Release()
//
//	    cfg := nn.DefaultTrainConfig()
//	    loss, err := net.Train(nn.Sample{
//	        Input:    tensor.VectorOf(0, 1),
//	        Expected: tensor.VectorOf(1),
//	    }, cfg)
//	}
//
// # Sessions
//
// Every FeedForward and Train call records its work into one device session
// and waits for it once. Layers never block mid-chain, so a GPU device runs
// the whole pass as a single submission. Parameters stay on the device
// between calls; FinishTraining copies them back to the host.
//
// # Errors
//
// New reports an incompatible chain as a *CompositionError. FeedForward and
// Train return an error wrapping ErrShapeMismatch when the input or
// expected tensor has the wrong shape.
package nn
