package main

import (
	"fmt"
	"math/rand"
	"os"

	"github.com/born-ml/neuralkit/nn"
	"github.com/born-ml/neuralkit/tensor"
)

var xorSamples = []nn.Sample{
	{Input: tensor.VectorOf(0, 0), Expected: tensor.VectorOf(0)},
	{Input: tensor.VectorOf(0, 1), Expected: tensor.VectorOf(1)},
	{Input: tensor.VectorOf(1, 0), Expected: tensor.VectorOf(1)},
	{Input: tensor.VectorOf(1, 1), Expected: tensor.VectorOf(0)},
}

func runXOR(args []string) error {
	fs := newFlagSet("xor")
	deviceName := fs.String("device", "cpu", "Compute device: cpu or webgpu")
	epochs := fs.Int("epochs", 2000, "Number of training epochs")
	rate := fs.Float64("lr", 0.1, "Learning rate")
	momentum := fs.Float64("momentum", 0.9, "Momentum")
	seed := fs.Int64("seed", 1, "Random seed")
	save := fs.String("save", "", "Write trained weights to this JSON file")
	load := fs.String("load", "", "Load weights from this JSON file before training")
	verbose := fs.Bool("v", false, "Log network events")
	if err := fs.Parse(args); err != nil {
		return err
	}
	logger := newLogger(*verbose)

	ctx, err := openDevice(*deviceName)
	if err != nil {
		return err
	}
	defer ctx.Release()
	logger.Info("device opened", "device", ctx.Name())

	rng := rand.New(rand.NewSource(*seed))
	net, err := nn.New(ctx, []nn.Layer{
		nn.NewFullyConnected(ctx, tensor.VectorShape(2), 4, rng),
		nn.NewActivation(nn.Tanh, tensor.VectorShape(4)),
		nn.NewFullyConnected(ctx, tensor.VectorShape(4), 1, rng),
		nn.NewActivation(nn.Sigmoid, tensor.VectorShape(1)),
	}, nn.NewLinearOutput(tensor.VectorShape(1)), nn.WithLogger(logger))
	if err != nil {
		return err
	}
	defer net.Release()

	if *load != "" {
		blob, err := os.ReadFile(*load)
		if err != nil {
			return err
		}
		if err := nn.LoadWeights(net, blob); err != nil {
			return fmt.Errorf("load %s: %w", *load, err)
		}
	}

	cfg := nn.TrainConfig{LearningRate: float32(*rate), Momentum: float32(*momentum)}
	for epoch := 1; epoch <= *epochs; epoch++ {
		loss, err := net.TrainEpoch(xorSamples, cfg)
		if err != nil {
			return err
		}
		if epoch%(max(*epochs/10, 1)) == 0 {
			logger.Info("epoch", "n", epoch, "loss", loss)
		}
	}

	for _, s := range xorSamples {
		out, err := net.FeedForward(s.Input)
		if err != nil {
			return err
		}
		fmt.Printf("%v -> %.3f (want %v)\n", s.Input.Values(), out.Values()[0], s.Expected.Values()[0])
	}

	if *save == "" {
		return nil
	}
	if err := net.FinishTraining(); err != nil {
		return err
	}
	blob, err := nn.SaveWeights(net)
	if err != nil {
		return err
	}
	return os.WriteFile(*save, blob, 0o600)
}
