//go:build !windows

package main

import (
	"fmt"
	"io"

	"github.com/born-ml/neuralkit/backend/cpu"
	"github.com/born-ml/neuralkit/device"
)

func openDevice(name string) (device.Context, error) {
	switch name {
	case "cpu":
		return cpu.New(), nil
	case "webgpu", "gpu":
		return nil, fmt.Errorf("webgpu device is only built on windows")
	default:
		return nil, fmt.Errorf("unknown device %q (want cpu or webgpu)", name)
	}
}

func listDevices(w io.Writer) error {
	fmt.Fprintln(w, "cpu     available")
	fmt.Fprintln(w, "webgpu  not built for this platform")
	return nil
}
