//go:build windows

package main

import (
	"fmt"
	"io"

	"github.com/born-ml/neuralkit/backend/cpu"
	"github.com/born-ml/neuralkit/backend/webgpu"
	"github.com/born-ml/neuralkit/device"
)

func openDevice(name string) (device.Context, error) {
	switch name {
	case "cpu":
		return cpu.New(), nil
	case "webgpu", "gpu":
		gpu, err := webgpu.New()
		if err != nil {
			return nil, err
		}
		return gpu, nil
	default:
		return nil, fmt.Errorf("unknown device %q (want cpu or webgpu)", name)
	}
}

func listDevices(w io.Writer) error {
	fmt.Fprintln(w, "cpu     available")
	if !webgpu.IsAvailable() {
		fmt.Fprintln(w, "webgpu  not available")
		return nil
	}
	adapters, err := webgpu.ListAdapters()
	if err != nil {
		return err
	}
	for _, a := range adapters {
		fmt.Fprintf(w, "webgpu  %s (%s, %v)\n", a.Device, a.Vendor, a.BackendType)
	}
	return nil
}
