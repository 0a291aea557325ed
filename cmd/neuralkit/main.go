// Package main provides the neuralkit CLI.
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
)

const version = "v0.1.0-dev"

func usage(w io.Writer) {
	fmt.Fprintln(w, "neuralkit - feed-forward networks on CPU and GPU")
	fmt.Fprintf(w, "Version: %s\n\n", version)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  version    Show version")
	fmt.Fprintln(w, "  devices    List compute devices")
	fmt.Fprintln(w, "  xor        Train a 2-4-1 network on XOR")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'neuralkit <command> -h' for command flags.")
}

func main() {
	if len(os.Args) < 2 {
		usage(os.Stdout)
		return
	}

	var err error
	switch os.Args[1] {
	case "version":
		fmt.Printf("neuralkit %s\n", version)
	case "devices":
		err = listDevices(os.Stdout)
	case "xor":
		err = runXOR(os.Args[2:])
	case "help", "-h", "--help":
		usage(os.Stdout)
	default:
		usage(os.Stderr)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "neuralkit %s: %v\n", os.Args[1], err)
		os.Exit(1)
	}
}

// newLogger returns a text logger on stderr; verbose enables debug events.
func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// newFlagSet returns a flag set that reports errors instead of exiting.
func newFlagSet(name string) *flag.FlagSet {
	return flag.NewFlagSet(name, flag.ContinueOnError)
}
