//go:build windows

package webgpu

import (
	"sort"

	"github.com/born-ml/neuralkit/internal/device"
)

// workgroupSize is the number of threads per workgroup in every kernel.
const workgroupSize = 256

// Every kernel binds its buffers at 0..k-1 in the order documented on the
// kernel name in package device, and its uniform Params block at binding k.

const copyShader = `
@group(0) @binding(0) var<storage, read> src: array<f32>;
@group(0) @binding(1) var<storage, read_write> dst: array<f32>;

struct Params {
    size: u32,
}
@group(0) @binding(2) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx < params.size) {
        dst[idx] = src[idx];
    }
}
`

// denseForwardShader computes y = W·x + b, one output per thread.
const denseForwardShader = `
@group(0) @binding(0) var<storage, read> w: array<f32>;
@group(0) @binding(1) var<storage, read> x: array<f32>;
@group(0) @binding(2) var<storage, read_write> y: array<f32>;

struct Params {
    n_in: u32,
    n_out: u32,
}
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let row = global_id.x;
    if (row >= params.n_out) {
        return;
    }
    var sum = w[params.n_out * params.n_in + row];
    let base = row * params.n_in;
    for (var j = 0u; j < params.n_in; j = j + 1u) {
        sum = sum + w[base + j] * x[j];
    }
    y[row] = sum;
}
`

// denseBackwardShader computes dx = Wᵀ·g, one input per thread.
const denseBackwardShader = `
@group(0) @binding(0) var<storage, read> w: array<f32>;
@group(0) @binding(1) var<storage, read> g: array<f32>;
@group(0) @binding(2) var<storage, read_write> dx: array<f32>;

struct Params {
    n_in: u32,
    n_out: u32,
}
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let col = global_id.x;
    if (col >= params.n_in) {
        return;
    }
    var sum = 0.0;
    for (var i = 0u; i < params.n_out; i = i + 1u) {
        sum = sum + w[i * params.n_in + col] * g[i];
    }
    dx[col] = sum;
}
`

const denseGradientShader = `
@group(0) @binding(0) var<storage, read> g: array<f32>;
@group(0) @binding(1) var<storage, read> x: array<f32>;
@group(0) @binding(2) var<storage, read_write> dw: array<f32>;

struct Params {
    n_in: u32,
    n_out: u32,
}
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    let nw = params.n_out * params.n_in;
    if (idx < nw) {
        dw[idx] = g[idx / params.n_in] * x[idx % params.n_in];
    } else if (idx < nw + params.n_out) {
        dw[idx] = g[idx - nw];
    }
}
`

// denseUpdateShader applies momentum SGD; decay applies to weights only.
const denseUpdateShader = `
@group(0) @binding(0) var<storage, read_write> w: array<f32>;
@group(0) @binding(1) var<storage, read> dw: array<f32>;
@group(0) @binding(2) var<storage, read_write> v: array<f32>;

struct Params {
    n_in: u32,
    n_out: u32,
    rate: f32,
    momentum: f32,
    decay: f32,
}
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    let nw = params.n_out * params.n_in;
    if (idx >= nw + params.n_out) {
        return;
    }
    var grad = dw[idx];
    if (idx < nw) {
        grad = grad + params.decay * w[idx];
    }
    v[idx] = params.momentum * v[idx] - params.rate * grad;
    w[idx] = w[idx] + v[idx];
}
`

// unaryShader builds an element-wise y = f(x) kernel from a WGSL expression in v.
func unaryShader(expr string) string {
	return `
@group(0) @binding(0) var<storage, read> x: array<f32>;
@group(0) @binding(1) var<storage, read_write> y: array<f32>;

struct Params {
    size: u32,
}
@group(0) @binding(2) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx < params.size) {
        let v = x[idx];
        y[idx] = ` + expr + `;
    }
}
`
}

// derivativeShader builds dx = g * f'(x) from a WGSL expression in v.
func derivativeShader(expr string) string {
	return `
@group(0) @binding(0) var<storage, read> g: array<f32>;
@group(0) @binding(1) var<storage, read> x: array<f32>;
@group(0) @binding(2) var<storage, read_write> dx: array<f32>;

struct Params {
    size: u32,
}
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx < params.size) {
        let v = x[idx];
        dx[idx] = g[idx] * (` + expr + `);
    }
}
`
}

// tanh input is clamped: some drivers overflow exp() inside tanh for large |x|.
const (
	sigmoidExpr = "1.0 / (1.0 + exp(-v))"
	tanhExpr    = "tanh(clamp(v, -15.0, 15.0))"
)

// softmaxShader recomputes the max and the normaliser in every thread.
const softmaxShader = `
@group(0) @binding(0) var<storage, read> x: array<f32>;
@group(0) @binding(1) var<storage, read_write> y: array<f32>;

struct Params {
    size: u32,
}
@group(0) @binding(2) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx >= params.size) {
        return;
    }
    var peak = x[0];
    for (var i = 1u; i < params.size; i = i + 1u) {
        peak = max(peak, x[i]);
    }
    var sum = 0.0;
    for (var i = 0u; i < params.size; i = i + 1u) {
        sum = sum + exp(x[i] - peak);
    }
    y[idx] = exp(x[idx] - peak) / sum;
}
`

const lossGradientShader = `
@group(0) @binding(0) var<storage, read> expected: array<f32>;
@group(0) @binding(1) var<storage, read> actual: array<f32>;
@group(0) @binding(2) var<storage, read_write> g: array<f32>;

struct Params {
    size: u32,
}
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx < params.size) {
        g[idx] = actual[idx] - expected[idx];
    }
}
`

// Library is the WGSL kernel library. Sources are compiled into pipelines
// on first dispatch and cached by the Backend.
type Library struct {
	sources map[string]string
}

// Compile-time check that Library implements device.Library.
var _ device.Library = (*Library)(nil)

// NewLibrary returns a library with every kernel in device.Kernels.
func NewLibrary() *Library {
	return &Library{sources: map[string]string{
		device.KernelCopy:            copyShader,
		device.KernelDenseForward:    denseForwardShader,
		device.KernelDenseBackward:   denseBackwardShader,
		device.KernelDenseGradient:   denseGradientShader,
		device.KernelDenseUpdate:     denseUpdateShader,
		device.KernelReLUForward:     unaryShader("max(v, 0.0)"),
		device.KernelSigmoidForward:  unaryShader(sigmoidExpr),
		device.KernelTanhForward:     unaryShader(tanhExpr),
		device.KernelReLUBackward:    derivativeShader("select(0.0, 1.0, v > 0.0)"),
		device.KernelSigmoidBackward: derivativeShader("(" + sigmoidExpr + ") * (1.0 - " + sigmoidExpr + ")"),
		device.KernelTanhBackward:    derivativeShader("1.0 - " + tanhExpr + " * " + tanhExpr),
		device.KernelSoftmax:         softmaxShader,
		device.KernelLossGradient:    lossGradientShader,
	}}
}

// Name returns "wgsl".
func (l *Library) Name() string {
	return "wgsl"
}

// Has reports whether the library provides kernel.
func (l *Library) Has(kernel string) bool {
	_, ok := l.sources[kernel]
	return ok
}

// Source returns the WGSL source of kernel.
func (l *Library) Source(kernel string) (string, bool) {
	src, ok := l.sources[kernel]
	return src, ok
}

// Names returns the sorted kernel names.
func (l *Library) Names() []string {
	names := make([]string, 0, len(l.sources))
	for n := range l.sources {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
