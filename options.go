package proctex

// Option configures a Generator during creation.
//
// Example:
//
//	// CPU dispatch on 4 workers, nearest-neighbour viewport sampling
//	g, err := proctex.NewGenerator(640, 480,
//		proctex.WithWorkers(4),
//		proctex.WithCPUOnly(),
//		proctex.WithSampler(proctex.NearestSampler()),
//	)
type Option func(*options)

// options holds optional configuration for Generator creation.
type options struct {
	workers       int
	accelerator   ComputeAccelerator
	cpuOnly       bool
	sampler       Sampler
	materialColor RGBA
	initPass      bool
}

// defaultOptions returns the default generator options.
func defaultOptions() options {
	return options{
		workers:       0, // GOMAXPROCS
		accelerator:   nil,
		sampler:       DefaultSampler(),
		materialColor: White,
		initPass:      true,
	}
}

// WithWorkers sets the number of CPU workers. Zero or negative uses GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithAccelerator injects an accelerator instead of the registered one.
// The Generator calls Init on it and closes it in Close.
func WithAccelerator(a ComputeAccelerator) Option {
	return func(o *options) {
		o.accelerator = a
	}
}

// WithCPUOnly disables GPU dispatch even when an accelerator is registered.
func WithCPUOnly() Option {
	return func(o *options) {
		o.cpuOnly = true
	}
}

// WithSampler sets the sampler used by the viewport material.
func WithSampler(s Sampler) Option {
	return func(o *options) {
		o.sampler = s
	}
}

// WithMaterialColor sets the material colour. The colour is bound but does
// not affect the rendered output.
func WithMaterialColor(c RGBA) Option {
	return func(o *options) {
		o.materialColor = c
	}
}

// WithInitPass controls whether the init pass is dispatched when the node
// enters NodeInit. Enabled by default.
func WithInitPass(enabled bool) Option {
	return func(o *options) {
		o.initPass = enabled
	}
}
