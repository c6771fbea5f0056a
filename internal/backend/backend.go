package backend

import "context"

// Backend is the operations-only interface every concrete backend
// implements. Validation is deliberately kept out of this interface
// (spec.md §4.4): it is driven by the Capabilities a backend declares, not
// by methods a backend must remember to call.
type Backend interface {
	ID() string
	Capabilities() Capabilities
	Defaults() Defaults

	Availability(ctx context.Context) Availability

	Configure(ctx context.Context, bc BuildContext, opts Options) (ConfigureResult, error)
	Build(ctx context.Context, bc BuildContext, opts Options) (BuildResult, error)
	Test(ctx context.Context, bc BuildContext, opts Options) (TestResult, error)
	Install(ctx context.Context, bc BuildContext, opts Options) (InstallResult, error)
	Clean(ctx context.Context, bc BuildContext, opts Options) error

	DiscoverExports(ctx context.Context, bc BuildContext) (*DiscoveredSurface, error)
	Doctor(ctx context.Context) DoctorReport

	// ValidateExtra is the optional backend-specific validation hook run
	// last in the three-stage validator (spec.md §4.4).
	ValidateExtra(intent BuildIntent, opts Options) []error
}
