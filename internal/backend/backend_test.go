package backend

import (
	"context"
	"testing"
)

type fakeRunner struct {
	calls []CommandSpec
	err   error
}

func (f *fakeRunner) Run(ctx context.Context, cmd CommandSpec, bc BuildContext) error {
	f.calls = append(f.calls, cmd)
	return f.err
}

func allBackends(t *testing.T) []Backend {
	t.Helper()
	detector := &EnvToolchainDetector{CC: "cc", AR: "ar"}
	return []Backend{
		NewNativeBackend(detector),
		NewCMakeBackend(),
		NewMesonBackend(),
		NewCustomBackend(),
	}
}

// TestValidatorTotalityProducesSomeOutcome checks that Validate never
// panics and always returns a deterministic (possibly empty) error slice
// for every backend against a representative set of intents.
func TestValidatorTotalityProducesSomeOutcome(t *testing.T) {
	intents := []BuildIntent{
		{},
		{Linkage: LinkStatic},
		{Linkage: LinkShared},
		{FFI: true},
		{TargetTriple: "aarch64-unknown-linux-gnu"},
		{CxxStandard: "23"},
		{Categories: []TargetCategory{CategoryTests}},
		{ArtifactKinds: []ArtifactKind{ArtifactShared, ArtifactStatic}},
	}

	tc, err := (&EnvToolchainDetector{CC: "cc", AR: "ar"}).Detect()
	if err != nil {
		t.Fatalf("detect: %v", err)
	}

	for _, b := range allBackends(t) {
		for _, intent := range intents {
			errs1 := Validate(b, intent, Options{}, tc, "x86_64-unknown-linux-gnu", nil)
			errs2 := Validate(b, intent, Options{}, tc, "x86_64-unknown-linux-gnu", nil)
			if len(errs1) != len(errs2) {
				t.Fatalf("%s: validate is not deterministic for intent %+v: %d vs %d errors", b.ID(), intent, len(errs1), len(errs2))
			}
		}
	}
}

// TestCapabilityOperationConsistency asserts that a backend whose
// Capabilities report NotSupported for a phase never needs to be called
// for that phase to know it cannot proceed - a backend declaring Test as
// NotSupported must return an error from Test(), never silently succeed.
func TestCapabilityOperationConsistency(t *testing.T) {
	native := NewNativeBackend(&EnvToolchainDetector{CC: "cc", AR: "ar"})
	if native.Capabilities().Test != NotSupported {
		t.Fatalf("expected native backend to declare Test unsupported")
	}
	if _, err := native.Test(context.Background(), BuildContext{}, Options{}); err == nil {
		t.Fatalf("expected native backend Test() to fail since it is not supported")
	}

	custom := NewCustomBackend()
	if custom.Capabilities().ExportDiscovery.Supported {
		t.Fatalf("expected custom backend to declare export discovery unsupported")
	}
	if _, err := custom.DiscoverExports(context.Background(), BuildContext{}); err == nil {
		t.Fatalf("expected custom backend DiscoverExports() to fail since it is not supported")
	}
}

// staticOnlyCustom is a CustomBackend that reports shared linking as
// unsupported.
type staticOnlyCustom struct{ *CustomBackend }

func (s staticOnlyCustom) Capabilities() Capabilities {
	c := s.CustomBackend.Capabilities()
	c.Linkage.Shared = false
	return c
}

// TestValidatorRejectsFFIOnStaticOnlyBackend covers the FFI-on-static-only
// scenario: a backend declaring shared linking unsupported must fail
// validation before any configure/build/install call is made.
func TestValidatorRejectsFFIOnStaticOnlyBackend(t *testing.T) {
	runner := &fakeRunner{}
	custom := staticOnlyCustom{&CustomBackend{runner: runner}}

	intent := BuildIntent{FFI: true}
	opts := Options{"build_program": "make"}

	errs := Validate(custom, intent, opts, nil, "x86_64-unknown-linux-gnu", nil)
	found := false
	for _, e := range errs {
		if ve, ok := e.(*ValidationError); ok && ve.Stage == "backend" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a backend-stage validation error for FFI against a static-only backend, got %v", errs)
	}

	if len(runner.calls) != 0 {
		t.Fatalf("expected no configure/build/install commands to run after a failed validation, got %d calls", len(runner.calls))
	}
}

func TestRegistryPanicsOnDuplicateRegister(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected Register to panic on duplicate backend id")
		}
	}()
	r := NewRegistry()
	r.Register(NewCustomBackend())
	r.Register(NewCustomBackend())
}

func TestRegistryListIsRegistrationOrder(t *testing.T) {
	r := NewDefault(&EnvToolchainDetector{CC: "cc", AR: "ar"})
	list := r.List()
	want := []string{"native", "cmake", "meson", "custom"}
	if len(list) != len(want) {
		t.Fatalf("expected %d backends, got %d", len(want), len(list))
	}
	for i, id := range want {
		if list[i].ID() != id {
			t.Fatalf("expected backend %d to be %q, got %q", i, id, list[i].ID())
		}
	}
}

func TestShortLibraryNameStripsPrefixAndVersionSuffix(t *testing.T) {
	cases := map[string]string{
		"libfoo.a":         "foo",
		"libfoo.so":        "foo",
		"libfoo.so.1.2.3":  "foo",
		"foo.lib":          "foo",
	}
	for filename, want := range cases {
		name, _ := shortLibraryName(filename)
		if name != want {
			t.Errorf("shortLibraryName(%q) = %q, want %q", filename, name, want)
		}
	}
}
