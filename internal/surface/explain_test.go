package surface

import "testing"

func TestFlagsOrdersIncludesThenDefinesThenRawFlags(t *testing.T) {
	f := &Flat{
		IncludeDirs:  []FlatItem[string]{{Value: "include"}},
		Defines:      []FlatItem[CondDefine]{{Value: CondDefine{Name: "FOO", Value: "1"}}},
		CompileFlags: []FlatItem[string]{{Value: "-fPIC"}},
	}
	got := Flags(f)
	want := []string{"-Iinclude", "-DFOO=1", "-fPIC"}
	if len(got) != len(want) {
		t.Fatalf("expected %d flags, got %d: %+v", len(want), len(got), got)
	}
	for i, w := range want {
		if got[i].Flag != w {
			t.Errorf("flag %d: got %q, want %q", i, got[i].Flag, w)
		}
	}
}

func TestLinkPlanOrdersDirsThenLibsThenFlags(t *testing.T) {
	f := &Flat{
		LibDirs:    []FlatItem[string]{{Value: "lib"}},
		DepLibs:    []FlatItem[DepLib]{{Value: DepLib{Name: "mylib"}}},
		SystemLibs: []FlatItem[string]{{Value: "pthread"}},
		Frameworks: []FlatItem[string]{{Value: "CoreFoundation"}},
		LinkFlags:  []FlatItem[string]{{Value: "-Wl,-rpath,."}},
	}
	got := LinkPlan(f)
	want := []string{"-Llib", "-lmylib", "-lpthread", "-framework CoreFoundation", "-Wl,-rpath,."}
	if len(got) != len(want) {
		t.Fatalf("expected %d entries, got %d: %+v", len(want), len(got), got)
	}
	for i, w := range want {
		if got[i].Flag != w {
			t.Errorf("entry %d: got %q, want %q", i, got[i].Flag, w)
		}
	}
}

func TestExplainCoversEveryFlattenedCategory(t *testing.T) {
	f := &Flat{
		IncludeDirs: []FlatItem[string]{{Value: "include"}},
		Defines:     []FlatItem[CondDefine]{{Value: CondDefine{Name: "FOO"}}},
		LibDirs:     []FlatItem[string]{{Value: "lib"}},
		DepLibs:     []FlatItem[DepLib]{{Value: DepLib{Name: "mylib", Path: "/deps/mylib/libmylib.a"}}},
		SystemLibs:  []FlatItem[string]{{Value: "m"}},
	}
	entries := Explain(f)
	if len(entries) != 5 {
		t.Fatalf("expected 5 entries, got %d: %+v", len(entries), entries)
	}
	if entries[3].Kind != "dep-lib" || entries[3].Value != "mylib (/deps/mylib/libmylib.a)" {
		t.Errorf("unexpected dep-lib entry: %+v", entries[3])
	}
}
