package kernels

import (
	"slices"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/gogpu/naga"
)

func TestCatalogue(t *testing.T) {
	want := []string{"add", "div", "gelu", "mul", "relu", "softmax", "sub"}
	if got := Names(); !slices.Equal(got, want) {
		t.Fatalf("Names() = %v, want %v", got, want)
	}
	for _, name := range want {
		src, ok := Lookup(name)
		if !ok {
			t.Errorf("Lookup(%q) not found", name)
			continue
		}
		if !strings.Contains(src, "fn main(") {
			t.Errorf("kernel %q has no main entry point", name)
		}
	}
}

func TestLookupMissing(t *testing.T) {
	if _, ok := Lookup("gemv"); ok {
		t.Error("Lookup(gemv) found a generated kernel in the static catalogue")
	}
}

func TestMustLookupPanics(t *testing.T) {
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("MustLookup did not panic for a missing kernel")
		}
		if msg, _ := r.(string); !strings.Contains(msg, "nope") {
			t.Errorf("panic message %q does not name the kernel", msg)
		}
	}()
	MustLookup("nope")
}

func TestMustLoadSkipsForeignFiles(t *testing.T) {
	fsys := fstest.MapFS{
		"k/a.wgsl":   {Data: []byte("fn main() {}")},
		"k/README":   {Data: []byte("docs")},
		"k/sub/b.go": {Data: []byte("package b")},
	}
	m := mustLoad(fsys, "k")
	if len(m) != 1 || m["a"] != "fn main() {}" {
		t.Errorf("mustLoad = %v, want only kernel a", m)
	}
}

// TestCatalogueCompiles checks every static kernel with naga.
func TestCatalogueCompiles(t *testing.T) {
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			spirv, err := naga.Compile(MustLookup(name))
			if err != nil {
				if strings.Contains(err.Error(), "not yet implemented") || strings.Contains(err.Error(), "not supported") {
					t.Skipf("naga limitation: %v", err)
				}
				t.Fatalf("naga.Compile(%s): %v", name, err)
			}
			if len(spirv) == 0 {
				t.Error("empty SPIR-V output")
			}
		})
	}
}
