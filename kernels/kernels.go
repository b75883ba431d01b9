// Package kernels holds the static WGSL kernel catalogue.
//
// Kernels are embedded at build time from shaders/*.wgsl and indexed by file
// name without extension ("add", "softmax", ...). The catalogue is built once
// during package initialization and is read-only afterwards, so lookups are
// safe from any goroutine without locking.
//
// Runtime-generated kernels (see package ops) do not live here; they are
// stored in the device's kernel source pool.
package kernels

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"
)

//go:embed shaders/*.wgsl
var shaderFS embed.FS

// catalogue maps kernel name to WGSL source. Never mutated after init.
var catalogue = mustLoad(shaderFS, "shaders")

func mustLoad(fsys fs.FS, dir string) map[string]string {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		panic(fmt.Sprintf("kernels: read embedded catalogue: %v", err))
	}
	m := make(map[string]string, len(entries))
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".wgsl" {
			continue
		}
		src, err := fs.ReadFile(fsys, path.Join(dir, e.Name()))
		if err != nil {
			panic(fmt.Sprintf("kernels: read %s: %v", e.Name(), err))
		}
		m[strings.TrimSuffix(e.Name(), ".wgsl")] = string(src)
	}
	return m
}

// Lookup returns the WGSL source of the named kernel.
func Lookup(name string) (string, bool) {
	src, ok := catalogue[name]
	return src, ok
}

// MustLookup returns the WGSL source of the named kernel and panics if the
// kernel is not in the catalogue. A missing kernel is a packaging defect.
func MustLookup(name string) string {
	src, ok := catalogue[name]
	if !ok {
		panic(fmt.Sprintf("kernels: kernel %q not found", name))
	}
	return src
}

// Names returns the sorted names of all static kernels.
func Names() []string {
	names := make([]string, 0, len(catalogue))
	for name := range catalogue {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
