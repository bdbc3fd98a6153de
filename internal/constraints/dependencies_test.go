package constraints

import (
	"bytes"
	"encoding/json"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

type goListPackage struct {
	ImportPath string
	Imports    []string
}

const modulePrefix = "github.com/jacoelho/jsonhash/internal/"

// corePackages implement flattening and querying; they know nothing about
// how records are loaded, reported or served.
var corePackages = map[string]struct{}{
	modulePrefix + "node":     {},
	modulePrefix + "flat":     {},
	modulePrefix + "flatten":  {},
	modulePrefix + "stack":    {},
	modulePrefix + "schema":   {},
	modulePrefix + "pathinfo": {},
	modulePrefix + "project":  {},
	modulePrefix + "query":    {},
}

func TestCorePackagesDoNotImportOuterPackages(t *testing.T) {
	t.Parallel()

	outer := []string{
		modulePrefix + "config",
		modulePrefix + "exit",
		modulePrefix + "formatter",
		modulePrefix + "parser",
		modulePrefix + "results",
		modulePrefix + "runner",
		modulePrefix + "server",
		modulePrefix + "source",
	}

	packages := goList(t, "./internal/...")

	var violations []string
	for _, pkg := range packages {
		if _, ok := corePackages[pkg.ImportPath]; !ok {
			continue
		}
		for _, imp := range pkg.Imports {
			for _, o := range outer {
				if imp == o || strings.HasPrefix(imp, o+"/") {
					violations = append(violations, pkg.ImportPath+" imports "+imp)
				}
			}
		}
	}

	if len(violations) > 0 {
		t.Fatalf("found forbidden core->outer imports:\n%s", strings.Join(violations, "\n"))
	}
}

func TestPurePackagesAvoidSideEffectImports(t *testing.T) {
	t.Parallel()

	purePackages := map[string]struct{}{
		modulePrefix + "node":     {},
		modulePrefix + "flat":     {},
		modulePrefix + "flatten":  {},
		modulePrefix + "stack":    {},
		modulePrefix + "pathinfo": {},
		modulePrefix + "project":  {},
		modulePrefix + "query":    {},
		modulePrefix + "parser":   {},
	}

	forbidden := map[string]struct{}{
		"os":           {},
		"net/http":     {},
		"math/rand":    {},
		"math/rand/v2": {},
	}

	packages := goList(t, "./internal/...")

	var violations []string
	for _, pkg := range packages {
		if _, ok := purePackages[pkg.ImportPath]; !ok {
			continue
		}
		for _, imp := range pkg.Imports {
			if _, banned := forbidden[imp]; banned {
				violations = append(violations, pkg.ImportPath+" imports forbidden package "+imp)
			}
		}
	}

	if len(violations) > 0 {
		t.Fatalf("found forbidden imports in pure packages:\n%s", strings.Join(violations, "\n"))
	}
}

func goList(t *testing.T, patterns ...string) []goListPackage {
	t.Helper()

	args := append([]string{"list", "-json"}, patterns...)
	cmd := exec.Command("go", args...)
	cmd.Dir = repoRoot(t)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		t.Fatalf("go list failed: %v\nstderr:\n%s", err, stderr.String())
	}

	decoder := json.NewDecoder(bytes.NewReader(stdout.Bytes()))
	var packages []goListPackage
	for decoder.More() {
		var pkg goListPackage
		if err := decoder.Decode(&pkg); err != nil {
			t.Fatalf("decode go list json: %v", err)
		}
		packages = append(packages, pkg)
	}

	return packages
}

func repoRoot(t *testing.T) string {
	t.Helper()

	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("runtime.Caller failed")
	}

	return filepath.Clean(filepath.Join(filepath.Dir(filename), "..", ".."))
}
