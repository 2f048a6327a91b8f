package main

import (
	"fmt"
	"strings"
	"time"

	"context"

	"dagger/memgate/internal/dagger"
)

// Build and return directory of go binaries.
//
// The sqlite spool driver needs cgo, so builds run in goContainer()
// (gcc + libsqlite3-dev) and target the host platform only. Cross
// compiling cgo binaries would need per-target toolchains.
func (m *Memgate) Build(
	ctx context.Context,

	// Linker flags for go build
	// +optional
	// +default="-s -w"
	ldflags string,
) *dagger.Directory {
	goarches := []string{"amd64", "arm64"}

	// create empty directory to put build artifacts
	outputs := dag.Directory()

	golang := m.goContainer()

	for _, goarch := range goarches {
		path := fmt.Sprintf("linux/%s/", goarch)

		build := golang.
			WithEnvVariable("GOOS", "linux").
			WithEnvVariable("GOARCH", goarch).
			WithEnvVariable("CC", ccFor(goarch)).
			WithExec([]string{"go", "build", "-ldflags", ldflags, "-o", path, "./cli/memgate"})

		outputs = outputs.WithDirectory(path, build.Directory(path))
	}

	// return build directory
	return outputs
}

// ccFor maps a GOARCH to the matching gcc cross compiler. goContainer
// installs both via apt.
func ccFor(goarch string) string {
	if goarch == "arm64" {
		return "aarch64-linux-gnu-gcc"
	}
	return "gcc"
}

// BuildRelease compiles versioned release binaries with embedded version info
func (m *Memgate) BuildRelease(
	ctx context.Context,

	// Version string of build
	version string,

	// Git commit SHA of build
	commit string,
) *dagger.Directory {
	buildtime := time.Now()

	ldflags := []string{
		"-s",
		"-w",
		fmt.Sprintf("-X 'github.com/memgatehq/memgate/pkg/utils.Version=%s'", version),
		fmt.Sprintf("-X 'github.com/memgatehq/memgate/pkg/utils.Sha=%s'", commit),
		fmt.Sprintf("-X 'github.com/memgatehq/memgate/pkg/utils.Buildtime=%s'", buildtime),
	}

	return m.Build(ctx, strings.Join(ldflags, " "))
}
