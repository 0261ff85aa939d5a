// build.go runs the image build: it resolves the dependency manifest,
// writes the generated artifacts into the build context, and invokes
// `docker build`.
//
// The build is executed through the docker CLI rather than the SDK's
// ImageBuild endpoint. The CLI path gets BuildKit, .dockerignore
// handling and context tar-ing for free, and its failure output is the
// same text users see when building by hand — which matters, because a
// failed dependency installation must be reported verbatim so the
// operator can fix the manifest.
package image

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/zeno-labs/asgiboot/internal/docker"
	"github.com/zeno-labs/asgiboot/internal/manifest"
	"github.com/zeno-labs/asgiboot/internal/model"
	"github.com/zeno-labs/asgiboot/internal/servicefile"
)

// DefaultRepository is the image repository prefix used when the
// operator does not override it.
const DefaultRepository = "asgiboot"

// Result describes a completed image build.
type Result struct {
	// Tag is the full image tag the build produced.
	Tag string

	// BuildID is the UUID assigned to this build, baked into the image
	// as a label and inherited by containers started from it.
	BuildID string

	// Added lists the serving-toolkit entries that were appended to
	// the manifest during resolution. Empty when the project manifest
	// already named all of them.
	Added []manifest.Entry
}

// Tag computes the image tag for a service: "<repository>/<name>:latest".
func Tag(repository, name string) string {
	if repository == "" {
		repository = DefaultRepository
	}
	return fmt.Sprintf("%s/%s:latest", repository, name)
}

// ResolveManifest loads the project's dependency manifest from the
// build context and merges the serving packages into it. The returned
// manifest is the single source of truth for the image's install step.
func ResolveManifest(svc *servicefile.Service) (*manifest.Manifest, []manifest.Entry, error) {
	m, err := manifest.Load(filepath.Join(svc.Context, svc.Manifest))
	if err != nil {
		return nil, nil, model.WrapCLIError(model.ExitBuildFailed, "failed to load dependency manifest", err)
	}

	added := m.Ensure(svc.ServingPackages)
	return m, added, nil
}

// WriteArtifacts renders the Dockerfile and the resolved manifest into
// the GeneratedDir inside the build context. Both files are regenerated
// on every build; the rest of the context is never touched.
func WriteArtifacts(svc *servicefile.Service, m *manifest.Manifest) (dockerfilePath string, err error) {
	dir := filepath.Join(svc.Context, GeneratedDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", model.WrapCLIError(
			model.ExitBuildFailed,
			fmt.Sprintf("failed to create %s directory in build context", GeneratedDir),
			err,
		)
	}

	if err := m.Write(filepath.Join(dir, ResolvedManifestName)); err != nil {
		return "", model.WrapCLIError(model.ExitBuildFailed, "failed to write resolved manifest", err)
	}

	dockerfilePath = filepath.Join(dir, DockerfileName)
	if err := os.WriteFile(dockerfilePath, RenderDockerfile(svc), 0o644); err != nil {
		return "", model.WrapCLIError(model.ExitBuildFailed, "failed to write Dockerfile", err)
	}

	return dockerfilePath, nil
}

// Build assembles the service image end to end: manifest resolution,
// artifact generation, and `docker build`. On success the image exists
// locally under the returned tag; on failure no usable tag is produced
// and the error carries the build tool's output.
//
// repository overrides the image repository prefix ("" = default).
func Build(ctx context.Context, svc *servicefile.Service, repository string) (*Result, error) {
	m, added, err := ResolveManifest(svc)
	if err != nil {
		return nil, err
	}

	dockerfilePath, err := WriteArtifacts(svc, m)
	if err != nil {
		return nil, err
	}

	tag := Tag(repository, svc.Name)
	buildID := uuid.NewString()

	// The build ID is attached here rather than rendered into the
	// Dockerfile so unchanged definitions keep a stable Dockerfile
	// and benefit from layer caching.
	args := []string{
		"build",
		"-t", tag,
		"-f", dockerfilePath,
		"--label", docker.LabelBuildID + "=" + buildID,
		svc.Context,
	}

	if err := runDocker(ctx, svc.Context, args); err != nil {
		return nil, err
	}

	return &Result{Tag: tag, BuildID: buildID, Added: added}, nil
}

// runDocker executes a docker CLI command as a child process, capturing
// combined output for error reporting. A non-zero exit aborts with
// ExitBuildFailed: image construction either completes or produces
// nothing.
func runDocker(ctx context.Context, dir string, args []string) error {
	cmd := exec.CommandContext(ctx, "docker", args...)
	cmd.Dir = dir
	cmd.Env = os.Environ()

	output, err := cmd.CombinedOutput()
	if err != nil {
		return model.WrapCLIError(
			model.ExitBuildFailed,
			fmt.Sprintf("docker build failed: %s", strings.TrimSpace(string(output))),
			err,
		)
	}
	return nil
}
