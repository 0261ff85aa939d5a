// Package image turns a resolved service definition into a container
// image: it renders the Dockerfile and the resolved dependency manifest
// into the build context, runs `docker build`, and can alternatively
// render a docker-compose.yml for compose-based deployment.
//
// The rendered Dockerfile encodes the whole bootstrap contract:
//   - the project tree is copied verbatim into the working directory
//   - the working directory is placed on the module search path
//   - all dependencies are installed in one step from the resolved
//     manifest (project requirements merged with the serving toolkit)
//   - the image declares its ingress port via EXPOSE (metadata only)
//   - the container command starts the server runner against the app
//     target, bound to all interfaces on the service port
package image

import (
	"fmt"
	"sort"
	"strings"

	"github.com/zeno-labs/asgiboot/internal/docker"
	"github.com/zeno-labs/asgiboot/internal/servicefile"
)

// GeneratedDir is the directory created inside the build context for
// asgiboot's generated artifacts: the rendered Dockerfile and the
// resolved manifest. Keeping them in one dot-directory mirrors the
// project's own files staying untouched.
const GeneratedDir = ".asgiboot"

// Generated file names inside GeneratedDir.
const (
	// DockerfileName is the rendered Dockerfile.
	DockerfileName = "Dockerfile"

	// ResolvedManifestName is the resolved dependency manifest the
	// Dockerfile installs from.
	ResolvedManifestName = "requirements.txt"
)

// RenderDockerfile renders the Dockerfile for a service. The output is
// deterministic for a given definition — environment variables and
// labels are emitted in sorted order — so rebuilding an unchanged
// service produces a byte-identical Dockerfile and hits Docker's layer
// cache.
//
// The resolved manifest is installed from its in-context location
// (GeneratedDir/ResolvedManifestName) after the COPY, so a manifest
// change invalidates exactly the install layer and everything after it.
func RenderDockerfile(svc *servicefile.Service) []byte {
	var b strings.Builder

	// Header comment marks the file as generated, mirroring the note
	// on the resolved manifest.
	fmt.Fprintf(&b, "# Generated by asgiboot for service %q\n", svc.Name)
	b.WriteString("# DO NOT EDIT - regenerated on each build\n\n")

	fmt.Fprintf(&b, "FROM %s\n\n", svc.BaseImage)

	fmt.Fprintf(&b, "WORKDIR %s\n", svc.Workdir)
	fmt.Fprintf(&b, "COPY . %s\n\n", svc.Workdir)

	// The module search path is the working directory: with the
	// project tree copied there, this single variable is sufficient
	// for the app target to resolve at process start.
	fmt.Fprintf(&b, "ENV PYTHONPATH=%s\n", svc.Workdir)
	// Values are quoted like the LABEL lines below: an unquoted value
	// containing a space would be misparsed as a second assignment.
	for _, k := range sortedKeys(svc.Env) {
		fmt.Fprintf(&b, "ENV %s=%q\n", k, svc.Env[k])
	}
	b.WriteByte('\n')

	// One install step from the resolved manifest. The serving
	// toolkit is already merged into it, so there is no second
	// unconditional install that could silently override a
	// project-pinned version.
	fmt.Fprintf(&b, "RUN pip install --no-cache-dir -r %s/%s/%s\n\n",
		svc.Workdir, GeneratedDir, ResolvedManifestName)

	// Static management labels. The per-build ID is attached via
	// --label at build time to keep this file stable across builds.
	imageLabels := docker.ImageLabels(svc.Name, svc.Target.String(), svc.Port)
	for _, k := range sortedKeys(imageLabels) {
		fmt.Fprintf(&b, "LABEL %s=%q\n", k, imageLabels[k])
	}
	b.WriteByte('\n')

	// EXPOSE documents the ingress port; the runtime publish performs
	// the actual binding.
	fmt.Fprintf(&b, "EXPOSE %d\n\n", svc.Port)

	// Exec-form CMD: the server runner is PID 1 and receives
	// termination signals directly.
	fmt.Fprintf(&b, "CMD [%q, %q, \"--host\", %q, \"--port\", %q]\n",
		svc.Runner, svc.Target.String(), svc.Host, fmt.Sprintf("%d", svc.Port))

	return []byte(b.String())
}

// sortedKeys returns the keys of a string map in sorted order, for
// deterministic rendering.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
