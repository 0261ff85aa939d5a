package servicefile

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeno-labs/asgiboot/internal/model"
)

// fixturePath returns the path to a service.json fixture under testdata/.
func fixturePath(t *testing.T, fixture string) string {
	t.Helper()
	return filepath.Join("testdata", fixture, "service.json")
}

// --- Load tests ---

// TestLoad_Full verifies that a fully specified service.json is parsed,
// including JSONC comment stripping.
func TestLoad_Full(t *testing.T) {
	raw, err := Load(fixturePath(t, "zeno-full"))
	require.NoError(t, err, "Load should succeed for a valid service.json")

	assert.Equal(t, "zeno-agent", raw.Name)
	assert.Equal(t, "python:3.11-slim", raw.BaseImage)
	assert.Equal(t, ".", raw.Context)
	assert.Equal(t, "/app", raw.Workdir)
	assert.Equal(t, "requirements.txt", raw.Manifest)
	assert.Equal(t, "zeno_agent.agent:app", raw.App)
	assert.Equal(t, "0.0.0.0", raw.Host)
	assert.Equal(t, 8080, raw.Port)

	// The fixture pins both serving packages.
	require.Len(t, raw.ServingPackages, 2)
	assert.Equal(t, "fastapi==0.111.0", raw.ServingPackages[0])
	assert.Equal(t, "uvicorn==0.30.1", raw.ServingPackages[1])

	require.Len(t, raw.Env, 1)
	assert.Equal(t, "info", raw.Env["LOG_LEVEL"])
}

// TestLoad_Minimal verifies that a service file with only the required
// fields parses, leaving everything else zero-valued for ApplyDefaults.
func TestLoad_Minimal(t *testing.T) {
	raw, err := Load(fixturePath(t, "minimal"))
	require.NoError(t, err)

	assert.Equal(t, "echo", raw.Name)
	assert.Equal(t, "echo.main:app", raw.App)
	assert.Empty(t, raw.BaseImage)
	assert.Zero(t, raw.Port)
	assert.Empty(t, raw.ServingPackages)
}

// TestLoad_NotFound verifies the CLIError code for a missing service file.
func TestLoad_NotFound(t *testing.T) {
	_, err := Load(filepath.Join("testdata", "nope", "service.json"))
	require.Error(t, err)

	cliErr, ok := err.(*model.CLIError)
	require.True(t, ok, "expected a CLIError")
	assert.Equal(t, model.ExitServiceFileInvalid, cliErr.Code)
}

// TestLoad_Malformed verifies that broken JSON is rejected with the
// service-file exit code rather than a bare unmarshal error.
func TestLoad_Malformed(t *testing.T) {
	_, err := Load(fixturePath(t, "malformed"))
	require.Error(t, err)

	cliErr, ok := err.(*model.CLIError)
	require.True(t, ok, "expected a CLIError")
	assert.Equal(t, model.ExitServiceFileInvalid, cliErr.Code)
}

// --- ApplyDefaults tests ---

// TestApplyDefaults verifies every default on a minimal definition.
func TestApplyDefaults(t *testing.T) {
	raw := &Raw{Name: "echo", App: "echo.main:app"}
	ApplyDefaults(raw)

	assert.Equal(t, DefaultBaseImage, raw.BaseImage)
	assert.Equal(t, ".", raw.Context)
	assert.Equal(t, DefaultWorkdir, raw.Workdir)
	assert.Equal(t, DefaultManifest, raw.Manifest)
	assert.Equal(t, DefaultHost, raw.Host)
	assert.Equal(t, DefaultPort, raw.Port)
	assert.Equal(t, DefaultPort, raw.HostPort, "hostPort defaults to port")
	assert.Equal(t, DefaultServingPackages, raw.ServingPackages)
	assert.Equal(t, DefaultRunner, raw.Runner)
}

// TestApplyDefaults_HostPortFollowsPort verifies that an explicit port
// without an explicit hostPort publishes to the same port number.
func TestApplyDefaults_HostPortFollowsPort(t *testing.T) {
	raw := &Raw{Name: "echo", App: "echo.main:app", Port: 9000}
	ApplyDefaults(raw)

	assert.Equal(t, 9000, raw.Port)
	assert.Equal(t, 9000, raw.HostPort)
}

// TestApplyDefaults_PreservesExplicitValues verifies defaults never
// clobber values the service file set.
func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	raw := &Raw{
		Name:            "echo",
		App:             "echo.main:app",
		BaseImage:       "python:3.12",
		Workdir:         "/srv",
		Manifest:        "deps/requirements.txt",
		Host:            "0.0.0.0",
		Port:            8081,
		HostPort:        18081,
		ServingPackages: []string{"starlette", "hypercorn"},
	}
	ApplyDefaults(raw)

	assert.Equal(t, "python:3.12", raw.BaseImage)
	assert.Equal(t, "/srv", raw.Workdir)
	assert.Equal(t, "deps/requirements.txt", raw.Manifest)
	assert.Equal(t, 8081, raw.Port)
	assert.Equal(t, 18081, raw.HostPort)
	assert.Equal(t, []string{"starlette", "hypercorn"}, raw.ServingPackages)
}

// --- Resolve tests ---

// TestResolve_Minimal verifies a minimal definition resolves to a full
// Service with defaults and an absolute build context.
func TestResolve_Minimal(t *testing.T) {
	raw := &Raw{Name: "echo", App: "echo.main:app"}

	svc, err := Resolve(raw, "/projects/echo")
	require.NoError(t, err)

	assert.Equal(t, "echo", svc.Name)
	assert.Equal(t, DefaultBaseImage, svc.BaseImage)
	assert.Equal(t, "/projects/echo", svc.Context)
	assert.Equal(t, DefaultWorkdir, svc.Workdir)
	assert.Equal(t, DefaultManifest, svc.Manifest)
	assert.Equal(t, model.AppTarget{Module: "echo.main", Attribute: "app"}, svc.Target)
	assert.Equal(t, DefaultHost, svc.Host)
	assert.Equal(t, DefaultPort, svc.Port)
	assert.Equal(t, DefaultPort, svc.HostPort)
	assert.Equal(t, DefaultServingPackages, svc.ServingPackages)
}

// TestResolve_RelativeContext verifies context resolution against the
// service file's directory.
func TestResolve_RelativeContext(t *testing.T) {
	raw := &Raw{Name: "echo", App: "echo.main:app", Context: "src"}

	svc, err := Resolve(raw, "/projects/echo")
	require.NoError(t, err)
	assert.Equal(t, "/projects/echo/src", svc.Context)
}

// TestResolve_Invalid verifies that validation errors surface as a
// CLIError with the service-file exit code.
func TestResolve_Invalid(t *testing.T) {
	tests := []struct {
		name string
		raw  *Raw
	}{
		{name: "missing name", raw: &Raw{App: "echo.main:app"}},
		{name: "missing app", raw: &Raw{Name: "echo"}},
		{name: "bad app target", raw: &Raw{Name: "echo", App: "no-colon-here"}},
		{name: "bad port", raw: &Raw{Name: "echo", App: "echo.main:app", Port: 70000}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(tt.raw, "/projects/echo")
			require.Error(t, err)

			cliErr, ok := err.(*model.CLIError)
			require.True(t, ok, "expected a CLIError")
			assert.Equal(t, model.ExitServiceFileInvalid, cliErr.Code)
		})
	}
}

// --- Find tests ---

// TestFind_Explicit verifies an explicit path short-circuits discovery.
func TestFind_Explicit(t *testing.T) {
	path, err := Find("/anywhere", "/my/custom.json")
	require.NoError(t, err)
	assert.Equal(t, "/my/custom.json", path)
}

// TestFind_Default verifies discovery of service.json in a directory.
func TestFind_Default(t *testing.T) {
	dir := filepath.Join("testdata", "minimal")

	path, err := Find(dir, "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "service.json"), path)
}

// TestFind_Missing verifies the error when no service file exists.
func TestFind_Missing(t *testing.T) {
	_, err := Find(t.TempDir(), "")
	require.Error(t, err)

	cliErr, ok := err.(*model.CLIError)
	require.True(t, ok, "expected a CLIError")
	assert.Equal(t, model.ExitServiceFileInvalid, cliErr.Code)
}
