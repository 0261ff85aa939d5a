package servicefile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validRaw returns a definition that passes validation, for tests to
// mutate one field at a time.
func validRaw() *Raw {
	raw := &Raw{Name: "zeno-agent", App: "zeno_agent.agent:app"}
	ApplyDefaults(raw)
	return raw
}

// TestValidate_Valid verifies that a defaulted minimal definition
// produces no validation errors.
func TestValidate_Valid(t *testing.T) {
	errs := Validate(validRaw())
	assert.Empty(t, errs)
}

// TestValidate_Name checks name validation failures.
func TestValidate_Name(t *testing.T) {
	raw := validRaw()
	raw.Name = "bad_name"

	errs := Validate(raw)
	require.Len(t, errs, 1)
	assert.Equal(t, "name", errs[0].Field)
}

// TestValidate_AppTarget checks the two app-target failure modes:
// missing entirely, and malformed.
func TestValidate_AppTarget(t *testing.T) {
	raw := validRaw()
	raw.App = ""
	errs := Validate(raw)
	require.Len(t, errs, 1)
	assert.Equal(t, "app", errs[0].Field)

	raw = validRaw()
	raw.App = "zeno_agent.agent" // no attribute
	errs = Validate(raw)
	require.Len(t, errs, 1)
	assert.Equal(t, "app", errs[0].Field)
}

// TestValidate_Ports checks port range enforcement for both the
// container port and the host port.
func TestValidate_Ports(t *testing.T) {
	raw := validRaw()
	raw.Port = 0
	errs := Validate(raw)
	require.Len(t, errs, 1)
	assert.Equal(t, "port", errs[0].Field)

	raw = validRaw()
	raw.HostPort = 65536
	errs = Validate(raw)
	require.Len(t, errs, 1)
	assert.Equal(t, "hostPort", errs[0].Field)
}

// TestValidate_AbsoluteManifest verifies that manifest paths must stay
// inside the build context.
func TestValidate_AbsoluteManifest(t *testing.T) {
	raw := validRaw()
	raw.Manifest = "/etc/requirements.txt"

	errs := Validate(raw)
	require.Len(t, errs, 1)
	assert.Equal(t, "manifest", errs[0].Field)
}

// TestValidate_ServingPackages verifies empty package entries are rejected.
func TestValidate_ServingPackages(t *testing.T) {
	raw := validRaw()
	raw.ServingPackages = []string{"fastapi", "  "}

	errs := Validate(raw)
	require.Len(t, errs, 1)
	assert.Equal(t, "servingPackages[1]", errs[0].Field)
}

// TestValidate_ReservedEnv verifies that PYTHONPATH cannot be set from
// the service file — asgiboot owns the module search path.
func TestValidate_ReservedEnv(t *testing.T) {
	raw := validRaw()
	raw.Env = map[string]string{"PYTHONPATH": "/elsewhere"}

	errs := Validate(raw)
	require.Len(t, errs, 1)
	assert.Equal(t, "env.PYTHONPATH", errs[0].Field)
}

// TestValidate_MalformedEnvNames verifies that variable names which
// would corrupt the rendered ENV instruction are rejected.
func TestValidate_MalformedEnvNames(t *testing.T) {
	for _, name := range []string{"APP GREETING", "APP=GREETING", "APP\tGREETING"} {
		raw := validRaw()
		raw.Env = map[string]string{name: "value"}

		errs := Validate(raw)
		require.Len(t, errs, 1, "name %q", name)
		assert.Equal(t, "env."+name, errs[0].Field)
	}
}

// TestValidationError_Error verifies the error message format.
func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{Field: "port", Message: "out of range"}
	assert.Equal(t, "service file validation error: port: out of range", err.Error())
}
