// validate.go provides validation for service.json definitions.
//
// Validation runs after defaults are applied and before any Docker call,
// so a bad service file is rejected without side effects — no image is
// built and no container is created from a definition that cannot serve.
package servicefile

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/zeno-labs/asgiboot/internal/model"
)

// ValidationError represents a specific validation failure in a
// service file.
type ValidationError struct {
	// Field is the JSON field that failed validation (e.g., "port").
	Field string

	// Message describes what's wrong with the field value.
	Message string
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("service file validation error: %s: %s", e.Field, e.Message)
}

// Validate performs conformance checks on a service definition with
// defaults already applied. It returns a list of validation errors
// (empty list = valid definition).
//
// Checks performed:
//   - name: required, container/image-name safe
//   - app: required, parseable as "module.path:attribute"
//   - port / hostPort: inside the valid TCP range
//   - manifest: must be a relative path (it is resolved inside the
//     build context)
//   - servingPackages: entries must be non-empty
//   - env: keys must be non-empty and must not override the module
//     search path variable, which asgiboot manages itself
func Validate(raw *Raw) []ValidationError {
	var errs []ValidationError

	// Check 1: Name is required and must be usable as a container name
	// and image repository.
	if err := model.ValidateName(raw.Name); err != nil {
		errs = append(errs, ValidationError{Field: "name", Message: err.Error()})
	}

	// Check 2: App target must be present and well-formed. The real
	// resolution happens inside the container at process start; this
	// catches strings the server runner could never load.
	if raw.App == "" {
		errs = append(errs, ValidationError{Field: "app", Message: "app target is required (e.g. \"zeno_agent.agent:app\")"})
	} else if _, err := model.ParseAppTarget(raw.App); err != nil {
		errs = append(errs, ValidationError{Field: "app", Message: err.Error()})
	}

	// Check 3: Port ranges.
	if err := model.ValidatePort(raw.Port); err != nil {
		errs = append(errs, ValidationError{Field: "port", Message: err.Error()})
	}
	if err := model.ValidatePort(raw.HostPort); err != nil {
		errs = append(errs, ValidationError{Field: "hostPort", Message: err.Error()})
	}

	// Check 4: The manifest path is interpreted relative to the build
	// context; an absolute path would escape it.
	if filepath.IsAbs(raw.Manifest) {
		errs = append(errs, ValidationError{Field: "manifest", Message: fmt.Sprintf("manifest path %q must be relative to the build context", raw.Manifest)})
	}

	// Check 5: Serving package entries must name something installable.
	for i, pkg := range raw.ServingPackages {
		if strings.TrimSpace(pkg) == "" {
			errs = append(errs, ValidationError{Field: fmt.Sprintf("servingPackages[%d]", i), Message: "package entry must not be empty"})
		}
	}

	// Check 6: Env keys. PYTHONPATH is reserved: the rendered image sets
	// it to the workdir so the copied project is importable, which is
	// the contract the whole bootstrap depends on.
	for k := range raw.Env {
		if strings.TrimSpace(k) == "" {
			errs = append(errs, ValidationError{Field: "env", Message: "environment variable names must not be empty"})
			continue
		}
		// Whitespace or "=" in a name would corrupt the rendered
		// ENV instruction regardless of value quoting.
		if strings.ContainsAny(k, "= \t") {
			errs = append(errs, ValidationError{Field: "env." + k, Message: fmt.Sprintf("environment variable name %q must not contain spaces or \"=\"", k)})
		}
		if k == "PYTHONPATH" {
			errs = append(errs, ValidationError{Field: "env.PYTHONPATH", Message: "PYTHONPATH is managed by asgiboot and cannot be overridden"})
		}
	}

	return errs
}
