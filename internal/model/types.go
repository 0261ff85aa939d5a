// Package model defines the domain types for the asgiboot CLI.
//
// The entities here mirror the deployment contract asgiboot manages:
// a Service (one project tree packaged into one image, served by exactly
// one container), its ASGI application target, and its lifecycle state.
//
// Key design decision: all runtime state is derived from Docker container
// labels and container status. There is no state file on disk — a Service
// is reconstructed from Docker API queries whenever a command needs it.
package model

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// ServiceState represents the lifecycle state of a bootstrapped service.
// The state machine is deliberately minimal:
//
//	[not-started] → running → exited
//
// There is no degraded or partially-serving state. A service either owns
// its listening socket and serves, or it has exited (fatal startup failure
// or external termination).
type ServiceState string

const (
	// StateNotStarted indicates an image exists for the service but no
	// container has been started from it.
	StateNotStarted ServiceState = "not-started"

	// StateRunning indicates the service container is running and owns
	// its published port.
	StateRunning ServiceState = "running"

	// StateExited indicates the service container has terminated —
	// either a fatal startup failure (the app target could not be
	// resolved, the port could not be bound) or an external signal.
	StateExited ServiceState = "exited"
)

// String returns the string representation of ServiceState.
// Satisfies fmt.Stringer for CLI output.
func (s ServiceState) String() string {
	return string(s)
}

// IsValid checks whether the ServiceState value is one of the
// predefined states.
func (s ServiceState) IsValid() bool {
	switch s {
	case StateNotStarted, StateRunning, StateExited:
		return true
	default:
		return false
	}
}

// ParseServiceState converts a string to a ServiceState.
// Returns an error if the string does not match any valid state.
func ParseServiceState(s string) (ServiceState, error) {
	state := ServiceState(strings.ToLower(s))
	if !state.IsValid() {
		return "", fmt.Errorf("invalid service state: %q (valid: not-started, running, exited)", s)
	}
	return state, nil
}

// AppTarget identifies the ASGI application object the server runner loads
// at process start. It is the parsed form of an import string such as
// "zeno_agent.agent:app" — a dotted module path, a colon, and the attribute
// holding the application object.
type AppTarget struct {
	// Module is the dotted import path of the unit containing the
	// application object (e.g. "zeno_agent.agent").
	Module string `json:"module"`

	// Attribute is the name of the application object within the module.
	// Conventionally "app".
	Attribute string `json:"attribute"`
}

// moduleSegmentRegex validates a single segment of a dotted module path:
// identifier characters only, not starting with a digit.
var moduleSegmentRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ParseAppTarget parses an import string of the form "module.path:attribute"
// into an AppTarget. Both halves are validated: the module path must be one
// or more dot-separated identifiers, and the attribute must be a single
// identifier.
//
// The target is only resolved inside the container at process start; this
// function catches the malformed strings that would make the server runner
// fail in confusing ways, so the CLI can reject them before any image is
// built.
func ParseAppTarget(s string) (AppTarget, error) {
	module, attribute, ok := strings.Cut(s, ":")
	if !ok {
		return AppTarget{}, fmt.Errorf("invalid app target %q: expected \"module.path:attribute\"", s)
	}
	if module == "" || attribute == "" {
		return AppTarget{}, fmt.Errorf("invalid app target %q: module and attribute must be non-empty", s)
	}

	for _, segment := range strings.Split(module, ".") {
		if !moduleSegmentRegex.MatchString(segment) {
			return AppTarget{}, fmt.Errorf("invalid app target %q: bad module path segment %q", s, segment)
		}
	}
	if !moduleSegmentRegex.MatchString(attribute) {
		return AppTarget{}, fmt.Errorf("invalid app target %q: bad attribute name %q", s, attribute)
	}

	return AppTarget{Module: module, Attribute: attribute}, nil
}

// String returns the import-string form of the target, the inverse
// of ParseAppTarget.
func (t AppTarget) String() string {
	return t.Module + ":" + t.Attribute
}

// Service represents a bootstrapped service — one project tree packaged
// into one container image and served by at most one container. This is
// the primary aggregate entity in the domain.
//
// All fields are reconstructed at runtime from Docker labels on the
// service's container. There is no persistent state file.
type Service struct {
	// Name is the unique identifier for the service.
	// Must contain only alphanumeric characters and hyphens.
	Name string `json:"name"`

	// Image is the tag of the image the service runs from.
	Image string `json:"image"`

	// Target is the ASGI application object the container serves.
	Target AppTarget `json:"target"`

	// Port is the container port the server runner binds on all
	// interfaces inside the container.
	Port int `json:"port"`

	// HostPort is the host port the container port is published to.
	// Usually equal to Port.
	HostPort int `json:"hostPort"`

	// State is the current lifecycle state, derived from the Docker
	// container's status.
	State ServiceState `json:"state"`

	// BuildID identifies the image build the running container came from.
	BuildID string `json:"buildId,omitempty"`

	// Container holds runtime information about the service's container.
	// Nil when no container exists (StateNotStarted).
	Container *ContainerInfo `json:"container,omitempty"`

	// CreatedAt is the timestamp when the container was created.
	CreatedAt time.Time `json:"createdAt"`
}

// nameRegex validates service names: alphanumeric + hyphens only,
// must start and end with alphanumeric.
var nameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9-]*[a-zA-Z0-9]$|^[a-zA-Z0-9]$`)

// ValidateName checks if the given name is a valid service name.
// Valid names contain only alphanumeric characters and hyphens,
// and must start/end with an alphanumeric character. The same rules
// keep the name usable as a container name and an image repository.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("service name must not be empty")
	}
	if !nameRegex.MatchString(name) {
		return fmt.Errorf("invalid service name %q: must contain only alphanumeric characters and hyphens, and start/end with alphanumeric", name)
	}
	return nil
}

// ValidatePort checks that a port number is inside the valid TCP range.
// The well-known range (<1024) is allowed because the bind happens inside
// the container, where the server process owns the network namespace.
func ValidatePort(port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("port %d out of range (1-65535)", port)
	}
	return nil
}

// ContainerInfo holds runtime information about a Docker container.
// This data is fetched dynamically from the Docker API, not persisted.
type ContainerInfo struct {
	// ContainerID is the unique Docker container identifier.
	ContainerID string `json:"containerId"`

	// ContainerName is the human-readable Docker container name.
	ContainerName string `json:"containerName"`

	// Status is the Docker container status (e.g., "running", "exited").
	Status string `json:"status"`

	// ExitCode is the container's exit code. Only meaningful when
	// Status is "exited"; a non-zero value indicates a fatal startup
	// failure inside the container (unresolvable app target, bind error).
	ExitCode int `json:"exitCode,omitempty"`

	// Labels is the full set of Docker labels on the container,
	// including the asgiboot management labels.
	Labels map[string]string `json:"labels,omitempty"`
}

// ExitCode defines the CLI exit codes. These codes allow scripts and CI
// systems to programmatically distinguish build-time failures from
// start-time failures, per the deployment contract's error taxonomy.
type ExitCode int

const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError ExitCode = 1

	// ExitServiceFileInvalid indicates the service file was not found
	// or failed validation.
	ExitServiceFileInvalid ExitCode = 2

	// ExitDockerNotRunning indicates the Docker daemon is not accessible.
	ExitDockerNotRunning ExitCode = 3

	// ExitBuildFailed indicates image construction aborted — most
	// commonly a dependency installation failure. No partial image is
	// produced; the build must be re-run after fixing the manifest or
	// network access.
	ExitBuildFailed ExitCode = 4

	// ExitPortUnavailable indicates the host port for the service is
	// already in use, so the container was not started.
	ExitPortUnavailable ExitCode = 5

	// ExitServiceNotFound indicates the named service has no managed
	// container.
	ExitServiceNotFound ExitCode = 6

	// ExitStartFailed indicates the container exited before becoming
	// ready, or never started accepting connections within the
	// readiness window. The app target could not be resolved, or the
	// in-container bind failed.
	ExitStartFailed ExitCode = 7
)

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error implements the error interface. It combines the message
// with the underlying error when one exists.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error, enabling errors.Is / errors.As
// to traverse the error chain.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// WrapCLIError creates a CLIError with the given exit code, message,
// and underlying error. The underlying error may be nil.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}
