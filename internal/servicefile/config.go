// Package servicefile handles parsing and validation of service.json files.
//
// A service file is the single declarative input to asgiboot. It describes
// how a project tree becomes a running ASGI service: the base runtime image,
// the build context, the dependency manifest, the application target, and
// the port the server runner binds.
//
// The file format is JSONC (JSON with Comments), so this package uses
// github.com/tidwall/jsonc to strip comments before parsing with the
// standard encoding/json library.
package servicefile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/jsonc"

	"github.com/zeno-labs/asgiboot/internal/model"
)

// Default values applied by ApplyDefaults when the service file omits a
// field. They reproduce the conventional single-service deployment layout:
// the project is copied to /app, /app is placed on the interpreter's module
// search path, and the server runner binds all interfaces on port 8080.
const (
	// DefaultFileName is the service file name looked up in the project
	// root when no explicit path is given.
	DefaultFileName = "service.json"

	// DefaultWorkdir is the working directory inside the image. The
	// project tree is copied here verbatim, and the directory is put on
	// the module search path so the app target resolves from it.
	DefaultWorkdir = "/app"

	// DefaultManifest is the dependency manifest path, relative to the
	// build context.
	DefaultManifest = "requirements.txt"

	// DefaultHost is the bind address inside the container. Binding all
	// interfaces is required for the published port to be reachable
	// through the container's network namespace.
	DefaultHost = "0.0.0.0"

	// DefaultPort is the container port the server runner binds.
	DefaultPort = 8080

	// DefaultBaseImage is the runtime image used when the service file
	// does not name one.
	DefaultBaseImage = "python:3.11-slim"

	// DefaultRunner is the server runner executable started as the
	// container's single long-lived process.
	DefaultRunner = "uvicorn"
)

// DefaultServingPackages are the serving-toolkit packages guaranteed to be
// present in every image: the ASGI toolkit and the process/server runner.
// They are merged into the dependency manifest at build time so that the
// resolved manifest is the single source of truth for installation — a
// manifest that already names one of them keeps its own (possibly pinned)
// entry.
var DefaultServingPackages = []string{"fastapi", "uvicorn"}

// Raw represents the raw JSON structure of a service.json file.
// Unknown fields are silently ignored during parsing.
type Raw struct {
	// Name is the service identifier. Used for the image repository,
	// the container name, and management labels.
	Name string `json:"name"`

	// BaseImage is the runtime image the service image is built from.
	BaseImage string `json:"baseImage,omitempty"`

	// Context is the build context directory, relative to the service
	// file (or absolute). The whole tree is copied into the image.
	Context string `json:"context,omitempty"`

	// Workdir is the working directory inside the image.
	Workdir string `json:"workdir,omitempty"`

	// Manifest is the dependency manifest path relative to the context.
	Manifest string `json:"manifest,omitempty"`

	// App is the application target import string, e.g.
	// "zeno_agent.agent:app".
	App string `json:"app"`

	// Host is the bind address inside the container.
	Host string `json:"host,omitempty"`

	// Port is the container port the server runner binds. Also the
	// port declared via EXPOSE in the rendered Dockerfile.
	Port int `json:"port,omitempty"`

	// HostPort is the host port the container port is published to.
	// Defaults to Port.
	HostPort int `json:"hostPort,omitempty"`

	// ServingPackages overrides the serving-toolkit packages merged
	// into the manifest. Entries may carry version specifiers
	// (e.g. "uvicorn==0.30.1").
	ServingPackages []string `json:"servingPackages,omitempty"`

	// Runner overrides the server runner executable. Whatever is named
	// here must be installed by the manifest or the serving packages.
	Runner string `json:"runner,omitempty"`

	// Env sets additional environment variables inside the image.
	// The module-search-path variable is always set by asgiboot itself
	// and cannot be overridden here.
	Env map[string]string `json:"env,omitempty"`
}

// Service is the fully resolved service definition consumed by the image
// and docker packages. Produced by Resolve after defaults and validation.
type Service struct {
	Name            string
	BaseImage       string
	Context         string // absolute path on the host
	Workdir         string
	Manifest        string // relative to Context
	Target          model.AppTarget
	Host            string
	Port            int
	HostPort        int
	ServingPackages []string
	Runner          string
	Env             map[string]string
}

// Load reads a service file, strips JSONC comments, and parses it into
// a Raw struct.
//
// Returns a CLIError with ExitServiceFileInvalid if the file does not
// exist or contains malformed JSON.
func Load(path string) (*Raw, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, model.WrapCLIError(
				model.ExitServiceFileInvalid,
				fmt.Sprintf("service file not found: %s", path),
				err,
			)
		}
		return nil, model.WrapCLIError(
			model.ExitServiceFileInvalid,
			fmt.Sprintf("failed to read service file %s", path),
			err,
		)
	}

	// Strip JSONC comments (// and /* */) and trailing commas before
	// parsing. Hand-maintained deployment files accumulate comments, so
	// the format is JSONC rather than strict JSON.
	cleanJSON := jsonc.ToJSON(data)

	var raw Raw
	if err := json.Unmarshal(cleanJSON, &raw); err != nil {
		return nil, model.WrapCLIError(
			model.ExitServiceFileInvalid,
			fmt.Sprintf("failed to parse service file %s", path),
			err,
		)
	}

	return &raw, nil
}

// ApplyDefaults fills in the omitted fields of a Raw service definition.
// Name and App have no defaults — they are required and checked by
// Validate.
func ApplyDefaults(raw *Raw) {
	if raw.BaseImage == "" {
		raw.BaseImage = DefaultBaseImage
	}
	if raw.Context == "" {
		raw.Context = "."
	}
	if raw.Workdir == "" {
		raw.Workdir = DefaultWorkdir
	}
	if raw.Manifest == "" {
		raw.Manifest = DefaultManifest
	}
	if raw.Host == "" {
		raw.Host = DefaultHost
	}
	if raw.Port == 0 {
		raw.Port = DefaultPort
	}
	if raw.HostPort == 0 {
		raw.HostPort = raw.Port
	}
	if len(raw.ServingPackages) == 0 {
		raw.ServingPackages = append([]string(nil), DefaultServingPackages...)
	}
	if raw.Runner == "" {
		raw.Runner = DefaultRunner
	}
}

// Resolve validates a Raw definition and turns it into a Service.
//
// baseDir is the directory the service file was loaded from; the build
// context is resolved relative to it. Defaults are applied before
// validation, so a minimal file containing only "name" and "app" is valid.
//
// Returns a CLIError with ExitServiceFileInvalid listing the first
// validation failure.
func Resolve(raw *Raw, baseDir string) (*Service, error) {
	ApplyDefaults(raw)

	if errs := Validate(raw); len(errs) > 0 {
		// Report the first error; the rest are usually consequences
		// of the same mistake.
		return nil, model.WrapCLIError(
			model.ExitServiceFileInvalid,
			"invalid service file",
			&errs[0],
		)
	}

	target, err := model.ParseAppTarget(raw.App)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitServiceFileInvalid, "invalid service file", err)
	}

	// Resolve the build context to an absolute path so later stages
	// (Dockerfile rendering, docker build) are independent of the
	// process working directory.
	contextDir := raw.Context
	if !filepath.IsAbs(contextDir) {
		contextDir = filepath.Join(baseDir, contextDir)
	}
	contextDir, err = filepath.Abs(contextDir)
	if err != nil {
		return nil, model.WrapCLIError(
			model.ExitServiceFileInvalid,
			fmt.Sprintf("failed to resolve build context %q", raw.Context),
			err,
		)
	}

	env := make(map[string]string, len(raw.Env))
	for k, v := range raw.Env {
		env[k] = v
	}

	return &Service{
		Name:            raw.Name,
		BaseImage:       raw.BaseImage,
		Context:         contextDir,
		Workdir:         raw.Workdir,
		Manifest:        raw.Manifest,
		Target:          target,
		Host:            raw.Host,
		Port:            raw.Port,
		HostPort:        raw.HostPort,
		ServingPackages: append([]string(nil), raw.ServingPackages...),
		Runner:          raw.Runner,
		Env:             env,
	}, nil
}

// Find locates the service file for a project. If explicit is non-empty
// it is returned as-is (existence is checked by Load). Otherwise the
// default file name is looked up in dir.
//
// Returns a CLIError with ExitServiceFileInvalid when no service file
// exists at the default location.
func Find(dir, explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}

	path := filepath.Join(dir, DefaultFileName)
	if _, err := os.Stat(path); err != nil {
		return "", model.WrapCLIError(
			model.ExitServiceFileInvalid,
			fmt.Sprintf("no %s found in %s (use --file to point at one)", DefaultFileName, dir),
			err,
		)
	}
	return path, nil
}
