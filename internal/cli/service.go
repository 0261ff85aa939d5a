// Package cli — service.go holds helpers shared by the subcommands:
// service file loading and Docker lookups. Each helper returns CLIError
// values so commands can hand failures straight to the root error
// handler without re-wrapping.
package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/zeno-labs/asgiboot/internal/docker"
	"github.com/zeno-labs/asgiboot/internal/model"
	"github.com/zeno-labs/asgiboot/internal/servicefile"
)

// loadService locates, parses, validates and resolves the service file.
// When explicit is empty, service.json is looked up in the current
// directory. Relative paths in the file resolve against the file's own
// directory, so the command works the same from anywhere.
func loadService(explicit string) (*servicefile.Service, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, model.WrapCLIError(model.ExitGeneralError, "failed to get current directory", err)
	}

	path, err := servicefile.Find(cwd, explicit)
	if err != nil {
		return nil, err
	}
	VerboseLog("Service file: %s", path)

	raw, err := servicefile.Load(path)
	if err != nil {
		return nil, err
	}

	// Resolve applies defaults before validating, so a minimal file
	// with only "name" and "app" loads fine.
	svc, err := servicefile.Resolve(raw, filepath.Dir(path))
	if err != nil {
		return nil, err
	}

	VerboseLog("Service %q: app target %s, port %d (host %d)",
		svc.Name, svc.Target, svc.Port, svc.HostPort)
	return svc, nil
}

// connectDocker creates a Docker client and verifies the daemon is
// reachable. Connection and ping failures both map to the Docker
// unavailable exit code: from the user's perspective there is no
// difference between "no socket" and "socket but no daemon".
func connectDocker(ctx context.Context) (*docker.Client, error) {
	cli, err := docker.NewClient()
	if err != nil {
		return nil, err
	}

	if err := cli.Ping(ctx); err != nil {
		_ = cli.Close()
		return nil, err
	}

	VerboseLog("Connected to Docker daemon")
	return cli, nil
}

// findManagedService looks up the container for a named service and
// builds the domain object from its labels. Returns a CLIError with
// ExitServiceNotFound when no managed container carries the name.
func findManagedService(ctx context.Context, cli *docker.Client, name string) (*model.Service, error) {
	info, err := docker.FindServiceContainer(ctx, cli, name)
	if err != nil {
		return nil, err
	}
	if info == nil {
		return nil, model.WrapCLIError(
			model.ExitServiceNotFound,
			fmt.Sprintf("no managed container found for service %q", name),
			nil,
		)
	}

	svc, err := docker.BuildService(info)
	if err != nil {
		return nil, model.WrapCLIError(
			model.ExitGeneralError,
			fmt.Sprintf("container %s carries invalid service labels", info.ContainerName),
			err,
		)
	}
	return svc, nil
}
