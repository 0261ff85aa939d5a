// container.go implements Docker container lifecycle operations for the
// asgiboot CLI: creating the single serving container for a service,
// discovering managed containers, and stopping or removing them.
//
// All managed containers are identified by the "asgiboot.managed-by"
// label, which separates them from unrelated containers on the same
// host. Each service owns at most one container, named after the
// service.
package docker

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/go-connections/nat"

	"github.com/zeno-labs/asgiboot/internal/model"
)

// ListManagedContainers queries the Docker daemon for all containers
// that have the "asgiboot.managed-by=asgiboot" label. It returns a
// slice of ContainerInfo representing each managed container, including
// exited ones.
//
// This is the primary entry point for discovering which services exist.
// All state is derived from Docker labels rather than any external
// database. Exited containers are included because a service whose
// container failed at startup still needs to be visible to `list`,
// `status` and `rm`.
func ListManagedContainers(ctx context.Context, cli *Client) ([]model.ContainerInfo, error) {
	// Filter server-side: Docker matches the label, so unrelated
	// containers never cross the wire.
	filterArgs := filters.NewArgs(
		filters.Arg("label", LabelManagedBy+"="+ManagedByValue),
	)

	containers, err := cli.Inner().ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: filterArgs,
	})
	if err != nil {
		return nil, model.WrapCLIError(
			model.ExitDockerNotRunning,
			"failed to list Docker containers",
			err,
		)
	}

	result := make([]model.ContainerInfo, 0, len(containers))
	for _, c := range containers {
		result = append(result, summaryToInfo(c))
	}

	return result, nil
}

// FindServiceContainer looks up the managed container for a single named
// service. Returns nil (and no error) when the service has no container.
func FindServiceContainer(ctx context.Context, cli *Client, name string) (*model.ContainerInfo, error) {
	filterArgs := filters.NewArgs(
		filters.Arg("label", LabelManagedBy+"="+ManagedByValue),
		filters.Arg("label", LabelService+"="+name),
	)

	containers, err := cli.Inner().ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: filterArgs,
	})
	if err != nil {
		return nil, model.WrapCLIError(
			model.ExitDockerNotRunning,
			"failed to list Docker containers",
			err,
		)
	}
	if len(containers) == 0 {
		return nil, nil
	}

	// One container per service is an invariant asgiboot maintains;
	// if something else created duplicates, the first listed (newest)
	// wins and `rm` can clean up the rest.
	info := summaryToInfo(containers[0])
	return &info, nil
}

// summaryToInfo converts a Docker API container summary to the domain
// model ContainerInfo. Docker returns names with a leading "/" prefix
// which is stripped for display.
func summaryToInfo(c container.Summary) model.ContainerInfo {
	name := ""
	if len(c.Names) > 0 {
		name = strings.TrimPrefix(c.Names[0], "/")
	}

	return model.ContainerInfo{
		ContainerID:   c.ID,
		ContainerName: name,
		Status:        c.State,
		Labels:        c.Labels,
	}
}

// BuildService constructs a Service domain object from a managed
// container, combining the metadata parsed from its labels with the
// lifecycle state derived from the container's runtime status.
func BuildService(info *model.ContainerInfo) (*model.Service, error) {
	svc, err := ParseLabels(info.Labels)
	if err != nil {
		return nil, fmt.Errorf("failed to parse labels for container %q: %w", info.ContainerName, err)
	}

	svc.Container = info
	svc.State = stateFromStatus(info.Status)
	return svc, nil
}

// stateFromStatus maps a Docker container status string to the service
// state machine. "created" means the container exists but its process
// was never started; anything terminated maps to exited — the state
// machine has no degraded or restarting states.
func stateFromStatus(status string) model.ServiceState {
	switch status {
	case "running":
		return model.StateRunning
	case "created":
		return model.StateNotStarted
	default:
		return model.StateExited
	}
}

// CreateServiceContainer creates and starts the single serving container
// for a service. The container publishes the service's container port to
// the host port on all host interfaces, matching the in-container bind
// the server runner performs.
//
// The returned ID identifies the created container. The caller is
// responsible for readiness checking — a successfully started container
// may still exit moments later if the app target cannot be resolved.
func CreateServiceContainer(ctx context.Context, cli *Client, svc *model.Service) (string, error) {
	port, err := nat.NewPort("tcp", strconv.Itoa(svc.Port))
	if err != nil {
		return "", model.WrapCLIError(
			model.ExitGeneralError,
			fmt.Sprintf("invalid container port %d", svc.Port),
			err,
		)
	}

	config := &container.Config{
		Image:  svc.Image,
		Labels: BuildLabels(svc),
		// ExposedPorts mirrors the EXPOSE declaration in the image:
		// metadata for the port mapping below, not the bind itself.
		ExposedPorts: nat.PortSet{port: struct{}{}},
	}

	hostConfig := &container.HostConfig{
		PortBindings: nat.PortMap{
			port: []nat.PortBinding{
				{
					// Publish on all host interfaces, the same
					// address scope the server runner binds inside
					// the container.
					HostIP:   "0.0.0.0",
					HostPort: strconv.Itoa(svc.HostPort),
				},
			},
		},
	}

	// The container is named after the service. Docker enforces name
	// uniqueness, which backs the one-container-per-service invariant.
	created, err := cli.Inner().ContainerCreate(ctx, config, hostConfig, nil, nil, svc.Name)
	if err != nil {
		return "", model.WrapCLIError(
			model.ExitStartFailed,
			fmt.Sprintf("failed to create container for service %q", svc.Name),
			err,
		)
	}

	if err := cli.Inner().ContainerStart(ctx, created.ID, container.StartOptions{}); err != nil {
		return "", model.WrapCLIError(
			model.ExitStartFailed,
			fmt.Sprintf("failed to start container for service %q", svc.Name),
			err,
		)
	}

	return created.ID, nil
}

// InspectState returns whether the container is running and, if it has
// exited, its exit code. Used by the readiness loop to distinguish
// "not accepting connections yet" from "already dead".
func InspectState(ctx context.Context, cli *Client, containerID string) (running bool, exitCode int, err error) {
	resp, err := cli.Inner().ContainerInspect(ctx, containerID)
	if err != nil {
		return false, 0, model.WrapCLIError(
			model.ExitDockerNotRunning,
			fmt.Sprintf("failed to inspect container %q", containerID),
			err,
		)
	}
	if resp.State == nil {
		return false, 0, fmt.Errorf("container %q has no state", containerID)
	}
	return resp.State.Running, resp.State.ExitCode, nil
}

// StopContainer stops a running container by its ID. Docker sends the
// container's main process a SIGTERM and escalates to SIGKILL after the
// daemon's default timeout. The server runner treats the signal as a
// clean shutdown request.
func StopContainer(ctx context.Context, cli *Client, containerID string) error {
	// Nil Timeout uses Docker's default (10 seconds), giving the
	// server a chance to drain in-flight connections.
	err := cli.Inner().ContainerStop(ctx, containerID, container.StopOptions{})
	if err != nil {
		return model.WrapCLIError(
			model.ExitDockerNotRunning,
			fmt.Sprintf("failed to stop container %q", containerID),
			err,
		)
	}
	return nil
}

// RemoveContainer removes a container by its ID. The container must be
// stopped first unless force is true, in which case Docker kills it
// before removal.
func RemoveContainer(ctx context.Context, cli *Client, containerID string, force bool) error {
	err := cli.Inner().ContainerRemove(ctx, containerID, container.RemoveOptions{
		Force: force,
	})
	if err != nil {
		return model.WrapCLIError(
			model.ExitDockerNotRunning,
			fmt.Sprintf("failed to remove container %q", containerID),
			err,
		)
	}
	return nil
}
