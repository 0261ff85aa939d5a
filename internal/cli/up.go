// Package cli — up.go implements the "asgiboot up" command.
//
// The up command is the primary user-facing operation. It takes a
// service from its service file to a running, connection-accepting
// container:
//  1. Load and resolve the service file
//  2. Verify the Docker daemon is reachable
//  3. Replace any previous (non-running) container for the service
//  4. Check the host port is free before starting anything
//  5. Build the image (unless --no-build)
//  6. Create and start the service container
//  7. Wait for the published port to accept connections
//
// A container that starts but exits before becoming ready (the app
// target cannot be imported or resolved inside the image) is reported
// as a start failure with the container's exit code, never as running.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/zeno-labs/asgiboot/internal/docker"
	"github.com/zeno-labs/asgiboot/internal/image"
	"github.com/zeno-labs/asgiboot/internal/model"
	"github.com/zeno-labs/asgiboot/internal/readiness"
	"github.com/zeno-labs/asgiboot/internal/servicefile"
)

// upFlags holds the flag values for the up command.
type upFlags struct {
	file    string        // --file: explicit service file path
	noBuild bool          // --no-build: reuse the existing image
	noWait  bool          // --no-wait: skip the readiness wait
	timeout time.Duration // --timeout: override the readiness window
}

// NewUpCommand creates the "up" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewUpCommand() *cobra.Command {
	flags := &upFlags{}

	cmd := &cobra.Command{
		Use:   "up",
		Short: "Build and start the service container",
		Long: `Start a single long-lived container serving the app target declared in
service.json, publishing the service port on all host interfaces.

By default the image is (re)built first and the command blocks until the
published port accepts TCP connections. If the container exits before
becoming ready, up reports the container's exit code and fails.

Examples:
  asgiboot up
  asgiboot up --no-build
  asgiboot up --timeout 60s
  asgiboot up --file deploy/service.json --json`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runUp(cmd.Context(), flags)
		},
	}

	cmd.Flags().StringVarP(&flags.file, "file", "f", "", "Service file path (default: ./service.json)")
	cmd.Flags().BoolVar(&flags.noBuild, "no-build", false, "Start from the existing image without rebuilding")
	cmd.Flags().BoolVar(&flags.noWait, "no-wait", false, "Return immediately without waiting for readiness")
	cmd.Flags().DurationVar(&flags.timeout, "timeout", 0, "Readiness wait window (default: ASGIBOOT_READY_TIMEOUT or 30s)")

	return cmd
}

// runUp is the main orchestration function for the up command.
func runUp(ctx context.Context, flags *upFlags) error {
	opts := LoadOptions()

	svc, err := loadService(flags.file)
	if err != nil {
		return err
	}

	cli, err := connectDocker(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = cli.Close() }()

	// One container per service: a running container means the service
	// is already up; a stopped or created one is stale and gets replaced.
	existing, err := docker.FindServiceContainer(ctx, cli, svc.Name)
	if err != nil {
		return err
	}
	if existing != nil {
		running, _, inspectErr := docker.InspectState(ctx, cli, existing.ContainerID)
		if inspectErr != nil {
			return inspectErr
		}
		if running {
			return model.WrapCLIError(
				model.ExitGeneralError,
				fmt.Sprintf("service %q is already running (container %s)", svc.Name, existing.ContainerName),
				nil,
			)
		}
		VerboseLog("Removing previous container %s", existing.ContainerName)
		if removeErr := docker.RemoveContainer(ctx, cli, existing.ContainerID, false); removeErr != nil {
			return removeErr
		}
	}

	// Check before creating the container so a taken port surfaces as a
	// start-time failure with a clear message, not a Docker bind error.
	if !readiness.IsHostPortAvailable(svc.HostPort) {
		return model.WrapCLIError(
			model.ExitPortUnavailable,
			fmt.Sprintf("host port %d is already in use", svc.HostPort),
			nil,
		)
	}

	imageTag := image.Tag(opts.ImageRepository, svc.Name)
	buildID := ""
	if !flags.noBuild {
		buildCtx, cancel := context.WithTimeout(ctx, opts.BuildTimeout)
		defer cancel()

		VerboseLog("Building image %s...", imageTag)
		result, buildErr := image.Build(buildCtx, svc, opts.ImageRepository)
		if buildErr != nil {
			return buildErr
		}
		imageTag = result.Tag
		buildID = result.BuildID
	} else {
		VerboseLog("Skipping build, starting from existing image %s", imageTag)
	}

	service := &model.Service{
		Name:      svc.Name,
		Image:     imageTag,
		Target:    svc.Target,
		Port:      svc.Port,
		HostPort:  svc.HostPort,
		State:     model.StateRunning,
		BuildID:   buildID,
		CreatedAt: time.Now().UTC(),
	}

	VerboseLog("Creating container for service %q...", svc.Name)
	containerID, err := docker.CreateServiceContainer(ctx, cli, service)
	if err != nil {
		return err
	}
	VerboseLog("Container started: %s", containerID[:12])

	if !flags.noWait {
		if err := waitUntilReady(ctx, cli, opts, flags, svc, containerID); err != nil {
			return err
		}
		VerboseLog("Service %q is accepting connections", svc.Name)
	}

	printUpResult(service, containerID, flags.noWait)
	return nil
}

// waitUntilReady blocks until the published host port accepts a TCP
// connection. Between dial attempts the container state is inspected so
// a crashed container fails the wait immediately with its exit code
// instead of timing out.
func waitUntilReady(ctx context.Context, cli *docker.Client, opts *Options, flags *upFlags, svc *servicefile.Service, containerID string) error {
	waiter := readiness.NewWaiter()
	waiter.Timeout = opts.ReadyTimeout
	waiter.Interval = opts.ReadyInterval
	if flags.timeout > 0 {
		waiter.Timeout = flags.timeout
	}

	addr := fmt.Sprintf("127.0.0.1:%d", svc.HostPort)
	VerboseLog("Waiting up to %s for %s to accept connections...", waiter.Timeout, addr)

	err := waiter.WaitTCP(ctx, addr, func(abortCtx context.Context) error {
		running, exitCode, inspectErr := docker.InspectState(abortCtx, cli, containerID)
		if inspectErr != nil {
			return inspectErr
		}
		if !running {
			return model.WrapCLIError(
				model.ExitStartFailed,
				fmt.Sprintf("container for service %q exited with code %d before accepting connections", svc.Name, exitCode),
				nil,
			)
		}
		return nil
	})
	if err != nil {
		if cliErr, ok := err.(*model.CLIError); ok {
			return cliErr
		}
		return model.WrapCLIError(
			model.ExitStartFailed,
			fmt.Sprintf("service %q did not become ready", svc.Name),
			err,
		)
	}
	return nil
}

// printUpResult outputs the up command result in text or JSON format.
func printUpResult(svc *model.Service, containerID string, noWait bool) {
	if IsJSONOutput() {
		printUpResultJSON(svc, containerID, noWait)
	} else {
		printUpResultText(svc, containerID, noWait)
	}
}

// printUpResultJSON outputs the up result as structured JSON.
func printUpResultJSON(svc *model.Service, containerID string, noWait bool) {
	out := map[string]interface{}{
		"name":      svc.Name,
		"image":     svc.Image,
		"target":    svc.Target.String(),
		"container": containerID,
		"hostPort":  svc.HostPort,
		"url":       fmt.Sprintf("http://localhost:%d", svc.HostPort),
		"state":     svc.State.String(),
		"ready":     !noWait,
	}
	if svc.BuildID != "" {
		out["buildId"] = svc.BuildID
	}

	data, _ := json.MarshalIndent(out, "", "  ")
	fmt.Println(string(data))
}

// printUpResultText outputs the up result as human-readable text.
func printUpResultText(svc *model.Service, containerID string, noWait bool) {
	fmt.Printf("Started service %q\n", svc.Name)
	fmt.Printf("  Image:     %s\n", svc.Image)
	fmt.Printf("  Target:    %s\n", svc.Target)
	fmt.Printf("  Container: %s\n", containerID[:12])
	fmt.Printf("  URL:       http://localhost:%d\n", svc.HostPort)
	if noWait {
		fmt.Println("  (readiness not verified: --no-wait)")
	}
}
