// Package cli — stop.go implements the "asgiboot stop" command.
//
// The stop command gracefully stops the container of a named service.
// The container is kept around after stopping (state becomes "exited"),
// so its logs and exit code remain inspectable; "rm" removes it.
package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zeno-labs/asgiboot/internal/docker"
	"github.com/zeno-labs/asgiboot/internal/model"
)

// NewStopCommand creates the "stop" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewStopCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stop <name>",
		Short: "Stop a running service",
		Long: `Stop the container of the specified service.

The container is gracefully stopped but not removed: it stays visible
in "list" with state "exited" until removed with "rm".

Examples:
  asgiboot stop zeno-agent
  asgiboot stop --json zeno-agent`,

		Args: cobra.ExactArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			return runStop(cmd.Context(), args[0])
		},
	}

	return cmd
}

// runStop is the main logic function for the stop command.
func runStop(ctx context.Context, name string) error {
	cli, err := connectDocker(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = cli.Close() }()

	svc, err := findManagedService(ctx, cli, name)
	if err != nil {
		return err
	}

	if svc.State != model.StateRunning {
		return model.WrapCLIError(
			model.ExitGeneralError,
			fmt.Sprintf("service %q is not running (state: %s)", name, svc.State),
			nil,
		)
	}

	VerboseLog("Stopping container %s...", svc.Container.ContainerName)
	if err := docker.StopContainer(ctx, cli, svc.Container.ContainerID); err != nil {
		return err
	}

	printStopResult(name)
	return nil
}

// printStopResult outputs the stop command result in text or JSON format.
func printStopResult(name string) {
	if IsJSONOutput() {
		result := map[string]interface{}{
			"name":   name,
			"action": "stopped",
		}
		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(data))
		return
	}

	fmt.Printf("Stopped service %q\n", name)
}
