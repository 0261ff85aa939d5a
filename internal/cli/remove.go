// Package cli — remove.go implements the "asgiboot rm" command.
//
// The rm command removes the container of a named service, returning
// the service to the not-started state. A running container is only
// removed with --force; without it the command refuses, so a live
// service cannot be torn down by accident.
package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zeno-labs/asgiboot/internal/docker"
	"github.com/zeno-labs/asgiboot/internal/model"
)

// removeFlags holds the flag values for the rm command.
type removeFlags struct {
	force bool // --force: remove even if running
}

// NewRemoveCommand creates the "rm" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewRemoveCommand() *cobra.Command {
	flags := &removeFlags{}

	cmd := &cobra.Command{
		Use:   "rm <name>",
		Short: "Remove a service's container",
		Long: `Remove the container of the specified service.

The service returns to the not-started state; a subsequent "up" creates
a fresh container. Running services require --force.

Examples:
  asgiboot rm zeno-agent
  asgiboot rm --force zeno-agent`,

		Args: cobra.ExactArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemove(cmd.Context(), args[0], flags)
		},
	}

	cmd.Flags().BoolVar(&flags.force, "force", false, "Remove the container even if it is running")

	return cmd
}

// runRemove is the main logic function for the rm command.
func runRemove(ctx context.Context, name string, flags *removeFlags) error {
	cli, err := connectDocker(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = cli.Close() }()

	svc, err := findManagedService(ctx, cli, name)
	if err != nil {
		return err
	}

	if svc.State == model.StateRunning && !flags.force {
		return model.WrapCLIError(
			model.ExitGeneralError,
			fmt.Sprintf("service %q is running; stop it first or use --force", name),
			nil,
		)
	}

	VerboseLog("Removing container %s (force: %v)...", svc.Container.ContainerName, flags.force)
	if err := docker.RemoveContainer(ctx, cli, svc.Container.ContainerID, flags.force); err != nil {
		return err
	}

	printRemoveResult(name)
	return nil
}

// printRemoveResult outputs the rm command result in text or JSON format.
func printRemoveResult(name string) {
	if IsJSONOutput() {
		result := map[string]interface{}{
			"name":   name,
			"action": "removed",
		}
		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(data))
		return
	}

	fmt.Printf("Removed service %q\n", name)
}
