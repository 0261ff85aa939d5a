// Package cli — list.go implements the "asgiboot list" command.
//
// The list command displays all managed service containers by querying
// Docker for containers with the "asgiboot.managed-by=asgiboot" label.
// Each container maps to exactly one service; results are presented as
// a text table or JSON array, depending on the --json flag.
//
// An optional --state flag allows filtering by service lifecycle state
// (not-started, running, exited, or all).
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/zeno-labs/asgiboot/internal/docker"
	"github.com/zeno-labs/asgiboot/internal/model"
)

// listFlags holds the flag values for the list command.
type listFlags struct {
	// state filters services by their lifecycle state.
	// Valid values: "not-started", "running", "exited", "all" (default).
	state string
}

// NewListCommand creates the "list" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewListCommand() *cobra.Command {
	flags := &listFlags{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List managed services",
		Long: `List all services with a managed container and their state.

Each service is shown with its name, state, app target, port binding,
and container ID.

Examples:
  asgiboot list
  asgiboot list --state running
  asgiboot list --json`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd.Context(), flags)
		},
	}

	cmd.Flags().StringVar(&flags.state, "state", "all",
		"Filter by state: not-started, running, exited, all (default: all)")

	return cmd
}

// runList is the main logic function for the list command.
// It connects to Docker, discovers managed service containers, applies
// the state filter, and outputs results in the appropriate format.
func runList(ctx context.Context, flags *listFlags) error {
	// Validate the --state flag value up front.
	if flags.state != "all" {
		if _, err := model.ParseServiceState(flags.state); err != nil {
			return model.WrapCLIError(model.ExitGeneralError,
				fmt.Sprintf("invalid state filter %q: valid values are not-started, running, exited, all", flags.state), nil)
		}
	}

	cli, err := connectDocker(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = cli.Close() }()

	containers, err := docker.ListManagedContainers(ctx, cli)
	if err != nil {
		return err
	}
	VerboseLog("Found %d managed containers", len(containers))

	var services []*model.Service
	for i := range containers {
		svc, buildErr := docker.BuildService(&containers[i])
		if buildErr != nil {
			// A single container with corrupted labels should not
			// prevent listing the others.
			VerboseLog("Warning: skipping container %q: %v", containers[i].ContainerName, buildErr)
			continue
		}
		services = append(services, svc)
	}

	sort.Slice(services, func(i, j int) bool {
		return services[i].Name < services[j].Name
	})

	services = FilterServicesByState(services, flags.state)

	printListResult(services)
	return nil
}

// FilterServicesByState returns the services whose state matches the
// filter. The filter "all" passes everything through unchanged.
//
// This function is exported for testing purposes (tested in list_test.go).
func FilterServicesByState(services []*model.Service, state string) []*model.Service {
	if state == "all" {
		return services
	}

	filtered := make([]*model.Service, 0, len(services))
	for _, svc := range services {
		if svc.State.String() == state {
			filtered = append(filtered, svc)
		}
	}
	return filtered
}

// FormatPortBinding renders a service's port binding in Docker's
// "host:container" convention, e.g. "8080:8080" or "18080:8080".
//
// This function is exported for testing purposes (tested in list_test.go).
func FormatPortBinding(hostPort, containerPort int) string {
	return fmt.Sprintf("%d:%d", hostPort, containerPort)
}

// printListResult outputs the list of services in text or JSON format,
// depending on the global --json flag.
func printListResult(services []*model.Service) {
	if IsJSONOutput() {
		printListResultJSON(services)
	} else {
		printListResultText(services)
	}
}

// listServiceJSON is the JSON output structure for a single service
// in the list command.
type listServiceJSON struct {
	Name      string `json:"name"`
	State     string `json:"state"`
	Target    string `json:"target"`
	Port      int    `json:"port"`
	HostPort  int    `json:"hostPort"`
	Container string `json:"container"`
}

// printListResultJSON outputs the service list as structured JSON.
// The top-level key is "services" containing an array of service objects.
func printListResultJSON(services []*model.Service) {
	type resultJSON struct {
		Services []listServiceJSON `json:"services"`
	}

	result := resultJSON{
		// Use an empty slice instead of nil to ensure JSON output shows []
		// instead of null when no services are found.
		Services: make([]listServiceJSON, 0, len(services)),
	}

	for _, svc := range services {
		entry := listServiceJSON{
			Name:     svc.Name,
			State:    svc.State.String(),
			Target:   svc.Target.String(),
			Port:     svc.Port,
			HostPort: svc.HostPort,
		}
		if svc.Container != nil {
			entry.Container = svc.Container.ContainerID
		}
		result.Services = append(result.Services, entry)
	}

	data, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(data))
}

// printListResultText outputs the service list as a human-readable
// text table with aligned columns.
//
// The table format is:
//
//	NAME           STATE     TARGET                 PORTS       CONTAINER
//	zeno-agent     running   zeno_agent.agent:app   8080:8080   f3a9c1d2e4b5
func printListResultText(services []*model.Service) {
	if len(services) == 0 {
		fmt.Println("No managed services found.")
		return
	}

	fmt.Printf("%-20s %-12s %-28s %-12s %s\n",
		"NAME", "STATE", "TARGET", "PORTS", "CONTAINER")

	for _, svc := range services {
		containerID := "-"
		if svc.Container != nil && len(svc.Container.ContainerID) >= 12 {
			containerID = svc.Container.ContainerID[:12]
		}

		fmt.Printf("%-20s %-12s %-28s %-12s %s\n",
			svc.Name,
			svc.State.String(),
			svc.Target.String(),
			FormatPortBinding(svc.HostPort, svc.Port),
			containerID,
		)
	}
}
