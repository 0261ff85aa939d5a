// Package cli — status.go implements the "asgiboot status" command.
//
// The status command shows the detail view of a single service: state
// derived from its container, port binding, image and build identity,
// and (with --probe) whether the published port currently accepts TCP
// connections. For exited containers the exit code is included.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/zeno-labs/asgiboot/internal/docker"
	"github.com/zeno-labs/asgiboot/internal/model"
	"github.com/zeno-labs/asgiboot/internal/readiness"
)

// statusFlags holds the flag values for the status command.
type statusFlags struct {
	probe bool // --probe: dial the published port
}

// NewStatusCommand creates the "status" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewStatusCommand() *cobra.Command {
	flags := &statusFlags{}

	cmd := &cobra.Command{
		Use:   "status <name>",
		Short: "Show the state of a service",
		Long: `Show detailed state for a single managed service.

With --probe, a TCP connection attempt against the published host port
reports whether the service is actually accepting connections right now,
independent of what the container state claims.

Examples:
  asgiboot status zeno-agent
  asgiboot status --probe zeno-agent
  asgiboot status --json zeno-agent`,

		Args: cobra.ExactArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd.Context(), args[0], flags)
		},
	}

	cmd.Flags().BoolVar(&flags.probe, "probe", false, "Dial the published port to verify connectivity")

	return cmd
}

// statusReport collects everything the status command displays.
type statusReport struct {
	service  *model.Service
	exitCode int  // meaningful only when exited
	probed   bool // whether a probe was performed
	ready    bool // probe outcome
}

// runStatus is the main logic function for the status command.
func runStatus(ctx context.Context, name string, flags *statusFlags) error {
	if err := model.ValidateName(name); err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "invalid service name", err)
	}

	cli, err := connectDocker(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = cli.Close() }()

	svc, err := findManagedService(ctx, cli, name)
	if err != nil {
		return err
	}

	report := &statusReport{service: svc}

	// The container list only carries a coarse status string; inspect
	// for the authoritative running flag and exit code.
	if svc.Container != nil {
		running, exitCode, inspectErr := docker.InspectState(ctx, cli, svc.Container.ContainerID)
		if inspectErr != nil {
			return inspectErr
		}
		if !running && svc.State == model.StateExited {
			report.exitCode = exitCode
		}
	}

	if flags.probe {
		addr := fmt.Sprintf("127.0.0.1:%d", svc.HostPort)
		VerboseLog("Probing %s...", addr)
		report.probed = true
		report.ready = readiness.ProbeTCP(addr, 2*time.Second)
	}

	printStatusResult(report)
	return nil
}

// printStatusResult outputs the status report in text or JSON format.
func printStatusResult(report *statusReport) {
	if IsJSONOutput() {
		printStatusResultJSON(report)
	} else {
		printStatusResultText(report)
	}
}

// printStatusResultJSON outputs the status report as structured JSON.
func printStatusResultJSON(report *statusReport) {
	svc := report.service

	out := map[string]interface{}{
		"name":     svc.Name,
		"state":    svc.State.String(),
		"target":   svc.Target.String(),
		"image":    svc.Image,
		"port":     svc.Port,
		"hostPort": svc.HostPort,
	}
	if svc.BuildID != "" {
		out["buildId"] = svc.BuildID
	}
	if svc.Container != nil {
		out["container"] = svc.Container.ContainerID
	}
	if svc.State == model.StateExited {
		out["exitCode"] = report.exitCode
	}
	if report.probed {
		out["ready"] = report.ready
	}

	data, _ := json.MarshalIndent(out, "", "  ")
	fmt.Println(string(data))
}

// printStatusResultText outputs the status report as human-readable text.
func printStatusResultText(report *statusReport) {
	svc := report.service

	fmt.Printf("Service %q\n", svc.Name)
	fmt.Printf("  State:     %s\n", svc.State)
	fmt.Printf("  Target:    %s\n", svc.Target)
	fmt.Printf("  Image:     %s\n", svc.Image)
	fmt.Printf("  Ports:     %s\n", FormatPortBinding(svc.HostPort, svc.Port))
	if svc.BuildID != "" {
		fmt.Printf("  Build ID:  %s\n", svc.BuildID)
	}
	if svc.Container != nil && len(svc.Container.ContainerID) >= 12 {
		fmt.Printf("  Container: %s\n", svc.Container.ContainerID[:12])
	}
	if svc.State == model.StateExited {
		fmt.Printf("  Exit code: %d\n", report.exitCode)
	}
	if report.probed {
		if report.ready {
			fmt.Printf("  Probe:     accepting connections on localhost:%d\n", svc.HostPort)
		} else {
			fmt.Printf("  Probe:     not accepting connections on localhost:%d\n", svc.HostPort)
		}
	}
}
