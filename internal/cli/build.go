// Package cli — build.go implements the "asgiboot build" command.
//
// The build command turns the service file into a runnable image:
//  1. Load and resolve the service file
//  2. Verify the Docker daemon is reachable
//  3. Merge serving packages into the dependency manifest
//  4. Write the resolved manifest and generated Dockerfile
//  5. Run docker build with the asgiboot labels
//
// A failed dependency install fails the whole build; there is no
// partially-usable image to fall back to.
package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zeno-labs/asgiboot/internal/image"
)

// buildFlags holds the flag values for the build command.
type buildFlags struct {
	file string // --file: explicit service file path
}

// NewBuildCommand creates the "build" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewBuildCommand() *cobra.Command {
	flags := &buildFlags{}

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the service image",
		Long: `Build a container image for the service described by service.json.

The dependency manifest is resolved first: serving packages (fastapi,
uvicorn by default) are merged into it unless the manifest already pins
them. The generated Dockerfile and resolved manifest are written under
.asgiboot/ in the build context, then docker build produces the image.

Examples:
  asgiboot build
  asgiboot build --file deploy/service.json
  asgiboot build --json`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd.Context(), flags)
		},
	}

	cmd.Flags().StringVarP(&flags.file, "file", "f", "", "Service file path (default: ./service.json)")

	return cmd
}

// runBuild is the main logic function for the build command.
func runBuild(ctx context.Context, flags *buildFlags) error {
	opts := LoadOptions()

	svc, err := loadService(flags.file)
	if err != nil {
		return err
	}

	// Fail fast when the daemon is down; docker build would fail anyway,
	// but this way the error carries the right exit code instead of
	// surfacing as a generic build failure.
	cli, err := connectDocker(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = cli.Close() }()

	buildCtx, cancel := context.WithTimeout(ctx, opts.BuildTimeout)
	defer cancel()

	VerboseLog("Building image for service %q (context: %s)", svc.Name, svc.Context)
	result, err := image.Build(buildCtx, svc, opts.ImageRepository)
	if err != nil {
		return err
	}

	printBuildResult(svc.Name, result)
	return nil
}

// printBuildResult outputs the build command result in text or JSON format.
func printBuildResult(name string, result *image.Result) {
	if IsJSONOutput() {
		printBuildResultJSON(name, result)
	} else {
		printBuildResultText(name, result)
	}
}

// printBuildResultJSON outputs the build result as structured JSON.
func printBuildResultJSON(name string, result *image.Result) {
	added := make([]string, 0, len(result.Added))
	for _, entry := range result.Added {
		added = append(added, entry.Raw)
	}

	out := map[string]interface{}{
		"name":          name,
		"image":         result.Tag,
		"buildId":       result.BuildID,
		"addedPackages": added,
	}

	data, _ := json.MarshalIndent(out, "", "  ")
	fmt.Println(string(data))
}

// printBuildResultText outputs the build result as human-readable text.
func printBuildResultText(name string, result *image.Result) {
	fmt.Printf("Built image for service %q\n", name)
	fmt.Printf("  Image:    %s\n", result.Tag)
	fmt.Printf("  Build ID: %s\n", result.BuildID)

	if len(result.Added) > 0 {
		fmt.Println("  Added to manifest:")
		for _, entry := range result.Added {
			fmt.Printf("    %s\n", entry.Raw)
		}
	}
}
