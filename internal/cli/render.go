// Package cli — render.go implements the "asgiboot render" command.
//
// The render command prints the artifacts asgiboot would generate for a
// service — the Dockerfile, or a docker-compose.yml equivalent with the
// same port binding, environment and labels — without touching Docker.
// Useful for review, version control, and for handing the deployment
// over to compose-based tooling.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zeno-labs/asgiboot/internal/image"
	"github.com/zeno-labs/asgiboot/internal/model"
)

// renderFlags holds the flag values for the render command.
type renderFlags struct {
	file   string // --file: explicit service file path
	format string // --format: dockerfile or compose
}

// NewRenderCommand creates the "render" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewRenderCommand() *cobra.Command {
	flags := &renderFlags{}

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Print the generated Dockerfile or compose file",
		Long: `Render the deployment artifacts for the service without building or
starting anything.

The dockerfile format prints exactly what "build" writes under
.asgiboot/; the compose format prints a docker-compose.yml that runs the
already-built image with the same port binding, environment and labels.

Examples:
  asgiboot render
  asgiboot render --format compose
  asgiboot render --file deploy/service.json > Dockerfile`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(flags)
		},
	}

	cmd.Flags().StringVarP(&flags.file, "file", "f", "", "Service file path (default: ./service.json)")
	cmd.Flags().StringVar(&flags.format, "format", "dockerfile", "Output format: dockerfile, compose")

	return cmd
}

// runRender is the main logic function for the render command.
func runRender(flags *renderFlags) error {
	if flags.format != "dockerfile" && flags.format != "compose" {
		return model.WrapCLIError(model.ExitGeneralError,
			fmt.Sprintf("invalid format %q: valid values are dockerfile, compose", flags.format), nil)
	}

	svc, err := loadService(flags.file)
	if err != nil {
		return err
	}

	var out []byte
	switch flags.format {
	case "dockerfile":
		out = image.RenderDockerfile(svc)
	case "compose":
		opts := LoadOptions()
		out, err = image.RenderCompose(svc, image.Tag(opts.ImageRepository, svc.Name))
		if err != nil {
			return model.WrapCLIError(model.ExitGeneralError, "failed to render compose file", err)
		}
	}

	// Raw artifact on stdout, nothing else: the output must be usable
	// with shell redirection as-is.
	_, err = os.Stdout.Write(out)
	return err
}
