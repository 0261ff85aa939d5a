// compose.go renders a docker-compose.yml for a service, as an
// alternative deployment artifact to `asgiboot up`. The compose file
// describes the same runtime contract — one service, one published
// port on all interfaces, the same environment and management labels —
// so `docker compose up` and `asgiboot up` produce interchangeable
// containers.
package image

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zeno-labs/asgiboot/internal/docker"
	"github.com/zeno-labs/asgiboot/internal/model"
	"github.com/zeno-labs/asgiboot/internal/servicefile"
)

// composeFile represents the structure of the generated compose YAML,
// serialized via the yaml.v3 library.
type composeFile struct {
	// Name sets the Compose project name, isolating container,
	// network and volume names under the service's namespace.
	Name string `yaml:"name"`

	// Services maps the single service name to its definition.
	Services map[string]composeService `yaml:"services"`
}

// composeService is the definition for the one serving container.
type composeService struct {
	// Image is the tag produced by `asgiboot build`.
	Image string `yaml:"image"`

	// ContainerName pins the container name to the service name,
	// matching the naming `asgiboot up` uses.
	ContainerName string `yaml:"container_name"`

	// Ports lists the port mapping in "hostPort:containerPort" format.
	Ports []string `yaml:"ports"`

	// Environment carries the service file's env entries.
	// Only present when the service declares any.
	Environment map[string]string `yaml:"environment,omitempty"`

	// Labels are the asgiboot management labels, so compose-started
	// containers are discoverable by `asgiboot list` like any other.
	Labels map[string]string `yaml:"labels"`

	// Restart is the compose restart policy. The bootstrap contract
	// itself defines no retry — a startup failure exits the container
	// and stays exited — so the policy is "no" and any restart loop
	// is an explicit operator decision to edit in.
	Restart string `yaml:"restart"`
}

// RenderCompose generates a docker-compose.yml for a service using the
// given image tag. The output embeds the asgiboot management labels so
// containers started from it appear in `asgiboot list`.
func RenderCompose(svc *servicefile.Service, imageTag string) ([]byte, error) {
	labels := docker.BuildLabels(&model.Service{
		Name:      svc.Name,
		Image:     imageTag,
		Target:    svc.Target,
		Port:      svc.Port,
		HostPort:  svc.HostPort,
		CreatedAt: time.Now().UTC(),
	})

	out := composeFile{
		Name: svc.Name,
		Services: map[string]composeService{
			svc.Name: {
				Image:         imageTag,
				ContainerName: svc.Name,
				Ports: []string{
					fmt.Sprintf("%d:%d", svc.HostPort, svc.Port),
				},
				Environment: svc.Env,
				Labels:      labels,
				Restart:     "no",
			},
		},
	}

	yamlBytes, err := yaml.Marshal(&out)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize compose YAML: %w", err)
	}

	// Header comment marks the file as generated, like the Dockerfile.
	header := fmt.Sprintf(
		"# Generated by asgiboot for service %q\n# DO NOT EDIT - regenerated on each render\n",
		svc.Name,
	)

	return []byte(header + string(yamlBytes)), nil
}
