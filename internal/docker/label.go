package docker

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/zeno-labs/asgiboot/internal/model"
)

// Label key constants define the Docker label keys used to persist
// service metadata on containers and images. These labels serve as the
// sole persistence mechanism — there is no external state file.
//
// All keys share the "asgiboot." prefix to namespace them and avoid
// collisions with labels set by other tools.
const (
	// LabelPrefix is the common prefix for all asgiboot labels.
	LabelPrefix = "asgiboot."

	// LabelManagedBy identifies containers managed by asgiboot.
	// This is the primary label used for filtering and discovery.
	// Key: "asgiboot.managed-by", Value: always "asgiboot".
	LabelManagedBy = LabelPrefix + "managed-by"

	// LabelService stores the service's unique identifier.
	// Key: "asgiboot.service", Value: service name (e.g., "zeno-agent").
	LabelService = LabelPrefix + "service"

	// LabelAppTarget stores the application target import string served
	// by the container. Key: "asgiboot.app-target",
	// Value: e.g. "zeno_agent.agent:app".
	LabelAppTarget = LabelPrefix + "app-target"

	// LabelPort stores the container port the server runner binds.
	// Key: "asgiboot.port", Value: decimal port number.
	LabelPort = LabelPrefix + "port"

	// LabelHostPort stores the host port the container port is
	// published to. Key: "asgiboot.host-port", Value: decimal port number.
	LabelHostPort = LabelPrefix + "host-port"

	// LabelImage stores the image tag the container was started from.
	// Key: "asgiboot.image".
	LabelImage = LabelPrefix + "image"

	// LabelBuildID identifies the image build the container came from.
	// Key: "asgiboot.build-id", Value: UUID assigned at build time.
	LabelBuildID = LabelPrefix + "build-id"

	// LabelCreatedAt stores the ISO-8601 timestamp of container creation.
	// Key: "asgiboot.created-at", Value: RFC3339 formatted timestamp.
	LabelCreatedAt = LabelPrefix + "created-at"
)

// ManagedByValue is the constant value for the LabelManagedBy label.
// All containers created by this CLI are tagged with this value,
// enabling discovery via Docker API label filters.
const ManagedByValue = "asgiboot"

// BuildLabels constructs a Docker label map from a Service. These labels
// are applied to the service's container, allowing full reconstruction
// of the Service from container inspection alone.
func BuildLabels(svc *model.Service) map[string]string {
	return map[string]string{
		LabelManagedBy: ManagedByValue,
		LabelService:   svc.Name,
		LabelAppTarget: svc.Target.String(),
		LabelPort:      strconv.Itoa(svc.Port),
		LabelHostPort:  strconv.Itoa(svc.HostPort),
		LabelImage:     svc.Image,
		LabelBuildID:   svc.BuildID,
		// time.RFC3339 produces ISO-8601 compatible timestamps.
		// UTC keeps the value independent of the host timezone.
		LabelCreatedAt: svc.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// ParseLabels reconstructs a Service from Docker container labels.
// This is the inverse of BuildLabels and is used when listing or
// inspecting containers to rebuild the domain model.
//
// Required labels: managed-by, service, app-target, port, host-port.
// Missing required labels cause an error. State and Container are NOT
// reconstructed from labels — they come from the Docker container's
// runtime status.
func ParseLabels(labels map[string]string) (*model.Service, error) {
	// Check all required labels at once rather than failing on the
	// first missing one, so the error lists everything that's wrong.
	requiredKeys := []string{
		LabelManagedBy,
		LabelService,
		LabelAppTarget,
		LabelPort,
		LabelHostPort,
	}

	var missing []string
	for _, key := range requiredKeys {
		if _, ok := labels[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required Docker labels: %s", strings.Join(missing, ", "))
	}

	// Verify this container is actually managed by asgiboot.
	if labels[LabelManagedBy] != ManagedByValue {
		return nil, fmt.Errorf(
			"label %s has unexpected value %q (expected %q)",
			LabelManagedBy, labels[LabelManagedBy], ManagedByValue,
		)
	}

	target, err := model.ParseAppTarget(labels[LabelAppTarget])
	if err != nil {
		return nil, fmt.Errorf("invalid label %s: %w", LabelAppTarget, err)
	}

	port, err := strconv.Atoi(labels[LabelPort])
	if err != nil {
		return nil, fmt.Errorf("invalid label %s=%q: %w", LabelPort, labels[LabelPort], err)
	}

	hostPort, err := strconv.Atoi(labels[LabelHostPort])
	if err != nil {
		return nil, fmt.Errorf("invalid label %s=%q: %w", LabelHostPort, labels[LabelHostPort], err)
	}

	svc := &model.Service{
		Name:     labels[LabelService],
		Image:    labels[LabelImage],
		Target:   target,
		Port:     port,
		HostPort: hostPort,
		BuildID:  labels[LabelBuildID],
	}

	// The creation timestamp is optional: older containers may predate
	// the label, and its absence should not hide the service.
	if v, ok := labels[LabelCreatedAt]; ok && v != "" {
		createdAt, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, fmt.Errorf("invalid label %s: %w", LabelCreatedAt, err)
		}
		svc.CreatedAt = createdAt
	}

	return svc, nil
}

// ImageLabels returns the static labels baked into a service image at
// build time. The build ID is added separately at `docker build` time
// so the rendered Dockerfile stays byte-identical across builds of the
// same definition.
func ImageLabels(name, appTarget string, port int) map[string]string {
	return map[string]string{
		LabelManagedBy: ManagedByValue,
		LabelService:   name,
		LabelAppTarget: appTarget,
		LabelPort:      strconv.Itoa(port),
	}
}
