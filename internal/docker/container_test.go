package docker

import (
	"testing"

	"github.com/docker/docker/api/types/container"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeno-labs/asgiboot/internal/model"
)

// TestStateFromStatus verifies the mapping from Docker container status
// strings to the service state machine.
func TestStateFromStatus(t *testing.T) {
	tests := []struct {
		status   string
		expected model.ServiceState
	}{
		{"running", model.StateRunning},
		{"created", model.StateNotStarted},
		{"exited", model.StateExited},
		{"dead", model.StateExited},
		{"removing", model.StateExited},
		{"", model.StateExited},
	}

	for _, tt := range tests {
		t.Run("status_"+tt.status, func(t *testing.T) {
			assert.Equal(t, tt.expected, stateFromStatus(tt.status))
		})
	}
}

// TestSummaryToInfo verifies conversion from the Docker API summary,
// including the leading-slash strip on container names.
func TestSummaryToInfo(t *testing.T) {
	summary := container.Summary{
		ID:     "abc123",
		Names:  []string{"/zeno-agent"},
		State:  "running",
		Labels: map[string]string{LabelService: "zeno-agent"},
	}

	info := summaryToInfo(summary)
	assert.Equal(t, "abc123", info.ContainerID)
	assert.Equal(t, "zeno-agent", info.ContainerName)
	assert.Equal(t, "running", info.Status)
	assert.Equal(t, "zeno-agent", info.Labels[LabelService])
}

// TestSummaryToInfo_NoNames verifies a container with no names yields
// an empty name instead of panicking.
func TestSummaryToInfo_NoNames(t *testing.T) {
	info := summaryToInfo(container.Summary{ID: "abc123"})
	assert.Empty(t, info.ContainerName)
}

// TestBuildService verifies domain reconstruction from a container's
// labels plus runtime status.
func TestBuildService(t *testing.T) {
	labels := BuildLabels(testService())

	info := &model.ContainerInfo{
		ContainerID:   "abc123",
		ContainerName: "zeno-agent",
		Status:        "running",
		Labels:        labels,
	}

	svc, err := BuildService(info)
	require.NoError(t, err)

	assert.Equal(t, "zeno-agent", svc.Name)
	assert.Equal(t, model.StateRunning, svc.State)
	require.NotNil(t, svc.Container)
	assert.Equal(t, "abc123", svc.Container.ContainerID)
}

// TestBuildService_ExitedContainer verifies that a container which died
// at startup is reported as exited, not hidden.
func TestBuildService_ExitedContainer(t *testing.T) {
	info := &model.ContainerInfo{
		ContainerID: "abc123",
		Status:      "exited",
		Labels:      BuildLabels(testService()),
	}

	svc, err := BuildService(info)
	require.NoError(t, err)
	assert.Equal(t, model.StateExited, svc.State)
}

// TestBuildService_UnmanagedLabels verifies label parsing failures
// propagate with container context.
func TestBuildService_UnmanagedLabels(t *testing.T) {
	info := &model.ContainerInfo{
		ContainerName: "stray",
		Status:        "running",
		Labels:        map[string]string{"com.example.other": "x"},
	}

	_, err := BuildService(info)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stray")
}
