package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeno-labs/asgiboot/internal/model"
)

func listService(name string, state model.ServiceState) *model.Service {
	return &model.Service{
		Name:     name,
		State:    state,
		Port:     8080,
		HostPort: 8080,
	}
}

func TestFilterServicesByState(t *testing.T) {
	services := []*model.Service{
		listService("alpha", model.StateRunning),
		listService("beta", model.StateExited),
		listService("gamma", model.StateRunning),
		listService("delta", model.StateNotStarted),
	}

	t.Run("all passes everything through", func(t *testing.T) {
		assert.Len(t, FilterServicesByState(services, "all"), 4)
	})

	t.Run("running", func(t *testing.T) {
		filtered := FilterServicesByState(services, "running")
		require.Len(t, filtered, 2)
		assert.Equal(t, "alpha", filtered[0].Name)
		assert.Equal(t, "gamma", filtered[1].Name)
	})

	t.Run("exited", func(t *testing.T) {
		filtered := FilterServicesByState(services, "exited")
		require.Len(t, filtered, 1)
		assert.Equal(t, "beta", filtered[0].Name)
	})

	t.Run("not-started", func(t *testing.T) {
		filtered := FilterServicesByState(services, "not-started")
		require.Len(t, filtered, 1)
		assert.Equal(t, "delta", filtered[0].Name)
	})

	t.Run("no matches yields empty non-nil slice", func(t *testing.T) {
		filtered := FilterServicesByState(services[:1], "exited")
		assert.NotNil(t, filtered)
		assert.Empty(t, filtered)
	})
}

func TestFormatPortBinding(t *testing.T) {
	assert.Equal(t, "8080:8080", FormatPortBinding(8080, 8080))
	assert.Equal(t, "18080:8080", FormatPortBinding(18080, 8080))
}

func TestLoadOptions(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		opts := LoadOptions()

		assert.Equal(t, "asgiboot", opts.ImageRepository)
		assert.Equal(t, 30*time.Second, opts.ReadyTimeout)
		assert.Equal(t, 250*time.Millisecond, opts.ReadyInterval)
		assert.Equal(t, 10*time.Minute, opts.BuildTimeout)
	})

	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv("ASGIBOOT_IMAGE_REPOSITORY", "registry.internal/services")
		t.Setenv("ASGIBOOT_READY_TIMEOUT", "90s")

		opts := LoadOptions()

		assert.Equal(t, "registry.internal/services", opts.ImageRepository)
		assert.Equal(t, 90*time.Second, opts.ReadyTimeout)
		// Untouched variables keep their defaults.
		assert.Equal(t, 250*time.Millisecond, opts.ReadyInterval)
	})

	t.Run("malformed value falls back to defaults", func(t *testing.T) {
		t.Setenv("ASGIBOOT_READY_TIMEOUT", "soon")

		opts := LoadOptions()

		assert.Equal(t, 30*time.Second, opts.ReadyTimeout)
		assert.Equal(t, "asgiboot", opts.ImageRepository)
	})
}
