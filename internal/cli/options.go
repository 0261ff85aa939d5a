package cli

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// Options holds tool-level defaults that users can override through
// ASGIBOOT_* environment variables. These are deployment-environment
// knobs (a CI runner with a slow registry wants a longer build timeout),
// not per-service settings — those belong in the service file.
type Options struct {
	// ImageRepository is the repository prefix for built image tags
	// ("<repository>/<service>:latest").
	ImageRepository string `env:"ASGIBOOT_IMAGE_REPOSITORY" envDefault:"asgiboot"`

	// ReadyTimeout bounds the whole readiness wait after `up`.
	ReadyTimeout time.Duration `env:"ASGIBOOT_READY_TIMEOUT" envDefault:"30s"`

	// ReadyInterval is the pause between readiness dial attempts.
	ReadyInterval time.Duration `env:"ASGIBOOT_READY_INTERVAL" envDefault:"250ms"`

	// BuildTimeout bounds the docker build invocation.
	BuildTimeout time.Duration `env:"ASGIBOOT_BUILD_TIMEOUT" envDefault:"10m"`
}

// LoadOptions reads tool options from the environment. Unset variables
// take their declared defaults; a malformed variable (unparseable
// duration) falls back to all-defaults rather than aborting, since the
// options are conveniences, not correctness inputs.
func LoadOptions() *Options {
	var opts Options
	if err := env.Parse(&opts); err != nil {
		VerboseLog("Ignoring malformed ASGIBOOT_* environment overrides: %v", err)
		return &Options{
			ImageRepository: "asgiboot",
			ReadyTimeout:    30 * time.Second,
			ReadyInterval:   250 * time.Millisecond,
			BuildTimeout:    10 * time.Minute,
		}
	}
	return &opts
}
