// Package cleanup provides the background sweep worker for expired stories.
package cleanup

import (
	"time"

	"github.com/alumnet/alumnet-go/pkg/config"
)

// Config controls the sweep worker schedule.
type Config struct {
	SweepInterval    time.Duration
	VerboseReporting bool
}

// DefaultConfig builds the worker configuration from the environment.
func DefaultConfig() *Config {
	return &Config{
		SweepInterval:    config.SweepInterval,
		VerboseReporting: config.SweepVerbose,
	}
}
