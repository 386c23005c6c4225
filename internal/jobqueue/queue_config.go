/*
Package jobqueue configuration - tunable parameters for the River job queue.

### Performance Tuning:
- Increase MaxWorkers for higher alert throughput
- Adjust MaxRetries for different reliability vs. speed tradeoffs

### Reliability Tuning:
- Increase MaxRetries for unstable alert webhook endpoints
- Adjust RetryPolicy intervals for network conditions

### Database Requirements:
- PostgreSQL with River schema migrations applied
- Connection pool configured for concurrent workers
*/
package jobqueue

import (
	"os"
	"time"

	"github.com/riverqueue/river"
)

// QueueConfig holds all configurable parameters for the job queue
type QueueConfig struct {
	// Number of concurrent workers processing alert jobs
	MaxWorkers int

	// Retry Configuration
	MaxRetries  int
	RetryPolicy RetryPolicy
	// Maximum time a single alert delivery can run
	JobTimeout time.Duration
}

// RetryPolicy defines how failed jobs are retried
type RetryPolicy struct {
	// InitialInterval is the time to wait before the first retry
	InitialInterval time.Duration

	// MaxInterval is the maximum time to wait between retries
	MaxInterval time.Duration

	// Multiplier is the factor by which the interval increases after each retry
	Multiplier float64

	// MaxElapsedTime is the total time after which retries stop
	MaxElapsedTime time.Duration
}

// DefaultQueueConfig returns the default configuration
func DefaultQueueConfig() *QueueConfig {
	return &QueueConfig{
		MaxWorkers: 5,

		MaxRetries: 10,
		RetryPolicy: RetryPolicy{
			InitialInterval: 1 * time.Second,
			MaxInterval:     15 * time.Minute,
			Multiplier:      2.0,
			MaxElapsedTime:  6 * time.Hour,
		},

		JobTimeout: 30 * time.Second,
	}
}

// ProductionQueueConfig returns a configuration optimized for production use
func ProductionQueueConfig() *QueueConfig {
	config := DefaultQueueConfig()

	config.MaxWorkers = 10
	config.RetryPolicy.MaxElapsedTime = 24 * time.Hour

	return config
}

// DevelopmentQueueConfig returns a configuration optimized for development
func DevelopmentQueueConfig() *QueueConfig {
	config := DefaultQueueConfig()

	config.MaxWorkers = 2
	config.MaxRetries = 3
	config.RetryPolicy.MaxElapsedTime = 10 * time.Minute
	config.JobTimeout = 10 * time.Second

	return config
}

// GetQueueConfig returns the appropriate configuration based on environment
func GetQueueConfig() *QueueConfig {
	switch os.Getenv("REPLYPILOT_ENV") {
	case "production":
		return ProductionQueueConfig()
	case "development":
		return DevelopmentQueueConfig()
	}
	return DefaultQueueConfig()
}

// RiverQueueConfig converts our config to River's queue configuration format
func (c *QueueConfig) RiverQueueConfig() map[string]river.QueueConfig {
	return map[string]river.QueueConfig{
		river.QueueDefault: {
			MaxWorkers: c.MaxWorkers,
		},
	}
}
