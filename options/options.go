// Package options holds the run parameters for a simulation. Options are plain data,
// validated once before any simulation work starts.
package options

import (
	"math"

	"github.com/pkg/errors"
)

const proportionEpsilon = 1e-9

// Options describes one experiment: the workload to generate and the clock the driver
// runs the partitions with. The zero value is not usable, start from DefaultOptions.
type Options struct {
	// Seed for the workload generator. Runs with the same seed and parameters produce
	// identical workloads and identical result digests.
	Seed int64 `toml:"seed"`

	// Duration is the number of whole seconds during which transactions are submitted.
	// The driver keeps ticking past this until every partition has drained.
	Duration int `toml:"duration"`

	// TimeStep is the simulated clock resolution in seconds.
	TimeStep float64 `toml:"time-step"`

	// Partitions is the number of independent shards per policy.
	Partitions int `toml:"partitions"`

	// KeyspaceSize is the number of distinct keys transactions address.
	KeyspaceSize uint64 `toml:"keyspace-size"`

	// ReadProportion, OverwriteProportion and IncreaseProportion control the kind mix.
	// They must sum to one.
	ReadProportion      float64 `toml:"read-proportion"`
	OverwriteProportion float64 `toml:"overwrite-proportion"`
	IncreaseProportion  float64 `toml:"increase-proportion"`

	// TPSAverage and TPSDeviation parameterize the normal distribution the per second
	// transaction count is drawn from.
	TPSAverage   float64 `toml:"tps-average"`
	TPSDeviation float64 `toml:"tps-deviation"`

	// ExecutionAverage and ExecutionDeviation parameterize the normal distribution the
	// per transaction execution time is drawn from. Negative draws are clamped to zero.
	ExecutionAverage   float64 `toml:"execution-average"`
	ExecutionDeviation float64 `toml:"execution-deviation"`

	// MaxDeferTime bounds how long the deferred policy may hold a transaction back.
	// Zero or negative disables the bound.
	MaxDeferTime float64 `toml:"max-defer-time"`

	// EventLogging enables the golang.org/x/net/trace event log on each partition.
	EventLogging bool `toml:"event-logging"`
}

// DefaultOptions mirrors the original experiment setup: a thirty second workload of
// roughly ten transactions per second over twenty keys on ten partitions, with a one
// millisecond clock.
func DefaultOptions() Options {
	return Options{
		Seed:                0,
		Duration:            30,
		TimeStep:            0.001,
		Partitions:          10,
		KeyspaceSize:        20,
		ReadProportion:      1.0 / 3.0,
		OverwriteProportion: 1.0 / 3.0,
		IncreaseProportion:  1.0 / 3.0,
		TPSAverage:          10.0,
		TPSDeviation:        1.0,
		ExecutionAverage:    1.0,
		ExecutionDeviation:  1.0,
		MaxDeferTime:        0,
	}
}

// Validate fails fast on configuration errors, before anything is generated or run.
func (o Options) Validate() error {
	if o.Duration <= 0 {
		return errors.Errorf("duration must be positive, got %d", o.Duration)
	}

	if o.TimeStep <= 0 {
		return errors.Errorf("time step must be positive, got %f", o.TimeStep)
	}

	if o.Partitions <= 0 {
		return errors.Errorf("partition count must be positive, got %d", o.Partitions)
	}

	if o.KeyspaceSize == 0 {
		return errors.New("keyspace size must be positive")
	}

	if o.ReadProportion < 0 || o.OverwriteProportion < 0 || o.IncreaseProportion < 0 {
		return errors.New("kind proportions cannot be negative")
	}

	sum := o.ReadProportion + o.OverwriteProportion + o.IncreaseProportion
	if math.Abs(sum-1.0) > proportionEpsilon {
		return errors.Errorf("kind proportions must sum to one, got %f", sum)
	}

	return nil
}
