package txnsim

import (
	"encoding/binary"

	"github.com/dgryski/go-farm"
	"github.com/elliotcourant/timber"
	"github.com/elliotcourant/txnsim/options"
	"github.com/pkg/errors"
)

type (
	// Policy selects which concurrency control a cluster of partitions runs under.
	Policy uint8

	// RunResult is what the driver collects from one cluster after every submitted
	// transaction has finished.
	RunResult struct {
		Keys       map[Key]int64
		Latencies  map[TransactionId]float64
		ReadValues map[TransactionId]int64
	}
)

const (
	PolicyReference Policy = iota
	PolicyEager
	PolicyDeferred
)

var policyNames = [...]string{
	"reference",
	"eager",
	"deferred",
}

func (p Policy) String() string {
	if int(p) >= len(policyNames) {
		return "unknown"
	}

	return policyNames[p]
}

// NewCluster builds one partition per shard, all running the given policy.
func NewCluster(policy Policy, opts options.Options) []Partition {
	partitions := make([]Partition, opts.Partitions)
	for i := range partitions {
		id := PartitionId(i)
		switch policy {
		case PolicyReference:
			partitions[i] = NewReferencePartition(id, opts.EventLogging)
		case PolicyEager:
			partitions[i] = NewEagerPartition(id, opts.EventLogging)
		case PolicyDeferred:
			partitions[i] = NewDeferredPartition(id, opts.MaxDeferTime, opts.EventLogging)
		default:
			panic(errors.Errorf("unknown policy %d", policy))
		}
	}

	return partitions
}

// PartitionForKey routes a key to the shard that owns it. The fingerprint keeps the
// routing deterministic and independent of keyspace size.
func PartitionForKey(key Key, partitions int) int {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(key))

	return int(farm.Fingerprint64(buf[:]) % uint64(partitions))
}

// Run drives one cluster through the workload: tick every partition, submit whatever
// became due, repeat. Past the configured duration it keeps ticking, without ever
// submitting out of order, until every partition reports finished, so slow deferred
// work is always drained rather than cut off.
func Run(workload []Transaction, partitions []Partition, opts options.Options) RunResult {
	assertf(len(partitions) > 0, "cannot run a workload on zero partitions")

	next := 0
	now := 0.0

	for {
		for _, partition := range partitions {
			partition.Tick(now)
		}

		for next < len(workload) && workload[next].SubmitTime <= now {
			transaction := workload[next]
			next++
			partitions[PartitionForKey(transaction.Key, len(partitions))].Submit(transaction)
		}

		if now >= float64(opts.Duration) && next == len(workload) && clusterFinished(partitions) {
			break
		}

		now += opts.TimeStep
	}

	result := RunResult{
		Keys:       make(map[Key]int64),
		Latencies:  make(map[TransactionId]float64),
		ReadValues: make(map[TransactionId]int64),
	}

	for _, partition := range partitions {
		for id, latency := range partition.Latencies() {
			result.Latencies[id] = latency
		}

		for id, value := range partition.ReadValues() {
			result.ReadValues[id] = value
		}

		for key, value := range partition.Store() {
			result.Keys[key] = value
		}
	}

	return result
}

func clusterFinished(partitions []Partition) bool {
	for _, partition := range partitions {
		if !partition.IsFinished() {
			return false
		}
	}

	return true
}

// RunExperiment generates one workload and replays it on a reference, an eager and a
// deferred cluster, then merges everything into a single result set.
func RunExperiment(opts options.Options) (*Results, error) {
	if err := opts.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid run options")
	}

	workload, err := GenerateWorkload(opts)
	if err != nil {
		return nil, err
	}

	timber.Infof("generated workload of %d transactions over %d second(s)", len(workload), opts.Duration)

	runs := make(map[string]RunResult, len(policyNames))
	for _, policy := range []Policy{PolicyReference, PolicyEager, PolicyDeferred} {
		runs[policy.String()] = Run(workload, NewCluster(policy, opts), opts)
		timber.Infof("%s run finished", policy)
	}

	return mergeResults(opts, workload, runs), nil
}
