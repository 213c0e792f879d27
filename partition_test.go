package txnsim

import (
	"testing"

	"github.com/elliotcourant/txnsim/options"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scenarioOptions() options.Options {
	opts := options.DefaultOptions()
	opts.Duration = 1
	opts.TimeStep = 0.001

	return opts
}

// driveScenario replays a hand-built workload on a single partition until it drains.
func driveScenario(t *testing.T, partition Partition, workload []Transaction, opts options.Options) {
	t.Helper()

	Run(workload, []Partition{partition}, opts)
	require.True(t, partition.IsFinished())
}

func twoIncreases() []Transaction {
	return []Transaction{
		{Id: 0, Kind: Increase, SubmitTime: 0.0, ExecutionTime: 1.0, Key: 7},
		{Id: 1, Kind: Increase, SubmitTime: 0.1, ExecutionTime: 1.0, Key: 7},
	}
}

func TestReferencePartition_SerialReads(t *testing.T) {
	partition := NewReferencePartition(0, false)
	workload := []Transaction{
		{Id: 0, Kind: Increase, SubmitTime: 0.0, ExecutionTime: 1.0, Key: 3},
		{Id: 1, Kind: Increase, SubmitTime: 0.1, ExecutionTime: 1.0, Key: 3},
		{Id: 2, Kind: Read, SubmitTime: 0.2, ExecutionTime: 1.0, Key: 3},
		{Id: 3, Kind: Overwrite, SubmitTime: 0.3, ExecutionTime: 1.0, Key: 3},
		{Id: 4, Kind: Read, SubmitTime: 0.4, ExecutionTime: 1.0, Key: 3},
	}
	driveScenario(t, partition, workload, scenarioOptions())

	// Serial replay on the key: 0 -> 1 -> 2, read 2, overwrite to 0, read 0.
	values := partition.ReadValues()
	require.Equal(t, int64(2), values[2])
	require.Equal(t, int64(0), values[4])
	require.Equal(t, int64(0), partition.Store()[3])
}

func TestEagerPartition_LostUpdate(t *testing.T) {
	partition := NewEagerPartition(0, false)
	driveScenario(t, partition, twoIncreases(), scenarioOptions())

	// Both increases overlapped and snapshotted zero, one update is lost.
	require.Equal(t, int64(1), partition.Store()[7])

	// Both still ran promptly, latency is roughly the execution time.
	for _, latency := range partition.Latencies() {
		assert.InDelta(t, 1.0, latency, 0.01)
	}
}

func TestDeferredPartition_NoLostUpdate(t *testing.T) {
	partition := NewDeferredPartition(0, 0, false)
	driveScenario(t, partition, twoIncreases(), scenarioOptions())

	// The second increase waited for the first, no update lost.
	require.Equal(t, int64(2), partition.Store()[7])

	// The first transaction finishes near t=1.0, the second only then starts and
	// finishes near t=2.0.
	assert.InDelta(t, 1.0, partition.startedAt[1], 0.01)
	assert.InDelta(t, 2.0, partition.finishedAt[1], 0.01)
	assert.InDelta(t, 1.9, partition.LatencyFor(1), 0.02)
}

func TestDistinctKeys_StartImmediately(t *testing.T) {
	workload := []Transaction{
		{Id: 0, Kind: Increase, SubmitTime: 0.0, ExecutionTime: 0.5, Key: 1},
		{Id: 1, Kind: Increase, SubmitTime: 0.0, ExecutionTime: 0.5, Key: 2},
		{Id: 2, Kind: Read, SubmitTime: 0.0, ExecutionTime: 0.5, Key: 3},
	}

	partitions := []Partition{
		NewEagerPartition(0, false),
		NewDeferredPartition(1, 0, false),
	}
	for _, partition := range partitions {
		driveScenario(t, partition, workload, scenarioOptions())

		// No shared key conflicts, everything runs concurrently under every policy.
		for _, latency := range partition.Latencies() {
			assert.InDelta(t, 0.5, latency, 0.01)
		}

		require.Equal(t, int64(0), partition.ReadValues()[2])
	}
}

func TestLifecycle_TimestampOrdering(t *testing.T) {
	opts := scenarioOptions()
	workload, err := GenerateWorkload(workloadOptions())
	require.NoError(t, err)
	require.NotEmpty(t, workload)

	byId := make(map[TransactionId]Transaction, len(workload))
	for _, transaction := range workload {
		byId[transaction.Id] = transaction
	}

	partitions := map[string]Partition{
		"eager":    NewEagerPartition(0, false),
		"deferred": NewDeferredPartition(0, 0, false),
	}
	for name, partition := range partitions {
		driveScenario(t, partition, workload, opts)

		var state *partitionState
		switch p := partition.(type) {
		case *EagerPartition:
			state = &p.partitionState
		case *DeferredPartition:
			state = &p.partitionState
		}

		for id, finishedAt := range state.finishedAt {
			assert.GreaterOrEqual(t, finishedAt, state.startedAt[id], name)
			assert.GreaterOrEqual(t, state.startedAt[id], state.submittedAt[id], name)
			assert.GreaterOrEqual(t, state.submittedAt[id], byId[id].SubmitTime, name)
		}
	}
}

func TestTick_Idempotent(t *testing.T) {
	started, finished := 0, 0

	partition := NewEagerPartition(0, false)
	partition.SetObserver(func(event Event) {
		switch event.Transition {
		case TransitionStarted:
			started++
		case TransitionFinished:
			finished++
		}
	})

	partition.Tick(0)
	partition.Submit(Transaction{Id: 0, Kind: Increase, SubmitTime: 0, ExecutionTime: 0.2, Key: 1})

	partition.Tick(0.1)
	partition.Tick(0.1)
	partition.Tick(0.5)
	partition.Tick(0.5)
	partition.Tick(0.5)

	require.True(t, partition.IsFinished())
	assert.Equal(t, 1, started)
	assert.Equal(t, 1, finished)
}

func TestTick_IdempotentDeferred(t *testing.T) {
	counts := make(map[Transition]map[TransactionId]int)

	partition := NewDeferredPartition(0, 0, false)
	partition.SetObserver(func(event Event) {
		if counts[event.Transition] == nil {
			counts[event.Transition] = make(map[TransactionId]int)
		}
		counts[event.Transition][event.Transaction]++
	})

	partition.Tick(0)
	partition.Submit(Transaction{Id: 0, Kind: Increase, SubmitTime: 0, ExecutionTime: 0.25, Key: 1})
	partition.Submit(Transaction{Id: 1, Kind: Increase, SubmitTime: 0, ExecutionTime: 0.25, Key: 1})

	// Every clock value is replayed: repeats may release work that just became
	// eligible, but no transition may ever fire twice for one transaction.
	for _, now := range []float64{0.125, 0.125, 0.375, 0.375, 0.375, 0.625, 0.625, 0.875, 0.875} {
		partition.Tick(now)
	}

	require.True(t, partition.IsFinished())
	require.Equal(t, int64(2), partition.Store()[1])

	for transition, perTransaction := range counts {
		for id, count := range perTransaction {
			assert.Equal(t, 1, count, "transaction %d %s %d times", id, transition, count)
		}
	}

	// The second increase went through the full defer, release, start path.
	assert.Equal(t, 1, counts[TransitionDeferred][1])
	assert.Equal(t, 1, counts[TransitionStarted][0])
	assert.Equal(t, 1, counts[TransitionStarted][1])
	assert.Equal(t, 1, counts[TransitionFinished][0])
	assert.Equal(t, 1, counts[TransitionFinished][1])
}

func TestPartition_ContractViolations(t *testing.T) {
	t.Run("latency before finish", func(t *testing.T) {
		partition := NewEagerPartition(0, false)
		partition.Submit(Transaction{Id: 0, Kind: Read, ExecutionTime: 1, Key: 1})

		require.Panics(t, func() {
			partition.LatencyFor(0)
		})
	})

	t.Run("read value of a write", func(t *testing.T) {
		partition := NewReferencePartition(0, false)
		partition.Submit(Transaction{Id: 0, Kind: Increase, Key: 1})

		require.Panics(t, func() {
			partition.ReadValueFor(0)
		})
	})

	t.Run("clock moving backwards", func(t *testing.T) {
		partition := NewEagerPartition(0, false)
		partition.Tick(2)

		require.Panics(t, func() {
			partition.Tick(1)
		})
	})

	t.Run("double submit", func(t *testing.T) {
		partition := NewEagerPartition(0, false)
		partition.Submit(Transaction{Id: 0, Kind: Read, Key: 1})

		require.Panics(t, func() {
			partition.Submit(Transaction{Id: 0, Kind: Read, Key: 1})
		})
	})

	t.Run("double finish", func(t *testing.T) {
		partition := NewEagerPartition(0, false)
		partition.Submit(Transaction{Id: 0, Kind: Increase, ExecutionTime: 0, Key: 1})
		partition.Tick(0.1)
		require.True(t, partition.IsFinished())

		require.Panics(t, func() {
			partition.finishTransaction(partition.transactions[0])
		})
	})
}

func TestReferencePartition_ZeroLatency(t *testing.T) {
	partition := NewReferencePartition(0, false)
	driveScenario(t, partition, twoIncreases(), scenarioOptions())

	// Reference execution is instantaneous, latency is at most the clock quantization.
	for _, latency := range partition.Latencies() {
		assert.GreaterOrEqual(t, latency, 0.0)
		assert.Less(t, latency, 0.01)
	}
}
