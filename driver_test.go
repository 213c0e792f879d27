package txnsim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartitionForKey(t *testing.T) {
	for key := Key(0); key < 100; key++ {
		shard := PartitionForKey(key, 10)
		assert.GreaterOrEqual(t, shard, 0)
		assert.Less(t, shard, 10)

		// Routing is a pure function of the key.
		assert.Equal(t, shard, PartitionForKey(key, 10))
	}
}

func TestRun_DrainsEverySubmittedTransaction(t *testing.T) {
	opts := workloadOptions()
	workload, err := GenerateWorkload(opts)
	require.NoError(t, err)

	for _, policy := range []Policy{PolicyReference, PolicyEager, PolicyDeferred} {
		result := Run(workload, NewCluster(policy, opts), opts)

		// The drain phase keeps ticking past the configured duration, so every
		// transaction has a latency even when its execution straddles the end.
		require.Len(t, result.Latencies, len(workload), policy.String())
		for id, latency := range result.Latencies {
			assert.GreaterOrEqual(t, latency, 0.0, "transaction %d under %s", id, policy)
		}
	}
}

func TestRunExperiment(t *testing.T) {
	opts := workloadOptions()
	results, err := RunExperiment(opts)
	require.NoError(t, err)
	require.NotEmpty(t, results.Transactions)
	require.NotEmpty(t, results.Keys)

	for _, transaction := range results.Transactions {
		require.Len(t, transaction.Latency, 3)
		if transaction.Kind == Read.String() {
			require.Len(t, transaction.ReadValue, 3)

			// Unbounded deferral reproduces every reference read.
			assert.Equal(t, transaction.ReadValue["reference"], transaction.ReadValue["deferred"],
				"transaction %d", transaction.Id)
		} else {
			require.Nil(t, transaction.ReadValue)
		}
	}

	for _, key := range results.Keys {
		require.Len(t, key.Values, 3)
		assert.Equal(t, key.Values["reference"], key.Values["deferred"], "key %d", key.Key)
	}
}

func TestRunExperiment_Reproducible(t *testing.T) {
	first, err := RunExperiment(workloadOptions())
	require.NoError(t, err)

	second, err := RunExperiment(workloadOptions())
	require.NoError(t, err)

	require.Equal(t, first.Digest(), second.Digest())
}

func TestRunExperiment_RejectsInvalidOptions(t *testing.T) {
	opts := workloadOptions()
	opts.Partitions = 0

	_, err := RunExperiment(opts)
	require.Error(t, err)
}

func BenchmarkRun_Deferred(b *testing.B) {
	opts := workloadOptions()
	workload, err := GenerateWorkload(opts)
	if err != nil {
		b.Fatal(err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Run(workload, NewCluster(PolicyDeferred, opts), opts)
	}
}
