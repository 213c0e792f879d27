package txnsim

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResults_RoundTrip(t *testing.T) {
	results, err := RunExperiment(workloadOptions())
	require.NoError(t, err)

	encoded, err := json.Marshal(results)
	require.NoError(t, err)

	var decoded Results
	require.NoError(t, json.Unmarshal(encoded, &decoded))
	require.Equal(t, results.Digest(), decoded.Digest())
}

func TestResults_DigestReflectsContent(t *testing.T) {
	results, err := RunExperiment(workloadOptions())
	require.NoError(t, err)

	digest := results.Digest()
	assert.Equal(t, digest, results.Digest())

	results.Transactions[0].Latency["eager"] += 1.0
	assert.NotEqual(t, digest, results.Digest())
}
