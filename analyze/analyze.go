// Package analyze aggregates experiment results into the numbers the simulation
// exists to produce: latency statistics per policy and the fraction of reads that
// matched the serial reference execution.
package analyze

import (
	"github.com/elliotcourant/txnsim"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
)

// ReferencePolicy is the result column holding the serial ground truth reads are
// compared against.
const ReferencePolicy = "reference"

type (
	LatencyStats struct {
		Average float64 `json:"average"`
		Median  float64 `json:"median"`
	}

	ReadStats struct {
		// Correct is the fraction of READ transactions that observed exactly the value
		// the reference execution observed.
		Correct float64 `json:"correct"`

		// LostUpdate is the complement, reads that saw a value the serial order never
		// produced.
		LostUpdate float64 `json:"lost_update"`
	}

	PolicyAnalysis struct {
		Latency LatencyStats `json:"latency"`
		Reads   ReadStats    `json:"reads"`
	}
)

// Policy summarizes one policy's column of the results.
func Policy(results *txnsim.Results, policy string) (PolicyAnalysis, error) {
	if len(results.Transactions) == 0 {
		return PolicyAnalysis{}, errors.New("results contain no transactions")
	}

	latencies := make([]float64, 0, len(results.Transactions))
	correct, wrong := 0, 0

	for _, transaction := range results.Transactions {
		latency, ok := transaction.Latency[policy]
		if !ok {
			return PolicyAnalysis{}, errors.Errorf(
				"no %s latency recorded for transaction %d", policy, transaction.Id)
		}
		latencies = append(latencies, latency)

		if transaction.ReadValue == nil {
			continue
		}

		reference, ok := transaction.ReadValue[ReferencePolicy]
		if !ok {
			return PolicyAnalysis{}, errors.Errorf(
				"no reference read value recorded for transaction %d", transaction.Id)
		}

		if transaction.ReadValue[policy] == reference {
			correct++
		} else {
			wrong++
		}
	}

	average, err := stats.Mean(latencies)
	if err != nil {
		return PolicyAnalysis{}, errors.Wrap(err, "computing mean latency")
	}

	median, err := stats.Median(latencies)
	if err != nil {
		return PolicyAnalysis{}, errors.Wrap(err, "computing median latency")
	}

	analysis := PolicyAnalysis{
		Latency: LatencyStats{
			Average: average,
			Median:  median,
		},
	}

	if totalReads := correct + wrong; totalReads > 0 {
		analysis.Reads.Correct = float64(correct) / float64(totalReads)
		analysis.Reads.LostUpdate = float64(wrong) / float64(totalReads)
	}

	return analysis, nil
}
