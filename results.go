package txnsim

import (
	"encoding/json"
	"sort"

	"github.com/OneOfOne/xxhash"
	"github.com/elliotcourant/txnsim/options"
)

type (
	// TransactionResult is the persisted record of one transaction: its immutable
	// fields plus its latency under every policy and, for reads, the value it
	// observed under every policy.
	TransactionResult struct {
		Id            TransactionId      `json:"id"`
		Kind          string             `json:"kind"`
		Key           Key                `json:"key"`
		SubmitTime    float64            `json:"submit_time"`
		ExecutionTime float64            `json:"execution_time"`
		Latency       map[string]float64 `json:"latency"`
		ReadValue     map[string]int64   `json:"read_value,omitempty"`
	}

	// KeyResult is the final value of one key under every policy.
	KeyResult struct {
		Key    Key              `json:"key"`
		Values map[string]int64 `json:"values"`
	}

	// Results is everything one experiment produces, shaped for serialization and for
	// the analyzer. Transactions and keys are ordered so the encoding is stable.
	Results struct {
		Parameters   options.Options     `json:"parameters"`
		Transactions []TransactionResult `json:"transactions"`
		Keys         []KeyResult         `json:"keys"`
	}
)

func mergeResults(opts options.Options, workload []Transaction, runs map[string]RunResult) *Results {
	results := &Results{
		Parameters:   opts,
		Transactions: make([]TransactionResult, 0, len(workload)),
	}

	policies := make([]string, 0, len(runs))
	for policy := range runs {
		policies = append(policies, policy)
	}
	sort.Strings(policies)

	for _, transaction := range workload {
		record := TransactionResult{
			Id:            transaction.Id,
			Kind:          transaction.Kind.String(),
			Key:           transaction.Key,
			SubmitTime:    transaction.SubmitTime,
			ExecutionTime: transaction.ExecutionTime,
			Latency:       make(map[string]float64, len(runs)),
		}

		if transaction.Kind == Read {
			record.ReadValue = make(map[string]int64, len(runs))
		}

		for _, policy := range policies {
			run := runs[policy]
			record.Latency[policy] = run.Latencies[transaction.Id]
			if transaction.Kind == Read {
				record.ReadValue[policy] = run.ReadValues[transaction.Id]
			}
		}

		results.Transactions = append(results.Transactions, record)
	}

	keys := make(map[Key]struct{})
	for _, run := range runs {
		for key := range run.Keys {
			keys[key] = struct{}{}
		}
	}

	for key := range keys {
		values := make(map[string]int64, len(runs))
		for _, policy := range policies {
			values[policy] = runs[policy].Keys[key]
		}
		results.Keys = append(results.Keys, KeyResult{Key: key, Values: values})
	}
	sort.Slice(results.Keys, func(i, j int) bool {
		return results.Keys[i].Key < results.Keys[j].Key
	})

	return results
}

// Digest is a checksum over the transaction and key records. Two runs with the same
// options must produce the same digest, which makes reproducibility cheap to verify.
func (r *Results) Digest() uint64 {
	hash := xxhash.New64()
	encoder := json.NewEncoder(hash)

	// Encoding cannot fail for these types, both are plain data.
	_ = encoder.Encode(r.Transactions)
	_ = encoder.Encode(r.Keys)

	return hash.Sum64()
}
