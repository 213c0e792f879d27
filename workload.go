package txnsim

import (
	"math/rand"
	"sort"

	"github.com/elliotcourant/txnsim/options"
)

// GenerateWorkload produces a finite transaction stream sorted by submit time. The
// per-second transaction count and the execution times are drawn from normal
// distributions; kinds follow the configured proportions; keys are uniform over the
// keyspace. The same options always produce the same workload, ids are assigned in
// submit order starting at zero.
func GenerateWorkload(opts options.Options) ([]Transaction, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(opts.Seed))

	transactions := make([]Transaction, 0, opts.Duration*int(opts.TPSAverage))
	nextId := TransactionId(0)

	for second := 0; second < opts.Duration; second++ {
		count := int(rng.NormFloat64()*opts.TPSDeviation + opts.TPSAverage)
		if count <= 0 {
			continue
		}

		submitTimes := make([]float64, count)
		for i := range submitTimes {
			submitTimes[i] = float64(second) + rng.Float64()
		}
		sort.Float64s(submitTimes)

		for i := 0; i < count; i++ {
			executionTime := rng.NormFloat64()*opts.ExecutionDeviation + opts.ExecutionAverage
			if executionTime < 0 {
				executionTime = 0
			}

			kind := Increase
			chance := rng.Float64()
			if chance < opts.ReadProportion {
				kind = Read
			} else if chance < opts.ReadProportion+opts.OverwriteProportion {
				kind = Overwrite
			}

			transactions = append(transactions, Transaction{
				Id:            nextId,
				Kind:          kind,
				SubmitTime:    submitTimes[i],
				ExecutionTime: executionTime,
				Key:           Key(rng.Int63n(int64(opts.KeyspaceSize))),
			})
			nextId++
		}
	}

	// Already ordered by construction, kept as a guard against future changes to the
	// per-second loop.
	sort.SliceStable(transactions, func(i, j int) bool {
		return transactions[i].SubmitTime < transactions[j].SubmitTime
	})

	return transactions, nil
}
