package txnsim

type (
	// EagerPartition starts every pending transaction the moment the clock ticks,
	// ignoring conflicts entirely. Overlapping INCREASE transactions on one key will
	// snapshot the same base value and lose updates; that is the point, the policy
	// exists to quantify the damage, not to avoid it.
	EagerPartition struct {
		partitionState
	}
)

func NewEagerPartition(id PartitionId, eventLogging bool) *EagerPartition {
	return &EagerPartition{
		partitionState: newPartitionState(id, eventLogging),
	}
}

func (e *EagerPartition) Tick(now float64) {
	e.setTime(now)

	for _, id := range e.pendingIds() {
		transaction := e.transactions[id]
		delete(e.pending, id)
		e.startTransaction(transaction)
	}

	e.finishElapsed(nil)
}
