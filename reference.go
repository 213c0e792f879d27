package txnsim

type (
	// ReferencePartition executes every transaction serially the instant it is
	// submitted, with zero duration. No overlap is ever possible, so the values its
	// READ transactions report are the ground truth the other policies are measured
	// against.
	ReferencePartition struct {
		partitionState
	}
)

func NewReferencePartition(id PartitionId, eventLogging bool) *ReferencePartition {
	return &ReferencePartition{
		partitionState: newPartitionState(id, eventLogging),
	}
}

// Submit starts and finishes the transaction in-line at the submitting clock time.
func (r *ReferencePartition) Submit(transaction Transaction) {
	r.partitionState.Submit(transaction)

	delete(r.pending, transaction.Id)
	r.startTransaction(transaction)
	r.finishTransaction(transaction)
}

// Tick only moves the clock, everything already happened at submit.
func (r *ReferencePartition) Tick(now float64) {
	r.setTime(now)
}
