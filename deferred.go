package txnsim

import (
	"github.com/elliotcourant/timber"
)

type (
	// DeferredPartition withholds a transaction until every conflicting earlier
	// transaction on the same key has finished, approximating serial correctness
	// without stopping unrelated keys from overlapping. An optional latency bound
	// force-releases transactions that have been held back too long, trading the
	// eager policy's correctness risk for bounded latency on rare stalls.
	DeferredPartition struct {
		partitionState

		// maxDeferTime bounds how long a transaction may stay deferred. Zero or
		// negative disables the bound.
		maxDeferTime float64

		// deferredAt records when each waiter was first held back.
		deferredAt map[TransactionId]float64

		graph *dependencyGraph
	}
)

func NewDeferredPartition(id PartitionId, maxDeferTime float64, eventLogging bool) *DeferredPartition {
	return &DeferredPartition{
		partitionState: newPartitionState(id, eventLogging),
		maxDeferTime:   maxDeferTime,
		deferredAt:     make(map[TransactionId]float64),
		graph:          newDependencyGraph(),
	}
}

func (d *DeferredPartition) Tick(now float64) {
	d.setTime(now)
	d.startEligible()
	d.finishElapsed(func(finished Transaction) {
		d.graph.complete(finished.Id)
	})
}

// startEligible first classifies newly pending transactions as startable or deferred,
// then walks the deferred set releasing whatever is no longer blocked. A waiter freed
// by a finish only starts on the following tick, finishes are applied after starts.
func (d *DeferredPartition) startEligible() {
	for _, id := range d.pendingIds() {
		transaction := d.transactions[id]
		delete(d.pending, id)
		if !d.deferTransaction(transaction) {
			d.startTransaction(transaction)
		}
	}

	for _, id := range d.graph.deferredIds() {
		transaction := d.transactions[id]

		overdue := d.maxDeferTime > 0 && d.currentTime-d.deferredAt[id] > d.maxDeferTime
		if overdue {
			// Cut the blocking relationships in both directions and run it anyway.
			// The transaction still mutates the store through the ordinary path, so
			// this reintroduces the eager policy's lost-update risk for this one
			// transaction.
			d.graph.detach(id)
			delete(d.deferredAt, id)
			d.observe(TransitionForceReleased, id)
			timber.Debugf("partition %d %.4f: transaction %d force released", d.id, d.currentTime, id)
			d.startTransaction(transaction)
			continue
		}

		if d.graph.blockerCount(id) == 0 {
			d.graph.release(id)
			delete(d.deferredAt, id)
			d.startTransaction(transaction)
		}
	}
}

// deferTransaction computes the conflict set for a transaction leaving pending. When
// the set is empty the transaction may start immediately and false is returned.
func (d *DeferredPartition) deferTransaction(transaction Transaction) bool {
	blockers := make(map[TransactionId]struct{})

	// Earlier-submitted pending work on the same key.
	for id := range d.pending {
		if d.transactions[id].Key == transaction.Key && d.submittedAt[id] < d.submittedAt[transaction.Id] {
			blockers[id] = struct{}{}
		}
	}

	// Every deferred transaction on the same key, regardless of submit order: deferral
	// order does not guarantee completion order, so anything still held back may yet
	// finish after this one would.
	for id := range d.graph.dependsOn {
		if d.transactions[id].Key == transaction.Key {
			blockers[id] = struct{}{}
		}
	}

	// Everything currently executing on the same key.
	for id := range d.started {
		if d.transactions[id].Key == transaction.Key {
			blockers[id] = struct{}{}
		}
	}

	if len(blockers) == 0 {
		return false
	}

	d.deferredAt[transaction.Id] = d.currentTime
	d.graph.track(transaction.Id, blockers)

	d.observe(TransitionDeferred, transaction.Id)
	timber.Debugf(
		"partition %d %.4f: transaction %d deferred behind %d transaction(s)",
		d.id, d.currentTime, transaction.Id, len(blockers),
	)

	return true
}
