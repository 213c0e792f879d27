package txnsim

import (
	"fmt"
	"sort"

	"github.com/elliotcourant/timber"
	"golang.org/x/net/trace"
)

type (
	// Partition is one shard of the keyspace running under a single concurrency policy.
	// The driver submits transactions and advances the simulated clock; nothing inside a
	// partition runs on its own.
	Partition interface {
		// Submit enqueues a transaction. Valid at any simulated time at or after the
		// transaction's submit time.
		Submit(transaction Transaction)

		// Tick advances the partition to now and processes any work that became
		// eligible. Now must be monotonically non-decreasing across calls.
		Tick(now float64)

		// IsFinished reports whether every submitted transaction has finished.
		IsFinished() bool

		// Latencies returns the latency of every finished transaction.
		Latencies() map[TransactionId]float64

		// ReadValues returns the value each finished READ transaction observed.
		ReadValues() map[TransactionId]int64

		// Store returns a copy of the final per key values.
		Store() map[Key]int64
	}

	// partitionState is the lifecycle bookkeeping shared by every policy. Policies embed
	// it and drive the transitions from their own Tick; the state itself never decides
	// when a transaction may start.
	partitionState struct {
		id PartitionId

		// store holds the current value of every key touched so far, default zero.
		store map[Key]int64

		// transactions keeps every submitted transaction by id for result reporting.
		transactions map[TransactionId]Transaction

		submittedAt map[TransactionId]float64
		startedAt   map[TransactionId]float64
		finishedAt  map[TransactionId]float64

		pending map[TransactionId]struct{}
		started map[TransactionId]struct{}

		// snapshots holds the value of a transaction's key captured when it started. For
		// READ transactions it is refreshed at finish, so the reported read value is the
		// value at release time.
		snapshots map[TransactionId]int64

		currentTime float64

		observer EventObserver
		eventLog trace.EventLog
	}
)

func newPartitionState(id PartitionId, eventLogging bool) partitionState {
	eventLog := NoEventLog
	if eventLogging {
		eventLog = trace.NewEventLog("txnsim.Partition", fmt.Sprintf("partition-%d", id))
	}

	return partitionState{
		id:           id,
		store:        make(map[Key]int64),
		transactions: make(map[TransactionId]Transaction),
		submittedAt:  make(map[TransactionId]float64),
		startedAt:    make(map[TransactionId]float64),
		finishedAt:   make(map[TransactionId]float64),
		pending:      make(map[TransactionId]struct{}),
		started:      make(map[TransactionId]struct{}),
		snapshots:    make(map[TransactionId]int64),
		eventLog:     eventLog,
	}
}

// SetObserver installs a hook that receives every lifecycle transition. Diagnostic only.
func (p *partitionState) SetObserver(observer EventObserver) {
	p.observer = observer
}

func (p *partitionState) observe(transition Transition, id TransactionId) {
	p.eventLog.Printf("%.4f: transaction %d %s", p.currentTime, id, transition)

	if p.observer != nil {
		p.observer(Event{
			Time:        p.currentTime,
			Partition:   p.id,
			Transaction: id,
			Transition:  transition,
		})
	}
}

// setTime moves the partition clock forward. Going backwards is a driver contract
// violation.
func (p *partitionState) setTime(now float64) {
	assertf(now >= p.currentTime, "partition %d: clock moved backwards, %f -> %f", p.id, p.currentTime, now)
	p.currentTime = now
}

// Submit records the transaction as pending. No side effect on the store.
func (p *partitionState) Submit(transaction Transaction) {
	_, ok := p.transactions[transaction.Id]
	assertf(!ok, "partition %d: transaction %d submitted twice", p.id, transaction.Id)

	p.transactions[transaction.Id] = transaction
	p.submittedAt[transaction.Id] = p.currentTime
	p.pending[transaction.Id] = struct{}{}

	p.observe(TransitionSubmitted, transaction.Id)
}

// startTransaction snapshots the transaction's key and marks it executing. Callers must
// have removed the transaction from whatever tracking held it back.
func (p *partitionState) startTransaction(transaction Transaction) {
	_, finished := p.finishedAt[transaction.Id]
	assertf(!finished, "partition %d: transaction %d started after finishing", p.id, transaction.Id)

	_, executing := p.started[transaction.Id]
	assertf(!executing, "partition %d: transaction %d started twice", p.id, transaction.Id)

	p.snapshots[transaction.Id] = p.store[transaction.Key]
	p.started[transaction.Id] = struct{}{}
	p.startedAt[transaction.Id] = p.currentTime

	p.observe(TransitionStarted, transaction.Id)
	timber.Debugf(
		"partition %d %.4f: transaction %d started, read %d -> %d",
		p.id, p.currentTime, transaction.Id, transaction.Key, p.snapshots[transaction.Id],
	)
}

// finishTransaction applies the transaction's effect to the store and records it as
// finished. Finishing twice is an invariant violation, completion is monotonic.
func (p *partitionState) finishTransaction(transaction Transaction) {
	_, executing := p.started[transaction.Id]
	assertf(executing, "partition %d: transaction %d finished without being started", p.id, transaction.Id)

	_, finished := p.finishedAt[transaction.Id]
	assertf(!finished, "partition %d: transaction %d finished twice", p.id, transaction.Id)

	delete(p.started, transaction.Id)
	p.finishedAt[transaction.Id] = p.currentTime

	switch transaction.Kind {
	case Read:
		// The reported value is the key's value when the read releases, not when it
		// started.
		p.snapshots[transaction.Id] = p.store[transaction.Key]
	case Overwrite:
		p.store[transaction.Key] = 0
	case Increase:
		p.store[transaction.Key] = p.snapshots[transaction.Id] + 1
	}

	p.observe(TransitionFinished, transaction.Id)
	timber.Debugf(
		"partition %d %.4f: transaction %d finished, wrote %d -> %d (%s)",
		p.id, p.currentTime, transaction.Id, transaction.Key, p.store[transaction.Key], transaction.Kind,
	)
}

// finishElapsed finishes every executing transaction whose execution time has passed as
// of the current clock. The hook, when not nil, runs after each completion so policies
// can release dependents. Finish order is by id to keep runs reproducible.
func (p *partitionState) finishElapsed(onFinish func(transaction Transaction)) {
	elapsed := make([]TransactionId, 0, len(p.started))
	for id := range p.started {
		if p.currentTime-p.startedAt[id] >= p.transactions[id].ExecutionTime {
			elapsed = append(elapsed, id)
		}
	}
	sortIds(elapsed)

	for _, id := range elapsed {
		transaction := p.transactions[id]
		p.finishTransaction(transaction)

		if onFinish != nil {
			onFinish(transaction)
		}
	}
}

// IsFinished reports whether every transaction ever submitted has finished.
func (p *partitionState) IsFinished() bool {
	return len(p.submittedAt) == len(p.finishedAt)
}

// LatencyFor returns the time between the transaction becoming eligible and it
// finishing. Only defined for finished transactions.
func (p *partitionState) LatencyFor(id TransactionId) float64 {
	finishedAt, ok := p.finishedAt[id]
	assertf(ok, "partition %d: latency queried for unfinished transaction %d", p.id, id)

	return finishedAt - p.transactions[id].SubmitTime
}

// ReadValueFor returns the value a READ transaction observed. Only defined for finished
// READ transactions.
func (p *partitionState) ReadValueFor(id TransactionId) int64 {
	_, ok := p.finishedAt[id]
	assertf(ok, "partition %d: read value queried for unfinished transaction %d", p.id, id)
	assertf(p.transactions[id].Kind == Read, "partition %d: read value queried for %s transaction %d",
		p.id, p.transactions[id].Kind, id)

	return p.snapshots[id]
}

func (p *partitionState) Latencies() map[TransactionId]float64 {
	latencies := make(map[TransactionId]float64, len(p.finishedAt))
	for id := range p.finishedAt {
		latencies[id] = p.LatencyFor(id)
	}

	return latencies
}

func (p *partitionState) ReadValues() map[TransactionId]int64 {
	values := make(map[TransactionId]int64)
	for id := range p.finishedAt {
		if p.transactions[id].Kind == Read {
			values[id] = p.ReadValueFor(id)
		}
	}

	return values
}

func (p *partitionState) Store() map[Key]int64 {
	store := make(map[Key]int64, len(p.store))
	for key, value := range p.store {
		store[key] = value
	}

	return store
}

// pendingIds returns the pending set in id order. Workload ids are assigned in submit
// order, so this doubles as arrival order.
func (p *partitionState) pendingIds() []TransactionId {
	ids := make([]TransactionId, 0, len(p.pending))
	for id := range p.pending {
		ids = append(ids, id)
	}
	sortIds(ids)

	return ids
}

func sortIds(ids []TransactionId) {
	sort.Slice(ids, func(i, j int) bool {
		return ids[i] < ids[j]
	})
}
