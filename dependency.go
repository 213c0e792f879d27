package txnsim

type (
	// dependencyGraph tracks which deferred transactions are blocked by which
	// still-unfinished transactions. It is a plain reverse-indexed adjacency pair:
	// dependsOn maps a waiter to its blockers, dependedBy maps a blocker to its
	// waiters. Every edge mutation goes through a method here so the two indexes can
	// never drift apart.
	dependencyGraph struct {
		dependsOn  map[TransactionId]map[TransactionId]struct{}
		dependedBy map[TransactionId]map[TransactionId]struct{}
	}
)

func newDependencyGraph() *dependencyGraph {
	return &dependencyGraph{
		dependsOn:  make(map[TransactionId]map[TransactionId]struct{}),
		dependedBy: make(map[TransactionId]map[TransactionId]struct{}),
	}
}

// track records the waiter as deferred behind the given blockers.
func (g *dependencyGraph) track(waiter TransactionId, blockers map[TransactionId]struct{}) {
	assertf(len(blockers) > 0, "transaction %d tracked as deferred with no blockers", waiter)

	_, ok := g.dependsOn[waiter]
	assertf(!ok, "transaction %d tracked as deferred twice", waiter)

	g.dependsOn[waiter] = blockers
	for blocker := range blockers {
		waiters, ok := g.dependedBy[blocker]
		if !ok {
			waiters = make(map[TransactionId]struct{})
			g.dependedBy[blocker] = waiters
		}
		waiters[waiter] = struct{}{}
	}
}

// isDeferred reports whether the transaction is currently tracked as a waiter.
func (g *dependencyGraph) isDeferred(id TransactionId) bool {
	_, ok := g.dependsOn[id]
	return ok
}

// blockerCount returns how many unfinished transactions the waiter is still behind.
func (g *dependencyGraph) blockerCount(waiter TransactionId) int {
	return len(g.dependsOn[waiter])
}

// deferredIds returns every tracked waiter in id order.
func (g *dependencyGraph) deferredIds() []TransactionId {
	ids := make([]TransactionId, 0, len(g.dependsOn))
	for id := range g.dependsOn {
		ids = append(ids, id)
	}
	sortIds(ids)

	return ids
}

// complete removes the transaction as a blocker of every waiter behind it. This is the
// only way dependency sets shrink, called when the blocker finishes or is force
// released.
func (g *dependencyGraph) complete(blocker TransactionId) {
	for waiter := range g.dependedBy[blocker] {
		delete(g.dependsOn[waiter], blocker)
	}
	delete(g.dependedBy, blocker)
}

// release drops an empty waiter entry once the transaction starts. Its blocker-side
// edges were already removed one by one as the blockers completed.
func (g *dependencyGraph) release(waiter TransactionId) {
	assertf(len(g.dependsOn[waiter]) == 0, "transaction %d released with %d blockers left",
		waiter, len(g.dependsOn[waiter]))
	delete(g.dependsOn, waiter)
}

// detach cuts the transaction out of the graph in both directions: it stops blocking
// its waiters, as if it had finished, and it stops waiting on its own blockers. Used by
// the forced release path only.
func (g *dependencyGraph) detach(id TransactionId) {
	g.complete(id)

	for blocker := range g.dependsOn[id] {
		delete(g.dependedBy[blocker], id)
	}
	delete(g.dependsOn, id)
}
