package txnsim

import (
	"golang.org/x/net/trace"
)

type (
	// Transition is a lifecycle state change of a single transaction.
	Transition uint8

	// Event records one lifecycle transition at a simulated time. Events are diagnostic
	// only, correctness never depends on an observer being installed.
	Event struct {
		Time        float64
		Partition   PartitionId
		Transaction TransactionId
		Transition  Transition
	}

	// EventObserver receives every lifecycle transition a partition performs, in the
	// order they happen.
	EventObserver func(event Event)
)

const (
	TransitionSubmitted Transition = iota
	TransitionStarted
	TransitionDeferred
	TransitionForceReleased
	TransitionFinished
)

var transitionNames = [...]string{
	"submitted",
	"started",
	"deferred",
	"force-released",
	"finished",
}

func (t Transition) String() string {
	if int(t) >= len(transitionNames) {
		return "unknown"
	}

	return transitionNames[t]
}

var (
	// NoEventLog is used in place of a real trace event log when event logging is
	// disabled.
	NoEventLog trace.EventLog = nilEventLog{}
)

type nilEventLog struct{}

func (nel nilEventLog) Printf(format string, a ...interface{}) {}

func (nel nilEventLog) Errorf(format string, a ...interface{}) {}

func (nel nilEventLog) Finish() {}
