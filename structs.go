package txnsim

type (
	// TransactionId uniquely identifies a transaction within a single run. Every map in the
	// simulator is keyed by TransactionId; transaction structs are never used as map keys.
	TransactionId uint64

	// PartitionId identifies one shard of the keyspace. Partitions are fully independent and
	// never communicate.
	PartitionId uint32

	// Key is an address in the simulated keyspace.
	Key uint64

	// TransactionKind determines the effect a transaction has on the store when it finishes.
	TransactionKind uint8

	// Transaction is an immutable description of one client operation. Two transactions with
	// identical fields are still distinct entities, identity is the Id alone.
	Transaction struct {
		Id TransactionId

		Kind TransactionKind

		// SubmitTime is the simulated time in seconds at which the transaction becomes
		// eligible for scheduling.
		SubmitTime float64

		// ExecutionTime is the simulated duration in seconds consumed once started.
		ExecutionTime float64

		Key Key
	}
)

const (
	// Read reports the value of its key and leaves the store untouched.
	Read TransactionKind = iota

	// Overwrite blindly sets its key to zero.
	Overwrite

	// Increase adds one to the value its key had when the transaction started. Two
	// overlapping increases can snapshot the same base value and lose an update.
	Increase
)

var kindNames = [...]string{
	"READ",
	"OVERWRITE",
	"INCREASE",
}

func (k TransactionKind) String() string {
	if int(k) >= len(kindNames) {
		return "UNKNOWN"
	}

	return kindNames[k]
}
