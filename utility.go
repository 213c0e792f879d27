package txnsim

import (
	"github.com/pkg/errors"
)

// assertf panics when the condition does not hold. Bookkeeping failures inside the
// scheduler are programming defects, not runtime conditions, so they are surfaced
// immediately rather than returned.
func assertf(condition bool, format string, args ...interface{}) {
	if !condition {
		panic(errors.Errorf(format, args...))
	}
}
