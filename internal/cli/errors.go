package cli

import (
	"errors"
	"fmt"
)

// ErrUsage matches errors caused by how orval was invoked rather than by the
// document's contents: bad flags or config, unreadable input, an occupied
// output directory.
var ErrUsage = errors.New("cli usage error")

type usageError struct {
	msg string
}

func newUsageError(msg string) error { return usageError{msg: msg} }

func usagef(format string, args ...any) error {
	return usageError{msg: fmt.Sprintf(format, args...)}
}

func (e usageError) Error() string { return e.msg }

func (e usageError) Is(target error) bool { return target == ErrUsage }
