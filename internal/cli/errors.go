package cli

import (
	"errors"
	"fmt"

	"github.com/mark3labs/apiscan/internal/spec"
)

var ErrUsage = errors.New("cli usage error")

type usageError struct {
	msg string
}

func newUsageError(msg string) error {
	return usageError{msg: msg}
}

func usageErrorf(format string, args ...any) error {
	return usageError{msg: fmt.Sprintf(format, args...)}
}

func (e usageError) Error() string {
	return e.msg
}

func (e usageError) Is(target error) bool {
	return target == ErrUsage
}

// userFacing turns errors caused by what the user asked for, such as an
// unknown plugin, into usage errors. Anything else is returned unchanged.
func userFacing(err error) error {
	if err == nil {
		return nil
	}
	var se *spec.ScanError
	if errors.As(err, &se) && (se.Code == spec.InputError || errors.Is(se, spec.ErrNotFound)) {
		return newUsageError(se.Error())
	}
	return err
}
