package dashboard

import (
	"context"
	"errors"
	"fmt"

	"github.com/johnwards/dashgate/internal/gateway"
)

// ErrStaleRead matches every *StaleReadError.
var ErrStaleRead = errors.New("write applied, refresh failed")

// StaleReadError reports a mutation the server accepted whose follow-up
// read failed. The caller's view of the resource is stale; the write must not
// be retried blindly.
type StaleReadError struct {
	Op  string
	Err error
}

func (e *StaleReadError) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.Op, ErrStaleRead, e.Err)
}

// Unwrap exposes both ErrStaleRead and the read failure.
func (e *StaleReadError) Unwrap() []error {
	return []error{ErrStaleRead, e.Err}
}

// write is one mutating request.
type write struct {
	op     string
	path   string
	method gateway.Method
	body   any
}

// writeThenRead sends w, discards its response, then reads and validates the
// canonical list at listPath. A failed write is returned unchanged and no
// read is issued.
func writeThenRead[T any](ctx context.Context, c *Client, w write, listPath string, decode func(any) ([]T, error)) ([]T, error) {
	if err := c.t.Mutate(ctx, w.path, w.method, w.body); err != nil {
		return nil, err
	}
	out, err := read(ctx, c.t, listPath, decode)
	if err != nil {
		c.logger.WarnContext(ctx, "refresh after write failed",
			"op", w.op,
			"path", listPath,
			"error", err,
		)
		return nil, &StaleReadError{Op: w.op, Err: err}
	}
	return out, nil
}
