package tracker

import (
	"fmt"
	"log/slog"

	"go.uber.org/multierr"
)

// CascadeFailure is one dependent record a cascade could not rewrite.
type CascadeFailure struct {
	Entity string `json:"entity"`
	ID     string `json:"id"`
	Err    error  `json:"-"`
}

// CascadeError reports the dependent writes that failed during a cascade.
// The triggering write is already committed, as are every other dependent
// write; cascades do not roll back.
type CascadeError struct {
	Op        string
	ParentID  string
	Attempted int
	Failures  []CascadeFailure
	err       error
}

func (e *CascadeError) Error() string {
	return fmt.Sprintf("%s %s: %d of %d dependent writes failed: %v",
		e.Op, e.ParentID, len(e.Failures), e.Attempted, e.err)
}

func (e *CascadeError) Unwrap() []error {
	return multierr.Errors(e.err)
}

// cascade runs independent dependent writes, continuing past failures.
type cascade struct {
	op       string
	parentID string
	logger   *slog.Logger

	attempted int
	failures  []CascadeFailure
	err       error
}

func (s *Service) newCascade(op, parentID string) *cascade {
	return &cascade{op: op, parentID: parentID, logger: s.logger}
}

func (c *cascade) record(entity, id string, err error) {
	c.attempted++
	if err == nil {
		return
	}
	c.logger.Warn("cascade write failed", "op", c.op, "parent_id", c.parentID, "entity", entity, "id", id, "error", err)
	c.failures = append(c.failures, CascadeFailure{Entity: entity, ID: id, Err: err})
	c.err = multierr.Append(c.err, fmt.Errorf("%s %s: %w", entity, id, err))
}

// abort records a failure that prevented the remaining writes of one step
// from being attempted, such as a failed lookup of the dependents.
func (c *cascade) abort(entity string, err error) {
	c.logger.Warn("cascade lookup failed", "op", c.op, "parent_id", c.parentID, "entity", entity, "error", err)
	c.failures = append(c.failures, CascadeFailure{Entity: entity, Err: err})
	c.err = multierr.Append(c.err, fmt.Errorf("list %s: %w", entity, err))
}

func (c *cascade) result() error {
	c.logger.Debug("cascade finished", "op", c.op, "parent_id", c.parentID, "attempted", c.attempted, "failed", len(c.failures))
	if len(c.failures) == 0 {
		return nil
	}
	return &CascadeError{
		Op:        c.op,
		ParentID:  c.parentID,
		Attempted: c.attempted,
		Failures:  c.failures,
		err:       c.err,
	}
}
