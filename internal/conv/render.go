package conv

import (
	"context"
	"errors"
	"fmt"
)

// Renderer is the outbound half of the dispatch boundary. The shell
// implements it on top of the actual chat platform; the core calls it and
// never assumes delivery succeeds.
//
// Every method may fail with *RenderError (display gone, permissions
// changed) or *GroupMigratedError (the platform renumbered the group).
// Persistence always commits before a render is attempted, so a render
// failure never rolls back a store write.
type Renderer interface {
	// Post sends a new message into a group and returns its message id.
	Post(ctx context.Context, groupID int64, text string, controls ControlGrid) (int64, error)
	// Edit replaces the text and controls of an existing message.
	Edit(ctx context.Context, groupID, messageID int64, text string, controls ControlGrid) error
	// Delete removes a message from the group's timeline.
	Delete(ctx context.Context, groupID, messageID int64) error
}

// RenderError wraps a delivery failure reported by the shell. It is
// absorbed at the point of the render call: logged, optionally reduced to
// a generic notice, never propagated past the handler that rendered.
type RenderError struct {
	Op  string // "post", "edit" or "delete"
	Err error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s failed: %v", e.Op, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// GroupMigratedError reports that the hosting platform reassigned the
// group's identifier mid-operation. This is an expected environmental
// event, not a failure: callers retry once against NewGroupID and move
// affected store rows via the store's reassign operation.
type GroupMigratedError struct {
	NewGroupID int64
}

func (e *GroupMigratedError) Error() string {
	return fmt.Sprintf("group migrated to %d", e.NewGroupID)
}

// MigratedTo extracts the new group id from a migration error chain.
func MigratedTo(err error) (int64, bool) {
	var m *GroupMigratedError
	if errors.As(err, &m) {
		return m.NewGroupID, true
	}
	return 0, false
}

// IsRenderFailure reports whether err is a delivery failure (as opposed
// to a migration, which callers handle separately).
func IsRenderFailure(err error) bool {
	var r *RenderError
	return errors.As(err, &r)
}
