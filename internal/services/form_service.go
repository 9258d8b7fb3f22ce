// Package services – FormService
//
// This file implements the conversational state machines: the multi-step
// creation flow, the single-field edit flow and the delete confirmation
// flow. A form session is an index into a declarative step list plus an
// accumulator; "next state" is simply "index + 1", so schema revisions
// change the step list, never the machine.
//
// Sessions are ephemeral and never persisted. They are keyed by
// (group, operator), advanced by one inbound input at a time, and
// discarded on completion, cancellation or a configurable idle timeout.
// Idle cleanup of the progress display is best-effort and never retried.
//
// Failure semantics on commit: the record does not exist until the store
// confirms the insert. If the insert fails the accumulator is preserved,
// the placeholder display is removed best-effort, and the error is
// surfaced so the operator can retry. Render failures after a committed
// write are absorbed and logged; they never roll the write back.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fieldwerk/go-report-backend/internal/conv"
	"github.com/fieldwerk/go-report-backend/internal/domain"
	"github.com/fieldwerk/go-report-backend/internal/format"
)

// ReportStore is the persistence contract the conversational flows need.
// *ReportService satisfies it; tests substitute fakes.
type ReportStore interface {
	Create(ctx context.Context, groupID, messageID int64, d domain.ReportDraft) (*domain.Report, error)
	Get(ctx context.Context, groupID, messageID int64) (*domain.Report, error)
	UpdateField(ctx context.Context, groupID, messageID int64, field, value string) error
	SetStatus(ctx context.Context, groupID, messageID int64, status string) error
	Toggle(ctx context.Context, groupID, messageID int64) (*domain.Report, error)
	Delete(ctx context.Context, groupID, messageID int64) error
	ListPage(ctx context.Context, groupID int64, page int) ([]domain.Report, int64, int, error)
	Reassign(ctx context.Context, oldGroupID, messageID, newGroupID int64) error
}

// DefaultIdleTimeout discards form sessions after this much inactivity.
const DefaultIdleTimeout = 10 * time.Minute

// sessionKey scopes every conversational context to one operator in one
// group. Two operators in the same group hold independent sessions.
type sessionKey struct {
	GroupID    int64
	OperatorID int64
}

// formSession accumulates field values for one in-progress creation.
type formSession struct {
	groupID       int64 // follows platform migrations
	steps         []domain.FormStep
	idx           int
	draft         domain.ReportDraft
	progressMsgID int64
	lastActive    time.Time
}

// editState is the local context of a single-field edit flow.
type editState struct {
	groupID    int64
	messageID  int64
	draft      domain.ReportDraft
	status     string
	createdAt  time.Time
	field      string // empty until a field is selected
	lastActive time.Time
}

// deleteState is the pending confirmation of a delete flow.
type deleteState struct {
	groupID    int64
	messageID  int64
	lastActive time.Time
}

// flowLock serializes the conversational contexts of one operator in one
// group: an inbound event is handled to completion, renders included,
// before the next event for the same key may touch the state. Entries are
// reference-counted so the map never outgrows the set of in-flight keys.
type flowLock struct {
	mu   sync.Mutex
	refs int
}

// editableFields are the fields the edit flow offers, in display order.
var editableFields = []string{
	domain.FieldAddress,
	domain.FieldMaterials,
	domain.FieldExtraNotes,
}

// editFieldLabels are the button labels for the edit-field picker.
var editFieldLabels = map[string]string{
	domain.FieldAddress:       "Address",
	domain.FieldMaterials:     "Materials",
	domain.FieldExtraNotes:    "Extra notes",
	domain.FieldClientName:    "Client",
	domain.FieldScheduledDate: "Scheduled date",
}

// FormService drives the creation, edit and delete state machines.
type FormService struct {
	Store     ReportStore
	Renderer  conv.Renderer
	Formatter *format.Formatter

	// Steps is the declarative collection sequence; DefaultFormSteps
	// when nil.
	Steps []domain.FormStep
	// IdleTimeout discards inactive sessions; DefaultIdleTimeout when 0.
	IdleTimeout time.Duration

	// now is a test seam.
	now func() time.Time

	mu       sync.Mutex
	sessions map[sessionKey]*formSession
	edits    map[sessionKey]*editState
	deletes  map[sessionKey]*deleteState
	flows    map[sessionKey]*flowLock
}

// NewFormService constructs a FormService with default steps and timeout.
func NewFormService(store ReportStore, r conv.Renderer, f *format.Formatter) *FormService {
	return &FormService{
		Store:       store,
		Renderer:    r,
		Formatter:   f,
		Steps:       domain.DefaultFormSteps(),
		IdleTimeout: DefaultIdleTimeout,
		now:         time.Now,
		sessions:    map[sessionKey]*formSession{},
		edits:       map[sessionKey]*editState{},
		deletes:     map[sessionKey]*deleteState{},
		flows:       map[sessionKey]*flowLock{},
	}
}

// lockFlow takes the per-key lock. The returned release must be called
// exactly once; the last holder to release drops the map entry.
func (s *FormService) lockFlow(key sessionKey) (release func()) {
	s.mu.Lock()
	if s.flows == nil {
		s.flows = map[sessionKey]*flowLock{}
	}
	l := s.flows[key]
	if l == nil {
		l = &flowLock{}
		s.flows[key] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.flows, key)
		}
		s.mu.Unlock()
	}
}

func (s *FormService) clock() time.Time {
	if s.now == nil {
		return time.Now()
	}
	return s.now()
}

func (s *FormService) steps() []domain.FormStep {
	if len(s.Steps) > 0 {
		return s.Steps
	}
	return domain.DefaultFormSteps()
}

func (s *FormService) idleTimeout() time.Duration {
	if s.IdleTimeout > 0 {
		return s.IdleTimeout
	}
	return DefaultIdleTimeout
}

// ShowMenu posts the top-level action menu.
func (s *FormService) ShowMenu(ctx context.Context, groupID int64) error {
	_, _, err := s.post(ctx, groupID, "🔧 What would you like to do?", conv.MenuControls())
	return err
}

//
// Creation flow
//

// StartCreate opens a new form session for the operator and posts the
// progress display showing the first prompt. Any previous session for the
// same operator context is discarded first (its display removed
// best-effort), matching a fresh menu entry.
func (s *FormService) StartCreate(ctx context.Context, groupID, operatorID int64) error {
	key := sessionKey{GroupID: groupID, OperatorID: operatorID}
	defer s.lockFlow(key)()

	s.mu.Lock()
	if old, ok := s.sessions[key]; ok {
		delete(s.sessions, key)
		s.mu.Unlock()
		s.discardDisplay(ctx, old.groupID, old.progressMsgID)
		s.mu.Lock()
	}
	delete(s.edits, key)
	delete(s.deletes, key)
	s.mu.Unlock()

	steps := s.steps()
	sess := &formSession{
		groupID:    groupID,
		steps:      steps,
		lastActive: s.clock(),
	}
	text := s.Formatter.RenderProgress(sess.draft, steps, 0)
	msgID, actualGroup, err := s.post(ctx, groupID, text, conv.CancelControls(steps[0].Optional))
	if err != nil {
		return err
	}
	sess.groupID = actualGroup
	sess.progressMsgID = msgID

	s.mu.Lock()
	s.sessions[sessionKey{GroupID: groupID, OperatorID: operatorID}] = sess
	s.mu.Unlock()
	return nil
}

// HandleText routes a free-text input to whichever flow is awaiting it:
// a pending edit value first, then the creation flow. Text arriving while
// the field picker is still open returns ErrNoFieldSelected; text with no
// flow in progress returns ErrNoSession. The shell ignores both.
func (s *FormService) HandleText(ctx context.Context, groupID, operatorID int64, text string) error {
	trimmed := trimInput(text)
	if trimmed == "" {
		return ErrEmptyInput
	}
	key := sessionKey{GroupID: groupID, OperatorID: operatorID}
	defer s.lockFlow(key)()

	s.mu.Lock()
	if st, ok := s.edits[key]; ok {
		if s.expired(st.lastActive) {
			delete(s.edits, key)
			s.mu.Unlock()
			return ErrNoSession
		}
		if st.field == "" {
			s.mu.Unlock()
			return ErrNoFieldSelected
		}
		st.lastActive = s.clock()
		s.mu.Unlock()
		return s.submitEditValue(ctx, key, st, trimmed)
	}
	sess, ok := s.sessions[key]
	if !ok {
		s.mu.Unlock()
		return ErrNoSession
	}
	if s.expired(sess.lastActive) {
		delete(s.sessions, key)
		s.mu.Unlock()
		s.discardDisplay(ctx, sess.groupID, sess.progressMsgID)
		return ErrNoSession
	}
	sess.lastActive = s.clock()
	s.mu.Unlock()

	step := sess.steps[sess.idx]
	sess.draft.Set(step.Field, trimmed)
	return s.advance(ctx, key, sess)
}

// Skip advances past the current step without a value. Only optional
// steps expose this transition.
func (s *FormService) Skip(ctx context.Context, groupID, operatorID int64) error {
	key := sessionKey{GroupID: groupID, OperatorID: operatorID}
	defer s.lockFlow(key)()

	s.mu.Lock()
	sess, ok := s.sessions[key]
	if !ok {
		s.mu.Unlock()
		return ErrNoSession
	}
	if s.expired(sess.lastActive) {
		delete(s.sessions, key)
		s.mu.Unlock()
		s.discardDisplay(ctx, sess.groupID, sess.progressMsgID)
		return ErrNoSession
	}
	if !sess.steps[sess.idx].Optional {
		s.mu.Unlock()
		return ErrNotOptional
	}
	sess.lastActive = s.clock()
	s.mu.Unlock()

	return s.advance(ctx, key, sess)
}

// CancelCreate discards the session and removes its progress display.
// Cancellation is synchronous and immediate; nothing is persisted.
func (s *FormService) CancelCreate(ctx context.Context, groupID, operatorID int64) error {
	key := sessionKey{GroupID: groupID, OperatorID: operatorID}
	defer s.lockFlow(key)()

	s.mu.Lock()
	sess, ok := s.sessions[key]
	delete(s.sessions, key)
	s.mu.Unlock()
	if !ok {
		return ErrNoSession
	}

	s.discardDisplay(ctx, sess.groupID, sess.progressMsgID)
	s.notify(ctx, sess.groupID, "❌ Adding cancelled.", conv.MenuControls())
	return nil
}

// advance moves to the next step, or commits when the last step is done.
// The step index only moves forward on success: a failed commit leaves
// the session on its final step so the operator's input is not lost.
func (s *FormService) advance(ctx context.Context, key sessionKey, sess *formSession) error {
	if sess.idx+1 >= len(sess.steps) {
		if err := s.commit(ctx, key, sess); err != nil {
			return err
		}
		return nil
	}

	sess.idx++
	next := sess.steps[sess.idx]
	text := s.Formatter.RenderProgress(sess.draft, sess.steps, sess.idx)
	actualGroup, err := s.edit(ctx, sess.groupID, sess.progressMsgID, text, conv.CancelControls(next.Optional))
	sess.groupID = actualGroup
	if err != nil {
		// The progress display is presentation only; the session carries on.
		log.Error().Err(err).Int64("group_id", sess.groupID).Msg("progress display update failed")
	}
	return nil
}

// commit finalizes a completed session: it posts the placeholder message
// whose id becomes the record's addressing key, persists the record, then
// renders the final report in place and removes the progress display.
func (s *FormService) commit(ctx context.Context, key sessionKey, sess *formSession) error {
	placeholderID, actualGroup, err := s.post(ctx, sess.groupID, "⏳ Adding report…", conv.ReportControls(domain.StatusPending))
	if err != nil {
		// No display, no addressing key; keep the accumulator for a retry.
		return fmt.Errorf("posting report display: %w", err)
	}
	sess.groupID = actualGroup

	r, err := s.Store.Create(ctx, sess.groupID, placeholderID, sess.draft)
	if err != nil {
		// Not created: remove the dangling display, keep the session.
		s.discardDisplay(ctx, sess.groupID, placeholderID)
		return fmt.Errorf("persisting report: %w", err)
	}

	// Durable from here on. Everything below is best-effort presentation.
	if _, err := s.edit(ctx, sess.groupID, placeholderID, s.Formatter.Render(r), conv.ReportControls(r.Status)); err != nil {
		log.Error().Err(err).Int64("group_id", sess.groupID).Int64("message_id", placeholderID).
			Msg("final report render failed")
	}
	s.discardDisplay(ctx, sess.groupID, sess.progressMsgID)
	s.notify(ctx, sess.groupID, "✅ Report added.", conv.MenuControls())

	s.mu.Lock()
	delete(s.sessions, key)
	s.mu.Unlock()
	return nil
}

//
// Edit flow
//

// StartEdit opens the field picker for an existing report. The record is
// loaded from the store; if the row is missing the displayed text is
// parsed best-effort so legacy reports stay editable.
func (s *FormService) StartEdit(ctx context.Context, groupID, operatorID, messageID int64, displayedText string) error {
	key := sessionKey{GroupID: groupID, OperatorID: operatorID}
	defer s.lockFlow(key)()

	st := &editState{
		groupID:    groupID,
		messageID:  messageID,
		status:     domain.StatusPending,
		lastActive: s.clock(),
	}
	r, err := s.Store.Get(ctx, groupID, messageID)
	switch {
	case err == nil:
		st.draft = domain.DraftOf(r)
		st.status = r.Status
		st.createdAt = r.CreatedAt
	case errors.Is(err, ErrReportNotFound):
		st.draft = format.ParseLegacy(displayedText)
	default:
		return err
	}

	s.mu.Lock()
	s.edits[key] = st
	delete(s.deletes, key)
	s.mu.Unlock()

	if _, err := s.edit(ctx, groupID, messageID, s.renderEditContext(st), conv.EditFieldControls(editableFields, editFieldLabels)); err != nil {
		log.Error().Err(err).Int64("group_id", groupID).Int64("message_id", messageID).
			Msg("edit picker render failed")
	}
	return nil
}

// SelectEditField records which field the next text input will replace.
func (s *FormService) SelectEditField(ctx context.Context, groupID, operatorID int64, field string) error {
	allowed := false
	for _, f := range editableFields {
		if f == field {
			allowed = true
			break
		}
	}
	if !allowed {
		return ErrInvalidField
	}

	key := sessionKey{GroupID: groupID, OperatorID: operatorID}
	defer s.lockFlow(key)()

	s.mu.Lock()
	st, ok := s.edits[key]
	if !ok || s.expired(st.lastActive) {
		delete(s.edits, key)
		s.mu.Unlock()
		return ErrNoSession
	}
	st.field = field
	st.lastActive = s.clock()
	s.mu.Unlock()

	prompt := "✏️ New " + editFieldLabels[field] + ":"
	if _, err := s.edit(ctx, st.groupID, st.messageID, prompt, conv.ControlGrid{{{Label: "❌ Cancel", Action: conv.KindCancelEdit}}}); err != nil {
		log.Error().Err(err).Int64("group_id", st.groupID).Msg("edit prompt render failed")
	}
	return nil
}

// CancelEdit abandons the edit flow and restores the record display.
func (s *FormService) CancelEdit(ctx context.Context, groupID, operatorID int64) error {
	key := sessionKey{GroupID: groupID, OperatorID: operatorID}
	defer s.lockFlow(key)()

	s.mu.Lock()
	st, ok := s.edits[key]
	delete(s.edits, key)
	s.mu.Unlock()
	if !ok {
		return ErrNoSession
	}

	s.restoreRecordDisplay(ctx, st.groupID, st.messageID)
	return nil
}

// submitEditValue persists the new field value, then re-renders the record
// in place with its current status preserved.
func (s *FormService) submitEditValue(ctx context.Context, key sessionKey, st *editState, value string) error {
	err := s.Store.UpdateField(ctx, st.groupID, st.messageID, st.field, value)
	if err != nil {
		if newGroup, ok := conv.MigratedTo(err); ok {
			// Follow the platform's renumbering once, keeping the store consistent.
			_ = s.Store.Reassign(ctx, st.groupID, st.messageID, newGroup)
			st.groupID = newGroup
			err = s.Store.UpdateField(ctx, st.groupID, st.messageID, st.field, value)
		}
	}
	if err != nil {
		// ErrInvalidField is a contract violation and must stay loud; a
		// missing row means the record was deleted underneath the flow.
		return err
	}

	label := editFieldLabels[st.field]
	st.draft.Set(st.field, value)
	st.field = ""

	r, gerr := s.Store.Get(ctx, st.groupID, st.messageID)
	var text string
	var status string
	if gerr == nil {
		text = s.Formatter.Render(r)
		status = r.Status
	} else {
		// Fall back to the local edit context.
		text = s.renderEditContext(st)
		status = st.status
	}
	if _, rerr := s.edit(ctx, st.groupID, st.messageID, text, conv.ReportControls(status)); rerr != nil {
		log.Error().Err(rerr).Int64("group_id", st.groupID).Int64("message_id", st.messageID).
			Msg("record re-render failed after edit")
	}
	s.notify(ctx, st.groupID, "✅ "+label+" updated.", conv.MenuControls())

	s.mu.Lock()
	delete(s.edits, key)
	s.mu.Unlock()
	return nil
}

//
// Delete flow
//

// RequestDelete swaps the record display for a confirmation prompt.
func (s *FormService) RequestDelete(ctx context.Context, groupID, operatorID, messageID int64) error {
	key := sessionKey{GroupID: groupID, OperatorID: operatorID}
	defer s.lockFlow(key)()

	s.mu.Lock()
	s.deletes[key] = &deleteState{groupID: groupID, messageID: messageID, lastActive: s.clock()}
	delete(s.edits, key)
	s.mu.Unlock()

	if _, err := s.edit(ctx, groupID, messageID, "⚠️ Confirm deletion?", conv.ConfirmDeleteControls()); err != nil {
		log.Error().Err(err).Int64("group_id", groupID).Int64("message_id", messageID).
			Msg("delete confirmation render failed")
	}
	return nil
}

// ConfirmDelete removes the record row and its rendered message. The row
// delete commits first; display removal is best-effort.
func (s *FormService) ConfirmDelete(ctx context.Context, groupID, operatorID int64) error {
	key := sessionKey{GroupID: groupID, OperatorID: operatorID}
	defer s.lockFlow(key)()

	s.mu.Lock()
	st, ok := s.deletes[key]
	delete(s.deletes, key)
	s.mu.Unlock()
	if !ok {
		return ErrNoSession
	}

	if err := s.Store.Delete(ctx, st.groupID, st.messageID); err != nil {
		if newGroup, ok := conv.MigratedTo(err); ok {
			_ = s.Store.Reassign(ctx, st.groupID, st.messageID, newGroup)
			st.groupID = newGroup
			err = s.Store.Delete(ctx, st.groupID, st.messageID)
		}
		if err != nil {
			s.notify(ctx, st.groupID, "❌ Deletion failed.", conv.MenuControls())
			return err
		}
	}

	s.discardDisplay(ctx, st.groupID, st.messageID)
	s.notify(ctx, st.groupID, "✅ Report deleted.", conv.MenuControls())
	return nil
}

// CancelDelete restores the record display and leaves everything unchanged.
func (s *FormService) CancelDelete(ctx context.Context, groupID, operatorID int64) error {
	key := sessionKey{GroupID: groupID, OperatorID: operatorID}
	defer s.lockFlow(key)()

	s.mu.Lock()
	st, ok := s.deletes[key]
	delete(s.deletes, key)
	s.mu.Unlock()
	if !ok {
		return ErrNoSession
	}

	s.restoreRecordDisplay(ctx, st.groupID, st.messageID)
	s.notify(ctx, st.groupID, "❌ Deletion cancelled.", conv.MenuControls())
	return nil
}

//
// Idle expiry
//

// Sweep drops every context idle past the timeout. Progress displays of
// expired creation sessions are removed best-effort, once. Each candidate
// is re-checked under its flow lock so a sweep never races an in-flight
// event for the same key.
func (s *FormService) Sweep(ctx context.Context) {
	candidates := map[sessionKey]struct{}{}

	s.mu.Lock()
	for key, sess := range s.sessions {
		if s.expired(sess.lastActive) {
			candidates[key] = struct{}{}
		}
	}
	for key, st := range s.edits {
		if s.expired(st.lastActive) {
			candidates[key] = struct{}{}
		}
	}
	for key, st := range s.deletes {
		if s.expired(st.lastActive) {
			candidates[key] = struct{}{}
		}
	}
	s.mu.Unlock()

	for key := range candidates {
		release := s.lockFlow(key)

		var displays []struct{ group, msg int64 }
		s.mu.Lock()
		if sess, ok := s.sessions[key]; ok && s.expired(sess.lastActive) {
			displays = append(displays, struct{ group, msg int64 }{sess.groupID, sess.progressMsgID})
			delete(s.sessions, key)
		}
		if st, ok := s.edits[key]; ok && s.expired(st.lastActive) {
			delete(s.edits, key)
		}
		if st, ok := s.deletes[key]; ok && s.expired(st.lastActive) {
			delete(s.deletes, key)
		}
		s.mu.Unlock()

		for _, d := range displays {
			s.discardDisplay(ctx, d.group, d.msg)
		}
		release()
	}
}

// StartSweeper runs Sweep on the given interval until the returned stop
// function is called.
func (s *FormService) StartSweeper(interval time.Duration) (stop func()) {
	if interval <= 0 {
		interval = time.Minute
	}
	done := make(chan struct{})
	ticker := time.NewTicker(interval)
	go func() {
		for {
			select {
			case <-ticker.C:
				s.Sweep(context.Background())
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()
	var once sync.Once
	return func() { once.Do(func() { close(done) }) }
}

func (s *FormService) expired(last time.Time) bool {
	return s.clock().Sub(last) > s.idleTimeout()
}

//
// Render helpers
//

// post sends a message, transparently following a group migration once.
func (s *FormService) post(ctx context.Context, groupID int64, text string, controls conv.ControlGrid) (int64, int64, error) {
	id, err := s.Renderer.Post(ctx, groupID, text, controls)
	if newGroup, ok := conv.MigratedTo(err); ok {
		log.Info().Int64("old_group", groupID).Int64("new_group", newGroup).Msg("group migrated")
		id, err = s.Renderer.Post(ctx, newGroup, text, controls)
		return id, newGroup, err
	}
	return id, groupID, err
}

// edit updates a message in place, following a group migration once and
// reassigning the backing row when one exists under the old key.
func (s *FormService) edit(ctx context.Context, groupID, messageID int64, text string, controls conv.ControlGrid) (int64, error) {
	err := s.Renderer.Edit(ctx, groupID, messageID, text, controls)
	if newGroup, ok := conv.MigratedTo(err); ok {
		log.Info().Int64("old_group", groupID).Int64("new_group", newGroup).Msg("group migrated")
		_ = s.Store.Reassign(ctx, groupID, messageID, newGroup)
		return newGroup, s.Renderer.Edit(ctx, newGroup, messageID, text, controls)
	}
	return groupID, err
}

// discardDisplay deletes a message best-effort. The display may already
// be gone; that is fine and only worth a debug line.
func (s *FormService) discardDisplay(ctx context.Context, groupID, messageID int64) {
	if messageID == 0 {
		return
	}
	if err := s.Renderer.Delete(ctx, groupID, messageID); err != nil {
		if newGroup, ok := conv.MigratedTo(err); ok {
			if err = s.Renderer.Delete(ctx, newGroup, messageID); err == nil {
				return
			}
		}
		log.Debug().Err(err).Int64("group_id", groupID).Int64("message_id", messageID).
			Msg("display cleanup skipped")
	}
}

// notify posts a short confirmation with the menu attached, best-effort.
func (s *FormService) notify(ctx context.Context, groupID int64, text string, controls conv.ControlGrid) {
	if _, _, err := s.post(ctx, groupID, text, controls); err != nil {
		log.Error().Err(err).Int64("group_id", groupID).Msg("notice delivery failed")
	}
}

// restoreRecordDisplay re-renders a record message with its action
// controls, falling back to the menu when the row no longer exists.
func (s *FormService) restoreRecordDisplay(ctx context.Context, groupID, messageID int64) {
	r, err := s.Store.Get(ctx, groupID, messageID)
	if err != nil {
		s.notify(ctx, groupID, "❌ Editing cancelled.", conv.MenuControls())
		return
	}
	if _, err := s.edit(ctx, groupID, messageID, s.Formatter.Render(r), conv.ReportControls(r.Status)); err != nil {
		log.Error().Err(err).Int64("group_id", groupID).Int64("message_id", messageID).
			Msg("record restore render failed")
	}
}

// renderEditContext renders the edit flow's local view of a record, used
// when the backing row is unavailable.
func (s *FormService) renderEditContext(st *editState) string {
	r := &domain.Report{
		MessageID:     st.messageID,
		GroupID:       st.groupID,
		ClientName:    st.draft.ClientName,
		Address:       st.draft.Address,
		ExtraNotes:    st.draft.ExtraNotes,
		Materials:     st.draft.Materials,
		ScheduledDate: st.draft.ScheduledDate,
		Status:        st.status,
		CreatedAt:     st.createdAt,
	}
	return s.Formatter.Render(r)
}

// trimInput normalizes operator text: surrounding whitespace is never
// meaningful in collected fields.
func trimInput(s string) string {
	return strings.TrimSpace(s)
}
