// Package conv defines the boundary contracts between the core and the
// dispatch shell: the inbound action-token vocabulary, the outbound
// Renderer interface, and the control-grid data model the shell turns
// into buttons.
//
// Action tokens are opaque strings the shell routes unchanged. Everything
// a token carries (a target page, an addressing key) is encoded in the
// token itself, so flows like list navigation are stateless and safe for
// concurrent operators.
package conv

import (
	"fmt"
	"strconv"
	"strings"
)

// Action kinds. Parameterized tokens append their arguments after a colon
// and are built with the helper constructors below.
const (
	KindCreateReport  = "report_create"
	KindCancelCreate  = "report_create_cancel"
	KindSkipField     = "report_skip_field"
	KindEditReport    = "report_edit"
	KindEditField     = "report_edit_field"
	KindCancelEdit    = "report_edit_cancel"
	KindDeleteReport  = "report_delete"
	KindConfirmDelete = "report_delete_confirm"
	KindCancelDelete  = "report_delete_cancel"
	KindToggleStatus  = "report_toggle_status"
	KindListPage      = "report_list_page"
	KindStatusPage    = "status_list_page"
	KindStatusSelect  = "status_select"
	KindMenu          = "menu"
	KindNoop          = "noop"
)

// Action is a decoded inbound token.
type Action struct {
	Kind string
	// Field is set for edit-field tokens.
	Field string
	// Page is set for list-page, status-page and status-select tokens.
	Page int
	// MessageID is set for status-select tokens.
	MessageID int64
}

// EditFieldToken returns the token selecting a field in the edit flow.
func EditFieldToken(field string) string {
	return KindEditField + ":" + field
}

// ListPageToken returns the token requesting a list page.
func ListPageToken(page int) string {
	return KindListPage + ":" + strconv.Itoa(page)
}

// StatusPageToken returns the token requesting a status-board page.
func StatusPageToken(page int) string {
	return KindStatusPage + ":" + strconv.Itoa(page)
}

// StatusSelectToken returns the token toggling one report from the status
// board. The current page rides along so the refreshed board stays where
// the operator was.
func StatusSelectToken(messageID int64, page int) string {
	return KindStatusSelect + ":" + strconv.FormatInt(messageID, 10) + ":" + strconv.Itoa(page)
}

// ParseAction decodes an inbound token. Unknown kinds and malformed
// arguments are errors; the shell should answer them with a generic
// invalid-selection notice rather than crash a flow.
func ParseAction(data string) (Action, error) {
	kind, rest, hasArgs := strings.Cut(data, ":")

	switch kind {
	case KindCreateReport, KindCancelCreate, KindSkipField,
		KindEditReport, KindCancelEdit,
		KindDeleteReport, KindConfirmDelete, KindCancelDelete,
		KindToggleStatus, KindMenu, KindNoop:
		if hasArgs {
			return Action{}, fmt.Errorf("token %q takes no arguments", kind)
		}
		return Action{Kind: kind}, nil

	case KindEditField:
		if rest == "" {
			return Action{}, fmt.Errorf("edit-field token missing field name")
		}
		return Action{Kind: kind, Field: rest}, nil

	case KindListPage, KindStatusPage:
		page, err := strconv.Atoi(rest)
		if err != nil || page < 0 {
			return Action{}, fmt.Errorf("token %q has invalid page %q", kind, rest)
		}
		return Action{Kind: kind, Page: page}, nil

	case KindStatusSelect:
		msgPart, pagePart, ok := strings.Cut(rest, ":")
		if !ok {
			return Action{}, fmt.Errorf("status-select token missing page")
		}
		msgID, err := strconv.ParseInt(msgPart, 10, 64)
		if err != nil {
			return Action{}, fmt.Errorf("status-select token has invalid message id %q", msgPart)
		}
		page, err := strconv.Atoi(pagePart)
		if err != nil || page < 0 {
			return Action{}, fmt.Errorf("status-select token has invalid page %q", pagePart)
		}
		return Action{Kind: kind, MessageID: msgID, Page: page}, nil
	}

	return Action{}, fmt.Errorf("unknown action token %q", data)
}
