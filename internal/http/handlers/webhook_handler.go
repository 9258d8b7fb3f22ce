// Webhook HTTP handler.
//
// This file exposes the single inbound endpoint of the service:
//   - POST /webhook   (one conversational update per delivery)
//
// The handler is transport-thin: it validates the delivery payload, parses
// the control action token when one is present, and routes the update to the
// conversational services. All chat-facing output happens through the
// services' renderer; the HTTP response is only an acknowledgement for the
// webhook sender.
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fieldwerk/go-report-backend/internal/conv"
	"github.com/fieldwerk/go-report-backend/internal/http/middleware"
	"github.com/fieldwerk/go-report-backend/internal/services"
)

//
// Service contracts (context-aware)
//

// FormFlows drives the creation, edit and delete conversations.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type FormFlows interface {
	ShowMenu(ctx context.Context, groupID int64) error
	StartCreate(ctx context.Context, groupID, operatorID int64) error
	HandleText(ctx context.Context, groupID, operatorID int64, text string) error
	Skip(ctx context.Context, groupID, operatorID int64) error
	CancelCreate(ctx context.Context, groupID, operatorID int64) error
	StartEdit(ctx context.Context, groupID, operatorID, messageID int64, displayedText string) error
	SelectEditField(ctx context.Context, groupID, operatorID int64, field string) error
	CancelEdit(ctx context.Context, groupID, operatorID int64) error
	RequestDelete(ctx context.Context, groupID, operatorID, messageID int64) error
	ConfirmDelete(ctx context.Context, groupID, operatorID int64) error
	CancelDelete(ctx context.Context, groupID, operatorID int64) error
}

// StatusFlows drives the report list and status board views.
type StatusFlows interface {
	ShowList(ctx context.Context, groupID, anchorMsgID int64, page int) error
	ShowStatusBoard(ctx context.Context, groupID, anchorMsgID int64, page int) error
	ToggleFromList(ctx context.Context, groupID, anchorMsgID, reportMsgID int64, page int) error
	ToggleStandalone(ctx context.Context, groupID, messageID int64) error
}

// Handlers bundles the webhook endpoint dependencies.
type Handlers struct {
	form   FormFlows
	status StatusFlows
	auth   *services.Authorizer
}

// New constructs a Handlers instance bound to the given services.
func New(form FormFlows, status StatusFlows, auth *services.Authorizer) *Handlers {
	return &Handlers{form: form, status: status, auth: auth}
}

//
// DTOs
//

// WebhookUpdate is the JSON payload of one inbound delivery.
//
// Exactly one of Text or Action carries the operator's input: Text for
// free-form message input, Action for a pressed inline control. MessageID
// identifies the message the control was attached to (the record display or
// the list anchor). MessageText carries the displayed text of that message so
// records predating the database can still be parsed.
type WebhookUpdate struct {
	UpdateID   int64  `json:"update_id" binding:"required" example:"653001"`
	GroupID    int64  `json:"group_id" binding:"required" example:"-100200300"`
	OperatorID int64  `json:"operator_id" example:"42"`
	MessageID  int64  `json:"message_id,omitempty" example:"512"`
	Text       string `json:"text,omitempty" example:"Main St 1"`
	Action     string `json:"action,omitempty" example:"status_toggle"`

	MessageText string `json:"message_text,omitempty"`
}

//
// Endpoints
//

// Receive processes one webhook delivery.
//
// @Summary     Process a webhook update
// @Description Routes one conversational update (free text or control press) to the form and status services.
// @Tags        webhook
// @Accept      json
// @Produce     json
// @Param       update body WebhookUpdate true "Delivery payload"
// @Success     200 {object} handlers.AckResponse
// @Failure     400 {object} handlers.ErrorResponse
// @Failure     403 {object} handlers.ErrorResponse
// @Failure     404 {object} handlers.ErrorResponse
// @Failure     409 {object} handlers.ErrorResponse
// @Failure     500 {object} handlers.ErrorResponse
// @Router      /webhook [post]
func (h *Handlers) Receive(c *gin.Context) {
	var u WebhookUpdate
	if err := c.ShouldBindJSON(&u); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid delivery payload")
		return
	}

	// Attribution for access logs and the rate limiter.
	c.Set(middleware.CtxKeyGroupID, u.GroupID)
	c.Set(middleware.CtxKeyOperatorID, u.OperatorID)

	if !h.auth.Allow(u.GroupID, u.OperatorID) {
		fail(c, http.StatusForbidden, ErrCodeForbidden, "operator not allowed")
		return
	}

	ctx := c.Request.Context()
	switch {
	case u.Action != "":
		action, err := conv.ParseAction(u.Action)
		if err != nil {
			fail(c, http.StatusBadRequest, ErrCodeInvalidAction, "unrecognized action token")
			return
		}
		middleware.ObserveUpdate(action.Kind)
		h.respond(c, h.dispatch(ctx, &u, action))
	case u.Text != "":
		middleware.ObserveUpdate("text")
		h.respond(c, h.form.HandleText(ctx, u.GroupID, u.OperatorID, u.Text))
	default:
		// Deliveries without input (member joins, pins, ...) are fine to skip.
		ack(c, "ignored")
	}
}

// dispatch routes a parsed control action to the owning service.
func (h *Handlers) dispatch(ctx context.Context, u *WebhookUpdate, a conv.Action) error {
	switch a.Kind {
	case conv.KindMenu:
		return h.form.ShowMenu(ctx, u.GroupID)
	case conv.KindCreateReport:
		return h.form.StartCreate(ctx, u.GroupID, u.OperatorID)
	case conv.KindCancelCreate:
		return h.form.CancelCreate(ctx, u.GroupID, u.OperatorID)
	case conv.KindSkipField:
		return h.form.Skip(ctx, u.GroupID, u.OperatorID)
	case conv.KindEditReport:
		return h.form.StartEdit(ctx, u.GroupID, u.OperatorID, u.MessageID, u.MessageText)
	case conv.KindEditField:
		return h.form.SelectEditField(ctx, u.GroupID, u.OperatorID, a.Field)
	case conv.KindCancelEdit:
		return h.form.CancelEdit(ctx, u.GroupID, u.OperatorID)
	case conv.KindDeleteReport:
		return h.form.RequestDelete(ctx, u.GroupID, u.OperatorID, u.MessageID)
	case conv.KindConfirmDelete:
		return h.form.ConfirmDelete(ctx, u.GroupID, u.OperatorID)
	case conv.KindCancelDelete:
		return h.form.CancelDelete(ctx, u.GroupID, u.OperatorID)
	case conv.KindToggleStatus:
		return h.status.ToggleStandalone(ctx, u.GroupID, u.MessageID)
	case conv.KindListPage:
		return h.status.ShowList(ctx, u.GroupID, u.MessageID, a.Page)
	case conv.KindStatusPage:
		return h.status.ShowStatusBoard(ctx, u.GroupID, u.MessageID, a.Page)
	case conv.KindStatusSelect:
		return h.status.ToggleFromList(ctx, u.GroupID, u.MessageID, a.MessageID, a.Page)
	case conv.KindNoop:
		return nil
	default:
		return services.ErrInvalidField
	}
}

// respond maps a service result to the webhook acknowledgement.
//
// Stale conversational input (expired sessions, late button presses) is
// acknowledged as "ignored" so the sender does not retry updates the
// operator has already moved past.
func (h *Handlers) respond(c *gin.Context, err error) {
	switch {
	case err == nil:
		ack(c, "ok")
	case errors.Is(err, services.ErrNoSession),
		errors.Is(err, services.ErrEmptyInput),
		errors.Is(err, services.ErrNotOptional),
		errors.Is(err, services.ErrNoFieldSelected):
		ack(c, "ignored")
	case errors.Is(err, services.ErrReportNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "report not found")
	case errors.Is(err, services.ErrDuplicateReport):
		fail(c, http.StatusConflict, ErrCodeConflict, "report already exists for this message")
	case errors.Is(err, services.ErrInvalidField), errors.Is(err, services.ErrInvalidStatus):
		fail(c, http.StatusBadRequest, ErrCodeInvalidAction, "invalid action parameters")
	case conv.IsRenderFailure(err):
		fail(c, http.StatusBadGateway, ErrCodeRenderFailed, "chat rendering failed")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "update processing failed")
	}
}
