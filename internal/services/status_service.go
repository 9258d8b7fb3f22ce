package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"

	"github.com/fieldwerk/go-report-backend/internal/conv"
	"github.com/fieldwerk/go-report-backend/internal/domain"
	"github.com/fieldwerk/go-report-backend/internal/format"
)

// Display budgets for list rows and button labels. Rows carry more
// context than buttons, which the transport renders much narrower.
const (
	RowTruncate   = 50
	LabelTruncate = 30
)

// StatusService renders the paginated report list and the status board,
// and applies status toggles from either the board or a standalone
// record display.
//
// Both views are anchored: paging edits one message in place instead of
// posting a new one per page. When the anchor cannot be edited (deleted
// by an operator, or too old) the view falls back to a fresh post.
type StatusService struct {
	Store     ReportStore
	Renderer  conv.Renderer
	Formatter *format.Formatter

	// PageSize only drives the continuing row numbers; it must match the
	// store's page size. DefaultPageSize when 0.
	PageSize int
}

// NewStatusService wires a StatusService with the default page size.
func NewStatusService(store ReportStore, r conv.Renderer, f *format.Formatter) *StatusService {
	return &StatusService{Store: store, Renderer: r, Formatter: f, PageSize: DefaultPageSize}
}

func (s *StatusService) pageSize() int {
	if s.PageSize > 0 {
		return s.PageSize
	}
	return DefaultPageSize
}

// ShowList renders the read-only report list at the given page. A zero
// anchorMsgID posts a new anchor; otherwise the existing one is edited.
func (s *StatusService) ShowList(ctx context.Context, groupID, anchorMsgID int64, page int) error {
	ctx, span := otel.Tracer("services/StatusService").Start(ctx, "StatusService.ShowList")
	defer span.End()

	items, total, totalPages, err := s.Store.ListPage(ctx, groupID, page)
	if err != nil {
		return fmt.Errorf("loading report page: %w", err)
	}
	page = clampPage(page, totalPages)

	if total == 0 {
		return s.show(ctx, groupID, anchorMsgID, "📭 No reports yet.", conv.MenuControls())
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📋 Job reports (%d)\n\n", total)
	base := page * s.pageSize()
	for i := range items {
		r := &items[i]
		fmt.Fprintf(&b, "%d. %s %s\n", base+i+1, format.StatusGlyph(r.Status), format.Truncate(r.Address, RowTruncate))
	}
	return s.show(ctx, groupID, anchorMsgID, b.String(), conv.PaginationControls(page, totalPages, conv.ListPageToken))
}

// ShowStatusBoard renders the toggle board: one button per report on the
// page, marked with its current status glyph. Pressing a button flips
// that report's status and refreshes the board.
func (s *StatusService) ShowStatusBoard(ctx context.Context, groupID, anchorMsgID int64, page int) error {
	ctx, span := otel.Tracer("services/StatusService").Start(ctx, "StatusService.ShowStatusBoard")
	defer span.End()

	items, total, totalPages, err := s.Store.ListPage(ctx, groupID, page)
	if err != nil {
		return fmt.Errorf("loading report page: %w", err)
	}
	page = clampPage(page, totalPages)

	if total == 0 {
		return s.show(ctx, groupID, anchorMsgID, "📭 No reports yet.", conv.MenuControls())
	}

	grid := conv.ControlGrid{}
	for i := range items {
		r := &items[i]
		label := format.StatusGlyph(r.Status) + " " + format.Truncate(r.Address, LabelTruncate)
		grid = append(grid, []conv.Control{{Label: label, Action: conv.StatusSelectToken(r.MessageID, page)}})
	}
	for _, row := range conv.PaginationControls(page, totalPages, conv.StatusPageToken) {
		grid = append(grid, row)
	}
	return s.show(ctx, groupID, anchorMsgID, "🔀 Tap a report to flip its status:", grid)
}

// ToggleFromList flips a report selected on the status board. The board
// is refreshed first, on the same page, so the operator immediately sees
// the new glyph; updating the report's standalone display afterwards is
// best-effort.
func (s *StatusService) ToggleFromList(ctx context.Context, groupID, anchorMsgID, reportMsgID int64, page int) error {
	r, err := s.toggle(ctx, &groupID, reportMsgID)
	if err != nil {
		return err
	}

	if berr := s.ShowStatusBoard(ctx, groupID, anchorMsgID, page); berr != nil {
		log.Error().Err(berr).Int64("group_id", groupID).Msg("status board refresh failed")
	}

	if err := s.Renderer.Edit(ctx, groupID, reportMsgID, s.Formatter.Render(r), conv.ReportControls(r.Status)); err != nil {
		// The standalone display may have been deleted; the toggle stands.
		log.Debug().Err(err).Int64("group_id", groupID).Int64("message_id", reportMsgID).
			Msg("standalone record re-render skipped")
	}
	return nil
}

// ToggleStandalone flips a report from its own display and re-renders it
// in place. The write commits before any rendering; a failed re-render
// is logged and absorbed.
func (s *StatusService) ToggleStandalone(ctx context.Context, groupID, messageID int64) error {
	r, err := s.toggle(ctx, &groupID, messageID)
	if err != nil {
		return err
	}
	if err := s.Renderer.Edit(ctx, groupID, messageID, s.Formatter.Render(r), conv.ReportControls(r.Status)); err != nil {
		log.Error().Err(err).Int64("group_id", groupID).Int64("message_id", messageID).
			Msg("record re-render failed after toggle")
	}
	return nil
}

// toggle applies the status flip, following a group migration once.
func (s *StatusService) toggle(ctx context.Context, groupID *int64, messageID int64) (*domain.Report, error) {
	rep, err := s.Store.Toggle(ctx, *groupID, messageID)
	if err != nil {
		if newGroup, ok := conv.MigratedTo(err); ok {
			_ = s.Store.Reassign(ctx, *groupID, messageID, newGroup)
			*groupID = newGroup
			rep, err = s.Store.Toggle(ctx, *groupID, messageID)
		}
	}
	return rep, err
}

// show edits the anchor when there is one, posting a fresh message when
// there is none or the edit fails.
func (s *StatusService) show(ctx context.Context, groupID, anchorMsgID int64, text string, controls conv.ControlGrid) error {
	if anchorMsgID != 0 {
		err := s.Renderer.Edit(ctx, groupID, anchorMsgID, text, controls)
		if err == nil {
			return nil
		}
		if newGroup, ok := conv.MigratedTo(err); ok {
			if err = s.Renderer.Edit(ctx, newGroup, anchorMsgID, text, controls); err == nil {
				return nil
			}
		}
		log.Debug().Err(err).Int64("group_id", groupID).Int64("message_id", anchorMsgID).
			Msg("list anchor edit failed, posting fresh")
	}
	if _, err := s.Renderer.Post(ctx, groupID, text, controls); err != nil {
		if newGroup, ok := conv.MigratedTo(err); ok {
			_, err = s.Renderer.Post(ctx, newGroup, text, controls)
		}
		if err != nil {
			return fmt.Errorf("rendering report list: %w", err)
		}
	}
	return nil
}

func clampPage(page, totalPages int) int {
	if page < 0 {
		return 0
	}
	if totalPages > 0 && page > totalPages-1 {
		return totalPages - 1
	}
	return page
}
