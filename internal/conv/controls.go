package conv

import "strconv"

// Control is one actionable element: a label the shell displays and the
// action token it must route back unchanged when pressed.
type Control struct {
	Label  string
	Action string
}

// ControlGrid is rows of controls, in display order.
type ControlGrid [][]Control

// MenuControls is the main menu attached to every resting state and to
// every error notice, so no failure path leaves the operator at a dead end.
func MenuControls() ControlGrid {
	return ControlGrid{
		{{Label: "➕ Add report", Action: KindCreateReport}},
		{{Label: "📋 View reports", Action: ListPageToken(0)}},
		{{Label: "🔄 Change status", Action: StatusPageToken(0)}},
	}
}

// ReportControls are the actions attached to a standalone rendered report.
// The status button flips direction with the current status.
func ReportControls(status string) ControlGrid {
	toggleLabel := "✅ Mark as done"
	if status == "done" {
		toggleLabel = "⏳ Mark as pending"
	}
	return ControlGrid{
		{{Label: "✏️ Edit", Action: KindEditReport}},
		{{Label: toggleLabel, Action: KindToggleStatus}},
		{{Label: "🗑 Delete", Action: KindDeleteReport}},
	}
}

// EditFieldControls lets the operator pick which field to change.
func EditFieldControls(fields []string, labels map[string]string) ControlGrid {
	grid := make(ControlGrid, 0, len(fields)+1)
	for _, f := range fields {
		label := labels[f]
		if label == "" {
			label = f
		}
		grid = append(grid, []Control{{Label: "✏️ " + label, Action: EditFieldToken(f)}})
	}
	grid = append(grid, []Control{{Label: "❌ Cancel", Action: KindCancelEdit}})
	return grid
}

// ConfirmDeleteControls ask for explicit confirmation before a delete.
func ConfirmDeleteControls() ControlGrid {
	return ControlGrid{
		{
			{Label: "✅ Confirm", Action: KindConfirmDelete},
			{Label: "❌ Cancel", Action: KindCancelDelete},
		},
	}
}

// CancelControls are attached to the progress display during collection.
// Optional steps additionally expose the skip transition.
func CancelControls(withSkip bool) ControlGrid {
	var grid ControlGrid
	if withSkip {
		grid = append(grid, []Control{{Label: "⏭️ Skip", Action: KindSkipField}})
	}
	return append(grid, []Control{{Label: "❌ Cancel", Action: KindCancelCreate}})
}

// PaginationControls exposes only the prev/next transitions valid for the
// current page: no prev on page 0, no next on the last page. pageToken
// builds the token for a target page (ListPageToken or StatusPageToken).
func PaginationControls(page, totalPages int, pageToken func(int) string) ControlGrid {
	var grid ControlGrid
	if totalPages > 1 {
		var row []Control
		if page > 0 {
			row = append(row, Control{Label: "◀️ Previous", Action: pageToken(page - 1)})
		}
		if page < totalPages-1 {
			row = append(row, Control{Label: "Next ▶️", Action: pageToken(page + 1)})
		}
		if len(row) > 0 {
			grid = append(grid, row)
		}
		grid = append(grid, []Control{{
			Label:  pageIndicator(page, totalPages),
			Action: KindNoop,
		}})
	}
	return append(grid, []Control{{Label: "🔙 Back to menu", Action: KindMenu}})
}

func pageIndicator(page, totalPages int) string {
	return "Page " + strconv.Itoa(page+1) + "/" + strconv.Itoa(totalPages)
}
