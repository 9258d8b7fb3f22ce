// Package format turns reports into user-facing text and, for legacy
// compatibility, turns rendered text back into a best-effort draft.
//
// Everything here is a pure function of its inputs: the same report always
// renders to the same text, and truncation of overlong values is stable.
// The dispatch shell owns actual message delivery; this package only
// produces strings.
package format

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/language"

	"github.com/fieldwerk/go-report-backend/internal/domain"
)

// Line prefixes shared by Render and ParseLegacy. They must agree exactly:
// a rendered report is the only store-independent copy of its data, and
// ParseLegacy is the fallback when the backing row cannot be found.
const (
	prefixClient    = "Client: "
	prefixAddress   = "Address: "
	prefixMaterials = "Materials: "
	prefixNotes     = "Extra notes: "

	// Older revisions rendered the notes field under this label.
	legacyPrefixTodo = "To do: "
)

const (
	glyphDone    = "✅"
	glyphPending = "⏳"
	ellipsis     = "…"
)

// dutchMonths are the abbreviated month names used when the formatter
// locale matches Dutch, following the original deployment's rendering.
var dutchMonths = [12]string{
	"jan", "feb", "mrt", "apr", "mei", "jun",
	"jul", "aug", "sep", "okt", "nov", "dec",
}

var localeMatcher = language.NewMatcher([]language.Tag{
	language.English,
	language.Dutch,
})

// Formatter renders reports and progress displays. The zero value renders
// in English; construct with New to select a locale.
type Formatter struct {
	dutch bool
}

// New returns a Formatter for the given locale tag. Any tag that does not
// match Dutch falls back to English rendering.
func New(locale language.Tag) *Formatter {
	_, idx, _ := localeMatcher.Match(locale)
	return &Formatter{dutch: idx == 1}
}

// Render produces the canonical text for a report: header, populated
// fields in fixed order, status glyph and label, and the creation time.
// Absent optional fields are omitted entirely rather than shown empty.
func (f *Formatter) Render(r *domain.Report) string {
	var b strings.Builder
	b.WriteString("🔁 JOB REPORT\n\n")

	if r.ClientName != "" {
		b.WriteString(prefixClient + r.ClientName + "\n")
	}
	b.WriteString(prefixAddress + r.Address + "\n")
	b.WriteString(prefixMaterials + r.Materials + "\n")
	if r.ExtraNotes != "" {
		b.WriteString(prefixNotes + r.ExtraNotes + "\n")
	}

	glyph, label := f.statusLabel(r.Status)
	b.WriteString(glyph + " Status: " + label + "\n")
	b.WriteString("📅 Created: " + f.CreatedAt(r.CreatedAt))
	return b.String()
}

// RenderProgress shows every field collected so far, a placeholder for the
// field currently being collected, and the prompt for that field. Steps
// not yet reached are omitted.
func (f *Formatter) RenderProgress(d domain.ReportDraft, steps []domain.FormStep, current int) string {
	var b strings.Builder
	b.WriteString("📝 New job report\n\n")

	for i, step := range steps {
		if i > current {
			break
		}
		label := stepLabel(step.Field)
		switch {
		case i < current:
			b.WriteString(label + ": " + d.Get(step.Field) + "\n")
		case step.Optional:
			b.WriteString(label + ": " + f.optionalPlaceholder() + "\n")
		default:
			b.WriteString(label + ": " + f.awaitingPlaceholder() + "\n")
		}
	}

	if current >= 0 && current < len(steps) {
		b.WriteString("\n💬 " + steps[current].Prompt)
	}
	return b.String()
}

// ParseLegacy reconstructs a draft from rendered text by line prefix.
// Best effort only: unparseable lines are silently skipped and the result
// never includes status or creation time.
func ParseLegacy(text string) domain.ReportDraft {
	var d domain.ReportDraft
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, prefixClient):
			d.ClientName = strings.TrimSpace(strings.TrimPrefix(line, prefixClient))
		case strings.HasPrefix(line, prefixAddress):
			d.Address = strings.TrimSpace(strings.TrimPrefix(line, prefixAddress))
		case strings.HasPrefix(line, prefixMaterials):
			d.Materials = strings.TrimSpace(strings.TrimPrefix(line, prefixMaterials))
		case strings.HasPrefix(line, prefixNotes):
			d.ExtraNotes = strings.TrimSpace(strings.TrimPrefix(line, prefixNotes))
		case strings.HasPrefix(line, legacyPrefixTodo):
			d.ExtraNotes = strings.TrimSpace(strings.TrimPrefix(line, legacyPrefixTodo))
		}
	}
	return d
}

// CreatedAt renders a creation timestamp as an absolute, human-readable
// date in the formatter's locale. The zero time renders as unknown.
func (f *Formatter) CreatedAt(t time.Time) string {
	if t.IsZero() {
		if f.dutch {
			return "Onbekend"
		}
		return "Unknown"
	}
	if f.dutch {
		return fmt.Sprintf("%d %s %d om %02d:%02d",
			t.Day(), dutchMonths[t.Month()-1], t.Year(), t.Hour(), t.Minute())
	}
	return fmt.Sprintf("%d %s %d at %02d:%02d",
		t.Day(), t.Month().String()[:3], t.Year(), t.Hour(), t.Minute())
}

// StatusGlyph returns the glyph for a status value.
func StatusGlyph(status string) string {
	if status == domain.StatusDone {
		return glyphDone
	}
	return glyphPending
}

// Truncate caps s at budget runes, appending an ellipsis when anything was
// cut. It operates on runes, never splitting a multi-byte glyph, and is
// deterministic for a given input.
func Truncate(s string, budget int) string {
	if budget <= 0 || utf8.RuneCountInString(s) <= budget {
		return s
	}
	runes := []rune(s)
	return string(runes[:budget]) + ellipsis
}

func (f *Formatter) statusLabel(status string) (glyph, label string) {
	if status == domain.StatusDone {
		if f.dutch {
			return glyphDone, "Gedaan"
		}
		return glyphDone, "Done"
	}
	if f.dutch {
		return glyphPending, "In afwachting"
	}
	return glyphPending, "Pending"
}

func (f *Formatter) awaitingPlaceholder() string {
	if f.dutch {
		return "In afwachting…"
	}
	return "awaiting…"
}

func (f *Formatter) optionalPlaceholder() string {
	if f.dutch {
		return "Optioneel…"
	}
	return "optional…"
}

// stepLabel maps a field name to its display label in progress renders.
func stepLabel(field string) string {
	switch field {
	case domain.FieldClientName:
		return "👤 Client"
	case domain.FieldAddress:
		return "📍 Address"
	case domain.FieldMaterials:
		return "📦 Materials"
	case domain.FieldExtraNotes:
		return "ℹ️ Extra notes"
	case domain.FieldScheduledDate:
		return "📅 Scheduled"
	}
	return field
}
