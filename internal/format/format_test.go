package format

import (
	"strings"
	"testing"
	"time"

	"golang.org/x/text/language"

	"github.com/fieldwerk/go-report-backend/internal/domain"
)

func sampleReport() *domain.Report {
	return &domain.Report{
		MessageID:  5,
		GroupID:    100,
		Address:    "12 Oak St",
		Materials:  "drill, 3 keys",
		ExtraNotes: "ring twice",
		Status:     domain.StatusPending,
		CreatedAt:  time.Date(2024, 12, 19, 14, 30, 0, 0, time.UTC),
	}
}

func TestRender_FixedOrderAndOmission(t *testing.T) {
	f := New(language.English)
	r := sampleReport()

	out := f.Render(r)
	addrIdx := strings.Index(out, "Address: 12 Oak St")
	matIdx := strings.Index(out, "Materials: drill, 3 keys")
	notesIdx := strings.Index(out, "Extra notes: ring twice")
	if addrIdx < 0 || matIdx < 0 || notesIdx < 0 {
		t.Fatalf("missing field lines:\n%s", out)
	}
	if !(addrIdx < matIdx && matIdx < notesIdx) {
		t.Fatalf("field order not fixed:\n%s", out)
	}
	if !strings.Contains(out, "⏳ Status: Pending") {
		t.Fatalf("missing pending status line:\n%s", out)
	}
	if !strings.Contains(out, "19 Dec 2024 at 14:30") {
		t.Fatalf("missing created line:\n%s", out)
	}

	// Absent optional fields are omitted, not rendered empty.
	r.ExtraNotes = ""
	out = f.Render(r)
	if strings.Contains(out, "Extra notes:") {
		t.Fatalf("empty notes should be omitted:\n%s", out)
	}
	if strings.Contains(out, "Client:") {
		t.Fatalf("empty client should be omitted:\n%s", out)
	}

	r.Status = domain.StatusDone
	if out = f.Render(r); !strings.Contains(out, "✅ Status: Done") {
		t.Fatalf("missing done status line:\n%s", out)
	}
}

func TestRender_Deterministic(t *testing.T) {
	f := New(language.English)
	r := sampleReport()
	if f.Render(r) != f.Render(r) {
		t.Fatalf("render is not deterministic")
	}
}

func TestRenderDutchLocale(t *testing.T) {
	f := New(language.Dutch)
	r := sampleReport()
	out := f.Render(r)
	if !strings.Contains(out, "In afwachting") {
		t.Fatalf("expected Dutch status label:\n%s", out)
	}
	if !strings.Contains(out, "19 dec 2024 om 14:30") {
		t.Fatalf("expected Dutch date rendering:\n%s", out)
	}
}

func TestParseLegacy_RoundTrip(t *testing.T) {
	f := New(language.English)
	r := sampleReport()
	r.ClientName = "J. Smit"

	d := ParseLegacy(f.Render(r))
	if d.Address != r.Address {
		t.Fatalf("address = %q, want %q", d.Address, r.Address)
	}
	if d.Materials != r.Materials {
		t.Fatalf("materials = %q, want %q", d.Materials, r.Materials)
	}
	if d.ExtraNotes != r.ExtraNotes {
		t.Fatalf("notes = %q, want %q", d.ExtraNotes, r.ExtraNotes)
	}
	if d.ClientName != r.ClientName {
		t.Fatalf("client = %q, want %q", d.ClientName, r.ClientName)
	}
}

func TestParseLegacy_OldFormatAndGarbage(t *testing.T) {
	text := strings.Join([]string{
		"🔁 JOB REPORT",
		"",
		"Address: 9 Mill Lane",
		"To do: replace cylinder", // old label for the notes field
		"Materials: cylinder",
		"some stray line without a prefix",
		"📅 Created: whenever",
	}, "\n")

	d := ParseLegacy(text)
	if d.Address != "9 Mill Lane" || d.Materials != "cylinder" || d.ExtraNotes != "replace cylinder" {
		t.Fatalf("unexpected draft: %+v", d)
	}
}

func TestParseLegacy_NeverPanics(t *testing.T) {
	for _, text := range []string{"", "\n\n\n", "Address:", "::::", "⏳"} {
		_ = ParseLegacy(text) // must not panic, unparseable lines are skipped
	}
}

func TestRenderProgress(t *testing.T) {
	f := New(language.English)
	steps := domain.DefaultFormSteps()

	// First step: only the address placeholder and its prompt.
	out := f.RenderProgress(domain.ReportDraft{}, steps, 0)
	if !strings.Contains(out, "📍 Address: awaiting…") {
		t.Fatalf("missing awaiting placeholder:\n%s", out)
	}
	if strings.Contains(out, "Materials") {
		t.Fatalf("steps not yet reached must be omitted:\n%s", out)
	}
	if !strings.Contains(out, "💬 Address:") {
		t.Fatalf("missing prompt:\n%s", out)
	}

	// Last (optional) step: collected values shown, optional placeholder.
	d := domain.ReportDraft{Address: "12 Oak St", Materials: "drill"}
	out = f.RenderProgress(d, steps, 2)
	if !strings.Contains(out, "📍 Address: 12 Oak St") || !strings.Contains(out, "📦 Materials: drill") {
		t.Fatalf("collected fields missing:\n%s", out)
	}
	if !strings.Contains(out, "ℹ️ Extra notes: optional…") {
		t.Fatalf("missing optional placeholder:\n%s", out)
	}
	if !strings.Contains(out, "💬 Extra notes (optional):") {
		t.Fatalf("missing prompt:\n%s", out)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("short", 30); got != "short" {
		t.Fatalf("short input changed: %q", got)
	}
	if got := Truncate("abcdef", 3); got != "abc…" {
		t.Fatalf("got %q, want abc…", got)
	}
	// Multi-byte glyphs must never be split mid-sequence.
	in := "Grünstraße 12, Überlingen"
	out := Truncate(in, 12)
	if !strings.HasSuffix(out, "…") {
		t.Fatalf("missing ellipsis: %q", out)
	}
	for _, r := range out {
		if r == '�' {
			t.Fatalf("truncation split a rune: %q", out)
		}
	}
	// Stable: same input, same output.
	if Truncate(in, 12) != out {
		t.Fatalf("truncation not stable")
	}
	if got := Truncate("anything", 0); got != "anything" {
		t.Fatalf("non-positive budget should disable truncation, got %q", got)
	}
}

func TestStatusGlyph(t *testing.T) {
	if StatusGlyph(domain.StatusDone) != "✅" || StatusGlyph(domain.StatusPending) != "⏳" {
		t.Fatalf("unexpected glyphs")
	}
}
