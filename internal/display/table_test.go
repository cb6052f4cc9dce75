package display

import (
	"strings"
	"testing"
)

func TestTable_EmptyHeaders(t *testing.T) {
	if got := NewTable().Render(); got != "" {
		t.Errorf("Render() with no headers = %q, want empty", got)
	}
}

func TestTable_Render(t *testing.T) {
	SetEnabled(false)

	tbl := NewTable("Date", "Fajr", "Isha")
	tbl.AddRow("Mon 04 Mar", "05:06", "19:28")
	tbl.AddRow("Tue 05 Mar", "05:05", "19:29")

	want := "" +
		"  Date        Fajr   Isha \n" +
		"  ──────────  ─────  ─────\n" +
		"  Mon 04 Mar  05:06  19:28\n" +
		"  Tue 05 Mar  05:05  19:29\n"
	if got := tbl.Render(); got != want {
		t.Errorf("Render() =\n%s\nwant\n%s", got, want)
	}
	if tbl.Len() != 2 {
		t.Errorf("Len = %d", tbl.Len())
	}
}

func TestTable_Indent(t *testing.T) {
	SetEnabled(false)
	tbl := NewTable("A")
	tbl.Indent = ""
	tbl.AddRow("x")
	if got := tbl.Render(); !strings.HasPrefix(got, "A\n─\nx") {
		t.Errorf("Render() = %q", got)
	}
}

func TestTable_RowStyles(t *testing.T) {
	SetEnabled(true)
	defer SetEnabled(false)

	tbl := NewTable("Prayer", "Time")
	current := tbl.AddRow("Dhuhr", "12:10")
	next := tbl.AddRow("Asr", "15:02")
	tbl.AddRow("Maghrib", "18:01")
	tbl.StyleRow(current, Dim)
	tbl.Highlight(next)

	lines := strings.Split(tbl.Render(), "\n")
	if len(lines) < 5 {
		t.Fatalf("expected 5 lines, got %d", len(lines))
	}
	if !strings.HasPrefix(lines[2], "  \033[2m") {
		t.Errorf("current row not dimmed: %q", lines[2])
	}
	if !strings.HasPrefix(lines[3], "  \033[1m\033[36m") {
		t.Errorf("next row not accented: %q", lines[3])
	}
	if strings.Contains(lines[4], "\033[") {
		t.Errorf("plain row styled: %q", lines[4])
	}
}

func TestFormatRow(t *testing.T) {
	tests := []struct {
		name   string
		cells  []string
		widths []int
		want   string
	}{
		{"padded", []string{"abc", "de"}, []int{5, 4}, "abc    de  "},
		{"missing cells", []string{"a"}, []int{3, 5}, "a         "},
		{"multibyte", []string{"الفجر", "x"}, []int{6, 1}, "الفجر   x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatRow(tt.cells, tt.widths); got != tt.want {
				t.Errorf("formatRow = %q, want %q", got, tt.want)
			}
		})
	}
}
