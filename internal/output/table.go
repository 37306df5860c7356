package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/pankaj-dahiya-devops/aws-hygiene/internal/models"
)

// TableOptions controls which columns RenderTable renders.
type TableOptions struct {
	// IncludeProfile adds PROFILE and ACCOUNT columns (useful with --all-profiles).
	IncludeProfile bool

	// IncludeDNS adds a PUBLIC DNS column.
	IncludeDNS bool
}

// ShortenMessage truncates msg to at most max display cells, appending "..."
// when truncated. max is treated as at least 4 to guarantee space for the
// ellipsis.
func ShortenMessage(msg string, max int) string {
	if max < 4 {
		max = 4
	}
	return runewidth.Truncate(msg, max, "...")
}

// cell pads (or truncates) s to exactly width display cells. Wide runes in
// Name tags count double so columns stay aligned.
func cell(s string, width int) string {
	return runewidth.FillRight(runewidth.Truncate(s, width, "…"), width)
}

// RenderTable writes a formatted public-instance table to w.
// Columns are dynamically selected based on opts; the separator line width is
// derived from the header row so all rows align correctly.
//
// Column order:
//
//	INSTANCE ID  [PROFILE  ACCOUNT]  REGION  NAME  STATE  PUBLIC IP  [PUBLIC DNS]  ROUTE TABLE  SECURITY GROUPS
func RenderTable(w io.Writer, rows []models.ClassificationRow, opts TableOptions) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "No public EC2 instances found.")
		return
	}

	const (
		wInstance = 20
		wProfile  = 14
		wAccount  = 12
		wRegion   = 15
		wName     = 24
		wState    = 10
		wIP       = 15
		wDNS      = 45
		wRTB      = 22
		wSGs      = 40
	)

	var hb strings.Builder
	hb.WriteString(cell("INSTANCE ID", wInstance))
	if opts.IncludeProfile {
		hb.WriteString("  " + cell("PROFILE", wProfile))
		hb.WriteString("  " + cell("ACCOUNT", wAccount))
	}
	hb.WriteString("  " + cell("REGION", wRegion))
	hb.WriteString("  " + cell("NAME", wName))
	hb.WriteString("  " + cell("STATE", wState))
	hb.WriteString("  " + cell("PUBLIC IP", wIP))
	if opts.IncludeDNS {
		hb.WriteString("  " + cell("PUBLIC DNS", wDNS))
	}
	hb.WriteString("  " + cell("ROUTE TABLE", wRTB))
	hb.WriteString("  SECURITY GROUPS")
	header := hb.String()

	fmt.Fprintln(w, header)
	fmt.Fprintln(w, strings.Repeat("-", runewidth.StringWidth(header)))

	for _, r := range rows {
		var rb strings.Builder
		rb.WriteString(cell(r.InstanceID, wInstance))
		if opts.IncludeProfile {
			rb.WriteString("  " + cell(r.Profile, wProfile))
			rb.WriteString("  " + cell(r.AccountID, wAccount))
		}
		rb.WriteString("  " + cell(r.Region, wRegion))
		rb.WriteString("  " + cell(r.Name, wName))
		rb.WriteString("  " + cell(r.State, wState))
		rb.WriteString("  " + cell(r.PublicIP, wIP))
		if opts.IncludeDNS {
			rb.WriteString("  " + cell(r.PublicDNS, wDNS))
		}
		rb.WriteString("  " + cell(r.RouteTableID, wRTB))
		rb.WriteString("  " + ShortenMessage(r.SecurityGroups, wSGs))
		fmt.Fprintln(w, strings.TrimRight(rb.String(), " "))
	}
}

// RenderFailures lists scan failures beneath a report. Nothing is written
// when there are none.
func RenderFailures(w io.Writer, failures []models.ScanFailure) {
	if len(failures) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Skipped (%d)\n", len(failures))
	for _, f := range failures {
		where := f.Profile
		if f.Region != "" {
			where += "/" + f.Region
		}
		fmt.Fprintf(w, "  %s  %s\n", cell(where, 30), f.Error)
	}
}
