package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/pankaj-dahiya-devops/aws-hygiene/internal/models"
)

// PermissionSetColumns is the header row of the permission set CSV.
var PermissionSetColumns = []string{"PermissionSet", "Action", "Effect", "Resources"}

// PermissionSetFileName returns the dated permission set CSV name,
// e.g. permission_set_wildcards_2024-05-01.csv.
func PermissionSetFileName(now time.Time) string {
	return fmt.Sprintf("permission_set_wildcards_%s.csv", now.Format("2006-01-02"))
}

// WritePermissionSetCSV writes one record per finding. Resources are joined
// with ";".
func WritePermissionSetCSV(w io.Writer, findings []models.PermissionSetFinding) error {
	records := make([][]string, 0, len(findings))
	for _, f := range findings {
		records = append(records, []string{f.PermissionSet, f.Action, f.Effect, strings.Join(f.Resources, ";")})
	}
	return writeRecords(w, PermissionSetColumns, records)
}

// RenderPermissionSets writes the findings as a table.
func RenderPermissionSets(w io.Writer, findings []models.PermissionSetFinding) {
	if len(findings) == 0 {
		fmt.Fprintln(w, "No permission set grants s3:* or iam:*.")
		return
	}

	nameWidth := len("PERMISSION SET")
	for _, f := range findings {
		nameWidth = max(nameWidth, min(runewidth.StringWidth(f.PermissionSet), 40))
	}

	header := fmt.Sprintf("%s  %s  %s  %s", cell("PERMISSION SET", nameWidth), cell("ACTION", 6), cell("EFFECT", 6), "RESOURCES")
	fmt.Fprintln(w, header)
	fmt.Fprintln(w, strings.Repeat("-", len(header)))
	for _, f := range findings {
		fmt.Fprintf(w, "%s  %s  %s  %s\n",
			cell(f.PermissionSet, nameWidth), cell(f.Action, 6), cell(f.Effect, 6),
			ShortenMessage(strings.Join(f.Resources, ";"), 60))
	}
	fmt.Fprintf(w, "\n%d over-broad grant(s)\n", len(findings))
}
