package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/pankaj-dahiya-devops/aws-hygiene/internal/models"
)

// RenderLogGroups writes the log groups that never expire as a table.
func RenderLogGroups(w io.Writer, groups []models.LogGroup) {
	if len(groups) == 0 {
		fmt.Fprintln(w, "All log groups have a retention policy.")
		return
	}

	nameWidth := len("LOG GROUP")
	for _, g := range groups {
		nameWidth = max(nameWidth, min(runewidth.StringWidth(g.Name), 80))
	}

	header := fmt.Sprintf("%s  %s  %s", cell("REGION", 15), cell("LOG GROUP", nameWidth), "STORED BYTES")
	fmt.Fprintln(w, header)
	fmt.Fprintln(w, strings.Repeat("-", len(header)))
	for _, g := range groups {
		fmt.Fprintf(w, "%s  %s  %d\n", cell(g.Region, 15), cell(g.Name, nameWidth), g.StoredBytes)
	}
	fmt.Fprintf(w, "\n%d log group(s) without retention\n", len(groups))
}
