package output

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/pankaj-dahiya-devops/aws-hygiene/internal/inspector"
	"github.com/pankaj-dahiya-devops/aws-hygiene/internal/models"
)

// FindingColumns is the header row of the Inspector findings CSV.
var FindingColumns = []string{
	"FindingArn", "Title", "Severity", "InspectorScore", "FixAvailable",
	"RecommendationUrl", "VulnerabilityId", "PackageNames", "InstalledVersions",
	"FixedInVersions", "ResourceId", "ResourceRegion", "FirstObservedAt", "LastObservedAt",
}

// FindingsFileName returns the dated findings CSV name,
// e.g. inspector_ec2_findings_2024-05-01.csv.
func FindingsFileName(now time.Time) string {
	return fmt.Sprintf("inspector_ec2_findings_%s.csv", now.Format("2006-01-02"))
}

// InstanceSummaryFileName returns the dated per-instance summary CSV name.
func InstanceSummaryFileName(now time.Time) string {
	return fmt.Sprintf("inspector_ec2_instances_%s.csv", now.Format("2006-01-02"))
}

// WriteFindingsCSV writes one record per finding.
func WriteFindingsCSV(w io.Writer, findings []models.Finding) error {
	records := make([][]string, 0, len(findings))
	for _, f := range findings {
		records = append(records, findingRecord(f))
	}
	return writeRecords(w, FindingColumns, records)
}

// WriteInstanceSummaryCSV writes one record per instance with its finding
// count and per-severity counts.
func WriteInstanceSummaryCSV(w io.Writer, instances []models.InstanceFindings) error {
	header := append([]string{"AccountId", "InstanceId", "Findings"}, models.SeverityOrder...)
	records := make([][]string, 0, len(instances))
	for _, in := range instances {
		rec := []string{in.AccountID, in.InstanceID, strconv.Itoa(len(in.Findings))}
		for _, c := range in.Severity {
			rec = append(rec, strconv.Itoa(c.Count))
		}
		records = append(records, rec)
	}
	return writeRecords(w, header, records)
}

func findingRecord(f models.Finding) []string {
	var names, installed, fixed []string
	for _, p := range f.Packages {
		names = append(names, p.Name)
		installed = append(installed, p.Version)
		fixed = append(fixed, p.FixedInVersion)
	}

	var resourceID, resourceRegion string
	if len(f.Resources) > 0 {
		resourceID, resourceRegion = f.Resources[0].ID, f.Resources[0].Region
	}

	score := ""
	if f.InspectorScore != nil {
		score = strconv.FormatFloat(*f.InspectorScore, 'f', -1, 64)
	}

	return []string{
		f.FindingARN,
		f.Title,
		f.Severity,
		score,
		inspector.FixAvailability(f),
		f.RecommendationURL,
		f.VulnerabilityID,
		joinSet(names),
		joinSet(installed),
		joinSet(fixed),
		resourceID,
		resourceRegion,
		timestamp(f.FirstObservedAt),
		timestamp(f.LastObservedAt),
	}
}

// joinSet joins the distinct non-empty values, sorted, with ";".
func joinSet(values []string) string {
	values = slices.DeleteFunc(slices.Clone(values), func(s string) bool { return s == "" })
	slices.Sort(values)
	return strings.Join(slices.Compact(values), ";")
}

func timestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// RenderFindingsSummary writes the severity and fix availability summaries
// followed by a per-instance table.
func RenderFindingsSummary(w io.Writer, report *models.FindingsReport) {
	if len(report.Findings) == 0 {
		fmt.Fprintln(w, "No ACTIVE EC2 findings found.")
		return
	}

	renderCounts(w, "Severity summary", len(report.Findings), report.Severity)
	renderCounts(w, "Fix availability", len(report.Findings), report.FixAvailable)

	fmt.Fprintln(w, "\n== Instances ==")
	header := fmt.Sprintf("%s  %s  %s", cell("ACCOUNT", 16), cell("INSTANCE ID", 20), cell("FINDINGS", 8))
	for _, s := range models.SeverityOrder {
		header += "  " + cell(s, 13)
	}
	header = strings.TrimRight(header, " ")
	fmt.Fprintln(w, header)
	fmt.Fprintln(w, strings.Repeat("-", len(header)))
	for _, in := range report.Instances {
		line := fmt.Sprintf("%s  %s  %s", cell(in.AccountID, 16), cell(in.InstanceID, 20), cell(strconv.Itoa(len(in.Findings)), 8))
		for _, c := range in.Severity {
			line += "  " + cell(strconv.Itoa(c.Count), 13)
		}
		fmt.Fprintln(w, strings.TrimRight(line, " "))
	}
}

func renderCounts(w io.Writer, title string, total int, counts []models.Count) {
	fmt.Fprintf(w, "\n== %s ==\n", title)
	fmt.Fprintf(w, "Total findings: %d\n", total)
	for _, c := range counts {
		fmt.Fprintf(w, "  %-13s %d\n", c.Key, c.Count)
	}
}
