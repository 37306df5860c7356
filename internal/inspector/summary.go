package inspector

import (
	"slices"
	"strings"

	"github.com/pankaj-dahiya-devops/aws-hygiene/internal/models"
)

// UnknownAccount is the account reported for findings that carry none.
const UnknownAccount = "unknown-account"

// FixAvailability returns the fix availability of f. The reported value is
// used when Inspector set one; otherwise YES when any vulnerable package names
// a fixed version, else UNKNOWN.
func FixAvailability(f models.Finding) string {
	if f.FixAvailable != "" {
		return strings.ToUpper(f.FixAvailable)
	}
	for _, p := range f.Packages {
		if p.FixedInVersion != "" {
			return "YES"
		}
	}
	return "UNKNOWN"
}

// SeveritySummary counts findings per severity in models.SeverityOrder.
// Findings without a recognised severity count as UNTRIAGED.
func SeveritySummary(findings []models.Finding) []models.Count {
	return tally(findings, models.SeverityOrder, "UNTRIAGED", func(f models.Finding) string {
		return strings.ToUpper(f.Severity)
	})
}

// FixSummary counts findings per fix availability in models.FixOrder.
// Unrecognised values count as UNKNOWN.
func FixSummary(findings []models.Finding) []models.Count {
	return tally(findings, models.FixOrder, "UNKNOWN", FixAvailability)
}

func tally(findings []models.Finding, order []string, fallback string, key func(models.Finding) string) []models.Count {
	counts := make(map[string]int, len(order))
	for _, f := range findings {
		k := key(f)
		if !slices.Contains(order, k) {
			k = fallback
		}
		counts[k]++
	}
	out := make([]models.Count, len(order))
	for i, k := range order {
		out[i] = models.Count{Key: k, Count: counts[k]}
	}
	return out
}

// InstanceID returns the EC2 instance a finding belongs to: the first
// resource typed as an EC2 instance, else the first resource. It returns ""
// when the finding names no resource ID.
func InstanceID(f models.Finding) string {
	for _, r := range f.Resources {
		if strings.EqualFold(r.Type, "AWS_EC2_INSTANCE") && r.ID != "" {
			return r.ID
		}
	}
	if len(f.Resources) > 0 {
		return f.Resources[0].ID
	}
	return ""
}

// GroupByInstance groups findings per (account, instance), sorted by account
// then instance ID. Findings without an instance are dropped.
func GroupByInstance(findings []models.Finding) []models.InstanceFindings {
	type key struct{ account, instance string }
	groups := make(map[key]*models.InstanceFindings)
	for _, f := range findings {
		id := InstanceID(f)
		if id == "" {
			continue
		}
		k := key{account: f.AccountID, instance: id}
		if k.account == "" {
			k.account = UnknownAccount
		}
		g, ok := groups[k]
		if !ok {
			g = &models.InstanceFindings{InstanceID: id, AccountID: k.account}
			groups[k] = g
		}
		g.Findings = append(g.Findings, f)
	}

	out := make([]models.InstanceFindings, 0, len(groups))
	for _, g := range groups {
		g.Severity = SeveritySummary(g.Findings)
		out = append(out, *g)
	}
	slices.SortFunc(out, func(a, b models.InstanceFindings) int {
		if c := strings.Compare(a.AccountID, b.AccountID); c != 0 {
			return c
		}
		return strings.Compare(a.InstanceID, b.InstanceID)
	})
	return out
}

// Summarize builds the report for findings collected in region.
func Summarize(region, instanceID string, findings []models.Finding) *models.FindingsReport {
	if findings == nil {
		findings = []models.Finding{}
	}
	return &models.FindingsReport{
		Region:       region,
		InstanceID:   instanceID,
		Severity:     SeveritySummary(findings),
		FixAvailable: FixSummary(findings),
		Instances:    GroupByInstance(findings),
		Findings:     findings,
	}
}
