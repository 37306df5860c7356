package models

import "time"

// SeverityOrder lists Inspector severities from most to least urgent.
// Summaries are always reported in this order.
var SeverityOrder = []string{"CRITICAL", "HIGH", "MEDIUM", "LOW", "INFORMATIONAL", "UNTRIAGED"}

// FixOrder lists the fix availability values reported by summaries.
var FixOrder = []string{"YES", "NO", "PARTIAL", "UNKNOWN"}

// FindingResource is one resource an Inspector finding applies to.
type FindingResource struct {
	ID     string `json:"id"`
	Type   string `json:"type"`
	Region string `json:"region,omitempty"`
}

// VulnerablePackage is a package named by a package vulnerability finding.
type VulnerablePackage struct {
	Name           string `json:"name"`
	Version        string `json:"version,omitempty"`
	FixedInVersion string `json:"fixed_in_version,omitempty"`
}

// Finding is a collected Inspector v2 finding.
type Finding struct {
	FindingARN        string              `json:"finding_arn"`
	AccountID         string              `json:"account_id,omitempty"`
	Title             string              `json:"title"`
	Severity          string              `json:"severity"`
	InspectorScore    *float64            `json:"inspector_score,omitempty"`
	FixAvailable      string              `json:"fix_available,omitempty"`
	RecommendationURL string              `json:"recommendation_url,omitempty"`
	VulnerabilityID   string              `json:"vulnerability_id,omitempty"`
	Packages          []VulnerablePackage `json:"packages,omitempty"`
	Resources         []FindingResource   `json:"resources,omitempty"`
	FirstObservedAt   time.Time           `json:"first_observed_at"`
	LastObservedAt    time.Time           `json:"last_observed_at"`
}

// Count is one bucket of a summary.
type Count struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// InstanceFindings groups the findings of one EC2 instance.
type InstanceFindings struct {
	InstanceID string    `json:"instance_id"`
	AccountID  string    `json:"account_id"`
	Severity   []Count   `json:"severity"`
	Findings   []Finding `json:"-"`
}

// FindingsReport is the result of an Inspector EC2 findings run.
type FindingsReport struct {
	Region       string             `json:"region"`
	InstanceID   string             `json:"instance_id,omitempty"`
	Severity     []Count            `json:"severity"`
	FixAvailable []Count            `json:"fix_available"`
	Instances    []InstanceFindings `json:"instances"`
	Findings     []Finding          `json:"findings"`
}
