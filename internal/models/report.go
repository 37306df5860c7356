package models

import "time"

// ClassificationRow describes one EC2 instance that is reachable from the
// public internet. It is the atomic output unit of the reachability scan.
//
// Profile and AccountID are stamped by the engine after a region completes;
// the classifier itself leaves them empty.
type ClassificationRow struct {
	Profile               string `json:"profile"`
	AccountID             string `json:"account_id"`
	Region                string `json:"region"`
	InstanceID            string `json:"instance_id"`
	Name                  string `json:"name"`
	State                 string `json:"state"`
	VpcID                 string `json:"vpc_id"`
	SubnetID              string `json:"subnet_id"`
	PrivateIP             string `json:"private_ip"`
	PublicIP              string `json:"public_ip"`
	PublicDNS             string `json:"public_dns"`
	SecurityGroups        string `json:"security_groups"`
	IAMInstanceProfileARN string `json:"iam_instance_profile_arn"`

	// RouteTableID is the effective route table that made the instance
	// public.
	RouteTableID string `json:"route_table_id"`
}

// ScanFailure records a profile or region that could not be scanned.
// Region is empty when the whole profile was skipped.
type ScanFailure struct {
	Profile string `json:"profile"`
	Region  string `json:"region,omitempty"`
	Error   string `json:"error"`
}

// ProfileSummary is the per-profile header of a ScanReport.
type ProfileSummary struct {
	Profile         string   `json:"profile"`
	AccountID       string   `json:"account_id"`
	PrincipalARN    string   `json:"principal_arn"`
	Regions         []string `json:"regions"`
	PublicInstances int      `json:"public_instances"`
}

// ScanReport is the complete result of a public-EC2 scan across one or more
// profiles. Rows from regions that failed are absent; the failure is listed
// in Failures instead.
type ScanReport struct {
	ReportID    string              `json:"report_id"`
	GeneratedAt time.Time           `json:"generated_at"`
	Profiles    []ProfileSummary    `json:"profiles"`
	Rows        []ClassificationRow `json:"rows"`
	Failures    []ScanFailure       `json:"failures,omitempty"`
}
