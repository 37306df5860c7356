package models

import "time"

// ComplianceType is the AWS Config compliance verdict for a resource.
type ComplianceType string

const (
	ComplianceCompliant    ComplianceType = "COMPLIANT"
	ComplianceNonCompliant ComplianceType = "NON_COMPLIANT"
)

// ResourceTypeLogGroup is the AWS Config resource type of a CloudWatch Logs
// log group.
const ResourceTypeLogGroup = "AWS::Logs::LogGroup"

// LogGroup is a collected CloudWatch Logs log group. RetentionInDays is nil
// when the group never expires.
type LogGroup struct {
	Name            string `json:"name"`
	Region          string `json:"region,omitempty"`
	RetentionInDays *int32 `json:"retention_in_days,omitempty"`
	StoredBytes     int64  `json:"stored_bytes"`
}

// HasRetention reports whether an expiry is configured for the group.
func (g LogGroup) HasRetention() bool {
	return g.RetentionInDays != nil
}

// LogGroupEvaluation is one retention verdict, shaped after a Config
// PutEvaluations entry.
type LogGroupEvaluation struct {
	ResourceID        string         `json:"resource_id"`
	ComplianceType    ComplianceType `json:"compliance_type"`
	Annotation        string         `json:"annotation"`
	OrderingTimestamp time.Time      `json:"ordering_timestamp"`
}
