// Package inspector reads ACTIVE Amazon Inspector v2 findings for EC2
// instances and summarises them by severity, fix availability and instance.
package inspector

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/inspector2"
)

// FindingsAPI is the narrow Inspector v2 interface used by this package.
// It is the SDK's ListFindingsAPIClient so the v2 paginator can drive it.
type FindingsAPI interface {
	inspector2.ListFindingsAPIClient
}

// NewFindingsClient is the production FindingsAPI constructor.
func NewFindingsClient(cfg aws.Config) FindingsAPI {
	return inspector2.NewFromConfig(cfg)
}
