// Package identitycenter flags IAM Identity Center permission sets whose
// inline policies grant service-wide wildcards such as s3:* or iam:*.
package identitycenter

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssoadmin"
)

// SSOAdminAPI is the narrow SSO Admin interface used by the checker. It
// embeds ListPermissionSetsAPIClient so the SDK v2 paginator can be used.
type SSOAdminAPI interface {
	ssoadmin.ListPermissionSetsAPIClient
	ListInstances(ctx context.Context, params *ssoadmin.ListInstancesInput, optFns ...func(*ssoadmin.Options)) (*ssoadmin.ListInstancesOutput, error)
	DescribePermissionSet(ctx context.Context, params *ssoadmin.DescribePermissionSetInput, optFns ...func(*ssoadmin.Options)) (*ssoadmin.DescribePermissionSetOutput, error)
	GetInlinePolicyForPermissionSet(ctx context.Context, params *ssoadmin.GetInlinePolicyForPermissionSetInput, optFns ...func(*ssoadmin.Options)) (*ssoadmin.GetInlinePolicyForPermissionSetOutput, error)
}

// NewSSOAdminClient is the production SSOAdminAPI constructor.
func NewSSOAdminClient(cfg aws.Config) SSOAdminAPI {
	return ssoadmin.NewFromConfig(cfg)
}
