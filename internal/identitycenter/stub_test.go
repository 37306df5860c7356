package identitycenter

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssoadmin"
	"github.com/aws/aws-sdk-go-v2/service/ssoadmin/types"
)

const testInstanceARN = "arn:aws:sso:::instance/ssoins-1"

// permissionSet is one stubbed permission set.
type permissionSet struct {
	arn         string
	name        string
	policy      string
	describeErr error
	policyErr   error
}

// stubSSOAdmin serves one Identity Center instance (unless noInstance) and
// pages its permission sets pageSize at a time.
type stubSSOAdmin struct {
	sets        []permissionSet
	pageSize    int
	noInstance  bool
	instanceErr error
	listErr     error

	listCalls     []*ssoadmin.ListPermissionSetsInput
	describeCalls int
}

func (s *stubSSOAdmin) ListInstances(context.Context, *ssoadmin.ListInstancesInput, ...func(*ssoadmin.Options)) (*ssoadmin.ListInstancesOutput, error) {
	if s.instanceErr != nil {
		return nil, s.instanceErr
	}
	if s.noInstance {
		return &ssoadmin.ListInstancesOutput{}, nil
	}
	return &ssoadmin.ListInstancesOutput{Instances: []types.InstanceMetadata{
		{InstanceArn: aws.String(testInstanceARN)},
		{InstanceArn: aws.String("arn:aws:sso:::instance/ssoins-ignored")},
	}}, nil
}

func (s *stubSSOAdmin) ListPermissionSets(_ context.Context, in *ssoadmin.ListPermissionSetsInput, _ ...func(*ssoadmin.Options)) (*ssoadmin.ListPermissionSetsOutput, error) {
	s.listCalls = append(s.listCalls, in)
	if s.listErr != nil {
		return nil, s.listErr
	}
	size := s.pageSize
	if size <= 0 {
		size = len(s.sets)
	}
	start := 0
	if in.NextToken != nil {
		fmt.Sscanf(aws.ToString(in.NextToken), "%d", &start)
	}
	end := min(start+size, len(s.sets))
	out := &ssoadmin.ListPermissionSetsOutput{}
	for _, ps := range s.sets[start:end] {
		out.PermissionSets = append(out.PermissionSets, ps.arn)
	}
	if end < len(s.sets) {
		out.NextToken = aws.String(fmt.Sprintf("%d", end))
	}
	return out, nil
}

func (s *stubSSOAdmin) find(arn string) permissionSet {
	for _, ps := range s.sets {
		if ps.arn == arn {
			return ps
		}
	}
	return permissionSet{}
}

func (s *stubSSOAdmin) DescribePermissionSet(_ context.Context, in *ssoadmin.DescribePermissionSetInput, _ ...func(*ssoadmin.Options)) (*ssoadmin.DescribePermissionSetOutput, error) {
	s.describeCalls++
	ps := s.find(aws.ToString(in.PermissionSetArn))
	if ps.describeErr != nil {
		return nil, ps.describeErr
	}
	return &ssoadmin.DescribePermissionSetOutput{PermissionSet: &types.PermissionSet{Name: aws.String(ps.name)}}, nil
}

func (s *stubSSOAdmin) GetInlinePolicyForPermissionSet(_ context.Context, in *ssoadmin.GetInlinePolicyForPermissionSetInput, _ ...func(*ssoadmin.Options)) (*ssoadmin.GetInlinePolicyForPermissionSetOutput, error) {
	ps := s.find(aws.ToString(in.PermissionSetArn))
	if ps.policyErr != nil {
		return nil, ps.policyErr
	}
	return &ssoadmin.GetInlinePolicyForPermissionSetOutput{InlinePolicy: aws.String(ps.policy)}, nil
}

func psARN(id string) string {
	return "arn:aws:sso:::permissionSet/ssoins-1/" + id
}
