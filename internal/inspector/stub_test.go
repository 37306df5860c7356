package inspector

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/inspector2"
	"github.com/aws/aws-sdk-go-v2/service/inspector2/types"
)

// stubFindings serves findings in pages of pageSize using numeric tokens and
// records every request.
type stubFindings struct {
	findings []types.Finding
	pageSize int
	err      error
	calls    []*inspector2.ListFindingsInput
}

func (s *stubFindings) ListFindings(_ context.Context, in *inspector2.ListFindingsInput, _ ...func(*inspector2.Options)) (*inspector2.ListFindingsOutput, error) {
	s.calls = append(s.calls, in)
	if s.err != nil {
		return nil, s.err
	}

	size := s.pageSize
	if size <= 0 {
		size = len(s.findings)
	}
	start := 0
	if in.NextToken != nil {
		fmt.Sscanf(aws.ToString(in.NextToken), "%d", &start)
	}
	end := min(start+size, len(s.findings))
	out := &inspector2.ListFindingsOutput{Findings: s.findings[start:end]}
	if end < len(s.findings) {
		out.NextToken = aws.String(fmt.Sprintf("%d", end))
	}
	return out, nil
}

func sdkFinding(arn, account, instance string, severity types.Severity) types.Finding {
	return types.Finding{
		FindingArn:   aws.String(arn),
		AwsAccountId: aws.String(account),
		Title:        aws.String("CVE in " + arn),
		Severity:     severity,
		Resources: []types.Resource{{
			Id:     aws.String(instance),
			Type:   types.ResourceTypeAwsEc2Instance,
			Region: aws.String("us-east-1"),
		}},
	}
}
