package retention

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	logstypes "github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"
	configsvc "github.com/aws/aws-sdk-go-v2/service/configservice"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/mock"
)

// MockConfig records PutEvaluations calls.
type MockConfig struct {
	mock.Mock
}

func (m *MockConfig) PutEvaluations(ctx context.Context, params *configsvc.PutEvaluationsInput, _ ...func(*configsvc.Options)) (*configsvc.PutEvaluationsOutput, error) {
	args := m.Called(ctx, params)
	if out := args.Get(0); out != nil {
		return out.(*configsvc.PutEvaluationsOutput), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockSNS records Publish calls.
type MockSNS struct {
	mock.Mock
}

func (m *MockSNS) Publish(ctx context.Context, params *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	args := m.Called(ctx, params)
	if out := args.Get(0); out != nil {
		return out.(*sns.PublishOutput), args.Error(1)
	}
	return nil, args.Error(1)
}

// stubLogs serves log groups in pages of pageSize and answers prefix
// lookups like the real API: sorted by name, prefix match, honouring Limit.
type stubLogs struct {
	groups   []logstypes.LogGroup
	pageSize int
	err      error
	calls    []*cloudwatchlogs.DescribeLogGroupsInput
}

func (s *stubLogs) DescribeLogGroups(_ context.Context, in *cloudwatchlogs.DescribeLogGroupsInput, _ ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.DescribeLogGroupsOutput, error) {
	s.calls = append(s.calls, in)
	if s.err != nil {
		return nil, s.err
	}

	if in.LogGroupNamePrefix != nil {
		prefix := aws.ToString(in.LogGroupNamePrefix)
		limit := int(aws.ToInt32(in.Limit))
		out := &cloudwatchlogs.DescribeLogGroupsOutput{}
		for _, g := range s.groups {
			name := aws.ToString(g.LogGroupName)
			if len(name) >= len(prefix) && name[:len(prefix)] == prefix {
				out.LogGroups = append(out.LogGroups, g)
				if limit > 0 && len(out.LogGroups) == limit {
					break
				}
			}
		}
		return out, nil
	}

	size := s.pageSize
	if size <= 0 {
		size = len(s.groups)
	}
	start := 0
	if in.NextToken != nil {
		fmt.Sscanf(aws.ToString(in.NextToken), "%d", &start)
	}
	end := min(start+size, len(s.groups))
	out := &cloudwatchlogs.DescribeLogGroupsOutput{LogGroups: s.groups[start:end]}
	if end < len(s.groups) {
		out.NextToken = aws.String(fmt.Sprintf("%d", end))
	}
	return out, nil
}

func group(name string, retention *int32) logstypes.LogGroup {
	return logstypes.LogGroup{LogGroupName: aws.String(name), RetentionInDays: retention, StoredBytes: aws.Int64(1024)}
}
