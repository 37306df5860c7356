package inspector

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/inspector2"
	"github.com/aws/aws-sdk-go-v2/service/inspector2/types"

	herrors "github.com/pankaj-dahiya-devops/aws-hygiene/internal/errors"
	"github.com/pankaj-dahiya-devops/aws-hygiene/internal/models"
)

// pageSize is the largest page ListFindings accepts.
const pageSize = 100

// ListActiveEC2Findings returns every ACTIVE finding on an EC2 instance that
// client can see. A non-empty instanceID restricts the result to that
// instance.
func ListActiveEC2Findings(ctx context.Context, client FindingsAPI, instanceID string) ([]models.Finding, error) {
	criteria := &types.FilterCriteria{
		ResourceType:  []types.StringFilter{equals(string(types.ResourceTypeAwsEc2Instance))},
		FindingStatus: []types.StringFilter{equals(string(types.FindingStatusActive))},
	}
	if instanceID != "" {
		criteria.ResourceId = []types.StringFilter{equals(instanceID)}
	}

	paginator := inspector2.NewListFindingsPaginator(client, &inspector2.ListFindingsInput{
		FilterCriteria: criteria,
		MaxResults:     aws.Int32(pageSize),
	})

	var findings []models.Finding
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, herrors.New(herrors.ErrFindings, "list Inspector findings",
				map[string]interface{}{
					"instance_id": instanceID,
					"api_code":    herrors.APICode(err),
				}, fmt.Errorf("ListFindings page: %w", err))
		}
		for _, f := range page.Findings {
			findings = append(findings, toFinding(f))
		}
	}
	return findings, nil
}

func equals(value string) types.StringFilter {
	return types.StringFilter{Comparison: types.StringComparisonEquals, Value: aws.String(value)}
}

func toFinding(f types.Finding) models.Finding {
	out := models.Finding{
		FindingARN:      aws.ToString(f.FindingArn),
		AccountID:       aws.ToString(f.AwsAccountId),
		Title:           aws.ToString(f.Title),
		Severity:        string(f.Severity),
		InspectorScore:  f.InspectorScore,
		FixAvailable:    string(f.FixAvailable),
		FirstObservedAt: aws.ToTime(f.FirstObservedAt),
		LastObservedAt:  aws.ToTime(f.LastObservedAt),
	}
	if f.Remediation != nil && f.Remediation.Recommendation != nil {
		out.RecommendationURL = aws.ToString(f.Remediation.Recommendation.Url)
	}
	if d := f.PackageVulnerabilityDetails; d != nil {
		out.VulnerabilityID = aws.ToString(d.VulnerabilityId)
		for _, p := range d.VulnerablePackages {
			out.Packages = append(out.Packages, models.VulnerablePackage{
				Name:           aws.ToString(p.Name),
				Version:        aws.ToString(p.Version),
				FixedInVersion: aws.ToString(p.FixedInVersion),
			})
		}
	}
	for _, r := range f.Resources {
		out.Resources = append(out.Resources, models.FindingResource{
			ID:     aws.ToString(r.Id),
			Type:   string(r.Type),
			Region: aws.ToString(r.Region),
		})
	}
	return out
}
