package publish

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	herrors "github.com/pankaj-dahiya-devops/aws-hygiene/internal/errors"
	"github.com/pankaj-dahiya-devops/aws-hygiene/internal/models"
)

// MetricPublicInstanceCount is the metric name published per account/region.
const MetricPublicInstanceCount = "PublicInstanceCount"

// maxDatumsPerCall is the PutMetricData limit on MetricData entries.
const maxDatumsPerCall = 1000

// CloudWatchAPI is the subset of CloudWatch operations used to publish
// scan metrics.
type CloudWatchAPI interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// MetricsPublisher records per-region public-instance counts in CloudWatch.
type MetricsPublisher struct {
	client    CloudWatchAPI
	namespace string
}

// NewMetricsPublisher returns a publisher backed by a real CloudWatch client.
func NewMetricsPublisher(cfg aws.Config, namespace string) *MetricsPublisher {
	return &MetricsPublisher{client: cloudwatch.NewFromConfig(cfg), namespace: namespace}
}

// NewMetricsPublisherWithClient returns a publisher that uses client. Pass a
// mock in tests.
func NewMetricsPublisherWithClient(client CloudWatchAPI, namespace string) *MetricsPublisher {
	return &MetricsPublisher{client: client, namespace: namespace}
}

// RegionCount is the number of public instances found in one account/region.
type RegionCount struct {
	AccountID string
	Region    string
	Count     int
}

// CountByRegion returns one entry per successfully scanned account/region,
// including regions with zero public instances. Failed regions are left out
// so a scan error never reads as "no exposure".
func CountByRegion(report *models.ScanReport) []RegionCount {
	type key struct{ profile, region string }

	failed := make(map[key]bool, len(report.Failures))
	for _, f := range report.Failures {
		failed[key{f.Profile, f.Region}] = true
	}
	rows := make(map[key]int)
	for _, r := range report.Rows {
		rows[key{r.Profile, r.Region}]++
	}

	var counts []RegionCount
	for _, p := range report.Profiles {
		for _, region := range p.Regions {
			k := key{p.Profile, region}
			if failed[k] {
				continue
			}
			counts = append(counts, RegionCount{AccountID: p.AccountID, Region: region, Count: rows[k]})
		}
	}
	return counts
}

// Publish writes one PublicInstanceCount datum per entry of
// CountByRegion(report), timestamped with the report's generation time.
// It returns the number of datums written.
func (p *MetricsPublisher) Publish(ctx context.Context, report *models.ScanReport) (int, error) {
	counts := CountByRegion(report)
	data := make([]cwtypes.MetricDatum, 0, len(counts))
	for _, c := range counts {
		data = append(data, cwtypes.MetricDatum{
			MetricName: aws.String(MetricPublicInstanceCount),
			Timestamp:  aws.Time(report.GeneratedAt),
			Unit:       cwtypes.StandardUnitCount,
			Value:      aws.Float64(float64(c.Count)),
			Dimensions: []cwtypes.Dimension{
				{Name: aws.String("AccountId"), Value: aws.String(c.AccountID)},
				{Name: aws.String("Region"), Value: aws.String(c.Region)},
			},
		})
	}

	for start := 0; start < len(data); start += maxDatumsPerCall {
		end := min(start+maxDatumsPerCall, len(data))
		_, err := p.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
			Namespace:  aws.String(p.namespace),
			MetricData: data[start:end],
		})
		if err != nil {
			return start, herrors.New(herrors.ErrOutput, "publish CloudWatch metrics",
				map[string]interface{}{
					"namespace": p.namespace,
					"api_code":  herrors.APICode(err),
				}, err)
		}
	}
	return len(data), nil
}
