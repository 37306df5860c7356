package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	logstypes "github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"

	"github.com/pankaj-dahiya-devops/aws-hygiene/internal/config"
	"github.com/pankaj-dahiya-devops/aws-hygiene/internal/engine"
	herrors "github.com/pankaj-dahiya-devops/aws-hygiene/internal/errors"
	"github.com/pankaj-dahiya-devops/aws-hygiene/internal/models"
	"github.com/pankaj-dahiya-devops/aws-hygiene/internal/retention"
)

// ── scan test helpers ────────────────────────────────────────────────────────

// stubEngine returns a canned report and replays the progress callbacks for
// the regions it was given.
type stubEngine struct {
	report  *models.ScanReport
	err     error
	regions map[string][]string
	opts    engine.ScanOptions
}

func (e *stubEngine) RunScan(_ context.Context, opts engine.ScanOptions) (*models.ScanReport, error) {
	e.opts = opts
	for profile, regions := range e.regions {
		if opts.OnProfileStart != nil {
			opts.OnProfileStart(profile, regions)
		}
		for _, r := range regions {
			if opts.OnRegionDone != nil {
				opts.OnRegionDone(profile, r, nil)
			}
		}
	}
	return e.report, e.err
}

type uploadCall struct {
	uri, name, contentType string
	body                   string
}

type stubUploader struct {
	calls []uploadCall
	err   error
}

func (u *stubUploader) Upload(_ context.Context, uri, name, contentType string, body []byte) (string, error) {
	u.calls = append(u.calls, uploadCall{uri, name, contentType, string(body)})
	if u.err != nil {
		return "", u.err
	}
	return uri + "/" + name, nil
}

type stubMetrics struct {
	namespace string
	reports   int
}

func (m *stubMetrics) Publish(_ context.Context, report *models.ScanReport) (int, error) {
	m.reports++
	return len(report.Rows), nil
}

var scanTime = time.Date(2024, 3, 9, 8, 30, 0, 0, time.UTC)

func testDeps(eng engine.Engine, up *stubUploader, mp *stubMetrics) scanDeps {
	return scanDeps{
		engine: eng,
		uploader: func(context.Context) (reportUploader, error) {
			return up, nil
		},
		metrics: func(_ context.Context, namespace string) (metricsPublisher, error) {
			mp.namespace = namespace
			return mp, nil
		},
		now: func() time.Time { return scanTime },
	}
}

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		LogLevel: "info",
		Scan:     config.ScanConfig{Concurrency: 3, MaxAttempts: 10},
		Output:   config.OutputConfig{Dir: t.TempDir(), Format: config.FormatCSV},
	}
}

func publicRow(region, id string) models.ClassificationRow {
	return models.ClassificationRow{
		Profile:      "prod",
		AccountID:    "111122223333",
		Region:       region,
		InstanceID:   id,
		Name:         "web",
		State:        "running",
		PublicIP:     "54.1.2.3",
		RouteTableID: "rtb-1",
	}
}

func reportWith(rows ...models.ClassificationRow) *models.ScanReport {
	return &models.ScanReport{
		ReportID: "scan-1",
		Profiles: []models.ProfileSummary{{Profile: "prod", AccountID: "111122223333", PublicInstances: len(rows)}},
		Rows:     rows,
	}
}

// ── ec2 public ───────────────────────────────────────────────────────────────

func TestRunPublicScan_PassesOptions(t *testing.T) {
	cfg := testConfig(t)
	cfg.Scan.AllProfiles = true
	cfg.Scan.ProfileFilter = []string{"prod-*"}
	cfg.Scan.Regions = []string{"us-east-1"}
	eng := &stubEngine{report: reportWith()}

	var out bytes.Buffer
	if err := runPublicScan(context.Background(), cfg, testDeps(eng, &stubUploader{}, &stubMetrics{}), &out, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !eng.opts.AllProfiles || eng.opts.Concurrency != 3 {
		t.Errorf("options not forwarded: %+v", eng.opts)
	}
	if len(eng.opts.ProfileFilter) != 1 || eng.opts.Regions[0] != "us-east-1" {
		t.Errorf("filters not forwarded: %+v", eng.opts)
	}
	if eng.opts.OnProfileStart != nil || eng.opts.OnRegionDone != nil {
		t.Error("progress callbacks must not be set without a progress writer")
	}
}

func TestRunPublicScan_CSVWritten(t *testing.T) {
	cfg := testConfig(t)
	eng := &stubEngine{report: reportWith(publicRow("us-east-1", "i-1"), publicRow("eu-west-1", "i-2"))}

	var out bytes.Buffer
	if err := runPublicScan(context.Background(), cfg, testDeps(eng, &stubUploader{}, &stubMetrics{}), &out, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	path := filepath.Join(cfg.Output.Dir, "public_ec2_instances_2024-03-09.csv")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("CSV not written: %v", err)
	}
	if lines := strings.Count(string(data), "\n"); lines != 3 {
		t.Errorf("expected header + 2 rows; got %d lines:\n%s", lines, data)
	}
	if !strings.Contains(out.String(), "Found 2 public EC2 instance(s)") {
		t.Errorf("missing summary line; got:\n%s", out.String())
	}
}

func TestRunPublicScan_NoRowsNoFile(t *testing.T) {
	cfg := testConfig(t)
	eng := &stubEngine{report: reportWith()}

	var out bytes.Buffer
	if err := runPublicScan(context.Background(), cfg, testDeps(eng, &stubUploader{}, &stubMetrics{}), &out, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.String(), "No public EC2 instances found.") {
		t.Errorf("expected empty message; got:\n%s", out.String())
	}
	entries, _ := os.ReadDir(cfg.Output.Dir)
	if len(entries) != 0 {
		t.Errorf("no file expected; found %d entries", len(entries))
	}
}

func TestRunPublicScan_TableAndJSON(t *testing.T) {
	for _, format := range []string{config.FormatTable, config.FormatJSON} {
		t.Run(format, func(t *testing.T) {
			cfg := testConfig(t)
			cfg.Output.Format = format
			eng := &stubEngine{report: reportWith(publicRow("us-east-1", "i-0abc"))}

			var out bytes.Buffer
			if err := runPublicScan(context.Background(), cfg, testDeps(eng, &stubUploader{}, &stubMetrics{}), &out, nil); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !strings.Contains(out.String(), "i-0abc") {
				t.Errorf("instance missing from output:\n%s", out.String())
			}
			if format == config.FormatJSON {
				var parsed models.ScanReport
				if err := json.Unmarshal(out.Bytes(), &parsed); err != nil {
					t.Fatalf("invalid JSON: %v", err)
				}
				if len(parsed.Rows) != 1 {
					t.Errorf("expected 1 row; got %d", len(parsed.Rows))
				}
			}
		})
	}
}

func TestRunPublicScan_FailuresListed(t *testing.T) {
	cfg := testConfig(t)
	report := reportWith(publicRow("us-east-1", "i-1"))
	report.Failures = []models.ScanFailure{{Profile: "prod", Region: "ap-east-1", Error: "OptInRequired"}}
	eng := &stubEngine{report: report}

	var out bytes.Buffer
	if err := runPublicScan(context.Background(), cfg, testDeps(eng, &stubUploader{}, &stubMetrics{}), &out, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.String(), "Skipped (1)") || !strings.Contains(out.String(), "prod/ap-east-1") {
		t.Errorf("failures not listed; got:\n%s", out.String())
	}
}

func TestRunPublicScan_Publishes(t *testing.T) {
	cfg := testConfig(t)
	cfg.Output.S3URI = "s3://reports/ec2"
	cfg.Output.MetricsNamespace = "Hygiene"
	eng := &stubEngine{report: reportWith(publicRow("us-east-1", "i-1"))}
	up, mp := &stubUploader{}, &stubMetrics{}

	var out bytes.Buffer
	if err := runPublicScan(context.Background(), cfg, testDeps(eng, up, mp), &out, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(up.calls) != 1 {
		t.Fatalf("expected 1 upload; got %d", len(up.calls))
	}
	call := up.calls[0]
	if call.uri != "s3://reports/ec2" || call.name != "public_ec2_instances_2024-03-09.csv" || call.contentType != "text/csv" {
		t.Errorf("unexpected upload: %+v", call)
	}
	if !strings.HasPrefix(call.body, "Profile,AccountId,Region,InstanceId") || !strings.Contains(call.body, "i-1") {
		t.Errorf("unexpected body:\n%s", call.body)
	}
	if !strings.Contains(out.String(), "Uploaded report to s3://reports/ec2/public_ec2_instances_2024-03-09.csv") {
		t.Errorf("missing upload line; got:\n%s", out.String())
	}
	if mp.reports != 1 || mp.namespace != "Hygiene" {
		t.Errorf("metrics not published: %+v", mp)
	}
}

func TestRunPublicScan_NoUploadWithoutRows(t *testing.T) {
	cfg := testConfig(t)
	cfg.Output.S3URI = "s3://reports"
	cfg.Output.MetricsNamespace = "Hygiene"
	eng := &stubEngine{report: reportWith()}
	up, mp := &stubUploader{}, &stubMetrics{}

	if err := runPublicScan(context.Background(), cfg, testDeps(eng, up, mp), &bytes.Buffer{}, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(up.calls) != 0 {
		t.Errorf("no upload expected; got %d", len(up.calls))
	}
	// Zero counts are still published.
	if mp.reports != 1 {
		t.Errorf("expected metrics publish; got %d", mp.reports)
	}
}

func TestRunPublicScan_UploadError(t *testing.T) {
	cfg := testConfig(t)
	cfg.Output.S3URI = "s3://reports"
	eng := &stubEngine{report: reportWith(publicRow("us-east-1", "i-1"))}
	up := &stubUploader{err: herrors.New(herrors.ErrOutput, "upload report to S3", nil, errors.New("AccessDenied"))}

	err := runPublicScan(context.Background(), cfg, testDeps(eng, up, &stubMetrics{}), &bytes.Buffer{}, nil)
	if !herrors.Is(err, herrors.ErrOutput) {
		t.Errorf("expected ErrOutput; got %v", err)
	}
}

func TestRunPublicScan_PartialReportStillWritten(t *testing.T) {
	cfg := testConfig(t)
	cfg.Output.Format = config.FormatTable
	cfg.Output.MetricsNamespace = "Hygiene"
	eng := &stubEngine{report: reportWith(publicRow("us-east-1", "i-partial")), err: context.Canceled}
	mp := &stubMetrics{}

	var out bytes.Buffer
	err := runPublicScan(context.Background(), cfg, testDeps(eng, &stubUploader{}, mp), &out, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled; got %v", err)
	}
	if !strings.Contains(out.String(), "i-partial") {
		t.Errorf("partial rows must be rendered; got:\n%s", out.String())
	}
	if mp.reports != 0 {
		t.Error("metrics must not be published for an incomplete scan")
	}
}

func TestRunPublicScan_NoReport(t *testing.T) {
	cfg := testConfig(t)
	want := herrors.New(herrors.ErrAWSProfile, "no AWS profiles found", nil, nil)
	eng := &stubEngine{err: want}

	var out bytes.Buffer
	err := runPublicScan(context.Background(), cfg, testDeps(eng, &stubUploader{}, &stubMetrics{}), &out, nil)
	if !herrors.Is(err, herrors.ErrAWSProfile) {
		t.Errorf("expected ErrAWSProfile; got %v", err)
	}
	if out.Len() != 0 {
		t.Errorf("nothing should be written; got:\n%s", out.String())
	}
}

func TestRunPublicScan_ProgressBar(t *testing.T) {
	cfg := testConfig(t)
	eng := &stubEngine{
		report:  reportWith(),
		regions: map[string][]string{"prod": {"us-east-1", "eu-west-1", "ap-south-1"}},
	}

	var out, progress bytes.Buffer
	if err := runPublicScan(context.Background(), cfg, testDeps(eng, &stubUploader{}, &stubMetrics{}), &out, &progress); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(progress.String(), "3/3") {
		t.Errorf("expected completed count in progress output; got %q", progress.String())
	}
	if strings.Contains(out.String(), "3/3") {
		t.Error("progress must not be written to the report output")
	}
}

func TestPublicCmd_ProfileFlagsExclusive(t *testing.T) {
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"ec2", "public", "--profile", "dev", "--all-profiles"})

	err := root.Execute()
	if err == nil || !strings.Contains(err.Error(), "none of the others can be") {
		t.Errorf("expected mutually exclusive flag error; got %v", err)
	}
}

// ── logs no-retention ────────────────────────────────────────────────────────

// regionLogs answers DescribeLogGroups with one page per region.
type regionLogs struct {
	region string
	groups map[string][]logstypes.LogGroup
	fail   map[string]error
}

func (r *regionLogs) DescribeLogGroups(_ context.Context, _ *cloudwatchlogs.DescribeLogGroupsInput, _ ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.DescribeLogGroupsOutput, error) {
	if err := r.fail[r.region]; err != nil {
		return nil, err
	}
	return &cloudwatchlogs.DescribeLogGroupsOutput{LogGroups: r.groups[r.region]}, nil
}

func logsFactory(groups map[string][]logstypes.LogGroup, fail map[string]error) func(aws.Config) retention.LogsAPI {
	return func(cfg aws.Config) retention.LogsAPI {
		return &regionLogs{region: cfg.Region, groups: groups, fail: fail}
	}
}

func logGroup(name string, retentionDays *int32) logstypes.LogGroup {
	return logstypes.LogGroup{LogGroupName: aws.String(name), RetentionInDays: retentionDays}
}

func TestRunNoRetention_ListsAcrossRegions(t *testing.T) {
	awsP := goodMockAWS()
	groups := map[string][]logstypes.LogGroup{
		"us-east-1": {logGroup("/aws/lambda/a", nil), logGroup("/aws/lambda/b", aws.Int32(7))},
		"eu-west-1": {logGroup("/ecs/c", nil)},
	}

	var out bytes.Buffer
	if err := runNoRetention(context.Background(), awsP, logsFactory(groups, nil), "prod", nil, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if awsP.lastProfile != "prod" {
		t.Errorf("LoadProfile called with %q; want prod", awsP.lastProfile)
	}
	if strings.Join(awsP.configRegions, ",") != "us-east-1,eu-west-1" {
		t.Errorf("regions not discovered; got %v", awsP.configRegions)
	}
	s := out.String()
	for _, want := range []string{"/aws/lambda/a", "/ecs/c", "2 log group(s) without retention"} {
		if !strings.Contains(s, want) {
			t.Errorf("output missing %q;\ngot:\n%s", want, s)
		}
	}
	if strings.Contains(s, "/aws/lambda/b") {
		t.Errorf("group with retention must not be listed;\ngot:\n%s", s)
	}
}

func TestRunNoRetention_ExplicitRegions(t *testing.T) {
	awsP := goodMockAWS()
	awsP.regionsErr = errors.New("must not be called")

	var out bytes.Buffer
	if err := runNoRetention(context.Background(), awsP, logsFactory(nil, nil), "", []string{"sa-east-1"}, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Join(awsP.configRegions, ",") != "sa-east-1" {
		t.Errorf("unexpected regions %v", awsP.configRegions)
	}
	if !strings.Contains(out.String(), "All log groups have a retention policy.") {
		t.Errorf("unexpected output:\n%s", out.String())
	}
}

func TestRunNoRetention_RegionFailureIsolated(t *testing.T) {
	awsP := goodMockAWS()
	groups := map[string][]logstypes.LogGroup{"eu-west-1": {logGroup("/ecs/c", nil)}}
	fail := map[string]error{"us-east-1": errors.New("AccessDeniedException")}

	var out bytes.Buffer
	if err := runNoRetention(context.Background(), awsP, logsFactory(groups, fail), "", nil, &out); err != nil {
		t.Fatalf("one failing region must not fail the command: %v", err)
	}
	s := out.String()
	if !strings.Contains(s, "/ecs/c") || !strings.Contains(s, "Skipped (1)") {
		t.Errorf("unexpected output:\n%s", s)
	}
}

func TestRunNoRetention_AllRegionsFail(t *testing.T) {
	awsP := goodMockAWS()
	fail := map[string]error{
		"us-east-1": errors.New("AccessDeniedException"),
		"eu-west-1": errors.New("AccessDeniedException"),
	}

	err := runNoRetention(context.Background(), awsP, logsFactory(nil, fail), "", nil, &bytes.Buffer{})
	if !herrors.Is(err, herrors.ErrRegionScan) {
		t.Errorf("expected ErrRegionScan; got %v", err)
	}
}

func TestRunNoRetention_ProfileError(t *testing.T) {
	awsP := &mockAWSProvider{profileErr: errors.New("no credentials configured")}
	err := runNoRetention(context.Background(), awsP, logsFactory(nil, nil), "", nil, &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "no credentials") {
		t.Errorf("expected profile error; got %v", err)
	}
}
