package retention

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"go.uber.org/zap"

	herrors "github.com/pankaj-dahiya-devops/aws-hygiene/internal/errors"
	"github.com/pankaj-dahiya-devops/aws-hygiene/internal/logger"
)

// DefaultSubjectPrefix starts every notification subject unless overridden.
const DefaultSubjectPrefix = "[CWL Retention]"

// maxSubjectLength is the SNS limit on a message subject.
const maxSubjectLength = 100

// complianceDetail is the subset of a "Config Rules Compliance Change"
// EventBridge detail the notifier reads. Every field is optional.
type complianceDetail struct {
	ConfigRuleName        string `json:"configRuleName"`
	ResourceID            string `json:"resourceId"`
	ConfigurationItemName string `json:"configurationItemName"`
	Annotation            string `json:"annotation"`
	NewEvaluationResult   struct {
		ComplianceType             string `json:"complianceType"`
		EvaluationResultIdentifier struct {
			EvaluationResultQualifier struct {
				ResourceID string `json:"resourceId"`
			} `json:"evaluationResultQualifier"`
		} `json:"evaluationResultIdentifier"`
	} `json:"newEvaluationResult"`
}

// Notification is the flattened view of a compliance change.
type Notification struct {
	Rule       string          `json:"rule"`
	Status     string          `json:"status"`
	Account    string          `json:"account"`
	Region     string          `json:"region"`
	Resource   string          `json:"resource"`
	Annotation string          `json:"annotation"`
	Time       string          `json:"time"`
	Raw        json.RawMessage `json:"raw"`
}

// NotifyResult is returned to the Lambda runtime after a notification.
type NotifyResult struct {
	OK      bool   `json:"ok"`
	Subject string `json:"subject"`
}

// Notifier forwards Config compliance changes to an SNS topic.
type Notifier struct {
	sns           SNSAPI
	topicARN      string
	subjectPrefix string
	now           func() time.Time
	logger        *zap.Logger
}

// NewNotifier returns a Notifier publishing to topicARN. An empty
// subjectPrefix uses DefaultSubjectPrefix.
func NewNotifier(client SNSAPI, topicARN, subjectPrefix string, log *zap.Logger) *Notifier {
	if subjectPrefix == "" {
		subjectPrefix = DefaultSubjectPrefix
	}
	if log == nil {
		log = logger.For("retention")
	}
	return &Notifier{
		sns:           client,
		topicARN:      topicARN,
		subjectPrefix: subjectPrefix,
		now:           time.Now,
		logger:        log,
	}
}

// NewNotifierFromConfig builds a Notifier with a real SNS client.
func NewNotifierFromConfig(cfg aws.Config, topicARN, subjectPrefix string, log *zap.Logger) *Notifier {
	return NewNotifier(sns.NewFromConfig(cfg), topicARN, subjectPrefix, log)
}

// Handle publishes one SNS message describing event.
func (n *Notifier) Handle(ctx context.Context, event events.CloudWatchEvent) (NotifyResult, error) {
	if n.topicARN == "" {
		return NotifyResult{}, herrors.New(herrors.ErrConfigInvalid, "notification topic ARN is not set", nil, nil)
	}

	note, err := n.extract(event)
	if err != nil {
		return NotifyResult{}, err
	}
	subject := n.subject(note)

	body, err := json.MarshalIndent(note, "", "  ")
	if err != nil {
		return NotifyResult{}, herrors.New(herrors.ErrNotification, "encode notification", nil, err)
	}

	_, err = n.sns.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(n.topicARN),
		Subject:  aws.String(subject),
		Message:  aws.String(string(body)),
	})
	if err != nil {
		return NotifyResult{}, herrors.New(herrors.ErrNotification, "publish notification",
			map[string]interface{}{
				"topic":    n.topicARN,
				"api_code": herrors.APICode(err),
			}, err)
	}

	n.logger.Info("Compliance change notified",
		zap.String("operation", "notify"),
		zap.String("resource", note.Resource),
		zap.String("status", note.Status),
	)
	return NotifyResult{OK: true, Subject: subject}, nil
}

// extract flattens event, filling defaults for every missing field.
func (n *Notifier) extract(event events.CloudWatchEvent) (Notification, error) {
	var d complianceDetail
	if len(event.Detail) > 0 {
		if err := json.Unmarshal(event.Detail, &d); err != nil {
			return Notification{}, herrors.New(herrors.ErrMalformedInput, "decode event detail", nil, err)
		}
	}

	raw, err := json.Marshal(event)
	if err != nil {
		return Notification{}, herrors.New(herrors.ErrNotification, "encode raw event", nil, err)
	}

	resource := firstNonEmpty(
		d.ResourceID,
		d.ConfigurationItemName,
		d.NewEvaluationResult.EvaluationResultIdentifier.EvaluationResultQualifier.ResourceID,
		"resource",
	)

	return Notification{
		Rule:       firstNonEmpty(d.ConfigRuleName, "unknown-rule"),
		Status:     firstNonEmpty(d.NewEvaluationResult.ComplianceType, "UNKNOWN"),
		Account:    firstNonEmpty(event.AccountID, "unknown"),
		Region:     firstNonEmpty(event.Region, "unknown"),
		Resource:   resource,
		Annotation: d.Annotation,
		Time:       n.now().UTC().Format(time.RFC3339),
		Raw:        raw,
	}, nil
}

// subject renders the SNS subject, cut to the SNS length limit.
func (n *Notifier) subject(note Notification) string {
	s := fmt.Sprintf("%s [%s/%s] %s - %s", n.subjectPrefix, note.Account, note.Region, note.Status, note.Resource)
	if r := []rune(s); len(r) > maxSubjectLength {
		return string(r[:maxSubjectLength])
	}
	return s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
