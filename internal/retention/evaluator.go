package retention

import (
	"context"
	"encoding/json"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	configsvc "github.com/aws/aws-sdk-go-v2/service/configservice"
	configtypes "github.com/aws/aws-sdk-go-v2/service/configservice/types"
	"go.uber.org/zap"

	herrors "github.com/pankaj-dahiya-devops/aws-hygiene/internal/errors"
	"github.com/pankaj-dahiya-devops/aws-hygiene/internal/logger"
	"github.com/pankaj-dahiya-devops/aws-hygiene/internal/models"
)

// Config rule message types handled by Evaluator.
const (
	MessageTypeChange    = "ConfigurationItemChangeNotification"
	MessageTypeScheduled = "ScheduledNotification"
)

const (
	annotationCompliant    = "Retention is set."
	annotationNonCompliant = "Retention is NOT set."
)

// evaluationBatchSize is the PutEvaluations limit on evaluations per call.
const evaluationBatchSize = 100

// invokingEvent is the subset of the Config rule's invokingEvent JSON that
// the evaluator reads.
type invokingEvent struct {
	MessageType       string `json:"messageType"`
	ConfigurationItem *struct {
		ResourceType string `json:"resourceType"`
		ResourceID   string `json:"resourceId"`
	} `json:"configurationItem"`
}

// Evaluator implements an AWS Config custom rule that marks log groups
// without a retention policy NON_COMPLIANT.
type Evaluator struct {
	logs   LogsAPI
	config ConfigAPI
	now    func() time.Time
	logger *zap.Logger
}

// NewEvaluator returns an Evaluator that reads log groups through logs and
// reports through config.
func NewEvaluator(logs LogsAPI, config ConfigAPI, log *zap.Logger) *Evaluator {
	if log == nil {
		log = logger.For("retention")
	}
	return &Evaluator{logs: logs, config: config, now: time.Now, logger: log}
}

// NewEvaluatorFromConfig builds an Evaluator with real SDK clients.
func NewEvaluatorFromConfig(cfg aws.Config, log *zap.Logger) *Evaluator {
	return NewEvaluator(NewLogsClient(cfg), configsvc.NewFromConfig(cfg), log)
}

// Handle processes one Config rule invocation.
//
// Change notifications evaluate the single log group they name; scheduled
// notifications evaluate every log group in the region. Any other message,
// and changes to resources that are not log groups, are answered with an
// empty evaluation list.
func (e *Evaluator) Handle(ctx context.Context, event events.ConfigEvent) error {
	var inv invokingEvent
	if err := json.Unmarshal([]byte(event.InvokingEvent), &inv); err != nil {
		return herrors.New(herrors.ErrMalformedInput, "decode invokingEvent", nil, err)
	}
	log := e.logger.With(
		zap.String("operation", "evaluate"),
		zap.String("message_type", inv.MessageType),
		zap.String("rule", event.ConfigRuleName),
	)

	switch inv.MessageType {
	case MessageTypeChange:
		if inv.ConfigurationItem == nil || inv.ConfigurationItem.ResourceType != models.ResourceTypeLogGroup {
			return e.put(ctx, event.ResultToken, nil)
		}
		ev, err := e.evaluateOne(ctx, inv.ConfigurationItem.ResourceID)
		if err != nil {
			return err
		}
		log.Info("Log group evaluated",
			zap.String("log_group", ev.ResourceID),
			zap.String("compliance", string(ev.ComplianceType)),
		)
		return e.put(ctx, event.ResultToken, []models.LogGroupEvaluation{ev})

	case MessageTypeScheduled:
		n, err := e.evaluateAll(ctx, event.ResultToken)
		if err != nil {
			return err
		}
		log.Info("Log groups evaluated", zap.Int("log_groups", n))
		return nil

	default:
		log.Debug("Unhandled message type")
		return e.put(ctx, event.ResultToken, nil)
	}
}

// evaluateOne evaluates the group named name. A group that no longer exists
// was deleted after the change event and is reported COMPLIANT.
func (e *Evaluator) evaluateOne(ctx context.Context, name string) (models.LogGroupEvaluation, error) {
	g, err := FindLogGroup(ctx, e.logs, name)
	if err != nil {
		return models.LogGroupEvaluation{}, herrors.New(herrors.ErrEvaluation, "look up log group",
			map[string]interface{}{"log_group": name}, err)
	}
	return e.evaluation(name, g == nil || g.HasRetention()), nil
}

// evaluateAll evaluates every log group and flushes evaluations in batches.
func (e *Evaluator) evaluateAll(ctx context.Context, token string) (int, error) {
	var (
		batch []models.LogGroupEvaluation
		total int
	)
	err := ListLogGroups(ctx, e.logs, "", func(g models.LogGroup) error {
		batch = append(batch, e.evaluation(g.Name, g.HasRetention()))
		total++
		if len(batch) == evaluationBatchSize {
			if err := e.put(ctx, token, batch); err != nil {
				return err
			}
			batch = nil
		}
		return nil
	})
	if err != nil {
		if herrors.Is(err, herrors.ErrEvaluation) {
			return total, err
		}
		return total, herrors.New(herrors.ErrEvaluation, "list log groups", nil, err)
	}
	if len(batch) > 0 {
		if err := e.put(ctx, token, batch); err != nil {
			return total, err
		}
	}
	return total, nil
}

func (e *Evaluator) evaluation(name string, compliant bool) models.LogGroupEvaluation {
	ev := models.LogGroupEvaluation{
		ResourceID:        name,
		ComplianceType:    models.ComplianceNonCompliant,
		Annotation:        annotationNonCompliant,
		OrderingTimestamp: e.now().UTC(),
	}
	if compliant {
		ev.ComplianceType = models.ComplianceCompliant
		ev.Annotation = annotationCompliant
	}
	return ev
}

// put submits evals (possibly none) against the rule invocation's token.
func (e *Evaluator) put(ctx context.Context, token string, evals []models.LogGroupEvaluation) error {
	out := make([]configtypes.Evaluation, 0, len(evals))
	for _, ev := range evals {
		out = append(out, configtypes.Evaluation{
			ComplianceResourceType: aws.String(models.ResourceTypeLogGroup),
			ComplianceResourceId:   aws.String(ev.ResourceID),
			ComplianceType:         configtypes.ComplianceType(ev.ComplianceType),
			Annotation:             aws.String(ev.Annotation),
			OrderingTimestamp:      aws.Time(ev.OrderingTimestamp),
		})
	}

	_, err := e.config.PutEvaluations(ctx, &configsvc.PutEvaluationsInput{
		Evaluations: out,
		ResultToken: aws.String(token),
	})
	if err != nil {
		return herrors.New(herrors.ErrEvaluation, "put evaluations",
			map[string]interface{}{
				"count":    len(out),
				"api_code": herrors.APICode(err),
			}, err)
	}
	return nil
}
