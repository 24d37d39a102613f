// internal/workers/lead/qualify-lead/handler.go
package qualifylead

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"lead-qualifier-workers/internal/common/logger"
	"lead-qualifier-workers/internal/common/metrics"
	"lead-qualifier-workers/internal/common/validation"
	"lead-qualifier-workers/internal/scoring"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

const (
	TaskType = "qualify-lead"
)

var (
	ErrValidationFailed = errors.New("LEAD_VALIDATION_FAILED")
)

type Handler struct {
	config *Config
	engine *scoring.Engine
	logger logger.Logger
}

func NewHandler(config *Config, engine *scoring.Engine, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		engine: engine,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	startTime := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	if err := validation.ValidateLeadPayload([]byte(job.Variables)); err != nil {
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, "LEAD_VALIDATION_FAILED").Inc()
		h.failJob(client, job, "LEAD_VALIDATION_FAILED", err.Error(), 0)
		return
	}

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, "PARSE_ERROR").Inc()
		h.failJob(client, job, "PARSE_ERROR", fmt.Sprintf("parse input: %v", err), 0)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, "LEAD_QUALIFY_FAILED").Inc()
		h.failJob(client, job, "LEAD_QUALIFY_FAILED", err.Error(), 0)
		return
	}

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	ctx, span := otel.Tracer(TaskType).Start(ctx, "qualify_lead")
	defer span.End()

	result, err := h.engine.QualifyLead(ctx, scoring.LeadInput{
		Name:      input.Name,
		Email:     input.Email,
		Inquiry:   input.Inquiry,
		Budget:    input.Budget,
		Location:  input.Location,
		Timeframe: input.Timeframe,
	})
	if err != nil {
		return nil, err
	}

	span.SetAttributes(
		attribute.String("lead.tier", result.Tier),
		attribute.Float64("lead.score", result.FinalScore),
	)

	metrics.LeadsScored.WithLabelValues(result.Tier).Inc()
	metrics.LeadScoreDistribution.Observe(result.FinalScore)
	for _, adv := range result.Advisories {
		metrics.ScoreAdvisories.WithLabelValues(adv.Code).Inc()
	}

	return &Output{
		Intent:      result.Tier,
		Score:       result.FinalScore,
		Breakdown:   result.Breakdown,
		Advisories:  result.Advisories,
		QualifiedAt: time.Now().UTC().Format(time.RFC3339),
	}, nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	_, err = cmd.Send(context.Background())
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, errorCode, errorMessage string, _ int32) {
	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":       job.Key,
		"errorCode":    errorCode,
		"errorMessage": errorMessage,
	})

	_, err := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(errorCode).
		ErrorMessage(errorMessage).
		Send(context.Background())
	if err != nil {
		h.logger.Error("failed to throw error", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
