// internal/workers/lead/persist-lead-record/handler.go
package persistleadrecord

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"lead-qualifier-workers/internal/common/crm"
	commonerrors "lead-qualifier-workers/internal/common/errors"
	"lead-qualifier-workers/internal/common/logger"
	"lead-qualifier-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/google/uuid"
)

const (
	TaskType = "persist-lead-record"
)

var (
	ErrLeadPersistFailed = errors.New("LEAD_PERSIST_FAILED")
)

// LeadPusher pushes a qualified lead into the CRM.
type LeadPusher interface {
	PushLead(ctx context.Context, lead *crm.Lead) (string, error)
}

type Handler struct {
	config     *Config
	db         *sql.DB
	es         *elasticsearch.Client
	crm        LeadPusher
	logger     logger.Logger
	errHandler *commonerrors.ErrorHandler
}

// NewHandler builds the persistence handler. es and crmClient are
// optional; when nil the corresponding secondary write is skipped.
func NewHandler(config *Config, db *sql.DB, es *elasticsearch.Client, crmClient LeadPusher, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		db:         db,
		es:         es,
		crm:        crmClient,
		logger:     scoped,
		errHandler: commonerrors.NewErrorHandler(scoped),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.errHandler.HandleJobError(context.Background(), client, job, commonerrors.NewLeadParseFailedError(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.errHandler.HandleJobError(context.Background(), client, job, commonerrors.NewLeadPersistFailedError(err))
		return
	}

	h.completeJob(client, job, output)
}

// execute appends the lead unconditionally. The sink is append-only:
// re-running a batch or workflow records the lead again under a fresh id.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	leadID := uuid.New().String()
	createdAt := time.Now().UTC().Format(time.RFC3339)

	budgetJSON, err := json.Marshal(input.Budget)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to marshal budget: %v", ErrLeadPersistFailed, err)
	}
	breakdownJSON, err := json.Marshal(input.Breakdown)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to marshal breakdown: %v", ErrLeadPersistFailed, err)
	}
	advisoriesJSON, err := json.Marshal(input.Advisories)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to marshal advisories: %v", ErrLeadPersistFailed, err)
	}

	_, err = h.db.ExecContext(ctx, `
		INSERT INTO lead_records (
			id, name, email, inquiry, budget,
			location, timeframe, intent, score, breakdown, advisories, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		leadID,
		input.Name,
		input.Email,
		input.Inquiry,
		budgetJSON,
		input.Location,
		input.Timeframe,
		input.Intent,
		input.Score,
		breakdownJSON,
		advisoriesJSON,
		createdAt,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: insert failed: %v", ErrLeadPersistFailed, err)
	}

	// Secondary writes are best effort: the lead is already durable in
	// Postgres, so search indexing and CRM sync only log on failure.
	h.indexLead(ctx, leadID, input, createdAt)
	crmLeadID := h.pushToCRM(ctx, input)

	h.logger.Info("lead record created", map[string]interface{}{
		"leadId": leadID,
		"email":  input.Email,
		"intent": input.Intent,
		"score":  input.Score,
	})

	return &Output{
		LeadID:     leadID,
		LeadStatus: "persisted",
		CRMLeadID:  crmLeadID,
		CreatedAt:  createdAt,
	}, nil
}

func (h *Handler) indexLead(ctx context.Context, leadID string, input *Input, createdAt string) {
	if h.es == nil {
		return
	}

	doc, err := json.Marshal(models.LeadRecord{
		ID:         leadID,
		Name:       input.Name,
		Email:      input.Email,
		Inquiry:    input.Inquiry,
		Budget:     input.Budget,
		Location:   input.Location,
		Timeframe:  input.Timeframe,
		Intent:     input.Intent,
		Score:      input.Score,
		Breakdown:  input.Breakdown,
		Advisories: input.Advisories,
		CreatedAt:  createdAt,
	})
	if err != nil {
		h.logger.Warn("failed to marshal lead document", map[string]interface{}{
			"error":  err,
			"leadId": leadID,
		})
		return
	}

	res, err := h.es.Index(
		h.config.LeadIndex,
		bytes.NewReader(doc),
		h.es.Index.WithDocumentID(leadID),
		h.es.Index.WithContext(ctx),
	)
	if err != nil {
		h.logger.Warn("lead index failed", map[string]interface{}{
			"error":  err,
			"leadId": leadID,
		})
		return
	}
	defer res.Body.Close()

	if res.IsError() {
		h.logger.Warn("lead index error response", map[string]interface{}{
			"status": res.Status(),
			"leadId": leadID,
		})
	}
}

func (h *Handler) pushToCRM(ctx context.Context, input *Input) string {
	if h.crm == nil {
		return ""
	}

	crmLeadID, err := h.crm.PushLead(ctx, &crm.Lead{
		Email:       input.Email,
		LastName:    input.Name,
		Description: input.Inquiry,
		City:        input.Location,
		Source:      "lead-qualification",
		Rating:      input.Intent,
		LeadScore:   input.Score,
	})
	if err != nil {
		h.logger.Warn("crm push failed", map[string]interface{}{
			"error": err,
			"email": input.Email,
		})
		return ""
	}

	return crmLeadID
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
	} else {
		h.logger.Info("job completed successfully", map[string]interface{}{
			"jobKey": job.Key,
		})
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
