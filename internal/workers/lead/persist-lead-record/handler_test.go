// internal/workers/lead/persist-lead-record/handler_test.go
package persistleadrecord

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"lead-qualifier-workers/internal/common/crm"
	"lead-qualifier-workers/internal/common/logger"
	"lead-qualifier-workers/internal/scoring"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type stubPusher struct {
	leadID string
	err    error
	pushed *crm.Lead
}

func (s *stubPusher) PushLead(ctx context.Context, lead *crm.Lead) (string, error) {
	s.pushed = lead
	if s.err != nil {
		return "", s.err
	}
	return s.leadID, nil
}

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock db: %v", err)
	}
	return db, mock
}

func createTestInput() *Input {
	return &Input{
		Name:      "Maria Alvarez",
		Email:     "maria@example.com",
		Inquiry:   "Looking to buy a 4 bedroom home",
		Budget:    650000,
		Location:  "Saint Johns, FL 32259",
		Timeframe: "ASAP",
		Intent:    "High Intent",
		Score:     0.96,
		Breakdown: scoring.Breakdown{
			IntentScore:    0.9,
			BudgetScore:    1.0,
			LocationScore:  1.0,
			TimeframeScore: 1.0,
		},
	}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_Success(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	input := createTestInput()
	mock.ExpectExec("INSERT INTO lead_records").
		WillReturnResult(sqlmock.NewResult(1, 1))

	pusher := &stubPusher{leadID: "crm-001"}
	handler := NewHandler(LoadConfig(), db, nil, pusher, logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), input)

	assert.NoError(t, err)
	require.NotNil(t, output)
	assert.Equal(t, "persisted", output.LeadStatus)
	assert.Equal(t, "crm-001", output.CRMLeadID)

	_, parseErr := uuid.Parse(output.LeadID)
	assert.NoError(t, parseErr)

	_, parseErr = time.Parse(time.RFC3339, output.CreatedAt)
	assert.NoError(t, parseErr)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_RepeatedLeadIsAppended(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	input := createTestInput()
	mock.ExpectExec("INSERT INTO lead_records").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO lead_records").
		WillReturnResult(sqlmock.NewResult(2, 1))

	handler := NewHandler(LoadConfig(), db, nil, nil, logger.NewTestLogger(t))

	first, err := handler.Execute(context.Background(), input)
	require.NoError(t, err)

	second, err := handler.Execute(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, "persisted", first.LeadStatus)
	assert.Equal(t, "persisted", second.LeadStatus)
	assert.NotEqual(t, first.LeadID, second.LeadID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_InsertFailure(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	input := createTestInput()
	mock.ExpectExec("INSERT INTO lead_records").
		WillReturnError(errors.New("connection reset"))

	handler := NewHandler(LoadConfig(), db, nil, nil, logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), input)

	assert.ErrorIs(t, err, ErrLeadPersistFailed)
	assert.Nil(t, output)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_CRMFailureIsNonFatal(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	input := createTestInput()
	mock.ExpectExec("INSERT INTO lead_records").
		WillReturnResult(sqlmock.NewResult(1, 1))

	pusher := &stubPusher{err: errors.New("crm unavailable")}
	handler := NewHandler(LoadConfig(), db, nil, pusher, logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), input)

	assert.NoError(t, err)
	require.NotNil(t, output)
	assert.Equal(t, "persisted", output.LeadStatus)
	assert.Empty(t, output.CRMLeadID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_CRMLeadFields(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	input := createTestInput()
	mock.ExpectExec("INSERT INTO lead_records").
		WillReturnResult(sqlmock.NewResult(1, 1))

	pusher := &stubPusher{leadID: "crm-002"}
	handler := NewHandler(LoadConfig(), db, nil, pusher, logger.NewTestLogger(t))

	_, err := handler.Execute(context.Background(), input)

	assert.NoError(t, err)
	require.NotNil(t, pusher.pushed)
	assert.Equal(t, input.Email, pusher.pushed.Email)
	assert.Equal(t, input.Name, pusher.pushed.LastName)
	assert.Equal(t, input.Intent, pusher.pushed.Rating)
	assert.InDelta(t, input.Score, pusher.pushed.LeadScore, 1e-9)
}

func TestHandler_Execute_WithoutOptionalSinks(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	input := createTestInput()
	mock.ExpectExec("INSERT INTO lead_records").
		WillReturnResult(sqlmock.NewResult(1, 1))

	handler := NewHandler(LoadConfig(), db, nil, nil, logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), input)

	assert.NoError(t, err)
	require.NotNil(t, output)
	assert.Empty(t, output.CRMLeadID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

