// internal/batch/processor_test.go
package batch

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"lead-qualifier-workers/internal/classifier"
	"lead-qualifier-workers/internal/common/logger"
	"lead-qualifier-workers/internal/scoring"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type stubClassifier struct {
	scores classifier.Scores
	err    error
	calls  int
}

func (s *stubClassifier) Classify(_ context.Context, _ string, _ []string) (classifier.Scores, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.scores, nil
}

func newTestProcessor(t *testing.T, cls *stubClassifier) *Processor {
	cfg := scoring.DefaultConfig()
	require.NoError(t, cfg.Validate())
	engine := scoring.NewEngine(cfg, cls, logger.NewTestLogger(t))
	return NewProcessor(engine, logger.NewTestLogger(t))
}

func testRows() []Row {
	return []Row{
		{Line: 2, Name: "Maria Alvarez", Email: "maria@example.com", Inquiry: "Looking to buy", Budget: "650000", Location: "Saint Johns, FL 32259", Timeframe: "ASAP"},
		{Line: 3, Name: "Sam Ortiz", Email: "sam@example.com", Inquiry: "Just curious", Budget: "100000", Location: "Texas", Timeframe: "next year"},
	}
}

// ==========================
// Processing Tests
// ==========================

func TestProcessor_Process_OrderPreserved(t *testing.T) {
	cls := &stubClassifier{scores: classifier.Scores{"high_intent": 0.9}}
	processor := newTestProcessor(t, cls)

	results, err := processor.Process(context.Background(), testRows())

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "maria@example.com", results[0].Row.Email)
	assert.Equal(t, "sam@example.com", results[1].Row.Email)
	assert.Equal(t, 2, cls.calls)

	// 0.4*0.9 + 0.3*1.0 + 0.2*1.0 + 0.1*1.0 = 0.96
	assert.InDelta(t, 0.96, results[0].Score, 1e-9)
	assert.Equal(t, "High Intent", results[0].Intent)

	// 0.4*0.9 + 0.3*0.2 + 0.2*0.3 + 0.1*0.4 = 0.52
	assert.InDelta(t, 0.52, results[1].Score, 1e-9)
	assert.Equal(t, "Medium Intent", results[1].Intent)
}

func TestProcessor_Process_RowAdvisoriesDoNotAbort(t *testing.T) {
	cls := &stubClassifier{err: errors.New("CLASSIFIER_FAILED")}
	processor := newTestProcessor(t, cls)

	results, err := processor.Process(context.Background(), testRows())

	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, res := range results {
		require.Len(t, res.Advisories, 1)
		assert.Equal(t, scoring.AdvisoryClassifierUnavailable, res.Advisories[0].Code)
	}
}

func TestProcessor_Process_ContextCancelled(t *testing.T) {
	cls := &stubClassifier{scores: classifier.Scores{"high_intent": 0.9}}
	processor := newTestProcessor(t, cls)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := processor.Process(ctx, testRows())

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, results)
}

func TestProcessor_Process_EmptyBatch(t *testing.T) {
	processor := newTestProcessor(t, &stubClassifier{scores: classifier.Scores{"high_intent": 0.5}})

	results, err := processor.Process(context.Background(), nil)

	assert.NoError(t, err)
	assert.Empty(t, results)
}

// ==========================
// Output Tests
// ==========================

func TestWriteResults(t *testing.T) {
	cls := &stubClassifier{scores: classifier.Scores{"high_intent": 0.9}}
	processor := newTestProcessor(t, cls)

	results, err := processor.Process(context.Background(), testRows())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteResults(&buf, results))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Timestamp,Name,Email,Inquiry,Budget,Location,Timeframe,Intent,Score", lines[0])
	assert.Contains(t, lines[1], "maria@example.com")
	assert.Contains(t, lines[1], "High Intent")
	assert.Contains(t, lines[1], "0.96")
	assert.Contains(t, lines[2], "sam@example.com")
}

func TestAppendResults(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	cls := &stubClassifier{scores: classifier.Scores{"high_intent": 0.9}}
	processor := newTestProcessor(t, cls)

	results, err := processor.Process(context.Background(), testRows())
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO lead_batch_results").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO lead_batch_results").
		WillReturnResult(sqlmock.NewResult(2, 1))

	assert.NoError(t, AppendResults(context.Background(), db, results))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppendResults_InsertError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	cls := &stubClassifier{scores: classifier.Scores{"high_intent": 0.9}}
	processor := newTestProcessor(t, cls)

	results, err := processor.Process(context.Background(), testRows()[:1])
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO lead_batch_results").
		WillReturnError(errors.New("db down"))

	assert.Error(t, AppendResults(context.Background(), db, results))
	assert.NoError(t, mock.ExpectationsWereMet())
}
