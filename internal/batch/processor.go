// internal/batch/processor.go
package batch

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"lead-qualifier-workers/internal/common/logger"
	"lead-qualifier-workers/internal/scoring"
)

// Result pairs an input row with its qualification outcome.
type Result struct {
	Row        Row
	Intent     string
	Score      float64
	Breakdown  scoring.Breakdown
	Advisories []scoring.Advisory
	Timestamp  string
}

type Processor struct {
	engine *scoring.Engine
	logger logger.Logger
}

func NewProcessor(engine *scoring.Engine, log logger.Logger) *Processor {
	return &Processor{
		engine: engine,
		logger: log.WithFields(map[string]interface{}{"component": "batch"}),
	}
}

// Process scores rows one at a time, in input order. Per-row scoring
// never aborts the batch: classifier and budget problems surface as
// advisories on the affected row.
func (p *Processor) Process(ctx context.Context, rows []Row) ([]Result, error) {
	results := make([]Result, 0, len(rows))

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		qr, err := p.engine.QualifyLead(ctx, scoring.LeadInput{
			Name:      row.Name,
			Email:     row.Email,
			Inquiry:   row.Inquiry,
			Budget:    row.Budget,
			Location:  row.Location,
			Timeframe: row.Timeframe,
		})
		if err != nil {
			return results, fmt.Errorf("score row %d: %w", row.Line, err)
		}

		p.logger.Debug("row scored", map[string]interface{}{
			"line":   row.Line,
			"email":  row.Email,
			"intent": qr.Tier,
			"score":  qr.FinalScore,
		})

		results = append(results, Result{
			Row:        row,
			Intent:     qr.Tier,
			Score:      qr.FinalScore,
			Breakdown:  qr.Breakdown,
			Advisories: qr.Advisories,
			Timestamp:  time.Now().UTC().Format(time.RFC3339),
		})
	}

	return results, nil
}

// WriteResults renders results as CSV, echoing the input fields with
// the qualification columns appended.
func WriteResults(w io.Writer, results []Result) error {
	writer := csv.NewWriter(w)

	header := []string{"Timestamp", "Name", "Email", "Inquiry", "Budget", "Location", "Timeframe", "Intent", "Score"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, res := range results {
		record := []string{
			res.Timestamp,
			res.Row.Name,
			res.Row.Email,
			res.Row.Inquiry,
			res.Row.Budget,
			res.Row.Location,
			res.Row.Timeframe,
			res.Intent,
			strconv.FormatFloat(res.Score, 'f', 2, 64),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write row %d: %w", res.Row.Line, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// AppendResults stores batch outcomes in Postgres so scored batches
// show up next to workflow-scored leads.
func AppendResults(ctx context.Context, db *sql.DB, results []Result) error {
	for _, res := range results {
		_, err := db.ExecContext(ctx, `
			INSERT INTO lead_batch_results (
				name, email, inquiry, budget, location, timeframe, intent, score, scored_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			res.Row.Name,
			res.Row.Email,
			res.Row.Inquiry,
			res.Row.Budget,
			res.Row.Location,
			res.Row.Timeframe,
			res.Intent,
			res.Score,
			res.Timestamp,
		)
		if err != nil {
			return fmt.Errorf("append row %d: %w", res.Row.Line, err)
		}
	}
	return nil
}
