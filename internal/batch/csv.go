// internal/batch/csv.go
package batch

import (
	"encoding/csv"
	"io"
	"strings"

	commonerrors "lead-qualifier-workers/internal/common/errors"
)

// RequiredColumns are the headers a lead CSV must carry. Matching is
// case-insensitive.
var RequiredColumns = []string{"Name", "Email", "Inquiry", "Budget", "Location", "Timeframe"}

// Row is one lead read from a CSV file, in file order.
type Row struct {
	Line      int
	Name      string
	Email     string
	Inquiry   string
	Budget    string
	Location  string
	Timeframe string
}

// ReadLeads parses a lead CSV. A missing required column fails the
// whole file up front, before any row is looked at.
func ReadLeads(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, commonerrors.NewBatchReadFailedError(err)
	}

	index := make(map[string]int, len(header))
	for i, col := range header {
		index[strings.ToLower(strings.TrimSpace(col))] = i
	}

	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := index[strings.ToLower(col)]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, commonerrors.NewBatchSchemaInvalidError(missing)
	}

	var rows []Row
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, commonerrors.NewBatchReadFailedError(err)
		}
		line++

		field := func(name string) string {
			i := index[strings.ToLower(name)]
			if i >= len(record) {
				return ""
			}
			return record[i]
		}

		rows = append(rows, Row{
			Line:      line,
			Name:      field("Name"),
			Email:     field("Email"),
			Inquiry:   field("Inquiry"),
			Budget:    field("Budget"),
			Location:  field("Location"),
			Timeframe: field("Timeframe"),
		})
	}

	return rows, nil
}
