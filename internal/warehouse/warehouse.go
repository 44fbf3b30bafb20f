// Package warehouse is the boundary to the analytics engine: it runs approved
// query templates, invokes stored procedures and calls the explanation
// function. Everything is parameterized; procedure names come from config and
// are checked against a strict identifier pattern before use.
package warehouse

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"insighthub/pkg/platform/sentinel"
)

var qualifiedIdent = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// ResultSet is a tabular query result. Rows are in column order.
type ResultSet struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// RowCount returns the number of rows.
func (r *ResultSet) RowCount() int {
	if r == nil {
		return 0
	}
	return len(r.Rows)
}

// StringRows renders every cell as text for CSV export.
func (r *ResultSet) StringRows() [][]string {
	if r == nil {
		return nil
	}
	out := make([][]string, 0, len(r.Rows))
	for _, row := range r.Rows {
		rec := make([]string, len(row))
		for i, v := range row {
			rec[i] = formatCell(v)
		}
		out = append(out, rec)
	}
	return out
}

func formatCell(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case time.Time:
		return t.Format(time.RFC3339)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

// Client talks to the warehouse over database/sql.
type Client struct {
	db *sql.DB
}

func New(db *sql.DB) *Client {
	return &Client{db: db}
}

// RunQuery executes a read query and materializes the full result.
func (c *Client) RunQuery(ctx context.Context, query string, args ...any) (*ResultSet, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("run query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}
	result := &ResultSet{Columns: cols, Rows: [][]any{}}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		for i, v := range vals {
			if b, ok := v.([]byte); ok {
				vals[i] = string(b)
			}
		}
		result.Rows = append(result.Rows, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return result, nil
}

// Call invokes a stored procedure that takes no arguments.
func (c *Client) Call(ctx context.Context, procedure string) error {
	if !qualifiedIdent.MatchString(procedure) {
		return fmt.Errorf("invalid procedure name %q", procedure)
	}
	if _, err := c.db.ExecContext(ctx, "CALL "+procedure+"()"); err != nil {
		return fmt.Errorf("call %s: %w", procedure, err)
	}
	return nil
}

// Explainer calls a scalar explanation function with six positional arguments.
type Explainer struct {
	db       *sql.DB
	function string
}

func NewExplainer(db *sql.DB, function string) (*Explainer, error) {
	if !qualifiedIdent.MatchString(function) {
		return nil, fmt.Errorf("invalid function name %q", function)
	}
	return &Explainer{db: db, function: function}, nil
}

// GenerateExplanation returns the generated text. A NULL result is reported as
// sentinel.ErrUnavailable.
func (e *Explainer) GenerateExplanation(ctx context.Context, ageGroup, region string, riskScore, m2, m3, m4 float64) (string, error) {
	var text sql.NullString
	query := "SELECT " + e.function + "($1, $2, $3, $4, $5, $6)"
	err := e.db.QueryRowContext(ctx, query, ageGroup, region, riskScore, m2, m3, m4).Scan(&text)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", sentinel.ErrUnavailable
		}
		return "", fmt.Errorf("generate explanation: %w", err)
	}
	if !text.Valid {
		return "", sentinel.ErrUnavailable
	}
	return text.String, nil
}
