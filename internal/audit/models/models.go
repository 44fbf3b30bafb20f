package models

import (
	"bytes"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	dErrors "insighthub/pkg/domain-errors"
)

// Status is the outcome of one execution attempt.
type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusFailed  Status = "FAILED"
)

func (s Status) IsValid() bool {
	return s == StatusSuccess || s == StatusFailed
}

// ParseStatus accepts a status filter in any case. Empty means "any status".
func ParseStatus(raw string) (Status, error) {
	raw = strings.ToUpper(strings.TrimSpace(raw))
	if raw == "" || raw == "ALL" {
		return "", nil
	}
	s := Status(raw)
	if !s.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidParameter, "status must be SUCCESS or FAILED")
	}
	return s, nil
}

// ExecutionAttempt is one immutable audit ledger entry.
//
// Invariants:
//   - AuditID is a UUIDv7, so ids sort by creation time
//   - Purpose is non-empty after trimming
//   - Status is SUCCESS or FAILED and reflects the real query outcome
type ExecutionAttempt struct {
	AuditID      uuid.UUID `json:"audit_id"`
	PlaybookName string    `json:"playbook_name"`
	ExecutedBy   string    `json:"executed_by"`
	Organization string    `json:"organization"`
	Purpose      string    `json:"purpose"`
	Timestamp    time.Time `json:"execution_timestamp"`
	Status       Status    `json:"status"`
}

// NewExecutionAttempt builds a ledger entry stamped with now.
func NewExecutionAttempt(playbookName, executedBy, organization, purpose string, status Status, now time.Time) (*ExecutionAttempt, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate audit id")
	}
	rec := &ExecutionAttempt{
		AuditID:      id,
		PlaybookName: strings.TrimSpace(playbookName),
		ExecutedBy:   strings.TrimSpace(executedBy),
		Organization: strings.TrimSpace(organization),
		Purpose:      strings.TrimSpace(purpose),
		Timestamp:    now.UTC(),
		Status:       status,
	}
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *ExecutionAttempt) Validate() error {
	switch {
	case r.AuditID == uuid.Nil:
		return dErrors.New(dErrors.CodeInvariantViolation, "audit id is required")
	case r.PlaybookName == "":
		return dErrors.New(dErrors.CodeInvariantViolation, "playbook name is required")
	case r.ExecutedBy == "":
		return dErrors.New(dErrors.CodeInvariantViolation, "executing principal is required")
	case strings.TrimSpace(r.Purpose) == "":
		return dErrors.New(dErrors.CodeMissingPurpose, "purpose is required")
	case !r.Status.IsValid():
		return dErrors.New(dErrors.CodeInvariantViolation, "status must be SUCCESS or FAILED")
	case r.Timestamp.IsZero():
		return dErrors.New(dErrors.CodeInvariantViolation, "timestamp is required")
	}
	return nil
}

// Matches reports whether the record passes the filter's status and search.
func (r *ExecutionAttempt) Matches(f Filter) bool {
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	if f.Search == "" {
		return true
	}
	needle := strings.ToLower(f.Search)
	return strings.Contains(strings.ToLower(r.ExecutedBy), needle) ||
		strings.Contains(strings.ToLower(r.PlaybookName), needle)
}

// CSVHeader and CSVRecord back the audit export.
func CSVHeader() []string {
	return []string{"audit_id", "playbook_name", "executed_by", "organization", "purpose", "execution_timestamp", "status"}
}

func (r *ExecutionAttempt) CSVRecord() []string {
	return []string{
		r.AuditID.String(),
		r.PlaybookName,
		r.ExecutedBy,
		r.Organization,
		r.Purpose,
		r.Timestamp.Format(time.RFC3339),
		string(r.Status),
	}
}

// SortNewestFirst orders by timestamp descending, breaking ties by id.
func SortNewestFirst(records []*ExecutionAttempt) {
	sort.SliceStable(records, func(i, j int) bool {
		if !records[i].Timestamp.Equal(records[j].Timestamp) {
			return records[i].Timestamp.After(records[j].Timestamp)
		}
		return bytes.Compare(records[i].AuditID[:], records[j].AuditID[:]) > 0
	})
}

// Filter selects a page of the ledger. Search is a case-insensitive substring
// matched against ExecutedBy or PlaybookName.
type Filter struct {
	Status Status
	Search string
	Limit  int
	Offset int
}

// Normalize trims the search and clamps paging.
func (f Filter) Normalize(defaultLimit, maxLimit int) Filter {
	f.Search = strings.TrimSpace(f.Search)
	if f.Limit <= 0 {
		f.Limit = defaultLimit
	}
	if maxLimit > 0 && f.Limit > maxLimit {
		f.Limit = maxLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

// Summary aggregates the whole ledger.
type Summary struct {
	Total             int `json:"total"`
	DistinctUsers     int `json:"distinct_users"`
	DistinctPlaybooks int `json:"distinct_playbooks"`
	SuccessCount      int `json:"success_count"`
	FailedCount       int `json:"failed_count"`
}
