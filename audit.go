package accesskit

import (
	"context"

	"github.com/fernandezvara/dbkit"
)

// ============================================================================
// AUDIT RECORDER
// ============================================================================

// recordAudit appends one record to the audit log. The log is append-only:
// nothing in this module ever updates or deletes a record. A failed append
// returns ErrAuditWriteFailed; mutating operations run their row write and
// this append in one transaction, so an assignment or revocation without an
// audit trail cannot commit.
func (s *Service) recordAudit(ctx context.Context, entry *AuditEntry) error {
	record := entry.ToModel()
	result, err := s.db.NewInsert().Model(record).Returning("id").Exec(ctx)
	if err := dbkit.WithErr(result, err, "AppendAuditRecord").Err(); err != nil {
		auditWriteFailures.Inc()
		return NewError(ErrAuditWriteFailed, err.Error()).WithActor(entry.UserID)
	}
	return nil
}

// GetAuditLog retrieves audit records matching the filter, newest first.
func (s *Service) GetAuditLog(ctx context.Context, filter AuditFilter) ([]AuditRecord, error) {
	var records []AuditRecord
	q := s.db.NewSelect().Model(&records)
	if filter.UserID != "" {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if filter.Action != "" {
		q = q.Where("action = ?", filter.Action)
	}
	if filter.ResourceType != "" {
		q = q.Where("resource_type = ?", filter.ResourceType)
	}
	if filter.ResourceID != "" {
		q = q.Where("resource_id = ?", filter.ResourceID)
	}
	if !filter.Since.IsZero() {
		q = q.Where("created_at >= ?", filter.Since)
	}
	if !filter.Until.IsZero() {
		q = q.Where("created_at <= ?", filter.Until)
	}

	limit := filter.Limit
	if limit == 0 {
		limit = 100 // Default limit
	}
	q = q.Limit(limit)

	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	q = q.Order("created_at DESC")
	if err := dbkit.WithErr1(q.Scan(ctx), "GetAuditLog").Err(); err != nil {
		return nil, err
	}

	return records, nil
}
