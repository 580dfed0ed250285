package domain

import "time"

type SyncOutcome string

const (
	OutcomeSuccess SyncOutcome = "success"
	OutcomePartial SyncOutcome = "partial"
	OutcomeError   SyncOutcome = "error"
)

const SyncTypeCatalog = "catalog"

// PaginationStrategy names the enumeration mode a run selected.
type PaginationStrategy string

const (
	StrategyOffset PaginationStrategy = "offset"
	StrategyScroll PaginationStrategy = "scroll"
)

// ItemFailure records one identifier excluded from a run.
type ItemFailure struct {
	ExternalItemID string `json:"id"`
	Phase          string `json:"phase"`
	Error          string `json:"error"`
}

// SyncResult holds statistics about one synchronization run.
type SyncResult struct {
	IntegrationID  int64              `json:"integration_id"`
	TenantID       string             `json:"tenant_id"`
	Outcome        SyncOutcome        `json:"outcome"`
	Strategy       PaginationStrategy `json:"strategy,omitempty"`
	RequestedTotal int                `json:"requested_total"`
	Enumerated     int                `json:"enumerated"`
	Fetched        int                `json:"fetched"`
	Failed         int                `json:"failed"`
	Upserted       int                `json:"upserted"`
	Failures       []ItemFailure      `json:"failures,omitempty"`
	Error          string             `json:"error,omitempty"`
	StartedAt      time.Time          `json:"started_at"`
	Duration       time.Duration      `json:"duration"`
}

// SyncLogEntry is the append-only audit record of a sync attempt.
type SyncLogEntry struct {
	ID            int64       `db:"id"`
	IntegrationID int64       `db:"integration_id"`
	SyncType      string      `db:"sync_type"`
	Outcome       SyncOutcome `db:"outcome"`
	Metadata      SyncLogMetadata
	CreatedAt     time.Time `db:"created_at"`
}

// SyncLogMetadata is stored as jsonb alongside the entry.
type SyncLogMetadata struct {
	Strategy       PaginationStrategy `json:"strategy,omitempty"`
	RequestedTotal int                `json:"requested_total"`
	Enumerated     int                `json:"enumerated"`
	Fetched        int                `json:"fetched"`
	Failed         int                `json:"failed"`
	Upserted       int                `json:"upserted"`
	FailedIDs      []string           `json:"failed_ids,omitempty"`
	Error          string             `json:"error,omitempty"`
	DurationMS     int64              `json:"duration_ms"`
}

// LogEntry builds the audit record summarizing the result.
func (r *SyncResult) LogEntry() *SyncLogEntry {
	meta := SyncLogMetadata{
		Strategy:       r.Strategy,
		RequestedTotal: r.RequestedTotal,
		Enumerated:     r.Enumerated,
		Fetched:        r.Fetched,
		Failed:         r.Failed,
		Upserted:       r.Upserted,
		Error:          r.Error,
		DurationMS:     r.Duration.Milliseconds(),
	}
	for _, f := range r.Failures {
		meta.FailedIDs = append(meta.FailedIDs, f.ExternalItemID)
	}

	return &SyncLogEntry{
		IntegrationID: r.IntegrationID,
		SyncType:      SyncTypeCatalog,
		Outcome:       r.Outcome,
		Metadata:      meta,
	}
}
