package domain

import "time"

const (
	ActivityCreated       = "created"
	ActivityStatusChanged = "status_changed"
	ActivityNotesUpdated  = "notes_updated"
)

// ActivityEntry is one append-only row of an order's audit trail.
type ActivityEntry struct {
	ID          string       `json:"id"`
	OrderID     string       `json:"orderId"`
	Action      string       `json:"action"`
	FromStatus  *OrderStatus `json:"fromStatus,omitempty"`
	ToStatus    *OrderStatus `json:"toStatus,omitempty"`
	PerformedBy string       `json:"performedBy"`
	Notes       string       `json:"notes,omitempty"`
	Timestamp   time.Time    `json:"timestamp"`
}

// StatusHistory rebuilds the status changes from entries ordered oldest-first.
func StatusHistory(entries []ActivityEntry) []StatusChange {
	var out []StatusChange
	for _, e := range entries {
		if e.ToStatus == nil {
			continue
		}
		out = append(out, StatusChange{
			From:        e.FromStatus,
			To:          *e.ToStatus,
			PerformedBy: e.PerformedBy,
			At:          e.Timestamp,
		})
	}
	return out
}

func StatusPtr(s OrderStatus) *OrderStatus {
	return &s
}
