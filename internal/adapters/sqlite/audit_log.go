package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/fr0stylo/cashwidget/internal/app/ports"
	"github.com/fr0stylo/cashwidget/internal/db/queries"
)

// AuditLog appends purchase lifecycle events to purchase_events.
type AuditLog struct {
	db auditDatabase
}

func NewAuditLog(database auditDatabase) *AuditLog {
	return &AuditLog{db: database}
}

func (l *AuditLog) Append(ctx context.Context, event ports.AuditEvent) error {
	if err := l.db.AppendPurchaseEvent(ctx, queries.AppendPurchaseEventParams{
		EventID:   event.ID,
		EventType: event.Type,
		Source:    event.Source,
		Subject:   event.Subject,
		PublicKey: event.PublicKey,
		OrderID:   event.OrderID,
		EventTime: event.Time.UTC().Format(time.RFC3339Nano),
		Payload:   string(event.Payload),
	}); err != nil {
		return fmt.Errorf("append audit event %s: %w", event.Type, err)
	}
	return nil
}

// ListByOrder returns the audit trail of one tenant order, oldest first.
func (l *AuditLog) ListByOrder(ctx context.Context, publicKey, orderID string) ([]ports.AuditEvent, error) {
	rows, err := l.db.ListPurchaseEventsByOrder(ctx, queries.ListPurchaseEventsByOrderParams{PublicKey: publicKey, OrderID: orderID})
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	out := make([]ports.AuditEvent, 0, len(rows))
	for _, row := range rows {
		at, _ := time.Parse(time.RFC3339Nano, row.EventTime)
		out = append(out, ports.AuditEvent{
			ID:        row.EventID,
			Type:      row.EventType,
			Source:    row.Source,
			Subject:   row.Subject,
			PublicKey: row.PublicKey,
			OrderID:   row.OrderID,
			Time:      at,
			Payload:   []byte(row.Payload),
		})
	}
	return out, nil
}

var _ ports.AuditLog = (*AuditLog)(nil)
