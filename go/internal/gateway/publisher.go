package gateway

import (
	"context"

	"github.com/criclink/criclink/go/internal/outbox"
)

// Publish makes the manager an outbox.EventPublisher, so a relay running in the API process
// can feed the calendar directly. Events without a ground are ignored.
func (cm *ConnectionManager) Publish(_ context.Context, event outbox.Event) error {
	ce, groundID, ok := calendarEventFrom(event)
	if !ok {
		return nil
	}
	cm.BroadcastToGround(groundID, ce)
	return nil
}
