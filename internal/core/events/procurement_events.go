package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventIndentApproved       = "indent.approved"
	EventIndentRejected       = "indent.rejected"
	EventRFPGenerated         = "indent.rfp_generated"
	EventSupplierStageChanged = "supplier.stage_changed"
)

func NewIndentStatusEvent(eventType string, indentID int64, status string, actorID int64) BaseEvent {
	return BaseEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"indent_id": indentID,
			"status":    status,
			"actor_id":  actorID,
		},
	}
}

func NewRFPGeneratedEvent(indentID int64, rfpNumber string, document string) BaseEvent {
	return BaseEvent{
		ID:        uuid.NewString(),
		Type:      EventRFPGenerated,
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"indent_id":  indentID,
			"rfp_number": rfpNumber,
			"document":   document,
		},
	}
}

func NewSupplierStageChangedEvent(supplierID int64, stage string, actorID int64) BaseEvent {
	return BaseEvent{
		ID:        uuid.NewString(),
		Type:      EventSupplierStageChanged,
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"supplier_id": supplierID,
			"stage":       stage,
			"actor_id":    actorID,
		},
	}
}
