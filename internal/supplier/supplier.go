package supplier

import (
	"time"

	"github.com/dimasprabowo/procurement-management/internal"
)

// Supplier onboarding stages are an open set of string tags; the only
// documented rule is that "Approved" locks the record against further updates.
const (
	StageOnboarding = "Onboarding"
	StageApproved   = "Approved"
)

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

type Supplier struct {
	ID           int64     `json:"id" gorm:"primaryKey"`
	WorkflowID   int64     `json:"workflow_id" gorm:"column:workflow_id;not null"`
	Name         string    `json:"name" gorm:"not null"`
	Email        string    `json:"email" gorm:"not null"`
	Phone        string    `json:"phone"`
	Address      string    `json:"address"`
	GSTNumber    string    `json:"gst_number" gorm:"column:gst_number"`
	CurrentStage string    `json:"current_stage" gorm:"column:current_stage;default:Onboarding"`
	Status       string    `json:"status" gorm:"default:active"`
	CreatedAt    time.Time `json:"created_at" gorm:"column:created_at;default:now()"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"column:updated_at;default:now()"`
}

func (Supplier) TableName() string {
	return "suppliers"
}

// IsLocked reports whether the record has reached the terminal Approved stage
// and is immutable to further field updates.
func (s *Supplier) IsLocked() bool {
	return s.CurrentStage == StageApproved
}

var (
	ErrSupplierNotFound = internal.NewNotFoundError("supplier not found", internal.ErrCodeSupplierNotFound)
	ErrSupplierLocked   = internal.NewConflictError("supplier is Approved and can no longer be modified", internal.ErrCodeImmutableRecord)
)
