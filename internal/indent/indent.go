package indent

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/dimasprabowo/procurement-management/internal"
)

// Indent lifecycle statuses. New indents are created directly in Pending;
// there is no separate initial-state field.
const (
	StatusPending     = "Pending"
	StatusApproved    = "Approved"
	StatusRejected    = "Rejected"
	StatusResubmitted = "Resubmitted"
)

// transitions is the full status graph. A requested status must appear in the
// current status's allowed set; self-transitions are not listed anywhere, so
// they always fail. Rejected is terminal.
var transitions = map[string][]string{
	StatusPending:     {StatusApproved, StatusRejected, StatusResubmitted},
	StatusResubmitted: {StatusApproved, StatusRejected},
	StatusApproved:    {StatusResubmitted},
	StatusRejected:    {},
}

// Indent is a purchase request: owned by an actor and their department,
// charged against one budget of one workflow.
type Indent struct {
	ID           int64      `json:"id" gorm:"primaryKey"`
	UserID       int64      `json:"user_id" gorm:"column:user_id;not null"`
	DepartmentID int64      `json:"department_id" gorm:"column:department_id;not null"`
	WorkflowID   int64      `json:"workflow_id" gorm:"column:workflow_id;not null"`
	BudgetID     int64      `json:"budget_id" gorm:"column:budget_id;not null"`
	Asset        string     `json:"asset" gorm:"not null"`
	Quantity     int64      `json:"quantity" gorm:"not null"`
	Remarks      string     `json:"remarks"`
	Status       string     `json:"status" gorm:"default:Pending"`
	RFPNumber    *string    `json:"rfp_number,omitempty" gorm:"column:rfp_number;uniqueIndex"`
	ApprovedAt   *time.Time `json:"approved_at,omitempty" gorm:"column:approved_at"`
	CreatedAt    time.Time  `json:"created_at" gorm:"column:created_at;default:now()"`
	UpdatedAt    time.Time  `json:"updated_at" gorm:"column:updated_at;default:now()"`
}

func (Indent) TableName() string {
	return "indents"
}

// AllowedNext returns the statuses reachable from current.
func AllowedNext(current string) []string {
	return transitions[current]
}

// ValidateTransition returns nil iff requested is reachable from current.
func ValidateTransition(current, requested string) error {
	for _, next := range transitions[current] {
		if next == requested {
			return nil
		}
	}
	return NewInvalidTransitionError(current, requested)
}

// CanModifyDetails reports whether field-level updates are allowed in the
// current status.
func (i *Indent) CanModifyDetails() bool {
	return i.Status == StatusPending || i.Status == StatusResubmitted
}

// CanGenerateRFP gates the one-way RFP assignment: only an Approved indent
// without a number may receive one.
func (i *Indent) CanGenerateRFP() bool {
	return i.Status == StatusApproved && i.RFPNumber == nil
}

// GenerateRFPNumber produces a fresh random 10-digit numeric identifier.
// Uniqueness is left to the store's constraint; a collision surfaces as a
// conflict rather than being silently retried.
func GenerateRFPNumber() (string, error) {
	// 1000000000..9999999999 keeps the identifier at exactly ten digits.
	n, err := rand.Int(rand.Reader, big.NewInt(9000000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d", n.Int64()+1000000000), nil
}

func NewInvalidTransitionError(from, to string) *internal.AppError {
	return internal.NewValidationError(
		fmt.Sprintf("cannot transition indent from %s to %s", from, to),
		internal.ErrCodeInvalidTransition,
	).WithDetails(map[string]interface{}{
		"from":    from,
		"to":      to,
		"allowed": AllowedNext(from),
	})
}

var (
	ErrIndentNotFound = internal.NewNotFoundError("indent not found", internal.ErrCodeIndentNotFound)
	ErrUserNotFound   = internal.NewNotFoundError("user not found", internal.ErrCodeUserNotFound)

	ErrCannotModifyIndent = internal.NewValidationError("indent details can only be changed while Pending or Resubmitted", internal.ErrCodeValidationFailed)

	ErrRFPAlreadyGenerated = internal.NewConflictError("RFP number already generated for this indent", internal.ErrCodeImmutableRecord)
	ErrRFPNotApproved      = internal.NewValidationError("RFP number can only be generated for an Approved indent", internal.ErrCodeValidationFailed)

	// ErrConcurrentUpdate surfaces a lost compare-and-swap: the row changed
	// between the read and the conditional write.
	ErrConcurrentUpdate = internal.NewConflictError("indent was modified concurrently, retry the request", internal.ErrCodeImmutableRecord)
)
