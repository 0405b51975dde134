package budget

import (
	"errors"
	"time"

	"github.com/dimasprabowo/procurement-management/internal"
)

type Budget struct {
	ID           int64     `json:"id" gorm:"primaryKey"`
	DepartmentID int64     `json:"department_id" gorm:"column:department_id;not null"`
	Name         string    `json:"name" gorm:"not null"`
	CeilingIDR   int64     `json:"ceiling_idr" gorm:"column:ceiling_idr;not null"`
	ValidFrom    time.Time `json:"valid_from" gorm:"column:valid_from;type:date"`
	ValidUntil   time.Time `json:"valid_until" gorm:"column:valid_until;type:date"`
	CreatedAt    time.Time `json:"created_at" gorm:"column:created_at;default:now()"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"column:updated_at;default:now()"`
}

func (Budget) TableName() string {
	return "budgets"
}

type Department struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"not null;uniqueIndex"`
	CreatedAt time.Time `json:"created_at" gorm:"column:created_at;default:now()"`
}

func (Department) TableName() string {
	return "departments"
}

// IsValidOn reports whether the budget's validity window covers ts.
func (b *Budget) IsValidOn(ts time.Time) bool {
	return !ts.Before(b.ValidFrom) && !ts.After(b.ValidUntil)
}

type CreateBudgetDTO struct {
	DepartmentID int64     `json:"department_id" validate:"required"`
	Name         string    `json:"name" validate:"required"`
	CeilingIDR   int64     `json:"ceiling_idr" validate:"required,min=1"`
	ValidFrom    time.Time `json:"valid_from" validate:"required"`
	ValidUntil   time.Time `json:"valid_until" validate:"required"`
}

func (dto CreateBudgetDTO) Validate() error {
	if dto.DepartmentID <= 0 {
		return errors.New("department_id is required")
	}
	if dto.Name == "" {
		return errors.New("name is required")
	}
	if dto.CeilingIDR <= 0 {
		return errors.New("ceiling must be greater than 0")
	}
	if dto.ValidFrom.IsZero() || dto.ValidUntil.IsZero() {
		return errors.New("validity window is required")
	}
	if dto.ValidUntil.Before(dto.ValidFrom) {
		return errors.New("valid_until must not precede valid_from")
	}
	return nil
}

var (
	ErrBudgetNotFound     = internal.NewNotFoundError("budget not found", internal.ErrCodeBudgetNotFound)
	ErrDepartmentNotFound = internal.NewNotFoundError("department not found", internal.ErrCodeValidationFailed)
)
