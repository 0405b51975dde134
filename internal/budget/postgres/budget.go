package postgres

import (
	"errors"

	"github.com/dimasprabowo/procurement-management/internal/budget"
	"gorm.io/gorm"
)

// BudgetRepository implements budget.Repository using GORM.
type BudgetRepository struct {
	db *gorm.DB
}

func NewBudgetRepository(db *gorm.DB) budget.Repository {
	return &BudgetRepository{db: db}
}

func (r *BudgetRepository) Create(b *budget.Budget) error {
	return r.db.Create(b).Error
}

func (r *BudgetRepository) GetByID(id int64) (*budget.Budget, error) {
	var b budget.Budget
	err := r.db.Where("id = ?", id).First(&b).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, budget.ErrBudgetNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (r *BudgetRepository) ListByDepartment(departmentID int64, limit, offset int) ([]*budget.Budget, error) {
	var budgets []*budget.Budget
	err := r.db.Where("department_id = ?", departmentID).
		Order("valid_from DESC").
		Limit(limit).
		Offset(offset).
		Find(&budgets).Error
	return budgets, err
}

func (r *BudgetRepository) DepartmentExists(id int64) (bool, error) {
	var count int64
	err := r.db.Model(&budget.Department{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (r *BudgetRepository) ListDepartments() ([]*budget.Department, error) {
	var departments []*budget.Department
	err := r.db.Order("name").Find(&departments).Error
	return departments, err
}
