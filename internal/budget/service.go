package budget

import (
	"log/slog"

	"github.com/dimasprabowo/procurement-management/internal"
)

type Repository interface {
	Create(b *Budget) error
	GetByID(id int64) (*Budget, error)
	ListByDepartment(departmentID int64, limit, offset int) ([]*Budget, error)
	DepartmentExists(id int64) (bool, error)
	ListDepartments() ([]*Department, error)
}

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

func (s *Service) CreateBudget(dto CreateBudgetDTO) (*Budget, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Error("budget validation failed", "error", err)
		return nil, internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed)
	}

	exists, err := s.repo.DepartmentExists(dto.DepartmentID)
	if err != nil {
		return nil, internal.WrapStoreError("failed to check department", err)
	}
	if !exists {
		return nil, ErrDepartmentNotFound
	}

	b := &Budget{
		DepartmentID: dto.DepartmentID,
		Name:         dto.Name,
		CeilingIDR:   dto.CeilingIDR,
		ValidFrom:    dto.ValidFrom,
		ValidUntil:   dto.ValidUntil,
	}

	if err := s.repo.Create(b); err != nil {
		s.logger.Error("failed to create budget", "error", err, "department_id", dto.DepartmentID)
		return nil, internal.WrapStoreError("failed to create budget", err)
	}

	s.logger.Info("budget created",
		"budget_id", b.ID,
		"department_id", b.DepartmentID,
		"ceiling_idr", b.CeilingIDR)

	return b, nil
}

func (s *Service) GetBudget(id int64) (*Budget, error) {
	b, err := s.repo.GetByID(id)
	if err != nil {
		return nil, internal.WrapStoreError("failed to load budget", err)
	}
	return b, nil
}

func (s *Service) ListByDepartment(departmentID int64, limit, offset int) ([]*Budget, error) {
	exists, err := s.repo.DepartmentExists(departmentID)
	if err != nil {
		return nil, internal.WrapStoreError("failed to check department", err)
	}
	if !exists {
		return nil, ErrDepartmentNotFound
	}
	budgets, err := s.repo.ListByDepartment(departmentID, limit, offset)
	if err != nil {
		return nil, internal.WrapStoreError("failed to list budgets", err)
	}
	return budgets, nil
}

func (s *Service) ListDepartments() ([]*Department, error) {
	departments, err := s.repo.ListDepartments()
	if err != nil {
		return nil, internal.WrapStoreError("failed to list departments", err)
	}
	return departments, nil
}
