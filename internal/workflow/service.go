package workflow

import (
	"log/slog"

	"github.com/dimasprabowo/procurement-management/internal"
)

// Repository defines the data access methods for workflow administration.
type Repository interface {
	Create(wf *Workflow) error
	GetByID(id int64) (*Workflow, error)
	List(limit, offset int) ([]*Workflow, error)
	Exists(id int64) (bool, error)

	AssignUser(userID, workflowID int64) error
	AddApprovalGroup(group *ApprovalGroup) error
	ListApprovalGroups(workflowID int64) ([]*ApprovalGroup, error)

	BudgetStore
}

// Service handles workflow administration: creating workflows with their
// budget pools, assigning actors, and configuring approval groups.
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

func (s *Service) CreateWorkflow(creatorID int64, dto CreateWorkflowDTO) (*Workflow, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Error("workflow validation failed", "error", err, "creator_id", creatorID)
		return nil, internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed)
	}

	for _, budgetID := range dto.BudgetIDs {
		exists, err := s.repo.BudgetExists(budgetID)
		if err != nil {
			return nil, internal.WrapStoreError("failed to check budget", err)
		}
		if !exists {
			s.logger.Warn("workflow references unknown budget", "budget_id", budgetID)
			return nil, ErrBudgetNotFound
		}
	}

	wf := &Workflow{
		Name:      dto.Name,
		CreatedBy: creatorID,
		BudgetIDs: dto.BudgetIDs,
	}

	if err := s.repo.Create(wf); err != nil {
		s.logger.Error("failed to create workflow", "error", err, "creator_id", creatorID)
		return nil, internal.WrapStoreError("failed to create workflow", err)
	}

	s.logger.Info("workflow created",
		"workflow_id", wf.ID,
		"creator_id", creatorID,
		"budget_count", len(dto.BudgetIDs))

	return wf, nil
}

func (s *Service) GetWorkflow(id int64) (*Workflow, error) {
	wf, err := s.repo.GetByID(id)
	if err != nil {
		s.logger.Error("failed to get workflow", "error", err, "workflow_id", id)
		return nil, internal.WrapStoreError("failed to load workflow", err)
	}
	return wf, nil
}

func (s *Service) ListWorkflows(limit, offset int) ([]*Workflow, error) {
	workflows, err := s.repo.List(limit, offset)
	if err != nil {
		return nil, internal.WrapStoreError("failed to list workflows", err)
	}
	return workflows, nil
}

func (s *Service) AssignUser(workflowID int64, dto AssignUserDTO) error {
	if err := dto.Validate(); err != nil {
		return internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed)
	}

	exists, err := s.repo.Exists(workflowID)
	if err != nil {
		return internal.WrapStoreError("failed to check workflow", err)
	}
	if !exists {
		return ErrWorkflowNotFound
	}

	if err := s.repo.AssignUser(dto.UserID, workflowID); err != nil {
		s.logger.Error("failed to assign user to workflow",
			"error", err,
			"user_id", dto.UserID,
			"workflow_id", workflowID)
		return internal.WrapStoreError("failed to assign user", err)
	}

	s.logger.Info("user assigned to workflow", "user_id", dto.UserID, "workflow_id", workflowID)
	return nil
}

func (s *Service) ConfigureApprovalGroup(workflowID int64, dto ApprovalGroupDTO) (*ApprovalGroup, error) {
	if err := dto.Validate(); err != nil {
		return nil, internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed)
	}

	exists, err := s.repo.Exists(workflowID)
	if err != nil {
		return nil, internal.WrapStoreError("failed to check workflow", err)
	}
	if !exists {
		return nil, ErrWorkflowNotFound
	}

	group := &ApprovalGroup{
		WorkflowID: workflowID,
		Action:     dto.Action,
		GroupName:  dto.GroupName,
	}

	if err := s.repo.AddApprovalGroup(group); err != nil {
		s.logger.Error("failed to configure approval group",
			"error", err,
			"workflow_id", workflowID,
			"action", dto.Action,
			"group_name", dto.GroupName)
		return nil, internal.WrapStoreError("failed to configure approval group", err)
	}

	s.logger.Info("approval group configured",
		"workflow_id", workflowID,
		"action", dto.Action,
		"group_name", dto.GroupName)

	return group, nil
}

func (s *Service) ListApprovalGroups(workflowID int64) ([]*ApprovalGroup, error) {
	exists, err := s.repo.Exists(workflowID)
	if err != nil {
		return nil, internal.WrapStoreError("failed to check workflow", err)
	}
	if !exists {
		return nil, ErrWorkflowNotFound
	}
	groups, err := s.repo.ListApprovalGroups(workflowID)
	if err != nil {
		return nil, internal.WrapStoreError("failed to list approval groups", err)
	}
	return groups, nil
}
