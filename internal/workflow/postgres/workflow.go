package postgres

import (
	"errors"

	"github.com/dimasprabowo/procurement-management/internal/workflow"
	"gorm.io/gorm"
)

// WorkflowRepository implements workflow.Repository using GORM.
type WorkflowRepository struct {
	db *gorm.DB
	*AccessRepository
}

func NewWorkflowRepository(db *gorm.DB) workflow.Repository {
	return &WorkflowRepository{
		db:               db,
		AccessRepository: NewAccessRepository(db),
	}
}

// Create inserts the workflow and its budget pool as one transaction.
func (r *WorkflowRepository) Create(wf *workflow.Workflow) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(wf).Error; err != nil {
			return err
		}
		for _, budgetID := range wf.BudgetIDs {
			wb := workflow.WorkflowBudget{WorkflowID: wf.ID, BudgetID: budgetID}
			if err := tx.Create(&wb).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *WorkflowRepository) GetByID(id int64) (*workflow.Workflow, error) {
	var wf workflow.Workflow
	err := r.db.Where("id = ?", id).First(&wf).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, workflow.ErrWorkflowNotFound
		}
		return nil, err
	}

	budgetIDs, err := r.WorkflowBudgetIDs(id)
	if err != nil {
		return nil, err
	}
	wf.BudgetIDs = budgetIDs

	return &wf, nil
}

func (r *WorkflowRepository) List(limit, offset int) ([]*workflow.Workflow, error) {
	var workflows []*workflow.Workflow
	err := r.db.Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&workflows).Error
	if err != nil {
		return nil, err
	}
	for _, wf := range workflows {
		budgetIDs, err := r.WorkflowBudgetIDs(wf.ID)
		if err != nil {
			return nil, err
		}
		wf.BudgetIDs = budgetIDs
	}
	return workflows, nil
}

func (r *WorkflowRepository) Exists(id int64) (bool, error) {
	var count int64
	err := r.db.Model(&workflow.Workflow{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (r *WorkflowRepository) AssignUser(userID, workflowID int64) error {
	var count int64
	err := r.db.Model(&workflow.Assignment{}).
		Where("user_id = ? AND workflow_id = ?", userID, workflowID).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return workflow.ErrDuplicateAssignment
	}

	assignment := workflow.Assignment{UserID: userID, WorkflowID: workflowID}
	if err := r.db.Create(&assignment).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return workflow.ErrDuplicateAssignment
		}
		return err
	}
	return nil
}

func (r *WorkflowRepository) AddApprovalGroup(group *workflow.ApprovalGroup) error {
	var count int64
	err := r.db.Model(&workflow.ApprovalGroup{}).
		Where("workflow_id = ? AND action = ? AND group_name = ?", group.WorkflowID, group.Action, group.GroupName).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return workflow.ErrDuplicateApprovalGroup
	}

	if err := r.db.Create(group).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return workflow.ErrDuplicateApprovalGroup
		}
		return err
	}
	return nil
}

func (r *WorkflowRepository) ListApprovalGroups(workflowID int64) ([]*workflow.ApprovalGroup, error) {
	var groups []*workflow.ApprovalGroup
	err := r.db.Where("workflow_id = ?", workflowID).
		Order("action, group_name").
		Find(&groups).Error
	return groups, err
}
