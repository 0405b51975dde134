package postgres

import (
	"github.com/dimasprabowo/procurement-management/internal/workflow"
	"gorm.io/gorm"
)

// AccessRepository holds the lookup queries shared by every orchestrator:
// workflow assignments, approval groups, role grants, budget pools, and the
// existence checks that run before permission logic. It is constructed over a
// transaction handle so the checks stay inside the caller's transaction.
type AccessRepository struct {
	db *gorm.DB
}

func NewAccessRepository(db *gorm.DB) *AccessRepository {
	return &AccessRepository{db: db}
}

func (r *AccessRepository) HasAssignment(userID, workflowID int64) (bool, error) {
	var count int64
	err := r.db.Model(&workflow.Assignment{}).
		Where("user_id = ? AND workflow_id = ?", userID, workflowID).
		Count(&count).Error
	return count > 0, err
}

func (r *AccessRepository) ApprovalGroupNames(workflowID int64, action string) ([]string, error) {
	var names []string
	err := r.db.Model(&workflow.ApprovalGroup{}).
		Where("workflow_id = ? AND action = ?", workflowID, action).
		Pluck("group_name", &names).Error
	return names, err
}

func (r *AccessRepository) HasAnyRoleGrant(userID int64, groupNames []string) (bool, error) {
	if len(groupNames) == 0 {
		return false, nil
	}
	var count int64
	err := r.db.Model(&workflow.RoleGrant{}).
		Where("user_id = ? AND api_name IN ?", userID, groupNames).
		Count(&count).Error
	return count > 0, err
}

func (r *AccessRepository) BudgetExists(budgetID int64) (bool, error) {
	var count int64
	err := r.db.Table("budgets").Where("id = ?", budgetID).Count(&count).Error
	return count > 0, err
}

func (r *AccessRepository) WorkflowBudgetIDs(workflowID int64) ([]int64, error) {
	var ids []int64
	err := r.db.Model(&workflow.WorkflowBudget{}).
		Where("workflow_id = ?", workflowID).
		Pluck("budget_id", &ids).Error
	return ids, err
}

func (r *AccessRepository) WorkflowExists(workflowID int64) (bool, error) {
	var count int64
	err := r.db.Model(&workflow.Workflow{}).Where("id = ?", workflowID).Count(&count).Error
	return count > 0, err
}

func (r *AccessRepository) UserExists(userID int64) (bool, error) {
	var count int64
	err := r.db.Table("users").Where("id = ? AND is_active = ?", userID, true).Count(&count).Error
	return count > 0, err
}

func (r *AccessRepository) UserDepartmentID(userID int64) (int64, error) {
	var departmentID int64
	row := r.db.Table("users").Select("department_id").Where("id = ?", userID).Row()
	if err := row.Scan(&departmentID); err != nil {
		return 0, err
	}
	return departmentID, nil
}
