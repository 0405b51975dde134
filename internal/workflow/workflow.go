package workflow

import (
	"time"

	"github.com/dimasprabowo/procurement-management/internal"
)

// Actions an approval group can be configured for.
const (
	ActionRequest        = "Request"
	ActionApprove        = "Approve"
	ActionVendorApproval = "vendor_approval"
)

// BypassGroup is a sentinel group name: when configured for a workflow/action it
// authorizes any assigned actor without individual role checks.
const BypassGroup = "Bypass"

type Workflow struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"not null"`
	CreatedBy int64     `json:"created_by" gorm:"column:created_by;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"column:created_at;default:now()"`
	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at;default:now()"`

	// BudgetIDs is the workflow's allowed budget pool, stored in workflow_budgets.
	BudgetIDs []int64 `json:"budget_ids" gorm:"-"`
}

func (Workflow) TableName() string {
	return "workflows"
}

// Assignment means the user may act within the workflow's context.
// At most one row per (user, workflow).
type Assignment struct {
	ID         int64     `json:"id" gorm:"primaryKey"`
	UserID     int64     `json:"user_id" gorm:"column:user_id;not null;uniqueIndex:idx_assignment_user_workflow"`
	WorkflowID int64     `json:"workflow_id" gorm:"column:workflow_id;not null;uniqueIndex:idx_assignment_user_workflow"`
	CreatedAt  time.Time `json:"created_at" gorm:"column:created_at;default:now()"`
}

func (Assignment) TableName() string {
	return "workflow_assignments"
}

// ApprovalGroup ties a workflow action to a named permission bucket.
// Unique on (workflow, action, group_name).
type ApprovalGroup struct {
	ID         int64     `json:"id" gorm:"primaryKey"`
	WorkflowID int64     `json:"workflow_id" gorm:"column:workflow_id;not null;uniqueIndex:idx_group_workflow_action_name"`
	Action     string    `json:"action" gorm:"not null;uniqueIndex:idx_group_workflow_action_name"`
	GroupName  string    `json:"group_name" gorm:"column:group_name;not null;uniqueIndex:idx_group_workflow_action_name"`
	CreatedAt  time.Time `json:"created_at" gorm:"column:created_at;default:now()"`
}

func (ApprovalGroup) TableName() string {
	return "approval_groups"
}

// RoleGrant means the user holds the named group/role.
type RoleGrant struct {
	ID      int64  `json:"id" gorm:"primaryKey"`
	UserID  int64  `json:"user_id" gorm:"column:user_id;not null"`
	APIName string `json:"api_name" gorm:"column:api_name;not null"`
}

func (RoleGrant) TableName() string {
	return "role_grants"
}

type WorkflowBudget struct {
	WorkflowID int64 `gorm:"column:workflow_id;not null;uniqueIndex:idx_workflow_budget"`
	BudgetID   int64 `gorm:"column:budget_id;not null;uniqueIndex:idx_workflow_budget"`
}

func (WorkflowBudget) TableName() string {
	return "workflow_budgets"
}

var (
	ErrWorkflowNotFound = internal.NewNotFoundError("workflow not found", internal.ErrCodeWorkflowNotFound)
	ErrBudgetNotFound   = internal.NewNotFoundError("budget not found", internal.ErrCodeBudgetNotFound)

	ErrNotAssigned = internal.NewForbiddenError("actor is not assigned to this workflow", internal.ErrCodeNotAssigned)

	// ErrNoApprovalGroups surfaces a configuration fault, not an authorization
	// failure: the workflow/action pair has zero configured groups.
	ErrNoApprovalGroups = internal.NewConfigurationError("no approval groups configured for this workflow action", internal.ErrCodeNoApprovalGroups)

	ErrRoleNotAuthorized = internal.NewForbiddenError("actor role is not authorized for this action", internal.ErrCodeRoleNotAuthorized)

	ErrBudgetNotAssociated = internal.NewValidationError("budget is not associated with this workflow", internal.ErrCodeBudgetNotAssociated)

	ErrDuplicateAssignment    = internal.NewConflictError("user is already assigned to this workflow", internal.ErrCodeValidationFailed)
	ErrDuplicateApprovalGroup = internal.NewConflictError("approval group already configured for this workflow action", internal.ErrCodeValidationFailed)
)
