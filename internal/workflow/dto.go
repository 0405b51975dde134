package workflow

import "errors"

// CreateWorkflowDTO is the request payload for creating a workflow with its
// budget pool.
type CreateWorkflowDTO struct {
	Name      string  `json:"name" validate:"required"`
	BudgetIDs []int64 `json:"budget_ids"`
}

func (dto CreateWorkflowDTO) Validate() error {
	if dto.Name == "" {
		return errors.New("name is required")
	}
	if len(dto.Name) > 200 {
		return errors.New("name must be less than 200 characters")
	}
	for _, id := range dto.BudgetIDs {
		if id <= 0 {
			return errors.New("budget ids must be positive")
		}
	}
	return nil
}

type AssignUserDTO struct {
	UserID int64 `json:"user_id" validate:"required"`
}

func (dto AssignUserDTO) Validate() error {
	if dto.UserID <= 0 {
		return errors.New("user_id is required")
	}
	return nil
}

type ApprovalGroupDTO struct {
	Action    string `json:"action" validate:"required"`
	GroupName string `json:"group_name" validate:"required"`
}

func (dto ApprovalGroupDTO) Validate() error {
	if dto.Action == "" {
		return errors.New("action is required")
	}
	if dto.GroupName == "" {
		return errors.New("group_name is required")
	}
	return nil
}
