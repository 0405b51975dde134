package indent

import "errors"

// CreateIndentDTO is the request payload for raising an indent.
type CreateIndentDTO struct {
	WorkflowID int64  `json:"workflow_id" validate:"required"`
	BudgetID   int64  `json:"budget_id" validate:"required"`
	Asset      string `json:"asset" validate:"required"`
	Quantity   int64  `json:"quantity" validate:"required,min=1"`
	Remarks    string `json:"remarks,omitempty"`
}

func (dto CreateIndentDTO) Validate() error {
	if dto.WorkflowID <= 0 {
		return errors.New("workflow_id is required")
	}
	if dto.BudgetID <= 0 {
		return errors.New("budget_id is required")
	}
	if dto.Asset == "" {
		return errors.New("asset is required")
	}
	if len(dto.Asset) > 300 {
		return errors.New("asset must be less than 300 characters")
	}
	if dto.Quantity <= 0 {
		return errors.New("quantity must be greater than 0")
	}
	if len(dto.Remarks) > 1000 {
		return errors.New("remarks must be less than 1000 characters")
	}
	return nil
}

// UpdateIndentDTO carries a field-level partial update: only supplied fields
// are modified.
type UpdateIndentDTO struct {
	Asset    *string `json:"asset,omitempty"`
	Quantity *int64  `json:"quantity,omitempty"`
	Remarks  *string `json:"remarks,omitempty"`
}

func (dto UpdateIndentDTO) Validate() error {
	if dto.Asset == nil && dto.Quantity == nil && dto.Remarks == nil {
		return errors.New("at least one field must be supplied")
	}
	if dto.Asset != nil && *dto.Asset == "" {
		return errors.New("asset cannot be empty")
	}
	if dto.Quantity != nil && *dto.Quantity <= 0 {
		return errors.New("quantity must be greater than 0")
	}
	return nil
}

type UpdateStatusDTO struct {
	Status string `json:"status" validate:"required"`
}

// Validate only requires a status to be present. Unknown status values are
// left for the transition table, which rejects them with the allowed-next
// statuses in the error details.
func (dto UpdateStatusDTO) Validate() error {
	if dto.Status == "" {
		return errors.New("status is required")
	}
	return nil
}
