package supplier

import (
	"errors"
	"strings"
)

type CreateSupplierDTO struct {
	WorkflowID int64  `json:"workflow_id" validate:"required"`
	Name       string `json:"name" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Phone      string `json:"phone,omitempty"`
	Address    string `json:"address,omitempty"`
	GSTNumber  string `json:"gst_number,omitempty"`
}

func (dto CreateSupplierDTO) Validate() error {
	if dto.WorkflowID <= 0 {
		return errors.New("workflow_id is required")
	}
	if dto.Name == "" {
		return errors.New("name is required")
	}
	if dto.Email == "" || !strings.Contains(dto.Email, "@") {
		return errors.New("a valid email is required")
	}
	return nil
}

// UpdateSupplierDTO is a full-row update of the mutable supplier fields.
type UpdateSupplierDTO struct {
	Name      string `json:"name" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone,omitempty"`
	Address   string `json:"address,omitempty"`
	GSTNumber string `json:"gst_number,omitempty"`
	Status    string `json:"status,omitempty"`
}

func (dto UpdateSupplierDTO) Validate() error {
	if dto.Name == "" {
		return errors.New("name is required")
	}
	if dto.Email == "" || !strings.Contains(dto.Email, "@") {
		return errors.New("a valid email is required")
	}
	if dto.Status != "" && dto.Status != StatusActive && dto.Status != StatusInactive {
		return errors.New("status must be either 'active' or 'inactive'")
	}
	return nil
}

type UpdateStageDTO struct {
	Stage string `json:"stage" validate:"required"`
}

func (dto UpdateStageDTO) Validate() error {
	if dto.Stage == "" {
		return errors.New("stage is required")
	}
	if len(dto.Stage) > 100 {
		return errors.New("stage must be less than 100 characters")
	}
	return nil
}
