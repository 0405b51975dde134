package supplier

import (
	"context"
	"log/slog"

	"github.com/dimasprabowo/procurement-management/internal"
	"github.com/dimasprabowo/procurement-management/internal/core/events"
	"github.com/dimasprabowo/procurement-management/internal/workflow"
)

// Repository defines the data access methods for suppliers plus the lookups
// the approval gate needs.
type Repository interface {
	workflow.AccessStore

	WorkflowExists(workflowID int64) (bool, error)

	Create(sup *Supplier) error
	GetByID(id int64) (*Supplier, error)
	GetAll(limit, offset int) ([]*Supplier, error)
	Update(sup *Supplier) error

	// UpdateStage writes the stage only while the row has not reached the
	// Approved lock; it reports whether a row was changed.
	UpdateStage(id int64, stage string) (bool, error)
}

type TxManager interface {
	InTransaction(fn func(Repository) error) error
}

// Service orchestrates supplier onboarding and stage changes. Every mutation
// runs its checks and write inside one transaction.
type Service struct {
	txm        TxManager
	repo       Repository
	authorizer *workflow.Authorizer
	bus        *events.EventBus
	logger     *slog.Logger
}

func NewService(txm TxManager, repo Repository, authorizer *workflow.Authorizer, bus *events.EventBus, logger *slog.Logger) *Service {
	return &Service{
		txm:        txm,
		repo:       repo,
		authorizer: authorizer,
		bus:        bus,
		logger:     logger,
	}
}

func (s *Service) CreateSupplier(userID int64, dto CreateSupplierDTO) (*Supplier, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Error("supplier validation failed", "error", err, "user_id", userID)
		return nil, internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed)
	}

	var created *Supplier
	err := s.txm.InTransaction(func(r Repository) error {
		exists, err := r.WorkflowExists(dto.WorkflowID)
		if err != nil {
			return internal.NewInternalError("failed to check workflow", err)
		}
		if !exists {
			return workflow.ErrWorkflowNotFound
		}

		if err := s.authorizer.Authorize(r, userID, dto.WorkflowID, workflow.ActionVendorApproval); err != nil {
			return err
		}

		sup := &Supplier{
			WorkflowID:   dto.WorkflowID,
			Name:         dto.Name,
			Email:        dto.Email,
			Phone:        dto.Phone,
			Address:      dto.Address,
			GSTNumber:    dto.GSTNumber,
			CurrentStage: StageOnboarding,
			Status:       StatusActive,
		}
		if err := r.Create(sup); err != nil {
			return internal.NewInternalError("failed to create supplier", err)
		}

		created = sup
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("supplier created",
		"supplier_id", created.ID,
		"workflow_id", dto.WorkflowID,
		"actor_id", userID)

	return created, nil
}

// UpdateStage moves the supplier to the requested stage after the vendor
// approval gate passes. Stages form an open set of tags; only the Approved
// lock is enforced. The write is conditional so a concurrent approval cannot
// be overwritten.
func (s *Service) UpdateStage(userID, supplierID int64, dto UpdateStageDTO) (*Supplier, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Error("stage validation failed", "error", err, "supplier_id", supplierID)
		return nil, internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed)
	}

	var updated *Supplier
	err := s.txm.InTransaction(func(r Repository) error {
		sup, err := r.GetByID(supplierID)
		if err != nil {
			return internal.WrapStoreError("failed to load supplier", err)
		}

		if err := s.authorizer.Authorize(r, userID, sup.WorkflowID, workflow.ActionVendorApproval); err != nil {
			return err
		}

		if sup.IsLocked() {
			s.logger.Warn("supplier already Approved, stage change refused",
				"supplier_id", supplierID,
				"requested_stage", dto.Stage)
			return ErrSupplierLocked
		}

		changed, err := r.UpdateStage(supplierID, dto.Stage)
		if err != nil {
			return internal.NewInternalError("failed to update supplier stage", err)
		}
		if !changed {
			return ErrSupplierLocked
		}

		sup.CurrentStage = dto.Stage
		updated = sup
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("supplier stage updated",
		"supplier_id", supplierID,
		"stage", dto.Stage,
		"actor_id", userID)

	if s.bus != nil {
		_ = s.bus.Publish(context.Background(), events.NewSupplierStageChangedEvent(supplierID, dto.Stage, userID))
	}

	return updated, nil
}

// UpdateSupplier applies a full-row update of the mutable fields. An Approved
// supplier is immutable; the attempt is refused before any write.
func (s *Service) UpdateSupplier(userID, supplierID int64, dto UpdateSupplierDTO) (*Supplier, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Error("supplier update validation failed", "error", err, "supplier_id", supplierID)
		return nil, internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed)
	}

	var updated *Supplier
	err := s.txm.InTransaction(func(r Repository) error {
		sup, err := r.GetByID(supplierID)
		if err != nil {
			return internal.WrapStoreError("failed to load supplier", err)
		}

		if err := s.authorizer.Authorize(r, userID, sup.WorkflowID, workflow.ActionVendorApproval); err != nil {
			return err
		}

		if sup.IsLocked() {
			s.logger.Warn("supplier already Approved, update refused", "supplier_id", supplierID)
			return ErrSupplierLocked
		}

		sup.Name = dto.Name
		sup.Email = dto.Email
		sup.Phone = dto.Phone
		sup.Address = dto.Address
		sup.GSTNumber = dto.GSTNumber
		if dto.Status != "" {
			sup.Status = dto.Status
		}

		if err := r.Update(sup); err != nil {
			return internal.NewInternalError("failed to update supplier", err)
		}

		updated = sup
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("supplier updated", "supplier_id", supplierID, "actor_id", userID)
	return updated, nil
}

func (s *Service) GetSupplierByID(supplierID int64) (*Supplier, error) {
	sup, err := s.repo.GetByID(supplierID)
	if err != nil {
		return nil, internal.WrapStoreError("failed to load supplier", err)
	}
	return sup, nil
}

func (s *Service) GetAllSuppliers(limit, offset int) ([]*Supplier, error) {
	suppliers, err := s.repo.GetAll(limit, offset)
	if err != nil {
		return nil, internal.NewInternalError("failed to list suppliers", err)
	}
	return suppliers, nil
}
