package indent

import (
	"context"
	"log/slog"
	"time"

	"github.com/dimasprabowo/procurement-management/internal"
	"github.com/dimasprabowo/procurement-management/internal/core/events"
	"github.com/dimasprabowo/procurement-management/internal/workflow"
)

// Repository defines the data access methods for indents plus the lookups the
// approval gate needs. One implementation is bound per transaction.
type Repository interface {
	workflow.AccessStore
	workflow.BudgetStore

	UserExists(userID int64) (bool, error)
	UserDepartmentID(userID int64) (int64, error)
	WorkflowExists(workflowID int64) (bool, error)

	Create(ind *Indent) error
	GetByID(id int64) (*Indent, error)
	GetByUserID(userID int64, limit, offset int) ([]*Indent, error)
	GetAll(limit, offset int) ([]*Indent, error)
	UpdateDetails(id int64, fields map[string]interface{}) error

	// UpdateStatus and SetRFPNumber are conditional writes: they apply only
	// if the row still carries expectedStatus (and, for RFP, no number yet)
	// and report whether a row was changed.
	UpdateStatus(id int64, expectedStatus, newStatus string, approvedAt *time.Time) (bool, error)
	SetRFPNumber(id int64, rfpNumber string) (bool, error)
}

// TxManager runs fn against a Repository bound to a single transaction.
// The transaction commits iff fn returns nil; any error rolls the whole
// sequence back, so no partial write is ever visible.
type TxManager interface {
	InTransaction(fn func(Repository) error) error
}

// DocumentRenderer renders the RFP document for an approved indent.
type DocumentRenderer interface {
	RenderRFP(ind *Indent) (string, error)
}

// Service orchestrates indent mutations: every write runs the existence,
// association, and authorization checks in sequence inside one transaction.
type Service struct {
	txm        TxManager
	repo       Repository
	authorizer *workflow.Authorizer
	renderer   DocumentRenderer
	bus        *events.EventBus
	logger     *slog.Logger
}

func NewService(txm TxManager, repo Repository, authorizer *workflow.Authorizer, renderer DocumentRenderer, bus *events.EventBus, logger *slog.Logger) *Service {
	return &Service{
		txm:        txm,
		repo:       repo,
		authorizer: authorizer,
		renderer:   renderer,
		bus:        bus,
		logger:     logger,
	}
}

// CreateIndent raises a new indent in Pending after the full precondition
// chain passes: actor exists, workflow exists, budget belongs to the
// workflow's pool, actor is assigned and holds a Request role.
func (s *Service) CreateIndent(userID int64, dto CreateIndentDTO) (*Indent, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Error("indent validation failed", "error", err, "user_id", userID)
		return nil, internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed)
	}

	var created *Indent
	err := s.txm.InTransaction(func(r Repository) error {
		departmentID, err := s.resolveActor(r, userID)
		if err != nil {
			return err
		}

		if err := s.checkWorkflow(r, dto.WorkflowID); err != nil {
			return err
		}

		// Budget existence is a precondition, not a permission question,
		// so it runs before the authorization gate.
		if err := s.authorizer.ValidateBudgetAssociation(r, dto.BudgetID, dto.WorkflowID); err != nil {
			return err
		}

		if err := s.authorizer.Authorize(r, userID, dto.WorkflowID, workflow.ActionRequest); err != nil {
			return err
		}

		ind := &Indent{
			UserID:       userID,
			DepartmentID: departmentID,
			WorkflowID:   dto.WorkflowID,
			BudgetID:     dto.BudgetID,
			Asset:        dto.Asset,
			Quantity:     dto.Quantity,
			Remarks:      dto.Remarks,
			Status:       StatusPending,
		}
		if err := r.Create(ind); err != nil {
			return internal.NewInternalError("failed to create indent", err)
		}

		created = ind
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("indent created",
		"indent_id", created.ID,
		"user_id", userID,
		"workflow_id", dto.WorkflowID,
		"budget_id", dto.BudgetID)

	return created, nil
}

// UpdateIndentDetails applies a partial update to asset, quantity or remarks.
// It runs the same precondition chain as creation and additionally requires
// the indent to still be editable (Pending or Resubmitted).
func (s *Service) UpdateIndentDetails(userID, indentID int64, dto UpdateIndentDTO) (*Indent, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Error("indent update validation failed", "error", err, "indent_id", indentID)
		return nil, internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed)
	}

	var updated *Indent
	err := s.txm.InTransaction(func(r Repository) error {
		if _, err := s.resolveActor(r, userID); err != nil {
			return err
		}

		ind, err := r.GetByID(indentID)
		if err != nil {
			return internal.WrapStoreError("failed to load indent", err)
		}

		if err := s.checkWorkflow(r, ind.WorkflowID); err != nil {
			return err
		}

		if err := s.authorizer.ValidateBudgetAssociation(r, ind.BudgetID, ind.WorkflowID); err != nil {
			return err
		}

		if err := s.authorizer.Authorize(r, userID, ind.WorkflowID, workflow.ActionRequest); err != nil {
			return err
		}

		if !ind.CanModifyDetails() {
			s.logger.Warn("indent not editable in current status",
				"indent_id", indentID,
				"status", ind.Status)
			return ErrCannotModifyIndent
		}

		fields := map[string]interface{}{}
		if dto.Asset != nil {
			fields["asset"] = *dto.Asset
			ind.Asset = *dto.Asset
		}
		if dto.Quantity != nil {
			fields["quantity"] = *dto.Quantity
			ind.Quantity = *dto.Quantity
		}
		if dto.Remarks != nil {
			fields["remarks"] = *dto.Remarks
			ind.Remarks = *dto.Remarks
		}

		if err := r.UpdateDetails(indentID, fields); err != nil {
			return internal.NewInternalError("failed to update indent", err)
		}

		updated = ind
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("indent details updated", "indent_id", indentID, "user_id", userID)
	return updated, nil
}

// UpdateIndentStatus moves an indent through the status graph. The write is a
// compare-and-swap against the status read earlier in the transaction, so a
// concurrent transition surfaces as a conflict instead of a silent overwrite.
func (s *Service) UpdateIndentStatus(userID, indentID int64, dto UpdateStatusDTO) (*Indent, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Error("status validation failed", "error", err, "indent_id", indentID)
		return nil, internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed)
	}

	var updated *Indent
	err := s.txm.InTransaction(func(r Repository) error {
		if _, err := s.resolveActor(r, userID); err != nil {
			return err
		}

		ind, err := r.GetByID(indentID)
		if err != nil {
			return internal.WrapStoreError("failed to load indent", err)
		}

		if err := s.checkWorkflow(r, ind.WorkflowID); err != nil {
			return err
		}

		if err := s.authorizer.ValidateBudgetAssociation(r, ind.BudgetID, ind.WorkflowID); err != nil {
			return err
		}

		if err := s.authorizer.Authorize(r, userID, ind.WorkflowID, workflow.ActionApprove); err != nil {
			return err
		}

		if err := ValidateTransition(ind.Status, dto.Status); err != nil {
			s.logger.Warn("invalid status transition",
				"indent_id", indentID,
				"from", ind.Status,
				"to", dto.Status)
			return err
		}

		// Approval timestamp is set only on transition to Approved and
		// cleared on every other accepted transition.
		var approvedAt *time.Time
		if dto.Status == StatusApproved {
			now := time.Now()
			approvedAt = &now
		}

		changed, err := r.UpdateStatus(indentID, ind.Status, dto.Status, approvedAt)
		if err != nil {
			return internal.NewInternalError("failed to update indent status", err)
		}
		if !changed {
			return ErrConcurrentUpdate
		}

		ind.Status = dto.Status
		ind.ApprovedAt = approvedAt
		updated = ind
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("indent status updated",
		"indent_id", indentID,
		"status", dto.Status,
		"actor_id", userID)

	if s.bus != nil {
		switch dto.Status {
		case StatusApproved:
			_ = s.bus.Publish(context.Background(), events.NewIndentStatusEvent(events.EventIndentApproved, indentID, dto.Status, userID))
		case StatusRejected:
			_ = s.bus.Publish(context.Background(), events.NewIndentStatusEvent(events.EventIndentRejected, indentID, dto.Status, userID))
		}
	}

	return updated, nil
}

// GenerateRFP assigns the one-way RFP number to an Approved indent and renders
// the RFP document. The number is immutable once set; a second call returns a
// conflict and leaves the original untouched.
func (s *Service) GenerateRFP(userID, indentID int64) (*Indent, string, error) {
	var (
		updated *Indent
		number  string
	)
	err := s.txm.InTransaction(func(r Repository) error {
		if _, err := s.resolveActor(r, userID); err != nil {
			return err
		}

		ind, err := r.GetByID(indentID)
		if err != nil {
			return internal.WrapStoreError("failed to load indent", err)
		}

		if err := s.authorizer.Authorize(r, userID, ind.WorkflowID, workflow.ActionApprove); err != nil {
			return err
		}

		if ind.RFPNumber != nil {
			s.logger.Warn("RFP already generated", "indent_id", indentID, "rfp_number", *ind.RFPNumber)
			return ErrRFPAlreadyGenerated
		}
		if ind.Status != StatusApproved {
			return ErrRFPNotApproved
		}

		number, err = GenerateRFPNumber()
		if err != nil {
			return internal.NewInternalError("failed to generate RFP number", err)
		}

		changed, err := r.SetRFPNumber(indentID, number)
		if err != nil {
			// A store uniqueness violation on the random number lands
			// here; there is no silent retry.
			return internal.NewInternalError("failed to assign RFP number", err)
		}
		if !changed {
			return ErrRFPAlreadyGenerated
		}

		ind.RFPNumber = &number
		updated = ind
		return nil
	})
	if err != nil {
		return nil, "", err
	}

	s.logger.Info("RFP generated", "indent_id", indentID, "rfp_number", number, "actor_id", userID)

	document := ""
	if s.renderer != nil {
		doc, err := s.renderer.RenderRFP(updated)
		if err != nil {
			// The number is already committed; rendering failure must
			// not undo it. Delivery can be replayed later.
			s.logger.Error("failed to render RFP document", "error", err, "indent_id", indentID)
		} else {
			document = doc
		}
	}

	if s.bus != nil {
		_ = s.bus.Publish(context.Background(), events.NewRFPGeneratedEvent(indentID, number, document))
	}

	return updated, document, nil
}

// GetIndentByID retrieves an indent with owner-or-approver access control.
func (s *Service) GetIndentByID(indentID, userID int64) (*Indent, error) {
	ind, err := s.repo.GetByID(indentID)
	if err != nil {
		return nil, internal.WrapStoreError("failed to load indent", err)
	}

	if ind.UserID != userID {
		assigned, err := s.repo.HasAssignment(userID, ind.WorkflowID)
		if err != nil {
			return nil, internal.NewInternalError("failed to check workflow assignment", err)
		}
		if !assigned {
			s.logger.Warn("unauthorized indent access", "indent_id", indentID, "user_id", userID)
			return nil, workflow.ErrNotAssigned
		}
	}

	return ind, nil
}

func (s *Service) GetUserIndents(userID int64, limit, offset int) ([]*Indent, error) {
	indents, err := s.repo.GetByUserID(userID, limit, offset)
	if err != nil {
		return nil, internal.NewInternalError("failed to list indents", err)
	}
	return indents, nil
}

func (s *Service) GetAllIndents(limit, offset int) ([]*Indent, error) {
	indents, err := s.repo.GetAll(limit, offset)
	if err != nil {
		return nil, internal.NewInternalError("failed to list indents", err)
	}
	return indents, nil
}

// resolveActor confirms the actor exists and is active, and resolves their
// department. Existence always precedes permission logic.
func (s *Service) resolveActor(r Repository, userID int64) (int64, error) {
	exists, err := r.UserExists(userID)
	if err != nil {
		return 0, internal.NewInternalError("failed to check user", err)
	}
	if !exists {
		return 0, ErrUserNotFound
	}

	departmentID, err := r.UserDepartmentID(userID)
	if err != nil {
		return 0, internal.NewInternalError("failed to resolve department", err)
	}
	return departmentID, nil
}

func (s *Service) checkWorkflow(r Repository, workflowID int64) error {
	exists, err := r.WorkflowExists(workflowID)
	if err != nil {
		return internal.NewInternalError("failed to check workflow", err)
	}
	if !exists {
		return workflow.ErrWorkflowNotFound
	}
	return nil
}
