package workflow

import (
	"log/slog"
)

// AccessStore is the minimal read surface the authorizer needs. Both the indent
// and supplier repositories satisfy it, so every orchestrator runs the same
// check sequence inside its own transaction.
type AccessStore interface {
	HasAssignment(userID, workflowID int64) (bool, error)
	ApprovalGroupNames(workflowID int64, action string) ([]string, error)
	HasAnyRoleGrant(userID int64, groupNames []string) (bool, error)
}

// BudgetStore is the read surface for budget-association checks.
type BudgetStore interface {
	BudgetExists(budgetID int64) (bool, error)
	WorkflowBudgetIDs(workflowID int64) ([]int64, error)
}

// Authorizer decides whether an actor may perform an action on a workflow.
// It has no side effects; callers are expected to invoke it inside the same
// transaction as the mutation it guards.
type Authorizer struct {
	logger *slog.Logger
}

func NewAuthorizer(logger *slog.Logger) *Authorizer {
	return &Authorizer{logger: logger}
}

// Authorize runs the approval gate:
//  1. the actor must hold a workflow assignment,
//  2. the workflow/action must have at least one configured approval group,
//  3. a Bypass group short-circuits per-actor role checks,
//  4. otherwise the actor must hold a role grant matching one of the groups.
func (a *Authorizer) Authorize(store AccessStore, actorID, workflowID int64, action string) error {
	assigned, err := store.HasAssignment(actorID, workflowID)
	if err != nil {
		return err
	}
	if !assigned {
		a.logger.Warn("authorization denied: no workflow assignment",
			"actor_id", actorID,
			"workflow_id", workflowID,
			"action", action)
		return ErrNotAssigned
	}

	groupNames, err := store.ApprovalGroupNames(workflowID, action)
	if err != nil {
		return err
	}
	if len(groupNames) == 0 {
		// Administrative gap, not a permission failure. Logged at error level
		// so operators notice misconfigured workflows.
		a.logger.Error("authorization failed: no approval groups configured",
			"workflow_id", workflowID,
			"action", action)
		return ErrNoApprovalGroups
	}

	for _, name := range groupNames {
		if name == BypassGroup {
			return nil
		}
	}

	granted, err := store.HasAnyRoleGrant(actorID, groupNames)
	if err != nil {
		return err
	}
	if !granted {
		a.logger.Warn("authorization denied: role not authorized",
			"actor_id", actorID,
			"workflow_id", workflowID,
			"action", action,
			"groups", groupNames)
		return ErrRoleNotAuthorized
	}

	return nil
}

// ValidateBudgetAssociation confirms the budget exists and belongs to the
// workflow's allowed pool. Creation flows run this before authorization so the
// caller gets the most specific error first.
func (a *Authorizer) ValidateBudgetAssociation(store BudgetStore, budgetID, workflowID int64) error {
	exists, err := store.BudgetExists(budgetID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrBudgetNotFound
	}

	budgetIDs, err := store.WorkflowBudgetIDs(workflowID)
	if err != nil {
		return err
	}
	for _, id := range budgetIDs {
		if id == budgetID {
			return nil
		}
	}

	a.logger.Warn("budget not associated with workflow",
		"budget_id", budgetID,
		"workflow_id", workflowID)
	return ErrBudgetNotAssociated
}
