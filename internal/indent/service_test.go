package indent_test

import (
	"errors"
	"log/slog"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/dimasprabowo/procurement-management/internal"
	"github.com/dimasprabowo/procurement-management/internal/indent"
	"github.com/dimasprabowo/procurement-management/internal/workflow"
)

// Mock repository for testing. It backs both the direct reads and the
// in-transaction repository.
type mockIndentRepository struct {
	users       map[int64]int64 // userID -> departmentID
	workflows   map[int64]bool
	assignments map[int64]map[int64]bool
	groups      map[int64]map[string][]string
	grants      map[int64]map[string]bool

	budgets         map[int64]bool
	workflowBudgets map[int64][]int64

	indents map[int64]*indent.Indent
	nextID  int64

	createError error
	// statusConflict forces the conditional status write to report no row
	// changed, simulating a concurrent transition.
	statusConflict bool
	rfpConflict    bool
}

func newMockIndentRepository() *mockIndentRepository {
	return &mockIndentRepository{
		users:           make(map[int64]int64),
		workflows:       make(map[int64]bool),
		assignments:     make(map[int64]map[int64]bool),
		groups:          make(map[int64]map[string][]string),
		grants:          make(map[int64]map[string]bool),
		budgets:         make(map[int64]bool),
		workflowBudgets: make(map[int64][]int64),
		indents:         make(map[int64]*indent.Indent),
		nextID:          1,
	}
}

func (m *mockIndentRepository) assign(userID, workflowID int64) {
	if m.assignments[userID] == nil {
		m.assignments[userID] = make(map[int64]bool)
	}
	m.assignments[userID][workflowID] = true
}

func (m *mockIndentRepository) addGroup(workflowID int64, action, groupName string) {
	if m.groups[workflowID] == nil {
		m.groups[workflowID] = make(map[string][]string)
	}
	m.groups[workflowID][action] = append(m.groups[workflowID][action], groupName)
}

func (m *mockIndentRepository) grant(userID int64, groupName string) {
	if m.grants[userID] == nil {
		m.grants[userID] = make(map[string]bool)
	}
	m.grants[userID][groupName] = true
}

func (m *mockIndentRepository) HasAssignment(userID, workflowID int64) (bool, error) {
	return m.assignments[userID][workflowID], nil
}

func (m *mockIndentRepository) ApprovalGroupNames(workflowID int64, action string) ([]string, error) {
	return m.groups[workflowID][action], nil
}

func (m *mockIndentRepository) HasAnyRoleGrant(userID int64, groupNames []string) (bool, error) {
	for _, name := range groupNames {
		if m.grants[userID][name] {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockIndentRepository) BudgetExists(budgetID int64) (bool, error) {
	return m.budgets[budgetID], nil
}

func (m *mockIndentRepository) WorkflowBudgetIDs(workflowID int64) ([]int64, error) {
	return m.workflowBudgets[workflowID], nil
}

func (m *mockIndentRepository) UserExists(userID int64) (bool, error) {
	_, ok := m.users[userID]
	return ok, nil
}

func (m *mockIndentRepository) UserDepartmentID(userID int64) (int64, error) {
	deptID, ok := m.users[userID]
	if !ok {
		return 0, errors.New("user not found")
	}
	return deptID, nil
}

func (m *mockIndentRepository) WorkflowExists(workflowID int64) (bool, error) {
	return m.workflows[workflowID], nil
}

func (m *mockIndentRepository) Create(ind *indent.Indent) error {
	if m.createError != nil {
		return m.createError
	}
	ind.ID = m.nextID
	m.nextID++
	ind.CreatedAt = time.Now()
	ind.UpdatedAt = time.Now()
	m.indents[ind.ID] = ind
	return nil
}

func (m *mockIndentRepository) GetByID(id int64) (*indent.Indent, error) {
	ind, ok := m.indents[id]
	if !ok {
		return nil, indent.ErrIndentNotFound
	}
	copied := *ind
	return &copied, nil
}

func (m *mockIndentRepository) GetByUserID(userID int64, limit, offset int) ([]*indent.Indent, error) {
	var result []*indent.Indent
	for _, ind := range m.indents {
		if ind.UserID == userID {
			result = append(result, ind)
		}
	}
	return result, nil
}

func (m *mockIndentRepository) GetAll(limit, offset int) ([]*indent.Indent, error) {
	var result []*indent.Indent
	for _, ind := range m.indents {
		result = append(result, ind)
	}
	return result, nil
}

func (m *mockIndentRepository) UpdateDetails(id int64, fields map[string]interface{}) error {
	ind, ok := m.indents[id]
	if !ok {
		return indent.ErrIndentNotFound
	}
	if asset, ok := fields["asset"].(string); ok {
		ind.Asset = asset
	}
	if quantity, ok := fields["quantity"].(int64); ok {
		ind.Quantity = quantity
	}
	if remarks, ok := fields["remarks"].(string); ok {
		ind.Remarks = remarks
	}
	return nil
}

func (m *mockIndentRepository) UpdateStatus(id int64, expectedStatus, newStatus string, approvedAt *time.Time) (bool, error) {
	if m.statusConflict {
		return false, nil
	}
	ind, ok := m.indents[id]
	if !ok || ind.Status != expectedStatus {
		return false, nil
	}
	ind.Status = newStatus
	ind.ApprovedAt = approvedAt
	return true, nil
}

func (m *mockIndentRepository) SetRFPNumber(id int64, rfpNumber string) (bool, error) {
	if m.rfpConflict {
		return false, nil
	}
	ind, ok := m.indents[id]
	if !ok || ind.Status != indent.StatusApproved || ind.RFPNumber != nil {
		return false, nil
	}
	ind.RFPNumber = &rfpNumber
	return true, nil
}

// mockTxManager hands the same repository to the closure; there is no real
// transaction to roll back, the tests assert on returned errors instead.
type mockTxManager struct {
	repo *mockIndentRepository
}

func (m *mockTxManager) InTransaction(fn func(indent.Repository) error) error {
	return fn(m.repo)
}

type mockRenderer struct {
	renderError error
}

func (m *mockRenderer) RenderRFP(ind *indent.Indent) (string, error) {
	if m.renderError != nil {
		return "", m.renderError
	}
	return "RFP document for " + ind.Asset, nil
}

var _ = Describe("IndentService", func() {
	var (
		service  *indent.Service
		mockRepo *mockIndentRepository
		renderer *mockRenderer
	)

	const (
		requesterID = int64(1)
		approverID  = int64(2)
		workflowID  = int64(10)
		budgetID    = int64(20)
		deptID      = int64(30)
	)

	BeforeEach(func() {
		mockRepo = newMockIndentRepository()
		renderer = &mockRenderer{}
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		authorizer := workflow.NewAuthorizer(logger)
		service = indent.NewService(&mockTxManager{repo: mockRepo}, mockRepo, authorizer, renderer, nil, logger)

		mockRepo.users[requesterID] = deptID
		mockRepo.users[approverID] = deptID
		mockRepo.workflows[workflowID] = true
		mockRepo.budgets[budgetID] = true
		mockRepo.workflowBudgets[workflowID] = []int64{budgetID}

		mockRepo.assign(requesterID, workflowID)
		mockRepo.assign(approverID, workflowID)
		mockRepo.addGroup(workflowID, workflow.ActionRequest, "Requesters")
		mockRepo.addGroup(workflowID, workflow.ActionApprove, "Managers")
		mockRepo.grant(requesterID, "Requesters")
		mockRepo.grant(approverID, "Managers")
	})

	validDTO := func() indent.CreateIndentDTO {
		return indent.CreateIndentDTO{
			WorkflowID: workflowID,
			BudgetID:   budgetID,
			Asset:      "Laptop",
			Quantity:   3,
			Remarks:    "replacement hardware",
		}
	}

	createIndent := func() *indent.Indent {
		ind, err := service.CreateIndent(requesterID, validDTO())
		Expect(err).ToNot(HaveOccurred())
		return ind
	}

	approveIndent := func(id int64) *indent.Indent {
		ind, err := service.UpdateIndentStatus(approverID, id, indent.UpdateStatusDTO{Status: indent.StatusApproved})
		Expect(err).ToNot(HaveOccurred())
		return ind
	}

	Describe("CreateIndent", func() {
		It("should create a Pending indent with the actor's department", func() {
			ind := createIndent()

			Expect(ind.ID).To(BeNumerically(">", 0))
			Expect(ind.Status).To(Equal(indent.StatusPending))
			Expect(ind.UserID).To(Equal(requesterID))
			Expect(ind.DepartmentID).To(Equal(deptID))
			Expect(ind.ApprovedAt).To(BeNil())
			Expect(ind.RFPNumber).To(BeNil())
		})

		It("should fail for an unknown user", func() {
			_, err := service.CreateIndent(999, validDTO())

			Expect(err).To(MatchError(indent.ErrUserNotFound))
		})

		It("should fail for an unknown workflow", func() {
			dto := validDTO()
			dto.WorkflowID = 999

			_, err := service.CreateIndent(requesterID, dto)

			Expect(err).To(MatchError(workflow.ErrWorkflowNotFound))
		})

		It("should fail for an unknown budget", func() {
			dto := validDTO()
			dto.BudgetID = 999

			_, err := service.CreateIndent(requesterID, dto)

			Expect(err).To(MatchError(workflow.ErrBudgetNotFound))
		})

		It("should fail when the budget is outside the workflow pool", func() {
			otherBudget := int64(21)
			mockRepo.budgets[otherBudget] = true
			dto := validDTO()
			dto.BudgetID = otherBudget

			_, err := service.CreateIndent(requesterID, dto)

			Expect(err).To(MatchError(workflow.ErrBudgetNotAssociated))
		})

		It("should fail for an actor without an assignment", func() {
			unassigned := int64(3)
			mockRepo.users[unassigned] = deptID
			mockRepo.grant(unassigned, "Requesters")

			_, err := service.CreateIndent(unassigned, validDTO())

			Expect(err).To(MatchError(workflow.ErrNotAssigned))
		})

		It("should fail for an assigned actor without a Request role", func() {
			_, err := service.CreateIndent(approverID, validDTO())

			Expect(err).To(MatchError(workflow.ErrRoleNotAuthorized))
		})

		It("should fail as a configuration fault when no groups exist for Request", func() {
			mockRepo.groups[workflowID][workflow.ActionRequest] = nil

			_, err := service.CreateIndent(requesterID, validDTO())

			Expect(err).To(MatchError(workflow.ErrNoApprovalGroups))
		})

		It("should allow any assigned actor when a Bypass group is configured", func() {
			mockRepo.addGroup(workflowID, workflow.ActionRequest, workflow.BypassGroup)

			ind, err := service.CreateIndent(approverID, validDTO())

			Expect(err).ToNot(HaveOccurred())
			Expect(ind.Status).To(Equal(indent.StatusPending))
		})

		It("should reject an invalid payload before touching the store", func() {
			dto := validDTO()
			dto.Quantity = 0

			_, err := service.CreateIndent(requesterID, dto)

			Expect(err).To(HaveOccurred())
			Expect(mockRepo.indents).To(BeEmpty())
		})
	})

	Describe("UpdateIndentDetails", func() {
		It("should apply only the supplied fields", func() {
			ind := createIndent()
			newAsset := "Workstation"

			updated, err := service.UpdateIndentDetails(requesterID, ind.ID, indent.UpdateIndentDTO{Asset: &newAsset})

			Expect(err).ToNot(HaveOccurred())
			Expect(updated.Asset).To(Equal("Workstation"))
			Expect(updated.Quantity).To(Equal(int64(3)))
			Expect(updated.Remarks).To(Equal("replacement hardware"))
		})

		It("should refuse edits on an Approved indent", func() {
			ind := createIndent()
			approveIndent(ind.ID)
			newAsset := "Workstation"

			_, err := service.UpdateIndentDetails(requesterID, ind.ID, indent.UpdateIndentDTO{Asset: &newAsset})

			Expect(err).To(MatchError(indent.ErrCannotModifyIndent))
		})

		It("should allow edits again after Approved moves to Resubmitted", func() {
			ind := createIndent()
			approveIndent(ind.ID)
			_, err := service.UpdateIndentStatus(approverID, ind.ID, indent.UpdateStatusDTO{Status: indent.StatusResubmitted})
			Expect(err).ToNot(HaveOccurred())

			quantity := int64(5)
			updated, err := service.UpdateIndentDetails(requesterID, ind.ID, indent.UpdateIndentDTO{Quantity: &quantity})

			Expect(err).ToNot(HaveOccurred())
			Expect(updated.Quantity).To(Equal(int64(5)))
		})
	})

	Describe("UpdateIndentStatus", func() {
		It("should approve a Pending indent and stamp approved_at", func() {
			ind := createIndent()

			updated := approveIndent(ind.ID)

			Expect(updated.Status).To(Equal(indent.StatusApproved))
			Expect(updated.ApprovedAt).ToNot(BeNil())
		})

		It("should clear approved_at when the indent leaves Approved", func() {
			ind := createIndent()
			approveIndent(ind.ID)

			updated, err := service.UpdateIndentStatus(approverID, ind.ID, indent.UpdateStatusDTO{Status: indent.StatusResubmitted})

			Expect(err).ToNot(HaveOccurred())
			Expect(updated.Status).To(Equal(indent.StatusResubmitted))
			Expect(updated.ApprovedAt).To(BeNil())
		})

		It("should reject a transition out of Rejected", func() {
			ind := createIndent()
			_, err := service.UpdateIndentStatus(approverID, ind.ID, indent.UpdateStatusDTO{Status: indent.StatusRejected})
			Expect(err).ToNot(HaveOccurred())

			_, err = service.UpdateIndentStatus(approverID, ind.ID, indent.UpdateStatusDTO{Status: indent.StatusApproved})

			Expect(err).To(HaveOccurred())
		})

		It("should reject a self-transition", func() {
			ind := createIndent()

			_, err := service.UpdateIndentStatus(approverID, ind.ID, indent.UpdateStatusDTO{Status: indent.StatusPending})

			Expect(err).To(HaveOccurred())
		})

		It("should deny an actor without an Approve role", func() {
			ind := createIndent()

			_, err := service.UpdateIndentStatus(requesterID, ind.ID, indent.UpdateStatusDTO{Status: indent.StatusApproved})

			Expect(err).To(MatchError(workflow.ErrRoleNotAuthorized))
		})

		It("should refuse a transition when the workflow no longer exists", func() {
			ind := createIndent()
			delete(mockRepo.workflows, workflowID)

			_, err := service.UpdateIndentStatus(approverID, ind.ID, indent.UpdateStatusDTO{Status: indent.StatusApproved})

			Expect(err).To(MatchError(workflow.ErrWorkflowNotFound))
			Expect(mockRepo.indents[ind.ID].Status).To(Equal(indent.StatusPending))
		})

		It("should answer an unknown status with the invalid-transition error", func() {
			ind := createIndent()

			_, err := service.UpdateIndentStatus(approverID, ind.ID, indent.UpdateStatusDTO{Status: "Archived"})

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeInvalidTransition))
			Expect(appErr.Details).To(HaveKeyWithValue("allowed", indent.AllowedNext(indent.StatusPending)))
		})

		It("should refuse a transition when the budget left the workflow pool", func() {
			ind := createIndent()
			mockRepo.workflowBudgets[workflowID] = nil

			_, err := service.UpdateIndentStatus(approverID, ind.ID, indent.UpdateStatusDTO{Status: indent.StatusApproved})

			Expect(err).To(MatchError(workflow.ErrBudgetNotAssociated))
			Expect(mockRepo.indents[ind.ID].Status).To(Equal(indent.StatusPending))
		})

		It("should surface a lost conditional write as a conflict", func() {
			ind := createIndent()
			mockRepo.statusConflict = true

			_, err := service.UpdateIndentStatus(approverID, ind.ID, indent.UpdateStatusDTO{Status: indent.StatusApproved})

			Expect(err).To(MatchError(indent.ErrConcurrentUpdate))
		})
	})

	Describe("GenerateRFP", func() {
		It("should assign a ten digit number and render the document", func() {
			ind := createIndent()
			approveIndent(ind.ID)

			updated, document, err := service.GenerateRFP(approverID, ind.ID)

			Expect(err).ToNot(HaveOccurred())
			Expect(updated.RFPNumber).ToNot(BeNil())
			Expect(*updated.RFPNumber).To(MatchRegexp(`^[0-9]{10}$`))
			Expect(document).To(ContainSubstring("Laptop"))
		})

		It("should refuse a second generation", func() {
			ind := createIndent()
			approveIndent(ind.ID)
			first, _, err := service.GenerateRFP(approverID, ind.ID)
			Expect(err).ToNot(HaveOccurred())

			_, _, err = service.GenerateRFP(approverID, ind.ID)

			Expect(err).To(MatchError(indent.ErrRFPAlreadyGenerated))
			stored, _ := mockRepo.GetByID(ind.ID)
			Expect(*stored.RFPNumber).To(Equal(*first.RFPNumber))
		})

		It("should prefer the already-generated error over the status error", func() {
			ind := createIndent()
			approveIndent(ind.ID)
			_, _, err := service.GenerateRFP(approverID, ind.ID)
			Expect(err).ToNot(HaveOccurred())

			// Move the indent out of Approved; the number stays and the
			// conflict still wins.
			_, err = service.UpdateIndentStatus(approverID, ind.ID, indent.UpdateStatusDTO{Status: indent.StatusResubmitted})
			Expect(err).ToNot(HaveOccurred())

			_, _, err = service.GenerateRFP(approverID, ind.ID)

			Expect(err).To(MatchError(indent.ErrRFPAlreadyGenerated))
		})

		It("should refuse generation for a non-Approved indent", func() {
			ind := createIndent()

			_, _, err := service.GenerateRFP(approverID, ind.ID)

			Expect(err).To(MatchError(indent.ErrRFPNotApproved))
		})

		It("should surface a lost conditional write as a conflict", func() {
			ind := createIndent()
			approveIndent(ind.ID)
			mockRepo.rfpConflict = true

			_, _, err := service.GenerateRFP(approverID, ind.ID)

			Expect(err).To(MatchError(indent.ErrRFPAlreadyGenerated))
		})

		It("should keep the committed number when rendering fails", func() {
			ind := createIndent()
			approveIndent(ind.ID)
			renderer.renderError = errors.New("template broken")

			updated, document, err := service.GenerateRFP(approverID, ind.ID)

			Expect(err).ToNot(HaveOccurred())
			Expect(updated.RFPNumber).ToNot(BeNil())
			Expect(document).To(BeEmpty())
		})
	})

	Describe("GetIndentByID", func() {
		It("should allow the owner", func() {
			ind := createIndent()

			got, err := service.GetIndentByID(ind.ID, requesterID)

			Expect(err).ToNot(HaveOccurred())
			Expect(got.ID).To(Equal(ind.ID))
		})

		It("should allow an actor assigned to the workflow", func() {
			ind := createIndent()

			got, err := service.GetIndentByID(ind.ID, approverID)

			Expect(err).ToNot(HaveOccurred())
			Expect(got.ID).To(Equal(ind.ID))
		})

		It("should deny an unrelated actor", func() {
			ind := createIndent()
			outsider := int64(99)
			mockRepo.users[outsider] = deptID

			_, err := service.GetIndentByID(ind.ID, outsider)

			Expect(err).To(MatchError(workflow.ErrNotAssigned))
		})
	})
})
