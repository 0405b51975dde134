package workflow_test

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/dimasprabowo/procurement-management/internal"
	"github.com/dimasprabowo/procurement-management/internal/workflow"
)

type mockWorkflowRepository struct {
	workflows   map[int64]*workflow.Workflow
	assignments map[string]bool
	groups      map[int64][]*workflow.ApprovalGroup
	budgets     map[int64]bool
	nextID      int64

	createError error
}

func newMockWorkflowRepository() *mockWorkflowRepository {
	return &mockWorkflowRepository{
		workflows:   make(map[int64]*workflow.Workflow),
		assignments: make(map[string]bool),
		groups:      make(map[int64][]*workflow.ApprovalGroup),
		budgets:     make(map[int64]bool),
		nextID:      1,
	}
}

func assignmentKey(userID, workflowID int64) string {
	return fmt.Sprintf("%d/%d", userID, workflowID)
}

func (m *mockWorkflowRepository) Create(wf *workflow.Workflow) error {
	if m.createError != nil {
		return m.createError
	}
	wf.ID = m.nextID
	m.nextID++
	wf.CreatedAt = time.Now()
	m.workflows[wf.ID] = wf
	return nil
}

func (m *mockWorkflowRepository) GetByID(id int64) (*workflow.Workflow, error) {
	wf, ok := m.workflows[id]
	if !ok {
		return nil, workflow.ErrWorkflowNotFound
	}
	return wf, nil
}

func (m *mockWorkflowRepository) List(limit, offset int) ([]*workflow.Workflow, error) {
	var result []*workflow.Workflow
	for _, wf := range m.workflows {
		result = append(result, wf)
	}
	return result, nil
}

func (m *mockWorkflowRepository) Exists(id int64) (bool, error) {
	_, ok := m.workflows[id]
	return ok, nil
}

func (m *mockWorkflowRepository) AssignUser(userID, workflowID int64) error {
	key := assignmentKey(userID, workflowID)
	if m.assignments[key] {
		return workflow.ErrDuplicateAssignment
	}
	m.assignments[key] = true
	return nil
}

func (m *mockWorkflowRepository) AddApprovalGroup(group *workflow.ApprovalGroup) error {
	for _, existing := range m.groups[group.WorkflowID] {
		if existing.Action == group.Action && existing.GroupName == group.GroupName {
			return workflow.ErrDuplicateApprovalGroup
		}
	}
	m.groups[group.WorkflowID] = append(m.groups[group.WorkflowID], group)
	return nil
}

func (m *mockWorkflowRepository) ListApprovalGroups(workflowID int64) ([]*workflow.ApprovalGroup, error) {
	return m.groups[workflowID], nil
}

func (m *mockWorkflowRepository) BudgetExists(budgetID int64) (bool, error) {
	return m.budgets[budgetID], nil
}

func (m *mockWorkflowRepository) WorkflowBudgetIDs(workflowID int64) ([]int64, error) {
	wf, ok := m.workflows[workflowID]
	if !ok {
		return nil, nil
	}
	return wf.BudgetIDs, nil
}

var _ = Describe("WorkflowService", func() {
	var (
		service  *workflow.Service
		mockRepo *mockWorkflowRepository
	)

	BeforeEach(func() {
		mockRepo = newMockWorkflowRepository()
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = workflow.NewService(mockRepo, logger)

		mockRepo.budgets[20] = true
		mockRepo.budgets[21] = true
	})

	Describe("CreateWorkflow", func() {
		It("should create a workflow with its budget pool", func() {
			wf, err := service.CreateWorkflow(1, workflow.CreateWorkflowDTO{
				Name:      "IT Procurement",
				BudgetIDs: []int64{20, 21},
			})

			Expect(err).ToNot(HaveOccurred())
			Expect(wf.ID).To(BeNumerically(">", 0))
			Expect(wf.CreatedBy).To(Equal(int64(1)))
			Expect(wf.BudgetIDs).To(ConsistOf(int64(20), int64(21)))
		})

		It("should refuse an unknown budget in the pool", func() {
			_, err := service.CreateWorkflow(1, workflow.CreateWorkflowDTO{
				Name:      "IT Procurement",
				BudgetIDs: []int64{20, 999},
			})

			Expect(err).To(MatchError(workflow.ErrBudgetNotFound))
		})

		It("should allow an empty budget pool", func() {
			wf, err := service.CreateWorkflow(1, workflow.CreateWorkflowDTO{Name: "HR Onboarding"})

			Expect(err).ToNot(HaveOccurred())
			Expect(wf.BudgetIDs).To(BeEmpty())
		})

		It("should wrap a store failure without exposing the driver error", func() {
			mockRepo.createError = errors.New("pq: connection reset by peer")

			_, err := service.CreateWorkflow(1, workflow.CreateWorkflowDTO{Name: "IT Procurement"})

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeStoreFailure))
			Expect(appErr.Message).ToNot(ContainSubstring("pq:"))
		})
	})

	Describe("AssignUser", func() {
		var workflowID int64

		BeforeEach(func() {
			wf, err := service.CreateWorkflow(1, workflow.CreateWorkflowDTO{Name: "IT Procurement"})
			Expect(err).ToNot(HaveOccurred())
			workflowID = wf.ID
		})

		It("should assign a user once", func() {
			err := service.AssignUser(workflowID, workflow.AssignUserDTO{UserID: 5})

			Expect(err).ToNot(HaveOccurred())
		})

		It("should refuse a duplicate assignment", func() {
			Expect(service.AssignUser(workflowID, workflow.AssignUserDTO{UserID: 5})).To(Succeed())

			err := service.AssignUser(workflowID, workflow.AssignUserDTO{UserID: 5})

			Expect(err).To(MatchError(workflow.ErrDuplicateAssignment))
		})

		It("should refuse an unknown workflow", func() {
			err := service.AssignUser(999, workflow.AssignUserDTO{UserID: 5})

			Expect(err).To(MatchError(workflow.ErrWorkflowNotFound))
		})
	})

	Describe("ConfigureApprovalGroup", func() {
		var workflowID int64

		BeforeEach(func() {
			wf, err := service.CreateWorkflow(1, workflow.CreateWorkflowDTO{Name: "IT Procurement"})
			Expect(err).ToNot(HaveOccurred())
			workflowID = wf.ID
		})

		It("should add a group for an action", func() {
			group, err := service.ConfigureApprovalGroup(workflowID, workflow.ApprovalGroupDTO{
				Action:    workflow.ActionApprove,
				GroupName: "Managers",
			})

			Expect(err).ToNot(HaveOccurred())
			Expect(group.WorkflowID).To(Equal(workflowID))

			groups, err := service.ListApprovalGroups(workflowID)
			Expect(err).ToNot(HaveOccurred())
			Expect(groups).To(HaveLen(1))
		})

		It("should refuse a duplicate group triple", func() {
			_, err := service.ConfigureApprovalGroup(workflowID, workflow.ApprovalGroupDTO{
				Action:    workflow.ActionApprove,
				GroupName: "Managers",
			})
			Expect(err).ToNot(HaveOccurred())

			_, err = service.ConfigureApprovalGroup(workflowID, workflow.ApprovalGroupDTO{
				Action:    workflow.ActionApprove,
				GroupName: "Managers",
			})

			Expect(err).To(MatchError(workflow.ErrDuplicateApprovalGroup))
		})

		It("should allow the same group name under a different action", func() {
			_, err := service.ConfigureApprovalGroup(workflowID, workflow.ApprovalGroupDTO{
				Action:    workflow.ActionApprove,
				GroupName: "Managers",
			})
			Expect(err).ToNot(HaveOccurred())

			_, err = service.ConfigureApprovalGroup(workflowID, workflow.ApprovalGroupDTO{
				Action:    workflow.ActionVendorApproval,
				GroupName: "Managers",
			})

			Expect(err).ToNot(HaveOccurred())
		})
	})
})
