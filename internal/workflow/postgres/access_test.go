package postgres

import (
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/dimasprabowo/procurement-management/internal/workflow"
)

func TestWorkflowRepository(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "WorkflowRepository Suite")
}

type SQLiteUser struct {
	ID           int64     `gorm:"primaryKey"`
	Email        string    `gorm:"not null"`
	Name         string    `gorm:"not null"`
	PasswordHash string    `gorm:"column:password_hash"`
	DepartmentID int64     `gorm:"column:department_id"`
	IsActive     bool      `gorm:"column:is_active;default:true"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (SQLiteUser) TableName() string {
	return "users"
}

type SQLiteBudget struct {
	ID           int64     `gorm:"primaryKey"`
	DepartmentID int64     `gorm:"column:department_id"`
	Name         string    `gorm:"not null"`
	CeilingIDR   int64     `gorm:"column:ceiling_idr"`
	CreatedAt    time.Time `gorm:"column:created_at"`
}

func (SQLiteBudget) TableName() string {
	return "budgets"
}

var _ = Describe("AccessRepository", func() {
	var (
		db   *gorm.DB
		repo *AccessRepository
	)

	BeforeEach(func() {
		var err error
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
		Expect(err).NotTo(HaveOccurred())

		err = db.AutoMigrate(
			&SQLiteUser{},
			&SQLiteBudget{},
			&workflow.Workflow{},
			&workflow.WorkflowBudget{},
			&workflow.Assignment{},
			&workflow.ApprovalGroup{},
			&workflow.RoleGrant{},
		)
		Expect(err).NotTo(HaveOccurred())

		repo = NewAccessRepository(db)
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		Expect(sqlDB.Close()).To(Succeed())
	})

	Describe("HasAssignment", func() {
		It("should find an existing assignment", func() {
			Expect(db.Create(&workflow.Assignment{UserID: 1, WorkflowID: 10}).Error).To(Succeed())

			assigned, err := repo.HasAssignment(1, 10)

			Expect(err).NotTo(HaveOccurred())
			Expect(assigned).To(BeTrue())
		})

		It("should report false for other workflows", func() {
			Expect(db.Create(&workflow.Assignment{UserID: 1, WorkflowID: 10}).Error).To(Succeed())

			assigned, err := repo.HasAssignment(1, 11)

			Expect(err).NotTo(HaveOccurred())
			Expect(assigned).To(BeFalse())
		})
	})

	Describe("ApprovalGroupNames", func() {
		It("should return the groups for one workflow and action only", func() {
			Expect(db.Create(&workflow.ApprovalGroup{WorkflowID: 10, Action: "Approve", GroupName: "Managers"}).Error).To(Succeed())
			Expect(db.Create(&workflow.ApprovalGroup{WorkflowID: 10, Action: "Approve", GroupName: "Directors"}).Error).To(Succeed())
			Expect(db.Create(&workflow.ApprovalGroup{WorkflowID: 10, Action: "Request", GroupName: "Requesters"}).Error).To(Succeed())
			Expect(db.Create(&workflow.ApprovalGroup{WorkflowID: 11, Action: "Approve", GroupName: "Others"}).Error).To(Succeed())

			names, err := repo.ApprovalGroupNames(10, "Approve")

			Expect(err).NotTo(HaveOccurred())
			Expect(names).To(ConsistOf("Managers", "Directors"))
		})

		It("should return an empty slice when nothing is configured", func() {
			names, err := repo.ApprovalGroupNames(10, "Approve")

			Expect(err).NotTo(HaveOccurred())
			Expect(names).To(BeEmpty())
		})
	})

	Describe("HasAnyRoleGrant", func() {
		BeforeEach(func() {
			Expect(db.Create(&workflow.RoleGrant{UserID: 1, APIName: "Managers"}).Error).To(Succeed())
		})

		It("should match when the user holds one of the groups", func() {
			granted, err := repo.HasAnyRoleGrant(1, []string{"Directors", "Managers"})

			Expect(err).NotTo(HaveOccurred())
			Expect(granted).To(BeTrue())
		})

		It("should not match unrelated groups", func() {
			granted, err := repo.HasAnyRoleGrant(1, []string{"Directors"})

			Expect(err).NotTo(HaveOccurred())
			Expect(granted).To(BeFalse())
		})

		It("should short-circuit on an empty group list", func() {
			granted, err := repo.HasAnyRoleGrant(1, nil)

			Expect(err).NotTo(HaveOccurred())
			Expect(granted).To(BeFalse())
		})
	})

	Describe("budget pool lookups", func() {
		BeforeEach(func() {
			Expect(db.Create(&SQLiteBudget{ID: 20, Name: "IT Capex", CeilingIDR: 1000}).Error).To(Succeed())
			Expect(db.Create(&workflow.WorkflowBudget{WorkflowID: 10, BudgetID: 20}).Error).To(Succeed())
		})

		It("should confirm budget existence", func() {
			exists, err := repo.BudgetExists(20)
			Expect(err).NotTo(HaveOccurred())
			Expect(exists).To(BeTrue())

			exists, err = repo.BudgetExists(21)
			Expect(err).NotTo(HaveOccurred())
			Expect(exists).To(BeFalse())
		})

		It("should return the workflow's budget pool", func() {
			ids, err := repo.WorkflowBudgetIDs(10)

			Expect(err).NotTo(HaveOccurred())
			Expect(ids).To(ConsistOf(int64(20)))
		})
	})

	Describe("user lookups", func() {
		BeforeEach(func() {
			Expect(db.Create(&SQLiteUser{ID: 1, Email: "a@mail.com", Name: "A", DepartmentID: 30, IsActive: true}).Error).To(Succeed())
			Expect(db.Create(&SQLiteUser{ID: 2, Email: "b@mail.com", Name: "B", DepartmentID: 30, IsActive: false}).Error).To(Succeed())
		})

		It("should treat a deactivated user as missing", func() {
			exists, err := repo.UserExists(1)
			Expect(err).NotTo(HaveOccurred())
			Expect(exists).To(BeTrue())

			exists, err = repo.UserExists(2)
			Expect(err).NotTo(HaveOccurred())
			Expect(exists).To(BeFalse())
		})

		It("should resolve the user's department", func() {
			deptID, err := repo.UserDepartmentID(1)

			Expect(err).NotTo(HaveOccurred())
			Expect(deptID).To(Equal(int64(30)))
		})
	})
})
