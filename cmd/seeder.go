package cmd

import (
	"fmt"
	"log"

	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with sample data for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		sqlxDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}

		db, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: sqlxDB.DB}), &gorm.Config{})
		if err != nil {
			log.Fatalf("failed to init orm: %v", err)
		}

		if clearData {
			for _, table := range []string{"role_grants", "approval_groups", "workflow_assignments", "workflow_budgets", "indents", "suppliers", "otp_codes", "workflows", "budgets", "users", "departments"} {
				if err := db.Exec(fmt.Sprintf("DELETE FROM %s", table)).Error; err != nil {
					log.Fatalf("failed to clear %s: %v", table, err)
				}
			}
			fmt.Println("Cleared existing data")
		}

		seedDepartment := func(name string) int64 {
			var id int64
			if err := db.Raw("SELECT id FROM departments WHERE name = ?", name).Row().Scan(&id); err == nil {
				return id
			}
			if err := db.Exec("INSERT INTO departments (name, created_at) VALUES (?, now())", name).Error; err != nil {
				log.Fatalf("failed to insert department %s: %v", name, err)
			}
			if err := db.Raw("SELECT id FROM departments WHERE name = ?", name).Row().Scan(&id); err != nil {
				log.Fatalf("failed to lookup department %s: %v", name, err)
			}
			return id
		}

		itDeptID := seedDepartment("Information Technology")
		hrDeptID := seedDepartment("Human Resources")

		password := "password"
		hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

		seedUser := func(email, name string, deptID int64) int64 {
			var id int64
			if err := db.Raw("SELECT id FROM users WHERE email = ?", email).Row().Scan(&id); err == nil {
				fmt.Printf("user %s already exists; will ensure grants\n", email)
				return id
			}
			if err := db.Exec("INSERT INTO users (email, name, password_hash, department_id, is_active, created_at, updated_at) VALUES (?, ?, ?, ?, true, now(), now())", email, name, string(hash), deptID).Error; err != nil {
				log.Fatalf("failed to insert user %s: %v", email, err)
			}
			if err := db.Raw("SELECT id FROM users WHERE email = ?", email).Row().Scan(&id); err != nil {
				log.Fatalf("failed to lookup user %s: %v", email, err)
			}
			fmt.Println("Seeded user:", email)
			return id
		}

		requesterID := seedUser("dimas@mail.com", "Dimas", itDeptID)
		managerID := seedUser("ratna@mail.com", "Ratna Manager", itDeptID)
		adminID := seedUser("admin@mail.com", "Sys Admin", hrDeptID)

		// Budget for the IT department
		var budgetID int64
		if err := db.Raw("SELECT id FROM budgets WHERE name = ?", "IT Capex 2026").Row().Scan(&budgetID); err != nil {
			if err := db.Exec("INSERT INTO budgets (name, department_id, ceiling_idr, valid_from, valid_until, created_at) VALUES (?, ?, ?, ?, ?, now())",
				"IT Capex 2026", itDeptID, 500_000_000, "2026-01-01", "2026-12-31").Error; err != nil {
				log.Fatalf("failed to insert budget: %v", err)
			}
			if err := db.Raw("SELECT id FROM budgets WHERE name = ?", "IT Capex 2026").Row().Scan(&budgetID); err != nil {
				log.Fatalf("failed to lookup budget: %v", err)
			}
			fmt.Println("Seeded budget: IT Capex 2026")
		}

		// Procurement workflow bound to the IT budget
		var workflowID int64
		if err := db.Raw("SELECT id FROM workflows WHERE name = ?", "IT Procurement").Row().Scan(&workflowID); err != nil {
			if err := db.Exec("INSERT INTO workflows (name, created_by, created_at) VALUES (?, ?, now())", "IT Procurement", adminID).Error; err != nil {
				log.Fatalf("failed to insert workflow: %v", err)
			}
			if err := db.Raw("SELECT id FROM workflows WHERE name = ?", "IT Procurement").Row().Scan(&workflowID); err != nil {
				log.Fatalf("failed to lookup workflow: %v", err)
			}
			if err := db.Exec("INSERT INTO workflow_budgets (workflow_id, budget_id) VALUES (?, ?)", workflowID, budgetID).Error; err != nil {
				log.Fatalf("failed to bind budget to workflow: %v", err)
			}
			fmt.Println("Seeded workflow: IT Procurement")
		}

		seedAssignment := func(userID int64) {
			var exists int
			if err := db.Raw("SELECT 1 FROM workflow_assignments WHERE user_id = ? AND workflow_id = ?", userID, workflowID).Row().Scan(&exists); err == nil {
				return
			}
			if err := db.Exec("INSERT INTO workflow_assignments (user_id, workflow_id, created_at) VALUES (?, ?, now())", userID, workflowID).Error; err != nil {
				log.Fatalf("failed to assign user %d: %v", userID, err)
			}
		}
		seedAssignment(requesterID)
		seedAssignment(managerID)
		seedAssignment(adminID)

		seedApprovalGroup := func(action, groupName string) {
			var exists int
			if err := db.Raw("SELECT 1 FROM approval_groups WHERE workflow_id = ? AND action = ? AND group_name = ?", workflowID, action, groupName).Row().Scan(&exists); err == nil {
				return
			}
			if err := db.Exec("INSERT INTO approval_groups (workflow_id, action, group_name, created_at) VALUES (?, ?, ?, now())", workflowID, action, groupName).Error; err != nil {
				log.Fatalf("failed to insert approval group %s/%s: %v", action, groupName, err)
			}
		}
		seedApprovalGroup("Request", "Requesters")
		seedApprovalGroup("Approve", "Managers")
		seedApprovalGroup("vendor_approval", "Managers")
		// Bypass on Request lets any assigned user raise an indent.
		seedApprovalGroup("Request", "Bypass")

		seedGrant := func(userID int64, apiName string) {
			var exists int
			if err := db.Raw("SELECT 1 FROM role_grants WHERE user_id = ? AND api_name = ?", userID, apiName).Row().Scan(&exists); err == nil {
				return
			}
			if err := db.Exec("INSERT INTO role_grants (user_id, api_name, created_at) VALUES (?, ?, now())", userID, apiName).Error; err != nil {
				log.Fatalf("failed to grant %s to user %d: %v", apiName, userID, err)
			}
		}
		seedGrant(requesterID, "Request")
		seedGrant(managerID, "Request")
		seedGrant(managerID, "Approve")
		seedGrant(managerID, "vendor_approval")
		seedGrant(adminID, "Request")
		seedGrant(adminID, "Approve")
		seedGrant(adminID, "vendor_approval")
		seedGrant(adminID, "workflow_admin")

		fmt.Println("Seeding complete")
	},
}
