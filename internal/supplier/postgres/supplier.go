package postgres

import (
	"errors"
	"time"

	"github.com/dimasprabowo/procurement-management/internal/supplier"
	wfpostgres "github.com/dimasprabowo/procurement-management/internal/workflow/postgres"
	"gorm.io/gorm"
)

// SupplierRepository implements supplier.Repository using GORM.
type SupplierRepository struct {
	db *gorm.DB
	*wfpostgres.AccessRepository
}

func NewSupplierRepository(db *gorm.DB) *SupplierRepository {
	return &SupplierRepository{
		db:               db,
		AccessRepository: wfpostgres.NewAccessRepository(db),
	}
}

type TxManager struct {
	db *gorm.DB
}

func NewTxManager(db *gorm.DB) *TxManager {
	return &TxManager{db: db}
}

func (m *TxManager) InTransaction(fn func(supplier.Repository) error) error {
	return m.db.Transaction(func(tx *gorm.DB) error {
		return fn(NewSupplierRepository(tx))
	})
}

func (r *SupplierRepository) Create(sup *supplier.Supplier) error {
	return r.db.Create(sup).Error
}

func (r *SupplierRepository) GetByID(id int64) (*supplier.Supplier, error) {
	var sup supplier.Supplier
	err := r.db.Where("id = ?", id).First(&sup).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, supplier.ErrSupplierNotFound
		}
		return nil, err
	}
	return &sup, nil
}

func (r *SupplierRepository) GetAll(limit, offset int) ([]*supplier.Supplier, error) {
	var suppliers []*supplier.Supplier
	err := r.db.Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&suppliers).Error
	return suppliers, err
}

func (r *SupplierRepository) Update(sup *supplier.Supplier) error {
	sup.UpdatedAt = time.Now()
	return r.db.Save(sup).Error
}

// UpdateStage is conditional on the Approved lock not being set yet, so a
// concurrent approval cannot be overwritten.
func (r *SupplierRepository) UpdateStage(id int64, stage string) (bool, error) {
	res := r.db.Model(&supplier.Supplier{}).
		Where("id = ? AND current_stage <> ?", id, supplier.StageApproved).
		Updates(map[string]interface{}{
			"current_stage": stage,
			"updated_at":    time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
