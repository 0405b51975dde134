package postgres

import (
	"errors"
	"time"

	"github.com/dimasprabowo/procurement-management/internal/indent"
	wfpostgres "github.com/dimasprabowo/procurement-management/internal/workflow/postgres"
	"gorm.io/gorm"
)

// IndentRepository implements indent.Repository using GORM. Access and budget
// lookups are shared with the other orchestrators through AccessRepository.
type IndentRepository struct {
	db *gorm.DB
	*wfpostgres.AccessRepository
}

func NewIndentRepository(db *gorm.DB) *IndentRepository {
	return &IndentRepository{
		db:               db,
		AccessRepository: wfpostgres.NewAccessRepository(db),
	}
}

// TxManager binds an IndentRepository to a single gorm transaction. The
// closure's error decides commit or rollback, which keeps connection
// acquisition and release symmetric on every exit path.
type TxManager struct {
	db *gorm.DB
}

func NewTxManager(db *gorm.DB) *TxManager {
	return &TxManager{db: db}
}

func (m *TxManager) InTransaction(fn func(indent.Repository) error) error {
	return m.db.Transaction(func(tx *gorm.DB) error {
		return fn(NewIndentRepository(tx))
	})
}

func (r *IndentRepository) Create(ind *indent.Indent) error {
	return r.db.Create(ind).Error
}

func (r *IndentRepository) GetByID(id int64) (*indent.Indent, error) {
	var ind indent.Indent
	err := r.db.Where("id = ?", id).First(&ind).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, indent.ErrIndentNotFound
		}
		return nil, err
	}
	return &ind, nil
}

func (r *IndentRepository) GetByUserID(userID int64, limit, offset int) ([]*indent.Indent, error) {
	var indents []*indent.Indent
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&indents).Error
	return indents, err
}

func (r *IndentRepository) GetAll(limit, offset int) ([]*indent.Indent, error) {
	var indents []*indent.Indent
	err := r.db.Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&indents).Error
	return indents, err
}

func (r *IndentRepository) UpdateDetails(id int64, fields map[string]interface{}) error {
	fields["updated_at"] = time.Now()
	return r.db.Model(&indent.Indent{}).
		Where("id = ?", id).
		Updates(fields).Error
}

// UpdateStatus is a compare-and-swap: the row is written only if it still
// carries expectedStatus. approved_at is set on approval and cleared on every
// other transition.
func (r *IndentRepository) UpdateStatus(id int64, expectedStatus, newStatus string, approvedAt *time.Time) (bool, error) {
	res := r.db.Model(&indent.Indent{}).
		Where("id = ? AND status = ?", id, expectedStatus).
		Updates(map[string]interface{}{
			"status":      newStatus,
			"approved_at": approvedAt,
			"updated_at":  time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// SetRFPNumber assigns the number only while the row is still Approved with
// no number set, so two racing generators cannot both win.
func (r *IndentRepository) SetRFPNumber(id int64, rfpNumber string) (bool, error) {
	res := r.db.Model(&indent.Indent{}).
		Where("id = ? AND status = ? AND rfp_number IS NULL", id, indent.StatusApproved).
		Updates(map[string]interface{}{
			"rfp_number": rfpNumber,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
