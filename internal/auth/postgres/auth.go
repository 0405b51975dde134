package postgres

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/dimasprabowo/procurement-management/internal/auth"
)

type AuthRepository struct {
	db *gorm.DB
}

func NewAuthRepository(db *gorm.DB) *AuthRepository {
	return &AuthRepository{db: db}
}

func (r *AuthRepository) GetPasswordForEmail(email string) (string, int64, error) {
	var row struct {
		ID           int64
		PasswordHash string
	}
	err := r.db.Table("users").
		Select("id, password_hash").
		Where("email = ? AND is_active = ?", email, true).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", 0, auth.ErrInvalidCredentials
	}
	if err != nil {
		return "", 0, err
	}
	return row.PasswordHash, row.ID, nil
}

func (r *AuthRepository) GetUserWithGrants(userID int64) (*auth.User, error) {
	var user auth.User
	err := r.db.Table("users").
		Select("id, email, name, department_id").
		Where("id = ? AND is_active = ?", userID, true).
		Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, auth.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := r.db.Table("role_grants").
		Where("user_id = ?", userID).
		Pluck("api_name", &user.RoleGrants).Error; err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *AuthRepository) SaveOTP(code *auth.OTPCode) error {
	return r.db.Create(code).Error
}

// ConsumeOTP atomically marks the newest matching unconsumed code as used.
// A second call with the same code finds nothing and fails.
func (r *AuthRepository) ConsumeOTP(email, code string) (*auth.OTPCode, error) {
	var otp auth.OTPCode
	err := r.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("email = ? AND code = ? AND consumed_at IS NULL", email, code).
			Order("created_at DESC").
			Take(&otp).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return auth.ErrInvalidOTP
		}
		if err != nil {
			return err
		}

		now := time.Now()
		res := tx.Model(&auth.OTPCode{}).
			Where("id = ? AND consumed_at IS NULL", otp.ID).
			Update("consumed_at", now)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return auth.ErrInvalidOTP
		}
		otp.ConsumedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &otp, nil
}
