package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidOTP         = errors.New("invalid or consumed code")
)

type ServiceAPI interface {
	Authenticate(dto LoginDTO) (AuthTokens, error)
	RefreshTokens(refreshToken string) (AuthTokens, error)
	ValidateAccessToken(tokenString string) (*Claims, error)
	GetUserWithGrants(userID int64) (*User, error)
	RequestOTP(dto RequestOTPDTO) error
	VerifyOTP(dto VerifyOTPDTO) (AuthTokens, error)
}

type RepositoryAPI interface {
	GetPasswordForEmail(email string) (passwordHash string, userID int64, err error)
	GetUserWithGrants(userID int64) (*User, error)
	SaveOTP(code *OTPCode) error
	// ConsumeOTP marks the newest unconsumed code for (email, code) as used
	// and returns it; expiry is the caller's check.
	ConsumeOTP(email, code string) (*OTPCode, error)
}

type TokenGeneratorAPI interface {
	GenerateAccessToken(userID int64, email string) (token string, err error)
	GenerateRefreshToken(userID int64, email string) (token string, err error)
	ValidateToken(tokenString string) (*Claims, error)
	ValidateRefreshToken(tokenString string) (*Claims, error)
}

// User is the authenticated actor: the role grants drive the approval gate.
type User struct {
	ID           int64    `json:"id"`
	Email        string   `json:"email"`
	Name         string   `json:"name"`
	DepartmentID int64    `json:"department_id"`
	RoleGrants   []string `json:"role_grants,omitempty"`
}

func (u *User) HasGrant(apiName string) bool {
	for _, g := range u.RoleGrants {
		if g == apiName {
			return true
		}
	}
	return false
}

type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type Claims struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// OTPCode is a short-lived portal verification code, consumed at most once.
type OTPCode struct {
	ID         int64      `json:"-" gorm:"primaryKey"`
	Email      string     `json:"email" gorm:"not null;index"`
	Code       string     `json:"-" gorm:"not null"`
	Purpose    string     `json:"purpose" gorm:"not null"`
	ExpiresAt  time.Time  `json:"expires_at" gorm:"column:expires_at;not null"`
	ConsumedAt *time.Time `json:"-" gorm:"column:consumed_at"`
	CreatedAt  time.Time  `json:"-" gorm:"column:created_at;default:now()"`
}

func (OTPCode) TableName() string {
	return "otp_codes"
}

type JWTTokenGenerator struct {
	AccessTokenSecret  []byte
	RefreshTokenSecret []byte
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
}

func VerifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

type userCtxKey string

const contextUserKey userCtxKey = "authUser"

func ContextWithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, contextUserKey, user)
}

func UserFromContext(ctx context.Context) (*User, bool) {
	user, ok := ctx.Value(contextUserKey).(*User)
	return user, ok
}
