package auth

import (
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/dimasprabowo/procurement-management/internal"
	"github.com/golang-jwt/jwt/v5"
)

// Mailer delivers OTP codes; the SMTP implementation lives in the
// notification package.
type Mailer interface {
	Send(to, subject, body string) error
}

// Service handles credential login, token refresh, and the portal OTP flow.
type Service struct {
	repo           RepositoryAPI
	tokenGenerator TokenGeneratorAPI
	mailer         Mailer
	otpTTL         time.Duration
	logger         *slog.Logger
}

func NewService(repo RepositoryAPI, tokenGen TokenGeneratorAPI, mailer Mailer, otpTTL time.Duration, logger *slog.Logger) *Service {
	return &Service{
		repo:           repo,
		tokenGenerator: tokenGen,
		mailer:         mailer,
		otpTTL:         otpTTL,
		logger:         logger,
	}
}

func NewJWTTokenGenerator(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *JWTTokenGenerator {
	return &JWTTokenGenerator{
		AccessTokenSecret:  []byte(accessSecret),
		RefreshTokenSecret: []byte(refreshSecret),
		AccessTokenTTL:     accessTTL,
		RefreshTokenTTL:    refreshTTL,
	}
}

// Authenticate validates credentials and returns tokens.
func (s *Service) Authenticate(dto LoginDTO) (AuthTokens, error) {
	if err := dto.Validate(); err != nil {
		return AuthTokens{}, internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed)
	}

	storedHash, userID, err := s.repo.GetPasswordForEmail(dto.Email)
	if err != nil {
		return AuthTokens{}, internal.ErrInvalidCredentials
	}

	if err := VerifyPassword(storedHash, dto.Password); err != nil {
		return AuthTokens{}, internal.ErrInvalidCredentials
	}

	return s.issueTokens(userID, dto.Email)
}

// RefreshTokens validates a refresh token and returns a new pair.
func (s *Service) RefreshTokens(refreshToken string) (AuthTokens, error) {
	claims, err := s.tokenGenerator.ValidateRefreshToken(refreshToken)
	if err != nil {
		return AuthTokens{}, err
	}

	return s.issueTokens(claims.UserID, claims.Email)
}

func (s *Service) ValidateAccessToken(tokenString string) (*Claims, error) {
	return s.tokenGenerator.ValidateToken(tokenString)
}

func (s *Service) GetUserWithGrants(userID int64) (*User, error) {
	return s.repo.GetUserWithGrants(userID)
}

// RequestOTP issues a fresh 6-digit code with a short expiry and mails it to
// the portal visitor.
func (s *Service) RequestOTP(dto RequestOTPDTO) error {
	if err := dto.Validate(); err != nil {
		return internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed)
	}

	code, err := generateOTPCode()
	if err != nil {
		return internal.NewInternalError("failed to generate OTP", err)
	}

	otp := &OTPCode{
		Email:     dto.Email,
		Code:      code,
		Purpose:   dto.Purpose,
		ExpiresAt: time.Now().Add(s.otpTTL),
	}
	if err := s.repo.SaveOTP(otp); err != nil {
		return internal.NewInternalError("failed to store OTP", err)
	}

	body := fmt.Sprintf("Your verification code is %s. It expires in %d minutes.", code, int(s.otpTTL.Minutes()))
	if err := s.mailer.Send(dto.Email, "Your verification code", body); err != nil {
		s.logger.Error("failed to deliver OTP", "error", err, "email", dto.Email)
		return internal.NewInternalError("failed to deliver OTP", err)
	}

	s.logger.Info("OTP issued", "email", dto.Email, "purpose", dto.Purpose)
	return nil
}

// VerifyOTP consumes the code and, when valid and unexpired, issues portal
// tokens. A consumed or unknown code is indistinguishable to the caller.
func (s *Service) VerifyOTP(dto VerifyOTPDTO) (AuthTokens, error) {
	if err := dto.Validate(); err != nil {
		return AuthTokens{}, internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed)
	}

	otp, err := s.repo.ConsumeOTP(dto.Email, dto.Code)
	if err != nil {
		s.logger.Warn("OTP verification failed", "email", dto.Email)
		return AuthTokens{}, internal.NewUnauthorizedError("invalid verification code", internal.ErrCodeInvalidOTP)
	}

	if time.Now().After(otp.ExpiresAt) {
		s.logger.Warn("expired OTP presented", "email", dto.Email)
		return AuthTokens{}, internal.NewUnauthorizedError("verification code has expired", internal.ErrCodeOTPExpired)
	}

	// Portal identities are not backed by a users row; the subject is the
	// verified email itself.
	return s.issueTokens(0, dto.Email)
}

func (s *Service) issueTokens(userID int64, email string) (AuthTokens, error) {
	accessToken, err := s.tokenGenerator.GenerateAccessToken(userID, email)
	if err != nil {
		return AuthTokens{}, err
	}

	refreshToken, err := s.tokenGenerator.GenerateRefreshToken(userID, email)
	if err != nil {
		return AuthTokens{}, err
	}

	return AuthTokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func generateOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// GenerateAccessToken creates a new access token.
func (j *JWTTokenGenerator) GenerateAccessToken(userID int64, email string) (string, error) {
	return j.sign(userID, email, j.AccessTokenTTL, j.AccessTokenSecret)
}

// GenerateRefreshToken creates a new refresh token.
func (j *JWTTokenGenerator) GenerateRefreshToken(userID int64, email string) (string, error) {
	return j.sign(userID, email, j.RefreshTokenTTL, j.RefreshTokenSecret)
}

func (j *JWTTokenGenerator) sign(userID int64, email string, ttl time.Duration, secret []byte) (string, error) {
	expiresAt := time.Now().Add(ttl)

	claims := &Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Subject:   email,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ValidateToken parses and validates a token against the access secret.
func (j *JWTTokenGenerator) ValidateToken(tokenString string) (*Claims, error) {
	return j.parse(tokenString, j.AccessTokenSecret)
}

// ValidateRefreshToken parses and validates a token against the refresh secret.
func (j *JWTTokenGenerator) ValidateRefreshToken(tokenString string) (*Claims, error) {
	return j.parse(tokenString, j.RefreshTokenSecret)
}

func (j *JWTTokenGenerator) parse(tokenString string, secret []byte) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, internal.ErrInvalidToken
		}
		return secret, nil
	})
	if err != nil {
		if claims.ExpiresAt != nil && claims.ExpiresAt.Before(time.Now()) {
			return nil, internal.ErrTokenExpired
		}
		return nil, internal.ErrInvalidToken
	}
	if !token.Valid {
		return nil, internal.ErrInvalidToken
	}
	return claims, nil
}
