package auth_test

import (
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"

	"github.com/dimasprabowo/procurement-management/internal/auth"
)

func TestAuth(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Auth Suite")
}

type mockAuthRepository struct {
	users  map[string]mockUser
	grants map[int64][]string
	otps   []*auth.OTPCode
	nextID int64

	saveOTPError error
}

type mockUser struct {
	id           int64
	passwordHash string
}

func newMockAuthRepository() *mockAuthRepository {
	return &mockAuthRepository{
		users:  make(map[string]mockUser),
		grants: make(map[int64][]string),
		nextID: 1,
	}
}

func (m *mockAuthRepository) GetPasswordForEmail(email string) (string, int64, error) {
	u, ok := m.users[email]
	if !ok {
		return "", 0, auth.ErrInvalidCredentials
	}
	return u.passwordHash, u.id, nil
}

func (m *mockAuthRepository) GetUserWithGrants(userID int64) (*auth.User, error) {
	for email, u := range m.users {
		if u.id == userID {
			return &auth.User{ID: userID, Email: email, RoleGrants: m.grants[userID]}, nil
		}
	}
	return nil, auth.ErrUserNotFound
}

func (m *mockAuthRepository) SaveOTP(code *auth.OTPCode) error {
	if m.saveOTPError != nil {
		return m.saveOTPError
	}
	code.ID = m.nextID
	m.nextID++
	m.otps = append(m.otps, code)
	return nil
}

func (m *mockAuthRepository) ConsumeOTP(email, code string) (*auth.OTPCode, error) {
	for i := len(m.otps) - 1; i >= 0; i-- {
		otp := m.otps[i]
		if otp.Email == email && otp.Code == code && otp.ConsumedAt == nil {
			now := time.Now()
			otp.ConsumedAt = &now
			return otp, nil
		}
	}
	return nil, auth.ErrInvalidOTP
}

type mockMailer struct {
	sent      []sentMail
	sendError error
}

type sentMail struct {
	to      string
	subject string
	body    string
}

func (m *mockMailer) Send(to, subject, body string) error {
	if m.sendError != nil {
		return m.sendError
	}
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

var _ = Describe("AuthService", func() {
	var (
		service  *auth.Service
		mockRepo *mockAuthRepository
		mailer   *mockMailer
		tokenGen *auth.JWTTokenGenerator
	)

	const (
		accessSecret  = "test-access-secret-0123456789abcdef"
		refreshSecret = "test-refresh-secret-0123456789abcdef"
	)

	BeforeEach(func() {
		mockRepo = newMockAuthRepository()
		mailer = &mockMailer{}
		tokenGen = auth.NewJWTTokenGenerator(accessSecret, refreshSecret, 15*time.Minute, 24*time.Hour)
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = auth.NewService(mockRepo, tokenGen, mailer, 5*time.Minute, logger)
	})

	Describe("Authenticate", func() {
		BeforeEach(func() {
			hash, err := auth.HashPassword("s3cret-password", bcrypt.DefaultCost)
			Expect(err).ToNot(HaveOccurred())
			mockRepo.users["dimas@mail.com"] = mockUser{id: 1, passwordHash: hash}
		})

		It("should return a token pair for valid credentials", func() {
			tokens, err := service.Authenticate(auth.LoginDTO{Email: "dimas@mail.com", Password: "s3cret-password"})

			Expect(err).ToNot(HaveOccurred())
			Expect(tokens.AccessToken).ToNot(BeEmpty())
			Expect(tokens.RefreshToken).ToNot(BeEmpty())

			claims, err := service.ValidateAccessToken(tokens.AccessToken)
			Expect(err).ToNot(HaveOccurred())
			Expect(claims.UserID).To(Equal(int64(1)))
			Expect(claims.Email).To(Equal("dimas@mail.com"))
		})

		It("should reject a wrong password", func() {
			_, err := service.Authenticate(auth.LoginDTO{Email: "dimas@mail.com", Password: "wrong"})

			Expect(err).To(HaveOccurred())
		})

		It("should reject an unknown email", func() {
			_, err := service.Authenticate(auth.LoginDTO{Email: "nobody@mail.com", Password: "s3cret-password"})

			Expect(err).To(HaveOccurred())
		})
	})

	Describe("RefreshTokens", func() {
		BeforeEach(func() {
			hash, err := auth.HashPassword("s3cret-password", bcrypt.DefaultCost)
			Expect(err).ToNot(HaveOccurred())
			mockRepo.users["dimas@mail.com"] = mockUser{id: 1, passwordHash: hash}
		})

		It("should issue a new pair from a valid refresh token", func() {
			tokens, err := service.Authenticate(auth.LoginDTO{Email: "dimas@mail.com", Password: "s3cret-password"})
			Expect(err).ToNot(HaveOccurred())

			renewed, err := service.RefreshTokens(tokens.RefreshToken)

			Expect(err).ToNot(HaveOccurred())
			Expect(renewed.AccessToken).ToNot(BeEmpty())
		})

		It("should reject an access token used as a refresh token", func() {
			tokens, err := service.Authenticate(auth.LoginDTO{Email: "dimas@mail.com", Password: "s3cret-password"})
			Expect(err).ToNot(HaveOccurred())

			_, err = service.RefreshTokens(tokens.AccessToken)

			Expect(err).To(HaveOccurred())
		})

		It("should reject garbage", func() {
			_, err := service.RefreshTokens("not-a-token")

			Expect(err).To(HaveOccurred())
		})
	})

	Describe("RequestOTP", func() {
		It("should store a six digit code and mail it", func() {
			err := service.RequestOTP(auth.RequestOTPDTO{Email: "visitor@mail.com", Purpose: "careers"})

			Expect(err).ToNot(HaveOccurred())
			Expect(mockRepo.otps).To(HaveLen(1))
			Expect(mockRepo.otps[0].Code).To(MatchRegexp(`^[0-9]{6}$`))
			Expect(mockRepo.otps[0].Purpose).To(Equal("careers"))
			Expect(mockRepo.otps[0].ExpiresAt).To(BeTemporally(">", time.Now()))

			Expect(mailer.sent).To(HaveLen(1))
			Expect(mailer.sent[0].to).To(Equal("visitor@mail.com"))
			Expect(mailer.sent[0].body).To(ContainSubstring(mockRepo.otps[0].Code))
		})

		It("should fail when delivery fails", func() {
			mailer.sendError = errors.New("smtp unreachable")

			err := service.RequestOTP(auth.RequestOTPDTO{Email: "visitor@mail.com", Purpose: "careers"})

			Expect(err).To(HaveOccurred())
		})

		It("should reject a bad email", func() {
			err := service.RequestOTP(auth.RequestOTPDTO{Email: "not-an-email", Purpose: "careers"})

			Expect(err).To(HaveOccurred())
			Expect(mockRepo.otps).To(BeEmpty())
		})
	})

	Describe("VerifyOTP", func() {
		requestCode := func(email string) string {
			err := service.RequestOTP(auth.RequestOTPDTO{Email: email, Purpose: "customer"})
			Expect(err).ToNot(HaveOccurred())
			return mockRepo.otps[len(mockRepo.otps)-1].Code
		}

		It("should issue portal tokens for a valid code", func() {
			code := requestCode("visitor@mail.com")

			tokens, err := service.VerifyOTP(auth.VerifyOTPDTO{Email: "visitor@mail.com", Code: code})

			Expect(err).ToNot(HaveOccurred())
			Expect(tokens.AccessToken).ToNot(BeEmpty())

			claims, err := service.ValidateAccessToken(tokens.AccessToken)
			Expect(err).ToNot(HaveOccurred())
			Expect(claims.Email).To(Equal("visitor@mail.com"))
			// Portal identities carry no users row
			Expect(claims.UserID).To(Equal(int64(0)))
		})

		It("should consume the code on first use", func() {
			code := requestCode("visitor@mail.com")

			_, err := service.VerifyOTP(auth.VerifyOTPDTO{Email: "visitor@mail.com", Code: code})
			Expect(err).ToNot(HaveOccurred())

			_, err = service.VerifyOTP(auth.VerifyOTPDTO{Email: "visitor@mail.com", Code: code})
			Expect(err).To(HaveOccurred())
		})

		It("should reject a wrong code", func() {
			requestCode("visitor@mail.com")

			_, err := service.VerifyOTP(auth.VerifyOTPDTO{Email: "visitor@mail.com", Code: "000000"})

			Expect(err).To(HaveOccurred())
		})

		It("should reject an expired code", func() {
			code := requestCode("visitor@mail.com")
			mockRepo.otps[0].ExpiresAt = time.Now().Add(-time.Minute)

			_, err := service.VerifyOTP(auth.VerifyOTPDTO{Email: "visitor@mail.com", Code: code})

			Expect(err).To(HaveOccurred())
		})

		It("should not accept another visitor's code", func() {
			code := requestCode("visitor@mail.com")

			_, err := service.VerifyOTP(auth.VerifyOTPDTO{Email: "other@mail.com", Code: code})

			Expect(err).To(HaveOccurred())
		})
	})
})
