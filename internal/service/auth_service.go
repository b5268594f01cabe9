package service

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/theraloop/theraloop-backend/internal/models"
	"github.com/theraloop/theraloop-backend/internal/repository"
	"github.com/theraloop/theraloop-backend/pkg/bcrypt"
	"github.com/theraloop/theraloop-backend/pkg/email"
	jwtPkg "github.com/theraloop/theraloop-backend/pkg/jwt"
)

const (
	TokenExpiryLogin = 7 * 24 * time.Hour
	TokenExpiryReset = 15 * time.Minute
)

type AuthService struct {
	userRepo     *repository.UserRepository
	emailService *email.EmailService
	jwtSecret    []byte
	jwtIssuer    string
}

func NewAuthService(userRepo *repository.UserRepository, emailService *email.EmailService) *AuthService {
	return &AuthService{
		userRepo:     userRepo,
		emailService: emailService,
		jwtSecret:    []byte(os.Getenv("JWT_SECRET")),
		jwtIssuer:    os.Getenv("JWT_ISSUER"),
	}
}

func (s *AuthService) Register(req models.RegisterRequest) (*models.AuthResponse, error) {
	exists, err := s.userRepo.EmailExists(req.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errors.New("email already exists")
	}

	hashedPassword, err := bcrypt.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	timezone := req.Timezone
	if timezone == "" {
		timezone = "Europe/London"
	}

	user := &models.User{
		FullName: req.FullName,
		Email:    req.Email,
		Password: hashedPassword,
		Phone:    req.Phone,
		Timezone: timezone,
	}

	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}

	token, err := jwtPkg.GenerateToken(user.Email, user.ID, user.IsAdmin)
	if err != nil {
		return nil, err
	}

	go s.emailService.SendWelcomeEmail(user.Email, user.FullName)

	return &models.AuthResponse{
		Token: token,
		User:  *user,
	}, nil
}

func (s *AuthService) Login(req models.LoginRequest) (*models.AuthResponse, error) {
	user, err := s.userRepo.GetByEmail(req.Email)
	if err != nil {
		return nil, errors.New("invalid email or password")
	}

	if err := bcrypt.ComparePassword(user.Password, req.Password); err != nil {
		return nil, errors.New("invalid email or password")
	}

	token, err := jwtPkg.GenerateToken(user.Email, user.ID, user.IsAdmin)
	if err != nil {
		return nil, fmt.Errorf("token generation failed: %v", err)
	}

	return &models.AuthResponse{
		Token: token,
		User:  *user,
	}, nil
}

func (s *AuthService) ForgotPassword(emailAddr string) error {
	user, err := s.userRepo.GetByEmail(emailAddr)
	if err != nil {
		// Don't leak whether the address exists.
		return nil
	}

	claims := jwt.MapClaims{
		"sub": user.Email,
		"exp": time.Now().Add(TokenExpiryReset).Unix(),
		"iat": time.Now().Unix(),
		"iss": s.jwtIssuer,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	resetToken, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return err
	}

	return s.emailService.SendPasswordResetEmail(user.Email, resetToken)
}

func (s *AuthService) ResetPassword(token string, newPassword string) error {
	claims, err := jwtPkg.ValidateToken(token)
	if err != nil {
		return errors.New("invalid or expired token")
	}

	emailAddr, ok := claims["sub"].(string)
	if !ok {
		return errors.New("invalid token claims")
	}

	user, err := s.userRepo.GetByEmail(emailAddr)
	if err != nil {
		return err
	}

	hashedPassword, err := bcrypt.HashPassword(newPassword)
	if err != nil {
		return err
	}

	return s.userRepo.UpdatePassword(user.ID, hashedPassword)
}
