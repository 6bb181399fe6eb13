package users

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"farmcon/internal/models"
	"farmcon/pkg/utils"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"
)

// ServiceInterface defines methods for user business logic.
type ServiceInterface interface {
	Signup(ctx context.Context, req models.SignupRequest) (*models.AuthResponse, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error)
	HandleGoogleLogin() (string, string, error)
	HandleGoogleCallback(ctx context.Context, code string) (*models.AuthResponse, error)
	GetProfile(ctx context.Context, userID string) (*models.User, error)
	UpdateProfile(ctx context.Context, userID string, data models.UserUpdateData) (*models.User, error)
}

type Service struct {
	repo              RepositoryInterface
	jwtSecret         string
	clientOrigin      string
	googleOAuthConfig *oauth2.Config // nil when Google login is not configured
}

func NewService(repo RepositoryInterface, jwtSecret, clientOrigin string, googleOAuthConfig *oauth2.Config) *Service {
	return &Service{
		repo:              repo,
		jwtSecret:         jwtSecret,
		clientOrigin:      clientOrigin,
		googleOAuthConfig: googleOAuthConfig,
	}
}

// googleUserInfo is the subset of Google's userinfo response we read.
type googleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

func (s *Service) ClientOrigin() string {
	return s.clientOrigin
}

// Signup creates an account and logs it in immediately.
func (s *Service) Signup(ctx context.Context, req models.SignupRequest) (*models.AuthResponse, error) {
	_, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("service.Signup.FindByEmail: %w", err)
	}
	if err == nil {
		return nil, models.ErrConflict
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("service.Signup.HashPassword: %w", err)
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hashedPassword),
		Role:         req.Role,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	// Drivers need a profile row before they can receive assignments or have
	// their position tracked.
	if req.Role == models.RoleDriver {
		driver := &models.Driver{
			ID:            uuid.NewString(),
			UserID:        user.ID,
			Phone:         req.Phone,
			VehicleType:   req.VehicleType,
			VehicleNumber: req.VehicleNumber,
		}
		if err := s.repo.CreateDriverProfile(ctx, driver); err != nil {
			return nil, fmt.Errorf("service.Signup.CreateDriverProfile: %w", err)
		}
	}
	return s.generateAuthResponse(user)
}

func (s *Service) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	user, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("service.Login.FindByEmail: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, models.ErrInvalidCredentials
	}
	return s.generateAuthResponse(user)
}

// generateAuthResponse issues a 30-day HS256 token carrying the role claim
// the authorization middleware reads.
func (s *Service) generateAuthResponse(user *models.User) (*models.AuthResponse, error) {
	claims := &models.JwtCustomClaims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour * 24 * 30)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	user.PasswordHash = ""
	return &models.AuthResponse{AccessToken: signed, User: user}, nil
}

// HandleGoogleLogin returns the provider redirect URL plus the state value to
// pin in a cookie.
func (s *Service) HandleGoogleLogin() (string, string, error) {
	if s.googleOAuthConfig == nil {
		return "", "", models.ErrNotFound
	}
	state, err := utils.GenerateSecureToken(16)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate oauth state: %w", err)
	}
	return s.googleOAuthConfig.AuthCodeURL(state), state, nil
}

// HandleGoogleCallback exchanges the code, fetches the Google profile and
// finds or provisions the account. OAuth accounts default to the consumer
// role; sellers and drivers are upgraded by an admin afterwards.
func (s *Service) HandleGoogleCallback(ctx context.Context, code string) (*models.AuthResponse, error) {
	if s.googleOAuthConfig == nil {
		return nil, models.ErrNotFound
	}

	token, err := s.googleOAuthConfig.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("google code exchange failed: %w", err)
	}

	response, err := http.Get("https://www.googleapis.com/oauth2/v2/userinfo?access_token=" + token.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed getting user info from google: %w", err)
	}
	defer response.Body.Close()

	contents, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("failed reading user info response body: %w", err)
	}

	var info googleUserInfo
	if err := json.Unmarshal(contents, &info); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user info: %w", err)
	}
	if !info.VerifiedEmail {
		return nil, fmt.Errorf("google email not verified")
	}

	user, err := s.repo.FindByEmail(ctx, info.Email)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("db error while finding user by email: %w", err)
	}
	if errors.Is(err, models.ErrNotFound) {
		user = &models.User{
			ID:             uuid.NewString(),
			Name:           info.Name,
			Email:          info.Email,
			Role:           models.RoleConsumer,
			AvatarURL:      info.Picture,
			AuthProvider:   "google",
			AuthProviderID: info.ID,
		}
		if err := s.repo.CreateOAuthUser(ctx, user); err != nil {
			return nil, err
		}
	}
	return s.generateAuthResponse(user)
}

func (s *Service) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}

func (s *Service) UpdateProfile(ctx context.Context, userID string, data models.UserUpdateData) (*models.User, error) {
	user, err := s.repo.Update(ctx, userID, data)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}
