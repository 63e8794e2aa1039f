package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/aloratech/coachcraft-backend/internal/apperr"
	"github.com/aloratech/coachcraft-backend/internal/logger"
	"github.com/aloratech/coachcraft-backend/internal/repos"
	"github.com/aloratech/coachcraft-backend/internal/requestdata"
	"github.com/aloratech/coachcraft-backend/internal/types"
)

type JWTClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type AuthService interface {
	RegisterCoach(ctx context.Context, coach *types.Coach) error
	LoginCoach(ctx context.Context, email, password string) (string, error)
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	GetAccessTTL() time.Duration
}

type authService struct {
	db           *gorm.DB
	log          *logger.Logger
	coachRepo    repos.CoachRepo
	jwtSecretKey string
	accessTTL    time.Duration
}

func NewAuthService(
	db *gorm.DB,
	baseLog *logger.Logger,
	coachRepo repos.CoachRepo,
	jwtSecretKey string,
	accessTTL time.Duration,
) AuthService {
	return &authService{
		db:           db,
		log:          baseLog.With("service", "AuthService"),
		coachRepo:    coachRepo,
		jwtSecretKey: jwtSecretKey,
		accessTTL:    accessTTL,
	}
}

func (as *authService) GetAccessTTL() time.Duration { return as.accessTTL }

func (as *authService) RegisterCoach(ctx context.Context, coach *types.Coach) error {
	coach.Email = strings.ToLower(strings.TrimSpace(coach.Email))
	if coach.Email == "" || !strings.Contains(coach.Email, "@") {
		return fmt.Errorf("%w: valid email required", apperr.ErrInvalidArgument)
	}
	if len(coach.Password) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", apperr.ErrInvalidArgument)
	}

	existing, err := as.coachRepo.GetByEmails(ctx, nil, []string{coach.Email})
	if err != nil {
		return fmt.Errorf("check existing coach: %w", err)
	}
	if len(existing) > 0 {
		return fmt.Errorf("%w: email already registered", apperr.ErrInvalidArgument)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(coach.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	coach.Password = string(hashed)

	return as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		coach.ID = uuid.New()
		coach.CreatedOn = time.Now().UTC()
		coach.Status = types.StatusActive
		if _, err := as.coachRepo.Create(ctx, tx, []*types.Coach{coach}); err != nil {
			return fmt.Errorf("create coach: %w", err)
		}
		return nil
	})
}

func (as *authService) LoginCoach(ctx context.Context, email, password string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	coaches, err := as.coachRepo.GetByEmails(ctx, nil, []string{email})
	if err != nil {
		return "", fmt.Errorf("load coach by email: %w", err)
	}
	if len(coaches) == 0 {
		return "", apperr.ErrUnauthorized
	}
	coach := coaches[0]
	if err := bcrypt.CompareHashAndPassword([]byte(coach.Password), []byte(password)); err != nil {
		return "", apperr.ErrUnauthorized
	}

	now := time.Now()
	claims := JWTClaims{
		Email: coach.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   coach.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(as.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(as.jwtSecretKey))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	if tokenString == "" {
		return ctx, apperr.ErrUnauthorized
	}
	parsed, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(as.jwtSecretKey), nil
	})
	if err != nil {
		return ctx, fmt.Errorf("%w: %v", apperr.ErrUnauthorized, err)
	}
	claims, ok := parsed.Claims.(*JWTClaims)
	if !ok || !parsed.Valid {
		return ctx, apperr.ErrUnauthorized
	}
	coachID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return ctx, fmt.Errorf("%w: bad subject", apperr.ErrUnauthorized)
	}

	coaches, err := as.coachRepo.GetByIDs(ctx, nil, []uuid.UUID{coachID})
	if err != nil {
		return ctx, fmt.Errorf("load coach: %w", err)
	}
	if len(coaches) == 0 {
		return ctx, apperr.ErrUnauthorized
	}

	return requestdata.WithRequestData(ctx, &requestdata.RequestData{
		CoachID: coachID,
		Email:   claims.Email,
	}), nil
}
