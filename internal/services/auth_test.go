package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aloratech/coachcraft-backend/internal/apperr"
	"github.com/aloratech/coachcraft-backend/internal/repos"
	"github.com/aloratech/coachcraft-backend/internal/repos/testutil"
	"github.com/aloratech/coachcraft-backend/internal/requestdata"
	"github.com/aloratech/coachcraft-backend/internal/types"
)

func newAuthService(t *testing.T) AuthService {
	t.Helper()
	gdb := testutil.DB(t)
	log := testutil.Logger(t)
	return NewAuthService(gdb, log, repos.NewCoachRepo(gdb, log), "test-secret", time.Hour)
}

func TestAuthRegisterLoginRoundtrip(t *testing.T) {
	ctx := context.Background()
	svc := newAuthService(t)

	coach := &types.Coach{
		Email:     "Roundtrip@Example.com",
		Password:  "long-enough-pw",
		FirstName: "Jordan",
		LastName:  "Lee",
	}
	if err := svc.RegisterCoach(ctx, coach); err != nil {
		t.Fatalf("RegisterCoach: %v", err)
	}
	if coach.Password == "long-enough-pw" {
		t.Fatalf("password stored in plain text")
	}

	token, err := svc.LoginCoach(ctx, "roundtrip@example.com", "long-enough-pw")
	if err != nil {
		t.Fatalf("LoginCoach: %v", err)
	}
	if token == "" {
		t.Fatalf("empty token")
	}

	authed, err := svc.SetContextFromToken(ctx, token)
	if err != nil {
		t.Fatalf("SetContextFromToken: %v", err)
	}
	rd := requestdata.GetRequestData(authed)
	if rd == nil || rd.CoachID != coach.ID {
		t.Fatalf("expected request data for coach %s, got %+v", coach.ID, rd)
	}
}

func TestAuthLoginRejectsBadPassword(t *testing.T) {
	ctx := context.Background()
	svc := newAuthService(t)

	coach := &types.Coach{
		Email:     "badpw@example.com",
		Password:  "correct-password",
		FirstName: "A",
		LastName:  "B",
	}
	if err := svc.RegisterCoach(ctx, coach); err != nil {
		t.Fatalf("RegisterCoach: %v", err)
	}

	if _, err := svc.LoginCoach(ctx, "badpw@example.com", "wrong-password"); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if _, err := svc.LoginCoach(ctx, "nobody@example.com", "whatever-password"); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Fatalf("expected unauthorized for unknown email, got %v", err)
	}
}

func TestAuthRegisterValidation(t *testing.T) {
	ctx := context.Background()
	svc := newAuthService(t)

	if err := svc.RegisterCoach(ctx, &types.Coach{Email: "not-an-email", Password: "long-enough-pw"}); !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument for bad email, got %v", err)
	}
	if err := svc.RegisterCoach(ctx, &types.Coach{Email: "short@example.com", Password: "short"}); !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument for short password, got %v", err)
	}

	coach := &types.Coach{Email: "dup@example.com", Password: "long-enough-pw"}
	if err := svc.RegisterCoach(ctx, coach); err != nil {
		t.Fatalf("RegisterCoach: %v", err)
	}
	if err := svc.RegisterCoach(ctx, &types.Coach{Email: "dup@example.com", Password: "long-enough-pw"}); !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument for duplicate email, got %v", err)
	}
}

func TestAuthRejectsGarbageToken(t *testing.T) {
	ctx := context.Background()
	svc := newAuthService(t)

	if _, err := svc.SetContextFromToken(ctx, ""); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Fatalf("expected unauthorized for empty token, got %v", err)
	}
	if _, err := svc.SetContextFromToken(ctx, "not.a.jwt"); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Fatalf("expected unauthorized for garbage token, got %v", err)
	}
}
