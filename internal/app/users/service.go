package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/placesapp/places-api/internal/app/ownership"
	"github.com/placesapp/places-api/internal/domain"
	"github.com/placesapp/places-api/internal/platform/auth/credential"
	clockport "github.com/placesapp/places-api/internal/ports/out/clock"
	"github.com/placesapp/places-api/internal/ports/out/userrepo"
)

// TokenIssuer signs bearer tokens for a user. *credential.Issuer implements it.
type TokenIssuer interface {
	Issue(username string, id domain.SubjectID) (string, error)
}

type Service struct {
	repo   userrepo.Repository
	clk    clockport.Clock
	issuer TokenIssuer
	cost   int
	flow   *ownership.Flow
	log    *slog.Logger
}

func NewService(repo userrepo.Repository, clk clockport.Clock, issuer TokenIssuer, bcryptCost int, log *slog.Logger, obs ownership.Observer) *Service {
	if log == nil {
		log = slog.Default()
	}
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		repo:   repo,
		clk:    clk,
		issuer: issuer,
		cost:   bcryptCost,
		flow:   ownership.New("user", isNotFound, log, obs),
		log:    log,
	}
}

func isNotFound(err error) bool { return errors.Is(err, userrepo.ErrNotFound) }

func (s *Service) List(ctx context.Context) ([]domain.User, error) {
	us, err := s.repo.FetchAll(ctx)
	if err != nil {
		return nil, s.storeFailure(ctx, "user read failed", err)
	}
	out := make([]domain.User, 0, len(us))
	for _, u := range us {
		out = append(out, toDomain(u))
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id domain.UserID) (domain.User, error) {
	u, err := s.repo.FetchByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return domain.User{}, &ownership.Error{
				Kind:    ownership.KindNotFound,
				Status:  http.StatusNotFound,
				Code:    ownership.CodeNotFound,
				Message: fmt.Sprintf("no user with id %d", id),
			}
		}
		return domain.User{}, s.storeFailure(ctx, "user read failed", err)
	}
	return toDomain(u), nil
}

// Register creates a user and signs a token for it. Anyone may register.
func (s *Service) Register(ctx context.Context, in Credentials) (Session, error) {
	name := domain.NormalizeHumanName(in.Name)
	if name == "" || in.Password == "" {
		return Session{}, &ownership.Error{
			Kind:    ownership.KindValidation,
			Status:  http.StatusBadRequest,
			Code:    ownership.CodeValidation,
			Message: "Missing user or password",
		}
	}
	hash, err := s.hashPassword(in.Password)
	if err != nil {
		return Session{}, err
	}
	id, err := s.repo.Create(ctx, userrepo.NewUser{
		Name:         name,
		PasswordHash: hash,
		CreatedAt:    s.clk.Now(),
	})
	if err != nil {
		return Session{}, s.storeFailure(ctx, "user registration failed", err)
	}
	u, err := s.repo.FetchByID(ctx, id)
	if err != nil {
		return Session{}, s.storeFailure(ctx, "user registration failed", err)
	}
	return s.session(toDomain(u))
}

// Login checks a name/password pair. Unknown names and wrong passwords are indistinguishable.
func (s *Service) Login(ctx context.Context, in Credentials) (Session, error) {
	denied := &ownership.Error{
		Kind:    ownership.KindUnauthorized,
		Status:  http.StatusUnauthorized,
		Code:    ownership.CodeUnauthorized,
		Message: "Invalid user or password",
	}
	u, err := s.repo.FetchByName(ctx, domain.NormalizeHumanName(in.Name))
	if err != nil {
		if isNotFound(err) {
			s.log.InfoContext(ctx, "login rejected", "reason", "unknown user")
			return Session{}, denied
		}
		return Session{}, s.storeFailure(ctx, "login failed", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Password)); err != nil {
		s.log.InfoContext(ctx, "login rejected", "reason", "password mismatch", "userId", u.ID)
		return Session{}, denied
	}
	return s.session(toDomain(u))
}

func (s *Service) Update(ctx context.Context, v credential.Verification, id domain.UserID, in UpdateUserInput) (domain.User, error) {
	var patch userrepo.Patch
	return ownership.Update(ctx, s.flow, v, ownership.UpdateSteps[domain.User]{
		ID:      id,
		Valid:   id.Valid(),
		Fetch:   func(ctx context.Context) (domain.User, error) { return s.fetch(ctx, id) },
		OwnerOf: func(u domain.User) domain.SubjectID { return u.ID.Subject() },
		Validate: func(domain.User) error {
			var err error
			patch, err = s.buildPatch(in)
			return err
		},
		Persist: func(ctx context.Context) (domain.MutationStatus, error) {
			patch.UpdatedAt = s.clk.Now()
			return s.repo.Update(ctx, id, patch)
		},
		Refetch: func(ctx context.Context) (domain.User, error) { return s.fetch(ctx, id) },
	})
}

func (s *Service) Delete(ctx context.Context, v credential.Verification, id domain.UserID) (ownership.Deleted[domain.User], error) {
	return ownership.Delete(ctx, s.flow, v, ownership.DeleteSteps[domain.User]{
		ID:      id,
		Valid:   id.Valid(),
		Fetch:   func(ctx context.Context) (domain.User, error) { return s.fetch(ctx, id) },
		OwnerOf: func(u domain.User) domain.SubjectID { return u.ID.Subject() },
		Persist: func(ctx context.Context) (domain.MutationStatus, error) { return s.repo.Delete(ctx, id) },
	})
}

func (s *Service) buildPatch(in UpdateUserInput) (userrepo.Patch, error) {
	var patch userrepo.Patch
	if in.Name.IsSpecified() {
		name := domain.NormalizeHumanName(in.Name.Value())
		if in.Name.IsNull() || name == "" {
			return patch, ownership.NewValidationError("invalid Name", map[string]any{"Name": "must be non-empty"})
		}
		patch.Name = &name
	}
	if in.Password.IsSpecified() {
		if in.Password.IsNull() || in.Password.Value() == "" {
			return patch, ownership.NewValidationError("invalid Password", map[string]any{"Password": "must be non-empty"})
		}
		hash, err := s.hashPassword(in.Password.Value())
		if err != nil {
			return patch, err
		}
		patch.PasswordHash = &hash
	}
	return patch, nil
}

// hashPassword rejects passwords bcrypt cannot hash (over 72 bytes) as a validation error.
func (s *Service) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", ownership.NewValidationError("invalid Password", map[string]any{"Password": "must be at most 72 bytes"})
	}
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func (s *Service) session(u domain.User) (Session, error) {
	tok, err := s.issuer.Issue(u.Name, u.ID.Subject())
	if err != nil {
		return Session{}, fmt.Errorf("issue token: %w", err)
	}
	return Session{User: u, Token: tok}, nil
}

func (s *Service) fetch(ctx context.Context, id domain.UserID) (domain.User, error) {
	u, err := s.repo.FetchByID(ctx, id)
	if err != nil {
		return domain.User{}, err
	}
	return toDomain(u), nil
}

// storeFailure maps any store error, including a taken name, to the uniform 404.
func (s *Service) storeFailure(ctx context.Context, msg string, err error) error {
	s.log.ErrorContext(ctx, msg, "error", err)
	return &ownership.Error{
		Kind:    ownership.KindStoreError,
		Status:  http.StatusNotFound,
		Code:    ownership.CodeStoreError,
		Message: "storage operation failed",
		Err:     err,
	}
}

func toDomain(u userrepo.User) domain.User {
	return domain.User{
		ID:           u.ID,
		Name:         u.Name,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}
