package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"mindhaven/database"
	principalRepo "mindhaven/database/repository/principal"
	"mindhaven/models"
	"mindhaven/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Registry creates principals and owns their pseudonymous ids.
type Registry struct {
	Repo   principalRepo.PrincipalRepository
	Logger *zap.Logger
}

func NewRegistry(repo principalRepo.PrincipalRepository, logger *zap.Logger) *Registry {
	return &Registry{Repo: repo, Logger: logger}
}

// NewPseudonym returns a random display id unrelated to any account data.
func NewPseudonym() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10])
}

// Register stores a new principal. The pseudonymous id is always assigned here and never changes.
func (r *Registry) Register(ctx context.Context, p *models.Principal) (*models.Principal, error) {
	switch p.Role {
	case models.RoleClient, models.RoleProfessional, models.RoleAdmin:
	default:
		return nil, utils.NewValidation("role %q cannot be registered", p.Role)
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Role != models.RoleProfessional {
		p.IsPeerCounselor = false
	}
	p.PseudonymousID = NewPseudonym()
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now

	if err := r.Repo.Create(ctx, p); err != nil {
		return nil, err
	}
	r.Logger.Info("principal registered", zap.String("principalID", p.ID), zap.String("role", string(p.Role)))
	return p, nil
}

// PromoteToPeerCounselor marks a professional as a peer counselor. It cannot be undone.
func (r *Registry) PromoteToPeerCounselor(ctx context.Context, id string) (*models.Principal, error) {
	p, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Role != models.RoleProfessional {
		return nil, utils.NewValidation("only professionals can be peer counselors")
	}
	if p.IsPeerCounselor {
		return p, nil
	}
	if err := r.Repo.MarkPeerCounselor(ctx, id); err != nil {
		return nil, principalError(err, id)
	}
	p.IsPeerCounselor = true
	return p, nil
}

// UpdateFCMToken stores the device token push notifications are sent to.
func (r *Registry) UpdateFCMToken(ctx context.Context, id, token string) error {
	if strings.TrimSpace(token) == "" {
		return utils.NewValidation("fcm token is required")
	}
	return principalError(r.Repo.UpdateFCMToken(ctx, id, token), id)
}

func (r *Registry) Get(ctx context.Context, id string) (*models.Principal, error) {
	p, err := r.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, principalError(err, id)
	}
	return p, nil
}

func principalError(err error, id string) error {
	if errors.Is(err, database.ErrNotFound) {
		return utils.NewNotFound("principal %s not found", id)
	}
	return err
}
