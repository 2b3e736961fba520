package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/agritrace/agritrace-backend/internal/data/repos/stakeholders"
	"github.com/agritrace/agritrace-backend/internal/domain"
	"github.com/agritrace/agritrace-backend/internal/pkg/apperr"
	"github.com/agritrace/agritrace-backend/internal/platform/logger"
)

// AccessControlService is the role registry and activation gate every
// other component consumes. Stakeholders are admin-created, never
// deleted, and their role is immutable outside ReassignRole.
type AccessControlService interface {
	RegisterStakeholder(ctx context.Context, admin string, in RegisterStakeholderInput) (*domain.Stakeholder, error)
	UpdateProfile(ctx context.Context, caller string, in ProfileUpdate) (*domain.Stakeholder, error)
	ReassignRole(ctx context.Context, admin, address string, role domain.Role) error
	SetActive(ctx context.Context, admin, address string, active bool) error
	GetStakeholder(ctx context.Context, address string) (*domain.Stakeholder, error)
	ListStakeholders(ctx context.Context, role domain.Role) ([]*domain.Stakeholder, error)

	HasRole(ctx context.Context, address string, role domain.Role) (bool, error)
	IsActiveStakeholder(ctx context.Context, address string) (bool, error)

	// RequireActiveRole is the combined gate used by sibling services;
	// it fails with an authorization error, never a boolean.
	RequireActiveRole(ctx context.Context, tx *gorm.DB, address string, role domain.Role) (*domain.Stakeholder, error)
	RequireActive(ctx context.Context, tx *gorm.DB, address string) (*domain.Stakeholder, error)

	// EnsureBootstrapAdmin seeds the first admin account at startup so
	// registration is not a chicken-and-egg problem.
	EnsureBootstrapAdmin(ctx context.Context, address, name string) error
}

type RegisterStakeholderInput struct {
	Address  string      `json:"address"`
	Role     domain.Role `json:"role"`
	Name     string      `json:"name"`
	Location string      `json:"location"`
	Contact  string      `json:"contact"`
}

type ProfileUpdate struct {
	Name     string `json:"name"`
	Location string `json:"location"`
	Contact  string `json:"contact"`
}

type accessControlService struct {
	db           *gorm.DB
	log          *logger.Logger
	stakeholders stakeholders.StakeholderRepo
	now          func() time.Time
}

func NewAccessControlService(db *gorm.DB, baseLog *logger.Logger, repo stakeholders.StakeholderRepo) AccessControlService {
	return &accessControlService{
		db:           db,
		log:          baseLog.With("service", "AccessControlService"),
		stakeholders: repo,
		now:          time.Now,
	}
}

func (s *accessControlService) requireAdmin(ctx context.Context, tx *gorm.DB, admin string) (*domain.Stakeholder, error) {
	return s.RequireActiveRole(ctx, tx, admin, domain.RoleAdmin)
}

func (s *accessControlService) RegisterStakeholder(ctx context.Context, admin string, in RegisterStakeholderInput) (*domain.Stakeholder, error) {
	if !in.Role.Valid() {
		return nil, apperr.Validationf("unknown role %q", in.Role)
	}
	if in.Name == "" {
		return nil, apperr.Validationf("stakeholder name must not be empty")
	}
	addr := domain.NormalizeAddress(in.Address)
	if addr == "" {
		return nil, apperr.Validationf("stakeholder address must not be empty")
	}

	var created *domain.Stakeholder
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.requireAdmin(ctx, tx, admin); err != nil {
			return err
		}
		existing, err := s.stakeholders.GetByAddress(ctx, tx, addr)
		if err != nil {
			return err
		}
		if existing != nil {
			return apperr.Validationf("stakeholder %s already registered", addr)
		}
		now := s.now().UTC()
		created = &domain.Stakeholder{
			Address:      addr,
			Role:         in.Role,
			Name:         in.Name,
			Location:     in.Location,
			Contact:      in.Contact,
			Active:       true,
			RegisteredAt: now,
			LastActiveAt: now,
		}
		_, err = s.stakeholders.Create(ctx, tx, created)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("Stakeholder registered", "address", addr, "role", in.Role)
	return created, nil
}

// UpdateProfile is self-service and deliberately cannot touch the role.
func (s *accessControlService) UpdateProfile(ctx context.Context, caller string, in ProfileUpdate) (*domain.Stakeholder, error) {
	var updated *domain.Stakeholder
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sh, err := s.RequireActive(ctx, tx, caller)
		if err != nil {
			return err
		}
		if in.Name != "" {
			sh.Name = in.Name
		}
		if in.Location != "" {
			sh.Location = in.Location
		}
		if in.Contact != "" {
			sh.Contact = in.Contact
		}
		sh.LastActiveAt = s.now().UTC()
		updated = sh
		return s.stakeholders.Update(ctx, tx, sh)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *accessControlService) ReassignRole(ctx context.Context, admin, address string, role domain.Role) error {
	if !role.Valid() {
		return apperr.Validationf("unknown role %q", role)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.requireAdmin(ctx, tx, admin); err != nil {
			return err
		}
		sh, err := s.stakeholders.GetByAddress(ctx, tx, address)
		if err != nil {
			return err
		}
		if sh == nil {
			return apperr.NotFoundf("stakeholder %s", domain.NormalizeAddress(address))
		}
		sh.Role = role
		sh.LastActiveAt = s.now().UTC()
		return s.stakeholders.Update(ctx, tx, sh)
	})
}

func (s *accessControlService) SetActive(ctx context.Context, admin, address string, active bool) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.requireAdmin(ctx, tx, admin); err != nil {
			return err
		}
		sh, err := s.stakeholders.GetByAddress(ctx, tx, address)
		if err != nil {
			return err
		}
		if sh == nil {
			return apperr.NotFoundf("stakeholder %s", domain.NormalizeAddress(address))
		}
		sh.Active = active
		sh.LastActiveAt = s.now().UTC()
		return s.stakeholders.Update(ctx, tx, sh)
	})
}

func (s *accessControlService) GetStakeholder(ctx context.Context, address string) (*domain.Stakeholder, error) {
	sh, err := s.stakeholders.GetByAddress(ctx, nil, address)
	if err != nil {
		return nil, err
	}
	if sh == nil {
		return nil, apperr.NotFoundf("stakeholder %s", domain.NormalizeAddress(address))
	}
	return sh, nil
}

func (s *accessControlService) ListStakeholders(ctx context.Context, role domain.Role) ([]*domain.Stakeholder, error) {
	if role == "" {
		return s.stakeholders.List(ctx, nil)
	}
	return s.stakeholders.ListByRole(ctx, nil, role)
}

func (s *accessControlService) HasRole(ctx context.Context, address string, role domain.Role) (bool, error) {
	sh, err := s.stakeholders.GetByAddress(ctx, nil, address)
	if err != nil {
		return false, err
	}
	return sh != nil && sh.Role == role, nil
}

func (s *accessControlService) IsActiveStakeholder(ctx context.Context, address string) (bool, error) {
	sh, err := s.stakeholders.GetByAddress(ctx, nil, address)
	if err != nil {
		return false, err
	}
	return sh != nil && sh.Active, nil
}

func (s *accessControlService) RequireActive(ctx context.Context, tx *gorm.DB, address string) (*domain.Stakeholder, error) {
	sh, err := s.stakeholders.GetByAddress(ctx, tx, address)
	if err != nil {
		return nil, err
	}
	if sh == nil {
		return nil, apperr.Unauthorizedf("address %s is not a registered stakeholder", domain.NormalizeAddress(address))
	}
	if !sh.Active {
		return nil, apperr.Unauthorizedf("stakeholder %s is deactivated", sh.Address)
	}
	return sh, nil
}

func (s *accessControlService) RequireActiveRole(ctx context.Context, tx *gorm.DB, address string, role domain.Role) (*domain.Stakeholder, error) {
	sh, err := s.RequireActive(ctx, tx, address)
	if err != nil {
		return nil, err
	}
	if sh.Role != role {
		return nil, apperr.Unauthorizedf("stakeholder %s lacks role %s", sh.Address, role)
	}
	return sh, nil
}

func (s *accessControlService) EnsureBootstrapAdmin(ctx context.Context, address, name string) error {
	addr := domain.NormalizeAddress(address)
	if addr == "" {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.stakeholders.GetByAddress(ctx, tx, addr)
		if err != nil {
			return err
		}
		if existing != nil {
			return nil
		}
		now := s.now().UTC()
		_, err = s.stakeholders.Create(ctx, tx, &domain.Stakeholder{
			Address:      addr,
			Role:         domain.RoleAdmin,
			Name:         name,
			Active:       true,
			RegisteredAt: now,
			LastActiveAt: now,
		})
		if err == nil {
			s.log.Info("Bootstrap admin seeded", "address", addr)
		}
		return err
	})
}
