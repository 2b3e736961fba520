package stakeholders

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/agritrace/agritrace-backend/internal/domain"
	"github.com/agritrace/agritrace-backend/internal/platform/logger"
)

type StakeholderRepo interface {
	Create(ctx context.Context, tx *gorm.DB, s *domain.Stakeholder) (*domain.Stakeholder, error)
	GetByAddress(ctx context.Context, tx *gorm.DB, address string) (*domain.Stakeholder, error)
	Update(ctx context.Context, tx *gorm.DB, s *domain.Stakeholder) error
	ListByRole(ctx context.Context, tx *gorm.DB, role domain.Role) ([]*domain.Stakeholder, error)
	List(ctx context.Context, tx *gorm.DB) ([]*domain.Stakeholder, error)
}

type stakeholderRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStakeholderRepo(db *gorm.DB, baseLog *logger.Logger) StakeholderRepo {
	return &stakeholderRepo{db: db, log: baseLog.With("repo", "StakeholderRepo")}
}

func (r *stakeholderRepo) handle(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *stakeholderRepo) Create(ctx context.Context, tx *gorm.DB, s *domain.Stakeholder) (*domain.Stakeholder, error) {
	if err := r.handle(tx).WithContext(ctx).Create(s).Error; err != nil {
		return nil, err
	}
	return s, nil
}

// GetByAddress returns (nil, nil) when no such stakeholder exists, so
// callers distinguish "unknown" from storage failure.
func (r *stakeholderRepo) GetByAddress(ctx context.Context, tx *gorm.DB, address string) (*domain.Stakeholder, error) {
	var s domain.Stakeholder
	err := r.handle(tx).WithContext(ctx).
		Where("address = ?", domain.NormalizeAddress(address)).
		First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *stakeholderRepo) Update(ctx context.Context, tx *gorm.DB, s *domain.Stakeholder) error {
	return r.handle(tx).WithContext(ctx).Save(s).Error
}

func (r *stakeholderRepo) ListByRole(ctx context.Context, tx *gorm.DB, role domain.Role) ([]*domain.Stakeholder, error) {
	var out []*domain.Stakeholder
	if err := r.handle(tx).WithContext(ctx).
		Where("role = ?", role).
		Order("registered_at").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *stakeholderRepo) List(ctx context.Context, tx *gorm.DB) ([]*domain.Stakeholder, error) {
	var out []*domain.Stakeholder
	if err := r.handle(tx).WithContext(ctx).
		Order("registered_at").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
