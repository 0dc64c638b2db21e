package authority

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kagisom/gatehouse/pkg/db/models"
	pkgerrors "github.com/kagisom/gatehouse/pkg/errors"
	"github.com/kagisom/gatehouse/pkg/logger"
	"gorm.io/gorm"
)

// TxRunner executes a function inside one database transaction.
// *db.Client satisfies it.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service applies reconciliation batches to the authority tables.
type Service interface {
	SyncBatch(ctx context.Context, visitors []models.Visitor, visits []models.Visit) (time.Time, error)
}

type service struct {
	db     TxRunner
	policy ApplyPolicy
	logg   *logger.Logger
	now    func() time.Time
}

// ServiceParams wires the batch service.
type ServiceParams struct {
	DB     TxRunner
	Policy ApplyPolicy
	Logger *logger.Logger
}

// NewService builds the batch service. The policy defaults to LastWriteWins.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "authority database required")
	}
	policy := params.Policy
	if policy == nil {
		policy = LastWriteWins
	}
	return &service{
		db:     params.DB,
		policy: policy,
		logg:   params.Logger,
		now:    time.Now,
	}, nil
}

// SyncBatch upserts every visitor, then every visit, inside one transaction.
// Visitors go first so that new visits can satisfy the foreign key within the
// same batch. Any failure rolls the whole batch back.
func (s *service) SyncBatch(ctx context.Context, visitors []models.Visitor, visits []models.Visit) (time.Time, error) {
	if s.logg != nil {
		ctx = s.logg.WithFields(ctx, map[string]any{
			"policy":   s.policy.Name(),
			"visitors": len(visitors),
			"visits":   len(visits),
		})
		s.logg.Info(ctx, "applying sync batch")
	}

	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		for i := range visitors {
			if err := s.policy.ApplyVisitor(tx, &visitors[i]); err != nil {
				return fmt.Errorf("visitor %s: %w", visitors[i].IDNumber, err)
			}
		}
		for i := range visits {
			if err := s.policy.ApplyVisit(tx, &visits[i]); err != nil {
				return fmt.Errorf("visit %s: %w", visits[i].ID, err)
			}
		}
		return nil
	})
	if err != nil {
		if s.logg != nil {
			s.logg.Error(ctx, "sync batch rolled back", err)
		}
		return time.Time{}, classify(err)
	}

	if s.logg != nil {
		s.logg.Info(ctx, "sync batch committed")
	}
	return s.now().UTC(), nil
}

func classify(err error) error {
	if errors.Is(err, gorm.ErrForeignKeyViolated) || pkgerrors.IsForeignKeyViolation(err) {
		return pkgerrors.Wrap(pkgerrors.CodeReferential, err, "visit references unknown visitor")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "applying sync batch")
}
