package register

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kagisom/gatehouse/pkg/db/models"
	dbtypes "github.com/kagisom/gatehouse/pkg/db/types"
	pkgerrors "github.com/kagisom/gatehouse/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store exposes the device-local record store. Visitors are keyed by their
// ID number, visits by a device-generated UUID.
type Store interface {
	PutVisitor(ctx context.Context, visitor *models.Visitor) error
	GetVisitor(ctx context.Context, idNumber string) (*models.Visitor, error)
	AllVisitors(ctx context.Context) ([]models.Visitor, error)
	SearchVisitors(ctx context.Context, query string) ([]models.Visitor, error)

	PutVisit(ctx context.Context, visit *models.Visit) error
	GetVisit(ctx context.Context, id uuid.UUID) (*models.Visit, error)
	AllVisits(ctx context.Context) ([]models.Visit, error)
	ActiveVisits(ctx context.Context) ([]models.Visit, error)
	VisitHistory(ctx context.Context, visitorID string) ([]models.Visit, error)
	UpdateVisit(ctx context.Context, id uuid.UUID, patch VisitPatch, visitor *VisitorPatch) (*models.Visit, error)
	UpdateVisitItems(ctx context.Context, id uuid.UUID, items dbtypes.ItemList) (*models.Visit, error)
}

// VisitPatch carries the fields a caller may change on a visit. IngressTime
// and VisitorID are accepted for wire compatibility but always forced back to
// their stored values.
type VisitPatch struct {
	Purpose     *string           `json:"purpose,omitempty"`
	EgressTime  *time.Time        `json:"egressTime,omitempty"`
	Items       *dbtypes.ItemList `json:"items,omitempty"`
	IngressTime *time.Time        `json:"ingressTime,omitempty"`
	VisitorID   *string           `json:"visitorId,omitempty"`
}

// VisitorPatch updates the mutable visitor fields during a visit edit.
type VisitorPatch struct {
	IDNumber   string `json:"idNumber"`
	FullName   string `json:"fullName"`
	CellNumber string `json:"cellNumber"`
}

type storeImpl struct {
	db  *gorm.DB
	now func() time.Time
}

// NewStore returns a record store bound to the provided local database.
func NewStore(db *gorm.DB) Store {
	return &storeImpl{db: db, now: time.Now}
}

func (s *storeImpl) PutVisitor(ctx context.Context, visitor *models.Visitor) error {
	if visitor.LastSync.IsZero() {
		visitor.LastSync = s.now().UTC()
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "idNumber"}},
			DoUpdates: clause.AssignmentColumns([]string{"fullName", "cellNumber", "lastSync", "updatedAt"}),
		}).
		Create(visitor).Error
}

func (s *storeImpl) GetVisitor(ctx context.Context, idNumber string) (*models.Visitor, error) {
	var visitor models.Visitor
	err := s.db.WithContext(ctx).First(&visitor, `"idNumber" = ?`, idNumber).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "visitor not found")
	}
	if err != nil {
		return nil, err
	}
	return &visitor, nil
}

func (s *storeImpl) AllVisitors(ctx context.Context) ([]models.Visitor, error) {
	var visitors []models.Visitor
	if err := s.db.WithContext(ctx).Find(&visitors).Error; err != nil {
		return nil, err
	}
	return visitors, nil
}

// SearchVisitors matches the query case-insensitively against the full name
// and as a plain substring against the ID number.
func (s *storeImpl) SearchVisitors(ctx context.Context, query string) ([]models.Visitor, error) {
	var visitors []models.Visitor
	needle := "%" + strings.ToLower(query) + "%"
	err := s.db.WithContext(ctx).
		Where(`LOWER("fullName") LIKE ? OR instr("idNumber", ?) > 0`, needle, query).
		Find(&visitors).Error
	if err != nil {
		return nil, err
	}
	return visitors, nil
}

func (s *storeImpl) PutVisit(ctx context.Context, visit *models.Visit) error {
	if visit.ID == uuid.Nil {
		visit.ID = uuid.New()
	}
	if visit.Items == nil {
		visit.Items = dbtypes.ItemList{}
	}
	if visit.LastSync.IsZero() {
		visit.LastSync = s.now().UTC()
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(visit).Error
}

func (s *storeImpl) GetVisit(ctx context.Context, id uuid.UUID) (*models.Visit, error) {
	var visit models.Visit
	err := s.db.WithContext(ctx).First(&visit, `"id" = ?`, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "visit not found")
	}
	if err != nil {
		return nil, err
	}
	return &visit, nil
}

func (s *storeImpl) AllVisits(ctx context.Context) ([]models.Visit, error) {
	var visits []models.Visit
	if err := s.db.WithContext(ctx).Find(&visits).Error; err != nil {
		return nil, err
	}
	return visits, nil
}

func (s *storeImpl) ActiveVisits(ctx context.Context) ([]models.Visit, error) {
	var visits []models.Visit
	err := s.db.WithContext(ctx).Where(`"egressTime" IS NULL`).Find(&visits).Error
	if err != nil {
		return nil, err
	}
	return visits, nil
}

func (s *storeImpl) VisitHistory(ctx context.Context, visitorID string) ([]models.Visit, error) {
	var visits []models.Visit
	err := s.db.WithContext(ctx).Where(`"visitorId" = ?`, visitorID).Find(&visits).Error
	if err != nil {
		return nil, err
	}
	return visits, nil
}

// UpdateVisit shallow-merges the patch over the stored visit. IngressTime and
// VisitorID keep their stored values no matter what the patch carries.
//
// When a visitor patch is supplied it is upserted before the visit write. The
// pair is NOT atomic: a failure after the visitor upsert leaves the visitor
// updated and the visit untouched.
func (s *storeImpl) UpdateVisit(ctx context.Context, id uuid.UUID, patch VisitPatch, visitor *VisitorPatch) (*models.Visit, error) {
	if visitor != nil {
		if err := s.PutVisitor(ctx, &models.Visitor{
			IDNumber:   visitor.IDNumber,
			FullName:   visitor.FullName,
			CellNumber: visitor.CellNumber,
			LastSync:   s.now().UTC(),
		}); err != nil {
			return nil, err
		}
	}

	visit, err := s.GetVisit(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Purpose != nil {
		visit.Purpose = *patch.Purpose
	}
	if patch.EgressTime != nil {
		visit.EgressTime = patch.EgressTime
	}
	if patch.Items != nil {
		visit.Items = *patch.Items
	}
	visit.LastSync = s.now().UTC()

	if err := s.db.WithContext(ctx).Save(visit).Error; err != nil {
		return nil, err
	}
	return visit, nil
}

// UpdateVisitItems replaces the whole item list; it never merges.
func (s *storeImpl) UpdateVisitItems(ctx context.Context, id uuid.UUID, items dbtypes.ItemList) (*models.Visit, error) {
	visit, err := s.GetVisit(ctx, id)
	if err != nil {
		return nil, err
	}

	if items == nil {
		items = dbtypes.ItemList{}
	}
	visit.Items = items
	visit.LastSync = s.now().UTC()

	if err := s.db.WithContext(ctx).Save(visit).Error; err != nil {
		return nil, err
	}
	return visit, nil
}
