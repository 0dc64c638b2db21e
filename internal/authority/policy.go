package authority

import (
	"github.com/kagisom/gatehouse/pkg/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ApplyPolicy decides how an incoming record lands on the authority row with
// the same primary key. It exists as a named seam so a merge or version-vector
// policy could replace the default without touching the batch plumbing.
type ApplyPolicy interface {
	Name() string
	ApplyVisitor(tx *gorm.DB, visitor *models.Visitor) error
	ApplyVisit(tx *gorm.DB, visit *models.Visit) error
}

// LastWriteWins replaces the stored row with the incoming one unconditionally.
// Arrival order at the server decides; lastSync is stored, never compared.
var LastWriteWins ApplyPolicy = lastWriteWins{}

type lastWriteWins struct{}

func (lastWriteWins) Name() string {
	return "last-write-wins"
}

func (lastWriteWins) ApplyVisitor(tx *gorm.DB, visitor *models.Visitor) error {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "idNumber"}},
		DoUpdates: clause.AssignmentColumns([]string{"fullName", "cellNumber", "lastSync", "updatedAt"}),
	}).Create(visitor).Error
}

func (lastWriteWins) ApplyVisit(tx *gorm.DB, visit *models.Visit) error {
	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"visitorId", "purpose", "ingressTime", "egressTime", "items", "lastSync", "updatedAt",
		}),
	}).Create(visit).Error
}
