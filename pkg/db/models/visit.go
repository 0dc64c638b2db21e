package models

import (
	"time"

	"github.com/google/uuid"
	dbtypes "github.com/kagisom/gatehouse/pkg/db/types"
)

// Visit records one pass through the gate. IDs are generated on the device at
// creation time so that upsert-by-id reconciliation stays safe when several
// devices push into the same authority.
//
// EgressTime absent means the visit is active; once set it is never cleared.
type Visit struct {
	ID          uuid.UUID        `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	VisitorID   string           `gorm:"column:visitorId;not null;index" json:"visitorId"`
	Purpose     string           `gorm:"column:purpose;not null" json:"purpose"`
	IngressTime time.Time        `gorm:"column:ingressTime;not null;index" json:"ingressTime"`
	EgressTime  *time.Time       `gorm:"column:egressTime" json:"egressTime,omitempty"`
	Items       dbtypes.ItemList `gorm:"column:items;type:json;not null" json:"items"`
	LastSync    time.Time        `gorm:"column:lastSync;not null" json:"lastSync"`
	CreatedAt   time.Time        `gorm:"column:createdAt;autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time        `gorm:"column:updatedAt;autoUpdateTime" json:"updatedAt"`
}

func (Visit) TableName() string {
	return "visits"
}

// Active reports whether the visitor is still on the premises.
func (v Visit) Active() bool {
	return v.EgressTime == nil
}
