package models

import "time"

// Visitor is keyed by the national/company ID number presented at the desk.
// The key is immutable once created; the core never deletes visitors.
type Visitor struct {
	IDNumber   string    `gorm:"column:idNumber;primaryKey" json:"idNumber"`
	FullName   string    `gorm:"column:fullName;not null" json:"fullName"`
	CellNumber string    `gorm:"column:cellNumber;not null" json:"cellNumber"`
	LastSync   time.Time `gorm:"column:lastSync;not null" json:"lastSync"`
	CreatedAt  time.Time `gorm:"column:createdAt;autoCreateTime" json:"createdAt"`
	UpdatedAt  time.Time `gorm:"column:updatedAt;autoUpdateTime" json:"updatedAt"`
}

func (Visitor) TableName() string {
	return "visitors"
}
