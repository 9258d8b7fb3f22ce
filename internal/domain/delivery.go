// Package domain defines the persistence models for the application.
package domain

import "time"

// Delivery records an inbound webhook delivery that has already been
// processed, keyed by (group_id, update_id). The dispatch adapter consults
// it so retried deliveries of the same update are acknowledged without
// re-executing side effects.
type Delivery struct {
	ID        string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	GroupID   int64     `gorm:"not null;uniqueIndex:ux_delivery_group_update,priority:1"`
	UpdateID  int64     `gorm:"not null;uniqueIndex:ux_delivery_group_update,priority:2"`
	CreatedAt time.Time `gorm:"type:DATETIME NOT NULL;autoCreateTime"`
	ExpiresAt time.Time `gorm:"type:DATETIME NOT NULL;index"`
}

// TableName implements the GORM tabler interface.
func (Delivery) TableName() string { return "deliveries" }
