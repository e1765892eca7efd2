package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type GroceryItem struct {
	ID             string           `gorm:"primaryKey;size:64" json:"id"`
	HouseholdId    string           `gorm:"size:64;not null;index:idx_gi_household_created,priority:1" json:"household_id"`
	Name           string           `gorm:"size:255;not null" json:"name"`
	IsPurchased    bool             `gorm:"not null;default:false" json:"is_purchased"`
	EstimatedPrice *decimal.Decimal `gorm:"type:decimal(12,2)" json:"estimated_price"`
	CreatedAt      time.Time        `gorm:"autoCreateTime;index:idx_gi_household_created,priority:2" json:"created_at"`
	UpdatedAt      time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}
