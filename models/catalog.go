package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Seller carries the seller's running reputation. Rating is always the mean
// of TotalRatings review ratings.
type Seller struct {
	ID           string    `gorm:"type:varchar(64);primaryKey" json:"id"`
	Name         string    `gorm:"type:varchar(255);not null" json:"name"`
	Rating       float64   `gorm:"not null;default:0" json:"rating"`
	TotalRatings int       `gorm:"not null;default:0" json:"total_ratings"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type FoodItem struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	SellerID     string         `gorm:"type:varchar(64);not null;index" json:"seller_id"`
	Name         string         `gorm:"type:varchar(255);not null" json:"name"`
	Category     string         `gorm:"type:varchar(64)" json:"category"`
	Price        int64          `gorm:"not null" json:"price"`
	IsAvailable  bool           `gorm:"not null" json:"is_available"`
	Rating       float64        `gorm:"not null;default:0" json:"rating"`
	TotalRatings int            `gorm:"not null;default:0" json:"total_ratings"`
	CreatedAt    time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (f *FoodItem) BeforeCreate(_ *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

// CatalogEntry is what checkout needs to know about a food item.
type CatalogEntry struct {
	FoodItemID uuid.UUID
	SellerID   string
	Name       string
	Price      int64
	Available  bool
}

// CatalogSnapshot is a read-only view of the catalog taken at one point in
// time. Items missing from the snapshot were not found or are deleted.
type CatalogSnapshot map[uuid.UUID]CatalogEntry

func (s CatalogSnapshot) Lookup(foodItemID uuid.UUID) (CatalogEntry, bool) {
	e, ok := s[foodItemID]
	return e, ok
}
