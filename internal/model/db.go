package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	ID           string `gorm:"primaryKey;size:36;not null"`
	Email        string `gorm:"size:254;uniqueIndex;not null"`
	Name         string `gorm:"size:150;not null"`
	PasswordHash string `gorm:"size:255;not null" json:"-"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type ShippingAddress struct {
	Street  string `json:"street,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	ZipCode string `json:"zipCode,omitempty"`
	Country string `json:"country,omitempty"`
}

type Profile struct {
	ID              string          `gorm:"primaryKey;size:36;not null"`
	UserID          string          `gorm:"size:36;uniqueIndex;not null"`
	Phone           string          `gorm:"size:15"`
	ShippingAddress ShippingAddress `gorm:"serializer:json"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type Category struct {
	ID          string `gorm:"primaryKey;size:36;not null"`
	Name        string `gorm:"size:100;uniqueIndex;not null"`
	Slug        string `gorm:"size:100;uniqueIndex;not null"`
	Description string
	IsActive    bool `gorm:"not null"`
	SortOrder   int  `gorm:"not null;default:0"` // display order
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Subcategory struct {
	ID          string `gorm:"primaryKey;size:36;not null"`
	CategoryID  string `gorm:"size:36;uniqueIndex:ux_subcategory_slug;not null"`
	Name        string `gorm:"size:100;not null"`
	Slug        string `gorm:"size:100;uniqueIndex:ux_subcategory_slug;not null"`
	Description string
	IsActive    bool `gorm:"not null"`
	SortOrder   int  `gorm:"not null;default:0"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Tag struct {
	ID        string `gorm:"primaryKey;size:36;not null"`
	Name      string `gorm:"size:50;uniqueIndex;not null"`
	Slug      string `gorm:"size:50;uniqueIndex;not null"`
	IsActive  bool   `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Product struct {
	ID            string          `gorm:"primaryKey;size:36;not null"`
	Slug          string          `gorm:"size:200;uniqueIndex;not null"`
	Name          string          `gorm:"size:200;not null"`
	Description   string          `gorm:"type:text"`
	Price         decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Currency      string          `gorm:"size:3;not null"`
	CategoryID    string          `gorm:"size:36;index;not null"`
	SubcategoryID string          `gorm:"size:36;index;not null"`
	Tags          []Tag           `gorm:"many2many:product_tags;"`
	IsAvailable   bool            `gorm:"index;not null"`
	WeightGrams   *int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
