package models

import (
	"fmt"
	"time"
)

// ItemCondition describes the physical condition of a second-hand item.
type ItemCondition string

const (
	ConditionNew       ItemCondition = "NEW"
	ConditionLikeNew   ItemCondition = "LIKE_NEW"
	ConditionGood      ItemCondition = "GOOD"
	ConditionFair      ItemCondition = "FAIR"
	ConditionHasDamage ItemCondition = "HAS_DAMAGE"
)

// ParseItemCondition converts the wire-format string into an ItemCondition.
func ParseItemCondition(s string) (ItemCondition, error) {
	switch ItemCondition(s) {
	case ConditionNew, ConditionLikeNew, ConditionGood, ConditionFair, ConditionHasDamage:
		return ItemCondition(s), nil
	}
	return "", fmt.Errorf("unknown item condition %q", s)
}

// ProductStatus is the listing lifecycle state. Transitions are not
// constrained; any status update may set any value.
type ProductStatus string

const (
	StatusActive   ProductStatus = "ACTIVE"
	StatusReserved ProductStatus = "RESERVED"
	StatusSold     ProductStatus = "SOLD"
	StatusInactive ProductStatus = "INACTIVE"
)

// ParseProductStatus converts the wire-format string into a ProductStatus.
func ParseProductStatus(s string) (ProductStatus, error) {
	switch ProductStatus(s) {
	case StatusActive, StatusReserved, StatusSold, StatusInactive:
		return ProductStatus(s), nil
	}
	return "", fmt.Errorf("unknown product status %q", s)
}

// Product represents a listing on the marketplace. Every product belongs to
// exactly one category and one owner; the owner is fixed at creation and
// ViewCount only ever increases.
type Product struct {
	ID                string            `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Title             string            `json:"title" validate:"required,min=3,max=100"`
	Price             float64           `json:"price" validate:"required,gt=0"`
	Description       string            `json:"description" validate:"omitempty,max=2000"`
	ShippingAvailable bool              `json:"shipping_available"`
	ItemCondition     ItemCondition     `json:"item_condition" gorm:"type:varchar(20)"`
	ProductStatus     ProductStatus     `json:"product_status" gorm:"type:varchar(20)"`
	Attributes        map[string]string `json:"attributes" gorm:"serializer:json"`
	ImageURLs         []string          `json:"image_urls" gorm:"serializer:json"`
	ViewCount         int64             `json:"view_count"`
	UserID            string            `json:"user_id" gorm:"type:varchar(36);index"`
	CategoryID        string            `json:"category_id" gorm:"type:varchar(36);index"`
	Category          *Category         `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}
