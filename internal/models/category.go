package models

import "time"

// Category groups products. The product service only reads categories;
// they are managed separately and treated as immutable here.
type Category struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Name      string    `json:"name" gorm:"uniqueIndex;type:varchar(100)" validate:"required,min=2,max=100"`
	CreatedAt time.Time `json:"created_at"`
}
