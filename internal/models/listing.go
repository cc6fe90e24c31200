package models

import "time"

// Listing объявление на площадке. Изменять и удалять его может только владелец.
type Listing struct {
	ID          string    `json:"id"`
	OwnerUID    string    `json:"owner_id"`
	Title       string    `json:"title"`
	Price       int       `json:"price"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	Images      []Image   `json:"images"`
	CreatedAt   time.Time `json:"created_at"`
}

// ListingFields редактируемые поля объявления.
type ListingFields struct {
	Title       string `json:"title" validate:"required,max=200"`
	Price       int    `json:"price" validate:"required,gt=0"`
	Category    string `json:"category" validate:"required,max=100"`
	Description string `json:"description" validate:"required"`
}
