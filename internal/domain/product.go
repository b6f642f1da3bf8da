package domain

import (
	"time"

	"github.com/google/uuid"
)

// Product represents the product model
//
// swagger:model
type Product struct {
	// The ID of the product
	//
	// required: true
	// example: 0b6e8a86-5d0e-4c2a-9bd7-4b6f7a1e2c3d
	ID string `json:"id" validate:"required"`

	// The name of the product
	//
	// required: true
	// min length: 2
	// max length: 100
	// example: Widget
	Name string `json:"name" validate:"required,min=2,max=100"`

	// The description of the product
	//
	// required: false
	// max length: 500
	// example: A very useful widget
	Description string `json:"description" validate:"max=500"`

	// The price of the product
	//
	// required: true
	// min: 0
	// example: 9.99
	Price float64 `json:"price" validate:"gte=0,finite"`

	// The ISO currency code of the price
	//
	// required: true
	// example: USD
	Currency string `json:"currency" validate:"len=3"`

	// Units in stock
	//
	// required: true
	// min: 0
	// example: 3
	Stock int `json:"stock" validate:"gte=0"`

	// The category of the product
	//
	// required: false
	// max length: 50
	Category string `json:"category,omitempty" validate:"max=50"`

	// Link to an image of the product
	//
	// required: false
	ImageURL string `json:"imageUrl,omitempty" validate:"omitempty,url"`

	// When the product was created
	//
	// required: true
	CreatedAt time.Time `json:"createdAt" validate:"required"`

	// When the product was last changed
	//
	// required: true
	UpdatedAt time.Time `json:"updatedAt" validate:"required,gtefield=CreatedAt"`
}

// ProductCreate is the accepted shape of a create request. Pointer fields
// distinguish a missing value from a zero value.
//
// swagger:model
type ProductCreate struct {
	Name        *string  `json:"name" validate:"required,min=2,max=100"`
	Description *string  `json:"description" validate:"omitempty,max=500"`
	Price       *float64 `json:"price" validate:"required,gte=0,finite"`
	Currency    *string  `json:"currency" validate:"omitempty,len=3"`
	Stock       *int     `json:"stock" validate:"omitempty,gte=0"`
	Category    *string  `json:"category" validate:"omitempty,max=50"`
	ImageURL    *string  `json:"imageUrl" validate:"omitempty,url"`
}

// ProductPatch is a partial update. Only non-nil fields are applied.
//
// swagger:model
type ProductPatch struct {
	Name        *string  `json:"name" validate:"omitempty,min=2,max=100"`
	Description *string  `json:"description" validate:"omitempty,max=500"`
	Price       *float64 `json:"price" validate:"omitempty,gte=0,finite"`
	Currency    *string  `json:"currency" validate:"omitempty,len=3"`
	Stock       *int     `json:"stock" validate:"omitempty,gte=0"`
	Category    *string  `json:"category" validate:"omitempty,max=50"`
	ImageURL    *string  `json:"imageUrl" validate:"omitempty,url"`
}

// ApplyTo copies every field set in the patch onto p
func (pp ProductPatch) ApplyTo(p *Product) {
	if pp.Name != nil {
		p.Name = *pp.Name
	}
	if pp.Description != nil {
		p.Description = *pp.Description
	}
	if pp.Price != nil {
		p.Price = *pp.Price
	}
	if pp.Currency != nil {
		p.Currency = *pp.Currency
	}
	if pp.Stock != nil {
		p.Stock = *pp.Stock
	}
	if pp.Category != nil {
		p.Category = *pp.Category
	}
	if pp.ImageURL != nil {
		p.ImageURL = *pp.ImageURL
	}
}

// Factory constructs and mutates products. Now and NewID can be replaced in
// tests.
type Factory struct {
	Validation *Validation
	Now        func() time.Time
	NewID      func() string
}

func NewFactory(v *Validation) *Factory {
	return &Factory{
		Validation: v,
		Now:        func() time.Time { return time.Now().UTC() },
		NewID:      uuid.NewString,
	}
}

// Create builds a new product from a create payload. The payload is
// validated again here even if the caller already did so.
func (f *Factory) Create(in ProductCreate) (*Product, error) {
	parsed, err := f.Validation.ParseCreate(in)
	if err != nil {
		return nil, err
	}

	now := f.Now()
	p := &Product{
		ID:          f.NewID(),
		Name:        *parsed.Name,
		Description: *parsed.Description,
		Price:       *parsed.Price,
		Currency:    *parsed.Currency,
		Stock:       *parsed.Stock,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if parsed.Category != nil {
		p.Category = *parsed.Category
	}
	if parsed.ImageURL != nil {
		p.ImageURL = *parsed.ImageURL
	}

	return p, nil
}

// Update merges patch over a copy of existing, refreshes UpdatedAt and
// checks the merged product against the full schema.
func (f *Factory) Update(existing Product, patch ProductPatch) (*Product, error) {
	parsed, err := f.Validation.ParsePatch(patch)
	if err != nil {
		return nil, err
	}

	merged := existing
	parsed.ApplyTo(&merged)

	// never let UpdatedAt move backwards if the wall clock does
	now := f.Now()
	if now.Before(existing.UpdatedAt) {
		now = existing.UpdatedAt
	}
	merged.UpdatedAt = now

	if err := f.Validation.ValidateProduct(&merged); err != nil {
		return nil, err
	}
	return &merged, nil
}
