// Package classification of Product Catalog API
//
// # Documentation for Product Catalog API
//
// Schemes: http
// BasePath: /
// Version: 1.0.0
//
// Consumes:
// - application/json
//
// Produces:
// - application/json
//
// swagger:meta
package http

import "github.com/kahvecikaan/product-catalog/internal/domain"

// NOTE: the wrapper types below only document the API; handlers do not use them

// Error with an optional list of field issues
// swagger:response errorResponse
type errorResponseWrapper struct {
	// Description of the error
	// in: body
	Body ErrorResponse
}

// A list of products, oldest first
// swagger:response productsResponse
type productsResponseWrapper struct {
	// All current products
	// in: body
	Body []domain.Product
}

// Data structure representing a single product
// swagger:response productResponse
type productResponseWrapper struct {
	// A single product
	// in: body
	Body domain.Product
}

// No content response for endpoints that return 204
// swagger:response noContentResponse
type noContentResponseWrapper struct{}

// Location of an uploaded image
// swagger:response imageResponse
type imageResponseWrapper struct {
	// in: body
	Body ImageResponse
}

// swagger:parameters getProduct deleteProduct updateProduct
type productIDParamsWrapper struct {
	// The ID of the product
	// in: path
	// required: true
	ID string `json:"id"`
}

// swagger:parameters createProduct
type productCreateParamsWrapper struct {
	// Product to create
	// in: body
	// required: true
	Body domain.ProductCreate
}

// swagger:parameters updateProduct
type productPatchParamsWrapper struct {
	// Fields to change
	// in: body
	// required: true
	Body domain.ProductPatch
}

// ErrorResponse defines the structure for API error responses
//
// swagger:model
type ErrorResponse struct {
	// The kind of error: ValidationError, NotFound, BadRequest, PayloadTooLarge or ServerError
	//
	// required: true
	Error string `json:"error"`

	// A human readable message
	Message string `json:"message,omitempty"`

	// Field level problems, for validation errors
	Issues []domain.Issue `json:"issues,omitempty"`
}

// ImageResponse is returned after an image upload
//
// swagger:model
type ImageResponse struct {
	// Absolute URL the image can be fetched from
	URL string `json:"url"`
}

// HealthResponse is returned by the health endpoint
//
// swagger:model
type HealthResponse struct {
	Status   string `json:"status"`
	Products int    `json:"products"`
}
