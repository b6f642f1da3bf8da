package events

type ProductAdded struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
}

type ProductUpdated struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
}

type ProductDeleted struct {
	ProductID string `json:"product_id"`
}

// Name returns the wire name used for an event, or "" for unknown events
func Name(event any) string {
	switch event.(type) {
	case ProductAdded:
		return "product_added"
	case ProductUpdated:
		return "product_updated"
	case ProductDeleted:
		return "product_deleted"
	default:
		return ""
	}
}
