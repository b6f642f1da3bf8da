package repository

import (
	"context"
	"slices"
	"sync"

	"github.com/kahvecikaan/product-catalog/internal/domain"
)

// ProductRepository owns the canonical copy of every product. Returned
// products are copies; mutating them does not change stored state.
type ProductRepository interface {
	// Add inserts the product or overwrites the one with the same ID
	Add(ctx context.Context, product *domain.Product) error
	// Get reports false when no product has the given ID
	Get(ctx context.Context, id string) (*domain.Product, bool, error)
	// Update overwrites the stored product without checking it exists
	Update(ctx context.Context, product *domain.Product) error
	// Delete reports whether a product was removed
	Delete(ctx context.Context, id string) (bool, error)
	// List returns all products ordered by CreatedAt, oldest first
	List(ctx context.Context) ([]*domain.Product, error)
	Clear(ctx context.Context) error
	Len(ctx context.Context) (int, error)
}

type entry struct {
	product domain.Product
	seq     uint64
}

type memoryProductRepository struct {
	products map[string]entry
	nextSeq  uint64
	mutex    sync.RWMutex
}

func NewMemoryProductRepository() ProductRepository {
	return &memoryProductRepository{
		products: make(map[string]entry),
	}
}

func (r *memoryProductRepository) Add(ctx context.Context, product *domain.Product) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.put(product)
	return nil
}

func (r *memoryProductRepository) Get(ctx context.Context, id string) (*domain.Product, bool, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	e, ok := r.products[id]
	if !ok {
		return nil, false, nil
	}

	product := e.product
	return &product, true, nil
}

func (r *memoryProductRepository) Update(ctx context.Context, product *domain.Product) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.put(product)
	return nil
}

func (r *memoryProductRepository) Delete(ctx context.Context, id string) (bool, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, ok := r.products[id]; !ok {
		return false, nil
	}
	delete(r.products, id)
	return true, nil
}

func (r *memoryProductRepository) List(ctx context.Context) ([]*domain.Product, error) {
	r.mutex.RLock()
	entries := make([]entry, 0, len(r.products))
	for _, e := range r.products {
		entries = append(entries, e)
	}
	r.mutex.RUnlock()

	slices.SortFunc(entries, func(a, b entry) int {
		if c := a.product.CreatedAt.Compare(b.product.CreatedAt); c != 0 {
			return c
		}
		if a.seq < b.seq {
			return -1
		}
		return 1
	})

	products := make([]*domain.Product, len(entries))
	for i := range entries {
		product := entries[i].product
		products[i] = &product
	}
	return products, nil
}

func (r *memoryProductRepository) Clear(ctx context.Context) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.products = make(map[string]entry)
	return nil
}

func (r *memoryProductRepository) Len(ctx context.Context) (int, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return len(r.products), nil
}

// put stores a copy of product, keeping the insertion sequence of an
// existing entry. Callers hold the write lock.
func (r *memoryProductRepository) put(product *domain.Product) {
	e, ok := r.products[product.ID]
	if !ok {
		r.nextSeq++
		e.seq = r.nextSeq
	}
	e.product = *product
	r.products[product.ID] = e
}
