package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/clinica-estoque-api/internal/domain"
	"github.com/jhoicas/clinica-estoque-api/internal/domain/entity"
)

// ProductRepository catálogo en memoria.
type ProductRepository struct {
	s *Store
}

func (r *ProductRepository) Create(_ context.Context, product *entity.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, exists := r.s.products[product.ID]; exists {
		return domain.ErrDuplicate
	}
	c := *product
	r.s.products[product.ID] = &c
	return nil
}

func (r *ProductRepository) GetByID(_ context.Context, id string) (*entity.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.products[id]
	if !ok {
		return nil, nil
	}
	c := *p
	return &c, nil
}

func (r *ProductRepository) Update(_ context.Context, product *entity.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.products[product.ID]; !ok {
		return domain.NewNotFoundError("producto", product.ID)
	}
	c := *product
	r.s.products[product.ID] = &c
	return nil
}

func (r *ProductRepository) List(ctx context.Context, limit, offset int) ([]*entity.Product, error) {
	all, _ := r.ListAll(ctx)
	if offset >= len(all) {
		return []*entity.Product{}, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

// ListAll ordenados por nombre.
func (r *ProductRepository) ListAll(_ context.Context) ([]*entity.Product, error) {
	r.s.mu.RLock()
	out := make([]*entity.Product, 0, len(r.s.products))
	for _, p := range r.s.products {
		c := *p
		out = append(out, &c)
	}
	r.s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
