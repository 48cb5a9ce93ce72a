package services

import (
	"context"
	"slices"
	"strings"

	"github.com/go-faster/errors"

	"storefront/internal/domain"
	"storefront/internal/kv"
	"storefront/internal/pricing"
	"storefront/internal/repos"
	"storefront/internal/variant"
)

const (
	recentKey = "recent"
	maxRecent = 8
)

type CatalogService struct {
	Cats  *repos.CategoryRepo
	Prods *repos.ProductRepo
	KV    kv.Store
}

func NewCatalogService(cats *repos.CategoryRepo, prods *repos.ProductRepo, store kv.Store) *CatalogService {
	return &CatalogService{Cats: cats, Prods: prods, KV: store}
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.Cats.List(ctx)
}

func (s *CatalogService) ListProductsByCategory(ctx context.Context, catID string, page, pageSize int) ([]domain.Product, error) {
	limit, offset := paginate(page, pageSize)
	return s.Prods.ListByCategory(ctx, catID, limit, offset)
}

func (s *CatalogService) Search(ctx context.Context, q, category string, page, pageSize int) ([]domain.Product, error) {
	limit, offset := paginate(page, pageSize)
	return s.Prods.Search(ctx, strings.ToLower(strings.TrimSpace(q)), category, limit, offset)
}

func paginate(page, pageSize int) (limit, offset int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 12
	}
	return pageSize, (page - 1) * pageSize
}

func (s *CatalogService) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	p, err := s.Prods.Get(ctx, id)
	if errors.Is(err, repos.ErrProductNotFound) || (err == nil && !p.Active) {
		return domain.Product{}, ErrProductNotFound
	}
	return p, err
}

// ProductDetail is a product page: the product, the selection it opens with
// and the figures shown next to the price.
type ProductDetail struct {
	Product         domain.Product `json:"product"`
	Selection       variant.State  `json:"selection"`
	Sizes           []string       `json:"sizes"`
	Colors          []string       `json:"colors"`
	UnitPrice       string         `json:"unitPrice"`
	DiscountPercent int64          `json:"discountPercent"`
}

func (s *CatalogService) Detail(ctx context.Context, id string) (ProductDetail, error) {
	p, err := s.GetProduct(ctx, id)
	if err != nil {
		return ProductDetail{}, err
	}
	r := variant.New(p)
	return ProductDetail{
		Product:         p,
		Selection:       r.Initial(),
		Sizes:           r.Sizes(),
		Colors:          r.Colors(),
		UnitPrice:       pricing.UnitPrice(p).String(),
		DiscountPercent: pricing.DiscountPercent(p),
	}, nil
}

// Select resolves a size/color pick against the product's stock entries.
func (s *CatalogService) Select(ctx context.Context, id string, prev variant.State, size, color string) (variant.State, error) {
	p, err := s.GetProduct(ctx, id)
	if err != nil {
		return variant.State{}, err
	}
	return variant.New(p).Resolve(prev, size, color), nil
}

// RecordView puts productID at the front of the session's recently viewed
// list, keeping at most maxRecent distinct ids.
func (s *CatalogService) RecordView(ctx context.Context, sessionID, productID string) error {
	ids, err := s.recentIDs(ctx, sessionID)
	if err != nil {
		return err
	}
	ids = slices.DeleteFunc(ids, func(id string) bool { return id == productID })
	ids = append([]string{productID}, ids...)
	if len(ids) > maxRecent {
		ids = ids[:maxRecent]
	}
	return kv.SetJSON(ctx, s.KV, sessionID, recentKey, ids)
}

// Recent returns recently viewed products, newest first.
func (s *CatalogService) Recent(ctx context.Context, sessionID string) ([]domain.Product, error) {
	ids, err := s.recentIDs(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.Prods.ByIDs(ctx, ids)
}

func (s *CatalogService) recentIDs(ctx context.Context, sessionID string) ([]string, error) {
	var ids []string
	err := kv.GetJSON(ctx, s.KV, sessionID, recentKey, &ids)
	if errors.Is(err, kv.ErrNotFound) {
		return []string{}, nil
	}
	return ids, err
}
