package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

var ErrInvalidInput = errors.New("invalid catalog input")

type Service interface {
	Browse(ctx context.Context, term string) ([]Product, error)
	Search(ctx context.Context, f Filter) ([]Product, error)
	Product(ctx context.Context, id int64) (*Product, error)
	Categories(ctx context.Context) ([]Category, error)

	AdminProducts(ctx context.Context) ([]Product, error)
	AdminProduct(ctx context.Context, id int64) (*Product, error)
	CreateProduct(ctx context.Context, p *Product) (*Product, error)
	UpdateProduct(ctx context.Context, p *Product) error
	Archive(ctx context.Context, id int64) error
	Restore(ctx context.Context, id int64) error
	CreateCategory(ctx context.Context, c *Category) (*Category, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// Browse is the home page listing: newest first, optional name match.
func (s *service) Browse(ctx context.Context, term string) ([]Product, error) {
	return s.Search(ctx, Filter{Query: term, Sort: SortNewest})
}

func (s *service) Search(ctx context.Context, f Filter) ([]Product, error) {
	if f.MinPrice != nil && f.MaxPrice != nil && f.MinPrice.GreaterThan(*f.MaxPrice) {
		f.MinPrice, f.MaxPrice = f.MaxPrice, f.MinPrice
	}

	products, err := s.repo.Search(ctx, f)
	if err != nil {
		log.Error().Err(err).Str("query", f.Query).Msg("service: failed to search products")
		return nil, fmt.Errorf("service: failed to search products: %w", err)
	}
	return products, nil
}

func (s *service) Product(ctx context.Context, id int64) (*Product, error) {
	product, err := s.repo.GetVisibleByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		log.Error().Err(err).Int64("product_id", id).Msg("service: failed to get product")
		return nil, fmt.Errorf("service: failed to get product %d: %w", id, err)
	}
	return product, nil
}

func (s *service) Categories(ctx context.Context) ([]Category, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to list categories")
		return nil, fmt.Errorf("service: failed to list categories: %w", err)
	}
	return categories, nil
}

func (s *service) AdminProducts(ctx context.Context) ([]Product, error) {
	products, err := s.repo.ListAll(ctx)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to list all products")
		return nil, fmt.Errorf("service: failed to list all products: %w", err)
	}
	return products, nil
}

func (s *service) AdminProduct(ctx context.Context, id int64) (*Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("service: failed to get product %d: %w", id, err)
	}
	return product, nil
}

func (s *service) validate(ctx context.Context, p *Product) error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if p.Price.IsNegative() {
		return fmt.Errorf("%w: price cannot be negative", ErrInvalidInput)
	}
	if p.StockQuantity < 0 {
		return fmt.Errorf("%w: stock cannot be negative", ErrInvalidInput)
	}
	if p.CategoryID != nil {
		if _, err := s.repo.GetCategory(ctx, *p.CategoryID); err != nil {
			if errors.Is(err, ErrCategoryNotFound) {
				return ErrCategoryNotFound
			}
			return fmt.Errorf("service: failed to check category: %w", err)
		}
	}
	return nil
}

func (s *service) CreateProduct(ctx context.Context, p *Product) (*Product, error) {
	if err := s.validate(ctx, p); err != nil {
		return nil, err
	}

	if _, err := s.repo.Create(ctx, p); err != nil {
		log.Error().Err(err).Str("name", p.Name).Msg("service: failed to create product")
		return nil, fmt.Errorf("service: failed to create product: %w", err)
	}

	log.Info().Int64("product_id", p.ID).Msg("service: product created")
	return p, nil
}

func (s *service) UpdateProduct(ctx context.Context, p *Product) error {
	if err := s.validate(ctx, p); err != nil {
		return err
	}

	if err := s.repo.Update(ctx, p); err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return ErrProductNotFound
		}
		log.Error().Err(err).Int64("product_id", p.ID).Msg("service: failed to update product")
		return fmt.Errorf("service: failed to update product: %w", err)
	}
	return nil
}

func (s *service) Archive(ctx context.Context, id int64) error {
	return s.setArchived(ctx, id, true)
}

func (s *service) Restore(ctx context.Context, id int64) error {
	return s.setArchived(ctx, id, false)
}

func (s *service) setArchived(ctx context.Context, id int64, archived bool) error {
	if err := s.repo.SetArchived(ctx, id, archived); err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return ErrProductNotFound
		}
		return fmt.Errorf("service: failed to change archive flag: %w", err)
	}
	log.Info().Int64("product_id", id).Bool("archived", archived).Msg("service: product archive flag changed")
	return nil
}

func (s *service) CreateCategory(ctx context.Context, c *Category) (*Category, error) {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return nil, fmt.Errorf("%w: category name is required", ErrInvalidInput)
	}

	if _, err := s.repo.CreateCategory(ctx, c); err != nil {
		if errors.Is(err, ErrCategoryExists) {
			return nil, ErrCategoryExists
		}
		return nil, fmt.Errorf("service: failed to create category: %w", err)
	}
	return c, nil
}
