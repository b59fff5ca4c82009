package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog/log"
)

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrCategoryExists   = errors.New("category already exists")
)

type Repository interface {
	Search(ctx context.Context, f Filter) ([]Product, error)
	GetVisibleByID(ctx context.Context, id int64) (*Product, error)
	GetByID(ctx context.Context, id int64) (*Product, error)
	ListAll(ctx context.Context) ([]Product, error)
	Create(ctx context.Context, p *Product) (int64, error)
	Update(ctx context.Context, p *Product) error
	SetArchived(ctx context.Context, id int64, archived bool) error
	ListCategories(ctx context.Context) ([]Category, error)
	GetCategory(ctx context.Context, id int64) (*Category, error)
	CreateCategory(ctx context.Context, c *Category) (int64, error)
}

// DB is the subset of pgxpool.Pool the repository needs.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type postgresRepository struct {
	db DB
}

func NewRepository(db DB) Repository {
	return &postgresRepository{db: db}
}

func scanProduct(row pgx.Row, p *Product) error {
	return row.Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.Price,
		&p.StockQuantity,
		&p.ImageURL,
		&p.CategoryID,
		&p.IsArchived,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
}

func (r *postgresRepository) queryProducts(ctx context.Context, query string, args ...any) ([]Product, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query products: %w", err)
	}
	defer rows.Close()

	products := make([]Product, 0)
	for rows.Next() {
		var p Product
		if err := scanProduct(rows, &p); err != nil {
			return nil, fmt.Errorf("repository: failed to scan product: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: failed iterating products: %w", err)
	}

	return products, nil
}

func (r *postgresRepository) Search(ctx context.Context, f Filter) ([]Product, error) {
	query, args := buildSearchQuery(f)
	return r.queryProducts(ctx, query, args...)
}

func (r *postgresRepository) GetVisibleByID(ctx context.Context, id int64) (*Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1 AND is_archived = FALSE`
	return r.getProduct(ctx, query, id)
}

func (r *postgresRepository) GetByID(ctx context.Context, id int64) (*Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	return r.getProduct(ctx, query, id)
}

func (r *postgresRepository) getProduct(ctx context.Context, query string, id int64) (*Product, error) {
	var p Product
	err := scanProduct(r.db.QueryRow(ctx, query, id), &p)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("repository: failed to select product %d: %w", id, err)
	}
	return &p, nil
}

func (r *postgresRepository) ListAll(ctx context.Context) ([]Product, error) {
	return r.queryProducts(ctx, `SELECT `+productColumns+` FROM products ORDER BY id DESC`)
}

func (r *postgresRepository) Create(ctx context.Context, p *Product) (int64, error) {
	query := `
		INSERT INTO products (name, description, price, stock_quantity, image_url, category_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		p.Name,
		p.Description,
		p.Price,
		p.StockQuantity,
		p.ImageURL,
		p.CategoryID,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return 0, fmt.Errorf("repository: failed to insert product: %w", err)
	}

	return p.ID, nil
}

func (r *postgresRepository) Update(ctx context.Context, p *Product) error {
	query := `
		UPDATE products
		SET name = $1, description = $2, price = $3, stock_quantity = $4, image_url = $5, category_id = $6, updated_at = NOW()
		WHERE id = $7
	`
	cmdTag, err := r.db.Exec(ctx, query,
		p.Name,
		p.Description,
		p.Price,
		p.StockQuantity,
		p.ImageURL,
		p.CategoryID,
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to update product %d: %w", p.ID, err)
	}

	if cmdTag.RowsAffected() == 0 {
		return ErrProductNotFound
	}

	return nil
}

func (r *postgresRepository) SetArchived(ctx context.Context, id int64, archived bool) error {
	cmdTag, err := r.db.Exec(ctx, `UPDATE products SET is_archived = $1, updated_at = NOW() WHERE id = $2`, archived, id)
	if err != nil {
		log.Error().Err(err).Int64("product_id", id).Bool("archived", archived).Msg("repository: failed to set archived flag")
		return fmt.Errorf("repository: failed to set archived flag for product %d: %w", id, err)
	}

	if cmdTag.RowsAffected() == 0 {
		return ErrProductNotFound
	}

	return nil
}

func (r *postgresRepository) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, description FROM categories ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query categories: %w", err)
	}
	defer rows.Close()

	categories := make([]Category, 0)
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description); err != nil {
			return nil, fmt.Errorf("repository: failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: failed iterating categories: %w", err)
	}

	return categories, nil
}

func (r *postgresRepository) GetCategory(ctx context.Context, id int64) (*Category, error) {
	var c Category
	err := r.db.QueryRow(ctx, `SELECT id, name, description FROM categories WHERE id = $1`, id).Scan(&c.ID, &c.Name, &c.Description)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("repository: failed to select category %d: %w", id, err)
	}
	return &c, nil
}

func (r *postgresRepository) CreateCategory(ctx context.Context, c *Category) (int64, error) {
	err := r.db.QueryRow(ctx,
		`INSERT INTO categories (name, description) VALUES ($1, $2) RETURNING id`,
		c.Name, c.Description,
	).Scan(&c.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return 0, ErrCategoryExists
		}
		return 0, fmt.Errorf("repository: failed to insert category: %w", err)
	}
	return c.ID, nil
}
