package postgres

import (
	"context"
	"fmt"

	"github.com/NEARBuilders/near-merch-store-sub000/internal/provider"
	"github.com/NEARBuilders/near-merch-store-sub000/pkg/database"
)

// ProductRepository persists the synced provider catalog using PostgreSQL.
type ProductRepository struct {
	pool database.DBTX
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool database.DBTX) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// Upsert inserts or updates one product and its variants atomically and
// returns the number of variants written. Variants not present in the
// incoming product are removed; the provider catalog is authoritative.
func (r *ProductRepository) Upsert(ctx context.Context, p *provider.Product) (int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO products (id, provider, name, description, image_url, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (id, provider) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			image_url = EXCLUDED.image_url,
			updated_at = NOW()`,
		p.ID, p.Provider, p.Name, p.Description, p.ImageURL,
	)
	if err != nil {
		return 0, fmt.Errorf("upsert product: %w", err)
	}

	_, err = tx.Exec(ctx,
		`DELETE FROM product_variants WHERE product_id = $1 AND provider = $2`,
		p.ID, p.Provider,
	)
	if err != nil {
		return 0, fmt.Errorf("clear product variants: %w", err)
	}

	for _, v := range p.Variants {
		_, err = tx.Exec(ctx, `
			INSERT INTO product_variants (id, product_id, provider, name, sku, price, currency, in_stock)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			v.ID, p.ID, p.Provider, v.Name, v.SKU, v.Price, v.Currency, v.InStock,
		)
		if err != nil {
			return 0, fmt.Errorf("insert product variant: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}
	return len(p.Variants), nil
}

// DeleteMissing removes products for the given provider whose ids are not
// in keep and returns the number removed. An empty keep list removes the
// provider's entire catalog (the provider reported no products).
func (r *ProductRepository) DeleteMissing(ctx context.Context, providerName string, keep []string) (int, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM products WHERE provider = $1 AND NOT (id = ANY($2))`,
		providerName, keep,
	)
	if err != nil {
		return 0, fmt.Errorf("delete missing products: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
