package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/orderflow/internal/domain"
)

type productRepository struct {
	db *sql.DB
}

// NewProductRepository создаёт PostgreSQL-реализацию ProductRepository.
func NewProductRepository(store *Store) domain.ProductRepository {
	return &productRepository{db: store.DB()}
}

func (r *productRepository) Create(product domain.Product) (domain.Product, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	now := time.Now().UTC()
	product.Version = 0
	product.CreatedAt = now
	product.UpdatedAt = now

	err := r.db.QueryRowContext(ctx, `
		INSERT INTO products (name, description, available_quantity, price, category_id, version, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id
	`,
		product.Name, product.Description, product.AvailableQuantity,
		product.Price, product.CategoryID, product.Version,
		product.CreatedAt, product.UpdatedAt,
	).Scan(&product.ID)
	if err != nil {
		return domain.Product{}, fmt.Errorf("insert product: %w", err)
	}

	return product, nil
}

func (r *productRepository) Get(id int64) (domain.Product, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	product, err := scanProduct(r.db.QueryRowContext(ctx, `
		SELECT id, name, description, available_quantity, price, category_id, version, created_at, updated_at
		FROM products
		WHERE id = $1
	`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, domain.ErrProductNotFound
		}
		return domain.Product{}, fmt.Errorf("select product: %w", err)
	}

	return product, nil
}

func (r *productRepository) List() ([]domain.Product, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	return r.queryProducts(ctx, `
		SELECT id, name, description, available_quantity, price, category_id, version, created_at, updated_at
		FROM products
		ORDER BY id
	`)
}

// FindByIDs возвращает существующие товары по списку идентификаторов,
// отсортированные по id. Отсутствующие идентификаторы молча пропускаются.
func (r *productRepository) FindByIDs(ids []int64) ([]domain.Product, error) {
	if len(ids) == 0 {
		return []domain.Product{}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	// pgx stdlib-драйвер кодирует []int64 как int8[] для ANY($1).
	return r.queryProducts(ctx, `
		SELECT id, name, description, available_quantity, price, category_id, version, created_at, updated_at
		FROM products
		WHERE id = ANY($1)
		ORDER BY id
	`, ids)
}

// SaveAll атомарно перезаписывает товары с проверкой версий (optimistic locking).
// Батч применяется в одной транзакции: конфликт любой версии откатывает всё.
func (r *productRepository) SaveAll(products []domain.Product) ([]domain.Product, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	saved := make([]domain.Product, 0, len(products))
	for _, product := range products {
		var res sql.Result
		res, err = tx.ExecContext(ctx, `
			UPDATE products
			SET name = $1,
			    description = $2,
			    available_quantity = $3,
			    price = $4,
			    category_id = $5,
			    version = version + 1,
			    updated_at = $6
			WHERE id = $7
			  AND version = $8
		`,
			product.Name, product.Description, product.AvailableQuantity,
			product.Price, product.CategoryID, now,
			product.ID, product.Version,
		)
		if err != nil {
			return nil, fmt.Errorf("update product %d: %w", product.ID, err)
		}

		var affected int64
		affected, err = res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("rows affected: %w", err)
		}
		if affected == 0 {
			var exists bool
			exists, err = r.productExistsTx(ctx, tx, product.ID)
			if err != nil {
				return nil, err
			}
			if !exists {
				err = domain.ErrProductNotFound
				return nil, err
			}
			err = domain.ErrProductVersionConflict
			return nil, err
		}

		product.Version++
		product.UpdatedAt = now
		saved = append(saved, product)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit save products: %w", err)
	}

	return saved, nil
}

func (r *productRepository) queryProducts(ctx context.Context, query string, args ...any) ([]domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0)
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}

	return products, nil
}

func (r *productRepository) productExistsTx(ctx context.Context, tx *sql.Tx, id int64) (bool, error) {
	var found int64
	err := tx.QueryRowContext(ctx, `SELECT id FROM products WHERE id = $1`, id).Scan(&found)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return false, fmt.Errorf("check product exists: %w", err)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (domain.Product, error) {
	var product domain.Product
	err := row.Scan(
		&product.ID, &product.Name, &product.Description,
		&product.AvailableQuantity, &product.Price, &product.CategoryID,
		&product.Version, &product.CreatedAt, &product.UpdatedAt,
	)
	return product, err
}

var _ domain.ProductRepository = (*productRepository)(nil)
