package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "modernc.org/sqlite"

	"github.com/fjod/go_cart/caja-service/internal/domain"
)

// SQLite reads the catalog from a sqlite database seeded by migrations.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(dbPath string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one connection so ":memory:" databases are shared between queries
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) RunMigrations(migrationsPath string) error {
	driver, err := sqlite.WithInstance(s.db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", migrationsPath),
		"sqlite",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

func (s *SQLite) All(ctx context.Context) ([]domain.Product, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, unit_price FROM products ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.UnitPrice); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return products, nil
}

func (s *SQLite) Get(ctx context.Context, id int64) (domain.Product, error) {
	var p domain.Product
	err := s.db.QueryRowContext(ctx, `SELECT id, name, unit_price FROM products WHERE id = ?`, id).
		Scan(&p.ID, &p.Name, &p.UnitPrice)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, ErrProductNotFound
	}
	if err != nil {
		return domain.Product{}, fmt.Errorf("failed to query product %d: %w", id, err)
	}
	return p, nil
}

// Snapshot loads every product into a Static catalog so the register never hits the database
// while ringing up items.
func (s *SQLite) Snapshot(ctx context.Context) (*Static, error) {
	products, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	return NewStatic(products), nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

// LoadSQLite opens dbPath, migrates it and returns an in-memory snapshot of its products.
func LoadSQLite(ctx context.Context, dbPath, migrationsPath string) (*Static, error) {
	repo, err := NewSQLite(dbPath)
	if err != nil {
		return nil, err
	}
	defer repo.Close()

	if err := repo.RunMigrations(migrationsPath); err != nil {
		return nil, err
	}
	return repo.Snapshot(ctx)
}
