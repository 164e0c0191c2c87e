package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/platewise/reviewpipe/internal/domain"
)

// Driver names accepted by Open
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const pingTimeout = 10 * time.Second

// Store reads restaurants and dishes from the platform database
type Store struct {
	db     *sql.DB
	driver string
	logger *slog.Logger
}

// Open connects to the catalog with the named driver
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	switch strings.ToLower(driver) {
	case "", DriverPostgres:
		return NewPostgres(ctx, dsn)
	case DriverSQLite:
		return NewSQLite(ctx, dsn)
	}
	return nil, fmt.Errorf("%w: platform.driver %q", domain.ErrInvalidConfig, driver)
}

// NewPostgres connects to the hosted platform database and verifies the connection
func NewPostgres(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open(DriverPostgres, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres connection: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	return newStore(db, DriverPostgres), nil
}

// NewSQLite opens a catalog snapshot. ":memory:" gives an empty in-memory catalog.
func NewSQLite(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open(DriverSQLite, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// one connection so an in-memory database is shared by every query
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	return newStore(db, DriverSQLite), nil
}

func newStore(db *sql.DB, driver string) *Store {
	return &Store{
		db:     db,
		driver: driver,
		logger: slog.Default().With("component", "catalog", "driver", driver),
	}
}

// Close closes the underlying database connection
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Migrate creates the catalog tables when they do not exist
func (s *Store) Migrate(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS restaurants (
            id TEXT PRIMARY KEY,
            name TEXT NOT NULL,
            google_place_id TEXT,
            location TEXT
        )`,
		`CREATE TABLE IF NOT EXISTS dishes (
            id TEXT PRIMARY KEY,
            name TEXT NOT NULL,
            restaurant_id TEXT NOT NULL REFERENCES restaurants(id),
            category TEXT
        )`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}
	return nil
}

// ListRestaurants returns every catalog restaurant ordered by name
func (s *Store) ListRestaurants(ctx context.Context) ([]domain.Restaurant, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, name, COALESCE(google_place_id, ''), COALESCE(location, '')
        FROM restaurants
        ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("query restaurants: %w", err)
	}
	defer rows.Close()

	var restaurants []domain.Restaurant
	for rows.Next() {
		var r domain.Restaurant
		if err := rows.Scan(&r.ID, &r.Name, &r.GooglePlaceID, &r.Location); err != nil {
			return nil, fmt.Errorf("scan restaurant: %w", err)
		}
		r.GooglePlaceID = strings.TrimSpace(r.GooglePlaceID)
		r.Location = strings.TrimSpace(r.Location)
		restaurants = append(restaurants, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate restaurants: %w", err)
	}

	s.logger.Debug("restaurants loaded", "count", len(restaurants))
	return restaurants, nil
}

// ListDishes returns every catalog dish ordered by restaurant, then name
func (s *Store) ListDishes(ctx context.Context) ([]domain.DishRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, name, restaurant_id, COALESCE(category, '')
        FROM dishes
        ORDER BY restaurant_id, name, id`)
	if err != nil {
		return nil, fmt.Errorf("query dishes: %w", err)
	}
	defer rows.Close()

	var dishes []domain.DishRecord
	for rows.Next() {
		var d domain.DishRecord
		if err := rows.Scan(&d.ID, &d.Name, &d.RestaurantID, &d.Category); err != nil {
			return nil, fmt.Errorf("scan dish: %w", err)
		}
		dishes = append(dishes, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dishes: %w", err)
	}

	s.logger.Debug("dishes loaded", "count", len(dishes))
	return dishes, nil
}

// AddRestaurant inserts a restaurant; used to seed snapshots
func (s *Store) AddRestaurant(ctx context.Context, r domain.Restaurant) error {
	query := fmt.Sprintf(`INSERT INTO restaurants (id, name, google_place_id, location) VALUES (%s, %s, %s, %s)`,
		s.placeholder(1), s.placeholder(2), s.placeholder(3), s.placeholder(4))
	if _, err := s.db.ExecContext(ctx, query, r.ID, r.Name, nullable(r.GooglePlaceID), nullable(r.Location)); err != nil {
		return fmt.Errorf("insert restaurant %s: %w", r.ID, err)
	}
	return nil
}

// AddDish inserts a dish; used to seed snapshots
func (s *Store) AddDish(ctx context.Context, d domain.DishRecord) error {
	query := fmt.Sprintf(`INSERT INTO dishes (id, name, restaurant_id, category) VALUES (%s, %s, %s, %s)`,
		s.placeholder(1), s.placeholder(2), s.placeholder(3), s.placeholder(4))
	if _, err := s.db.ExecContext(ctx, query, d.ID, d.Name, d.RestaurantID, nullable(d.Category)); err != nil {
		return fmt.Errorf("insert dish %s: %w", d.ID, err)
	}
	return nil
}

func (s *Store) placeholder(n int) string {
	if s.driver == DriverPostgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

func nullable(value string) any {
	if value == "" {
		return nil
	}
	return value
}
