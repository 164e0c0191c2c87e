package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platewise/reviewpipe/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()

	store, err := NewSQLite(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	require.NoError(t, store.Migrate(ctx))
	return store
}

func TestStore_ListRestaurants(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.AddRestaurant(ctx, domain.Restaurant{ID: "r2", Name: "Thurston's", GooglePlaceID: "ChIJ2", Location: "Bernard"}))
	require.NoError(t, store.AddRestaurant(ctx, domain.Restaurant{ID: "r1", Name: "Beal's Lobster Pier"}))

	restaurants, err := store.ListRestaurants(ctx)

	require.NoError(t, err)
	assert.Equal(t, []domain.Restaurant{
		{ID: "r1", Name: "Beal's Lobster Pier"},
		{ID: "r2", Name: "Thurston's", GooglePlaceID: "ChIJ2", Location: "Bernard"},
	}, restaurants)
}

func TestStore_ListDishes(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.AddRestaurant(ctx, domain.Restaurant{ID: "r1", Name: "Beal's"}))
	require.NoError(t, store.AddDish(ctx, domain.DishRecord{ID: "d2", Name: "Lobster Roll", RestaurantID: "r1", Category: "Sandwiches"}))
	require.NoError(t, store.AddDish(ctx, domain.DishRecord{ID: "d1", Name: "Clam Chowder", RestaurantID: "r1"}))

	dishes, err := store.ListDishes(ctx)

	require.NoError(t, err)
	require.Len(t, dishes, 2)
	assert.Equal(t, "Clam Chowder", dishes[0].Name)
	assert.Equal(t, "", dishes[0].Category)
	assert.Equal(t, "Sandwiches", dishes[1].Category)

	index := domain.NewDishIndex(dishes)
	assert.Len(t, index["r1"], 2)
}

func TestStore_EmptyCatalog(t *testing.T) {
	store := newTestStore(t)

	restaurants, err := store.ListRestaurants(context.Background())
	require.NoError(t, err)
	assert.Empty(t, restaurants)
}

func TestStore_QueryWithoutSchema(t *testing.T) {
	store, err := NewSQLite(context.Background(), ":memory:")
	require.NoError(t, err)
	defer store.Close()

	_, err = store.ListDishes(context.Background())
	assert.Error(t, err)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "dsn")
	assert.True(t, errors.Is(err, domain.ErrInvalidConfig))
}

func TestPlaceholder(t *testing.T) {
	assert.Equal(t, "$2", (&Store{driver: DriverPostgres}).placeholder(2))
	assert.Equal(t, "?", (&Store{driver: DriverSQLite}).placeholder(2))
}
