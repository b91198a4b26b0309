package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"coursehunter/internal/database"
	"coursehunter/internal/model"
	"coursehunter/internal/ratelimit"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

type testStore struct {
	orders  OrderRepository
	history PurchaseHistoryRepository
}

// setupTestDB starts a PostgreSQL container and returns a migrated pool.
func setupTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	require.NoError(t, MigratePostgres(ctx, pool))

	cleanup := func() {
		pool.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}

	return pool, cleanup
}

func setupSQLite(t *testing.T) testStore {
	t.Helper()
	ctx := context.Background()

	db, err := database.OpenSQLite(ctx, filepath.Join(t.TempDir(), "test.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, MigrateSQLite(ctx, db))

	return testStore{
		orders:  NewSQLiteOrderRepository(db, zerolog.Nop()),
		history: NewSQLitePurchaseHistoryRepository(db, zerolog.Nop()),
	}
}

// forEachDriver runs fn against a fresh SQLite store and, unless -short is
// set, a fresh PostgreSQL container.
func forEachDriver(t *testing.T, fn func(t *testing.T, s testStore)) {
	t.Run("sqlite", func(t *testing.T) {
		fn(t, setupSQLite(t))
	})
	t.Run("postgres", func(t *testing.T) {
		pool, cleanup := setupTestDB(t)
		defer cleanup()
		fn(t, testStore{
			orders:  NewOrderRepository(pool, zerolog.Nop()),
			history: NewPurchaseHistoryRepository(pool, zerolog.Nop()),
		})
	})
}

// baseTime is truncated to microseconds to survive a TIMESTAMPTZ round trip.
var baseTime = time.Date(2024, 5, 1, 10, 0, 0, 123456000, time.UTC)

func newTestOrder(t *testing.T, courseID int, handle string, at time.Time) *model.Order {
	t.Helper()
	order, err := model.NewOrder(courseID, "Course", handle, at)
	require.NoError(t, err)
	return order
}

func TestOrderRepository_CreateAndGet(t *testing.T) {
	forEachDriver(t, func(t *testing.T, s testStore) {
		ctx := context.Background()
		order := newTestOrder(t, 13, "alice_01", baseTime)

		require.NoError(t, s.orders.Create(ctx, order))

		got, err := s.orders.GetByID(ctx, order.ID)
		require.NoError(t, err)
		require.NotNil(t, got)

		assert.Equal(t, order.ID, got.ID)
		assert.Equal(t, 13, got.CourseID)
		assert.Equal(t, "Course", got.CourseTitle)
		assert.Equal(t, "alice_01", got.BuyerHandle)
		assert.Equal(t, model.OrderStatusPending, got.Status)
		assert.True(t, baseTime.Equal(got.CreatedAt))
		assert.True(t, baseTime.Equal(got.UpdatedAt))
		assert.Nil(t, got.CompletedAt)
	})
}

func TestOrderRepository_GetByID_NotFound(t *testing.T) {
	forEachDriver(t, func(t *testing.T, s testStore) {
		got, err := s.orders.GetByID(context.Background(), uuid.New())
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestOrderRepository_Create_DuplicateID(t *testing.T) {
	forEachDriver(t, func(t *testing.T, s testStore) {
		ctx := context.Background()
		order := newTestOrder(t, 1, "alice_01", baseTime)

		require.NoError(t, s.orders.Create(ctx, order))
		err := s.orders.Create(ctx, order)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create order")
	})
}

func TestOrderRepository_List(t *testing.T) {
	forEachDriver(t, func(t *testing.T, s testStore) {
		ctx := context.Background()

		first := newTestOrder(t, 1, "alice_01", baseTime)
		second := newTestOrder(t, 2, "bobby_02", baseTime.Add(time.Minute))
		third := newTestOrder(t, 3, "alice_01", baseTime.Add(2*time.Minute))

		// Insert out of order to check sorting.
		for _, o := range []*model.Order{third, first, second} {
			require.NoError(t, s.orders.Create(ctx, o))
		}
		require.NoError(t, s.orders.MarkCompleted(ctx, second.ID, baseTime.Add(time.Hour)))

		tests := []struct {
			name     string
			status   model.OrderStatus
			expected []uuid.UUID
		}{
			{name: "All", status: "", expected: []uuid.UUID{first.ID, second.ID, third.ID}},
			{name: "Pending", status: model.OrderStatusPending, expected: []uuid.UUID{first.ID, third.ID}},
			{name: "Completed", status: model.OrderStatusCompleted, expected: []uuid.UUID{second.ID}},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				orders, err := s.orders.List(ctx, tt.status)
				require.NoError(t, err)

				ids := make([]uuid.UUID, 0, len(orders))
				for _, o := range orders {
					ids = append(ids, o.ID)
				}
				assert.Equal(t, tt.expected, ids)
			})
		}
	})
}

func TestOrderRepository_List_Empty(t *testing.T) {
	forEachDriver(t, func(t *testing.T, s testStore) {
		orders, err := s.orders.List(context.Background(), "")
		require.NoError(t, err)
		assert.NotNil(t, orders)
		assert.Empty(t, orders)
	})
}

func TestOrderRepository_MarkCompleted(t *testing.T) {
	forEachDriver(t, func(t *testing.T, s testStore) {
		ctx := context.Background()
		order := newTestOrder(t, 5, "alice_01", baseTime)
		require.NoError(t, s.orders.Create(ctx, order))

		completedAt := baseTime.Add(30 * time.Minute)
		require.NoError(t, s.orders.MarkCompleted(ctx, order.ID, completedAt))

		got, err := s.orders.GetByID(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, model.OrderStatusCompleted, got.Status)
		require.NotNil(t, got.CompletedAt)
		assert.True(t, completedAt.Equal(*got.CompletedAt))
		assert.True(t, completedAt.Equal(got.UpdatedAt))
		assert.True(t, baseTime.Equal(got.CreatedAt))

		err = s.orders.MarkCompleted(ctx, order.ID, completedAt)
		assert.ErrorIs(t, err, model.ErrOrderCompleted)

		err = s.orders.MarkCompleted(ctx, uuid.New(), completedAt)
		assert.ErrorIs(t, err, model.ErrOrderNotFound)
	})
}

func TestOrderRepository_Delete(t *testing.T) {
	forEachDriver(t, func(t *testing.T, s testStore) {
		ctx := context.Background()
		order := newTestOrder(t, 5, "alice_01", baseTime)
		require.NoError(t, s.orders.Create(ctx, order))

		require.NoError(t, s.orders.Delete(ctx, order.ID))

		got, err := s.orders.GetByID(ctx, order.ID)
		require.NoError(t, err)
		assert.Nil(t, got)

		err = s.orders.Delete(ctx, order.ID)
		assert.ErrorIs(t, err, model.ErrOrderNotFound)
	})
}

func TestPurchaseHistoryRepository_GetMissing(t *testing.T) {
	forEachDriver(t, func(t *testing.T, s testStore) {
		entry, err := s.history.Get(context.Background(), "nobody_here")
		require.NoError(t, err)
		assert.Nil(t, entry)
	})
}

func TestPurchaseHistoryRepository_SaveAndGet(t *testing.T) {
	forEachDriver(t, func(t *testing.T, s testStore) {
		ctx := context.Background()
		until := baseTime.Add(30 * time.Minute)

		entry := ratelimit.Entry{
			BuyerHandle: "alice_01",
			Purchases: []ratelimit.Purchase{
				{Timestamp: baseTime, CourseID: 1},
				{Timestamp: baseTime.Add(time.Minute), CourseID: 2},
			},
		}
		require.NoError(t, s.history.Save(ctx, entry))

		got, err := s.history.Get(ctx, "alice_01")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "alice_01", got.BuyerHandle)
		require.Len(t, got.Purchases, 2)
		assert.Equal(t, 2, got.Purchases[1].CourseID)
		assert.True(t, baseTime.Add(time.Minute).Equal(got.Purchases[1].Timestamp))
		assert.Nil(t, got.CooldownUntil)

		// Upsert replaces purchases and arms the cooldown.
		entry.Purchases = entry.Purchases[:1]
		entry.CooldownUntil = &until
		require.NoError(t, s.history.Save(ctx, entry))

		got, err = s.history.Get(ctx, "alice_01")
		require.NoError(t, err)
		assert.Len(t, got.Purchases, 1)
		require.NotNil(t, got.CooldownUntil)
		assert.True(t, until.Equal(*got.CooldownUntil))
	})
}

func TestPurchaseHistoryRepository_ListCoolingDown(t *testing.T) {
	forEachDriver(t, func(t *testing.T, s testStore) {
		ctx := context.Background()
		until := baseTime.Add(30 * time.Minute)

		require.NoError(t, s.history.Save(ctx, ratelimit.Entry{BuyerHandle: "zed_user", CooldownUntil: &until}))
		require.NoError(t, s.history.Save(ctx, ratelimit.Entry{BuyerHandle: "calm_user"}))
		require.NoError(t, s.history.Save(ctx, ratelimit.Entry{BuyerHandle: "amy_user", CooldownUntil: &until}))

		entries, err := s.history.ListCoolingDown(ctx)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, "amy_user", entries[0].BuyerHandle)
		assert.Equal(t, "zed_user", entries[1].BuyerHandle)
		assert.Empty(t, entries[0].Purchases)
	})
}

func TestPurchaseHistoryRepository_ClearExpiredCooldowns(t *testing.T) {
	forEachDriver(t, func(t *testing.T, s testStore) {
		ctx := context.Background()
		now := baseTime
		expired := now.Add(-time.Minute)
		active := now.Add(time.Hour)
		purchases := []ratelimit.Purchase{
			{Timestamp: now.Add(-2 * time.Minute), CourseID: 4},
			{Timestamp: now.Add(-time.Minute), CourseID: 9},
		}

		require.NoError(t, s.history.Save(ctx, ratelimit.Entry{BuyerHandle: "old_user", Purchases: purchases, CooldownUntil: &expired}))
		require.NoError(t, s.history.Save(ctx, ratelimit.Entry{BuyerHandle: "edge_user", CooldownUntil: &now}))
		require.NoError(t, s.history.Save(ctx, ratelimit.Entry{BuyerHandle: "new_user", CooldownUntil: &active}))
		require.NoError(t, s.history.Save(ctx, ratelimit.Entry{BuyerHandle: "calm_user"}))

		cleared, err := s.history.ClearExpiredCooldowns(ctx, now)
		require.NoError(t, err)
		assert.Equal(t, []string{"old_user"}, cleared)

		old, err := s.history.Get(ctx, "old_user")
		require.NoError(t, err)
		require.NotNil(t, old)
		assert.Nil(t, old.CooldownUntil)
		require.Len(t, old.Purchases, 2)
		for i := range purchases {
			assert.True(t, purchases[i].Timestamp.Equal(old.Purchases[i].Timestamp))
			assert.Equal(t, purchases[i].CourseID, old.Purchases[i].CourseID)
		}

		// A cooldown ending exactly now is not yet expired.
		edge, err := s.history.Get(ctx, "edge_user")
		require.NoError(t, err)
		require.NotNil(t, edge.CooldownUntil)

		again, err := s.history.ClearExpiredCooldowns(ctx, now)
		require.NoError(t, err)
		assert.Empty(t, again)
	})
}

// purchaseDuringSweep records a purchase for handle through the repository
// right before the sweep statement runs, the way a request racing the
// sweeper would.
type purchaseDuringSweep struct {
	PurchaseHistoryRepository
	t       *testing.T
	limiter *ratelimit.Limiter
	handle  string
	at      time.Time
}

func (p purchaseDuringSweep) ClearExpiredCooldowns(ctx context.Context, now time.Time) ([]string, error) {
	entry, err := p.Get(ctx, p.handle)
	require.NoError(p.t, err)

	history := ratelimit.History{}
	if entry != nil {
		history[p.handle] = *entry
	}
	p.limiter.RecordPurchase(history, p.handle, 11, p.at)
	require.NoError(p.t, p.Save(ctx, history[p.handle]))

	return p.PurchaseHistoryRepository.ClearExpiredCooldowns(ctx, now)
}

func TestSweeper_ConcurrentPurchaseKeepsHistory(t *testing.T) {
	policy := ratelimit.DefaultPolicy()

	forEachDriver(t, func(t *testing.T, s testStore) {
		ctx := context.Background()
		// The sweeper reads the wall clock, so the fixture must too.
		now := time.Now().UTC().Truncate(time.Microsecond)
		expired := now.Add(-time.Second)

		t.Run("Purchase is not lost", func(t *testing.T) {
			require.NoError(t, s.history.Save(ctx, ratelimit.Entry{
				BuyerHandle:   "alice_1",
				Purchases:     []ratelimit.Purchase{{Timestamp: now.Add(-time.Minute), CourseID: 3}},
				CooldownUntil: &expired,
			}))

			store := purchaseDuringSweep{PurchaseHistoryRepository: s.history, t: t, limiter: ratelimit.New(policy), handle: "alice_1", at: now}
			sweeper := ratelimit.NewSweeper(store, time.Minute, zerolog.Nop())

			_, err := sweeper.SweepOnce(ctx)
			require.NoError(t, err)

			got, err := s.history.Get(ctx, "alice_1")
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Len(t, got.Purchases, 2)
			assert.Nil(t, got.CooldownUntil)
		})

		t.Run("Fresh cooldown survives", func(t *testing.T) {
			var purchases []ratelimit.Purchase
			for i := range policy.MaxPurchases {
				purchases = append(purchases, ratelimit.Purchase{
					Timestamp: now.Add(-time.Duration(i+1) * time.Minute),
					CourseID:  i + 1,
				})
			}
			require.NoError(t, s.history.Save(ctx, ratelimit.Entry{
				BuyerHandle:   "bob_buyer",
				Purchases:     purchases,
				CooldownUntil: &expired,
			}))

			store := purchaseDuringSweep{PurchaseHistoryRepository: s.history, t: t, limiter: ratelimit.New(policy), handle: "bob_buyer", at: now}
			sweeper := ratelimit.NewSweeper(store, time.Minute, zerolog.Nop())

			_, err := sweeper.SweepOnce(ctx)
			require.NoError(t, err)

			got, err := s.history.Get(ctx, "bob_buyer")
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Len(t, got.Purchases, policy.MaxPurchases+1)
			require.NotNil(t, got.CooldownUntil)
			assert.True(t, now.Add(policy.Cooldown).Equal(*got.CooldownUntil))
		})
	})
}

func TestPurchaseHistoryRepository_SatisfiesSweeperStore(t *testing.T) {
	forEachDriver(t, func(t *testing.T, s testStore) {
		ctx := context.Background()
		now := time.Now().UTC().Truncate(time.Microsecond)
		expired := now.Add(-time.Minute)
		active := now.Add(time.Hour)

		require.NoError(t, s.history.Save(ctx, ratelimit.Entry{BuyerHandle: "old_user", CooldownUntil: &expired}))
		require.NoError(t, s.history.Save(ctx, ratelimit.Entry{BuyerHandle: "new_user", CooldownUntil: &active}))

		sweeper := ratelimit.NewSweeper(s.history, time.Minute, zerolog.Nop())

		cleared, err := sweeper.SweepOnce(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, cleared)

		entries, err := s.history.ListCoolingDown(ctx)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "new_user", entries[0].BuyerHandle)
	})
}
