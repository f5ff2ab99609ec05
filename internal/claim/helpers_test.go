package claim

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/erazemk/factorclaim/internal/clock"
	"github.com/erazemk/factorclaim/internal/db"
	"github.com/erazemk/factorclaim/internal/model"
	"github.com/erazemk/factorclaim/internal/store"
)

var testNow = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

const day = 24 * time.Hour

type env struct {
	db       *sql.DB
	clock    *clock.Fake
	svc      *Service
	rep      *model.Rep
	merchant *model.Merchant
	user     *model.User
}

func newEnv(t *testing.T, opts ...Option) *env {
	t.Helper()
	return newEnvWithDB(t, db.NewTestDB(t), opts...)
}

func newEnvWithDB(t *testing.T, database *sql.DB, opts ...Option) *env {
	t.Helper()
	ctx := context.Background()

	rep, err := store.CreateRep(ctx, database, model.Rep{Name: "Rep", Contact: "03001234567", IsActive: true})
	require.NoError(t, err)
	merchant, err := store.CreateMerchant(ctx, database, model.Merchant{
		Name: "Shop", Address: "Mall Road", Contact: "03007654321", IsActive: true,
	})
	require.NoError(t, err)
	user, err := store.CreateUser(ctx, database, model.User{
		Name: "Factory", Email: "factory@example.com", PasswordHash: "x", Role: model.RoleFactory, IsActive: true,
	})
	require.NoError(t, err)

	fake := clock.NewFake(testNow)
	opts = append([]Option{WithClock(fake)}, opts...)
	return &env{
		db:       database,
		clock:    fake,
		svc:      NewService(database, opts...),
		rep:      rep,
		merchant: merchant,
		user:     user,
	}
}

// itemAged creates an item produced age before testNow.
func (e *env) itemAged(t *testing.T, age time.Duration) *model.Item {
	t.Helper()
	item, err := store.CreateItem(context.Background(), e.db, model.Item{
		ModelName:      "Mono 550",
		ItemType:       "Solar Panel",
		Batch:          "B" + age.String(),
		ProductionDate: testNow.Add(-age),
		Wattage:        550,
		Supplier:       "Sun Co",
	})
	require.NoError(t, err)
	return item
}

func (e *env) newClaim(lines ...model.ClaimLine) NewClaim {
	return NewClaim{RepID: e.rep.ID, MerchantID: e.merchant.ID, Items: lines}
}

func (e *env) mustCreate(t *testing.T, lines ...model.ClaimLine) *model.Claim {
	t.Helper()
	c, err := e.svc.Create(context.Background(), e.newClaim(lines...))
	require.NoError(t, err)
	return c
}

func line(item *model.Item, qty int) model.ClaimLine {
	return model.ClaimLine{ItemID: item.ID, Quantity: qty}
}
