package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/erazemk/factorclaim/internal/model"
)

func mustCreateItem(t *testing.T, database *sql.DB, batch string, produced time.Time) *model.Item {
	t.Helper()
	item, err := CreateItem(context.Background(), database, model.Item{
		ModelName:      "Panel 450",
		ItemType:       "Solar Panel",
		Batch:          batch,
		ProductionDate: produced,
		Wattage:        450,
		Supplier:       "Sunrise",
	})
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	return item
}

func mustCreateRep(t *testing.T, database *sql.DB, name string) *model.Rep {
	t.Helper()
	rep, err := CreateRep(context.Background(), database, model.Rep{Name: name, Contact: "0300", IsActive: true})
	if err != nil {
		t.Fatalf("CreateRep: %v", err)
	}
	return rep
}

func mustCreateMerchant(t *testing.T, database *sql.DB, name string) *model.Merchant {
	t.Helper()
	m, err := CreateMerchant(context.Background(), database, model.Merchant{
		Name: name, Address: "Main Road", Contact: "0301", IsActive: true,
	})
	if err != nil {
		t.Fatalf("CreateMerchant: %v", err)
	}
	return m
}

func mustCreateUser(t *testing.T, database *sql.DB, email, role string) *model.User {
	t.Helper()
	u, err := CreateUser(context.Background(), database, model.User{
		Name: email, Email: email, PasswordHash: "hash", Role: role, IsActive: true,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return u
}
