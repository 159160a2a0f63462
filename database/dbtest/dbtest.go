// Package dbtest opens throwaway SQL stores for package tests.
package dbtest

import (
	"context"
	"testing"
	"time"

	"mindhaven/database"
	"mindhaven/database/repository"
	"mindhaven/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Open returns a migrated in-memory sqlite database closed at the end of the test.
func Open(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenGorm("sqlite", "file::memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// Stores returns repositories over a fresh in-memory database.
func Stores(t *testing.T) *repository.Stores {
	t.Helper()
	return repository.NewGormStores(Open(t))
}

// Principal stores a principal with the given role and returns it.
func Principal(t *testing.T, stores *repository.Stores, role models.Role, name string, peer bool) *models.Principal {
	t.Helper()
	now := time.Now().UTC()
	p := &models.Principal{
		ID:              uuid.NewString(),
		Role:            role,
		DisplayName:     name,
		Email:           name + "@example.com",
		PseudonymousID:  uuid.NewString()[:8],
		IsPeerCounselor: peer,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := stores.Principals.Create(context.Background(), p); err != nil {
		t.Fatalf("create principal: %v", err)
	}
	return p
}
