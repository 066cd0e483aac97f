package database

import (
	"testing"

	"it-inventory/internal/models"
)

func TestMigrateAndSeedAdminIdempotent(t *testing.T) {
	db, err := Open(DriverSQLite, "file:TestMigrateAndSeedAdmin?mode=memory&cache=shared", false)
	if err != nil {
		t.Fatal(err)
	}
	if err := Migrate(db); err != nil {
		t.Fatal(err)
	}

	for _, table := range []string{"users", "devices", "personnel", "staff", "repairs",
		"device_logs", "personnel_logs", "staff_logs", "repair_logs"} {
		if !db.Migrator().HasTable(table) {
			t.Fatalf("missing table after migration: %s", table)
		}
	}

	if err := SeedAdmin(db, "administrator", "Admin123!"); err != nil {
		t.Fatal(err)
	}
	if err := SeedAdmin(db, "administrator", "Admin123!"); err != nil {
		t.Fatal(err)
	}

	var admins []models.User
	db.Where("is_admin = ?", true).Find(&admins)
	if len(admins) != 1 {
		t.Fatalf("expected exactly one admin, got %d", len(admins))
	}
	if !admins[0].IsElevated {
		t.Fatal("seeded admin should also be elevated")
	}
	if admins[0].PasswordHash == "Admin123!" {
		t.Fatal("password stored in plaintext")
	}
}

func TestOpen_unknownDriver(t *testing.T) {
	if _, err := Open("mysql", "dsn", false); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}
