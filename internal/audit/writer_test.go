package audit

import (
	"strings"
	"testing"
	"time"

	"it-inventory/internal/database"
	"it-inventory/internal/models"

	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	db, err := database.Open(database.DriverSQLite, "file:"+name+"?mode=memory&cache=shared", false)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB, name string) models.User {
	t.Helper()
	u := models.User{Username: name, PasswordHash: "x"}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("user: %v", err)
	}
	return u
}

func TestRecord_oneRowPerChange(t *testing.T) {
	db := setupTestDB(t)
	u := seedUser(t, db, "tech01")
	w := NewWriter()

	changes := []string{"Type changed from a to b", "Status changed from Available to In Use"}
	if err := w.Record(db, models.EntityDevice, 42, changes, ActorOf(u)); err != nil {
		t.Fatal(err)
	}

	entries, err := History(db, models.EntityDevice, 42)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 rows got %d", len(entries))
	}
	for i, e := range entries {
		if e.ChangeDescription != changes[i] {
			t.Errorf("row %d = %q, want %q", i, e.ChangeDescription, changes[i])
		}
		if e.EntityID != 42 {
			t.Errorf("row %d entity id = %d", i, e.EntityID)
		}
		if e.UserID == nil || *e.UserID != u.ID || e.Username != "tech01" {
			t.Errorf("row %d not attributed to acting user: %+v", i, e)
		}
	}
}

func TestRecord_emptyChangeListWritesNothing(t *testing.T) {
	db := setupTestDB(t)
	if err := NewWriter().Record(db, models.EntityRepair, 1, nil, Actor{ID: 1}); err != nil {
		t.Fatal(err)
	}
	var n int64
	db.Model(&models.RepairLog{}).Count(&n)
	if n != 0 {
		t.Fatalf("expected no rows, got %d", n)
	}
}

func TestRecord_timestampsNeverGoBackwards(t *testing.T) {
	db := setupTestDB(t)
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	ticks := []time.Time{base, base.Add(-time.Hour), base.Add(time.Minute)}
	i := 0
	w := NewWriterWithClock(func() time.Time {
		t := ticks[i%len(ticks)]
		i++
		return t
	})

	if err := w.Record(db, models.EntityStaff, 7, []string{"a", "b", "c"}, Actor{}); err != nil {
		t.Fatal(err)
	}
	entries, err := History(db, models.EntityStaff, 7)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(entries))
	}
	for j := 1; j < len(entries); j++ {
		if entries[j].Timestamp.Before(entries[j-1].Timestamp) {
			t.Fatalf("timestamp went backwards: %v then %v", entries[j-1].Timestamp, entries[j].Timestamp)
		}
	}
	if entries[0].ChangeDescription != "a" || entries[2].ChangeDescription != "c" {
		t.Fatalf("rows not in append order: %+v", entries)
	}
}

func TestHistory_scopedToEntity(t *testing.T) {
	db := setupTestDB(t)
	w := NewWriter()
	_ = w.Record(db, models.EntityPersonnel, 1, []string{"x"}, Actor{})
	_ = w.Record(db, models.EntityPersonnel, 2, []string{"y", "z"}, Actor{})
	_ = w.Record(db, models.EntityDevice, 1, []string{"other table"}, Actor{})

	entries, err := History(db, models.EntityPersonnel, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].ChangeDescription != "x" {
		t.Fatalf("unexpected history %+v", entries)
	}
}

func TestDeleteFor(t *testing.T) {
	db := setupTestDB(t)
	w := NewWriter()
	_ = w.Record(db, models.EntityRepair, 1, []string{"a", "b"}, Actor{})
	_ = w.Record(db, models.EntityRepair, 2, []string{"c"}, Actor{})

	if err := DeleteFor(db, models.EntityRepair, 1); err != nil {
		t.Fatal(err)
	}
	var n int64
	db.Model(&models.RepairLog{}).Count(&n)
	if n != 1 {
		t.Fatalf("expected 1 remaining row, got %d", n)
	}
}

func TestDetachUser_keepsHistory(t *testing.T) {
	db := setupTestDB(t)
	u := seedUser(t, db, "leaving1")
	w := NewWriter()
	_ = w.Record(db, models.EntityDevice, 3, []string{"Status changed from Available to In Use"}, ActorOf(u))

	if err := DetachUser(db, u.ID); err != nil {
		t.Fatal(err)
	}
	entries, _ := History(db, models.EntityDevice, 3)
	if len(entries) != 1 {
		t.Fatalf("history lost: %+v", entries)
	}
	if entries[0].UserID != nil {
		t.Fatalf("expected user reference cleared, got %v", *entries[0].UserID)
	}
	if entries[0].Username != "leaving1" {
		t.Fatalf("username snapshot lost: %q", entries[0].Username)
	}
}

func TestRecent_mergesTablesNewestFirst(t *testing.T) {
	db := setupTestDB(t)
	base := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	step := 0
	w := NewWriterWithClock(func() time.Time {
		step++
		return base.Add(time.Duration(step) * time.Minute)
	})
	actor := Actor{Username: "tech01"}

	if err := w.Record(db, models.EntityDevice, 1, []string{"device change"}, actor); err != nil {
		t.Fatal(err)
	}
	if err := w.Record(db, models.EntityRepair, 2, []string{"repair change"}, actor); err != nil {
		t.Fatal(err)
	}
	if err := w.Record(db, models.EntityStaff, 3, []string{"staff change"}, actor); err != nil {
		t.Fatal(err)
	}

	got, err := Recent(db, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	if got[0].Entity != models.EntityStaff || got[0].EntityID != 3 {
		t.Errorf("newest entry = %+v", got[0])
	}
	if got[1].Entity != models.EntityRepair || got[1].ChangeDescription != "repair change" {
		t.Errorf("second entry = %+v", got[1])
	}
}

func TestRecent_equalTimestampsOrderedByEntityThenID(t *testing.T) {
	db := setupTestDB(t)
	at := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	w := NewWriterWithClock(func() time.Time { return at })
	actor := Actor{Username: "tech01"}

	if err := w.Record(db, models.EntityStaff, 3, []string{"staff change"}, actor); err != nil {
		t.Fatal(err)
	}
	if err := w.Record(db, models.EntityRepair, 2, []string{"repair change"}, actor); err != nil {
		t.Fatal(err)
	}
	if err := w.Record(db, models.EntityDevice, 1, []string{"first device change", "second device change"}, actor); err != nil {
		t.Fatal(err)
	}

	got, err := Recent(db, 10)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"second device change", "first device change", "repair change", "staff change"}
	if len(got) != len(want) {
		t.Fatalf("expected %d entries, got %+v", len(want), got)
	}
	for i, desc := range want {
		if got[i].ChangeDescription != desc {
			t.Errorf("entry %d = %q, want %q", i, got[i].ChangeDescription, desc)
		}
	}
}
