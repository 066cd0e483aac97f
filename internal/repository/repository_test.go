package repository

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"it-inventory/internal/audit"
	"it-inventory/internal/database"
	apperrors "it-inventory/internal/errors"
	"it-inventory/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
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

func newDevice(model, asset, serial string) *models.Device {
	return &models.Device{
		ModelName:    model,
		AssetNumber:  asset,
		SerialNumber: serial,
		Manufacturer: "Dell",
		PurchaseDate: time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC),
		Status:       models.DeviceAvailable,
	}
}

func newPersonnel(first, last string) *models.Personnel {
	return &models.Personnel{
		FirstName:         first,
		LastName:          last,
		LaptopUsername:    strings.ToLower(first),
		LaptopPassword:    "pw",
		MicrosoftEmail:    strings.ToLower(first) + "@school.org",
		MicrosoftPassword: "pw",
	}
}

func logCount(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	if err := db.Model(model).Count(&n).Error; err != nil {
		t.Fatalf("count logs: %v", err)
	}
	return n
}

func TestCreate_duplicateAssetNumber(t *testing.T) {
	db := setupTestDB(t)
	repo := New(db, audit.NewWriter(), DeviceResource)
	ctx := context.Background()

	if _, err := repo.Create(ctx, newDevice("Latitude 5420", "A-100", "SN1")); err != nil {
		t.Fatal(err)
	}
	_, err := repo.Create(ctx, newDevice("Latitude 7420", "A-100", "SN2"))
	if !apperrors.Is(err, apperrors.ErrDuplicate) {
		t.Fatalf("expected DUPLICATE, got %v", err)
	}

	n, _ := repo.Count(ctx)
	if n != 1 {
		t.Fatalf("expected 1 device, got %d", n)
	}
}

func TestCreate_validation(t *testing.T) {
	db := setupTestDB(t)
	repo := New(db, audit.NewWriter(), DeviceResource)

	d := newDevice("", "A-1", "SN1")
	d.Status = "Lost"
	_, err := repo.Create(context.Background(), d)

	var appErr *apperrors.AppError
	if !apperrors.As(err, &appErr) || appErr.Code != apperrors.ErrValidation {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
	if appErr.Fields["model_name"] != "required" || appErr.Fields["status"] != "invalid_choice" {
		t.Fatalf("unexpected field errors: %v", appErr.Fields)
	}
}

func TestGet_notFound(t *testing.T) {
	db := setupTestDB(t)
	repo := New(db, audit.NewWriter(), RepairResource)

	_, err := repo.Get(context.Background(), 999)
	if !apperrors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestList_searchStatusAndSort(t *testing.T) {
	db := setupTestDB(t)
	repo := New(db, audit.NewWriter(), DeviceResource)
	ctx := context.Background()

	for _, d := range []*models.Device{
		newDevice("Latitude 5420", "A-300", "SN1"),
		newDevice("OptiPlex 7090", "A-100", "SN2"),
		newDevice("Latitude 7420", "A-200", "SN3"),
	} {
		if _, err := repo.Create(ctx, d); err != nil {
			t.Fatal(err)
		}
	}
	inRepair := newDevice("Chromebook", "A-400", "SN4")
	inRepair.Status = models.DeviceInRepair
	if _, err := repo.Create(ctx, inRepair); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		query Query
		want  []string
	}{
		{"default sort", Query{}, []string{"A-400", "A-300", "A-200", "A-100"}},
		{"case-insensitive search", Query{Search: "LATITUDE"}, []string{"A-300", "A-200"}},
		{"search by asset", Query{Search: "a-1"}, []string{"A-100"}},
		{"status filter", Query{Status: models.DeviceInRepair}, []string{"A-400"}},
		{"sort by asset number", Query{SortBy: "asset_number"}, []string{"A-100", "A-200", "A-300", "A-400"}},
		{"wildcards are literal", Query{Search: "%"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.List(ctx, tt.query)
			if err != nil {
				t.Fatal(err)
			}
			var assets []string
			for _, d := range got {
				assets = append(assets, d.AssetNumber)
			}
			if strings.Join(assets, ",") != strings.Join(tt.want, ",") {
				t.Fatalf("got %v, want %v", assets, tt.want)
			}
		})
	}
}

func TestList_rejectsUnknownSortKey(t *testing.T) {
	db := setupTestDB(t)
	repo := New(db, audit.NewWriter(), DeviceResource)

	for _, key := range []string{"password", "id; DROP TABLE devices", "Status"} {
		_, err := repo.List(context.Background(), Query{SortBy: key})
		if !apperrors.Is(err, apperrors.ErrValidation) {
			t.Fatalf("sort key %q: expected VALIDATION_ERROR, got %v", key, err)
		}
	}
	if !db.Migrator().HasTable("devices") {
		t.Fatal("devices table is gone")
	}
}

func TestList_statusFilterWithoutStatusColumn(t *testing.T) {
	db := setupTestDB(t)
	repo := New(db, audit.NewWriter(), PersonnelResource)

	_, err := repo.List(context.Background(), Query{Status: "active"})
	if !apperrors.Is(err, apperrors.ErrValidation) {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
}

func TestUpdate_statusChangeExample(t *testing.T) {
	db := setupTestDB(t)
	repo := New(db, audit.NewWriter(), DeviceResource)
	ctx := context.Background()

	id, err := repo.Create(ctx, newDevice("Latitude 5420", "A-100", "SN1"))
	if err != nil {
		t.Fatal(err)
	}
	stored, _ := repo.Get(ctx, id)

	submitted := *stored
	submitted.Status = models.DeviceInRepair
	changes, err := repo.Update(ctx, id, &submitted, audit.Actor{})
	if err != nil {
		t.Fatal(err)
	}

	if len(changes) != 1 || changes[0] != "Status changed from Available to In Repair" {
		t.Fatalf("unexpected changes %q", changes)
	}
	got, _ := repo.Get(ctx, id)
	if got.Status != models.DeviceInRepair {
		t.Fatalf("status not persisted: %q", got.Status)
	}

	history, err := repo.History(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 1 || history[0].ChangeDescription != changes[0] {
		t.Fatalf("unexpected history %+v", history)
	}
}

func TestUpdate_roundTripAndLogCount(t *testing.T) {
	db := setupTestDB(t)
	repo := New(db, audit.NewWriter(), PersonnelResource)
	devices := New(db, audit.NewWriter(), DeviceResource)
	ctx := context.Background()

	deviceID, err := devices.Create(ctx, newDevice("Latitude 5420", "A-100", "SN1"))
	if err != nil {
		t.Fatal(err)
	}
	id, err := repo.Create(ctx, newPersonnel("Ada", "Lovelace"))
	if err != nil {
		t.Fatal(err)
	}

	submitted := newPersonnel("Ada", "King")
	submitted.GoogleEmail = "ada@gmail.com"
	submitted.DeviceID = &deviceID

	changes, err := repo.Update(ctx, id, submitted, audit.Actor{})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		"Last Name changed from Lovelace to King",
		"Google Email changed from (empty) to ada@gmail.com",
		"Device ID changed from (empty) to " + strconv.FormatUint(uint64(deviceID), 10),
	}
	if strings.Join(changes, "|") != strings.Join(want, "|") {
		t.Fatalf("changes = %q, want %q", changes, want)
	}

	got, _ := repo.Get(ctx, id)
	if got.LastName != "King" || got.GoogleEmail != "ada@gmail.com" || got.DeviceID == nil || *got.DeviceID != deviceID {
		t.Fatalf("snapshot not persisted: %+v", got)
	}
	if n := logCount(t, db, &models.PersonnelLog{}); n != int64(len(changes)) {
		t.Fatalf("expected %d log rows, got %d", len(changes), n)
	}

	// same snapshot again: nothing to record
	again, err := repo.Update(ctx, id, submitted, audit.Actor{})
	if err != nil {
		t.Fatal(err)
	}
	if len(again) != 0 {
		t.Fatalf("expected no changes, got %q", again)
	}
	if n := logCount(t, db, &models.PersonnelLog{}); n != int64(len(changes)) {
		t.Fatalf("no-op update wrote log rows: %d", n)
	}
}

func TestUpdate_duplicateRollsBack(t *testing.T) {
	db := setupTestDB(t)
	repo := New(db, audit.NewWriter(), DeviceResource)
	ctx := context.Background()

	if _, err := repo.Create(ctx, newDevice("Latitude", "A-100", "SN1")); err != nil {
		t.Fatal(err)
	}
	id, err := repo.Create(ctx, newDevice("OptiPlex", "A-200", "SN2"))
	if err != nil {
		t.Fatal(err)
	}

	submitted := newDevice("OptiPlex 2", "A-100", "SN2")
	if _, err := repo.Update(ctx, id, submitted, audit.Actor{}); !apperrors.Is(err, apperrors.ErrDuplicate) {
		t.Fatalf("expected DUPLICATE, got %v", err)
	}
	got, _ := repo.Get(ctx, id)
	if got.ModelName != "OptiPlex" || got.AssetNumber != "A-200" {
		t.Fatalf("partial write: %+v", got)
	}
	if n := logCount(t, db, &models.DeviceLog{}); n != 0 {
		t.Fatalf("expected no log rows, got %d", n)
	}
}

func TestUpdate_logFailureRollsBackEntity(t *testing.T) {
	db := setupTestDB(t)
	repo := New(db, audit.NewWriter(), DeviceResource)
	ctx := context.Background()

	id, err := repo.Create(ctx, newDevice("Latitude 5420", "A-100", "SN1"))
	if err != nil {
		t.Fatal(err)
	}
	if err := db.Migrator().DropTable(&models.DeviceLog{}); err != nil {
		t.Fatal(err)
	}

	submitted := newDevice("Latitude 5420", "A-100", "SN1")
	submitted.Status = models.DeviceInUse
	if _, err := repo.Update(ctx, id, submitted, audit.Actor{}); err == nil {
		t.Fatal("expected update to fail without a log table")
	}

	got, err := repo.Get(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != models.DeviceAvailable {
		t.Fatalf("entity change survived a failed log write: %q", got.Status)
	}
}

// There is no version column: a stale snapshot overwrites a newer edit.
func TestUpdate_lastWriteWins(t *testing.T) {
	db := setupTestDB(t)
	repo := New(db, audit.NewWriter(), DeviceResource)
	ctx := context.Background()

	id, _ := repo.Create(ctx, newDevice("Latitude 5420", "A-100", "SN1"))
	original, _ := repo.Get(ctx, id)

	first := *original
	first.Manufacturer = "HP"
	if _, err := repo.Update(ctx, id, &first, audit.Actor{}); err != nil {
		t.Fatal(err)
	}

	stale := *original
	stale.Status = models.DeviceInUse
	changes, err := repo.Update(ctx, id, &stale, audit.Actor{})
	if err != nil {
		t.Fatal(err)
	}

	got, _ := repo.Get(ctx, id)
	if got.Manufacturer != "Dell" || got.Status != models.DeviceInUse {
		t.Fatalf("expected the stale snapshot to win, got %+v", got)
	}
	if len(changes) != 2 || changes[0] != "Manufacturer changed from HP to Dell" {
		t.Fatalf("unexpected changes %q", changes)
	}
}

func TestUpdate_keepsStoredAttachment(t *testing.T) {
	db := setupTestDB(t)
	repo := New(db, audit.NewWriter(), RepairResource)
	ctx := context.Background()

	id, err := repo.Create(ctx, &models.Repair{
		FirstName:   "Sam",
		LastName:    "Doe",
		AssetID:     "A-100",
		SlipPicture: "slips/abc.png",
		Status:      models.RepairPending,
	})
	if err != nil {
		t.Fatal(err)
	}

	submitted := &models.Repair{
		FirstName: "Sam",
		LastName:  "Doe",
		AssetID:   "A-100",
		Status:    models.RepairInProgress,
	}
	changes, err := repo.Update(ctx, id, submitted, audit.Actor{})
	if err != nil {
		t.Fatal(err)
	}
	if len(changes) != 1 || changes[0] != "Status changed from repair_pending to repair_inprogress" {
		t.Fatalf("unexpected changes %q", changes)
	}
	got, _ := repo.Get(ctx, id)
	if got.SlipPicture != "slips/abc.png" {
		t.Fatalf("stored attachment lost: %q", got.SlipPicture)
	}
}

func TestUpdate_longNotesAreLogged(t *testing.T) {
	db := setupTestDB(t)
	repo := New(db, audit.NewWriter(), RepairResource)
	ctx := context.Background()

	before := strings.Repeat("cracked hinge, ", 30)
	after := strings.Repeat("hinge and screen replaced, ", 30)
	id, err := repo.Create(ctx, &models.Repair{FirstName: "Sam", LastName: "Doe", Notes: before, Status: models.RepairPending})
	if err != nil {
		t.Fatal(err)
	}

	submitted := &models.Repair{FirstName: "Sam", LastName: "Doe", Notes: after, Status: models.RepairPending}
	if _, err := repo.Update(ctx, id, submitted, audit.Actor{}); err != nil {
		t.Fatal(err)
	}

	var logs []models.RepairLog
	db.Where("repair_id = ?", id).Find(&logs)
	want := "Notes changed from " + before + " to " + after
	if len(want) <= 500 {
		t.Fatalf("test notes too short: %d", len(want))
	}
	if len(logs) != 1 || logs[0].ChangeDescription != want {
		t.Fatalf("long change not stored in full: %+v", logs)
	}

	s, err := schema.Parse(&models.RepairLog{}, &sync.Map{}, schema.NamingStrategy{})
	if err != nil {
		t.Fatal(err)
	}
	f := s.LookUpField("change_description")
	if f == nil || f.DataType != "text" || f.Size != 0 {
		t.Fatalf("change_description must be an unbounded text column, got %+v", f)
	}
}

func TestDelete_removesOnlyOwnLogs(t *testing.T) {
	db := setupTestDB(t)
	w := audit.NewWriter()
	repo := New(db, w, DeviceResource)
	ctx := context.Background()

	a, _ := repo.Create(ctx, newDevice("Latitude", "A-100", "SN1"))
	b, _ := repo.Create(ctx, newDevice("OptiPlex", "A-200", "SN2"))
	for _, id := range []uint{a, b} {
		d, _ := repo.Get(ctx, id)
		d.Status = models.DeviceInUse
		d.AssignedUser = "someone"
		if _, err := repo.Update(ctx, id, d, audit.Actor{}); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Record(db, models.EntityPersonnel, a, []string{"unrelated"}, audit.Actor{}); err != nil {
		t.Fatal(err)
	}

	if err := repo.Delete(ctx, a); err != nil {
		t.Fatal(err)
	}

	if _, err := repo.Get(ctx, a); !apperrors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected device to be gone, got %v", err)
	}
	remaining, _ := audit.History(db, models.EntityDevice, b)
	if len(remaining) != 2 {
		t.Fatalf("other device lost history: %d rows", len(remaining))
	}
	if n := logCount(t, db, &models.DeviceLog{}); n != 2 {
		t.Fatalf("expected 2 device log rows, got %d", n)
	}
	if n := logCount(t, db, &models.PersonnelLog{}); n != 1 {
		t.Fatalf("personnel log with the same id was removed")
	}

	if err := repo.Delete(ctx, a); !apperrors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("second delete: expected NOT_FOUND, got %v", err)
	}
}

func TestDeleteDevice_clearsPersonnelReference(t *testing.T) {
	db := setupTestDB(t)
	set := NewSet(db, audit.NewWriter())
	ctx := context.Background()

	deviceID, _ := set.Devices.Create(ctx, newDevice("Latitude", "A-100", "SN1"))
	p := newPersonnel("Grace", "Hopper")
	p.DeviceID = &deviceID
	pid, err := set.Personnel.Create(ctx, p)
	if err != nil {
		t.Fatal(err)
	}

	if err := set.Devices.Delete(ctx, deviceID); err != nil {
		t.Fatal(err)
	}
	got, err := set.Personnel.Get(ctx, pid)
	if err != nil {
		t.Fatal(err)
	}
	if got.DeviceID != nil {
		t.Fatalf("expected device reference cleared, got %d", *got.DeviceID)
	}
}

func TestPersonnel_unknownDeviceRejected(t *testing.T) {
	db := setupTestDB(t)
	repo := New(db, audit.NewWriter(), PersonnelResource)

	missing := uint(404)
	p := newPersonnel("Alan", "Turing")
	p.DeviceID = &missing

	_, err := repo.Create(context.Background(), p)
	if !apperrors.Is(err, apperrors.ErrValidation) {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
}
