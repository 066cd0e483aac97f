// Package audit appends and reads the per-entity change history.
package audit

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"it-inventory/internal/models"

	"gorm.io/gorm"
)

// Actor identifies the user a change is attributed to.
type Actor struct {
	ID       uint
	Username string
}

func ActorOf(u models.User) Actor {
	return Actor{ID: u.ID, Username: u.Username}
}

// Writer appends change-log rows on the caller's transaction. Timestamps handed out by one
// Writer never go backwards, even if the wall clock does.
type Writer struct {
	now func() time.Time

	mu   sync.Mutex
	last time.Time
}

func NewWriter() *Writer {
	return NewWriterWithClock(time.Now)
}

func NewWriterWithClock(now func() time.Time) *Writer {
	return &Writer{now: now}
}

func (w *Writer) stamp() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()

	t := w.now().UTC()
	if t.Before(w.last) {
		t = w.last
	}
	w.last = t
	return t
}

// Record appends one row per change. It must be called with the transaction that persisted
// the entity so that both commit or roll back together.
func (w *Writer) Record(tx *gorm.DB, entity models.EntityType, entityID uint, changes []string, actor Actor) error {
	if len(changes) == 0 {
		return nil
	}

	var userID *uint
	if actor.ID != 0 {
		id := actor.ID
		userID = &id
	}

	base := make([]models.ChangeLog, len(changes))
	for i, c := range changes {
		base[i] = models.ChangeLog{
			ChangeDescription: c,
			Timestamp:         w.stamp(),
			UserID:            userID,
			Username:          actor.Username,
		}
	}

	var rows any
	switch entity {
	case models.EntityDevice:
		logs := make([]models.DeviceLog, len(base))
		for i := range base {
			logs[i] = models.DeviceLog{ChangeLog: base[i], DeviceID: entityID}
		}
		rows = &logs
	case models.EntityPersonnel:
		logs := make([]models.PersonnelLog, len(base))
		for i := range base {
			logs[i] = models.PersonnelLog{ChangeLog: base[i], PersonnelID: entityID}
		}
		rows = &logs
	case models.EntityStaff:
		logs := make([]models.StaffLog, len(base))
		for i := range base {
			logs[i] = models.StaffLog{ChangeLog: base[i], StaffID: entityID}
		}
		rows = &logs
	case models.EntityRepair:
		logs := make([]models.RepairLog, len(base))
		for i := range base {
			logs[i] = models.RepairLog{ChangeLog: base[i], RepairID: entityID}
		}
		rows = &logs
	default:
		return fmt.Errorf("audit: unknown entity type %q", entity)
	}

	if err := tx.Omit("User").Create(rows).Error; err != nil {
		return fmt.Errorf("audit: append %s log: %w", entity, err)
	}
	return nil
}

// History returns the log rows of one entity in chronological order.
func History(db *gorm.DB, entity models.EntityType, entityID uint) ([]models.LogEntry, error) {
	owner := entity.OwnerColumn()

	var entries []models.LogEntry
	err := db.Table(entity.LogTable()).
		Select("id, "+owner+" AS entity_id, change_description, logged_at AS timestamp, user_id, username").
		Where(owner+" = ?", entityID).
		Order("logged_at asc, id asc").
		Scan(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("audit: load %s history: %w", entity, err)
	}
	return entries, nil
}

// Recent returns the latest limit rows across every log table, newest first.
func Recent(db *gorm.DB, limit int) ([]models.LogEntry, error) {
	var all []models.LogEntry
	for _, e := range models.EntityTypes {
		var entries []models.LogEntry
		err := db.Table(e.LogTable()).
			Select("id, "+e.OwnerColumn()+" AS entity_id, change_description, logged_at AS timestamp, user_id, username").
			Order("logged_at desc, id desc").
			Limit(limit).
			Scan(&entries).Error
		if err != nil {
			return nil, fmt.Errorf("audit: load recent %s history: %w", e, err)
		}
		for i := range entries {
			entries[i].Entity = e
		}
		all = append(all, entries...)
	}

	// Equal timestamps fall back to entity type, then newest id first.
	sort.Slice(all, func(i, j int) bool {
		a, b := all[i], all[j]
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.After(b.Timestamp)
		}
		if a.Entity != b.Entity {
			return a.Entity < b.Entity
		}
		return a.ID > b.ID
	})
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

// DeleteFor removes every log row owned by the entity.
func DeleteFor(tx *gorm.DB, entity models.EntityType, entityID uint) error {
	if err := tx.Where(entity.OwnerColumn()+" = ?", entityID).Delete(logModel(entity)).Error; err != nil {
		return fmt.Errorf("audit: delete %s history: %w", entity, err)
	}
	return nil
}

// DetachUser clears the user reference on every log row written by userID. The username
// snapshot stays, so history remains attributed after the account is gone.
func DetachUser(tx *gorm.DB, userID uint) error {
	for _, e := range models.EntityTypes {
		if err := tx.Model(logModel(e)).Where("user_id = ?", userID).Update("user_id", nil).Error; err != nil {
			return fmt.Errorf("audit: detach user from %s history: %w", e, err)
		}
	}
	return nil
}

func logModel(entity models.EntityType) any {
	switch entity {
	case models.EntityDevice:
		return &models.DeviceLog{}
	case models.EntityPersonnel:
		return &models.PersonnelLog{}
	case models.EntityStaff:
		return &models.StaffLog{}
	case models.EntityRepair:
		return &models.RepairLog{}
	}
	panic(fmt.Sprintf("audit: unknown entity type %q", string(entity)))
}
