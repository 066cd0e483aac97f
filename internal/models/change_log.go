package models

import (
	"fmt"
	"time"
)

// EntityType names a loggable resource.
type EntityType string

const (
	EntityDevice    EntityType = "device"
	EntityPersonnel EntityType = "personnel"
	EntityStaff     EntityType = "staff"
	EntityRepair    EntityType = "repair"
)

var EntityTypes = []EntityType{EntityDevice, EntityPersonnel, EntityStaff, EntityRepair}

// LogTable returns the change-log table owned by the entity type.
func (e EntityType) LogTable() string {
	switch e {
	case EntityDevice:
		return "device_logs"
	case EntityPersonnel:
		return "personnel_logs"
	case EntityStaff:
		return "staff_logs"
	case EntityRepair:
		return "repair_logs"
	}
	panic(fmt.Sprintf("models: unknown entity type %q", string(e)))
}

// OwnerColumn returns the column in LogTable referencing the owning entity.
func (e EntityType) OwnerColumn() string {
	return string(e) + "_id"
}

// ChangeLog holds the columns shared by every log table. Rows are written once and never
// updated; the acting user is kept by id and by name so history survives user deletion.
type ChangeLog struct {
	ID                uint      `gorm:"primaryKey"`
	ChangeDescription string    `gorm:"type:text;not null"`
	Timestamp         time.Time `gorm:"column:logged_at;not null;index"`
	UserID            *uint     `gorm:"index"`
	User              *User     `gorm:"constraint:OnDelete:SET NULL" json:"-"`
	Username          string    `gorm:"size:20"`
}

type DeviceLog struct {
	ChangeLog
	DeviceID uint `gorm:"not null;index"`
}

type PersonnelLog struct {
	ChangeLog
	PersonnelID uint `gorm:"not null;index"`
}

type StaffLog struct {
	ChangeLog
	StaffID uint `gorm:"not null;index"`
}

type RepairLog struct {
	ChangeLog
	RepairID uint `gorm:"not null;index"`
}

// LogEntry is the read model of one history row, independent of the table it came from.
type LogEntry struct {
	ID                uint       `json:"id"`
	Entity            EntityType `json:"entity,omitempty" gorm:"-"`
	EntityID          uint       `json:"entity_id"`
	ChangeDescription string     `json:"change_description"`
	Timestamp         time.Time  `json:"timestamp"`
	UserID            *uint      `json:"user_id"`
	Username          string     `json:"username"`
}

// AllModels lists every persisted type in migration order.
func AllModels() []any {
	return []any{
		&User{},
		&Device{},
		&Personnel{},
		&Staff{},
		&Repair{},
		&DeviceLog{},
		&PersonnelLog{},
		&StaffLog{},
		&RepairLog{},
	}
}

func (DeviceLog) TableName() string    { return EntityDevice.LogTable() }
func (PersonnelLog) TableName() string { return EntityPersonnel.LogTable() }
func (StaffLog) TableName() string     { return EntityStaff.LogTable() }
func (RepairLog) TableName() string    { return EntityRepair.LogTable() }
