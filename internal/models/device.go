package models

import "time"

type DeviceStatus = string

const (
	DeviceAvailable DeviceStatus = "Available"
	DeviceInUse     DeviceStatus = "In Use"
	DeviceInRepair  DeviceStatus = "In Repair"
)

var DeviceStatuses = []string{DeviceAvailable, DeviceInUse, DeviceInRepair}

type Device struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time

	ModelName    string    `gorm:"size:150;not null"`
	AssetNumber  string    `gorm:"size:150;not null;uniqueIndex"`
	SerialNumber string    `gorm:"size:150;not null;uniqueIndex"`
	Manufacturer string    `gorm:"size:150;not null"`
	PurchaseDate time.Time `gorm:"type:date;not null"`
	WarrantyInfo string    `gorm:"size:300"`
	AssignedUser string    `gorm:"size:150"` // free text, not a User reference
	Status       string    `gorm:"size:50;not null;default:Available"`

	Logs []DeviceLog `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
