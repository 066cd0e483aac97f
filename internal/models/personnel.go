package models

import "time"

// Personnel is a student or other account holder with several external logins.
type Personnel struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time

	FirstName           string `gorm:"size:150;not null"`
	LastName            string `gorm:"size:150;not null"`
	LaptopUsername      string `gorm:"size:150;not null"`
	LaptopPassword      string `gorm:"size:150;not null"`
	MicrosoftEmail      string `gorm:"size:150;not null"`
	MicrosoftPassword   string `gorm:"size:150;not null"`
	GoogleEmail         string `gorm:"size:150"`
	GooglePassword      string `gorm:"size:150"`
	CleverEmail         string `gorm:"size:150"`
	CleverPassword      string `gorm:"size:150"`
	PowerschoolEmail    string `gorm:"size:150"`
	PowerschoolPassword string `gorm:"size:150"`

	DeviceID    *uint   `gorm:"index"`
	Device      *Device `gorm:"constraint:OnDelete:SET NULL" json:"-"`
	PowercordID *uint   // accessory number, not enforced

	Logs []PersonnelLog `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// TableName keeps the table name "personnel" rather than gorm's plural.
func (Personnel) TableName() string { return "personnel" }
