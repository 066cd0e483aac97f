package models

import "time"

type Staff struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time

	FirstName         string `gorm:"size:150;not null"`
	LastName          string `gorm:"size:150;not null"`
	Title             string `gorm:"size:150;not null"`
	LaptopUsername    string `gorm:"size:150;not null"`
	LaptopPassword    string `gorm:"size:150;not null"`
	MicrosoftPassword string `gorm:"size:150;not null"`
	GooglePassword    string `gorm:"size:150;not null"`
	XmediusPassword   string `gorm:"size:150;not null"`
	PinCodeNumber     string `gorm:"size:150;not null"`
	KeriCardNumber    string `gorm:"size:150;not null"`
	Apple             string `gorm:"size:150;not null"`
	DeviceID          string `gorm:"size:150;not null"` // PC asset number, free text
	PowercordID       string `gorm:"size:150;not null"`
	Notes             string `gorm:"type:text"`

	Logs []StaffLog `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func (Staff) TableName() string { return "staff" }
