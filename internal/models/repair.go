package models

import "time"

type RepairStatus = string

const (
	RepairPending    RepairStatus = "repair_pending"
	RepairInProgress RepairStatus = "repair_inprogress"
	RepairCompleted  RepairStatus = "repair_completed"
	RepairImpossible RepairStatus = "repair_impossible"
)

var RepairStatuses = []string{RepairPending, RepairInProgress, RepairCompleted, RepairImpossible}

type Repair struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time

	FirstName      string `gorm:"size:100;not null"`
	LastName       string `gorm:"size:100;not null"`
	OriginalDamage string `gorm:"type:text"`
	AssetID        string `gorm:"size:100;not null"`
	LoanerID       string `gorm:"size:100"`
	LoanerDamage   string `gorm:"type:text"`

	// attachment references relative to the upload directory, e.g. "slips/<uuid>.png"
	SlipPicture                   string `gorm:"size:120"`
	OriginalComputerDamagePicture string `gorm:"size:120"`

	Status             string `gorm:"size:50;not null;default:repair_pending"`
	NewComputerAssetID string `gorm:"size:100"`
	NewComputerDamages string `gorm:"type:text"`
	Notes              string `gorm:"type:text"`

	Logs []RepairLog `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
