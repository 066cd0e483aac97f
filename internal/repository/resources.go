package repository

import (
	"fmt"

	"it-inventory/internal/audit"
	apperrors "it-inventory/internal/errors"
	"it-inventory/internal/models"
	"it-inventory/internal/validation"

	"gorm.io/gorm"
)

var DeviceResource = Resource[models.Device]{
	Entity:        models.EntityDevice,
	Label:         "device",
	Fields:        models.DeviceFields,
	SearchColumns: []string{"model_name", "asset_number", "manufacturer", "assigned_user"},
	SortColumns: map[string]string{
		"model_name":    "model_name",
		"asset_number":  "asset_number",
		"serial_number": "serial_number",
		"manufacturer":  "manufacturer",
		"purchase_date": "purchase_date",
		"assigned_user": "assigned_user",
		"status":        "status",
	},
	DefaultSort:  "model_name",
	StatusColumn: "status",
	Unique: []Unique[models.Device]{
		{Column: "asset_number", Label: "Asset Number", Get: func(d *models.Device) string { return d.AssetNumber }},
		{Column: "serial_number", Label: "Serial Number", Get: func(d *models.Device) string { return d.SerialNumber }},
	},
	ID: func(d *models.Device) uint { return d.ID },
	Validate: func(d *models.Device) validation.Violations {
		v := validation.Violations{}
		validation.Required("model_name", d.ModelName, v)
		validation.Required("asset_number", d.AssetNumber, v)
		validation.Required("serial_number", d.SerialNumber, v)
		validation.Required("manufacturer", d.Manufacturer, v)
		if d.PurchaseDate.IsZero() {
			v["purchase_date"] = "required"
		}
		validation.OneOf("status", d.Status, models.DeviceStatuses, v)
		return v
	},
	// personnel keep their record when the device goes away
	BeforeDelete: func(tx *gorm.DB, id uint) error {
		err := tx.Model(&models.Personnel{}).
			Where("device_id = ?", id).
			UpdateColumn("device_id", nil).Error
		if err != nil {
			return fmt.Errorf("detach personnel from device %d: %w", id, err)
		}
		return nil
	},
}

var PersonnelResource = Resource[models.Personnel]{
	Entity:        models.EntityPersonnel,
	Label:         "personnel",
	Fields:        models.PersonnelFields,
	SearchColumns: []string{"first_name", "last_name", "laptop_username", "microsoft_email"},
	SortColumns: map[string]string{
		"first_name":      "first_name",
		"last_name":       "last_name",
		"laptop_username": "laptop_username",
		"microsoft_email": "microsoft_email",
		"device_id":       "device_id",
	},
	DefaultSort: "first_name",
	ID:          func(p *models.Personnel) uint { return p.ID },
	Validate: func(p *models.Personnel) validation.Violations {
		v := validation.Violations{}
		validation.Required("first_name", p.FirstName, v)
		validation.Required("last_name", p.LastName, v)
		validation.Required("laptop_username", p.LaptopUsername, v)
		validation.Required("laptop_password", p.LaptopPassword, v)
		validation.Required("microsoft_email", p.MicrosoftEmail, v)
		validation.Required("microsoft_password", p.MicrosoftPassword, v)
		return v
	},
	CheckReferences: func(tx *gorm.DB, p *models.Personnel) error {
		return CheckDeviceExists(tx, p.DeviceID)
	},
}

var StaffResource = Resource[models.Staff]{
	Entity: models.EntityStaff,
	Label:  "staff",
	Fields: models.StaffFields,
	SearchColumns: []string{
		"first_name", "last_name", "title", "laptop_username",
		"pin_code_number", "device_id", "powercord_id",
	},
	SortColumns: map[string]string{
		"first_name": "first_name",
		"last_name":  "last_name",
		"title":      "title",
		"device_id":  "device_id",
	},
	DefaultSort: "first_name",
	ID:          func(s *models.Staff) uint { return s.ID },
	Validate: func(s *models.Staff) validation.Violations {
		v := validation.Violations{}
		for _, f := range []struct{ name, value string }{
			{"first_name", s.FirstName},
			{"last_name", s.LastName},
			{"title", s.Title},
			{"laptop_username", s.LaptopUsername},
			{"laptop_password", s.LaptopPassword},
			{"microsoft_password", s.MicrosoftPassword},
			{"google_password", s.GooglePassword},
			{"xmedius_password", s.XmediusPassword},
			{"pin_code_number", s.PinCodeNumber},
			{"keri_card_number", s.KeriCardNumber},
			{"apple", s.Apple},
			{"device_id", s.DeviceID},
			{"powercord_id", s.PowercordID},
			{"notes", s.Notes},
		} {
			validation.Required(f.name, f.value, v)
		}
		return v
	},
}

var RepairResource = Resource[models.Repair]{
	Entity:        models.EntityRepair,
	Label:         "repair",
	Fields:        models.RepairFields,
	SearchColumns: []string{"first_name", "last_name", "asset_id", "loaner_id"},
	SortColumns: map[string]string{
		"id":         "id",
		"first_name": "first_name",
		"last_name":  "last_name",
		"asset_id":   "asset_id",
		"status":     "status",
	},
	DefaultSort:  "id",
	StatusColumn: "status",
	ID:           func(r *models.Repair) uint { return r.ID },
	Validate: func(r *models.Repair) validation.Violations {
		v := validation.Violations{}
		validation.Required("first_name", r.FirstName, v)
		validation.Required("last_name", r.LastName, v)
		validation.Required("asset_id", r.AssetID, v)
		validation.OneOf("status", r.Status, models.RepairStatuses, v)
		return v
	},
}

// CheckDeviceExists fails with a validation error when id is set but names no device.
func CheckDeviceExists(tx *gorm.DB, id *uint) error {
	if id == nil {
		return nil
	}
	var count int64
	if err := tx.Model(&models.Device{}).Where("id = ?", *id).Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternal, "check device reference", err)
	}
	if count == 0 {
		return apperrors.Validation(
			fmt.Sprintf("device %d does not exist", *id),
			map[string]string{"device_id": "not_found"},
		)
	}
	return nil
}

// Set bundles the repositories of all entity types over one database and audit writer.
type Set struct {
	Devices   *Repository[models.Device]
	Personnel *Repository[models.Personnel]
	Staff     *Repository[models.Staff]
	Repairs   *Repository[models.Repair]
}

func NewSet(db *gorm.DB, w *audit.Writer) *Set {
	return &Set{
		Devices:   New(db, w, DeviceResource),
		Personnel: New(db, w, PersonnelResource),
		Staff:     New(db, w, StaffResource),
		Repairs:   New(db, w, RepairResource),
	}
}
