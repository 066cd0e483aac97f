package transfer

import (
	"strconv"
	"strings"
	"time"

	"it-inventory/internal/models"
	"it-inventory/internal/repository"
	"it-inventory/internal/validation"

	"gorm.io/gorm"
)

// DateLayout is the exported form of dates. Import also accepts ISO dates.
const DateLayout = "01/02/2006"

var dateLayouts = []string{DateLayout, "2006-01-02"}

// UniqueColumn marks a value that may appear only once per file and per table.
// Index counts from the first column after ID.
type UniqueColumn struct {
	Index  int
	Column string
	Label  string
}

// Codec maps one entity type to CSV rows. The first column is always the record id; Header,
// Columns, Encode and Decode describe the rest in the same order.
type Codec[T any] struct {
	Table   string
	Header  []string
	Columns []string
	Unique  []UniqueColumn

	ID     func(*T) uint
	SetID  func(*T, uint)
	Encode func(*T) []string
	// Decode parses the fields after ID and returns the problems found.
	Decode func(fields []string) (*T, []string)
	// Check runs read-only checks against stored data. Optional.
	Check func(db *gorm.DB, rec *T) error
}

var DeviceCodec = Codec[models.Device]{
	Table: "devices",
	Header: []string{
		"ID", "Type", "Asset Number", "Serial Number", "Manufacturer",
		"Purchase Date", "Warranty Information", "Assigned User", "Status",
	},
	Columns: []string{
		"model_name", "asset_number", "serial_number", "manufacturer",
		"purchase_date", "warranty_info", "assigned_user", "status",
	},
	Unique: []UniqueColumn{
		{Index: 1, Column: "asset_number", Label: "Asset Number"},
		{Index: 2, Column: "serial_number", Label: "Serial Number"},
	},
	ID:    func(d *models.Device) uint { return d.ID },
	SetID: func(d *models.Device, id uint) { d.ID = id },
	Encode: func(d *models.Device) []string {
		return []string{
			d.ModelName, d.AssetNumber, d.SerialNumber, d.Manufacturer,
			formatDate(d.PurchaseDate), d.WarrantyInfo, d.AssignedUser, d.Status,
		}
	},
	Decode: func(f []string) (*models.Device, []string) {
		v := validation.Violations{}
		d := &models.Device{
			ModelName:    f[0],
			AssetNumber:  strings.TrimSpace(f[1]),
			SerialNumber: strings.TrimSpace(f[2]),
			Manufacturer: f[3],
			PurchaseDate: validation.Date("purchase_date", f[4], v, dateLayouts...),
			WarrantyInfo: f[5],
			AssignedUser: f[6],
			Status:       strings.TrimSpace(f[7]),
		}
		if d.Status == "" {
			d.Status = models.DeviceAvailable
		}
		validation.OneOf("status", d.Status, models.DeviceStatuses, v)

		var problems []string
		if msg, ok := v["purchase_date"]; ok {
			problems = append(problems, "invalid purchase date "+strconv.Quote(f[4])+" ("+msg+"), expected MM/DD/YYYY")
		}
		if _, ok := v["status"]; ok {
			problems = append(problems, "invalid status "+strconv.Quote(d.Status))
		}
		return d, problems
	},
}

var PersonnelCodec = Codec[models.Personnel]{
	Table: "personnel",
	Header: []string{
		"ID", "First Name", "Last Name", "Laptop Username", "Laptop Password",
		"Microsoft Email", "Microsoft Password", "Google Email", "Google Password",
		"Clever Email", "Clever Password", "Powerschool Email", "Powerschool Password",
		"Device ID", "Powercord ID",
	},
	Columns: []string{
		"first_name", "last_name", "laptop_username", "laptop_password",
		"microsoft_email", "microsoft_password", "google_email", "google_password",
		"clever_email", "clever_password", "powerschool_email", "powerschool_password",
		"device_id", "powercord_id",
	},
	ID:    func(p *models.Personnel) uint { return p.ID },
	SetID: func(p *models.Personnel, id uint) { p.ID = id },
	Encode: func(p *models.Personnel) []string {
		return []string{
			p.FirstName, p.LastName, p.LaptopUsername, p.LaptopPassword,
			p.MicrosoftEmail, p.MicrosoftPassword, p.GoogleEmail, p.GooglePassword,
			p.CleverEmail, p.CleverPassword, p.PowerschoolEmail, p.PowerschoolPassword,
			formatOptionalID(p.DeviceID), formatOptionalID(p.PowercordID),
		}
	},
	Decode: func(f []string) (*models.Personnel, []string) {
		var problems []string
		p := &models.Personnel{
			FirstName:           f[0],
			LastName:            f[1],
			LaptopUsername:      f[2],
			LaptopPassword:      f[3],
			MicrosoftEmail:      f[4],
			MicrosoftPassword:   f[5],
			GoogleEmail:         f[6],
			GooglePassword:      f[7],
			CleverEmail:         f[8],
			CleverPassword:      f[9],
			PowerschoolEmail:    f[10],
			PowerschoolPassword: f[11],
		}
		var ok bool
		if p.DeviceID, ok = parseOptionalID(f[12]); !ok {
			problems = append(problems, "invalid Device ID "+strconv.Quote(f[12]))
		}
		if p.PowercordID, ok = parseOptionalID(f[13]); !ok {
			problems = append(problems, "invalid Powercord ID "+strconv.Quote(f[13]))
		}
		return p, problems
	},
	Check: func(db *gorm.DB, p *models.Personnel) error {
		return repository.CheckDeviceExists(db, p.DeviceID)
	},
}

var StaffCodec = Codec[models.Staff]{
	Table: "staff",
	Header: []string{
		"ID", "First Name", "Last Name", "Title", "Laptop Username", "Laptop Password",
		"Microsoft Password", "Google Password", "XMedius Password", "Pin Code Number",
		"Keri Card Number", "Apple", "PC Asset Number", "Powercord Asset Number", "Notes",
	},
	Columns: []string{
		"first_name", "last_name", "title", "laptop_username", "laptop_password",
		"microsoft_password", "google_password", "xmedius_password", "pin_code_number",
		"keri_card_number", "apple", "device_id", "powercord_id", "notes",
	},
	ID:    func(s *models.Staff) uint { return s.ID },
	SetID: func(s *models.Staff, id uint) { s.ID = id },
	Encode: func(s *models.Staff) []string {
		return []string{
			s.FirstName, s.LastName, s.Title, s.LaptopUsername, s.LaptopPassword,
			s.MicrosoftPassword, s.GooglePassword, s.XmediusPassword, s.PinCodeNumber,
			s.KeriCardNumber, s.Apple, s.DeviceID, s.PowercordID, s.Notes,
		}
	},
	Decode: func(f []string) (*models.Staff, []string) {
		return &models.Staff{
			FirstName:         f[0],
			LastName:          f[1],
			Title:             f[2],
			LaptopUsername:    f[3],
			LaptopPassword:    f[4],
			MicrosoftPassword: f[5],
			GooglePassword:    f[6],
			XmediusPassword:   f[7],
			PinCodeNumber:     f[8],
			KeriCardNumber:    f[9],
			Apple:             f[10],
			DeviceID:          f[11],
			PowercordID:       f[12],
			Notes:             f[13],
		}, nil
	},
}

var RepairCodec = Codec[models.Repair]{
	Table: "repairs",
	Header: []string{
		"ID", "First Name", "Last Name", "Original Damage", "Asset ID", "Loaner ID",
		"Loaner Damage", "Slip Picture", "Original Computer Damage Picture", "Status",
		"New Computer Asset ID", "New Computer Damages", "Notes",
	},
	Columns: []string{
		"first_name", "last_name", "original_damage", "asset_id", "loaner_id",
		"loaner_damage", "slip_picture", "original_computer_damage_picture", "status",
		"new_computer_asset_id", "new_computer_damages", "notes",
	},
	ID:    func(r *models.Repair) uint { return r.ID },
	SetID: func(r *models.Repair, id uint) { r.ID = id },
	Encode: func(r *models.Repair) []string {
		return []string{
			r.FirstName, r.LastName, r.OriginalDamage, r.AssetID, r.LoanerID,
			r.LoanerDamage, r.SlipPicture, r.OriginalComputerDamagePicture, r.Status,
			r.NewComputerAssetID, r.NewComputerDamages, r.Notes,
		}
	},
	Decode: func(f []string) (*models.Repair, []string) {
		r := &models.Repair{
			FirstName:                     f[0],
			LastName:                      f[1],
			OriginalDamage:                f[2],
			AssetID:                       f[3],
			LoanerID:                      f[4],
			LoanerDamage:                  f[5],
			SlipPicture:                   f[6],
			OriginalComputerDamagePicture: f[7],
			Status:                        strings.TrimSpace(f[8]),
			NewComputerAssetID:            f[9],
			NewComputerDamages:            f[10],
			Notes:                         f[11],
		}
		if r.Status == "" {
			r.Status = models.RepairPending
		}
		v := validation.Violations{}
		validation.OneOf("status", r.Status, models.RepairStatuses, v)
		if !v.Empty() {
			return r, []string{"invalid status " + strconv.Quote(r.Status)}
		}
		return r, nil
	},
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

func formatOptionalID(id *uint) string {
	if id == nil {
		return ""
	}
	return strconv.FormatUint(uint64(*id), 10)
}

func parseOptionalID(raw string) (*uint, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, true
	}
	n, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return nil, false
	}
	id := uint(n)
	return &id, true
}
