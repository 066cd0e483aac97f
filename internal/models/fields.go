package models

import (
	"time"

	"it-inventory/internal/diff"
)

// Field tables define which attributes are compared on edit, the label used in history rows
// and the order in which changes are reported.

var DeviceFields = []diff.Field[Device]{
	diff.String("model_name", "Type", func(d *Device) *string { return &d.ModelName }),
	diff.String("asset_number", "Asset Number", func(d *Device) *string { return &d.AssetNumber }),
	diff.String("serial_number", "Serial Number", func(d *Device) *string { return &d.SerialNumber }),
	diff.String("manufacturer", "Manufacturer", func(d *Device) *string { return &d.Manufacturer }),
	diff.Date("purchase_date", "Purchase Date", func(d *Device) *time.Time { return &d.PurchaseDate }),
	diff.String("warranty_info", "Warranty Info", func(d *Device) *string { return &d.WarrantyInfo }),
	diff.String("assigned_user", "Assigned User", func(d *Device) *string { return &d.AssignedUser }),
	diff.String("status", "Status", func(d *Device) *string { return &d.Status }),
}

var PersonnelFields = []diff.Field[Personnel]{
	diff.String("first_name", "First Name", func(p *Personnel) *string { return &p.FirstName }),
	diff.String("last_name", "Last Name", func(p *Personnel) *string { return &p.LastName }),
	diff.String("laptop_username", "Laptop Username", func(p *Personnel) *string { return &p.LaptopUsername }),
	diff.String("laptop_password", "Laptop Password", func(p *Personnel) *string { return &p.LaptopPassword }),
	diff.String("microsoft_email", "Microsoft Email", func(p *Personnel) *string { return &p.MicrosoftEmail }),
	diff.String("microsoft_password", "Microsoft Password", func(p *Personnel) *string { return &p.MicrosoftPassword }),
	diff.String("google_email", "Google Email", func(p *Personnel) *string { return &p.GoogleEmail }),
	diff.String("google_password", "Google Password", func(p *Personnel) *string { return &p.GooglePassword }),
	diff.String("clever_email", "Clever Email", func(p *Personnel) *string { return &p.CleverEmail }),
	diff.String("clever_password", "Clever Password", func(p *Personnel) *string { return &p.CleverPassword }),
	diff.String("powerschool_email", "Powerschool Email", func(p *Personnel) *string { return &p.PowerschoolEmail }),
	diff.String("powerschool_password", "Powerschool Password", func(p *Personnel) *string { return &p.PowerschoolPassword }),
	diff.OptionalID("device_id", "Device ID", func(p *Personnel) **uint { return &p.DeviceID }),
	diff.OptionalID("powercord_id", "Powercord ID", func(p *Personnel) **uint { return &p.PowercordID }),
}

var StaffFields = []diff.Field[Staff]{
	diff.String("first_name", "First Name", func(s *Staff) *string { return &s.FirstName }),
	diff.String("last_name", "Last Name", func(s *Staff) *string { return &s.LastName }),
	diff.String("title", "Title", func(s *Staff) *string { return &s.Title }),
	diff.String("laptop_username", "Laptop Username", func(s *Staff) *string { return &s.LaptopUsername }),
	diff.String("laptop_password", "Laptop Password", func(s *Staff) *string { return &s.LaptopPassword }),
	diff.String("microsoft_password", "Microsoft Password", func(s *Staff) *string { return &s.MicrosoftPassword }),
	diff.String("google_password", "Google Password", func(s *Staff) *string { return &s.GooglePassword }),
	diff.String("xmedius_password", "Xmedius Password", func(s *Staff) *string { return &s.XmediusPassword }),
	diff.String("pin_code_number", "Pin Code Number", func(s *Staff) *string { return &s.PinCodeNumber }),
	diff.String("keri_card_number", "Keri Card Number", func(s *Staff) *string { return &s.KeriCardNumber }),
	diff.String("apple", "Apple", func(s *Staff) *string { return &s.Apple }),
	diff.String("device_id", "PC Asset Number", func(s *Staff) *string { return &s.DeviceID }),
	diff.String("powercord_id", "Powercord Asset Number", func(s *Staff) *string { return &s.PowercordID }),
	diff.String("notes", "Notes", func(s *Staff) *string { return &s.Notes }),
}

var RepairFields = []diff.Field[Repair]{
	diff.String("first_name", "First Name", func(r *Repair) *string { return &r.FirstName }),
	diff.String("last_name", "Last Name", func(r *Repair) *string { return &r.LastName }),
	diff.String("original_damage", "Original Damage", func(r *Repair) *string { return &r.OriginalDamage }),
	diff.String("asset_id", "Asset ID", func(r *Repair) *string { return &r.AssetID }),
	diff.String("loaner_id", "Loaner ID", func(r *Repair) *string { return &r.LoanerID }),
	diff.String("loaner_damage", "Loaner Damage", func(r *Repair) *string { return &r.LoanerDamage }),
	diff.Attachment("slip_picture", "Slip Picture", func(r *Repair) *string { return &r.SlipPicture }),
	diff.Attachment("original_computer_damage_picture", "Original Computer Damage Picture",
		func(r *Repair) *string { return &r.OriginalComputerDamagePicture }),
	diff.String("status", "Status", func(r *Repair) *string { return &r.Status }),
	diff.String("new_computer_asset_id", "New Computer Asset ID", func(r *Repair) *string { return &r.NewComputerAssetID }),
	diff.String("new_computer_damages", "New Computer Damages", func(r *Repair) *string { return &r.NewComputerDamages }),
	diff.String("notes", "Notes", func(r *Repair) *string { return &r.Notes }),
}
