package handlers

import (
	"strconv"
	"strings"

	"it-inventory/internal/models"
	"it-inventory/internal/validation"

	"github.com/gin-gonic/gin"
)

// Form dates come from <input type="date">; the exported CSV form is accepted as well.
var formDateLayouts = []string{"2006-01-02", "01/02/2006"}

func form(c *gin.Context, key string) string {
	return strings.TrimSpace(c.PostForm(key))
}

// formOptionalID parses an optional positive integer field. Empty means no value.
func formOptionalID(c *gin.Context, key string, v validation.Violations) *uint {
	raw := form(c, key)
	if raw == "" {
		return nil
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || n == 0 {
		v[key] = "invalid_number"
		return nil
	}
	id := uint(n)
	return &id
}

func BindDevice(c *gin.Context) (*models.Device, error) {
	v := validation.Violations{}
	d := &models.Device{
		ModelName:    form(c, "model_name"),
		AssetNumber:  form(c, "asset_number"),
		SerialNumber: form(c, "serial_number"),
		Manufacturer: form(c, "manufacturer"),
		PurchaseDate: validation.Date("purchase_date", c.PostForm("purchase_date"), v, formDateLayouts...),
		WarrantyInfo: form(c, "warranty_info"),
		AssignedUser: form(c, "assigned_user"),
		Status:       form(c, "status"),
	}
	if d.Status == "" {
		d.Status = models.DeviceAvailable
	}
	if !v.Empty() {
		return nil, invalid(v)
	}
	return d, nil
}

func BindPersonnel(c *gin.Context) (*models.Personnel, error) {
	v := validation.Violations{}
	p := &models.Personnel{
		FirstName:           form(c, "first_name"),
		LastName:            form(c, "last_name"),
		LaptopUsername:      form(c, "laptop_username"),
		LaptopPassword:      form(c, "laptop_password"),
		MicrosoftEmail:      form(c, "microsoft_email"),
		MicrosoftPassword:   form(c, "microsoft_password"),
		GoogleEmail:         form(c, "google_email"),
		GooglePassword:      form(c, "google_password"),
		CleverEmail:         form(c, "clever_email"),
		CleverPassword:      form(c, "clever_password"),
		PowerschoolEmail:    form(c, "powerschool_email"),
		PowerschoolPassword: form(c, "powerschool_password"),
		DeviceID:            formOptionalID(c, "device_id", v),
		PowercordID:         formOptionalID(c, "powercord_id", v),
	}
	if !v.Empty() {
		return nil, invalid(v)
	}
	return p, nil
}

func BindStaff(c *gin.Context) (*models.Staff, error) {
	return &models.Staff{
		FirstName:         form(c, "first_name"),
		LastName:          form(c, "last_name"),
		Title:             form(c, "title"),
		LaptopUsername:    form(c, "laptop_username"),
		LaptopPassword:    form(c, "laptop_password"),
		MicrosoftPassword: form(c, "microsoft_password"),
		GooglePassword:    form(c, "google_password"),
		XmediusPassword:   form(c, "xmedius_password"),
		PinCodeNumber:     form(c, "pin_code_number"),
		KeriCardNumber:    form(c, "keri_card_number"),
		Apple:             form(c, "apple"),
		DeviceID:          form(c, "device_id"),
		PowercordID:       form(c, "powercord_id"),
		Notes:             form(c, "notes"),
	}, nil
}
