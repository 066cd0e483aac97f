package handlers

import (
	"errors"
	"image"
	"log"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	apperrors "it-inventory/internal/errors"
	"it-inventory/internal/models"
	"it-inventory/internal/validation"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	slipFolder   = "slips"
	damageFolder = "damage"
)

var pictureExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true}

// upload is a decoded picture waiting to be stored.
type upload struct {
	img image.Image
	ext string
}

// RepairForm binds repair forms, storing uploaded pictures below UploadDir.
type RepairForm struct {
	UploadDir string
}

func NewRepairForm(uploadDir string) *RepairForm {
	return &RepairForm{UploadDir: uploadDir}
}

// Bind builds a repair snapshot. A picture field left empty keeps the stored attachment on edit.
func (f *RepairForm) Bind(c *gin.Context) (*models.Repair, error) {
	v := validation.Violations{}
	r := &models.Repair{
		FirstName:          form(c, "first_name"),
		LastName:           form(c, "last_name"),
		OriginalDamage:     form(c, "original_damage"),
		AssetID:            form(c, "asset_id"),
		LoanerID:           form(c, "loaner_id"),
		LoanerDamage:       form(c, "loaner_damage"),
		Status:             form(c, "status"),
		NewComputerAssetID: form(c, "new_computer_asset_id"),
		NewComputerDamages: form(c, "new_computer_damages"),
		Notes:              form(c, "notes"),
	}
	if r.Status == "" {
		r.Status = models.RepairPending
	}

	slip := picture(c, "slip_picture", v)
	damage := picture(c, "original_computer_damage_picture", v)
	if !v.Empty() {
		return nil, invalid(v)
	}

	var err error
	if r.SlipPicture, err = f.save(slip, slipFolder); err != nil {
		return nil, err
	}
	if r.OriginalComputerDamagePicture, err = f.save(damage, damageFolder); err != nil {
		f.Discard(r)
		return nil, err
	}
	return r, nil
}

// Discard removes the pictures Bind stored for r. Fields left empty by the request are
// untouched, so the attachments of the stored record survive.
func (f *RepairForm) Discard(r *models.Repair) {
	for _, ref := range []string{r.SlipPicture, r.OriginalComputerDamagePicture} {
		if ref == "" {
			continue
		}
		if err := os.Remove(filepath.Join(f.UploadDir, filepath.FromSlash(ref))); err != nil && !os.IsNotExist(err) {
			log.Printf("discard upload %s: %v", ref, err)
		}
	}
}

// picture decodes the uploaded image under key, or returns nil when none was sent.
func picture(c *gin.Context, key string, v validation.Violations) *upload {
	fh, err := c.FormFile(key)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) || (err == nil && fh.Filename == "") {
		return nil
	}
	if err != nil {
		v[key] = "invalid_upload"
		return nil
	}
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !pictureExts[ext] {
		v[key] = "invalid_type"
		return nil
	}

	src, err := fh.Open()
	if err != nil {
		v[key] = "invalid_upload"
		return nil
	}
	defer src.Close()

	img, err := imaging.Decode(src, imaging.AutoOrientation(true))
	if err != nil {
		v[key] = "invalid_image"
		return nil
	}
	return &upload{img: img, ext: ext}
}

// save re-encodes u under a generated name and returns the reference kept on the record.
func (f *RepairForm) save(u *upload, folder string) (string, error) {
	if u == nil {
		return "", nil
	}

	dir := filepath.Join(f.UploadDir, folder)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", apperrors.Wrap(apperrors.ErrInternal, "create upload folder", err)
	}

	name := uuid.NewString() + u.ext
	if err := imaging.Save(u.img, filepath.Join(dir, name)); err != nil {
		return "", apperrors.Wrap(apperrors.ErrInternal, "store upload", err)
	}
	return path.Join(folder, name), nil
}
