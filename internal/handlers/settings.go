package handlers

import (
	"errors"
	"net/http"

	"it-inventory/internal/audit"
	apperrors "it-inventory/internal/errors"
	"it-inventory/internal/middleware"
	"it-inventory/internal/models"
	"it-inventory/internal/validation"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SettingsHandler serves password changes and, for admins, account administration.
type SettingsHandler struct {
	DB *gorm.DB
}

func NewSettingsHandler(db *gorm.DB) *SettingsHandler {
	return &SettingsHandler{DB: db}
}

// ChangePassword: POST /settings/password
func (h *SettingsHandler) ChangePassword(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	newPassword := c.PostForm("new_password")

	v := validation.Violations{}
	validation.Required("old_password", c.PostForm("old_password"), v)
	validatePassword("new_password", newPassword, v)
	validation.Equal("confirm_password", c.PostForm("confirm_password"), newPassword, v)
	if !v.Empty() {
		fail(c, invalid(v))
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(c.PostForm("old_password"))); err != nil {
		fail(c, apperrors.Validation("old password is incorrect", map[string]string{"old_password": "incorrect"}))
		return
	}
	if err := h.setPassword(c, user.ID, newPassword); err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "password updated"})
}

// Users: GET /admin/users
func (h *SettingsHandler) Users(c *gin.Context) {
	var users []models.User
	if err := h.DB.WithContext(c.Request.Context()).Order("username asc").Find(&users).Error; err != nil {
		fail(c, apperrors.Wrap(apperrors.ErrInternal, "list users", err))
		return
	}
	respond(c, http.StatusOK, gin.H{"users": users})
}

// SetAdmin: POST /admin/users/admin with username and is_admin.
func (h *SettingsHandler) SetAdmin(c *gin.Context) {
	target, err := h.findUser(c)
	if err != nil {
		fail(c, err)
		return
	}

	isAdmin := formBool(c, "is_admin")
	if err := h.DB.WithContext(c.Request.Context()).Model(&target).Update("is_admin", isAdmin).Error; err != nil {
		fail(c, apperrors.Wrap(apperrors.ErrInternal, "update account type", err))
		return
	}
	respond(c, http.StatusOK, gin.H{"username": target.Username, "is_admin": isAdmin})
}

// DeleteUser removes an account. History rows keep the username but lose the user reference.
func (h *SettingsHandler) DeleteUser(c *gin.Context) {
	current, _ := middleware.CurrentUser(c)
	target, err := h.findUser(c)
	if err != nil {
		fail(c, err)
		return
	}
	if target.ID == current.ID {
		fail(c, apperrors.Validation("you cannot delete your own account", map[string]string{"username": "self"}))
		return
	}

	err = h.DB.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := audit.DetachUser(tx, target.ID); err != nil {
			return err
		}
		return tx.Delete(&models.User{}, target.ID).Error
	})
	if err != nil {
		fail(c, apperrors.Wrap(apperrors.ErrInternal, "delete user", err))
		return
	}
	respond(c, http.StatusOK, gin.H{"deleted": target.Username})
}

// ResetPassword sets another user's password without knowing the old one.
func (h *SettingsHandler) ResetPassword(c *gin.Context) {
	target, err := h.findUser(c)
	if err != nil {
		fail(c, err)
		return
	}

	newPassword := c.PostForm("new_password")
	v := validation.Violations{}
	validatePassword("new_password", newPassword, v)
	validation.Equal("confirm_password", c.PostForm("confirm_password"), newPassword, v)
	if !v.Empty() {
		fail(c, invalid(v))
		return
	}
	if err := h.setPassword(c, target.ID, newPassword); err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "password reset for " + target.Username})
}

func (h *SettingsHandler) findUser(c *gin.Context) (models.User, error) {
	username := form(c, "username")
	if username == "" {
		return models.User{}, apperrors.Validation("username is required", map[string]string{"username": "required"})
	}

	var user models.User
	err := h.DB.WithContext(c.Request.Context()).Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, apperrors.NotFound("user")
	}
	if err != nil {
		return models.User{}, apperrors.Wrap(apperrors.ErrInternal, "load user", err)
	}
	return user, nil
}

func (h *SettingsHandler) setPassword(c *gin.Context, userID uint, password string) error {
	hash, err := hashPassword(password)
	if err != nil {
		return err
	}
	if err := h.DB.WithContext(c.Request.Context()).Model(&models.User{}).Where("id = ?", userID).
		Update("password_hash", hash).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternal, "update password", err)
	}
	return nil
}

func formBool(c *gin.Context, key string) bool {
	switch form(c, key) {
	case "1", "true", "on", "yes", "y":
		return true
	}
	return false
}
