package handlers

import (
	"errors"
	"net/http"

	"it-inventory/internal/config"
	apperrors "it-inventory/internal/errors"
	"it-inventory/internal/middleware"
	"it-inventory/internal/models"
	"it-inventory/internal/validation"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthHandler struct {
	DB    *gorm.DB
	Codes config.RegistrationCodes
}

func NewAuthHandler(db *gorm.DB, codes config.RegistrationCodes) *AuthHandler {
	return &AuthHandler{DB: db, Codes: codes}
}

func (h *AuthHandler) ShowRegister(c *gin.Context) {
	respond(c, http.StatusOK, gin.H{"fields": []string{"username", "password", "confirm_password", "registration_code"}})
}

// grants maps a registration code to the account flags it gives. Unset codes never match.
func (h *AuthHandler) grants(code string) (admin, elevated, ok bool) {
	switch {
	case code == "":
		return false, false, false
	case code == h.Codes.Admin:
		return true, true, true
	case code == h.Codes.Elevated:
		return false, true, true
	case code == h.Codes.User:
		return false, false, true
	}
	return false, false, false
}

func (h *AuthHandler) Register(c *gin.Context) {
	username := form(c, "username")
	password := c.PostForm("password")

	v := validation.Violations{}
	validation.Length("username", username, 6, 20, v)
	validatePassword("password", password, v)
	validation.Equal("confirm_password", c.PostForm("confirm_password"), password, v)
	isAdmin, isElevated, ok := h.grants(form(c, "registration_code"))
	if !ok {
		v["registration_code"] = "invalid"
	}
	if !v.Empty() {
		fail(c, invalid(v))
		return
	}

	var count int64
	if err := h.DB.Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		fail(c, apperrors.Wrap(apperrors.ErrInternal, "check username", err))
		return
	}
	if count > 0 {
		fail(c, apperrors.New(apperrors.ErrDuplicate, "username already taken"))
		return
	}

	hash, err := hashPassword(password)
	if err != nil {
		fail(c, err)
		return
	}
	user := models.User{
		Username:     username,
		PasswordHash: hash,
		IsAdmin:      isAdmin,
		IsElevated:   isElevated,
	}
	if err := h.DB.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			fail(c, apperrors.New(apperrors.ErrDuplicate, "username already taken"))
			return
		}
		fail(c, apperrors.Wrap(apperrors.ErrInternal, "create user", err))
		return
	}

	c.Redirect(http.StatusFound, "/login")
}

func (h *AuthHandler) ShowLogin(c *gin.Context) {
	respond(c, http.StatusOK, gin.H{"fields": []string{"username", "password"}})
}

func (h *AuthHandler) Login(c *gin.Context) {
	username := form(c, "username")
	password := c.PostForm("password")

	var user models.User
	if err := h.DB.Where("username = ?", username).First(&user).Error; err != nil {
		respond(c, http.StatusBadRequest, gin.H{"error": "invalid username or password"})
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		respond(c, http.StatusBadRequest, gin.H{"error": "invalid username or password"})
		return
	}

	sess := sessions.Default(c)
	sess.Set(middleware.SessionUserKey, user.ID)
	if err := sess.Save(); err != nil {
		fail(c, apperrors.Wrap(apperrors.ErrInternal, "save session", err))
		return
	}

	c.Redirect(http.StatusFound, "/home")
}

func (h *AuthHandler) Logout(c *gin.Context) {
	sess := sessions.Default(c)
	sess.Clear()
	_ = sess.Save()
	c.Redirect(http.StatusFound, "/login")
}

func validatePassword(field, password string, v validation.Violations) {
	if password == "" {
		v[field] = "required"
		return
	}
	validation.Length(field, password, 6, 20, v)
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrInternal, "hash password", err)
	}
	return string(hash), nil
}
