package handlers

import (
	"net/http"

	"it-inventory/internal/audit"
	apperrors "it-inventory/internal/errors"
	"it-inventory/internal/middleware"
	"it-inventory/internal/repository"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const activityLimit = 200

// IndexPage sends logged-in users to the dashboard and everyone else to the login page.
func IndexPage(c *gin.Context) {
	if _, ok := middleware.CurrentUser(c); ok {
		c.Redirect(http.StatusFound, "/home")
		return
	}
	c.Redirect(http.StatusFound, "/login")
}

type PagesHandler struct {
	DB   *gorm.DB
	Repo *repository.Set
}

func NewPagesHandler(db *gorm.DB, set *repository.Set) *PagesHandler {
	return &PagesHandler{DB: db, Repo: set}
}

// Home returns record counts for the dashboard. Counts the user cannot open are omitted.
func (h *PagesHandler) Home(c *gin.Context) {
	ctx := c.Request.Context()
	user, _ := middleware.CurrentUser(c)

	counts := gin.H{}
	var err error
	count := func(key string, fn func() (int64, error)) {
		if err != nil {
			return
		}
		var n int64
		n, err = fn()
		counts[key] = n
	}

	count("devices", func() (int64, error) { return h.Repo.Devices.Count(ctx) })
	count("personnel", func() (int64, error) { return h.Repo.Personnel.Count(ctx) })
	if middleware.TierElevated.Allows(user) {
		count("repairs", func() (int64, error) { return h.Repo.Repairs.Count(ctx) })
	}
	if middleware.TierAdmin.Allows(user) {
		count("staff", func() (int64, error) { return h.Repo.Staff.Count(ctx) })
	}
	if err != nil {
		fail(c, err)
		return
	}

	respond(c, http.StatusOK, gin.H{"counts": counts})
}

// Activity lists the most recent history rows across all entity types.
func (h *PagesHandler) Activity(c *gin.Context) {
	logs, err := audit.Recent(h.DB.WithContext(c.Request.Context()), activityLimit)
	if err != nil {
		fail(c, apperrors.Wrap(apperrors.ErrInternal, "load activity", err))
		return
	}
	respond(c, http.StatusOK, gin.H{"logs": logs})
}
