package handlers

import (
	"net/http"
	"path/filepath"
	"strings"

	"it-inventory/internal/audit"
	apperrors "it-inventory/internal/errors"
	"it-inventory/internal/middleware"
	"it-inventory/internal/repository"
	"it-inventory/internal/transfer"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// EntityHandler serves the CRUD, history and CSV routes of one entity type.
type EntityHandler[T any] struct {
	DB    *gorm.DB
	Repo  *repository.Repository[T]
	Codec transfer.Codec[T]
	// Bind builds a full record from the submitted form.
	Bind func(c *gin.Context) (*T, error)
	// Discard undoes the side effects of Bind when the record is not saved. Optional.
	Discard func(*T)
}

func NewEntityHandler[T any](db *gorm.DB, repo *repository.Repository[T], codec transfer.Codec[T], bind func(*gin.Context) (*T, error)) *EntityHandler[T] {
	return &EntityHandler[T]{DB: db, Repo: repo, Codec: codec, Bind: bind}
}

// List: GET /<entity>?search=&status=&sort_by=
func (h *EntityHandler[T]) List(c *gin.Context) {
	items, err := h.Repo.List(c.Request.Context(), repository.Query{
		Search: c.Query("search"),
		Status: c.Query("status"),
		SortBy: c.Query("sort_by"),
	})
	if err != nil {
		fail(c, err)
		return
	}

	respond(c, http.StatusOK, gin.H{
		"items":   items,
		"search":  c.Query("search"),
		"status":  c.Query("status"),
		"sort_by": c.Query("sort_by"),
	})
}

func (h *EntityHandler[T]) Create(c *gin.Context) {
	rec, err := h.Bind(c)
	if err != nil {
		fail(c, err)
		return
	}

	id, err := h.Repo.Create(c.Request.Context(), rec)
	if err != nil {
		h.discard(rec)
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, gin.H{"id": id, "item": rec})
}

// Show returns the record together with its change history.
func (h *EntityHandler[T]) Show(c *gin.Context) {
	label := h.Repo.Resource().Label
	id, ok := paramID(c, label)
	if !ok {
		return
	}

	rec, err := h.Repo.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	logs, err := h.Repo.History(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"item": rec, "logs": logs})
}

func (h *EntityHandler[T]) History(c *gin.Context) {
	id, ok := paramID(c, h.Repo.Resource().Label)
	if !ok {
		return
	}

	logs, err := h.Repo.History(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"logs": logs})
}

// Update applies the submitted form as a full snapshot and reports the recorded changes.
func (h *EntityHandler[T]) Update(c *gin.Context) {
	id, ok := paramID(c, h.Repo.Resource().Label)
	if !ok {
		return
	}
	user, _ := middleware.CurrentUser(c)

	snapshot, err := h.Bind(c)
	if err != nil {
		fail(c, err)
		return
	}

	changes, err := h.Repo.Update(c.Request.Context(), id, snapshot, audit.ActorOf(user))
	if err != nil {
		h.discard(snapshot)
		fail(c, err)
		return
	}
	if changes == nil {
		changes = []string{}
	}
	respond(c, http.StatusOK, gin.H{"id": id, "changes": changes})
}

func (h *EntityHandler[T]) discard(rec *T) {
	if h.Discard != nil {
		h.Discard(rec)
	}
}

func (h *EntityHandler[T]) Delete(c *gin.Context) {
	id, ok := paramID(c, h.Repo.Resource().Label)
	if !ok {
		return
	}

	if err := h.Repo.Delete(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"deleted": id})
}

// Export streams every record as CSV.
func (h *EntityHandler[T]) Export(c *gin.Context) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="`+h.Codec.Table+`.csv"`)

	if err := transfer.Export(c.Request.Context(), c.Writer, h.DB, h.Codec); err != nil {
		if !c.Writer.Written() {
			c.Writer.Header().Del("Content-Type")
			c.Writer.Header().Del("Content-Disposition")
			fail(c, err)
			return
		}
		_ = c.Error(err)
	}
}

// Import reads the multipart "file" field. Either every row is stored or none is.
func (h *EntityHandler[T]) Import(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		fail(c, apperrors.Validation("a CSV file is required", map[string]string{"file": "required"}))
		return
	}
	if !strings.EqualFold(filepath.Ext(fh.Filename), ".csv") {
		fail(c, apperrors.Validation("only .csv files can be imported", map[string]string{"file": "invalid_type"}))
		return
	}

	f, err := fh.Open()
	if err != nil {
		fail(c, apperrors.Wrap(apperrors.ErrInternal, "open upload", err))
		return
	}
	defer f.Close()

	report, err := transfer.Import(c.Request.Context(), h.DB, f, h.Codec)
	if err != nil {
		fail(c, err)
		return
	}
	if !report.OK() {
		respond(c, http.StatusBadRequest, gin.H{"error": "import rejected, nothing was saved", "errors": report.Errors})
		return
	}
	respond(c, http.StatusOK, gin.H{"imported": report.Imported})
}
