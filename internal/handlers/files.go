package handlers

import (
	"net/http"
	"path/filepath"

	apperrors "it-inventory/internal/errors"
	"it-inventory/internal/files"

	"github.com/gin-gonic/gin"
)

// FilesHandler exposes the shared folder browser. Paths in requests and responses are
// relative to the shared folder root.
type FilesHandler struct {
	Explorer *files.Explorer
}

func NewFilesHandler(e *files.Explorer) *FilesHandler {
	return &FilesHandler{Explorer: e}
}

type createFolderRequest struct {
	ParentDir     string `form:"parent_dir" json:"parent_dir"`
	NewFolderName string `form:"new_folder_name" json:"new_folder_name"`
}

type pathRequest struct {
	Path string `form:"path" json:"path"`
}

type renameRequest struct {
	OldName string `form:"old_name" json:"old_name"`
	NewName string `form:"new_name" json:"new_name"`
}

func bindRequest(c *gin.Context, dst any) bool {
	if err := c.ShouldBind(dst); err != nil {
		fail(c, apperrors.Validation("invalid request body", nil))
		return false
	}
	return true
}

// List: GET /files/list?dir=&query=&sort=
func (h *FilesHandler) List(c *gin.Context) {
	listing, err := h.Explorer.List(c.Query("dir"), c.Query("query"), c.Query("sort"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, listing)
}

func (h *FilesHandler) CreateFolder(c *gin.Context) {
	var req createFolderRequest
	if !bindRequest(c, &req) {
		return
	}
	if err := h.Explorer.Mkdir(req.ParentDir, req.NewFolderName); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "folder created"})
}

func (h *FilesHandler) Delete(c *gin.Context) {
	var req pathRequest
	if !bindRequest(c, &req) {
		return
	}
	if err := h.Explorer.Delete(req.Path); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

func (h *FilesHandler) Rename(c *gin.Context) {
	var req renameRequest
	if !bindRequest(c, &req) {
		return
	}
	dir, err := h.Explorer.Rename(req.OldName, req.NewName)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "renamed", "path": dir})
}

func (h *FilesHandler) MoveToParent(c *gin.Context) {
	var req pathRequest
	if !bindRequest(c, &req) {
		return
	}
	if err := h.Explorer.MoveToParent(req.Path); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "moved to parent folder"})
}

// Upload: multipart form with target_dir and file.
func (h *FilesHandler) Upload(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		fail(c, apperrors.Validation("a file is required", map[string]string{"file": "required"}))
		return
	}
	src, err := fh.Open()
	if err != nil {
		fail(c, apperrors.Wrap(apperrors.ErrInternal, "open upload", err))
		return
	}
	defer src.Close()

	rel, err := h.Explorer.Save(c.PostForm("target_dir"), fh.Filename, src)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "file uploaded", "path": rel})
}

func (h *FilesHandler) DownloadFile(c *gin.Context) {
	abs, err := h.Explorer.OpenFile(c.Query("file_path"))
	if err != nil {
		fail(c, err)
		return
	}
	c.FileAttachment(abs, filepath.Base(abs))
}

// DownloadFolder streams the folder as a zip archive without writing it to disk.
func (h *FilesHandler) DownloadFolder(c *gin.Context) {
	rel := c.Query("folder_path")
	abs, err := h.Explorer.Resolve(rel)
	if err != nil {
		fail(c, err)
		return
	}
	name := filepath.Base(abs)
	if abs == h.Explorer.Root() {
		name = "files"
	}

	c.Header("Content-Type", "application/zip")
	c.Header("Content-Disposition", `attachment; filename="`+name+`.zip"`)
	if err := h.Explorer.WriteZip(c.Writer, rel); err != nil {
		if !c.Writer.Written() {
			c.Writer.Header().Del("Content-Type")
			c.Writer.Header().Del("Content-Disposition")
			fail(c, err)
			return
		}
		_ = c.Error(err)
	}
}

func (h *FilesHandler) ViewFile(c *gin.Context) {
	view, err := h.Explorer.View(c.Query("file_path"))
	if err != nil {
		fail(c, err)
		return
	}

	if view.Kind == files.ViewText {
		c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(view.Text))
		return
	}
	c.Header("Content-Disposition", "inline")
	c.File(view.Path)
}
