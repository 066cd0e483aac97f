package server

import (
	"net/http"

	"it-inventory/internal/audit"
	"it-inventory/internal/config"
	"it-inventory/internal/files"
	"it-inventory/internal/handlers"
	"it-inventory/internal/middleware"
	"it-inventory/internal/observability"
	"it-inventory/internal/repository"
	"it-inventory/internal/transfer"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Deps are the long-lived services the routes are built on.
type Deps struct {
	DB       *gorm.DB
	Explorer *files.Explorer
	Audit    *audit.Writer
}

func NewRouter(cfg *config.Config, deps Deps) *gin.Engine {
	r := gin.Default()
	r.MaxMultipartMemory = 8 << 20
	r.Use(observability.DBTiming())

	store := cookie.NewStore([]byte(cfg.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   7 * 24 * 3600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions("inventory_session", store))

	r.Use(middleware.InjectUser(deps.DB))

	if deps.Audit == nil {
		deps.Audit = audit.NewWriter()
	}
	repos := repository.NewSet(deps.DB, deps.Audit)
	repairForm := handlers.NewRepairForm(cfg.UploadDir)

	authH := handlers.NewAuthHandler(deps.DB, cfg.Registration)
	pagesH := handlers.NewPagesHandler(deps.DB, repos)
	settingsH := handlers.NewSettingsHandler(deps.DB)
	filesH := handlers.NewFilesHandler(deps.Explorer)
	devicesH := handlers.NewEntityHandler(deps.DB, repos.Devices, transfer.DeviceCodec, handlers.BindDevice)
	personnelH := handlers.NewEntityHandler(deps.DB, repos.Personnel, transfer.PersonnelCodec, handlers.BindPersonnel)
	staffH := handlers.NewEntityHandler(deps.DB, repos.Staff, transfer.StaffCodec, handlers.BindStaff)
	repairsH := handlers.NewEntityHandler(deps.DB, repos.Repairs, transfer.RepairCodec, repairForm.Bind)
	repairsH.Discard = repairForm.Discard

	r.GET("/", handlers.IndexPage)

	// auth
	r.GET("/register", authH.ShowRegister)
	r.POST("/register", authH.Register)
	r.GET("/login", authH.ShowLogin)
	r.POST("/login", authH.Login)
	r.GET("/logout", authH.Logout)

	auth := r.Group("/")
	auth.Use(middleware.RequireAuth())

	auth.GET("/home", pagesH.Home)
	auth.POST("/settings/password", settingsH.ChangePassword)
	auth.Static("/uploads", cfg.UploadDir)

	// devices
	auth.GET("/devices", devicesH.List)
	auth.POST("/devices", devicesH.Create)
	auth.GET("/devices/export", devicesH.Export)
	auth.POST("/devices/import", devicesH.Import)
	auth.GET("/devices/:id", devicesH.Show)
	auth.GET("/devices/:id/history", devicesH.History)
	auth.POST("/devices/:id/edit", devicesH.Update)
	auth.POST("/devices/:id/delete", devicesH.Delete)

	// personnel
	auth.GET("/personnel", personnelH.List)
	auth.POST("/personnel", personnelH.Create)
	auth.GET("/personnel/export", personnelH.Export)
	auth.POST("/personnel/import", personnelH.Import)
	auth.GET("/personnel/:id", personnelH.Show)
	auth.GET("/personnel/:id/history", personnelH.History)
	auth.POST("/personnel/:id/edit", personnelH.Update)
	auth.POST("/personnel/:id/delete", personnelH.Delete)

	// repairs: management needs the elevated flag, removal and bulk transfer need admin
	repairs := auth.Group("/repairs")
	repairs.GET("", middleware.Require(middleware.TierElevated), repairsH.List)
	repairs.POST("", middleware.Require(middleware.TierElevated), repairsH.Create)
	repairs.GET("/export", middleware.Require(middleware.TierAdmin), repairsH.Export)
	repairs.POST("/import", middleware.Require(middleware.TierAdmin), repairsH.Import)
	repairs.GET("/:id", middleware.Require(middleware.TierElevated), repairsH.Show)
	repairs.GET("/:id/history", middleware.Require(middleware.TierElevated), repairsH.History)
	repairs.POST("/:id/edit", middleware.Require(middleware.TierElevated), repairsH.Update)
	repairs.POST("/:id/delete", middleware.Require(middleware.TierAdmin), repairsH.Delete)

	// staff
	staff := auth.Group("/staff")
	staff.Use(middleware.Require(middleware.TierAdmin))
	staff.GET("", staffH.List)
	staff.POST("", staffH.Create)
	staff.GET("/export", staffH.Export)
	staff.POST("/import", staffH.Import)
	staff.GET("/:id", staffH.Show)
	staff.GET("/:id/history", staffH.History)
	staff.POST("/:id/edit", staffH.Update)
	staff.POST("/:id/delete", staffH.Delete)

	// user administration
	admin := auth.Group("/admin")
	admin.Use(middleware.Require(middleware.TierAdmin))
	admin.GET("/activity", pagesH.Activity)
	admin.GET("/users", settingsH.Users)
	admin.POST("/users/admin", settingsH.SetAdmin)
	admin.POST("/users/delete", settingsH.DeleteUser)
	admin.POST("/users/password", settingsH.ResetPassword)

	// shared files
	fs := auth.Group("/files")
	fs.GET("/list", filesH.List)
	fs.POST("/create_folder", filesH.CreateFolder)
	fs.POST("/delete", filesH.Delete)
	fs.POST("/rename", filesH.Rename)
	fs.POST("/move_to_parent", filesH.MoveToParent)
	fs.POST("/upload", filesH.Upload)
	fs.GET("/download_file", filesH.DownloadFile)
	fs.GET("/download_folder", filesH.DownloadFolder)
	fs.GET("/view_file", filesH.ViewFile)

	// HEALTHCHECK
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	return r
}
