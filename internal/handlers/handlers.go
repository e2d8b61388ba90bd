package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"beefline/api/internal/config"
	"beefline/api/internal/middleware"
	"beefline/api/internal/models"
	"beefline/api/internal/repository"
	"beefline/api/internal/service"
	"beefline/api/internal/storage"
)

type HandlerSet struct {
	log          zerolog.Logger
	cfg          *config.AppConfig
	authService  *service.AuthService
	mediaService *service.MediaService
	users        *repository.UserRepository
	sessions     *repository.SessionRepository
	cattle       *repository.CattleRepository
	images       *repository.ImageRepository
	documents    *repository.DocumentRepository
}

func NewHandlerSet(log zerolog.Logger, db *pgxpool.Pool, store *storage.ObjectStore, cfg *config.AppConfig) HandlerSet {
	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	cattleRepo := repository.NewCattleRepository(db)
	imageRepo := repository.NewImageRepository(db)
	documentRepo := repository.NewDocumentRepository(db)

	auth := service.NewAuthService(userRepo, sessionRepo, cfg, log)
	media := service.NewMediaService(imageRepo, documentRepo, store, cfg.Media, log)

	return HandlerSet{
		log:          log,
		cfg:          cfg,
		authService:  auth,
		mediaService: media,
		users:        userRepo,
		sessions:     sessionRepo,
		cattle:       cattleRepo,
		images:       imageRepo,
		documents:    documentRepo,
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	v1 := router.Group("/v1")

	auth := v1.Group("/auth")
	auth.POST("/register", h.RegisterUser)
	auth.POST("/login", h.Login)
	auth.POST("/refresh", h.Refresh)
	auth.POST("/logout", h.Logout)

	protected := v1.Group("/auth")
	protected.Use(middleware.Auth(h.cfg, h.users, h.sessions))
	protected.GET("/me", h.Me)
	protected.PUT("/profile", h.UpdateProfile)
	protected.GET("/sessions", h.ListSessions)
	protected.DELETE("/sessions/:deviceId", h.RevokeSession)

	cattle := v1.Group("/cattle")
	cattle.GET("", h.ListCattle)
	cattle.GET("/:id", h.GetCattle)

	authed := v1.Group("/cattle")
	authed.Use(middleware.Auth(h.cfg, h.users, h.sessions))
	authed.GET("/my-listings", h.MyListings)
	authed.POST("", middleware.RequireSeller(), h.CreateCattle)
	authed.PUT("/:id", middleware.RequireSeller(), h.UpdateCattle)
	authed.DELETE("/:id", middleware.RequireSeller(), h.DeleteCattle)
	authed.POST("/:id/mark-sold", middleware.RequireSeller(), h.MarkSold)

	authed.POST("/:id/images", middleware.RequireSeller(), h.UploadImage)
	authed.DELETE("/:id/images/:imageId", middleware.RequireSeller(), h.DeleteImage)
	authed.POST("/:id/images/:imageId/primary", middleware.RequireSeller(), h.SetPrimaryImage)

	authed.POST("/:id/documents", middleware.RequireSeller(), h.UploadDocument)
	authed.DELETE("/:id/documents/:documentId", middleware.RequireSeller(), h.DeleteDocument)

	admin := v1.Group("/admin")
	admin.Use(
		middleware.Auth(h.cfg, h.users, h.sessions),
		middleware.RequireRoles(models.UserRoleAdmin),
	)
	admin.GET("/cattle", h.AdminListCattle)
	admin.POST("/users/:id/status", h.AdminSetUserStatus)
}

// ownListing loads the listing and verifies the current user sells it.
func (h HandlerSet) ownListing(c *gin.Context) (models.Cattle, bool) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(401, gin.H{"error": "unauthorized"})
		return models.Cattle{}, false
	}

	listing, err := h.cattle.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil || listing.SellerID != user.ID {
		c.JSON(404, gin.H{"error": "cattle not found or you do not have permission"})
		return models.Cattle{}, false
	}
	return listing, true
}
