package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"terramap/api/internal/config"
	"terramap/api/internal/middleware"
	"terramap/api/internal/repository"
	"terramap/api/internal/service"
	"terramap/api/internal/session"
)

type HandlerSet struct {
	log      zerolog.Logger
	cfg      *config.AppConfig
	db       *pgxpool.Pool
	cache    *redis.Client
	users    middleware.UserSource
	sessions middleware.SessionSource

	authService    *service.AuthService
	roleService    *service.RoleService
	terrainService *service.TerrainService
}

func NewHandlerSet(log zerolog.Logger, db *pgxpool.Pool, cache *redis.Client, cfg *config.AppConfig) HandlerSet {
	userRepo := repository.NewUserRepository(db)
	terrainRepo := repository.NewTerrainRepository(db)
	sessionStore := session.NewStore(cache, cfg.Security.SessionTTL)

	return HandlerSet{
		log:            log,
		cfg:            cfg,
		db:             db,
		cache:          cache,
		users:          userRepo,
		sessions:       sessionStore,
		authService:    service.NewAuthService(userRepo, sessionStore, cfg, log),
		roleService:    service.NewRoleService(userRepo, sessionStore, log),
		terrainService: service.NewTerrainService(terrainRepo, cache, log),
	}
}

// TerrainService exposes the terrain service for background refresh jobs.
func (h HandlerSet) TerrainService() *service.TerrainService {
	return h.terrainService
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	v1 := router.Group("/v1")

	auth := v1.Group("/auth")
	auth.POST("/register", h.RegisterUser)
	auth.POST("/login", h.Login)
	auth.POST("/logout", h.Logout)

	authed := v1.Group("")
	authed.Use(middleware.Identify(h.cfg, h.users, h.sessions))
	{
		authed.GET("/auth/me", h.Me)
		authed.POST("/auth/claim-admin", h.ClaimAdmin)

		authed.POST("/terrains", h.SaveTerrain)
		authed.GET("/terrains", h.GetTerrains)
		authed.GET("/terrains/:id", h.GetTerrain)
		authed.DELETE("/terrains/:id", h.DeleteTerrain)

		authed.GET("/stats", h.OwnerStats)
	}

	v1.GET("/map/public", h.PublicMap)
	v1.GET("/map/stats", h.PublicStats)

	admin := v1.Group("/admin")
	admin.Use(
		middleware.Identify(h.cfg, h.users, h.sessions),
		middleware.RequireAdmin(),
	)
	{
		admin.GET("/users", h.GetUsers)
		admin.POST("/users/:id/toggle-admin", h.ToggleAdmin)
		admin.DELETE("/users/:id", h.DeleteUser)
		admin.GET("/stats", h.SystemStats)
		admin.POST("/sql", h.ExecuteSQL)
		admin.GET("/tables", h.GetTablesList)
		admin.GET("/tables/:name", h.GetTableStructure)
	}
}

func ok(c *gin.Context, status int, message string, extra gin.H) {
	body := gin.H{"success": true}
	if message != "" {
		body["message"] = message
	}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(status, body)
}

func fail(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "message": message})
}

// respondErr maps service errors to the response envelope. Unknown errors
// are logged and masked.
func (h HandlerSet) respondErr(c *gin.Context, err error) {
	var validationErr *service.ValidationError
	var conflictErr *service.ConflictError
	var execErr *service.ExecutionError

	switch {
	case errors.As(err, &validationErr):
		fail(c, http.StatusBadRequest, validationErr.Message)
	case errors.As(err, &conflictErr):
		fail(c, http.StatusConflict, conflictErr.Message)
	case errors.As(err, &execErr):
		body := gin.H{"success": false, "message": execErr.Message}
		if execErr.Code != "" {
			body["code"] = execErr.Code
		}
		c.JSON(http.StatusBadRequest, body)
	case errors.Is(err, service.ErrInvalidCredentials):
		fail(c, http.StatusUnauthorized, "invalid username or password")
	case errors.Is(err, service.ErrDenied):
		fail(c, http.StatusForbidden, "access denied")
	case errors.Is(err, service.ErrNotFound):
		fail(c, http.StatusNotFound, "not found")
	default:
		h.log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
		fail(c, http.StatusInternalServerError, "internal server error")
	}
}
