package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"terramap/api/internal/middleware"
	"terramap/api/internal/models"
	"terramap/api/internal/service"
)

type saveTerrainRequest struct {
	Name        string         `json:"name" binding:"required"`
	Description string         `json:"description"`
	Coordinates []models.Point `json:"coordinates" binding:"required"`
	Area        string         `json:"area" binding:"required"`
}

type terrainResponse struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Coordinates []models.Point `json:"coordinates"`
	Area        string         `json:"area"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

type terrainSummaryResponse struct {
	Coordinates []models.Point `json:"coordinates"`
	Area        string         `json:"area"`
}

func toTerrainResponse(terrain models.Terrain) terrainResponse {
	return terrainResponse{
		ID:          terrain.ID,
		Name:        terrain.Name,
		Description: terrain.Description,
		Coordinates: terrain.Coordinates,
		Area:        terrain.Area,
		CreatedAt:   terrain.CreatedAt,
		UpdatedAt:   terrain.UpdatedAt,
	}
}

func (h HandlerSet) SaveTerrain(c *gin.Context) {
	var req saveTerrainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "name, coordinates and area are required")
		return
	}

	terrain, err := h.terrainService.Create(c.Request.Context(), middleware.CurrentIdentity(c), service.CreateTerrainInput{
		Name:        req.Name,
		Description: req.Description,
		Coordinates: req.Coordinates,
		Area:        req.Area,
	})
	if err != nil {
		h.respondErr(c, err)
		return
	}

	ok(c, http.StatusCreated, "terrain saved", gin.H{
		"terrain_id": terrain.ID,
	})
}

func (h HandlerSet) GetTerrains(c *gin.Context) {
	terrains, err := h.terrainService.List(c.Request.Context(), middleware.CurrentIdentity(c))
	if err != nil {
		h.respondErr(c, err)
		return
	}

	resp := make([]terrainResponse, 0, len(terrains))
	for _, terrain := range terrains {
		resp = append(resp, toTerrainResponse(terrain))
	}

	ok(c, http.StatusOK, "", gin.H{"terrains": resp})
}

func (h HandlerSet) GetTerrain(c *gin.Context) {
	terrain, err := h.terrainService.Get(c.Request.Context(), middleware.CurrentIdentity(c), c.Param("id"))
	if err != nil {
		h.respondErr(c, err)
		return
	}

	ok(c, http.StatusOK, "", gin.H{"terrain": toTerrainResponse(terrain)})
}

func (h HandlerSet) DeleteTerrain(c *gin.Context) {
	if err := h.terrainService.Delete(c.Request.Context(), middleware.CurrentIdentity(c), c.Param("id")); err != nil {
		h.respondErr(c, err)
		return
	}

	ok(c, http.StatusOK, "terrain deleted", nil)
}

// PublicMap serves the anonymous map view. Every terrain appears, reduced
// to shape and area.
func (h HandlerSet) PublicMap(c *gin.Context) {
	summaries, err := h.terrainService.ListPublic(c.Request.Context())
	if err != nil {
		h.respondErr(c, err)
		return
	}

	resp := make([]terrainSummaryResponse, 0, len(summaries))
	for _, summary := range summaries {
		resp = append(resp, terrainSummaryResponse{
			Coordinates: summary.Coordinates,
			Area:        summary.Area,
		})
	}

	ok(c, http.StatusOK, "", gin.H{"terrains": resp})
}

func (h HandlerSet) PublicStats(c *gin.Context) {
	stats, err := h.terrainService.PublicStats(c.Request.Context())
	if err != nil {
		h.respondErr(c, err)
		return
	}

	ok(c, http.StatusOK, "", gin.H{"stats": stats})
}

func (h HandlerSet) OwnerStats(c *gin.Context) {
	stats, err := h.terrainService.OwnerStats(c.Request.Context(), middleware.CurrentIdentity(c))
	if err != nil {
		h.respondErr(c, err)
		return
	}

	ok(c, http.StatusOK, "", gin.H{"stats": stats})
}
