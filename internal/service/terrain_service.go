package service

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"terramap/api/internal/auth"
	"terramap/api/internal/ids"
	"terramap/api/internal/models"
	"terramap/api/internal/repository"
)

const publicStatsKey = "terrains:public:stats"

// TerrainService is owner-scoped CRUD over terrain records plus the reduced
// public map view. The area value is accepted as submitted by the drawing
// client; the service validates its form but never recomputes it.
type TerrainService struct {
	terrains TerrainStore
	cache    *redis.Client
	log      zerolog.Logger
}

func NewTerrainService(terrains TerrainStore, cache *redis.Client, log zerolog.Logger) *TerrainService {
	return &TerrainService{terrains: terrains, cache: cache, log: log}
}

type CreateTerrainInput struct {
	Name        string
	Description string
	Coordinates []models.Point
	Area        string
}

func (s *TerrainService) Create(ctx context.Context, identity auth.Identity, input CreateTerrainInput) (models.Terrain, error) {
	if !identity.Authenticated() {
		return models.Terrain{}, ErrDenied
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return models.Terrain{}, invalidf("terrain name is required")
	}
	if len(input.Coordinates) == 0 {
		return models.Terrain{}, invalidf("coordinates are required")
	}
	if err := validateArea(input.Area); err != nil {
		return models.Terrain{}, err
	}

	terrain := models.Terrain{
		ID:          ids.New(),
		OwnerID:     identity.UserID,
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		Coordinates: input.Coordinates,
		Area:        input.Area,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	if err := s.terrains.Create(ctx, terrain); err != nil {
		return models.Terrain{}, err
	}

	s.invalidatePublicStats(ctx)
	return terrain, nil
}

func (s *TerrainService) Get(ctx context.Context, identity auth.Identity, terrainID string) (models.Terrain, error) {
	if !identity.Authenticated() {
		return models.Terrain{}, ErrDenied
	}

	terrain, err := s.terrains.GetOwned(ctx, terrainID, identity.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrTerrainNotFound) {
			return models.Terrain{}, ErrNotFound
		}
		return models.Terrain{}, err
	}
	return terrain, nil
}

func (s *TerrainService) List(ctx context.Context, identity auth.Identity) ([]models.Terrain, error) {
	if !identity.Authenticated() {
		return nil, ErrDenied
	}
	return s.terrains.ListByOwner(ctx, identity.UserID)
}

func (s *TerrainService) Delete(ctx context.Context, identity auth.Identity, terrainID string) error {
	if !identity.Authenticated() {
		return ErrDenied
	}

	if err := s.terrains.DeleteOwned(ctx, terrainID, identity.UserID); err != nil {
		if errors.Is(err, repository.ErrTerrainNotFound) {
			return ErrNotFound
		}
		return err
	}

	s.invalidatePublicStats(ctx)
	return nil
}

// ListPublic serves anonymous map visitors: every terrain, shape and area
// only.
func (s *TerrainService) ListPublic(ctx context.Context) ([]models.TerrainSummary, error) {
	return s.terrains.ListPublic(ctx)
}

func (s *TerrainService) OwnerStats(ctx context.Context, identity auth.Identity) (models.TerrainStats, error) {
	if !identity.Authenticated() {
		return models.TerrainStats{}, ErrDenied
	}
	return s.terrains.OwnerStats(ctx, identity.UserID)
}

// PublicStats returns system-wide terrain count and total area, cached for
// the anonymous landing view and refreshed by the scheduler.
func (s *TerrainService) PublicStats(ctx context.Context) (models.TerrainStats, error) {
	if s.cache != nil {
		raw, err := s.cache.Get(ctx, publicStatsKey).Bytes()
		if err == nil {
			var stats models.TerrainStats
			if err := json.Unmarshal(raw, &stats); err == nil {
				return stats, nil
			}
		}
	}
	return s.RefreshPublicStats(ctx)
}

func (s *TerrainService) RefreshPublicStats(ctx context.Context) (models.TerrainStats, error) {
	stats, err := s.terrains.SystemStats(ctx)
	if err != nil {
		return models.TerrainStats{}, err
	}

	if s.cache != nil {
		raw, err := json.Marshal(stats)
		if err == nil {
			if err := s.cache.Set(ctx, publicStatsKey, raw, 10*time.Minute).Err(); err != nil {
				s.log.Warn().Err(err).Msg("public stats cache write failed")
			}
		}
	}
	return stats, nil
}

func (s *TerrainService) SystemStats(ctx context.Context) (models.TerrainStats, error) {
	return s.terrains.SystemStats(ctx)
}

func (s *TerrainService) invalidatePublicStats(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, publicStatsKey).Err(); err != nil {
		s.log.Warn().Err(err).Msg("public stats cache invalidation failed")
	}
}

// validateArea checks that the submitted value is a plain non-negative
// decimal that fits the stored precision.
func validateArea(area string) error {
	if strings.TrimSpace(area) == "" {
		return invalidf("area is required")
	}
	value, err := strconv.ParseFloat(area, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return invalidf("area must be a decimal number")
	}
	if value < 0 {
		return invalidf("area must not be negative")
	}
	if value >= 1e8 {
		return invalidf("area is out of range")
	}
	return nil
}
