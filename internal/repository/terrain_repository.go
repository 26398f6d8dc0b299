package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"terramap/api/internal/models"
)

var ErrTerrainNotFound = errors.New("terrain not found")

type TerrainRepository struct {
	pool *pgxpool.Pool
}

func NewTerrainRepository(pool *pgxpool.Pool) *TerrainRepository {
	return &TerrainRepository{pool: pool}
}

func (r *TerrainRepository) Create(ctx context.Context, terrain models.Terrain) error {
	coords, err := json.Marshal(terrain.Coordinates)
	if err != nil {
		return fmt.Errorf("encode coordinates: %w", err)
	}

	const query = `
		INSERT INTO terrains (id, user_id, name, description, coordinates, area, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6::numeric, NOW(), NOW())
	`

	_, err = r.pool.Exec(ctx, query,
		terrain.ID,
		terrain.OwnerID,
		terrain.Name,
		terrain.Description,
		coords,
		terrain.Area,
	)
	return err
}

// GetOwned reads a terrain only when both id and owner match. A terrain that
// exists but belongs to someone else is indistinguishable from one that does
// not exist.
func (r *TerrainRepository) GetOwned(ctx context.Context, id, ownerID string) (models.Terrain, error) {
	const query = `
		SELECT id, user_id, name, description, coordinates, area::text, created_at, updated_at
		FROM terrains
		WHERE id = $1 AND user_id = $2
	`
	return r.scanTerrain(r.pool.QueryRow(ctx, query, id, ownerID))
}

// DeleteOwned deletes only the caller's own terrain; the owner predicate in
// the statement is what stops cross-user deletion.
func (r *TerrainRepository) DeleteOwned(ctx context.Context, id, ownerID string) error {
	const query = `DELETE FROM terrains WHERE id = $1 AND user_id = $2`
	cmd, err := r.pool.Exec(ctx, query, id, ownerID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrTerrainNotFound
	}
	return nil
}

func (r *TerrainRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Terrain, error) {
	const query = `
		SELECT id, user_id, name, description, coordinates, area::text, created_at, updated_at
		FROM terrains
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var terrains []models.Terrain
	for rows.Next() {
		terrain, err := r.scanTerrain(rows)
		if err != nil {
			return nil, err
		}
		terrains = append(terrains, terrain)
	}
	return terrains, rows.Err()
}

// ListPublic returns every terrain with shape and area only, for the
// anonymous map view.
func (r *TerrainRepository) ListPublic(ctx context.Context) ([]models.TerrainSummary, error) {
	const query = `
		SELECT coordinates, area::text
		FROM terrains
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []models.TerrainSummary
	for rows.Next() {
		var (
			raw     []byte
			summary models.TerrainSummary
		)
		if err := rows.Scan(&raw, &summary.Area); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &summary.Coordinates); err != nil {
			return nil, fmt.Errorf("decode coordinates: %w", err)
		}
		summaries = append(summaries, summary)
	}
	return summaries, rows.Err()
}

func (r *TerrainRepository) OwnerStats(ctx context.Context, ownerID string) (models.TerrainStats, error) {
	const query = `
		SELECT COUNT(*), COALESCE(SUM(area), 0)::text
		FROM terrains
		WHERE user_id = $1
	`
	var stats models.TerrainStats
	if err := r.pool.QueryRow(ctx, query, ownerID).Scan(&stats.Count, &stats.TotalArea); err != nil {
		return models.TerrainStats{}, err
	}
	return stats, nil
}

func (r *TerrainRepository) SystemStats(ctx context.Context) (models.TerrainStats, error) {
	const query = `SELECT COUNT(*), COALESCE(SUM(area), 0)::text FROM terrains`
	var stats models.TerrainStats
	if err := r.pool.QueryRow(ctx, query).Scan(&stats.Count, &stats.TotalArea); err != nil {
		return models.TerrainStats{}, err
	}
	return stats, nil
}

func (r *TerrainRepository) scanTerrain(row pgx.Row) (models.Terrain, error) {
	var (
		terrain models.Terrain
		raw     []byte
	)
	if err := row.Scan(
		&terrain.ID,
		&terrain.OwnerID,
		&terrain.Name,
		&terrain.Description,
		&raw,
		&terrain.Area,
		&terrain.CreatedAt,
		&terrain.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Terrain{}, ErrTerrainNotFound
		}
		return models.Terrain{}, err
	}

	if err := json.Unmarshal(raw, &terrain.Coordinates); err != nil {
		return models.Terrain{}, fmt.Errorf("decode coordinates: %w", err)
	}
	return terrain, nil
}
