package service

import (
	"context"

	"terramap/api/internal/models"
	"terramap/api/internal/session"
)

// The services program against these narrow store interfaces; the pgx-backed
// repositories and the redis session store satisfy them.

type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByUsername(ctx context.Context, username string) (models.User, error)
	GetByID(ctx context.Context, id string) (models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Delete(ctx context.Context, id string) error
	Counts(ctx context.Context) (total int, admins int, err error)
	UpdateRole(ctx context.Context, id string, role models.Role) error
	PromoteFirstAdmin(ctx context.Context, id string) (bool, error)
}

type TerrainStore interface {
	Create(ctx context.Context, terrain models.Terrain) error
	GetOwned(ctx context.Context, id, ownerID string) (models.Terrain, error)
	DeleteOwned(ctx context.Context, id, ownerID string) error
	ListByOwner(ctx context.Context, ownerID string) ([]models.Terrain, error)
	ListPublic(ctx context.Context) ([]models.TerrainSummary, error)
	OwnerStats(ctx context.Context, ownerID string) (models.TerrainStats, error)
	SystemStats(ctx context.Context) (models.TerrainStats, error)
}

type SessionStore interface {
	Create(ctx context.Context, userID string) (session.Session, error)
	Get(ctx context.Context, id string) (session.Session, error)
	Delete(ctx context.Context, id string) error
	DeleteByUser(ctx context.Context, userID string) error
}
