package handlers

import (
	"context"
	"fmt"
	"sync"

	"terramap/api/internal/models"
	"terramap/api/internal/repository"
	"terramap/api/internal/session"
)

// In-memory stands-ins for the pgx repositories and the redis session
// store, shared by the route tests.

type fakeUserStore struct {
	mu    sync.Mutex
	users map[string]models.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[string]models.User)}
}

func (s *fakeUserStore) Create(_ context.Context, user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Username == user.Username {
			return repository.ErrUsernameTaken
		}
		if existing.Email == user.Email {
			return repository.ErrEmailTaken
		}
	}
	s.users[user.ID] = user
	return nil
}

func (s *fakeUserStore) FindByUsername(_ context.Context, username string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Username == username {
			return user, nil
		}
	}
	return models.User{}, repository.ErrUserNotFound
}

func (s *fakeUserStore) GetByID(_ context.Context, id string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return models.User{}, repository.ErrUserNotFound
	}
	return user, nil
}

func (s *fakeUserStore) List(_ context.Context) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.User, 0, len(s.users))
	for _, user := range s.users {
		out = append(out, user)
	}
	return out, nil
}

func (s *fakeUserStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return repository.ErrUserNotFound
	}
	delete(s.users, id)
	return nil
}

func (s *fakeUserStore) Counts(_ context.Context) (int, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	admins := 0
	for _, user := range s.users {
		if user.Role == models.RoleAdmin {
			admins++
		}
	}
	return len(s.users), admins, nil
}

func (s *fakeUserStore) UpdateRole(_ context.Context, id string, role models.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	user.Role = role
	s.users[id] = user
	return nil
}

func (s *fakeUserStore) PromoteFirstAdmin(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.users) != 1 {
		return false, nil
	}
	for _, user := range s.users {
		if user.Role == models.RoleAdmin {
			return false, nil
		}
	}
	user, ok := s.users[id]
	if !ok {
		return false, nil
	}
	user.Role = models.RoleAdmin
	s.users[id] = user
	return true, nil
}

type fakeSessionStore struct {
	mu       sync.Mutex
	next     int
	sessions map[string]session.Session
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[string]session.Session)}
}

func (s *fakeSessionStore) Create(_ context.Context, userID string) (session.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	sess := session.Session{ID: fmt.Sprintf("sess-%d", s.next), UserID: userID}
	s.sessions[sess.ID] = sess
	return sess, nil
}

func (s *fakeSessionStore) Get(_ context.Context, id string) (session.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return session.Session{}, session.ErrSessionNotFound
	}
	return sess, nil
}

func (s *fakeSessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

func (s *fakeSessionStore) DeleteByUser(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sess := range s.sessions {
		if sess.UserID == userID {
			delete(s.sessions, id)
		}
	}
	return nil
}

type fakeTerrainStore struct {
	mu       sync.Mutex
	terrains map[string]models.Terrain
}

func newFakeTerrainStore() *fakeTerrainStore {
	return &fakeTerrainStore{terrains: make(map[string]models.Terrain)}
}

func (s *fakeTerrainStore) Create(_ context.Context, terrain models.Terrain) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.terrains[terrain.ID] = terrain
	return nil
}

func (s *fakeTerrainStore) GetOwned(_ context.Context, id, ownerID string) (models.Terrain, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	terrain, ok := s.terrains[id]
	if !ok || terrain.OwnerID != ownerID {
		return models.Terrain{}, repository.ErrTerrainNotFound
	}
	return terrain, nil
}

func (s *fakeTerrainStore) DeleteOwned(_ context.Context, id, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	terrain, ok := s.terrains[id]
	if !ok || terrain.OwnerID != ownerID {
		return repository.ErrTerrainNotFound
	}
	delete(s.terrains, id)
	return nil
}

func (s *fakeTerrainStore) ListByOwner(_ context.Context, ownerID string) ([]models.Terrain, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Terrain
	for _, terrain := range s.terrains {
		if terrain.OwnerID == ownerID {
			out = append(out, terrain)
		}
	}
	return out, nil
}

func (s *fakeTerrainStore) ListPublic(_ context.Context) ([]models.TerrainSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.TerrainSummary
	for _, terrain := range s.terrains {
		out = append(out, models.TerrainSummary{
			Coordinates: terrain.Coordinates,
			Area:        terrain.Area,
		})
	}
	return out, nil
}

func (s *fakeTerrainStore) OwnerStats(_ context.Context, ownerID string) (models.TerrainStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := models.TerrainStats{TotalArea: "0"}
	for _, terrain := range s.terrains {
		if terrain.OwnerID == ownerID {
			stats.Count++
			stats.TotalArea = terrain.Area
		}
	}
	return stats, nil
}

func (s *fakeTerrainStore) SystemStats(_ context.Context) (models.TerrainStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := models.TerrainStats{TotalArea: "0"}
	for _, terrain := range s.terrains {
		stats.Count++
		stats.TotalArea = terrain.Area
	}
	return stats, nil
}
