package repository

import (
	"context"
	"errors"
	"sync"

	"github.com/noah-isme/edu-erp-api/internal/models"
)

// ErrUserNotFound is returned when a user id does not resolve.
var ErrUserNotFound = errors.New("user not found")

// DirectoryRepository holds the reference collections: users, roles, courses and institutions.
type DirectoryRepository struct {
	mu           sync.RWMutex
	users        []models.User
	roles        []models.Role
	courses      []models.Course
	institutions []models.Institution
}

// NewDirectoryRepository constructs an empty directory.
func NewDirectoryRepository() *DirectoryRepository {
	return &DirectoryRepository{}
}

// Seed replaces the directory contents.
func (r *DirectoryRepository) Seed(roles []models.Role, users []models.User, institutions []models.Institution, courses []models.Course) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.roles = append([]models.Role{}, roles...)
	r.users = append([]models.User{}, users...)
	r.institutions = append([]models.Institution{}, institutions...)
	r.courses = append([]models.Course{}, courses...)
}

// FindUser returns the user with the given id.
func (r *DirectoryRepository) FindUser(ctx context.Context, id string) (models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.ID == id {
			return u, nil
		}
	}
	return models.User{}, ErrUserNotFound
}

// ListUsers returns users, optionally restricted to a role id.
func (r *DirectoryRepository) ListUsers(ctx context.Context, roleID string) []models.User {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.User, 0, len(r.users))
	for _, u := range r.users {
		if roleID != "" && u.Role.ID != roleID {
			continue
		}
		out = append(out, u)
	}
	return out
}

// ListRoles returns every role.
func (r *DirectoryRepository) ListRoles(ctx context.Context) []models.Role {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]models.Role{}, r.roles...)
}

// ListCourses returns the course catalog, optionally restricted to an institution.
func (r *DirectoryRepository) ListCourses(ctx context.Context, institutionID string) []models.Course {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Course, 0, len(r.courses))
	for _, c := range r.courses {
		if institutionID != "" && c.InstitutionID != institutionID {
			continue
		}
		out = append(out, c)
	}
	return out
}

// ListInstitutions returns every institution.
func (r *DirectoryRepository) ListInstitutions(ctx context.Context) []models.Institution {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]models.Institution{}, r.institutions...)
}
