package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/edu-erp-api/internal/models"
)

type directoryReader interface {
	ListUsers(ctx context.Context, roleID string) []models.User
	ListRoles(ctx context.Context) []models.Role
	ListCourses(ctx context.Context, institutionID string) []models.Course
	ListInstitutions(ctx context.Context) []models.Institution
}

// DirectoryService serves the read-only reference collections.
type DirectoryService struct {
	repo   directoryReader
	logger *zap.Logger
}

// NewDirectoryService constructs the directory service.
func NewDirectoryService(repo directoryReader, logger *zap.Logger) *DirectoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DirectoryService{repo: repo, logger: logger}
}

// Users lists users, optionally restricted to a role.
func (s *DirectoryService) Users(ctx context.Context, roleID string) []models.User {
	return s.repo.ListUsers(ctx, roleID)
}

// Counselors lists the users who may own leads.
func (s *DirectoryService) Counselors(ctx context.Context) []models.User {
	return s.repo.ListUsers(ctx, models.RoleCounselor)
}

// Roles lists the roles.
func (s *DirectoryService) Roles(ctx context.Context) []models.Role {
	return s.repo.ListRoles(ctx)
}

// Courses lists the catalog, optionally for one institution.
func (s *DirectoryService) Courses(ctx context.Context, institutionID string) []models.Course {
	return s.repo.ListCourses(ctx, institutionID)
}

// Institutions lists the institutions.
func (s *DirectoryService) Institutions(ctx context.Context) []models.Institution {
	return s.repo.ListInstitutions(ctx)
}
