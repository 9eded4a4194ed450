package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edu-erp-api/internal/models"
	"github.com/noah-isme/edu-erp-api/pkg/response"
)

type directoryLookups interface {
	Users(ctx context.Context, roleID string) []models.User
	Roles(ctx context.Context) []models.Role
	Courses(ctx context.Context, institutionID string) []models.Course
	Institutions(ctx context.Context) []models.Institution
}

// DirectoryHandler exposes the reference collections.
type DirectoryHandler struct {
	directory directoryLookups
}

// NewDirectoryHandler constructs DirectoryHandler.
func NewDirectoryHandler(directory directoryLookups) *DirectoryHandler {
	return &DirectoryHandler{directory: directory}
}

// Users godoc
// @Summary List users
// @Tags Directory
// @Produce json
// @Param roleId query string false "Filter by role"
// @Success 200 {object} response.Envelope
// @Router /users [get]
func (h *DirectoryHandler) Users(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.directory.Users(c.Request.Context(), c.Query("roleId")), nil)
}

// Roles godoc
// @Summary List roles
// @Tags Directory
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /roles [get]
func (h *DirectoryHandler) Roles(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.directory.Roles(c.Request.Context()), nil)
}

// Courses godoc
// @Summary List courses
// @Tags Directory
// @Produce json
// @Param institutionId query string false "Filter by institution"
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *DirectoryHandler) Courses(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.directory.Courses(c.Request.Context(), c.Query("institutionId")), nil)
}

// Institutions godoc
// @Summary List institutions
// @Tags Directory
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /institutions [get]
func (h *DirectoryHandler) Institutions(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.directory.Institutions(c.Request.Context()), nil)
}
