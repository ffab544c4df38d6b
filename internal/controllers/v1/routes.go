package v1

import (
	"github.com/gin-gonic/gin"

	"github.com/tallyplan/backend/internal/editor"
)

// sessions is the registry of open editor sessions. It is set once
// during route registration.
var sessions *editor.Registry

// RegisterRoutes attaches all v1 routes to the group.
func RegisterRoutes(r *gin.RouterGroup, registry *editor.Registry) {
	sessions = registry

	RegisterProjectRoutes(r.Group("/projects"))
	RegisterSessionRoutes(r.Group("/sessions"))
}
