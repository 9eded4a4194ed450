package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	// ActorHeader carries the id of the user performing the request.
	ActorHeader = "X-User-ID"
	// ContextActorKey stores the actor id in the gin context.
	ContextActorKey = "actor_id"
)

// Actor copies the acting user id from the request header into the context. The value is
// informational only and is not authenticated.
func Actor() gin.HandlerFunc {
	return func(c *gin.Context) {
		if id := strings.TrimSpace(c.GetHeader(ActorHeader)); id != "" {
			c.Set(ContextActorKey, id)
		}
		c.Next()
	}
}

// ActorID returns the acting user id, or an empty string.
func ActorID(c *gin.Context) string {
	return c.GetString(ContextActorKey)
}
