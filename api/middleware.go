package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apierrors "github.com/quexa/spotmatch/pkg/errors"
)

const userIDHeader = "X-User-ID"

const userIDKey = "userID"

// requireUser resolves the caller's identity from the X-User-ID header.
// The gateway in front of this service owns authentication; a missing
// or malformed header is rejected here.
func (s *Server) requireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(userIDHeader)
		if raw == "" {
			problem := apierrors.NewValidationProblem("missing "+userIDHeader+" header", c.FullPath())
			c.AbortWithStatusJSON(http.StatusUnauthorized, problem)
			return
		}
		userID, err := uuid.Parse(raw)
		if err != nil {
			problem := apierrors.NewValidationProblem("malformed "+userIDHeader+" header", c.FullPath())
			c.AbortWithStatusJSON(http.StatusUnauthorized, problem)
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

// currentUser returns the user id stored by requireUser.
func currentUser(c *gin.Context) uuid.UUID {
	return c.MustGet(userIDKey).(uuid.UUID)
}
