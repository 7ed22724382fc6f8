package httpserver

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"storefront/internal/domain"
	"storefront/internal/service/anonymous"
)

const (
	headerUserID     = "X-User-Id"
	headerUserRole   = "X-User-Role"
	headerGuestToken = "X-Guest-Token"

	callerCtxKey = "storefront.caller"
)

// caller is the authenticated identity of a request.
type caller struct {
	Owner domain.OwnerKey
	Role  domain.Role
}

// actor is the value recorded as performedBy in the activity log.
func (c caller) actor() string {
	if id := c.Owner.UserID(); id != "" {
		return id
	}
	return string(c.Owner)
}

// identityMiddleware trusts the gateway's user headers and falls back to a
// guest bearer token.
func identityMiddleware(guests GuestService, logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID := strings.TrimSpace(c.GetHeader(headerUserID)); userID != "" {
			role, ok := domain.ParseRole(c.GetHeader(headerUserRole))
			if !ok {
				abortJSON(c, http.StatusUnauthorized, "unknown role")
				return
			}
			c.Set(callerCtxKey, caller{Owner: domain.UserOwner(userID), Role: role})
			c.Next()
			return
		}

		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			abortJSON(c, http.StatusUnauthorized, "authentication required")
			return
		}
		guestID, err := guests.LookupByToken(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, anonymous.ErrInvalidToken) {
				abortJSON(c, http.StatusUnauthorized, "invalid token")
				return
			}
			logger.Printf("identity: guest token lookup error=%v", err)
			abortJSON(c, http.StatusInternalServerError, "internal error")
			return
		}
		c.Set(callerCtxKey, caller{Owner: domain.GuestOwner(guestID), Role: domain.RoleGuest})
		c.Next()
	}
}

func requireCapability(capability domain.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, ok := callerFrom(c)
		if !ok {
			abortJSON(c, http.StatusUnauthorized, "authentication required")
			return
		}
		if !who.Role.Can(capability) {
			abortJSON(c, http.StatusForbidden, "forbidden")
			return
		}
		c.Next()
	}
}

func callerFrom(c *gin.Context) (caller, bool) {
	v, ok := c.Get(callerCtxKey)
	if !ok {
		return caller{}, false
	}
	who, ok := v.(caller)
	return who, ok
}

func bearerToken(header string) string {
	const prefix = "bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

func abortJSON(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}
