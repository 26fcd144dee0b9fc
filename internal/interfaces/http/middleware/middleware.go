// Package middleware provides the gin middleware chain shared by all routes.
package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/promptdeck/promptdeck/internal/infrastructure/monitoring/logging"
	"github.com/promptdeck/promptdeck/pkg/errors"
)

// Context keys set by the middleware chain.
const (
	CtxKeyOrgID     = "org_id"
	CtxKeyRequestID = "request_id"

	HeaderOrgID     = "X-Org-ID"
	HeaderRequestID = "X-Request-ID"
)

// RequestID assigns every request an id, honouring one supplied by the
// caller, and echoes it on the response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(CtxKeyRequestID, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

// RequestLogger logs one line per request after it completes.
func RequestLogger(log logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.Info("http request",
			logging.String("method", c.Request.Method),
			logging.String("path", c.Request.URL.Path),
			logging.Int("status", c.Writer.Status()),
			logging.Duration("duration", time.Since(start)),
			logging.String("request_id", c.GetString(CtxKeyRequestID)),
			logging.String("org_id", c.GetString(CtxKeyOrgID)),
			logging.String("client_ip", c.ClientIP()),
		)
	}
}

// Recovery converts panics into a JSON 500 instead of tearing the connection
// down mid-response.
func Recovery(log logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic recovered in handler",
					logging.Any("panic", r),
					logging.String("path", c.Request.URL.Path),
					logging.String("request_id", c.GetString(CtxKeyRequestID)),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": gin.H{
						"code":    string(errors.ErrCodeInternal),
						"message": errors.DefaultMessageForCode(errors.ErrCodeInternal),
					},
				})
			}
		}()
		c.Next()
	}
}

// TenantRequired extracts the organization id from the X-Org-ID header and
// rejects requests without one.  Full authentication lives upstream; this
// service trusts the gateway-injected header.
func TenantRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetHeader(HeaderOrgID)
		if orgID == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error": gin.H{
					"code":    string(errors.ErrCodeTenantMissing),
					"message": errors.DefaultMessageForCode(errors.ErrCodeTenantMissing),
				},
			})
			return
		}
		c.Set(CtxKeyOrgID, orgID)
		c.Next()
	}
}
