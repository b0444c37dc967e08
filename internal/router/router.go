package router

import (
	"net/http"
	"strconv"

	"github.com/RPwnage/EA-Software-sub002/internal/handler"
	"github.com/RPwnage/EA-Software-sub002/pkg/constants"
	"github.com/gin-gonic/gin"
)

// contractVersion stamps the directory's contract version on every response
// and rejects requests declaring a non-numeric version.
func contractVersion() gin.HandlerFunc {
	return func(c *gin.Context) {
		if v := c.GetHeader(constants.HeaderContractVersion); v != "" {
			if _, err := strconv.Atoi(v); err != nil {
				c.AbortWithStatusJSON(http.StatusBadRequest,
					gin.H{"error": "invalid contract version: " + v})
				return
			}
		}
		c.Header(constants.HeaderContractVersion, strconv.Itoa(constants.ContractVersion))
		c.Next()
	}
}

// New builds the HTTP router.
func New(
	sessionHandler *handler.SessionHandler,
	handlesHandler *handler.HandlesHandler,
	eventsHandler *handler.EventsHandler,
	health *handler.HealthHandler,
) http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), contractVersion())

	r.GET(constants.PathHealth, health.Health)
	r.GET(constants.PathReady, health.Ready)

	// Session directory
	r.GET(constants.PathTemplate, sessionHandler.GetTemplate)
	r.GET(constants.PathSession, sessionHandler.GetSession)
	r.PUT(constants.PathSession, sessionHandler.PutSession)
	r.GET(constants.PathUserSessions, sessionHandler.GetUserSessions)

	// Activity handles
	r.POST(constants.PathHandles, handlesHandler.SetActivity)
	r.POST(constants.PathHandlesQuery, handlesHandler.GetActivity)

	// Harness event feed
	r.GET(constants.PathEvents, eventsHandler.ServeWS)

	return r
}
