package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/RPwnage/EA-Software-sub002/internal/errs"
	"github.com/RPwnage/EA-Software-sub002/internal/model"
	"github.com/RPwnage/EA-Software-sub002/internal/service"
	"github.com/RPwnage/EA-Software-sub002/pkg/constants"
	"github.com/gin-gonic/gin"
)

// SessionHandler handles the session-directory REST surface.
type SessionHandler struct {
	dir *service.Directory
}

// NewSessionHandler creates a session handler.
func NewSessionHandler(dir *service.Directory) *SessionHandler {
	return &SessionHandler{dir: dir}
}

// callerFromHeaders extracts the identity context: bearer xuid from the
// Authorization header, delegated xuids from the on-behalf-of header
// (comma-separated "xuid;token" entries), and the deny-scope marker.
func callerFromHeaders(c *gin.Context) model.Caller {
	var caller model.Caller
	if auth := c.GetHeader(constants.HeaderAuthorization); strings.HasPrefix(auth, constants.BearerPrefix) {
		caller.BearerXuid = strings.TrimSpace(strings.TrimPrefix(auth, constants.BearerPrefix))
	}
	if obo := c.GetHeader(constants.HeaderOnBehalfOfUsers); obo != "" {
		for _, entry := range strings.Split(obo, ",") {
			entry = strings.TrimSpace(entry)
			if entry == "" {
				continue
			}
			xuid := entry
			if i := strings.IndexByte(entry, ';'); i >= 0 {
				xuid = entry[:i]
			}
			caller.OnBehalfOf = append(caller.OnBehalfOf, xuid)
		}
	}
	caller.DenyManageScope = c.GetHeader(constants.HeaderDenyScope) == constants.DenyScopeManage
	return caller
}

// respondError maps the error taxonomy onto HTTP status codes.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errs.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, errs.ErrBadRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, errs.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, errs.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// GetTemplate godoc
// GET /serviceconfigs/:scid/sessiontemplates/:templateName
func (h *SessionHandler) GetTemplate(c *gin.Context) {
	c.JSON(http.StatusOK, h.dir.GetTemplate(c.Param("templateName")))
}

// GetSession godoc
// GET /serviceconfigs/:scid/sessiontemplates/:templateName/sessions/:sessionName
func (h *SessionHandler) GetSession(c *gin.Context) {
	sess, err := h.dir.GetSession(c.Param("sessionName"), callerFromHeaders(c))
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			c.Status(http.StatusNoContent)
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

// PutSession godoc
// PUT /serviceconfigs/:scid/sessiontemplates/:templateName/sessions/:sessionName
// Query nocommit=true runs validation without persisting.
func (h *SessionHandler) PutSession(c *gin.Context) {
	var req model.PutSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "message": err.Error()})
		return
	}
	ref := model.SessionRef{
		Scid:         c.Param("scid"),
		TemplateName: c.Param("templateName"),
		Name:         c.Param("sessionName"),
	}
	commit := c.Query("nocommit") != "true"

	sess, created, err := h.dir.PutSession(ref, callerFromHeaders(c), &req, commit)
	if err != nil {
		respondError(c, err)
		return
	}
	switch {
	case sess == nil:
		c.Status(http.StatusOK)
	case created:
		c.JSON(http.StatusCreated, sess)
	default:
		c.JSON(http.StatusOK, sess)
	}
}

// GetUserSessions godoc
// GET /users/:xuid/sessions
func (h *SessionHandler) GetUserSessions(c *gin.Context) {
	resp, err := h.dir.GetSessionsForUser(c.Param("xuid"))
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			c.Status(http.StatusNoContent)
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
