package api

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gcbaptista/go-hotel-search/internal/session"
	"github.com/gcbaptista/go-hotel-search/model"
)

// CreateSessionHandler handles the request to start a new search session.
func (api *API) CreateSessionHandler(c *gin.Context) {
	s, err := api.sessions.Create()
	if err != nil {
		SendInternalError(c, "session creation", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"session_id": s.ID,
		"created_at": s.CreatedAt,
		"view":       s.View(),
	})
}

// GetSessionHandler returns the ranked listings of a session together with its state.
func (api *API) GetSessionHandler(c *gin.Context) {
	s, ok := api.lookupSession(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, s.Results())
}

// DeleteSessionHandler drops a session and everything it holds.
func (api *API) DeleteSessionHandler(c *gin.Context) {
	sessionID := c.Param("sessionId")
	if result := ValidateSessionID(sessionID); result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	if err := api.sessions.Delete(sessionID); err != nil {
		SendOperationError(c, "session deletion", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Session '" + sessionID + "' deleted successfully"})
}

// SearchHandler starts a new primary search.
// Request Body: SearchRequest
func (api *API) SearchHandler(c *gin.Context) {
	s, ok := api.lookupSession(c)
	if !ok {
		return
	}

	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		SendInvalidJSONError(c, err)
		return
	}
	if result := ValidateSearchRequest(&req); result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	src := model.SourceState(strings.ToLower(strings.TrimSpace(req.Source)))
	if err := s.Search(c.Request.Context(), src, req.Params()); err != nil {
		SendOperationError(c, "search", err)
		return
	}

	c.JSON(http.StatusOK, s.Results())
}

// RefreshHandler re-fetches live listings bypassing the upstream cache.
// The body is optional; without one the last search parameters are reused.
func (api *API) RefreshHandler(c *gin.Context) {
	s, ok := api.lookupSession(c)
	if !ok {
		return
	}

	params, hasParams := s.LastParams()
	var req RefreshRequest
	switch err := c.ShouldBindJSON(&req); {
	case errors.Is(err, io.EOF):
		// no body, whatever the transfer encoding
		if !hasParams {
			SendError(c, http.StatusBadRequest, ErrorCodeInvalidRequest,
				"No previous search to refresh: provide city, checkin and checkout")
			return
		}
	case err != nil:
		SendInvalidJSONError(c, err)
		return
	default:
		if result := ValidateRefreshRequest(&req); result.HasErrors() {
			SendValidationError(c, result)
			return
		}
		params = req.Params()
	}

	if err := s.Refresh(c.Request.Context(), params); err != nil {
		SendOperationError(c, "refresh", err)
		return
	}

	c.JSON(http.StatusOK, s.Results())
}

// LoadMoreHandler merges listings from the other source into the session.
func (api *API) LoadMoreHandler(c *gin.Context) {
	s, ok := api.lookupSession(c)
	if !ok {
		return
	}

	if err := s.LoadMore(c.Request.Context()); err != nil {
		SendOperationError(c, "load more", err)
		return
	}

	c.JSON(http.StatusOK, s.Results())
}

// UpdateViewHandler changes the query, sort, relevance target or theme of a session.
// Request Body: ViewRequest
func (api *API) UpdateViewHandler(c *gin.Context) {
	s, ok := api.lookupSession(c)
	if !ok {
		return
	}

	var req ViewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		SendInvalidJSONError(c, err)
		return
	}
	if result := ValidateViewRequest(&req); result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	_, err := s.UpdateView(session.ViewUpdate{
		Query:        req.Query,
		SortField:    req.SortField,
		SortOrder:    req.SortOrder,
		TargetRating: req.TargetRating,
		TargetPrice:  req.TargetPrice,
		K:            req.K,
		Theme:        req.Theme,
	})
	if err != nil {
		SendOperationError(c, "view update", err)
		return
	}

	c.JSON(http.StatusOK, s.Results())
}

func (api *API) lookupSession(c *gin.Context) (*session.Session, bool) {
	sessionID := c.Param("sessionId")
	if result := ValidateSessionID(sessionID); result.HasErrors() {
		SendValidationError(c, result)
		return nil, false
	}

	s, err := api.sessions.Get(sessionID)
	if err != nil {
		SendOperationError(c, "session lookup", err)
		return nil, false
	}
	return s, true
}
