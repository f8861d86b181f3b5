package controllers

import (
	"net/http"

	"hairtryapi/studio"

	"github.com/labstack/echo/v4"
)

// SessionMiddleware resolves the :sessionId path param against the registry
// and puts the session on the request context as "currentSession".
func SessionMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		store, ok := c.Get("__store").(*studio.Store)
		if !ok {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Session store is not available"})
		}

		sessionID := c.Param("sessionId")
		if sessionID == "" {
			return echo.ErrBadRequest
		}

		session, ok := store.Get(sessionID)
		if !ok {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Session not found"})
		}

		c.Set("currentSession", session)
		return next(c)
	}
}
