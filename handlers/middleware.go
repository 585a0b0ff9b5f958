package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		session, err := store.Get(c.Request(), "session")
		if err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "unable to retrieve session"})
		}
		userID, ok := session.Values["user_id"]
		if !ok {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "not logged in"})
		}
		c.Set("user_id", userID)
		return next(c)
	}
}
