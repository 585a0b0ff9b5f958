package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"yaytsa-site/database"
	"yaytsa-site/users"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func LoginPost(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	userID, ok := users.CheckPassword(database.Get(), req.Username, req.Password)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
	}

	session, err := store.Get(c.Request(), "session")
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "unable to retrieve session"})
	}
	session.Values["user_id"] = userID
	if err := session.Save(c.Request(), c.Response()); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "unable to save session"})
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func Logout(c echo.Context) error {
	session, err := store.Get(c.Request(), "session")
	if err == nil {
		delete(session.Values, "user_id")
		session.Save(c.Request(), c.Response())
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
