package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/markusressel/fancontrol/internal/board"
)

func registerStatusEndpoints(rest *echo.Echo) {
	group := rest.Group("/status")

	group.GET("/", getStatus)
}

func getStatus(c echo.Context) error {
	status := board.LatestStatus()
	if status == nil {
		return c.JSONPretty(http.StatusServiceUnavailable, &Result{
			Name:    "Not ready",
			Message: "The control loop has not completed a tick yet",
		}, indentationChar)
	}
	return c.JSONPretty(http.StatusOK, status, indentationChar)
}
