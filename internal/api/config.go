package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/markusressel/fancontrol/internal/configuration"
	"github.com/qdm12/reprint"
)

func registerConfigEndpoints(rest *echo.Echo, config *configuration.Config) {
	group := rest.Group("/config")

	group.GET("/", func(c echo.Context) error {
		data := reprint.This(*config)
		return c.JSONPretty(http.StatusOK, data, indentationChar)
	})

	group.GET("/schema/", getSchema)
}

func getSchema(c echo.Context) error {
	schema, err := configuration.Schema()
	if err != nil {
		return returnError(c, err)
	}
	return c.JSONPretty(http.StatusOK, schema, indentationChar)
}
