package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/markusressel/fancontrol/internal/sources"
)

func registerSourceEndpoints(rest *echo.Echo) {
	group := rest.Group("/source")

	group.GET("/", getSources)
	group.GET("/:"+urlParamId+"/", getSource)
}

func getSources(c echo.Context) error {
	data := map[string]sources.Snapshot{}
	for id, tracked := range sources.SourceMap.Items() {
		data[id] = tracked.Snapshot()
	}
	return c.JSONPretty(http.StatusOK, data, indentationChar)
}

func getSource(c echo.Context) error {
	id := c.Param(urlParamId)

	tracked, exists := sources.SourceMap.Get(id)
	if !exists {
		return returnNotFound(c, id)
	}
	return c.JSONPretty(http.StatusOK, tracked.Snapshot(), indentationChar)
}
