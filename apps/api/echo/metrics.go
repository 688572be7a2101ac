package echoapi

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/onboardme/backend/core/metrics"
)

type metricsApi struct {
	svc *metrics.Service
}

func registerMetricsAPI(g *echo.Group, svc *metrics.Service) {
	api := metricsApi{svc: svc}

	g.GET("/metrics", api.query)
}

func (api *metricsApi) query(ctx echo.Context) error {
	typ := metrics.Type(strings.TrimSpace(ctx.QueryParam("type")))
	if typ == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing metric type")
	}

	filter := metrics.Filter{
		BuddyID:  queryIntParam(ctx, "idBuddy"),
		CourseID: queryIntParam(ctx, "idCourse"),
	}

	metric, err := api.svc.Query(ctx.Request().Context(), typ, filter)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, metric)
}
