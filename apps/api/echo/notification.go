package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/onboardme/backend/core/notification"
)

type notificationApi struct {
	svc *notification.Service
}

func registerNotificationAPI(g *echo.Group, svc *notification.Service) {
	api := notificationApi{svc: svc}

	ng := g.Group("/notifications")
	ng.GET("/user/:userId", api.queryByUser)
	ng.PUT("/:id/read", api.markRead)
}

// Handlers

func (api *notificationApi) queryByUser(ctx echo.Context) error {
	userID, err := pathID(ctx, "userId")
	if err != nil {
		return err
	}
	notifs, err := api.svc.QueryByUser(ctx.Request().Context(), userID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, notifs)
}

func (api *notificationApi) markRead(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	notif, err := api.svc.MarkRead(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, notif)
}
