package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/onboardme/backend/core/course"
)

type (
	courseApi struct {
		svc      *course.Service
		validate *validator.Validate
	}

	assignRequest struct {
		BuddyID int `json:"buddy_id" validate:"required"`
		UserID  int `json:"user_id" validate:"required"`
	}

	progressRequest struct {
		SectionID int `json:"section_id" validate:"required"`
	}

	progressResponse struct {
		Progress float64 `json:"progress"`
	}
)

func registerCourseAPI(g *echo.Group, svc *course.Service, validate *validator.Validate) {
	api := courseApi{svc: svc, validate: validate}

	cg := g.Group("/courses")
	cg.GET("", api.query)
	cg.POST("", api.create)
	cg.GET("/user/:userId", api.queryByUser)
	cg.GET("/favorites/:userId", api.queryFavorites)

	dg := cg.Group("/:id")
	dg.GET("", api.retrieve)
	dg.PUT("/favorite/:userId", api.toggleFavorite)
	dg.POST("/assign", api.assign)
	dg.PUT("/progress/:userId", api.updateProgress)
	dg.GET("/progress/:userId", api.getProgress)
	dg.GET("/enrollment/:userId", api.getEnrollment)
}

// Handlers

func (api *courseApi) create(ctx echo.Context) error {
	var data course.NewCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	crs, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, crs)
}

func (api *courseApi) query(ctx echo.Context) error {
	courses, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *courseApi) retrieve(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	crs, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *courseApi) queryByUser(ctx echo.Context) error {
	userID, err := pathID(ctx, "userId")
	if err != nil {
		return err
	}
	courses, err := api.svc.QueryByUser(ctx.Request().Context(), userID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *courseApi) queryFavorites(ctx echo.Context) error {
	userID, err := pathID(ctx, "userId")
	if err != nil {
		return err
	}
	courses, err := api.svc.QueryFavorites(ctx.Request().Context(), userID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *courseApi) toggleFavorite(ctx echo.Context) error {
	courseID, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	userID, err := pathID(ctx, "userId")
	if err != nil {
		return err
	}

	if err = api.svc.ToggleFavorite(ctx.Request().Context(), courseID, userID); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *courseApi) assign(ctx echo.Context) error {
	courseID, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	var data assignRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to assignRequest")
	}
	if err = api.validate.Struct(data); err != nil {
		return err
	}

	if err = api.svc.Assign(ctx.Request().Context(), courseID, data.BuddyID, data.UserID); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *courseApi) updateProgress(ctx echo.Context) error {
	courseID, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	userID, err := pathID(ctx, "userId")
	if err != nil {
		return err
	}
	var data progressRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to progressRequest")
	}
	if err = api.validate.Struct(data); err != nil {
		return err
	}

	if err = api.svc.UpdateProgress(ctx.Request().Context(), courseID, userID, data.SectionID); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *courseApi) getProgress(ctx echo.Context) error {
	courseID, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	userID, err := pathID(ctx, "userId")
	if err != nil {
		return err
	}

	pct, err := api.svc.Progress(ctx.Request().Context(), courseID, userID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, progressResponse{Progress: pct})
}

func (api *courseApi) getEnrollment(ctx echo.Context) error {
	courseID, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	userID, err := pathID(ctx, "userId")
	if err != nil {
		return err
	}

	enr, err := api.svc.GetEnrollment(ctx.Request().Context(), courseID, userID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, enr)
}
