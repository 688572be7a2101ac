package echoapi

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/onboardme/backend/core/content"
	"github.com/onboardme/backend/core/exam"
)

type (
	sectionApi struct {
		contentSvc *content.Service
		examSvc    *exam.Service
		validate   *validator.Validate
	}

	urlRequest struct {
		URL string `json:"url" validate:"required,url"`
	}
)

func registerSectionAPI(g *echo.Group, contentSvc *content.Service, examSvc *exam.Service, validate *validator.Validate) {
	api := sectionApi{contentSvc: contentSvc, examSvc: examSvc, validate: validate}

	sg := g.Group("/sections/:id")
	sg.GET("/content", api.getContent)
	sg.POST("/content/video", api.addVideo)
	sg.POST("/content/document", api.addDocument)
	sg.POST("/content/image", api.addImage)
	sg.POST("/content/exam", api.addExam)
	sg.POST("/exam/:userId", api.submitExam)
	sg.GET("/exam/:userId", api.getExamResult)
}

// Handlers

func (api *sectionApi) getContent(ctx echo.Context) error {
	sectionID, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	c, err := api.contentSvc.GetBySection(ctx.Request().Context(), sectionID)
	if err != nil {
		return err
	}

	// the codec injects the variant tag; plain JSON marshalling would lose it
	blob, err := content.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "encoding content")
	}
	return ctx.JSONBlob(http.StatusOK, blob)
}

func (api *sectionApi) addVideo(ctx echo.Context) error {
	return api.addURLContent(ctx, api.contentSvc.AddVideo)
}

func (api *sectionApi) addDocument(ctx echo.Context) error {
	return api.addURLContent(ctx, api.contentSvc.AddDocument)
}

func (api *sectionApi) addImage(ctx echo.Context) error {
	return api.addURLContent(ctx, api.contentSvc.AddImage)
}

func (api *sectionApi) addURLContent(
	ctx echo.Context,
	add func(c context.Context, sectionID int, url string) (content.SectionContent, error),
) error {
	sectionID, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	var data urlRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to urlRequest")
	}
	if err = api.validate.Struct(data); err != nil {
		return err
	}

	c, err := add(ctx.Request().Context(), sectionID, data.URL)
	if err != nil {
		return err
	}
	blob, err := content.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "encoding content")
	}
	return ctx.JSONBlob(http.StatusCreated, blob)
}

func (api *sectionApi) addExam(ctx echo.Context) error {
	sectionID, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	var data content.NewExam
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewExam")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	c, err := api.contentSvc.AddExam(ctx.Request().Context(), sectionID, data)
	if err != nil {
		return err
	}
	blob, err := content.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "encoding content")
	}
	return ctx.JSONBlob(http.StatusCreated, blob)
}

func (api *sectionApi) submitExam(ctx echo.Context) error {
	sectionID, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	userID, err := pathID(ctx, "userId")
	if err != nil {
		return err
	}
	var data exam.Submission
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Submission")
	}

	res, err := api.examSvc.Submit(ctx.Request().Context(), sectionID, userID, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, res)
}

func (api *sectionApi) getExamResult(ctx echo.Context) error {
	sectionID, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	userID, err := pathID(ctx, "userId")
	if err != nil {
		return err
	}

	res, err := api.examSvc.GetResult(ctx.Request().Context(), sectionID, userID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, res)
}
