package echoapi

import (
	"net/http"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/onboardme/backend/core/user"
)

type userApi struct {
	svc      *user.Service
	validate *validator.Validate
}

func registerUserAPI(g *echo.Group, svc *user.Service, validate *validator.Validate) {
	api := userApi{svc: svc, validate: validate}

	ug := g.Group("/users")
	ug.GET("", api.query)
	ug.POST("", api.create)
	ug.GET("/roles", api.queryRoles)
	ug.POST("/upload", api.uploadCSV)
	ug.GET("/buddy/:buddyId", api.queryByBuddy)

	dg := ug.Group("/:id")
	dg.GET("", api.retrieve)
	dg.PUT("/buddy/:buddyId", api.assignBuddy)
}

// Handlers

func (api *userApi) create(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, usr)
}

func (api *userApi) query(ctx echo.Context) error {
	users, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return err
	}

	var ord Ordering
	ord.Bind(ctx)
	sortUsers(users, ord)
	return ctx.JSON(http.StatusOK, users)
}

func (api *userApi) retrieve(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	usr, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) assignBuddy(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	buddyID, err := pathID(ctx, "buddyId")
	if err != nil {
		return err
	}

	usr, err := api.svc.AssignBuddy(ctx.Request().Context(), id, buddyID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) queryByBuddy(ctx echo.Context) error {
	buddyID, err := pathID(ctx, "buddyId")
	if err != nil {
		return err
	}
	mentees, err := api.svc.QueryByBuddy(ctx.Request().Context(), buddyID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, mentees)
}

func (api *userApi) queryRoles(ctx echo.Context) error {
	roles, err := api.svc.QueryRoles(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, roles)
}

func (api *userApi) uploadCSV(ctx echo.Context) error {
	fileHdr, err := ctx.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "missing file upload")
	}
	file, err := fileHdr.Open()
	if err != nil {
		return errors.Wrap(err, "opening upload")
	}
	defer func() { _ = file.Close() }()

	report, err := api.svc.ImportCSV(ctx.Request().Context(), file)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, report)
}

// sortUsers applies the requested orderings in-memory; unknown fields are
// ignored.
func sortUsers(users []user.User, ord Ordering) {
	for i := len(ord.Orderings) - 1; i >= 0; i-- {
		o := ord.Orderings[i]
		less := userLessFunc(o.Field)
		if less == nil {
			continue
		}
		sort.SliceStable(users, func(a, b int) bool {
			if o.Ascending {
				return less(users[a], users[b])
			}
			return less(users[b], users[a])
		})
	}
}

func userLessFunc(field string) func(a, b user.User) bool {
	switch field {
	case "id":
		return func(a, b user.User) bool { return a.ID < b.ID }
	case "first_name":
		return func(a, b user.User) bool { return strings.ToLower(a.FirstName) < strings.ToLower(b.FirstName) }
	case "last_name":
		return func(a, b user.User) bool { return strings.ToLower(a.LastName) < strings.ToLower(b.LastName) }
	case "email":
		return func(a, b user.User) bool { return strings.ToLower(a.Email) < strings.ToLower(b.Email) }
	case "created_date":
		return func(a, b user.User) bool { return a.CreatedDate.Before(b.CreatedDate) }
	}
	return nil
}
