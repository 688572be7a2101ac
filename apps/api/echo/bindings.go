package echoapi

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/volatiletech/null/v8"

	"github.com/onboardme/backend/core"
)

var orderingParam = "ordering"

type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	data := ctx.QueryParams()
	if len(data) == 0 {
		return
	}
	val, ok := data[orderingParam]
	if !ok || len(val) == 0 || val[0] == "" {
		return
	}

	for _, field := range strings.Split(val[0], ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

// pathID parses an integer path parameter; a malformed value 404s the way
// an unknown id would.
func pathID(ctx echo.Context, name string) (int, error) {
	id, err := strconv.Atoi(ctx.Param(name))
	if err != nil {
		return 0, errHttpNotFound
	}
	return id, nil
}

// queryIntParam parses an optional integer query parameter.
func queryIntParam(ctx echo.Context, name string) null.Int {
	raw := strings.TrimSpace(ctx.QueryParam(name))
	if raw == "" {
		return null.Int{}
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return null.Int{}
	}
	return null.IntFrom(n)
}
