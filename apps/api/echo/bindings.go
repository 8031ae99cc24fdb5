package echoapi

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/edusign/screener/core"
)

var (
	orderingParam      = "ordering"
	errInvalidOrdering = errors.New("invalid ordering")
)

type Ordering struct {
	Orderings []core.DBOrdering
}

// Bind parses the "ordering" query param; comma-separated field names,
// "-" prefix for descending. Only the given fields are orderable; anything
// else fails validation so user input never reaches the SQL text.
func (ord *Ordering) Bind(ctx echo.Context, fields ...string) error {
	val := ctx.QueryParam(orderingParam)
	if val == "" {
		return nil
	}

	allowed := make(map[string]bool, len(fields))
	for _, f := range fields {
		allowed[f] = true
	}

	for _, field := range strings.Split(val, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if !allowed[field] {
			return core.NewValidationError(errInvalidOrdering, core.FieldError{Field: orderingParam, Error: "cannot order by " + field})
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
	return nil
}
