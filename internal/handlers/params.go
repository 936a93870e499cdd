package handlers

import (
	"strconv"

	"firmbill/internal/common"

	"github.com/labstack/echo/v4"
)

// pagination reads limit and offset query params, falling back to defaults
// on anything unparsable.
func pagination(c echo.Context) (int, int) {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	return common.ValidatePaginationParams(limit, offset)
}
