package utils

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// LimitParam reads a window/page size from the request, clamped to [1, max].
func LimitParam(c echo.Context, defaultLimit, max int) int {
	limit, err := strconv.Atoi(c.QueryParam("limit"))
	if err != nil || limit <= 0 {
		return defaultLimit
	}
	if limit > max {
		return max
	}
	return limit
}
