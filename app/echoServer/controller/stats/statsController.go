package stats

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	statssvc "biblio/service/stats"

	"github.com/labstack/echo/v4"
)

type Controller struct {
	Svc statssvc.Service
	Log *slog.Logger
}

// GET /v1/stats
func (h *Controller) Global(c echo.Context) error {
	out, err := h.Svc.Global(c.Request().Context())
	if err != nil {
		return h.fail(c, "stats global", err)
	}
	return c.JSON(http.StatusOK, out)
}

// GET /v1/stats/books/:id
func (h *Controller) Book(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	out, err := h.Svc.Book(c.Request().Context(), id)
	if err != nil {
		return h.fail(c, "stats book", err)
	}
	return c.JSON(http.StatusOK, out)
}

// GET /v1/stats/authors/:id
func (h *Controller) Author(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	out, err := h.Svc.Author(c.Request().Context(), id)
	if err != nil {
		return h.fail(c, "stats author", err)
	}
	return c.JSON(http.StatusOK, out)
}

// GET /v1/stats/monthly?year=&month=
func (h *Controller) Monthly(c echo.Context) error {
	year, err := strconv.Atoi(c.QueryParam("year"))
	if err != nil || year < 1 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid year"})
	}
	month, err := strconv.Atoi(c.QueryParam("month"))
	if err != nil || month < 1 || month > 12 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid month"})
	}
	out, err := h.Svc.Monthly(c.Request().Context(), year, month)
	if err != nil {
		return h.fail(c, "stats monthly", err)
	}
	return c.JSON(http.StatusOK, out)
}

// GET /v1/stats/never-borrowed
func (h *Controller) NeverBorrowed(c echo.Context) error {
	out, err := h.Svc.NeverBorrowed(c.Request().Context())
	if err != nil {
		return h.fail(c, "stats never borrowed", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": out})
}

// GET /v1/stats/top-borrowers?limit=
func (h *Controller) TopBorrowers(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	out, err := h.Svc.TopBorrowers(c.Request().Context(), limit)
	if err != nil {
		return h.fail(c, "stats top borrowers", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": out})
}

func (h *Controller) fail(c echo.Context, op string, err error) error {
	if errors.Is(err, statssvc.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "not found"})
	}
	h.Log.Error(op, "err", err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
}
