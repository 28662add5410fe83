package author

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"biblio/model"
	authorsvc "biblio/service/author"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type AuthorReq struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
}

type Controller struct {
	Svc authorsvc.Service
	V   *validator.Validate
	Log *slog.Logger
}

// POST /v1/authors
func (h *Controller) Create(c echo.Context) error {
	var req AuthorReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "validation error", "errors": err.Error()})
	}
	out, err := h.Svc.Create(c.Request().Context(), &model.Author{
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		return h.fail(c, "author create", err)
	}
	return c.JSON(http.StatusCreated, out)
}

// GET /v1/authors
func (h *Controller) List(c echo.Context) error {
	rows, err := h.Svc.List(c.Request().Context())
	if err != nil {
		return h.fail(c, "author list", err)
	}
	if rows == nil {
		rows = []model.Author{}
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// GET /v1/authors/:id
func (h *Controller) Detail(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	out, err := h.Svc.Get(c.Request().Context(), id)
	if err != nil {
		return h.fail(c, "author detail", err)
	}
	return c.JSON(http.StatusOK, out)
}

// PUT /v1/authors/:id
func (h *Controller) Update(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	var req AuthorReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "validation error", "errors": err.Error()})
	}
	out, err := h.Svc.Update(c.Request().Context(), &model.Author{
		ID:        id,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		return h.fail(c, "author update", err)
	}
	return c.JSON(http.StatusOK, out)
}

// DELETE /v1/authors/:id
func (h *Controller) Delete(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	if err := h.Svc.Delete(c.Request().Context(), id); err != nil {
		return h.fail(c, "author delete", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Controller) fail(c echo.Context, op string, err error) error {
	switch {
	case errors.Is(err, authorsvc.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"message": "author not found"})
	case errors.Is(err, authorsvc.ErrHasBooks):
		return c.JSON(http.StatusConflict, echo.Map{"message": "author has books registered"})
	default:
		h.Log.Error(op, "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
}
