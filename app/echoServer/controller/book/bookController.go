package book

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"biblio/model"
	booksvc "biblio/service/book"
	"biblio/util/query"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type Controller struct {
	Svc booksvc.Service
	V   *validator.Validate
	Log *slog.Logger
}

func (h *Controller) bind(c echo.Context, req *BookReq) bool {
	if err := c.Bind(req); err != nil {
		_ = c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
		return false
	}
	if err := h.V.Struct(*req); err != nil {
		_ = c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  err.Error(),
		})
		return false
	}
	return true
}

func toModel(req BookReq) *model.Book {
	return &model.Book{
		Title:            req.Title,
		ISBN:             req.ISBN,
		AuthorID:         req.AuthorID,
		PublicationYear:  req.PublicationYear,
		Description:      req.Description,
		Category:         model.BookCategory(req.Category),
		Language:         req.Language,
		Pages:            req.Pages,
		Publisher:        req.Publisher,
		TotalCopiesOwned: req.TotalCopiesOwned,
	}
}

// POST /v1/books
func (h *Controller) Create(c echo.Context) error {
	var req BookReq
	if !h.bind(c, &req) {
		return nil
	}
	out, err := h.Svc.Create(c.Request().Context(), toModel(req))
	if err != nil {
		return h.fail(c, "book create", err)
	}
	return c.JSON(http.StatusCreated, out)
}

// GET /v1/books
func (h *Controller) List(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("page_size"))
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 20
	}
	f := booksvc.Filter{
		Search:   c.QueryParam("search"),
		ISBN:     c.QueryParam("isbn"),
		Category: c.QueryParam("category"),
		Language: c.QueryParam("language"),
		SortBy:   c.QueryParam("sort_by"),
		Desc:     c.QueryParam("order") == "desc",
	}
	pg := query.Page{Number: page, Size: size}

	items, total, err := h.Svc.List(c.Request().Context(), f, pg)
	if err != nil {
		return h.fail(c, "book list", err)
	}
	if items == nil {
		items = []model.Book{}
	}
	return c.JSON(http.StatusOK, Paginated{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   size,
		TotalPages: pg.TotalPages(total),
	})
}

// GET /v1/books/:id
func (h *Controller) Detail(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	out, err := h.Svc.Get(c.Request().Context(), id)
	if err != nil {
		return h.fail(c, "book detail", err)
	}
	return c.JSON(http.StatusOK, out)
}

// GET /v1/books/isbn/:isbn
func (h *Controller) ByISBN(c echo.Context) error {
	isbn := c.Param("isbn")
	if isbn == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid isbn"})
	}
	out, err := h.Svc.GetByISBN(c.Request().Context(), isbn)
	if err != nil {
		return h.fail(c, "book by isbn", err)
	}
	return c.JSON(http.StatusOK, out)
}

// PUT /v1/books/:id
func (h *Controller) Update(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	var req BookReq
	if !h.bind(c, &req) {
		return nil
	}
	b := toModel(req)
	b.ID = id

	out, err := h.Svc.Update(c.Request().Context(), b)
	if err != nil {
		return h.fail(c, "book update", err)
	}
	return c.JSON(http.StatusOK, out)
}

// DELETE /v1/books/:id
func (h *Controller) Delete(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	if err := h.Svc.Delete(c.Request().Context(), id); err != nil {
		return h.fail(c, "book delete", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Controller) fail(c echo.Context, op string, err error) error {
	switch {
	case errors.Is(err, booksvc.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"message": "book not found"})
	case errors.Is(err, booksvc.ErrISBNTaken):
		return c.JSON(http.StatusConflict, echo.Map{"message": "isbn already registered"})
	case errors.Is(err, booksvc.ErrHasLoans):
		return c.JSON(http.StatusConflict, echo.Map{"message": "book has loans recorded"})
	case errors.Is(err, booksvc.ErrCopiesInUse):
		return c.JSON(http.StatusConflict, echo.Map{"message": "more copies on loan than new total"})
	default:
		h.Log.Error(op, "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
}
