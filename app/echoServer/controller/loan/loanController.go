package loan

import (
	"encoding/csv"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"biblio/model"
	ls "biblio/service/loan"
	"biblio/util/query"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type Controller struct {
	Svc ls.Service
	V   *validator.Validate
	Log *slog.Logger
}

// POST /v1/loans
func (h *Controller) Create(c echo.Context) error {
	var req CreateLoanReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  err.Error(),
		})
	}

	out, err := h.Svc.Create(c.Request().Context(), ls.CreateInput{
		BookID:       req.BookID,
		BorrowerName: req.BorrowerName,
		BorrowerMail: req.BorrowerMail,
		CardNumber:   req.CardNumber,
		Comments:     req.Comments,
	})
	if err != nil {
		return h.fail(c, "loan create", err)
	}
	return c.JSON(http.StatusCreated, out)
}

// GET /v1/loans
func (h *Controller) List(c echo.Context) error {
	f, pg := h.listParams(c)

	items, total, err := h.Svc.List(c.Request().Context(), f, pg)
	if err != nil {
		return h.fail(c, "loan list", err)
	}
	if items == nil {
		items = []model.Loan{}
	}
	return c.JSON(http.StatusOK, Paginated{
		Items:      items,
		Total:      total,
		Page:       pg.Number,
		PageSize:   pg.Size,
		TotalPages: pg.TotalPages(total),
	})
}

// GET /v1/loans/:id
func (h *Controller) Detail(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	out, err := h.Svc.Get(c.Request().Context(), id)
	if err != nil {
		return h.fail(c, "loan detail", err)
	}
	return c.JSON(http.StatusOK, out)
}

// POST /v1/loans/:id/return
func (h *Controller) Return(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	var req ReturnLoanReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}

	out, err := h.Svc.Return(c.Request().Context(), id, ls.ReturnInput{
		ReturnDate: req.ReturnDate,
		Comments:   req.Comments,
	})
	if err != nil {
		return h.fail(c, "loan return", err)
	}
	return c.JSON(http.StatusOK, out)
}

// POST /v1/loans/:id/renew
func (h *Controller) Renew(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	out, err := h.Svc.Renew(c.Request().Context(), id)
	if err != nil {
		return h.fail(c, "loan renew", err)
	}
	return c.JSON(http.StatusOK, out)
}

// GET /v1/loans/export
func (h *Controller) ExportCSV(c echo.Context) error {
	f, _ := h.listParams(c)

	c.Response().Header().Set(echo.HeaderContentType, "text/csv")
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="loans.csv"`)
	c.Response().WriteHeader(http.StatusOK)

	w := csv.NewWriter(c.Response())
	if err := w.Write([]string{
		"id", "book_id", "book_title", "borrower_name", "borrower_mail", "card_number",
		"loan_date", "due_date", "return_date", "status", "renewed", "penalty", "days_late",
	}); err != nil {
		return err
	}

	const chunk = 500
	var lastID int64
	for {
		items, err := h.Svc.ListAfter(c.Request().Context(), f, lastID, chunk)
		if err != nil {
			h.Log.Error("loan export", "err", err)
			return err
		}
		if len(items) == 0 {
			break
		}
		for _, l := range items {
			ret := ""
			if l.ReturnDate != nil {
				ret = l.ReturnDate.Format(time.RFC3339)
			}
			rec := []string{
				strconv.FormatInt(l.ID, 10),
				strconv.FormatInt(l.BookID, 10),
				l.BookTitle,
				l.BorrowerName,
				l.BorrowerMail,
				l.CardNumber,
				l.LoanDate.Format(time.RFC3339),
				l.DueDate.Format(time.RFC3339),
				ret,
				string(l.Status),
				strconv.FormatBool(l.Renewed),
				strconv.FormatFloat(l.Penalty, 'f', 2, 64),
				strconv.Itoa(l.DaysLate),
			}
			if err := w.Write(rec); err != nil {
				return err
			}
		}
		lastID = items[len(items)-1].ID
		if len(items) < chunk {
			break
		}
	}
	w.Flush()
	return w.Error()
}

func (h *Controller) listParams(c echo.Context) (ls.Filter, query.Page) {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("page_size"))
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 20
	}

	bookID, _ := strconv.ParseInt(c.QueryParam("book_id"), 10, 64)
	f := ls.Filter{
		Status:       model.LoanStatus(c.QueryParam("status")),
		BorrowerMail: c.QueryParam("borrower_mail"),
		BookID:       bookID,
		ActiveOnly:   c.QueryParam("active_only") == "true",
		LateOnly:     c.QueryParam("late_only") == "true",
	}
	return f, query.Page{Number: page, Size: size}
}

func (h *Controller) fail(c echo.Context, op string, err error) error {
	switch ls.Code(err) {
	case ls.ErrBookNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"message": "book not found"})
	case ls.ErrLoanNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"message": "loan not found"})
	case ls.ErrNoStock:
		return c.JSON(http.StatusConflict, echo.Map{"message": err.Error()})
	case ls.ErrLoanLimit:
		return c.JSON(http.StatusBadRequest, echo.Map{"message": err.Error()})
	case ls.ErrAlreadyReturned:
		return c.JSON(http.StatusConflict, echo.Map{"message": "loan already returned"})
	case ls.ErrAlreadyRenewed:
		return c.JSON(http.StatusConflict, echo.Map{"message": "loan already renewed once"})
	default:
		// INVENTORY_CORRUPT lands here as well: log it, never expose it.
		h.Log.Error(op, "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
}
