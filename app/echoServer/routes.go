package echoServer

import (
	"biblio/app/echoServer/controller/author"
	"biblio/app/echoServer/controller/book"
	"biblio/app/echoServer/controller/loan"
	"biblio/app/echoServer/controller/stats"

	"github.com/labstack/echo/v4"
)

type C struct {
	Author *author.Controller
	Book   *book.Controller
	Loan   *loan.Controller
	Stats  *stats.Controller
}

func Register(e *echo.Echo, c C) {
	v1 := e.Group("/v1")

	// Authors
	v1.POST("/authors", c.Author.Create)
	v1.GET("/authors", c.Author.List)
	v1.GET("/authors/:id", c.Author.Detail)
	v1.PUT("/authors/:id", c.Author.Update)
	v1.DELETE("/authors/:id", c.Author.Delete)

	// Books
	v1.POST("/books", c.Book.Create)
	v1.GET("/books", c.Book.List)
	v1.GET("/books/isbn/:isbn", c.Book.ByISBN)
	v1.GET("/books/:id", c.Book.Detail)
	v1.PUT("/books/:id", c.Book.Update)
	v1.DELETE("/books/:id", c.Book.Delete)

	// Loans
	v1.POST("/loans", c.Loan.Create)
	v1.GET("/loans", c.Loan.List)
	v1.GET("/loans/export", c.Loan.ExportCSV)
	v1.GET("/loans/:id", c.Loan.Detail)
	v1.POST("/loans/:id/return", c.Loan.Return)
	v1.POST("/loans/:id/renew", c.Loan.Renew)

	// Stats
	v1.GET("/stats", c.Stats.Global)
	v1.GET("/stats/monthly", c.Stats.Monthly)
	v1.GET("/stats/never-borrowed", c.Stats.NeverBorrowed)
	v1.GET("/stats/top-borrowers", c.Stats.TopBorrowers)
	v1.GET("/stats/books/:id", c.Stats.Book)
	v1.GET("/stats/authors/:id", c.Stats.Author)
}
