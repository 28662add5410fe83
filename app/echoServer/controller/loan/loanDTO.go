package loan

import "time"

type CreateLoanReq struct {
	BookID       int64  `json:"book_id" validate:"required,gt=0"`
	BorrowerName string `json:"borrower_name" validate:"required"`
	BorrowerMail string `json:"borrower_mail" validate:"required,email"`
	CardNumber   string `json:"card_number" validate:"required"`
	Comments     string `json:"comments"`
}

type ReturnLoanReq struct {
	ReturnDate *time.Time `json:"return_date"`
	Comments   string     `json:"comments"`
}

type Paginated struct {
	Items      any   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}
