package book

type BookReq struct {
	Title            string `json:"title" validate:"required"`
	ISBN             string `json:"isbn" validate:"required"`
	AuthorID         int64  `json:"author_id" validate:"required,gt=0"`
	PublicationYear  int    `json:"publication_year" validate:"gte=0"`
	Description      string `json:"description"`
	Category         string `json:"category" validate:"required"`
	Language         string `json:"language"`
	Pages            int    `json:"pages" validate:"gte=0"`
	Publisher        string `json:"publisher"`
	TotalCopiesOwned int64  `json:"total_copies_owned" validate:"gte=0"`
}

type Paginated struct {
	Items      any   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}
