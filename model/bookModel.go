package model

type BookCategory string

const (
	CategoryFiction   BookCategory = "Fiction"
	CategoryScience   BookCategory = "Science"
	CategoryHistory   BookCategory = "History"
	CategoryBiography BookCategory = "Biography"
	CategoryChildren  BookCategory = "Children"
	CategoryFantasy   BookCategory = "Fantasy"
)

type Book struct {
	ID               int64        `json:"id"`
	Title            string       `json:"title"`
	ISBN             string       `json:"isbn"`
	AuthorID         int64        `json:"author_id"`
	PublicationYear  int          `json:"publication_year"`
	Description      string       `json:"description,omitempty"`
	Category         BookCategory `json:"category"`
	Language         string       `json:"language"`
	Pages            int          `json:"pages"`
	Publisher        string       `json:"publisher"`
	TotalCopiesOwned int64        `json:"total_copies_owned"`
	AvailableCopies  int64        `json:"available_copies"`
}
