package books

type ListBooksQuery struct {
	Search string `query:"search" json:"search,omitempty" mod:"trim" validate:"max=100"`
	Status string `query:"status" json:"status,omitempty" default:"all" validate:"oneof=all unread reading completed"`
}

type CreateBookPayload struct {
	Title         string  `json:"title" form:"title" mod:"trim" validate:"required,max=300"`
	Author        string  `json:"author" form:"author" mod:"trim" validate:"required,max=200"`
	PublishedYear *int    `json:"published_year,omitempty" form:"published_year" validate:"omitempty,publishedyear"`
	Genre         *string `json:"genre,omitempty" form:"genre" mod:"trim" validate:"omitempty,max=100"`
	ISBN          *string `json:"isbn,omitempty" form:"isbn" mod:"trim" validate:"omitempty,max=20"`
	CoverURL      *string `json:"cover_url,omitempty" form:"cover_url" mod:"trim" validate:"omitempty,max=2000,url"`
}

type UpdateBookPayload struct {
	Title         *string `json:"title,omitempty" form:"title" mod:"trim" validate:"omitempty,max=300"`
	Author        *string `json:"author,omitempty" form:"author" mod:"trim" validate:"omitempty,max=200"`
	PublishedYear *int    `json:"published_year,omitempty" form:"published_year" validate:"omitempty,publishedyear"`
	Genre         *string `json:"genre,omitempty" form:"genre" mod:"trim" validate:"omitempty,max=100"`
	ISBN          *string `json:"isbn,omitempty" form:"isbn" mod:"trim" validate:"omitempty,max=20"`
	CoverURL      *string `json:"cover_url,omitempty" form:"cover_url" mod:"trim" validate:"omitempty,max=2000,url"`
}

type SetStatusPayload struct {
	Status string `json:"status" form:"status" validate:"required,oneof=unread reading completed"`
}

type SetRatingPayload struct {
	Rating int `json:"rating" form:"rating" validate:"required,min=1,max=5"`
}

type SetReviewPayload struct {
	Review string `json:"review" form:"review" mod:"trim" validate:"max=10000"`
	Rating *int   `json:"rating,omitempty" form:"rating" validate:"omitempty,min=1,max=5"`
}
