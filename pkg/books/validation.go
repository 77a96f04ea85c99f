package books

import (
	"fmt"
	"time"

	"github.com/hondana/hondana/pkg/errcodes"
	"github.com/hondana/hondana/pkg/models"
)

const minPublishedYear = 1000

func validateBook(book *models.Book, now time.Time) error {
	if book.Title == "" {
		return errcodes.ValidationError(`"title" is required`)
	}
	if book.Author == "" {
		return errcodes.ValidationError(`"author" is required`)
	}
	if book.PublishedYear != nil {
		year := *book.PublishedYear
		if year < minPublishedYear || year > now.Year() {
			return errcodes.ValidationError(fmt.Sprintf(`"published_year" must be between %d and %d`, minPublishedYear, now.Year()))
		}
	}
	return nil
}

func validateRating(rating int) error {
	if rating < models.MinRating || rating > models.MaxRating {
		return errcodes.ValidationError(fmt.Sprintf(`"rating" must be between %d and %d`, models.MinRating, models.MaxRating))
	}
	return nil
}
