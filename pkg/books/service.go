package books

import (
	"context"
	"strings"
	"time"

	"github.com/hondana/hondana/pkg/database"
	"github.com/hondana/hondana/pkg/errcodes"
	"github.com/hondana/hondana/pkg/models"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/uptrace/bun"
	"golang.org/x/text/cases"
)

type CreateBookOptions struct {
	Title         string
	Author        string
	PublishedYear *int
	Genre         *string
	ISBN          *string
	CoverURL      *string
}

// UpdateBookOptions holds the fields to change. Nil fields are left alone and
// an empty string clears an optional field.
type UpdateBookOptions struct {
	Title         *string
	Author        *string
	PublishedYear *int
	Genre         *string
	ISBN          *string
	CoverURL      *string
}

type ListBooksOptions struct {
	SearchText string
	Status     string
}

type SetReviewOptions struct {
	Review string
	Rating *int
}

// Service keeps books and their reading statuses consistent. Every operation
// is scoped to the owner it's given; a book owned by someone else is reported
// as not found.
type Service struct {
	db  bun.IDB
	now func() time.Time
}

func NewService(db bun.IDB) *Service {
	return &Service{db: db, now: time.Now}
}

// CreateBook inserts the book followed by its initial unread status. The two
// inserts aren't atomic: if the status insert fails the book stays, and reads
// treat it as unread until a status is written.
func (svc *Service) CreateBook(ctx context.Context, ownerUserID string, opts CreateBookOptions) (*models.Book, error) {
	now := svc.now()
	book := &models.Book{
		ID:            models.NewID(),
		CreatedAt:     now,
		UpdatedAt:     now,
		OwnerUserID:   ownerUserID,
		Title:         strings.TrimSpace(opts.Title),
		Author:        strings.TrimSpace(opts.Author),
		PublishedYear: opts.PublishedYear,
		Genre:         optionalString(opts.Genre),
		ISBN:          optionalString(opts.ISBN),
		CoverURL:      optionalString(opts.CoverURL),
	}
	if err := validateBook(book, now); err != nil {
		return nil, err
	}

	_, err := svc.db.NewInsert().Model(book).Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	status := newReadingStatus(book, now)
	_, err = svc.db.NewInsert().Model(status).Exec(ctx)
	if err != nil {
		logger.FromContext(ctx).Err(err).Error("book created without a reading status", logger.Data{"book_id": book.ID})
		return nil, errors.WithStack(err)
	}
	book.ReadingStatus = status

	return book, nil
}

func (svc *Service) RetrieveBook(ctx context.Context, bookID, ownerUserID string) (*models.Book, error) {
	book := &models.Book{}
	err := svc.db.
		NewSelect().
		Model(book).
		Relation("ReadingStatus").
		Where("b.id = ?", bookID).
		Where("b.owner_user_id = ?", ownerUserID).
		Scan(ctx)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, errcodes.NotFound("Book")
		}
		return nil, errors.WithStack(err)
	}
	dropEmptyStatus(book)

	return book, nil
}

// ListBooks returns the owner's books with their statuses, ordered by title.
// A book without a status row matches the unread filter.
func (svc *Service) ListBooks(ctx context.Context, ownerUserID string, opts ListBooksOptions) ([]*models.Book, error) {
	books := []*models.Book{}

	q := svc.db.
		NewSelect().
		Model(&books).
		Relation("ReadingStatus").
		Where("b.owner_user_id = ?", ownerUserID).
		Order("b.title ASC", "b.id ASC")

	switch opts.Status {
	case "", models.StatusAll:
	case models.StatusUnread:
		q = q.Where("(reading_status.status IS NULL OR reading_status.status = ?)", models.StatusUnread)
	default:
		if !models.IsValidStatus(opts.Status) {
			return nil, errcodes.ValidationError("Invalid status filter: " + opts.Status)
		}
		q = q.Where("reading_status.status = ?", opts.Status)
	}

	err := q.Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	for _, book := range books {
		dropEmptyStatus(book)
	}

	search := strings.TrimSpace(opts.SearchText)
	if search == "" {
		return books, nil
	}

	fold := cases.Fold()
	needle := fold.String(search)
	matched := make([]*models.Book, 0, len(books))
	for _, book := range books {
		if matchesSearch(fold, book, needle) {
			matched = append(matched, book)
		}
	}
	return matched, nil
}

func (svc *Service) UpdateBook(ctx context.Context, bookID, ownerUserID string, opts UpdateBookOptions) (*models.Book, error) {
	book, err := svc.RetrieveBook(ctx, bookID, ownerUserID)
	if err != nil {
		return nil, err
	}

	columns := []string{}
	if opts.Title != nil {
		book.Title = strings.TrimSpace(*opts.Title)
		columns = append(columns, "title")
	}
	if opts.Author != nil {
		book.Author = strings.TrimSpace(*opts.Author)
		columns = append(columns, "author")
	}
	if opts.PublishedYear != nil {
		book.PublishedYear = opts.PublishedYear
		columns = append(columns, "published_year")
	}
	if opts.Genre != nil {
		book.Genre = optionalString(opts.Genre)
		columns = append(columns, "genre")
	}
	if opts.ISBN != nil {
		book.ISBN = optionalString(opts.ISBN)
		columns = append(columns, "isbn")
	}
	if opts.CoverURL != nil {
		book.CoverURL = optionalString(opts.CoverURL)
		columns = append(columns, "cover_url")
	}
	if len(columns) == 0 {
		return book, nil
	}

	now := svc.now()
	if err := validateBook(book, now); err != nil {
		return nil, err
	}
	book.UpdatedAt = now
	columns = append(columns, "updated_at")

	_, err = svc.db.
		NewUpdate().
		Model(book).
		Column(columns...).
		WherePK().
		Where("owner_user_id = ?", ownerUserID).
		Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return book, nil
}

// SetReadingStatus moves the book to the given status, creating the status row
// if the book doesn't have one. Any transition is allowed.
func (svc *Service) SetReadingStatus(ctx context.Context, bookID, ownerUserID, status string) (*models.ReadingStatus, error) {
	if !models.IsValidStatus(status) {
		return nil, errcodes.ValidationError("Status must be one of: unread, reading, completed")
	}

	book, err := svc.RetrieveBook(ctx, bookID, ownerUserID)
	if err != nil {
		return nil, err
	}

	rs, err := svc.ensureReadingStatus(ctx, book)
	if err != nil {
		return nil, err
	}

	rs.Transition(status, svc.now())
	err = svc.updateReadingStatus(ctx, rs, "status", "started_at", "completed_at", "updated_at")
	if err != nil {
		return nil, err
	}

	return rs, nil
}

// SetRating rates a book that already has a status. Ratings can't be cleared.
func (svc *Service) SetRating(ctx context.Context, bookID, ownerUserID string, rating int) (*models.ReadingStatus, error) {
	if err := validateRating(rating); err != nil {
		return nil, err
	}

	book, err := svc.RetrieveBook(ctx, bookID, ownerUserID)
	if err != nil {
		return nil, err
	}
	rs := book.ReadingStatus
	if rs == nil {
		return nil, errcodes.StatusNotFound()
	}

	rs.Rating = &rating
	rs.UpdatedAt = svc.now()
	err = svc.updateReadingStatus(ctx, rs, "rating", "updated_at")
	if err != nil {
		return nil, err
	}

	return rs, nil
}

// OpenReview loads a book for the review form. A book without a status gets an
// unread one as soon as the form is opened.
func (svc *Service) OpenReview(ctx context.Context, bookID, ownerUserID string) (*models.Book, error) {
	book, err := svc.RetrieveBook(ctx, bookID, ownerUserID)
	if err != nil {
		return nil, err
	}

	if _, err := svc.ensureReadingStatus(ctx, book); err != nil {
		return nil, err
	}

	return book, nil
}

// SetReview stores the review, and the rating when one is given with it. An
// empty review clears it.
func (svc *Service) SetReview(ctx context.Context, bookID, ownerUserID string, opts SetReviewOptions) (*models.ReadingStatus, error) {
	if opts.Rating != nil {
		if err := validateRating(*opts.Rating); err != nil {
			return nil, err
		}
	}

	book, err := svc.RetrieveBook(ctx, bookID, ownerUserID)
	if err != nil {
		return nil, err
	}

	rs, err := svc.ensureReadingStatus(ctx, book)
	if err != nil {
		return nil, err
	}

	columns := []string{"review", "updated_at"}
	rs.Review = optionalString(&opts.Review)
	if opts.Rating != nil {
		rs.Rating = opts.Rating
		columns = append(columns, "rating")
	}
	rs.UpdatedAt = svc.now()

	err = svc.updateReadingStatus(ctx, rs, columns...)
	if err != nil {
		return nil, err
	}

	return rs, nil
}

// DeleteBook deletes the book's status and then the book.
func (svc *Service) DeleteBook(ctx context.Context, bookID, ownerUserID string) error {
	book, err := svc.RetrieveBook(ctx, bookID, ownerUserID)
	if err != nil {
		return err
	}

	plan := &database.Plan{
		Name: "delete book",
		Steps: []database.Step{
			database.DeleteStep(svc.db, "reading_statuses", (*models.ReadingStatus)(nil), "book_id = ? AND owner_user_id = ?", book.ID, ownerUserID),
			database.DeleteStep(svc.db, "books", (*models.Book)(nil), "id = ? AND owner_user_id = ?", book.ID, ownerUserID),
		},
	}
	return plan.Run(ctx)
}

// ensureReadingStatus returns the book's status, inserting an unread one if
// it has none. Losing an insert race to another request re-reads the winner.
func (svc *Service) ensureReadingStatus(ctx context.Context, book *models.Book) (*models.ReadingStatus, error) {
	if book.ReadingStatus != nil {
		return book.ReadingStatus, nil
	}

	rs := newReadingStatus(book, svc.now())
	_, err := svc.db.NewInsert().Model(rs).Exec(ctx)
	if err != nil {
		if !database.IsUniqueViolation(err) {
			return nil, errors.WithStack(err)
		}
		rs = &models.ReadingStatus{}
		err = svc.db.NewSelect().Model(rs).Where("rs.book_id = ?", book.ID).Scan(ctx)
		if err != nil {
			return nil, errors.WithStack(err)
		}
	}

	book.ReadingStatus = rs
	return rs, nil
}

func (svc *Service) updateReadingStatus(ctx context.Context, rs *models.ReadingStatus, columns ...string) error {
	_, err := svc.db.
		NewUpdate().
		Model(rs).
		Column(columns...).
		WherePK().
		Where("owner_user_id = ?", rs.OwnerUserID).
		Exec(ctx)
	return errors.WithStack(err)
}

func newReadingStatus(book *models.Book, now time.Time) *models.ReadingStatus {
	return &models.ReadingStatus{
		ID:          models.NewID(),
		CreatedAt:   now,
		UpdatedAt:   now,
		BookID:      book.ID,
		OwnerUserID: book.OwnerUserID,
		Status:      models.StatusUnread,
	}
}

// dropEmptyStatus clears a status relation that was scanned from an unmatched
// join.
func dropEmptyStatus(book *models.Book) {
	if book.ReadingStatus != nil && book.ReadingStatus.ID == "" {
		book.ReadingStatus = nil
	}
}

func matchesSearch(fold cases.Caser, book *models.Book, needle string) bool {
	if strings.Contains(fold.String(book.Title), needle) || strings.Contains(fold.String(book.Author), needle) {
		return true
	}
	return book.Genre != nil && strings.Contains(fold.String(*book.Genre), needle)
}

// optionalString trims s and maps the empty string to nil.
func optionalString(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
