package binder

import (
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type params struct {
	Hello string `json:"hello" mod:"trim" validate:"max=9"`
	Omit  string `json:"-"`
}

type bookParams struct {
	Title         string  `json:"title" form:"title" mod:"trim" validate:"required"`
	PublishedYear *int    `json:"published_year" form:"published_year" validate:"omitempty,publishedyear"`
	CoverURL      *string `json:"cover_url" form:"cover_url" mod:"trim" validate:"omitempty,url"`
}

type listParams struct {
	Search string `query:"search" json:"search" mod:"trim"`
	Status string `query:"status" json:"status" default:"all" validate:"oneof=all unread reading completed"`
}

var (
	goodJSON             = `{"hello":" world "}`
	unknownFieldsErrJSON = `{"hello":"world","foo":"bar"}`
	typeErrJSON          = `{"hello":123}`
	validationErrJSON    = `{"hello":"0123456789"}`
)

func TestNew(t *testing.T) {
	t.Parallel()
	b, err := New()
	require.NoError(t, err)
	assert.NotNil(t, b)

	t.Run("only allows application/json and application/x-www-form-urlencoded", func(tt *testing.T) {
		c := newContext(goodJSON, echo.MIMEApplicationXML)
		p := params{}
		err = b.Bind(&p, c)
		assert.Contains(tt, err.Error(), "Unsupported Media Type")
	})

	t.Run("disallows unknown fields", func(tt *testing.T) {
		c := newContext(unknownFieldsErrJSON, echo.MIMEApplicationJSON)
		p := params{}
		err = b.Bind(&p, c)
		assert.Contains(tt, err.Error(), `Unknown Parameter "foo"`)
	})

	t.Run("returns a good message for type errors", func(tt *testing.T) {
		c := newContext(typeErrJSON, echo.MIMEApplicationJSON)
		p := params{}
		err = b.Bind(&p, c)
		assert.Contains(tt, err.Error(), `"hello" should be of type string`)
	})

	t.Run("use mod tag to modify params", func(tt *testing.T) {
		c := newContext(goodJSON, echo.MIMEApplicationJSON)
		p := params{}
		err = b.Bind(&p, c)
		require.NoError(tt, err)
		assert.Equal(tt, "world", p.Hello)
	})

	t.Run("use validate tag to validate params", func(tt *testing.T) {
		c := newContext(validationErrJSON, echo.MIMEApplicationJSON)
		p := params{}
		err = b.Bind(&p, c)
		assert.Contains(tt, err.Error(), "length must be less than or equal to 9 characters")
	})
}

func TestBind_Books(t *testing.T) {
	t.Parallel()
	b, err := New()
	require.NoError(t, err)

	t.Run("accepts a year in range", func(tt *testing.T) {
		c := newContext(`{"title":"Dune","published_year":1965}`, echo.MIMEApplicationJSON)
		p := bookParams{}
		require.NoError(tt, b.Bind(&p, c))
		require.NotNil(tt, p.PublishedYear)
		assert.Equal(tt, 1965, *p.PublishedYear)
	})

	t.Run("rejects a year before 1000", func(tt *testing.T) {
		c := newContext(`{"title":"Dune","published_year":999}`, echo.MIMEApplicationJSON)
		p := bookParams{}
		err := b.Bind(&p, c)
		assert.Contains(tt, err.Error(), `"published_year" must be between 1000 and the current year`)
	})

	t.Run("rejects a year in the future", func(tt *testing.T) {
		payload := fmt.Sprintf(`{"title":"Dune","published_year":%d}`, time.Now().Year()+1)
		c := newContext(payload, echo.MIMEApplicationJSON)
		p := bookParams{}
		err := b.Bind(&p, c)
		assert.Contains(tt, err.Error(), `"published_year" must be between`)
	})

	t.Run("rejects a relative cover url", func(tt *testing.T) {
		c := newContext(`{"title":"Dune","cover_url":"covers/dune.jpg"}`, echo.MIMEApplicationJSON)
		p := bookParams{}
		err := b.Bind(&p, c)
		assert.Contains(tt, err.Error(), `"cover_url" is not a valid URL`)
	})

	t.Run("accepts an absolute cover url", func(tt *testing.T) {
		c := newContext(`{"title":"Dune","cover_url":" https://example.com/dune.jpg "}`, echo.MIMEApplicationJSON)
		p := bookParams{}
		require.NoError(tt, b.Bind(&p, c))
		assert.Equal(tt, "https://example.com/dune.jpg", *p.CoverURL)
	})

	t.Run("requires a title", func(tt *testing.T) {
		c := newContext(`{"title":"   "}`, echo.MIMEApplicationJSON)
		p := bookParams{}
		err := b.Bind(&p, c)
		assert.Contains(tt, err.Error(), `"title" is required`)
	})

	t.Run("binds urlencoded forms", func(tt *testing.T) {
		c := newContext("title=Dune&published_year=1965", echo.MIMEApplicationForm)
		p := bookParams{}
		require.NoError(tt, b.Bind(&p, c))
		assert.Equal(tt, "Dune", p.Title)
		assert.Equal(tt, 1965, *p.PublishedYear)
	})
}

func TestBind_Query(t *testing.T) {
	t.Parallel()
	b, err := New()
	require.NoError(t, err)

	t.Run("applies defaults", func(tt *testing.T) {
		c := newQueryContext("/books?search=%20dune%20")
		p := listParams{}
		require.NoError(tt, b.Bind(&p, c))
		assert.Equal(tt, "dune", p.Search)
		assert.Equal(tt, "all", p.Status)
	})

	t.Run("validates the status filter", func(tt *testing.T) {
		c := newQueryContext("/books?status=abandoned")
		p := listParams{}
		err := b.Bind(&p, c)
		assert.Contains(tt, err.Error(), `"status" must be one of the following`)
	})

	t.Run("rejects unknown parameters", func(tt *testing.T) {
		c := newQueryContext("/books?sort=title")
		p := listParams{}
		err := b.Bind(&p, c)
		assert.Contains(tt, err.Error(), `Unknown Parameter "sort"`)
	})
}

func newQueryContext(target string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(echo.GET, target, nil)
	rr := httptest.NewRecorder()
	return e.NewContext(req, rr)
}

func newContext(payload, mime string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(echo.POST, "/", strings.NewReader(payload))
	req.Header.Set(echo.HeaderContentType, mime)
	rr := httptest.NewRecorder()
	return e.NewContext(req, rr)
}
