package binder

import (
	neturl "net/url"
	"time"

	"github.com/go-playground/validator/v10"
)

const minPublishedYear = 1000

// publishedYearValidator ensures the year is between 1000 and the current year.
// Pair it with omitempty on pointer fields to keep the year optional.
func publishedYearValidator(fl validator.FieldLevel) bool {
	year := fl.Field().Int()
	return year >= minPublishedYear && year <= int64(time.Now().Year())
}

// urlValidator ensures the value is an absolute http(s) URL or the empty
// string, which is used to clear a cover.
func urlValidator(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	u, err := neturl.Parse(value)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
