package services

import (
	"errors"
	"net/url"
	"strings"
	"unicode/utf8"

	"echonews/internal/apperr"

	"gorm.io/gorm"
)

// notFoundOr maps gorm.ErrRecordNotFound to NotFound and anything else to Internal.
func notFoundOr(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFoundf("%s not found", what)
	}
	return apperr.Internalf(err, "load %s", what)
}

// isUniqueViolation matches the duplicate key errors of postgres and sqlite.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}

func requireText(value, field string, max int) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", apperr.InvalidArgumentf("%s is required", field)
	}
	if utf8.RuneCountInString(value) > max {
		return "", apperr.InvalidArgumentf("%s must be at most %d characters", field, max)
	}
	return value, nil
}

func validateURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	u, err := url.ParseRequestURI(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", apperr.InvalidArgumentf("url must be an absolute http(s) url")
	}
	return raw, nil
}

func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max])
}
