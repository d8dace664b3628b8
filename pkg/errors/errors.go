package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind represents the category of a scrape error
type Kind string

const (
	// KindFetch represents errors while retrieving a page
	KindFetch Kind = "fetch"
	// KindParse represents errors while interpreting page content
	KindParse Kind = "parse"
	// KindExport represents errors while building export artifacts
	KindExport Kind = "export"
	// KindConfig represents configuration errors
	KindConfig Kind = "config"
)

// ScrapeError carries the failing URL alongside the cause so callers can
// report per-URL outcomes without losing the underlying error.
type ScrapeError struct {
	Kind    Kind
	URL     string
	Message string
	Err     error
}

// Error implements the error interface
func (e *ScrapeError) Error() string {
	switch {
	case e.URL != "" && e.Err != nil:
		return fmt.Sprintf("[%s] %s: %s: %v", e.Kind, e.URL, e.Message, e.Err)
	case e.URL != "":
		return fmt.Sprintf("[%s] %s: %s", e.Kind, e.URL, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Err)
	default:
		return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
	}
}

// Unwrap returns the underlying error
func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// New creates a new ScrapeError
func New(kind Kind, url, message string, err error) *ScrapeError {
	return &ScrapeError{
		Kind:    kind,
		URL:     url,
		Message: message,
		Err:     err,
	}
}

// NewFetch creates a new fetch error
func NewFetch(url, message string, err error) *ScrapeError {
	return New(KindFetch, url, message, err)
}

// NewParse creates a new parse error
func NewParse(url, message string, err error) *ScrapeError {
	return New(KindParse, url, message, err)
}

// NewExport creates a new export error
func NewExport(message string, err error) *ScrapeError {
	return New(KindExport, "", message, err)
}

// NewConfig creates a new configuration error
func NewConfig(message string, err error) *ScrapeError {
	return New(KindConfig, "", message, err)
}

// IsKind reports whether err is a ScrapeError of the given kind
func IsKind(err error, kind Kind) bool {
	var se *ScrapeError
	if stderrors.As(err, &se) {
		return se.Kind == kind
	}
	return false
}
