package outline

import (
	"errors"
	"fmt"
)

// Validation errors returned by BuildStrict and Validate.
var (
	// ErrInvalidPage is returned when a page number is not positive.
	ErrInvalidPage = errors.New("page numbers must be positive")

	// ErrPageOutOfOrder is returned when a heading starts on an earlier page
	// than the heading before it.
	ErrPageOutOfOrder = errors.New("heading start pages are not in document order")

	// ErrEndBeforeStart is returned when the document ends before the last
	// observed heading starts.
	ErrEndBeforeStart = errors.New("document end page precedes last heading")

	// ErrEmptyTitle is returned when a heading has no text after trimming.
	ErrEmptyTitle = errors.New("heading title is empty")
)

// Validate checks that observations are in document order and fit inside a
// document ending at documentEndPage.
func Validate(observations []Observation, documentEndPage int) error {
	if documentEndPage <= 0 {
		return fmt.Errorf("%w: document end page %d", ErrInvalidPage, documentEndPage)
	}

	prev := 0
	for i, obs := range observations {
		if obs.StartPage <= 0 {
			return fmt.Errorf("%w: heading %d (%q) starts on page %d", ErrInvalidPage, i, obs.Title, obs.StartPage)
		}
		if normalizeTitle(obs.Title) == "" {
			return fmt.Errorf("%w: heading %d", ErrEmptyTitle, i)
		}
		if obs.StartPage < prev {
			return fmt.Errorf("%w: heading %d (%q) starts on page %d after page %d", ErrPageOutOfOrder, i, obs.Title, obs.StartPage, prev)
		}
		prev = obs.StartPage
	}

	if prev > documentEndPage {
		return fmt.Errorf("%w: last heading on page %d, document ends on page %d", ErrEndBeforeStart, prev, documentEndPage)
	}
	return nil
}

// BuildStrict validates observations and builds the outline.
// Every section of a tree returned by BuildStrict satisfies EndPage >= StartPage.
func BuildStrict(observations []Observation, documentEndPage int) (*Node, error) {
	if err := Validate(observations, documentEndPage); err != nil {
		return nil, err
	}
	return Build(observations, documentEndPage), nil
}
