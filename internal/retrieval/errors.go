package retrieval

import (
	"context"
	"errors"

	"github.com/handiism/data-displayer/internal/http"
	"github.com/handiism/data-displayer/internal/model"
)

var (
	// ErrActionPending is returned when an action is started while it is already in flight.
	ErrActionPending = errors.New("action already in progress")
	// ErrNoVisualisation is returned by SaveVisualisation when nothing is displayed.
	ErrNoVisualisation = errors.New("no visualisation loaded")
	// ErrClosed is returned once the Manager has been closed.
	ErrClosed = errors.New("manager closed")
)

// Classify maps an action error to its FailureKind.
func Classify(err error) model.FailureKind {
	var statusErr *http.StatusError
	switch {
	case err == nil:
		return model.FailureNone
	case errors.Is(err, context.DeadlineExceeded):
		return model.FailureTimeout
	case errors.Is(err, context.Canceled):
		return model.FailureCanceled
	case errors.As(err, &statusErr):
		return model.FailureHTTPStatus
	case errors.Is(err, http.ErrNetwork):
		return model.FailureNetwork
	}
	return model.FailureLocal
}
