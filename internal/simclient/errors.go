package simclient

import (
	"fmt"

	"github.com/tatianab/ghg-game/internal/models"
)

// HTTPError represents a non-2xx response from the simulation service.
type HTTPError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("simclient: %s %s: HTTP %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// Is classifies every non-success response as ErrServiceUnavailable.
func (e *HTTPError) Is(target error) bool {
	return target == models.ErrServiceUnavailable
}
