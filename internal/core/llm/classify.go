package llm

import (
	"context"
	"errors"
	"net"
	"strings"
	"syscall"

	"google.golang.org/api/googleapi"

	"github.com/markdave123-py/MindMesh/internal/core/errs"
)

// ClassifyProviderError sorts a provider failure into the taxonomy:
// throttling/unavailability status codes and network-transport failures are
// transient; everything else is permanent.
func ClassifyProviderError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if isTransient(err) {
		return errs.Transient(err)
	}
	return errs.Permanent(err)
}

var transientStatusCodes = map[int]bool{
	429: true,
	500: true,
	502: true,
	503: true,
	504: true,
}

func isTransient(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return transientStatusCodes[apiErr.Code]
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.EPIPE) || errors.Is(err, syscall.ETIMEDOUT) {
		return true
	}

	// gRPC transport failures surface as opaque strings.
	msg := err.Error()
	for _, marker := range []string{"connection reset", "broken pipe", "transport is closing", "unavailable"} {
		if strings.Contains(strings.ToLower(msg), marker) {
			return true
		}
	}
	return false
}
