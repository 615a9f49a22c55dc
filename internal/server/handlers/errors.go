// Maps listing errors to API errors.

package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/maruel/propertyhub/internal/listing"
	"github.com/maruel/propertyhub/internal/server/dto"
)

// apiError converts a listing error into a dto.ErrorWithStatus. resource names
// the entity in not found messages.
func apiError(err error, resource string) error {
	if err == nil {
		return nil
	}
	var cfgErr *listing.ConfigurationError
	var rf *listing.RemoteFailure
	switch {
	case errors.Is(err, listing.ErrNotFound):
		return dto.NotFound(resource).Wrap(err)
	case errors.As(err, &cfgErr):
		return dto.InvalidInput(cfgErr.Field, cfgErr.Value)
	case errors.As(err, &rf):
		return dto.RemoteFailure(rf.Message).Wrap(err)
	case errors.Is(err, context.DeadlineExceeded):
		return dto.NewAPIError(http.StatusGatewayTimeout, dto.ErrorCodeRemoteFailure, "record store timed out").Wrap(err)
	default:
		return dto.InternalWithError("internal error", err)
	}
}
