package middleware

import (
	"crypto/subtle"
	"net/http"

	"go.uber.org/zap"

	"calbook-backend/application/ports"
	"calbook-backend/pkg/common"
	appErrors "calbook-backend/pkg/errors"
)

// APIKeyHeader is the header clients authenticate with.
const APIKeyHeader = "x-api-key"

// APIKey authenticates every request against the expected key held in the
// parameter store. The expected key is resolved per request so a rotation
// takes effect without a restart.
func APIKey(params ports.ParameterStore, keyParam string, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			provided := r.Header.Get(APIKeyHeader)
			if provided == "" {
				common.RespondAppError(w, appErrors.NewForbiddenError("missing API key"))
				return
			}

			expected, err := params.GetParameter(r.Context(), keyParam)
			if err != nil {
				logger.Error("API key parameter lookup failed", zap.Error(err))
				common.RespondAppError(w, err)
				return
			}

			if subtle.ConstantTimeCompare([]byte(provided), []byte(expected)) != 1 {
				logger.Warn("rejected request with invalid API key",
					zap.String("path", r.URL.Path),
				)
				common.RespondAppError(w, appErrors.NewForbiddenError("invalid API key"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
