package llm

import (
	"context"
	"errors"

	openai "github.com/sashabaranov/go-openai"
	"google.golang.org/genai"

	"github.com/botsmith-dev/botsmith/pkg/utils/logging"
)

// safeMessage translates a provider error into a fixed user-facing reply
// and logs the full diagnostic detail for operators. The end user never
// sees raw provider error bodies.
func safeMessage(ctx context.Context, err error, family Family, modelName string) string {
	status := providerStatus(err)

	logging.From(ctx).Error("model backend call failed",
		"family", family,
		"model", modelName,
		"status", status,
		"error", err,
	)

	if errors.Is(err, context.DeadlineExceeded) {
		return msgUnavailable
	}

	switch status {
	case 401, 403:
		return msgAuthError
	case 429:
		return msgRateLimited
	case 400:
		return msgBadRequest
	default:
		return msgUnavailable
	}
}

// providerStatus extracts the HTTP status code from either provider's
// error shape, or 0 when none applies (network failure, timeout).
func providerStatus(err error) int {
	var genaiErr genai.APIError
	if errors.As(err, &genaiErr) {
		return genaiErr.Code
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}

	return 0
}
