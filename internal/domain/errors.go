package domain

import "errors"

var (
	// ErrInvalidInput signals a malformed or out-of-bound request field.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnsupportedImage signals an image MIME type the provider cannot take.
	ErrUnsupportedImage = errors.New("unsupported image type")

	// ErrProviderAuth signals an authentication failure at the model provider.
	ErrProviderAuth = errors.New("model provider authentication failed")
	// ErrProviderRateLimited signals a provider rate limit hit.
	ErrProviderRateLimited = errors.New("model provider rate limited")
	// ErrProviderTimeout signals a timed-out provider call.
	ErrProviderTimeout = errors.New("model provider timeout")
	// ErrProviderUnavailable signals a connectivity failure to the provider.
	ErrProviderUnavailable = errors.New("model provider unavailable")
	// ErrProviderServer signals a provider-side server fault.
	ErrProviderServer = errors.New("model provider server error")

	// ErrBadModelOutput signals provider output that failed structural
	// validation. Distinct from provider errors so raw model text never
	// leaks into caller-facing messages.
	ErrBadModelOutput = errors.New("unexpected model response")

	// ErrCatalogUnavailable signals that the catalog store cannot be reached.
	ErrCatalogUnavailable = errors.New("catalog unavailable")
)

// userMessages maps sentinel errors to caller-safe message text.
var userMessages = []struct {
	err error
	msg string
}{
	{ErrInvalidInput, "invalid request"},
	{ErrUnsupportedImage, "unsupported image type"},
	{ErrProviderAuth, "image analysis service rejected the configured credentials"},
	{ErrProviderRateLimited, "image analysis service is rate limiting requests, try again shortly"},
	{ErrProviderTimeout, "image analysis service timed out"},
	{ErrProviderUnavailable, "image analysis service is unreachable"},
	{ErrProviderServer, "image analysis service failed"},
	{ErrBadModelOutput, "image analysis returned an unexpected response"},
	{ErrCatalogUnavailable, "catalog is temporarily unavailable"},
}

// UserMessage returns a caller-safe message for err. Unknown errors map to
// a generic message so internals never reach the caller.
func UserMessage(err error) string {
	for _, m := range userMessages {
		if errors.Is(err, m.err) {
			return m.msg
		}
	}
	return "search failed"
}
