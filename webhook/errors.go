package webhook

import (
	"errors"
	"fmt"
	"net/http"
)

// ConfigError reports a missing or unusable endpoint. It is never retried.
type ConfigError struct {
	Msg string
	Err error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("webhook configuration error: %s: %v", e.Msg, e.Err)
	}
	return fmt.Sprintf("webhook configuration error: %s", e.Msg)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// ErrNotConfigured is returned by Send when no endpoint URL is set.
var ErrNotConfigured = &ConfigError{Msg: "webhook URL is not configured (set HOOKCHAT_WEBHOOK_URL or webhook.url)"}

// HTTPError is a non-2xx webhook response.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("webhook HTTP error: status %d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Body)
	}
	return fmt.Sprintf("webhook HTTP error: status %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

func IsHTTPError(err error) bool {
	var he *HTTPError
	return errors.As(err, &he)
}
