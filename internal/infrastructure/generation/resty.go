package generation

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"resty.dev/v3"
)

type clientStartsAt struct{}

// newRestyClient builds a resty client with request/response debug logging.
func newRestyClient(name string, timeout time.Duration, log zerolog.Logger) *resty.Client {
	client := resty.New()
	if timeout > 0 {
		client.SetTimeout(timeout)
	}
	client.AddRequestMiddleware(func(c *resty.Client, r *resty.Request) error {
		r.SetContext(context.WithValue(r.Context(), clientStartsAt{}, time.Now()))
		return nil
	})
	client.AddResponseMiddleware(func(c *resty.Client, r *resty.Response) error {
		start, _ := r.Request.Context().Value(clientStartsAt{}).(time.Time)
		log.Debug().
			Str("client", name).
			Int("status", r.StatusCode()).
			Str("method", r.Request.Method).
			Str("url", r.Request.URL).
			Dur("latency", time.Since(start)).
			Msg("generation client request")
		return nil
	})
	return client
}
