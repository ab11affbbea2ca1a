package fakezilla

import (
	"bytes"
	"io"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

type roundTripper struct {
	app *fiber.App
}

// Transport returns an http.RoundTripper that serves requests with app
// in-process, without opening a socket.
func Transport(app *fiber.App) http.RoundTripper {
	return roundTripper{app: app}
}

func (rt roundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())
	if req.Body != nil {
		body, err := io.ReadAll(req.Body)
		req.Body.Close()
		if err != nil {
			return nil, err
		}
		out.Body = io.NopCloser(bytes.NewReader(body))
		out.ContentLength = int64(len(body))
	}
	resp, err := rt.app.Test(out, -1)
	if err != nil {
		return nil, err
	}
	resp.Request = req
	return resp, nil
}
