package transport_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"bugsync/core/errs"
	"bugsync/core/transport"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, h http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func TestNewClient(t *testing.T) {
	t.Run("MissingURL", func(t *testing.T) {
		_, err := transport.NewClient(transport.Config{})
		assert.Error(t, err)
	})

	t.Run("RelativeURL", func(t *testing.T) {
		_, err := transport.NewClient(transport.Config{URL: "/rest"})
		assert.Error(t, err)
	})

	t.Run("Anonymous", func(t *testing.T) {
		c, err := transport.NewClient(transport.Config{URL: "https://bugzilla.example.com/rest/"})
		require.NoError(t, err)
		assert.False(t, c.Authenticated())
	})
}

func TestDo_Success(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/bug/1017315", r.URL.Path)
		assert.Equal(t, "id,status", r.URL.Query().Get("include_fields"))
		assert.Equal(t, "bugsync", r.Header.Get("User-Agent"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		assert.Empty(t, r.Header.Get("Content-Type"))
		_, _ = io.WriteString(w, `{"bugs":[{"id":1017315,"status":"RESOLVED"}]}`)
	})

	c, err := transport.NewClient(transport.Config{URL: srv.URL + "/rest"})
	require.NoError(t, err)

	resp, err := c.Do(context.Background(), &transport.Request{
		Path:  "bug/1017315",
		Query: map[string][]string{"include_fields": {"id,status"}},
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)

	var out struct {
		Bugs []map[string]any `json:"bugs"`
	}
	require.NoError(t, resp.Decode(&out))
	require.Len(t, out.Bugs, 1)
	assert.Equal(t, json.Number("1017315"), out.Bugs[0]["id"])
}

func TestDo_SendsJSONBody(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]any{"add": []any{"ateam"}}, body["keywords"])
		_, _ = io.WriteString(w, `{"bugs":[{"id":1}]}`)
	})

	c, err := transport.NewClient(transport.Config{URL: srv.URL})
	require.NoError(t, err)

	_, err = c.Do(context.Background(), &transport.Request{
		Method: http.MethodPut,
		Path:   "bug/1",
		Body:   map[string]any{"keywords": map[string]any{"add": []string{"ateam"}}},
	})
	assert.NoError(t, err)
}

func TestDo_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		kind    errs.Kind
		code    int
		message string
	}{
		{
			name:    "NotFoundCode",
			status:  http.StatusNotFound,
			body:    `{"error":true,"code":101,"message":"Bug 1017315 does not exist."}`,
			kind:    errs.NotFound,
			code:    101,
			message: "Bug 1017315 does not exist.",
		},
		{
			name:    "RemoteJSON",
			status:  http.StatusBadRequest,
			body:    `{"error":true,"code":50,"message":"You must select a component."}`,
			kind:    errs.RemoteError,
			code:    50,
			message: "You must select a component.",
		},
		{
			name:    "NonJSON",
			status:  http.StatusInternalServerError,
			body:    "It's all broken",
			kind:    errs.RemoteError,
			message: "We received a 500 error with the following: It's all broken",
		},
		{
			name:    "ErrorFlagOnSuccess",
			status:  http.StatusOK,
			body:    `{"error":true,"code":32000,"message":"Invalid field"}`,
			kind:    errs.RemoteError,
			code:    32000,
			message: "Invalid field",
		},
		{
			name:    "EmptyJSONMessage",
			status:  http.StatusServiceUnavailable,
			body:    `{}`,
			kind:    errs.RemoteError,
			message: "We received a 503 error with the following: {}",
		},
		{
			name:    "CodeWithoutMessage",
			status:  http.StatusBadGateway,
			body:    `{"error":true,"code":7}`,
			kind:    errs.RemoteError,
			code:    7,
			message: `We received a 502 error with the following: {"error":true,"code":7}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})
			c, err := transport.NewClient(transport.Config{URL: srv.URL})
			require.NoError(t, err)

			_, err = c.Do(context.Background(), &transport.Request{Path: "bug/1017315"})
			require.Error(t, err)

			var e *errs.Error
			require.ErrorAs(t, err, &e)
			assert.Equal(t, tt.kind, e.Kind)
			assert.Equal(t, tt.status, e.Status)
			assert.Equal(t, tt.code, e.Code)
			assert.Equal(t, tt.message, e.Message)
			assert.Equal(t, "GET bug/1017315", e.Op)
		})
	}
}

func TestLogin_Password(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/login":
			if r.Header.Get("X-Bugzilla-Login") != "foo" || r.Header.Get("X-Bugzilla-Password") != "bar" {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = io.WriteString(w, `{"error":true,"code":300,"message":"The username or password you entered is not valid."}`)
				return
			}
			_, _ = io.WriteString(w, `{"id":1234,"token":"1234-abcd"}`)
		case "/bug/1":
			assert.Equal(t, "1234-abcd", r.Header.Get("X-Bugzilla-Token"))
			assert.Empty(t, r.Header.Get("X-Bugzilla-Password"))
			_, _ = io.WriteString(w, `{"bugs":[]}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	t.Run("Accepted", func(t *testing.T) {
		c, err := transport.Connect(context.Background(), transport.Config{URL: srv.URL, Username: "foo", Password: "bar"})
		require.NoError(t, err)
		assert.True(t, c.Authenticated())
		assert.Equal(t, "foo", c.Username())

		_, err = c.Do(context.Background(), &transport.Request{Path: "bug/1"})
		assert.NoError(t, err)
	})

	t.Run("Rejected", func(t *testing.T) {
		_, err := transport.Connect(context.Background(), transport.Config{URL: srv.URL, Username: "foo", Password: "nope"})
		require.Error(t, err)
		assert.ErrorIs(t, err, errs.Unauthenticated)

		var e *errs.Error
		require.ErrorAs(t, err, &e)
		assert.Equal(t, 300, e.Code)
		assert.Equal(t, "The username or password you entered is not valid.", e.Message)
	})
}

func TestLogin_APIKey(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/valid_login", r.URL.Path)
		assert.Equal(t, "foo", r.URL.Query().Get("login"))
		if r.Header.Get("X-Bugzilla-API-Key") == "goodkey" {
			_, _ = io.WriteString(w, `true`)
			return
		}
		_, _ = io.WriteString(w, `false`)
	})

	t.Run("Valid", func(t *testing.T) {
		c, err := transport.Connect(context.Background(), transport.Config{URL: srv.URL, Username: "foo", APIKey: "goodkey"})
		require.NoError(t, err)
		assert.True(t, c.Authenticated())
	})

	t.Run("Invalid", func(t *testing.T) {
		_, err := transport.Connect(context.Background(), transport.Config{URL: srv.URL, Username: "foo", APIKey: "badkey"})
		assert.ErrorIs(t, err, errs.Unauthenticated)
	})

	t.Run("KeyWithoutLogin", func(t *testing.T) {
		c, err := transport.NewClient(transport.Config{URL: srv.URL, APIKey: "goodkey"})
		require.NoError(t, err)
		assert.True(t, c.Authenticated())
	})
}

func TestLogin_Cookie(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/user/1234":
			assert.Equal(t, "1234-abcd", r.Header.Get("X-Bugzilla-Token"))
			_, _ = io.WriteString(w, `{"users":[{"id":1234,"name":"foo@example.com"}]}`)
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"error":true,"code":51,"message":"There is no user named 9"}`)
		}
	})

	c, err := transport.Connect(context.Background(), transport.Config{URL: srv.URL, UserID: "1234", Cookie: "abcd"})
	require.NoError(t, err)
	assert.True(t, c.Authenticated())
	assert.Equal(t, "foo@example.com", c.Username())

	_, err = transport.Connect(context.Background(), transport.Config{URL: srv.URL, UserID: "9", Cookie: "abcd"})
	assert.ErrorIs(t, err, errs.Unauthenticated)
}

func TestLogin_NoCredentials(t *testing.T) {
	c, err := transport.NewClient(transport.Config{URL: "http://localhost"})
	require.NoError(t, err)
	assert.ErrorIs(t, c.Login(context.Background()), errs.Unauthenticated)
}

func TestMetrics(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = io.WriteString(w, `{}`)
	})

	reg := prometheus.NewRegistry()
	m := transport.NewMetrics(reg)
	c, err := transport.NewClient(transport.Config{URL: srv.URL}, transport.WithMetrics(m))
	require.NoError(t, err)

	_, _ = c.Do(context.Background(), &transport.Request{Path: "ok"})
	_, _ = c.Do(context.Background(), &transport.Request{Path: "ok"})
	_, _ = c.Do(context.Background(), &transport.Request{Path: "missing"})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Requests("GET", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests("GET", "404")))
}

func TestConfig_Mode(t *testing.T) {
	assert.Equal(t, transport.AuthNone, transport.Config{}.Mode())
	assert.Equal(t, transport.AuthAPIKey, transport.Config{APIKey: "k", Username: "u", Password: "p"}.Mode())
	assert.Equal(t, transport.AuthPassword, transport.Config{Username: "u", Password: "p"}.Mode())
	assert.Equal(t, transport.AuthCookie, transport.Config{UserID: "1", Cookie: "c"}.Mode())
	assert.Equal(t, transport.AuthNone, transport.Config{Username: "u"}.Mode())
}
