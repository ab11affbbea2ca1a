package transport

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"bugsync/core/errs"

	"go.uber.org/zap"
)

// Login exchanges the configured credentials. A failed exchange leaves the
// client unauthenticated and returns an errs.Unauthenticated error.
func (c *Client) Login(ctx context.Context) error {
	var err error
	switch c.cfg.Mode() {
	case AuthAPIKey:
		err = c.loginAPIKey(ctx)
	case AuthPassword:
		err = c.loginPassword(ctx)
	case AuthCookie:
		err = c.loginCookie(ctx)
	default:
		return errs.New(errs.Unauthenticated, "login", "no credentials configured")
	}
	if err != nil {
		c.logger.Warn("login failed", zap.String("mode", string(c.cfg.Mode())), zap.Error(err))
		return err
	}
	c.logger.Debug("logged in", zap.String("mode", string(c.cfg.Mode())), zap.String("username", c.Username()))
	return nil
}

func (c *Client) loginAPIKey(ctx context.Context) error {
	if c.cfg.Username == "" {
		c.setAuth("", "")
		return nil
	}
	resp, err := c.Do(ctx, &Request{
		Path:  "valid_login",
		Query: url.Values{"login": {c.cfg.Username}},
	})
	if err != nil {
		return unauthenticated(err)
	}
	var valid bool
	if err := resp.Decode(&valid); err != nil || !valid {
		return errs.New(errs.Unauthenticated, "login", "api key rejected for %s", c.cfg.Username)
	}
	c.setAuth("", c.cfg.Username)
	return nil
}

func (c *Client) loginPassword(ctx context.Context) error {
	resp, err := c.do(ctx, &Request{Path: "login"}, http.Header{
		headerLogin:    {c.cfg.Username},
		headerPassword: {c.cfg.Password},
	})
	if err != nil {
		return unauthenticated(err)
	}
	var out struct {
		Token string `json:"token"`
	}
	if err := resp.Decode(&out); err != nil || out.Token == "" {
		return errs.New(errs.Unauthenticated, "login", "no token returned for %s", c.cfg.Username)
	}
	c.setAuth(out.Token, c.cfg.Username)
	return nil
}

func (c *Client) loginCookie(ctx context.Context) error {
	c.mu.Lock()
	c.token = c.cfg.UserID + "-" + c.cfg.Cookie
	c.mu.Unlock()

	resp, err := c.Do(ctx, &Request{Path: "user/" + url.PathEscape(c.cfg.UserID)})
	if err != nil {
		c.mu.Lock()
		c.token = ""
		c.mu.Unlock()
		return unauthenticated(err)
	}
	var out struct {
		Users []struct {
			Name string `json:"name"`
		} `json:"users"`
	}
	if err := resp.Decode(&out); err != nil || len(out.Users) == 0 {
		c.mu.Lock()
		c.token = ""
		c.mu.Unlock()
		return errs.New(errs.Unauthenticated, "login", "user %s not found", c.cfg.UserID)
	}
	c.setAuth(c.cfg.UserID+"-"+c.cfg.Cookie, out.Users[0].Name)
	return nil
}

func (c *Client) setAuth(token, username string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
	if username != "" {
		c.username = username
	}
	c.authed = true
}

// unauthenticated re-kinds a remote failure during login, keeping the
// tracker's code and message.
func unauthenticated(err error) error {
	var e *errs.Error
	if errors.As(err, &e) {
		out := *e
		out.Kind = errs.Unauthenticated
		out.Op = "login"
		return &out
	}
	return &errs.Error{Kind: errs.Unauthenticated, Op: "login", Err: err}
}
