package transport

// Config holds configuration for the tracker REST API.
type Config struct {
	// URL is the REST root of the tracker.
	URL string `mapstructure:"url" default:"https://bugzilla.mozilla.org/rest"`
	// Username is the login name, used with Password or APIKey.
	Username string `mapstructure:"username" default:""`
	// Password is exchanged for a session token at login.
	Password string `mapstructure:"password" default:""`
	// APIKey authenticates every request through the X-Bugzilla-API-Key header.
	APIKey string `mapstructure:"api_key" default:""`
	// UserID and Cookie form a login token from an existing browser session.
	UserID string `mapstructure:"user_id" default:""`
	Cookie string `mapstructure:"cookie" default:""`
	// TimeoutSeconds bounds every HTTP exchange.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
	// UserAgent is sent with every request.
	UserAgent string `mapstructure:"user_agent" default:"bugsync"`
}

// AuthMode names the credential flavour a Config carries.
type AuthMode string

const (
	AuthNone     AuthMode = "none"
	AuthAPIKey   AuthMode = "api_key"
	AuthPassword AuthMode = "password"
	AuthCookie   AuthMode = "cookie"
)

// Mode returns the auth mode selected by the configured credentials.
// An API key wins over a password, which wins over a session cookie.
func (c Config) Mode() AuthMode {
	switch {
	case c.APIKey != "":
		return AuthAPIKey
	case c.Username != "" && c.Password != "":
		return AuthPassword
	case c.UserID != "" && c.Cookie != "":
		return AuthCookie
	default:
		return AuthNone
	}
}
