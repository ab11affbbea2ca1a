package server

// Config holds configuration for the fake tracker's HTTP server.
type Config struct {
	// Port is the port where the server will listen.
	Port string `mapstructure:"port" default:"8080"`
	// Username and Password are the single account the server accepts.
	Username string `mapstructure:"username" default:"admin@example.com"`
	Password string `mapstructure:"password" default:"password"`
	// ApiKey is accepted in X-Bugzilla-API-Key in place of a login.
	ApiKey string `mapstructure:"api_key" default:""`
	// UserID is the numeric id of the account.
	UserID int64 `mapstructure:"user_id" default:"1"`
}

// Addr returns the listen address.
func (c Config) Addr() string {
	if c.Port == "" {
		return ":8080"
	}
	return ":" + c.Port
}

// CheckLogin reports whether login and password match the account.
func (c Config) CheckLogin(login, password string) bool {
	return c.Username != "" && login == c.Username && password == c.Password
}

// CheckAPIKey reports whether key is the configured API key.
func (c Config) CheckAPIKey(key string) bool {
	return c.ApiKey != "" && key == c.ApiKey
}
