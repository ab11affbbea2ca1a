package storage

import "strings"

// Config points the attachment mirror at an S3 compatible bucket.
type Config struct {
	// Endpoint is host:port, optionally prefixed with http:// or https://.
	Endpoint  string `mapstructure:"endpoint" default:"localhost:9000"`
	AccessKey string `mapstructure:"access_key" default:"minioadmin"`
	SecretKey string `mapstructure:"secret_key" default:"minioadmin"`
	// UseSSL is implied by an https:// endpoint.
	UseSSL bool   `mapstructure:"use_ssl" default:"false"`
	Bucket string `mapstructure:"bucket" default:"attachments"`
	Region string `mapstructure:"region" default:""`
	// TimeoutSeconds bounds dialing, TLS handshakes and response headers.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
}

// host returns the endpoint without its scheme, which minio rejects, and
// whether TLS is on.
func (c Config) host() (string, bool) {
	if h, ok := strings.CutPrefix(c.Endpoint, "https://"); ok {
		return h, true
	}
	return strings.TrimPrefix(c.Endpoint, "http://"), c.UseSSL
}
