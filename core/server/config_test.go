package server_test

import (
	"testing"

	"bugsync/core/server"

	"github.com/stretchr/testify/assert"
)

func TestConfig_Addr(t *testing.T) {
	assert.Equal(t, ":8080", server.Config{}.Addr())
	assert.Equal(t, ":9090", server.Config{Port: "9090"}.Addr())
}

func TestConfig_CheckLogin(t *testing.T) {
	cfg := server.Config{Username: "foo", Password: "bar", ApiKey: "key"}

	tests := []struct {
		name     string
		login    string
		password string
		want     bool
	}{
		{"Valid", "foo", "bar", true},
		{"WrongPassword", "foo", "baz", false},
		{"WrongLogin", "bar", "bar", false},
		{"Empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cfg.CheckLogin(tt.login, tt.password))
		})
	}

	assert.False(t, server.Config{}.CheckLogin("", ""))
}

func TestConfig_CheckAPIKey(t *testing.T) {
	assert.True(t, server.Config{ApiKey: "key"}.CheckAPIKey("key"))
	assert.False(t, server.Config{ApiKey: "key"}.CheckAPIKey("other"))
	assert.False(t, server.Config{}.CheckAPIKey(""))
}
