package main

import (
	"strings"
	"testing"

	appConfig "vinylogue/config"
)

func TestNewGatewayRequiresCredentials(t *testing.T) {
	tests := []struct {
		name    string
		cfg     appConfig.SpotifyConfig
		wantErr bool
	}{
		{"missing_both", appConfig.SpotifyConfig{}, true},
		{"missing_secret", appConfig.SpotifyConfig{ClientID: "id"}, true},
		{"missing_id", appConfig.SpotifyConfig{ClientSecret: "secret"}, true},
		{"present", appConfig.SpotifyConfig{ClientID: "id", ClientSecret: "secret"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gateway, err := newGateway(tt.cfg)
			if tt.wantErr {
				if err == nil || !strings.Contains(err.Error(), "SPOTIFY_CLIENT_ID") {
					t.Errorf("newGateway() error = %v; want a message naming the env vars", err)
				}
				return
			}
			if err != nil || gateway == nil {
				t.Errorf("newGateway() = %v, %v", gateway, err)
			}
		})
	}
}
