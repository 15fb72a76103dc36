package app

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"booking-service/internal/config"
)

func TestBearerToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		name    string
		header  string
		want    string
		wantErr error
	}{
		{"missing", "", "", errMissingAuth},
		{"bearer", "Bearer abc", "abc", nil},
		{"lower case scheme", "bearer abc", "abc", nil},
		{"surrounding spaces", "  Bearer   abc  ", "abc", nil},
		{"basic", "Basic abc", "", errBadScheme},
		{"no token", "Bearer", "", errBadScheme},
		{"two tokens", "Bearer a b", "", errBadScheme},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				c.Request.Header.Set("Authorization", tt.header)
			}
			got, err := bearerToken(c)
			if !errors.Is(err, tt.wantErr) || got != tt.want {
				t.Fatalf("bearerToken(%q) = %q, %v; want %q, %v", tt.header, got, err, tt.want, tt.wantErr)
			}
		})
	}
}

func TestOperatorAuth_NothingConfiguredRefusesAll(t *testing.T) {
	auth := newOperatorAuth(config.Admin{StaticTokens: []string{" ", ""}})
	for _, token := range []string{"", " ", "anything"} {
		if auth.allows(token) {
			t.Fatalf("token %q allowed without any configured credential", token)
		}
	}
}
