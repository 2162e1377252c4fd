package testutil

import (
	"testing"

	"github.com/hipposhare/hipposhare-api/config"
	"github.com/hipposhare/hipposhare-api/middleware"
)

// IssueTestToken signs a real token for the given user so tests can exercise
// the auth middleware end to end
func IssueTestToken(t *testing.T, cfg *config.Config, userID, email string) string {
	t.Helper()

	token, err := middleware.GenerateToken(cfg, userID, email)
	if err != nil {
		t.Fatalf("Failed to issue test token: %v", err)
	}
	return token
}
