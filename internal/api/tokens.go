package api

import (
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// StaticToken returns a token source that always yields the same bearer token.
func StaticToken(token string) oauth2.TokenSource {
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
}

// FileToken returns a token source backed by a file holding the bearer
// token. The file is re-read once the cached token is older than ttl, so
// an external process can rotate the credential without a restart.
func FileToken(path string, ttl time.Duration) oauth2.TokenSource {
	return oauth2.ReuseTokenSource(nil, &fileTokenSource{path: path, ttl: ttl, now: time.Now})
}

type fileTokenSource struct {
	path string
	ttl  time.Duration
	now  func() time.Time
}

func (s *fileTokenSource) Token() (*oauth2.Token, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read token file: %w", err)
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return nil, fmt.Errorf("token file %s is empty", s.path)
	}
	return &oauth2.Token{
		AccessToken: token,
		TokenType:   "Bearer",
		Expiry:      s.now().Add(s.ttl),
	}, nil
}
