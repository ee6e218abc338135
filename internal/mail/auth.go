package mail

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
)

// ErrNoValidToken is returned when the stored token is expired and cannot
// be refreshed.
var ErrNoValidToken = errors.New("no valid token available")

// LoadTokenSource builds a read-only Gmail token source from the OAuth
// client file and a token file produced by a prior consent flow. The stored
// token must be valid or carry a refresh token.
func LoadTokenSource(ctx context.Context, credentialsFile, tokenFile string) (oauth2.TokenSource, error) {
	raw, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("LoadTokenSource: failed to read credentials file %s: %w", credentialsFile, err)
	}

	cfg, err := google.ConfigFromJSON(raw, gmail.GmailReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("LoadTokenSource: failed to parse credentials: %w", err)
	}

	tok, err := readToken(tokenFile)
	if err != nil {
		return nil, fmt.Errorf("LoadTokenSource: %w", err)
	}

	if !tok.Valid() && tok.RefreshToken == "" {
		return nil, fmt.Errorf("LoadTokenSource: token in %s is expired and has no refresh token: %w", tokenFile, ErrNoValidToken)
	}

	return cfg.TokenSource(ctx, tok), nil
}

func readToken(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open token file %s: %w", path, err)
	}
	defer f.Close()

	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, fmt.Errorf("failed to decode token file %s: %w", path, err)
	}
	return tok, nil
}
