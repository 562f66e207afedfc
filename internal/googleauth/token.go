// Package googleauth builds OAuth token sources for the Gmail and Drive
// bindings from an installed-app client secrets file and a cached user token.
// Obtaining the initial token (the interactive consent flow) is outside this
// program; it only refreshes what the cache already holds.
package googleauth

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// TokenSource loads the client configuration and cached token and returns a
// self-refreshing token source for the given scopes.
func TokenSource(ctx context.Context, credentialsFile, tokenFile string, scopes ...string) (oauth2.TokenSource, error) {
	secrets, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read client secrets file: %w", err)
	}

	config, err := google.ConfigFromJSON(secrets, scopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse client secrets file: %w", err)
	}

	token, err := tokenFromFile(tokenFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load cached token (run the consent flow first): %w", err)
	}

	return config.TokenSource(ctx, token), nil
}

func tokenFromFile(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	token := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(token); err != nil {
		return nil, fmt.Errorf("failed to decode token file: %w", err)
	}
	return token, nil
}
