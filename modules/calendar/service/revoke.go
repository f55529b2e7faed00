package service

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const googleRevokeURL = "https://oauth2.googleapis.com/revoke"

// TokenRevoker invalidates a credential at the provider.
type TokenRevoker interface {
	Revoke(ctx context.Context, token string) error
}

type googleRevoker struct {
	client   *http.Client
	endpoint string
}

func NewGoogleRevoker() TokenRevoker {
	return &googleRevoker{
		client:   &http.Client{Timeout: 10 * time.Second},
		endpoint: googleRevokeURL,
	}
}

func (r *googleRevoker) Revoke(ctx context.Context, token string) error {
	form := url.Values{"token": {token}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("revoke: unexpected status %d", resp.StatusCode)
	}
	return nil
}
