package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Credentials are what a successful login yields.
type Credentials struct {
	ServerURL   string    `json:"server_url"`
	ServerID    string    `json:"server_id"`
	UserID      string    `json:"user_id"`
	UserName    string    `json:"user_name"`
	AccessToken string    `json:"access_token"`
	DeviceID    string    `json:"device_id"`
	SavedAt     time.Time `json:"saved_at"`
}

// Valid reports whether the credentials can authenticate requests.
func (c *Credentials) Valid() bool {
	return c != nil && c.ServerURL != "" && c.AccessToken != "" && c.UserID != ""
}

// authResponse is the raw response from the authenticate endpoints.
type authResponse struct {
	User struct {
		ID   string `json:"Id"`
		Name string `json:"Name"`
	} `json:"User"`
	AccessToken string `json:"AccessToken"`
	ServerID    string `json:"ServerId"`
}

// AuthenticateByName logs in with a user name and password.
func AuthenticateByName(ctx context.Context, serverURL string, device Device, username, password string) (*Credentials, error) {
	body := map[string]string{"Username": username, "Pw": password}
	return authenticate(ctx, serverURL, "/Users/AuthenticateByName", device, body)
}

// AuthenticateWithQuickConnect exchanges an approved Quick Connect secret for credentials.
func AuthenticateWithQuickConnect(ctx context.Context, serverURL string, device Device, secret string) (*Credentials, error) {
	body := map[string]string{"Secret": secret}
	return authenticate(ctx, serverURL, "/Users/AuthenticateWithQuickConnect", device, body)
}

func authenticate(ctx context.Context, serverURL, path string, device Device, payload any) (*Credentials, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, serverURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", device.Header(""))

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("authentication request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, fmt.Errorf("invalid user name or password")
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var ar authResponse
	if err := json.Unmarshal(body, &ar); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if ar.AccessToken == "" {
		return nil, fmt.Errorf("server returned no access token")
	}

	return &Credentials{
		ServerURL:   serverURL,
		ServerID:    ar.ServerID,
		UserID:      ar.User.ID,
		UserName:    ar.User.Name,
		AccessToken: ar.AccessToken,
		DeviceID:    device.ID,
		SavedAt:     time.Now(),
	}, nil
}
