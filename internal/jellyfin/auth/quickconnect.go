package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// QuickConnect is a pending Quick Connect request. The user approves Code
// from an already signed-in client; finch then exchanges Secret for a token.
type QuickConnect struct {
	Code   string
	Secret string

	serverURL string
	device    Device
	client    *http.Client
}

type quickConnectState struct {
	Authenticated bool   `json:"Authenticated"`
	Secret        string `json:"Secret"`
	Code          string `json:"Code"`
}

// InitiateQuickConnect asks the server for a new Quick Connect code.
func InitiateQuickConnect(ctx context.Context, serverURL string, device Device) (*QuickConnect, error) {
	qc := &QuickConnect{
		serverURL: serverURL,
		device:    device,
		client:    &http.Client{Timeout: 10 * time.Second},
	}

	state, err := qc.do(ctx, http.MethodPost, "/QuickConnect/Initiate")
	if err != nil {
		return nil, fmt.Errorf("quick connect unavailable: %w", err)
	}
	qc.Code = state.Code
	qc.Secret = state.Secret
	return qc, nil
}

// Poll reports whether the request has been approved.
func (qc *QuickConnect) Poll(ctx context.Context) (bool, error) {
	state, err := qc.do(ctx, http.MethodGet, "/QuickConnect/Connect?secret="+url.QueryEscape(qc.Secret))
	if err != nil {
		return false, err
	}
	return state.Authenticated, nil
}

// Wait polls until the request is approved or the context is cancelled,
// then exchanges the secret for credentials.
func (qc *QuickConnect) Wait(ctx context.Context, interval time.Duration) (*Credentials, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			ok, err := qc.Poll(ctx)
			if err != nil {
				return nil, err
			}
			if ok {
				return AuthenticateWithQuickConnect(ctx, qc.serverURL, qc.device, qc.Secret)
			}
		}
	}
}

func (qc *QuickConnect) do(ctx context.Context, method, path string) (*quickConnectState, error) {
	req, err := http.NewRequestWithContext(ctx, method, qc.serverURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", qc.device.Header(""))

	resp, err := qc.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("quick connect request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var state quickConnectState
	if err := json.Unmarshal(body, &state); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &state, nil
}
