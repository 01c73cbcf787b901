package auth

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

const (
	// ClientName identifies finch to the server.
	ClientName = "finch"

	// AuthorizationScheme prefixes the Authorization header value.
	AuthorizationScheme = "MediaBrowser"
)

// Device identifies this installation to the media server.
type Device struct {
	Client  string
	Name    string
	ID      string
	Version string
}

// NewDevice returns a Device with ClientName and the given fields.
// An empty id is replaced by a fresh random one.
func NewDevice(name, id, version string) Device {
	if id == "" {
		id = NewDeviceID()
	}
	if name == "" {
		name = ClientName
	}
	return Device{Client: ClientName, Name: name, ID: id, Version: version}
}

// NewDeviceID generates a new device identifier.
func NewDeviceID() string {
	return uuid.NewString()
}

// Header builds the Authorization header value. Token may be empty before login.
func (d Device) Header(token string) string {
	parts := []string{
		fmt.Sprintf("Client=%q", d.Client),
		fmt.Sprintf("Device=%q", d.Name),
		fmt.Sprintf("DeviceId=%q", d.ID),
		fmt.Sprintf("Version=%q", d.Version),
	}
	if token != "" {
		parts = append(parts, fmt.Sprintf("Token=%q", token))
	}
	return AuthorizationScheme + " " + strings.Join(parts, ", ")
}

// NormalizeServerURL validates a user-entered server address and strips
// any trailing slash. A missing scheme defaults to http.
func NormalizeServerURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("server url is empty")
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid server url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("invalid server url scheme: %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("server url has no host")
	}
	u.RawQuery = ""
	u.Fragment = ""
	return strings.TrimRight(u.String(), "/"), nil
}
