package core

import "time"

// RemoteSession is a playback session on any device, as listed by the server.
type RemoteSession struct {
	ID                 string     `json:"id"`
	UserID             string     `json:"user_id"`
	UserName           string     `json:"user_name"`
	Client             string     `json:"client"`
	DeviceID           string     `json:"device_id"`
	DeviceName         string     `json:"device_name"`
	ApplicationVersion string     `json:"application_version,omitempty"`
	LastActivity       time.Time  `json:"last_activity"`
	SupportsRemote     bool       `json:"supports_remote_control"`
	NowPlaying         *MediaItem `json:"now_playing,omitempty"`
	Position           Position   `json:"position"`
	IsPaused           bool       `json:"is_paused"`
	IsMuted            bool       `json:"is_muted"`
	VolumeLevel        int        `json:"volume_level"`
	PlayMethod         PlayMethod `json:"play_method,omitempty"`
}

// IsPlaying reports whether something is loaded and not paused.
func (s *RemoteSession) IsPlaying() bool {
	return s != nil && s.NowPlaying != nil && !s.IsPaused
}

// HasItem reports whether the session has something loaded.
func (s *RemoteSession) HasItem() bool {
	return s != nil && s.NowPlaying != nil
}
