package client

import (
	"context"
	"net/url"

	"github.com/tessro/finch/internal/core"
	"github.com/tessro/finch/internal/trickplay"
)

// DeviceProfile tells the server what this client can play without help.
type DeviceProfile struct {
	Name                string               `json:"Name"`
	MaxStreamingBitrate int                  `json:"MaxStreamingBitrate,omitempty"`
	DirectPlayProfiles  []DirectPlayProfile  `json:"DirectPlayProfiles"`
	TranscodingProfiles []TranscodingProfile `json:"TranscodingProfiles"`
	SubtitleProfiles    []SubtitleProfile    `json:"SubtitleProfiles"`
}

// DirectPlayProfile lists containers and codecs played as-is.
type DirectPlayProfile struct {
	Type       string `json:"Type"`
	Container  string `json:"Container,omitempty"`
	VideoCodec string `json:"VideoCodec,omitempty"`
	AudioCodec string `json:"AudioCodec,omitempty"`
}

// TranscodingProfile describes the fallback format.
type TranscodingProfile struct {
	Type       string `json:"Type"`
	Container  string `json:"Container"`
	Protocol   string `json:"Protocol"`
	VideoCodec string `json:"VideoCodec,omitempty"`
	AudioCodec string `json:"AudioCodec"`
	Context    string `json:"Context"`
}

// SubtitleProfile is an accepted subtitle delivery.
type SubtitleProfile struct {
	Format string `json:"Format"`
	Method string `json:"Method"`
}

// DefaultDeviceProfile describes an mpv-class player: it direct-plays
// nearly everything and falls back to HLS.
func DefaultDeviceProfile(maxBitrate int) DeviceProfile {
	return DeviceProfile{
		Name:                "finch",
		MaxStreamingBitrate: maxBitrate,
		DirectPlayProfiles: []DirectPlayProfile{
			{Type: "Video", Container: "mp4,m4v,mkv,webm,mov,avi,ts"},
			{Type: "Audio", Container: "mp3,aac,m4a,m4b,flac,alac,wav,ogg,opus"},
		},
		TranscodingProfiles: []TranscodingProfile{
			{Type: "Video", Container: "ts", Protocol: "hls", VideoCodec: "h264", AudioCodec: "aac", Context: "Streaming"},
			{Type: "Audio", Container: "ts", Protocol: "hls", AudioCodec: "aac", Context: "Streaming"},
		},
		SubtitleProfiles: []SubtitleProfile{
			{Format: "srt", Method: "External"},
			{Format: "ass", Method: "External"},
			{Format: "vtt", Method: "External"},
			{Format: "pgssub", Method: "Encode"},
		},
	}
}

// PlaybackInfoRequest is the body of a playback negotiation.
type PlaybackInfoRequest struct {
	UserID              string         `json:"UserId"`
	MediaSourceID       string         `json:"MediaSourceId,omitempty"`
	StartTimeTicks      int64          `json:"StartTimeTicks,omitempty"`
	AudioStreamIndex    *int           `json:"AudioStreamIndex,omitempty"`
	SubtitleStreamIndex *int           `json:"SubtitleStreamIndex,omitempty"`
	MaxStreamingBitrate int            `json:"MaxStreamingBitrate,omitempty"`
	EnableDirectPlay    bool           `json:"EnableDirectPlay"`
	EnableDirectStream  bool           `json:"EnableDirectStream"`
	EnableTranscoding   bool           `json:"EnableTranscoding"`
	AutoOpenLiveStream  bool           `json:"AutoOpenLiveStream"`
	DeviceProfile       *DeviceProfile `json:"DeviceProfile,omitempty"`
}

// PlaybackInfoResponse carries the negotiated sources and session id.
type PlaybackInfoResponse struct {
	MediaSources  []MediaSourceInfo `json:"MediaSources"`
	PlaySessionID string            `json:"PlaySessionId"`
	ErrorCode     string            `json:"ErrorCode"`
}

// PlaybackInfo is the converted negotiation result.
type PlaybackInfo struct {
	Sources       []core.MediaSource
	PlaySessionID string
	ErrorCode     string
}

// Source returns the negotiated source with the given id, or nil. An empty
// id selects the first source.
func (p *PlaybackInfo) Source(id string) *core.MediaSource {
	if p == nil || len(p.Sources) == 0 {
		return nil
	}
	if id == "" {
		return &p.Sources[0]
	}
	for i := range p.Sources {
		if p.Sources[i].ID == id {
			return &p.Sources[i]
		}
	}
	return nil
}

// GetPlaybackInfo negotiates playback for an item.
func (c *Client) GetPlaybackInfo(ctx context.Context, itemID string, req PlaybackInfoRequest) (*PlaybackInfo, error) {
	if req.UserID == "" {
		req.UserID = c.UserID()
	}
	var resp PlaybackInfoResponse
	if err := c.Post(ctx, "/Items/"+url.PathEscape(itemID)+"/PlaybackInfo", req, &resp); err != nil {
		return nil, err
	}
	info := &PlaybackInfo{PlaySessionID: resp.PlaySessionID, ErrorCode: resp.ErrorCode}
	for i := range resp.MediaSources {
		info.Sources = append(info.Sources, convertSource(&resp.MediaSources[i]))
	}
	return info, nil
}

// Capabilities advertises what this device supports for remote control.
type Capabilities struct {
	PlayableMediaTypes   []string       `json:"PlayableMediaTypes"`
	SupportedCommands    []string       `json:"SupportedCommands"`
	SupportsMediaControl bool           `json:"SupportsMediaControl"`
	DeviceProfile        *DeviceProfile `json:"DeviceProfile,omitempty"`
}

// PostCapabilities registers the device's capabilities with the server.
func (c *Client) PostCapabilities(ctx context.Context, caps Capabilities) error {
	return c.Post(ctx, "/Sessions/Capabilities/Full", caps, nil)
}

// PlaybackReport is the body of start and progress reports.
type PlaybackReport struct {
	ItemID              string `json:"ItemId"`
	MediaSourceID       string `json:"MediaSourceId"`
	PlaySessionID       string `json:"PlaySessionId"`
	PositionTicks       int64  `json:"PositionTicks"`
	IsPaused            bool   `json:"IsPaused"`
	IsMuted             bool   `json:"IsMuted"`
	VolumeLevel         int    `json:"VolumeLevel"`
	AudioStreamIndex    *int   `json:"AudioStreamIndex,omitempty"`
	SubtitleStreamIndex *int   `json:"SubtitleStreamIndex,omitempty"`
	PlayMethod          string `json:"PlayMethod"`
	CanSeek             bool   `json:"CanSeek"`
	EventName           string `json:"EventName,omitempty"`
}

// StopReport is the body of a stopped report.
type StopReport struct {
	ItemID        string `json:"ItemId"`
	MediaSourceID string `json:"MediaSourceId"`
	PlaySessionID string `json:"PlaySessionId"`
	PositionTicks int64  `json:"PositionTicks"`
}

// ReportPlaybackStart tells the server playback began.
func (c *Client) ReportPlaybackStart(ctx context.Context, r PlaybackReport) error {
	return c.Post(ctx, "/Sessions/Playing", r, nil)
}

// ReportPlaybackProgress reports position and pause state.
func (c *Client) ReportPlaybackProgress(ctx context.Context, r PlaybackReport) error {
	return c.Post(ctx, "/Sessions/Playing/Progress", r, nil)
}

// ReportPlaybackStopped sends the final position of a session. Cached
// queries are dropped afterwards since they carry the old resume point.
func (c *Client) ReportPlaybackStopped(ctx context.Context, r StopReport) error {
	if err := c.Post(ctx, "/Sessions/Playing/Stopped", r, nil); err != nil {
		return err
	}
	c.Invalidate()
	return nil
}

// TrickplayTileURL returns the sprite sheet URL for a trickplay resolution.
func (c *Client) TrickplayTileURL(itemID string, width, sheet int) string {
	return BuildURL(c.ServerURL()+trickplay.SheetPath(itemID, width, sheet), map[string]string{
		"api_key": c.Token(),
	})
}

// SubtitleURL resolves a stream's delivery URL against the server.
func (c *Client) SubtitleURL(deliveryURL string) string {
	if deliveryURL == "" {
		return ""
	}
	if u, err := url.Parse(deliveryURL); err == nil && u.IsAbs() {
		return deliveryURL
	}
	return c.ServerURL() + deliveryURL
}
