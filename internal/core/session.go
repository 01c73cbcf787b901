package core

import "time"

// PlayMethod is how the server delivers the stream.
type PlayMethod string

const (
	PlayMethodDirectPlay   PlayMethod = "DirectPlay"
	PlayMethodDirectStream PlayMethod = "DirectStream"
	PlayMethodTranscode    PlayMethod = "Transcode"
)

// SubtitleTrack is a subtitle choice offered to the user for the active session.
type SubtitleTrack struct {
	Index    int    `json:"index"`
	Title    string `json:"title"`
	Language string `json:"language,omitempty"`
	External bool   `json:"external"`
	URL      string `json:"url,omitempty"`
}

// PlaybackSession is the single active playback. It is owned by the
// playback controller; everything else sees copies.
type PlaybackSession struct {
	Item            *MediaItem      `json:"item"`
	MediaSourceID   string          `json:"media_source_id"`
	StreamURL       string          `json:"stream_url"`
	ServerSessionID string          `json:"server_session_id"`
	PlayMethod      PlayMethod      `json:"play_method"`
	Position        Position        `json:"position"`
	Duration        Ticks           `json:"duration"`
	IsPlaying       bool            `json:"is_playing"`
	IsBuffering     bool            `json:"is_buffering"`
	IsFullscreen    bool            `json:"is_fullscreen"`
	AudioIndex      *int            `json:"audio_index,omitempty"`
	SubtitleIndex   *int            `json:"subtitle_index,omitempty"`
	SubtitleTracks  []SubtitleTrack `json:"subtitle_tracks,omitempty"`
	Segments        []Segment       `json:"segments,omitempty"`
	Volume          int             `json:"volume"`
	Muted           bool            `json:"muted"`
	StartedAt       time.Time       `json:"started_at"`
}

// Active reports whether the session has an item loaded.
func (s *PlaybackSession) Active() bool {
	return s != nil && s.Item != nil
}

// Reportable reports whether the server knows about the session.
func (s *PlaybackSession) Reportable() bool {
	return s.Active() && s.ServerSessionID != ""
}

// ProgressPercent returns playback progress as a percentage (0-100).
func (s *PlaybackSession) ProgressPercent() float64 {
	if s == nil || !s.Position.Known {
		return 0
	}
	total := s.Duration
	if total == 0 && s.Item != nil {
		total = s.Item.RunTimeTicks
	}
	if total <= 0 {
		return 0
	}
	return float64(s.Position.Ticks) / float64(total) * 100
}

// Clone returns a deep enough copy for handing to readers.
func (s *PlaybackSession) Clone() *PlaybackSession {
	if s == nil {
		return nil
	}
	c := *s
	c.SubtitleTracks = append([]SubtitleTrack(nil), s.SubtitleTracks...)
	c.Segments = append([]Segment(nil), s.Segments...)
	if s.AudioIndex != nil {
		v := *s.AudioIndex
		c.AudioIndex = &v
	}
	if s.SubtitleIndex != nil {
		v := *s.SubtitleIndex
		c.SubtitleIndex = &v
	}
	return &c
}
