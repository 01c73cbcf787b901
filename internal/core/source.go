package core

// StreamType classifies a media stream within a source.
type StreamType string

const (
	StreamVideo    StreamType = "Video"
	StreamAudio    StreamType = "Audio"
	StreamSubtitle StreamType = "Subtitle"
)

// MediaStream is one video, audio or subtitle track of a media source.
type MediaStream struct {
	Index        int        `json:"index"`
	Type         StreamType `json:"type"`
	Codec        string     `json:"codec,omitempty"`
	Language     string     `json:"language,omitempty"`
	DisplayTitle string     `json:"display_title,omitempty"`
	IsDefault    bool       `json:"is_default"`
	IsExternal   bool       `json:"is_external"`
	DeliveryURL  string     `json:"delivery_url,omitempty"`
}

// MediaSource is one playable version of an item as negotiated with the server.
type MediaSource struct {
	ID                         string        `json:"id"`
	Name                       string        `json:"name,omitempty"`
	Container                  string        `json:"container"`
	Path                       string        `json:"path,omitempty"`
	Bitrate                    int           `json:"bitrate,omitempty"`
	Size                       int64         `json:"size,omitempty"`
	RunTimeTicks               Ticks         `json:"run_time_ticks,omitempty"`
	SupportsDirectPlay         bool          `json:"supports_direct_play"`
	SupportsDirectStream       bool          `json:"supports_direct_stream"`
	SupportsTranscoding        bool          `json:"supports_transcoding"`
	TranscodingURL             string        `json:"transcoding_url,omitempty"`
	MediaStreams               []MediaStream `json:"media_streams,omitempty"`
	DefaultAudioStreamIndex    *int          `json:"default_audio_stream_index,omitempty"`
	DefaultSubtitleStreamIndex *int          `json:"default_subtitle_stream_index,omitempty"`
}

// Streams returns the source's streams of the given type.
func (s *MediaSource) Streams(t StreamType) []MediaStream {
	if s == nil {
		return nil
	}
	var out []MediaStream
	for _, st := range s.MediaStreams {
		if st.Type == t {
			out = append(out, st)
		}
	}
	return out
}

// StreamByLanguage returns the index of the first stream of type t in the
// given language, or -1.
func (s *MediaSource) StreamByLanguage(t StreamType, lang string) int {
	if s == nil || lang == "" {
		return -1
	}
	for _, st := range s.MediaStreams {
		if st.Type == t && st.Language == lang {
			return st.Index
		}
	}
	return -1
}

// Trickplay describes the thumbnail sprite sheets for one resolution.
type Trickplay struct {
	Width          int `json:"width"`
	Height         int `json:"height"`
	TileWidth      int `json:"tile_width"`
	TileHeight     int `json:"tile_height"`
	ThumbnailCount int `json:"thumbnail_count"`
	Interval       int `json:"interval"` // milliseconds between thumbnails
}

// SegmentType is the kind of a media segment marker.
type SegmentType string

const (
	SegmentIntro   SegmentType = "Intro"
	SegmentOutro   SegmentType = "Outro"
	SegmentRecap   SegmentType = "Recap"
	SegmentPreview SegmentType = "Preview"
)

// Segment is a skippable range within an item (intro, credits).
type Segment struct {
	ID         string      `json:"id"`
	Type       SegmentType `json:"type"`
	StartTicks Ticks       `json:"start_ticks"`
	EndTicks   Ticks       `json:"end_ticks"`
}

// Contains reports whether a position falls inside the segment.
func (s Segment) Contains(t Ticks) bool {
	return t >= s.StartTicks && t < s.EndTicks
}

// ActiveSegment returns the segment containing the position, if any.
func ActiveSegment(segments []Segment, pos Position) (Segment, bool) {
	if !pos.Known {
		return Segment{}, false
	}
	for _, s := range segments {
		if s.Contains(pos.Ticks) {
			return s, true
		}
	}
	return Segment{}, false
}
