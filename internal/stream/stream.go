// Package stream turns a negotiated media source into a URL the playback
// surface can open.
package stream

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/tessro/finch/internal/core"
	"github.com/tessro/finch/internal/errors"
)

// audioContainers is the universal endpoint's accepted container list,
// in preference order.
var audioContainers = []string{"mp3", "aac", "m4a|aac", "m4b|aac", "flac", "alac", "m4a|alac", "wav", "ogg"}

// Context is the session state a stream URL is parameterized by.
type Context struct {
	ServerURL     string
	UserID        string
	DeviceID      string
	AccessToken   string
	PlaySessionID string
	AudioIndex    *int
	SubtitleIndex *int
	MaxBitrate    int
	// Force treats the source as directly playable regardless of what
	// the server reported.
	Force bool
}

// Resolved is a playable URL plus what the surface needs to open it.
type Resolved struct {
	URL     string
	Method  core.PlayMethod
	Headers http.Header
}

// Resolve builds the playable URL for an item's negotiated source.
func Resolve(item *core.MediaItem, source *core.MediaSource, sc Context) (*Resolved, error) {
	if item == nil || source == nil || sc.ServerURL == "" {
		return nil, errors.ErrNoPlayableURL
	}
	server := strings.TrimRight(sc.ServerURL, "/")

	headers := http.Header{}
	if sc.AccessToken != "" {
		headers.Set("Authorization", `MediaBrowser Token="`+sc.AccessToken+`"`)
	}

	directPlayable := source.SupportsDirectPlay || sc.Force
	if !directPlayable {
		if source.TranscodingURL == "" {
			return nil, errors.ErrNoPlayableURL
		}
		return &Resolved{
			URL:     joinServer(server, source.TranscodingURL),
			Method:  core.PlayMethodTranscode,
			Headers: headers,
		}, nil
	}

	if item.Type.IsAudio() {
		return &Resolved{
			URL:     universalAudioURL(server, item.ID, source, sc),
			Method:  core.PlayMethodDirectPlay,
			Headers: headers,
		}, nil
	}

	return &Resolved{
		URL:     staticVideoURL(server, item.ID, source, sc),
		Method:  core.PlayMethodDirectPlay,
		Headers: headers,
	}, nil
}

func staticVideoURL(server, itemID string, source *core.MediaSource, sc Context) string {
	container := source.Container
	if i := strings.IndexByte(container, ','); i >= 0 {
		container = container[:i]
	}
	path := "/Videos/" + url.PathEscape(itemID) + "/stream"
	if container != "" {
		path += "." + container
	}

	q := url.Values{}
	q.Set("static", "true")
	q.Set("mediaSourceId", source.ID)
	setIf(q, "playSessionId", sc.PlaySessionID)
	setIf(q, "deviceId", sc.DeviceID)
	setIf(q, "api_key", sc.AccessToken)
	if sc.AudioIndex != nil {
		q.Set("audioStreamIndex", strconv.Itoa(*sc.AudioIndex))
	}
	if sc.SubtitleIndex != nil && *sc.SubtitleIndex >= 0 {
		q.Set("subtitleStreamIndex", strconv.Itoa(*sc.SubtitleIndex))
		q.Set("subtitleMethod", "Encode")
	}
	return server + path + "?" + q.Encode()
}

func universalAudioURL(server, itemID string, source *core.MediaSource, sc Context) string {
	q := url.Values{}
	q.Set("container", strings.Join(audioContainers, ","))
	q.Set("mediaSourceId", source.ID)
	setIf(q, "userId", sc.UserID)
	setIf(q, "deviceId", sc.DeviceID)
	setIf(q, "playSessionId", sc.PlaySessionID)
	setIf(q, "api_key", sc.AccessToken)
	if sc.MaxBitrate > 0 {
		q.Set("maxStreamingBitrate", strconv.Itoa(sc.MaxBitrate))
	}
	q.Set("transcodingContainer", "ts")
	q.Set("transcodingProtocol", "hls")
	q.Set("audioCodec", "aac")
	return server + "/Audio/" + url.PathEscape(itemID) + "/universal?" + q.Encode()
}

func joinServer(server, ref string) string {
	if u, err := url.Parse(ref); err == nil && u.IsAbs() {
		return ref
	}
	if !strings.HasPrefix(ref, "/") {
		ref = "/" + ref
	}
	return server + ref
}

func setIf(q url.Values, key, value string) {
	if value != "" {
		q.Set(key, value)
	}
}
