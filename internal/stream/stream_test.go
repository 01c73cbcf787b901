package stream

import (
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessro/finch/internal/core"
	finchErrors "github.com/tessro/finch/internal/errors"
)

func intPtr(v int) *int { return &v }

func baseContext() Context {
	return Context{
		ServerURL:     "http://media.local:8096/",
		UserID:        "user-1",
		DeviceID:      "dev-1",
		AccessToken:   "tok",
		PlaySessionID: "ps-1",
		MaxBitrate:    8_000_000,
	}
}

func TestResolveTranscodeWhenNotDirectPlayable(t *testing.T) {
	item := &core.MediaItem{ID: "movie-1", Type: core.ItemMovie}
	source := &core.MediaSource{
		ID:                 "src-1",
		Container:          "mkv",
		SupportsDirectPlay: false,
		TranscodingURL:     "/videos/movie-1/master.m3u8?MediaSourceId=src-1",
	}

	got, err := Resolve(item, source, baseContext())
	require.NoError(t, err)
	assert.Equal(t, "http://media.local:8096/videos/movie-1/master.m3u8?MediaSourceId=src-1", got.URL)
	assert.Equal(t, core.PlayMethodTranscode, got.Method)
	assert.NotContains(t, got.URL, "static=true")
}

func TestResolveDirectVideo(t *testing.T) {
	item := &core.MediaItem{ID: "movie-1", Type: core.ItemMovie}
	source := &core.MediaSource{ID: "src-1", Container: "mkv", SupportsDirectPlay: true, TranscodingURL: "/ignored"}

	sc := baseContext()
	sc.AudioIndex = intPtr(1)
	sc.SubtitleIndex = intPtr(3)

	got, err := Resolve(item, source, sc)
	require.NoError(t, err)
	assert.Equal(t, core.PlayMethodDirectPlay, got.Method)

	u, err := url.Parse(got.URL)
	require.NoError(t, err)
	assert.Equal(t, "/Videos/movie-1/stream.mkv", u.Path)

	q := u.Query()
	assert.Equal(t, "true", q.Get("static"))
	assert.Equal(t, "src-1", q.Get("mediaSourceId"))
	assert.Equal(t, "ps-1", q.Get("playSessionId"))
	assert.Equal(t, "dev-1", q.Get("deviceId"))
	assert.Equal(t, "tok", q.Get("api_key"))
	assert.Equal(t, "1", q.Get("audioStreamIndex"))
	assert.Equal(t, "3", q.Get("subtitleStreamIndex"))
	assert.Equal(t, "Encode", q.Get("subtitleMethod"))
	assert.Equal(t, `MediaBrowser Token="tok"`, got.Headers.Get("Authorization"))
}

func TestResolveDirectVideoWithoutSubtitle(t *testing.T) {
	item := &core.MediaItem{ID: "ep-1", Type: core.ItemEpisode}
	source := &core.MediaSource{ID: "src-1", Container: "mp4,m4v", SupportsDirectPlay: true}

	got, err := Resolve(item, source, baseContext())
	require.NoError(t, err)
	assert.Contains(t, got.URL, "/Videos/ep-1/stream.mp4?")
	assert.NotContains(t, got.URL, "subtitleMethod")
}

func TestResolveUniversalAudio(t *testing.T) {
	item := &core.MediaItem{ID: "song-1", Type: core.ItemAudio}
	source := &core.MediaSource{ID: "src-a", Container: "flac", SupportsDirectPlay: true}

	got, err := Resolve(item, source, baseContext())
	require.NoError(t, err)

	u, err := url.Parse(got.URL)
	require.NoError(t, err)
	assert.Equal(t, "/Audio/song-1/universal", u.Path)
	q := u.Query()
	assert.Equal(t, "mp3,aac,m4a|aac,m4b|aac,flac,alac,m4a|alac,wav,ogg", q.Get("container"))
	assert.Equal(t, "ts", q.Get("transcodingContainer"))
	assert.Equal(t, "hls", q.Get("transcodingProtocol"))
	assert.Equal(t, "aac", q.Get("audioCodec"))
	assert.Equal(t, "user-1", q.Get("userId"))
	assert.Equal(t, "8000000", q.Get("maxStreamingBitrate"))
}

func TestResolveForceSkipsDirectPlayCheck(t *testing.T) {
	item := &core.MediaItem{ID: "movie-1", Type: core.ItemMovie}
	source := &core.MediaSource{ID: "src-1", Container: "avi"}

	_, err := Resolve(item, source, baseContext())
	require.ErrorIs(t, err, finchErrors.ErrNoPlayableURL)

	sc := baseContext()
	sc.Force = true
	got, err := Resolve(item, source, sc)
	require.NoError(t, err)
	assert.True(t, strings.Contains(got.URL, "/Videos/movie-1/stream.avi"))
}

func TestResolveRejectsMissingInputs(t *testing.T) {
	_, err := Resolve(nil, &core.MediaSource{}, baseContext())
	assert.True(t, errors.Is(err, finchErrors.ErrNoPlayableURL))

	_, err = Resolve(&core.MediaItem{ID: "x"}, &core.MediaSource{SupportsDirectPlay: true}, Context{})
	assert.True(t, errors.Is(err, finchErrors.ErrNoPlayableURL))
}
