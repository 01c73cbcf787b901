package cli

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/tessro/finch/internal/config"
	"github.com/tessro/finch/internal/core"
	finchErrors "github.com/tessro/finch/internal/errors"
	"github.com/tessro/finch/internal/jellyfin/client"
)

func TestParseStart(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		known   bool
		wantErr bool
	}{
		{in: "", known: false},
		{in: "90", want: 90 * time.Second, known: true},
		{in: "1:30", want: 90 * time.Second, known: true},
		{in: "1:02:03", want: time.Hour + 2*time.Minute + 3*time.Second, known: true},
		{in: "0", want: 0, known: true},
		{in: "1h2m", want: time.Hour + 2*time.Minute, known: true},
		{in: "45s", want: 45 * time.Second, known: true},
		{in: " 2:00 ", want: 2 * time.Minute, known: true},
		{in: "1:60", wantErr: true},
		{in: "1:2:3:4", wantErr: true},
		{in: "abc", wantErr: true},
		{in: "-5", wantErr: true},
		{in: "-5s", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseStart(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parseStart(%q) = %v, want error", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseStart(%q) error: %v", tt.in, err)
			}
			if got.Known != tt.known {
				t.Errorf("Known = %v, want %v", got.Known, tt.known)
			}
			if got.Duration() != tt.want {
				t.Errorf("Duration = %v, want %v", got.Duration(), tt.want)
			}
		})
	}
}

func TestParseControl(t *testing.T) {
	tests := []struct {
		command   string
		args      []string
		playstate client.PlaystateCommand
		seek      time.Duration
		general   string
		volume    string
		message   string
		wantErr   bool
	}{
		{command: "toggle", playstate: client.PlaystatePlayPause},
		{command: "PAUSE", playstate: client.PlaystatePause},
		{command: "resume", playstate: client.PlaystateUnpause},
		{command: "stop", playstate: client.PlaystateStop},
		{command: "skip", playstate: client.PlaystateNextTrack},
		{command: "back", playstate: client.PlaystatePreviousTrack},
		{command: "seek", args: []string{"1:30"}, playstate: client.PlaystateSeek, seek: 90 * time.Second},
		{command: "seek", wantErr: true},
		{command: "volume", args: []string{"40"}, general: "SetVolume", volume: "40"},
		{command: "vol", args: []string{"101"}, wantErr: true},
		{command: "volume", args: []string{"loud"}, wantErr: true},
		{command: "mute", general: "Mute"},
		{command: "unmute", general: "Unmute"},
		{command: "message", args: []string{"dinner", "time"}, message: "dinner time"},
		{command: "msg", wantErr: true},
		{command: "rewind", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.command+" "+strings.Join(tt.args, " "), func(t *testing.T) {
			req, err := parseControl(tt.command, tt.args)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", req)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			switch {
			case tt.general != "":
				if req.general == nil || req.general.Name != tt.general {
					t.Fatalf("general = %+v, want %s", req.general, tt.general)
				}
				if tt.volume != "" && req.general.Arguments["Volume"] != tt.volume {
					t.Errorf("Volume = %q, want %q", req.general.Arguments["Volume"], tt.volume)
				}
			case tt.message != "":
				if req.message != tt.message {
					t.Errorf("message = %q, want %q", req.message, tt.message)
				}
			default:
				if req.general != nil || req.message != "" {
					t.Fatalf("expected playstate request, got %+v", req)
				}
				if req.playstate != tt.playstate {
					t.Errorf("playstate = %v, want %v", req.playstate, tt.playstate)
				}
				if req.seek.Duration() != tt.seek {
					t.Errorf("seek = %v, want %v", req.seek.Duration(), tt.seek)
				}
			}
		})
	}
}

func TestUnknownControlHasSuggestion(t *testing.T) {
	_, err := parseControl("rewind", nil)
	if finchErrors.GetSuggestion(err) == "" {
		t.Fatalf("expected a suggestion for %v", err)
	}
}

func TestSetConfigValue(t *testing.T) {
	c := config.Default()

	if err := setConfigValue(c, "server.url", "http://jf.local:8096"); err != nil {
		t.Fatal(err)
	}
	if c.Server.URL != "http://jf.local:8096" {
		t.Errorf("Server.URL = %q", c.Server.URL)
	}

	if err := setConfigValue(c, "playback.volume", "55"); err != nil {
		t.Fatal(err)
	}
	if c.Playback.Volume != 55 {
		t.Errorf("Playback.Volume = %d", c.Playback.Volume)
	}

	if err := setConfigValue(c, "remote.enabled", "false"); err != nil {
		t.Fatal(err)
	}
	if c.Remote.Enabled {
		t.Error("Remote.Enabled should be false")
	}

	if err := setConfigValue(c, "playback.player_args", "--fs  --no-osc"); err != nil {
		t.Fatal(err)
	}
	if got := strings.Join(c.Playback.PlayerArgs, ","); got != "--fs,--no-osc" {
		t.Errorf("PlayerArgs = %q", got)
	}

	if err := setConfigValue(c, "playback.volume", "loud"); err == nil {
		t.Error("expected error for non-integer")
	}
	if err := setConfigValue(c, "remote.enabled", "maybe"); err == nil {
		t.Error("expected error for non-bool")
	}
	if err := setConfigValue(c, "spotify.client_id", "x"); err == nil {
		t.Error("expected error for unknown key")
	}
}

func TestConfigFieldsCoverSchema(t *testing.T) {
	c := config.Default()
	for key, field := range configFields {
		switch field(c).(type) {
		case *string, *int, *bool, *[]string:
		default:
			t.Errorf("%s: unsupported field type %T", key, field(c))
		}
	}
}

func TestPickStream(t *testing.T) {
	src := &core.MediaSource{
		MediaStreams: []core.MediaStream{
			{Index: 0, Type: "Video"},
			{Index: 1, Type: core.StreamAudio, Language: "eng"},
			{Index: 2, Type: core.StreamAudio, Language: "jpn"},
			{Index: 3, Type: core.StreamSubtitle, Language: "eng"},
		},
	}

	tests := []struct {
		name     string
		typ      core.StreamType
		value    string
		required bool
		want     int // -2 for nil
		wantErr  bool
	}{
		{name: "empty", typ: core.StreamAudio, value: "", want: -2},
		{name: "language", typ: core.StreamAudio, value: "jpn", want: 2},
		{name: "index", typ: core.StreamAudio, value: "1", want: 1},
		{name: "index of wrong type", typ: core.StreamAudio, value: "3", wantErr: true},
		{name: "subtitles off", typ: core.StreamSubtitle, value: "off", want: -1},
		{name: "missing language preferred", typ: core.StreamAudio, value: "fre", want: -2},
		{name: "missing language required", typ: core.StreamAudio, value: "fre", required: true, wantErr: true},
		{name: "subtitle language", typ: core.StreamSubtitle, value: "eng", want: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := pickStream(src, tt.typ, tt.value, tt.required)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.want == -2 {
				if got != nil {
					t.Errorf("got %d, want nil", *got)
				}
				return
			}
			if got == nil || *got != tt.want {
				t.Errorf("got %v, want %d", got, tt.want)
			}
		})
	}
}

func TestPickSource(t *testing.T) {
	item := &core.MediaItem{MediaSources: []core.MediaSource{{ID: "a"}, {ID: "b"}}}

	if src := pickSource(item, ""); src == nil || src.ID != "a" {
		t.Errorf("default source = %v, want a", src)
	}
	if src := pickSource(item, "b"); src == nil || src.ID != "b" {
		t.Errorf("explicit source = %v, want b", src)
	}
	if src := pickSource(item, "zzz"); src != nil {
		t.Errorf("unknown source = %v, want nil", src)
	}
}

func TestIsItemID(t *testing.T) {
	tests := map[string]bool{
		"0123456789abcdef0123456789ABCDEF":     true,
		"01234567-89ab-cdef-0123-456789abcdef": true,
		"The Matrix":                           false,
		"0123456789abcdef":                     false,
		"0123456789abcdef0123456789abcdeg":     false,
	}
	for in, want := range tests {
		if got := isItemID(in); got != want {
			t.Errorf("isItemID(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestSearchTypes(t *testing.T) {
	types, err := searchTypes("movies")
	if err != nil || len(types) != 1 || types[0] != core.ItemMovie {
		t.Errorf("movies = %v, %v", types, err)
	}
	types, err = searchTypes("")
	if err != nil || len(types) == 0 {
		t.Errorf("default = %v, %v", types, err)
	}
	if _, err := searchTypes("podcasts"); err == nil {
		t.Error("expected error for unknown type")
	}
}

type fakeSearcher struct {
	items    map[string]*core.MediaItem
	results  []core.MediaItem
	searched string
	limit    int
}

func (f *fakeSearcher) GetItem(_ context.Context, id string) (*core.MediaItem, error) {
	item, ok := f.items[id]
	if !ok {
		return nil, &client.APIError{Status: 404, Path: "/Items/" + id}
	}
	return item, nil
}

func (f *fakeSearcher) Search(_ context.Context, term string, _ []core.ItemType, limit int) ([]core.MediaItem, error) {
	f.searched = term
	f.limit = limit
	return f.results, nil
}

func TestFindItem(t *testing.T) {
	const id = "0123456789abcdef0123456789abcdef"
	full := &core.MediaItem{ID: id, Name: "The Matrix", MediaSources: []core.MediaSource{{ID: "src"}}}

	t.Run("by id", func(t *testing.T) {
		f := &fakeSearcher{items: map[string]*core.MediaItem{id: full}}
		item, err := findItem(context.Background(), f, id, nil)
		if err != nil {
			t.Fatal(err)
		}
		if item != full {
			t.Errorf("got %+v", item)
		}
		if f.searched != "" {
			t.Errorf("id lookup should not search, searched %q", f.searched)
		}
	})

	t.Run("missing id", func(t *testing.T) {
		f := &fakeSearcher{}
		_, err := findItem(context.Background(), f, id, nil)
		if !errors.Is(err, finchErrors.ErrItemNotFound) {
			t.Errorf("err = %v, want ErrItemNotFound", err)
		}
	})

	t.Run("by title fetches full item", func(t *testing.T) {
		f := &fakeSearcher{
			items:   map[string]*core.MediaItem{id: full},
			results: []core.MediaItem{{ID: id, Name: "The Matrix"}},
		}
		item, err := findItem(context.Background(), f, "matrix", nil)
		if err != nil {
			t.Fatal(err)
		}
		if f.searched != "matrix" || f.limit != 1 {
			t.Errorf("searched %q limit %d", f.searched, f.limit)
		}
		if len(item.MediaSources) != 1 {
			t.Errorf("expected media sources from GetItem, got %+v", item)
		}
	})

	t.Run("no results", func(t *testing.T) {
		f := &fakeSearcher{}
		_, err := findItem(context.Background(), f, "nothing", nil)
		if !errors.Is(err, finchErrors.ErrItemNotFound) {
			t.Errorf("err = %v, want ErrItemNotFound", err)
		}
	})
}

func TestTruncateString(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is too long", 10, "this is..."},
		{"日本語のタイトル", 5, "日本..."},
		{"abcdef", 2, "ab"},
	}
	for _, tt := range tests {
		if got := TruncateString(tt.in, tt.max); got != tt.want {
			t.Errorf("TruncateString(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0:00"},
		{59 * time.Second, "0:59"},
		{90 * time.Second, "1:30"},
		{time.Hour + 2*time.Minute + 3*time.Second, "1:02:03"},
		{-5 * time.Second, "0:00"},
		{1500 * time.Millisecond, "0:02"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.in); got != tt.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatProgress(t *testing.T) {
	tests := []struct {
		pct  float64
		want string
	}{
		{0, "──────────"},
		{50, "━━━━━─────"},
		{100, "━━━━━━━━━━"},
		{150, "━━━━━━━━━━"},
		{-10, "──────────"},
	}
	for _, tt := range tests {
		if got := FormatProgress(tt.pct, 10); got != tt.want {
			t.Errorf("FormatProgress(%v) = %q, want %q", tt.pct, got, tt.want)
		}
	}
}

func TestWrap(t *testing.T) {
	got := wrap("the quick brown fox jumps over the lazy dog", 15, "  ")
	want := "  the quick brown\n  fox jumps over\n  the lazy dog"
	if got != want {
		t.Errorf("wrap = %q, want %q", got, want)
	}
	if wrap("", 10, "  ") != "" {
		t.Error("empty text should wrap to empty string")
	}
}

func TestDownloadPath(t *testing.T) {
	item := &core.MediaItem{
		Name:         "The Matrix",
		Type:         core.ItemMovie,
		MediaSources: []core.MediaSource{{Container: "mkv"}},
	}
	got := downloadPath("/media", item)
	if !strings.HasPrefix(got, "/media/") || !strings.HasSuffix(got, ".mkv") {
		t.Errorf("downloadPath = %q", got)
	}
}

func TestCheckSettingKey(t *testing.T) {
	if err := checkSettingKey("volume"); err != nil {
		t.Errorf("volume: %v", err)
	}
	if err := checkSettingKey("colour"); err == nil {
		t.Error("expected error for unknown key")
	}
}
