package browser

import (
	"os/exec"
	"runtime"
	"testing"
)

func TestOpener(t *testing.T) {
	tests := []struct {
		goos    string
		want    string
		wantErr bool
	}{
		{"darwin", "open", false},
		{"linux", "xdg-open", false},
		{"windows", "rundll32", false},
		{"plan9", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.goos, func(t *testing.T) {
			name, _, err := opener(tt.goos)
			if (err != nil) != tt.wantErr {
				t.Fatalf("opener(%q) err = %v, wantErr %v", tt.goos, err, tt.wantErr)
			}
			if name != tt.want {
				t.Errorf("opener(%q) = %q, want %q", tt.goos, name, tt.want)
			}
		})
	}
}

func TestOpenRejectsNonHTTP(t *testing.T) {
	for _, u := range []string{"file:///etc/passwd", "javascript:alert(1)", "::"} {
		if err := Open(u); err == nil {
			t.Errorf("Open(%q) should fail", u)
		}
	}
}

func TestOpenPassesURL(t *testing.T) {
	if _, _, err := opener(runtime.GOOS); err != nil {
		t.Skipf("Unsupported platform: %s", runtime.GOOS)
	}

	var got []string
	orig := command
	command = func(name string, args ...string) *exec.Cmd {
		got = append([]string{name}, args...)
		return exec.Command("true")
	}
	defer func() { command = orig }()

	const target = "http://jellyfin.local:8096/web/#/details?id=abc"
	if err := Open(target); err != nil {
		if runtime.GOOS == "windows" {
			t.Skip("no true(1) on windows")
		}
		t.Fatalf("Open() error = %v", err)
	}
	if len(got) == 0 || got[len(got)-1] != target {
		t.Errorf("command args = %v, want last arg %q", got, target)
	}
}
