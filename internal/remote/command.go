// Package remote receives control commands pushed by the media server.
package remote

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/tessro/finch/internal/core"
)

// Kind identifies a remote command.
type Kind int

const (
	KindUnknown Kind = iota
	KindPlayPause
	KindPause
	KindUnpause
	KindStop
	KindMute
	KindUnmute
	KindSetVolume
	KindSeek
	KindNextTrack
	KindPreviousTrack
	KindDisplayMessage
)

var kindNames = map[Kind]string{
	KindUnknown:        "Unknown",
	KindPlayPause:      "PlayPause",
	KindPause:          "Pause",
	KindUnpause:        "Unpause",
	KindStop:           "Stop",
	KindMute:           "Mute",
	KindUnmute:         "Unmute",
	KindSetVolume:      "SetVolume",
	KindSeek:           "Seek",
	KindNextTrack:      "NextTrack",
	KindPreviousTrack:  "PreviousTrack",
	KindDisplayMessage: "DisplayMessage",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// SupportedCommands lists the general command names advertised to the server.
var SupportedCommands = []string{"Mute", "Unmute", "SetVolume", "DisplayMessage"}

// Command is a parsed remote command. Only the fields for its Kind are set.
type Command struct {
	Kind Kind

	Volume   int
	Position core.Ticks

	Header  string
	Text    string
	Timeout time.Duration

	// Raw is the server's command name, kept for unknown commands.
	Raw string
}

// Message types on the server socket.
const (
	MessageGeneralCommand = "GeneralCommand"
	MessagePlaystate      = "Playstate"
	MessageKeepAlive      = "KeepAlive"
	MessageForceKeepAlive = "ForceKeepAlive"
)

// Message is the socket envelope.
type Message struct {
	MessageType string          `json:"MessageType"`
	MessageID   string          `json:"MessageId,omitempty"`
	Data        json.RawMessage `json:"Data,omitempty"`
}

type generalCommand struct {
	Name      string            `json:"Name"`
	Arguments map[string]string `json:"Arguments"`
}

type playstateRequest struct {
	Command           string `json:"Command"`
	SeekPositionTicks *int64 `json:"SeekPositionTicks"`
}

// ParseMessage turns a socket message into a command. ok is false for
// messages that carry no command, such as keep-alives.
func ParseMessage(msg Message) (cmd Command, ok bool) {
	switch msg.MessageType {
	case MessageGeneralCommand:
		var gc generalCommand
		if err := json.Unmarshal(msg.Data, &gc); err != nil {
			return Command{Kind: KindUnknown, Raw: msg.MessageType}, true
		}
		return parseGeneral(gc), true
	case MessagePlaystate:
		var ps playstateRequest
		if err := json.Unmarshal(msg.Data, &ps); err != nil {
			return Command{Kind: KindUnknown, Raw: msg.MessageType}, true
		}
		return parsePlaystate(ps), true
	default:
		return Command{}, false
	}
}

func parseGeneral(gc generalCommand) Command {
	cmd := Command{Raw: gc.Name}
	switch gc.Name {
	case "Mute":
		cmd.Kind = KindMute
	case "Unmute":
		cmd.Kind = KindUnmute
	case "SetVolume":
		v, err := strconv.Atoi(gc.Arguments["Volume"])
		if err != nil {
			return Command{Kind: KindUnknown, Raw: gc.Name}
		}
		cmd.Kind = KindSetVolume
		cmd.Volume = max(0, min(100, v))
	case "DisplayMessage":
		cmd.Kind = KindDisplayMessage
		cmd.Header = gc.Arguments["Header"]
		cmd.Text = gc.Arguments["Text"]
		if ms, err := strconv.Atoi(gc.Arguments["TimeoutMs"]); err == nil && ms > 0 {
			cmd.Timeout = time.Duration(ms) * time.Millisecond
		}
	default:
		cmd.Kind = KindUnknown
	}
	return cmd
}

func parsePlaystate(ps playstateRequest) Command {
	cmd := Command{Raw: ps.Command}
	switch ps.Command {
	case "PlayPause":
		cmd.Kind = KindPlayPause
	case "Pause":
		cmd.Kind = KindPause
	case "Unpause":
		cmd.Kind = KindUnpause
	case "Stop":
		cmd.Kind = KindStop
	case "NextTrack":
		cmd.Kind = KindNextTrack
	case "PreviousTrack":
		cmd.Kind = KindPreviousTrack
	case "Seek":
		if ps.SeekPositionTicks == nil {
			return Command{Kind: KindUnknown, Raw: ps.Command}
		}
		cmd.Kind = KindSeek
		cmd.Position = core.Ticks(*ps.SeekPositionTicks)
	default:
		cmd.Kind = KindUnknown
	}
	return cmd
}
