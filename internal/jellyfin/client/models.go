package client

import "time"

// User is the server's user record.
type User struct {
	ID              string `json:"Id"`
	Name            string `json:"Name"`
	ServerID        string `json:"ServerId"`
	HasPassword     bool   `json:"HasPassword"`
	LastLoginDate   string `json:"LastLoginDate"`
	PrimaryImageTag string `json:"PrimaryImageTag"`
	Policy          struct {
		IsAdministrator bool `json:"IsAdministrator"`
	} `json:"Policy"`
}

// UserItemData is per-user state attached to an item.
type UserItemData struct {
	PlaybackPositionTicks int64     `json:"PlaybackPositionTicks"`
	PlayCount             int       `json:"PlayCount"`
	IsFavorite            bool      `json:"IsFavorite"`
	Played                bool      `json:"Played"`
	LastPlayedDate        time.Time `json:"LastPlayedDate"`
}

// PersonInfo is a cast or crew entry on an item.
type PersonInfo struct {
	ID   string `json:"Id"`
	Name string `json:"Name"`
	Role string `json:"Role"`
	Type string `json:"Type"`
}

// MediaStreamInfo is one track of a media source.
type MediaStreamInfo struct {
	Index        int    `json:"Index"`
	Type         string `json:"Type"`
	Codec        string `json:"Codec"`
	Language     string `json:"Language"`
	DisplayTitle string `json:"DisplayTitle"`
	IsDefault    bool   `json:"IsDefault"`
	IsExternal   bool   `json:"IsExternal"`
	DeliveryURL  string `json:"DeliveryUrl"`
}

// MediaSourceInfo is one playable version of an item.
type MediaSourceInfo struct {
	ID                         string            `json:"Id"`
	Name                       string            `json:"Name"`
	Container                  string            `json:"Container"`
	Path                       string            `json:"Path"`
	Bitrate                    int               `json:"Bitrate"`
	Size                       int64             `json:"Size"`
	RunTimeTicks               int64             `json:"RunTimeTicks"`
	SupportsDirectPlay         bool              `json:"SupportsDirectPlay"`
	SupportsDirectStream       bool              `json:"SupportsDirectStream"`
	SupportsTranscoding        bool              `json:"SupportsTranscoding"`
	TranscodingURL             string            `json:"TranscodingUrl"`
	MediaStreams               []MediaStreamInfo `json:"MediaStreams"`
	DefaultAudioStreamIndex    *int              `json:"DefaultAudioStreamIndex"`
	DefaultSubtitleStreamIndex *int              `json:"DefaultSubtitleStreamIndex"`
}

// TrickplayInfo describes one resolution of trickplay sprites.
type TrickplayInfo struct {
	Width          int `json:"Width"`
	Height         int `json:"Height"`
	TileWidth      int `json:"TileWidth"`
	TileHeight     int `json:"TileHeight"`
	ThumbnailCount int `json:"ThumbnailCount"`
	Interval       int `json:"Interval"`
	Bandwidth      int `json:"Bandwidth"`
}

// BaseItem is the server's generic item record.
type BaseItem struct {
	ID                string            `json:"Id"`
	Name              string            `json:"Name"`
	Type              string            `json:"Type"`
	Overview          string            `json:"Overview"`
	ProductionYear    int               `json:"ProductionYear"`
	RunTimeTicks      int64             `json:"RunTimeTicks"`
	SeriesName        string            `json:"SeriesName"`
	SeriesID          string            `json:"SeriesId"`
	ParentIndexNumber int               `json:"ParentIndexNumber"`
	IndexNumber       int               `json:"IndexNumber"`
	Album             string            `json:"Album"`
	Artists           []string          `json:"Artists"`
	ParentID          string            `json:"ParentId"`
	IsFolder          bool              `json:"IsFolder"`
	ChildCount        int               `json:"ChildCount"`
	CollectionType    string            `json:"CollectionType"`
	UserData          *UserItemData     `json:"UserData"`
	MediaSources      []MediaSourceInfo `json:"MediaSources"`
	People            []PersonInfo      `json:"People"`
	// Trickplay is keyed by media source id, then by width.
	Trickplay map[string]map[string]TrickplayInfo `json:"Trickplay"`
}

// ItemsResponse is a paged item query result.
type ItemsResponse struct {
	Items            []BaseItem `json:"Items"`
	TotalRecordCount int        `json:"TotalRecordCount"`
	StartIndex       int        `json:"StartIndex"`
}

// MediaSegment is an intro/outro marker.
type MediaSegment struct {
	ID         string `json:"Id"`
	ItemID     string `json:"ItemId"`
	Type       string `json:"Type"`
	StartTicks int64  `json:"StartTicks"`
	EndTicks   int64  `json:"EndTicks"`
}

// MediaSegmentsResponse wraps the segments list.
type MediaSegmentsResponse struct {
	Items []MediaSegment `json:"Items"`
}

// PlayerState is the play state reported for a session.
type PlayerState struct {
	PositionTicks int64  `json:"PositionTicks"`
	CanSeek       bool   `json:"CanSeek"`
	IsPaused      bool   `json:"IsPaused"`
	IsMuted       bool   `json:"IsMuted"`
	VolumeLevel   int    `json:"VolumeLevel"`
	PlayMethod    string `json:"PlayMethod"`
	MediaSourceID string `json:"MediaSourceId"`
}

// SessionInfo is one entry of the server's session list.
type SessionInfo struct {
	ID                    string      `json:"Id"`
	UserID                string      `json:"UserId"`
	UserName              string      `json:"UserName"`
	Client                string      `json:"Client"`
	DeviceID              string      `json:"DeviceId"`
	DeviceName            string      `json:"DeviceName"`
	ApplicationVersion    string      `json:"ApplicationVersion"`
	LastActivityDate      time.Time   `json:"LastActivityDate"`
	SupportsRemoteControl bool        `json:"SupportsRemoteControl"`
	NowPlayingItem        *BaseItem   `json:"NowPlayingItem"`
	PlayState             PlayerState `json:"PlayState"`
}
