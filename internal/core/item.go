package core

import (
	"fmt"
	"time"
)

// ItemType is the server's item kind.
type ItemType string

const (
	ItemMovie            ItemType = "Movie"
	ItemSeries           ItemType = "Series"
	ItemSeason           ItemType = "Season"
	ItemEpisode          ItemType = "Episode"
	ItemAudio            ItemType = "Audio"
	ItemAudioBook        ItemType = "AudioBook"
	ItemMusicAlbum       ItemType = "MusicAlbum"
	ItemMusicArtist      ItemType = "MusicArtist"
	ItemMusicVideo       ItemType = "MusicVideo"
	ItemVideo            ItemType = "Video"
	ItemTvChannel        ItemType = "TvChannel"
	ItemFolder           ItemType = "Folder"
	ItemCollectionFolder ItemType = "CollectionFolder"
	ItemBoxSet           ItemType = "BoxSet"
	ItemPerson           ItemType = "Person"
	ItemPlaylist         ItemType = "Playlist"
)

// IsAudio reports whether items of this type stream through the audio endpoint.
func (t ItemType) IsAudio() bool {
	return t == ItemAudio || t == ItemAudioBook
}

// IsVideo reports whether items of this type are video streams.
func (t ItemType) IsVideo() bool {
	switch t {
	case ItemMovie, ItemEpisode, ItemMusicVideo, ItemVideo, ItemTvChannel:
		return true
	}
	return false
}

// IsPlayable reports whether an item of this type can start a session directly.
func (t ItemType) IsPlayable() bool {
	return t.IsAudio() || t.IsVideo()
}

// UserData is the per-user playback state the server keeps for an item.
type UserData struct {
	PlaybackPositionTicks Ticks     `json:"playback_position_ticks"`
	PlayCount             int       `json:"play_count"`
	Played                bool      `json:"played"`
	IsFavorite            bool      `json:"is_favorite"`
	LastPlayedDate        time.Time `json:"last_played_date"`
}

// Person is a cast or crew member attached to an item.
type Person struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
	Type string `json:"type"`
}

// MediaItem is an immutable snapshot of server metadata. The client caches
// it but never owns it.
type MediaItem struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	Type           ItemType      `json:"type"`
	Overview       string        `json:"overview,omitempty"`
	ProductionYear int           `json:"production_year,omitempty"`
	RunTimeTicks   Ticks         `json:"run_time_ticks"`
	SeriesName     string        `json:"series_name,omitempty"`
	SeasonIndex    int           `json:"season_index,omitempty"`
	EpisodeIndex   int           `json:"episode_index,omitempty"`
	Album          string        `json:"album,omitempty"`
	Artists        []string      `json:"artists,omitempty"`
	ParentID       string        `json:"parent_id,omitempty"`
	IsFolder       bool          `json:"is_folder"`
	ChildCount     int           `json:"child_count,omitempty"`
	UserData       UserData      `json:"user_data"`
	MediaSources   []MediaSource `json:"media_sources,omitempty"`
	People         []Person      `json:"people,omitempty"`
	Trickplay      *Trickplay    `json:"trickplay,omitempty"`
}

// Runtime returns the item's duration.
func (i *MediaItem) Runtime() time.Duration {
	if i == nil {
		return 0
	}
	return i.RunTimeTicks.Duration()
}

// DisplayName returns a human-friendly title, including series context for episodes.
func (i *MediaItem) DisplayName() string {
	if i == nil {
		return ""
	}
	if i.Type == ItemEpisode && i.SeriesName != "" {
		return i.SeriesName + " S" + pad2(i.SeasonIndex) + "E" + pad2(i.EpisodeIndex) + " - " + i.Name
	}
	if i.Type.IsAudio() && len(i.Artists) > 0 {
		return i.Artists[0] + " - " + i.Name
	}
	return i.Name
}

// ResumePosition returns the saved playback position, if the server has one.
func (i *MediaItem) ResumePosition() Position {
	if i == nil || i.UserData.PlaybackPositionTicks <= 0 {
		return Position{}
	}
	return At(i.UserData.PlaybackPositionTicks)
}

// Source returns the media source with the given id, or nil.
func (i *MediaItem) Source(id string) *MediaSource {
	if i == nil {
		return nil
	}
	for idx := range i.MediaSources {
		if i.MediaSources[idx].ID == id {
			return &i.MediaSources[idx]
		}
	}
	return nil
}

func pad2(n int) string {
	return fmt.Sprintf("%02d", n)
}
