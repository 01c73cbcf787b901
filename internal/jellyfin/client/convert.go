package client

import (
	"github.com/tessro/finch/internal/core"
)

// convertItem converts a server item to a core.MediaItem.
func convertItem(b *BaseItem) *core.MediaItem {
	if b == nil {
		return nil
	}

	item := &core.MediaItem{
		ID:             b.ID,
		Name:           b.Name,
		Type:           core.ItemType(b.Type),
		Overview:       b.Overview,
		ProductionYear: b.ProductionYear,
		RunTimeTicks:   core.Ticks(b.RunTimeTicks),
		SeriesName:     b.SeriesName,
		SeasonIndex:    b.ParentIndexNumber,
		EpisodeIndex:   b.IndexNumber,
		Album:          b.Album,
		Artists:        b.Artists,
		ParentID:       b.ParentID,
		IsFolder:       b.IsFolder,
		ChildCount:     b.ChildCount,
	}

	if b.UserData != nil {
		item.UserData = core.UserData{
			PlaybackPositionTicks: core.Ticks(b.UserData.PlaybackPositionTicks),
			PlayCount:             b.UserData.PlayCount,
			Played:                b.UserData.Played,
			IsFavorite:            b.UserData.IsFavorite,
			LastPlayedDate:        b.UserData.LastPlayedDate,
		}
	}

	for i := range b.MediaSources {
		item.MediaSources = append(item.MediaSources, convertSource(&b.MediaSources[i]))
	}

	for _, p := range b.People {
		item.People = append(item.People, core.Person{ID: p.ID, Name: p.Name, Role: p.Role, Type: p.Type})
	}

	item.Trickplay = pickTrickplay(b)

	return item
}

func convertItems(items []BaseItem) []core.MediaItem {
	out := make([]core.MediaItem, 0, len(items))
	for i := range items {
		out = append(out, *convertItem(&items[i]))
	}
	return out
}

// convertSource converts a negotiated media source.
func convertSource(s *MediaSourceInfo) core.MediaSource {
	src := core.MediaSource{
		ID:                         s.ID,
		Name:                       s.Name,
		Container:                  s.Container,
		Path:                       s.Path,
		Bitrate:                    s.Bitrate,
		Size:                       s.Size,
		RunTimeTicks:               core.Ticks(s.RunTimeTicks),
		SupportsDirectPlay:         s.SupportsDirectPlay,
		SupportsDirectStream:       s.SupportsDirectStream,
		SupportsTranscoding:        s.SupportsTranscoding,
		TranscodingURL:             s.TranscodingURL,
		DefaultAudioStreamIndex:    s.DefaultAudioStreamIndex,
		DefaultSubtitleStreamIndex: s.DefaultSubtitleStreamIndex,
	}
	for _, st := range s.MediaStreams {
		src.MediaStreams = append(src.MediaStreams, core.MediaStream{
			Index:        st.Index,
			Type:         core.StreamType(st.Type),
			Codec:        st.Codec,
			Language:     st.Language,
			DisplayTitle: st.DisplayTitle,
			IsDefault:    st.IsDefault,
			IsExternal:   st.IsExternal,
			DeliveryURL:  st.DeliveryURL,
		})
	}
	return src
}

// pickTrickplay selects the smallest trickplay resolution of the item's
// first source that has one.
func pickTrickplay(b *BaseItem) *core.Trickplay {
	if len(b.Trickplay) == 0 {
		return nil
	}
	sources := []string{b.ID}
	for _, s := range b.MediaSources {
		sources = append(sources, s.ID)
	}
	for _, id := range sources {
		var best *TrickplayInfo
		for _, info := range b.Trickplay[id] {
			if best == nil || info.Width < best.Width {
				info := info
				best = &info
			}
		}
		if best != nil {
			return &core.Trickplay{
				Width:          best.Width,
				Height:         best.Height,
				TileWidth:      best.TileWidth,
				TileHeight:     best.TileHeight,
				ThumbnailCount: best.ThumbnailCount,
				Interval:       best.Interval,
			}
		}
	}
	return nil
}

func convertSegment(s MediaSegment) core.Segment {
	return core.Segment{
		ID:         s.ID,
		Type:       core.SegmentType(s.Type),
		StartTicks: core.Ticks(s.StartTicks),
		EndTicks:   core.Ticks(s.EndTicks),
	}
}

// convertSession converts a server session to a core.RemoteSession.
func convertSession(s *SessionInfo) core.RemoteSession {
	rs := core.RemoteSession{
		ID:                 s.ID,
		UserID:             s.UserID,
		UserName:           s.UserName,
		Client:             s.Client,
		DeviceID:           s.DeviceID,
		DeviceName:         s.DeviceName,
		ApplicationVersion: s.ApplicationVersion,
		LastActivity:       s.LastActivityDate,
		SupportsRemote:     s.SupportsRemoteControl,
		NowPlaying:         convertItem(s.NowPlayingItem),
		IsPaused:           s.PlayState.IsPaused,
		IsMuted:            s.PlayState.IsMuted,
		VolumeLevel:        s.PlayState.VolumeLevel,
		PlayMethod:         core.PlayMethod(s.PlayState.PlayMethod),
	}
	if rs.NowPlaying != nil {
		rs.Position = core.At(core.Ticks(s.PlayState.PositionTicks))
	}
	return rs
}
