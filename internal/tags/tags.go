/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package tags reads embedded audio metadata (ID3, MP4, FLAC, Ogg) from file
// contents that are already in memory.
package tags

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/dhowden/tag"
)

// Info is the subset of embedded tags recorded in the index.
type Info struct {
	Title  string
	Artist string
	Album  string
	Genre  string
	Track  int
	Disc   int
	Year   int
	Format string
}

// Empty reports whether no useful tag was found.
func (i Info) Empty() bool {
	return i.Title == "" && i.Artist == "" && i.Album == "" && i.Track == 0 && i.Year == 0
}

// Read parses tags from data. Files without a recognised tag block return an
// error wrapping tag.ErrNoTagsFound.
func Read(data []byte) (Info, error) {
	m, err := tag.ReadFrom(bytes.NewReader(data))
	if err != nil {
		return Info{}, fmt.Errorf("read tags: %w", err)
	}

	track, _ := m.Track()
	disc, _ := m.Disc()

	artist := m.Artist()
	if albumArtist := m.AlbumArtist(); albumArtist != "" {
		artist = albumArtist
	}

	return Info{
		Title:  strings.TrimSpace(m.Title()),
		Artist: strings.TrimSpace(artist),
		Album:  strings.TrimSpace(m.Album()),
		Genre:  strings.TrimSpace(m.Genre()),
		Track:  track,
		Disc:   disc,
		Year:   m.Year(),
		Format: string(m.Format()),
	}, nil
}
