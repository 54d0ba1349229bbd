/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package ingest

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/friendsincode/moosic/internal/index"
)

// DefaultKeyTemplate lays content keys out by genre first.
const DefaultKeyTemplate = "{genre}/{artist}/{album}/{song}"

// NamePolicy decides what happens to discovered file and directory names
// that fall outside the charset operator fields are held to.
type NamePolicy string

const (
	NamePass   NamePolicy = "pass"   // use verbatim
	NameEscape NamePolicy = "escape" // URL path-escape each segment
	NameReject NamePolicy = "reject" // fail the file with ErrInvalidName
)

// ParseNamePolicy maps a config value to a policy; empty means pass.
func ParseNamePolicy(s string) (NamePolicy, error) {
	switch p := NamePolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return NamePass, nil
	case NamePass, NameEscape, NameReject:
		return p, nil
	default:
		return "", fmt.Errorf("unknown name policy %q", s)
	}
}

// Deriver maps an intent and a discovered file to an index record. It does
// no I/O and the same inputs always give the same record.
type Deriver struct {
	template string
	policy   NamePolicy
}

// NewDeriver returns a deriver. An empty template means DefaultKeyTemplate.
func NewDeriver(template string, policy NamePolicy) *Deriver {
	if template == "" {
		template = DefaultKeyTemplate
	}
	if policy == "" {
		policy = NamePass
	}
	return &Deriver{template: template, policy: policy}
}

// Derive builds the record for f. The composite key is artist/album/song
// and the content key is the template filled with the same values.
//
//	song:   artist and album from the intent, song = intent name
//	album:  artist from the intent, album = intent name, song = file name
//	artist: artist = intent name, album = parent directory, song = file name
//
// Files directly under an artist root have no album segment.
func (d *Deriver) Derive(in Intent, f File) (index.Record, error) {
	var artist, album, song string

	switch in.Kind {
	case KindSong:
		artist, album, song = in.Artist, in.Album, in.Name
	case KindAlbum:
		name, err := d.segment(last(f.Segments))
		if err != nil {
			return index.Record{}, err
		}
		artist, album, song = in.Artist, in.Name, name
	case KindArtist:
		name, err := d.segment(last(f.Segments))
		if err != nil {
			return index.Record{}, err
		}
		var parent string
		if n := len(f.Segments); n >= 2 {
			if parent, err = d.segment(f.Segments[n-2]); err != nil {
				return index.Record{}, err
			}
		}
		artist, album, song = in.Name, parent, name
	default:
		return index.Record{}, fmt.Errorf("%w: unknown upload kind %q", ErrInvalidIntent, in.Kind)
	}

	if song == "" {
		return index.Record{}, fmt.Errorf("%w: %s has no file name", ErrInvalidName, f.Path)
	}

	return index.Record{
		CompositeKey: joinKey(artist, album, song),
		ContentKey:   d.contentKey(in.Genre, artist, album, song),
		Genre:        in.Genre,
		Artist:       artist,
		Album:        album,
		Song:         song,
		Kind:         string(in.Kind),
	}, nil
}

// segment applies the name policy to one discovered name.
func (d *Deriver) segment(name string) (string, error) {
	if ValidName(name) {
		return name, nil
	}
	switch d.policy {
	case NameEscape:
		return url.PathEscape(name), nil
	case NameReject:
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	default:
		return name, nil
	}
}

func (d *Deriver) contentKey(genre, artist, album, song string) string {
	r := strings.NewReplacer(
		"{genre}", genre,
		"{artist}", artist,
		"{album}", album,
		"{song}", song,
	)
	return joinKey(strings.Split(r.Replace(d.template), "/")...)
}

// joinKey joins the non-empty parts with slashes.
func joinKey(parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "/")
}

func last(segments []string) string {
	if len(segments) == 0 {
		return ""
	}
	return segments[len(segments)-1]
}
