/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package ingest

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Kind is the shape of an upload.
type Kind string

const (
	KindSong   Kind = "song"   // a single file
	KindAlbum  Kind = "album"  // a flat directory
	KindArtist Kind = "artist" // a directory of album directories
)

// ParseKind accepts a kind name in any case.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindSong, KindAlbum, KindArtist:
		return k, nil
	default:
		return "", fmt.Errorf("%w: unknown upload kind %q (want song, album or artist)", ErrInvalidIntent, s)
	}
}

// namePattern is the charset for operator-entered naming fields.
var namePattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// ValidName reports whether s may be used as a key segment as-is.
func ValidName(s string) bool {
	return namePattern.MatchString(s) && s != "." && s != ".."
}

// Intent is what the operator asked for. It is created once per run and
// passed by value; nothing downstream mutates it.
type Intent struct {
	Kind     Kind   `yaml:"kind" json:"kind"`
	Genre    string `yaml:"genre" json:"genre"`
	Artist   string `yaml:"artist,omitempty" json:"artist,omitempty"`
	Album    string `yaml:"album,omitempty" json:"album,omitempty"`
	Name     string `yaml:"name" json:"name"`
	RootPath string `yaml:"path" json:"path"`
}

// Normalize returns a copy with whitespace trimmed from every field.
func (in Intent) Normalize() Intent {
	return Intent{
		Kind:     Kind(strings.ToLower(strings.TrimSpace(string(in.Kind)))),
		Genre:    strings.TrimSpace(in.Genre),
		Artist:   strings.TrimSpace(in.Artist),
		Album:    strings.TrimSpace(in.Album),
		Name:     strings.TrimSpace(in.Name),
		RootPath: strings.TrimSpace(in.RootPath),
	}
}

// Validate checks the naming fields the kind requires and that RootPath is
// a file for songs and a directory otherwise.
func (in Intent) Validate() error {
	if _, err := ParseKind(string(in.Kind)); err != nil {
		return err
	}

	type field struct{ name, value string }
	fields := []field{{"genre", in.Genre}, {"name", in.Name}}
	switch in.Kind {
	case KindSong:
		fields = append(fields, field{"artist", in.Artist}, field{"album", in.Album})
	case KindAlbum:
		fields = append(fields, field{"artist", in.Artist})
	}

	var errs []error
	for _, f := range fields {
		switch {
		case f.value == "":
			errs = append(errs, fmt.Errorf("%s is required for %s uploads", f.name, in.Kind))
		case !ValidName(f.value):
			errs = append(errs, fmt.Errorf("%s %q must match %s", f.name, f.value, namePattern))
		}
	}

	if in.RootPath == "" {
		errs = append(errs, errors.New("path is required"))
	} else if info, err := os.Stat(in.RootPath); err != nil {
		errs = append(errs, fmt.Errorf("path %s: %w", in.RootPath, err))
	} else if in.Kind == KindSong && !info.Mode().IsRegular() {
		errs = append(errs, fmt.Errorf("path %s must be a file for song uploads", in.RootPath))
	} else if in.Kind != KindSong && !info.IsDir() {
		errs = append(errs, fmt.Errorf("path %s must be a directory for %s uploads", in.RootPath, in.Kind))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidIntent, errors.Join(errs...))
	}
	return nil
}

// LoadIntent reads an intent from a YAML file, e.g.
//
//	kind: album
//	genre: rock
//	artist: Queen
//	name: AQOTS
//	path: ./AQOTS
//
// The result is normalized but not validated.
func LoadIntent(path string) (Intent, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Intent{}, fmt.Errorf("read intent file: %w", err)
	}
	var in Intent
	if err := yaml.Unmarshal(data, &in); err != nil {
		return Intent{}, fmt.Errorf("parse intent file %s: %w", path, err)
	}
	return in.Normalize(), nil
}
