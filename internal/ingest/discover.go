/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package ingest

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// File is one candidate for upload. Segments is the path below the root
// split into components; for a song it is just the file name.
type File struct {
	Path     string   `json:"path"`
	Segments []string `json:"segments"`
}

// Discoverer expands a root path into the files an upload covers.
type Discoverer struct {
	extensions map[string]struct{}
}

// NewDiscoverer returns a discoverer. A non-empty extensions list (".mp3",
// "flac", ...) restricts album and artist uploads to those file types.
func NewDiscoverer(extensions []string) *Discoverer {
	d := &Discoverer{}
	if len(extensions) > 0 {
		d.extensions = make(map[string]struct{}, len(extensions))
		for _, ext := range extensions {
			ext = strings.ToLower(strings.TrimSpace(ext))
			if ext == "" {
				continue
			}
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			d.extensions[ext] = struct{}{}
		}
	}
	return d
}

// Discover lists the files under root for the given kind in lexical order.
// Zero files is not an error. Names starting with a dot are skipped.
func (d *Discoverer) Discover(root string, kind Kind) ([]File, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, &DiscoveryError{Root: root, Err: err}
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, &DiscoveryError{Root: root, Err: err}
	}

	switch kind {
	case KindSong:
		if !info.Mode().IsRegular() {
			return nil, &DiscoveryError{Root: root, Err: errors.New("not a regular file")}
		}
		return []File{{Path: abs, Segments: []string{filepath.Base(abs)}}}, nil
	case KindAlbum:
		if !info.IsDir() {
			return nil, &DiscoveryError{Root: root, Err: errors.New("not a directory")}
		}
		return d.children(abs)
	case KindArtist:
		if !info.IsDir() {
			return nil, &DiscoveryError{Root: root, Err: errors.New("not a directory")}
		}
		return d.descendants(abs)
	default:
		return nil, &DiscoveryError{Root: root, Err: fmt.Errorf("unknown upload kind %q", kind)}
	}
}

// children lists regular files directly under dir.
func (d *Discoverer) children(dir string) ([]File, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &DiscoveryError{Root: dir, Err: err}
	}

	var files []File
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		ok, err := d.accept(path, entry)
		if err != nil {
			return nil, &DiscoveryError{Root: dir, Err: err}
		}
		if ok {
			files = append(files, File{Path: path, Segments: []string{entry.Name()}})
		}
	}
	return files, nil
}

// descendants lists regular files at any depth under dir. Symlinked
// directories are not followed.
func (d *Discoverer) descendants(dir string) ([]File, error) {
	var files []File
	err := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == dir {
			return nil
		}
		if entry.IsDir() {
			if hidden(entry.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		ok, err := d.accept(path, entry)
		if err != nil || !ok {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		files = append(files, File{Path: path, Segments: strings.Split(filepath.ToSlash(rel), "/")})
		return nil
	})
	if err != nil {
		return nil, &DiscoveryError{Root: dir, Err: err}
	}
	return files, nil
}

// accept reports whether entry is a visible regular file with an allowed
// extension. Symlinks count when they point at a regular file.
func (d *Discoverer) accept(path string, entry fs.DirEntry) (bool, error) {
	if hidden(entry.Name()) {
		return false, nil
	}
	mode := entry.Type()
	if mode&fs.ModeSymlink != 0 {
		info, err := os.Stat(path)
		if err != nil {
			// Dangling links are not files.
			if os.IsNotExist(err) {
				return false, nil
			}
			return false, err
		}
		mode = info.Mode().Type()
	}
	if !mode.IsRegular() {
		return false, nil
	}
	if d.extensions != nil {
		if _, ok := d.extensions[strings.ToLower(filepath.Ext(path))]; !ok {
			return false, nil
		}
	}
	return true, nil
}

func hidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
