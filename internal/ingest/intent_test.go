package ingest

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestIntentValidate(t *testing.T) {
	dir := t.TempDir()
	song := filepath.Join(dir, "track1.mp3")
	writeTree(t, dir, "track1.mp3")

	tests := []struct {
		name    string
		intent  Intent
		wantErr bool
	}{
		{"valid song", Intent{Kind: KindSong, Genre: "rock", Artist: "Queen", Album: "AQOTS", Name: "track1.mp3", RootPath: song}, false},
		{"valid album", Intent{Kind: KindAlbum, Genre: "rock", Artist: "Queen", Name: "AQOTS", RootPath: dir}, false},
		{"valid artist", Intent{Kind: KindArtist, Genre: "rock", Name: "Queen", RootPath: dir}, false},
		{"song missing album", Intent{Kind: KindSong, Genre: "rock", Artist: "Queen", Name: "x", RootPath: song}, true},
		{"album missing artist", Intent{Kind: KindAlbum, Genre: "rock", Name: "AQOTS", RootPath: dir}, true},
		{"bad charset", Intent{Kind: KindArtist, Genre: "rock", Name: "Queen Band", RootPath: dir}, true},
		{"dot-dot name", Intent{Kind: KindArtist, Genre: "rock", Name: "..", RootPath: dir}, true},
		{"empty genre", Intent{Kind: KindArtist, Name: "Queen", RootPath: dir}, true},
		{"song on directory", Intent{Kind: KindSong, Genre: "rock", Artist: "Queen", Album: "A", Name: "x", RootPath: dir}, true},
		{"album on file", Intent{Kind: KindAlbum, Genre: "rock", Artist: "Queen", Name: "A", RootPath: song}, true},
		{"missing path", Intent{Kind: KindArtist, Genre: "rock", Name: "Queen", RootPath: filepath.Join(dir, "nope")}, true},
		{"unknown kind", Intent{Kind: "playlist", Genre: "rock", Name: "Queen", RootPath: dir}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.intent.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidIntent) {
				t.Fatalf("expected ErrInvalidIntent, got %v", err)
			}
		})
	}
}

func TestIntentNormalizeTrims(t *testing.T) {
	in := Intent{Kind: " Album ", Genre: " rock", Artist: "Queen ", Name: "\tAQOTS\n", RootPath: " ./AQOTS "}.Normalize()
	if in.Kind != KindAlbum || in.Genre != "rock" || in.Artist != "Queen" || in.Name != "AQOTS" || in.RootPath != "./AQOTS" {
		t.Fatalf("unexpected normalized intent: %+v", in)
	}
}

func TestParseKind(t *testing.T) {
	if k, err := ParseKind("ARTIST"); err != nil || k != KindArtist {
		t.Fatalf("ParseKind(ARTIST) = %q, %v", k, err)
	}
	if _, err := ParseKind("playlist"); !errors.Is(err, ErrInvalidIntent) {
		t.Fatalf("expected ErrInvalidIntent, got %v", err)
	}
}

func TestLoadIntent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "intent.yaml")
	data := "kind: album\ngenre: rock\nartist: Queen\nname: \" AQOTS \"\npath: ./AQOTS\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	in, err := LoadIntent(path)
	if err != nil {
		t.Fatalf("LoadIntent: %v", err)
	}
	want := Intent{Kind: KindAlbum, Genre: "rock", Artist: "Queen", Name: "AQOTS", RootPath: "./AQOTS"}
	if in != want {
		t.Fatalf("got %+v, want %+v", in, want)
	}

	if _, err := LoadIntent(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
