package ingest

import (
	"errors"
	"reflect"
	"testing"
)

func TestDeriveAlbumExample(t *testing.T) {
	in := Intent{Kind: KindAlbum, Genre: "rock", Artist: "Queen", Name: "AQOTS", RootPath: "./AQOTS"}
	d := NewDeriver("", NamePass)

	for _, song := range []string{"track1.mp3", "track2.mp3"} {
		rec, err := d.Derive(in, File{Path: "/music/AQOTS/" + song, Segments: []string{song}})
		if err != nil {
			t.Fatalf("derive: %v", err)
		}
		if rec.CompositeKey != "Queen/AQOTS/"+song {
			t.Errorf("composite key = %q", rec.CompositeKey)
		}
		if rec.ContentKey != "rock/Queen/AQOTS/"+song {
			t.Errorf("content key = %q", rec.ContentKey)
		}
		if rec.Artist != "Queen" || rec.Album != "AQOTS" || rec.Song != song || rec.Genre != "rock" || rec.Kind != "album" {
			t.Errorf("unexpected fields %+v", rec)
		}
	}
}

func TestDeriveKinds(t *testing.T) {
	d := NewDeriver("", NamePass)
	tests := []struct {
		name          string
		intent        Intent
		file          File
		wantComposite string
		wantContent   string
	}{
		{
			name:          "song",
			intent:        Intent{Kind: KindSong, Genre: "rock", Artist: "Queen", Album: "AQOTS", Name: "bohemian.mp3"},
			file:          File{Path: "/tmp/x.mp3", Segments: []string{"x.mp3"}},
			wantComposite: "Queen/AQOTS/bohemian.mp3",
			wantContent:   "rock/Queen/AQOTS/bohemian.mp3",
		},
		{
			name:          "artist",
			intent:        Intent{Kind: KindArtist, Genre: "rock", Name: "Queen"},
			file:          File{Segments: []string{"Jazz", "track1.mp3"}},
			wantComposite: "Queen/Jazz/track1.mp3",
			wantContent:   "rock/Queen/Jazz/track1.mp3",
		},
		{
			name:          "artist nested uses immediate parent",
			intent:        Intent{Kind: KindArtist, Genre: "rock", Name: "Queen"},
			file:          File{Segments: []string{"Jazz", "disc2", "track9.mp3"}},
			wantComposite: "Queen/disc2/track9.mp3",
			wantContent:   "rock/Queen/disc2/track9.mp3",
		},
		{
			name:          "artist root file has no album",
			intent:        Intent{Kind: KindArtist, Genre: "rock", Name: "Queen"},
			file:          File{Segments: []string{"loose.mp3"}},
			wantComposite: "Queen/loose.mp3",
			wantContent:   "rock/Queen/loose.mp3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := d.Derive(tt.intent, tt.file)
			if err != nil {
				t.Fatalf("derive: %v", err)
			}
			if rec.CompositeKey != tt.wantComposite {
				t.Errorf("composite key = %q, want %q", rec.CompositeKey, tt.wantComposite)
			}
			if rec.ContentKey != tt.wantContent {
				t.Errorf("content key = %q, want %q", rec.ContentKey, tt.wantContent)
			}
		})
	}
}

func TestDeriveIsDeterministic(t *testing.T) {
	d := NewDeriver("", NameEscape)
	in := Intent{Kind: KindArtist, Genre: "rock", Name: "Queen"}
	f := File{Path: "/m/Queen/News of the World/We Will Rock You.mp3", Segments: []string{"News of the World", "We Will Rock You.mp3"}}

	a, errA := d.Derive(in, f)
	b, errB := d.Derive(in, f)
	if errA != nil || errB != nil {
		t.Fatalf("derive: %v / %v", errA, errB)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("derivation differs:\n%+v\n%+v", a, b)
	}
}

func TestDeriveKeyTemplate(t *testing.T) {
	in := Intent{Kind: KindAlbum, Genre: "rock", Artist: "Queen", Name: "AQOTS"}
	f := File{Segments: []string{"track1.mp3"}}

	tests := []struct {
		template string
		want     string
	}{
		{"{artist}/{album}/{song}", "Queen/AQOTS/track1.mp3"},
		{"media/{genre}/{artist}/{album}/{song}", "media/rock/Queen/AQOTS/track1.mp3"},
		{"{genre}//{artist}/{song}", "rock/Queen/track1.mp3"},
	}
	for _, tt := range tests {
		rec, err := NewDeriver(tt.template, NamePass).Derive(in, f)
		if err != nil {
			t.Fatalf("%s: %v", tt.template, err)
		}
		if rec.ContentKey != tt.want {
			t.Errorf("template %q: content key %q, want %q", tt.template, rec.ContentKey, tt.want)
		}
		if rec.CompositeKey != "Queen/AQOTS/track1.mp3" {
			t.Errorf("template must not change the composite key, got %q", rec.CompositeKey)
		}
	}
}

func TestDeriveNamePolicies(t *testing.T) {
	in := Intent{Kind: KindArtist, Genre: "rock", Name: "Queen"}
	f := File{Segments: []string{"News of the World", "We Will Rock You.mp3"}}

	pass, err := NewDeriver("", NamePass).Derive(in, f)
	if err != nil {
		t.Fatalf("pass: %v", err)
	}
	if pass.CompositeKey != "Queen/News of the World/We Will Rock You.mp3" {
		t.Errorf("pass should keep names verbatim, got %q", pass.CompositeKey)
	}

	escaped, err := NewDeriver("", NameEscape).Derive(in, f)
	if err != nil {
		t.Fatalf("escape: %v", err)
	}
	if escaped.CompositeKey != "Queen/News%20of%20the%20World/We%20Will%20Rock%20You.mp3" {
		t.Errorf("unexpected escaped key %q", escaped.CompositeKey)
	}

	_, err = NewDeriver("", NameReject).Derive(in, f)
	if !errors.Is(err, ErrInvalidName) {
		t.Fatalf("reject: expected ErrInvalidName, got %v", err)
	}

	// Names inside the charset are untouched by every policy.
	clean := File{Segments: []string{"Jazz", "track1.mp3"}}
	for _, p := range []NamePolicy{NamePass, NameEscape, NameReject} {
		rec, err := NewDeriver("", p).Derive(in, clean)
		if err != nil || rec.CompositeKey != "Queen/Jazz/track1.mp3" {
			t.Errorf("%s: got %q, %v", p, rec.CompositeKey, err)
		}
	}
}

func TestParseNamePolicy(t *testing.T) {
	if p, err := ParseNamePolicy(""); err != nil || p != NamePass {
		t.Fatalf("empty policy: %q, %v", p, err)
	}
	if p, err := ParseNamePolicy("Escape"); err != nil || p != NameEscape {
		t.Fatalf("Escape: %q, %v", p, err)
	}
	if _, err := ParseNamePolicy("mangle"); err == nil {
		t.Fatal("expected error for unknown policy")
	}
}
