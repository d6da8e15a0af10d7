package assets

import (
	"testing"

	"lessoncut/internal/timeline"
)

func TestImageKindMapping(t *testing.T) {
	img := Asset{ID: "a", Name: "diagram.png", Kind: KindImage}
	if got := img.PlacementKind(); got != timeline.KindVideo {
		t.Fatalf("PlacementKind = %q, want video", got)
	}
	if got := img.ClipKind(); got != timeline.KindVisualAsset {
		t.Fatalf("ClipKind = %q, want visual-asset", got)
	}
	code := Asset{Kind: KindCode}
	if code.PlacementKind() != timeline.KindCode || code.ClipKind() != timeline.KindCode {
		t.Fatal("code kind should pass through unchanged")
	}
}

func TestExtFallbacks(t *testing.T) {
	cases := []struct {
		asset Asset
		want  string
	}{
		{Asset{Extension: "GO"}, ".go"},
		{Asset{Name: "main.PY"}, ".py"},
		{Asset{Name: "clip", Path: "/tmp/clip.mp4"}, ".mp4"},
		{Asset{Name: "untitled"}, ""},
	}
	for _, tc := range cases {
		if got := tc.asset.Ext(); got != tc.want {
			t.Fatalf("Ext(%+v) = %q, want %q", tc.asset, got, tc.want)
		}
	}
}

func TestInferKind(t *testing.T) {
	cases := []struct {
		mime, ext string
		want      Kind
	}{
		{"video/mp4", "", KindVideo},
		{"audio/mpeg", "", KindAudio},
		{"image/png", "", KindImage},
		{"", ".wav", KindAudio},
		{"", "ts", KindCode},
		{"", ".xyz", ""},
	}
	for _, tc := range cases {
		if got := InferKind(tc.mime, tc.ext); got != tc.want {
			t.Fatalf("InferKind(%q, %q) = %q, want %q", tc.mime, tc.ext, got, tc.want)
		}
	}
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore(Asset{ID: "one", Name: "intro.mp4", Kind: KindVideo})
	if _, ok := store.GetAssetByID("missing"); ok {
		t.Fatal("expected missing asset lookup to fail")
	}
	store.Put(Asset{ID: "two", Name: "voice.wav", Kind: KindAudio})
	got, ok := store.GetAssetByID("two")
	if !ok || got.Kind != KindAudio {
		t.Fatalf("GetAssetByID(two) = %+v, %v", got, ok)
	}
	if len(store.List()) != 2 {
		t.Fatalf("expected 2 assets, got %d", len(store.List()))
	}
}
