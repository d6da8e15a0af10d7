package tracks_test

import (
	"testing"

	"lessoncut/internal/timeline"
	"lessoncut/internal/tracks"
)

func TestListIsOrderedAndComplete(t *testing.T) {
	list := tracks.List()
	if len(list) != 4 {
		t.Fatalf("expected 4 tracks, got %d", len(list))
	}
	wantNames := []string{"Code", "Visual", "Narration", "Personal Video"}
	for i, track := range list {
		if track.Number != i+1 {
			t.Fatalf("track %d has number %d", i, track.Number)
		}
		if track.Name != wantNames[i] {
			t.Fatalf("track %d name = %q, want %q", i, track.Name, wantNames[i])
		}
	}
}

func TestAccepts(t *testing.T) {
	cases := []struct {
		number int
		kind   timeline.Kind
		want   bool
	}{
		{tracks.CodeNumber, timeline.KindCode, true},
		{tracks.CodeNumber, timeline.KindVideo, false},
		{tracks.VisualNumber, timeline.KindVideo, true},
		{tracks.VisualNumber, timeline.KindAudio, false},
		{tracks.NarrationNumber, timeline.KindAudio, true},
		{tracks.NarrationNumber, timeline.KindVideo, false},
		{tracks.PersonalVideoNumber, timeline.KindVideo, true},
		{tracks.PersonalVideoNumber, timeline.KindCode, false},
	}
	for _, tc := range cases {
		track, ok := tracks.ByNumber(tc.number)
		if !ok {
			t.Fatalf("track %d missing", tc.number)
		}
		if got := tracks.Accepts(track, tc.kind); got != tc.want {
			t.Fatalf("Accepts(%s, %s) = %v, want %v", track.Name, tc.kind, got, tc.want)
		}
	}
}

func TestLookupsReturnCopies(t *testing.T) {
	track, _ := tracks.ByNumber(tracks.NarrationNumber)
	track.Accepts[0] = timeline.KindVideo
	track.DefaultProperties[timeline.KindAudio]["volume"] = 0.0

	fresh, _ := tracks.ByNumber(tracks.NarrationNumber)
	if fresh.Accepts[0] != timeline.KindAudio {
		t.Fatal("registry accepted kinds were mutated through a copy")
	}
	if fresh.DefaultProperties[timeline.KindAudio]["volume"] != 1.0 {
		t.Fatal("registry defaults were mutated through a copy")
	}
	if _, ok := tracks.ByNumber(9); ok {
		t.Fatal("expected no track 9")
	}
	if byName, ok := tracks.ByName("personal-video"); !ok || byName.Number != tracks.PersonalVideoNumber {
		t.Fatalf("ByName lookup failed: %+v %v", byName, ok)
	}
}
