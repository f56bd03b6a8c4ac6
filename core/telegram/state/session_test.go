package state

import (
	"encoding/json"
	"testing"
)

func TestSessionFieldAccessorsSurviveJSONRoundTrip(t *testing.T) {
	s := NewSession("finish_shift", "visitors")
	s.SetField("visitors", 120)
	s.SetField("cash", "1500.50")
	s.SetField("summary", "Спокойный день")
	s.SetField("has_defects", true)

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back Session
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if v, ok := back.IntField("visitors"); !ok || v != 120 {
		t.Fatalf("visitors = %v %v, want 120", v, ok)
	}
	if got := back.StringField("cash"); got != "1500.50" {
		t.Fatalf("cash = %q", got)
	}
	if got := back.StringField("summary"); got != "Спокойный день" {
		t.Fatalf("summary = %q", got)
	}
	if v, ok := back.BoolField("has_defects"); !ok || !v {
		t.Fatalf("has_defects = %v %v", v, ok)
	}
}

func TestSessionAppendPhotoCap(t *testing.T) {
	s := NewSession("start_shift", "object_photo")
	for i := 0; i < 12; i++ {
		s.AppendPhoto("object_photo", "file", 10)
	}
	if got := len(s.PhotosFor("object_photo")); got != 10 {
		t.Fatalf("photo count = %d, want cap 10", got)
	}
	if s.AppendPhoto("object_photo", "file", 10) {
		t.Fatal("append above cap should report false")
	}
}

func TestSessionAlbumMarkers(t *testing.T) {
	s := NewSession("encashment", "photos")
	s.RememberAlbum("photos", "album-1")
	if s.AlbumField != "photos" || s.AlbumID != "album-1" {
		t.Fatalf("album markers not stored: %+v", s)
	}
	s.ForgetAlbum()
	if s.AlbumField != "" || s.AlbumID != "" {
		t.Fatal("album markers not cleared")
	}
}

func TestSessionActive(t *testing.T) {
	var nilSession *Session
	if nilSession.Active() {
		t.Fatal("nil session must be inactive")
	}
	if (&Session{}).Active() {
		t.Fatal("empty session must be inactive")
	}
	if !NewSession("start_shift", "place").Active() {
		t.Fatal("fresh session must be active")
	}
}
