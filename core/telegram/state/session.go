package state

import (
	"strconv"
	"strings"
	"time"
)

// Session stores the progress of one user through a dialog flow.
// Sessions are JSON round-tripped by the redis backend, so field
// accessors tolerate the type drift introduced by encoding/json
// (integers coming back as float64 and so on).
type Session struct {
	Flow      string              `json:"flow"`
	Stage     string              `json:"stage"`
	Fields    map[string]any      `json:"fields"`
	Photos    map[string][]string `json:"photos,omitempty"`
	StartedAt time.Time           `json:"started_at"`

	// AlbumField remembers which photo field last accepted an album item,
	// so late album updates can still land in the right field after the
	// dialog has already advanced.
	AlbumField string `json:"album_field,omitempty"`
	AlbumID    string `json:"album_id,omitempty"`
}

// NewSession starts a fresh session positioned at the given stage.
func NewSession(flow, stage string) *Session {
	return &Session{
		Flow:      flow,
		Stage:     stage,
		Fields:    make(map[string]any),
		Photos:    make(map[string][]string),
		StartedAt: time.Now().UTC(),
	}
}

// Active reports whether the session represents a dialog in progress.
func (s *Session) Active() bool {
	return s != nil && s.Flow != ""
}

// SetField stores a collected answer under the given field name.
func (s *Session) SetField(name string, value any) {
	if s.Fields == nil {
		s.Fields = make(map[string]any)
	}
	s.Fields[name] = value
}

// Field returns the raw stored value for a field.
func (s *Session) Field(name string) (any, bool) {
	if s == nil || s.Fields == nil {
		return nil, false
	}
	v, ok := s.Fields[name]
	return v, ok
}

// StringField returns the field value as a string.
func (s *Session) StringField(name string) string {
	v, ok := s.Field(name)
	if !ok {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	}
	return ""
}

// IntField returns the field value as an int, tolerating JSON float64.
func (s *Session) IntField(name string) (int, bool) {
	v, ok := s.Field(name)
	if !ok {
		return 0, false
	}
	switch t := v.(type) {
	case int:
		return t, true
	case int64:
		return int(t), true
	case float64:
		return int(t), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

// BoolField returns the field value as a bool.
func (s *Session) BoolField(name string) (bool, bool) {
	v, ok := s.Field(name)
	if !ok {
		return false, false
	}
	switch t := v.(type) {
	case bool:
		return t, true
	case string:
		return t == "true" || t == "yes", true
	}
	return false, false
}

// AppendPhoto records a photo file ID under the given field, capped at limit.
// It reports whether the photo was stored.
func (s *Session) AppendPhoto(field, fileID string, limit int) bool {
	if s == nil || field == "" || fileID == "" {
		return false
	}
	if s.Photos == nil {
		s.Photos = make(map[string][]string)
	}
	if limit > 0 && len(s.Photos[field]) >= limit {
		return false
	}
	s.Photos[field] = append(s.Photos[field], fileID)
	return true
}

// PhotosFor returns the photo file IDs collected for a field.
func (s *Session) PhotosFor(field string) []string {
	if s == nil || s.Photos == nil {
		return nil
	}
	return s.Photos[field]
}

// RememberAlbum marks the photo field and album that last accepted an item.
func (s *Session) RememberAlbum(field, albumID string) {
	s.AlbumField = field
	s.AlbumID = albumID
}

// ForgetAlbum clears the album grace marker.
func (s *Session) ForgetAlbum() {
	s.AlbumField = ""
	s.AlbumID = ""
}
