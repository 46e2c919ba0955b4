package models

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

const (
	DefaultReportTitle = "Litter report"
	GuestOwner         = "guest" // owner path segment for anonymous uploads
	MaxReportPhotos    = 3
)

type Severity string

const (
	SeverityLow    Severity = "Low"
	SeverityMedium Severity = "Medium"
	SeverityHigh   Severity = "High"
)

// ParseSeverity matches case-insensitively and returns the canonical label.
func ParseSeverity(s string) (Severity, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return SeverityLow, true
	case "medium":
		return SeverityMedium, true
	case "high":
		return SeverityHigh, true
	}
	return "", false
}

var LitterTypes = []string{
	"Takeout cups",
	"Bottles",
	"Cans",
	"Paper products",
	"Food wrappers",
	"Fast food bags",
	"Plastic bags",
	"Trash bags",
	"PPE",
	"Construction debris",
	"Furniture",
	"Strewn plastic",
	"Textiles",
	"Pet waste",
	"Tires",
	"Vehicular debris",
}

var NotePresets = []string{
	"Scattered",
	"In a pile",
	"Bagged but left",
	"Near roadside",
	"In Public Park",
	"In ditch",
	"Along trail",
	"Near waterway",
	"Blocking path",
	"Broken glass",
	"Hard to access",
	"Use Caution",
}

type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (c Coordinate) Valid() bool {
	return c.Latitude >= -90 && c.Latitude <= 90 && c.Longitude >= -180 && c.Longitude <= 180
}

// Report is a persisted litter report. Nil pointers and nil slices mean the
// field is absent.
type Report struct {
	ID           string    `json:"id" bson:"_id"`
	Title        string    `json:"title" bson:"title"`
	LitterTypes  []string  `json:"litter_types" bson:"litter_types"`
	Types        *string   `json:"types" bson:"types"`
	NotesPresets []string  `json:"notes_presets" bson:"notes_presets"`
	NotesOther   *string   `json:"notes_other" bson:"notes_other"`
	Severity     *Severity `json:"severity" bson:"severity"`
	Latitude     *float64  `json:"latitude" bson:"latitude"`
	Longitude    *float64  `json:"longitude" bson:"longitude"`
	UserID       *string   `json:"user_id" bson:"user_id"`
	PhotoPaths   []string  `json:"photo_paths" bson:"photo_paths"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
	ExpiresAt    time.Time `json:"expires_at" bson:"expires_at"`
}

// Coordinate reports false when either axis is missing.
func (r *Report) Coordinate() (Coordinate, bool) {
	if r.Latitude == nil || r.Longitude == nil {
		return Coordinate{}, false
	}
	return Coordinate{Latitude: *r.Latitude, Longitude: *r.Longitude}, true
}

// OwnedBy is false for guest reports and guest callers alike.
func (r *Report) OwnedBy(identity *string) bool {
	return identity != nil && r.UserID != nil && *identity == *r.UserID
}

func (r *Report) Fields() Fields {
	return Fields{
		Title:        r.Title,
		LitterTypes:  slices.Clone(r.LitterTypes),
		Types:        r.Types,
		NotesPresets: slices.Clone(r.NotesPresets),
		NotesOther:   r.NotesOther,
		Severity:     r.Severity,
	}
}

// Clone returns a copy that shares no slices with r.
func (r Report) Clone() Report {
	r.LitterTypes = slices.Clone(r.LitterTypes)
	r.NotesPresets = slices.Clone(r.NotesPresets)
	r.PhotoPaths = slices.Clone(r.PhotoPaths)
	return r
}

// Fields is the owner-editable content of a report.
type Fields struct {
	Title        string    `json:"title" bson:"title"`
	LitterTypes  []string  `json:"litter_types" bson:"litter_types"`
	Types        *string   `json:"types" bson:"types"`
	NotesPresets []string  `json:"notes_presets" bson:"notes_presets"`
	NotesOther   *string   `json:"notes_other" bson:"notes_other"`
	Severity     *Severity `json:"severity" bson:"severity"`
}

// Normalize applies the permissive defaults: blank title becomes the default
// title, empty selections and blank free text become absent.
func (f Fields) Normalize() Fields {
	f.Title = strings.TrimSpace(f.Title)
	if f.Title == "" {
		f.Title = DefaultReportTitle
	}
	if len(f.LitterTypes) == 0 {
		f.LitterTypes = nil
	}
	if len(f.NotesPresets) == 0 {
		f.NotesPresets = nil
	}
	f.Types = trimmedOrNil(f.Types)
	f.NotesOther = trimmedOrNil(f.NotesOther)
	if f.Severity != nil {
		if strings.TrimSpace(string(*f.Severity)) == "" {
			f.Severity = nil
		} else if s, ok := ParseSeverity(string(*f.Severity)); ok {
			f.Severity = &s
		}
	}
	return f
}

func (f Fields) Validate() error {
	for _, t := range f.LitterTypes {
		if !slices.Contains(LitterTypes, t) {
			return fmt.Errorf("%w: unknown litter type %q", ErrValidation, t)
		}
	}
	for _, n := range f.NotesPresets {
		if !slices.Contains(NotePresets, n) {
			return fmt.Errorf("%w: unknown note preset %q", ErrValidation, n)
		}
	}
	if f.Severity != nil {
		if _, ok := ParseSeverity(string(*f.Severity)); !ok {
			return fmt.Errorf("%w: unknown severity %q", ErrValidation, *f.Severity)
		}
	}
	return nil
}

// CreatePayload is what the client sends to insert a report; id and
// timestamps are assigned by the backend.
type CreatePayload struct {
	Fields
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	UserID    *string  `json:"user_id"`
}

func (p CreatePayload) Validate() error {
	if p.Latitude == nil || p.Longitude == nil {
		return fmt.Errorf("%w: latitude and longitude are required", ErrValidation)
	}
	if !(Coordinate{Latitude: *p.Latitude, Longitude: *p.Longitude}).Valid() {
		return fmt.Errorf("%w: coordinate out of range", ErrValidation)
	}
	return p.Fields.Validate()
}

// UpdatePayload replaces the full field set and/or attaches photo paths.
// Coordinates are deliberately absent: they never change after creation.
type UpdatePayload struct {
	Fields     *Fields  `json:"fields,omitempty"`
	PhotoPaths []string `json:"photo_paths,omitempty"`
}

func (p UpdatePayload) Validate() error {
	if p.Fields == nil && len(p.PhotoPaths) == 0 {
		return fmt.Errorf("%w: empty update", ErrValidation)
	}
	if len(p.PhotoPaths) > MaxReportPhotos {
		return fmt.Errorf("%w: at most %d photos", ErrValidation, MaxReportPhotos)
	}
	if p.Fields != nil {
		return p.Fields.Validate()
	}
	return nil
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
