package lifecycle

import (
	"slices"
	"strings"

	"litterbugs/internal/client/photo"
	common_models "litterbugs/internal/common/models"
)

// Draft is the unsaved composition buffer for one report.
type Draft struct {
	Coordinate common_models.Coordinate
	EditingID  string // empty for a new report

	Title         string
	SelectedTypes []string
	Types         string
	SelectedNotes []string
	NotesOther    string
	Severity      string

	// Photos are device-local references, uploaded only when a new report
	// is saved.
	Photos []string
}

func (d *Draft) Editing() bool {
	return d.EditingID != ""
}

func (d *Draft) ToggleType(label string) {
	d.SelectedTypes = toggle(d.SelectedTypes, label)
}

func (d *Draft) ToggleNote(label string) {
	d.SelectedNotes = toggle(d.SelectedNotes, label)
}

func (d *Draft) AddPhotos(uris ...string) {
	d.Photos = photo.AddToSelection(d.Photos, uris...)
}

func (d *Draft) RemovePhoto(i int) {
	if i < 0 || i >= len(d.Photos) {
		return
	}
	d.Photos = slices.Delete(slices.Clone(d.Photos), i, i+1)
}

// Fields builds the full, normalized field set the backend stores.
func (d *Draft) Fields() common_models.Fields {
	f := common_models.Fields{
		Title:        d.Title,
		LitterTypes:  slices.Clone(d.SelectedTypes),
		NotesPresets: slices.Clone(d.SelectedNotes),
	}
	if d.Types != "" {
		v := d.Types
		f.Types = &v
	}
	if d.NotesOther != "" {
		v := d.NotesOther
		f.NotesOther = &v
	}
	if strings.TrimSpace(d.Severity) != "" {
		s := common_models.Severity(d.Severity)
		f.Severity = &s
	}
	return f.Normalize()
}

func (d Draft) clone() Draft {
	d.SelectedTypes = slices.Clone(d.SelectedTypes)
	d.SelectedNotes = slices.Clone(d.SelectedNotes)
	d.Photos = slices.Clone(d.Photos)
	return d
}

// draftFromReport pre-populates every field from an existing report. Photos
// stay empty: edits never touch stored photos.
func draftFromReport(r common_models.Report) Draft {
	coord, _ := r.Coordinate()
	d := Draft{
		Coordinate:    coord,
		EditingID:     r.ID,
		Title:         r.Title,
		SelectedTypes: slices.Clone(r.LitterTypes),
		SelectedNotes: slices.Clone(r.NotesPresets),
	}
	if r.Types != nil {
		d.Types = *r.Types
	}
	if r.NotesOther != nil {
		d.NotesOther = *r.NotesOther
	}
	if r.Severity != nil {
		d.Severity = string(*r.Severity)
	}
	return d
}

func toggle(set []string, label string) []string {
	if i := slices.Index(set, label); i >= 0 {
		return slices.Delete(slices.Clone(set), i, i+1)
	}
	return append(slices.Clone(set), label)
}
