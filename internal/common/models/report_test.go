package models

import (
	"errors"
	"testing"
)

func ptr[T any](v T) *T { return &v }

func TestFieldsNormalize(t *testing.T) {
	sev := Severity("high")
	got := Fields{
		Title:        "   ",
		LitterTypes:  []string{},
		Types:        ptr("  "),
		NotesPresets: []string{},
		NotesOther:   ptr(" near the creek "),
		Severity:     &sev,
	}.Normalize()

	if got.Title != DefaultReportTitle {
		t.Errorf("Title = %q, want default", got.Title)
	}
	if got.LitterTypes != nil || got.NotesPresets != nil {
		t.Errorf("empty selections should become nil, got %v / %v", got.LitterTypes, got.NotesPresets)
	}
	if got.Types != nil {
		t.Errorf("blank Types should be nil, got %q", *got.Types)
	}
	if got.NotesOther == nil || *got.NotesOther != "near the creek" {
		t.Errorf("NotesOther = %v", got.NotesOther)
	}
	if got.Severity == nil || *got.Severity != SeverityHigh {
		t.Errorf("Severity = %v, want High", got.Severity)
	}
}

func TestCreatePayloadValidate(t *testing.T) {
	tests := []struct {
		name    string
		payload CreatePayload
		wantErr bool
	}{
		{
			name:    "valid",
			payload: CreatePayload{Fields: Fields{LitterTypes: []string{"Bottles", "Cans"}}, Latitude: ptr(35.6), Longitude: ptr(-82.55)},
		},
		{
			name:    "missing coordinate",
			payload: CreatePayload{Latitude: ptr(35.6)},
			wantErr: true,
		},
		{
			name:    "out of range",
			payload: CreatePayload{Latitude: ptr(135.6), Longitude: ptr(-82.55)},
			wantErr: true,
		},
		{
			name:    "unknown litter type",
			payload: CreatePayload{Fields: Fields{LitterTypes: []string{"Spaceship"}}, Latitude: ptr(1.0), Longitude: ptr(1.0)},
			wantErr: true,
		},
		{
			name:    "unknown severity",
			payload: CreatePayload{Fields: Fields{Severity: ptr(Severity("Extreme"))}, Latitude: ptr(1.0), Longitude: ptr(1.0)},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.payload.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrValidation) {
				t.Errorf("error %v is not ErrValidation", err)
			}
		})
	}
}

func TestUpdatePayloadValidate(t *testing.T) {
	if err := (UpdatePayload{}).Validate(); !errors.Is(err, ErrValidation) {
		t.Errorf("empty update: got %v", err)
	}
	if err := (UpdatePayload{PhotoPaths: []string{"a", "b", "c", "d"}}).Validate(); !errors.Is(err, ErrValidation) {
		t.Errorf("four photos: got %v", err)
	}
	if err := (UpdatePayload{PhotoPaths: []string{"a"}}).Validate(); err != nil {
		t.Errorf("one photo: got %v", err)
	}
}

func TestOwnedBy(t *testing.T) {
	owner := "user-1"
	other := "user-2"

	owned := Report{UserID: &owner}
	guest := Report{}

	if !owned.OwnedBy(&owner) {
		t.Error("owner should own report")
	}
	if owned.OwnedBy(&other) || owned.OwnedBy(nil) {
		t.Error("non-owner must not own report")
	}
	if guest.OwnedBy(nil) || guest.OwnedBy(&owner) {
		t.Error("guest reports are owned by nobody")
	}
}
