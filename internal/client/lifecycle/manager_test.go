package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"

	"litterbugs/internal/client/markers"
	common_models "litterbugs/internal/common/models"

	"go.uber.org/zap"
)

type call struct {
	Op      string
	ID      string
	Create  common_models.CreatePayload
	Update  common_models.UpdatePayload
	Uploads []string
}

// MockBackend records writes and photo uploads in a single ordered log.
type MockBackend struct {
	mu        sync.Mutex
	Calls     []call
	Reports   map[string]*common_models.Report
	InsertErr error
	UpdateErr error
	DeleteErr error
	FailPhoto map[string]bool
	Block     chan struct{} // when set, Insert waits on it
	entered   chan struct{}
	nextID    int
}

func NewMockBackend() *MockBackend {
	return &MockBackend{Reports: map[string]*common_models.Report{}}
}

func (b *MockBackend) Insert(ctx context.Context, payload common_models.CreatePayload) (*common_models.Report, error) {
	if b.entered != nil {
		b.entered <- struct{}{}
	}
	if b.Block != nil {
		<-b.Block
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Calls = append(b.Calls, call{Op: "insert", Create: payload})
	if b.InsertErr != nil {
		return nil, b.InsertErr
	}
	b.nextID++
	f := payload.Fields
	r := &common_models.Report{
		ID:           fmt.Sprintf("r%d", b.nextID),
		Title:        f.Title,
		LitterTypes:  f.LitterTypes,
		Types:        f.Types,
		NotesPresets: f.NotesPresets,
		NotesOther:   f.NotesOther,
		Severity:     f.Severity,
		Latitude:     payload.Latitude,
		Longitude:    payload.Longitude,
		UserID:       payload.UserID,
	}
	b.Reports[r.ID] = r
	c := r.Clone()
	return &c, nil
}

func (b *MockBackend) Update(ctx context.Context, id string, payload common_models.UpdatePayload) (*common_models.Report, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Calls = append(b.Calls, call{Op: "update", ID: id, Update: payload})
	if b.UpdateErr != nil {
		return nil, b.UpdateErr
	}
	r, ok := b.Reports[id]
	if !ok {
		return nil, common_models.ErrNotFound
	}
	if f := payload.Fields; f != nil {
		r.Title, r.LitterTypes, r.Types = f.Title, f.LitterTypes, f.Types
		r.NotesPresets, r.NotesOther, r.Severity = f.NotesPresets, f.NotesOther, f.Severity
	}
	if len(payload.PhotoPaths) > 0 {
		r.PhotoPaths = payload.PhotoPaths
	}
	c := r.Clone()
	return &c, nil
}

func (b *MockBackend) Delete(ctx context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Calls = append(b.Calls, call{Op: "delete", ID: id})
	if b.DeleteErr != nil {
		return b.DeleteErr
	}
	delete(b.Reports, id)
	return nil
}

func (b *MockBackend) Upload(ctx context.Context, owner *string, reportID string, uris []string) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	seg := common_models.GuestOwner
	if owner != nil {
		seg = *owner
	}
	var paths []string
	for i, uri := range uris {
		b.Calls = append(b.Calls, call{Op: "upload", ID: reportID})
		if b.FailPhoto[uri] {
			continue
		}
		paths = append(paths, fmt.Sprintf("%s/%s/1000-%d.jpg", seg, reportID, i))
	}
	return paths
}

func (b *MockBackend) ops() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var ops []string
	for _, c := range b.Calls {
		ops = append(ops, c.Op)
	}
	return ops
}

type StaticIdentity struct {
	ID *string
}

func (s StaticIdentity) CurrentIdentity() *string { return s.ID }

func newTestManager(backend *MockBackend, identity *string) (*Manager, *markers.Store) {
	store := markers.NewStore()
	return NewManager(backend, backend, store, StaticIdentity{ID: identity}, zap.NewNop()), store
}

var here = common_models.Coordinate{Latitude: 35.60, Longitude: -82.55}

func TestCreateWithPhotos(t *testing.T) {
	backend := NewMockBackend()
	m, store := newTestManager(backend, nil)

	if err := m.OpenNew(here); err != nil {
		t.Fatalf("OpenNew() error = %v", err)
	}
	_ = m.Compose(func(d *Draft) {
		d.ToggleType("Bottles")
		d.ToggleType("Cans")
		d.Severity = "High"
		d.AddPhotos("file:///a.jpg", "file:///b.jpg")
	})

	report, err := m.Submit(context.Background())
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	if got := backend.ops(); !slices.Equal(got, []string{"insert", "upload", "upload", "update"}) {
		t.Fatalf("ops = %v", got)
	}
	ins := backend.Calls[0].Create
	if !slices.Equal(ins.LitterTypes, []string{"Bottles", "Cans"}) || *ins.Severity != common_models.SeverityHigh {
		t.Errorf("insert payload = %+v", ins)
	}
	if ins.Title != common_models.DefaultReportTitle || ins.UserID != nil {
		t.Errorf("insert title/user = %q/%v", ins.Title, ins.UserID)
	}
	attach := backend.Calls[3].Update
	if attach.Fields != nil || !slices.Equal(attach.PhotoPaths, []string{"guest/r1/1000-0.jpg", "guest/r1/1000-1.jpg"}) {
		t.Errorf("attach payload = %+v", attach)
	}

	if len(report.PhotoPaths) != 2 || store.Len() != 1 {
		t.Errorf("report = %+v, markers = %d", report, store.Len())
	}
	if m.State() != StateNoDraft {
		t.Errorf("State() = %v", m.State())
	}
	if _, ok := m.Draft(); ok {
		t.Error("draft survived a successful save")
	}
}

func TestPartialPhotoFailure(t *testing.T) {
	tests := []struct {
		name      string
		fail      map[string]bool
		wantPaths int
		wantOps   []string
	}{
		{name: "one fails", fail: map[string]bool{"b": true}, wantPaths: 2, wantOps: []string{"insert", "upload", "upload", "upload", "update"}},
		{name: "all fail", fail: map[string]bool{"a": true, "b": true, "c": true}, wantPaths: 0, wantOps: []string{"insert", "upload", "upload", "upload"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := NewMockBackend()
			backend.FailPhoto = tt.fail
			m, store := newTestManager(backend, nil)

			_ = m.OpenNew(here)
			_ = m.Compose(func(d *Draft) { d.AddPhotos("a", "b", "c") })

			report, err := m.Submit(context.Background())
			if err != nil {
				t.Fatalf("Submit() error = %v", err)
			}
			if len(report.PhotoPaths) != tt.wantPaths {
				t.Errorf("photo paths = %v", report.PhotoPaths)
			}
			if report.PhotoPaths == nil {
				t.Error("photo paths is nil, want an empty list")
			}
			if got := backend.ops(); !slices.Equal(got, tt.wantOps) {
				t.Errorf("ops = %v, want %v", got, tt.wantOps)
			}
			if store.Len() != 1 {
				t.Errorf("markers = %d", store.Len())
			}
		})
	}
}

func TestAttachFailureStillSaves(t *testing.T) {
	backend := NewMockBackend()
	backend.UpdateErr = common_models.ErrTransient
	m, store := newTestManager(backend, nil)

	_ = m.OpenNew(here)
	_ = m.Compose(func(d *Draft) { d.AddPhotos("a") })

	if _, err := m.Submit(context.Background()); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if store.Len() != 1 || m.State() != StateNoDraft {
		t.Errorf("markers = %d, state = %v", store.Len(), m.State())
	}
}

func TestWriteFailurePreservesDraft(t *testing.T) {
	backend := NewMockBackend()
	backend.InsertErr = common_models.ErrValidation
	m, store := newTestManager(backend, nil)

	_ = m.OpenNew(here)
	_ = m.Compose(func(d *Draft) {
		d.Title = "Couch"
		d.AddPhotos("a")
	})

	if _, err := m.Submit(context.Background()); !errors.Is(err, common_models.ErrValidation) {
		t.Fatalf("Submit() error = %v", err)
	}
	if m.State() != StateDraftOpen {
		t.Errorf("State() = %v, want draft_open", m.State())
	}
	d, ok := m.Draft()
	if !ok || d.Title != "Couch" || len(d.Photos) != 1 || d.Coordinate != here {
		t.Errorf("draft = %+v", d)
	}
	if got := backend.ops(); !slices.Equal(got, []string{"insert"}) {
		t.Errorf("ops = %v", got)
	}
	if store.Len() != 0 {
		t.Error("marker published for failed save")
	}

	backend.InsertErr = nil
	if _, err := m.Submit(context.Background()); err != nil {
		t.Fatalf("retry Submit() error = %v", err)
	}
}

func TestEditSendsFullFieldSet(t *testing.T) {
	user := "user-1"
	backend := NewMockBackend()
	m, store := newTestManager(backend, &user)

	medium := common_models.SeverityMedium
	lat, lng := 35.6, -82.55
	existing := common_models.Report{
		ID:          "r9",
		Title:       "Roadside",
		LitterTypes: []string{"Tires"},
		Severity:    &medium,
		Latitude:    &lat,
		Longitude:   &lng,
		UserID:      &user,
		PhotoPaths:  []string{"user-1/r9/1-0.jpg"},
	}
	backend.Reports["r9"] = &existing
	store.Insert(existing)

	if err := m.OpenEdit(existing); err != nil {
		t.Fatalf("OpenEdit() error = %v", err)
	}
	_ = m.Compose(func(d *Draft) {
		d.Severity = "Low"
		d.Coordinate = common_models.Coordinate{Latitude: 1, Longitude: 1}
		d.AddPhotos("ignored.jpg")
	})

	if _, err := m.Submit(context.Background()); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	if got := backend.ops(); !slices.Equal(got, []string{"update"}) {
		t.Fatalf("ops = %v", got)
	}
	f := backend.Calls[0].Update.Fields
	if f == nil || f.Title != "Roadside" || !slices.Equal(f.LitterTypes, []string{"Tires"}) || *f.Severity != common_models.SeverityLow {
		t.Errorf("update fields = %+v", f)
	}
	if backend.Calls[0].Update.PhotoPaths != nil {
		t.Error("edit touched photos")
	}

	mk, _ := store.Get("r9")
	if mk.Coordinate.Latitude != 35.6 || mk.Coordinate.Longitude != -82.55 {
		t.Errorf("coordinate = %+v", mk.Coordinate)
	}
	if *mk.Report.Severity != common_models.SeverityLow {
		t.Errorf("severity = %v", *mk.Report.Severity)
	}
}

func TestSecondSubmitIsNoOp(t *testing.T) {
	backend := NewMockBackend()
	backend.Block = make(chan struct{})
	backend.entered = make(chan struct{}, 1)
	m, _ := newTestManager(backend, nil)
	_ = m.OpenNew(here)

	done := make(chan error, 1)
	go func() {
		_, err := m.Submit(context.Background())
		done <- err
	}()
	<-backend.entered

	if _, err := m.Submit(context.Background()); !errors.Is(err, ErrSubmitInFlight) {
		t.Errorf("second Submit() error = %v, want ErrSubmitInFlight", err)
	}
	if err := m.Cancel(); !errors.Is(err, ErrBusy) {
		t.Errorf("Cancel() while submitting error = %v, want ErrBusy", err)
	}
	if err := m.Compose(func(d *Draft) { d.Title = "late" }); !errors.Is(err, ErrSubmitInFlight) {
		t.Errorf("Compose() while submitting error = %v", err)
	}

	close(backend.Block)
	if err := <-done; err != nil {
		t.Fatalf("first Submit() error = %v", err)
	}
	if got := backend.ops(); !slices.Equal(got, []string{"insert"}) {
		t.Errorf("ops = %v, want exactly one insert", got)
	}
}

func TestStateTransitions(t *testing.T) {
	m, _ := newTestManager(NewMockBackend(), nil)

	if _, err := m.Submit(context.Background()); !errors.Is(err, ErrNoDraft) {
		t.Errorf("Submit() without draft error = %v", err)
	}
	if err := m.Compose(func(*Draft) {}); !errors.Is(err, ErrNoDraft) {
		t.Errorf("Compose() without draft error = %v", err)
	}
	if err := m.OpenNew(common_models.Coordinate{Latitude: 95}); !errors.Is(err, common_models.ErrValidation) {
		t.Errorf("OpenNew(bad coord) error = %v", err)
	}

	_ = m.OpenNew(here)
	if err := m.OpenNew(here); !errors.Is(err, ErrBusy) {
		t.Errorf("second OpenNew() error = %v", err)
	}
	if err := m.Cancel(); err != nil || m.State() != StateNoDraft {
		t.Errorf("Cancel() = %v, state %v", err, m.State())
	}
	if err := m.OpenNew(here); err != nil {
		t.Errorf("OpenNew() after cancel error = %v", err)
	}
	d, _ := m.Draft()
	if d.Title != "" || len(d.SelectedTypes) != 0 {
		t.Errorf("new draft not empty: %+v", d)
	}
}

func TestDelete(t *testing.T) {
	user := "user-1"
	lat, lng := 1.0, 2.0
	r := common_models.Report{ID: "r1", Latitude: &lat, Longitude: &lng, UserID: &user}

	t.Run("success removes marker", func(t *testing.T) {
		backend := NewMockBackend()
		m, store := newTestManager(backend, &user)
		store.Insert(r)

		if err := m.Delete(context.Background(), r); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if store.Len() != 0 {
			t.Error("marker left after delete")
		}
	})

	t.Run("rejection keeps marker", func(t *testing.T) {
		backend := NewMockBackend()
		backend.DeleteErr = common_models.ErrPermission
		other := "user-2"
		m, store := newTestManager(backend, &other)
		store.Insert(r)

		if err := m.Delete(context.Background(), r); !errors.Is(err, common_models.ErrPermission) {
			t.Fatalf("Delete() error = %v", err)
		}
		if store.Len() != 1 {
			t.Error("marker removed after failed delete")
		}
	})
}

func TestDraftHelpers(t *testing.T) {
	d := &Draft{}
	d.ToggleType("Cans")
	d.ToggleType("Bottles")
	d.ToggleType("Cans")
	if !slices.Equal(d.SelectedTypes, []string{"Bottles"}) {
		t.Errorf("SelectedTypes = %v", d.SelectedTypes)
	}

	d.AddPhotos("a", "b", "c", "d")
	d.RemovePhoto(0)
	d.RemovePhoto(7)
	if !slices.Equal(d.Photos, []string{"c", "d"}) {
		t.Errorf("Photos = %v", d.Photos)
	}

	d.Types = "  "
	d.NotesOther = "near the creek"
	d.Severity = "medium"
	f := d.Fields()
	if f.Types != nil || *f.NotesOther != "near the creek" || *f.Severity != common_models.SeverityMedium {
		t.Errorf("Fields() = %+v", f)
	}
}
