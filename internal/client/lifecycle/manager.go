package lifecycle

import (
	"context"
	"errors"
	"sync"

	common_models "litterbugs/internal/common/models"

	"go.uber.org/zap"
)

var (
	ErrBusy           = errors.New("a draft or submission is already active")
	ErrNoDraft        = errors.New("no draft is open")
	ErrSubmitInFlight = errors.New("submission already in flight")
)

type State int

const (
	StateNoDraft State = iota
	StateDraftOpen
	StateSubmitting
)

func (s State) String() string {
	switch s {
	case StateDraftOpen:
		return "draft_open"
	case StateSubmitting:
		return "submitting"
	default:
		return "no_draft"
	}
}

// Writer is the row half of the gateway.
type Writer interface {
	Insert(ctx context.Context, payload common_models.CreatePayload) (*common_models.Report, error)
	Update(ctx context.Context, id string, payload common_models.UpdatePayload) (*common_models.Report, error)
	Delete(ctx context.Context, id string) error
}

type PhotoUploader interface {
	Upload(ctx context.Context, owner *string, reportID string, uris []string) []string
}

// Publisher receives every successful mutation.
type Publisher interface {
	Insert(report common_models.Report) bool
	Update(report common_models.Report) bool
	Remove(id string) bool
}

type Identity interface {
	CurrentIdentity() *string
}

// Manager owns the draft/submit state machine for a single report at a time.
type Manager struct {
	writer    Writer
	photos    PhotoUploader
	publisher Publisher
	identity  Identity
	logger    *zap.Logger

	mu    sync.Mutex
	state State
	draft *Draft
}

func NewManager(writer Writer, photos PhotoUploader, publisher Publisher, identity Identity, logger *zap.Logger) *Manager {
	return &Manager{
		writer:    writer,
		photos:    photos,
		publisher: publisher,
		identity:  identity,
		logger:    logger,
	}
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Draft returns a copy of the open draft.
func (m *Manager) Draft() (Draft, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.draft == nil {
		return Draft{}, false
	}
	return m.draft.clone(), true
}

// OpenNew starts an empty draft at coord.
func (m *Manager) OpenNew(coord common_models.Coordinate) error {
	if !coord.Valid() {
		return common_models.ErrValidation
	}
	return m.open(Draft{Coordinate: coord})
}

// OpenEdit starts a draft populated from r. Ownership is not checked here;
// the backend rejects writes from anyone but the owner.
func (m *Manager) OpenEdit(r common_models.Report) error {
	if _, ok := r.Coordinate(); !ok || r.ID == "" {
		return common_models.ErrValidation
	}
	return m.open(draftFromReport(r))
}

func (m *Manager) open(d Draft) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateNoDraft {
		return ErrBusy
	}
	m.draft = &d
	m.state = StateDraftOpen
	return nil
}

// Compose edits the open draft. The coordinate and editing id are restored
// after fn runs.
func (m *Manager) Compose(fn func(*Draft)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.state {
	case StateNoDraft:
		return ErrNoDraft
	case StateSubmitting:
		return ErrSubmitInFlight
	}

	d := m.draft.clone()
	fn(&d)
	d.Coordinate, d.EditingID = m.draft.Coordinate, m.draft.EditingID
	m.draft = &d
	return nil
}

// Cancel discards the draft. Not allowed while submitting.
func (m *Manager) Cancel() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == StateSubmitting {
		return ErrBusy
	}
	m.draft = nil
	m.state = StateNoDraft
	return nil
}

// Submit writes the draft. A second call while one is running returns
// ErrSubmitInFlight without touching the backend. On failure the draft stays
// open and unchanged.
func (m *Manager) Submit(ctx context.Context) (*common_models.Report, error) {
	m.mu.Lock()
	switch m.state {
	case StateNoDraft:
		m.mu.Unlock()
		return nil, ErrNoDraft
	case StateSubmitting:
		m.mu.Unlock()
		return nil, ErrSubmitInFlight
	}
	sub := &submission{draft: m.draft.clone()}
	m.state = StateSubmitting
	m.mu.Unlock()

	err := m.run(ctx, sub,
		m.resolveIdentity,
		m.write,
		m.attachPhotos,
		m.publish,
	)

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.state = StateDraftOpen
		return nil, err
	}
	m.draft = nil
	m.state = StateNoDraft
	return sub.report, nil
}

// Delete removes r through the backend and drops its marker on success.
func (m *Manager) Delete(ctx context.Context, r common_models.Report) error {
	if err := m.writer.Delete(ctx, r.ID); err != nil {
		return err
	}
	m.publisher.Remove(r.ID)
	return nil
}
