package mapview

import (
	"context"
	"errors"
	"sync"
	"time"

	"litterbugs/internal/client/lifecycle"
	"litterbugs/internal/client/markers"
	common_models "litterbugs/internal/common/models"

	"go.uber.org/zap"
)

const (
	guestNotice = "As a guest, you may create and view litter reports anonymously.\n\n" +
		"To edit or delete your reports, you must sign in. Anonymous users cannot edit or delete their reports once created."
	savedMessage      = "Thanks for helping keep the community clean!"
	locationMessage   = "Unable to find your location."
	permissionMessage = "Please allow photo access in Settings to attach pictures."
)

// Mode is exactly one of Browsing, Drafting or Viewing.
type Mode interface {
	isMode()
}

type Browsing struct{}

// Drafting means the report form is open. ReportID is set when editing.
type Drafting struct {
	Editing  bool
	ReportID string
}

// Viewing means the details sheet for ReportID is open.
type Viewing struct {
	ReportID string
}

func (Browsing) isMode() {}
func (Drafting) isMode() {}
func (Viewing) isMode()  {}

type IdentityEvent int

const (
	SignedIn IdentityEvent = iota
	SignedInAnonymously
	SignedOut
)

type Locator interface {
	CurrentCoordinate(ctx context.Context) (common_models.Coordinate, error)
}

// Picker returns device-local image references chosen by the user. It
// returns ErrDevicePermission when library access is refused.
type Picker interface {
	Pick(ctx context.Context) ([]string, error)
}

type Notifier interface {
	Alert(title, message string)
}

type Resolver interface {
	Resolve(ctx context.Context, paths []string) []string
}

type Options struct {
	Lister    markers.Lister
	Store     *markers.Store
	Lifecycle *lifecycle.Manager
	Photos    Resolver
	Identity  lifecycle.Identity
	Location  Locator
	Picker    Picker
	Notifier  Notifier
	Logger    *zap.Logger

	TerrainSupported bool
	Spawn            func(func()) // runs photo resolution; defaults to a goroutine
	Now              func() time.Time
}

// Details is the content of the details sheet. Photos holds signed URLs once
// resolution finishes.
type Details struct {
	Report  common_models.Report
	Photos  []string
	Loading bool
}

type StyledMarker struct {
	markers.Marker
	Style MarkerStyle
}

type Controller struct {
	opts Options

	mu      sync.Mutex
	mode    Mode
	details *Details
	token   uint64
	region  Region
	mapType MapType
	closed  bool
}

func NewController(opts Options) *Controller {
	if opts.Spawn == nil {
		opts.Spawn = func(fn func()) { go fn() }
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Controller{
		opts:    opts,
		mode:    Browsing{},
		region:  FallbackRegion,
		mapType: MapStandard,
	}
}

// Mount centers the map on the device when possible and loads markers once.
// A location failure is silent here.
func (c *Controller) Mount(ctx context.Context) error {
	region := FallbackRegion
	if coord, err := c.opts.Location.CurrentCoordinate(ctx); err == nil {
		region = regionAround(coord)
	} else {
		c.opts.Logger.Debug("Location unavailable on mount, using fallback region", zap.Error(err))
	}

	c.mu.Lock()
	c.region = region
	c.closed = false
	c.mu.Unlock()

	if err := c.opts.Store.Load(ctx, c.opts.Lister, c.opts.Now()); err != nil {
		c.opts.Logger.Error("Failed to load reports", zap.Error(err))
		return err
	}
	return nil
}

// PressMap opens a new draft at coord. It is ignored unless the map is idle.
func (c *Controller) PressMap(coord common_models.Coordinate) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.mode.(Browsing); !ok || c.closed {
		return false
	}
	if c.opts.Lifecycle.State() != lifecycle.StateNoDraft {
		return false
	}
	if err := c.opts.Lifecycle.OpenNew(coord); err != nil {
		c.opts.Logger.Debug("Map press rejected", zap.Error(err))
		return false
	}
	c.mode = Drafting{}
	return true
}

// PressMarker opens the details sheet and starts resolving its photos. A
// later selection invalidates any resolution still in flight.
func (c *Controller) PressMarker(ctx context.Context, id string) bool {
	m, ok := c.opts.Store.Get(id)
	if !ok {
		return false
	}

	c.mu.Lock()
	if _, drafting := c.mode.(Drafting); drafting || c.closed {
		c.mu.Unlock()
		return false
	}
	c.token++
	token := c.token
	c.mode = Viewing{ReportID: id}
	c.details = &Details{Report: m.Report, Loading: len(m.Report.PhotoPaths) > 0}
	c.mu.Unlock()

	if len(m.Report.PhotoPaths) == 0 {
		return true
	}

	paths := m.Report.PhotoPaths
	c.opts.Spawn(func() {
		urls := c.opts.Photos.Resolve(ctx, paths)

		c.mu.Lock()
		defer c.mu.Unlock()
		if c.token != token || c.details == nil {
			c.opts.Logger.Debug("Dropping stale photo resolution", zap.String("report_id", id))
			return
		}
		c.details.Photos = urls
		c.details.Loading = false
	})
	return true
}

func (c *Controller) CloseDetails() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.mode.(Viewing); ok {
		c.browse()
	}
}

// browse returns to the idle map. Callers hold mu.
func (c *Controller) browse() {
	c.token++
	c.details = nil
	c.mode = Browsing{}
}

// EditSelected turns the open details sheet into an edit draft. Only the
// owner is offered this.
func (c *Controller) EditSelected() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	report, err := c.selectedOwned()
	if err != nil {
		return err
	}
	if err := c.opts.Lifecycle.OpenEdit(report); err != nil {
		return err
	}
	c.browse()
	c.mode = Drafting{Editing: true, ReportID: report.ID}
	return nil
}

// DeleteSelected deletes the report on the details sheet. On failure the
// marker and the sheet stay.
func (c *Controller) DeleteSelected(ctx context.Context) error {
	c.mu.Lock()
	report, err := c.selectedOwned()
	c.mu.Unlock()
	if err != nil {
		return err
	}

	if err := c.opts.Lifecycle.Delete(ctx, report); err != nil {
		c.opts.Logger.Error("Failed to delete report", zap.String("report_id", report.ID), zap.Error(err))
		c.opts.Notifier.Alert("Delete failed", err.Error())
		return err
	}

	c.mu.Lock()
	if v, ok := c.mode.(Viewing); ok && v.ReportID == report.ID {
		c.browse()
	}
	c.mu.Unlock()
	return nil
}

// selectedOwned returns the viewed report if the current identity owns it.
// Callers hold mu.
func (c *Controller) selectedOwned() (common_models.Report, error) {
	if _, ok := c.mode.(Viewing); !ok || c.details == nil {
		return common_models.Report{}, common_models.ErrNotFound
	}
	report := c.details.Report.Clone()
	if !report.OwnedBy(c.opts.Identity.CurrentIdentity()) {
		return common_models.Report{}, common_models.ErrPermission
	}
	return report, nil
}

func (c *Controller) CanModifySelected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := c.selectedOwned()
	return err == nil
}

// PickPhoto asks the picker for images and adds them to the draft.
func (c *Controller) PickPhoto(ctx context.Context) error {
	if !c.drafting() {
		return lifecycle.ErrNoDraft
	}

	uris, err := c.opts.Picker.Pick(ctx)
	if err != nil {
		if errors.Is(err, common_models.ErrDevicePermission) {
			c.opts.Notifier.Alert("Permission required", permissionMessage)
		} else {
			c.opts.Logger.Warn("Photo picker failed", zap.Error(err))
		}
		return err
	}
	if len(uris) == 0 {
		return nil
	}
	return c.opts.Lifecycle.Compose(func(d *lifecycle.Draft) {
		d.AddPhotos(uris...)
	})
}

func (c *Controller) RemovePhoto(i int) error {
	return c.opts.Lifecycle.Compose(func(d *lifecycle.Draft) {
		d.RemovePhoto(i)
	})
}

func (c *Controller) Compose(fn func(*lifecycle.Draft)) error {
	return c.opts.Lifecycle.Compose(fn)
}

// Save submits the draft. A tap while a save is pending is ignored.
func (c *Controller) Save(ctx context.Context) (*common_models.Report, error) {
	if !c.drafting() {
		return nil, lifecycle.ErrNoDraft
	}

	report, err := c.opts.Lifecycle.Submit(ctx)
	if errors.Is(err, lifecycle.ErrSubmitInFlight) {
		return nil, err
	}
	if c.discardClosed(report) {
		return report, err
	}
	if err != nil {
		c.opts.Logger.Error("Failed to save report", zap.Error(err))
		c.opts.Notifier.Alert("Save failed", err.Error())
		return nil, err
	}

	c.mu.Lock()
	c.browse()
	c.mu.Unlock()

	c.opts.Notifier.Alert("Report saved", savedMessage)
	return report, nil
}

// discardClosed handles a save that finished after a sign-out tore the screen
// down: the published marker is dropped, a kept draft is discarded and no
// alert is shown.
func (c *Controller) discardClosed(report *common_models.Report) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		return false
	}
	if report != nil {
		c.opts.Store.Remove(report.ID)
	}
	if err := c.opts.Lifecycle.Cancel(); err != nil {
		c.opts.Logger.Warn("Could not discard draft after sign-out", zap.Error(err))
	}
	c.browse()
	return true
}

// CancelDraft discards the draft. It fails with lifecycle.ErrBusy while a
// save is pending.
func (c *Controller) CancelDraft() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.mode.(Drafting); !ok {
		return lifecycle.ErrNoDraft
	}
	if err := c.opts.Lifecycle.Cancel(); err != nil {
		return err
	}
	c.browse()
	return nil
}

func (c *Controller) drafting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.mode.(Drafting)
	return ok
}

func (c *Controller) CycleMapType() MapType {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mapType = c.mapType.next(c.opts.TerrainSupported)
	return c.mapType
}

// Recenter moves the map to the device. Failure alerts and leaves the region.
func (c *Controller) Recenter(ctx context.Context) error {
	coord, err := c.opts.Location.CurrentCoordinate(ctx)
	if err != nil {
		c.opts.Logger.Warn("Recenter failed", zap.Error(err))
		c.opts.Notifier.Alert("Location Error", locationMessage)
		return err
	}

	c.mu.Lock()
	c.region = regionAround(coord)
	c.mu.Unlock()
	return nil
}

func (c *Controller) SetRegion(r Region) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.region = r
}

// HandleIdentityChange reacts to the identity provider. Anonymous sign-in
// shows the guest notice every time; sign-out tears the screen down.
func (c *Controller) HandleIdentityChange(ev IdentityEvent) {
	switch ev {
	case SignedInAnonymously:
		c.opts.Notifier.Alert("Guest Mode", guestNotice)
	case SignedOut:
		c.teardown()
	}
}

func (c *Controller) teardown() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.opts.Lifecycle.Cancel(); err != nil {
		c.opts.Logger.Warn("Signed out during a pending save", zap.Error(err))
	}
	c.browse()
	c.closed = true
	c.opts.Store.Replace(nil, c.opts.Now())
}

func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// Closed reports whether the screen was torn down by a sign-out.
func (c *Controller) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Controller) Markers() []StyledMarker {
	list := c.opts.Store.List()
	out := make([]StyledMarker, len(list))
	for i, m := range list {
		out[i] = StyledMarker{Marker: m, Style: StyleFor(m.Report.Severity)}
	}
	return out
}

// Details returns a copy of the open details sheet.
func (c *Controller) Details() (Details, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.details == nil {
		return Details{}, false
	}
	d := *c.details
	d.Report = d.Report.Clone()
	d.Photos = append([]string(nil), d.Photos...)
	return d, true
}

func (c *Controller) Region() Region {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.region
}

func (c *Controller) MapType() MapType {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mapType
}
