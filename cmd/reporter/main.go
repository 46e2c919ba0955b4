package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"litterbugs/internal/client/gateway"
	"litterbugs/internal/client/lifecycle"
	"litterbugs/internal/client/mapview"
	"litterbugs/internal/client/markers"
	"litterbugs/internal/client/photo"
	common_models "litterbugs/internal/common/models"
	"litterbugs/internal/config"
	"litterbugs/internal/logger"
	"litterbugs/pkg/utils"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

const requestTimeout = 30 * time.Second

type listFlag []string

func (l *listFlag) String() string { return strings.Join(*l, ",") }

func (l *listFlag) Set(v string) error {
	*l = append(*l, v)
	return nil
}

// Options are the command line flags.
type Options struct {
	Lat, Lng   float64
	HasCoord   bool
	Title      string
	Types      listFlag
	Notes      listFlag
	NotesOther string
	Severity   string
	Photos     listFlag
	List       bool
	Show       string
	Delete     string
}

func parseFlags() Options {
	var o Options
	flag.Float64Var(&o.Lat, "lat", 0, "latitude of the new report")
	flag.Float64Var(&o.Lng, "lng", 0, "longitude of the new report")
	flag.StringVar(&o.Title, "title", "", "report title")
	flag.Var(&o.Types, "type", "litter type (repeatable)")
	flag.Var(&o.Notes, "note", "note preset (repeatable)")
	flag.StringVar(&o.NotesOther, "notes", "", "free-text notes")
	flag.StringVar(&o.Severity, "severity", "", "Low, Medium or High")
	flag.Var(&o.Photos, "photo", "image file to attach (repeatable, at most 3 kept)")
	flag.BoolVar(&o.List, "list", false, "list visible reports and exit")
	flag.StringVar(&o.Show, "show", "", "print a report and its photo URLs")
	flag.StringVar(&o.Delete, "delete", "", "delete one of your reports")
	flag.Parse()

	flag.Visit(func(f *flag.Flag) {
		if f.Name == "lat" || f.Name == "lng" {
			o.HasCoord = true
		}
	})
	return o
}

// tokenIdentity is the signed-in user named by API_TOKEN, or a guest.
type tokenIdentity struct {
	id *string
}

func (t tokenIdentity) CurrentIdentity() *string { return t.id }

func NewIdentity(cfg *config.Config, log *zap.Logger) lifecycle.Identity {
	if cfg.APIToken == "" {
		return tokenIdentity{}
	}
	id, err := utils.IdentityFromToken(cfg.APIToken)
	if err != nil {
		log.Warn("API_TOKEN has no user id, continuing as guest", zap.Error(err))
		return tokenIdentity{}
	}
	return tokenIdentity{id: &id}
}

func NewGateway(cfg *config.Config) gateway.Gateway {
	return gateway.NewRESTGateway(cfg.APIURL, cfg.PhotoBucket, cfg.APIToken, requestTimeout)
}

func NewPipeline(gw gateway.Gateway, log *zap.Logger) *photo.Pipeline {
	return photo.NewPipeline(gw, photo.FileSource{}, log)
}

func NewManager(gw gateway.Gateway, pipeline *photo.Pipeline, store *markers.Store, identity lifecycle.Identity, log *zap.Logger) *lifecycle.Manager {
	return lifecycle.NewManager(gw, pipeline, store, identity, log)
}

// flagLocation stands in for the device: the flags are the position.
type flagLocation struct {
	opts Options
}

func (l flagLocation) CurrentCoordinate(ctx context.Context) (common_models.Coordinate, error) {
	if !l.opts.HasCoord {
		return common_models.Coordinate{}, errors.New("no -lat/-lng given")
	}
	return common_models.Coordinate{Latitude: l.opts.Lat, Longitude: l.opts.Lng}, nil
}

type flagPicker struct {
	photos []string
}

func (p flagPicker) Pick(ctx context.Context) ([]string, error) {
	for _, uri := range p.photos {
		if _, err := os.Stat(strings.TrimPrefix(uri, "file://")); err != nil {
			return nil, fmt.Errorf("photo %s: %w", uri, err)
		}
	}
	return p.photos, nil
}

type logNotifier struct {
	logger *zap.Logger
}

func (n logNotifier) Alert(title, message string) {
	n.logger.Info(title, zap.String("message", message))
}

func NewController(
	opts Options,
	gw gateway.Gateway,
	store *markers.Store,
	manager *lifecycle.Manager,
	pipeline *photo.Pipeline,
	identity lifecycle.Identity,
	log *zap.Logger,
) *mapview.Controller {
	return mapview.NewController(mapview.Options{
		Lister:    gw,
		Store:     store,
		Lifecycle: manager,
		Photos:    pipeline,
		Identity:  identity,
		Location:  flagLocation{opts: opts},
		Picker:    flagPicker{photos: opts.Photos},
		Notifier:  logNotifier{logger: log},
		Logger:    log,
		Spawn:     func(fn func()) { fn() },
	})
}

func run(ctx context.Context, opts Options, ctrl *mapview.Controller, identity lifecycle.Identity, log *zap.Logger) error {
	if identity.CurrentIdentity() == nil {
		ctrl.HandleIdentityChange(mapview.SignedInAnonymously)
	} else {
		ctrl.HandleIdentityChange(mapview.SignedIn)
	}

	if err := ctrl.Mount(ctx); err != nil {
		return err
	}

	switch {
	case opts.List:
		for _, m := range ctrl.Markers() {
			log.Info("Report",
				zap.String("id", m.ID),
				zap.String("title", m.Report.Title),
				zap.Float64("latitude", m.Coordinate.Latitude),
				zap.Float64("longitude", m.Coordinate.Longitude),
				zap.String("color", m.Style.Color),
				zap.Time("expires_at", m.Report.ExpiresAt),
			)
		}
		return nil

	case opts.Show != "":
		if !ctrl.PressMarker(ctx, opts.Show) {
			return fmt.Errorf("report %s: %w", opts.Show, common_models.ErrNotFound)
		}
		d, _ := ctrl.Details()
		log.Info("Report details",
			zap.Any("report", d.Report),
			zap.Strings("photos", d.Photos),
			zap.Bool("can_modify", ctrl.CanModifySelected()),
		)
		return nil

	case opts.Delete != "":
		if !ctrl.PressMarker(ctx, opts.Delete) {
			return fmt.Errorf("report %s: %w", opts.Delete, common_models.ErrNotFound)
		}
		return ctrl.DeleteSelected(ctx)
	}

	if !opts.HasCoord {
		return errors.New("-lat and -lng are required to create a report")
	}
	if !ctrl.PressMap(common_models.Coordinate{Latitude: opts.Lat, Longitude: opts.Lng}) {
		return fmt.Errorf("%w: cannot open a draft at %v,%v", common_models.ErrValidation, opts.Lat, opts.Lng)
	}
	if err := ctrl.Compose(func(d *lifecycle.Draft) {
		d.Title = opts.Title
		for _, t := range opts.Types {
			d.ToggleType(t)
		}
		for _, n := range opts.Notes {
			d.ToggleNote(n)
		}
		d.NotesOther = opts.NotesOther
		d.Severity = opts.Severity
	}); err != nil {
		return err
	}
	if len(opts.Photos) > 0 {
		if err := ctrl.PickPhoto(ctx); err != nil {
			return err
		}
	}

	report, err := ctrl.Save(ctx)
	if err != nil {
		return err
	}
	log.Info("Created report", zap.String("id", report.ID), zap.Strings("photo_paths", report.PhotoPaths))
	return nil
}

func Run(lc fx.Lifecycle, opts Options, ctrl *mapview.Controller, identity lifecycle.Identity, log *zap.Logger, shutdowner fx.Shutdowner) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				code := 0
				if err := run(context.Background(), opts, ctrl, identity, log); err != nil {
					log.Error("Reporter failed", zap.Error(err))
					code = 1
				}
				if err := shutdowner.Shutdown(fx.ExitCode(code)); err != nil {
					log.Error("Failed to shutdown", zap.Error(err))
				}
			}()
			return nil
		},
	})
}

func main() {
	opts := parseFlags()

	fx.New(
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Supply(opts),
		fx.Provide(
			config.LoadConfig,
			logger.NewConsoleLogger,
			NewGateway,
			NewIdentity,
			markers.NewStore,
			NewPipeline,
			NewManager,
			NewController,
		),
		fx.Invoke(Run),
	).Run()
}
