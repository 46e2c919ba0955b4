package photo

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	common_models "litterbugs/internal/common/models"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// SignedURLTTL is the validity requested for every display URL.
const SignedURLTTL = time.Hour

const defaultExtension = "jpg"

var contentTypes = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
	"heic": "image/heic",
	"heif": "image/heif",
}

// BlobStore is the part of the gateway the pipeline needs.
type BlobStore interface {
	UploadBlob(ctx context.Context, path string, data []byte, contentType string) error
	SignedReadURL(ctx context.Context, path string, ttl time.Duration) (string, error)
}

// ImageSource reads the bytes behind a device-local image reference.
type ImageSource interface {
	Read(ctx context.Context, uri string) ([]byte, error)
}

type Pipeline struct {
	blobs       BlobStore
	source      ImageSource
	logger      *zap.Logger
	now         func() time.Time
	concurrency int
}

func NewPipeline(blobs BlobStore, source ImageSource, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		blobs:       blobs,
		source:      source,
		logger:      logger,
		now:         time.Now,
		concurrency: 4,
	}
}

// AddToSelection appends uris and keeps only the most recent MaxReportPhotos,
// in selection order.
func AddToSelection(selection []string, uris ...string) []string {
	out := append(append([]string(nil), selection...), uris...)
	if over := len(out) - common_models.MaxReportPhotos; over > 0 {
		out = out[over:]
	}
	return out
}

// PathFor builds <owner|guest>/<reportID>/<epochMillis>-<index>.<ext>.
func PathFor(owner *string, reportID string, epochMillis int64, index int, ext string) string {
	seg := common_models.GuestOwner
	if owner != nil {
		seg = *owner
	}
	return fmt.Sprintf("%s/%s/%d-%d.%s", seg, reportID, epochMillis, index, ext)
}

// ExtensionOf returns the lowercased extension of uri, or "jpg" when it has
// none.
func ExtensionOf(uri string) string {
	if i := strings.IndexAny(uri, "?#"); i >= 0 {
		uri = uri[:i]
	}
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(uri), "."))
	if ext == "" {
		return defaultExtension
	}
	return ext
}

// ContentTypeFor maps an extension to a MIME type; unknown extensions are
// sent as JPEG.
func ContentTypeFor(ext string) string {
	if ct, ok := contentTypes[strings.ToLower(ext)]; ok {
		return ct
	}
	return contentTypes[defaultExtension]
}

// Upload stores each image in order and returns the paths that succeeded.
// A failed image is logged and skipped.
func (p *Pipeline) Upload(ctx context.Context, owner *string, reportID string, uris []string) []string {
	stamp := p.now().UnixMilli()
	paths := make([]string, 0, len(uris))

	for i, uri := range uris {
		ext := ExtensionOf(uri)
		dst := PathFor(owner, reportID, stamp, i, ext)

		data, err := p.source.Read(ctx, uri)
		if err != nil {
			p.logger.Warn("Photo read failed", zap.String("report_id", reportID), zap.String("uri", uri), zap.Error(err))
			continue
		}
		if err := p.blobs.UploadBlob(ctx, dst, data, ContentTypeFor(ext)); err != nil {
			p.logger.Warn("Photo upload failed", zap.String("report_id", reportID), zap.String("path", dst), zap.Error(err))
			continue
		}
		paths = append(paths, dst)
	}
	return paths
}

// Resolve requests a fresh signed URL for every path, keeping input order and
// dropping the ones that fail. Nothing is cached between calls.
func (p *Pipeline) Resolve(ctx context.Context, paths []string) []string {
	urls := make([]string, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i, sp := range paths {
		g.Go(func() error {
			u, err := p.blobs.SignedReadURL(gctx, sp, SignedURLTTL)
			if err != nil {
				p.logger.Warn("Photo URL resolution failed", zap.String("path", sp), zap.Error(err))
				return nil
			}
			urls[i] = u
			return nil
		})
	}
	_ = g.Wait()

	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if u != "" {
			out = append(out, u)
		}
	}
	return out
}
