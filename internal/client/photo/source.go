package photo

import (
	"context"
	"net/url"
	"os"
	"strings"
)

// FileSource reads images picked from the local filesystem. It accepts
// file:// URIs and plain paths.
type FileSource struct{}

func (FileSource) Read(ctx context.Context, uri string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p := uri
	if strings.HasPrefix(uri, "file://") {
		u, err := url.Parse(uri)
		if err != nil {
			return nil, err
		}
		p = u.Path
	}
	return os.ReadFile(p)
}
