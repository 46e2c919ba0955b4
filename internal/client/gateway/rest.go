package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	common_models "litterbugs/internal/common/models"

	"github.com/gofiber/fiber/v2"
)

// RESTGateway talks to cmd/api over HTTP using Fiber's client agent.
type RESTGateway struct {
	baseURL string
	bucket  string
	timeout time.Duration

	mu    sync.RWMutex
	token string
}

func NewRESTGateway(baseURL, bucket, token string, timeout time.Duration) *RESTGateway {
	return &RESTGateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		bucket:  bucket,
		timeout: timeout,
		token:   token,
	}
}

// SetToken swaps the bearer token after an identity change. Empty means guest.
func (g *RESTGateway) SetToken(token string) {
	g.mu.Lock()
	g.token = token
	g.mu.Unlock()
}

func (g *RESTGateway) ListUnexpired(ctx context.Context, now time.Time) ([]common_models.Report, error) {
	q := url.Values{"now": {now.UTC().Format(time.RFC3339)}}
	a := g.agent(fiber.Get(g.baseURL + "/api/reports?" + q.Encode()))

	var reports []common_models.Report
	if err := g.do(ctx, a, &reports, common_models.ErrTransient); err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return reports, nil
}

func (g *RESTGateway) Insert(ctx context.Context, payload common_models.CreatePayload) (*common_models.Report, error) {
	a := g.agent(fiber.Post(g.baseURL + "/api/reports")).JSON(payload)

	var report common_models.Report
	if err := g.do(ctx, a, &report, common_models.ErrTransient); err != nil {
		return nil, fmt.Errorf("insert report: %w", err)
	}
	return &report, nil
}

func (g *RESTGateway) Update(ctx context.Context, id string, payload common_models.UpdatePayload) (*common_models.Report, error) {
	a := g.agent(fiber.Put(g.baseURL + "/api/reports/" + url.PathEscape(id))).JSON(payload)

	var report common_models.Report
	if err := g.do(ctx, a, &report, common_models.ErrTransient); err != nil {
		return nil, fmt.Errorf("update report %s: %w", id, err)
	}
	return &report, nil
}

func (g *RESTGateway) Delete(ctx context.Context, id string) error {
	a := g.agent(fiber.Delete(g.baseURL + "/api/reports/" + url.PathEscape(id)))
	if err := g.do(ctx, a, nil, common_models.ErrTransient); err != nil {
		return fmt.Errorf("delete report %s: %w", id, err)
	}
	return nil
}

func (g *RESTGateway) UploadBlob(ctx context.Context, path string, data []byte, contentType string) error {
	a := g.agent(fiber.Put(g.objectURL("", path))).
		ContentType(contentType).
		Body(data)
	if err := g.do(ctx, a, nil, common_models.ErrUpload); err != nil {
		return fmt.Errorf("upload %s: %w", path, err)
	}
	return nil
}

func (g *RESTGateway) SignedReadURL(ctx context.Context, path string, ttl time.Duration) (string, error) {
	a := g.agent(fiber.Post(g.objectURL("sign/", path))).
		JSON(fiber.Map{"expires_in": int64(ttl / time.Second)})

	var res struct {
		SignedURL string `json:"signed_url"`
	}
	if err := g.do(ctx, a, &res, common_models.ErrTransient); err != nil {
		return "", fmt.Errorf("sign %s: %w", path, err)
	}
	if strings.HasPrefix(res.SignedURL, "/") {
		return g.baseURL + res.SignedURL, nil
	}
	return res.SignedURL, nil
}

func (g *RESTGateway) objectURL(prefix, path string) string {
	segments := strings.Split(path, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return fmt.Sprintf("%s/storage/v1/object/%s%s/%s", g.baseURL, prefix, g.bucket, strings.Join(segments, "/"))
}

func (g *RESTGateway) agent(a *fiber.Agent) *fiber.Agent {
	g.mu.RLock()
	token := g.token
	g.mu.RUnlock()

	if token != "" {
		a.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	if g.timeout > 0 {
		a.Timeout(g.timeout)
	}
	return a
}

// do runs the request and decodes a 2xx body into out. Transport failures
// and 5xx responses are reported as failKind.
func (g *RESTGateway) do(ctx context.Context, a *fiber.Agent, out any, failKind error) error {
	if err := ctx.Err(); err != nil {
		fiber.ReleaseAgent(a)
		return fmt.Errorf("%w: %v", failKind, err)
	}

	code, body, errs := a.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("%w: %v", failKind, errs[0])
	}
	if code >= 200 && code < 300 {
		if out == nil || len(body) == 0 {
			return nil
		}
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("%w: decode response: %v", failKind, err)
		}
		return nil
	}
	return statusError(code, body, failKind)
}

func statusError(code int, body []byte, failKind error) error {
	var res struct {
		Error string `json:"error"`
	}
	msg := strings.TrimSpace(string(body))
	if json.Unmarshal(body, &res) == nil && res.Error != "" {
		msg = res.Error
	}

	var kind error
	switch code {
	case fiber.StatusBadRequest, fiber.StatusUnprocessableEntity, fiber.StatusRequestEntityTooLarge:
		kind = common_models.ErrValidation
	case fiber.StatusUnauthorized, fiber.StatusForbidden:
		kind = common_models.ErrPermission
	case fiber.StatusNotFound:
		kind = common_models.ErrNotFound
	case fiber.StatusConflict:
		kind = common_models.ErrUpload
	default:
		kind = failKind
	}
	return fmt.Errorf("%w: %d %s", kind, code, msg)
}
