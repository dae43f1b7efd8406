package revalidate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/inkwell-cms/backend/internal/domain"
	"github.com/inkwell-cms/backend/internal/metrics"
)

// Request is the wire body of one outbound revalidation call.
// Either Path or Tag is set, never both — one call per target, so a single
// slow or failing target cannot take the others down with it.
type Request struct {
	Secret string `json:"secret"`
	Path   string `json:"path,omitempty"`
	Tag    string `json:"tag,omitempty"`
}

// Config carries the cascade's construction-time settings. The secret and
// endpoint are loaded once at process start and immutable thereafter.
type Config struct {
	// Endpoint is the base URL of the render tier, e.g. "http://localhost:3000".
	// The cascade POSTs to Endpoint + "/api/revalidate".
	Endpoint string
	// Secret authorizes the calls; must match the endpoint's configured secret.
	Secret string
	// Timeout bounds each outbound call. Defaults to 3s.
	Timeout time.Duration
}

// Cascade delivers invalidation targets to the revalidation endpoint.
//
// Dispatch is fire-and-forget: it returns before any call completes, and
// delivery failures are logged and counted but never surfaced to the caller.
// The write path must not block on, or even observe, cache invalidation.
type Cascade struct {
	endpoint string
	secret   string
	timeout  time.Duration
	client   *http.Client
	log      *slog.Logger

	wg sync.WaitGroup
}

// New constructs a Cascade. Pass nil for client to use a default one;
// per-call timeouts are applied via context, not the client.
func New(cfg Config, client *http.Client, log *slog.Logger) *Cascade {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 3 * time.Second
	}
	if client == nil {
		client = &http.Client{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Cascade{
		endpoint: cfg.Endpoint,
		secret:   cfg.Secret,
		timeout:  cfg.Timeout,
		client:   client,
		log:      log,
	}
}

// Dispatch computes the invalidation set for (prev → next) and launches one
// detached delivery per target. It returns immediately.
//
// The deliveries run on fresh contexts: canceling the request that triggered
// the write must not cancel in-flight invalidations. Within this one
// invocation the old-path/new-path decision is made from the (prev, next)
// snapshot alone; across invocations no ordering is enforced, because
// re-invalidating a fresh entry is harmless — only a missed old path is a bug.
func (c *Cascade) Dispatch(next domain.Post, prev *domain.Post) {
	for _, target := range Targets(next, prev) {
		c.wg.Add(1)
		go func(t Target) {
			defer c.wg.Done()
			c.deliver(t)
		}(target)
	}
}

// Drain blocks until every in-flight delivery has finished. Used by tests
// and by graceful shutdown; never called on the write path.
func (c *Cascade) Drain() {
	c.wg.Wait()
}

// deliver makes the single outbound call for one target. At most one attempt;
// retries, if ever wanted, belong to the endpoint or a delivery system.
func (c *Cascade) deliver(t Target) {
	req := Request{Secret: c.secret}
	switch t.Kind {
	case KindPath:
		req.Path = t.Value
	case KindTag:
		req.Tag = t.Value
	}

	err := c.post(req)
	if err != nil {
		metrics.CascadeDispatches.WithLabelValues(string(t.Kind), "error").Inc()
		c.log.Warn("revalidation delivery failed",
			"kind", t.Kind,
			"target", t.Value,
			"error", err,
		)
		return
	}
	metrics.CascadeDispatches.WithLabelValues(string(t.Kind), "ok").Inc()
}

func (c *Cascade) post(body Request) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("revalidate.Cascade: marshal: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/api/revalidate", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("revalidate.Cascade: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("revalidate.Cascade: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("revalidate.Cascade: endpoint returned %d", resp.StatusCode)
	}
	return nil
}
