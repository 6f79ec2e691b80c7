package netmon

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// Probe answers whether the backend is currently reachable.
type Probe interface {
	Check(ctx context.Context) bool
}

// HTTPProbe issues a HEAD request against a health endpoint. Any HTTP
// response counts as reachable, only transport errors mean offline.
type HTTPProbe struct {
	client *http.Client
	url    string
}

func NewHTTPProbe(url string, timeout time.Duration) *HTTPProbe {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPProbe{
		client: &http.Client{Timeout: timeout},
		url:    url,
	}
}

// ProbeURLFor derives a probe target from the configured backend base URL.
func ProbeURLFor(baseURL string) string {
	return strings.TrimRight(baseURL, "/") + "/health"
}

func (p *HTTPProbe) Check(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.url, nil)
	if err != nil {
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return true
}
