package notifier

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mdobak/go-xerrors"
)

// Response bodies are ignored but drained up to this size so the
// connection can be reused.
const maxDrain = 4 << 10

type httpService struct {
	url     string
	timeout time.Duration
	client  *http.Client
}

// NewHTTP returns a notifier that issues a bodiless GET to url. Each call is
// bounded by timeout.
func NewHTTP(url string, timeout time.Duration) IService {
	return &httpService{
		url:     url,
		timeout: timeout,
		client:  &http.Client{Timeout: timeout},
	}
}

func (svc *httpService) Notify(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, svc.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, svc.url, nil)
	if err != nil {
		return xerrors.New(fmt.Sprintf("building trigger request for %s", svc.url), err)
	}

	resp, err := svc.client.Do(req)
	if err != nil {
		return xerrors.New(fmt.Sprintf("calling %s", svc.url), err)
	}
	defer resp.Body.Close()

	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrain))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return xerrors.New(fmt.Sprintf("calling %s: unexpected status %s", svc.url, resp.Status))
	}

	return nil
}

func (svc *httpService) Target() string {
	return svc.url
}

func (svc *httpService) Close() error {
	svc.client.CloseIdleConnections()
	return nil
}
