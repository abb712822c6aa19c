package webpush

import (
	"context"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/valyala/fasthttp"
)

// ErrEndpointGone means the push service reported the subscription as
// permanently dead (404 or 410). Callers should prune it.
var ErrEndpointGone = crerr.New("push endpoint gone")

// Sender delivers prepared push requests.
type Sender interface {
	Send(ctx context.Context, req Request) error
}

type fasthttpSender struct {
	client  *fasthttp.Client
	timeout time.Duration
}

func NewSender(timeout time.Duration) Sender {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &fasthttpSender{
		client: &fasthttp.Client{
			MaxIdleConnDuration: time.Minute,
			ReadBufferSize:      16 << 10,
		},
		timeout: timeout,
	}
}

func (s *fasthttpSender) Send(ctx context.Context, req Request) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	httpReq := fasthttp.AcquireRequest()
	httpResp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(httpReq)
	defer fasthttp.ReleaseResponse(httpResp)

	httpReq.SetRequestURI(req.URL)
	httpReq.Header.SetMethod(fasthttp.MethodPost)
	for name, value := range req.Headers {
		httpReq.Header.Set(name, value)
	}
	httpReq.SetBody(req.Body)

	if err := s.client.DoTimeout(httpReq, httpResp, s.timeout); err != nil {
		return crerr.Wrap(err, "deliver push")
	}

	status := httpResp.StatusCode()
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == fasthttp.StatusNotFound || status == fasthttp.StatusGone:
		return crerr.Wrapf(ErrEndpointGone, "status %d", status)
	default:
		return crerr.Newf("push service returned status %d", status)
	}
}
