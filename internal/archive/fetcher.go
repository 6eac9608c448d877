package archive

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "datalab/internal/errors"
	"datalab/internal/infrastructure"
)

// DefaultTimeout bounds a whole archive download
const DefaultTimeout = 10 * time.Second

// Fetcher downloads dataset archives over HTTP(S)
type Fetcher struct {
	client   *resty.Client
	logger   *slog.Logger
	metrics  *infrastructure.Metrics
	attempts atomic.Int64
}

// NewFetcher creates a fetcher with a fixed request timeout. A zero timeout
// selects DefaultTimeout. metrics may be nil.
func NewFetcher(timeout time.Duration, logger *slog.Logger, metrics *infrastructure.Metrics) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("User-Agent", infrastructure.ServiceName+"/"+infrastructure.ServiceVersion)
	instrument(client, infrastructure.Tracer(infrastructure.TracerName))

	return &Fetcher{
		client:  client,
		logger:  infrastructure.WithComponent(logger, "fetcher"),
		metrics: metrics,
	}
}

// Attempts returns how many downloads this fetcher has started
func (f *Fetcher) Attempts() int {
	return int(f.attempts.Load())
}

// Fetch downloads url into dir/archiveName, creating dir if needed, and
// returns the archive path. Transport failures, timeouts, non-2xx statuses
// and failures to write the archive are all network errors. The archive file
// is only created once a 2xx response has arrived.
func (f *Fetcher) Fetch(ctx context.Context, url, dir, archiveName string) (string, error) {
	f.attempts.Add(1)
	f.metrics.IncFetchAttempts()

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", apperrors.NewNetworkError("failed to create download directory", err).
			WithContext("dir", dir)
	}
	dest := filepath.Join(dir, archiveName)

	f.logger.InfoContext(ctx, "Downloading dataset archive",
		slog.String("url", url),
		slog.String("dest", dest))
	start := time.Now()

	resp, err := f.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(url)
	if err != nil {
		return "", apperrors.NewNetworkError("download failed", err).WithContext("url", url)
	}
	body := resp.RawBody()
	defer body.Close()

	if !resp.IsSuccess() {
		return "", apperrors.NewNetworkError(
			fmt.Sprintf("download failed with status: %d", resp.StatusCode()), nil).
			WithContext("url", url)
	}

	out, err := os.Create(dest)
	if err != nil {
		return "", apperrors.NewNetworkError("failed to create archive file", err).
			WithContext("path", dest)
	}

	written, err := io.Copy(out, body)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		// The partial archive is left in place; extraction will reject it
		return "", apperrors.NewNetworkError("download interrupted", err).WithContext("url", url)
	}

	f.logger.InfoContext(ctx, "Downloaded dataset archive",
		slog.String("dest", dest),
		slog.Int64("bytes", written),
		slog.Duration("duration", time.Since(start)))

	return dest, nil
}

// instrument wraps every request of client in a client span
func instrument(client *resty.Client, tracer trace.Tracer) {
	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		ctx, _ := tracer.Start(req.Context(), "http "+req.Method, trace.WithSpanKind(trace.SpanKindClient))
		req.SetContext(ctx)
		return nil
	})
	client.OnAfterResponse(func(_ *resty.Client, res *resty.Response) error {
		span := trace.SpanFromContext(res.Request.Context())
		defer span.End()

		span.SetAttributes(
			attribute.String("http.method", res.Request.Method),
			attribute.String("http.url", res.Request.URL),
			attribute.Int("http.status_code", res.StatusCode()),
		)
		if !res.IsSuccess() {
			span.SetStatus(codes.Error, res.Status())
		}
		return nil
	})
	client.OnError(func(req *resty.Request, err error) {
		span := trace.SpanFromContext(req.Context())
		defer span.End()

		span.SetAttributes(
			attribute.String("http.method", req.Method),
			attribute.String("http.url", req.URL),
		)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	})
}
