package infra

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/tnqbao/gau-feed-service"

type Metrics struct {
	FeedsCreated   metric.Int64Counter
	ImagesUploaded metric.Int64Counter
	UploadBytes    metric.Int64Counter
	OrphanedImages metric.Int64Counter
}

// InitMetrics registers counters on the global meter provider, so it must run
// after InitTelemetryClient.
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)

	feedsCreated, err := meter.Int64Counter("feed.created",
		metric.WithDescription("Feeds created"))
	if err != nil {
		return nil, fmt.Errorf("create feed.created counter: %w", err)
	}

	imagesUploaded, err := meter.Int64Counter("image.uploaded",
		metric.WithDescription("Images uploaded"))
	if err != nil {
		return nil, fmt.Errorf("create image.uploaded counter: %w", err)
	}

	uploadBytes, err := meter.Int64Counter("image.upload.bytes",
		metric.WithDescription("Bytes written to image storage"),
		metric.WithUnit("By"))
	if err != nil {
		return nil, fmt.Errorf("create image.upload.bytes counter: %w", err)
	}

	orphaned, err := meter.Int64Counter("image.orphaned",
		metric.WithDescription("Stored objects left without a metadata row"))
	if err != nil {
		return nil, fmt.Errorf("create image.orphaned counter: %w", err)
	}

	return &Metrics{
		FeedsCreated:   feedsCreated,
		ImagesUploaded: imagesUploaded,
		UploadBytes:    uploadBytes,
		OrphanedImages: orphaned,
	}, nil
}
