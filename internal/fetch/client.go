// Package fetch retrieves measurement pages from the SensorFor cloud API.
//
// One call per device: GET <api_url>?id=00<device_id>&ln=<lines>&zm=<zoom>.
// The body is plain text, one record per line, newest first. The client
// does not retry; retry policy belongs to the caller.
package fetch

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/sensorfor/downloader/internal/sensor"
)

// Client calls the measurement endpoint.
type Client struct {
	httpClient *resty.Client
	url        string
	logger     *zap.Logger
}

// NewClient creates a client for the endpoint at url.
func NewClient(url string, timeout time.Duration, logger *zap.Logger) *Client {
	httpClient := resty.New().
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Accept", "text/plain")

	return &Client{
		httpClient: httpClient,
		url:        url,
		logger:     logger,
	}
}

// Fetch downloads up to lines records for the device at the given zoom
// level. lines must not exceed the API maximum; this is checked when the
// configuration is loaded.
//
// Every failure is a *sensor.FetchError. Transport errors and 5xx responses
// are marked temporary.
func (c *Client) Fetch(ctx context.Context, device sensor.Device, lines, zoom int) ([]sensor.RawRecord, error) {
	c.logger.Debug("calling measurement API",
		zap.String("device_id", device.ID),
		zap.Int("lines", lines),
		zap.Int("zoom", zoom),
	)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"id": "00" + device.ID,
			"ln": strconv.Itoa(lines),
			"zm": strconv.Itoa(zoom),
		}).
		Get(c.url)
	if err != nil {
		return nil, &sensor.FetchError{DeviceID: device.ID, Temporary: true, Err: err}
	}

	if resp.IsError() {
		return nil, &sensor.FetchError{
			DeviceID:  device.ID,
			Temporary: resp.StatusCode() >= http.StatusInternalServerError,
			Err:       fmt.Errorf("unexpected status %s", resp.Status()),
		}
	}

	records, skipped, err := ParseBody(resp.String())
	if err != nil {
		return nil, &sensor.FetchError{DeviceID: device.ID, Err: err}
	}
	if skipped > 0 {
		c.logger.Debug("skipped unparseable lines",
			zap.String("device_id", device.ID),
			zap.Int("skipped", skipped),
		)
	}

	c.logger.Debug("measurement API returned records",
		zap.String("device_id", device.ID),
		zap.Int("records", len(records)),
	)
	return records, nil
}
