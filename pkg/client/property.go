package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"staybook/pkg/cache"
	apperrors "staybook/pkg/errors"
	"staybook/pkg/logger"
	"staybook/pkg/model"
)

const propertyServiceName = "Property service"

// PropertyClient reads property records from the property service. Results
// are cached so listing enrichment does not hit the service on every read.
type PropertyClient struct {
	httpClient *HttpClient
	cache      cache.Cache[*model.Property]
	timeout    time.Duration
	log        *logger.Logger
}

func NewPropertyClient(baseURL string, timeout time.Duration, propertyCache cache.Cache[*model.Property], log *logger.Logger) *PropertyClient {
	return &PropertyClient{
		httpClient: NewHttpClient(baseURL, timeout),
		cache:      propertyCache,
		timeout:    timeout,
		log:        log,
	}
}

// GetProperty always asks the property service and refreshes the cache.
// A missing property is NotFound, a slow service is Timeout and any other
// failure is BadGateway.
func (c *PropertyClient) GetProperty(ctx context.Context, propertyID string) (*model.Property, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.httpClient.GET(ctx, "/api/properties/"+url.PathEscape(propertyID))
	if err != nil {
		if isTimeout(err) {
			return nil, apperrors.Timeout(fmt.Sprintf("%s did not answer in time", propertyServiceName))
		}
		return nil, apperrors.BadGateway(propertyServiceName, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, apperrors.NotFoundWithID("Property", propertyID)
	case resp.StatusCode != http.StatusOK:
		return nil, apperrors.BadGateway(propertyServiceName, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	var property model.Property
	if err := resp.DecodeJSON(&property); err != nil {
		return nil, apperrors.BadGateway(propertyServiceName, fmt.Errorf("failed to decode property: %w", err))
	}

	if c.cache != nil {
		c.cache.Set(ctx, propertyID, &property)
	}
	return &property, nil
}

// LookupProperty serves from the cache when it can. Used for display-only
// enrichment where a slightly stale record is fine.
func (c *PropertyClient) LookupProperty(ctx context.Context, propertyID string) (*model.Property, error) {
	if c.cache != nil {
		if property, ok := c.cache.Get(ctx, propertyID); ok {
			return property, nil
		}
	}
	return c.GetProperty(ctx, propertyID)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
