package instrumentation

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the metric instruments for the authorization server.
type Metrics struct {
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram

	LoginsTotal           metric.Int64Counter
	TokensIssuedTotal     metric.Int64Counter
	TokenValidationsTotal metric.Int64Counter

	RateLimitExceeded metric.Int64Counter
}

// newMetrics creates and registers all metric instruments.
func newMetrics(inst *Instrumentation) (*Metrics, error) {
	m := &Metrics{}
	httpMeter := inst.Meter("http")
	serverMeter := inst.Meter("server")
	securityMeter := inst.Meter("security")

	var err error
	m.HTTPRequestsTotal, err = httpMeter.Int64Counter(
		"oauth.http.requests.total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating http.requests.total counter: %w", err)
	}

	m.HTTPRequestDuration, err = httpMeter.Float64Histogram(
		"oauth.http.request.duration",
		metric.WithDescription("HTTP request duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating http.request.duration histogram: %w", err)
	}

	m.LoginsTotal, err = serverMeter.Int64Counter(
		"oauth.logins.total",
		metric.WithDescription("Number of resource owner login attempts"),
		metric.WithUnit("{login}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating logins.total counter: %w", err)
	}

	m.TokensIssuedTotal, err = serverMeter.Int64Counter(
		"oauth.tokens.issued.total",
		metric.WithDescription("Number of tokens issued, by grant type"),
		metric.WithUnit("{token}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating tokens.issued.total counter: %w", err)
	}

	m.TokenValidationsTotal, err = serverMeter.Int64Counter(
		"oauth.token.validations.total",
		metric.WithDescription("Number of bearer token validations"),
		metric.WithUnit("{validation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating token.validations.total counter: %w", err)
	}

	m.RateLimitExceeded, err = securityMeter.Int64Counter(
		"oauth.rate_limit.exceeded",
		metric.WithDescription("Number of requests rejected by rate limiting"),
		metric.WithUnit("{rejection}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating rate_limit.exceeded counter: %w", err)
	}

	return m, nil
}

// RecordHTTPRequest records a completed HTTP request.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, endpoint string, status int, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String(AttrHTTPEndpoint, endpoint),
		attribute.Int(AttrHTTPStatusCode, status),
	)
	m.HTTPRequestsTotal.Add(ctx, 1, attrs)
	m.HTTPRequestDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
}

// RecordLogin records a resource owner login attempt.
func (m *Metrics) RecordLogin(ctx context.Context, success bool) {
	m.LoginsTotal.Add(ctx, 1, metric.WithAttributes(attribute.Bool(AttrSuccess, success)))
}

// RecordTokenIssued records a minted token by grant type.
func (m *Metrics) RecordTokenIssued(ctx context.Context, grantType string) {
	m.TokensIssuedTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrGrantType, grantType)))
}

// RecordTokenValidation records a bearer token validation.
func (m *Metrics) RecordTokenValidation(ctx context.Context, valid bool) {
	m.TokenValidationsTotal.Add(ctx, 1, metric.WithAttributes(attribute.Bool(AttrSuccess, valid)))
}

// RecordRateLimitExceeded records a rate-limited request.
func (m *Metrics) RecordRateLimitExceeded(ctx context.Context, limitType string) {
	m.RateLimitExceeded.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrRateLimiterType, limitType)))
}
