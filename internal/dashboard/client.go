// Package dashboard is the typed client for the sales dashboard backend.
// Reads return validated values; mutations follow the write-then-reread
// protocol in coordinator.go.
package dashboard

import (
	"context"
	"log/slog"

	"github.com/johnwards/dashgate/internal/contract"
	"github.com/johnwards/dashgate/internal/gateway"
)

// Resource paths, relative to the API base URL.
const (
	PathKPI                    = "/dashboard/kpi"
	PathPipeline               = "/dashboard/pipeline"
	PathNextActions            = "/opportunities/next-actions"
	PathDealHealth             = "/analytics/deal-health"
	PathForecast               = "/analytics/forecast"
	PathLossReasons            = "/analytics/loss-reasons"
	PathDuplicates             = "/analytics/duplicates"
	PathIntegrationConnections = "/integrations/connections"
	PathIntegrationEvents      = "/integrations/events"
	PathApprovals              = "/approvals"
)

// Transport is the gateway surface the client needs. *gateway.Gateway
// satisfies it.
type Transport interface {
	Get(ctx context.Context, path string) (any, error)
	Mutate(ctx context.Context, path string, m gateway.Method, body any) error
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger used for stale-read warnings.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// Client reads and mutates dashboard resources.
type Client struct {
	t      Transport
	logger *slog.Logger
}

// New returns a Client over t.
func New(t Transport, opts ...Option) *Client {
	c := &Client{t: t, logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// read fetches path and decodes it with decode. Errors are returned as the
// gateway or decoder produced them.
func read[T any](ctx context.Context, t Transport, path string, decode func(any) (T, error)) (T, error) {
	raw, err := t.Get(ctx, path)
	if err != nil {
		var zero T
		return zero, err
	}
	return decode(raw)
}

// KPI returns the latest KPI snapshot.
func (c *Client) KPI(ctx context.Context) (contract.KPISnapshot, error) {
	return read(ctx, c.t, PathKPI, contract.KPI.Decode)
}

// Pipeline returns the open pipeline aggregated by stage.
func (c *Client) Pipeline(ctx context.Context) ([]contract.PipelineStage, error) {
	return read(ctx, c.t, PathPipeline, contract.Pipeline.DecodeList)
}

// NextActions returns opportunities with scheduled follow-ups.
func (c *Client) NextActions(ctx context.Context) ([]contract.NextAction, error) {
	return read(ctx, c.t, PathNextActions, contract.NextActions.DecodeList)
}

// DealHealth returns health scores for open deals.
func (c *Client) DealHealth(ctx context.Context) ([]contract.DealHealth, error) {
	return read(ctx, c.t, PathDealHealth, contract.DealHealthList.DecodeList)
}

// Forecast returns forecast buckets per owner and month.
func (c *Client) Forecast(ctx context.Context) ([]contract.ForecastRow, error) {
	return read(ctx, c.t, PathForecast, contract.Forecast.DecodeList)
}

// LossReasons returns closed-lost totals per reason.
func (c *Client) LossReasons(ctx context.Context) ([]contract.LossReason, error) {
	return read(ctx, c.t, PathLossReasons, contract.LossReasons.DecodeList)
}

// Duplicates returns candidate duplicate record pairs.
func (c *Client) Duplicates(ctx context.Context) ([]contract.DuplicateRecord, error) {
	return read(ctx, c.t, PathDuplicates, contract.Duplicates.DecodeList)
}

// IntegrationConnections returns the tenant's provider connections.
func (c *Client) IntegrationConnections(ctx context.Context) ([]contract.IntegrationConnection, error) {
	return read(ctx, c.t, PathIntegrationConnections, contract.IntegrationConnections.DecodeList)
}

// IntegrationEvents returns received provider events.
func (c *Client) IntegrationEvents(ctx context.Context) ([]contract.IntegrationEvent, error) {
	return read(ctx, c.t, PathIntegrationEvents, contract.IntegrationEvents.DecodeList)
}

// Approvals returns approval requests.
func (c *Client) Approvals(ctx context.Context) ([]contract.Approval, error) {
	return read(ctx, c.t, PathApprovals, contract.Approvals.DecodeList)
}
