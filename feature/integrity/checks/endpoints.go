package checks

import (
	"context"
	"errors"

	"conduit-sync/core/dataprovider"

	"go.uber.org/zap"
)

// Checker is implemented by providers that can verify their backing store.
type Checker interface {
	Check(ctx context.Context) error
}

// Fixer is implemented by providers that can create their backing store.
type Fixer interface {
	Fix(ctx context.Context) error
}

// Endpoint is one side of a conduit.
type Endpoint struct {
	Conduit  string
	Side     string
	Provider dataprovider.Provider
}

// Endpoint statuses.
const (
	StatusOK            = "ok"
	StatusError         = "error"
	StatusNotConfigured = "not_configured"
	StatusUnchecked     = "unchecked"
)

// EndpointReport is the health of one endpoint.
type EndpointReport struct {
	Conduit string `json:"conduit"`
	Side    string `json:"side"`
	UID     string `json:"uid"`
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
	Fixed   bool   `json:"fixed,omitempty"`
}

// CheckEndpoints checks the reachability of every endpoint.
func CheckEndpoints(ctx context.Context, endpoints []Endpoint) []EndpointReport {
	reports := make([]EndpointReport, 0, len(endpoints))
	for _, e := range endpoints {
		reports = append(reports, checkEndpoint(ctx, e))
	}
	return reports
}

// FixEndpoints creates the backing store of failing endpoints that support it
// and checks them again.
func FixEndpoints(ctx context.Context, endpoints []Endpoint, logger *zap.Logger) []EndpointReport {
	reports := make([]EndpointReport, 0, len(endpoints))
	for _, e := range endpoints {
		r := checkEndpoint(ctx, e)
		fixer, ok := e.Provider.(Fixer)
		if r.Status != StatusError || !ok {
			reports = append(reports, r)
			continue
		}

		if err := fixer.Fix(ctx); err != nil {
			logger.Error("Failed to fix endpoint", zap.String("uid", r.UID), zap.Error(err))
			r.Error = err.Error()
			reports = append(reports, r)
			continue
		}
		logger.Info("Fixed endpoint", zap.String("conduit", e.Conduit), zap.String("uid", r.UID))

		r = checkEndpoint(ctx, e)
		r.Fixed = r.Status == StatusOK
		reports = append(reports, r)
	}
	return reports
}

func checkEndpoint(ctx context.Context, e Endpoint) EndpointReport {
	r := EndpointReport{Conduit: e.Conduit, Side: e.Side, UID: e.Provider.UID(), Status: StatusOK}

	checker, ok := e.Provider.(Checker)
	if !ok {
		r.Status = StatusUnchecked
		return r
	}
	if err := checker.Check(ctx); err != nil {
		r.Status = StatusError
		if errors.Is(err, dataprovider.ErrNotConfigured) {
			r.Status = StatusNotConfigured
		}
		r.Error = err.Error()
	}
	return r
}
