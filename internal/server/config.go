package server

import (
	"github.com/raysh454/trimetric/internal/logging"
	"github.com/raysh454/trimetric/internal/metrics"
)

type Config struct {
	// ListenAddr is the HTTP listen address for the API server.
	ListenAddr string

	// Metrics, when set, instruments requests and serves /metrics.
	Metrics *metrics.Metrics

	Logger logging.Logger
}
