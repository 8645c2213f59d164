package db

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

const pingTimeout = 5 * time.Second

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

type poolStatter interface {
	Stat() *pgxpool.Stat
}

// PoolStats is the subset of pgxpool statistics exposed on /health/db.
type PoolStats struct {
	Total    int32  `json:"total_conns"`
	Idle     int32  `json:"idle_conns"`
	InUse    int32  `json:"acquired_conns"`
	Max      int32  `json:"max_conns"`
	Acquires int64  `json:"acquire_count"`
	WaitTime string `json:"acquire_duration"`
}

// HealthReport is the /health/db response body.
type HealthReport struct {
	Status  string     `json:"status"`
	Latency string     `json:"latency"`
	Error   string     `json:"error,omitempty"`
	Pool    *PoolStats `json:"pool,omitempty"`
}

func statsOf(s *pgxpool.Stat) *PoolStats {
	return &PoolStats{
		Total:    s.TotalConns(),
		Idle:     s.IdleConns(),
		InUse:    s.AcquiredConns(),
		Max:      s.MaxConns(),
		Acquires: s.AcquireCount(),
		WaitTime: s.AcquireDuration().String(),
	}
}

// CheckHealth pings p and reports the round trip. Pool statistics are
// attached when p exposes them.
func CheckHealth(ctx context.Context, p Pinger) HealthReport {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	started := time.Now()
	err := p.Ping(ctx)
	report := HealthReport{Status: "healthy", Latency: time.Since(started).String()}
	if err != nil {
		report.Status = "unhealthy"
		report.Error = err.Error()
	}
	if s, ok := p.(poolStatter); ok {
		report.Pool = statsOf(s.Stat())
	}
	return report
}

// HealthHandler serves CheckHealth, answering 503 when the ping fails.
func HealthHandler(p Pinger) echo.HandlerFunc {
	return func(c echo.Context) error {
		report := CheckHealth(c.Request().Context(), p)
		if report.Error != "" {
			return c.JSON(http.StatusServiceUnavailable, report)
		}
		return c.JSON(http.StatusOK, report)
	}
}
