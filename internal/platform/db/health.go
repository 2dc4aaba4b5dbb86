package db

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

// healthReport is the /health response body. Load balancers act on the status
// code alone; the pool numbers are for operators reading the probe by hand.
type healthReport struct {
	Status   string         `json:"status"`
	Database databaseHealth `json:"database"`
}

type databaseHealth struct {
	Connected bool   `json:"connected"`
	InUse     int32  `json:"in_use"`
	Idle      int32  `json:"idle"`
	Max       int32  `json:"max"`
	Error     string `json:"error,omitempty"`
}

// HealthHandler answers liveness probes. The ping runs under a short deadline
// so a stuck pool turns the probe red instead of hanging it.
func HealthHandler(pool *pgxpool.Pool) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()

		stat := pool.Stat()
		report := healthReport{
			Status: "ok",
			Database: databaseHealth{
				Connected: true,
				InUse:     stat.AcquiredConns(),
				Idle:      stat.IdleConns(),
				Max:       stat.MaxConns(),
			},
		}

		if err := pool.Ping(ctx); err != nil {
			report.Status = "unavailable"
			report.Database.Connected = false
			report.Database.Error = err.Error()
			return c.JSON(http.StatusServiceUnavailable, report)
		}
		return c.JSON(http.StatusOK, report)
	}
}
