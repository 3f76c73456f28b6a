package db

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"

	"github.com/phr/phr/pkg/api"
)

// Health is the payload of the database readiness endpoint: reachability
// plus enough pool pressure detail to spot connection exhaustion.
type Health struct {
	Status       string `json:"status"`
	Conns        int32  `json:"conns"`
	IdleConns    int32  `json:"idle_conns"`
	MaxConns     int32  `json:"max_conns"`
	WaitCount    int64  `json:"wait_count"`
	WaitDuration string `json:"wait_duration"`
}

func poolHealth(pool *pgxpool.Pool) Health {
	s := pool.Stat()
	return Health{
		Status:       "ok",
		Conns:        s.TotalConns(),
		IdleConns:    s.IdleConns(),
		MaxConns:     s.MaxConns(),
		WaitCount:    s.EmptyAcquireCount(),
		WaitDuration: s.AcquireDuration().String(),
	}
}

// HealthHandler pings the database and reports pool statistics inside
// the standard response envelope. A failed ping answers 503 so
// orchestrators stop routing traffic to this instance.
func HealthHandler(pool *pgxpool.Pool) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
		defer cancel()

		if err := pool.Ping(ctx); err != nil {
			h := poolHealth(pool)
			h.Status = "unreachable"
			return c.JSON(http.StatusServiceUnavailable, api.Envelope{
				Success: false,
				Data:    h,
				Error:   err.Error(),
			})
		}
		return api.OK(c, http.StatusOK, poolHealth(pool))
	}
}
