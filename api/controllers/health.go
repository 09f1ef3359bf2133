package controllers

import (
	"context"
	"net/http"

	"github.com/dmarchetti/orchard-backend/api/responses"
	pkgerrors "github.com/dmarchetti/orchard-backend/pkg/errors"
	"github.com/dmarchetti/orchard-backend/pkg/logger"
)

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthController struct {
	db    Pinger
	cache Pinger
	logg  *logger.Logger
}

func NewHealthController(db, cache Pinger, logg *logger.Logger) *HealthController {
	return &HealthController{db: db, cache: cache, logg: logg}
}

func (c *HealthController) Live(w http.ResponseWriter, r *http.Request) {
	responses.WriteSuccess(w, map[string]string{"status": "live"})
}

func (c *HealthController) Ready(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if c.db != nil {
		if err := c.db.Ping(ctx); err != nil {
			responses.WriteError(ctx, c.logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "database unreachable"))
			return
		}
	}
	if c.cache != nil {
		if err := c.cache.Ping(ctx); err != nil {
			responses.WriteError(ctx, c.logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "cache unreachable"))
			return
		}
	}

	responses.WriteSuccess(w, map[string]string{"status": "ready"})
}
