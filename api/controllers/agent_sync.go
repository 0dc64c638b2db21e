package controllers

import (
	"net/http"

	"github.com/kagisom/gatehouse/api/responses"
	"github.com/kagisom/gatehouse/internal/reconcile"
	"github.com/kagisom/gatehouse/pkg/logger"
)

// RunSync triggers an immediate push and reports its outcome alongside the
// loop status, so the desk UI can show "synced just now" or the failure.
func RunSync(runner *reconcile.Runner, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		err := runner.RunNow(ctx)
		if err != nil && logg != nil {
			logg.Warn(ctx, "manual sync failed: "+err.Error())
		}
		responses.WriteSuccess(w, map[string]any{
			"synced": err == nil,
			"status": runner.Status(),
		})
	}
}

func SyncStatus(runner *reconcile.Runner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, runner.Status())
	}
}
