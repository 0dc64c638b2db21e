package controllers

import (
	"net/http"
	"time"

	"github.com/kagisom/gatehouse/api/responses"
	"github.com/kagisom/gatehouse/api/validators"
	"github.com/kagisom/gatehouse/internal/authority"
	"github.com/kagisom/gatehouse/pkg/db/models"
	"github.com/kagisom/gatehouse/pkg/logger"
	"github.com/kagisom/gatehouse/pkg/types"
)

// SyncRequest is the agent's full-collection batch.
type SyncRequest struct {
	Visitors []models.Visitor `json:"visitors"`
	Visits   []models.Visit   `json:"visits"`
}

// Sync applies one reconciliation batch. The response keeps the flat
// success/message shape the agents already parse, not the data envelope the
// rest of the API uses.
func Sync(svc authority.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req SyncRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteJSON(w, http.StatusBadRequest, types.SyncResponse{
				Success: false,
				Message: "Error synchronizing data",
				Error:   err.Error(),
			})
			return
		}

		stamp, err := svc.SyncBatch(ctx, req.Visitors, req.Visits)
		if err != nil {
			if logg != nil {
				logg.Error(ctx, "sync.failed", err)
			}
			responses.WriteJSON(w, http.StatusInternalServerError, types.SyncResponse{
				Success: false,
				Message: "Error synchronizing data",
				Error:   err.Error(),
			})
			return
		}

		responses.WriteJSON(w, http.StatusOK, types.SyncResponse{
			Success:   true,
			Message:   "Data synchronized successfully",
			Timestamp: stamp.UTC().Format(time.RFC3339),
		})
	}
}
