package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kagisom/gatehouse/api/responses"
	"github.com/kagisom/gatehouse/api/validators"
	"github.com/kagisom/gatehouse/internal/register"
	dbtypes "github.com/kagisom/gatehouse/pkg/db/types"
	pkgerrors "github.com/kagisom/gatehouse/pkg/errors"
	"github.com/kagisom/gatehouse/pkg/logger"
)

func visitID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid visit id")
	}
	return id, nil
}

// ListVisits renders the register view: every visit joined with its visitor,
// narrowed by ?status= and ?q=, newest ingress first.
func ListVisits(store register.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		visits, err := store.AllVisits(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		visitors, err := store.AllVisitors(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		rows := register.JoinVisitors(ctx, visits, visitors, logg)
		rows = register.FilterVisits(rows,
			register.ParseStatusFilter(r.URL.Query().Get("status")),
			r.URL.Query().Get("q"))
		if rows == nil {
			rows = []register.VisitRow{}
		}
		responses.WriteSuccess(w, rows)
	}
}

func GetVisit(store register.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, err := visitID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		visit, err := store.GetVisit(ctx, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, visit)
	}
}

// UpdateVisitRequest is a merge patch. Egress true stamps the egress time
// with the server clock, matching the card tap at the exit gate; an explicit
// egressTime is honored as sent. ingressTime and visitorId are accepted on
// the wire but never applied.
type UpdateVisitRequest struct {
	register.VisitPatch
	Egress  bool                   `json:"egress,omitempty"`
	Visitor *register.VisitorPatch `json:"visitor,omitempty"`
}

func UpdateVisit(store register.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, err := visitID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var req UpdateVisitRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if req.Egress && req.EgressTime == nil {
			now := time.Now().UTC()
			req.EgressTime = &now
		}

		visit, err := store.UpdateVisit(ctx, id, req.VisitPatch, req.Visitor)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if logg != nil {
			ctx = logg.WithVisitID(ctx, id.String())
			logg.Info(ctx, "visit updated")
		}
		responses.WriteSuccess(w, visit)
	}
}

// UpdateVisitItemsRequest replaces the whole carried-items list. An empty
// list is a valid replacement; a missing key is not.
type UpdateVisitItemsRequest struct {
	Items *dbtypes.ItemList `json:"items"`
}

func UpdateVisitItems(store register.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, err := visitID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var req UpdateVisitItemsRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if req.Items == nil {
			responses.WriteError(ctx, logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "items is required"))
			return
		}

		visit, err := store.UpdateVisitItems(ctx, id, *req.Items)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, visit)
	}
}
