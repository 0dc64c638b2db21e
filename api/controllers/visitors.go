package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kagisom/gatehouse/api/responses"
	"github.com/kagisom/gatehouse/api/validators"
	"github.com/kagisom/gatehouse/internal/register"
	"github.com/kagisom/gatehouse/pkg/db/models"
	dbtypes "github.com/kagisom/gatehouse/pkg/db/types"
	"github.com/kagisom/gatehouse/pkg/logger"
)

// RegisterVisitorRequest signs a visitor in at the desk: the visitor record
// is upserted and an open visit is created in the same call.
type RegisterVisitorRequest struct {
	IDNumber   string           `json:"idNumber" validate:"required"`
	FullName   string           `json:"fullName" validate:"required"`
	CellNumber string           `json:"cellNumber" validate:"required"`
	Purpose    string           `json:"purpose" validate:"required"`
	Items      dbtypes.ItemList `json:"items"`
}

func RegisterVisitor(store register.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req RegisterVisitorRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		now := time.Now().UTC()
		visitor := models.Visitor{
			IDNumber:   req.IDNumber,
			FullName:   req.FullName,
			CellNumber: req.CellNumber,
			LastSync:   now,
		}
		if err := store.PutVisitor(ctx, &visitor); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		items := req.Items
		if items == nil {
			items = dbtypes.ItemList{}
		}
		visit := models.Visit{
			VisitorID:   req.IDNumber,
			Purpose:     req.Purpose,
			IngressTime: now,
			Items:       items,
			LastSync:    now,
		}
		if err := store.PutVisit(ctx, &visit); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if logg != nil {
			ctx = logg.WithVisitorID(ctx, visitor.IDNumber)
			ctx = logg.WithVisitID(ctx, visit.ID.String())
			logg.Info(ctx, "visitor signed in")
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{
			"visitor": visitor,
			"visit":   visit,
		})
	}
}

func GetVisitor(store register.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		visitor, err := store.GetVisitor(ctx, chi.URLParam(r, "idNumber"))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, visitor)
	}
}

func SearchVisitors(store register.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		visitors, err := store.SearchVisitors(ctx, r.URL.Query().Get("q"))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if visitors == nil {
			visitors = []models.Visitor{}
		}
		responses.WriteSuccess(w, visitors)
	}
}

func VisitorHistory(store register.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		idNumber := chi.URLParam(r, "idNumber")

		if _, err := store.GetVisitor(ctx, idNumber); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		visits, err := store.VisitHistory(ctx, idNumber)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if visits == nil {
			visits = []models.Visit{}
		}
		responses.WriteSuccess(w, visits)
	}
}
