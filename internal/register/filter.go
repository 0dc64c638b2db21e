package register

import (
	"context"
	"sort"
	"strings"

	"github.com/kagisom/gatehouse/pkg/db/models"
	"github.com/kagisom/gatehouse/pkg/logger"
)

// StatusFilter narrows a visit listing by egress state.
type StatusFilter string

const (
	StatusAll      StatusFilter = "all"
	StatusActive   StatusFilter = "active"
	StatusEgressed StatusFilter = "egressed"
)

// ParseStatusFilter maps the wire value onto a filter, defaulting to all.
func ParseStatusFilter(value string) StatusFilter {
	switch StatusFilter(strings.ToLower(strings.TrimSpace(value))) {
	case StatusActive:
		return StatusActive
	case StatusEgressed:
		return StatusEgressed
	default:
		return StatusAll
	}
}

// VisitRow is a visit joined with its visitor for listing.
type VisitRow struct {
	Visit   models.Visit   `json:"visit"`
	Visitor models.Visitor `json:"visitor"`
}

// JoinVisitors pairs each visit with its visitor. Visits whose visitor is
// missing locally are skipped with a warning; a half-synced store must still
// render the rest of the list.
func JoinVisitors(ctx context.Context, visits []models.Visit, visitors []models.Visitor, logg *logger.Logger) []VisitRow {
	byID := make(map[string]models.Visitor, len(visitors))
	for _, visitor := range visitors {
		byID[visitor.IDNumber] = visitor
	}

	rows := make([]VisitRow, 0, len(visits))
	for _, visit := range visits {
		visitor, ok := byID[visit.VisitorID]
		if !ok {
			if logg != nil {
				logCtx := logg.WithVisitID(ctx, visit.ID.String())
				logCtx = logg.WithVisitorID(logCtx, visit.VisitorID)
				logg.Warn(logCtx, "visit has no local visitor record; skipping row")
			}
			continue
		}
		rows = append(rows, VisitRow{Visit: visit, Visitor: visitor})
	}
	return rows
}

// FilterVisits applies the status filter and the free-text filter (both
// compose), then sorts by ingress time descending. The sort is stable, so
// equal ingress times keep their incoming order. An empty result is a valid
// outcome, not an error.
func FilterVisits(rows []VisitRow, status StatusFilter, query string) []VisitRow {
	filtered := make([]VisitRow, 0, len(rows))
	needle := strings.ToLower(strings.TrimSpace(query))

	for _, row := range rows {
		if !matchesStatus(row.Visit, status) {
			continue
		}
		if needle != "" && !matchesQuery(row.Visitor, needle) {
			continue
		}
		filtered = append(filtered, row)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Visit.IngressTime.After(filtered[j].Visit.IngressTime)
	})
	return filtered
}

func matchesStatus(visit models.Visit, status StatusFilter) bool {
	switch status {
	case StatusActive:
		return visit.Active()
	case StatusEgressed:
		return !visit.Active()
	default:
		return true
	}
}

func matchesQuery(visitor models.Visitor, needle string) bool {
	return strings.Contains(strings.ToLower(visitor.FullName), needle) ||
		strings.Contains(strings.ToLower(visitor.IDNumber), needle) ||
		strings.Contains(strings.ToLower(visitor.CellNumber), needle)
}
