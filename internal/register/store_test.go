package register

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	dbtypes "github.com/kagisom/gatehouse/pkg/db/types"
	"github.com/kagisom/gatehouse/pkg/db/models"
	pkgerrors "github.com/kagisom/gatehouse/pkg/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupStoreDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	visitors := `
CREATE TABLE IF NOT EXISTS visitors (
  "idNumber" TEXT PRIMARY KEY,
  "fullName" TEXT NOT NULL,
  "cellNumber" TEXT NOT NULL,
  "lastSync" DATETIME NOT NULL,
  "createdAt" DATETIME,
  "updatedAt" DATETIME
);`
	visits := `
CREATE TABLE IF NOT EXISTS visits (
  "id" TEXT PRIMARY KEY,
  "visitorId" TEXT NOT NULL,
  "purpose" TEXT NOT NULL,
  "ingressTime" DATETIME NOT NULL,
  "egressTime" DATETIME,
  "items" TEXT NOT NULL DEFAULT '[]',
  "lastSync" DATETIME NOT NULL,
  "createdAt" DATETIME,
  "updatedAt" DATETIME
);`
	require.NoError(t, db.Exec(visitors).Error)
	require.NoError(t, db.Exec(visits).Error)
	return db
}

func seedVisitor(t *testing.T, store Store, idNumber, name string) *models.Visitor {
	t.Helper()
	visitor := &models.Visitor{IDNumber: idNumber, FullName: name, CellNumber: "0820000000"}
	require.NoError(t, store.PutVisitor(context.Background(), visitor))
	return visitor
}

func seedVisit(t *testing.T, store Store, visitorID string, ingress time.Time) *models.Visit {
	t.Helper()
	visit := &models.Visit{VisitorID: visitorID, Purpose: "Meeting", IngressTime: ingress}
	require.NoError(t, store.PutVisit(context.Background(), visit))
	return visit
}

func TestPutVisitorRoundTrip(t *testing.T) {
	store := NewStore(setupStoreDB(t))

	seedVisitor(t, store, "ID1", "Jane Doe")

	got, err := store.GetVisitor(context.Background(), "ID1")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", got.FullName)
	assert.Equal(t, "0820000000", got.CellNumber)
	assert.False(t, got.LastSync.IsZero())
}

func TestPutVisitorUpsertOverwrites(t *testing.T) {
	store := NewStore(setupStoreDB(t))
	ctx := context.Background()

	seedVisitor(t, store, "ID1", "Jane Doe")
	require.NoError(t, store.PutVisitor(ctx, &models.Visitor{
		IDNumber: "ID1", FullName: "Jane Smith", CellNumber: "0837777777",
	}))

	got, err := store.GetVisitor(ctx, "ID1")
	require.NoError(t, err)
	assert.Equal(t, "Jane Smith", got.FullName)
	assert.Equal(t, "0837777777", got.CellNumber)

	all, err := store.AllVisitors(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1, "upsert must not create a second row")
}

func TestGetVisitorNotFound(t *testing.T) {
	store := NewStore(setupStoreDB(t))

	_, err := store.GetVisitor(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestPutVisitAssignsIDAndDefaults(t *testing.T) {
	store := NewStore(setupStoreDB(t))
	ctx := context.Background()

	seedVisitor(t, store, "ID1", "Jane Doe")
	visit := seedVisit(t, store, "ID1", time.Now().UTC())

	assert.NotEqual(t, uuid.Nil, visit.ID, "id assigned on put")

	got, err := store.GetVisit(ctx, visit.ID)
	require.NoError(t, err)
	assert.Equal(t, "ID1", got.VisitorID)
	assert.NotNil(t, got.Items)
	assert.Empty(t, got.Items)
	assert.Nil(t, got.EgressTime)
	assert.False(t, got.LastSync.IsZero())
}

func TestPutVisitUpsertsByID(t *testing.T) {
	store := NewStore(setupStoreDB(t))
	ctx := context.Background()

	seedVisitor(t, store, "ID1", "Jane Doe")
	visit := seedVisit(t, store, "ID1", time.Now().UTC())

	replacement := *visit
	replacement.Purpose = "Delivery"
	require.NoError(t, store.PutVisit(ctx, &replacement))

	got, err := store.GetVisit(ctx, visit.ID)
	require.NoError(t, err)
	assert.Equal(t, "Delivery", got.Purpose)

	all, err := store.AllVisits(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestActiveVisits(t *testing.T) {
	store := NewStore(setupStoreDB(t))
	ctx := context.Background()

	seedVisitor(t, store, "ID1", "Jane Doe")
	active := seedVisit(t, store, "ID1", time.Now().UTC())
	closed := seedVisit(t, store, "ID1", time.Now().UTC().Add(-time.Hour))

	egress := time.Now().UTC()
	_, err := store.UpdateVisit(ctx, closed.ID, VisitPatch{EgressTime: &egress}, nil)
	require.NoError(t, err)

	visits, err := store.ActiveVisits(ctx)
	require.NoError(t, err)
	require.Len(t, visits, 1)
	assert.Equal(t, active.ID, visits[0].ID)
}

func TestVisitHistory(t *testing.T) {
	store := NewStore(setupStoreDB(t))
	ctx := context.Background()

	seedVisitor(t, store, "ID1", "Jane Doe")
	seedVisitor(t, store, "ID2", "Sam Nkosi")
	seedVisit(t, store, "ID1", time.Now().UTC())
	seedVisit(t, store, "ID1", time.Now().UTC().Add(-time.Hour))
	seedVisit(t, store, "ID2", time.Now().UTC())

	history, err := store.VisitHistory(ctx, "ID1")
	require.NoError(t, err)
	assert.Len(t, history, 2)
	for _, visit := range history {
		assert.Equal(t, "ID1", visit.VisitorID)
	}
}

func TestSearchVisitors(t *testing.T) {
	store := NewStore(setupStoreDB(t))
	ctx := context.Background()

	seedVisitor(t, store, "8001015009087", "Jane Doe")
	seedVisitor(t, store, "9202204800083", "Thabo Mokoena")

	byName, err := store.SearchVisitors(ctx, "jane")
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, "8001015009087", byName[0].IDNumber)

	byID, err := store.SearchVisitors(ctx, "920220")
	require.NoError(t, err)
	require.Len(t, byID, 1)
	assert.Equal(t, "Thabo Mokoena", byID[0].FullName)

	none, err := store.SearchVisitors(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestUpdateVisitPreservesIngressAndVisitor(t *testing.T) {
	store := NewStore(setupStoreDB(t))
	ctx := context.Background()

	seedVisitor(t, store, "ID1", "Jane Doe")
	ingress := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	visit := seedVisit(t, store, "ID1", ingress)

	purpose := "Interview"
	hostileIngress := ingress.Add(48 * time.Hour)
	hostileVisitor := "SOMEONE_ELSE"
	updated, err := store.UpdateVisit(ctx, visit.ID, VisitPatch{
		Purpose:     &purpose,
		IngressTime: &hostileIngress,
		VisitorID:   &hostileVisitor,
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, "Interview", updated.Purpose)
	assert.True(t, updated.IngressTime.Equal(ingress), "ingress time must survive any payload")
	assert.Equal(t, "ID1", updated.VisitorID, "visitor id must survive any payload")
}

func TestUpdateVisitEgressIsOneWay(t *testing.T) {
	store := NewStore(setupStoreDB(t))
	ctx := context.Background()

	seedVisitor(t, store, "ID1", "Jane Doe")
	visit := seedVisit(t, store, "ID1", time.Now().UTC().Add(-time.Hour))

	egress := time.Now().UTC()
	updated, err := store.UpdateVisit(ctx, visit.ID, VisitPatch{EgressTime: &egress}, nil)
	require.NoError(t, err)
	require.NotNil(t, updated.EgressTime)

	// A later edit without egress in the payload must not clear it.
	purpose := "Meeting (amended)"
	updated, err = store.UpdateVisit(ctx, visit.ID, VisitPatch{Purpose: &purpose}, nil)
	require.NoError(t, err)
	assert.NotNil(t, updated.EgressTime)
}

func TestUpdateVisitNotFound(t *testing.T) {
	store := NewStore(setupStoreDB(t))

	purpose := "Meeting"
	_, err := store.UpdateVisit(context.Background(), uuid.New(), VisitPatch{Purpose: &purpose}, nil)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestUpdateVisitVisitorWriteIsNotRolledBack(t *testing.T) {
	store := NewStore(setupStoreDB(t))
	ctx := context.Background()

	seedVisitor(t, store, "ID1", "Jane Doe")

	// The visitor upsert lands before the visit lookup; when the visit is
	// missing the visitor change survives. This is the documented
	// partial-failure window of the two-step write.
	purpose := "Interview"
	_, err := store.UpdateVisit(ctx, uuid.New(), VisitPatch{Purpose: &purpose}, &VisitorPatch{
		IDNumber: "ID1", FullName: "Jane Smith", CellNumber: "0837777777",
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	visitor, err := store.GetVisitor(ctx, "ID1")
	require.NoError(t, err)
	assert.Equal(t, "Jane Smith", visitor.FullName)
}

func TestUpdateVisitUpsertsVisitorFields(t *testing.T) {
	store := NewStore(setupStoreDB(t))
	ctx := context.Background()

	seedVisitor(t, store, "ID1", "Jane Doe")
	visit := seedVisit(t, store, "ID1", time.Now().UTC())

	purpose := "Audit"
	_, err := store.UpdateVisit(ctx, visit.ID, VisitPatch{Purpose: &purpose}, &VisitorPatch{
		IDNumber: "ID1", FullName: "Jane Smith", CellNumber: "0837777777",
	})
	require.NoError(t, err)

	visitor, err := store.GetVisitor(ctx, "ID1")
	require.NoError(t, err)
	assert.Equal(t, "Jane Smith", visitor.FullName)
	assert.Equal(t, "0837777777", visitor.CellNumber)
}

func TestUpdateVisitItemsReplacesList(t *testing.T) {
	store := NewStore(setupStoreDB(t))
	ctx := context.Background()

	seedVisitor(t, store, "ID1", "Jane Doe")
	visit := &models.Visit{
		VisitorID:   "ID1",
		Purpose:     "Meeting",
		IngressTime: time.Now().UTC(),
		Items: dbtypes.ItemList{
			{Name: "Laptop", Identifier: "SN123", Type: "company"},
			{Name: "Phone", Identifier: "IMEI1", Type: "personal"},
		},
	}
	require.NoError(t, store.PutVisit(ctx, visit))

	updated, err := store.UpdateVisitItems(ctx, visit.ID, dbtypes.ItemList{
		{Name: "Toolbox", Identifier: "TB-7", Type: "supply"},
	})
	require.NoError(t, err)
	require.Len(t, updated.Items, 1, "items are replaced, not merged")
	assert.Equal(t, "Toolbox", updated.Items[0].Name)

	_, err = store.UpdateVisitItems(ctx, uuid.New(), nil)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestRegistrationScenario(t *testing.T) {
	store := NewStore(setupStoreDB(t))
	ctx := context.Background()

	require.NoError(t, store.PutVisitor(ctx, &models.Visitor{
		IDNumber: "ID1", FullName: "Jane Doe", CellNumber: "0820000000",
	}))
	ingress := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	visit := &models.Visit{
		VisitorID:   "ID1",
		Purpose:     "Meeting",
		IngressTime: ingress,
		Items:       dbtypes.ItemList{{Name: "Laptop", Identifier: "SN123", Type: "company"}},
	}
	require.NoError(t, store.PutVisit(ctx, visit))

	all, err := store.AllVisits(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.True(t, all[0].Active())

	egress := ingress.Add(90 * time.Minute)
	updated, err := store.UpdateVisit(ctx, visit.ID, VisitPatch{EgressTime: &egress}, nil)
	require.NoError(t, err)
	assert.False(t, updated.Active())
	assert.Equal(t, 90*time.Minute, updated.EgressTime.Sub(updated.IngressTime))
}
