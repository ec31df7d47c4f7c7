package sectorstore_test

import (
	"errors"
	"testing"
	"time"

	sectorstore "github.com/dalemusser/folioadmin/internal/app/store/sectors"
	"github.com/dalemusser/folioadmin/internal/domain/models"
	"github.com/dalemusser/folioadmin/internal/testutil"
	"github.com/jonboulle/clockwork"
)

var now = time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)

func newStore(t *testing.T) (*sectorstore.Store, *testutil.FakeBackend) {
	t.Helper()
	be := testutil.NewFakeBackend()
	return sectorstore.NewWithClock(be, clockwork.NewFakeClockAt(now)), be
}

func sampleForm() models.SectorForm {
	return models.SectorForm{
		ID:               " healthcare ",
		Title:            "Healthcare",
		Description:      "Clinics and hospitals",
		Services:         "Audits\nIntegrations",
		HeroTitle:        "Care, connected",
		LongDescription:  "<p>Long form</p>",
		Highlights:       "HIPAA\n\nHL7",
		TechStack:        "Go\nPostgres",
		CaseStudyTitle:   "Regional network",
		CaseStudyResults: "40% faster intake",
		CTAText:          "Book a call",
	}
}

func TestStore_CreateAndGet(t *testing.T) {
	store, _ := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, sampleForm().Sector())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ID != "healthcare" {
		t.Errorf("ID: got %q, want %q", created.ID, "healthcare")
	}
	if !created.CreatedAt.Equal(now) {
		t.Errorf("CreatedAt: got %v, want %v", created.CreatedAt, now)
	}

	got, err := store.GetByID(ctx, "healthcare")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Content.CaseStudy.Title != "Regional network" || got.Content.CaseStudy.Results != "40% faster intake" {
		t.Errorf("case study: got %+v", got.Content.CaseStudy)
	}
	if len(got.Content.Highlights) != 2 {
		t.Errorf("highlights: got %v", got.Content.Highlights)
	}
	if len(got.Services) != 2 || got.Services[1] != "Integrations" {
		t.Errorf("services: got %v", got.Services)
	}
}

func TestStore_CreateDuplicate(t *testing.T) {
	store, _ := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Create(ctx, sampleForm().Sector()); err != nil {
		t.Fatalf("first Create failed: %v", err)
	}
	_, err := store.Create(ctx, sampleForm().Sector())
	if !errors.Is(err, sectorstore.ErrDuplicateID) {
		t.Errorf("second Create: got %v, want ErrDuplicateID", err)
	}
}

func TestStore_CreateMissingID(t *testing.T) {
	store, _ := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	f := sampleForm()
	f.ID = "   "
	if _, err := store.Create(ctx, f.Sector()); !errors.Is(err, sectorstore.ErrMissingID) {
		t.Errorf("got %v, want ErrMissingID", err)
	}
}

func TestStore_UpdateKeepsID(t *testing.T) {
	store, _ := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Create(ctx, sampleForm().Sector()); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	f := sampleForm()
	f.ID = "renamed"
	f.Title = "Health"
	if err := store.Update(ctx, "healthcare", f.Sector()); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, err := store.GetByID(ctx, "healthcare")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Title != "Health" {
		t.Errorf("Title: got %q, want %q", got.Title, "Health")
	}
	if got.UpdatedAt == nil || !got.UpdatedAt.Equal(now) {
		t.Errorf("UpdatedAt: got %v, want %v", got.UpdatedAt, now)
	}
	if !sectorstore.Touched(got).Equal(now) {
		t.Errorf("Touched: got %v", sectorstore.Touched(got))
	}
	if _, err := store.GetByID(ctx, "renamed"); !errors.Is(err, sectorstore.ErrNotFound) {
		t.Errorf("renamed id should not exist, got %v", err)
	}
}

func TestStore_UpdateMissing(t *testing.T) {
	store, _ := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := store.Update(ctx, "nope", sampleForm().Sector()); !errors.Is(err, sectorstore.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestStore_DeleteAndList(t *testing.T) {
	store, be := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, be)
	fx.CreateSector("retail", "retail")
	fx.CreateSector("energy", "Energy")
	fx.CreateSector("banking", "Banking")

	list, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	want := []string{"banking", "energy", "retail"}
	if len(list) != len(want) {
		t.Fatalf("List: got %d sectors, want %d", len(list), len(want))
	}
	for i, id := range want {
		if list[i].ID != id {
			t.Errorf("List[%d]: got %q, want %q", i, list[i].ID, id)
		}
	}

	if err := store.Delete(ctx, "energy"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := store.Delete(ctx, "energy"); !errors.Is(err, sectorstore.ErrNotFound) {
		t.Errorf("second Delete: got %v, want ErrNotFound", err)
	}
	if rows := be.Rows("sectors"); len(rows) != 2 {
		t.Errorf("rows after delete: got %d, want 2", len(rows))
	}
}

func TestStore_BackendFailure(t *testing.T) {
	store, be := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	boom := errors.New("connection reset")
	be.Fail("delete", "sectors", boom)
	if err := store.Delete(ctx, "x"); !errors.Is(err, boom) {
		t.Errorf("got %v, want wrapped %v", err, boom)
	}
}
