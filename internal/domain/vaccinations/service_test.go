package vaccinations

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"
)

type testRepo struct {
	byID map[string]Vaccination
}

func newTestRepo() *testRepo {
	return &testRepo{byID: map[string]Vaccination{}}
}

func (r *testRepo) Create(_ context.Context, v Vaccination) error {
	r.byID[v.ID] = v
	return nil
}

func (r *testRepo) Update(_ context.Context, v Vaccination) error {
	if _, ok := r.byID[v.ID]; !ok {
		return ErrNotFound
	}
	r.byID[v.ID] = v
	return nil
}

func (r *testRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.byID[id]; !ok {
		return ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *testRepo) GetByID(_ context.Context, id string) (Vaccination, error) {
	v, ok := r.byID[id]
	if !ok {
		return Vaccination{}, ErrNotFound
	}
	return v, nil
}

func (r *testRepo) ListByPet(_ context.Context, petID string) ([]Vaccination, error) {
	out := make([]Vaccination, 0)
	for _, v := range r.byID {
		if v.PetID == petID {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DateGiven.After(out[j].DateGiven) })
	return out, nil
}

func newTestService(now time.Time) (*Service, *testRepo) {
	repo := newTestRepo()
	svc := NewService(repo)
	svc.now = func() time.Time { return now }
	return svc, repo
}

func TestService_Create_DefaultsAndStatus(t *testing.T) {
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	svc, _ := newTestService(now)

	next := now.Add(10 * day)
	v, err := svc.Create(context.Background(), "pet-1", CreateInput{
		VaccineName: " Rabies ",
		DateGiven:   now.Add(-355 * day),
		NextDueDate: &next,
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if v.VaccineName != "Rabies" || v.Category != CategoryCore {
		t.Fatalf("unexpected vaccination: %#v", v.Vaccination)
	}
	if !v.Status.IsCurrent || v.Status.DaysUntilDue == nil || *v.Status.DaysUntilDue != 10 {
		t.Fatalf("unexpected status: %#v", v.Status)
	}
}

func TestService_Create_Validation(t *testing.T) {
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	svc, _ := newTestService(now)
	ctx := context.Background()

	before := now.Add(-day)
	cases := []CreateInput{
		{DateGiven: now},
		{VaccineName: "Rabies"},
		{VaccineName: "Rabies", DateGiven: now, Category: "exotic"},
		{VaccineName: "Rabies", DateGiven: now, NextDueDate: &before},
	}
	for i, in := range cases {
		if _, err := svc.Create(ctx, "pet-1", in); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("case %d: expected ErrInvalidInput, got %v", i, err)
		}
	}
}

func TestService_UpdateAndDelete_ScopedToPet(t *testing.T) {
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	svc, repo := newTestService(now)
	ctx := context.Background()

	next := now.Add(-2 * day)
	v, err := svc.Create(ctx, "pet-1", CreateInput{VaccineName: "DHPP", DateGiven: now.Add(-300 * day), NextDueDate: &next})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if !v.Status.IsOverdue {
		t.Fatalf("expected overdue, got %#v", v.Status)
	}

	if _, err := svc.Update(ctx, "pet-2", v.ID, UpdateInput{}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for other pet, got %v", err)
	}

	lifestyle := CategoryLifestyle
	updated, err := svc.Update(ctx, "pet-1", v.ID, UpdateInput{Category: &lifestyle, ClearNextDueDate: true})
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if updated.Category != CategoryLifestyle || updated.NextDueDate != nil {
		t.Fatalf("unexpected update: %#v", updated.Vaccination)
	}
	if updated.Status.IsOverdue || updated.Status.DaysOverdue != nil {
		t.Fatalf("status should be empty without next due date: %#v", updated.Status)
	}

	if err := svc.Delete(ctx, "pet-2", v.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound deleting from other pet, got %v", err)
	}
	if err := svc.Delete(ctx, "pet-1", v.ID); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if len(repo.byID) != 0 {
		t.Fatalf("expected repo to be empty")
	}
}

func TestService_ListAndCompliance(t *testing.T) {
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	svc, _ := newTestService(now)
	ctx := context.Background()

	for i, offset := range []int{100, 20, 45, -3} {
		next := now.Add(time.Duration(offset) * day)
		if _, err := svc.Create(ctx, "pet-1", CreateInput{
			VaccineName: "v",
			DateGiven:   now.Add(-time.Duration(400-i) * day),
			NextDueDate: &next,
		}); err != nil {
			t.Fatalf("Create error: %v", err)
		}
	}
	if _, err := svc.Create(ctx, "pet-2", CreateInput{VaccineName: "other", DateGiven: now}); err != nil {
		t.Fatalf("Create error: %v", err)
	}

	items, err := svc.ListByPet(ctx, "pet-1")
	if err != nil {
		t.Fatalf("ListByPet error: %v", err)
	}
	if len(items) != 4 {
		t.Fatalf("expected 4 items, got %d", len(items))
	}
	for i := 1; i < len(items); i++ {
		if items[i].DateGiven.After(items[i-1].DateGiven) {
			t.Fatalf("items not sorted by date_given DESC")
		}
	}

	c, err := svc.Compliance(ctx, "pet-1")
	if err != nil {
		t.Fatalf("Compliance error: %v", err)
	}
	if c.CompliancePercentage != 75 || c.OverdueCount != 1 || c.DueSoonCount != 1 {
		t.Fatalf("unexpected compliance: %#v", c)
	}
}
