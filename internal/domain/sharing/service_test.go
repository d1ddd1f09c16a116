package sharing

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"pet-health-tracker/internal/domain/pets"
	"pet-health-tracker/internal/domain/records"
	"pet-health-tracker/internal/domain/sharetokens"
	"pet-health-tracker/internal/domain/vaccinations"
)

var (
	basicToken    = strings.Repeat("ab", 32)
	advancedToken = strings.Repeat("cd", 32)
	revokedToken  = strings.Repeat("ef", 32)
	expiredToken  = strings.Repeat("01", 32)
)

type fakeTokens struct {
	mu        sync.Mutex
	byToken   map[string]sharetokens.ShareToken
	accesses  map[string]int
	lookupErr error
	bumpErr   error
}

func (f *fakeTokens) GetActiveByToken(_ context.Context, token string) (sharetokens.ShareToken, error) {
	if f.lookupErr != nil {
		return sharetokens.ShareToken{}, f.lookupErr
	}
	t, ok := f.byToken[token]
	if !ok || !t.IsActive {
		return sharetokens.ShareToken{}, sharetokens.ErrNotFound
	}
	return t, nil
}

func (f *fakeTokens) RecordAccess(_ context.Context, id string, _ time.Time) error {
	if f.bumpErr != nil {
		return f.bumpErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accesses[id]++
	return nil
}

type fakePets struct {
	err error
}

func (f fakePets) IdentityOf(_ context.Context, petID string) (pets.Identity, error) {
	if f.err != nil {
		return pets.Identity{}, f.err
	}
	if petID != "pet-1" {
		return pets.Identity{}, pets.ErrNotFound
	}
	return pets.Identity{ID: "pet-1", Name: "Milo", Species: pets.SpeciesDog}, nil
}

type fakeVaccs struct {
	err error
}

func (f fakeVaccs) ListByPet(_ context.Context, _ string) ([]vaccinations.WithStatus, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []vaccinations.WithStatus{{Vaccination: vaccinations.Vaccination{ID: "v1", VaccineName: "Rabies"}}}, nil
}

type fakeRecords struct {
	allergiesErr error
	metricsLimit int
}

func (f *fakeRecords) ListAllergies(context.Context, string) ([]records.Allergy, error) {
	if f.allergiesErr != nil {
		return nil, f.allergiesErr
	}
	return []records.Allergy{{ID: "a1", Allergen: "Chicken"}}, nil
}

func (f *fakeRecords) ListTreatments(context.Context, string) ([]records.Treatment, error) {
	return nil, nil
}

func (f *fakeRecords) ListConditions(context.Context, string) ([]records.Condition, error) {
	return []records.Condition{}, nil
}

func (f *fakeRecords) RecentHealthMetrics(_ context.Context, _ string, limit int) ([]records.HealthMetric, error) {
	f.metricsLimit = limit
	return []records.HealthMetric{}, nil
}

type fixture struct {
	svc     *Service
	tokens  *fakeTokens
	records *fakeRecords
}

func newFixture() *fixture {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)

	tokens := &fakeTokens{
		byToken: map[string]sharetokens.ShareToken{
			basicToken:    {ID: "t-basic", PetID: "pet-1", Token: basicToken, PermissionLevel: sharetokens.PermissionBasic, IsActive: true},
			advancedToken: {ID: "t-adv", PetID: "pet-1", Token: advancedToken, PermissionLevel: sharetokens.PermissionAdvanced, IsActive: true},
			revokedToken:  {ID: "t-rev", PetID: "pet-1", Token: revokedToken, PermissionLevel: sharetokens.PermissionAdvanced, IsActive: false},
			expiredToken:  {ID: "t-exp", PetID: "pet-1", Token: expiredToken, PermissionLevel: sharetokens.PermissionBasic, IsActive: true, ExpiresAt: &past},
		},
		accesses: map[string]int{},
	}
	recs := &fakeRecords{}

	svc := NewService(tokens, fakePets{}, fakeVaccs{}, recs, nil)
	svc.now = func() time.Time { return now }
	return &fixture{svc: svc, tokens: tokens, records: recs}
}

func TestValidate_BasicHasNoMedicalHistory(t *testing.T) {
	f := newFixture()

	data, err := f.svc.Validate(context.Background(), basicToken)
	if err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	if data.Pet.Name != "Milo" || data.PermissionLevel != sharetokens.PermissionBasic {
		t.Fatalf("unexpected data: %#v", data)
	}
	if data.Medical != nil {
		t.Fatalf("basic link must not carry medical history")
	}
	if f.tokens.accesses["t-basic"] != 1 {
		t.Fatalf("expected access bump, got %d", f.tokens.accesses["t-basic"])
	}
}

func TestValidate_AdvancedHasAllCollections(t *testing.T) {
	f := newFixture()

	data, err := f.svc.Validate(context.Background(), advancedToken)
	if err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	m := data.Medical
	if m == nil {
		t.Fatalf("advanced link must carry medical history")
	}
	if len(m.Allergies) != 1 || len(m.Vaccinations) != 1 {
		t.Fatalf("unexpected collections: %#v", m)
	}
	if m.Treatments == nil || m.Conditions == nil || m.HealthMetrics == nil {
		t.Fatalf("empty collections must be non-nil: %#v", m)
	}
	if f.records.metricsLimit != SharedMetricsLimit {
		t.Fatalf("expected metrics limit %d, got %d", SharedMetricsLimit, f.records.metricsLimit)
	}
}

func TestValidate_InvalidTokensAreIndistinguishable(t *testing.T) {
	f := newFixture()

	for _, tok := range []string{revokedToken, expiredToken, strings.Repeat("99", 32), "short", ""} {
		_, err := f.svc.Validate(context.Background(), tok)
		if !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("token %q: expected ErrInvalidToken, got %v", tok, err)
		}
		if err.Error() != "invalid or expired share link" {
			t.Fatalf("unexpected message: %q", err.Error())
		}
	}
	if len(f.tokens.accesses) != 0 {
		t.Fatalf("invalid tokens must not bump access counters: %#v", f.tokens.accesses)
	}
}

func TestValidate_PartialFailureKeepsOtherCollections(t *testing.T) {
	f := newFixture()
	f.records.allergiesErr = errors.New("timeout")

	data, err := f.svc.Validate(context.Background(), advancedToken)
	if err != nil {
		t.Fatalf("partial failure must not fail validation: %v", err)
	}
	if data.Medical.Allergies == nil || len(data.Medical.Allergies) != 0 {
		t.Fatalf("failed collection must be an empty list, got %#v", data.Medical.Allergies)
	}
	if len(data.Medical.Vaccinations) != 1 {
		t.Fatalf("other collections must still load")
	}
}

func TestValidate_AccessBumpFailureIsIgnored(t *testing.T) {
	f := newFixture()
	f.tokens.bumpErr = errors.New("write failed")

	if _, err := f.svc.Validate(context.Background(), basicToken); err != nil {
		t.Fatalf("bump failure must not fail validation: %v", err)
	}
}

func TestValidate_TransportErrors(t *testing.T) {
	f := newFixture()
	f.tokens.lookupErr = errors.New("connection refused")

	if _, err := f.svc.Validate(context.Background(), basicToken); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}

	f = newFixture()
	f.svc.pets = fakePets{err: errors.New("connection refused")}
	if _, err := f.svc.Validate(context.Background(), basicToken); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable for pet lookup, got %v", err)
	}

	f = newFixture()
	f.svc.pets = fakePets{err: pets.ErrNotFound}
	if _, err := f.svc.Validate(context.Background(), basicToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("missing pet must look like an invalid token, got %v", err)
	}
}
