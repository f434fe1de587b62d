package stores

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zerofy/zerofy-backend/pkg/db/models"
	pkgerrors "github.com/zerofy/zerofy-backend/pkg/errors"
)

type stubStoreRepo struct {
	stores    map[uuid.UUID]*models.SellerStore
	createErr error
}

func newStubStoreRepo() *stubStoreRepo {
	return &stubStoreRepo{stores: map[uuid.UUID]*models.SellerStore{}}
}

func (r *stubStoreRepo) Create(_ context.Context, store *models.SellerStore) error {
	if r.createErr != nil {
		return r.createErr
	}
	if store.ID == uuid.Nil {
		store.ID = uuid.New()
	}
	copied := *store
	r.stores[store.ID] = &copied
	return nil
}

func (r *stubStoreRepo) FindByID(_ context.Context, id uuid.UUID) (*models.SellerStore, error) {
	store, ok := r.stores[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *store
	return &copied, nil
}

func (r *stubStoreRepo) FindByOwner(_ context.Context, ownerID uuid.UUID) ([]models.SellerStore, error) {
	var out []models.SellerStore
	for _, store := range r.stores {
		if store.OwnerID == ownerID {
			out = append(out, *store)
		}
	}
	return out, nil
}

func (r *stubStoreRepo) CountByOwner(_ context.Context, ownerID uuid.UUID) (int64, error) {
	var count int64
	for _, store := range r.stores {
		if store.OwnerID == ownerID {
			count++
		}
	}
	return count, nil
}

func (r *stubStoreRepo) Update(_ context.Context, store *models.SellerStore) error {
	copied := *store
	r.stores[store.ID] = &copied
	return nil
}

func (r *stubStoreRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.stores, id)
	return nil
}

type stubLimiter struct {
	limit int
	err   error
}

func (l *stubLimiter) StoreLimitFor(context.Context, uuid.UUID) (int, error) {
	return l.limit, l.err
}

type stubSeeder struct {
	calls [][2]string
	err   error
}

func (s *stubSeeder) SeedFrom(_ context.Context, source, target string) error {
	s.calls = append(s.calls, [2]string{source, target})
	return s.err
}

type stubCleaner struct {
	cleared []string
}

func (c *stubCleaner) ClearAllForStore(_ context.Context, storeID string) error {
	c.cleared = append(c.cleared, storeID)
	return nil
}

func baseCreateInput() CreateStoreInput {
	return CreateStoreInput{
		Name:        "Мой магазин",
		Marketplace: "wildberries",
		APIKey:      "eyJhbGciOiJIUzI1NiJ9.secret-token",
	}
}

func TestCreateStoreWithinLimit(t *testing.T) {
	repo := newStubStoreRepo()
	svc, err := NewService(repo, &stubLimiter{limit: 1}, nil, nil, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	ownerID := uuid.New()

	dto, err := svc.Create(context.Background(), ownerID, baseCreateInput())
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	if dto.Name != "Мой магазин" {
		t.Errorf("unexpected name %q", dto.Name)
	}
	if !dto.IsActive {
		t.Error("new store must start active")
	}
	stored, ok := repo.stores[dto.ID]
	if !ok {
		t.Fatal("store not persisted")
	}
	if stored.APIKey != "eyJhbGciOiJIUzI1NiJ9.secret-token" {
		t.Errorf("api key not stored verbatim: %q", stored.APIKey)
	}
}

func TestCreateStoreMasksAPIKey(t *testing.T) {
	repo := newStubStoreRepo()
	svc, _ := NewService(repo, &stubLimiter{limit: 1}, nil, nil, nil)

	dto, err := svc.Create(context.Background(), uuid.New(), baseCreateInput())
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	if dto.APIKeyMasked != "********oken" {
		t.Errorf("unexpected mask %q", dto.APIKeyMasked)
	}
}

func TestCreateStoreRejectsOverLimit(t *testing.T) {
	repo := newStubStoreRepo()
	svc, _ := NewService(repo, &stubLimiter{limit: 1}, nil, nil, nil)
	ownerID := uuid.New()

	if _, err := svc.Create(context.Background(), ownerID, baseCreateInput()); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := svc.Create(context.Background(), ownerID, baseCreateInput())
	var typed *pkgerrors.Error
	if !errors.As(err, &typed) || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected FORBIDDEN over the plan limit, got %v", err)
	}
}

func TestCreateStoreRejectsUnknownMarketplace(t *testing.T) {
	svc, _ := NewService(newStubStoreRepo(), &stubLimiter{limit: 1}, nil, nil, nil)

	input := baseCreateInput()
	input.Marketplace = "amazon"
	_, err := svc.Create(context.Background(), uuid.New(), input)
	var typed *pkgerrors.Error
	if !errors.As(err, &typed) || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION for unknown marketplace, got %v", err)
	}
}

func TestCreateStoreSeedsFromSibling(t *testing.T) {
	repo := newStubStoreRepo()
	seeder := &stubSeeder{}
	svc, _ := NewService(repo, &stubLimiter{limit: 2}, seeder, nil, nil)
	ownerID := uuid.New()

	first, err := svc.Create(context.Background(), ownerID, baseCreateInput())
	if err != nil {
		t.Fatalf("first create: %v", err)
	}

	input := baseCreateInput()
	input.SeedFromStoreID = &first.ID
	second, err := svc.Create(context.Background(), ownerID, input)
	if err != nil {
		t.Fatalf("second create: %v", err)
	}
	if len(seeder.calls) != 1 {
		t.Fatalf("expected one seed call, got %d", len(seeder.calls))
	}
	if seeder.calls[0][0] != first.ID.String() || seeder.calls[0][1] != second.ID.String() {
		t.Errorf("seed called with %v", seeder.calls[0])
	}
}

func TestCreateStoreIgnoresForeignSeedSource(t *testing.T) {
	repo := newStubStoreRepo()
	seeder := &stubSeeder{}
	svc, _ := NewService(repo, &stubLimiter{limit: 2}, seeder, nil, nil)

	foreign, err := svc.Create(context.Background(), uuid.New(), baseCreateInput())
	if err != nil {
		t.Fatalf("foreign create: %v", err)
	}

	input := baseCreateInput()
	input.SeedFromStoreID = &foreign.ID
	if _, err := svc.Create(context.Background(), uuid.New(), input); err != nil {
		t.Fatalf("create must succeed even when seeding is refused: %v", err)
	}
	if len(seeder.calls) != 0 {
		t.Error("must not seed from another account's store")
	}
}

func TestGetByIDHidesForeignStores(t *testing.T) {
	repo := newStubStoreRepo()
	svc, _ := NewService(repo, &stubLimiter{limit: 1}, nil, nil, nil)

	dto, err := svc.Create(context.Background(), uuid.New(), baseCreateInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = svc.GetByID(context.Background(), uuid.New(), dto.ID)
	var typed *pkgerrors.Error
	if !errors.As(err, &typed) || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("foreign store must read as NOT_FOUND, got %v", err)
	}
}

func TestUpdateStoreRotatingKeyClearsCache(t *testing.T) {
	repo := newStubStoreRepo()
	cleaner := &stubCleaner{}
	svc, _ := NewService(repo, &stubLimiter{limit: 1}, nil, cleaner, nil)
	ownerID := uuid.New()

	dto, err := svc.Create(context.Background(), ownerID, baseCreateInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	newKey := "eyJhbGciOiJIUzI1NiJ9.rotated-token"
	updated, err := svc.Update(context.Background(), ownerID, dto.ID, UpdateStoreInput{APIKey: &newKey})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.APIKeyMasked != "********oken" {
		t.Errorf("unexpected mask %q", updated.APIKeyMasked)
	}
	if repo.stores[dto.ID].APIKey != newKey {
		t.Error("rotated key not persisted")
	}
	if len(cleaner.cleared) != 1 || cleaner.cleared[0] != dto.ID.String() {
		t.Errorf("expected cache clear for %s, got %v", dto.ID, cleaner.cleared)
	}
}

func TestUpdateStoreNameOnlyKeepsCache(t *testing.T) {
	repo := newStubStoreRepo()
	cleaner := &stubCleaner{}
	svc, _ := NewService(repo, &stubLimiter{limit: 1}, nil, cleaner, nil)
	ownerID := uuid.New()

	dto, err := svc.Create(context.Background(), ownerID, baseCreateInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	name := "Новое имя"
	updated, err := svc.Update(context.Background(), ownerID, dto.ID, UpdateStoreInput{Name: &name})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != name {
		t.Errorf("unexpected name %q", updated.Name)
	}
	if len(cleaner.cleared) != 0 {
		t.Error("renaming must not drop cached datasets")
	}
}

func TestDeleteStoreClearsCache(t *testing.T) {
	repo := newStubStoreRepo()
	cleaner := &stubCleaner{}
	svc, _ := NewService(repo, &stubLimiter{limit: 1}, nil, cleaner, nil)
	ownerID := uuid.New()

	dto, err := svc.Create(context.Background(), ownerID, baseCreateInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.Delete(context.Background(), ownerID, dto.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := repo.stores[dto.ID]; ok {
		t.Error("store row not deleted")
	}
	if len(cleaner.cleared) != 1 || cleaner.cleared[0] != dto.ID.String() {
		t.Errorf("expected cache clear for %s, got %v", dto.ID, cleaner.cleared)
	}
}

func TestMaskAPIKey(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"abcd", "****"},
		{"supersecrettoken", "********oken"},
	}
	for _, tc := range cases {
		if got := MaskAPIKey(tc.in); got != tc.want {
			t.Errorf("MaskAPIKey(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
