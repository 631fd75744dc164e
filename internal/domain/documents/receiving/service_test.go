package receiving

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinipos/internal/core/apperror"
	"clinipos/internal/core/id"
	"clinipos/internal/core/numerator"
	"clinipos/internal/core/types"
	"clinipos/internal/domain"
	"clinipos/internal/domain/catalogs/item"
	"clinipos/internal/domain/registers/stock"
)

// --- In-memory fixture ---

type fakeStore struct {
	items   map[string]*item.Item // keyed by code
	batches []*PurchaseBatch
}

func newFakeStore() *fakeStore {
	return &fakeStore{items: make(map[string]*item.Item)}
}

func (s *fakeStore) seedItem(qty int64) *item.Item {
	it := item.New("PARA-500", "Paracetamol 500mg", item.CategoryProduct)
	it.Brand = "Pharma Co"
	it.CostUnit = types.MustMoney("10")
	it.SellingPrice = types.MustMoney("15")
	it.Quantity = qty
	it.Expiry = time.Date(2027, 6, 1, 0, 0, 0, 0, time.UTC)
	s.items[it.Code] = it
	return it
}

type storeState struct {
	quantities map[string]int64
	batchCount int
}

func (s *fakeStore) snapshot() storeState {
	q := make(map[string]int64, len(s.items))
	for code, it := range s.items {
		q[code] = it.Quantity
	}
	return storeState{quantities: q, batchCount: len(s.batches)}
}

func (s *fakeStore) restore(st storeState) {
	for code := range s.items {
		if qty, ok := st.quantities[code]; ok {
			s.items[code].Quantity = qty
		} else {
			delete(s.items, code) // created inside the failed tx
		}
	}
	s.batches = s.batches[:st.batchCount]
}

type stubTx struct {
	store *fakeStore
}

func (t *stubTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return t.run(ctx, fn)
}

func (t *stubTx) RunSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return t.run(ctx, fn)
}

func (t *stubTx) run(ctx context.Context, fn func(ctx context.Context) error) error {
	before := t.store.snapshot()
	if err := fn(ctx); err != nil {
		t.store.restore(before)
		return err
	}
	return nil
}

type fakeItemRepo struct {
	store *fakeStore
}

func (r *fakeItemRepo) Create(ctx context.Context, it *item.Item) error {
	r.store.items[it.Code] = it
	return nil
}

func (r *fakeItemRepo) GetByID(ctx context.Context, itemID id.ID) (*item.Item, error) {
	for _, it := range r.store.items {
		if it.ID == itemID {
			return it, nil
		}
	}
	return nil, apperror.NewNotFound("item", itemID.String())
}

func (r *fakeItemRepo) GetByCode(ctx context.Context, code string) (*item.Item, error) {
	if it, ok := r.store.items[code]; ok {
		return it, nil
	}
	return nil, apperror.NewNotFound("item", code)
}

func (r *fakeItemRepo) Update(ctx context.Context, it *item.Item) error {
	r.store.items[it.Code] = it
	return nil
}

func (r *fakeItemRepo) Delete(ctx context.Context, itemID id.ID) error { return nil }

func (r *fakeItemRepo) SetDeletionMark(ctx context.Context, itemID id.ID, marked bool) error {
	return nil
}

func (r *fakeItemRepo) List(ctx context.Context, f domain.ListFilter) (domain.ListResult[*item.Item], error) {
	return domain.ListResult[*item.Item]{}, nil
}

func (r *fakeItemRepo) Exists(ctx context.Context, itemID id.ID) (bool, error) { return false, nil }

func (r *fakeItemRepo) ExistsByCode(ctx context.Context, code string) (bool, error) {
	_, ok := r.store.items[code]
	return ok, nil
}

func (r *fakeItemRepo) GetForUpdate(ctx context.Context, itemID id.ID) (*item.Item, error) {
	return r.GetByID(ctx, itemID)
}

func (r *fakeItemRepo) GetByCodeForUpdate(ctx context.Context, code string) (*item.Item, error) {
	return r.GetByCode(ctx, code)
}

type fakeStockRepo struct {
	store *fakeStore
}

func (r *fakeStockRepo) OnHand(ctx context.Context, code string) (int64, error) {
	if it, ok := r.store.items[code]; ok {
		return it.Quantity, nil
	}
	return 0, apperror.NewNotFound("item", code)
}

func (r *fakeStockRepo) OnHandBatch(ctx context.Context, codes []string) (map[string]int64, error) {
	return r.OnHandForUpdate(ctx, codes)
}

func (r *fakeStockRepo) OnHandForUpdate(ctx context.Context, codes []string) (map[string]int64, error) {
	out := make(map[string]int64, len(codes))
	for _, code := range codes {
		if it, ok := r.store.items[code]; ok {
			out[code] = it.Quantity
		}
	}
	return out, nil
}

func (r *fakeStockRepo) Adjust(ctx context.Context, code string, delta int64) error {
	it, ok := r.store.items[code]
	if !ok || it.Quantity+delta < 0 {
		return errors.New("no rows updated")
	}
	it.Quantity += delta
	return nil
}

type fakeBatchRepo struct {
	store *fakeStore
}

func (r *fakeBatchRepo) Create(ctx context.Context, doc *PurchaseBatch) error {
	r.store.batches = append(r.store.batches, doc)
	return nil
}

func (r *fakeBatchRepo) GetByID(ctx context.Context, docID id.ID) (*PurchaseBatch, error) {
	for _, b := range r.store.batches {
		if b.ID == docID {
			return b, nil
		}
	}
	return nil, apperror.NewNotFound("purchase batch", docID.String())
}

func (r *fakeBatchRepo) GetByNumber(ctx context.Context, number string) (*PurchaseBatch, error) {
	for _, b := range r.store.batches {
		if b.Number == number {
			return b, nil
		}
	}
	return nil, apperror.NewNotFound("purchase batch", number)
}

func (r *fakeBatchRepo) List(ctx context.Context, f ListFilter) (domain.ListResult[*PurchaseBatch], error) {
	return domain.ListResult[*PurchaseBatch]{
		Items:      r.store.batches,
		TotalCount: int64(len(r.store.batches)),
	}, nil
}

type recordedChange struct {
	entityType string
	entityID   id.ID
	action     string
	changes    map[string]any
}

type fakeChangeLog struct {
	records []recordedChange
}

func (l *fakeChangeLog) LogChange(ctx context.Context, entityType string, entityID id.ID, action string, changes map[string]any) error {
	l.records = append(l.records, recordedChange{entityType, entityID, action, changes})
	return nil
}

func newEngine(store *fakeStore) (*Service, *fakeChangeLog) {
	seq := 0
	gen := &numerator.MockGenerator{
		GetNextNumberFunc: func(ctx context.Context, cfg numerator.Config, opts *numerator.Options, period time.Time) (string, error) {
			seq++
			return fmt.Sprintf("PB-2026-%05d", seq), nil
		},
	}
	changeLog := &fakeChangeLog{}
	svc := NewService(
		&fakeBatchRepo{store: store},
		&fakeItemRepo{store: store},
		stock.NewService(&fakeStockRepo{store: store}),
		&stubTx{store: store},
		gen,
		changeLog,
	)
	return svc, changeLog
}

func validBatch() IncomingBatch {
	return IncomingBatch{
		Code:         "PARA-500",
		Name:         "Paracetamol 500mg",
		Brand:        "Pharma Co",
		Category:     item.CategoryProduct,
		CostUnit:     types.MustMoney("10"),
		SellingPrice: types.MustMoney("15"),
		Quantity:     30,
		GrandTotal:   types.MustMoney("300"),
		Expiry:       time.Date(2027, 6, 1, 0, 0, 0, 0, time.UTC),
		Supplier:     "MedSupply Ltd",
	}
}

// --- Tests ---

func TestReceive_CreatesNewItem(t *testing.T) {
	store := newFakeStore()
	engine, _ := newEngine(store)

	result, err := engine.Receive(context.Background(), validBatch(), false)

	require.NoError(t, err)
	assert.Equal(t, OutcomeCreated, result.Outcome)
	assert.Equal(t, "PB-2026-00001", result.BatchNumber)
	assert.Equal(t, "PARA-500", result.Code)
	assert.Equal(t, int64(30), result.AddedQuantity)
	assert.Empty(t, result.UpdatedFields)

	it := store.items["PARA-500"]
	require.NotNil(t, it)
	assert.Equal(t, int64(30), it.Quantity)
	assert.Equal(t, "Pharma Co", it.Brand)

	require.Len(t, store.batches, 1)
	assert.Equal(t, result.PurchaseID, store.batches[0].ID.String())
}

func TestReceive_MatchingBatchAddsQuantity(t *testing.T) {
	store := newFakeStore()
	store.seedItem(12)
	engine, changeLog := newEngine(store)

	result, err := engine.Receive(context.Background(), validBatch(), false)

	require.NoError(t, err)
	assert.Equal(t, OutcomeUpdated, result.Outcome)
	assert.Empty(t, result.UpdatedFields)
	assert.Equal(t, int64(42), store.items["PARA-500"].Quantity)
	assert.Empty(t, changeLog.records)
}

func TestReceive_ConflictKeepsAuditRow(t *testing.T) {
	store := newFakeStore()
	store.seedItem(12)
	engine, _ := newEngine(store)

	batch := validBatch()
	batch.Name = "Paracetamol Forte"
	batch.SellingPrice = types.MustMoney("18")

	_, err := engine.Receive(context.Background(), batch, false)

	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeConflict, appErr.Code)
	assert.Equal(t, true, appErr.Details["canForceUpdate"])

	mismatches, ok := appErr.Details["mismatches"].([]FieldMismatch)
	require.True(t, ok)
	require.Len(t, mismatches, 2)
	fields := []string{mismatches[0].Field, mismatches[1].Field}
	assert.Contains(t, fields, "name")
	assert.Contains(t, fields, "sellingPrice")

	// Catalog row untouched, but the audit document survives the reject.
	assert.Equal(t, int64(12), store.items["PARA-500"].Quantity)
	assert.Equal(t, "Paracetamol 500mg", store.items["PARA-500"].Name)
	require.Len(t, store.batches, 1)
	assert.Equal(t, "Paracetamol Forte", store.batches[0].Name)
}

func TestReceive_ForceOverwritesAndLogs(t *testing.T) {
	store := newFakeStore()
	existing := store.seedItem(12)
	engine, changeLog := newEngine(store)

	batch := validBatch()
	batch.Name = "Paracetamol Forte"
	batch.SellingPrice = types.MustMoney("18")

	result, err := engine.Receive(context.Background(), batch, true)

	require.NoError(t, err)
	assert.Equal(t, OutcomeUpdated, result.Outcome)
	assert.ElementsMatch(t, []string{"name", "sellingPrice"}, result.UpdatedFields)

	it := store.items["PARA-500"]
	assert.Equal(t, "Paracetamol Forte", it.Name)
	assert.True(t, it.SellingPrice.Equal(types.MustMoney("18")))
	assert.Equal(t, int64(42), it.Quantity)

	require.Len(t, changeLog.records, 1)
	rec := changeLog.records[0]
	assert.Equal(t, "item", rec.entityType)
	assert.Equal(t, existing.ID, rec.entityID)
	assert.Equal(t, "force_merge", rec.action)
	assert.Contains(t, rec.changes, "name")
	assert.Contains(t, rec.changes, "sellingPrice")
}

func TestReceive_LogoAbsentMeansKeep(t *testing.T) {
	store := newFakeStore()
	existing := store.seedItem(10)
	ref := "assets/para.png"
	existing.LogoRef = &ref
	engine, _ := newEngine(store)

	result, err := engine.Receive(context.Background(), validBatch(), false)

	require.NoError(t, err)
	assert.Equal(t, OutcomeUpdated, result.Outcome)
	require.NotNil(t, store.items["PARA-500"].LogoRef)
	assert.Equal(t, "assets/para.png", *store.items["PARA-500"].LogoRef)
}

func TestReceive_ValidationRejectsBeforeAudit(t *testing.T) {
	store := newFakeStore()
	engine, _ := newEngine(store)

	batch := validBatch()
	batch.Brand = ""

	_, err := engine.Receive(context.Background(), batch, false)

	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
	assert.Equal(t, "brand", appErr.Details["field"])

	assert.Empty(t, store.batches)
	assert.Empty(t, store.items)
}

func TestReceive_NegativeQuantityRejected(t *testing.T) {
	store := newFakeStore()
	engine, _ := newEngine(store)

	batch := validBatch()
	batch.Quantity = -1

	_, err := engine.Receive(context.Background(), batch, false)

	require.Error(t, err)
	appErr, _ := apperror.AsAppError(err)
	assert.Equal(t, "quantity", appErr.Details["field"])
}

func TestUpdateItem_NotFound(t *testing.T) {
	store := newFakeStore()
	engine, _ := newEngine(store)

	_, err := engine.UpdateItem(context.Background(), id.New(), validBatch(), false)

	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
	// Audit is recorded before the lookup; the receiving event happened.
	assert.Len(t, store.batches, 1)
}

func TestUpdateItem_MergesById(t *testing.T) {
	store := newFakeStore()
	existing := store.seedItem(5)
	engine, _ := newEngine(store)

	result, err := engine.UpdateItem(context.Background(), existing.ID, validBatch(), false)

	require.NoError(t, err)
	assert.Equal(t, OutcomeUpdated, result.Outcome)
	assert.Equal(t, int64(35), store.items["PARA-500"].Quantity)
	require.Len(t, store.batches, 1)
}

func TestReceive_SequentialBatchNumbers(t *testing.T) {
	store := newFakeStore()
	engine, _ := newEngine(store)

	first, err := engine.Receive(context.Background(), validBatch(), false)
	require.NoError(t, err)
	second, err := engine.Receive(context.Background(), validBatch(), false)
	require.NoError(t, err)

	assert.Equal(t, "PB-2026-00001", first.BatchNumber)
	assert.Equal(t, "PB-2026-00002", second.BatchNumber)
}
