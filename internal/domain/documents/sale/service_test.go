package sale

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinipos/internal/core/apperror"
	"clinipos/internal/core/entity"
	"clinipos/internal/core/id"
	"clinipos/internal/core/types"
	"clinipos/internal/domain"
	"clinipos/internal/domain/catalogs/item"
	services "clinipos/internal/domain/catalogs/service"
	"clinipos/internal/domain/registers/stock"
)

// --- In-memory fixture ---

// fakeStore backs all fake repositories with one mutable state so the
// transaction stub can snapshot and restore it as a unit.
type fakeStore struct {
	items        map[string]*item.Item // keyed by code
	services     map[id.ID]*services.Service
	sales        []*Sale
	lines        map[id.ID][]Line
	serviceLines map[id.ID][]ServiceLine

	failCreateSale bool
	failSaveLines  bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		items:        make(map[string]*item.Item),
		services:     make(map[id.ID]*services.Service),
		lines:        make(map[id.ID][]Line),
		serviceLines: make(map[id.ID][]ServiceLine),
	}
}

func (s *fakeStore) addItem(code, name string, qty int64) *item.Item {
	it := item.New(code, name, item.CategoryProduct)
	it.Brand = "Generic"
	it.CostUnit = types.MustMoney("10")
	it.SellingPrice = types.MustMoney("15")
	it.Quantity = qty
	it.Expiry = time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)
	s.items[code] = it
	return it
}

func (s *fakeStore) addService(name string, bom ...services.BOMLine) *services.Service {
	svc := services.New("SRV-"+name, name, types.MustMoney("100"))
	svc.BillOfMaterials = bom
	s.services[svc.ID] = svc
	return svc
}

type storeState struct {
	quantities map[string]int64
	saleCount  int
}

func (s *fakeStore) snapshot() storeState {
	q := make(map[string]int64, len(s.items))
	for code, it := range s.items {
		q[code] = it.Quantity
	}
	return storeState{quantities: q, saleCount: len(s.sales)}
}

func (s *fakeStore) restore(st storeState) {
	for code, qty := range st.quantities {
		s.items[code].Quantity = qty
	}
	s.sales = s.sales[:st.saleCount]
}

// stubTx mimics transactional semantics: on error the store is restored
// to its pre-transaction state.
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

// fakeItemRepo serves item lookups from the store.
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

// fakeStockRepo applies the same guarded-update contract as the real one.
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

// fakeServiceRepo serves service lookups from the store.
type fakeServiceRepo struct {
	store *fakeStore
}

func (r *fakeServiceRepo) Create(ctx context.Context, svc *services.Service) error {
	r.store.services[svc.ID] = svc
	return nil
}

func (r *fakeServiceRepo) GetByID(ctx context.Context, svcID id.ID) (*services.Service, error) {
	if svc, ok := r.store.services[svcID]; ok {
		return svc, nil
	}
	return nil, apperror.NewNotFound("service", svcID.String())
}

func (r *fakeServiceRepo) GetByCode(ctx context.Context, code string) (*services.Service, error) {
	for _, svc := range r.store.services {
		if svc.Code == code {
			return svc, nil
		}
	}
	return nil, apperror.NewNotFound("service", code)
}

func (r *fakeServiceRepo) Update(ctx context.Context, svc *services.Service) error { return nil }

func (r *fakeServiceRepo) Delete(ctx context.Context, svcID id.ID) error { return nil }

func (r *fakeServiceRepo) SetDeletionMark(ctx context.Context, svcID id.ID, marked bool) error {
	return nil
}

func (r *fakeServiceRepo) List(ctx context.Context, f domain.ListFilter) (domain.ListResult[*services.Service], error) {
	return domain.ListResult[*services.Service]{}, nil
}

func (r *fakeServiceRepo) Exists(ctx context.Context, svcID id.ID) (bool, error) { return false, nil }

func (r *fakeServiceRepo) ExistsByCode(ctx context.Context, code string) (bool, error) {
	return false, nil
}

// fakeSaleRepo records sales in the store.
type fakeSaleRepo struct {
	store *fakeStore
}

func (r *fakeSaleRepo) Create(ctx context.Context, doc *Sale) error {
	if r.store.failCreateSale {
		return errors.New("insert failed")
	}
	r.store.sales = append(r.store.sales, doc)
	return nil
}

func (r *fakeSaleRepo) GetByID(ctx context.Context, docID id.ID) (*Sale, error) {
	for _, s := range r.store.sales {
		if s.ID == docID {
			return s, nil
		}
	}
	return nil, apperror.NewNotFound("sale", docID.String())
}

func (r *fakeSaleRepo) GetByReference(ctx context.Context, reference string) (*Sale, error) {
	for _, s := range r.store.sales {
		if s.Reference == reference {
			return s, nil
		}
	}
	return nil, apperror.NewNotFound("sale", reference)
}

func (r *fakeSaleRepo) SaveLines(ctx context.Context, saleID id.ID, lines []Line) error {
	if r.store.failSaveLines {
		return errors.New("insert lines failed")
	}
	r.store.lines[saleID] = lines
	return nil
}

func (r *fakeSaleRepo) SaveServiceLines(ctx context.Context, saleID id.ID, lines []ServiceLine) error {
	r.store.serviceLines[saleID] = lines
	return nil
}

func (r *fakeSaleRepo) GetLines(ctx context.Context, saleID id.ID) ([]Line, error) {
	return r.store.lines[saleID], nil
}

func (r *fakeSaleRepo) GetServiceLines(ctx context.Context, saleID id.ID) ([]ServiceLine, error) {
	return r.store.serviceLines[saleID], nil
}

func (r *fakeSaleRepo) Count(ctx context.Context) (int64, error) {
	return int64(len(r.store.sales)), nil
}

func (r *fakeSaleRepo) List(ctx context.Context, f ListFilter) (domain.ListResult[*Sale], error) {
	return domain.ListResult[*Sale]{Items: r.store.sales, TotalCount: int64(len(r.store.sales))}, nil
}

func newEngine(store *fakeStore) *Service {
	return NewService(
		&fakeSaleRepo{store: store},
		&fakeItemRepo{store: store},
		&fakeServiceRepo{store: store},
		stock.NewService(&fakeStockRepo{store: store}),
		&stubTx{store: store},
	)
}

func serviceCode(svc *services.Service) string {
	return item.ServiceCodePrefix + svc.ID.String()
}

// --- Tests ---

func TestCheckout_ProductsOnly(t *testing.T) {
	store := newFakeStore()
	store.addItem("PARA-500", "Paracetamol 500mg", 20)
	store.addItem("BAND-01", "Bandage Roll", 10)

	engine := newEngine(store)
	result, err := engine.Checkout(context.Background(), []CartLine{
		{Code: "PARA-500", Qty: 3, UnitPrice: types.MustMoney("15")},
		{Code: "BAND-01", Qty: 2, UnitPrice: types.MustMoney("5")},
	}, SaleMeta{CustomerName: "Jane Roe", PaymentMethod: "cash"})

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(result.Reference, "TRX-"))
	assert.Equal(t, "Jane Roe", result.CustomerName)

	assert.Equal(t, int64(17), store.items["PARA-500"].Quantity)
	assert.Equal(t, int64(8), store.items["BAND-01"].Quantity)

	require.Len(t, store.sales, 1)
	saved := store.sales[0]
	assert.Equal(t, result.Reference, saved.Reference)
	require.Len(t, store.lines[saved.ID], 2)
	assert.Equal(t, "Paracetamol 500mg", store.lines[saved.ID][0].ItemName)
	assert.Equal(t, 1, store.lines[saved.ID][0].LineNo)
}

func TestCheckout_ServiceConsumesBOM(t *testing.T) {
	store := newFakeStore()
	store.addItem("GLOVE", "Nitrile Gloves", 50)
	store.addItem("SWAB", "Alcohol Swab", 50)
	svc := store.addService("Injection",
		services.BOMLine{ItemCode: "GLOVE", QtyPerUnit: 2},
		services.BOMLine{ItemCode: "SWAB", QtyPerUnit: 1},
	)

	engine := newEngine(store)
	result, err := engine.Checkout(context.Background(), []CartLine{
		{Code: serviceCode(svc), Qty: 3, UnitPrice: types.MustMoney("100")},
	}, SaleMeta{CustomerName: "John"})

	require.NoError(t, err)
	assert.Equal(t, int64(44), store.items["GLOVE"].Quantity)
	assert.Equal(t, int64(47), store.items["SWAB"].Quantity)

	require.Len(t, store.sales, 1)
	svcLines := store.serviceLines[result.SaleID]
	require.Len(t, svcLines, 1)
	assert.Equal(t, svc.ID, svcLines[0].ServiceID)
	assert.Equal(t, "Injection", svcLines[0].ServiceName)
	assert.Equal(t, int64(3), svcLines[0].Qty)
}

func TestCheckout_AdditiveDemand(t *testing.T) {
	// The same code sold directly and consumed by a service BOM is
	// decremented once per occurrence.
	store := newFakeStore()
	store.addItem("SWAB", "Alcohol Swab", 10)
	svc := store.addService("Dressing", services.BOMLine{ItemCode: "SWAB", QtyPerUnit: 2})

	engine := newEngine(store)
	_, err := engine.Checkout(context.Background(), []CartLine{
		{Code: "SWAB", Qty: 3, UnitPrice: types.MustMoney("2")},
		{Code: serviceCode(svc), Qty: 2, UnitPrice: types.MustMoney("100")},
	}, SaleMeta{CustomerName: "John"})

	require.NoError(t, err)
	// 10 - 3 direct - 2*2 via BOM
	assert.Equal(t, int64(3), store.items["SWAB"].Quantity)
}

func TestCheckout_InsufficientStock_Direct(t *testing.T) {
	store := newFakeStore()
	store.addItem("PARA-500", "Paracetamol 500mg", 2)

	engine := newEngine(store)
	_, err := engine.Checkout(context.Background(), []CartLine{
		{Code: "PARA-500", Qty: 5, UnitPrice: types.MustMoney("15")},
	}, SaleMeta{CustomerName: "John"})

	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInsufficientStock, appErr.Code)

	direct, ok := appErr.Details["directProducts"].([]Shortage)
	require.True(t, ok)
	require.Len(t, direct, 1)
	assert.Equal(t, Shortage{Code: "PARA-500", Available: 2, Required: 5}, direct[0])

	// Nothing written, nothing decremented.
	assert.Equal(t, int64(2), store.items["PARA-500"].Quantity)
	assert.Empty(t, store.sales)
}

func TestCheckout_InsufficientStock_ServiceBOM(t *testing.T) {
	store := newFakeStore()
	store.addItem("GLOVE", "Nitrile Gloves", 3)
	svc := store.addService("Injection", services.BOMLine{ItemCode: "GLOVE", QtyPerUnit: 2})

	engine := newEngine(store)
	_, err := engine.Checkout(context.Background(), []CartLine{
		{Code: serviceCode(svc), Qty: 4, UnitPrice: types.MustMoney("100")},
	}, SaleMeta{CustomerName: "John"})

	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInsufficientStock, appErr.Code)

	perService, ok := appErr.Details["servicesMissingProducts"].(map[string][]Shortage)
	require.True(t, ok)
	shortages := perService[svc.ID.String()]
	require.Len(t, shortages, 1)
	assert.Equal(t, Shortage{Code: "GLOVE", Available: 3, Required: 8}, shortages[0])

	assert.Equal(t, int64(3), store.items["GLOVE"].Quantity)
}

func TestCheckout_AggregateOverdrawRollsBack(t *testing.T) {
	// Each line passes its independent check against the snapshot, but
	// combined they overdraw the code. The guarded decrement catches it
	// and the whole sale rolls back.
	store := newFakeStore()
	store.addItem("SWAB", "Alcohol Swab", 5)
	svc := store.addService("Dressing", services.BOMLine{ItemCode: "SWAB", QtyPerUnit: 3})

	engine := newEngine(store)
	_, err := engine.Checkout(context.Background(), []CartLine{
		{Code: "SWAB", Qty: 3, UnitPrice: types.MustMoney("2")},
		{Code: serviceCode(svc), Qty: 1, UnitPrice: types.MustMoney("100")},
	}, SaleMeta{CustomerName: "John"})

	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeCommit, appErr.Code)

	assert.Equal(t, int64(5), store.items["SWAB"].Quantity)
	assert.Empty(t, store.sales)
}

func TestCheckout_EmptyCart(t *testing.T) {
	engine := newEngine(newFakeStore())

	_, err := engine.Checkout(context.Background(), nil, SaleMeta{})

	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
	assert.Contains(t, appErr.Message, "cart is empty")
}

func TestCheckout_MalformedServiceCode(t *testing.T) {
	engine := newEngine(newFakeStore())

	_, err := engine.Checkout(context.Background(), []CartLine{
		{Code: "SERVICE-not-a-uuid", Qty: 1, UnitPrice: types.MustMoney("10")},
	}, SaleMeta{})

	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestCheckout_UnknownService(t *testing.T) {
	engine := newEngine(newFakeStore())

	_, err := engine.Checkout(context.Background(), []CartLine{
		{Code: item.ServiceCodePrefix + id.New().String(), Qty: 1, UnitPrice: types.MustMoney("10")},
	}, SaleMeta{})

	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}

func TestCheckout_SynthesizesCustomerName(t *testing.T) {
	store := newFakeStore()
	store.addItem("PARA-500", "Paracetamol 500mg", 100)
	// Two prior sales on record.
	store.sales = append(store.sales,
		&Sale{Document: entity.NewDocument()},
		&Sale{Document: entity.NewDocument()},
	)

	engine := newEngine(store)
	result, err := engine.Checkout(context.Background(), []CartLine{
		{Code: "PARA-500", Qty: 1, UnitPrice: types.MustMoney("15")},
	}, SaleMeta{CustomerName: "   "})

	require.NoError(t, err)
	assert.Equal(t, "Customer #3", result.CustomerName)
}

func TestCheckout_RollbackOnPersistFailure(t *testing.T) {
	store := newFakeStore()
	store.addItem("PARA-500", "Paracetamol 500mg", 20)
	store.failSaveLines = true

	engine := newEngine(store)
	_, err := engine.Checkout(context.Background(), []CartLine{
		{Code: "PARA-500", Qty: 3, UnitPrice: types.MustMoney("15")},
	}, SaleMeta{CustomerName: "John"})

	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeCommit, appErr.Code)

	assert.Equal(t, int64(20), store.items["PARA-500"].Quantity)
	assert.Empty(t, store.sales)
}

func TestCheckout_UniqueReferences(t *testing.T) {
	store := newFakeStore()
	store.addItem("PARA-500", "Paracetamol 500mg", 100)
	engine := newEngine(store)

	seen := make(map[string]bool)
	for i := 0; i < 10; i++ {
		result, err := engine.Checkout(context.Background(), []CartLine{
			{Code: "PARA-500", Qty: 1, UnitPrice: types.MustMoney("15")},
		}, SaleMeta{CustomerName: fmt.Sprintf("c%d", i)})
		require.NoError(t, err)
		assert.False(t, seen[result.Reference], "duplicate reference %s", result.Reference)
		seen[result.Reference] = true
	}
}
