package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/dealer-stock-api/internal/domain"
	"github.com/jhoicas/dealer-stock-api/internal/domain/entity"
	"github.com/jhoicas/dealer-stock-api/internal/domain/repository"
	"github.com/jhoicas/dealer-stock-api/internal/infrastructure/memory"
)

func newRecord(id string, location *string, available int64) *entity.StockRecord {
	return &entity.StockRecord{
		ID:                id,
		ProductID:         "p1",
		LocationID:        location,
		TotalQuantity:     available,
		AvailableQuantity: available,
		CreatedAt:         time.Now(),
		UpdatedAt:         time.Now(),
	}
}

func TestStore_RollbackRestauraEstado(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.StockRecords().Create(ctx, newRecord("s1", nil, 5)))

	boom := errors.New("boom")
	err := store.Run(ctx, func(stockRepo repository.StockRecordRepository, movRepo repository.StockMovementRepository) error {
		rec, err := stockRepo.GetForUpdate(ctx, "s1")
		require.NoError(t, err)
		require.NoError(t, rec.Reserve(2))
		require.NoError(t, stockRepo.Update(ctx, rec))
		require.NoError(t, movRepo.Create(ctx, &entity.StockMovement{ID: "m1", StockID: "s1", Type: entity.MovementTypeRESERVE, Quantity: 2}))
		require.NoError(t, stockRepo.Delete(ctx, "s1"))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	rec, err := store.StockRecords().GetByID(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, int64(5), rec.AvailableQuantity)
	assert.Equal(t, int64(1), rec.Version)
	movs, total, err := store.StockMovements().ListByStock(ctx, "s1", 10, 0)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, movs)
}

func TestStore_ContextoCanceladoNoEjecuta(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	err := memory.NewStore().Run(ctx, func(repository.StockRecordRepository, repository.StockMovementRepository) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestStockRecordRepo_DevuelveCopias(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	loc := "d1"
	require.NoError(t, store.StockRecords().Create(ctx, newRecord("s1", &loc, 3)))
	loc = "otro"

	rec, err := store.StockRecords().GetByID(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, rec.LocationID)
	assert.Equal(t, "d1", *rec.LocationID)

	rec.AvailableQuantity = 99
	*rec.LocationID = "mutado"
	again, err := store.StockRecords().GetByID(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), again.AvailableQuantity)
	assert.Equal(t, "d1", *again.LocationID)
}

func TestStockRecordRepo_UnicoPorProductoYUbicacion(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewStore().StockRecords()
	require.NoError(t, repo.Create(ctx, newRecord("s1", nil, 1)))
	assert.ErrorIs(t, repo.Create(ctx, newRecord("s2", nil, 1)), domain.ErrDuplicate)

	loc := "d1"
	require.NoError(t, repo.Create(ctx, newRecord("s3", &loc, 1)))
	same := "d1"
	assert.ErrorIs(t, repo.Create(ctx, newRecord("s4", &same, 1)), domain.ErrDuplicate)

	got, err := repo.GetByProductAndLocation(ctx, "p1", nil)
	require.NoError(t, err)
	assert.Equal(t, "s1", got.ID)
	got, err = repo.GetByProductAndLocation(ctx, "p1", &same)
	require.NoError(t, err)
	assert.Equal(t, "s3", got.ID)
}

func TestStockRecordRepo_VersionDesactualizada(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewStore().StockRecords()
	require.NoError(t, repo.Create(ctx, newRecord("s1", nil, 4)))

	a, err := repo.GetByID(ctx, "s1")
	require.NoError(t, err)
	b, err := repo.GetByID(ctx, "s1")
	require.NoError(t, err)

	require.NoError(t, a.Reserve(1))
	require.NoError(t, repo.Update(ctx, a))
	assert.Equal(t, int64(2), a.Version)

	require.NoError(t, b.Reserve(3))
	assert.ErrorIs(t, repo.Update(ctx, b), domain.ErrConcurrentUpdate)

	bad := newRecord("s1", nil, 4)
	bad.Version = 2
	bad.TotalQuantity = 7
	assert.ErrorIs(t, repo.Update(ctx, bad), domain.ErrStockInvariant)
}

func TestSellInRequestRepo_SecuenciaPorAño(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewStore().SellInRequests()

	for want := int64(1); want <= 3; want++ {
		got, err := repo.NextSequence(ctx, 2025)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	got, err := repo.NextSequence(ctx, 2026)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got)
}

func TestSellInRequestRepo_NumeroUnicoYCopiaDeItems(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewStore().SellInRequests()
	req := &entity.SellInRequest{
		ID: "r1", RequestNumber: "SIR-2026-00001", DealerID: "d1", Status: entity.SellInStatusPending,
		RequestDate: time.Now(),
		Items:       []entity.SellInRequestItem{{ID: "i1", ProductID: "p1", RequestedQuantity: 2}},
	}
	require.NoError(t, repo.Create(ctx, req))

	dup := *req
	dup.ID = "r2"
	assert.ErrorIs(t, repo.Create(ctx, &dup), domain.ErrDuplicate)

	got, err := repo.GetByNumber(ctx, "SIR-2026-00001")
	require.NoError(t, err)
	got.Items[0].ApprovedQuantity = 2

	again, err := repo.GetByID(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), again.Items[0].ApprovedQuantity)

	missing, err := repo.GetByID(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestStore_LecturaFueraDeTransaccionVeSoloEstadoConfirmado(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.StockRecords().Create(ctx, newRecord("s1", nil, 5)))

	written := make(chan struct{})
	finish := make(chan struct{})
	txDone := make(chan error, 1)
	go func() {
		txDone <- store.Run(ctx, func(stockRepo repository.StockRecordRepository, _ repository.StockMovementRepository) error {
			rec, err := stockRepo.GetForUpdate(ctx, "s1")
			if err != nil {
				return err
			}
			if err := rec.Reserve(5); err != nil {
				return err
			}
			if err := stockRepo.Update(ctx, rec); err != nil {
				return err
			}
			close(written)
			<-finish
			return errors.New("abortar")
		})
	}()
	<-written

	read := make(chan *entity.StockRecord, 1)
	go func() {
		rec, err := store.StockRecords().GetByID(ctx, "s1")
		assert.NoError(t, err)
		read <- rec
	}()

	select {
	case rec := <-read:
		t.Fatalf("la lectura no esperó a la transacción: disponible=%d", rec.AvailableQuantity)
	case <-time.After(50 * time.Millisecond):
	}

	close(finish)
	require.Error(t, <-txDone)
	select {
	case rec := <-read:
		require.NotNil(t, rec)
		assert.Equal(t, int64(5), rec.AvailableQuantity)
		assert.Equal(t, int64(0), rec.ReservedQuantity)
	case <-time.After(time.Second):
		t.Fatal("la lectura sigue bloqueada tras el rollback")
	}
}

func TestStockRecordRepo_CommittedInTransitSoloSolicitudesEnTransito(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	reqs := store.SellInRequests()
	mk := func(id, number, dealer, status string, approved, delivered int64) {
		require.NoError(t, reqs.Create(ctx, &entity.SellInRequest{
			ID: id, RequestNumber: number, DealerID: dealer, Status: status, RequestDate: time.Now(),
			Items: []entity.SellInRequestItem{
				{ID: id + "-a", ProductID: "p1", RequestedQuantity: approved, ApprovedQuantity: approved, DeliveredQuantity: delivered},
				{ID: id + "-b", ProductID: "p2", RequestedQuantity: 9, ApprovedQuantity: 9},
			},
		}))
	}
	mk("r1", "SIR-2026-00001", "d1", entity.SellInStatusInTransit, 6, 0)
	mk("r2", "SIR-2026-00002", "d1", entity.SellInStatusInTransit, 4, 1)
	mk("r3", "SIR-2026-00003", "d1", entity.SellInStatusApproved, 7, 0)
	mk("r4", "SIR-2026-00004", "d2", entity.SellInStatusInTransit, 5, 0)

	d1 := "d1"
	got, err := store.StockRecords().CommittedInTransit(ctx, "p1", &d1)
	require.NoError(t, err)
	assert.Equal(t, int64(9), got)

	got, err = store.StockRecords().CommittedInTransit(ctx, "p1", nil)
	require.NoError(t, err)
	assert.Zero(t, got, "la bodega central nunca recibe despachos sell-in")
}
