package entity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/dealer-stock-api/internal/domain"
	"github.com/jhoicas/dealer-stock-api/internal/domain/entity"
)

func record(total, reserved, available, inTransit int64) *entity.StockRecord {
	return &entity.StockRecord{
		ID:                "s1",
		ProductID:         "p1",
		TotalQuantity:     total,
		ReservedQuantity:  reserved,
		AvailableQuantity: available,
		InTransitQuantity: inTransit,
	}
}

func assertInvariant(t *testing.T, s *entity.StockRecord) {
	t.Helper()
	assert.Equal(t, s.TotalQuantity, s.ReservedQuantity+s.AvailableQuantity+s.InTransitQuantity,
		"total debe ser reservado + disponible + en tránsito")
	assert.NoError(t, s.Validate())
}

func TestStockRecord_Validate(t *testing.T) {
	tests := []struct {
		name    string
		rec     *entity.StockRecord
		wantErr error
	}{
		{"consistente", record(10, 2, 5, 3), nil},
		{"todo en cero", record(0, 0, 0, 0), nil},
		{"suma no cuadra", record(10, 2, 5, 2), domain.ErrStockInvariant},
		{"negativo", record(-1, 0, -1, 0), domain.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rec.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestStockRecord_ReserveYRelease(t *testing.T) {
	s := record(10, 0, 10, 0)

	require.NoError(t, s.Reserve(4))
	assert.Equal(t, int64(6), s.AvailableQuantity)
	assert.Equal(t, int64(4), s.ReservedQuantity)
	assertInvariant(t, s)

	require.NoError(t, s.Release(4))
	assert.Equal(t, int64(10), s.AvailableQuantity)
	assert.Equal(t, int64(0), s.ReservedQuantity)
	assertInvariant(t, s)
}

func TestStockRecord_ReserveInsuficienteNoModifica(t *testing.T) {
	s := record(5, 0, 5, 0)
	err := s.Reserve(6)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, int64(5), s.AvailableQuantity)
	assert.Equal(t, int64(0), s.ReservedQuantity)
}

func TestStockRecord_CantidadesNoPositivas(t *testing.T) {
	s := record(5, 1, 3, 1)
	assert.ErrorIs(t, s.Reserve(0), domain.ErrInvalidInput)
	assert.ErrorIs(t, s.Release(-1), domain.ErrInvalidInput)
	assert.ErrorIs(t, s.DispatchOut(0), domain.ErrInvalidInput)
	assert.ErrorIs(t, s.ReceiveInTransit(0), domain.ErrInvalidInput)
	assert.ErrorIs(t, s.ResolveInTransit(0), domain.ErrInvalidInput)
	assert.ErrorIs(t, s.Adjust(0), domain.ErrInvalidInput)
}

func TestStockRecord_ReleaseMayorAReservado(t *testing.T) {
	s := record(5, 1, 4, 0)
	assert.ErrorIs(t, s.Release(2), domain.ErrInvalidInput)
	assert.Equal(t, int64(1), s.ReservedQuantity)
}

func TestStockRecord_Adjust(t *testing.T) {
	s := record(5, 2, 3, 0)

	require.NoError(t, s.Adjust(4))
	assert.Equal(t, int64(9), s.TotalQuantity)
	assert.Equal(t, int64(7), s.AvailableQuantity)
	assertInvariant(t, s)

	require.NoError(t, s.Adjust(-7))
	assert.Equal(t, int64(0), s.AvailableQuantity)
	assertInvariant(t, s)

	assert.ErrorIs(t, s.Adjust(-1), domain.ErrInsufficientStock)
	assertInvariant(t, s)
}

func TestStockRecord_TrasladoConservaUnidades(t *testing.T) {
	src := record(10, 0, 10, 0)
	dst := record(0, 0, 0, 0)

	require.NoError(t, src.DispatchOut(3))
	require.NoError(t, dst.ReceiveInTransit(3))
	assertInvariant(t, src)
	assertInvariant(t, dst)
	assert.Equal(t, int64(10), src.TotalQuantity+dst.TotalQuantity)
	assert.Equal(t, int64(3), dst.InTransitQuantity)

	require.NoError(t, dst.ResolveInTransit(3))
	assert.Equal(t, int64(3), dst.AvailableQuantity)
	assert.Equal(t, int64(0), dst.InTransitQuantity)
	assertInvariant(t, dst)

	assert.ErrorIs(t, dst.ResolveInTransit(1), domain.ErrInvalidInput)
	assert.ErrorIs(t, src.DispatchOut(8), domain.ErrInsufficientStock)
}

func TestStockRecord_Derivados(t *testing.T) {
	s := record(8, 2, 2, 4)
	assert.InDelta(t, 25.0, s.StockPercentage(), 0.0001)
	assert.True(t, s.IsLowStock(entity.DefaultLowStockThreshold))
	assert.False(t, s.IsOutOfStock())
	assert.True(t, s.IsBrandWarehouse())

	empty := record(0, 0, 0, 0)
	assert.Zero(t, empty.StockPercentage())
	assert.True(t, empty.IsOutOfStock())

	loc := "d1"
	s.LocationID = &loc
	assert.False(t, s.IsBrandWarehouse())
	other := "d1"
	assert.True(t, s.SameLocation(&other))
	assert.False(t, s.SameLocation(nil))
}
