package stock

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinipos/internal/core/apperror"
)

type fakeRepo struct {
	quantities map[string]int64

	lockedCodes []string
	adjustCalls int
	adjustErr   error
}

func (r *fakeRepo) OnHand(_ context.Context, code string) (int64, error) {
	qty, ok := r.quantities[code]
	if !ok {
		return 0, apperror.NewNotFound("item", code)
	}
	return qty, nil
}

func (r *fakeRepo) OnHandBatch(_ context.Context, codes []string) (map[string]int64, error) {
	out := make(map[string]int64)
	for _, c := range codes {
		if qty, ok := r.quantities[c]; ok {
			out[c] = qty
		}
	}
	return out, nil
}

func (r *fakeRepo) OnHandForUpdate(ctx context.Context, codes []string) (map[string]int64, error) {
	r.lockedCodes = append([]string(nil), codes...)
	return r.OnHandBatch(ctx, codes)
}

func (r *fakeRepo) Adjust(_ context.Context, code string, delta int64) error {
	r.adjustCalls++
	if r.adjustErr != nil {
		return r.adjustErr
	}
	r.quantities[code] += delta
	return nil
}

func TestSnapshotLocksSortedUniqueCodes(t *testing.T) {
	repo := &fakeRepo{quantities: map[string]int64{"PARA-500": 40, "AMOX-250": 12}}
	svc := NewService(repo)

	snap, err := svc.Snapshot(context.Background(), []string{"PARA-500", "AMOX-250", "PARA-500"})
	require.NoError(t, err)

	assert.Equal(t, []string{"AMOX-250", "PARA-500"}, repo.lockedCodes)
	assert.Equal(t, map[string]int64{"PARA-500": 40, "AMOX-250": 12}, snap)
}

func TestSnapshotEmptyCodesSkipsRepo(t *testing.T) {
	repo := &fakeRepo{quantities: map[string]int64{}}
	svc := NewService(repo)

	snap, err := svc.Snapshot(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, snap)
	assert.Nil(t, repo.lockedCodes)
}

func TestOnHandUnknownCodeIsNotFound(t *testing.T) {
	svc := NewService(&fakeRepo{quantities: map[string]int64{}})

	_, err := svc.OnHand(context.Background(), "GHOST")
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}

func TestAdjustZeroDeltaIsNoop(t *testing.T) {
	repo := &fakeRepo{quantities: map[string]int64{"PARA-500": 40}}
	svc := NewService(repo)

	require.NoError(t, svc.Adjust(context.Background(), "PARA-500", 0))
	assert.Zero(t, repo.adjustCalls)
	assert.Equal(t, int64(40), repo.quantities["PARA-500"])
}

func TestAdjustWrapsRepoError(t *testing.T) {
	guardErr := errors.New("no rows affected")
	repo := &fakeRepo{quantities: map[string]int64{"PARA-500": 1}, adjustErr: guardErr}
	svc := NewService(repo)

	err := svc.Adjust(context.Background(), "PARA-500", -5)
	require.Error(t, err)
	assert.ErrorIs(t, err, guardErr)
	assert.Contains(t, err.Error(), "PARA-500")
}
