package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinipos/internal/core/apperror"
	"clinipos/internal/core/types"
)

func TestServiceValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Service)
		wantErr bool
	}{
		{name: "valid pure labor", mutate: func(s *Service) {}},
		{
			name: "valid with bom",
			mutate: func(s *Service) {
				s.BillOfMaterials = []BOMLine{
					{ItemCode: "GLOVE", QtyPerUnit: 2},
					{ItemCode: "SWAB", QtyPerUnit: 1},
				}
			},
		},
		{
			name:    "negative price",
			mutate:  func(s *Service) { s.Price = types.MustMoney("-5") },
			wantErr: true,
		},
		{
			name: "bom missing code",
			mutate: func(s *Service) {
				s.BillOfMaterials = []BOMLine{{QtyPerUnit: 1}}
			},
			wantErr: true,
		},
		{
			name: "bom zero qty",
			mutate: func(s *Service) {
				s.BillOfMaterials = []BOMLine{{ItemCode: "GLOVE", QtyPerUnit: 0}}
			},
			wantErr: true,
		},
		{
			name: "bom duplicate code",
			mutate: func(s *Service) {
				s.BillOfMaterials = []BOMLine{
					{ItemCode: "GLOVE", QtyPerUnit: 1},
					{ItemCode: "GLOVE", QtyPerUnit: 2},
				}
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := New("SRV-INJ", "Injection", types.MustMoney("100"))
			tt.mutate(svc)

			err := svc.Validate(context.Background())
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			appErr, ok := apperror.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, apperror.CodeValidation, appErr.Code)
		})
	}
}
