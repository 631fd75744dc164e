package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"clinipos/internal/core/entity"
	"clinipos/internal/core/id"
)

type mockCatalog struct {
	entity.BaseCatalog
	Code string `db:"code" json:"code"`
	Name string `db:"name" json:"name"`
	Skip string `db:"-" json:"skip"`
}

func TestExtractDBColumns(t *testing.T) {
	cols := ExtractDBColumns[mockCatalog]()

	expectedCols := []string{"id", "deletion_mark", "version", "attributes", "code", "name"}
	for _, expected := range expectedCols {
		assert.Contains(t, cols, expected)
	}
	assert.NotContains(t, cols, "-")
	assert.NotContains(t, cols, "skip")
}

func TestStructToMap(t *testing.T) {
	cat := mockCatalog{
		BaseCatalog: entity.BaseCatalog{
			BaseEntity: entity.BaseEntity{
				ID:           id.New(),
				DeletionMark: true,
				Version:      5,
			},
		},
		Code: "PARA-500",
		Name: "Paracetamol 500mg",
		Skip: "not persisted",
	}

	m := StructToMap(cat)

	assert.Equal(t, cat.ID, m["id"])
	assert.Equal(t, true, m["deletion_mark"])
	assert.Equal(t, 5, m["version"])
	assert.Equal(t, "PARA-500", m["code"])
	assert.Equal(t, "Paracetamol 500mg", m["name"])
	assert.NotContains(t, m, "skip")
}

func TestStructToMap_Pointer(t *testing.T) {
	cat := &mockCatalog{Code: "AMOX-250"}

	m := StructToMap(cat)

	assert.Equal(t, "AMOX-250", m["code"])
}
