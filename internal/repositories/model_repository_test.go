package repositories

import (
	"bytes"
	"context"
	"log"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jaguarundi/internal/database"
	"jaguarundi/internal/models"
)

type petFixture struct {
	db     *sqlx.DB
	logs   *bytes.Buffer
	colors *ModelRepository
	pets   *ModelRepository
}

func newPetFixture(t *testing.T) *petFixture {
	t.Helper()

	db, err := database.Open(&database.Config{Name: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	registry := models.NewRegistry()
	color := registry.MustRegister("Color", models.Column{Name: "name", Type: "TEXT"})
	pet := registry.MustRegister("Pet",
		models.Column{Name: "name", Type: "TEXT"},
		models.Column{Name: "color", ForeignKey: color},
	)

	logs := &bytes.Buffer{}
	logger := log.New(logs, "", 0)
	f := &petFixture{
		db:     db,
		logs:   logs,
		colors: NewModelRepository(color, logger, true),
		pets:   NewModelRepository(pet, logger, true),
	}

	ctx := context.Background()
	require.NoError(t, f.colors.CreateTable(ctx, db))
	require.NoError(t, f.pets.CreateTable(ctx, db))
	return f
}

func TestCreateTableThenDropTableLeavesNoTable(t *testing.T) {
	f := newPetFixture(t)
	ctx := context.Background()

	err := f.pets.CreateTable(ctx, f.db)
	assert.ErrorIs(t, err, models.ErrDDLExecution)

	require.NoError(t, f.pets.DropTable(ctx, f.db))

	var count int
	require.NoError(t, f.db.Get(&count, "SELECT count(*) FROM sqlite_master WHERE type='table' AND name='pet_tbl'"))
	assert.Equal(t, 0, count)

	err = f.pets.DropTable(ctx, f.db)
	assert.ErrorIs(t, err, models.ErrDDLExecution)

	assert.NoError(t, f.pets.CreateTable(ctx, f.db))
}

func TestCreateThenGetRoundTrips(t *testing.T) {
	f := newPetFixture(t)
	ctx := context.Background()

	gray, err := f.colors.Create(ctx, f.db, models.Values{"name": "gray"})
	require.NoError(t, err)

	id, ok := gray.ID()
	require.True(t, ok)
	assert.Equal(t, int64(1), id)
	assert.Equal(t, "gray", gray.Get("name"))

	got, err := f.colors.Get(ctx, f.db, models.Values{"id": id})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"id": int64(1), "name": "gray"}, got.Map())

	assert.Contains(t, f.logs.String(), "INSERT INTO color_tbl(name) VALUES('gray');")
}

func TestAllNestsRelatedRecord(t *testing.T) {
	f := newPetFixture(t)
	ctx := context.Background()

	gray, err := f.colors.Create(ctx, f.db, models.Values{"name": "gray"})
	require.NoError(t, err)
	grayID, _ := gray.ID()

	_, err = f.pets.Create(ctx, f.db, models.Values{"name": "Tom", "color": grayID})
	require.NoError(t, err)

	pets, err := f.pets.All(ctx, f.db)
	require.NoError(t, err)
	require.Len(t, pets, 1)

	color := pets[0].Related("color")
	require.NotNil(t, color)
	assert.Equal(t, "gray", color.Get("name"))

	colorID, ok := color.ID()
	require.True(t, ok)
	assert.Equal(t, pets[0].Get("color"), colorID)

	assert.Equal(t, map[string]any{
		"id":    int64(1),
		"name":  "Tom",
		"color": map[string]any{"id": int64(1), "name": "gray"},
	}, pets[0].Map())
}

func TestAllWithProjectionSkipsJoins(t *testing.T) {
	f := newPetFixture(t)
	ctx := context.Background()

	_, err := f.colors.Create(ctx, f.db, models.Values{"name": "gray"})
	require.NoError(t, err)
	_, err = f.pets.Create(ctx, f.db, models.Values{"name": "Tom", "color": 1})
	require.NoError(t, err)

	pets, err := f.pets.All(ctx, f.db, "name")
	require.NoError(t, err)
	require.Len(t, pets, 1)

	assert.Equal(t, "Tom", pets[0].Get("name"))
	assert.False(t, pets[0].Has("color"))
	assert.Nil(t, pets[0].Related("color"))
	assert.Contains(t, f.logs.String(), "SELECT pet_tbl.name AS pet_tbl__name FROM pet_tbl;")
}

func TestLeftJoinMissYieldsNoNestedRecord(t *testing.T) {
	f := newPetFixture(t)
	ctx := context.Background()

	_, err := f.pets.Create(ctx, f.db, models.Values{"name": "Stray", "color": 42})
	require.NoError(t, err)

	pet, err := f.pets.Get(ctx, f.db, models.Values{"name": "Stray"})
	require.NoError(t, err)

	assert.Nil(t, pet.Related("color"))
	assert.Equal(t, map[string]any{"id": int64(42)}, pet.Map()["color"])
}

func TestGetMissingRowIsNotFound(t *testing.T) {
	f := newPetFixture(t)

	pet, err := f.pets.Get(context.Background(), f.db, models.Values{"id": 999})
	assert.Nil(t, pet)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestGetAmbiguousFilterIsMultipleResults(t *testing.T) {
	f := newPetFixture(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := f.colors.Create(ctx, f.db, models.Values{"name": "gray"})
		require.NoError(t, err)
	}

	color, err := f.colors.Get(ctx, f.db, models.Values{"name": "gray"})
	assert.Nil(t, color)
	assert.ErrorIs(t, err, models.ErrMultipleResults)
}

func TestFilterWithoutMatchIsEmpty(t *testing.T) {
	f := newPetFixture(t)
	ctx := context.Background()

	_, err := f.colors.Create(ctx, f.db, models.Values{"name": "gray"})
	require.NoError(t, err)

	colors, err := f.colors.Filter(ctx, f.db, models.Values{"name": "blue"})
	assert.NoError(t, err)
	assert.Empty(t, colors)

	colors, err = f.colors.Filter(ctx, f.db, models.Values{"name": "gray"})
	assert.NoError(t, err)
	assert.Len(t, colors, 1)
}

func TestFilterUnknownColumn(t *testing.T) {
	f := newPetFixture(t)

	_, err := f.colors.Filter(context.Background(), f.db, models.Values{"shade": "dark"})
	assert.ErrorIs(t, err, models.ErrUnknownColumn)
}

func TestUpdateChangesOnlyGivenFields(t *testing.T) {
	f := newPetFixture(t)
	ctx := context.Background()

	_, err := f.colors.Create(ctx, f.db, models.Values{"name": "gray"})
	require.NoError(t, err)
	pet, err := f.pets.Create(ctx, f.db, models.Values{"name": "Tom", "color": 1})
	require.NoError(t, err)

	require.NoError(t, f.pets.Update(ctx, f.db, pet, models.Values{"name": "Rex"}))
	assert.Equal(t, "Rex", pet.Get("name"))
	assert.Contains(t, f.logs.String(), "UPDATE pet_tbl SET name='Rex' WHERE pet_tbl.id=1;")

	stored, err := f.pets.Get(ctx, f.db, models.Values{"id": 1})
	require.NoError(t, err)
	assert.Equal(t, "Rex", stored.Get("name"))
	assert.Equal(t, int64(1), stored.Get("color"))
}

func TestUpdateRelationDropsStaleNestedRecord(t *testing.T) {
	f := newPetFixture(t)
	ctx := context.Background()

	for _, name := range []string{"gray", "black"} {
		_, err := f.colors.Create(ctx, f.db, models.Values{"name": name})
		require.NoError(t, err)
	}
	_, err := f.pets.Create(ctx, f.db, models.Values{"name": "Tom", "color": 1})
	require.NoError(t, err)

	pet, err := f.pets.Get(ctx, f.db, models.Values{"id": 1})
	require.NoError(t, err)
	require.NotNil(t, pet.Related("color"))

	require.NoError(t, f.pets.Update(ctx, f.db, pet, models.Values{"color": int64(2)}))
	assert.Nil(t, pet.Related("color"))
	assert.Equal(t, int64(2), pet.Get("color"))
}

func TestUpdateRequiresPrimaryKey(t *testing.T) {
	f := newPetFixture(t)

	rec, err := models.NewRecordFrom(f.colors.Schema(), models.Values{"name": "gray"})
	require.NoError(t, err)

	err = f.colors.Update(context.Background(), f.db, rec, models.Values{"name": "blue"})
	assert.ErrorIs(t, err, models.ErrPrecondition)
	assert.Equal(t, "gray", rec.Get("name"))
	assert.NotContains(t, f.logs.String(), "UPDATE")
}

func TestUpdateFailureKeepsRecordUnchanged(t *testing.T) {
	f := newPetFixture(t)
	ctx := context.Background()

	_, err := f.colors.Create(ctx, f.db, models.Values{"name": "gray"})
	require.NoError(t, err)
	pet, err := f.pets.Create(ctx, f.db, models.Values{"name": "Tom", "color": 1})
	require.NoError(t, err)

	err = f.pets.Update(ctx, f.db, pet, models.Values{"name": nil})
	assert.ErrorIs(t, err, models.ErrIntegrity)
	assert.Equal(t, "Tom", pet.Get("name"))
}

func TestUpdateMissingRowIsNotFound(t *testing.T) {
	f := newPetFixture(t)

	rec, err := models.NewRecordFrom(f.colors.Schema(), models.Values{"id": 7, "name": "gray"})
	require.NoError(t, err)

	err = f.colors.Update(context.Background(), f.db, rec, models.Values{"name": "blue"})
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.Equal(t, "gray", rec.Get("name"))
}

func TestSaveWritesEveryPresentColumn(t *testing.T) {
	f := newPetFixture(t)
	ctx := context.Background()

	color, err := f.colors.Create(ctx, f.db, models.Values{"name": "gray"})
	require.NoError(t, err)

	require.NoError(t, color.Set("name", "silver"))
	require.NoError(t, f.colors.Save(ctx, f.db, color))
	assert.Contains(t, f.logs.String(), "UPDATE color_tbl SET name='silver' WHERE color_tbl.id=1;")

	stored, err := f.colors.Get(ctx, f.db, models.Values{"id": 1})
	require.NoError(t, err)
	assert.Equal(t, "silver", stored.Get("name"))
}

func TestSaveRelationChangeDropsStaleNestedRecord(t *testing.T) {
	f := newPetFixture(t)
	ctx := context.Background()

	for _, name := range []string{"gray", "black"} {
		_, err := f.colors.Create(ctx, f.db, models.Values{"name": name})
		require.NoError(t, err)
	}
	_, err := f.pets.Create(ctx, f.db, models.Values{"name": "Tom", "color": 1})
	require.NoError(t, err)

	pet, err := f.pets.Get(ctx, f.db, models.Values{"id": 1})
	require.NoError(t, err)
	require.NotNil(t, pet.Related("color"))

	require.NoError(t, pet.Set("color", 2))
	require.NoError(t, f.pets.Save(ctx, f.db, pet))

	assert.Nil(t, pet.Related("color"))
	assert.Equal(t, map[string]any{"id": 2}, pet.Map()["color"])

	stored, err := f.pets.Get(ctx, f.db, models.Values{"id": 1})
	require.NoError(t, err)
	require.NotNil(t, stored.Related("color"))
	assert.Equal(t, "black", stored.Related("color").Get("name"))
}

func TestSaveRequiresPrimaryKey(t *testing.T) {
	f := newPetFixture(t)

	rec := models.NewRecord(f.colors.Schema())
	require.NoError(t, rec.Set("name", "gray"))

	err := f.colors.Save(context.Background(), f.db, rec)
	assert.ErrorIs(t, err, models.ErrPrecondition)
}

func TestCreateConstraintViolationIsIntegrityError(t *testing.T) {
	f := newPetFixture(t)

	pet, err := f.pets.Create(context.Background(), f.db, models.Values{"name": "Tom"})
	assert.Nil(t, pet)
	assert.ErrorIs(t, err, models.ErrIntegrity)
}

func TestCreateUnknownColumnIsRejectedBeforeExecution(t *testing.T) {
	f := newPetFixture(t)

	_, err := f.colors.Create(context.Background(), f.db, models.Values{"shade": "dark"})
	assert.ErrorIs(t, err, models.ErrUnknownColumn)
	assert.NotContains(t, f.logs.String(), "shade")
}

func TestQueryOnMissingTableIsQueryExecutionError(t *testing.T) {
	f := newPetFixture(t)
	ctx := context.Background()

	require.NoError(t, f.pets.DropTable(ctx, f.db))

	pets, err := f.pets.All(ctx, f.db)
	assert.Nil(t, pets)
	assert.ErrorIs(t, err, models.ErrQueryExecution)
}

func TestRepositoryRunsInsideTransaction(t *testing.T) {
	f := newPetFixture(t)
	ctx := context.Background()

	tx, err := f.db.BeginTxx(ctx, nil)
	require.NoError(t, err)

	_, err = f.colors.Create(ctx, tx, models.Values{"name": "gray"})
	require.NoError(t, err)
	require.NoError(t, tx.Rollback())

	colors, err := f.colors.All(ctx, f.db)
	require.NoError(t, err)
	assert.Empty(t, colors)
}

func TestPrintRequestsOff(t *testing.T) {
	f := newPetFixture(t)
	logs := &bytes.Buffer{}
	quiet := NewModelRepository(f.colors.Schema(), log.New(logs, "", 0), false)

	_, err := quiet.Create(context.Background(), f.db, models.Values{"name": "gray"})
	require.NoError(t, err)
	assert.Empty(t, logs.String())
}
