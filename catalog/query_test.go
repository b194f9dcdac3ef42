package catalog

import (
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/venicegeo/bf-scene-catalog/schema"
	"github.com/venicegeo/bf-scene-catalog/util"
)

func TestQuery_Predicates(t *testing.T) {
	// Mock
	store, mock, db := newMockStore(t)
	defer db.Close()
	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT "scene", "outname_base" FROM "duplicates" WHERE ("outname_base" = $1 OR "outname_base" = $2) ORDER BY "scene"`)).
		WithArgs("A", "B").
		WillReturnRows(sqlmock.NewRows([]string{"scene", "outname_base"}).
			AddRow([]byte("/data/a.zip"), "A").
			AddRow("/data/b.zip", "B"))

	// Tested code
	rows, err := store.Query(schema.DuplicatesTable, []string{"scene", "outname_base", "bogus"}, []Predicate{In("outname_base", "A", "B")}, nil)

	// Asserts
	assert.Nil(t, err)
	assert.Equal(t, []schema.Row{
		{"scene": "/data/a.zip", "outname_base": "A"},
		{"scene": "/data/b.zip", "outname_base": "B"},
	}, rows)
	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestQuery_Spatial(t *testing.T) {
	// Mock
	store, mock, db := newMockStore(t)
	defer db.Close()
	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT "scene", ST_AsEWKT("bbox") AS "bbox" FROM "sentinel1data" WHERE ("acquisition_mode" = $1) AND ST_Intersects("bbox", ST_Transform(ST_GeomFromText($2, $3), 4326)) ORDER BY "scene"`)).
		WithArgs("IW", "POINT(1 1)", 4326).
		WillReturnRows(sqlmock.NewRows([]string{"scene", "bbox"}).AddRow("/data/a.zip", "SRID=4326;POLYGON((0 0,2 0,2 2,0 2,0 0))"))

	// Tested code
	rows, err := store.Query(schema.Sentinel1Table, []string{"scene", "bbox"},
		[]Predicate{Equals("acquisition_mode", "IW")}, &SpatialFilter{WKT: "POINT(1 1)"})

	// Asserts
	assert.Nil(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, "SRID=4326;POLYGON((0 0,2 0,2 2,0 2,0 0))", rows[0]["bbox"])
	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestQuery_SpatialWithoutGeometry(t *testing.T) {
	store, _, db := newMockStore(t)
	defer db.Close()

	_, err := store.Query(schema.DuplicatesTable, nil, nil, &SpatialFilter{WKT: "POINT(1 1)"})

	assert.True(t, errors.Is(err, util.ErrSchema))
}

func TestQuery_AllUnknownColumns(t *testing.T) {
	store, mock, db := newMockStore(t)
	defer db.Close()

	rows, err := store.Query(schema.DuplicatesTable, []string{"bogus"}, nil, nil)

	assert.Nil(t, err)
	assert.Empty(t, rows)
	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestDeleteWhere(t *testing.T) {
	// Mock
	store, mock, db := newMockStore(t)
	defer db.Close()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "duplicates" WHERE ("outname_base" = $1)`)).
		WithArgs("A").
		WillReturnResult(sqlmock.NewResult(0, 2))

	// Tested code
	n, err := store.DeleteWhere(schema.DuplicatesTable, Equals("outname_base", "A"))

	// Asserts
	assert.Nil(t, err)
	assert.Equal(t, int64(2), n)
	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestDeleteWhere_UnknownColumn(t *testing.T) {
	store, _, db := newMockStore(t)
	defer db.Close()

	_, err := store.DeleteWhere(schema.DuplicatesTable, Equals("nope", "A"))

	assert.True(t, errors.Is(err, util.ErrSchema))
}

func TestDeleteWhere_NoPredicates(t *testing.T) {
	store, mock, db := newMockStore(t)
	defer db.Close()

	_, err := store.DeleteWhere(schema.DuplicatesTable)

	assert.True(t, errors.Is(err, util.ErrSchema))
	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestDeleteWhere_EmptyInMatchesNothing(t *testing.T) {
	// Mock
	store, mock, db := newMockStore(t)
	defer db.Close()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "duplicates" WHERE FALSE`)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	// Tested code
	n, err := store.DeleteWhere(schema.DuplicatesTable, In("outname_base"))

	// Asserts
	assert.Nil(t, err)
	assert.Equal(t, int64(0), n)
	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestQuery_EmptyInMatchesNothing(t *testing.T) {
	// Mock
	store, mock, db := newMockStore(t)
	defer db.Close()
	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT "scene" FROM "duplicates" WHERE FALSE AND ("scene" = $1) ORDER BY "scene"`)).
		WithArgs("/data/a.zip").
		WillReturnRows(sqlmock.NewRows([]string{"scene"}))

	// Tested code
	rows, err := store.Query(schema.DuplicatesTable, []string{"scene"},
		[]Predicate{In("outname_base"), Equals("scene", "/data/a.zip")}, nil)

	// Asserts
	assert.Nil(t, err)
	assert.Empty(t, rows)
	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestQuery_DateRangeAndPolarization(t *testing.T) {
	// Mock
	store, mock, db := newMockStore(t)
	defer db.Close()
	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT "scene" FROM "sentinel1data" WHERE "start" >= $1 AND "stop" <= $2 AND ("vv" = $3) AND ("vh" = $4) ORDER BY "scene"`)).
		WithArgs("20200101T000000", "20200201T000000", 1, 1).
		WillReturnRows(sqlmock.NewRows([]string{"scene"}).AddRow("/data/a.zip"))
	window, err1 := DateRange("20200101T000000", "20200201T000000")
	pols, err2 := Polarizations("VV", "vh")

	// Tested code
	rows, err := store.Query(schema.Sentinel1Table, []string{"scene"}, append(window, pols...), nil)

	// Asserts
	assert.Nil(t, err1)
	assert.Nil(t, err2)
	assert.Nil(t, err)
	assert.Equal(t, []schema.Row{{"scene": "/data/a.zip"}}, rows)
	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestDateRange(t *testing.T) {
	upper, err := DateRange("", "20200201T000000")
	assert.Nil(t, err)
	assert.Equal(t, []Predicate{AtMost("stop", "20200201T000000")}, upper)

	none, err := DateRange("", "")
	assert.Nil(t, err)
	assert.Empty(t, none)

	_, err = DateRange("2020-01-01", "")
	assert.True(t, errors.Is(err, util.ErrParse))
}

func TestPolarizations_Unknown(t *testing.T) {
	_, err := Polarizations("VV", "XX")

	assert.True(t, errors.Is(err, util.ErrParse))
}

func TestQuery_RangeNeedsOneValue(t *testing.T) {
	store, _, db := newMockStore(t)
	defer db.Close()

	_, err := store.Query(schema.Sentinel1Table, nil, []Predicate{{Column: "start", Op: ">=", Values: nil}}, nil)

	assert.True(t, errors.Is(err, util.ErrSchema))
}

func TestUniqueDirectories(t *testing.T) {
	// Mock
	store, mock, db := newMockStore(t)
	defer db.Close()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "scene" FROM "existings1" ORDER BY "scene"`)).
		WillReturnRows(sqlmock.NewRows([]string{"scene"}).
			AddRow("/b/x.zip").AddRow("/a/y.zip").AddRow("/b/z.zip"))

	// Tested code
	dirs, err := store.UniqueDirectories(schema.ExistingS1Table)

	// Asserts
	assert.Nil(t, err)
	assert.Equal(t, []string{"/a", "/b"}, dirs)
}
