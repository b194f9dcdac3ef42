package catalog

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/venicegeo/bf-scene-catalog/schema"
	"github.com/venicegeo/bf-scene-catalog/util"
)

// Predicate restricts a column. Without an Op it restricts the column to a
// set of values: a single value is an equality test, several values are
// OR-ed together and no value matches nothing. With an Op it compares the
// column against its single value.
type Predicate struct {
	Column string
	Op     string
	Values []interface{}
}

const (
	opAtLeast = ">="
	opAtMost  = "<="
)

// Equals is a single-valued Predicate
func Equals(column string, value interface{}) Predicate {
	return Predicate{Column: column, Values: []interface{}{value}}
}

// In is a multi-valued Predicate
func In(column string, values ...interface{}) Predicate {
	return Predicate{Column: column, Values: values}
}

// AtLeast matches rows whose column is >= value
func AtLeast(column string, value interface{}) Predicate {
	return Predicate{Column: column, Op: opAtLeast, Values: []interface{}{value}}
}

// AtMost matches rows whose column is <= value
func AtMost(column string, value interface{}) Predicate {
	return Predicate{Column: column, Op: opAtMost, Values: []interface{}{value}}
}

var acquisitionTime = regexp.MustCompile(`^[0-9]{8}T[0-9]{6}$`)

// DateRange restricts scenes to those starting at or after from and stopping
// at or before to, both formatted YYYYmmddTHHMMSS. An empty bound is left
// open.
func DateRange(from string, to string) ([]Predicate, error) {
	preds := []Predicate{}
	for _, bound := range []struct{ column, value, op string }{{"start", from, opAtLeast}, {"stop", to, opAtMost}} {
		if bound.value == "" {
			continue
		}
		if !acquisitionTime.MatchString(bound.value) {
			return nil, errors.Wrapf(util.ErrParse, "date %q is not formatted YYYYmmddTHHMMSS", bound.value)
		}
		preds = append(preds, Predicate{Column: bound.column, Op: bound.op, Values: []interface{}{bound.value}})
	}
	return preds, nil
}

// Polarizations requires every named polarization (HH, VV, HV or VH, any
// case) to be flagged on the scene
func Polarizations(pols ...string) ([]Predicate, error) {
	preds := []Predicate{}
	for _, pol := range pols {
		column := strings.ToLower(pol)
		switch column {
		case "hh", "vv", "hv", "vh":
			preds = append(preds, Equals(column, 1))
		default:
			return nil, errors.Wrapf(util.ErrParse, "unknown polarization %q", pol)
		}
	}
	return preds, nil
}

// SpatialFilter selects rows whose geometry intersects WKT, given in SRID
type SpatialFilter struct {
	WKT  string
	SRID int
}

func whereClause(t schema.Table, preds []Predicate, args []interface{}) (string, []interface{}, error) {
	conditions := []string{}
	for _, p := range preds {
		if _, ok := t.Column(p.Column); !ok {
			return "", nil, errors.Wrapf(util.ErrSchema, "table %s has no column %s", t.Name, p.Column)
		}
		if p.Op != "" {
			if len(p.Values) != 1 {
				return "", nil, errors.Wrapf(util.ErrSchema, "%s %s takes exactly one value", p.Column, p.Op)
			}
			args = append(args, p.Values[0])
			conditions = append(conditions, fmt.Sprintf("%s %s $%d", pq.QuoteIdentifier(p.Column), p.Op, len(args)))
			continue
		}
		if len(p.Values) == 0 {
			conditions = append(conditions, "FALSE")
			continue
		}
		alts := make([]string, len(p.Values))
		for i, v := range p.Values {
			args = append(args, v)
			alts[i] = fmt.Sprintf("%s = $%d", pq.QuoteIdentifier(p.Column), len(args))
		}
		conditions = append(conditions, "("+strings.Join(alts, " OR ")+")")
	}
	if len(conditions) == 0 {
		return "", args, nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args, nil
}

// Query selects columns of the rows of table matching every predicate.
// Unknown columns are dropped with a warning; an empty column list selects
// all columns. Geometries come back as EWKT strings. Rows are ordered by
// primary key.
func (s *Store) Query(table string, columns []string, preds []Predicate, spatial *SpatialFilter) ([]schema.Row, error) {
	t, err := s.registry.Table(table)
	if err != nil {
		return nil, err
	}

	if len(columns) == 0 {
		columns = t.ColumnNames()
	}
	selected := []schema.Column{}
	for _, name := range columns {
		col, ok := t.Column(name)
		if !ok {
			util.LogAlert(s.logCtx, fmt.Sprintf("Ignoring unknown column %s of table %s", name, table))
			continue
		}
		selected = append(selected, col)
	}
	if len(selected) == 0 {
		return []schema.Row{}, nil
	}

	exprs := make([]string, len(selected))
	for i, col := range selected {
		exprs[i] = pq.QuoteIdentifier(col.Name)
		if col.Type == schema.Polygon {
			exprs[i] = fmt.Sprintf("ST_AsEWKT(%s) AS %s", exprs[i], pq.QuoteIdentifier(col.Name))
		}
	}

	where, args, err := whereClause(t, preds, nil)
	if err != nil {
		return nil, err
	}
	if spatial != nil {
		geoms := t.GeometryColumns()
		if len(geoms) == 0 {
			return nil, errors.Wrapf(util.ErrSchema, "table %s has no geometry column", table)
		}
		srid := spatial.SRID
		if srid == 0 {
			srid = schema.SRID
		}
		args = append(args, spatial.WKT, srid)
		cond := fmt.Sprintf("ST_Intersects(%s, ST_Transform(ST_GeomFromText($%d, $%d), %d))",
			pq.QuoteIdentifier(geoms[0]), len(args)-1, len(args), schema.SRID)
		if where == "" {
			where = " WHERE " + cond
		} else {
			where += " AND " + cond
		}
	}

	query := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY %s",
		strings.Join(exprs, ", "), pq.QuoteIdentifier(t.Name), where, schema.QuoteIdentifiers(t.PrimaryKey()))
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []schema.Row{}
	for rows.Next() {
		values := make([]interface{}, len(selected))
		ptrs := make([]interface{}, len(selected))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err = rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := schema.Row{}
		for i, col := range selected {
			if b, ok := values[i].([]byte); ok {
				row[col.Name] = string(b)
			} else {
				row[col.Name] = values[i]
			}
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// DeleteWhere removes the rows of table matching every predicate and reports
// how many were deleted. At least one predicate is required.
func (s *Store) DeleteWhere(table string, preds ...Predicate) (int64, error) {
	t, err := s.registry.Table(table)
	if err != nil {
		return 0, err
	}
	if len(preds) == 0 {
		return 0, errors.Wrapf(util.ErrSchema, "refusing to delete every row of %s", table)
	}
	where, args, err := whereClause(t, preds, nil)
	if err != nil {
		return 0, err
	}
	res, err := s.db.Exec("DELETE FROM "+pq.QuoteIdentifier(t.Name)+where, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
