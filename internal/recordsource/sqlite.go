package recordsource

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/parcelworks/appealdesk/internal/geo"
)

// SnapshotStore serves roll queries from a local SQLite copy of the
// assessment roll, so the service can run against a downloaded extract
// instead of the live feed. Geo-radius filtering uses a bounding-box
// prefilter in SQL followed by an exact great-circle check.
type SnapshotStore struct {
	db *sqlx.DB
}

const snapshotSchema = `
CREATE TABLE IF NOT EXISTS roll (
	parcel_id         TEXT NOT NULL,
	block             TEXT NOT NULL DEFAULT '',
	lot               TEXT NOT NULL DEFAULT '',
	address           TEXT NOT NULL DEFAULT '',
	use_code          TEXT NOT NULL DEFAULT '',
	class_text        TEXT NOT NULL DEFAULT '',
	bedrooms          TEXT NOT NULL DEFAULT '',
	bathrooms         TEXT NOT NULL DEFAULT '',
	area              TEXT NOT NULL DEFAULT '',
	land_value        TEXT NOT NULL DEFAULT '',
	improvement_value TEXT NOT NULL DEFAULT '',
	sale_date         TEXT NOT NULL DEFAULT '',
	latitude          TEXT NOT NULL DEFAULT '',
	longitude         TEXT NOT NULL DEFAULT '',
	roll_year         TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (parcel_id, roll_year)
);
CREATE INDEX IF NOT EXISTS idx_roll_block_lot ON roll(block, lot);
CREATE INDEX IF NOT EXISTS idx_roll_year_use ON roll(roll_year, use_code);
`

func OpenSnapshot(path string) (*SnapshotStore, error) {
	db, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open roll snapshot: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(snapshotSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init roll snapshot schema: %w", err)
	}
	return &SnapshotStore{db: db}, nil
}

func (s *SnapshotStore) Close() error {
	return s.db.Close()
}

// Insert upserts a batch of roll rows, keyed by parcel and roll year.
func (s *SnapshotStore) Insert(ctx context.Context, rows []Row) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot insert: %w", err)
	}
	defer tx.Rollback()

	const stmt = `INSERT OR REPLACE INTO roll
		(parcel_id, block, lot, address, use_code, class_text, bedrooms, bathrooms,
		 area, land_value, improvement_value, sale_date, latitude, longitude, roll_year)
		VALUES (:parcel_id, :block, :lot, :address, :use_code, :class_text, :bedrooms,
		 :bathrooms, :area, :land_value, :improvement_value, :sale_date, :latitude,
		 :longitude, :roll_year)`
	for _, r := range rows {
		if _, err := tx.NamedExecContext(ctx, stmt, r); err != nil {
			return fmt.Errorf("insert roll row %s: %w", r.ParcelID, err)
		}
	}
	return tx.Commit()
}

func (s *SnapshotStore) Query(ctx context.Context, q Query) ([]Row, error) {
	where, args := buildSnapshotWhere(q.Filter)
	sqlText := "SELECT * FROM roll"
	if where != "" {
		sqlText += " WHERE " + where
	}
	if q.Order != nil {
		dir := "ASC"
		if q.Order.Desc {
			dir = "DESC"
		}
		sqlText += " ORDER BY " + snapshotOrderColumn(q.Order.Field) + " " + dir
	}
	// The radius predicate is refined in Go below, so the SQL limit only
	// applies when no circle needs the exact pass.
	if q.Limit > 0 && q.Filter.Within == nil {
		sqlText += " LIMIT " + strconv.Itoa(q.Limit)
	}

	var rows []Row
	if err := s.db.SelectContext(ctx, &rows, sqlText, args...); err != nil {
		return nil, fmt.Errorf("query roll snapshot: %w", err)
	}

	if q.Filter.Within != nil {
		rows = filterWithinCircle(rows, *q.Filter.Within)
		if q.Limit > 0 && len(rows) > q.Limit {
			rows = rows[:q.Limit]
		}
	}
	return rows, nil
}

func buildSnapshotWhere(f Filter) (string, []any) {
	var clauses []string
	var args []any
	if f.RollYear != "" {
		clauses = append(clauses, "roll_year = ?")
		args = append(args, f.RollYear)
	}
	if len(f.UseCodes) > 0 {
		marks := strings.TrimRight(strings.Repeat("?,", len(f.UseCodes)), ",")
		clauses = append(clauses, "use_code IN ("+marks+")")
		for _, u := range f.UseCodes {
			args = append(args, u)
		}
	}
	for _, term := range f.AddressContains {
		clauses = append(clauses, "instr(upper(address), ?) > 0")
		args = append(args, strings.ToUpper(term))
	}
	if f.Block != "" {
		clauses = append(clauses, "block = ?")
		args = append(args, f.Block)
	}
	if f.Lot != "" {
		clauses = append(clauses, "lot = ?")
		args = append(args, f.Lot)
	}
	if f.Within != nil {
		latPad, lonPad := boundingPad(f.Within.Lat, f.Within.RadiusMiles)
		clauses = append(clauses, "CAST(latitude AS REAL) BETWEEN ? AND ?")
		args = append(args, f.Within.Lat-latPad, f.Within.Lat+latPad)
		clauses = append(clauses, "CAST(longitude AS REAL) BETWEEN ? AND ?")
		args = append(args, f.Within.Lon-lonPad, f.Within.Lon+lonPad)
		clauses = append(clauses, "latitude != ''")
	}
	if f.SoldAfter != nil {
		clauses = append(clauses, "sale_date > ?")
		args = append(args, f.SoldAfter.Format("2006-01-02"))
	}
	if f.ExcludeParcel != "" {
		clauses = append(clauses, "parcel_id != ?")
		args = append(args, f.ExcludeParcel)
	}
	return strings.Join(clauses, " AND "), args
}

func snapshotOrderColumn(field string) string {
	switch field {
	case FieldSaleDate:
		return "sale_date"
	case FieldAddress:
		return "address"
	default:
		return "parcel_id"
	}
}

// boundingPad returns the degree padding that encloses a radius at the given
// latitude. One degree of latitude is ~69 miles.
func boundingPad(lat, radiusMiles float64) (latPad, lonPad float64) {
	latPad = radiusMiles / 69.0
	cosLat := math.Cos(lat * math.Pi / 180.0)
	if cosLat < 0.01 {
		cosLat = 0.01
	}
	lonPad = radiusMiles / (69.0 * cosLat)
	return latPad, lonPad
}

func filterWithinCircle(rows []Row, c Circle) []Row {
	out := rows[:0]
	for _, r := range rows {
		lat, errLat := strconv.ParseFloat(r.Latitude, 64)
		lon, errLon := strconv.ParseFloat(r.Longitude, 64)
		if errLat != nil || errLon != nil {
			continue
		}
		if geo.DistanceMiles(c.Lat, c.Lon, lat, lon) <= c.RadiusMiles {
			out = append(out, r)
		}
	}
	return out
}
