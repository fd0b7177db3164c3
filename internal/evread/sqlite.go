// Public domain.

package evread

import (
	"database/sql"
	"fmt"
	"regexp"

	_ "modernc.org/sqlite"

	"github.com/soniakeys/ebexvar/internal/evbin"
)

var rxIdent = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ReadSQLite reads rows of table from the SQLite database in file fn, in
// rowid order.  SRCID may be stored as text or as an integer.
func ReadSQLite(fn, table string) (evbin.Table, error) {
	if table == "" {
		table = DefaultTable
	}
	if !rxIdent.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	db, err := sql.Open("sqlite", fn)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.Query(`SELECT CAST(SRCID AS TEXT), counts, bkg, time, DTYEARS
		FROM ` + table + ` ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fn, err)
	}
	defer rows.Close()
	var t evbin.Table
	for rows.Next() {
		var r evbin.Row
		if err := rows.Scan(&r.SrcID, &r.Counts, &r.Bkg, &r.Time, &r.DTYears); err != nil {
			return nil, fmt.Errorf("%s: row %d: %w", fn, len(t), err)
		}
		t = append(t, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", fn, err)
	}
	return t, nil
}

// WriteSQLite creates table in the SQLite database fn and inserts t.
func WriteSQLite(fn, table string, t evbin.Table) error {
	if table == "" {
		table = DefaultTable
	}
	if !rxIdent.MatchString(table) {
		return fmt.Errorf("invalid table name %q", table)
	}
	db, err := sql.Open("sqlite", fn)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err = tx.Exec(`CREATE TABLE ` + table + ` (
		SRCID TEXT NOT NULL,
		counts REAL NOT NULL,
		bkg REAL NOT NULL,
		time REAL NOT NULL,
		DTYEARS REAL NOT NULL)`); err != nil {
		return err
	}
	st, err := tx.Prepare(`INSERT INTO ` + table +
		` (SRCID, counts, bkg, time, DTYEARS) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer st.Close()
	for _, r := range t {
		if _, err = st.Exec(r.SrcID, r.Counts, r.Bkg, r.Time, r.DTYears); err != nil {
			return err
		}
	}
	return tx.Commit()
}
