package catalog

import (
	"database/sql"
	"fmt"
	"sort"

	_ "github.com/mattn/go-sqlite3"
)

// Schema expected by FromSQLite
const Schema = `
CREATE TABLE IF NOT EXISTS courses (
	id       TEXT PRIMARY KEY,
	name     TEXT NOT NULL,
	credits  REAL NOT NULL,
	category TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS course_prerequisites (
	course_id       TEXT NOT NULL,
	prerequisite_id TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS offerings (
	course_id   TEXT NOT NULL,
	offering_id TEXT NOT NULL,
	parity      TEXT
);
CREATE TABLE IF NOT EXISTS offering_blocks (
	course_id   TEXT NOT NULL,
	offering_id TEXT NOT NULL,
	block       TEXT NOT NULL
);
`

// OpenSQLite opens a catalog database and makes sure the expected tables exist
func OpenSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create catalog schema: %w", err)
	}
	return db, nil
}

// FromSQLite reads raw catalog records stored with the Schema layout
func FromSQLite(db *sql.DB) (RawCatalog, error) {
	prerequisites, err := loadPrerequisites(db)
	if err != nil {
		return RawCatalog{}, fmt.Errorf("%w: load prerequisites: %w", ErrMalformedInput, err)
	}

	courses, err := loadCourses(db, prerequisites)
	if err != nil {
		return RawCatalog{}, fmt.Errorf("%w: load courses: %w", ErrMalformedInput, err)
	}

	blocks, err := loadBlocks(db)
	if err != nil {
		return RawCatalog{}, fmt.Errorf("%w: load offering blocks: %w", ErrMalformedInput, err)
	}

	offerings, err := loadOfferings(db, blocks)
	if err != nil {
		return RawCatalog{}, fmt.Errorf("%w: load offerings: %w", ErrMalformedInput, err)
	}

	return RawCatalog{Courses: courses, Offerings: offerings}, nil
}

func loadCourses(db *sql.DB, prerequisites map[string][]string) ([]RawCourse, error) {
	rows, err := db.Query(`SELECT id, name, credits, category FROM courses ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	courses := []RawCourse{}
	for rows.Next() {
		var course RawCourse
		if err := rows.Scan(&course.Id, &course.Name, &course.Credits, &course.Category); err != nil {
			return nil, err
		}
		course.Prerequisites = prerequisites[course.Id]
		courses = append(courses, course)
	}
	return courses, rows.Err()
}

func loadPrerequisites(db *sql.DB) (map[string][]string, error) {
	rows, err := db.Query(`SELECT course_id, prerequisite_id FROM course_prerequisites`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]string)
	for rows.Next() {
		var course, prerequisite string
		if err := rows.Scan(&course, &prerequisite); err != nil {
			return nil, err
		}
		out[course] = append(out[course], prerequisite)
	}
	return out, rows.Err()
}

func loadBlocks(db *sql.DB) (map[[2]string][]string, error) {
	rows, err := db.Query(`SELECT course_id, offering_id, block FROM offering_blocks`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[[2]string][]string)
	for rows.Next() {
		var course, offering, block string
		if err := rows.Scan(&course, &offering, &block); err != nil {
			return nil, err
		}
		key := [2]string{course, offering}
		out[key] = append(out[key], block)
	}
	return out, rows.Err()
}

func loadOfferings(db *sql.DB, blocks map[[2]string][]string) ([]RawOffering, error) {
	rows, err := db.Query(`SELECT course_id, offering_id, parity FROM offerings ORDER BY course_id, offering_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	offerings := []RawOffering{}
	for rows.Next() {
		var offering RawOffering
		var parity sql.NullString
		if err := rows.Scan(&offering.CourseId, &offering.OfferingId, &parity); err != nil {
			return nil, err
		}
		offering.Parity = parity.String
		offering.TimeBlocks = blocks[[2]string{offering.CourseId, offering.OfferingId}]
		sort.Strings(offering.TimeBlocks)
		offerings = append(offerings, offering)
	}
	return offerings, rows.Err()
}

// SaveSQLite writes raw records into a database created by OpenSQLite
func SaveSQLite(db *sql.DB, raw RawCatalog) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, course := range raw.Courses {
		if _, err := tx.Exec(`INSERT INTO courses (id, name, credits, category) VALUES (?, ?, ?, ?)`, course.Id, course.Name, course.Credits, course.Category); err != nil {
			return fmt.Errorf("insert course %v: %w", course.Id, err)
		}
		for _, prerequisite := range course.Prerequisites {
			if _, err := tx.Exec(`INSERT INTO course_prerequisites (course_id, prerequisite_id) VALUES (?, ?)`, course.Id, prerequisite); err != nil {
				return fmt.Errorf("insert prerequisite %v of %v: %w", prerequisite, course.Id, err)
			}
		}
	}

	for _, offering := range raw.Offerings {
		if _, err := tx.Exec(`INSERT INTO offerings (course_id, offering_id, parity) VALUES (?, ?, ?)`, offering.CourseId, offering.OfferingId, offering.Parity); err != nil {
			return fmt.Errorf("insert offering %v/%v: %w", offering.CourseId, offering.OfferingId, err)
		}
		for _, block := range offering.TimeBlocks {
			if _, err := tx.Exec(`INSERT INTO offering_blocks (course_id, offering_id, block) VALUES (?, ?, ?)`, offering.CourseId, offering.OfferingId, block); err != nil {
				return fmt.Errorf("insert block %v of %v/%v: %w", block, offering.CourseId, offering.OfferingId, err)
			}
		}
	}

	return tx.Commit()
}
