package geometry

import (
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	sqlx "github.com/jmoiron/sqlx"
)

// GeometryFiles are the description documents registered for a run.
type GeometryFiles struct {
	TileLayoutFile  string `db:"CrsFile"`
	DetectorFile    string `db:"DetFile"`
	LightLayoutFile string `db:"LrsFile"`
}

func ConnectToDatabase(user string, pass string, host string, dbname string) (*sqlx.DB, error) {
	port := "3306"
	dbURI := fmt.Sprintf("%s:%s@(%s:%s)/%s?parseTime=true", user, pass, host, port, dbname)
	db, err := sqlx.Connect("mysql", dbURI)
	return db, err
}

// GetGeometryFilesFromDB resolves the geometry description file paths from
// the run-conditions database. Registrations carry run-number validity
// windows; exactly one row is expected to match a run.
func GetGeometryFilesFromDB(db *sqlx.DB, runNumber int) (GeometryFiles, error) {
	query := "SELECT CrsFile, DetFile, LrsFile FROM GeometryFiles WHERE MinRun <= %d and MaxRun >= %d"
	query = fmt.Sprintf(query, runNumber, runNumber)

	if configuration.Verbosity > 0 {
		logger.Info("Geometry file registration read from DB", "database")
	}
	if configuration.Verbosity > 2 {
		message := fmt.Sprintf("Query: %s", query)
		logger.Info(message, "database")
	}

	rows, err := db.Queryx(query)
	if err != nil {
		errMessage := fmt.Errorf("error querying database: %w", err)
		return GeometryFiles{}, errMessage
	}
	defer rows.Close()

	var files GeometryFiles
	found := false
	for rows.Next() {
		if found {
			return GeometryFiles{}, fmt.Errorf("multiple geometry registrations cover run %d", runNumber)
		}
		if err := rows.StructScan(&files); err != nil {
			errMessage := fmt.Errorf("error scanning DB row: %w", err)
			return GeometryFiles{}, errMessage
		}
		found = true
	}
	if !found {
		return GeometryFiles{}, fmt.Errorf("no geometry registration covers run %d", runNumber)
	}
	return files, nil
}
