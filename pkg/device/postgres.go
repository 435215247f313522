package device

import (
	"database/sql"
	"errors"
	"fmt"
	"os"

	_ "github.com/lib/pq"

	. "github.com/weberc2/blockfs/pkg/types"
)

// PGDevice stores each sector as a row in a postgres table. Rows for
// never-written sectors are absent and read back as zeros, matching a
// freshly zeroed disk.
type PGDevice struct {
	DB      *sql.DB
	Sectors Sector
}

// OpenEnv dials postgres with connection parameters taken from the
// PG_HOST, PG_PORT, PG_USER, PG_PASS, PG_DB_NAME, and PG_SSL_MODE
// environment variables.
func OpenEnv(sectors Sector) (*PGDevice, error) {
	db, err := sql.Open(
		"postgres",
		fmt.Sprintf(
			"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			getEnv("PG_HOST", "localhost"),
			getEnv("PG_PORT", "5432"),
			getEnv("PG_USER", "postgres"),
			getEnv("PG_PASS", ""),
			getEnv("PG_DB_NAME", "postgres"),
			getEnv("PG_SSL_MODE", "disable"),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("opening postgres database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("pinging postgres database: %w", err)
	}

	return &PGDevice{DB: db, Sectors: sectors}, nil
}

func getEnv(env, def string) string {
	x := os.Getenv(env)
	if x == "" {
		return def
	}
	return x
}

func (d *PGDevice) EnsureTable() error {
	if _, err := d.DB.Exec(
		"CREATE TABLE IF NOT EXISTS sectors (" +
			"sector BIGINT NOT NULL PRIMARY KEY, " +
			"data BYTEA NOT NULL)",
	); err != nil {
		return fmt.Errorf("creating `sectors` postgres table: %w", err)
	}
	return nil
}

func (d *PGDevice) DropTable() error {
	if _, err := d.DB.Exec("DROP TABLE IF EXISTS sectors"); err != nil {
		return fmt.Errorf("dropping table `sectors`: %w", err)
	}
	return nil
}

func (d *PGDevice) ClearTable() error {
	if _, err := d.DB.Exec("DELETE FROM sectors"); err != nil {
		return fmt.Errorf("clearing `sectors` postgres table: %w", err)
	}
	return nil
}

func (d *PGDevice) ResetTable() error {
	if err := d.DropTable(); err != nil {
		return err
	}
	return d.EnsureTable()
}

func (d *PGDevice) ReadSector(sector Sector, b []byte) error {
	checkSector(sector, d.Sectors, b)
	var data []byte
	if err := d.DB.QueryRow(
		"SELECT data FROM sectors WHERE sector = $1",
		int64(sector),
	).Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			for i := range b {
				b[i] = 0
			}
			return nil
		}
		return fmt.Errorf("reading sector `%d` from postgres: %w", sector, err)
	}
	if Byte(len(data)) != SectorSize {
		return fmt.Errorf(
			"reading sector `%d` from postgres: wanted `%d` bytes; found `%d`",
			sector,
			SectorSize,
			len(data),
		)
	}
	copy(b, data)
	return nil
}

func (d *PGDevice) WriteSector(sector Sector, b []byte) error {
	checkSector(sector, d.Sectors, b)
	if _, err := d.DB.Exec(
		"INSERT INTO sectors (sector, data) VALUES ($1, $2) "+
			"ON CONFLICT (sector) DO UPDATE SET data = $2",
		int64(sector),
		b,
	); err != nil {
		return fmt.Errorf("writing sector `%d` to postgres: %w", sector, err)
	}
	return nil
}

func (d *PGDevice) SectorCount() Sector { return d.Sectors }

var _ Device = &PGDevice{}
