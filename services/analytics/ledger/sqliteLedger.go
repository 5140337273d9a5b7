package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/iulianpascalau/crosschain-analytics/services/analytics/common"
	_ "github.com/mattn/go-sqlite3"
)

const inMemoryDSN = ":memory:"

// sqliteLedger keeps the records in a SQLite table. The FIFO bound is enforced inside the append transaction
type sqliteLedger struct {
	mut      sync.RWMutex
	db       *sql.DB
	capacity int
	inst     *instrumentation
}

// NewSQLiteLedger opens the database, creates the schema and returns an empty ledger. dbPath may be ":memory:"
func NewSQLiteLedger(dbPath string, args ArgsLedger) (*sqliteLedger, error) {
	capacity, err := resolveCapacity(args.Capacity)
	if err != nil {
		return nil, err
	}

	dsn, err := prepareDSN(dbPath)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// every connection to :memory: is a separate database
	db.SetMaxOpenConns(1)

	err = createSchema(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	// the ledger lives as long as the process, start from an empty table
	_, err = db.Exec("DELETE FROM records")
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to reset records: %w", err)
	}

	inst, err := newInstrumentation(args.Registerer, "sqlite")
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to register ledger collectors: %w", err)
	}

	return &sqliteLedger{
		db:       db,
		capacity: capacity,
		inst:     inst,
	}, nil
}

func prepareDSN(dbPath string) (string, error) {
	if len(dbPath) == 0 || strings.HasPrefix(dbPath, inMemoryDSN) {
		return inMemoryDSN + "?_busy_timeout=5000", nil
	}

	err := os.MkdirAll(filepath.Dir(dbPath), os.ModePerm)
	if err != nil {
		return "", fmt.Errorf("failed to create the database directory: %w", err)
	}

	return dbPath + "?_journal_mode=WAL&_busy_timeout=5000", nil
}

func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS records (
		seq              INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp        INTEGER NOT NULL,
		chain_id         INTEGER NOT NULL,
		method           TEXT    NOT NULL,
		success          INTEGER NOT NULL,
		block_number     INTEGER NOT NULL DEFAULT 0,
		transaction_hash TEXT    NOT NULL DEFAULT '',
		gas_used         INTEGER
	);
	`

	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// Append inserts the record and deletes the oldest rows above capacity in the same transaction
func (sl *sqliteLedger) Append(ctx context.Context, record common.TransactionRecord) error {
	err := checkRecord(record)
	if err != nil {
		sl.inst.recordRejected()
		return err
	}

	sl.mut.Lock()
	defer sl.mut.Unlock()

	tx, err := sl.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var gasUsed sql.NullInt64
	if record.GasUsed != nil {
		gasUsed = sql.NullInt64{Int64: int64(*record.GasUsed), Valid: true}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO records (timestamp, chain_id, method, success, block_number, transaction_hash, gas_used)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, record.Timestamp, int64(record.ChainID), string(record.Method), record.Success,
		int64(record.BlockNumber), record.TransactionHash, gasUsed)
	if err != nil {
		return fmt.Errorf("failed to insert record: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		DELETE FROM records
		WHERE seq NOT IN (
			SELECT seq FROM records
			ORDER BY seq DESC
			LIMIT ?
		)
	`, sl.capacity)
	if err != nil {
		return fmt.Errorf("failed to trim the ledger to capacity: %w", err)
	}
	evicted, _ := res.RowsAffected()

	var size int
	err = tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM records").Scan(&size)
	if err != nil {
		return fmt.Errorf("failed to count records: %w", err)
	}

	err = tx.Commit()
	if err != nil {
		return err
	}

	sl.inst.recordAppend(record.Method, int(evicted), size)

	return nil
}

// Snapshot returns the records in insertion order
func (sl *sqliteLedger) Snapshot(ctx context.Context) ([]common.TransactionRecord, error) {
	sl.mut.RLock()
	defer sl.mut.RUnlock()

	rows, err := sl.db.QueryContext(ctx, `
		SELECT timestamp, chain_id, method, success, block_number, transaction_hash, gas_used
		FROM records
		ORDER BY seq
	`)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	results := make([]common.TransactionRecord, 0, sl.capacity)
	for rows.Next() {
		var record common.TransactionRecord
		var chainID, blockNumber int64
		var method string
		var gasUsed sql.NullInt64

		err = rows.Scan(&record.Timestamp, &chainID, &method, &record.Success, &blockNumber, &record.TransactionHash, &gasUsed)
		if err != nil {
			return nil, err
		}

		record.ChainID = uint64(chainID)
		record.BlockNumber = uint64(blockNumber)
		record.Method = common.Method(method)
		if gasUsed.Valid {
			value := uint64(gasUsed.Int64)
			record.GasUsed = &value
		}

		results = append(results, record)
	}

	return results, rows.Err()
}

// Clear deletes all records
func (sl *sqliteLedger) Clear(ctx context.Context) error {
	sl.mut.Lock()
	defer sl.mut.Unlock()

	_, err := sl.db.ExecContext(ctx, "DELETE FROM records")
	if err != nil {
		return err
	}

	sl.inst.recordClear()

	return nil
}

// Len returns the current number of records, 0 if the count fails
func (sl *sqliteLedger) Len() int {
	sl.mut.RLock()
	defer sl.mut.RUnlock()

	var size int
	err := sl.db.QueryRow("SELECT COUNT(*) FROM records").Scan(&size)
	if err != nil {
		log.Warn("failed to count records", "error", err)
		return 0
	}

	return size
}

// Capacity returns the maximum number of records
func (sl *sqliteLedger) Capacity() int {
	return sl.capacity
}

// Close closes the database
func (sl *sqliteLedger) Close() error {
	return sl.db.Close()
}

// IsInterfaceNil returns true if the value under the interface is nil
func (sl *sqliteLedger) IsInterfaceNil() bool {
	return sl == nil
}
