package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/tradeguard/platform/shared/contracts"
)

//go:embed schema_sqlite.sql
var sqliteSchema string

// SQLiteStore is the single-file backend for local runs (STORE=sqlite).
// Timestamps are kept as unix nanoseconds so ordering is exact.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens path (":memory:" works) and applies the schema.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}
	// one writer; also keeps ":memory:" on a single connection
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply consignment schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// DB exposes the handle so the user store can share the file.
func (s *SQLiteStore) DB() *sql.DB { return s.db }

func (s *SQLiteStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) CreateConsignment(ctx context.Context, c contracts.Consignment) error {
	var invoice any // NULL when absent
	if len(c.CommercialInvoice) > 0 {
		invoice = c.CommercialInvoice
	}
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO consignments (
            uuid, sender_name, sender_address, sender_country, sender_mail, sender_phone,
            receiver_name, receiver_address, receiver_country, shipment_id, shipment_date,
            package_quantity, hs_code, total_weight, item_desc, handling_inst,
            commercial_invoice, compliant, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.UUID.String(), c.SenderName, c.SenderAddress, c.SenderCountry, c.SenderMail, c.SenderPhone,
		c.ReceiverName, c.ReceiverAddress, c.ReceiverCountry, c.ShipmentID, c.ShipmentDate,
		c.PackageQuantity, c.HSCode, c.TotalWeight, c.ItemDesc, c.HandlingInst,
		invoice, string(c.Compliant), c.CreatedAt.UnixNano(),
	)
	if err != nil {
		// modernc reports constraint failures only through the message
		if strings.Contains(err.Error(), "UNIQUE constraint failed: consignments.shipment_id") {
			return ErrDuplicateShipmentID
		}
		return fmt.Errorf("failed to insert consignment: %w", err)
	}
	return nil
}

const sqliteColumns = `
    uuid, sender_name, sender_address, sender_country, sender_mail, sender_phone,
    receiver_name, receiver_address, receiver_country, shipment_id, shipment_date,
    package_quantity, hs_code, total_weight, item_desc, handling_inst,
    commercial_invoice IS NOT NULL, compliant, created_at`

func scanSQLite(row scanner, extra ...any) (contracts.Consignment, error) {
	var (
		c         contracts.Consignment
		id        string
		compliant string
		created   int64
	)
	dest := []any{
		&id, &c.SenderName, &c.SenderAddress, &c.SenderCountry, &c.SenderMail, &c.SenderPhone,
		&c.ReceiverName, &c.ReceiverAddress, &c.ReceiverCountry, &c.ShipmentID, &c.ShipmentDate,
		&c.PackageQuantity, &c.HSCode, &c.TotalWeight, &c.ItemDesc, &c.HandlingInst,
		&c.HasCommercialInvoice, &compliant, &created,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return contracts.Consignment{}, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return contracts.Consignment{}, fmt.Errorf("corrupt consignment id %q: %w", id, err)
	}
	c.UUID = parsed
	c.Compliant = contracts.ComplianceStatus(compliant)
	c.CreatedAt = time.Unix(0, created).UTC()
	return c, nil
}

func (s *SQLiteStore) GetConsignments(ctx context.Context) ([]contracts.Consignment, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+sqliteColumns+` FROM consignments ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query consignments: %w", err)
	}
	defer rows.Close()

	var consignments []contracts.Consignment
	for rows.Next() {
		c, err := scanSQLite(rows)
		if err != nil {
			return nil, err
		}
		consignments = append(consignments, c)
	}
	return consignments, rows.Err()
}

func (s *SQLiteStore) GetConsignment(ctx context.Context, id uuid.UUID) (contracts.Consignment, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sqliteColumns+`, commercial_invoice FROM consignments WHERE uuid = ?`, id.String())

	var invoice []byte
	c, err := scanSQLite(row, &invoice)
	if errors.Is(err, sql.ErrNoRows) {
		return contracts.Consignment{}, ErrNotFound
	}
	if err != nil {
		return contracts.Consignment{}, fmt.Errorf("failed to load consignment: %w", err)
	}
	c.CommercialInvoice = invoice
	return c, nil
}

func (s *SQLiteStore) UpdateCompliance(ctx context.Context, id uuid.UUID, status contracts.ComplianceStatus) error {
	res, err := s.db.ExecContext(ctx, `UPDATE consignments SET compliant = ? WHERE uuid = ?`, string(status), id.String())
	if err != nil {
		return fmt.Errorf("failed to update compliance: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
