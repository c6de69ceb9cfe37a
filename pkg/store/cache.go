// Package store keeps a local cache of transaction history and contacts so
// the app has something to show before the backend answers.
package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/chargehq/chargewallet/pkg/backend"
)

const schema = `
CREATE TABLE IF NOT EXISTS transactions (
	id           TEXT PRIMARY KEY,
	sender_id    TEXT NOT NULL,
	receiver_id  TEXT NOT NULL,
	amount       TEXT NOT NULL,
	asset_symbol TEXT NOT NULL,
	status       TEXT NOT NULL,
	created_at   TEXT NOT NULL,
	note         TEXT
);
CREATE TABLE IF NOT EXISTS contacts (
	id              TEXT PRIMARY KEY,
	user_id         TEXT NOT NULL,
	contact_user_id TEXT NOT NULL,
	contact_name    TEXT NOT NULL,
	contact_phone   TEXT
);
`

// Cache is a sqlite-backed local cache.
type Cache struct {
	db *sql.DB
}

// Open opens (or creates) the cache database at path.
func Open(path string) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create cache schema: %w", err)
	}
	return &Cache{db: db}, nil
}

// Close closes the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// UpsertTransactions inserts or refreshes transaction records.
func (c *Cache) UpsertTransactions(txs []backend.Transaction) error {
	dbtx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer dbtx.Rollback()

	stmt, err := dbtx.Prepare(`
		INSERT INTO transactions (id, sender_id, receiver_id, amount, asset_symbol, status, created_at, note)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET status = excluded.status, note = excluded.note`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, tx := range txs {
		_, err := stmt.Exec(tx.ID, tx.SenderID, tx.ReceiverID, tx.Amount.String(),
			tx.AssetSymbol, tx.Status, tx.CreatedAt.UTC().Format(time.RFC3339), tx.Note)
		if err != nil {
			return err
		}
	}

	return dbtx.Commit()
}

// RecentTransactions returns cached transactions, newest first.
func (c *Cache) RecentTransactions(limit int) ([]backend.Transaction, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := c.db.Query(`
		SELECT id, sender_id, receiver_id, amount, asset_symbol, status, created_at, IFNULL(note, '')
		FROM transactions ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []backend.Transaction
	for rows.Next() {
		var tx backend.Transaction
		var amount, createdAt string
		if err := rows.Scan(&tx.ID, &tx.SenderID, &tx.ReceiverID, &amount,
			&tx.AssetSymbol, &tx.Status, &createdAt, &tx.Note); err != nil {
			return nil, err
		}
		if tx.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("corrupt amount for transaction %s: %w", tx.ID, err)
		}
		if tx.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
			return nil, fmt.Errorf("corrupt timestamp for transaction %s: %w", tx.ID, err)
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

// ReplaceContacts swaps the cached contact list.
func (c *Cache) ReplaceContacts(contacts []backend.Contact) error {
	dbtx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer dbtx.Rollback()

	if _, err := dbtx.Exec(`DELETE FROM contacts`); err != nil {
		return err
	}
	for _, contact := range contacts {
		_, err := dbtx.Exec(`
			INSERT INTO contacts (id, user_id, contact_user_id, contact_name, contact_phone)
			VALUES (?, ?, ?, ?, ?)`,
			contact.ID, contact.OwnerID, contact.ContactUserID, contact.Name, contact.Phone)
		if err != nil {
			return err
		}
	}

	return dbtx.Commit()
}

// Contacts returns the cached contact list ordered by name.
func (c *Cache) Contacts() ([]backend.Contact, error) {
	rows, err := c.db.Query(`
		SELECT id, user_id, contact_user_id, contact_name, IFNULL(contact_phone, '')
		FROM contacts ORDER BY contact_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contacts []backend.Contact
	for rows.Next() {
		var contact backend.Contact
		if err := rows.Scan(&contact.ID, &contact.OwnerID, &contact.ContactUserID,
			&contact.Name, &contact.Phone); err != nil {
			return nil, err
		}
		contacts = append(contacts, contact)
	}
	return contacts, rows.Err()
}
