// Package sqlite implements store.Store on SQLite through grove's
// sqlitedriver. SQLite admits one writer at a time, so the store also
// serializes its own write transactions and appends to a voucher source
// with a read-modify-write inside that transaction.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"
	"github.com/xraph/grove/migrate"

	"github.com/xraph/promo"
	"github.com/xraph/promo/client"
	"github.com/xraph/promo/id"
	"github.com/xraph/promo/source"
	promostore "github.com/xraph/promo/store"
	"github.com/xraph/promo/voucher"
)

// compile-time interface check
var _ promostore.Store = (*Store)(nil)

// Store implements store.Store using SQLite via Grove ORM.
type Store struct {
	db  *grove.DB
	sdb *sqlitedriver.SqliteDB

	// writeMu admits one write transaction at a time.
	writeMu sync.Mutex
}

// New creates a new SQLite store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		sdb: sqlitedriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.sdb)
	if err != nil {
		return fmt.Errorf("promo/sqlite: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("promo/sqlite: migration failed: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Transactions ====================

type txKey struct{}

func txFrom(ctx context.Context) *sqlitedriver.SqliteTx {
	tx, _ := ctx.Value(txKey{}).(*sqlitedriver.SqliteTx) //nolint:errcheck // absent means no tx
	return tx
}

// WithTx runs fn in a database transaction. Nested calls join the outer one.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if txFrom(ctx) != nil {
		return fn(ctx)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.sdb.BeginTxQuery(ctx, nil)
	if err != nil {
		return fmt.Errorf("promo/sqlite: begin tx: %w: %w", promo.ErrTransactionFailed, err)
	}

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		_ = tx.Rollback() //nolint:errcheck // the fn error is what matters
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("promo/sqlite: commit: %w: %w", promo.ErrTransactionFailed, err)
	}
	return nil
}

func (s *Store) selectQ(ctx context.Context, model any) *sqlitedriver.SelectQuery {
	if tx := txFrom(ctx); tx != nil {
		return tx.NewSelect(model)
	}
	return s.sdb.NewSelect(model)
}

func (s *Store) insertQ(ctx context.Context, model any) *sqlitedriver.InsertQuery {
	if tx := txFrom(ctx); tx != nil {
		return tx.NewInsert(model)
	}
	return s.sdb.NewInsert(model)
}

func (s *Store) raw(ctx context.Context, query string, args ...any) *sqlitedriver.RawQuery {
	if tx := txFrom(ctx); tx != nil {
		return tx.NewRaw(query, args...)
	}
	return s.sdb.NewRaw(query, args...)
}

// ==================== Voucher Store ====================

func (s *Store) InsertVouchers(ctx context.Context, vs []*voucher.Voucher) error {
	if len(vs) == 0 {
		return nil
	}
	models := make([]voucherModel, len(vs))
	for i, v := range vs {
		models[i] = toVoucherModel(v)
	}

	if _, err := s.insertQ(ctx, &models).MultiRow().Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %w", promo.ErrDuplicateCode, err)
		}
		return fmt.Errorf("promo/sqlite: insert vouchers: %w", err)
	}
	return nil
}

func (s *Store) GetVoucher(ctx context.Context, code string) (*voucher.Voucher, error) {
	m := new(voucherModel)
	err := s.selectQ(ctx, m).
		Where("code = ?", code).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, promo.ErrVoucherNotFound
		}
		return nil, fmt.Errorf("promo/sqlite: get voucher: %w", err)
	}
	return fromVoucherModel(m)
}

func (s *Store) ListVouchers(ctx context.Context, opts voucher.ListOpts) ([]*voucher.Voucher, error) {
	var models []voucherModel
	q := s.selectQ(ctx, &models)
	if opts.EventID != "" {
		q = q.Where("event_id = ?", opts.EventID)
	}
	q = q.OrderExpr("created_at ASC, id ASC")
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("promo/sqlite: list vouchers: %w", err)
	}

	result := make([]*voucher.Voucher, 0, len(models))
	for i := range models {
		v, err := fromVoucherModel(&models[i])
		if err != nil {
			return nil, err
		}
		result = append(result, v)
	}
	return result, nil
}

// ==================== Source Store ====================

// AppendCodes reads the event's source, appends codes and writes it back,
// all inside one write transaction.
func (s *Store) AppendCodes(ctx context.Context, eventID string, codes []string) (*source.Source, error) {
	var out *source.Source
	err := s.WithTx(ctx, func(ctx context.Context) error {
		src, err := s.GetSource(ctx, eventID)
		switch {
		case errors.Is(err, promo.ErrSourceNotFound):
			src = source.New(eventID)
			src.Append(codes...)
			m, err := toSourceModel(src)
			if err != nil {
				return err
			}
			if _, err := s.insertQ(ctx, m).Exec(ctx); err != nil {
				return fmt.Errorf("promo/sqlite: create source: %w", err)
			}
		case err != nil:
			return err
		default:
			src.Append(codes...)
			m, err := toSourceModel(src)
			if err != nil {
				return err
			}
			if _, err := s.raw(ctx,
				`UPDATE promo_voucher_sources SET vouchers = ?, updated_at = ? WHERE event_id = ?`,
				m.Vouchers, m.UpdatedAt, eventID,
			).Exec(ctx); err != nil {
				return fmt.Errorf("promo/sqlite: append codes: %w", err)
			}
		}
		out = src
		return nil
	})
	return out, err
}

func (s *Store) GetSource(ctx context.Context, eventID string) (*source.Source, error) {
	m := new(sourceModel)
	err := s.selectQ(ctx, m).
		Where("event_id = ?", eventID).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, promo.ErrSourceNotFound
		}
		return nil, fmt.Errorf("promo/sqlite: get source: %w", err)
	}
	return fromSourceModel(m)
}

func (s *Store) ListSources(ctx context.Context, opts source.ListOpts) ([]*source.Source, error) {
	var models []sourceModel
	q := s.selectQ(ctx, &models).OrderExpr("created_at ASC")
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("promo/sqlite: list sources: %w", err)
	}

	result := make([]*source.Source, 0, len(models))
	for i := range models {
		src, err := fromSourceModel(&models[i])
		if err != nil {
			return nil, err
		}
		result = append(result, src)
	}
	return result, nil
}

// ==================== Client Store ====================

func (s *Store) CreateClient(ctx context.Context, c *client.Client) error {
	if _, err := s.insertQ(ctx, toClientModel(c)).Exec(ctx); err != nil {
		return fmt.Errorf("promo/sqlite: create client: %w", err)
	}
	return nil
}

func (s *Store) GetClient(ctx context.Context, uid id.ClientID) (*client.Client, error) {
	m := new(clientModel)
	err := s.selectQ(ctx, m).
		Where("uid = ?", uid.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, promo.ErrClientNotFound
		}
		return nil, fmt.Errorf("promo/sqlite: get client: %w", err)
	}
	return fromClientModel(m)
}

func (s *Store) ListClients(ctx context.Context, opts client.ListOpts) ([]*client.Client, error) {
	var models []clientModel
	q := s.selectQ(ctx, &models)
	if opts.Role != "" {
		q = q.Where("role = ?", opts.Role)
	}
	q = q.OrderExpr("created_at ASC")
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("promo/sqlite: list clients: %w", err)
	}

	result := make([]*client.Client, 0, len(models))
	for i := range models {
		c, err := fromClientModel(&models[i])
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, nil
}

func (s *Store) UpdateClientEmail(ctx context.Context, uid id.ClientID, email string) (bool, error) {
	res, err := s.raw(ctx,
		`UPDATE promo_clients SET email = ?, updated_at = ? WHERE uid = ? AND email IS NOT ?`,
		email, now(), uid.String(), email,
	).Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("promo/sqlite: update client: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if rows > 0 {
		return true, nil
	}

	// Nothing changed: either the client is missing or already has email.
	if _, err := s.GetClient(ctx, uid); err != nil {
		return false, err
	}
	return false, nil
}

func (s *Store) DeleteClient(ctx context.Context, uid id.ClientID) (*client.Client, error) {
	m := new(clientModel)
	err := s.raw(ctx, `
		DELETE FROM promo_clients WHERE uid = ?
		RETURNING uid, name, email, address, role, created_at, updated_at
	`, uid.String()).Scan(ctx, m)
	if err != nil {
		if isNoRows(err) {
			return nil, promo.ErrClientNotFound
		}
		return nil, fmt.Errorf("promo/sqlite: delete client: %w", err)
	}
	return fromClientModel(m)
}

// ==================== Helpers ====================

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// isUniqueViolation reports whether err is a SQLite UNIQUE or PRIMARY KEY
// constraint failure.
func isUniqueViolation(err error) bool {
	var se *msqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	}
	return false
}
