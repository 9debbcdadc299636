// Package postgres implements store.Store on PostgreSQL through grove's
// pgdriver. The voucher source is appended with a single upsert statement,
// so the row lock taken by the first writer serializes concurrent
// issuances for the same event.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/pgdriver"
	"github.com/xraph/grove/migrate"

	"github.com/xraph/promo"
	"github.com/xraph/promo/client"
	"github.com/xraph/promo/id"
	"github.com/xraph/promo/source"
	promostore "github.com/xraph/promo/store"
	"github.com/xraph/promo/voucher"
)

// pgUniqueViolation is the SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

// compile-time interface check
var _ promostore.Store = (*Store)(nil)

// Store implements store.Store using PostgreSQL via Grove ORM.
type Store struct {
	db *grove.DB
	pg *pgdriver.PgDB
}

// New creates a new PostgreSQL store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db: db,
		pg: pgdriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.pg)
	if err != nil {
		return fmt.Errorf("promo/postgres: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("promo/postgres: migration failed: %w", err)
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

func txFrom(ctx context.Context) *pgdriver.PgTx {
	tx, _ := ctx.Value(txKey{}).(*pgdriver.PgTx) //nolint:errcheck // absent means no tx
	return tx
}

// WithTx runs fn in a database transaction. Nested calls join the outer one.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if txFrom(ctx) != nil {
		return fn(ctx)
	}

	tx, err := s.pg.BeginTxQuery(ctx, nil)
	if err != nil {
		return fmt.Errorf("promo/postgres: begin tx: %w: %w", promo.ErrTransactionFailed, err)
	}

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		_ = tx.Rollback() //nolint:errcheck // the fn error is what matters
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("promo/postgres: commit: %w: %w", promo.ErrTransactionFailed, err)
	}
	return nil
}

func (s *Store) selectQ(ctx context.Context, model any) *pgdriver.SelectQuery {
	if tx := txFrom(ctx); tx != nil {
		return tx.NewSelect(model)
	}
	return s.pg.NewSelect(model)
}

func (s *Store) insertQ(ctx context.Context, model any) *pgdriver.InsertQuery {
	if tx := txFrom(ctx); tx != nil {
		return tx.NewInsert(model)
	}
	return s.pg.NewInsert(model)
}

func (s *Store) raw(ctx context.Context, query string, args ...any) *pgdriver.RawQuery {
	if tx := txFrom(ctx); tx != nil {
		return tx.NewRaw(query, args...)
	}
	return s.pg.NewRaw(query, args...)
}

// ==================== Voucher Store ====================

// InsertVouchers writes the batch as one multi-row INSERT, so a collision
// on any code rejects the whole statement.
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
		return fmt.Errorf("promo/postgres: insert vouchers: %w", err)
	}
	return nil
}

func (s *Store) GetVoucher(ctx context.Context, code string) (*voucher.Voucher, error) {
	m := new(voucherModel)
	err := s.selectQ(ctx, m).
		Where("code = $1", code).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, promo.ErrVoucherNotFound
		}
		return nil, fmt.Errorf("promo/postgres: get voucher: %w", err)
	}
	return fromVoucherModel(m)
}

func (s *Store) ListVouchers(ctx context.Context, opts voucher.ListOpts) ([]*voucher.Voucher, error) {
	var models []voucherModel
	q := s.selectQ(ctx, &models)
	if opts.EventID != "" {
		q = q.Where("event_id = $1", opts.EventID)
	}
	q = q.OrderExpr("created_at ASC, id ASC")
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("promo/postgres: list vouchers: %w", err)
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

// AppendCodes creates or extends the event's source in one statement and
// returns the row as written.
func (s *Store) AppendCodes(ctx context.Context, eventID string, codes []string) (*source.Source, error) {
	t := now()
	m := new(sourceModel)
	err := s.raw(ctx, `
		INSERT INTO promo_voucher_sources (id, event_id, vouchers, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (event_id) DO UPDATE
		SET vouchers = array_cat(promo_voucher_sources.vouchers, EXCLUDED.vouchers),
		    updated_at = EXCLUDED.updated_at
		RETURNING id, event_id, vouchers, created_at, updated_at
	`, id.NewSourceID().String(), eventID, codes, t).Scan(ctx, m)
	if err != nil {
		return nil, fmt.Errorf("promo/postgres: append codes: %w", err)
	}
	return fromSourceModel(m)
}

func (s *Store) GetSource(ctx context.Context, eventID string) (*source.Source, error) {
	m := new(sourceModel)
	err := s.selectQ(ctx, m).
		Where("event_id = $1", eventID).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, promo.ErrSourceNotFound
		}
		return nil, fmt.Errorf("promo/postgres: get source: %w", err)
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
		return nil, fmt.Errorf("promo/postgres: list sources: %w", err)
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
		return fmt.Errorf("promo/postgres: create client: %w", err)
	}
	return nil
}

func (s *Store) GetClient(ctx context.Context, uid id.ClientID) (*client.Client, error) {
	m := new(clientModel)
	err := s.selectQ(ctx, m).
		Where("uid = $1", uid.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, promo.ErrClientNotFound
		}
		return nil, fmt.Errorf("promo/postgres: get client: %w", err)
	}
	return fromClientModel(m)
}

func (s *Store) ListClients(ctx context.Context, opts client.ListOpts) ([]*client.Client, error) {
	var models []clientModel
	q := s.selectQ(ctx, &models)
	if opts.Role != "" {
		q = q.Where("role = $1", opts.Role)
	}
	q = q.OrderExpr("created_at ASC")
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("promo/postgres: list clients: %w", err)
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
	res, err := s.raw(ctx, `
		UPDATE promo_clients SET email = $2, updated_at = $3
		WHERE uid = $1 AND email IS DISTINCT FROM $2
	`, uid.String(), email, now()).Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("promo/postgres: update client: %w", err)
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
		DELETE FROM promo_clients WHERE uid = $1
		RETURNING uid, name, email, address, role, created_at, updated_at
	`, uid.String()).Scan(ctx, m)
	if err != nil {
		if isNoRows(err) {
			return nil, promo.ErrClientNotFound
		}
		return nil, fmt.Errorf("promo/postgres: delete client: %w", err)
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

// isUniqueViolation reports whether err is a PostgreSQL unique_violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
