// Package mongo implements store.Store on MongoDB through grove. Issuance
// runs in a multi-document session transaction, which requires a replica
// set or sharded cluster.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/promo"
	"github.com/xraph/promo/client"
	"github.com/xraph/promo/id"
	"github.com/xraph/promo/source"
	promostore "github.com/xraph/promo/store"
	"github.com/xraph/promo/voucher"
)

// Collection name constants.
const (
	colVouchers = "promo_vouchers"
	colSources  = "promo_voucher_sources"
	colClients  = "promo_clients"
)

// compile-time interface check
var _ promostore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for all promo collections.
func (s *Store) Migrate(ctx context.Context) error {
	for col, models := range migrationIndexes() {
		if _, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("promo/mongo: migrate %s indexes: %w", col, err)
		}
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

func txFrom(ctx context.Context) *mongodriver.MongoTx {
	tx, _ := ctx.Value(txKey{}).(*mongodriver.MongoTx) //nolint:errcheck // absent means no tx
	return tx
}

// WithTx runs fn in a session transaction. Nested calls join the outer one.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if txFrom(ctx) != nil {
		return fn(ctx)
	}

	gtx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("promo/mongo: begin tx: %w: %w", promo.ErrTransactionFailed, err)
	}
	mtx, ok := gtx.Raw().(*mongodriver.MongoTx)
	if !ok {
		_ = gtx.Rollback() //nolint:errcheck // unusable tx
		return fmt.Errorf("promo/mongo: unexpected tx type %T", gtx.Raw())
	}

	if err := fn(context.WithValue(ctx, txKey{}, mtx)); err != nil {
		_ = mtx.Rollback() //nolint:errcheck // the fn error is what matters
		if isTransient(err) {
			return fmt.Errorf("%w: %w", promo.ErrTransactionFailed, err)
		}
		return err
	}

	if err := mtx.Commit(); err != nil {
		return fmt.Errorf("promo/mongo: commit: %w: %w", promo.ErrTransactionFailed, err)
	}
	return nil
}

func (s *Store) find(ctx context.Context, model any) *mongodriver.FindQuery {
	if tx := txFrom(ctx); tx != nil {
		return tx.NewFind(model)
	}
	return s.mdb.NewFind(model)
}

func (s *Store) insert(ctx context.Context, model any) *mongodriver.InsertQuery {
	if tx := txFrom(ctx); tx != nil {
		return tx.NewInsert(model)
	}
	return s.mdb.NewInsert(model)
}

func (s *Store) update(ctx context.Context, model any) *mongodriver.UpdateQuery {
	if tx := txFrom(ctx); tx != nil {
		return tx.NewUpdate(model)
	}
	return s.mdb.NewUpdate(model)
}

// sessionCtx attaches the transaction's session for raw collection calls.
func sessionCtx(ctx context.Context) context.Context {
	if tx := txFrom(ctx); tx != nil {
		return tx.SessionContext(ctx)
	}
	return ctx
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

	if _, err := s.insert(ctx, &models).Exec(ctx); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %w", promo.ErrDuplicateCode, err)
		}
		return fmt.Errorf("promo/mongo: insert vouchers: %w", err)
	}
	return nil
}

func (s *Store) GetVoucher(ctx context.Context, code string) (*voucher.Voucher, error) {
	var m voucherModel
	err := s.find(ctx, &m).
		Filter(bson.M{"code": code}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, promo.ErrVoucherNotFound
		}
		return nil, fmt.Errorf("promo/mongo: get voucher: %w", err)
	}
	return fromVoucherModel(&m)
}

func (s *Store) ListVouchers(ctx context.Context, opts voucher.ListOpts) ([]*voucher.Voucher, error) {
	var models []voucherModel

	filter := bson.M{}
	if opts.EventID != "" {
		filter["event_id"] = opts.EventID
	}

	q := s.find(ctx, &models).
		Filter(filter).
		Sort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("promo/mongo: list vouchers: %w", err)
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

// AppendCodes pushes codes onto the event's source in one atomic
// find-and-modify, creating the source on first use.
func (s *Store) AppendCodes(ctx context.Context, eventID string, codes []string) (*source.Source, error) {
	t := now()
	update := bson.M{
		"$push": bson.M{"vouchers": bson.M{"$each": codes}},
		"$set":  bson.M{"updated_at": t},
		"$setOnInsert": bson.M{
			"_id":        id.NewSourceID().String(),
			"created_at": t,
		},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var m sourceModel
	err := s.mdb.Collection(colSources).
		FindOneAndUpdate(sessionCtx(ctx), bson.M{"event_id": eventID}, update, opts).
		Decode(&m)
	if err != nil {
		return nil, fmt.Errorf("promo/mongo: append codes: %w", err)
	}
	return fromSourceModel(&m)
}

func (s *Store) GetSource(ctx context.Context, eventID string) (*source.Source, error) {
	var m sourceModel
	err := s.find(ctx, &m).
		Filter(bson.M{"event_id": eventID}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, promo.ErrSourceNotFound
		}
		return nil, fmt.Errorf("promo/mongo: get source: %w", err)
	}
	return fromSourceModel(&m)
}

func (s *Store) ListSources(ctx context.Context, opts source.ListOpts) ([]*source.Source, error) {
	var models []sourceModel

	q := s.find(ctx, &models).
		Sort(bson.D{{Key: "created_at", Value: 1}})
	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("promo/mongo: list sources: %w", err)
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
	if _, err := s.insert(ctx, toClientModel(c)).Exec(ctx); err != nil {
		return fmt.Errorf("promo/mongo: create client: %w", err)
	}
	return nil
}

func (s *Store) GetClient(ctx context.Context, uid id.ClientID) (*client.Client, error) {
	var m clientModel
	err := s.find(ctx, &m).
		Filter(bson.M{"_id": uid.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, promo.ErrClientNotFound
		}
		return nil, fmt.Errorf("promo/mongo: get client: %w", err)
	}
	return fromClientModel(&m)
}

func (s *Store) ListClients(ctx context.Context, opts client.ListOpts) ([]*client.Client, error) {
	var models []clientModel

	filter := bson.M{}
	if opts.Role != "" {
		filter["role"] = opts.Role
	}

	q := s.find(ctx, &models).
		Filter(filter).
		Sort(bson.D{{Key: "created_at", Value: 1}})
	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("promo/mongo: list clients: %w", err)
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
	res, err := s.update(ctx, (*clientModel)(nil)).
		Filter(bson.M{"_id": uid.String(), "email": bson.M{"$ne": email}}).
		Set("email", email).
		Set("updated_at", now()).
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("promo/mongo: update client: %w", err)
	}
	if res.MatchedCount() > 0 {
		return res.ModifiedCount() > 0, nil
	}

	// Nothing matched: either the client is missing or already has email.
	if _, err := s.GetClient(ctx, uid); err != nil {
		return false, err
	}
	return false, nil
}

func (s *Store) DeleteClient(ctx context.Context, uid id.ClientID) (*client.Client, error) {
	var m clientModel
	err := s.mdb.Collection(colClients).
		FindOneAndDelete(sessionCtx(ctx), bson.M{"_id": uid.String()}).
		Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, promo.ErrClientNotFound
		}
		return nil, fmt.Errorf("promo/mongo: delete client: %w", err)
	}
	return fromClientModel(&m)
}

// ==================== Helpers ====================

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// isTransient reports whether the server labelled err as safe to retry
// with a new transaction.
func isTransient(err error) bool {
	var se mongo.ServerError
	return errors.As(err, &se) && se.HasErrorLabel("TransientTransactionError")
}

// migrationIndexes returns the index definitions for all promo collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colVouchers: {
			{
				Keys:    bson.D{{Key: "code", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "event_id", Value: 1}, {Key: "created_at", Value: 1}}},
		},
		colSources: {
			{
				Keys:    bson.D{{Key: "event_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		colClients: {
			{Keys: bson.D{{Key: "role", Value: 1}, {Key: "created_at", Value: 1}}},
		},
	}
}
