// Package promo provides a voucher issuance engine for Go applications.
//
// Vouchers are discount codes issued in batches for an event. Every event
// has a voucher source that records the codes issued for it and caps how
// many there may be. A batch is issued as one transaction: the vouchers are
// inserted, their codes are appended to the event's source, and the whole
// unit rolls back if any code already exists or the source grows past the
// quota.
//
// # Quick Start
//
//	import (
//	    "github.com/xraph/promo"
//	    "github.com/xraph/promo/store/memory"
//	)
//
//	p := promo.New(memory.New())
//	if err := p.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer p.Stop()
//
//	src, err := p.IssueVouchers(ctx, "spring-sale", []voucher.Input{
//	    {Code: "SPRING10", Amount: 10},
//	})
//	switch {
//	case promo.IsQuotaError(err):
//	    // the event already holds too many vouchers
//	case promo.IsDuplicate(err):
//	    // a code was issued before
//	}
//
// # Stores
//
// The store decides how the issuance transaction is made atomic:
//
//   - store/mongo: multi-document session transaction (replica set required)
//   - store/postgres: one upsert-append statement per call, row-locked
//   - store/sqlite: single-writer transactions
//   - store/memory: copy-on-write data set, for tests and development
//
// # TypeID
//
// All entities use TypeID for globally unique, type-safe identifiers:
//
//	vch_01h2xcejqtf2nbrexx3vqjhp41   // Voucher ID
//	vsrc_01h2xcejqtf2nbrexx3vqjhp41  // Voucher source ID
//	cli_01h455vb4pex5vsknk084sn02q   // Client uid
package promo
