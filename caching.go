package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/flarexio/ledger/conf"
	"github.com/flarexio/ledger/wallet"
)

// CachingMiddleware caches read results in Redis. Writes drop the
// object keys they touch; list keys only expire, matching the original
// short list timeouts.
func CachingMiddleware(rdb *redis.Client, cfg conf.Cache) ServiceMiddleware {
	return func(next Service) Service {
		return &cachingMiddleware{rdb, cfg, next}
	}
}

type cachingMiddleware struct {
	rdb  *redis.Client
	cfg  conf.Cache
	next Service
}

func walletKey(id wallet.WalletID) string {
	return "ledger:wallet:" + id.String()
}

func transactionKey(id wallet.TransactionID) string {
	return "ledger:transaction:" + id.String()
}

func walletsKey(filter wallet.Filter, page wallet.Pagination) string {
	return fmt.Sprintf("ledger:wallets:%s:%d:%d:%s",
		filter.Label, page.Number, page.Size, page.Sort)
}

func transactionsKey(filter wallet.TransactionFilter, page wallet.Pagination) string {
	walletID := ""
	if filter.WalletID != nil {
		walletID = filter.WalletID.String()
	}

	min, max := "", ""
	if filter.AmountMin != nil {
		min = filter.AmountMin.String()
	}
	if filter.AmountMax != nil {
		max = filter.AmountMax.String()
	}

	return fmt.Sprintf("ledger:transactions:%s:%s:%s:%s:%d:%d:%s",
		walletID, filter.TxID, min, max, page.Number, page.Size, page.Sort)
}

func (mw *cachingMiddleware) get(key string, out any) bool {
	ctx := context.Background()

	data, err := mw.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}

	return json.Unmarshal(data, out) == nil
}

func (mw *cachingMiddleware) set(key string, val any, ttl time.Duration) {
	if ttl <= 0 {
		return
	}

	data, err := json.Marshal(val)
	if err != nil {
		return
	}

	ctx := context.Background()
	mw.rdb.Set(ctx, key, data, ttl)
}

func (mw *cachingMiddleware) drop(keys ...string) {
	ctx := context.Background()
	mw.rdb.Del(ctx, keys...)
}

func (mw *cachingMiddleware) SignIn(username string, password string) error {
	return mw.next.SignIn(username, password)
}

func (mw *cachingMiddleware) CreateWallet(label string) (*wallet.Wallet, error) {
	return mw.next.CreateWallet(label)
}

func (mw *cachingMiddleware) Wallet(id wallet.WalletID) (*wallet.Wallet, error) {
	key := walletKey(id)

	var cached wallet.Wallet
	if mw.get(key, &cached) {
		return &cached, nil
	}

	w, err := mw.next.Wallet(id)
	if err != nil {
		return nil, err
	}

	mw.set(key, w, mw.cfg.TTL.Wallet)
	return w, nil
}

func (mw *cachingMiddleware) Wallets(filter wallet.Filter, page wallet.Pagination) ([]*wallet.Wallet, error) {
	key := walletsKey(filter, page)

	var cached []*wallet.Wallet
	if mw.get(key, &cached) {
		return cached, nil
	}

	ws, err := mw.next.Wallets(filter, page)
	if err != nil {
		return nil, err
	}

	mw.set(key, ws, mw.cfg.TTL.Wallets)
	return ws, nil
}

func (mw *cachingMiddleware) RenameWallet(id wallet.WalletID, label string) (*wallet.Wallet, error) {
	w, err := mw.next.RenameWallet(id, label)
	if err != nil {
		return nil, err
	}

	mw.drop(walletKey(id))
	return w, nil
}

func (mw *cachingMiddleware) DeleteWallet(id wallet.WalletID) error {
	if err := mw.next.DeleteWallet(id); err != nil {
		return err
	}

	mw.drop(walletKey(id))
	return nil
}

func (mw *cachingMiddleware) Deposit(id wallet.WalletID, amount decimal.Decimal, txid string) (*wallet.Transaction, error) {
	tx, err := mw.next.Deposit(id, amount, txid)
	if err != nil {
		return nil, err
	}

	mw.drop(walletKey(id))
	return tx, nil
}

func (mw *cachingMiddleware) Transfer(sourceID, destID wallet.WalletID, amount decimal.Decimal) (*wallet.Wallet, *wallet.Wallet, error) {
	source, dest, err := mw.next.Transfer(sourceID, destID, amount)
	if err != nil {
		return nil, nil, err
	}

	mw.drop(walletKey(sourceID), walletKey(destID))
	return source, dest, nil
}

func (mw *cachingMiddleware) RecordTransaction(walletID wallet.WalletID, txid string, amount decimal.Decimal) (*wallet.Transaction, error) {
	tx, err := mw.next.RecordTransaction(walletID, txid, amount)
	if err != nil {
		return nil, err
	}

	mw.drop(walletKey(walletID))
	return tx, nil
}

func (mw *cachingMiddleware) Transaction(id wallet.TransactionID) (*wallet.Transaction, error) {
	key := transactionKey(id)

	var cached wallet.Transaction
	if mw.get(key, &cached) {
		return &cached, nil
	}

	tx, err := mw.next.Transaction(id)
	if err != nil {
		return nil, err
	}

	mw.set(key, tx, mw.cfg.TTL.Transaction)
	return tx, nil
}

func (mw *cachingMiddleware) Transactions(filter wallet.TransactionFilter, page wallet.Pagination) ([]*wallet.Transaction, error) {
	key := transactionsKey(filter, page)

	var cached []*wallet.Transaction
	if mw.get(key, &cached) {
		return cached, nil
	}

	txs, err := mw.next.Transactions(filter, page)
	if err != nil {
		return nil, err
	}

	mw.set(key, txs, mw.cfg.TTL.Transactions)
	return txs, nil
}

func (mw *cachingMiddleware) AmendTransaction(id wallet.TransactionID, amount decimal.Decimal) (*wallet.Transaction, error) {
	tx, err := mw.next.AmendTransaction(id, amount)
	if err != nil {
		return nil, err
	}

	mw.drop(transactionKey(id), walletKey(tx.WalletID))
	return tx, nil
}

func (mw *cachingMiddleware) DeleteTransaction(id wallet.TransactionID) error {
	tx, err := mw.next.Transaction(id)
	if err != nil {
		return err
	}

	if err := mw.next.DeleteTransaction(id); err != nil {
		return err
	}

	mw.drop(transactionKey(id), walletKey(tx.WalletID))
	return nil
}

func (mw *cachingMiddleware) CheckHealth(ctx context.Context) Health {
	health := mw.next.CheckHealth(ctx)

	health["redis"] = "ok"
	if err := mw.rdb.Ping(ctx).Err(); err != nil {
		health["redis"] = "error: " + err.Error()
	}

	return health
}

func (mw *cachingMiddleware) Handler() (EventHandler, error) {
	return mw.next.Handler()
}
