package inmem

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/flarexio/ledger/wallet"
)

// NewWalletRepository is a map-backed repository for tests and local
// development. It honors the same soft-delete and balance semantics as
// the database-backed one.
func NewWalletRepository() (wallet.Repository, error) {
	repo := &walletRepository{
		wallets:      make(map[string]*wallet.Wallet),
		transactions: make(map[string]*wallet.Transaction),
		txids:        make(map[string]string),
	}

	return repo, nil
}

type walletRepository struct {
	sync.RWMutex
	wallets      map[string]*wallet.Wallet
	transactions map[string]*wallet.Transaction
	txids        map[string]string // txid -> transaction id
}

func (repo *walletRepository) Store(w *wallet.Wallet) error {
	repo.Lock()
	defer repo.Unlock()

	stored := *w
	repo.wallets[w.ID.String()] = &stored
	return nil
}

func (repo *walletRepository) Delete(w *wallet.Wallet) error {
	repo.Lock()
	defer repo.Unlock()

	stored, ok := repo.wallets[w.ID.String()]
	if !ok {
		return wallet.ErrWalletNotFound
	}

	stored.DeletedAt = w.DeletedAt
	stored.UpdatedAt = w.UpdatedAt
	return nil
}

func (repo *walletRepository) RecordTransaction(t *wallet.Transaction) error {
	repo.Lock()
	defer repo.Unlock()

	if _, err := repo.activeWallet(t.WalletID); err != nil {
		return err
	}

	if _, ok := repo.txids[t.TxID]; ok {
		return wallet.ErrTxIDExists
	}

	if repo.balance(t.WalletID).Add(t.Amount).IsNegative() {
		return wallet.ErrBalanceNegative
	}

	stored := *t
	repo.transactions[t.ID.String()] = &stored
	repo.txids[t.TxID] = t.ID.String()
	return nil
}

func (repo *walletRepository) AmendTransaction(t *wallet.Transaction) error {
	repo.Lock()
	defer repo.Unlock()

	stored, ok := repo.transactions[t.ID.String()]
	if !ok || !stored.DeletedAt.IsZero() {
		return wallet.ErrTransactionNotFound
	}

	diff := t.Amount.Sub(stored.Amount)
	if repo.balance(stored.WalletID).Add(diff).IsNegative() {
		return wallet.ErrBalanceNegative
	}

	stored.Amount = t.Amount
	stored.UpdatedAt = t.UpdatedAt
	return nil
}

func (repo *walletRepository) ArchiveTransaction(t *wallet.Transaction) error {
	repo.Lock()
	defer repo.Unlock()

	stored, ok := repo.transactions[t.ID.String()]
	if !ok || !stored.DeletedAt.IsZero() {
		return wallet.ErrTransactionNotFound
	}

	if repo.balance(stored.WalletID).Sub(stored.Amount).IsNegative() {
		return wallet.ErrBalanceNegative
	}

	stored.DeletedAt = t.DeletedAt
	stored.UpdatedAt = t.UpdatedAt
	return nil
}

func (repo *walletRepository) Transfer(out, in *wallet.Transaction) error {
	repo.Lock()
	defer repo.Unlock()

	if _, err := repo.activeWallet(out.WalletID); err != nil {
		return err
	}

	if _, err := repo.activeWallet(in.WalletID); err != nil {
		return err
	}

	// out.Amount is negative
	if repo.balance(out.WalletID).Add(out.Amount).IsNegative() {
		return wallet.ErrBalanceNegative
	}

	outStored, inStored := *out, *in
	repo.transactions[out.ID.String()] = &outStored
	repo.transactions[in.ID.String()] = &inStored
	repo.txids[out.TxID] = out.ID.String()
	repo.txids[in.TxID] = in.ID.String()
	return nil
}

func (repo *walletRepository) List(filter wallet.Filter, page wallet.Pagination) ([]*wallet.Wallet, error) {
	repo.RLock()
	defer repo.RUnlock()

	results := make([]*wallet.Wallet, 0)
	for _, w := range repo.wallets {
		if !w.DeletedAt.IsZero() {
			continue
		}

		if filter.Label != "" &&
			!strings.Contains(strings.ToLower(w.Label), strings.ToLower(filter.Label)) {
			continue
		}

		found := *w
		found.Balance = repo.balance(w.ID)
		results = append(results, &found)
	}

	sortWallets(results, page.Sort)
	return paginate(results, page), nil
}

func (repo *walletRepository) Find(id wallet.WalletID) (*wallet.Wallet, error) {
	repo.RLock()
	defer repo.RUnlock()

	w, err := repo.activeWallet(id)
	if err != nil {
		return nil, err
	}

	found := *w
	found.Balance = repo.balance(id)
	return &found, nil
}

func (repo *walletRepository) Balance(id wallet.WalletID) (decimal.Decimal, error) {
	repo.RLock()
	defer repo.RUnlock()

	if _, err := repo.activeWallet(id); err != nil {
		return decimal.Zero, err
	}

	return repo.balance(id), nil
}

func (repo *walletRepository) ListTransactions(filter wallet.TransactionFilter, page wallet.Pagination) ([]*wallet.Transaction, error) {
	repo.RLock()
	defer repo.RUnlock()

	results := make([]*wallet.Transaction, 0)
	for _, t := range repo.transactions {
		if !t.DeletedAt.IsZero() {
			continue
		}

		if filter.WalletID != nil && t.WalletID != *filter.WalletID {
			continue
		}

		if filter.TxID != "" &&
			!strings.Contains(strings.ToLower(t.TxID), strings.ToLower(filter.TxID)) {
			continue
		}

		if filter.AmountMin != nil && t.Amount.LessThan(*filter.AmountMin) {
			continue
		}

		if filter.AmountMax != nil && t.Amount.GreaterThan(*filter.AmountMax) {
			continue
		}

		found := *t
		results = append(results, &found)
	}

	sortTransactions(results, page.Sort)
	return paginate(results, page), nil
}

func (repo *walletRepository) FindTransaction(id wallet.TransactionID) (*wallet.Transaction, error) {
	repo.RLock()
	defer repo.RUnlock()

	t, ok := repo.transactions[id.String()]
	if !ok || !t.DeletedAt.IsZero() {
		return nil, wallet.ErrTransactionNotFound
	}

	found := *t
	return &found, nil
}

func (repo *walletRepository) FindTransactionByTxID(txid string) (*wallet.Transaction, error) {
	repo.RLock()
	defer repo.RUnlock()

	id, ok := repo.txids[txid]
	if !ok {
		return nil, wallet.ErrTransactionNotFound
	}

	t, ok := repo.transactions[id]
	if !ok || !t.DeletedAt.IsZero() {
		return nil, wallet.ErrTransactionNotFound
	}

	found := *t
	return &found, nil
}

func (repo *walletRepository) Ping(ctx context.Context) error {
	return nil
}

func (repo *walletRepository) Close() error {
	return nil
}

func (repo *walletRepository) Truncate() error {
	repo.Lock()
	defer repo.Unlock()

	repo.wallets = make(map[string]*wallet.Wallet)
	repo.transactions = make(map[string]*wallet.Transaction)
	repo.txids = make(map[string]string)
	return nil
}

func (repo *walletRepository) activeWallet(id wallet.WalletID) (*wallet.Wallet, error) {
	w, ok := repo.wallets[id.String()]
	if !ok || !w.DeletedAt.IsZero() {
		return nil, wallet.ErrWalletNotFound
	}

	return w, nil
}

func (repo *walletRepository) balance(id wallet.WalletID) decimal.Decimal {
	total := decimal.Zero
	for _, t := range repo.transactions {
		if t.WalletID != id || !t.DeletedAt.IsZero() {
			continue
		}

		total = total.Add(t.Amount)
	}

	return total
}

func sortWallets(ws []*wallet.Wallet, by string) {
	column, desc := sortColumn(by, "created_at")

	sort.SliceStable(ws, func(i, j int) bool {
		a, b := ws[i], ws[j]
		if desc {
			a, b = b, a
		}

		switch column {
		case "label":
			return a.Label < b.Label
		case "updated_at":
			return a.UpdatedAt.Before(b.UpdatedAt)
		default:
			return a.CreatedAt.Before(b.CreatedAt)
		}
	})
}

func sortTransactions(ts []*wallet.Transaction, by string) {
	column, desc := sortColumn(by, "-created_at")

	sort.SliceStable(ts, func(i, j int) bool {
		a, b := ts[i], ts[j]
		if desc {
			a, b = b, a
		}

		switch column {
		case "txid":
			return a.TxID < b.TxID
		case "amount":
			return a.Amount.LessThan(b.Amount)
		default:
			return a.CreatedAt.Before(b.CreatedAt)
		}
	})
}

func sortColumn(by string, fallback string) (string, bool) {
	if by == "" {
		by = fallback
	}

	if strings.HasPrefix(by, "-") {
		return by[1:], true
	}

	return by, false
}

func paginate[T any](items []T, page wallet.Pagination) []T {
	offset := page.Offset()
	if offset >= len(items) {
		return []T{}
	}

	end := offset + page.Limit()
	if end > len(items) {
		end = len(items)
	}

	return items[offset:end]
}
