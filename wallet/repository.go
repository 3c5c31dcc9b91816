package wallet

import (
	"context"

	"github.com/shopspring/decimal"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Pagination is page-number based. A zero Number means the first page,
// a zero Size falls back to DefaultPageSize.
type Pagination struct {
	Number int
	Size   int
	Sort   string
}

func (p Pagination) Limit() int {
	size := p.Size
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return size
}

func (p Pagination) Offset() int {
	number := p.Number
	if number <= 1 {
		return 0
	}
	return (number - 1) * p.Limit()
}

type Filter struct {
	Label string // substring match, case-insensitive
}

type TransactionFilter struct {
	WalletID  *WalletID
	TxID      string // substring match, case-insensitive
	AmountMin *decimal.Decimal
	AmountMax *decimal.Decimal
}

type Repository interface {
	// Command

	Store(w *Wallet) error
	Delete(w *Wallet) error
	RecordTransaction(tx *Transaction) error
	AmendTransaction(tx *Transaction) error
	ArchiveTransaction(tx *Transaction) error
	Transfer(out, in *Transaction) error

	// Query

	List(filter Filter, page Pagination) ([]*Wallet, error)
	Find(id WalletID) (*Wallet, error)
	Balance(id WalletID) (decimal.Decimal, error)
	ListTransactions(filter TransactionFilter, page Pagination) ([]*Transaction, error)
	FindTransaction(id TransactionID) (*Transaction, error)
	FindTransactionByTxID(txid string) (*Transaction, error)

	Ping(ctx context.Context) error
	Close() error
}
