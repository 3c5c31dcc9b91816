package db

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/flarexio/core/events"
	"github.com/flarexio/core/model"

	"github.com/flarexio/ledger/wallet"
)

type Wallet struct {
	ID           string `gorm:"primaryKey"`
	Label        string `gorm:"index"`
	Transactions []*Transaction
	DataModel
}

func NewWallet(w *wallet.Wallet) *Wallet {
	record := &Wallet{
		ID:    w.ID.String(),
		Label: w.Label,
	}

	record.CreatedAt = w.CreatedAt
	record.UpdatedAt = w.UpdatedAt
	if !w.DeletedAt.IsZero() {
		record.DeletedAt = gorm.DeletedAt{
			Time:  w.DeletedAt,
			Valid: true,
		}
	}

	return record
}

func (record *Wallet) reconstitute() *wallet.Wallet {
	id, _ := wallet.ParseID(record.ID)

	return &wallet.Wallet{
		ID:      id,
		Label:   record.Label,
		Balance: decimal.Zero,
		Model: model.Model{
			CreatedAt: record.CreatedAt,
			UpdatedAt: record.UpdatedAt,
			DeletedAt: record.DeletedAt.Time,
		},

		EventStore: events.NewEventStore(),
	}
}

type Transaction struct {
	ID       string          `gorm:"primaryKey"`
	WalletID string          `gorm:"index:idx_transactions_wallet_amount"`
	TxID     string          `gorm:"uniqueIndex"`
	Amount   decimal.Decimal `gorm:"type:numeric(36,18);index:idx_transactions_wallet_amount"`
	DataModel
}

func NewTransaction(t *wallet.Transaction) *Transaction {
	record := &Transaction{
		ID:       t.ID.String(),
		WalletID: t.WalletID.String(),
		TxID:     t.TxID,
		Amount:   t.Amount,
	}

	record.CreatedAt = t.CreatedAt
	record.UpdatedAt = t.UpdatedAt
	if !t.DeletedAt.IsZero() {
		record.DeletedAt = gorm.DeletedAt{
			Time:  t.DeletedAt,
			Valid: true,
		}
	}

	return record
}

func (record *Transaction) reconstitute() *wallet.Transaction {
	id, _ := wallet.ParseTransactionID(record.ID)
	walletID, _ := wallet.ParseID(record.WalletID)

	return &wallet.Transaction{
		ID:       id,
		WalletID: walletID,
		TxID:     record.TxID,
		Amount:   record.Amount,
		Model: model.Model{
			CreatedAt: record.CreatedAt,
			UpdatedAt: record.UpdatedAt,
			DeletedAt: record.DeletedAt.Time,
		},
	}
}
