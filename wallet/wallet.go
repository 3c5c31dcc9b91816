package wallet

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"

	"github.com/flarexio/core/events"
	"github.com/flarexio/core/model"
)

var (
	ErrWalletNotFound      = errors.New("wallet not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrBalanceNegative     = errors.New("wallet balance cannot become negative")
	ErrTxIDExists          = errors.New("txid already exists")
	ErrSameWallet          = errors.New("source and destination wallets are the same")
)

type WalletID ulid.ULID // AggregateRoot

func MakeID() WalletID {
	return WalletID(ulid.Make())
}

func ParseID(id string) (WalletID, error) {
	walletID, err := ulid.Parse(id)
	if err != nil {
		return WalletID{}, err
	}
	return WalletID(walletID), nil
}

func (id WalletID) Bytes() []byte {
	return id[:]
}

func (id WalletID) String() string {
	return ulid.ULID(id).String()
}

func (id WalletID) Time() time.Time {
	ms := ulid.ULID(id).Time()
	return ulid.Time(ms)
}

func (id *WalletID) MarshalJSON() ([]byte, error) {
	jsonStr := `"` + id.String() + `"`
	return []byte(jsonStr), nil
}

func (id *WalletID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	walletID, err := ParseID(s)
	if err != nil {
		return err
	}

	*id = walletID
	return nil
}

type Wallet struct {
	ID      WalletID        `json:"id"`
	Label   string          `json:"label"`
	Balance decimal.Decimal `json:"balance"`
	model.Model

	events.EventStore `json:"-"`
}

func NewWallet(label string) *Wallet {
	id := MakeID()

	w := &Wallet{
		ID:      id,
		Label:   label,
		Balance: decimal.Zero,
		Model: model.Model{
			CreatedAt: id.Time(),
		},

		EventStore: events.NewEventStore(),
	}

	return w
}

func (w *Wallet) Create() {
	e := NewWalletCreatedEvent(w)
	w.AddEvent(e)
}

func (w *Wallet) Rename(label string) {
	w.Label = label
	w.UpdatedAt = time.Now()

	e := NewWalletRenamedEvent(w)
	w.AddEvent(e)
}

func (w *Wallet) Archive() {
	now := time.Now()
	w.UpdatedAt = now
	w.DeletedAt = now

	e := NewWalletArchivedEvent(w)
	w.AddEvent(e)
}

// Record books a posting against the wallet. A negative amount is a
// withdrawal. The caller is responsible for checking the balance
// invariant first; the repository re-validates it on persist.
func (w *Wallet) Record(txid string, amount decimal.Decimal) *Transaction {
	if txid == "" {
		txid = NewTxID()
	}

	tx := NewTransaction(w.ID, txid, amount)
	w.Balance = w.Balance.Add(amount)
	w.UpdatedAt = time.Now()

	e := NewTransactionRecordedEvent(w, tx)
	w.AddEvent(e)

	return tx
}

func (w *Wallet) Amend(tx *Transaction, amount decimal.Decimal) {
	diff := amount.Sub(tx.Amount)

	tx.Amount = amount
	tx.UpdatedAt = time.Now()

	w.Balance = w.Balance.Add(diff)
	w.UpdatedAt = tx.UpdatedAt

	e := NewTransactionAmendedEvent(w, tx)
	w.AddEvent(e)
}

func (w *Wallet) ArchiveTransaction(tx *Transaction) {
	now := time.Now()
	tx.UpdatedAt = now
	tx.DeletedAt = now

	w.Balance = w.Balance.Sub(tx.Amount)
	w.UpdatedAt = now

	e := NewTransactionArchivedEvent(w, tx)
	w.AddEvent(e)
}

// Transfer books the two postings of a wallet-to-wallet transfer and
// raises a single event on the source wallet. Both postings share a
// generated txid suffixed by direction so the pair can be traced.
func (w *Wallet) Transfer(dest *Wallet, amount decimal.Decimal) (out, in *Transaction) {
	txid := NewTxID()
	now := time.Now()

	out = NewTransaction(w.ID, txid+":out", amount.Neg())
	in = NewTransaction(dest.ID, txid+":in", amount)

	w.Balance = w.Balance.Sub(amount)
	w.UpdatedAt = now

	dest.Balance = dest.Balance.Add(amount)
	dest.UpdatedAt = now

	e := NewWalletTransferredEvent(w, dest, out, in)
	w.AddEvent(e)

	return out, in
}

func NewTxID() string {
	return uuid.NewString()
}
