package wallet

import (
	"time"

	"github.com/shopspring/decimal"
)

type EventName int

const (
	WalletCreated EventName = iota
	WalletRenamed
	WalletArchived
	WalletTransferred
	TransactionRecorded
	TransactionAmended
	TransactionArchived
)

// ParseEventName resolves the short topic suffix of an event.
func ParseEventName(name string) EventName {
	switch name {
	case "created":
		return WalletCreated
	case "renamed":
		return WalletRenamed
	case "archived":
		return WalletArchived
	case "transferred":
		return WalletTransferred
	case "tx_recorded":
		return TransactionRecorded
	case "tx_amended":
		return TransactionAmended
	case "tx_archived":
		return TransactionArchived
	default:
		return -1
	}
}

func (n EventName) String() string {
	switch n {
	case WalletCreated:
		return "wallet_created"
	case WalletRenamed:
		return "wallet_renamed"
	case WalletArchived:
		return "wallet_archived"
	case WalletTransferred:
		return "wallet_transferred"
	case TransactionRecorded:
		return "transaction_recorded"
	case TransactionAmended:
		return "transaction_amended"
	case TransactionArchived:
		return "transaction_archived"
	default:
		return "unknown"
	}
}

func (n EventName) suffix() string {
	switch n {
	case WalletCreated:
		return "created"
	case WalletRenamed:
		return "renamed"
	case WalletArchived:
		return "archived"
	case WalletTransferred:
		return "transferred"
	case TransactionRecorded:
		return "tx_recorded"
	case TransactionAmended:
		return "tx_amended"
	case TransactionArchived:
		return "tx_archived"
	default:
		return "unknown"
	}
}

type Event struct {
	WalletID  WalletID  `json:"wallet_id"`
	OccuredAt time.Time `json:"occured_at"`
}

func newEvent(id WalletID) Event {
	return Event{
		WalletID:  id,
		OccuredAt: time.Now(),
	}
}

func (e *Event) topic(name EventName) string {
	return "wallets." + e.WalletID.String() + "." + name.suffix()
}

type WalletCreatedEvent struct {
	Event
	Wallet Wallet `json:"wallet"`
}

func NewWalletCreatedEvent(w *Wallet) *WalletCreatedEvent {
	return &WalletCreatedEvent{
		Event:  newEvent(w.ID),
		Wallet: *w,
	}
}

func (e *WalletCreatedEvent) EventName() string {
	return WalletCreated.String()
}

func (e *WalletCreatedEvent) Topic() string {
	return e.topic(WalletCreated)
}

type WalletRenamedEvent struct {
	Event
	Label string `json:"label"`
}

func NewWalletRenamedEvent(w *Wallet) *WalletRenamedEvent {
	return &WalletRenamedEvent{
		Event: newEvent(w.ID),
		Label: w.Label,
	}
}

func (e *WalletRenamedEvent) EventName() string {
	return WalletRenamed.String()
}

func (e *WalletRenamedEvent) Topic() string {
	return e.topic(WalletRenamed)
}

type WalletArchivedEvent struct {
	Event
}

func NewWalletArchivedEvent(w *Wallet) *WalletArchivedEvent {
	return &WalletArchivedEvent{
		Event: newEvent(w.ID),
	}
}

func (e *WalletArchivedEvent) EventName() string {
	return WalletArchived.String()
}

func (e *WalletArchivedEvent) Topic() string {
	return e.topic(WalletArchived)
}

type WalletTransferredEvent struct {
	Event
	DestinationID WalletID        `json:"destination_id"`
	Amount        decimal.Decimal `json:"amount"`
	Out           Transaction     `json:"out"`
	In            Transaction     `json:"in"`
}

func NewWalletTransferredEvent(source, dest *Wallet, out, in *Transaction) *WalletTransferredEvent {
	return &WalletTransferredEvent{
		Event:         newEvent(source.ID),
		DestinationID: dest.ID,
		Amount:        in.Amount,
		Out:           *out,
		In:            *in,
	}
}

func (e *WalletTransferredEvent) EventName() string {
	return WalletTransferred.String()
}

func (e *WalletTransferredEvent) Topic() string {
	return e.topic(WalletTransferred)
}

type TransactionRecordedEvent struct {
	Event
	Transaction Transaction `json:"transaction"`
}

func NewTransactionRecordedEvent(w *Wallet, tx *Transaction) *TransactionRecordedEvent {
	return &TransactionRecordedEvent{
		Event:       newEvent(w.ID),
		Transaction: *tx,
	}
}

func (e *TransactionRecordedEvent) EventName() string {
	return TransactionRecorded.String()
}

func (e *TransactionRecordedEvent) Topic() string {
	return e.topic(TransactionRecorded)
}

type TransactionAmendedEvent struct {
	Event
	Transaction Transaction `json:"transaction"`
}

func NewTransactionAmendedEvent(w *Wallet, tx *Transaction) *TransactionAmendedEvent {
	return &TransactionAmendedEvent{
		Event:       newEvent(w.ID),
		Transaction: *tx,
	}
}

func (e *TransactionAmendedEvent) EventName() string {
	return TransactionAmended.String()
}

func (e *TransactionAmendedEvent) Topic() string {
	return e.topic(TransactionAmended)
}

type TransactionArchivedEvent struct {
	Event
	Transaction Transaction `json:"transaction"`
}

func NewTransactionArchivedEvent(w *Wallet, tx *Transaction) *TransactionArchivedEvent {
	return &TransactionArchivedEvent{
		Event:       newEvent(w.ID),
		Transaction: *tx,
	}
}

func (e *TransactionArchivedEvent) EventName() string {
	return TransactionArchived.String()
}

func (e *TransactionArchivedEvent) Topic() string {
	return e.topic(TransactionArchived)
}
