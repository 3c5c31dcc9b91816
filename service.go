package ledger

import (
	"context"
	"crypto/subtle"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/flarexio/ledger/conf"
	"github.com/flarexio/ledger/wallet"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidAmount      = errors.New("invalid amount")
)

type Service interface {
	SignIn(username string, password string) error

	CreateWallet(label string) (*wallet.Wallet, error)
	Wallet(id wallet.WalletID) (*wallet.Wallet, error)
	Wallets(filter wallet.Filter, page wallet.Pagination) ([]*wallet.Wallet, error)
	RenameWallet(id wallet.WalletID, label string) (*wallet.Wallet, error)
	DeleteWallet(id wallet.WalletID) error

	Deposit(id wallet.WalletID, amount decimal.Decimal, txid string) (*wallet.Transaction, error)
	Transfer(sourceID, destID wallet.WalletID, amount decimal.Decimal) (source, dest *wallet.Wallet, err error)

	RecordTransaction(walletID wallet.WalletID, txid string, amount decimal.Decimal) (*wallet.Transaction, error)
	Transaction(id wallet.TransactionID) (*wallet.Transaction, error)
	Transactions(filter wallet.TransactionFilter, page wallet.Pagination) ([]*wallet.Transaction, error)
	AmendTransaction(id wallet.TransactionID, amount decimal.Decimal) (*wallet.Transaction, error)
	DeleteTransaction(id wallet.TransactionID) error

	CheckHealth(ctx context.Context) Health
	Handler() (EventHandler, error)
}

type EventHandler interface {
	WalletCreatedHandler(e *wallet.WalletCreatedEvent) error
	WalletRenamedHandler(e *wallet.WalletRenamedEvent) error
	WalletArchivedHandler(e *wallet.WalletArchivedEvent) error
	WalletTransferredHandler(e *wallet.WalletTransferredEvent) error
	TransactionRecordedHandler(e *wallet.TransactionRecordedEvent) error
	TransactionAmendedHandler(e *wallet.TransactionAmendedEvent) error
	TransactionArchivedHandler(e *wallet.TransactionArchivedEvent) error
}

// Health reports the status of each backing dependency. A value other
// than "ok" marks the dependency as failing.
type Health map[string]string

func (h Health) OK() bool {
	for _, status := range h {
		if status != "ok" {
			return false
		}
	}
	return true
}

type ServiceMiddleware func(Service) Service

func NewService(wallets wallet.Repository, cfg conf.Admin) Service {
	return &service{cfg, wallets}
}

type service struct {
	cfg     conf.Admin
	wallets wallet.Repository
}

func (svc *service) SignIn(username string, password string) error {
	if svc.cfg.Username == "" {
		return ErrInvalidCredentials
	}

	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(svc.cfg.Username))
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(svc.cfg.Password))
	if userOK&passOK != 1 {
		return ErrInvalidCredentials
	}

	return nil
}

func (svc *service) CreateWallet(label string) (*wallet.Wallet, error) {
	w := wallet.NewWallet(label)
	w.Create()
	defer w.Notify()

	return w, nil
}

func (svc *service) Wallet(id wallet.WalletID) (*wallet.Wallet, error) {
	return svc.wallets.Find(id)
}

func (svc *service) Wallets(filter wallet.Filter, page wallet.Pagination) ([]*wallet.Wallet, error) {
	return svc.wallets.List(filter, page)
}

func (svc *service) RenameWallet(id wallet.WalletID, label string) (*wallet.Wallet, error) {
	w, err := svc.wallets.Find(id)
	if err != nil {
		return nil, err
	}

	w.Rename(label)
	defer w.Notify()

	return w, nil
}

func (svc *service) DeleteWallet(id wallet.WalletID) error {
	w, err := svc.wallets.Find(id)
	if err != nil {
		return err
	}

	w.Archive()
	defer w.Notify()

	return nil
}

func (svc *service) Deposit(id wallet.WalletID, amount decimal.Decimal, txid string) (*wallet.Transaction, error) {
	if amount.IsZero() {
		return nil, ErrInvalidAmount
	}

	w, err := svc.wallets.Find(id)
	if err != nil {
		return nil, err
	}

	if w.Balance.Add(amount).IsNegative() {
		return nil, wallet.ErrBalanceNegative
	}

	if txid != "" {
		_, err := svc.wallets.FindTransactionByTxID(txid)
		if err == nil {
			return nil, wallet.ErrTxIDExists
		}

		if !errors.Is(err, wallet.ErrTransactionNotFound) {
			return nil, err
		}
	}

	tx := w.Record(txid, amount)
	defer w.Notify()

	return tx, nil
}

func (svc *service) Transfer(sourceID, destID wallet.WalletID, amount decimal.Decimal) (*wallet.Wallet, *wallet.Wallet, error) {
	if !amount.IsPositive() {
		return nil, nil, wallet.ErrBalanceNegative
	}

	if sourceID == destID {
		return nil, nil, wallet.ErrSameWallet
	}

	source, err := svc.wallets.Find(sourceID)
	if err != nil {
		return nil, nil, err
	}

	dest, err := svc.wallets.Find(destID)
	if err != nil {
		return nil, nil, err
	}

	if source.Balance.Sub(amount).IsNegative() {
		return nil, nil, wallet.ErrBalanceNegative
	}

	source.Transfer(dest, amount)
	defer source.Notify()

	return source, dest, nil
}

func (svc *service) RecordTransaction(walletID wallet.WalletID, txid string, amount decimal.Decimal) (*wallet.Transaction, error) {
	return svc.Deposit(walletID, amount, txid)
}

func (svc *service) Transaction(id wallet.TransactionID) (*wallet.Transaction, error) {
	return svc.wallets.FindTransaction(id)
}

func (svc *service) Transactions(filter wallet.TransactionFilter, page wallet.Pagination) ([]*wallet.Transaction, error) {
	return svc.wallets.ListTransactions(filter, page)
}

func (svc *service) AmendTransaction(id wallet.TransactionID, amount decimal.Decimal) (*wallet.Transaction, error) {
	tx, err := svc.wallets.FindTransaction(id)
	if err != nil {
		return nil, err
	}

	w, err := svc.wallets.Find(tx.WalletID)
	if err != nil {
		return nil, err
	}

	diff := amount.Sub(tx.Amount)
	if w.Balance.Add(diff).IsNegative() {
		return nil, wallet.ErrBalanceNegative
	}

	w.Amend(tx, amount)
	defer w.Notify()

	return tx, nil
}

func (svc *service) DeleteTransaction(id wallet.TransactionID) error {
	tx, err := svc.wallets.FindTransaction(id)
	if err != nil {
		return err
	}

	w, err := svc.wallets.Find(tx.WalletID)
	if err != nil {
		return err
	}

	if w.Balance.Sub(tx.Amount).IsNegative() {
		return wallet.ErrBalanceNegative
	}

	w.ArchiveTransaction(tx)
	defer w.Notify()

	return nil
}

func (svc *service) CheckHealth(ctx context.Context) Health {
	health := Health{
		"database": "ok",
	}

	if err := svc.wallets.Ping(ctx); err != nil {
		health["database"] = "error: " + err.Error()
	}

	return health
}

func (svc *service) Handler() (EventHandler, error) {
	return svc, nil
}

func (svc *service) WalletCreatedHandler(e *wallet.WalletCreatedEvent) error {
	return svc.wallets.Store(&e.Wallet)
}

func (svc *service) WalletRenamedHandler(e *wallet.WalletRenamedEvent) error {
	w, err := svc.wallets.Find(e.WalletID)
	if err != nil {
		return err
	}

	w.Label = e.Label
	w.UpdatedAt = e.OccuredAt

	return svc.wallets.Store(w)
}

func (svc *service) WalletArchivedHandler(e *wallet.WalletArchivedEvent) error {
	w, err := svc.wallets.Find(e.WalletID)
	if err != nil {
		return err
	}

	w.UpdatedAt = e.OccuredAt
	w.DeletedAt = e.OccuredAt

	return svc.wallets.Delete(w)
}

func (svc *service) WalletTransferredHandler(e *wallet.WalletTransferredEvent) error {
	return svc.wallets.Transfer(&e.Out, &e.In)
}

func (svc *service) TransactionRecordedHandler(e *wallet.TransactionRecordedEvent) error {
	return svc.wallets.RecordTransaction(&e.Transaction)
}

func (svc *service) TransactionAmendedHandler(e *wallet.TransactionAmendedEvent) error {
	return svc.wallets.AmendTransaction(&e.Transaction)
}

func (svc *service) TransactionArchivedHandler(e *wallet.TransactionArchivedEvent) error {
	return svc.wallets.ArchiveTransaction(&e.Transaction)
}
