package ledger

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/flarexio/ledger/wallet"
)

func LoggingMiddleware(log *zap.Logger) ServiceMiddleware {
	return func(next Service) Service {
		return &loggingMiddleware{
			log.With(
				zap.String("service", "ledger"),
				zap.String("middleware", "logging"),
			),
			next,
		}
	}
}

type loggingMiddleware struct {
	log  *zap.Logger
	next Service
}

func (mw *loggingMiddleware) SignIn(username string, password string) error {
	log := mw.log.With(
		zap.String("action", "signin"),
		zap.String("username", username),
	)

	if err := mw.next.SignIn(username, password); err != nil {
		log.Error(err.Error())
		return err
	}

	log.Info("admin signed in")
	return nil
}

func (mw *loggingMiddleware) CreateWallet(label string) (*wallet.Wallet, error) {
	log := mw.log.With(
		zap.String("action", "create_wallet"),
		zap.String("label", label),
	)

	w, err := mw.next.CreateWallet(label)
	if err != nil {
		log.Error(err.Error())
		return nil, err
	}

	log.Info("wallet created",
		zap.String("wallet_id", w.ID.String()),
	)
	return w, nil
}

func (mw *loggingMiddleware) Wallet(id wallet.WalletID) (*wallet.Wallet, error) {
	log := mw.log.With(
		zap.String("action", "wallet"),
		zap.String("wallet_id", id.String()),
	)

	w, err := mw.next.Wallet(id)
	if err != nil {
		log.Error(err.Error())
		return nil, err
	}

	return w, nil
}

func (mw *loggingMiddleware) Wallets(filter wallet.Filter, page wallet.Pagination) ([]*wallet.Wallet, error) {
	log := mw.log.With(
		zap.String("action", "wallets"),
	)

	ws, err := mw.next.Wallets(filter, page)
	if err != nil {
		log.Error(err.Error())
		return nil, err
	}

	return ws, nil
}

func (mw *loggingMiddleware) RenameWallet(id wallet.WalletID, label string) (*wallet.Wallet, error) {
	log := mw.log.With(
		zap.String("action", "rename_wallet"),
		zap.String("wallet_id", id.String()),
		zap.String("label", label),
	)

	w, err := mw.next.RenameWallet(id, label)
	if err != nil {
		log.Error(err.Error())
		return nil, err
	}

	log.Info("wallet renamed")
	return w, nil
}

func (mw *loggingMiddleware) DeleteWallet(id wallet.WalletID) error {
	log := mw.log.With(
		zap.String("action", "delete_wallet"),
		zap.String("wallet_id", id.String()),
	)

	if err := mw.next.DeleteWallet(id); err != nil {
		log.Error(err.Error())
		return err
	}

	log.Info("wallet deleted")
	return nil
}

func (mw *loggingMiddleware) Deposit(id wallet.WalletID, amount decimal.Decimal, txid string) (*wallet.Transaction, error) {
	log := mw.log.With(
		zap.String("action", "deposit"),
		zap.String("wallet_id", id.String()),
		zap.String("amount", amount.String()),
	)

	tx, err := mw.next.Deposit(id, amount, txid)
	if err != nil {
		log.Error(err.Error())
		return nil, err
	}

	log.Info("wallet deposited",
		zap.String("txid", tx.TxID),
	)
	return tx, nil
}

func (mw *loggingMiddleware) Transfer(sourceID, destID wallet.WalletID, amount decimal.Decimal) (*wallet.Wallet, *wallet.Wallet, error) {
	log := mw.log.With(
		zap.String("action", "transfer"),
		zap.String("source", sourceID.String()),
		zap.String("destination", destID.String()),
		zap.String("amount", amount.String()),
	)

	source, dest, err := mw.next.Transfer(sourceID, destID, amount)
	if err != nil {
		log.Error(err.Error())
		return nil, nil, err
	}

	log.Info("transfer completed")
	return source, dest, nil
}

func (mw *loggingMiddleware) RecordTransaction(walletID wallet.WalletID, txid string, amount decimal.Decimal) (*wallet.Transaction, error) {
	log := mw.log.With(
		zap.String("action", "record_transaction"),
		zap.String("wallet_id", walletID.String()),
		zap.String("amount", amount.String()),
	)

	tx, err := mw.next.RecordTransaction(walletID, txid, amount)
	if err != nil {
		log.Error(err.Error())
		return nil, err
	}

	log.Info("transaction recorded",
		zap.String("transaction_id", tx.ID.String()),
		zap.String("txid", tx.TxID),
	)
	return tx, nil
}

func (mw *loggingMiddleware) Transaction(id wallet.TransactionID) (*wallet.Transaction, error) {
	log := mw.log.With(
		zap.String("action", "transaction"),
		zap.String("transaction_id", id.String()),
	)

	tx, err := mw.next.Transaction(id)
	if err != nil {
		log.Error(err.Error())
		return nil, err
	}

	return tx, nil
}

func (mw *loggingMiddleware) Transactions(filter wallet.TransactionFilter, page wallet.Pagination) ([]*wallet.Transaction, error) {
	log := mw.log.With(
		zap.String("action", "transactions"),
	)

	txs, err := mw.next.Transactions(filter, page)
	if err != nil {
		log.Error(err.Error())
		return nil, err
	}

	return txs, nil
}

func (mw *loggingMiddleware) AmendTransaction(id wallet.TransactionID, amount decimal.Decimal) (*wallet.Transaction, error) {
	log := mw.log.With(
		zap.String("action", "amend_transaction"),
		zap.String("transaction_id", id.String()),
		zap.String("amount", amount.String()),
	)

	tx, err := mw.next.AmendTransaction(id, amount)
	if err != nil {
		log.Error(err.Error())
		return nil, err
	}

	log.Info("transaction amended")
	return tx, nil
}

func (mw *loggingMiddleware) DeleteTransaction(id wallet.TransactionID) error {
	log := mw.log.With(
		zap.String("action", "delete_transaction"),
		zap.String("transaction_id", id.String()),
	)

	if err := mw.next.DeleteTransaction(id); err != nil {
		log.Error(err.Error())
		return err
	}

	log.Info("transaction deleted")
	return nil
}

func (mw *loggingMiddleware) CheckHealth(ctx context.Context) Health {
	health := mw.next.CheckHealth(ctx)

	if !health.OK() {
		mw.log.Warn("health degraded",
			zap.String("action", "check_health"),
			zap.Any("health", health),
		)
	}

	return health
}

func (mw *loggingMiddleware) Handler() (EventHandler, error) {
	return mw, nil
}

func (mw *loggingMiddleware) WalletCreatedHandler(e *wallet.WalletCreatedEvent) error {
	log := mw.log.With(
		zap.String("event", e.EventName()),
		zap.String("wallet_id", e.WalletID.String()),
	)

	handler, err := mw.next.Handler()
	if err != nil {
		return err
	}

	if err := handler.WalletCreatedHandler(e); err != nil {
		log.Error(err.Error())
		return err
	}

	log.Info("wallet stored")
	return nil
}

func (mw *loggingMiddleware) WalletRenamedHandler(e *wallet.WalletRenamedEvent) error {
	log := mw.log.With(
		zap.String("event", e.EventName()),
		zap.String("wallet_id", e.WalletID.String()),
	)

	handler, err := mw.next.Handler()
	if err != nil {
		return err
	}

	if err := handler.WalletRenamedHandler(e); err != nil {
		log.Error(err.Error())
		return err
	}

	log.Info("wallet renamed")
	return nil
}

func (mw *loggingMiddleware) WalletArchivedHandler(e *wallet.WalletArchivedEvent) error {
	log := mw.log.With(
		zap.String("event", e.EventName()),
		zap.String("wallet_id", e.WalletID.String()),
	)

	handler, err := mw.next.Handler()
	if err != nil {
		return err
	}

	if err := handler.WalletArchivedHandler(e); err != nil {
		log.Error(err.Error())
		return err
	}

	log.Info("wallet archived")
	return nil
}

func (mw *loggingMiddleware) WalletTransferredHandler(e *wallet.WalletTransferredEvent) error {
	log := mw.log.With(
		zap.String("event", e.EventName()),
		zap.String("wallet_id", e.WalletID.String()),
		zap.String("destination_id", e.DestinationID.String()),
	)

	handler, err := mw.next.Handler()
	if err != nil {
		return err
	}

	if err := handler.WalletTransferredHandler(e); err != nil {
		log.Error(err.Error())
		return err
	}

	log.Info("transfer stored")
	return nil
}

func (mw *loggingMiddleware) TransactionRecordedHandler(e *wallet.TransactionRecordedEvent) error {
	log := mw.log.With(
		zap.String("event", e.EventName()),
		zap.String("wallet_id", e.WalletID.String()),
		zap.String("txid", e.Transaction.TxID),
	)

	handler, err := mw.next.Handler()
	if err != nil {
		return err
	}

	if err := handler.TransactionRecordedHandler(e); err != nil {
		log.Error(err.Error())
		return err
	}

	log.Info("transaction stored")
	return nil
}

func (mw *loggingMiddleware) TransactionAmendedHandler(e *wallet.TransactionAmendedEvent) error {
	log := mw.log.With(
		zap.String("event", e.EventName()),
		zap.String("wallet_id", e.WalletID.String()),
		zap.String("txid", e.Transaction.TxID),
	)

	handler, err := mw.next.Handler()
	if err != nil {
		return err
	}

	if err := handler.TransactionAmendedHandler(e); err != nil {
		log.Error(err.Error())
		return err
	}

	log.Info("transaction amended")
	return nil
}

func (mw *loggingMiddleware) TransactionArchivedHandler(e *wallet.TransactionArchivedEvent) error {
	log := mw.log.With(
		zap.String("event", e.EventName()),
		zap.String("wallet_id", e.WalletID.String()),
		zap.String("txid", e.Transaction.TxID),
	)

	handler, err := mw.next.Handler()
	if err != nil {
		return err
	}

	if err := handler.TransactionArchivedHandler(e); err != nil {
		log.Error(err.Error())
		return err
	}

	log.Info("transaction archived")
	return nil
}
