package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/flarexio/ledger/conf"
	"github.com/flarexio/ledger/wallet"
)

func NewWalletRepository(cfg conf.Persistence) (wallet.Repository, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case conf.Postgres:
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.Name, cfg.SSLMode)

		dialector = postgres.Open(dsn)

	case conf.SQLite:
		filename := cfg.Host + "/" + cfg.Name + ".db"
		if cfg.InMem {
			filename = "file::memory:?cache=shared"
		}

		dialector = sqlite.Open(filename)

	default:
		return nil, errors.New("driver not supported")
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&Wallet{}, &Transaction{}); err != nil {
		return nil, err
	}

	repo := new(walletRepository)
	repo.db = db
	repo.lockForUpdate = cfg.Driver == conf.Postgres
	return repo, nil
}

type walletRepository struct {
	db *gorm.DB

	// SELECT ... FOR UPDATE is not supported by SQLite.
	lockForUpdate bool
}

func (repo *walletRepository) Store(w *wallet.Wallet) error {
	record := NewWallet(w) // convert Domain to Data model

	return repo.db.Save(record).Error
}

func (repo *walletRepository) Delete(w *wallet.Wallet) error {
	record := NewWallet(w) // convert Domain to Data model

	result := repo.db.Delete(record)
	return result.Error
}

func (repo *walletRepository) RecordTransaction(t *wallet.Transaction) error {
	record := NewTransaction(t)

	return repo.db.Transaction(func(tx *gorm.DB) error {
		w, err := repo.takeWallet(tx, record.WalletID)
		if err != nil {
			return err
		}

		var count int64
		if err := tx.Model(&Transaction{}).
			Where("tx_id = ?", record.TxID).
			Count(&count).Error; err != nil {
			return err
		}

		if count > 0 {
			return wallet.ErrTxIDExists
		}

		total, err := balanceOf(tx, w.ID)
		if err != nil {
			return err
		}

		if total.Add(t.Amount).IsNegative() {
			return wallet.ErrBalanceNegative
		}

		return tx.Create(record).Error
	})
}

func (repo *walletRepository) AmendTransaction(t *wallet.Transaction) error {
	return repo.db.Transaction(func(tx *gorm.DB) error {
		var old Transaction
		if err := tx.Take(&old, "id = ?", t.ID.String()).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return wallet.ErrTransactionNotFound
			}

			return err
		}

		if _, err := repo.takeWallet(tx, old.WalletID); err != nil {
			return err
		}

		total, err := balanceOf(tx, old.WalletID)
		if err != nil {
			return err
		}

		diff := t.Amount.Sub(old.Amount)
		if total.Add(diff).IsNegative() {
			return wallet.ErrBalanceNegative
		}

		return tx.Model(&old).
			Updates(map[string]any{
				"amount":     t.Amount,
				"updated_at": t.UpdatedAt,
			}).Error
	})
}

func (repo *walletRepository) ArchiveTransaction(t *wallet.Transaction) error {
	return repo.db.Transaction(func(tx *gorm.DB) error {
		var old Transaction
		if err := tx.Take(&old, "id = ?", t.ID.String()).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return wallet.ErrTransactionNotFound
			}

			return err
		}

		if _, err := repo.takeWallet(tx, old.WalletID); err != nil {
			return err
		}

		total, err := balanceOf(tx, old.WalletID)
		if err != nil {
			return err
		}

		if total.Sub(old.Amount).IsNegative() {
			return wallet.ErrBalanceNegative
		}

		return tx.Delete(&old).Error
	})
}

func (repo *walletRepository) Transfer(out, in *wallet.Transaction) error {
	outRecord := NewTransaction(out)
	inRecord := NewTransaction(in)

	return repo.db.Transaction(func(tx *gorm.DB) error {
		source, err := repo.takeWallet(tx, outRecord.WalletID)
		if err != nil {
			return err
		}

		if _, err := repo.takeWallet(tx, inRecord.WalletID); err != nil {
			return err
		}

		total, err := balanceOf(tx, source.ID)
		if err != nil {
			return err
		}

		// out.Amount is negative
		if total.Add(out.Amount).IsNegative() {
			return wallet.ErrBalanceNegative
		}

		if err := tx.Create(outRecord).Error; err != nil {
			return err
		}

		return tx.Create(inRecord).Error
	})
}

func (repo *walletRepository) List(filter wallet.Filter, page wallet.Pagination) ([]*wallet.Wallet, error) {
	var records []*Wallet

	query := repo.db.Model(&Wallet{})
	if filter.Label != "" {
		query = query.Where("lower(label) LIKE ?", "%"+strings.ToLower(filter.Label)+"%")
	}

	result := query.
		Order(orderBy(page.Sort, walletSortable, "created_at")).
		Offset(page.Offset()).
		Limit(page.Limit()).
		Find(&records)

	if err := result.Error; err != nil {
		return nil, err
	}

	results := make([]*wallet.Wallet, 0, len(records))
	for _, record := range records {
		total, err := balanceOf(repo.db, record.ID)
		if err != nil {
			return nil, err
		}

		w := record.reconstitute()
		w.Balance = total
		results = append(results, w)
	}

	return results, nil
}

func (repo *walletRepository) Find(id wallet.WalletID) (*wallet.Wallet, error) {
	var record *Wallet

	result := repo.db.Take(&record, "id = ?", id.String())
	if err := result.Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, wallet.ErrWalletNotFound
		}

		return nil, err
	}

	total, err := balanceOf(repo.db, record.ID)
	if err != nil {
		return nil, err
	}

	w := record.reconstitute()
	w.Balance = total
	return w, nil
}

func (repo *walletRepository) Balance(id wallet.WalletID) (decimal.Decimal, error) {
	if _, err := repo.takeWallet(repo.db, id.String()); err != nil {
		return decimal.Zero, err
	}

	return balanceOf(repo.db, id.String())
}

func (repo *walletRepository) ListTransactions(filter wallet.TransactionFilter, page wallet.Pagination) ([]*wallet.Transaction, error) {
	var records []*Transaction

	query := repo.db.Model(&Transaction{})
	if filter.WalletID != nil {
		query = query.Where("wallet_id = ?", filter.WalletID.String())
	}
	if filter.TxID != "" {
		query = query.Where("lower(tx_id) LIKE ?", "%"+strings.ToLower(filter.TxID)+"%")
	}
	if filter.AmountMin != nil {
		query = query.Where("amount >= ?", filter.AmountMin)
	}
	if filter.AmountMax != nil {
		query = query.Where("amount <= ?", filter.AmountMax)
	}

	result := query.
		Order(orderBy(page.Sort, transactionSortable, "created_at DESC")).
		Offset(page.Offset()).
		Limit(page.Limit()).
		Find(&records)

	if err := result.Error; err != nil {
		return nil, err
	}

	results := make([]*wallet.Transaction, 0, len(records))
	for _, record := range records {
		results = append(results, record.reconstitute())
	}

	return results, nil
}

func (repo *walletRepository) FindTransaction(id wallet.TransactionID) (*wallet.Transaction, error) {
	var record *Transaction

	result := repo.db.Take(&record, "id = ?", id.String())
	if err := result.Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, wallet.ErrTransactionNotFound
		}

		return nil, err
	}

	return record.reconstitute(), nil
}

func (repo *walletRepository) FindTransactionByTxID(txid string) (*wallet.Transaction, error) {
	var record *Transaction

	result := repo.db.Take(&record, "tx_id = ?", txid)
	if err := result.Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, wallet.ErrTransactionNotFound
		}

		return nil, err
	}

	return record.reconstitute(), nil
}

func (repo *walletRepository) Ping(ctx context.Context) error {
	sqlDB, err := repo.db.DB()
	if err != nil {
		return err
	}

	return sqlDB.PingContext(ctx)
}

func (repo *walletRepository) Close() error {
	return nil
}

func (repo *walletRepository) Truncate() error {
	err := repo.db.Exec("DELETE FROM transactions").Error
	if err != nil {
		return err
	}

	return repo.db.Exec("DELETE FROM wallets").Error
}

func (repo *walletRepository) takeWallet(tx *gorm.DB, id string) (*Wallet, error) {
	if repo.lockForUpdate {
		tx = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var w Wallet
	if err := tx.Take(&w, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, wallet.ErrWalletNotFound
		}

		return nil, err
	}

	return &w, nil
}

func balanceOf(tx *gorm.DB, walletID string) (decimal.Decimal, error) {
	var total decimal.NullDecimal

	row := tx.Model(&Transaction{}).
		Where("wallet_id = ?", walletID).
		Select("SUM(amount)").
		Row()

	if err := row.Scan(&total); err != nil {
		return decimal.Zero, err
	}

	if !total.Valid {
		return decimal.Zero, nil
	}

	return total.Decimal, nil
}

// sortable maps the API sort vocabulary to column names.
var (
	walletSortable = map[string]string{
		"label":      "label",
		"created_at": "created_at",
		"updated_at": "updated_at",
	}
	transactionSortable = map[string]string{
		"txid":       "tx_id",
		"amount":     "amount",
		"created_at": "created_at",
	}
)

func orderBy(sort string, sortable map[string]string, fallback string) string {
	if sort == "" {
		return fallback
	}

	field := sort
	desc := false
	if strings.HasPrefix(sort, "-") {
		field = sort[1:]
		desc = true
	}

	column, ok := sortable[field]
	if !ok {
		return fallback
	}

	if desc {
		return column + " DESC"
	}

	return column
}
