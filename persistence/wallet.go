package persistence

import (
	"errors"

	"github.com/flarexio/ledger/conf"
	"github.com/flarexio/ledger/persistence/db"
	"github.com/flarexio/ledger/persistence/inmem"
	"github.com/flarexio/ledger/wallet"
)

func NewWalletRepository(cfg conf.Persistence) (wallet.Repository, error) {
	switch cfg.Driver {
	case conf.Postgres, conf.SQLite:
		return db.NewWalletRepository(cfg)
	case conf.InMem:
		return inmem.NewWalletRepository()
	default:
		return nil, errors.New("driver not supported")
	}
}
