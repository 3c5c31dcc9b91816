package db

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/flarexio/ledger/conf"
	"github.com/flarexio/ledger/wallet"
)

type walletRepositoryTestSuite struct {
	suite.Suite
	wallets *walletRepository
	wallet  *wallet.Wallet
	tx      *wallet.Transaction
}

func (suite *walletRepositoryTestSuite) SetupSuite() {
	cfg := conf.Persistence{
		Driver: conf.SQLite,
		Name:   "ledger",
		InMem:  true,
	}

	repo, err := NewWalletRepository(cfg)
	if err != nil {
		suite.Fail(err.Error())
		return
	}

	suite.wallets = repo.(*walletRepository)
}

func (suite *walletRepositoryTestSuite) SetupTest() {
	// 每個測試前清空資料
	suite.wallets.Truncate()

	// 建立測試錢包並入帳 100
	w := wallet.NewWallet("Main Wallet")
	suite.wallets.Store(w)

	tx := w.Record("tx-001", decimal.NewFromInt(100))
	suite.wallets.RecordTransaction(tx)

	suite.wallet = w
	suite.tx = tx
}

func (suite *walletRepositoryTestSuite) TestFind() {
	w, err := suite.wallets.Find(suite.wallet.ID)
	suite.NoError(err)
	suite.Equal("Main Wallet", w.Label)
	suite.True(w.Balance.Equal(decimal.NewFromInt(100)))
}

func (suite *walletRepositoryTestSuite) TestList() {
	other := wallet.NewWallet("Savings")
	suite.wallets.Store(other)

	all, err := suite.wallets.List(wallet.Filter{}, wallet.Pagination{})
	suite.NoError(err)
	suite.Len(all, 2)

	// 不分大小寫的子字串過濾
	found, err := suite.wallets.List(wallet.Filter{Label: "sav"}, wallet.Pagination{})
	suite.NoError(err)
	suite.Len(found, 1)
	suite.Equal("Savings", found[0].Label)
}

func (suite *walletRepositoryTestSuite) TestDuplicateTxID() {
	tx := wallet.NewTransaction(suite.wallet.ID, "tx-001", decimal.NewFromInt(10))

	err := suite.wallets.RecordTransaction(tx)
	suite.ErrorIs(err, wallet.ErrTxIDExists)
}

func (suite *walletRepositoryTestSuite) TestOverdraft() {
	tx := wallet.NewTransaction(suite.wallet.ID, "tx-002", decimal.NewFromInt(-200))

	err := suite.wallets.RecordTransaction(tx)
	suite.ErrorIs(err, wallet.ErrBalanceNegative)

	// 餘額剛好歸零是允許的
	tx = wallet.NewTransaction(suite.wallet.ID, "tx-003", decimal.NewFromInt(-100))
	err = suite.wallets.RecordTransaction(tx)
	suite.NoError(err)

	total, err := suite.wallets.Balance(suite.wallet.ID)
	suite.NoError(err)
	suite.True(total.IsZero())
}

func (suite *walletRepositoryTestSuite) TestAmendTransaction() {
	amended := *suite.tx
	amended.Amount = decimal.NewFromInt(50)

	err := suite.wallets.AmendTransaction(&amended)
	suite.NoError(err)

	total, err := suite.wallets.Balance(suite.wallet.ID)
	suite.NoError(err)
	suite.True(total.Equal(decimal.NewFromInt(50)))

	// 修改後餘額不能為負
	amended.Amount = decimal.NewFromInt(-1)
	err = suite.wallets.AmendTransaction(&amended)
	suite.ErrorIs(err, wallet.ErrBalanceNegative)
}

func (suite *walletRepositoryTestSuite) TestArchiveTransaction() {
	err := suite.wallets.ArchiveTransaction(suite.tx)
	suite.NoError(err)

	_, err = suite.wallets.FindTransaction(suite.tx.ID)
	suite.ErrorIs(err, wallet.ErrTransactionNotFound)

	total, err := suite.wallets.Balance(suite.wallet.ID)
	suite.NoError(err)
	suite.True(total.IsZero())
}

func (suite *walletRepositoryTestSuite) TestTransfer() {
	dest := wallet.NewWallet("Destination")
	suite.wallets.Store(dest)

	source, err := suite.wallets.Find(suite.wallet.ID)
	suite.NoError(err)

	out, in := source.Transfer(dest, decimal.NewFromInt(40))

	err = suite.wallets.Transfer(out, in)
	suite.NoError(err)

	sourceTotal, err := suite.wallets.Balance(source.ID)
	suite.NoError(err)
	suite.True(sourceTotal.Equal(decimal.NewFromInt(60)))

	destTotal, err := suite.wallets.Balance(dest.ID)
	suite.NoError(err)
	suite.True(destTotal.Equal(decimal.NewFromInt(40)))
}

func (suite *walletRepositoryTestSuite) TestTransferOverdraft() {
	dest := wallet.NewWallet("Destination")
	suite.wallets.Store(dest)

	source, err := suite.wallets.Find(suite.wallet.ID)
	suite.NoError(err)

	out, in := source.Transfer(dest, decimal.NewFromInt(200))

	err = suite.wallets.Transfer(out, in)
	suite.ErrorIs(err, wallet.ErrBalanceNegative)
}

func (suite *walletRepositoryTestSuite) TestDeleteWallet() {
	w, err := suite.wallets.Find(suite.wallet.ID)
	suite.NoError(err)

	w.Archive()
	err = suite.wallets.Delete(w)
	suite.NoError(err)

	// 軟刪除後應該找不到
	_, err = suite.wallets.Find(suite.wallet.ID)
	suite.ErrorIs(err, wallet.ErrWalletNotFound)
}

func (suite *walletRepositoryTestSuite) TestListTransactions() {
	tx := wallet.NewTransaction(suite.wallet.ID, "order-42", decimal.NewFromInt(30))
	suite.wallets.RecordTransaction(tx)

	all, err := suite.wallets.ListTransactions(wallet.TransactionFilter{}, wallet.Pagination{})
	suite.NoError(err)
	suite.Len(all, 2)

	filter := wallet.TransactionFilter{TxID: "ORDER"}
	found, err := suite.wallets.ListTransactions(filter, wallet.Pagination{})
	suite.NoError(err)
	suite.Len(found, 1)
	suite.Equal("order-42", found[0].TxID)

	min := decimal.NewFromInt(50)
	filter = wallet.TransactionFilter{AmountMin: &min}
	found, err = suite.wallets.ListTransactions(filter, wallet.Pagination{})
	suite.NoError(err)
	suite.Len(found, 1)
	suite.Equal("tx-001", found[0].TxID)
}

func (suite *walletRepositoryTestSuite) TestSortTransactions() {
	suite.wallets.RecordTransaction(
		wallet.NewTransaction(suite.wallet.ID, "aaa-1", decimal.NewFromInt(30)))
	suite.wallets.RecordTransaction(
		wallet.NewTransaction(suite.wallet.ID, "zzz-9", decimal.NewFromInt(20)))

	// 排序參數使用 API 的 txid,不是欄位名 tx_id
	found, err := suite.wallets.ListTransactions(
		wallet.TransactionFilter{}, wallet.Pagination{Sort: "txid"})
	suite.NoError(err)
	suite.Len(found, 3)
	suite.Equal("aaa-1", found[0].TxID)
	suite.Equal("tx-001", found[1].TxID)
	suite.Equal("zzz-9", found[2].TxID)

	found, err = suite.wallets.ListTransactions(
		wallet.TransactionFilter{}, wallet.Pagination{Sort: "-amount"})
	suite.NoError(err)
	suite.Equal("tx-001", found[0].TxID)
	suite.Equal("aaa-1", found[1].TxID)
	suite.Equal("zzz-9", found[2].TxID)
}

func (suite *walletRepositoryTestSuite) TestSortWallets() {
	suite.wallets.Store(wallet.NewWallet("Alpha"))
	suite.wallets.Store(wallet.NewWallet("Zulu"))

	found, err := suite.wallets.List(wallet.Filter{}, wallet.Pagination{Sort: "-label"})
	suite.NoError(err)
	suite.Len(found, 3)
	suite.Equal("Zulu", found[0].Label)
	suite.Equal("Alpha", found[2].Label)

	// 白名單之外的欄位退回預設排序,不能滲進 SQL
	_, err = suite.wallets.List(wallet.Filter{}, wallet.Pagination{Sort: "label; DROP TABLE wallets"})
	suite.NoError(err)
}

func (suite *walletRepositoryTestSuite) TestPagination() {
	for i := 0; i < 15; i++ {
		w := wallet.NewWallet("Bulk")
		suite.wallets.Store(w)
	}

	// 預設每頁 10 筆
	page1, err := suite.wallets.List(wallet.Filter{}, wallet.Pagination{})
	suite.NoError(err)
	suite.Len(page1, 10)

	page2, err := suite.wallets.List(wallet.Filter{}, wallet.Pagination{Number: 2})
	suite.NoError(err)
	suite.Len(page2, 6)
}

func (suite *walletRepositoryTestSuite) TearDownSuite() {
	suite.wallets.Truncate()
	suite.wallets.Close()
}

func TestWalletRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(walletRepositoryTestSuite))
}
