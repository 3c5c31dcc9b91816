package wallet

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestWalletLifecycle(t *testing.T) {
	w := NewWallet("savings")
	w.Create()

	assert.Equal(t, "savings", w.Label)
	assert.True(t, w.Balance.IsZero())
	assert.Equal(t, WalletCreated.String(), w.Events()[0].EventName())

	w.Rename("emergency fund")
	assert.Equal(t, "emergency fund", w.Label)
	assert.Equal(t, WalletRenamed.String(), w.Events()[1].EventName())

	w.Archive()
	assert.False(t, w.DeletedAt.IsZero())
	assert.Equal(t, WalletArchived.String(), w.Events()[2].EventName())
}

func TestRecordAdjustsBalance(t *testing.T) {
	w := NewWallet("cash")

	tx := w.Record("tx-001", decimal.NewFromInt(100))
	assert.Equal(t, "tx-001", tx.TxID)
	assert.True(t, w.Balance.Equal(decimal.NewFromInt(100)))

	withdraw := w.Record("", decimal.NewFromInt(-30))
	assert.NotEmpty(t, withdraw.TxID) // txid generated when omitted
	assert.True(t, w.Balance.Equal(decimal.NewFromInt(70)))
}

func TestAmendAndArchiveTransaction(t *testing.T) {
	w := NewWallet("cash")
	tx := w.Record("tx-001", decimal.NewFromInt(100))

	w.Amend(tx, decimal.NewFromInt(40))
	assert.True(t, tx.Amount.Equal(decimal.NewFromInt(40)))
	assert.True(t, w.Balance.Equal(decimal.NewFromInt(40)))

	w.ArchiveTransaction(tx)
	assert.False(t, tx.DeletedAt.IsZero())
	assert.True(t, w.Balance.IsZero())
}

func TestTransferPostings(t *testing.T) {
	source := NewWallet("source")
	dest := NewWallet("dest")

	source.Record("tx-seed", decimal.NewFromInt(100))

	out, in := source.Transfer(dest, decimal.NewFromInt(40))

	assert.True(t, out.Amount.Equal(decimal.NewFromInt(-40)))
	assert.True(t, in.Amount.Equal(decimal.NewFromInt(40)))
	assert.Equal(t, source.ID, out.WalletID)
	assert.Equal(t, dest.ID, in.WalletID)

	// 兩筆分錄共用同一個 txid 前綴
	assert.Equal(t,
		out.TxID[:len(out.TxID)-4],
		in.TxID[:len(in.TxID)-3],
	)

	assert.True(t, source.Balance.Equal(decimal.NewFromInt(60)))
	assert.True(t, dest.Balance.Equal(decimal.NewFromInt(40)))

	events := source.Events()
	last := events[len(events)-1]
	assert.Equal(t, WalletTransferred.String(), last.EventName())
}

func TestEventTopics(t *testing.T) {
	w := NewWallet("topics")

	e := NewWalletCreatedEvent(w)
	assert.Equal(t, "wallets."+w.ID.String()+".created", e.Topic())

	assert.Equal(t, WalletCreated, ParseEventName("created"))
	assert.Equal(t, TransactionRecorded, ParseEventName("tx_recorded"))
	assert.Equal(t, EventName(-1), ParseEventName("bogus"))
}

func TestWalletIDRoundTrip(t *testing.T) {
	id := MakeID()

	parsed, err := ParseID(id.String())
	assert.NoError(t, err)
	assert.Equal(t, id, parsed)

	_, err = ParseID("not-a-ulid")
	assert.Error(t, err)
}

func TestPagination(t *testing.T) {
	assert.Equal(t, DefaultPageSize, Pagination{}.Limit())
	assert.Equal(t, MaxPageSize, Pagination{Size: 500}.Limit())
	assert.Equal(t, 0, Pagination{Number: 1}.Offset())
	assert.Equal(t, 20, Pagination{Number: 3}.Offset())
}
