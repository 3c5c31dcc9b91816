package wallet

import (
	"encoding/json"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"

	"github.com/flarexio/core/model"
)

type TransactionID ulid.ULID

func MakeTransactionID() TransactionID {
	return TransactionID(ulid.Make())
}

func ParseTransactionID(id string) (TransactionID, error) {
	txID, err := ulid.Parse(id)
	if err != nil {
		return TransactionID{}, err
	}
	return TransactionID(txID), nil
}

func (id TransactionID) Bytes() []byte {
	return id[:]
}

func (id TransactionID) String() string {
	return ulid.ULID(id).String()
}

func (id TransactionID) Time() time.Time {
	ms := ulid.ULID(id).Time()
	return ulid.Time(ms)
}

func (id *TransactionID) MarshalJSON() ([]byte, error) {
	jsonStr := `"` + id.String() + `"`
	return []byte(jsonStr), nil
}

func (id *TransactionID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	txID, err := ParseTransactionID(s)
	if err != nil {
		return err
	}

	*id = txID
	return nil
}

// Transaction is a single posting against a wallet. Positive amounts
// are deposits, negative amounts are withdrawals. TxID is the external
// reference and is unique across all wallets.
type Transaction struct {
	ID       TransactionID   `json:"id"`
	WalletID WalletID        `json:"wallet_id"`
	TxID     string          `json:"txid"`
	Amount   decimal.Decimal `json:"amount"`
	model.Model
}

func NewTransaction(walletID WalletID, txid string, amount decimal.Decimal) *Transaction {
	id := MakeTransactionID()

	return &Transaction{
		ID:       id,
		WalletID: walletID,
		TxID:     txid,
		Amount:   amount,
		Model: model.Model{
			CreatedAt: id.Time(),
			UpdatedAt: id.Time(),
		},
	}
}
