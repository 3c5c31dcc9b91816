package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/go-kit/kit/endpoint"
	"github.com/shopspring/decimal"

	"github.com/flarexio/ledger/wallet"
)

type EndpointSet struct {
	SignIn            endpoint.Endpoint
	CreateWallet      endpoint.Endpoint
	Wallet            endpoint.Endpoint
	Wallets           endpoint.Endpoint
	RenameWallet      endpoint.Endpoint
	DeleteWallet      endpoint.Endpoint
	Deposit           endpoint.Endpoint
	Transfer          endpoint.Endpoint
	RecordTransaction endpoint.Endpoint
	Transaction       endpoint.Endpoint
	Transactions      endpoint.Endpoint
	AmendTransaction  endpoint.Endpoint
	DeleteTransaction endpoint.Endpoint
	CheckHealth       endpoint.Endpoint
}

type SignInRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type SignInResponse struct {
	Token *Token `json:"token"`
}

type Token struct {
	Token     string    `json:"token"`
	ExpiredAt time.Time `json:"expired_at"`
}

func SignInEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (response any, err error) {
		req, ok := request.(SignInRequest)
		if !ok {
			return nil, errors.New("invalid request")
		}

		if err := svc.SignIn(req.Username, req.Password); err != nil {
			return nil, err
		}

		return SignInResponse{}, nil
	}
}

type CreateWalletRequest struct {
	Label string `json:"label"`
}

func CreateWalletEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (response any, err error) {
		req, ok := request.(CreateWalletRequest)
		if !ok {
			return nil, errors.New("invalid request")
		}

		w, err := svc.CreateWallet(req.Label)
		if err != nil {
			return nil, err
		}

		return w, nil
	}
}

func WalletEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (response any, err error) {
		id, ok := request.(wallet.WalletID)
		if !ok {
			return nil, errors.New("invalid request")
		}

		w, err := svc.Wallet(id)
		if err != nil {
			return nil, err
		}

		return w, nil
	}
}

type WalletsRequest struct {
	Filter wallet.Filter
	Page   wallet.Pagination
}

func WalletsEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (response any, err error) {
		req, ok := request.(WalletsRequest)
		if !ok {
			return nil, errors.New("invalid request")
		}

		ws, err := svc.Wallets(req.Filter, req.Page)
		if err != nil {
			return nil, err
		}

		return ws, nil
	}
}

type RenameWalletRequest struct {
	WalletID wallet.WalletID
	Label    string `json:"label"`
}

func RenameWalletEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (response any, err error) {
		req, ok := request.(RenameWalletRequest)
		if !ok {
			return nil, errors.New("invalid request")
		}

		w, err := svc.RenameWallet(req.WalletID, req.Label)
		if err != nil {
			return nil, err
		}

		return w, nil
	}
}

func DeleteWalletEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (response any, err error) {
		id, ok := request.(wallet.WalletID)
		if !ok {
			return nil, errors.New("invalid request")
		}

		if err := svc.DeleteWallet(id); err != nil {
			return nil, err
		}

		return nil, nil
	}
}

type DepositRequest struct {
	WalletID wallet.WalletID
	Amount   decimal.Decimal `json:"amount"`
	TxID     string          `json:"txid"`
}

type DepositResponse struct {
	Transaction *wallet.Transaction `json:"transaction"`
	Message     string              `json:"message"`
}

func DepositEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (response any, err error) {
		req, ok := request.(DepositRequest)
		if !ok {
			return nil, errors.New("invalid request")
		}

		tx, err := svc.Deposit(req.WalletID, req.Amount, req.TxID)
		if err != nil {
			return nil, err
		}

		resp := DepositResponse{
			Transaction: tx,
			Message:     "Wallet has been deposited",
		}

		return resp, nil
	}
}

type TransferRequest struct {
	SourceWallet      wallet.WalletID `json:"source_wallet"`
	DestinationWallet wallet.WalletID `json:"destination_wallet"`
	Amount            decimal.Decimal `json:"amount"`
}

type TransferResponse struct {
	Wallets []*wallet.Wallet `json:"wallets"`
	Message string           `json:"message"`
}

func TransferEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (response any, err error) {
		req, ok := request.(TransferRequest)
		if !ok {
			return nil, errors.New("invalid request")
		}

		source, dest, err := svc.Transfer(req.SourceWallet, req.DestinationWallet, req.Amount)
		if err != nil {
			return nil, err
		}

		resp := TransferResponse{
			Wallets: []*wallet.Wallet{source, dest},
			Message: "Transfer has been completed",
		}

		return resp, nil
	}
}

type RecordTransactionRequest struct {
	WalletID wallet.WalletID `json:"wallet_id"`
	TxID     string          `json:"txid"`
	Amount   decimal.Decimal `json:"amount"`
}

func RecordTransactionEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (response any, err error) {
		req, ok := request.(RecordTransactionRequest)
		if !ok {
			return nil, errors.New("invalid request")
		}

		tx, err := svc.RecordTransaction(req.WalletID, req.TxID, req.Amount)
		if err != nil {
			return nil, err
		}

		return tx, nil
	}
}

func TransactionEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (response any, err error) {
		id, ok := request.(wallet.TransactionID)
		if !ok {
			return nil, errors.New("invalid request")
		}

		tx, err := svc.Transaction(id)
		if err != nil {
			return nil, err
		}

		return tx, nil
	}
}

type TransactionsRequest struct {
	Filter wallet.TransactionFilter
	Page   wallet.Pagination
}

func TransactionsEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (response any, err error) {
		req, ok := request.(TransactionsRequest)
		if !ok {
			return nil, errors.New("invalid request")
		}

		txs, err := svc.Transactions(req.Filter, req.Page)
		if err != nil {
			return nil, err
		}

		return txs, nil
	}
}

type AmendTransactionRequest struct {
	TransactionID wallet.TransactionID
	Amount        decimal.Decimal `json:"amount"`
}

func AmendTransactionEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (response any, err error) {
		req, ok := request.(AmendTransactionRequest)
		if !ok {
			return nil, errors.New("invalid request")
		}

		tx, err := svc.AmendTransaction(req.TransactionID, req.Amount)
		if err != nil {
			return nil, err
		}

		return tx, nil
	}
}

func DeleteTransactionEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (response any, err error) {
		id, ok := request.(wallet.TransactionID)
		if !ok {
			return nil, errors.New("invalid request")
		}

		if err := svc.DeleteTransaction(id); err != nil {
			return nil, err
		}

		return nil, nil
	}
}

func CheckHealthEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (response any, err error) {
		return svc.CheckHealth(ctx), nil
	}
}

func EventEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (response any, err error) {
		handler, err := svc.Handler()
		if err != nil {
			return nil, err
		}

		switch e := request.(type) {
		case *wallet.WalletCreatedEvent:
			err = handler.WalletCreatedHandler(e)
		case *wallet.WalletRenamedEvent:
			err = handler.WalletRenamedHandler(e)
		case *wallet.WalletArchivedEvent:
			err = handler.WalletArchivedHandler(e)
		case *wallet.WalletTransferredEvent:
			err = handler.WalletTransferredHandler(e)
		case *wallet.TransactionRecordedEvent:
			err = handler.TransactionRecordedHandler(e)
		case *wallet.TransactionAmendedEvent:
			err = handler.TransactionAmendedHandler(e)
		case *wallet.TransactionArchivedEvent:
			err = handler.TransactionArchivedHandler(e)
		default:
			err = errors.New("invalid request")
		}

		return nil, err
	}
}
