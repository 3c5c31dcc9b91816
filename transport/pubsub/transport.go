package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/go-kit/kit/endpoint"
	"github.com/nats-io/nats.go/micro"

	"github.com/flarexio/core/pubsub"
	"github.com/flarexio/ledger"
	"github.com/flarexio/ledger/wallet"
)

func EventHandler(endpoint endpoint.Endpoint) pubsub.MessageHandler {
	return func(ctx context.Context, msg *pubsub.Message) error {
		ss := strings.Split(msg.Topic, ".")
		if len(ss) != 3 || ss[0] != "wallets" {
			return errors.New("invalid event")
		}

		name := wallet.ParseEventName(ss[2])

		var event any
		switch name {
		case wallet.WalletCreated:
			var e *wallet.WalletCreatedEvent
			if err := json.Unmarshal(msg.Data, &e); err != nil {
				return err
			}
			event = e

		case wallet.WalletRenamed:
			var e *wallet.WalletRenamedEvent
			if err := json.Unmarshal(msg.Data, &e); err != nil {
				return err
			}
			event = e

		case wallet.WalletArchived:
			var e *wallet.WalletArchivedEvent
			if err := json.Unmarshal(msg.Data, &e); err != nil {
				return err
			}
			event = e

		case wallet.WalletTransferred:
			var e *wallet.WalletTransferredEvent
			if err := json.Unmarshal(msg.Data, &e); err != nil {
				return err
			}
			event = e

		case wallet.TransactionRecorded:
			var e *wallet.TransactionRecordedEvent
			if err := json.Unmarshal(msg.Data, &e); err != nil {
				return err
			}
			event = e

		case wallet.TransactionAmended:
			var e *wallet.TransactionAmendedEvent
			if err := json.Unmarshal(msg.Data, &e); err != nil {
				return err
			}
			event = e

		case wallet.TransactionArchived:
			var e *wallet.TransactionArchivedEvent
			if err := json.Unmarshal(msg.Data, &e); err != nil {
				return err
			}
			event = e

		default:
			return errors.New("invalid event")
		}

		_, err := endpoint(ctx, event)
		return err
	}
}

func BalanceHandler(endpoint endpoint.Endpoint) micro.HandlerFunc {
	return func(r micro.Request) {
		id, err := wallet.ParseID(string(r.Data()))
		if err != nil {
			r.Error("400", err.Error(), nil)
			return
		}

		ctx := context.Background()
		resp, err := endpoint(ctx, id)
		if err != nil {
			r.Error("417", err.Error(), nil)
			return
		}

		w, ok := resp.(*wallet.Wallet)
		if !ok {
			r.Error("417", "invalid response", nil)
			return
		}

		r.RespondJSON(&w.Balance)
	}
}

func DepositHandler(endpoint endpoint.Endpoint) micro.HandlerFunc {
	return func(r micro.Request) {
		var req ledger.DepositRequest
		if err := json.Unmarshal(r.Data(), &req); err != nil {
			r.Error("400", err.Error(), nil)
			return
		}

		ctx := context.Background()
		resp, err := endpoint(ctx, req)
		if err != nil {
			r.Error("417", err.Error(), nil)
			return
		}

		r.RespondJSON(&resp)
	}
}

func CheckHealthHandler(endpoint endpoint.Endpoint) micro.HandlerFunc {
	return func(r micro.Request) {
		ctx := context.Background()
		resp, err := endpoint(ctx, nil)
		if err != nil {
			r.Error("417", err.Error(), nil)
			return
		}

		health, ok := resp.(ledger.Health)
		if !ok {
			r.Error("417", "invalid response", nil)
			return
		}

		if !health.OK() {
			r.Error("503", "degraded", nil)
			return
		}

		r.RespondJSON(&health)
	}
}
