package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strconv"
	"time"

	"github.com/go-kit/kit/endpoint"
	"github.com/go-kit/kit/sd"
	"github.com/nats-io/nats.go"
	"github.com/shopspring/decimal"

	"github.com/flarexio/ledger/wallet"
)

func BalanceFactory(address string, port int) (sd.Factory, error) {
	url := "nats://" + address + ":" + strconv.Itoa(port)
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, err
	}

	return func(instance string) (endpoint.Endpoint, io.Closer, error) {
		return BalanceEndpoint(nc, instance+".balance"), nil, nil
	}, nil
}

func BalanceEndpoint(nc *nats.Conn, topic string) endpoint.Endpoint {
	return func(ctx context.Context, request any) (response any, err error) {
		id, ok := request.(wallet.WalletID)
		if !ok {
			return nil, errors.New("invalid request")
		}

		msg, err := nc.Request(topic, []byte(id.String()), 5000*time.Millisecond)
		if err != nil {
			return nil, err
		}

		var balance decimal.Decimal
		if err := json.Unmarshal(msg.Data, &balance); err != nil {
			return nil, err
		}

		return balance, nil
	}
}
