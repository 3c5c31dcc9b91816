package http

import (
	"crypto/ed25519"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/flarexio/core/events"
	"github.com/flarexio/core/pubsub"
	"github.com/flarexio/ledger"
	"github.com/flarexio/ledger/conf"
	"github.com/flarexio/ledger/persistence/inmem"
	"github.com/flarexio/ledger/wallet"
)

type transportTestSuite struct {
	suite.Suite
	router  *gin.Engine
	svc     ledger.Service
	wallets wallet.Repository
}

func (suite *transportTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	events.ReplaceGlobals(pubsub.NewSimplePubSub())

	_, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		suite.FailNow(err.Error())
	}

	cfg := &conf.Config{
		Name:    "ledger-test",
		BaseURL: "https://ledger.test",
		JWT: conf.JWT{
			Privkey:   priv,
			Timeout:   time.Hour,
			Audiences: []string{"https://ledger.test"},
		},
		Admin: conf.Admin{
			Username: "admin",
			Password: "changeme",
		},
	}
	conf.ReplaceGlobals(cfg)

	Init(cfg.BaseURL, cfg.JWT.Audiences[0], cfg.JWT.Privkey)

	wallets, err := inmem.NewWalletRepository()
	if err != nil {
		suite.FailNow(err.Error())
	}

	svc := ledger.NewService(wallets, cfg.Admin)

	endpoints := ledger.EndpointSet{
		SignIn:       ledger.SignInEndpoint(svc),
		CreateWallet: ledger.CreateWalletEndpoint(svc),
		Wallet:       ledger.WalletEndpoint(svc),
		Wallets:      ledger.WalletsEndpoint(svc),
		Deposit:      ledger.DepositEndpoint(svc),
		Transfer:     ledger.TransferEndpoint(svc),
		CheckHealth:  ledger.CheckHealthEndpoint(svc),
	}

	auth := Authorizator("admin")

	r := gin.New()
	apiV1 := r.Group("/ledger/v1")
	{
		apiV1.PATCH("/signin", SignInHandler(endpoints.SignIn))
		apiV1.GET("/healthz", CheckHealthHandler(endpoints.CheckHealth))
		apiV1.POST("/wallets", auth, CreateWalletHandler(endpoints.CreateWallet))
		apiV1.GET("/wallets", auth, WalletsHandler(endpoints.Wallets))
		apiV1.GET("/wallets/:wallet", auth, WalletHandler(endpoints.Wallet))
		apiV1.POST("/wallets/:wallet/deposit", auth, DepositHandler(endpoints.Deposit))
		apiV1.POST("/wallets/transfer", auth, TransferHandler(endpoints.Transfer))
	}

	suite.router = r
	suite.svc = svc
	suite.wallets = wallets
}

func (suite *transportTestSuite) signIn() string {
	body := `{"username":"admin","password":"changeme"}`
	req := httptest.NewRequest(http.MethodPatch, "/ledger/v1/signin", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		suite.FailNow("signin failed: " + w.Body.String())
	}

	var resp ledger.SignInResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		suite.FailNow(err.Error())
	}

	return resp.Token.Token
}

func (suite *transportTestSuite) newStoredWallet(label string) *wallet.Wallet {
	w, err := suite.svc.CreateWallet(label)
	if err != nil {
		suite.FailNow(err.Error())
	}

	if err := suite.wallets.Store(w); err != nil {
		suite.FailNow(err.Error())
	}

	return w
}

func (suite *transportTestSuite) TestSignIn() {
	token := suite.signIn()
	suite.NotEmpty(token)

	body := `{"username":"admin","password":"wrong"}`
	req := httptest.NewRequest(http.MethodPatch, "/ledger/v1/signin", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusUnauthorized, w.Code)
}

func (suite *transportTestSuite) TestCreateWalletUnauthorized() {
	body := `{"label":"savings"}`
	req := httptest.NewRequest(http.MethodPost, "/ledger/v1/wallets", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusUnauthorized, w.Code)
}

func (suite *transportTestSuite) TestCreateWallet() {
	token := suite.signIn()

	body := `{"label":"savings"}`
	req := httptest.NewRequest(http.MethodPost, "/ledger/v1/wallets", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusCreated, w.Code)

	var created wallet.Wallet
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &created))
	suite.Equal("savings", created.Label)
}

func (suite *transportTestSuite) TestWalletNotFound() {
	token := suite.signIn()

	req := httptest.NewRequest(http.MethodGet,
		"/ledger/v1/wallets/"+wallet.MakeID().String(), nil)
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *transportTestSuite) TestDeposit() {
	token := suite.signIn()
	stored := suite.newStoredWallet("cash")

	body := `{"amount":"100","txid":"tx-001"}`
	req := httptest.NewRequest(http.MethodPost,
		"/ledger/v1/wallets/"+stored.ID.String()+"/deposit", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusOK, w.Code)

	var resp ledger.DepositResponse
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal("Wallet has been deposited", resp.Message)
	suite.Equal("tx-001", resp.Transaction.TxID)
}

func (suite *transportTestSuite) TestDepositZeroAmount() {
	token := suite.signIn()
	stored := suite.newStoredWallet("cash")

	body := `{"amount":"0"}`
	req := httptest.NewRequest(http.MethodPost,
		"/ledger/v1/wallets/"+stored.ID.String()+"/deposit", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusUnprocessableEntity, w.Code)
}

func (suite *transportTestSuite) TestTransfer() {
	token := suite.signIn()

	source := suite.newStoredWallet("source")
	dest := suite.newStoredWallet("dest")

	tx := wallet.NewTransaction(source.ID, "tx-seed", decimal.NewFromInt(100))
	if err := suite.wallets.RecordTransaction(tx); err != nil {
		suite.FailNow(err.Error())
	}

	body := `{"source_wallet":"` + source.ID.String() + `",` +
		`"destination_wallet":"` + dest.ID.String() + `","amount":"40"}`
	req := httptest.NewRequest(http.MethodPost,
		"/ledger/v1/wallets/transfer", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusOK, w.Code)

	var resp ledger.TransferResponse
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal("Transfer has been completed", resp.Message)
	suite.Len(resp.Wallets, 2)
}

func (suite *transportTestSuite) TestTransferSameWallet() {
	token := suite.signIn()
	source := suite.newStoredWallet("only")

	body := `{"source_wallet":"` + source.ID.String() + `",` +
		`"destination_wallet":"` + source.ID.String() + `","amount":"10"}`
	req := httptest.NewRequest(http.MethodPost,
		"/ledger/v1/wallets/transfer", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusUnprocessableEntity, w.Code)
}

func (suite *transportTestSuite) TestHealthz() {
	req := httptest.NewRequest(http.MethodGet, "/ledger/v1/healthz", nil)

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusOK, w.Code)

	var resp struct {
		Type       string        `json:"type"`
		ID         string        `json:"id"`
		Attributes ledger.Health `json:"attributes"`
	}

	suite.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal("healthcheck", resp.Type)
	suite.Equal("singleton", resp.ID)
	suite.Equal("ok", resp.Attributes["database"])
}

func TestTransportTestSuite(t *testing.T) {
	suite.Run(t, new(transportTestSuite))
}
