package conf

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type configTestSuite struct {
	suite.Suite
	cfg *Config
}

func (suite *configTestSuite) SetupSuite() {
	suite.T().Setenv("LEDGER_ADMIN_USERNAME", "admin")
	suite.T().Setenv("LEDGER_ADMIN_PASSWORD", "changeme")

	Path = ".."

	cfg, err := LoadConfig()
	if err != nil {
		suite.FailNow(err.Error())
	}

	suite.cfg = cfg
}

func (suite *configTestSuite) TestAdminFromEnv() {
	suite.Equal("admin", suite.cfg.Admin.Username)
	suite.Equal("changeme", suite.cfg.Admin.Password)
}

func (suite *configTestSuite) TestJWT() {
	suite.Len(suite.cfg.JWT.Privkey, 64)
	suite.Equal(1*time.Hour, suite.cfg.JWT.Timeout)
	suite.True(suite.cfg.JWT.Refresh.Enabled)
	suite.Equal(24*time.Hour, suite.cfg.JWT.Refresh.Maximum)
	suite.NotEmpty(suite.cfg.JWT.Audiences)
}

func (suite *configTestSuite) TestPersistence() {
	suite.Equal(SQLite, suite.cfg.Persistence.Driver)
	suite.Equal("ledger", suite.cfg.Persistence.Name)
	suite.Equal("disable", suite.cfg.Persistence.SSLMode)
}

func (suite *configTestSuite) TestCacheTTL() {
	ttl := suite.cfg.Cache.TTL
	suite.Equal(5*time.Second, ttl.Wallet)
	suite.Equal(20*time.Second, ttl.Wallets)
	suite.Equal(10*time.Second, ttl.Transaction)
	suite.Equal(40*time.Second, ttl.Transactions)
}

func (suite *configTestSuite) TestEventBus() {
	suite.Equal(NATS, suite.cfg.EventBus.Provider)
}

func TestConfigTestSuite(t *testing.T) {
	suite.Run(t, new(configTestSuite))
}
