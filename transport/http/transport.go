package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-kit/kit/endpoint"
	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"

	"github.com/flarexio/ledger"
	"github.com/flarexio/ledger/conf"
	"github.com/flarexio/ledger/wallet"
)

func SignInHandler(endpoint endpoint.Endpoint) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ledger.SignInRequest
		if err := c.ShouldBind(&req); err != nil {
			c.Abort()
			c.Error(err)
			c.String(http.StatusBadRequest, err.Error())
			return
		}

		resp, err := endpoint(c, req)
		if err != nil {
			unauthorized(c, http.StatusUnauthorized, err)
			return
		}

		response, ok := resp.(ledger.SignInResponse)
		if !ok {
			err := errors.New("invalid response")
			unauthorized(c, http.StatusExpectationFailed, err)
			return
		}

		cfg := conf.G()
		now := time.Now()
		claims := Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    cfg.BaseURL,
				Subject:   req.Username,
				Audience:  cfg.JWT.Audiences,
				ExpiresAt: jwt.NewNumericDate(now.Add(cfg.JWT.Timeout)),
				IssuedAt:  jwt.NewNumericDate(now),
				ID:        ulid.Make().String(),
			},
			Roles: []string{"admin"},
		}

		token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
		tokenStr, err := token.SignedString(cfg.JWT.Privkey)
		if err != nil {
			unauthorized(c, http.StatusExpectationFailed, err)
			return
		}

		response.Token = &ledger.Token{
			Token:     tokenStr,
			ExpiredAt: now.Add(cfg.JWT.Timeout),
		}

		c.JSON(http.StatusOK, &response)
	}
}

func RefreshHandler(c *gin.Context) {
	cfg := conf.G()
	if !cfg.JWT.Refresh.Enabled {
		err := errors.New("token refresh disabled")
		c.Abort()
		c.Error(err)
		c.String(http.StatusForbidden, err.Error())
		return
	}

	var claims Claims
	if err := ParseToken(c, &claims); err != nil {
		unauthorized(c, http.StatusUnauthorized, err)
		return
	}

	if time.Since(claims.IssuedAt.Time) > cfg.JWT.Refresh.Maximum {
		err := errors.New("token beyond refresh time")
		unauthorized(c, http.StatusForbidden, err)
		return
	}

	now := time.Now()
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(cfg.JWT.Timeout))
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ID = ulid.Make().String()

	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	tokenStr, err := token.SignedString(cfg.JWT.Privkey)
	if err != nil {
		unauthorized(c, http.StatusExpectationFailed, err)
		return
	}

	t := ledger.Token{
		Token:     tokenStr,
		ExpiredAt: now.Add(cfg.JWT.Timeout),
	}

	c.JSON(http.StatusOK, &t)
}

func CreateWalletHandler(endpoint endpoint.Endpoint) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ledger.CreateWalletRequest
		if err := c.ShouldBind(&req); err != nil {
			c.Abort()
			c.Error(err)
			c.String(http.StatusBadRequest, err.Error())
			return
		}

		resp, err := endpoint(c, req)
		if err != nil {
			c.Abort()
			c.Error(err)
			c.String(errCode(err), err.Error())
			return
		}

		c.JSON(http.StatusCreated, &resp)
	}
}

func WalletHandler(endpoint endpoint.Endpoint) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := wallet.ParseID(c.Param("wallet"))
		if err != nil {
			c.Abort()
			c.Error(err)
			c.String(http.StatusBadRequest, err.Error())
			return
		}

		resp, err := endpoint(c, id)
		if err != nil {
			c.Abort()
			c.Error(err)
			c.String(errCode(err), err.Error())
			return
		}

		c.JSON(http.StatusOK, &resp)
	}
}

func WalletsHandler(endpoint endpoint.Endpoint) gin.HandlerFunc {
	return func(c *gin.Context) {
		req := ledger.WalletsRequest{
			Filter: wallet.Filter{
				Label: c.Query("label"),
			},
			Page: pagination(c),
		}

		resp, err := endpoint(c, req)
		if err != nil {
			c.Abort()
			c.Error(err)
			c.String(errCode(err), err.Error())
			return
		}

		c.JSON(http.StatusOK, &resp)
	}
}

func RenameWalletHandler(endpoint endpoint.Endpoint) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := wallet.ParseID(c.Param("wallet"))
		if err != nil {
			c.Abort()
			c.Error(err)
			c.String(http.StatusBadRequest, err.Error())
			return
		}

		var req ledger.RenameWalletRequest
		if err := c.ShouldBind(&req); err != nil {
			c.Abort()
			c.Error(err)
			c.String(http.StatusBadRequest, err.Error())
			return
		}
		req.WalletID = id

		resp, err := endpoint(c, req)
		if err != nil {
			c.Abort()
			c.Error(err)
			c.String(errCode(err), err.Error())
			return
		}

		c.JSON(http.StatusOK, &resp)
	}
}

func DeleteWalletHandler(endpoint endpoint.Endpoint) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := wallet.ParseID(c.Param("wallet"))
		if err != nil {
			c.Abort()
			c.Error(err)
			c.String(http.StatusBadRequest, err.Error())
			return
		}

		if _, err := endpoint(c, id); err != nil {
			c.Abort()
			c.Error(err)
			c.String(errCode(err), err.Error())
			return
		}

		c.Status(http.StatusNoContent)
	}
}

func DepositHandler(endpoint endpoint.Endpoint) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := wallet.ParseID(c.Param("wallet"))
		if err != nil {
			c.Abort()
			c.Error(err)
			c.String(http.StatusBadRequest, err.Error())
			return
		}

		var req ledger.DepositRequest
		if err := c.ShouldBind(&req); err != nil {
			c.Abort()
			c.Error(err)
			c.String(http.StatusBadRequest, err.Error())
			return
		}
		req.WalletID = id

		resp, err := endpoint(c, req)
		if err != nil {
			c.Abort()
			c.Error(err)
			c.String(errCode(err), err.Error())
			return
		}

		c.JSON(http.StatusOK, &resp)
	}
}

func TransferHandler(endpoint endpoint.Endpoint) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ledger.TransferRequest
		if err := c.ShouldBind(&req); err != nil {
			c.Abort()
			c.Error(err)
			c.String(http.StatusBadRequest, err.Error())
			return
		}

		resp, err := endpoint(c, req)
		if err != nil {
			c.Abort()
			c.Error(err)
			c.String(errCode(err), err.Error())
			return
		}

		c.JSON(http.StatusOK, &resp)
	}
}

func RecordTransactionHandler(endpoint endpoint.Endpoint) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ledger.RecordTransactionRequest
		if err := c.ShouldBind(&req); err != nil {
			c.Abort()
			c.Error(err)
			c.String(http.StatusBadRequest, err.Error())
			return
		}

		resp, err := endpoint(c, req)
		if err != nil {
			c.Abort()
			c.Error(err)
			c.String(errCode(err), err.Error())
			return
		}

		c.JSON(http.StatusCreated, &resp)
	}
}

func TransactionHandler(endpoint endpoint.Endpoint) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := wallet.ParseTransactionID(c.Param("transaction"))
		if err != nil {
			c.Abort()
			c.Error(err)
			c.String(http.StatusBadRequest, err.Error())
			return
		}

		resp, err := endpoint(c, id)
		if err != nil {
			c.Abort()
			c.Error(err)
			c.String(errCode(err), err.Error())
			return
		}

		c.JSON(http.StatusOK, &resp)
	}
}

func TransactionsHandler(endpoint endpoint.Endpoint) gin.HandlerFunc {
	return func(c *gin.Context) {
		var filter wallet.TransactionFilter

		if raw := c.Query("wallet"); raw != "" {
			id, err := wallet.ParseID(raw)
			if err != nil {
				c.Abort()
				c.Error(err)
				c.String(http.StatusBadRequest, err.Error())
				return
			}
			filter.WalletID = &id
		}

		filter.TxID = c.Query("txid")

		if raw := c.Query("amount_min"); raw != "" {
			min, err := decimal.NewFromString(raw)
			if err != nil {
				c.Abort()
				c.Error(err)
				c.String(http.StatusBadRequest, err.Error())
				return
			}
			filter.AmountMin = &min
		}

		if raw := c.Query("amount_max"); raw != "" {
			max, err := decimal.NewFromString(raw)
			if err != nil {
				c.Abort()
				c.Error(err)
				c.String(http.StatusBadRequest, err.Error())
				return
			}
			filter.AmountMax = &max
		}

		req := ledger.TransactionsRequest{
			Filter: filter,
			Page:   pagination(c),
		}

		resp, err := endpoint(c, req)
		if err != nil {
			c.Abort()
			c.Error(err)
			c.String(errCode(err), err.Error())
			return
		}

		c.JSON(http.StatusOK, &resp)
	}
}

func AmendTransactionHandler(endpoint endpoint.Endpoint) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := wallet.ParseTransactionID(c.Param("transaction"))
		if err != nil {
			c.Abort()
			c.Error(err)
			c.String(http.StatusBadRequest, err.Error())
			return
		}

		var req ledger.AmendTransactionRequest
		if err := c.ShouldBind(&req); err != nil {
			c.Abort()
			c.Error(err)
			c.String(http.StatusBadRequest, err.Error())
			return
		}
		req.TransactionID = id

		resp, err := endpoint(c, req)
		if err != nil {
			c.Abort()
			c.Error(err)
			c.String(errCode(err), err.Error())
			return
		}

		c.JSON(http.StatusOK, &resp)
	}
}

func DeleteTransactionHandler(endpoint endpoint.Endpoint) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := wallet.ParseTransactionID(c.Param("transaction"))
		if err != nil {
			c.Abort()
			c.Error(err)
			c.String(http.StatusBadRequest, err.Error())
			return
		}

		if _, err := endpoint(c, id); err != nil {
			c.Abort()
			c.Error(err)
			c.String(errCode(err), err.Error())
			return
		}

		c.Status(http.StatusNoContent)
	}
}

func CheckHealthHandler(endpoint endpoint.Endpoint) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp, err := endpoint(c, nil)
		if err != nil {
			c.Abort()
			c.Error(err)
			c.String(http.StatusServiceUnavailable, err.Error())
			return
		}

		health, ok := resp.(ledger.Health)
		if !ok {
			err := errors.New("invalid response")
			c.Abort()
			c.Error(err)
			c.String(http.StatusInternalServerError, err.Error())
			return
		}

		code := http.StatusOK
		if !health.OK() {
			code = http.StatusServiceUnavailable
		}

		c.JSON(code, gin.H{
			"type":       "healthcheck",
			"id":         "singleton",
			"attributes": health,
		})
	}
}

func pagination(c *gin.Context) wallet.Pagination {
	page := wallet.Pagination{
		Sort: c.Query("sort"),
	}

	if raw := c.Query("page"); raw != "" {
		if number, err := strconv.Atoi(raw); err == nil {
			page.Number = number
		}
	}

	if raw := c.Query("size"); raw != "" {
		if size, err := strconv.Atoi(raw); err == nil {
			page.Size = size
		}
	}

	return page
}

func errCode(err error) int {
	switch {
	case errors.Is(err, wallet.ErrWalletNotFound),
		errors.Is(err, wallet.ErrTransactionNotFound):
		return http.StatusNotFound
	case errors.Is(err, wallet.ErrBalanceNegative),
		errors.Is(err, wallet.ErrTxIDExists),
		errors.Is(err, wallet.ErrSameWallet),
		errors.Is(err, ledger.ErrInvalidAmount):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusExpectationFailed
	}
}
