package main

import (
	"net/http"

	"finboard/models"
	"finboard/pkg/auth"
	"finboard/pkg/balance"

	"github.com/gin-gonic/gin"
)

const msgAccountNotFound = "account not found"

func (s *server) listAccountsHandler(c *gin.Context, id auth.Identity) {
	accounts, err := s.balances.Accounts(c.Request.Context(), id.UserID)
	if err != nil {
		s.respondError(c, storeError(err, msgAccountNotFound))
		return
	}
	c.JSON(http.StatusOK, accounts)
}

// getAccountHandler returns the account with its totals and expenses.
func (s *server) getAccountHandler(c *gin.Context, id auth.Identity) {
	accountID, err := pathID(c, "account")
	if err != nil {
		s.respondError(c, err)
		return
	}
	detail, err := s.balances.Account(c.Request.Context(), id.UserID, accountID)
	if err != nil {
		s.respondError(c, storeError(err, msgAccountNotFound))
		return
	}
	if detail.Expenses == nil {
		detail.Expenses = []models.Expense{}
	}
	c.JSON(http.StatusOK, detail)
}

func (s *server) createAccountHandler(c *gin.Context, id auth.Identity) {
	var req accountRequest
	if err := bindJSON(c, &req); err != nil {
		s.respondError(c, err)
		return
	}
	if err := req.Validate(true); err != nil {
		s.respondError(c, err)
		return
	}
	account := req.account(id.UserID)
	if err := s.store.CreateAccount(c.Request.Context(), account); err != nil {
		s.respondError(c, storeError(err, msgAccountNotFound))
		return
	}
	c.JSON(http.StatusCreated, balance.AccountSummary{
		Account: *account,
		Totals:  balance.Summarize(account.InitialBalance, nil),
	})
}

func (s *server) updateAccountHandler(c *gin.Context, id auth.Identity) {
	accountID, err := pathID(c, "account")
	if err != nil {
		s.respondError(c, err)
		return
	}
	var req accountRequest
	if err := bindJSON(c, &req); err != nil {
		s.respondError(c, err)
		return
	}
	if err := req.Validate(false); err != nil {
		s.respondError(c, err)
		return
	}
	account, err := s.store.UpdateAccount(c.Request.Context(), id.UserID, accountID, req.update())
	if err != nil {
		s.respondError(c, storeError(err, msgAccountNotFound))
		return
	}
	c.JSON(http.StatusOK, account)
}

// deleteAccountHandler removes the account and then its expenses.
func (s *server) deleteAccountHandler(c *gin.Context, id auth.Identity) {
	accountID, err := pathID(c, "account")
	if err != nil {
		s.respondError(c, err)
		return
	}
	if err := s.cascade.DeleteAccount(c.Request.Context(), id.UserID, accountID); err != nil {
		s.respondError(c, storeError(err, msgAccountNotFound))
		return
	}
	c.JSON(http.StatusOK, messageResponse{Message: "account and its expenses deleted"})
}

func (s *server) accountStatsHandler(c *gin.Context, id auth.Identity) {
	stats, err := s.balances.Stats(c.Request.Context(), id.UserID)
	if err != nil {
		s.respondError(c, storeError(err, msgAccountNotFound))
		return
	}
	c.JSON(http.StatusOK, stats)
}
