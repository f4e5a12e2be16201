package main

import (
	"errors"
	"net/http"

	"finboard/models"
	"finboard/pkg/apperr"
	"finboard/pkg/auth"
	"finboard/pkg/receipt"
	"finboard/pkg/store"

	"github.com/gin-gonic/gin"
)

const (
	msgExpenseNotFound = "expense not found"
	msgNoReceipt       = "this expense has no receipt"
)

func (s *server) listExpensesHandler(c *gin.Context, id auth.Identity) {
	f := store.ExpenseFilter{UserID: id.UserID}
	if accountID := c.Query("accountId"); accountID != "" {
		if !models.ValidID(accountID) {
			s.respondError(c, apperr.Validation(msgInvalidInput, apperr.FieldError{Field: "accountId", Message: "accountId is not a valid id"}))
			return
		}
		f.AccountID = accountID
	}
	expenses, err := s.store.ListExpenses(c.Request.Context(), f)
	if err != nil {
		s.respondError(c, storeError(err, msgExpenseNotFound))
		return
	}
	if expenses == nil {
		expenses = []models.Expense{}
	}
	c.JSON(http.StatusOK, expenses)
}

func (s *server) getExpenseHandler(c *gin.Context, id auth.Identity) {
	expenseID, err := pathID(c, "expense")
	if err != nil {
		s.respondError(c, err)
		return
	}
	expense, err := s.store.GetExpense(c.Request.Context(), id.UserID, expenseID)
	if err != nil {
		s.respondError(c, storeError(err, msgExpenseNotFound))
		return
	}
	c.JSON(http.StatusOK, expense)
}

// expenseImageHandler streams the stored receipt, or a JPEG thumbnail when
// ?width= is given.
func (s *server) expenseImageHandler(c *gin.Context, id auth.Identity) {
	expenseID, err := pathID(c, "expense")
	if err != nil {
		s.respondError(c, err)
		return
	}
	width, err := thumbnailWidth(c)
	if err != nil {
		s.respondError(c, err)
		return
	}
	rec, err := s.store.GetReceipt(c.Request.Context(), id.UserID, expenseID)
	if err != nil {
		s.respondError(c, storeError(err, msgExpenseNotFound))
		return
	}
	if len(rec.Data) == 0 || rec.ContentType == "" {
		s.respondError(c, apperr.NotFound(msgNoReceipt))
		return
	}
	c.Header("Cache-Control", "private, max-age=300")
	if width == 0 {
		c.Data(http.StatusOK, rec.ContentType, rec.Data)
		return
	}
	thumb, err := receipt.Thumbnail(rec, width)
	if errors.Is(err, receipt.ErrNotImage) {
		s.respondError(c, apperr.Validation("thumbnails are only available for JPEG, PNG and GIF receipts"))
		return
	}
	if err != nil {
		s.respondError(c, apperr.Internal(err))
		return
	}
	c.Data(http.StatusOK, "image/jpeg", thumb)
}

func (s *server) createExpenseHandler(c *gin.Context, id auth.Identity) {
	req, err := bindExpense(c)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if err := req.Validate(true); err != nil {
		s.respondError(c, err)
		return
	}
	if err := s.ensureAccount(c, id.UserID, req.AccountID); err != nil {
		s.respondError(c, err)
		return
	}
	expense := req.expense(id.UserID, s.now())
	if err := s.store.CreateExpense(c.Request.Context(), expense); err != nil {
		s.respondError(c, storeError(err, msgExpenseNotFound))
		return
	}
	c.JSON(http.StatusCreated, expense)
}

func (s *server) updateExpenseHandler(c *gin.Context, id auth.Identity) {
	expenseID, err := pathID(c, "expense")
	if err != nil {
		s.respondError(c, err)
		return
	}
	req, err := bindExpense(c)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if err := req.Validate(false); err != nil {
		s.respondError(c, err)
		return
	}
	if err := s.ensureAccount(c, id.UserID, req.AccountID); err != nil {
		s.respondError(c, err)
		return
	}
	expense, err := s.store.UpdateExpense(c.Request.Context(), id.UserID, expenseID, req.update())
	if err != nil {
		s.respondError(c, storeError(err, msgExpenseNotFound))
		return
	}
	c.JSON(http.StatusOK, expense)
}

func (s *server) deleteExpenseHandler(c *gin.Context, id auth.Identity) {
	expenseID, err := pathID(c, "expense")
	if err != nil {
		s.respondError(c, err)
		return
	}
	if err := s.store.DeleteExpense(c.Request.Context(), id.UserID, expenseID); err != nil {
		s.respondError(c, storeError(err, msgExpenseNotFound))
		return
	}
	c.JSON(http.StatusOK, messageResponse{Message: "expense deleted"})
}
