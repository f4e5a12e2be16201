package main

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"finboard/models"
	"finboard/pkg/apperr"
	"finboard/pkg/auth"
	"finboard/pkg/receipt"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

const msgInvalidInput = "invalid input"

// fieldErrors collects per-field problems in input order.
type fieldErrors []apperr.FieldError

func (f *fieldErrors) add(field, msg string) {
	*f = append(*f, apperr.FieldError{Field: field, Message: msg})
}

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return apperr.Validation(msgInvalidInput, f...)
}

func checkText(fe *fieldErrors, field string, v *string, required bool, max int) {
	if v == nil {
		if required {
			fe.add(field, field+" is required")
		}
		return
	}
	*v = strings.TrimSpace(*v)
	if *v == "" && required {
		fe.add(field, field+" cannot be empty")
		return
	}
	if utf8.RuneCountInString(*v) > max {
		fe.add(field, fmt.Sprintf("%s cannot exceed %d characters", field, max))
	}
}

func checkOneOf(fe *fieldErrors, field string, v *string, allowed []string) {
	if v != nil && !slices.Contains(allowed, *v) {
		fe.add(field, fmt.Sprintf("%s must be one of: %s", field, strings.Join(allowed, ", ")))
	}
}

func checkID(fe *fieldErrors, field string, v *string) {
	if v != nil && !models.ValidID(*v) {
		fe.add(field, field+" is not a valid id")
	}
}

var dateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02"}

// parseDate accepts RFC 3339 and the shorter ISO 8601 forms browsers send.
// Values without a zone are UTC.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

func checkDate(fe *fieldErrors, field string, v *string) *time.Time {
	if v == nil {
		return nil
	}
	t, err := parseDate(*v)
	if err != nil {
		fe.add(field, field+" must be a valid ISO 8601 date")
		return nil
	}
	return &t
}

// bindJSON decodes the body into dst. Malformed JSON is a validation error.
func bindJSON(c *gin.Context, dst any) error {
	if c.Request.ContentLength == 0 {
		return nil
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		return apperr.Validation("malformed request body")
	}
	return nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validationError turns validator failures into field errors.
func validationError(err error) error {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return apperr.Validation(msgInvalidInput)
	}
	var fe fieldErrors
	for _, e := range ve {
		field := e.Field()
		switch e.Tag() {
		case "required":
			fe.add(field, field+" is required")
		case "email":
			fe.add(field, "please provide a valid email")
		case "max":
			fe.add(field, fmt.Sprintf("%s cannot exceed %s characters", field, e.Param()))
		case "min":
			fe.add(field, fmt.Sprintf("%s must be at least %s characters", field, e.Param()))
		default:
			fe.add(field, field+" is invalid")
		}
	}
	return fe.err()
}

// Auth

type registerRequest struct {
	Name     string `json:"name" validate:"required,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

func (r *registerRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = auth.NormalizeEmail(r.Email)
	if err := validate.Struct(r); err != nil {
		return validationError(err)
	}
	return nil
}

type loginRequest struct {
	Email    string `json:"email" validate:"email"`
	Password string `json:"password"`
}

func (r *loginRequest) Validate() error {
	r.Email = auth.NormalizeEmail(r.Email)
	if r.Email == "" || r.Password == "" {
		return apperr.Validation("please provide email and password")
	}
	if err := validate.Struct(r); err != nil {
		return validationError(err)
	}
	return nil
}

// Tasks

type taskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Completed   *bool   `json:"completed"`
	Priority    *string `json:"priority"`
	DueDate     *string `json:"dueDate"`
	AccountID   *string `json:"accountId"`

	dueDate *time.Time
}

func (r *taskRequest) Validate(create bool) error {
	var fe fieldErrors
	checkText(&fe, "title", r.Title, create, 100)
	if r.Title != nil && !create && *r.Title == "" {
		fe.add("title", "title cannot be empty")
	}
	checkText(&fe, "description", r.Description, false, 500)
	checkOneOf(&fe, "priority", r.Priority, models.Priorities)
	r.dueDate = checkDate(&fe, "dueDate", r.DueDate)
	checkID(&fe, "accountId", r.AccountID)
	return fe.err()
}

func (r *taskRequest) task(userID string) *models.Task {
	t := &models.Task{
		ID:        models.NewID(),
		UserID:    userID,
		Title:     *r.Title,
		Priority:  models.PriorityMedium,
		DueDate:   r.dueDate,
		AccountID: r.AccountID,
	}
	if r.Description != nil {
		t.Description = *r.Description
	}
	if r.Completed != nil {
		t.Completed = *r.Completed
	}
	if r.Priority != nil {
		t.Priority = *r.Priority
	}
	return t
}

func (r *taskRequest) update() models.TaskUpdate {
	return models.TaskUpdate{
		Title:       r.Title,
		Description: r.Description,
		Completed:   r.Completed,
		Priority:    r.Priority,
		DueDate:     r.dueDate,
		AccountID:   r.AccountID,
	}
}

// Accounts

type accountRequest struct {
	Name           *string          `json:"name"`
	InitialBalance *decimal.Decimal `json:"initialBalance"`
	Type           *string          `json:"type"`
	Currency       *string          `json:"currency"`
	Color          *string          `json:"color"`
}

func (r *accountRequest) Validate(create bool) error {
	var fe fieldErrors
	checkText(&fe, "name", r.Name, create, 100)
	if r.Name != nil && !create && *r.Name == "" {
		fe.add("name", "name cannot be empty")
	}
	checkOneOf(&fe, "type", r.Type, models.AccountTypes)
	if r.Currency != nil {
		*r.Currency = strings.ToUpper(strings.TrimSpace(*r.Currency))
	}
	checkOneOf(&fe, "currency", r.Currency, models.Currencies)
	checkText(&fe, "color", r.Color, false, 32)
	return fe.err()
}

func (r *accountRequest) account(userID string) *models.Account {
	a := &models.Account{
		ID:             models.NewID(),
		UserID:         userID,
		Name:           *r.Name,
		InitialBalance: decimal.Zero,
		Type:           models.AccountChecking,
		Currency:       "USD",
		Color:          models.DefaultAccountColor,
	}
	if r.InitialBalance != nil {
		a.InitialBalance = *r.InitialBalance
	}
	if r.Type != nil {
		a.Type = *r.Type
	}
	if r.Currency != nil {
		a.Currency = *r.Currency
	}
	if r.Color != nil && *r.Color != "" {
		a.Color = *r.Color
	}
	return a
}

func (r *accountRequest) update() models.AccountUpdate {
	if r.Color != nil && *r.Color == "" {
		def := models.DefaultAccountColor
		r.Color = &def
	}
	return models.AccountUpdate{
		Name:           r.Name,
		InitialBalance: r.InitialBalance,
		Type:           r.Type,
		Currency:       r.Currency,
		Color:          r.Color,
	}
}

// Expenses

// expenseRequest is filled from JSON or from multipart form fields. Amounts
// arrive as JSON numbers, numeric strings or form values.
type expenseRequest struct {
	Description *string          `json:"description"`
	Amount      *decimal.Decimal `json:"amount"`
	Date        *string          `json:"date"`
	Category    *string          `json:"category"`
	AccountID   *string          `json:"accountId"`

	date    *time.Time
	receipt *models.Receipt
}

// maxExpenseBody bounds the request body: one receipt plus form overhead.
const maxExpenseBody = receipt.MaxSize + 1<<20

// bindExpense reads a JSON or multipart/form-data expense body. A receipt
// that is too large or of a disallowed type fails here, before any store access.
func bindExpense(c *gin.Context) (*expenseRequest, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxExpenseBody)
	req := &expenseRequest{}
	mt, _, _ := mime.ParseMediaType(c.GetHeader("Content-Type"))
	if mt != "multipart/form-data" {
		if err := bindJSON(c, req); err != nil {
			return nil, err
		}
		return req, nil
	}

	form, err := c.MultipartForm()
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) || strings.Contains(err.Error(), "request body too large") {
			return nil, apperr.Validation(msgInvalidInput, apperr.FieldError{Field: "receipt", Message: receipt.ErrTooLarge.Error()})
		}
		return nil, apperr.Validation("malformed multipart body")
	}
	value := func(key string) *string {
		if v, ok := form.Value[key]; ok && len(v) > 0 {
			s := v[0]
			return &s
		}
		return nil
	}
	req.Description = value("description")
	req.Date = value("date")
	req.Category = value("category")
	req.AccountID = value("accountId")
	if s := value("amount"); s != nil {
		d, err := decimal.NewFromString(strings.TrimSpace(*s))
		if err != nil {
			return nil, apperr.Validation(msgInvalidInput, apperr.FieldError{Field: "amount", Message: "amount must be a number"})
		}
		req.Amount = &d
	}
	if files := form.File["receipt"]; len(files) > 0 {
		r, err := receipt.FromFileHeader(files[0])
		if err != nil {
			if errors.Is(err, receipt.ErrTooLarge) || errors.Is(err, receipt.ErrType) {
				return nil, apperr.Validation(msgInvalidInput, apperr.FieldError{Field: "receipt", Message: err.Error()})
			}
			return nil, apperr.Internal(err)
		}
		req.receipt = r
	}
	return req, nil
}

func (r *expenseRequest) Validate(create bool) error {
	var fe fieldErrors
	checkText(&fe, "description", r.Description, create, 200)
	if r.Description != nil && !create && *r.Description == "" {
		fe.add("description", "description cannot be empty")
	}
	if r.Amount == nil && create {
		fe.add("amount", "amount is required")
	}
	r.date = checkDate(&fe, "date", r.Date)
	checkText(&fe, "category", r.Category, false, 50)
	if create && r.AccountID == nil {
		fe.add("accountId", "accountId is required")
	}
	checkID(&fe, "accountId", r.AccountID)
	return fe.err()
}

func (r *expenseRequest) expense(userID string, now time.Time) *models.Expense {
	e := &models.Expense{
		ID:          models.NewID(),
		UserID:      userID,
		AccountID:   *r.AccountID,
		Description: *r.Description,
		Amount:      *r.Amount,
		Date:        now.UTC(),
		Category:    models.DefaultCategory,
	}
	if r.date != nil {
		e.Date = *r.date
	}
	if r.Category != nil && *r.Category != "" {
		e.Category = *r.Category
	}
	if r.receipt != nil {
		e.ReceiptData = r.receipt.Data
		e.ReceiptContentType = r.receipt.ContentType
	}
	return e
}

func (r *expenseRequest) update() models.ExpenseUpdate {
	if r.Category != nil && *r.Category == "" {
		def := models.DefaultCategory
		r.Category = &def
	}
	return models.ExpenseUpdate{
		Description: r.Description,
		Amount:      r.Amount,
		Date:        r.date,
		Category:    r.Category,
		AccountID:   r.AccountID,
		Receipt:     r.receipt,
	}
}

// thumbnailWidth reads ?width=. Zero means the original bytes.
func thumbnailWidth(c *gin.Context) (int, error) {
	raw := c.Query("width")
	if raw == "" {
		return 0, nil
	}
	w, err := strconv.Atoi(raw)
	if err != nil || w < 1 || w > receipt.MaxThumbnailWidth {
		return 0, apperr.Validation(msgInvalidInput, apperr.FieldError{
			Field:   "width",
			Message: fmt.Sprintf("width must be between 1 and %d", receipt.MaxThumbnailWidth),
		})
	}
	return w, nil
}
