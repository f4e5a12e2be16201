package mongostore

import (
	"fmt"
	"time"

	"finboard/models"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type userDoc struct {
	ID        primitive.ObjectID `bson:"_id"`
	Name      string             `bson:"name"`
	Email     string             `bson:"email"`
	Password  []byte             `bson:"password"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

type taskDoc struct {
	ID          primitive.ObjectID  `bson:"_id"`
	UserID      primitive.ObjectID  `bson:"userId"`
	AccountID   *primitive.ObjectID `bson:"accountId,omitempty"`
	Title       string              `bson:"title"`
	Description string              `bson:"description"`
	Completed   bool                `bson:"completed"`
	Priority    string              `bson:"priority"`
	DueDate     *time.Time          `bson:"dueDate,omitempty"`
	CreatedAt   time.Time           `bson:"createdAt"`
	UpdatedAt   time.Time           `bson:"updatedAt"`
}

type accountDoc struct {
	ID             primitive.ObjectID   `bson:"_id"`
	UserID         primitive.ObjectID   `bson:"userId"`
	Name           string               `bson:"name"`
	InitialBalance primitive.Decimal128 `bson:"initialBalance"`
	Type           string               `bson:"type"`
	Currency       string               `bson:"currency"`
	Color          string               `bson:"color"`
	CreatedAt      time.Time            `bson:"createdAt"`
	UpdatedAt      time.Time            `bson:"updatedAt"`
}

type receiptDoc struct {
	Data        []byte `bson:"data,omitempty"`
	ContentType string `bson:"contentType"`
}

type expenseDoc struct {
	ID          primitive.ObjectID   `bson:"_id"`
	UserID      primitive.ObjectID   `bson:"userId"`
	AccountID   primitive.ObjectID   `bson:"accountId"`
	Description string               `bson:"description"`
	Amount      primitive.Decimal128 `bson:"amount"`
	Date        time.Time            `bson:"date"`
	Category    string               `bson:"category"`
	Receipt     *receiptDoc          `bson:"receipt,omitempty"`
	CreatedAt   time.Time            `bson:"createdAt"`
	UpdatedAt   time.Time            `bson:"updatedAt"`
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("decimal %s: %w", d, err)
	}
	return v, nil
}

func fromDecimal128(v primitive.Decimal128) decimal.Decimal {
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.Zero
	}
	return d
}

func hexPtr(o *primitive.ObjectID) *string {
	if o == nil {
		return nil
	}
	s := o.Hex()
	return &s
}

// mongo stores milliseconds; truncate so round trips compare equal.
func msTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

func newUserDoc(u *models.User) (userDoc, error) {
	id, err := oid(u.ID)
	if err != nil {
		return userDoc{}, err
	}
	return userDoc{ID: id, Name: u.Name, Email: u.Email, Password: u.PasswordHash, CreatedAt: msTime(u.CreatedAt), UpdatedAt: msTime(u.UpdatedAt)}, nil
}

func (d userDoc) model() *models.User {
	return &models.User{ID: d.ID.Hex(), Name: d.Name, Email: d.Email, PasswordHash: d.Password, CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt}
}

func newTaskDoc(t *models.Task) (taskDoc, error) {
	id, err := oid(t.ID)
	if err != nil {
		return taskDoc{}, err
	}
	uid, err := oid(t.UserID)
	if err != nil {
		return taskDoc{}, err
	}
	doc := taskDoc{
		ID: id, UserID: uid, Title: t.Title, Description: t.Description,
		Completed: t.Completed, Priority: t.Priority, DueDate: t.DueDate,
		CreatedAt: msTime(t.CreatedAt), UpdatedAt: msTime(t.UpdatedAt),
	}
	if t.AccountID != nil {
		aid, err := oid(*t.AccountID)
		if err != nil {
			return taskDoc{}, err
		}
		doc.AccountID = &aid
	}
	return doc, nil
}

func (d taskDoc) model() models.Task {
	return models.Task{
		ID: d.ID.Hex(), UserID: d.UserID.Hex(), AccountID: hexPtr(d.AccountID),
		Title: d.Title, Description: d.Description, Completed: d.Completed,
		Priority: d.Priority, DueDate: d.DueDate, CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt,
	}
}

func newAccountDoc(a *models.Account) (accountDoc, error) {
	id, err := oid(a.ID)
	if err != nil {
		return accountDoc{}, err
	}
	uid, err := oid(a.UserID)
	if err != nil {
		return accountDoc{}, err
	}
	bal, err := toDecimal128(a.InitialBalance)
	if err != nil {
		return accountDoc{}, err
	}
	return accountDoc{
		ID: id, UserID: uid, Name: a.Name, InitialBalance: bal, Type: a.Type,
		Currency: a.Currency, Color: a.Color, CreatedAt: msTime(a.CreatedAt), UpdatedAt: msTime(a.UpdatedAt),
	}, nil
}

func (d accountDoc) model() models.Account {
	return models.Account{
		ID: d.ID.Hex(), UserID: d.UserID.Hex(), Name: d.Name,
		InitialBalance: fromDecimal128(d.InitialBalance), Type: d.Type, Currency: d.Currency,
		Color: d.Color, CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt,
	}
}

func newExpenseDoc(e *models.Expense) (expenseDoc, error) {
	id, err := oid(e.ID)
	if err != nil {
		return expenseDoc{}, err
	}
	uid, err := oid(e.UserID)
	if err != nil {
		return expenseDoc{}, err
	}
	aid, err := oid(e.AccountID)
	if err != nil {
		return expenseDoc{}, err
	}
	amt, err := toDecimal128(e.Amount)
	if err != nil {
		return expenseDoc{}, err
	}
	doc := expenseDoc{
		ID: id, UserID: uid, AccountID: aid, Description: e.Description, Amount: amt,
		Date: msTime(e.Date), Category: e.Category, CreatedAt: msTime(e.CreatedAt), UpdatedAt: msTime(e.UpdatedAt),
	}
	if len(e.ReceiptData) > 0 {
		doc.Receipt = &receiptDoc{Data: e.ReceiptData, ContentType: e.ReceiptContentType}
	}
	return doc, nil
}

func (d expenseDoc) model() models.Expense {
	e := models.Expense{
		ID: d.ID.Hex(), UserID: d.UserID.Hex(), AccountID: d.AccountID.Hex(),
		Description: d.Description, Amount: fromDecimal128(d.Amount), Date: d.Date,
		Category: d.Category, CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt,
	}
	if d.Receipt != nil {
		e.ReceiptData = d.Receipt.Data
		e.ReceiptContentType = d.Receipt.ContentType
		e.HasReceipt = d.Receipt.ContentType != ""
	}
	return e
}
