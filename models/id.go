package models

import (
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func init() {
	// Amounts go over the wire as JSON numbers, not strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// NewID returns a fresh 24-hex-character ObjectID. Every backend uses the
// same identifier format so clients never see the difference.
func NewID() string {
	return primitive.NewObjectID().Hex()
}

// ValidID reports whether s is a well-formed identifier.
func ValidID(s string) bool {
	return primitive.IsValidObjectID(s)
}
