// Package domain contains core business types and interfaces.
//
// This file defines the Customer domain type. These types are separate from
// the repository models to allow for business logic enrichment and to
// decouple the domain layer from the database layer.
package domain

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Customer is a marketplace account that buys credits and subscribes to plans.
//
// SubscriptionTier is a denormalized copy of the tier of the customer's
// current subscription, kept for fast reads. The Subscription row is the
// source of truth; this field is rewritten every time billing state is
// reconciled.
type Customer struct {
	ID               uuid.UUID
	Email            string
	Name             string
	StripeCustomerID string
	SubscriptionTier SubscriptionTier
	Credits          int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// IsFree returns true if the customer has no paid tier.
func (c *Customer) IsFree() bool {
	return c.SubscriptionTier == "" || c.SubscriptionTier == SubscriptionTierFree
}

// DisplayName returns the customer's name or email if name is empty.
func (c *Customer) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	return c.Email
}

// =============================================================================
// Conversion helpers from repository types
// =============================================================================

// NullStringValue safely extracts a string from sql.NullString.
func NullStringValue(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// NullTimeValue safely extracts a time pointer from sql.NullTime.
func NullTimeValue(nt sql.NullTime) *time.Time {
	if nt.Valid {
		return &nt.Time
	}
	return nil
}

// NullInt32Value safely extracts an int pointer from sql.NullInt32.
func NullInt32Value(ni sql.NullInt32) *int {
	if ni.Valid {
		v := int(ni.Int32)
		return &v
	}
	return nil
}

// ToNullString converts a string to sql.NullString.
func ToNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}

// ToNullTime converts a time pointer to sql.NullTime.
func ToNullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{Valid: false}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// ToNullInt32 converts an int pointer to sql.NullInt32.
func ToNullInt32(v *int) sql.NullInt32 {
	if v == nil {
		return sql.NullInt32{Valid: false}
	}
	return sql.NullInt32{Int32: int32(*v), Valid: true}
}
