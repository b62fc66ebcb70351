package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode"
)

// Schedule flags the weekdays a client is expected to attend.
type Schedule struct {
	Monday    bool `json:"monday"`
	Tuesday   bool `json:"tuesday"`
	Wednesday bool `json:"wednesday"`
	Thursday  bool `json:"thursday"`
	Friday    bool `json:"friday"`
}

// IsScheduled reports whether the lower-case weekday name is flagged. Weekend
// names are never scheduled.
func (s Schedule) IsScheduled(weekday string) bool {
	switch weekday {
	case "monday":
		return s.Monday
	case "tuesday":
		return s.Tuesday
	case "wednesday":
		return s.Wednesday
	case "thursday":
		return s.Thursday
	case "friday":
		return s.Friday
	default:
		return false
	}
}

// Any reports whether at least one weekday is flagged.
func (s Schedule) Any() bool {
	return s.Monday || s.Tuesday || s.Wednesday || s.Thursday || s.Friday
}

// Value implements driver.Valuer for the jsonb column.
func (s Schedule) Value() (driver.Value, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return raw, nil
}

// Scan implements sql.Scanner. Missing keys decode as false.
func (s *Schedule) Scan(src interface{}) error {
	*s = Schedule{}
	raw, err := jsonBytes(src)
	if err != nil || raw == nil {
		return err
	}
	return json.Unmarshal(raw, s)
}

// FundingState labels whether a funding source is active for a month.
type FundingState string

const (
	FundingActive   FundingState = "Funding"
	FundingInactive FundingState = "Not Funded"
)

// Valid returns true for the supported funding labels.
func (f FundingState) Valid() bool {
	return f == FundingActive || f == FundingInactive
}

// PaymentStatus maps a month label such as "January 2025" to its funding state.
type PaymentStatus map[string]FundingState

// Value implements driver.Valuer.
func (p PaymentStatus) Value() (driver.Value, error) {
	if p == nil {
		return []byte("{}"), nil
	}
	raw, err := json.Marshal(map[string]FundingState(p))
	if err != nil {
		return nil, err
	}
	return raw, nil
}

// Scan implements sql.Scanner.
func (p *PaymentStatus) Scan(src interface{}) error {
	out := PaymentStatus{}
	raw, err := jsonBytes(src)
	if err != nil {
		return err
	}
	if raw != nil {
		if err := json.Unmarshal(raw, &out); err != nil {
			return err
		}
	}
	*p = out
	return nil
}

// Client is an enrolled program participant.
type Client struct {
	ID            string        `db:"id" json:"id"`
	Name          string        `db:"name" json:"name"`
	Initials      string        `db:"initials" json:"initials"`
	Email         string        `db:"email" json:"email,omitempty"`
	Phone         string        `db:"phone" json:"phone,omitempty"`
	ParentName    string        `db:"parent_name" json:"parent_name,omitempty"`
	ParentEmail   string        `db:"parent_email" json:"parent_email,omitempty"`
	Location      string        `db:"location" json:"location"`
	Image         *string       `db:"image" json:"image,omitempty"`
	Schedule      Schedule      `db:"schedule" json:"schedule"`
	PaymentStatus PaymentStatus `db:"payment_status" json:"payment_status"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at" json:"updated_at"`
}

// ClientFilter narrows client listings.
type ClientFilter struct {
	Location string
}

// DeriveInitials takes the first letter of each word, upper-cased, keeping at most two.
func DeriveInitials(name string) string {
	var b strings.Builder
	count := 0
	for _, word := range strings.Fields(name) {
		if count == 2 {
			break
		}
		r := []rune(word)[0]
		b.WriteRune(unicode.ToUpper(r))
		count++
	}
	return b.String()
}

func jsonBytes(src interface{}) ([]byte, error) {
	switch v := src.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("unsupported json column type %T", src)
	}
}
