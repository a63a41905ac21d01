package domain

import (
	"strings"
	"time"

	"github.com/nyaruka/phonenumbers"
)

// DefaultPhoneRegion is used to parse phone numbers written without a
// country code.
const DefaultPhoneRegion = "BR"

// User is a registered person and the addresses they own.
type User struct {
	ID               int64     `json:"id"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	CPF              string    `json:"cpf"`
	Phone            string    `json:"phone,omitempty"`
	Age              int       `json:"age"`
	Addresses        []Address `json:"addresses"`
	AddressesSummary string    `json:"addresses_summary"`
	CreatedAt        time.Time `json:"-"`
	UpdatedAt        time.Time `json:"-"`
}

// SetAddresses replaces the user's addresses and rebuilds the summary so
// the two never disagree.
func (u *User) SetAddresses(addrs []Address) {
	if addrs == nil {
		addrs = []Address{}
	}
	for i := range addrs {
		addrs[i].UserID = u.ID
	}
	u.Addresses = addrs
	u.AddressesSummary = Summarize(addrs)
}

// NormalizePhone trims raw and rewrites it in E.164 when it is a valid
// number (national numbers are read as Brazilian). Anything else is
// returned trimmed but otherwise untouched.
func NormalizePhone(raw string) string {
	phone := strings.TrimSpace(raw)
	if phone == "" {
		return ""
	}

	num, err := phonenumbers.Parse(phone, DefaultPhoneRegion)
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return phone
	}
	return phonenumbers.Format(num, phonenumbers.E164)
}
