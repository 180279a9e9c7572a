//services/authentication-service/internal/domain/user/user.domain.go

package user

import (
	"strings"
	"time"

	"github.com/google/uuid"

	domainErr "github.com/tradeguard/platform/services/authentication-service/internal/domain/errors"
)

type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusDeleted   UserStatus = "deleted"
	UserStatusSuspended UserStatus = "suspended"
)

// Role decides what a user sees in the product. Registration only accepts
// these three.
type Role string

const (
	RoleExporter   Role = "exporter"
	RoleCompliance Role = "compliance"
	RoleAdmin      Role = "admin"
)

func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleExporter, RoleCompliance, RoleAdmin:
		return r, nil
	}
	return "", domainErr.ErrInvalidRole
}

type CompanyType string

const (
	CompanyTypeSME       CompanyType = "sme"
	CompanyTypeLogistics CompanyType = "logistics"
	CompanyTypeFreight   CompanyType = "freight"
	CompanyTypeCustoms   CompanyType = "customs"
)

// ParseCompanyType accepts the empty string; the field is optional.
func ParseCompanyType(s string) (CompanyType, error) {
	switch t := CompanyType(s); t {
	case "", CompanyTypeSME, CompanyTypeLogistics, CompanyTypeFreight, CompanyTypeCustoms:
		return t, nil
	}
	return "", domainErr.ErrInvalidCompanyType
}

type ShippingVolume string

const (
	ShippingVolumeLow    ShippingVolume = "low"
	ShippingVolumeMedium ShippingVolume = "medium"
	ShippingVolumeHigh   ShippingVolume = "high"
)

// ParseShippingVolume accepts the empty string; the field is optional.
func ParseShippingVolume(s string) (ShippingVolume, error) {
	switch v := ShippingVolume(s); v {
	case "", ShippingVolumeLow, ShippingVolumeMedium, ShippingVolumeHigh:
		return v, nil
	}
	return "", domainErr.ErrInvalidShippingVolume
}

type User struct {
	UserID         uuid.UUID
	UserEmail      string
	FirstName      string
	LastName       string
	PhoneNumber    string
	CompanyName    string
	CompanyType    CompanyType
	Role           Role
	RegNumber      string
	PrimaryCountry string
	ShippingVolume ShippingVolume
	PasswordHash   string
	Status         UserStatus

	// Preferences edited from the settings page.
	TwoFA  bool
	Notifs bool
	Alerts bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NormalizeEmail is applied before every lookup and insert so that
// "A@x.com" and "a@x.com" are the same account.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ProfileUpdate is a partial update. Nil fields keep their current value.
type ProfileUpdate struct {
	FirstName      *string
	LastName       *string
	PhoneNumber    *string
	CompanyName    *string
	CompanyType    *string
	RegNumber      *string
	PrimaryCountry *string
	ShippingVolume *string
	TwoFA          *bool
	Notifs         *bool
	Alerts         *bool
}

// Apply validates the enum fields of upd and copies every set field onto u.
// u is left untouched when validation fails.
func (upd ProfileUpdate) Apply(u *User, now time.Time) error {
	next := *u
	if upd.CompanyType != nil {
		t, err := ParseCompanyType(*upd.CompanyType)
		if err != nil {
			return err
		}
		next.CompanyType = t
	}
	if upd.ShippingVolume != nil {
		v, err := ParseShippingVolume(*upd.ShippingVolume)
		if err != nil {
			return err
		}
		next.ShippingVolume = v
	}
	setString(&next.FirstName, upd.FirstName)
	setString(&next.LastName, upd.LastName)
	setString(&next.PhoneNumber, upd.PhoneNumber)
	setString(&next.CompanyName, upd.CompanyName)
	setString(&next.RegNumber, upd.RegNumber)
	setString(&next.PrimaryCountry, upd.PrimaryCountry)
	setBool(&next.TwoFA, upd.TwoFA)
	setBool(&next.Notifs, upd.Notifs)
	setBool(&next.Alerts, upd.Alerts)
	next.UpdatedAt = now

	*u = next
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}
