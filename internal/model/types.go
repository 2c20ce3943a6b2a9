package model

import "github.com/google/uuid"

// Company is an organization that users can belong to.
type Company struct {
	Audit
	Nit     string  `json:"nit" db:"nit"`
	Name    string  `json:"name" db:"name"`
	Country string  `json:"country" db:"country"`
	State   string  `json:"state" db:"state"`
	City    string  `json:"city" db:"city"`
	Email   string  `json:"email" db:"email"`
	Phone   *string `json:"phone,omitempty" db:"phone"`
}

// User is an account holder, optionally attached to a company.
type User struct {
	Audit
	Nid             *string    `json:"nid,omitempty" db:"nid"`
	FirstName       string     `json:"firstName" db:"first_name"`
	LastName        string     `json:"lastName" db:"last_name"`
	Email           string     `json:"email" db:"email"`
	Phone           *string    `json:"phone,omitempty" db:"phone"`
	IsActive        bool       `json:"isActive" db:"is_active"`
	IsAdmin         bool       `json:"isAdmin" db:"is_admin"`
	CompanyID       *uuid.UUID `json:"companyId,omitempty" db:"company_id"`
	DefaultLanguage *uuid.UUID `json:"defaultLanguage,omitempty" db:"default_language"`
	Company         *Company   `json:"company,omitempty" db:"-" ref:"CompanyID"`
}

// FullName joins the user's first and last names for display.
func (u *User) FullName() string { return u.FirstName + " " + u.LastName }

// Culture is a language/locale available for localization.
type Culture struct {
	Audit
	Code string `json:"code" db:"code"`
	Name string `json:"name" db:"name"`
}

// Resource is a localizable resource key.
type Resource struct {
	Audit
	Code string `json:"code" db:"code"`
}

// ResourceCulture is the translated text of a resource in one culture.
// It carries no audit fields, so deletes against it are always physical.
type ResourceCulture struct {
	Base
	Text       string    `json:"text" db:"text"`
	ResourceID uuid.UUID `json:"resourceId" db:"resource_id"`
	CultureID  uuid.UUID `json:"cultureId" db:"culture_id"`
	Resource   *Resource `json:"resource,omitempty" db:"-" ref:"ResourceID"`
	Culture    *Culture  `json:"culture,omitempty" db:"-" ref:"CultureID"`
}
