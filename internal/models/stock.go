package models

import (
	"errors"
	"time"
)

var (
	// ErrInvalidSelection is returned when a composite store code cannot be resolved.
	ErrInvalidSelection = errors.New("invalid store selection")
	// ErrNoResult is returned when an inventory response carries no usable status.
	ErrNoResult = errors.New("inventory returned no result")
	// ErrUnexpectedStatus is returned for any non-200 inventory response.
	ErrUnexpectedStatus = errors.New("unexpected inventory response status")
)

// StoreSelection identifies which storefront and inventory API are monitored.
type StoreSelection struct {
	Code              string `json:"code" validate:"required"`
	CountryLocale     string `json:"countryLocale" validate:"required,locale"`     // API locale, e.g. "en_us"
	StorefrontCountry string `json:"storefrontCountry" validate:"required,locale"` // storefront path segment, e.g. "en-us"
	CurrencyCode      string `json:"currencyCode" validate:"required,alpha"`
	ProductID         string `json:"productId" validate:"required,numeric"`
	APIURL            string `json:"apiUrl" validate:"required,url"`
	StorefrontURL     string `json:"storefrontUrl" validate:"required,url"`
}

// Scan is one recorded status observation. Scans are only created on a
// detected transition.
type Scan struct {
	Timestamp time.Time `json:"timestamp"`
	Status    string    `json:"status"`
}

// Alert is a user-facing notification handed to a display.
type Alert struct {
	Title   string
	Body    string
	Vibrate []int
	URL     string
	OnClick func()
}

// ProductInventory is the subset of an inventory record the monitor consumes.
type ProductInventory struct {
	ProductID int64
	Name      string
	SKU       string
	Status    string // raw inventory status code
}
