package store

import (
	"fmt"
	"strings"

	"github.com/pauljones0/stockwatch/internal/models"
	"github.com/pauljones0/stockwatch/internal/validator"
)

const apiPathPrefix = "/direct-sales-shop/DR/products"

// apiLocaleOverrides redirects locales that have no inventory API of their own.
// Storefront URLs keep the original country.
var apiLocaleOverrides = map[string]string{
	"de_at": "de_de",
}

// storefrontCountryOverrides redirects countries whose storefront lives under
// a different path segment. API URLs are unaffected.
var storefrontCountryOverrides = map[string]string{
	"no-no": "nb-no",
}

// Resolver maps composite store codes ("locale:currency:productId") to the
// inventory API and storefront URLs. It performs no network access.
type Resolver struct {
	apiHost         string
	webHost         string
	productLinePath string
	validate        *validator.Validator
}

func NewResolver(apiHost, webHost, productLinePath string, v *validator.Validator) *Resolver {
	if v == nil {
		v = validator.New()
	}
	return &Resolver{
		apiHost:         apiHost,
		webHost:         webHost,
		productLinePath: strings.Trim(productLinePath, "/"),
		validate:        v,
	}
}

// Resolve parses a composite code and builds both URLs from it.
func (r *Resolver) Resolve(code string) (models.StoreSelection, error) {
	parts := strings.Split(strings.TrimSpace(code), ":")
	if len(parts) != 3 {
		return models.StoreSelection{}, fmt.Errorf("%w: %q is not locale:currency:productId", models.ErrInvalidSelection, code)
	}
	country := strings.ToLower(strings.TrimSpace(parts[0]))
	currency := strings.TrimSpace(parts[1])
	productID := strings.TrimSpace(parts[2])

	storefrontCountry := strings.ReplaceAll(country, "_", "-")
	apiLocale := strings.ReplaceAll(country, "-", "_")

	if override, ok := apiLocaleOverrides[apiLocale]; ok {
		apiLocale = override
	}
	if override, ok := storefrontCountryOverrides[storefrontCountry]; ok {
		storefrontCountry = override
	}

	sel := models.StoreSelection{
		Code:              code,
		CountryLocale:     apiLocale,
		StorefrontCountry: storefrontCountry,
		CurrencyCode:      currency,
		ProductID:         productID,
		APIURL:            fmt.Sprintf("https://%s%s/%s/%s/%s", r.apiHost, apiPathPrefix, apiLocale, currency, productID),
		StorefrontURL:     fmt.Sprintf("https://%s/%s/%s/", r.webHost, storefrontCountry, r.productLinePath),
	}
	if err := r.validate.ValidateStruct(sel); err != nil {
		return models.StoreSelection{}, fmt.Errorf("%w: %v", models.ErrInvalidSelection, err)
	}
	return sel, nil
}
