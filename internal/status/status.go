// Package status maps raw inventory status codes to display strings.
package status

const (
	CodeOutOfStock = "PRODUCT_INVENTORY_OUT_OF_STOCK"
	CodeInStock    = "PRODUCT_INVENTORY_IN_STOCK"

	OutOfStock = "Out of stock"
	InStock    = "In stock"
)

// Normalize returns the display string for a raw code. Unknown codes pass
// through unchanged.
func Normalize(raw string) string {
	switch raw {
	case CodeOutOfStock:
		return OutOfStock
	case CodeInStock:
		return InStock
	default:
		return raw
	}
}
