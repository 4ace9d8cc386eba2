package ads

import (
	"fmt"
	"strings"
)

// NormalizeCustomerID strips dashes from a customer ID: 123-456-7890 and
// 1234567890 are the same account.
func NormalizeCustomerID(id string) string {
	return strings.ReplaceAll(strings.TrimSpace(id), "-", "")
}

// FormatCustomerID renders a customer ID zero-padded to 10 digits, the form
// the API's resource names use.
func FormatCustomerID(id string) string {
	return fmt.Sprintf("%010s", NormalizeCustomerID(id))
}

// DisplayCustomerID renders a customer ID in the dashed 123-456-7890 form
// used in the Ads UI.
func DisplayCustomerID(id string) string {
	n := FormatCustomerID(id)
	if len(n) != 10 {
		return n
	}
	return n[:3] + "-" + n[3:6] + "-" + n[6:]
}
