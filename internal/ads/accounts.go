package ads

import (
	"context"
	"strings"
)

// Account describes a Google Ads account accessible to the caller.
type Account struct {
	CustomerID      string `json:"customer_id"`
	ResourceName    string `json:"resource_name"`
	DescriptiveName string `json:"descriptive_name,omitempty"`
	CurrencyCode    string `json:"currency_code,omitempty"`
	TimeZone        string `json:"time_zone,omitempty"`
	Manager         *bool  `json:"manager,omitempty"`
}

const accountDetailQuery = "SELECT customer.id, customer.descriptive_name, " +
	"customer.currency_code, customer.time_zone, customer.manager FROM customer"

// ListAccessibleCustomers lists the accounts the authenticated user can
// access, enriching each with its name and manager flag via a one-row GAQL
// query. Enrichment is best-effort: an account whose detail query fails is
// still returned with its ID.
func (c *Client) ListAccessibleCustomers(ctx context.Context) ([]Account, error) {
	if err := c.RequireDeveloperToken(); err != nil {
		return nil, err
	}

	resp, err := c.Get(ctx, "/customers:listAccessibleCustomers")
	if err != nil {
		return nil, err
	}

	var listing struct {
		ResourceNames []string `json:"resourceNames"`
	}
	if err := resp.UnmarshalData(&listing); err != nil {
		return nil, err
	}

	accounts := make([]Account, 0, len(listing.ResourceNames))
	for _, rn := range listing.ResourceNames {
		parts := strings.Split(rn, "/")
		customerID := parts[len(parts)-1]
		acct := Account{CustomerID: customerID, ResourceName: rn}

		if detail, err := c.accountDetail(ctx, customerID); err == nil {
			acct.DescriptiveName = detail.DescriptiveName
			acct.CurrencyCode = detail.CurrencyCode
			acct.TimeZone = detail.TimeZone
			acct.Manager = detail.Manager
		}
		accounts = append(accounts, acct)
	}

	return accounts, nil
}

type accountDetail struct {
	DescriptiveName string
	CurrencyCode    string
	TimeZone        string
	Manager         *bool
}

func (c *Client) accountDetail(ctx context.Context, customerID string) (*accountDetail, error) {
	resp, err := c.Post(ctx, "/customers/"+customerID+"/googleAds:search", map[string]any{
		"query":    accountDetailQuery,
		"pageSize": 1,
	})
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Results []struct {
			Customer struct {
				DescriptiveName string `json:"descriptiveName"`
				CurrencyCode    string `json:"currencyCode"`
				TimeZone        string `json:"timeZone"`
				Manager         *bool  `json:"manager"`
			} `json:"customer"`
		} `json:"results"`
	}
	if err := resp.UnmarshalData(&parsed); err != nil {
		return nil, err
	}
	if len(parsed.Results) == 0 {
		return &accountDetail{}, nil
	}

	cust := parsed.Results[0].Customer
	return &accountDetail{
		DescriptiveName: cust.DescriptiveName,
		CurrencyCode:    cust.CurrencyCode,
		TimeZone:        cust.TimeZone,
		Manager:         cust.Manager,
	}, nil
}
