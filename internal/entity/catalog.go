package entity

import (
	"github.com/mikelcalvo/erp-admin/internal/resource"
)

func companyRef() resource.Reference {
	return resource.Reference{Field: "company_id", LabelField: "company_name", Resource: "companies/", Placeholder: "Company not loaded"}
}

func firmRef() resource.Reference {
	return resource.Reference{Field: "firm_id", LabelField: "firm_name", Resource: "firms/", Placeholder: "Firm not loaded"}
}

func warehouseRef() resource.Reference {
	return resource.Reference{Field: "warehouse_id", LabelField: "warehouse_name", Resource: "warehouses/", Placeholder: "Warehouse not loaded"}
}

func tradePointRef() resource.Reference {
	return resource.Reference{Field: "trade_point_id", LabelField: "trade_point_name", Resource: "trade-points/", Placeholder: "Trade point not loaded"}
}

func customerRef() resource.Reference {
	return resource.Reference{Field: "customer_id", LabelField: "customer_name", Resource: "customers/", Placeholder: "Customer not loaded"}
}

func supplierRef() resource.Reference {
	return resource.Reference{Field: "supplier_id", LabelField: "supplier_name", Resource: "suppliers/", Placeholder: "Supplier not loaded"}
}

func init() {
	register(&resource.Schema{
		Name:     "companies",
		Title:    "Companies",
		Singular: "Company",
		Path:     "companies/",
		ItemGet:  true,
		Fields: []resource.Field{
			{Key: "name", Label: "Name", Column: true, Width: 30},
			{Key: "tax_id", Label: "Tax ID", Column: true, Width: 14},
			{Key: "address", Label: "Address"},
			{Key: "phone", Label: "Phone", Column: true, Width: 16},
		},
		Required:     []resource.Requirement{{Field: "name", Message: "Enter the company name"}},
		SearchFields: []string{"name", "tax_id"},
		Update:       resource.UpdatePut,
	})

	register(&resource.Schema{
		Name:     "firms",
		Title:    "Firms",
		Singular: "Firm",
		Path:     "firms/",
		ItemGet:  true,
		Fields: []resource.Field{
			{Key: "name", Label: "Name", Column: true, Width: 30},
			{Key: "company_id", Label: "Company", Kind: resource.KindRef},
			{Key: "vat_type", Label: "VAT type", Column: true, Width: 12},
			{Key: "tax_id", Label: "Tax ID", Column: true, Width: 14},
		},
		Required: []resource.Requirement{
			{Field: "company_id", Message: "Choose a company"},
			{Field: "vat_type", Message: "Choose a VAT type"},
		},
		References:   []resource.Reference{companyRef()},
		SearchFields: []string{"name", "tax_id"},
		FilterFields: []string{"vat_type", "company_id"},
	})

	register(&resource.Schema{
		Name:     "accounts",
		Title:    "Accounts",
		Singular: "Account",
		Path:     "accounts/",
		Fields: []resource.Field{
			{Key: "name", Label: "Name", Column: true, Width: 24},
			{Key: "number", Label: "Number", Column: true, Width: 22},
			{Key: "company_id", Label: "Company", Kind: resource.KindRef},
			{Key: "currency", Label: "Currency", Column: true, Width: 8},
			{Key: "balance", Label: "Balance", Kind: resource.KindDecimal, ReadOnly: true, Column: true, Width: 12},
		},
		Required: []resource.Requirement{
			{Field: "company_id", Message: "Choose a company"},
			{Field: "name", Message: "Enter the account name"},
		},
		References:   []resource.Reference{companyRef()},
		SearchFields: []string{"name", "number"},
		FilterFields: []string{"currency", "company_id"},
	})

	register(&resource.Schema{
		Name:     "warehouses",
		Title:    "Warehouses",
		Singular: "Warehouse",
		Path:     "warehouses/",
		ItemGet:  true,
		Fields: []resource.Field{
			{Key: "name", Label: "Name", Column: true, Width: 28},
			{Key: "firm_id", Label: "Firm", Kind: resource.KindRef},
			{Key: "address", Label: "Address", Column: true, Width: 36},
		},
		Required: []resource.Requirement{
			{Field: "name", Message: "Enter the warehouse name"},
			{Field: "firm_id", Message: "Choose a firm"},
		},
		References:   []resource.Reference{firmRef()},
		SearchFields: []string{"name", "address"},
		FilterFields: []string{"firm_id"},
	})

	register(&resource.Schema{
		Name:     "trade-points",
		Title:    "Trade points",
		Singular: "Trade point",
		Path:     "trade-points/",
		Fields: []resource.Field{
			{Key: "name", Label: "Name", Column: true, Width: 28},
			{Key: "warehouse_id", Label: "Warehouse", Kind: resource.KindRef},
			{Key: "address", Label: "Address", Column: true, Width: 36},
		},
		Required: []resource.Requirement{
			{Field: "name", Message: "Enter the trade point name"},
			{Field: "warehouse_id", Message: "Choose a warehouse"},
		},
		References:   []resource.Reference{warehouseRef()},
		SearchFields: []string{"name", "address"},
		FilterFields: []string{"warehouse_id"},
	})

	register(&resource.Schema{
		Name:     "products",
		Title:    "Products",
		Singular: "Product",
		Path:     "products/",
		ItemGet:  true,
		Fields: []resource.Field{
			{Key: "name", Label: "Name", Column: true, Width: 30},
			{Key: "sku", Label: "SKU", Column: true, Width: 12},
			{Key: "barcode", Label: "Barcode", Column: true, Width: 14},
			{Key: "unit", Label: "Unit", Column: true, Width: 6},
			{Key: "price", Label: "Price", Kind: resource.KindDecimal, Column: true, Width: 10},
			{Key: "vat_rate", Label: "VAT %", Kind: resource.KindDecimal},
			{Key: "active", Label: "Active", Kind: resource.KindBool},
		},
		Required: []resource.Requirement{
			{Field: "name", Message: "Enter the product name"},
			{Field: "unit", Message: "Choose a unit"},
		},
		SearchFields: []string{"name", "sku", "barcode"},
		FilterFields: []string{"unit", "active"},
	})

	register(&resource.Schema{
		Name:     "suppliers",
		Title:    "Suppliers",
		Singular: "Supplier",
		Path:     "suppliers/",
		ItemGet:  true,
		Fields: []resource.Field{
			{Key: "name", Label: "Name", Column: true, Width: 30},
			{Key: "tax_id", Label: "Tax ID", Column: true, Width: 14},
			{Key: "phone", Label: "Phone", Column: true, Width: 16},
			{Key: "email", Label: "Email"},
		},
		Required:     []resource.Requirement{{Field: "name", Message: "Enter the supplier name"}},
		SearchFields: []string{"name", "tax_id", "phone"},
	})

	register(&resource.Schema{
		Name:     "customers",
		Title:    "Customers",
		Singular: "Customer",
		Path:     "customers/",
		ItemGet:  true,
		Fields: []resource.Field{
			{Key: "name", Label: "Name", Column: true, Width: 30},
			{Key: "tax_id", Label: "Tax ID", Column: true, Width: 14},
			{Key: "phone", Label: "Phone", Column: true, Width: 16},
			{Key: "email", Label: "Email"},
			{Key: "discount", Label: "Discount %", Kind: resource.KindDecimal},
		},
		Required:     []resource.Requirement{{Field: "name", Message: "Enter the customer name"}},
		SearchFields: []string{"name", "tax_id", "phone"},
	})

	register(&resource.Schema{
		Name:     "contracts",
		Title:    "Contracts",
		Singular: "Contract",
		Path:     "contracts/",
		ItemGet:  true,
		Fields: []resource.Field{
			{Key: "number", Label: "Number", Column: true, Width: 14},
			{Key: "customer_id", Label: "Customer", Kind: resource.KindRef},
			{Key: "date", Label: "Date", Column: true, Width: 10},
			{Key: "valid_until", Label: "Valid until", Column: true, Width: 10},
			{Key: "amount", Label: "Amount", Kind: resource.KindDecimal, Column: true, Width: 12},
		},
		Required: []resource.Requirement{
			{Field: "number", Message: "Enter the contract number"},
			{Field: "customer_id", Message: "Choose a customer"},
		},
		References:   []resource.Reference{customerRef()},
		SearchFields: []string{"number"},
		FilterFields: []string{"customer_id"},
	})
}
