package enums

// DocType is the document type label Wildberries attaches to a report row.
// The statistics API returns these values in Russian.
type DocType string

const (
	DocTypeSale   DocType = "Продажа"
	DocTypeReturn DocType = "Возврат"
)

// String implements fmt.Stringer.
func (d DocType) String() string {
	return string(d)
}

// IsSale reports whether the row documents a sale.
func (d DocType) IsSale() bool {
	return d == DocTypeSale
}

// IsReturn reports whether the row documents a buyer return.
func (d DocType) IsReturn() bool {
	return d == DocTypeReturn
}
