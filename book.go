package pricedb

// Book is the price database of a ledger, opened for the duration of a run.
//
// Mutations are only visible to the storage once Save succeeds.
type Book interface {
	// BaseCurrency returns the book's reporting currency.
	BaseCurrency() string
	// Commodities returns all commodities in the book's order.
	Commodities() ([]Commodity, error)
	// Prices returns the price history of c, in all currencies, most recent first.
	Prices(c Commodity) ([]Price, error)
	// AddPrice appends a new price.
	AddPrice(p Price) error
	// DeletePrice removes the price with p's GUID.
	DeletePrice(p Price) error
	// Save commits all changes. Failures wrap ErrPersistence.
	Save() error
	// Close releases the book, discarding unsaved changes.
	Close() error
}
