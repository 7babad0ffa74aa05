package models

// User is the directory service's record for a customer. Owned remotely;
// referenced here only to validate orders and snapshot display fields.
type User struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Product is the catalog service's record. Stock is decremented remotely by
// successful order creation; the value read here may be stale by the time a
// decrement executes.
type Product struct {
	ID          string  `json:"_id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Stock       int     `json:"stock"`
	Description string  `json:"description"`
}
