package models

// Customer is a storefront account. PasswordHash and CreditCardNumber never
// leave the server.
type Customer struct {
	ID               int64   `json:"customer_id"`
	Username         string  `json:"username"`
	PasswordHash     string  `json:"-"`
	Name             string  `json:"customer_name"`
	CreditCardNumber string  `json:"-"`
	BillingAddress   string  `json:"billing_address"`
	ShippingAddress  string  `json:"shipping_address"`
	PreferredBranch  string  `json:"preferred_branch"`
	OwnedCar         *string `json:"owned_car"`
}

type Employee struct {
	ID           int64  `json:"employee_id"`
	Name         string `json:"employee_name"`
	Role         string `json:"employee_role"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
}

const (
	RoleCustomer = "customer"
	RoleEmployee = "employee"
)

// LoginResponse tells the client which table the credentials matched.
type LoginResponse struct {
	Username     string  `json:"username"`
	DisplayName  string  `json:"displayName"`
	Role         string  `json:"role"`
	EmployeeRole *string `json:"employeeRole"`
	Token        string  `json:"token,omitempty"`
}
