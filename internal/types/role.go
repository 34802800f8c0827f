// README: User roles.
package types

type Role string

const (
	RoleCustomer Role = "customer"
	RoleReviewer Role = "reviewer"
	RoleAdmin    Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleReviewer, RoleAdmin:
		return true
	}
	return false
}
