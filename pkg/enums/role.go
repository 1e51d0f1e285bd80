package enums

// ActorRole distinguishes customer tokens from staff tokens.
type ActorRole string

const (
	RoleCustomer ActorRole = "customer"
	RoleAdmin    ActorRole = "admin"
)

func (r ActorRole) String() string {
	return string(r)
}

func (r ActorRole) IsValid() bool {
	switch r {
	case RoleCustomer, RoleAdmin:
		return true
	}
	return false
}
