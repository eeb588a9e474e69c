package goSessionSync

// Role is one value of the closed role enumeration. A guest is represented
// by the absence of a session record, not by a Role value.
//
// There is no implicit hierarchy: RoleManager does not satisfy a
// RoleSystemAdmin requirement or vice versa. Callers enumerate every role
// they accept through a [RoleSet].
type Role uint8

const (
	// RoleUnknown is the zero value; it never satisfies any RoleSet.
	RoleUnknown Role = iota
	// RoleCustomer is an end customer of the storefront.
	RoleCustomer
	// RoleSalesperson is a storefront salesperson.
	RoleSalesperson
	// RoleManager is a store manager.
	RoleManager
	// RoleSystemAdmin is a system administrator.
	RoleSystemAdmin

	roleCount
)

var roleNames = map[Role]string{
	RoleCustomer:    "customer",
	RoleSalesperson: "salesperson",
	RoleManager:     "manager",
	RoleSystemAdmin: "system_admin",
}

// roleAliases maps every accepted wire spelling to its Role. The Spanish
// spellings are the legacy storefront vocabulary; records written by older
// clients still carry them.
var roleAliases = map[string]Role{
	"customer":     RoleCustomer,
	"salesperson":  RoleSalesperson,
	"manager":      RoleManager,
	"system_admin": RoleSystemAdmin,

	"cliente":       RoleCustomer,
	"vendedor":      RoleSalesperson,
	"gerente":       RoleManager,
	"admin_sistema": RoleSystemAdmin,
}

// ParseRole maps a wire role string to its [Role]. Unrecognized or empty
// strings fail closed: they return (RoleUnknown, false) and therefore never
// satisfy a required-role set.
func ParseRole(s string) (Role, bool) {
	r, ok := roleAliases[s]
	return r, ok
}

// String returns the canonical wire name of the role, or "unknown".
func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return "unknown"
}

// Valid reports whether r is a member of the closed enumeration.
func (r Role) Valid() bool {
	return r > RoleUnknown && r < roleCount
}

// Set returns the one-element [RoleSet] containing r.
func (r Role) Set() RoleSet {
	return RoleSetOf(r)
}

// RoleSet is a bitmask set of roles. The required-role parameter of
// [Provider.HasRole] and [Decide] is always a RoleSet; a single required
// role is its one-element set.
type RoleSet uint8

// RoleSetOf builds a RoleSet from the given roles. Invalid roles are
// ignored.
func RoleSetOf(roles ...Role) RoleSet {
	var s RoleSet
	for _, r := range roles {
		if r.Valid() {
			s |= 1 << r
		}
	}
	return s
}

// Has reports whether r is a member of the set. RoleUnknown is never a
// member.
func (s RoleSet) Has(r Role) bool {
	if !r.Valid() {
		return false
	}
	return s&(1<<r) != 0
}

// Union returns the set containing every member of s and o.
func (s RoleSet) Union(o RoleSet) RoleSet {
	return s | o
}

// Empty reports whether the set has no members.
func (s RoleSet) Empty() bool {
	return s == 0
}

// Roles returns the members of the set in enumeration order.
func (s RoleSet) Roles() []Role {
	out := make([]Role, 0, 4)
	for r := RoleCustomer; r < roleCount; r++ {
		if s.Has(r) {
			out = append(out, r)
		}
	}
	return out
}
