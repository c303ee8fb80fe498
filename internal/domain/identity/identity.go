package identity

// UserType distinguishes authenticated account tiers.
type UserType string

const (
	UserTypeGuest   UserType = "guest"
	UserTypeRegular UserType = "regular"
)

// Class groups identities for entitlement lookup.
type Class string

const (
	ClassAnonymous Class = "anonymous"
	ClassGuest     Class = "guest"
	ClassRegular   Class = "regular"
)

// Identity is the resolved caller reference: either an authenticated user or
// an anonymous network address. It is derived per request and never persisted.
type Identity struct {
	UserID         string
	UserType       UserType
	NetworkAddress string
}

// NewUser builds an authenticated identity.
func NewUser(id string, userType UserType) Identity {
	return Identity{UserID: id, UserType: userType}
}

// NewAnonymous builds an identity keyed by network address.
func NewAnonymous(address string) Identity {
	return Identity{NetworkAddress: address}
}

// IsAuthenticated reports whether the identity carries a user id.
func (i Identity) IsAuthenticated() bool {
	return i.UserID != ""
}

// Class returns the entitlement class for this identity. Authenticated
// identities with an unrecognized user type get the most restrictive
// authenticated class.
func (i Identity) Class() Class {
	if !i.IsAuthenticated() {
		return ClassAnonymous
	}
	switch i.UserType {
	case UserTypeRegular:
		return ClassRegular
	default:
		return ClassGuest
	}
}

// QuotaKey returns the key quota accounting is bucketed by.
func (i Identity) QuotaKey() string {
	if i.IsAuthenticated() {
		return "user:" + i.UserID
	}
	return "ip:" + i.NetworkAddress
}
