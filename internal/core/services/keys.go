package services

const (
	DefaultLedgerPrefix = "bookings_"
	SessionUserKey      = "user"
	SessionTokenKey     = "token"
	SchemaVersionKey    = "ledger_schema_version"
)

// PrefixNamespace places each user's ledger at Prefix+userID.
type PrefixNamespace struct {
	Prefix string
}

func NewPrefixNamespace(prefix string) PrefixNamespace {
	if prefix == "" {
		prefix = DefaultLedgerPrefix
	}
	return PrefixNamespace{Prefix: prefix}
}

func (n PrefixNamespace) LedgerKey(userID string) string {
	return n.Prefix + userID
}

func (n PrefixNamespace) LedgerPattern() string {
	return n.Prefix + "*"
}
