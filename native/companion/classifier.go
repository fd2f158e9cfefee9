package companion

// AddressClassifier reports whether an address is a deployed contract or a
// human-controlled (externally-owned) account. The two predicates are
// complementary; the claim path uses them to keep contract-held wallets out.
type AddressClassifier interface {
	IsContract(addr [20]byte) bool
	IsExternal(addr [20]byte) bool
}

// StaticClassifier classifies against a fixed registry of known contract
// addresses. Anything not registered is treated as external.
type StaticClassifier struct {
	contracts map[[20]byte]struct{}
}

// NewStaticClassifier builds a classifier from the known contract addresses.
func NewStaticClassifier(contracts ...[20]byte) *StaticClassifier {
	set := make(map[[20]byte]struct{}, len(contracts))
	for _, addr := range contracts {
		set[addr] = struct{}{}
	}
	return &StaticClassifier{contracts: set}
}

// Register adds a contract address to the registry.
func (c *StaticClassifier) Register(addr [20]byte) {
	c.contracts[addr] = struct{}{}
}

// IsContract implements AddressClassifier.
func (c *StaticClassifier) IsContract(addr [20]byte) bool {
	_, ok := c.contracts[addr]
	return ok
}

// IsExternal implements AddressClassifier.
func (c *StaticClassifier) IsExternal(addr [20]byte) bool {
	return !c.IsContract(addr)
}
