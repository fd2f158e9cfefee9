package companion

// StaticReference answers reference-collection membership from a fixed list
// of holder addresses. It stands in for a live connection to the external
// collection; deployments supply the holder set through configuration.
type StaticReference struct {
	holders map[[20]byte]struct{}
}

// NewStaticReference builds the membership set from the known holders.
func NewStaticReference(holders ...[20]byte) *StaticReference {
	set := make(map[[20]byte]struct{}, len(holders))
	for _, addr := range holders {
		set[addr] = struct{}{}
	}
	return &StaticReference{holders: set}
}

// Add registers another holder.
func (r *StaticReference) Add(addr [20]byte) {
	r.holders[addr] = struct{}{}
}

// BalanceOf implements ReferenceCollection: 1 for members, 0 otherwise.
func (r *StaticReference) BalanceOf(addr [20]byte) (uint64, error) {
	if _, ok := r.holders[addr]; ok {
		return 1, nil
	}
	return 0, nil
}
