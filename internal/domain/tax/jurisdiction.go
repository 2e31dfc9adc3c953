package tax

import "strings"

// UnknownStatePolicy decides the split when buyer or seller state is missing
type UnknownStatePolicy string

const (
	// UnknownStateIntra treats an unknown state as a same-state sale (CGST+SGST)
	UnknownStateIntra UnknownStatePolicy = "intra"
	// UnknownStateInter treats an unknown state as an inter-state sale (IGST)
	UnknownStateInter UnknownStatePolicy = "inter"
)

// IsValid checks if the policy is one of the known values
func (p UnknownStatePolicy) IsValid() bool {
	return p == UnknownStateIntra || p == UnknownStateInter
}

// NormalizeState canonicalises a state code ("mh " -> "MH")
func NormalizeState(state string) string {
	return strings.ToUpper(strings.TrimSpace(state))
}

// IsIntraState reports whether CGST+SGST applies between the two states
func IsIntraState(buyerState, sellerState string, policy UnknownStatePolicy) bool {
	buyer := NormalizeState(buyerState)
	seller := NormalizeState(sellerState)
	if buyer == "" || seller == "" {
		return policy != UnknownStateInter
	}
	return buyer == seller
}
