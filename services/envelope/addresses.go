package envelope

import (
	"github.com/jhillyerd/enmime"
)

// addrSpecsOf returns the bare local@domain of every address in the named
// header, dropping display names. Best-effort: a header enmime can't
// parse as an address list yields an empty slice.
func addrSpecsOf(msg *enmime.Envelope, header string) []string {
	list, err := msg.AddressList(header)
	if err != nil || len(list) == 0 {
		return nil
	}
	addrs := make([]string, 0, len(list))
	for _, a := range list {
		if a.Address != "" {
			addrs = append(addrs, a.Address)
		}
	}
	return addrs
}

// addrSpecOf returns the first address spec from the named header, or the
// empty string when absent or unparseable.
func addrSpecOf(msg *enmime.Envelope, header string) string {
	addrs := addrSpecsOf(msg, header)
	if len(addrs) == 0 {
		return ""
	}
	return addrs[0]
}
