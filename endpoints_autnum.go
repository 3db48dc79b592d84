package rdapstorm

import (
	"context"
	"strconv"
	"strings"
)

// rdapBaseForASN resolves the RDAP base for an already-parsed ASN via
// IANA asn.json.
func (c *Client) rdapBaseForASN(ctx context.Context, n uint64) (string, error) {
	return c.resolveBaseFromBootstrapASN(ctx, n)
}

// Autnum returns a typed RDAP Autnum for "AS12345" or "12345". The ASN
// is parsed exactly once here instead of once to validate the input
// and again inside rdapBaseForASN, which used to re-derive the same
// uint64 from the trimmed string.
func (c *Client) Autnum(ctx context.Context, asn string) (*Autnum, error) {
	trimmed := strings.TrimSpace(strings.TrimPrefix(strings.ToUpper(asn), "AS"))
	n, err := strconv.ParseUint(trimmed, 10, 64)
	if err != nil {
		return nil, err
	}
	base, err := c.rdapBaseForASN(ctx, n)
	if err != nil {
		return nil, err
	}
	u := mustJoin(base, "/autnum/", trimmed)
	m, _, err := c.getJSON(ctx, u)
	if err != nil {
		return nil, err
	}
	obj, err := ParseObject(m)
	if err != nil {
		return nil, err
	}
	a, ok := obj.(*Autnum)
	if !ok {
		return nil, ErrUnexpectedObject("autnum")
	}
	return a, nil
}
