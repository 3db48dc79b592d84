package rdapstorm

import (
	"context"
	"errors"
	"strings"
)

// Entity queries an entity handle and returns a typed Entity; tldHint
// helps pick the right registry base. Unlike Domain/Nameserver/IP, the
// handle itself is never lowercased: RIR-assigned handles (ARIN's
// "ORG-EXAMPLE1", RIPE's "P12345-RIPE") are case-sensitive identifiers
// by registry convention, so normalizing case here would silently
// 404 a handle a caller copied verbatim from a prior lookup's output.
// Only surrounding whitespace, which can never be part of a real
// handle, is trimmed.
func (c *Client) Entity(ctx context.Context, handle, tldHint string) (*Entity, error) {
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return nil, errors.New("rdapstorm: empty entity handle")
	}

	var base string
	var err error
	if tl := trimDotLower(tldHint); tl != "" {
		base, err = c.rdapBaseForTLD(ctx, tl)
	}
	if base == "" || err != nil {
		base = "https://rdap.org"
	}
	u := mustJoin(base, "/entity/", handle)
	m, _, err := c.getJSON(ctx, u)
	if err != nil {
		return nil, err
	}
	obj, err := ParseObject(m)
	if err != nil {
		return nil, err
	}
	e, ok := obj.(*Entity)
	if !ok {
		return nil, ErrUnexpectedObject("entity")
	}
	return e, nil
}
