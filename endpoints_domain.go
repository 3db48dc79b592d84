package rdapstorm

import "context"

// Domain returns a typed RDAP Domain per RFC 9083. fqdn is lowercased
// before both endpoint resolution and the request URL so a probe's
// own case normalization and a human typing "Example.COM" at the CLI
// land on the same cache entry instead of silently doubling up.
func (c *Client) Domain(ctx context.Context, fqdn string) (*Domain, error) {
	fqdn = lower(fqdn)
	base, err := c.rdapBaseForDomain(ctx, fqdn)
	if err != nil {
		return nil, err
	}
	u := mustJoin(base, "/domain/", fqdn)
	raw, _, err := c.getJSON(ctx, u)
	if err != nil {
		return nil, err
	}
	obj, err := ParseObject(raw)
	if err != nil {
		return nil, err
	}
	d, ok := obj.(*Domain)
	if !ok {
		return nil, ErrUnexpectedObject("domain")
	}
	return d, nil
}
