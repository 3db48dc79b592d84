package rdapstorm

import (
	"encoding/json"
	"errors"
)

// Object is a union interface implemented by all object classes.
type Object interface {
	GetObjectClassName() string
}

// ParseObject inspects objectClassName and returns a typed object per
// RFC 9083. Some registries observed in the wild omit objectClassName
// entirely on otherwise well-formed responses; when that happens,
// inferObjectClassName guesses from the shape of the remaining fields
// rather than failing the whole lookup over one missing member.
func ParseObject(m map[string]any) (Object, error) {
	if m == nil {
		return nil, errors.New("nil RDAP object")
	}
	ocn, _ := m["objectClassName"].(string)
	if ocn == "" {
		if ocn = inferObjectClassName(m); ocn != "" {
			m["objectClassName"] = ocn
		}
	}
	switch lower(ocn) {
	case "entity":
		var v Entity
		if err := decodeInto(m, &v); err != nil {
			return nil, err
		}
		if !v.Validate() {
			return nil, errors.New("invalid entity objectClassName")
		}
		return &v, nil
	case "domain":
		var v Domain
		if err := decodeInto(m, &v); err != nil {
			return nil, err
		}
		if !v.Validate() {
			return nil, errors.New("invalid domain objectClassName")
		}
		return &v, nil
	case "nameserver":
		var v Nameserver
		if err := decodeInto(m, &v); err != nil {
			return nil, err
		}
		if !v.Validate() {
			return nil, errors.New("invalid nameserver objectClassName")
		}
		return &v, nil
	case "ip network":
		var v IPNetwork
		if err := decodeInto(m, &v); err != nil {
			return nil, err
		}
		if !v.Validate() {
			return nil, errors.New("invalid ip network objectClassName")
		}
		return &v, nil
	case "autnum":
		var v Autnum
		if err := decodeInto(m, &v); err != nil {
			return nil, err
		}
		if !v.Validate() {
			return nil, errors.New("invalid autnum objectClassName")
		}
		return &v, nil
	default:
		return nil, errors.New("unknown RDAP objectClassName: " + ocn)
	}
}

// inferObjectClassName guesses an RFC 9083 objectClassName from the shape
// of an object that omitted it. Order matters: check the more specific
// fields (startAutnum, startAddress) before the ones domain and
// nameserver both carry (ldhName).
func inferObjectClassName(m map[string]any) string {
	switch {
	case m["startAutnum"] != nil || m["endAutnum"] != nil:
		return "autnum"
	case m["startAddress"] != nil || m["endAddress"] != nil || m["ipVersion"] != nil:
		return "ip network"
	case m["nameservers"] != nil:
		return "domain"
	case m["ldhName"] != nil:
		return "nameserver"
	case m["vcardArray"] != nil || m["roles"] != nil:
		return "entity"
	default:
		return ""
	}
}

func decodeInto(m map[string]any, v any) error {
	b, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}
