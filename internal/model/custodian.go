package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// CustodianKind is the kind of location that can hold a bottle.
type CustodianKind string

// Custodian kinds.
const (
	KindWarehouse CustodianKind = "warehouse"
	KindAgent     CustodianKind = "agent"
	KindClient    CustodianKind = "client"
)

// Custodian is the current holder of an asset. ClientID is set only when
// Kind is KindClient.
type Custodian struct {
	Kind     CustodianKind `json:"kind"`
	ClientID string        `json:"client_id,omitempty"`
}

// Warehouse returns the warehouse custodian.
func Warehouse() Custodian { return Custodian{Kind: KindWarehouse} }

// Agent returns the delivery agent custodian.
func Agent() Custodian { return Custodian{Kind: KindAgent} }

// ClientCustodian returns the custodian for the given client.
func ClientCustodian(clientID string) Custodian {
	return Custodian{Kind: KindClient, ClientID: clientID}
}

// Equal reports whether two custodians are structurally equal.
func (c Custodian) Equal(other Custodian) bool {
	return c.Kind == other.Kind && c.ClientID == other.ClientID
}

// IsClient reports whether the custodian is a client.
func (c Custodian) IsClient() bool { return c.Kind == KindClient }

// Validate checks that the custodian is one of the three known shapes.
func (c Custodian) Validate() error {
	switch c.Kind {
	case KindWarehouse, KindAgent:
		if c.ClientID != "" {
			return fmt.Errorf("custodian %s must not carry a client id", c.Kind)
		}
	case KindClient:
		if strings.TrimSpace(c.ClientID) == "" {
			return fmt.Errorf("client custodian requires a client id")
		}
	case "":
		return fmt.Errorf("custodian kind is required")
	default:
		return fmt.Errorf("unknown custodian kind %q", c.Kind)
	}
	return nil
}

// Status returns the lifecycle status implied by the custodian.
func (c Custodian) Status() AssetStatus {
	switch c.Kind {
	case KindWarehouse:
		return StatusInStock
	case KindAgent:
		return StatusInTransit
	case KindClient:
		return StatusInCirculation
	}
	return ""
}

// String returns the compact text form: "warehouse", "agent" or "client:<id>".
func (c Custodian) String() string {
	if c.Kind == KindClient {
		return string(KindClient) + ":" + c.ClientID
	}
	return string(c.Kind)
}

// ParseCustodian parses the compact text form produced by String.
func ParseCustodian(s string) (Custodian, error) {
	kind, id, hasID := strings.Cut(s, ":")
	c := Custodian{Kind: CustodianKind(kind)}
	if hasID {
		c.ClientID = id
	}
	if err := c.Validate(); err != nil {
		return Custodian{}, fmt.Errorf("parsing custodian %q: %w", s, err)
	}
	return c, nil
}

// UnmarshalJSON accepts both the object form and the compact string form.
func (c *Custodian) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parsed, err := ParseCustodian(s)
		if err != nil {
			return err
		}
		*c = parsed
		return nil
	}

	type plain Custodian
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("decoding custodian: %w", err)
	}
	*c = Custodian(p)
	return nil
}
