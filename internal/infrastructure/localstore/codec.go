package localstore

import (
	"encoding/json"
	"fmt"

	"github.com/storefront/cartsync/internal/domain/cart"
)

// payloadVersion is bumped when the stored layout changes incompatibly
const payloadVersion = 1

type payload struct {
	Version int             `json:"version"`
	Items   []cart.LineItem `json:"items"`
}

// encode serialises items and enforces quota; quota <= 0 means unlimited
func encode(items []cart.LineItem, quota int) ([]byte, error) {
	if items == nil {
		items = []cart.LineItem{}
	}
	data, err := json.Marshal(payload{Version: payloadVersion, Items: items})
	if err != nil {
		return nil, fmt.Errorf("encode cart: %w", err)
	}
	if quota > 0 && len(data) > quota {
		return nil, fmt.Errorf("%w: %d bytes exceeds quota of %d", cart.ErrStorageFull, len(data), quota)
	}
	return data, nil
}

func decode(data []byte) ([]cart.LineItem, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	if p.Version != payloadVersion {
		return nil, fmt.Errorf("decode cart: unsupported payload version %d", p.Version)
	}
	return p.Items, nil
}
