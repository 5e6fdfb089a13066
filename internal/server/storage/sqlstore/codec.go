package sqlstore

import (
	"encoding/json"
	"fmt"

	"github.com/iudanet/checkkeeper/internal/server/storage"
)

func encode(collection string, value any) (string, error) {
	if !storage.KnownCollection(collection) {
		return "", fmt.Errorf("%w: %s", storage.ErrUnknownCollection, collection)
	}

	data, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("failed to marshal %s record: %w", collection, err)
	}

	return string(data), nil
}

func decode(collection, data string, dst any) error {
	if err := json.Unmarshal([]byte(data), dst); err != nil {
		return fmt.Errorf("failed to unmarshal %s record: %w", collection, err)
	}
	return nil
}
