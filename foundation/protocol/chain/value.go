package chain

import (
	"fmt"
	"strconv"

	"github.com/veloxchain/velox/foundation/protocol/codec"
)

// wideNumeric reads a 64-bit field out of a structured value. The codec
// surfaces these as decimal strings; native integers are accepted for
// programmatic callers.
func wideNumeric(value map[string]any, name string) (uint64, error) {
	v, exists := value[name]
	if !exists || v == nil {
		return 0, nil
	}

	switch n := v.(type) {
	case string:
		u, err := strconv.ParseUint(n, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("field %s: %q is not a decimal string: %w", name, n, codec.ErrFieldTypeMismatch)
		}
		return u, nil
	case uint64:
		return n, nil
	}

	return 0, fmt.Errorf("field %s: %T is not a wide numeric: %w", name, v, codec.ErrFieldTypeMismatch)
}
