package checkout

import (
	"strings"

	"github.com/google/uuid"
)

// NewDeliveryKey выдаёт ключ вида XXXX-XXXX-XXXX-XXXX-XXXX
func NewDeliveryKey() string {
	raw := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:20]
	parts := make([]string, 0, 5)
	for i := 0; i < len(raw); i += 4 {
		parts = append(parts, raw[i:i+4])
	}
	return strings.Join(parts, "-")
}
