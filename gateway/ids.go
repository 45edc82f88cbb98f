package gateway

import (
	"strings"

	"github.com/google/uuid"
)

// ShortUUID generates a client order id in the legacy scheme: a v4 uuid
// with the dashes stripped.
func ShortUUID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// OrderIDV2 generates a client order id in the v2 scheme: a 0x-prefixed
// hex rendering of a v4 uuid, digest-friendly for the matcher.
func OrderIDV2() string {
	id := uuid.New()
	const hexDigits = "0123456789abcdef"
	out := make([]byte, 2, 2+len(id)*2)
	out[0], out[1] = '0', 'x'
	for _, b := range id {
		out = append(out, hexDigits[b>>4], hexDigits[b&0xf])
	}
	return string(out)
}
