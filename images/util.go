package images

import (
	"crypto/md5"
	"fmt"
)

// ComputeChecksum generates a deterministic checksum for raw pixel bytes to
// verify idempotency.
//
// Arguments:
// - data: The bytes to compute the checksum for.
//
// Returns:
// - A hex-encoded MD5 checksum string, or "empty" for no data.
//
// Example:
//
// ```go
//
//	checksum := ComputeChecksum(buf.Bytes())
//	fmt.Printf("buffer checksum: %s\n", checksum)
//
// ```
func ComputeChecksum(data []byte) string {
	if len(data) == 0 {
		return "empty"
	}

	hash := md5.New()
	hash.Write(data)
	return fmt.Sprintf("%x", hash.Sum(nil))
}
