package dto

import (
	"strconv"
	"strings"
)

// HeaderSignature carries t=<unix>,te=<hex>,li=<hex>.
const HeaderSignature = "Paymongo-Signature"

// SignatureTimestamp returns the t= value of a signature header, or 0 when absent or malformed.
// Only meaningful after the header has been verified.
func SignatureTimestamp(header string) int64 {
	for _, part := range strings.Split(header, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok || key != "t" {
			continue
		}
		ts, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return 0
		}
		return ts
	}
	return 0
}
