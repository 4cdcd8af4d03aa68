package api

import (
	"math/big"
	"regexp"

	"github.com/google/uuid"
)

// ExecutionIDPrefix starts every execution ID.
const ExecutionIDPrefix = "exec_"

// base62 digits in ASCII order, so fixed-width encodings compare like the
// numbers they encode.
const base62 = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

const idDigits = 24

var executionIDPattern = regexp.MustCompile(`^exec_[a-zA-Z0-9]{24}$`)

// NewExecutionID returns "exec_" followed by a UUIDv7 in fixed-width
// base62. IDs minted in later milliseconds sort after earlier ones.
func NewExecutionID() string {
	u, err := uuid.NewV7()
	if err != nil {
		u = uuid.New()
	}
	return ExecutionIDPrefix + encodeBase62(u[:])
}

// ValidateExecutionID reports whether id is shaped like an execution ID.
func ValidateExecutionID(id string) bool {
	return executionIDPattern.MatchString(id)
}

func encodeBase62(b []byte) string {
	n := new(big.Int).SetBytes(b)
	radix := big.NewInt(int64(len(base62)))
	mod := new(big.Int)

	out := make([]byte, idDigits)
	for i := idDigits - 1; i >= 0; i-- {
		n.DivMod(n, radix, mod)
		out[i] = base62[mod.Int64()]
	}
	return string(out)
}
