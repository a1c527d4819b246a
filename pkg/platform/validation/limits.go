package validation

import (
	"fmt"

	dErrors "trustscore/pkg/domain-errors"
)

// MaxBodySize bounds every JSON request body.
const MaxBodySize = 64 * 1024

const (
	// MaxCredentialTypes bounds the types in one issuer authorization request.
	MaxCredentialTypes = 32

	// MaxIdentifierLength bounds issuer and subject DIDs accepted over HTTP.
	MaxIdentifierLength = 512

	MaxDisplayNameLength = 200

	// MaxSignatureLength is the hex length of a 64-byte signature with its 0x prefix,
	// with headroom for malformed input to reach the verifier rather than the decoder.
	MaxSignatureLength = 256
)

// CheckSliceCount fails with CodeValidation when count exceeds max.
func CheckSliceCount(fieldName string, count, max int) error {
	if count > max {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("too many %s: max %d allowed", fieldName, max))
	}
	return nil
}

// CheckStringLength fails with CodeValidation when value is longer than max bytes.
func CheckStringLength(fieldName, value string, max int) error {
	if len(value) > max {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%s exceeds max length of %d", fieldName, max))
	}
	return nil
}

// CheckEachStringLength applies CheckStringLength to every element.
func CheckEachStringLength(fieldName string, values []string, max int) error {
	for _, v := range values {
		if err := CheckStringLength(fieldName, v, max); err != nil {
			return err
		}
	}
	return nil
}
