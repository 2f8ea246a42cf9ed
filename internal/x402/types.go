package x402

import (
	"encoding/json"
	"fmt"

	"github.com/VDuda/arcade-sol/internal/model"

	"github.com/go-playground/validator/v10"
)

// PaymentInfo is the payment challenge a resource server returns inside a 402
// response: what to pay, to whom, in which asset. Consumed exactly once per
// call attempt, never persisted.
type PaymentInfo struct {
	Recipient string `json:"recipient" validate:"required"`
	Amount    uint64 `json:"amount" validate:"gt=0"`
	Token     string `json:"token" validate:"required"`
	Label     string `json:"label,omitempty"`
	Message   string `json:"message,omitempty"`
}

// IsNative reports whether the challenge asks for the native asset. Anything
// that is not a native sentinel is treated as an SPL mint identifier.
func (p *PaymentInfo) IsNative() bool {
	return p.Token == "SOL" || p.Token == "native"
}

// paymentRequiredBody is the wire shape of a 402 response.
type paymentRequiredBody struct {
	Error       string       `json:"error"`
	PaymentInfo *PaymentInfo `json:"paymentInfo" validate:"required"`
}

var validate = validator.New()

// parseChallenge decodes and validates a 402 body. A body that does not carry
// a well-formed challenge is a protocol violation, never partially trusted.
func parseChallenge(body []byte) (*PaymentInfo, error) {
	var parsed paymentRequiredBody
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrMalformedChallenge, err)
	}
	if err := validate.Struct(&parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrMalformedChallenge, err)
	}
	return parsed.PaymentInfo, nil
}
