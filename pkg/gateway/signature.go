package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// VerifiedPayment is the proof that a client-reported payment result
// carried a valid gateway signature. It can only be obtained through
// Signer.Verify, so a credit path that requires one cannot be fed
// unverified input.
type VerifiedPayment struct {
	orderID   string
	paymentID string
}

func (v VerifiedPayment) OrderID() string   { return v.orderID }
func (v VerifiedPayment) PaymentID() string { return v.paymentID }

// Signer computes and checks the HMAC-SHA256 signature the gateway
// attaches to completed payments. The secret is shared with the
// gateway only.
type Signer struct {
	secret []byte
}

func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret)}
}

func (s *Signer) Sign(orderID, paymentID string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify compares the supplied signature against the expected one in
// constant time.
func (s *Signer) Verify(orderID, paymentID, signature string) (VerifiedPayment, error) {
	expected := s.Sign(orderID, paymentID)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return VerifiedPayment{}, ErrInvalidSignature
	}

	return VerifiedPayment{orderID: orderID, paymentID: paymentID}, nil
}
