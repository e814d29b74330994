package services

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"strings"

	"linkbio/pkg/utils"
)

// SignWebhookBody returns hex(HMAC-SHA512(secret, body)).
func SignWebhookBody(secret string, body []byte) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyWebhookSignature checks signature against the raw request body in constant time.
func VerifyWebhookSignature(secret string, body []byte, signature string) error {
	if secret == "" {
		return utils.ErrWebhookSecretMissing
	}
	signature = strings.ToLower(strings.TrimSpace(signature))
	if signature == "" {
		return utils.ErrInvalidSignature
	}

	expected := SignWebhookBody(secret, body)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return utils.ErrInvalidSignature
	}
	return nil
}
