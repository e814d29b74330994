package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"linkbio/pkg/utils"
)

func TestVerifyWebhookSignature(t *testing.T) {
	body := []byte(`{"event":"charge.success"}`)
	sig := SignWebhookBody("secret", body)

	assert.Len(t, sig, 128)
	assert.NoError(t, VerifyWebhookSignature("secret", body, sig))
	assert.NoError(t, VerifyWebhookSignature("secret", body, strings.ToUpper(sig)))
	assert.ErrorIs(t, VerifyWebhookSignature("secret", body, ""), utils.ErrInvalidSignature)
	assert.ErrorIs(t, VerifyWebhookSignature("secret", append(body, ' '), sig), utils.ErrInvalidSignature)
	assert.ErrorIs(t, VerifyWebhookSignature("", body, sig), utils.ErrWebhookSecretMissing)
}
