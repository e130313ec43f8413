package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

// webhookTolerance bounds how stale a signed timestamp may be before the
// delivery is rejected as a possible replay.
const webhookTolerance = 5 * time.Minute

// verifyWebhookSignature checks the gateway's signature header, of the form
// "t=<unix>,v1=<hex hmac>", against an HMAC-SHA256 of "<t>.<body>" keyed with
// the webhook secret. Any malformed, mismatched or stale signature fails.
func verifyWebhookSignature(secret, header string, body []byte, now time.Time) error {
	if header == "" {
		return ErrInvalidWebhookSignature
	}

	var timestamp string
	var signatures []string
	for _, part := range strings.Split(header, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch key {
		case "t":
			timestamp = value
		case "v1":
			signatures = append(signatures, value)
		}
	}
	if timestamp == "" || len(signatures) == 0 {
		return ErrInvalidWebhookSignature
	}

	unix, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return ErrInvalidWebhookSignature
	}
	if age := now.Sub(time.Unix(unix, 0)); age > webhookTolerance || age < -webhookTolerance {
		return ErrInvalidWebhookSignature
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(body)
	expected := mac.Sum(nil)

	for _, signature := range signatures {
		raw, err := hex.DecodeString(signature)
		if err != nil {
			continue
		}
		if hmac.Equal(raw, expected) {
			return nil
		}
	}

	return ErrInvalidWebhookSignature
}
