package service

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

type digestInput struct {
	Op       string `json:"op"`
	Base     int    `json:"base"`
	Question string `json:"question,omitempty"`
	Payload  any    `json:"payload"`
}

// editDigest fingerprints one versioning request: the operation, the version
// it starts from, the targeted question and the payload.
func editDigest(op string, base int, question string, payload any) (string, error) {
	raw, err := json.Marshal(digestInput{Op: op, Base: base, Question: question, Payload: payload})
	if err != nil {
		return "", fmt.Errorf("digest %s payload: %w", op, err)
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}
