package event

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// envelope fixes the field order hashed for an event. Seq and the hashes
// themselves are excluded.
type envelope struct {
	Type        Type            `json:"type"`
	Caller      string          `json:"caller"`
	AssetID     uint32          `json:"asset_id"`
	BlockNumber uint64          `json:"block_number"`
	CallIndex   uint32          `json:"call_index"`
	RequestID   string          `json:"request_id"`
	Timestamp   string          `json:"timestamp"`
	Payload     json.RawMessage `json:"payload"`
}

// Hash computes the content hash of one event as lowercase hex.
func Hash(evt Event) (string, error) {
	payload := evt.PayloadJSON
	if len(payload) == 0 {
		payload = json.RawMessage("null")
	}
	data, err := json.Marshal(envelope{
		Type:        evt.Type,
		Caller:      string(evt.Caller),
		AssetID:     uint32(evt.AssetID),
		BlockNumber: evt.BlockNumber,
		CallIndex:   evt.CallIndex,
		RequestID:   evt.RequestID,
		Timestamp:   evt.Timestamp.UTC().Format(time.RFC3339Nano),
		Payload:     payload,
	})
	if err != nil {
		return "", fmt.Errorf("encode event envelope: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// ChainHash links an event hash to its predecessor's chain hash. The first
// event in the journal uses an empty predecessor.
func ChainHash(eventHash, prevChainHash string) string {
	h := sha256.New()
	h.Write([]byte(prevChainHash))
	h.Write([]byte(eventHash))
	return hex.EncodeToString(h.Sum(nil))
}

// Seal fills the Hash and ChainHash of evt given the previous chain hash.
func Seal(evt Event, prevChainHash string) (Event, error) {
	hash, err := Hash(evt)
	if err != nil {
		return Event{}, err
	}
	evt.Hash = hash
	evt.ChainHash = ChainHash(hash, prevChainHash)
	return evt, nil
}

// VerifyChain checks that events, in journal order starting after
// prevChainHash, carry the hashes their content implies.
func VerifyChain(events []Event, prevChainHash string) error {
	for _, evt := range events {
		sealed, err := Seal(evt, prevChainHash)
		if err != nil {
			return err
		}
		if sealed.Hash != evt.Hash {
			return fmt.Errorf("event %d: content hash mismatch", evt.Seq)
		}
		if sealed.ChainHash != evt.ChainHash {
			return fmt.Errorf("event %d: chain hash mismatch", evt.Seq)
		}
		prevChainHash = evt.ChainHash
	}
	return nil
}
