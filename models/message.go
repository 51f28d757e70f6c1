package models

import "time"

// Message is an expiring direct message between two identities, encrypted
// under their key-agreement shared secret. The pair (SenderID, MessageID) is
// unique: a client retry with the same MessageID never creates a second row.
type Message struct {
	SenderID    int64
	RecipientID int64

	// MessageID is the client-supplied idempotency key.
	MessageID string

	// Ciphertext is the AES-GCM ciphertext of the message text.
	Ciphertext []byte

	// Nonce is the client-supplied nonce string the GCM nonce is derived
	// from. Stored so the message can be re-decrypted on reads.
	Nonce string

	CreatedAt time.Time
	ExpiresAt time.Time
}

// TableName returns the name of the database table
// associated with the Message model.
func (m Message) TableName() string {
	return "messages"
}

// SendMessageRequest carries the inputs of a message send from the
// authenticated-session collaborator.
type SendMessageRequest struct {
	SenderID     int64  `json:"-"`
	RecipientID  int64  `json:"to_user_id"`
	Text         string `json:"text"`
	ExpiryPreset string `json:"expiry_preset"`
	MessageID    string `json:"message_id"`
	Nonce        string `json:"nonce"`
}

// ThreadEntry is one decrypted message of a conversation thread.
type ThreadEntry struct {
	SenderID  int64     `json:"sender_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}
