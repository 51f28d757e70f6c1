// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"fmt"
	"time"

	"github.com/MKhiriev/vaultwire/internal/crypto"
	"github.com/MKhiriev/vaultwire/internal/logger"
	"github.com/MKhiriev/vaultwire/internal/store"
	"github.com/MKhiriev/vaultwire/models"
)

// messageService is the end-to-end message encryption engine.
//
// Both parties derive the same message key from their static x25519 pairs:
// the HKDF info string carries the sorted identity ids, so the derivation is
// direction-independent and either side can decrypt either direction of the
// thread. The GCM nonce is derived deterministically from the client-supplied
// nonce string, which keeps an idempotent retransmission byte-identical.
type messageService struct {
	messages   store.MessageRepository
	identities IdentityService
	custody    crypto.KeyCustody
	secret     crypto.MasterSecret
	logger     *logger.Logger
}

// NewMessageService constructs a MessageService.
func NewMessageService(messages store.MessageRepository, identities IdentityService, custody crypto.KeyCustody, secret crypto.MasterSecret, logger *logger.Logger) MessageService {
	return &messageService{
		messages:   messages,
		identities: identities,
		custody:    custody,
		secret:     secret,
		logger:     logger,
	}
}

// Send encrypts and stores an expiring message. Returns false when the
// (sender, messageId) pair was already delivered; the retry leaves no trace.
func (s *messageService) Send(ctx context.Context, request models.SendMessageRequest) (bool, error) {
	log := logger.FromContext(ctx)

	if request.Text == "" || request.MessageID == "" || request.Nonce == "" || request.RecipientID == 0 {
		return false, ErrInvalidDataProvided
	}
	if request.RecipientID == request.SenderID {
		return false, ErrInvalidDataProvided
	}

	now := time.Now()
	expiresAt, err := models.ExpiryFromPreset(request.ExpiryPreset, now)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrInvalidDataProvided, err)
	}

	messageKey, err := s.deriveMessageKey(ctx, request.SenderID, request.RecipientID)
	if err != nil {
		return false, err
	}

	ciphertext, err := sealMessage(messageKey, request.Nonce, []byte(request.Text))
	if err != nil {
		return false, fmt.Errorf("encrypting message: %w", err)
	}

	message := models.Message{
		SenderID:    request.SenderID,
		RecipientID: request.RecipientID,
		MessageID:   request.MessageID,
		Ciphertext:  ciphertext,
		Nonce:       request.Nonce,
		CreatedAt:   now,
		ExpiresAt:   expiresAt,
	}

	inserted, err := s.messages.Save(ctx, message)
	if err != nil {
		return false, fmt.Errorf("saving message: %w", err)
	}

	if !inserted {
		log.Debug().
			Str("func", "*messageService.Send").
			Int64("sender_id", request.SenderID).
			Str("message_id", request.MessageID).
			Msg("duplicate delivery ignored")
	}

	return inserted, nil
}

// FetchThread returns the decrypted conversation between the caller and the
// other identity, unexpired messages only, oldest first. Expiry filtering
// happens at read time; the background sweeper only reclaims storage.
func (s *messageService) FetchThread(ctx context.Context, callerID, otherID int64) ([]models.ThreadEntry, error) {
	log := logger.FromContext(ctx)

	messages, err := s.messages.GetThread(ctx, callerID, otherID, time.Now())
	if err != nil {
		return nil, fmt.Errorf("loading thread: %w", err)
	}

	messageKey, err := s.deriveMessageKey(ctx, callerID, otherID)
	if err != nil {
		return nil, err
	}

	entries := make([]models.ThreadEntry, 0, len(messages))
	for _, message := range messages {
		plaintext, openErr := openMessage(messageKey, message.Nonce, message.Ciphertext)
		if openErr != nil {
			// a key rotation orphans old ciphertexts; skip them instead of
			// making every later message unreadable too
			log.Warn().
				Str("func", "*messageService.FetchThread").
				Str("message_id", message.MessageID).
				Msg("stored message no longer decrypts, skipping")
			continue
		}

		entries = append(entries, models.ThreadEntry{
			SenderID:  message.SenderID,
			Text:      string(plaintext),
			CreatedAt: message.CreatedAt,
		})
	}

	return entries, nil
}

// deriveMessageKey computes the static-static shared key between the two
// identities. The caller's wrapped private key is unwrapped transiently; the
// other side's public key comes straight from the store. Sorting the ids into
// the HKDF info makes the key identical regardless of who derives it.
func (s *messageService) deriveMessageKey(ctx context.Context, callerID, otherID int64) ([]byte, error) {
	callerMaterial, err := s.identities.EnsureIdentityKeys(ctx, callerID)
	if err != nil {
		return nil, err
	}

	otherMaterial, err := s.identities.EnsureIdentityKeys(ctx, otherID)
	if err != nil {
		return nil, err
	}

	callerPrivate, err := s.custody.Unwrap(s.secret, callerMaterial.AgreementPrivateKey)
	if err != nil {
		return nil, fmt.Errorf("unwrapping agreement key: %w", err)
	}

	lowID, highID := callerID, otherID
	if lowID > highID {
		lowID, highID = highID, lowID
	}
	info := []byte(fmt.Sprintf("%s:%d:%d", crypto.MessageKeyContext, lowID, highID))

	key, err := s.custody.DeriveSharedSecret(callerPrivate, otherMaterial.AgreementPublicKey, info)
	if err != nil {
		return nil, fmt.Errorf("deriving message key: %w", err)
	}

	return key, nil
}

// sealMessage AES-256-GCM encrypts the text under the message key with a
// nonce derived from the client nonce string.
func sealMessage(key []byte, clientNonce string, plaintext []byte) ([]byte, error) {
	gcm, nonce, err := messageGCM(key, clientNonce)
	if err != nil {
		return nil, err
	}

	return gcm.Seal(nil, nonce, plaintext, nil), nil
}

// openMessage reverses sealMessage.
func openMessage(key []byte, clientNonce string, ciphertext []byte) ([]byte, error) {
	gcm, nonce, err := messageGCM(key, clientNonce)
	if err != nil {
		return nil, err
	}

	return gcm.Open(nil, nonce, ciphertext, nil)
}

func messageGCM(key []byte, clientNonce string) (cipher.AEAD, []byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, nil, err
	}

	nonce, err := crypto.DeriveMessageNonce(clientNonce)
	if err != nil {
		return nil, nil, err
	}

	return gcm, nonce, nil
}
