// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/MKhiriev/vaultwire/internal/crypto"
	"github.com/MKhiriev/vaultwire/internal/store"
	"github.com/MKhiriev/vaultwire/models"
)

// In-memory repositories mirroring the constraint semantics of the real
// store: singleton root insert, one-active-certificate-per-subject, and
// idempotent message insert all behave as compare-and-swap under a mutex, the
// way the database settles them with unique indexes.

type fakeIdentityKeyRepository struct {
	mu   sync.Mutex
	keys map[int64]models.IdentityKeyMaterial

	// missGets makes the next N lookups report not-found even when a record
	// exists, simulating the window where two first touches both miss.
	missGets int
}

func newFakeIdentityKeyRepository() *fakeIdentityKeyRepository {
	return &fakeIdentityKeyRepository{keys: make(map[int64]models.IdentityKeyMaterial)}
}

func (f *fakeIdentityKeyRepository) Save(_ context.Context, material models.IdentityKeyMaterial) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys[material.IdentityID] = material
	return nil
}

func (f *fakeIdentityKeyRepository) Create(_ context.Context, material models.IdentityKeyMaterial) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.keys[material.IdentityID]; exists {
		return false, nil
	}
	f.keys[material.IdentityID] = material
	return true, nil
}

func (f *fakeIdentityKeyRepository) Get(_ context.Context, identityID int64) (models.IdentityKeyMaterial, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.missGets > 0 {
		f.missGets--
		return models.IdentityKeyMaterial{}, store.ErrIdentityKeysNotFound
	}
	material, ok := f.keys[identityID]
	if !ok {
		return models.IdentityKeyMaterial{}, store.ErrIdentityKeysNotFound
	}
	return material, nil
}

type fakeCARootRepository struct {
	mu   sync.Mutex
	root *models.CARoot

	// certs receives the self-signed root certificate, mirroring the shared
	// transaction in the real store. certErr simulates a failed certificate
	// insert; the root row must not survive it.
	certs   *fakeCertificateRepository
	certErr error
}

func (f *fakeCARootRepository) CreateWithCertificate(ctx context.Context, root models.CARoot, cert models.Certificate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.root != nil {
		return store.ErrCARootExists
	}
	if f.certErr != nil {
		return f.certErr
	}
	if f.certs != nil {
		if err := f.certs.Create(ctx, cert); err != nil {
			return err
		}
	}
	f.root = &root
	return nil
}

func (f *fakeCARootRepository) Get(_ context.Context) (models.CARoot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.root == nil {
		return models.CARoot{}, store.ErrCARootNotFound
	}
	return *f.root, nil
}

type fakeCertificateRepository struct {
	mu    sync.Mutex
	certs map[string]models.Certificate
}

func newFakeCertificateRepository() *fakeCertificateRepository {
	return &fakeCertificateRepository{certs: make(map[string]models.Certificate)}
}

func (f *fakeCertificateRepository) activeFor(subjectID int64) (models.Certificate, bool) {
	for _, cert := range f.certs {
		if cert.SubjectID == subjectID && cert.Status == models.CertificateActive {
			return cert, true
		}
	}
	return models.Certificate{}, false
}

func (f *fakeCertificateRepository) Create(_ context.Context, cert models.Certificate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if cert.Status == models.CertificateActive {
		if _, exists := f.activeFor(cert.SubjectID); exists {
			return store.ErrActiveCertificateExists
		}
	}
	f.certs[cert.Serial] = cert
	return nil
}

func (f *fakeCertificateRepository) Get(_ context.Context, serial string) (models.Certificate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cert, ok := f.certs[serial]
	if !ok {
		return models.Certificate{}, store.ErrCertificateNotFound
	}
	return cert, nil
}

func (f *fakeCertificateRepository) GetActive(_ context.Context, subjectID int64) (models.Certificate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cert, ok := f.activeFor(subjectID)
	if !ok {
		return models.Certificate{}, store.ErrActiveCertificateNotFound
	}
	return cert, nil
}

func (f *fakeCertificateRepository) Renew(_ context.Context, subjectID int64, next models.Certificate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	current, ok := f.activeFor(subjectID)
	if !ok {
		return store.ErrActiveCertificateNotFound
	}
	current.Status = models.CertificateSuperseded
	f.certs[current.Serial] = current
	f.certs[next.Serial] = next
	return nil
}

func (f *fakeCertificateRepository) Revoke(_ context.Context, serial string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cert, ok := f.certs[serial]
	if !ok {
		return store.ErrCertificateNotFound
	}
	cert.Status = models.CertificateRevoked
	f.certs[serial] = cert
	return nil
}

type fakeVaultRepository struct {
	mu    sync.Mutex
	items map[string]models.VaultItem
	keys  map[string]map[int64]models.WrappedContentKey
}

func newFakeVaultRepository() *fakeVaultRepository {
	return &fakeVaultRepository{
		items: make(map[string]models.VaultItem),
		keys:  make(map[string]map[int64]models.WrappedContentKey),
	}
}

func (f *fakeVaultRepository) SaveItem(_ context.Context, item models.VaultItem, keys []models.WrappedContentKey) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[item.ID] = item
	byRecipient := make(map[int64]models.WrappedContentKey, len(keys))
	for _, key := range keys {
		byRecipient[key.RecipientID] = key
	}
	f.keys[item.ID] = byRecipient
	return nil
}

func (f *fakeVaultRepository) GetItem(_ context.Context, itemID string) (models.VaultItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.items[itemID]
	if !ok {
		return models.VaultItem{}, store.ErrVaultItemNotFound
	}
	return item, nil
}

func (f *fakeVaultRepository) GetWrappedKey(_ context.Context, itemID string, recipientID int64) (models.WrappedContentKey, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key, ok := f.keys[itemID][recipientID]
	if !ok {
		return models.WrappedContentKey{}, store.ErrWrappedKeyNotFound
	}
	return key, nil
}

type fakeShareLinkRepository struct {
	mu    sync.Mutex
	links map[string]models.ShareLink
}

func newFakeShareLinkRepository() *fakeShareLinkRepository {
	return &fakeShareLinkRepository{links: make(map[string]models.ShareLink)}
}

func (f *fakeShareLinkRepository) Save(_ context.Context, link models.ShareLink) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.links[link.TokenHash] = link
	return nil
}

func (f *fakeShareLinkRepository) GetByTokenHash(_ context.Context, tokenHash string) (models.ShareLink, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	link, ok := f.links[tokenHash]
	if !ok {
		return models.ShareLink{}, store.ErrShareLinkNotFound
	}
	return link, nil
}

func (f *fakeShareLinkRepository) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var deleted int64
	for hash, link := range f.links {
		if link.ExpiresAt.Before(now) {
			delete(f.links, hash)
			deleted++
		}
	}
	return deleted, nil
}

type fakeMessageRepository struct {
	mu       sync.Mutex
	messages []models.Message
	byKey    map[string]struct{}
}

func newFakeMessageRepository() *fakeMessageRepository {
	return &fakeMessageRepository{byKey: make(map[string]struct{})}
}

func messageKey(senderID int64, messageID string) string {
	return fmt.Sprintf("%d|%s", senderID, messageID)
}

func (f *fakeMessageRepository) Save(_ context.Context, message models.Message) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := messageKey(message.SenderID, message.MessageID)
	if _, dup := f.byKey[key]; dup {
		return false, nil
	}
	f.byKey[key] = struct{}{}
	f.messages = append(f.messages, message)
	return true, nil
}

func (f *fakeMessageRepository) GetThread(_ context.Context, firstID, secondID int64, now time.Time) ([]models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var thread []models.Message
	for _, message := range f.messages {
		sameThread := (message.SenderID == firstID && message.RecipientID == secondID) ||
			(message.SenderID == secondID && message.RecipientID == firstID)
		if sameThread && message.ExpiresAt.After(now) {
			thread = append(thread, message)
		}
	}
	return thread, nil
}

func (f *fakeMessageRepository) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var kept []models.Message
	var deleted int64
	for _, message := range f.messages {
		if message.ExpiresAt.Before(now) {
			delete(f.byKey, messageKey(message.SenderID, message.MessageID))
			deleted++
			continue
		}
		kept = append(kept, message)
	}
	f.messages = kept
	return deleted, nil
}

type fakeSignatureRepository struct {
	mu      sync.Mutex
	bundles []models.SignatureBundle
}

func (f *fakeSignatureRepository) Save(_ context.Context, bundle models.SignatureBundle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bundles = append(f.bundles, bundle)
	return nil
}

// testMasterSecret returns a deterministic well-formed master secret.
func testMasterSecret() crypto.MasterSecret {
	secret, err := crypto.ParseMasterSecret("000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f")
	if err != nil {
		panic(err)
	}
	return secret
}
