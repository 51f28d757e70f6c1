// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Command smoke drives a running vaultwire server through every engine
// end to end: CA bootstrap, certificate issuance, an encrypted message
// round trip, a vault upload with share link, and a sign/verify cycle.
//
// Identity tokens normally come from the external auth collaborator; the
// smoke client mints its own with the server's sign key, so it needs
// APP_TOKEN_SIGN_KEY and APP_TOKEN_ISSUER matching the server's config.
package main

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"github.com/MKhiriev/vaultwire/internal/crypto"
	"github.com/MKhiriev/vaultwire/internal/utils"
	"github.com/MKhiriev/vaultwire/models"
)

const (
	defaultBaseURL = "http://localhost:8080"
	aliceID        = int64(101)
	bobID          = int64(102)
	outsiderID     = int64(103)
)

type client struct {
	http *resty.Client
	name string
}

func newClient(baseURL, token, name string) *client {
	cli := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/") + "/api/v1").
		SetTimeout(15 * time.Second)
	if token != "" {
		cli.SetAuthToken(token)
	}
	return &client{http: cli, name: name}
}

func (c *client) post(path string, body, result any, allowedStatuses ...int) error {
	req := c.http.R()
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}
	if result != nil {
		req.SetResult(result)
	}
	resp, err := req.Post(path)
	return c.check(resp, err, "POST", path, allowedStatuses)
}

func (c *client) get(path string, result any, allowedStatuses ...int) error {
	req := c.http.R()
	if result != nil {
		req.SetResult(result)
	}
	resp, err := req.Get(path)
	return c.check(resp, err, "GET", path, allowedStatuses)
}

func (c *client) check(resp *resty.Response, err error, method, path string, allowedStatuses []int) error {
	if err != nil {
		return fmt.Errorf("[%s] %s %s: %w", c.name, method, path, err)
	}
	if len(allowedStatuses) == 0 {
		if resp.IsError() {
			return fmt.Errorf("[%s] %s %s -> %d %s", c.name, method, path, resp.StatusCode(), resp.String())
		}
		return nil
	}
	for _, status := range allowedStatuses {
		if resp.StatusCode() == status {
			return nil
		}
	}
	return fmt.Errorf("[%s] %s %s -> %d %s", c.name, method, path, resp.StatusCode(), resp.String())
}

func ok(cond bool, message string) {
	if !cond {
		fail(fmt.Errorf("assertion failed: %s", message))
	}
	fmt.Printf("ok: %s\n", message)
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "smoke test failed: %v\n", err)
	os.Exit(1)
}

func mustToken(issuer string, identityID int64, role, signKey string) string {
	token, err := utils.GenerateJWTToken(issuer, identityID, role, time.Hour, signKey)
	if err != nil {
		fail(err)
	}
	return token.SignedString
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	baseURL := env("API_URL", defaultBaseURL)
	signKey := env("APP_TOKEN_SIGN_KEY", "")
	issuer := env("APP_TOKEN_ISSUER", "")
	if signKey == "" || issuer == "" {
		fail(fmt.Errorf("APP_TOKEN_SIGN_KEY and APP_TOKEN_ISSUER must be set"))
	}

	fmt.Printf("vaultwire smoke test against %s\n\n", baseURL)

	anon := newClient(baseURL, "", "anon")
	admin := newClient(baseURL, mustToken(issuer, 1, models.RoleAdmin, signKey), "admin")
	alice := newClient(baseURL, mustToken(issuer, aliceID, models.RoleUser, signKey), "alice")
	bob := newClient(baseURL, mustToken(issuer, bobID, models.RoleUser, signKey), "bob")
	outsider := newClient(baseURL, mustToken(issuer, outsiderID, models.RoleUser, signKey), "outsider")

	// health
	var health map[string]string
	if err := anon.get("/health", &health); err != nil {
		fail(err)
	}
	ok(health["status"] == "ok", "health endpoint answers")

	// CA init is idempotent across smoke runs: 409 means already done
	if err := admin.post("/pki/admin/init-ca", nil, nil, http.StatusCreated, http.StatusConflict); err != nil {
		fail(err)
	}
	ok(true, "CA initialized (or already present)")

	// issuance refuses subjects without key material, so both users
	// provision their keys first
	if err := alice.post("/pki/me/rotate-keys", nil, nil); err != nil {
		fail(err)
	}
	if err := bob.post("/pki/me/rotate-keys", nil, nil); err != nil {
		fail(err)
	}
	ok(true, "both users provisioned key material")

	// certificates for both users; 409 when a previous run issued them
	var aliceCert map[string]any
	if err := admin.post(fmt.Sprintf("/pki/admin/issue/%d", aliceID), nil, &aliceCert, http.StatusCreated, http.StatusConflict); err != nil {
		fail(err)
	}
	if err := admin.post(fmt.Sprintf("/pki/admin/issue/%d", bobID), nil, nil, http.StatusCreated, http.StatusConflict); err != nil {
		fail(err)
	}
	ok(true, "certificates issued for both users")

	// disappearing message round trip
	messageText := fmt.Sprintf("hello bob %s", uuid.NewString())
	send := models.SendMessageRequest{
		RecipientID:  bobID,
		Text:         messageText,
		ExpiryPreset: "1h",
		MessageID:    uuid.NewString(),
		Nonce:        uuid.NewString(),
	}
	if err := alice.post("/messages/send", send, nil); err != nil {
		fail(err)
	}

	// retransmission with the same message id must not duplicate
	var retry map[string]bool
	if err := alice.post("/messages/send", send, &retry, http.StatusOK); err != nil {
		fail(err)
	}
	ok(!retry["created"], "message retransmission is a no-op")

	var thread []models.ThreadEntry
	if err := bob.get(fmt.Sprintf("/messages/thread/%d", aliceID), &thread); err != nil {
		fail(err)
	}
	found := false
	for _, entry := range thread {
		if entry.Text == messageText {
			found = true
		}
	}
	ok(found, "encrypted message decrypted in thread")

	// vault upload + decrypt + share link
	plainContent := fmt.Sprintf("VaultWire smoke content %d", time.Now().UnixNano())
	var upload models.UploadResult
	err := alice.post("/vault/upload", map[string]any{
		"title":         "smoke-secret.txt",
		"content":       plainContent,
		"recipient_ids": []int64{bobID},
	}, &upload)
	if err != nil {
		fail(err)
	}
	ok(upload.ID != "" && upload.Digest != "", "vault upload returned id and digest")

	var decrypted map[string]string
	if err := bob.post(fmt.Sprintf("/vault/%s/decrypt", upload.ID), nil, &decrypted); err != nil {
		fail(err)
	}
	ok(decrypted["content"] == plainContent, "recipient decrypts original content")

	if err := outsider.post(fmt.Sprintf("/vault/%s/decrypt", upload.ID), nil, nil, http.StatusForbidden); err != nil {
		fail(err)
	}
	ok(true, "outsider is denied vault access")

	var link map[string]string
	if err := alice.post(fmt.Sprintf("/vault/%s/share-link", upload.ID), map[string]string{"expiry_preset": "10m"}, &link); err != nil {
		fail(err)
	}
	ok(link["token"] != "", "share link created")

	// the server hands back ciphertext plus the token-wrapped key; the
	// bearer decrypts on their own machine
	var shared models.SharePayload
	if err := anon.get("/vault/share/"+link["token"], &shared); err != nil {
		fail(err)
	}
	wrappedKey, err := models.DecodeWrappedBlob(shared.WrappedKey)
	if err != nil {
		fail(err)
	}
	bearerKey, err := crypto.DeriveBearerKey(link["token"])
	if err != nil {
		fail(err)
	}
	contentKey, err := crypto.NewKeyCustody().UnwrapWith(bearerKey, wrappedKey)
	if err != nil {
		fail(err)
	}
	sharedPlain, err := crypto.OpenContent(contentKey, shared.Ciphertext)
	if err != nil {
		fail(err)
	}
	ok(string(sharedPlain) == plainContent, "bearer decrypts shared content locally")
	ok(crypto.Digest(sharedPlain) == shared.Digest, "shared content digest matches")

	// sign + verify
	var bundle models.SignatureBundle
	if err := alice.post("/signatures/sign", map[string]string{"content": plainContent}, &bundle); err != nil {
		fail(err)
	}
	ok(bundle.Signature != "" && bundle.Digest != "", "signature bundle generated")

	var verify models.VerifyResult
	err = bob.post("/signatures/verify-bundle", map[string]any{
		"content": plainContent,
		"bundle":  bundle,
	}, &verify)
	if err != nil {
		fail(err)
	}
	ok(verify.OK, "signature verifies for untampered content")

	err = bob.post("/signatures/verify-bundle", map[string]any{
		"content": plainContent + " tampered",
		"bundle":  bundle,
	}, &verify)
	if err != nil {
		fail(err)
	}
	ok(!verify.OK && verify.Reason == models.ReasonHashMismatch, "tampered content is rejected")

	// key rotation invalidates the old binding, renewal restores it
	if err := alice.post("/pki/me/rotate-keys", nil, nil); err != nil {
		fail(err)
	}
	var renewed map[string]any
	if err := admin.post(fmt.Sprintf("/pki/admin/renew/%d", aliceID), nil, &renewed); err != nil {
		fail(err)
	}
	ok(renewed["serial"] != "", "certificate renewed after key rotation")

	var state map[string]string
	if err := admin.get("/pki/admin/validate/"+renewed["serial"].(string), &state); err != nil {
		fail(err)
	}
	ok(state["state"] == string(models.StateActive), "renewed certificate validates as active")

	fmt.Println("\nsmoke test completed successfully")
}
