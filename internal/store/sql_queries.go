package store

const (
	upsertIdentityKeys = `INSERT INTO identity_keys (identity_id, signing_public_key, signing_private_key, agreement_public_key, agreement_private_key, created_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (identity_id) DO UPDATE SET
		signing_public_key    = EXCLUDED.signing_public_key,
		signing_private_key   = EXCLUDED.signing_private_key,
		agreement_public_key  = EXCLUDED.agreement_public_key,
		agreement_private_key = EXCLUDED.agreement_private_key,
		created_at            = EXCLUDED.created_at;`

	insertIdentityKeys = `INSERT INTO identity_keys (identity_id, signing_public_key, signing_private_key, agreement_public_key, agreement_private_key, created_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (identity_id) DO NOTHING;`

	getIdentityKeys = `SELECT identity_id, signing_public_key, signing_private_key, agreement_public_key, agreement_private_key, created_at
	FROM identity_keys
	WHERE identity_id = $1;`

	createCARoot = `INSERT INTO ca_root (id, signing_public_key, signing_private_key, fingerprint, created_at)
	VALUES (1, $1, $2, $3, $4);`

	getCARoot = `SELECT signing_public_key, signing_private_key, fingerprint, created_at
	FROM ca_root
	WHERE id = 1;`

	createCertificate = `INSERT INTO certificates (serial, subject_id, issuer, public_key_fingerprint, signature, issued_at, expires_at, status)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8);`

	getCertificate = `SELECT serial, subject_id, issuer, public_key_fingerprint, signature, issued_at, expires_at, status
	FROM certificates
	WHERE serial = $1;`

	getActiveCertificate = `SELECT serial, subject_id, issuer, public_key_fingerprint, signature, issued_at, expires_at, status
	FROM certificates
	WHERE subject_id = $1 AND status = 'active';`

	supersedeActiveCertificate = `UPDATE certificates
	SET status = 'superseded'
	WHERE subject_id = $1 AND status = 'active';`

	revokeCertificate = `UPDATE certificates
	SET status = 'revoked'
	WHERE serial = $1 AND status <> 'revoked';`

	saveVaultItem = `INSERT INTO vault_items (id, owner_id, title, ciphertext, digest, created_at, expires_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7);`

	saveWrappedKey = `INSERT INTO vault_item_keys (item_id, recipient_id, ephemeral_public_key, wrapped_key)
	VALUES ($1, $2, $3, $4);`

	getVaultItem = `SELECT id, owner_id, title, ciphertext, digest, created_at, expires_at
	FROM vault_items
	WHERE id = $1;`

	getWrappedKey = `SELECT item_id, recipient_id, ephemeral_public_key, wrapped_key
	FROM vault_item_keys
	WHERE item_id = $1 AND recipient_id = $2;`

	saveShareLink = `INSERT INTO share_links (token_hash, item_id, wrapped_key, created_at, expires_at)
	VALUES ($1, $2, $3, $4, $5);`

	getShareLinkByTokenHash = `SELECT token_hash, item_id, wrapped_key, created_at, expires_at
	FROM share_links
	WHERE token_hash = $1;`

	saveMessage = `INSERT INTO messages (sender_id, recipient_id, message_id, ciphertext, nonce, created_at, expires_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (sender_id, message_id) DO NOTHING;`

	saveSignatureBundle = `INSERT INTO signatures (signer_id, digest, signature, certificate_serial, certificate_fingerprint, signed_at)
	VALUES ($1, $2, $3, $4, $5, $6);`
)
