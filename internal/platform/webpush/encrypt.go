package webpush

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/ecdh"
	"crypto/sha256"
	"io"

	crerr "github.com/cockroachdb/errors"
	"golang.org/x/crypto/hkdf"
)

// RFC 8291 aes128gcm derivation constants.
const (
	saltLen      = 16
	cekLen       = 16
	nonceLen     = 12
	padPrefixLen = 2

	webPushInfoPrefix = "WebPush: info\x00"
	cekInfo           = "Content-Encoding: aes128gcm\x00"
	nonceInfo         = "Content-Encoding: nonce\x00"
)

type encryptedMessage struct {
	ciphertext   []byte
	salt         []byte
	ephemeralPub []byte
}

// encryptPayload performs the RFC 8291 scheme for one message: a fresh
// ephemeral P-256 key, ECDH against the subscriber point, two HKDF passes,
// then AES-128-GCM over the padded plaintext. The ephemeral key is never
// reused across messages.
func encryptPayload(random io.Reader, subscriberPub, authSecret, plaintext []byte) (encryptedMessage, error) {
	curve := ecdh.P256()

	remote, err := curve.NewPublicKey(subscriberPub)
	if err != nil {
		return encryptedMessage{}, crerr.Wrap(ErrInvalidSubscriberKey, err.Error())
	}

	ephemeral, err := curve.GenerateKey(random)
	if err != nil {
		return encryptedMessage{}, crerr.Wrap(err, "generate ephemeral key")
	}
	ephemeralPub := ephemeral.PublicKey().Bytes()

	sharedSecret, err := ephemeral.ECDH(remote)
	if err != nil {
		return encryptedMessage{}, crerr.Wrap(err, "ecdh shared secret")
	}

	// First HKDF pass: auth secret as salt, both public points bound into
	// the info string (subscriber key first, then ours).
	keyInfo := make([]byte, 0, len(webPushInfoPrefix)+2*p256PointLen)
	keyInfo = append(keyInfo, webPushInfoPrefix...)
	keyInfo = append(keyInfo, subscriberPub...)
	keyInfo = append(keyInfo, ephemeralPub...)

	ikm := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, sharedSecret, authSecret, keyInfo), ikm); err != nil {
		return encryptedMessage{}, crerr.Wrap(err, "derive input key material")
	}

	salt := make([]byte, saltLen)
	if _, err := io.ReadFull(random, salt); err != nil {
		return encryptedMessage{}, crerr.Wrap(err, "generate salt")
	}

	cek := make([]byte, cekLen)
	if _, err := io.ReadFull(hkdf.New(sha256.New, ikm, salt, []byte(cekInfo)), cek); err != nil {
		return encryptedMessage{}, crerr.Wrap(err, "derive content encryption key")
	}
	nonce := make([]byte, nonceLen)
	if _, err := io.ReadFull(hkdf.New(sha256.New, ikm, salt, []byte(nonceInfo)), nonce); err != nil {
		return encryptedMessage{}, crerr.Wrap(err, "derive nonce")
	}

	block, err := aes.NewCipher(cek)
	if err != nil {
		return encryptedMessage{}, crerr.Wrap(err, "init aes")
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return encryptedMessage{}, crerr.Wrap(err, "init gcm")
	}

	// Two zero bytes of padding-length prefix ahead of the payload.
	record := make([]byte, padPrefixLen+len(plaintext))
	copy(record[padPrefixLen:], plaintext)

	return encryptedMessage{
		ciphertext:   gcm.Seal(nil, nonce, record, nil),
		salt:         salt,
		ephemeralPub: ephemeralPub,
	}, nil
}
