package webpush

import (
	"crypto/rand"
	"fmt"
	"io"
	"time"

	crerr "github.com/cockroachdb/errors"
)

// Request is a fully prepared push delivery: the endpoint URL, the headers
// the push service requires, and the encrypted body.
type Request struct {
	URL     string
	Headers map[string]string
	Body    []byte
}

type EncoderConfig struct {
	Key     *VAPIDKey
	Subject string
	TTL     time.Duration
}

// Encoder turns plaintext payload bytes into ready-to-send push requests.
type Encoder struct {
	key     *VAPIDKey
	subject string
	ttl     time.Duration
	random  io.Reader
	now     func() time.Time
}

func NewEncoder(cfg EncoderConfig) (*Encoder, error) {
	if cfg.Key == nil {
		return nil, crerr.New("webpush: vapid key is required")
	}
	if cfg.Subject == "" {
		return nil, crerr.New("webpush: vapid subject is required")
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Encoder{
		key:     cfg.Key,
		subject: cfg.Subject,
		ttl:     ttl,
		random:  rand.Reader,
		now:     time.Now,
	}, nil
}

// Encode encrypts payload for one subscriber and builds the delivery
// request. Key-material errors wrap ErrInvalidSubscriberKey; everything
// else is a one-off crypto failure for this send only.
func (e *Encoder) Encode(sub Subscriber, payload []byte) (Request, error) {
	publicPoint, authSecret, err := decodeSubscriberKeys(sub)
	if err != nil {
		return Request{}, err
	}

	msg, err := encryptPayload(e.random, publicPoint, authSecret, payload)
	if err != nil {
		return Request{}, err
	}

	token, err := buildVAPIDToken(e.key, sub.Endpoint, e.subject, e.now())
	if err != nil {
		return Request{}, err
	}

	return Request{
		URL: sub.Endpoint,
		Headers: map[string]string{
			"TTL":              fmt.Sprintf("%d", int(e.ttl.Seconds())),
			"Content-Encoding": "aes128gcm",
			"Encryption":       "salt=" + encodeBase64URL(msg.salt),
			"Crypto-Key":       "dh=" + encodeBase64URL(msg.ephemeralPub),
			"Authorization":    "vapid t=" + token + ", k=" + e.key.PublicKeyB64(),
		},
		Body: msg.ciphertext,
	}, nil
}
