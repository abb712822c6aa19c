package webpush

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"encoding/base64"
	"math/big"
	"strings"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
)

const (
	p256PointLen  = 65
	authSecretLen = 16
)

// ErrInvalidSubscriberKey flags key material that cannot belong to a real
// browser subscription. Callers must not attempt ECDH with it.
var ErrInvalidSubscriberKey = crerr.New("invalid subscriber key material")

// Subscriber is the browser-supplied half of a push channel.
type Subscriber struct {
	Endpoint string
	P256dh   string
	Auth     string
}

// ValidateSubscriber rejects key material that could never decrypt a push
// message, so bad subscriptions are refused at opt-in instead of failing
// every delivery.
func ValidateSubscriber(sub Subscriber) error {
	_, _, err := decodeSubscriberKeys(sub)
	return err
}

func decodeSubscriberKeys(sub Subscriber) (publicPoint, authSecret []byte, err error) {
	publicPoint, err = decodeBase64URL(sub.P256dh)
	if err != nil {
		return nil, nil, crerr.WithDetail(ErrInvalidSubscriberKey, "p256dh is not base64url")
	}
	if len(publicPoint) != p256PointLen || publicPoint[0] != 0x04 {
		return nil, nil, crerr.WithDetailf(ErrInvalidSubscriberKey, "p256dh must be a %d-byte uncompressed P-256 point", p256PointLen)
	}

	authSecret, err = decodeBase64URL(sub.Auth)
	if err != nil {
		return nil, nil, crerr.WithDetail(ErrInvalidSubscriberKey, "auth is not base64url")
	}
	if len(authSecret) != authSecretLen {
		return nil, nil, crerr.WithDetailf(ErrInvalidSubscriberKey, "auth secret must be %d bytes", authSecretLen)
	}

	return publicPoint, authSecret, nil
}

func decodeBase64URL(value string) ([]byte, error) {
	value = strings.TrimRight(strings.TrimSpace(value), "=")
	return base64.RawURLEncoding.DecodeString(value)
}

func encodeBase64URL(raw []byte) string {
	return base64.RawURLEncoding.EncodeToString(raw)
}

type vapidJWK struct {
	Kty string `json:"kty"`
	Crv string `json:"crv"`
	D   string `json:"d"`
	X   string `json:"x"`
	Y   string `json:"y"`
}

// VAPIDKey is the service signing identity: a P-256 private scalar plus
// its public point in uncompressed form.
type VAPIDKey struct {
	private      *ecdsa.PrivateKey
	uncompressed []byte
}

// ParseVAPIDKey loads the signing key from its JWK JSON representation.
func ParseVAPIDKey(jwkJSON string) (*VAPIDKey, error) {
	var jwk vapidJWK
	if err := sonic.Unmarshal([]byte(jwkJSON), &jwk); err != nil {
		return nil, crerr.Wrap(err, "decode vapid jwk")
	}
	if jwk.Kty != "EC" || jwk.Crv != "P-256" {
		return nil, crerr.Newf("vapid jwk must be EC/P-256, got %s/%s", jwk.Kty, jwk.Crv)
	}

	d, err := decodeBase64URL(jwk.D)
	if err != nil {
		return nil, crerr.Wrap(err, "decode vapid jwk d")
	}
	x, err := decodeBase64URL(jwk.X)
	if err != nil {
		return nil, crerr.Wrap(err, "decode vapid jwk x")
	}
	y, err := decodeBase64URL(jwk.Y)
	if err != nil {
		return nil, crerr.Wrap(err, "decode vapid jwk y")
	}

	curve := elliptic.P256()
	pubX := new(big.Int).SetBytes(x)
	pubY := new(big.Int).SetBytes(y)
	if !curve.IsOnCurve(pubX, pubY) {
		return nil, crerr.New("vapid jwk public point is not on P-256")
	}

	private := &ecdsa.PrivateKey{
		PublicKey: ecdsa.PublicKey{Curve: curve, X: pubX, Y: pubY},
		D:         new(big.Int).SetBytes(d),
	}

	uncompressed := make([]byte, p256PointLen)
	uncompressed[0] = 0x04
	pubX.FillBytes(uncompressed[1:33])
	pubY.FillBytes(uncompressed[33:])

	return &VAPIDKey{private: private, uncompressed: uncompressed}, nil
}

// PublicKeyB64 returns the uncompressed public point base64url-encoded,
// the form browsers expect as applicationServerKey.
func (k *VAPIDKey) PublicKeyB64() string {
	return encodeBase64URL(k.uncompressed)
}
