package webpush

import (
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/sha256"
	"net/url"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
)

const vapidTokenLifetime = 12 * time.Hour

// buildVAPIDToken signs an ES256 JWT authorizing one push service origin.
// The audience is the scheme and host of the endpoint only, never its path.
func buildVAPIDToken(key *VAPIDKey, endpoint, subject string, now time.Time) (string, error) {
	audience, err := endpointAudience(endpoint)
	if err != nil {
		return "", err
	}

	header, err := sonic.Marshal(map[string]string{"typ": "JWT", "alg": "ES256"})
	if err != nil {
		return "", crerr.Wrap(err, "marshal vapid header")
	}
	claims, err := sonic.Marshal(map[string]any{
		"aud": audience,
		"exp": now.Add(vapidTokenLifetime).Unix(),
		"sub": subject,
	})
	if err != nil {
		return "", crerr.Wrap(err, "marshal vapid claims")
	}

	signingInput := encodeBase64URL(header) + "." + encodeBase64URL(claims)
	digest := sha256.Sum256([]byte(signingInput))

	der, err := ecdsa.SignASN1(rand.Reader, key.private, digest[:])
	if err != nil {
		return "", crerr.Wrap(err, "sign vapid token")
	}
	jose, err := derSignatureToJOSE(der, 32)
	if err != nil {
		return "", err
	}

	return signingInput + "." + encodeBase64URL(jose), nil
}

func endpointAudience(endpoint string) (string, error) {
	parsed, err := url.Parse(endpoint)
	if err != nil {
		return "", crerr.Wrap(err, "parse push endpoint")
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", crerr.Newf("push endpoint %q has no origin", endpoint)
	}
	return parsed.Scheme + "://" + parsed.Host, nil
}
