package middleware

import (
	"context"
	"fmt"
	"hash/fnv"
	"net"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mssola/useragent"
)

// Identity describes who a request is attributed to for admission control.
// Authenticated callers are keyed by their token subject; anonymous callers
// by a composite of source address and a coarse user-agent fingerprint, so
// that distinct clients behind one NAT do not trivially share a bucket.
type Identity struct {
	// Key is the admission-control identity, e.g. "user:42" or "ip:1.2.3.4:ua:7301".
	Key string
	// IP is the resolved client address, recorded in risk-denial audit logs.
	IP string
	// UserAgent is the raw header value, recorded in risk-denial audit logs.
	UserAgent string
	// Authenticated reports whether Key was derived from a verified token.
	Authenticated bool
}

type identityKey struct{}

// GetIdentity retrieves the caller identity from the context.
// Returns a zero Identity when the middleware did not run.
func GetIdentity(ctx context.Context) Identity {
	if id, ok := ctx.Value(identityKey{}).(Identity); ok {
		return id
	}
	return Identity{}
}

// ClientIdentity resolves the caller identity and stores it on the context.
//
// Resolution order mirrors the upstream proxy chain: CF-Connecting-IP, then
// the first X-Forwarded-For hop, then X-Real-IP, then the socket address.
// A valid bearer token (HS256, signed with signingKey) switches the identity
// to the token subject.
func ClientIdentity(signingKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := resolveIdentity(r, signingKey)
			ctx := context.WithValue(r.Context(), identityKey{}, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func resolveIdentity(r *http.Request, signingKey string) Identity {
	ip := clientIP(r)
	ua := r.Header.Get("User-Agent")

	if subject := tokenSubject(r, signingKey); subject != "" {
		return Identity{
			Key:           "user:" + subject,
			IP:            ip,
			UserAgent:     ua,
			Authenticated: true,
		}
	}

	return Identity{
		Key:       fmt.Sprintf("ip:%s:ua:%d", ip, uaFingerprint(ua)),
		IP:        ip,
		UserAgent: ua,
	}
}

// clientIP extracts the originating address, preferring proxy headers.
func clientIP(r *http.Request) string {
	if ip := r.Header.Get("CF-Connecting-IP"); ip != "" {
		return ip
	}
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if first, _, found := strings.Cut(fwd, ","); found || first != "" {
			return strings.TrimSpace(first)
		}
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// uaFingerprint reduces a user-agent to a small stable bucket. Parsing out
// browser name and version keeps the fingerprint stable across minor header
// variations (language ordering, extension noise).
func uaFingerprint(rawUA string) uint32 {
	ua := useragent.New(rawUA)
	name, version := ua.Browser()
	h := fnv.New32a()
	h.Write([]byte(name))
	h.Write([]byte(version))
	h.Write([]byte(ua.OS()))
	return h.Sum32() % 10000
}

// tokenSubject returns the verified subject claim of a bearer token, or ""
// when absent or invalid. Invalid tokens degrade to anonymous identity
// rather than failing the request; admission limits for anonymous callers
// are tighter, so there is no incentive to send a broken token.
func tokenSubject(r *http.Request, signingKey string) string {
	if signingKey == "" {
		return ""
	}
	auth := r.Header.Get("Authorization")
	raw, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok || raw == "" {
		return ""
	}

	claims := jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(signingKey), nil
	})
	if err != nil || !token.Valid {
		return ""
	}
	return claims.Subject
}
