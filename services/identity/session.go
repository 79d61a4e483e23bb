package identitysvc

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"

	"github.com/trezcool/schoolpay/core"
	"github.com/trezcool/schoolpay/core/account"
)

var (
	ErrInvalidSession = errors.New("invalid session token")

	nowFunc = time.Now // mockable
)

// Claims represents the session claims issued by the identity provider.
// The subject is the provider's user id.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role,omitempty"`
}

type sessionVerifier struct {
	secret []byte
	issuer string
}

var _ account.SessionVerifier = (*sessionVerifier)(nil)

// NewSessionVerifier validates HS256 session tokens signed with the identity session secret.
func NewSessionVerifier(conf *core.Config) account.SessionVerifier {
	return &sessionVerifier{
		secret: []byte(conf.Identity.SessionSecret),
		issuer: conf.Identity.Issuer,
	}
}

func (v sessionVerifier) Verify(token string) (account.Session, error) {
	if token == "" {
		return account.Session{}, ErrInvalidSession
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(nowFunc),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	tkn, err := jwt.ParseWithClaims(token, new(Claims), func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return account.Session{}, errors.Wrap(ErrInvalidSession, err.Error())
	}
	claims, ok := tkn.Claims.(*Claims)
	if !ok || !tkn.Valid || claims.Subject == "" {
		return account.Session{}, ErrInvalidSession
	}

	return account.Session{
		Subject:   claims.Subject,
		Role:      claims.Role,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// NewSessionToken signs a session token for the given provider user id.
// Used by the admin tool and the tests to act as the identity provider.
func NewSessionToken(conf *core.Config, subject, role string, ttl time.Duration) (string, error) {
	now := nowFunc()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    conf.Identity.Issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role: role,
	}
	ss, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(conf.Identity.SessionSecret))
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}
