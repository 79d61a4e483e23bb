package identitysvc

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/trezcool/schoolpay/core"
	"github.com/trezcool/schoolpay/core/account"
)

var ErrCreateUser = errors.New("Failed to create Clerk user")

type (
	clerkProvisioner struct {
		baseURL   string
		secretKey string
		client    *rest.Client
	}

	clerkEmailAddress struct {
		EmailAddress string `json:"email_address"`
	}

	clerkNewUser struct {
		EmailAddresses []clerkEmailAddress    `json:"email_addresses"`
		FirstName      string                 `json:"first_name,omitempty"`
		PublicMetadata map[string]interface{} `json:"public_metadata"`
	}

	clerkUser struct {
		ID string `json:"id"`
	}
)

var _ account.Provisioner = (*clerkProvisioner)(nil)

// NewClerkProvisioner returns nil when no identity secret key is configured.
func NewClerkProvisioner(conf *core.Config) account.Provisioner {
	if !conf.Identity.ProvisioningEnabled() {
		return nil
	}
	return newClerkProvisioner(conf.Identity.AdminAPIURL, conf.Identity.SecretKey, &http.Client{Timeout: 10 * time.Second})
}

func newClerkProvisioner(baseURL, secretKey string, httpClient *http.Client) *clerkProvisioner {
	return &clerkProvisioner{
		baseURL:   baseURL,
		secretKey: secretKey,
		client:    &rest.Client{HTTPClient: httpClient},
	}
}

// CreateUser registers ni on the identity provider and returns the provider's user id.
func (p clerkProvisioner) CreateUser(ctx context.Context, ni account.NewIdentity) (string, error) {
	body, err := json.Marshal(clerkNewUser{
		EmailAddresses: []clerkEmailAddress{{EmailAddress: ni.Email}},
		FirstName:      ni.Name,
		PublicMetadata: map[string]interface{}{"role": ni.Role},
	})
	if err != nil {
		return "", errors.Wrap(err, "encoding user")
	}

	res, err := p.client.SendWithContext(ctx, rest.Request{
		Method:  rest.Post,
		BaseURL: p.baseURL + "/users",
		Headers: map[string]string{
			"Authorization": "Bearer " + p.secretKey,
			"Content-Type":  "application/json",
		},
		Body: body,
	})
	if err != nil {
		return "", errors.Wrap(ErrCreateUser, err.Error())
	}
	if res.StatusCode >= http.StatusBadRequest {
		return "", errors.Wrapf(ErrCreateUser, "status: %d - body: %s", res.StatusCode, res.Body)
	}

	var usr clerkUser
	if err = json.Unmarshal([]byte(res.Body), &usr); err != nil || usr.ID == "" {
		return "", errors.Wrap(ErrCreateUser, "decoding response")
	}
	return usr.ID, nil
}
