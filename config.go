package memberauth

import "time"

// AuthConfig is a plain struct implementation of Config for callers that
// build their configuration from the environment at process start.
type AuthConfig struct {
	SigningKey           string
	Issuer               string
	Audience             []string
	AccessTokenTTL       time.Duration
	RefreshTokenTTL      time.Duration
	VerifyTokenTTL       time.Duration
	SessionCookieName    string
	SessionTTL           time.Duration
	ExtendedSessionTTL   time.Duration
	StoreTimeout         time.Duration
	RejectedRouteKey     string
	RejectedRouteDefault string
}

var _ Config = (*AuthConfig)(nil)

func (c *AuthConfig) GetSigningKey() string { return c.SigningKey }

func (c *AuthConfig) GetIssuer() string { return c.Issuer }

func (c *AuthConfig) GetAudience() []string { return c.Audience }

func (c *AuthConfig) GetAccessTokenTTL() time.Duration {
	if c.AccessTokenTTL <= 0 {
		return 15 * time.Minute
	}
	return c.AccessTokenTTL
}

func (c *AuthConfig) GetRefreshTokenTTL() time.Duration {
	if c.RefreshTokenTTL <= 0 {
		return 30 * 24 * time.Hour
	}
	return c.RefreshTokenTTL
}

func (c *AuthConfig) GetVerifyTokenTTL() time.Duration {
	if c.VerifyTokenTTL <= 0 {
		return DefaultVerifyTokenTTL
	}
	return c.VerifyTokenTTL
}

func (c *AuthConfig) GetSessionCookieName() string {
	if c.SessionCookieName == "" {
		return DefaultSessionCookieName
	}
	return c.SessionCookieName
}

func (c *AuthConfig) GetSessionTTL() time.Duration {
	if c.SessionTTL <= 0 {
		return DefaultSessionTTL
	}
	return c.SessionTTL
}

func (c *AuthConfig) GetExtendedSessionTTL() time.Duration {
	if c.ExtendedSessionTTL <= 0 {
		return c.GetSessionTTL()
	}
	return c.ExtendedSessionTTL
}

func (c *AuthConfig) GetStoreTimeout() time.Duration {
	if c.StoreTimeout <= 0 {
		return DefaultStoreTimeout
	}
	return c.StoreTimeout
}

func (c *AuthConfig) GetRejectedRouteKey() string {
	if c.RejectedRouteKey == "" {
		return "rejected_route"
	}
	return c.RejectedRouteKey
}

func (c *AuthConfig) GetRejectedRouteDefault() string {
	if c.RejectedRouteDefault == "" {
		return "/"
	}
	return c.RejectedRouteDefault
}
