// Package setup assembles the authentication middleware from configuration.
package setup

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/rhuss/claudenode/pkg/auth"
	"github.com/rhuss/claudenode/pkg/auth/apikey"
	"github.com/rhuss/claudenode/pkg/auth/jwt"
	"github.com/rhuss/claudenode/pkg/auth/noop"
	"github.com/rhuss/claudenode/pkg/config"
)

// Chain builds the authenticator chain for cfg.Type. "none" admits every
// request as the anonymous identity; "apikey" and "jwt" reject requests
// without valid credentials.
func Chain(cfg config.AuthConfig) (*auth.Chain, error) {
	switch strings.ToLower(cfg.Type) {
	case "", "none":
		return &auth.Chain{
			Authenticators: []auth.Authenticator{noop.Authenticator{}},
			Default:        auth.Yes,
		}, nil

	case "apikey":
		entries := make([]apikey.RawKeyEntry, 0, len(cfg.APIKeys))
		for _, k := range cfg.APIKeys {
			id := auth.Identity{Subject: k.Subject, Tier: k.ServiceTier, Tenant: k.TenantID}
			id.Tier = id.RateTier()
			entries = append(entries, apikey.RawKeyEntry{Key: k.Key, Identity: id})
		}
		return &auth.Chain{
			Authenticators: []auth.Authenticator{apikey.New(cfg.Header, entries)},
			Default:        auth.No,
		}, nil

	case "jwt":
		jc := jwt.Config{
			Issuer:      cfg.JWT.Issuer,
			Audience:    cfg.JWT.Audience,
			UserClaim:   cfg.JWT.UserClaim,
			TenantClaim: cfg.JWT.TenantClaim,
			ScopesClaim: cfg.JWT.ScopesClaim,
		}
		if cfg.JWT.Secret != "" {
			jc.Secret = []byte(cfg.JWT.Secret)
		}
		if cfg.JWT.PublicKeyFile != "" {
			key, err := jwt.LoadPublicKey(cfg.JWT.PublicKeyFile)
			if err != nil {
				return nil, err
			}
			jc.PublicKey = key
		}
		authn, err := jwt.New(jc)
		if err != nil {
			return nil, err
		}
		return &auth.Chain{
			Authenticators: []auth.Authenticator{authn},
			Default:        auth.No,
		}, nil

	default:
		return nil, fmt.Errorf("unknown auth type %q", cfg.Type)
	}
}

// Middleware builds the chain, the optional rate limiter and the HTTP
// middleware. Extra bypass paths are added to auth.DefaultBypassEndpoints.
func Middleware(cfg config.AuthConfig, bypass ...string) (func(http.Handler) http.Handler, error) {
	chain, err := Chain(cfg)
	if err != nil {
		return nil, err
	}

	var limiter auth.RateLimiter
	if cfg.RateLimit.DefaultRPM > 0 || len(cfg.RateLimit.Tiers) > 0 {
		limiter = auth.NewInProcessLimiter(cfg.RateLimit.Tiers, cfg.RateLimit.DefaultRPM)
	}

	endpoints := append(append([]string(nil), auth.DefaultBypassEndpoints...), bypass...)
	return auth.Middleware(chain, limiter, endpoints), nil
}
