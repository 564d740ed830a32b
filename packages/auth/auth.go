// Package auth acquires and caches OAuth2 access tokens for outbound
// requests.
package auth

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// GrantType selects the OAuth2 flow used to obtain a token.
type GrantType string

const (
	// ClientCredentials is the client_credentials grant.
	ClientCredentials GrantType = "client_credentials"
	// Password is the resource owner password grant.
	Password GrantType = "password"
	// RefreshToken is the refresh_token grant.
	RefreshToken GrantType = "refresh_token"
)

// Config describes a token endpoint and the credentials presented to it.
type Config struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scopes       []string
	Username     string // password grant only
	Password     string // password grant only
	GrantType    GrantType
}

// Token is an access token as returned by the token endpoint.
type Token struct {
	AccessToken  string    `json:"access_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int       `json:"expires_in"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	Scope        string    `json:"scope,omitempty"`
	ExpiresAt    time.Time `json:"-"`
}

// expirySkew keeps us from presenting a token that the issuer is about to
// reject over clock drift.
const expirySkew = 30 * time.Second

// IsExpired reports whether the token should no longer be presented.
func (t *Token) IsExpired() bool {
	if t.ExpiresAt.IsZero() {
		return false
	}
	return time.Now().Add(expirySkew).After(t.ExpiresAt)
}

// Provider fetches tokens on demand and caches the current one until it
// expires. A provider is safe for concurrent use.
type Provider struct {
	config     Config
	httpClient *http.Client

	mu    sync.Mutex
	token *Token
}

// NewProvider returns a provider for the given token endpoint.
func NewProvider(config Config) *Provider {
	return &Provider{
		config: config,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Token returns a valid access token, fetching a fresh one when the cached
// token is missing or expired.
func (p *Provider) Token() (*Token, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.token != nil && !p.token.IsExpired() {
		return p.token, nil
	}

	token, err := p.fetch()
	if err != nil {
		return nil, err
	}
	p.token = token
	return token, nil
}

// Refresh exchanges a refresh token for a new access token and caches it.
func (p *Provider) Refresh(refreshToken string) (*Token, error) {
	data := url.Values{}
	data.Set("grant_type", "refresh_token")
	data.Set("refresh_token", refreshToken)

	token, err := p.request(data)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.token = token
	p.mu.Unlock()
	return token, nil
}

func (p *Provider) fetch() (*Token, error) {
	data := url.Values{}
	switch p.config.GrantType {
	case Password:
		data.Set("grant_type", "password")
		data.Set("username", p.config.Username)
		data.Set("password", p.config.Password)
	default:
		data.Set("grant_type", "client_credentials")
	}
	if len(p.config.Scopes) > 0 {
		data.Set("scope", strings.Join(p.config.Scopes, " "))
	}

	return p.request(data)
}

func (p *Provider) request(data url.Values) (*Token, error) {
	req, err := http.NewRequest("POST", p.config.TokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if p.config.ClientID != "" && p.config.ClientSecret != "" {
		basic := base64.StdEncoding.EncodeToString([]byte(p.config.ClientID + ":" + p.config.ClientSecret))
		req.Header.Set("Authorization", "Basic "+basic)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp struct {
			Error            string `json:"error"`
			ErrorDescription string `json:"error_description"`
		}
		if json.Unmarshal(body, &errResp) == nil && errResp.Error != "" {
			return nil, fmt.Errorf("token request failed: %s - %s", errResp.Error, errResp.ErrorDescription)
		}
		return nil, fmt.Errorf("token request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var token Token
	if err := json.Unmarshal(body, &token); err != nil {
		return nil, fmt.Errorf("failed to parse token response: %w", err)
	}
	if token.ExpiresIn > 0 {
		token.ExpiresAt = time.Now().Add(time.Duration(token.ExpiresIn) * time.Second)
	}

	return &token, nil
}
