package device

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/netbill/backend/internal/domain/network"
	"github.com/netbill/backend/internal/domain/shared"
)

const (
	// maxRouterOSResponseSize limits the response body size to prevent memory exhaustion
	maxRouterOSResponseSize = 10 * 1024 * 1024 // 10MB max response

	defaultRouterOSTimeout = 15 * time.Second
)

// RouterOSAdapterConfig holds configuration for the RouterOS adapter
type RouterOSAdapterConfig struct {
	// Timeout bounds every device call. A hung device blocks one dispatcher
	// worker for at most this long.
	Timeout time.Duration

	// UseTLS selects https for the REST endpoint
	UseTLS bool
}

// RouterOSAdapter implements DeviceAdapter against the RouterOS v7 REST API.
// All mutating operations are read-before-write so that applying an already
// satisfied change is a silent success.
type RouterOSAdapter struct {
	httpClient *http.Client
	useTLS     bool
	logger     *zap.Logger
}

// NewRouterOSAdapter creates a new RouterOS REST adapter
func NewRouterOSAdapter(config RouterOSAdapterConfig, logger *zap.Logger) *RouterOSAdapter {
	if config.Timeout <= 0 {
		config.Timeout = defaultRouterOSTimeout
	}
	return &RouterOSAdapter{
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		useTLS: config.UseTLS,
		logger: logger,
	}
}

// ChangeIdentityTier reassigns the identity's PPP secret to the named profile.
// Setting the profile it already has is a no-op success.
func (a *RouterOSAdapter) ChangeIdentityTier(ctx context.Context, target network.DeviceTarget, username, tierName string) error {
	secret, err := a.findSecret(ctx, target, username)
	if err != nil {
		return err
	}
	if secret == nil {
		return fmt.Errorf("identity %q not found on device %s: %w", username, target.Host, shared.ErrNotFound)
	}

	if secret.Profile == tierName {
		a.logger.Debug("identity already on requested tier",
			zap.String("username", username),
			zap.String("tier", tierName),
		)
		return nil
	}

	body := map[string]string{"profile": tierName}
	_, err = a.doRequest(ctx, target, http.MethodPatch, "/ppp/secret/"+url.PathEscape(secret.ID), body)
	return err
}

// DisconnectSession force-drops the identity's live sessions.
// Succeeds silently when no session is active.
func (a *RouterOSAdapter) DisconnectSession(ctx context.Context, target network.DeviceTarget, username string) error {
	actives, err := a.listActive(ctx, target, username)
	if err != nil {
		return err
	}
	if len(actives) == 0 {
		return nil
	}

	for _, active := range actives {
		if _, err := a.doRequest(ctx, target, http.MethodDelete, "/ppp/active/"+url.PathEscape(active.ID), nil); err != nil {
			return err
		}
	}
	return nil
}

// DeleteIdentity removes the device-side PPP secret.
// Succeeds silently when the secret is already gone.
func (a *RouterOSAdapter) DeleteIdentity(ctx context.Context, target network.DeviceTarget, username string) error {
	secret, err := a.findSecret(ctx, target, username)
	if err != nil {
		return err
	}
	if secret == nil {
		return nil
	}

	_, err = a.doRequest(ctx, target, http.MethodDelete, "/ppp/secret/"+url.PathEscape(secret.ID), nil)
	return err
}

// ListActiveSessions returns the device's live sessions. Session tier and
// comment come from the matching PPP secret, which carries the free-text
// annotation the reconciliation pipeline parses.
func (a *RouterOSAdapter) ListActiveSessions(ctx context.Context, target network.DeviceTarget) ([]network.Session, error) {
	respBody, err := a.doRequest(ctx, target, http.MethodGet, "/ppp/active", nil)
	if err != nil {
		return nil, err
	}

	var actives []routerosActive
	if err := json.Unmarshal(respBody, &actives); err != nil {
		return nil, fmt.Errorf("routeros: failed to parse active sessions: %w", err)
	}

	secretsBody, err := a.doRequest(ctx, target, http.MethodGet, "/ppp/secret", nil)
	if err != nil {
		return nil, err
	}

	var secrets []routerosSecret
	if err := json.Unmarshal(secretsBody, &secrets); err != nil {
		return nil, fmt.Errorf("routeros: failed to parse secrets: %w", err)
	}

	secretsByName := make(map[string]routerosSecret, len(secrets))
	for _, s := range secrets {
		secretsByName[s.Name] = s
	}

	now := time.Now()
	sessions := make([]network.Session, 0, len(actives))
	for _, active := range actives {
		session := network.Session{
			Username: active.Name,
			Address:  active.Address,
		}
		if secret, ok := secretsByName[active.Name]; ok {
			session.TierName = secret.Profile
			session.Comment = secret.Comment
		}
		if uptime, ok := parseRouterOSUptime(active.Uptime); ok {
			session.StartedAt = now.Add(-uptime)
		}
		sessions = append(sessions, session)
	}

	return sessions, nil
}

// ListTiers returns the device's configured PPP profiles
func (a *RouterOSAdapter) ListTiers(ctx context.Context, target network.DeviceTarget) ([]network.TierInfo, error) {
	respBody, err := a.doRequest(ctx, target, http.MethodGet, "/ppp/profile", nil)
	if err != nil {
		return nil, err
	}

	var profiles []routerosProfile
	if err := json.Unmarshal(respBody, &profiles); err != nil {
		return nil, fmt.Errorf("routeros: failed to parse profiles: %w", err)
	}

	tiers := make([]network.TierInfo, 0, len(profiles))
	for _, p := range profiles {
		tiers = append(tiers, network.TierInfo{
			Name:      p.Name,
			RateLimit: p.RateLimit,
		})
	}
	return tiers, nil
}

// findSecret looks up a PPP secret by username. Returns nil when not found.
func (a *RouterOSAdapter) findSecret(ctx context.Context, target network.DeviceTarget, username string) (*routerosSecret, error) {
	respBody, err := a.doRequest(ctx, target, http.MethodGet, "/ppp/secret?name="+url.QueryEscape(username), nil)
	if err != nil {
		return nil, err
	}

	var secrets []routerosSecret
	if err := json.Unmarshal(respBody, &secrets); err != nil {
		return nil, fmt.Errorf("routeros: failed to parse secrets: %w", err)
	}

	for i := range secrets {
		if secrets[i].Name == username {
			return &secrets[i], nil
		}
	}
	return nil, nil
}

// listActive looks up live sessions for one username
func (a *RouterOSAdapter) listActive(ctx context.Context, target network.DeviceTarget, username string) ([]routerosActive, error) {
	respBody, err := a.doRequest(ctx, target, http.MethodGet, "/ppp/active?name="+url.QueryEscape(username), nil)
	if err != nil {
		return nil, err
	}

	var actives []routerosActive
	if err := json.Unmarshal(respBody, &actives); err != nil {
		return nil, fmt.Errorf("routeros: failed to parse active sessions: %w", err)
	}

	matched := actives[:0]
	for _, active := range actives {
		if active.Name == username {
			matched = append(matched, active)
		}
	}
	return matched, nil
}

// doRequest performs one REST call against the device
func (a *RouterOSAdapter) doRequest(ctx context.Context, target network.DeviceTarget, method, path string, body interface{}) ([]byte, error) {
	scheme := "http"
	if a.useTLS {
		scheme = "https"
	}
	requestURL := fmt.Sprintf("%s://%s:%d/rest%s", scheme, target.Host, target.Port, path)

	var reader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("routeros: failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, requestURL, reader)
	if err != nil {
		return nil, fmt.Errorf("routeros: failed to create request: %w", err)
	}

	req.SetBasicAuth(target.Username, target.Password)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrDeviceUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxRouterOSResponseSize))
	if err != nil {
		return nil, fmt.Errorf("routeros: failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%w: HTTP %d: %s", shared.ErrDeviceUnavailable, resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	return respBody, nil
}

// parseRouterOSUptime parses the device's uptime format (e.g. "1d2h3m4s")
func parseRouterOSUptime(s string) (time.Duration, bool) {
	if s == "" {
		return 0, false
	}

	// Normalize the day and week units time.ParseDuration does not know
	var total time.Duration
	rest := s
	if i := strings.IndexByte(rest, 'w'); i >= 0 {
		var weeks int
		if _, err := fmt.Sscanf(rest[:i+1], "%dw", &weeks); err != nil {
			return 0, false
		}
		total += time.Duration(weeks) * 7 * 24 * time.Hour
		rest = rest[i+1:]
	}
	if i := strings.IndexByte(rest, 'd'); i >= 0 {
		var days int
		if _, err := fmt.Sscanf(rest[:i+1], "%dd", &days); err != nil {
			return 0, false
		}
		total += time.Duration(days) * 24 * time.Hour
		rest = rest[i+1:]
	}

	if rest != "" {
		d, err := time.ParseDuration(rest)
		if err != nil {
			return 0, false
		}
		total += d
	}

	return total, true
}

// Ensure RouterOSAdapter implements DeviceAdapter
var _ network.DeviceAdapter = (*RouterOSAdapter)(nil)
