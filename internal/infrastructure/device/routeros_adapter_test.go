package device

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/netbill/backend/internal/domain/network"
	"github.com/netbill/backend/internal/domain/shared"
)

// fakeRouterOS serves a minimal slice of the RouterOS v7 REST API
type fakeRouterOS struct {
	mu       sync.Mutex
	secrets  []routerosSecret
	actives  []routerosActive
	profiles []routerosProfile
	requests []string
	failWith int
}

func (f *fakeRouterOS) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/rest/ppp/secret", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		if f.failWith != 0 {
			http.Error(w, "failure", f.failWith)
			return
		}
		f.mu.Lock()
		defer f.mu.Unlock()

		if name := r.URL.Query().Get("name"); name != "" {
			var matched []routerosSecret
			for _, s := range f.secrets {
				if s.Name == name {
					matched = append(matched, s)
				}
			}
			writeJSON(w, matched)
			return
		}
		writeJSON(w, f.secrets)
	})

	mux.HandleFunc("/rest/ppp/secret/", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		f.mu.Lock()
		defer f.mu.Unlock()

		id := r.URL.Path[len("/rest/ppp/secret/"):]
		for i, s := range f.secrets {
			if s.ID != id {
				continue
			}
			switch r.Method {
			case http.MethodPatch:
				var body map[string]string
				if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
					http.Error(w, err.Error(), http.StatusBadRequest)
					return
				}
				if profile, ok := body["profile"]; ok {
					f.secrets[i].Profile = profile
				}
				writeJSON(w, f.secrets[i])
			case http.MethodDelete:
				f.secrets = append(f.secrets[:i], f.secrets[i+1:]...)
				w.WriteHeader(http.StatusNoContent)
			}
			return
		}
		http.Error(w, "no such item", http.StatusNotFound)
	})

	mux.HandleFunc("/rest/ppp/active", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		f.mu.Lock()
		defer f.mu.Unlock()

		if name := r.URL.Query().Get("name"); name != "" {
			var matched []routerosActive
			for _, a := range f.actives {
				if a.Name == name {
					matched = append(matched, a)
				}
			}
			writeJSON(w, matched)
			return
		}
		writeJSON(w, f.actives)
	})

	mux.HandleFunc("/rest/ppp/active/", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		f.mu.Lock()
		defer f.mu.Unlock()

		id := r.URL.Path[len("/rest/ppp/active/"):]
		for i, a := range f.actives {
			if a.ID == id && r.Method == http.MethodDelete {
				f.actives = append(f.actives[:i], f.actives[i+1:]...)
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}
		http.Error(w, "no such item", http.StatusNotFound)
	})

	mux.HandleFunc("/rest/ppp/profile", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		f.mu.Lock()
		defer f.mu.Unlock()
		writeJSON(w, f.profiles)
	})

	return mux
}

func (f *fakeRouterOS) record(r *http.Request) {
	f.mu.Lock()
	f.requests = append(f.requests, r.Method+" "+r.URL.Path)
	f.mu.Unlock()
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if v == nil {
		w.Write([]byte("[]"))
		return
	}
	json.NewEncoder(w).Encode(v)
}

func newAdapterFixture(t *testing.T, router *fakeRouterOS) (*RouterOSAdapter, network.DeviceTarget) {
	t.Helper()

	server := httptest.NewServer(router.handler())
	t.Cleanup(server.Close)

	parsed, err := url.Parse(server.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(parsed.Port())
	require.NoError(t, err)

	adapter := NewRouterOSAdapter(RouterOSAdapterConfig{Timeout: 5 * time.Second}, zap.NewNop())
	target := network.DeviceTarget{
		Host:     parsed.Hostname(),
		Port:     port,
		Username: "api",
		Password: "secret",
	}
	return adapter, target
}

func TestRouterOSAdapter_ChangeIdentityTier(t *testing.T) {
	router := &fakeRouterOS{
		secrets: []routerosSecret{
			{ID: "*1", Name: "felipe.achy", Profile: "PLANO-50M"},
		},
	}
	adapter, target := newAdapterFixture(t, router)

	require.NoError(t, adapter.ChangeIdentityTier(context.Background(), target, "felipe.achy", "BLOQUEADO"))
	assert.Equal(t, "BLOQUEADO", router.secrets[0].Profile)
}

func TestRouterOSAdapter_ChangeIdentityTierAlreadyApplied(t *testing.T) {
	router := &fakeRouterOS{
		secrets: []routerosSecret{
			{ID: "*1", Name: "felipe.achy", Profile: "BLOQUEADO"},
		},
	}
	adapter, target := newAdapterFixture(t, router)

	require.NoError(t, adapter.ChangeIdentityTier(context.Background(), target, "felipe.achy", "BLOQUEADO"))

	// Read only, no PATCH issued
	for _, req := range router.requests {
		assert.NotContains(t, req, "PATCH")
	}
}

func TestRouterOSAdapter_ChangeIdentityTierMissingSecret(t *testing.T) {
	router := &fakeRouterOS{}
	adapter, target := newAdapterFixture(t, router)

	err := adapter.ChangeIdentityTier(context.Background(), target, "ghost", "BLOQUEADO")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestRouterOSAdapter_DisconnectSession(t *testing.T) {
	router := &fakeRouterOS{
		actives: []routerosActive{
			{ID: "*A", Name: "felipe.achy", Address: "100.64.0.10"},
			{ID: "*B", Name: "someone.else", Address: "100.64.0.11"},
		},
	}
	adapter, target := newAdapterFixture(t, router)

	require.NoError(t, adapter.DisconnectSession(context.Background(), target, "felipe.achy"))

	require.Len(t, router.actives, 1)
	assert.Equal(t, "someone.else", router.actives[0].Name)
}

func TestRouterOSAdapter_DisconnectSessionNoneActive(t *testing.T) {
	router := &fakeRouterOS{}
	adapter, target := newAdapterFixture(t, router)

	assert.NoError(t, adapter.DisconnectSession(context.Background(), target, "felipe.achy"))
}

func TestRouterOSAdapter_DeleteIdentity(t *testing.T) {
	router := &fakeRouterOS{
		secrets: []routerosSecret{
			{ID: "*1", Name: "felipe.achy", Profile: "PLANO-50M"},
		},
	}
	adapter, target := newAdapterFixture(t, router)

	require.NoError(t, adapter.DeleteIdentity(context.Background(), target, "felipe.achy"))
	assert.Empty(t, router.secrets)

	// Deleting again is a silent success
	assert.NoError(t, adapter.DeleteIdentity(context.Background(), target, "felipe.achy"))
}

func TestRouterOSAdapter_ListActiveSessions(t *testing.T) {
	router := &fakeRouterOS{
		secrets: []routerosSecret{
			{ID: "*1", Name: "felipe.achy", Profile: "PLANO-50M", Comment: "felipe achy/ nalmar alcantara n255"},
		},
		actives: []routerosActive{
			{ID: "*A", Name: "felipe.achy", Address: "100.64.0.10", Uptime: "1h30m"},
			{ID: "*B", Name: "orphan.session", Address: "100.64.0.11"},
		},
	}
	adapter, target := newAdapterFixture(t, router)

	sessions, err := adapter.ListActiveSessions(context.Background(), target)
	require.NoError(t, err)
	require.Len(t, sessions, 2)

	assert.Equal(t, "felipe.achy", sessions[0].Username)
	assert.Equal(t, "100.64.0.10", sessions[0].Address)
	assert.Equal(t, "PLANO-50M", sessions[0].TierName)
	assert.Equal(t, "felipe achy/ nalmar alcantara n255", sessions[0].Comment)
	assert.False(t, sessions[0].StartedAt.IsZero())

	// No matching secret: session still listed, without tier or comment
	assert.Equal(t, "orphan.session", sessions[1].Username)
	assert.Empty(t, sessions[1].TierName)
}

func TestRouterOSAdapter_ListTiers(t *testing.T) {
	router := &fakeRouterOS{
		profiles: []routerosProfile{
			{ID: "*1", Name: "PLANO-50M", RateLimit: "50M/50M"},
			{ID: "*2", Name: "BLOQUEADO", RateLimit: "64k/64k"},
		},
	}
	adapter, target := newAdapterFixture(t, router)

	tiers, err := adapter.ListTiers(context.Background(), target)
	require.NoError(t, err)
	require.Len(t, tiers, 2)
	assert.Equal(t, network.TierInfo{Name: "PLANO-50M", RateLimit: "50M/50M"}, tiers[0])
}

func TestRouterOSAdapter_DeviceErrorsMapToUnavailable(t *testing.T) {
	router := &fakeRouterOS{failWith: http.StatusInternalServerError}
	adapter, target := newAdapterFixture(t, router)

	err := adapter.ChangeIdentityTier(context.Background(), target, "felipe.achy", "BLOQUEADO")
	assert.ErrorIs(t, err, shared.ErrDeviceUnavailable)

	// Unreachable host
	unreachable := network.DeviceTarget{Host: "127.0.0.1", Port: 1, Username: "api", Password: "secret"}
	_, err = adapter.ListTiers(context.Background(), unreachable)
	assert.ErrorIs(t, err, shared.ErrDeviceUnavailable)
}

func TestParseRouterOSUptime(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
		ok   bool
	}{
		{"4s", 4 * time.Second, true},
		{"2h3m4s", 2*time.Hour + 3*time.Minute + 4*time.Second, true},
		{"1d2h", 26 * time.Hour, true},
		{"1w1d", 8 * 24 * time.Hour, true},
		{"", 0, false},
		{"garbage", 0, false},
	}

	for _, tt := range tests {
		got, ok := parseRouterOSUptime(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
