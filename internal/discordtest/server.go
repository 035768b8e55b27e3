// Package discordtest runs a fake Discord REST API for tests. It points
// discordgo's endpoint variables at an httptest server, records every
// request, and lets tests inject error statuses per route.
package discordtest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/bwmarrin/discordgo"
)

// Request is a recorded call to the fake API.
type Request struct {
	Method string
	Path   string
	Body   []byte
	Reason string
}

// Component mirrors the JSON of buttons, text inputs and action rows.
type Component struct {
	Type       discordgo.ComponentType `json:"type"`
	CustomID   string                  `json:"custom_id"`
	Label      string                  `json:"label"`
	Style      int                     `json:"style"`
	Value      string                  `json:"value"`
	Required   bool                    `json:"required"`
	MinLength  int                     `json:"min_length"`
	MaxLength  int                     `json:"max_length"`
	Components []Component             `json:"components"`
}

// Callback is a decoded interaction response.
type Callback struct {
	Type discordgo.InteractionResponseType `json:"type"`
	Data struct {
		Content    string                 `json:"content"`
		Flags      discordgo.MessageFlags `json:"flags"`
		CustomID   string                 `json:"custom_id"`
		Title      string                 `json:"title"`
		Components []Component            `json:"components"`
	} `json:"data"`
}

// Ephemeral reports whether the response is only visible to the invoker.
func (c Callback) Ephemeral() bool {
	return c.Data.Flags&discordgo.MessageFlagsEphemeral != 0
}

// Flatten returns all leaf components keyed by custom ID.
func (c Callback) Flatten() map[string]Component {
	out := make(map[string]Component)
	var walk func([]Component)
	walk = func(cs []Component) {
		for _, comp := range cs {
			if len(comp.Components) > 0 {
				walk(comp.Components)
				continue
			}
			out[comp.CustomID] = comp
		}
	}
	walk(c.Data.Components)
	return out
}

type failure struct {
	method string
	suffix string
	status int
}

// Server is the fake API. Create it with New.
type Server struct {
	*httptest.Server

	mu        sync.Mutex
	requests  []Request
	callbacks []Callback
	failures  []failure
	members   map[string]*discordgo.Member
	commands  map[string]*discordgo.ApplicationCommand
	nextID    int
}

// New starts a fake API, redirects discordgo to it for the duration of the
// test and returns a session authenticated with a dummy token.
func New(t *testing.T) (*Server, *discordgo.Session) {
	t.Helper()

	srv := &Server{
		members:  make(map[string]*discordgo.Member),
		commands: make(map[string]*discordgo.ApplicationCommand),
		nextID:   1000,
	}
	srv.Server = httptest.NewServer(http.HandlerFunc(srv.handle))
	t.Cleanup(srv.Close)

	oldAPI := discordgo.EndpointAPI
	oldGuilds := discordgo.EndpointGuilds
	oldWebhooks := discordgo.EndpointWebhooks
	oldApplications := discordgo.EndpointApplications
	discordgo.EndpointAPI = srv.URL + "/"
	discordgo.EndpointGuilds = discordgo.EndpointAPI + "guilds/"
	discordgo.EndpointWebhooks = discordgo.EndpointAPI + "webhooks/"
	discordgo.EndpointApplications = discordgo.EndpointAPI + "applications"
	t.Cleanup(func() {
		discordgo.EndpointAPI = oldAPI
		discordgo.EndpointGuilds = oldGuilds
		discordgo.EndpointWebhooks = oldWebhooks
		discordgo.EndpointApplications = oldApplications
	})

	session, err := discordgo.New("Bot test-token")
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	return srv, session
}

// Fail makes requests whose method matches and whose path ends with
// suffix answer with status. Use "*" to match any method.
func (s *Server) Fail(method, suffix string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, failure{method: method, suffix: suffix, status: status})
}

// AddMember makes GET /guilds/{guildID}/members/{id} return m.
func (s *Server) AddMember(guildID string, m *discordgo.Member) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members[guildID+"/"+m.User.ID] = m
}

// AddCommand pre-registers a guild command as if it already existed.
func (s *Server) AddCommand(cmd *discordgo.ApplicationCommand) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commands[cmd.ID] = cmd
}

// Requests returns every recorded request.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// Matching returns recorded requests with the given method whose path
// contains fragment.
func (s *Server) Matching(method, fragment string) []Request {
	var out []Request
	for _, r := range s.Requests() {
		if r.Method == method && strings.Contains(r.Path, fragment) {
			out = append(out, r)
		}
	}
	return out
}

// NicknameEdits returns PATCH requests against guild members.
func (s *Server) NicknameEdits() []Request {
	var out []Request
	for _, r := range s.Matching(http.MethodPatch, "/members/") {
		if !strings.Contains(r.Path, "/roles/") {
			out = append(out, r)
		}
	}
	return out
}

// RoleGrants returns PUT requests against member roles.
func (s *Server) RoleGrants() []Request {
	return s.Matching(http.MethodPut, "/roles/")
}

// Callbacks returns decoded interaction responses in arrival order.
func (s *Server) Callbacks() []Callback {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Callback, len(s.callbacks))
	copy(out, s.callbacks)
	return out
}

// Commands returns the guild commands currently registered.
func (s *Server) Commands() map[string]*discordgo.ApplicationCommand {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]*discordgo.ApplicationCommand, len(s.commands))
	for _, c := range s.commands {
		out[c.Name] = c
	}
	return out
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	reason := r.Header.Get("X-Audit-Log-Reason")
	if unescaped, err := url.PathUnescape(reason); err == nil {
		reason = unescaped
	}
	req := Request{
		Method: r.Method,
		Path:   r.URL.Path,
		Body:   body,
		Reason: reason,
	}

	s.mu.Lock()
	s.requests = append(s.requests, req)
	status := 0
	for _, f := range s.failures {
		if (f.method == "*" || f.method == r.Method) && strings.HasSuffix(r.URL.Path, f.suffix) {
			status = f.status
		}
	}
	s.mu.Unlock()

	if status != 0 {
		writeJSON(w, status, map[string]any{"message": http.StatusText(status), "code": 50013})
		return
	}

	switch {
	case strings.HasSuffix(r.URL.Path, "/callback"):
		var cb Callback
		_ = json.Unmarshal(body, &cb)
		s.mu.Lock()
		s.callbacks = append(s.callbacks, cb)
		s.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	case strings.Contains(r.URL.Path, "/roles/"):
		w.WriteHeader(http.StatusNoContent)
	case strings.Contains(r.URL.Path, "/members/"):
		s.handleMember(w, r)
	case strings.Contains(r.URL.Path, "/commands"):
		s.handleCommands(w, r, body)
	default:
		writeJSON(w, http.StatusOK, map[string]any{})
	}
}

func (s *Server) handleMember(w http.ResponseWriter, r *http.Request) {
	// /guilds/{guild}/members/{user}
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) < 4 {
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "Unknown Member", "code": 10007})
		return
	}
	key := parts[len(parts)-3] + "/" + parts[len(parts)-1]

	s.mu.Lock()
	m, ok := s.members[key]
	s.mu.Unlock()

	if r.Method == http.MethodGet && !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "Unknown Member", "code": 10007})
		return
	}
	if m == nil {
		m = &discordgo.Member{User: &discordgo.User{ID: parts[len(parts)-1]}}
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleCommands(w http.ResponseWriter, r *http.Request, body []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	last := parts[len(parts)-1]

	switch r.Method {
	case http.MethodGet:
		list := make([]*discordgo.ApplicationCommand, 0, len(s.commands))
		for _, c := range s.commands {
			list = append(list, c)
		}
		writeJSON(w, http.StatusOK, list)
	case http.MethodPost:
		var cmd discordgo.ApplicationCommand
		_ = json.Unmarshal(body, &cmd)
		s.nextID++
		cmd.ID = fmt.Sprintf("%d", s.nextID)
		s.commands[cmd.ID] = &cmd
		writeJSON(w, http.StatusCreated, &cmd)
	case http.MethodPatch:
		var cmd discordgo.ApplicationCommand
		_ = json.Unmarshal(body, &cmd)
		cmd.ID = last
		s.commands[last] = &cmd
		writeJSON(w, http.StatusOK, &cmd)
	case http.MethodDelete:
		delete(s.commands, last)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
