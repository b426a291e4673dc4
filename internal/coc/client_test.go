package coc

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(handler http.Handler) (*Client, *httptest.Server) {
	server := httptest.NewServer(handler)
	return New("test-token", server.URL, 2*time.Second), server
}

func TestClanMembers(t *testing.T) {
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-token" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		if r.URL.Path != "/clans/%23ABC123/members" && r.URL.Path != "/clans/#ABC123/members" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"items":[{"tag":"#P1","name":"Alice"},{"tag":"#P2","name":"Bob"}]}`))
	}))
	defer server.Close()

	members, err := client.ClanMembers(context.Background(), "#ABC123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(members) != 2 {
		t.Fatalf("expected 2 members, got %d", len(members))
	}
	if members[0].Tag != "#P1" || members[0].Name != "Alice" {
		t.Fatalf("unexpected first member: %+v", members[0])
	}
}

func TestClanMembersEmptyRoster(t *testing.T) {
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"items":[]}`))
	}))
	defer server.Close()

	if _, err := client.ClanMembers(context.Background(), "#ABC123"); err == nil {
		t.Fatal("expected error for empty roster")
	}
}

func TestClanMembersUpstreamError(t *testing.T) {
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	if _, err := client.ClanMembers(context.Background(), "#ABC123"); err == nil {
		t.Fatal("expected error for 503 response")
	}
}

func TestPlayerGamesChampion(t *testing.T) {
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"tag":"#P1","name":"Alice",
			"achievements":[{"name":"Gold Grab","value":12},{"name":"Games Champion","value":4500}]
		}`))
	}))
	defer server.Close()

	player, err := client.Player(context.Background(), "#P1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := player.GamesChampion(); got != 4500 {
		t.Fatalf("expected 4500, got %d", got)
	}
}

func TestGamesChampionAbsent(t *testing.T) {
	player := &Player{Achievements: []Achievement{{Name: "Gold Grab", Value: 10}}}
	if got := player.GamesChampion(); got != 0 {
		t.Fatalf("expected 0 for missing achievement, got %d", got)
	}
}

func TestVerifyToken(t *testing.T) {
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		_, _ = w.Write([]byte(`{"tag":"#P1","token":"abc","status":"ok"}`))
	}))
	defer server.Close()

	if err := client.VerifyToken(context.Background(), "#P1", "abc"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestVerifyTokenInvalid(t *testing.T) {
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"tag":"#P1","token":"abc","status":"invalid"}`))
	}))
	defer server.Close()

	if err := client.VerifyToken(context.Background(), "#P1", "abc"); err == nil {
		t.Fatal("expected error for invalid token")
	}
}
