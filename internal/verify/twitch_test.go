package verify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestTwitchVerifier(handler http.Handler) (*TwitchVerifier, *httptest.Server) {
	server := httptest.NewServer(handler)
	verifier := NewTwitchVerifier("client-id")
	verifier.baseURL = server.URL
	return verifier, server
}

func twitchUsersResponse(w http.ResponseWriter) {
	fmt.Fprint(w, `{"data":[{"id":"12345"}]}`)
}

func TestTwitchCheckFollow(t *testing.T) {
	following := true
	verifier, server := newTestTwitchVerifier(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Client-Id"); got != "client-id" {
			t.Errorf("missing Client-Id header, got %q", got)
		}
		switch r.URL.Path {
		case "/users":
			twitchUsersResponse(w)
		case "/channels/followed":
			if r.URL.Query().Get("user_id") != "12345" {
				t.Errorf("unexpected user_id %q", r.URL.Query().Get("user_id"))
			}
			if following {
				fmt.Fprint(w, `{"data":[{"broadcaster_id":"999"}]}`)
			} else {
				fmt.Fprint(w, `{"data":[]}`)
			}
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	ok, err := verifier.CheckFollow(context.Background(), "token", "999")
	if err != nil || !ok {
		t.Fatalf("expected following, got ok=%v err=%v", ok, err)
	}

	following = false
	ok, err = verifier.CheckFollow(context.Background(), "token", "999")
	if err != nil || ok {
		t.Fatalf("expected not following, got ok=%v err=%v", ok, err)
	}
}

// Helix answers 404 for a user with no subscription; that is a negative
// result, not an error.
func TestTwitchCheckSubscriptionNotFound(t *testing.T) {
	verifier, server := newTestTwitchVerifier(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/users":
			twitchUsersResponse(w)
		case "/subscriptions/user":
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	ok, err := verifier.CheckSubscription(context.Background(), "token", "999")
	if err != nil {
		t.Fatalf("expected no error for 404, got %v", err)
	}
	if ok {
		t.Fatal("expected not subscribed")
	}
}

func TestTwitchCheckSubscriptionSubscribed(t *testing.T) {
	verifier, server := newTestTwitchVerifier(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/users":
			twitchUsersResponse(w)
		case "/subscriptions/user":
			fmt.Fprint(w, `{"data":[{"broadcaster_id":"999","tier":"1000"}]}`)
		}
	}))
	defer server.Close()

	ok, err := verifier.CheckSubscription(context.Background(), "token", "999")
	if err != nil || !ok {
		t.Fatalf("expected subscribed, got ok=%v err=%v", ok, err)
	}
}

func TestTwitchExpiredToken(t *testing.T) {
	verifier, server := newTestTwitchVerifier(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	if _, err := verifier.CheckFollow(context.Background(), "stale", "999"); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired for 401, got %v", err)
	}
}

func TestTwitchNoUser(t *testing.T) {
	verifier, server := newTestTwitchVerifier(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[]}`)
	}))
	defer server.Close()

	if _, err := verifier.CheckFollow(context.Background(), "token", "999"); !errors.Is(err, ErrNoTwitchUser) {
		t.Fatalf("expected ErrNoTwitchUser, got %v", err)
	}
}

func TestTwitchMissingParameters(t *testing.T) {
	verifier := NewTwitchVerifier("client-id")
	if _, err := verifier.CheckFollow(context.Background(), "", "999"); !errors.Is(err, ErrMissingParameters) {
		t.Fatalf("expected ErrMissingParameters, got %v", err)
	}
	if _, err := verifier.CheckSubscription(context.Background(), "token", ""); !errors.Is(err, ErrMissingParameters) {
		t.Fatalf("expected ErrMissingParameters, got %v", err)
	}
}
