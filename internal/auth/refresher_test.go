package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRefresherRefresh(t *testing.T) {
	tests := []struct {
		name        string
		response    string
		wantAccess  string
		wantRefresh string
	}{
		{
			name:        "rotating endpoint returns new pair",
			response:    `{"access_token":"a2","refresh_token":"r2","token_type":"Bearer"}`,
			wantAccess:  "a2",
			wantRefresh: "r2",
		},
		{
			name:       "non-rotating endpoint keeps old refresh token",
			response:   `{"access_token":"a2","token_type":"Bearer"}`,
			wantAccess: "a2",
			// oauth2 carries the seed refresh token forward
			wantRefresh: "r1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotGrant, gotRefreshToken string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if err := r.ParseForm(); err != nil {
					t.Fatalf("parsing token request form: %v", err)
				}
				gotGrant = r.FormValue("grant_type")
				gotRefreshToken = r.FormValue("refresh_token")
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(tt.response))
			}))
			defer srv.Close()

			r := NewRefresher(Config{
				ClientID:     "client",
				ClientSecret: "secret",
				TokenURL:     srv.URL + "/token",
			})

			cred, err := r.Refresh(context.Background(), "r1")
			if err != nil {
				t.Fatalf("Refresh() error = %v", err)
			}
			if gotGrant != "refresh_token" {
				t.Errorf("grant_type = %q, want refresh_token", gotGrant)
			}
			if gotRefreshToken != "r1" {
				t.Errorf("refresh_token = %q, want r1", gotRefreshToken)
			}
			if cred.AccessToken != tt.wantAccess {
				t.Errorf("AccessToken = %q, want %q", cred.AccessToken, tt.wantAccess)
			}
			if cred.RefreshToken != tt.wantRefresh {
				t.Errorf("RefreshToken = %q, want %q", cred.RefreshToken, tt.wantRefresh)
			}
		})
	}
}

func TestRefresherNoRefreshToken(t *testing.T) {
	r := NewRefresher(Config{TokenURL: "http://127.0.0.1:0/token"})

	_, err := r.Refresh(context.Background(), "")
	if !errors.Is(err, ErrNoRefreshToken) {
		t.Fatalf("Refresh() error = %v, want ErrNoRefreshToken", err)
	}
}

func TestRefresherEndpointFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	r := NewRefresher(Config{TokenURL: srv.URL + "/token"})

	if _, err := r.Refresh(context.Background(), "r1"); err == nil {
		t.Fatal("Refresh() expected error on invalid_grant")
	}
}
