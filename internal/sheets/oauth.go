package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/sheets/v4"
)

const authTimeout = 5 * time.Minute

// OAuth2Config holds OAuth2 configuration for the interactive consent flow.
type OAuth2Config struct {
	// Prompt receives the consent URL the user must open.
	Prompt func(authURL string)
	Logger *slog.Logger

	ClientID     string
	ClientSecret string
	TokenFile    string
	// CallbackAddr is the loopback address the redirect lands on; port 0 picks one.
	CallbackAddr string
	// Endpoint defaults to Google's OAuth2 endpoint.
	Endpoint oauth2.Endpoint
}

func (c OAuth2Config) oauth(redirectURL string) *oauth2.Config {
	endpoint := c.Endpoint
	if endpoint.AuthURL == "" {
		endpoint = google.Endpoint
	}
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		Endpoint:     endpoint,
		RedirectURL:  redirectURL,
		Scopes:       []string{sheets.SpreadsheetsScope},
	}
}

// Authenticate runs the offline consent flow, waits for the browser redirect on a
// loopback listener and exchanges the code. The token is saved to TokenFile when set.
func Authenticate(ctx context.Context, cfg OAuth2Config) (*oauth2.Token, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, errors.New("oauth2 client id and secret are required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	addr := cfg.CallbackAddr
	if addr == "" {
		addr = "127.0.0.1:8080"
	}
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to start callback server: %w", err)
	}

	oauthConfig := cfg.oauth(fmt.Sprintf("http://%s/callback", listener.Addr().String()))
	state := uuid.NewString()

	codeChan := make(chan string, 1)
	errorChan := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("state") != state {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			return
		}
		code := r.URL.Query().Get("code")
		if code == "" {
			select {
			case errorChan <- errors.New("no authorization code received"):
			default:
			}
			_, _ = fmt.Fprint(w, "<html><body><h1>Authentication Failed</h1><p>No authorization code received. Please try again.</p></body></html>")
			return
		}
		select {
		case codeChan <- code:
		default:
		}
		_, _ = fmt.Fprint(w, "<html><body><h1>Authentication Successful!</h1><p>You can close this window and return to the terminal.</p></body></html>")
	})

	server := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			select {
			case errorChan <- fmt.Errorf("callback server failed: %w", err):
			default:
			}
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("error shutting down callback server", "error", err)
		}
	}()

	authURL := oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	if cfg.Prompt != nil {
		cfg.Prompt(authURL)
	} else {
		logger.Info("visit this URL to authorize Google Sheets access", "url", authURL)
	}

	var code string
	select {
	case code = <-codeChan:
		logger.Debug("received authorization code")
	case err := <-errorChan:
		return nil, err
	case <-time.After(authTimeout):
		return nil, errors.New("authentication timeout: no response received within 5 minutes")
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	token, err := oauthConfig.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	if cfg.TokenFile != "" {
		if err := saveToken(cfg.TokenFile, token); err != nil {
			return nil, err
		}
		logger.Info("token saved", "file", cfg.TokenFile)
	}
	return token, nil
}

// LoadToken loads a token from file.
func LoadToken(tokenFile string) (*oauth2.Token, error) {
	f, err := os.Open(tokenFile) // #nosec G304
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	token := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(token); err != nil {
		return nil, fmt.Errorf("failed to decode token %s: %w", tokenFile, err)
	}
	return token, nil
}

func saveToken(path string, token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600) // #nosec G304
	if err != nil {
		return fmt.Errorf("failed to create token file: %w", err)
	}
	if err := json.NewEncoder(f).Encode(token); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to encode token: %w", err)
	}
	return f.Close()
}

// tokenSource picks service account or refresh-token credentials from cfg.
func tokenSource(ctx context.Context, cfg Config) (oauth2.TokenSource, error) {
	if cfg.ServiceAccountPath != "" {
		jsonKey, err := os.ReadFile(cfg.ServiceAccountPath)
		if err != nil {
			return nil, fmt.Errorf("unable to read service account key file: %w", err)
		}
		jwtConfig, err := google.JWTConfigFromJSON(jsonKey, sheets.SpreadsheetsScope)
		if err != nil {
			return nil, fmt.Errorf("unable to parse service account key: %w", err)
		}
		return jwtConfig.TokenSource(ctx), nil
	}

	token := &oauth2.Token{RefreshToken: cfg.RefreshToken, TokenType: "Bearer"}
	if cfg.RefreshToken == "" {
		saved, err := LoadToken(cfg.TokenFile)
		if err != nil {
			return nil, fmt.Errorf("no refresh token configured and none saved (run `anzsic sheets auth`): %w", err)
		}
		token = saved
	}

	oauthConfig := OAuth2Config{ClientID: cfg.ClientID, ClientSecret: cfg.ClientSecret}.oauth("")
	return oauthConfig.TokenSource(ctx, token), nil
}
