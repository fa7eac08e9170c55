package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/storefront/identity/internal/core/domain"
)

// DefaultTimeout bounds every identity API call.
const DefaultTimeout = 10 * time.Second

// Gateway is the identity API as seen by the client flows.
type Gateway interface {
	Me(ctx context.Context, token string) Outcome
	Login(ctx context.Context, email, password string) Outcome
	GoogleLogin(ctx context.Context, req GoogleLoginRequest) Outcome
}

// GoogleLoginRequest is the body of POST /user/google-login.
type GoogleLoginRequest struct {
	IDToken     string          `json:"idToken"`
	UserInfo    json.RawMessage `json:"userInfo"`
	FirebaseUID string          `json:"firebaseUid,omitempty"`
}

// HTTPGateway talks to the identity API over HTTP.
type HTTPGateway struct {
	baseURL string
	http    *http.Client
}

// NewHTTPGateway returns a gateway for baseURL. A zero timeout selects
// DefaultTimeout.
func NewHTTPGateway(baseURL string, timeout time.Duration) *HTTPGateway {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPGateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

type apiResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Token   string       `json:"token"`
	User    *domain.User `json:"user"`
	Error   string       `json:"error"`
}

// Me verifies token against GET /user/me.
func (g *HTTPGateway) Me(ctx context.Context, token string) Outcome {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/user/me", nil)
	if err != nil {
		return Failed(err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return g.do(req, false, verifyRejections)
}

func (g *HTTPGateway) Login(ctx context.Context, email, password string) Outcome {
	return g.post(ctx, "/user/login", map[string]string{"email": email, "password": password})
}

func (g *HTTPGateway) GoogleLogin(ctx context.Context, body GoogleLoginRequest) Outcome {
	return g.post(ctx, "/user/google-login", body)
}

func (g *HTTPGateway) post(ctx context.Context, path string, body any) Outcome {
	raw, err := json.Marshal(body)
	if err != nil {
		return Failed(fmt.Errorf("encode request: %w", err))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return Failed(err)
	}
	req.Header.Set("Content-Type", "application/json")
	return g.do(req, true, signInRejections)
}

// Statuses that count as a refusal of the submitted credentials. Only a 401
// says a stored token is dead; any other answer to /user/me leaves it alone.
var (
	verifyRejections = []int{http.StatusUnauthorized}
	signInRejections = []int{
		http.StatusUnauthorized,
		http.StatusForbidden,
		http.StatusBadRequest,
		http.StatusTooManyRequests,
	}
)

// do classifies the exchange. Transport errors, including timeouts, are
// Unreachable; only a received status listed in rejections is Rejected.
func (g *HTTPGateway) do(req *http.Request, wantToken bool, rejections []int) Outcome {
	resp, err := g.http.Do(req)
	if err != nil {
		return Unreachable(fmt.Errorf("%w: %v", domain.ErrNetworkUnreachable, err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Unreachable(fmt.Errorf("%w: read body: %v", domain.ErrNetworkUnreachable, err))
	}

	var body apiResponse
	decodeErr := json.Unmarshal(raw, &body)

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
		if decodeErr != nil || body.User == nil || (wantToken && body.Token == "") {
			return Failed(fmt.Errorf("identity api: malformed %s response", req.URL.Path))
		}
		return OK(body.Token, body.User)
	case slices.Contains(rejections, resp.StatusCode):
		return Rejected(classify(resp.StatusCode, body.Error))
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return Failed(classify(resp.StatusCode, body.Error))
	}
	return Failed(fmt.Errorf("identity api: %s %s: status %d", req.Method, req.URL.Path, resp.StatusCode))
}

var knownErrors = []error{
	domain.ErrTokenMissing,
	domain.ErrTokenInvalid,
	domain.ErrUserNotFound,
	domain.ErrForbidden,
	domain.ErrInvalidCredentials,
	domain.ErrUserExists,
	domain.ErrTooManyAttempts,
	domain.ErrProviderDataInvalid,
}

// classify maps an error envelope back to the domain taxonomy.
func classify(status int, msg string) error {
	for _, known := range knownErrors {
		if msg == known.Error() {
			return known
		}
	}
	switch status {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", domain.ErrTokenInvalid, msg)
	case http.StatusForbidden:
		return fmt.Errorf("%w: %s", domain.ErrForbidden, msg)
	case http.StatusTooManyRequests:
		return domain.ErrTooManyAttempts
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	return errors.New(msg)
}
