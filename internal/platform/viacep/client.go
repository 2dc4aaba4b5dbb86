// Package viacep looks up Brazilian postal addresses by CEP for address
// autofill on patient records.
package viacep

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/physiocapture/physiocapture/pkg/brdoc"
)

var (
	// ErrInvalidCEP is returned before any network call for malformed codes.
	ErrInvalidCEP = errors.New("invalid CEP")
	// ErrNotFound is returned when the upstream knows no such CEP.
	ErrNotFound = errors.New("CEP not found")
	// ErrUnavailable is returned after all attempts failed on transient errors.
	ErrUnavailable = errors.New("address service unavailable")
)

const (
	attemptTimeout = 8 * time.Second
	maxRetries     = 2
)

// Address is a resolved postal address.
type Address struct {
	CEP          string `json:"cep"`
	Street       string `json:"street"`
	Complement   string `json:"complement,omitempty"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`
}

// Lookuper resolves a CEP into an address.
type Lookuper interface {
	Lookup(ctx context.Context, cep string) (*Address, error)
}

// Client queries a ViaCEP-compatible HTTP endpoint. Transient failures
// (timeouts, network errors, 5xx) are retried up to maxRetries times with
// linear backoff; not-found and malformed input surface immediately.
type Client struct {
	baseURL string
	http    *http.Client
	logger  zerolog.Logger
	// wait is swapped out in tests
	wait func(ctx context.Context, d time.Duration) error
}

// New returns a Client for the given base URL (e.g. https://viacep.com.br).
func New(baseURL string, logger zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: attemptTimeout},
		logger:  logger,
		wait:    waitBackoff,
	}
}

func waitBackoff(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type viaCEPResponse struct {
	CEP          string `json:"cep"`
	Street       string `json:"logradouro"`
	Complement   string `json:"complemento"`
	Neighborhood string `json:"bairro"`
	City         string `json:"localidade"`
	State        string `json:"uf"`
	Erro         bool   `json:"erro"`
}

// Lookup resolves cep, which may be formatted (01310-100) or bare digits.
func (c *Client) Lookup(ctx context.Context, cep string) (*Address, error) {
	if !brdoc.ValidCEP(cep) {
		return nil, ErrInvalidCEP
	}
	digits := brdoc.CleanCEP(cep)
	url := fmt.Sprintf("%s/ws/%s/json/", c.baseURL, digits)

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			// Linear backoff: 1s after the first failure, 2s after the second.
			if err := c.wait(ctx, time.Duration(attempt)*time.Second); err != nil {
				return nil, err
			}
		}

		addr, err := c.fetch(ctx, url)
		if err == nil {
			return addr, nil
		}
		// A caller that went away is not a reason to keep hammering upstream.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !isTransient(err) {
			return nil, err
		}
		lastErr = err
		c.logger.Warn().Err(err).Str("cep", digits).Int("attempt", attempt+1).
			Msg("cep lookup failed, will retry")
	}

	return nil, fmt.Errorf("%w: %v", ErrUnavailable, lastErr)
}

func (c *Client) fetch(ctx context.Context, url string) (*Address, error) {
	ctx, cancel := context.WithTimeout(ctx, attemptTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return nil, &upstreamError{status: resp.StatusCode}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, ErrNotFound
	}

	var body viaCEPResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if body.Erro {
		return nil, ErrNotFound
	}

	return &Address{
		CEP:          brdoc.CleanCEP(body.CEP),
		Street:       body.Street,
		Complement:   body.Complement,
		Neighborhood: body.Neighborhood,
		City:         body.City,
		State:        body.State,
	}, nil
}

type upstreamError struct {
	status int
}

func (e *upstreamError) Error() string {
	return fmt.Sprintf("upstream status %d", e.status)
}

// isTransient reports whether err is worth retrying: timeouts, network
// errors and 5xx responses. Not-found and decode errors are final.
func isTransient(err error) bool {
	if errors.Is(err, ErrNotFound) || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ue *upstreamError
	if errors.As(err, &ue) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
