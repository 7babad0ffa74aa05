package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/example/ordershop/pkg/models"
	"go.uber.org/zap"
)

// DirectoryClient fetches user records from the user directory service.
type DirectoryClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewDirectoryClient(baseURL string, timeout time.Duration, logger *zap.Logger) *DirectoryClient {
	return &DirectoryClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: newHTTPClient(timeout),
		logger:     logger,
	}
}

// GetUser resolves a user by id via GET {directory}/users/{id}.
func (c *DirectoryClient) GetUser(ctx context.Context, id string) (*models.User, error) {
	url := fmt.Sprintf("%s/users/%s", c.baseURL, id)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: building request: %v", ErrUnreachable, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: GET %s: %v", ErrUnreachable, url, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, id)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: GET %s returned %d", ErrUnreachable, url, resp.StatusCode)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("%w: decoding user response: %v", ErrMalformed, err)
	}

	var user models.User
	if err := json.Unmarshal(env.Data, &user); err != nil {
		return nil, fmt.Errorf("%w: decoding user payload: %v", ErrMalformed, err)
	}

	c.logger.Debug("Resolved user",
		zap.String("user_id", id),
		zap.String("name", user.Name))

	return &user, nil
}
