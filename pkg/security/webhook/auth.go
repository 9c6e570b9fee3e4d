package webhook

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"arhat.dev/pkg/log"
	"arhat.dev/pkg/tlshelper"
	"github.com/google/uuid"

	"arhat.dev/credprompt/pkg/constant"
	"arhat.dev/credprompt/pkg/security"
)

func init() {
	security.RegisterValidator(constant.ValidatorWebhook, newValidator, newValidatorConfig)
}

func newValidatorConfig() interface{} {
	return &Config{}
}

type Config struct {
	EndpointURL string              `json:"endpoint_url" yaml:"endpoint_url"`
	Headers     []NameValuePair     `json:"headers" yaml:"headers"`
	TLS         tlshelper.TLSConfig `json:"tls" yaml:"tls"`

	// Timeout of one validation request, defaults to 30s
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// Requester is sent along with the credential when set
	Requester *security.RequesterInfo `json:"-" yaml:"-"`
}

type NameValuePair struct {
	Name  string `json:"name" yaml:"name"`
	Value string `json:"value" yaml:"value"`
}

func newValidator(config interface{}) (security.Validator, error) {
	c, ok := config.(*Config)
	if !ok {
		return nil, fmt.Errorf("unexpected non webhook config: %T", config)
	}

	if len(c.EndpointURL) == 0 {
		return nil, fmt.Errorf("webhook endpoint_url not set")
	}

	tlsConfig, err := c.TLS.GetTLSConfig(false)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve tls config: %w", err)
	}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	client := &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:       30 * time.Second,
				KeepAlive:     30 * time.Second,
				FallbackDelay: 300 * time.Millisecond,
			}).DialContext,
			ForceAttemptHTTP2:     tlsConfig != nil,
			TLSClientConfig:       tlsConfig,
			MaxIdleConns:          100,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
		Timeout: timeout,
	}

	return &validator{
		logger:      log.Log.WithName("webhook"),
		endpointURL: c.EndpointURL,
		headers:     c.Headers,
		requester:   c.Requester,
		client:      client,
	}, nil
}

// ValidationRequest is the body posted to the webhook endpoint
type ValidationRequest struct {
	Username  string                  `json:"username"`
	Password  string                  `json:"password"`
	Requester *security.RequesterInfo `json:"requester,omitempty"`
}

type validator struct {
	logger log.Interface

	endpointURL string
	headers     []NameValuePair
	requester   *security.RequesterInfo
	client      *http.Client
}

func (v *validator) Validate(username, password string) bool {
	reqID := uuid.New().String()
	logger := v.logger.WithFields(log.String("request_id", reqID))

	err := v.validate(reqID, username, password)
	if err != nil {
		logger.I("credential validation failed", log.String("username", username), log.Error(err))
		return false
	}

	return true
}

func (v *validator) validate(reqID, username, password string) error {
	data, err := json.Marshal(&ValidationRequest{
		Username:  username,
		Password:  password,
		Requester: v.requester,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal validation request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, v.endpointURL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create http request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", reqID)
	for _, p := range v.headers {
		req.Header.Add(p.Name, p.Value)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to request validation: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusOK {
		return nil
	}

	respData, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return fmt.Errorf("failed to read error message: %w", err)
	}

	return fmt.Errorf("credential rejected with code %d: %s", resp.StatusCode, string(respData))
}
