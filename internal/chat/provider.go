package chat

import (
	"net/http"

	"github.com/sashabaranov/go-openai"

	"github.com/Rorical/RoriBuddy/internal/config"
)

const (
	OpenRouterBaseURL = "https://openrouter.ai/api/v1"

	attributionReferer = "https://github.com/Rorical/RoriBuddy"
	attributionTitle   = "RoriBuddy"
)

// attributionTransport adds the app attribution headers OpenRouter asks for.
type attributionTransport struct {
	base http.RoundTripper
}

func (t attributionTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("HTTP-Referer", attributionReferer)
	req.Header.Set("X-Title", attributionTitle)
	return t.base.RoundTrip(req)
}

// NewClient builds a chat-completion client for the profile.
func NewClient(p config.Profile) (*openai.Client, error) {
	if p.APIKey == "" {
		return nil, ErrNotConfigured
	}

	clientConfig := openai.DefaultConfig(p.APIKey)
	if p.Provider == config.ProviderOpenRouter {
		clientConfig.BaseURL = OpenRouterBaseURL
		clientConfig.HTTPClient = &http.Client{
			Transport: attributionTransport{base: http.DefaultTransport},
		}
	}
	if p.BaseURL != "" {
		clientConfig.BaseURL = p.BaseURL
	}
	return openai.NewClientWithConfig(clientConfig), nil
}
