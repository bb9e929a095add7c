package openai

// Config contains the connection settings for the OpenAI provider.
type Config struct {
	// APIKey authenticates requests. Required.
	APIKey string

	// BaseURL overrides the default API endpoint. Any OpenAI-compatible
	// server works here. Optional.
	BaseURL string

	// Timeout bounds a single request, in seconds. Optional.
	Timeout int
}
