package config

import (
	"errors"
	"time"
)

// ErrMissingEndpoint is returned when a required webhook URL is not set
var ErrMissingEndpoint = errors.New("webhook endpoint not configured")

// Endpoint is one external webhook URL with the env key it came from
type Endpoint struct {
	Key         string `json:"key"`
	Description string `json:"description"`
	URL         string `json:"-"`
}

// IsSet returns true if the endpoint URL is configured
func (e Endpoint) IsSet() bool {
	return e.URL != ""
}

// JobEndpoints is a submit/poll pair for a polled webhook
type JobEndpoints struct {
	Submit Endpoint `json:"submit"`
	Poll   Endpoint `json:"poll"`
}

// WebhookConfig holds every external analysis endpoint
type WebhookConfig struct {
	StyleAnalysis     Endpoint     `json:"styleAnalysis"`
	BackgroundRemoval JobEndpoints `json:"backgroundRemoval"`
	ColorAnalysis     JobEndpoints `json:"colorAnalysis"`
	// ColorFinal shares the color poll endpoint
	ColorFinal Endpoint `json:"colorFinal"`
}

// PollingConfig tunes the job poller
type PollingConfig struct {
	MaxAttempts      int           `json:"maxAttempts"`
	QueueInterval    time.Duration `json:"queueInterval"`
	ProgressInterval time.Duration `json:"progressInterval"`
	JobTimeout       time.Duration `json:"jobTimeout"`
}

// LoadWebhooks reads webhook endpoints from the environment
func LoadWebhooks() WebhookConfig {
	return WebhookConfig{
		StyleAnalysis: endpoint("STYLE_ANALYSIS_URL", "Upload photos for style analysis"),
		BackgroundRemoval: JobEndpoints{
			Submit: endpoint("REMOVE_BACKGROUND_URL", "Submit image for background removal"),
			Poll:   endpoint("REMOVE_BACKGROUND_POLL_URL", "Poll for background removal results"),
		},
		ColorAnalysis: JobEndpoints{
			Submit: endpoint("COLOR_ANALYSIS_URL", "Submit image for color analysis"),
			Poll:   endpoint("COLOR_ANALYSIS_POLL_URL", "Poll for color analysis results"),
		},
		ColorFinal: endpoint("COLOR_ANALYSIS_FINAL_URL", "Submit final color analysis with all palettes"),
	}
}

// LoadPolling reads poller tuning from the environment
func LoadPolling() PollingConfig {
	return PollingConfig{
		MaxAttempts:      getEnvAsInt("POLL_MAX_ATTEMPTS", 60),
		QueueInterval:    getEnvAsDuration("POLL_QUEUE_INTERVAL", 10*time.Second),
		ProgressInterval: getEnvAsDuration("POLL_PROGRESS_INTERVAL", 5*time.Second),
		JobTimeout:       getEnvAsDuration("JOB_TIMEOUT", 3*time.Minute),
	}
}

// Missing lists "KEY - description" for every unset endpoint
func (w WebhookConfig) Missing() []string {
	var missing []string
	for _, e := range []Endpoint{
		w.ColorAnalysis.Submit,
		w.ColorAnalysis.Poll,
		w.ColorFinal,
		w.BackgroundRemoval.Submit,
		w.BackgroundRemoval.Poll,
		w.StyleAnalysis,
	} {
		if !e.IsSet() {
			missing = append(missing, e.Key+" - "+e.Description)
		}
	}
	return missing
}

func endpoint(key, description string) Endpoint {
	return Endpoint{Key: key, Description: description, URL: getEnv(key, "")}
}
