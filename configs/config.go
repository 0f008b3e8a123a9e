package config

import "os"

type R2 struct {
	AccountID  string
	AccessKey  string
	SecretKey  string
	BucketName string
}

type WhatsApp struct {
	AccessToken   string
	PhoneNumberID string
	Recipients    string
	TemplateName  string
	TemplateLang  string
}

type Config struct {
	LinkedinClientID     string
	LinkedinClientSecret string
	LinkedinRedirectURI  string
	TwitterClientID      string
	TwitterClientSecret  string
	TwitterRedirectURI   string
	TwitterManualOnly    bool
	GroqAPIBaseURL       string
	GroqAPIKey           string
	GroqModel            string
	PostgresURI          string
	FrontendURL          string
	R2                   R2
	WhatsApp             WhatsApp
	SecretKey            string
	StateSigningSecret   string
	EncryptionKey        string
	CookieName           string
}

func LoadConfig() *Config {
	return &Config{
		LinkedinClientID:     getEnv("LINKEDIN_CLIENT_ID", ""),
		LinkedinClientSecret: getEnv("LINKEDIN_CLIENT_SECRET", ""),
		LinkedinRedirectURI:  getEnv("LINKEDIN_REDIRECT_URI", ""),
		TwitterClientID:      getEnv("TWITTER_CLIENT_ID", ""),
		TwitterClientSecret:  getEnv("TWITTER_CLIENT_SECRET", ""),
		TwitterRedirectURI:   getEnv("TWITTER_REDIRECT_URI", ""),
		TwitterManualOnly:    getEnv("TWITTER_MANUAL_ONLY", "") == "true",
		GroqAPIBaseURL:       getEnv("GROQ_API_BASE_URL", "https://api.groq.com/openai/v1"),
		GroqAPIKey:           getEnv("GROQ_API_KEY", ""),
		GroqModel:            getEnv("GROQ_MODEL", "llama3-8b-8192"),
		PostgresURI:          getEnv("POSTGRES_URI", ""),
		FrontendURL:          getEnv("FRONTEND_URL", "http://localhost:5173"),
		R2: R2{
			AccountID:  getEnv("R2_ACCOUNT_ID", ""),
			AccessKey:  getEnv("R2_ACCESS_KEY", ""),
			SecretKey:  getEnv("R2_SECRET_KEY", ""),
			BucketName: getEnv("R2_BUCKET_NAME", ""),
		},
		WhatsApp: WhatsApp{
			AccessToken:   getEnv("WHATSAPP_ACCESS_TOKEN", ""),
			PhoneNumberID: getEnv("WHATSAPP_PHONE_NUMBER_ID", ""),
			Recipients:    getEnv("WHATSAPP_RECIPIENTS", ""),
			TemplateName:  getEnv("WHATSAPP_TEMPLATE_NAME", "post_approval"),
			TemplateLang:  getEnv("WHATSAPP_TEMPLATE_LANG", "en"),
		},
		SecretKey:          getEnv("SECRET_KEY", ""),
		StateSigningSecret: getEnv("STATE_SIGNING_SECRET", ""),
		EncryptionKey:      getEnv("ENCRYPTION_KEY", ""),
		CookieName:         getEnv("COOKIE_NAME", "content_agent_session"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
