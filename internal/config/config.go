package config

import (
	"os"
)

type AcuityConfig struct {
	UserID  string
	APIKey  string
	BaseURL string
}

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	SuccessURL    string
	CancelURL     string
}

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	PublicURL       string
}

type Config struct {
	Acuity      AcuityConfig
	Stripe      StripeConfig
	R2          R2Config
	FrontendURL string
}

func LoadConfig() *Config {
	cfg := &Config{}

	cfg.Acuity.UserID = os.Getenv("ACUITY_USER_ID")
	cfg.Acuity.APIKey = os.Getenv("ACUITY_API_KEY")
	cfg.Acuity.BaseURL = os.Getenv("ACUITY_BASE_URL") // empty means the public API

	cfg.Stripe.SecretKey = os.Getenv("STRIPE_SECRET_KEY")
	cfg.Stripe.WebhookSecret = os.Getenv("STRIPE_WEBHOOK_SECRET")

	cfg.FrontendURL = os.Getenv("FRONTEND_URL")
	if cfg.FrontendURL == "" {
		cfg.FrontendURL = "http://localhost:5173"
	}
	cfg.Stripe.SuccessURL = cfg.FrontendURL + "/payment/success?session_id={CHECKOUT_SESSION_ID}"
	cfg.Stripe.CancelURL = cfg.FrontendURL + "/payment/cancel"

	cfg.R2.AccountID = os.Getenv("R2_ACCOUNT_ID")
	cfg.R2.AccessKeyID = os.Getenv("R2_ACCESS_KEY_ID")
	cfg.R2.SecretAccessKey = os.Getenv("R2_SECRET_ACCESS_KEY")
	cfg.R2.Bucket = os.Getenv("R2_BUCKET")
	cfg.R2.PublicURL = os.Getenv("R2_PUBLIC_URL")

	return cfg
}
