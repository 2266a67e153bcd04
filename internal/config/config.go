package config

import (
	"crypto/rsa"
	"encoding/base64"
	"encoding/pem"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/launchdarkly/go-sdk-common/v3/ldcontext"
	ld "github.com/launchdarkly/go-server-sdk/v7"

	"github.com/propflow/maintenance-service/internal/utils"
)

type Config struct {
	OrganizationName string
	AppName          string
	AppPort          string
	AppUrl           string

	// Database
	DBUrl string

	// Twilio / SendGrid for lifecycle notifications
	TwilioAccountSID string
	TwilioAuthToken  string
	SendGridAPIKey   string

	// Auth. This service only validates tokens, so it carries the public
	// half alone.
	RSAPublicKey *rsa.PublicKey

	// LaunchDarkly flags
	LDFlag_NotificationsEnabled bool
	LDFlag_TwilioFromPhone      string
	LDFlag_SendgridFromEmail    string
	LDFlag_SendgridSandboxMode  bool
	LDFlag_SeedDbWithTestData   bool
	LDFlag_CORSHighSecurity     bool
}

const (
	OrganizationName    = "PropFlow"
	LDConnectionTimeout = 5 * time.Second
)

func requireEnv(name string) string {
	val := os.Getenv(name)
	if val == "" {
		utils.Logger.Fatalf("%s env var is missing", name)
	}
	return val
}

func LoadConfig() *Config {
	appName := requireEnv("APP_NAME")
	utils.Logger.Info("Loading config for app: ", appName)

	cfg := &Config{
		OrganizationName: OrganizationName,
		AppName:          appName,
		AppPort:          requireEnv("APP_PORT"),
		AppUrl:           requireEnv("APP_URL"),
		DBUrl:            requireEnv("DB_URL"),
		TwilioAccountSID: requireEnv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:  requireEnv("TWILIO_AUTH_TOKEN"),
		SendGridAPIKey:   requireEnv("SENDGRID_API_KEY"),
	}

	pubB64 := requireEnv("RSA_PUBLIC_KEY_BASE64")
	pubPEM, err := base64.StdEncoding.DecodeString(pubB64)
	if err != nil {
		utils.Logger.WithError(err).Fatal("RSA_PUBLIC_KEY_BASE64 is not valid base64")
	}
	if block, _ := pem.Decode(pubPEM); block == nil {
		utils.Logger.Fatal("Failed to decode PEM block for public key")
	}
	pubKey, err := jwt.ParseRSAPublicKeyFromPEM(pubPEM)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to parse RSA public key")
	}
	cfg.RSAPublicKey = pubKey

	loadFlags(cfg, appName)
	return cfg
}

// loadFlags reads runtime toggles from LaunchDarkly. Without an SDK key
// every flag keeps its zero default and notifications stay off, which is
// the right posture for local development.
func loadFlags(cfg *Config, appName string) {
	ldSDKKey := os.Getenv("LD_SDK_KEY")
	if ldSDKKey == "" {
		utils.Logger.Warn("LD_SDK_KEY not set, all feature flags default off")
		return
	}

	ldClient, err := ld.MakeClient(ldSDKKey, LDConnectionTimeout)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to create LaunchDarkly client")
	}
	if !ldClient.Initialized() {
		ldClient.Close()
		utils.Logger.Fatal("LaunchDarkly client failed to initialize")
	}
	defer ldClient.Close()

	ctx := ldcontext.NewWithKind("service", appName)

	boolFlag := func(name string) bool {
		val, err := ldClient.BoolVariation(name, ctx, false)
		if err != nil {
			utils.Logger.WithError(err).Fatalf("Error retrieving %s flag", name)
		}
		utils.Logger.Debugf("%s flag: %t", name, val)
		return val
	}
	stringFlag := func(name, fallback string) string {
		val, err := ldClient.StringVariation(name, ctx, "")
		if err != nil {
			utils.Logger.WithError(err).Fatalf("Error retrieving %s flag", name)
		}
		utils.Logger.Debugf("%s flag: %s", name, val)
		if val == "" {
			utils.Logger.Warnf("%s flag is empty, defaulting to %s", name, fallback)
			return fallback
		}
		return val
	}

	cfg.LDFlag_NotificationsEnabled = boolFlag("notifications_enabled")
	cfg.LDFlag_SendgridSandboxMode = boolFlag("sendgrid_sandbox_mode")
	cfg.LDFlag_SeedDbWithTestData = boolFlag("seed_db_with_test_data")
	cfg.LDFlag_CORSHighSecurity = boolFlag("cors_high_security")
	cfg.LDFlag_TwilioFromPhone = stringFlag("twilio_from_phone", "+10005550006")
	cfg.LDFlag_SendgridFromEmail = stringFlag("sendgrid_from_email", "no-reply@propflow.example.com")
}
