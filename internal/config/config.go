package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"booking-service/internal/timezone"
)

// Config is the process-wide configuration. It is built once at startup and
// passed by value to the components that need it.
type Config struct {
	HTTP            HTTP
	Host            Host
	Google          Google
	Telegram        Telegram
	Kafka           Kafka
	Database        Database
	Redis           Redis
	RateLimit       RateLimit
	CORS            CORS
	Admin           Admin
	Telemetry       Telemetry
	ProviderTimeout time.Duration
	FollowUpTimeout time.Duration
}

type HTTP struct {
	Port           int
	RequestTimeout time.Duration
	BodyLimitBytes int64
}

// Host describes the single bookable resource: whose calendar, in which zone,
// and during which part of the day.
type Host struct {
	Timezone string
	Location *time.Location
	// Approximate is true only when the tz database could not be read and a
	// fixed offset stands in for the host zone.
	Approximate            bool
	ComfortStart           timezone.Clock
	ComfortEnd             timezone.Clock
	SlotGranularityMinutes int
	MinimumLeadHours       float64
	CalendarID             string
	WorkingDays            []time.Weekday
	HorizonDays            int
}

// Granularity is the slot length and step.
func (h Host) Granularity() time.Duration {
	return time.Duration(h.SlotGranularityMinutes) * time.Minute
}

// MinimumLead is the minimum distance between now and a bookable slot start.
func (h Host) MinimumLead() time.Duration {
	return time.Duration(h.MinimumLeadHours * float64(time.Hour))
}

// IsWorkingDay reports whether wd is offered in the date list. Slots and
// bookings are not filtered by weekday.
func (h Host) IsWorkingDay(wd time.Weekday) bool {
	for _, d := range h.WorkingDays {
		if d == wd {
			return true
		}
	}
	return false
}

type Google struct {
	CredentialsFile string
	ClientEmail     string
	PrivateKey      string
	PrivateKeyID    string
}

// Configured reports whether service-account credentials were supplied.
func (g Google) Configured() bool {
	return g.CredentialsFile != "" || (g.ClientEmail != "" && g.PrivateKey != "")
}

type Telegram struct {
	BotToken string
	ChatID   string
	APIBase  string
}

func (t Telegram) Enabled() bool {
	return t.BotToken != "" && t.ChatID != ""
}

type Kafka struct {
	Brokers []string
	Topic   string
}

type Database struct {
	URL string
}

type Redis struct {
	Addr     string
	Password string
	DB       int
}

type RateLimit struct {
	PerMinute int
	FailOpen  bool
	Prefix    string
}

type CORS struct {
	AllowedOrigins []string
}

type Admin struct {
	StaticTokens []string
	JWTSecret    string
}

type Telemetry struct {
	Enabled      bool
	ServiceName  string
	OTLPEndpoint string
	SampleRatio  float64
}

var defaultWorkingDays = []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}

// Load parses configuration values from the current process environment.
//
// Optional values get defaults; every missing or malformed value is collected
// so the operator sees all problems at once.
func Load() (Config, error) {
	cfg := Config{
		HTTP: HTTP{
			Port:           8080,
			RequestTimeout: 15 * time.Second,
			BodyLimitBytes: 64 << 10,
		},
		Host: Host{
			Timezone:               "Europe/Kyiv",
			ComfortStart:           timezone.Clock{Hour: 9},
			ComfortEnd:             timezone.Clock{Hour: 21},
			SlotGranularityMinutes: 30,
			MinimumLeadHours:       2,
			WorkingDays:            defaultWorkingDays,
			HorizonDays:            14,
		},
		Telegram: Telegram{APIBase: "https://api.telegram.org"},
		Kafka:    Kafka{Topic: "booking-notifications"},
		RateLimit: RateLimit{
			PerMinute: 10,
			FailOpen:  true,
			Prefix:    "booking-rl",
		},
		Telemetry: Telemetry{
			Enabled:      false,
			ServiceName:  "booking-service",
			OTLPEndpoint: "localhost:4317",
			SampleRatio:  1,
		},
		ProviderTimeout: 5 * time.Second,
		FollowUpTimeout: 5 * time.Second,
	}

	missing := make([]string, 0, 2)
	invalid := make([]string, 0, 4)

	if v := env("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port < 1 || port > 65535 {
			invalid = append(invalid, "PORT")
		} else {
			cfg.HTTP.Port = port
		}
	}
	if v := env("HTTP_REQUEST_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err != nil || d <= 0 {
			invalid = append(invalid, "HTTP_REQUEST_TIMEOUT")
		} else {
			cfg.HTTP.RequestTimeout = d
		}
	}
	if v := env("PROVIDER_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err != nil || d <= 0 {
			invalid = append(invalid, "PROVIDER_TIMEOUT")
		} else {
			cfg.ProviderTimeout = d
		}
	}
	if v := env("FOLLOW_UP_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err != nil || d <= 0 {
			invalid = append(invalid, "FOLLOW_UP_TIMEOUT")
		} else {
			cfg.FollowUpTimeout = d
		}
	}

	// host calendar
	if v := env("BOOKING_HOST_TIMEZONE"); v != "" {
		cfg.Host.Timezone = v
	}
	host, err := timezone.LoadHost(cfg.Host.Timezone, env("BOOKING_TZ_FALLBACK_OFFSET"))
	if err != nil {
		invalid = append(invalid, "BOOKING_HOST_TIMEZONE")
	} else {
		cfg.Host.Timezone = host.Name
		cfg.Host.Location = host.Location
		cfg.Host.Approximate = host.Approximate
	}
	if v := env("BOOKING_COMFORT_START"); v != "" {
		if c, err := timezone.ParseClock(v); err != nil {
			invalid = append(invalid, "BOOKING_COMFORT_START")
		} else {
			cfg.Host.ComfortStart = c
		}
	}
	if v := env("BOOKING_COMFORT_END"); v != "" {
		if c, err := timezone.ParseClock(v); err != nil {
			invalid = append(invalid, "BOOKING_COMFORT_END")
		} else {
			cfg.Host.ComfortEnd = c
		}
	}
	if cfg.Host.ComfortStart.Minutes() >= cfg.Host.ComfortEnd.Minutes() {
		invalid = append(invalid, "BOOKING_COMFORT_START/BOOKING_COMFORT_END")
	}
	if v := env("BOOKING_SLOT_MINUTES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 60 || 60%n != 0 {
			invalid = append(invalid, "BOOKING_SLOT_MINUTES")
		} else {
			cfg.Host.SlotGranularityMinutes = n
		}
	}
	if v := env("BOOKING_MIN_LEAD_HOURS"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 {
			invalid = append(invalid, "BOOKING_MIN_LEAD_HOURS")
		} else {
			cfg.Host.MinimumLeadHours = f
		}
	}
	if v := env("BOOKING_CALENDAR_ID"); v == "" {
		missing = append(missing, "BOOKING_CALENDAR_ID")
	} else {
		cfg.Host.CalendarID = v
	}
	if v := env("BOOKING_WORKING_DAYS"); v != "" {
		days, err := parseWeekdays(v)
		if err != nil {
			invalid = append(invalid, "BOOKING_WORKING_DAYS")
		} else {
			cfg.Host.WorkingDays = days
		}
	}
	if v := env("BOOKING_HORIZON_DAYS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 90 {
			invalid = append(invalid, "BOOKING_HORIZON_DAYS")
		} else {
			cfg.Host.HorizonDays = n
		}
	}

	// calendar provider credentials
	cfg.Google = Google{
		CredentialsFile: env("GOOGLE_APPLICATION_CREDENTIALS"),
		ClientEmail:     env("GOOGLE_CLIENT_EMAIL"),
		PrivateKey:      strings.ReplaceAll(env("GOOGLE_PRIVATE_KEY"), `\n`, "\n"),
		PrivateKeyID:    env("GOOGLE_PRIVATE_KEY_ID"),
	}
	if !cfg.Google.Configured() {
		missing = append(missing, "GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_CLIENT_EMAIL+GOOGLE_PRIVATE_KEY")
	}

	// notification channels
	cfg.Telegram.BotToken = env("TELEGRAM_BOT_TOKEN")
	cfg.Telegram.ChatID = env("TELEGRAM_CHAT_ID")
	if v := env("TELEGRAM_API_BASE"); v != "" {
		cfg.Telegram.APIBase = strings.TrimRight(v, "/")
	}
	cfg.Kafka.Brokers = parseList(env("NOTIFY_KAFKA_BROKERS"))
	if v := env("NOTIFY_KAFKA_TOPIC"); v != "" {
		cfg.Kafka.Topic = v
	}

	cfg.Database.URL = env("DATABASE_URL")

	cfg.Redis.Addr = env("REDIS_ADDR")
	cfg.Redis.Password = env("REDIS_PASSWORD")
	if v := env("REDIS_DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			invalid = append(invalid, "REDIS_DB")
		} else {
			cfg.Redis.DB = n
		}
	}
	if v := env("RATE_LIMIT_PER_MINUTE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			invalid = append(invalid, "RATE_LIMIT_PER_MINUTE")
		} else {
			cfg.RateLimit.PerMinute = n
		}
	}
	if v := env("RATE_LIMIT_FAIL_OPEN"); v != "" {
		cfg.RateLimit.FailOpen = isTruthy(v)
	}

	cfg.CORS.AllowedOrigins = parseList(env("CORS_ALLOWED_ORIGINS"))

	cfg.Admin.StaticTokens = parseList(env("STATIC_TOKENS"))
	cfg.Admin.JWTSecret = env("JWT_HMAC_SECRET")

	if v := env("OTEL_ENABLED"); v != "" {
		cfg.Telemetry.Enabled = isTruthy(v)
	}
	if v := env("OTEL_SERVICE_NAME"); v != "" {
		cfg.Telemetry.ServiceName = v
	}
	if v := env("OTEL_EXPORTER_OTLP_ENDPOINT"); v != "" {
		cfg.Telemetry.OTLPEndpoint = v
	}
	if v := env("OTEL_SAMPLING_RATIO"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 || f > 1 {
			invalid = append(invalid, "OTEL_SAMPLING_RATIO")
		} else {
			cfg.Telemetry.SampleRatio = f
		}
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variables: %s", strings.Join(invalid, ", "))
	}
	return cfg, nil
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func isTruthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "t", "yes", "y", "on":
		return true
	default:
		return false
	}
}

func parseList(raw string) []string {
	items := strings.Split(raw, ",")
	out := make([]string, 0, len(items))
	for _, item := range items {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday,
	"mon": time.Monday,
	"tue": time.Tuesday,
	"wed": time.Wednesday,
	"thu": time.Thursday,
	"fri": time.Friday,
	"sat": time.Saturday,
}

func parseWeekdays(raw string) ([]time.Weekday, error) {
	var days []time.Weekday
	seen := map[time.Weekday]bool{}
	for _, item := range parseList(raw) {
		key := strings.ToLower(item)
		if len(key) > 3 {
			key = key[:3]
		}
		wd, ok := weekdayNames[key]
		if !ok {
			return nil, fmt.Errorf("unknown weekday %q", item)
		}
		if !seen[wd] {
			seen[wd] = true
			days = append(days, wd)
		}
	}
	if len(days) == 0 {
		return nil, fmt.Errorf("no working days")
	}
	return days, nil
}
