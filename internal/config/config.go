package config

import (
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	APIAddr            string   `mapstructure:"API_ADDR"`
	CORSAllowedOrigins []string `mapstructure:"CORS_ALLOWED_ORIGINS"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`

	HttpTimeoutSec       int    `mapstructure:"HTTP_TIMEOUT_SEC"`
	StrategyTimeoutSec   int    `mapstructure:"STRATEGY_TIMEOUT_SEC"`
	HttpRetryCount       int    `mapstructure:"HTTP_RETRY_COUNT"`
	HttpRetryBaseDelayMs int    `mapstructure:"HTTP_RETRY_BASE_DELAY_MS"`
	HttpRetryMaxDelayMs  int    `mapstructure:"HTTP_RETRY_MAX_DELAY_MS"`
	UserAgentMobile      string `mapstructure:"USER_AGENT_MOBILE"`
	UserAgentDesktop     string `mapstructure:"USER_AGENT_DESKTOP"`
	AcceptLanguage       string `mapstructure:"ACCEPT_LANGUAGE"`
	Cookies              string `mapstructure:"COOKIES"`

	EnableIPProxy       bool   `mapstructure:"ENABLE_IP_PROXY"`
	IPProxyPoolCount    int    `mapstructure:"IP_PROXY_POOL_COUNT"`
	IPProxyProviderName string `mapstructure:"IP_PROXY_PROVIDER_NAME"`
	IPProxyList         string `mapstructure:"IP_PROXY_LIST"`
	IPProxyFile         string `mapstructure:"IP_PROXY_FILE"`

	CascadeMinTextLen       int `mapstructure:"CASCADE_MIN_TEXT_LEN"`
	MergeSubstantialTextLen int `mapstructure:"MERGE_SUBSTANTIAL_TEXT_LEN"`
	MergeMinHintTextLen     int `mapstructure:"MERGE_MIN_HINT_TEXT_LEN"`
	ResolutionCacheTTLSec   int `mapstructure:"RESOLUTION_CACHE_TTL_SEC"`

	RSSHubURL               string   `mapstructure:"RSSHUB_URL"`
	WeiboDefaultUID         string   `mapstructure:"WEIBO_DEFAULT_UID"`
	WeiboRSSTemplates       []string `mapstructure:"WEIBO_RSS_TEMPLATES"`
	WeiboMobileEndpoints    []string `mapstructure:"WEIBO_MOBILE_ENDPOINTS"`
	DouyinItemInfoEndpoints []string `mapstructure:"DOUYIN_ITEMINFO_ENDPOINTS"`
	DouyinRSSTemplates      []string `mapstructure:"DOUYIN_RSS_TEMPLATES"`
	DouyinDefaultUID        string   `mapstructure:"DOUYIN_DEFAULT_UID"`
	XhsRSSTemplates         []string `mapstructure:"XHS_RSS_TEMPLATES"`
	XhsDefaultUID           string   `mapstructure:"XHS_DEFAULT_UID"`

	BrowserEnabled        bool   `mapstructure:"BROWSER_ENABLED"`
	BrowserDriver         string `mapstructure:"BROWSER_DRIVER"`
	Headless              bool   `mapstructure:"HEADLESS"`
	EnableCDPMode         bool   `mapstructure:"ENABLE_CDP_MODE"`
	CDPDebugPort          int    `mapstructure:"CDP_DEBUG_PORT"`
	CustomBrowserPath     string `mapstructure:"CUSTOM_BROWSER_PATH"`
	BrowserLaunchTimeout  int    `mapstructure:"BROWSER_LAUNCH_TIMEOUT"`
	BrowserPageTimeoutSec int    `mapstructure:"BROWSER_PAGE_TIMEOUT_SEC"`
	UserDataDir           string `mapstructure:"USER_DATA_DIR"`
	StealthScriptPath     string `mapstructure:"STEALTH_SCRIPT_PATH"`

	StoreBackend     string `mapstructure:"STORE_BACKEND"`
	DataDir          string `mapstructure:"DATA_DIR"`
	PostsFile        string `mapstructure:"POSTS_FILE"`
	SQLitePath       string `mapstructure:"SQLITE_PATH"`
	MySQLDSN         string `mapstructure:"MYSQL_DSN"`
	PostgresDSN      string `mapstructure:"POSTGRES_DSN"`
	MongoURI         string `mapstructure:"MONGO_URI"`
	MongoDB          string `mapstructure:"MONGO_DB"`
	PostRetentionCap int    `mapstructure:"POST_RETENTION_CAP"`

	CacheBackend       string `mapstructure:"CACHE_BACKEND"`
	CacheMaxMemoryMB   int    `mapstructure:"CACHE_MAX_MEMORY_MB"`
	CacheMaxValueKB    int    `mapstructure:"CACHE_MAX_VALUE_KB"`
	RedisAddr          string `mapstructure:"REDIS_ADDR"`
	RedisPassword      string `mapstructure:"REDIS_PASSWORD"`
	RedisDB            int    `mapstructure:"REDIS_DB"`
	RedisKeyPrefix     string `mapstructure:"REDIS_KEY_PREFIX"`

	AdminUsername string `mapstructure:"ADMIN_USERNAME"`
	AdminPassword string `mapstructure:"ADMIN_PASSWORD"`
	JWTSecret     string `mapstructure:"JWT_SECRET"`
	JWTIssuer     string `mapstructure:"JWT_ISSUER"`
	TokenTTLHours int    `mapstructure:"TOKEN_TTL_HOURS"`

	MediaProxyMaxAgeSec            int    `mapstructure:"MEDIA_PROXY_MAX_AGE_SEC"`
	MediaProxyPlaceholderMaxAgeSec int    `mapstructure:"MEDIA_PROXY_PLACEHOLDER_MAX_AGE_SEC"`
	MediaProxyMaxBytes             int64  `mapstructure:"MEDIA_PROXY_MAX_BYTES"`
	MediaProxyReferer              string `mapstructure:"MEDIA_PROXY_REFERER"`
	MediaProxyAllowPrivate         bool   `mapstructure:"MEDIA_PROXY_ALLOW_PRIVATE"`
	PlaceholderFormat              string `mapstructure:"PLACEHOLDER_FORMAT"`
	PlaceholderLabel               string `mapstructure:"PLACEHOLDER_LABEL"`

	RateLimitLoginPerMin int `mapstructure:"RATE_LIMIT_LOGIN_PER_MIN"`
	RateLimitFetchPerMin int `mapstructure:"RATE_LIMIT_FETCH_PER_MIN"`
}

var AppConfig Config

const (
	defaultMobileUA  = "Mozilla/5.0 (iPhone; CPU iPhone OS 16_6 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.6 Mobile/15E148 Safari/604.1"
	defaultDesktopUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
)

func LoadConfig(path string) error {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetDefault("API_ADDR", ":8080")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", []string{"*"})
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "json")
	viper.SetDefault("HTTP_TIMEOUT_SEC", 10)
	viper.SetDefault("STRATEGY_TIMEOUT_SEC", 10)
	viper.SetDefault("HTTP_RETRY_COUNT", 1)
	viper.SetDefault("HTTP_RETRY_BASE_DELAY_MS", 300)
	viper.SetDefault("HTTP_RETRY_MAX_DELAY_MS", 2000)
	viper.SetDefault("USER_AGENT_MOBILE", defaultMobileUA)
	viper.SetDefault("USER_AGENT_DESKTOP", defaultDesktopUA)
	viper.SetDefault("ACCEPT_LANGUAGE", "zh-CN,zh;q=0.9,en;q=0.8")
	viper.SetDefault("COOKIES", "")
	viper.SetDefault("ENABLE_IP_PROXY", false)
	viper.SetDefault("IP_PROXY_POOL_COUNT", 2)
	viper.SetDefault("IP_PROXY_PROVIDER_NAME", "static")
	viper.SetDefault("IP_PROXY_LIST", "")
	viper.SetDefault("IP_PROXY_FILE", "")
	viper.SetDefault("CASCADE_MIN_TEXT_LEN", 10)
	viper.SetDefault("MERGE_SUBSTANTIAL_TEXT_LEN", 50)
	viper.SetDefault("MERGE_MIN_HINT_TEXT_LEN", 10)
	viper.SetDefault("RESOLUTION_CACHE_TTL_SEC", 300)
	viper.SetDefault("RSSHUB_URL", "https://rsshub.app")
	viper.SetDefault("WEIBO_DEFAULT_UID", "")
	viper.SetDefault("WEIBO_RSS_TEMPLATES", []string{})
	viper.SetDefault("WEIBO_MOBILE_ENDPOINTS", []string{})
	viper.SetDefault("DOUYIN_ITEMINFO_ENDPOINTS", []string{})
	viper.SetDefault("DOUYIN_RSS_TEMPLATES", []string{})
	viper.SetDefault("DOUYIN_DEFAULT_UID", "")
	viper.SetDefault("XHS_RSS_TEMPLATES", []string{})
	viper.SetDefault("XHS_DEFAULT_UID", "")
	viper.SetDefault("BROWSER_ENABLED", false)
	viper.SetDefault("BROWSER_DRIVER", "playwright")
	viper.SetDefault("HEADLESS", true)
	viper.SetDefault("ENABLE_CDP_MODE", false)
	viper.SetDefault("CDP_DEBUG_PORT", 9222)
	viper.SetDefault("CUSTOM_BROWSER_PATH", "")
	viper.SetDefault("BROWSER_LAUNCH_TIMEOUT", 60)
	viper.SetDefault("BROWSER_PAGE_TIMEOUT_SEC", 15)
	viper.SetDefault("USER_DATA_DIR", "browser_data")
	viper.SetDefault("STEALTH_SCRIPT_PATH", "")
	viper.SetDefault("STORE_BACKEND", "file")
	viper.SetDefault("DATA_DIR", "data")
	viper.SetDefault("POSTS_FILE", "")
	viper.SetDefault("SQLITE_PATH", "data/fan_feed.db")
	viper.SetDefault("MYSQL_DSN", "")
	viper.SetDefault("POSTGRES_DSN", "")
	viper.SetDefault("MONGO_URI", "")
	viper.SetDefault("MONGO_DB", "fan_feed")
	viper.SetDefault("POST_RETENTION_CAP", 50)
	viper.SetDefault("CACHE_BACKEND", "memory")
	viper.SetDefault("CACHE_MAX_MEMORY_MB", 64)
	viper.SetDefault("CACHE_MAX_VALUE_KB", 4096)
	viper.SetDefault("REDIS_ADDR", "")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("REDIS_KEY_PREFIX", "fan_feed:")
	viper.SetDefault("ADMIN_USERNAME", "admin")
	viper.SetDefault("ADMIN_PASSWORD", "")
	viper.SetDefault("JWT_SECRET", "")
	viper.SetDefault("JWT_ISSUER", "fan-feed")
	viper.SetDefault("TOKEN_TTL_HOURS", 24)
	viper.SetDefault("MEDIA_PROXY_MAX_AGE_SEC", 86400)
	viper.SetDefault("MEDIA_PROXY_PLACEHOLDER_MAX_AGE_SEC", 3600)
	viper.SetDefault("MEDIA_PROXY_MAX_BYTES", 20<<20)
	viper.SetDefault("MEDIA_PROXY_REFERER", "https://weibo.com/")
	viper.SetDefault("MEDIA_PROXY_ALLOW_PRIVATE", false)
	viper.SetDefault("PLACEHOLDER_FORMAT", "svg")
	viper.SetDefault("PLACEHOLDER_LABEL", "Image unavailable")
	viper.SetDefault("RATE_LIMIT_LOGIN_PER_MIN", 10)
	viper.SetDefault("RATE_LIMIT_FETCH_PER_MIN", 30)

	viper.SetEnvPrefix("FAN_FEED")
	viper.AutomaticEnv()

	// If no config file found, just use defaults/env
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		return err
	}
	Normalize(&AppConfig)
	return nil
}

func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}
	cfg.StoreBackend = strings.ToLower(strings.TrimSpace(cfg.StoreBackend))
	if cfg.StoreBackend == "json" {
		cfg.StoreBackend = "file"
	}
	cfg.CacheBackend = strings.ToLower(strings.TrimSpace(cfg.CacheBackend))
	cfg.BrowserDriver = strings.ToLower(strings.TrimSpace(cfg.BrowserDriver))
	if cfg.BrowserDriver == "" {
		cfg.BrowserDriver = "playwright"
	}
	cfg.IPProxyProviderName = strings.ToLower(strings.TrimSpace(cfg.IPProxyProviderName))
	cfg.PlaceholderFormat = strings.ToLower(strings.TrimSpace(cfg.PlaceholderFormat))
	if cfg.PlaceholderFormat != "png" {
		cfg.PlaceholderFormat = "svg"
	}
	cfg.RSSHubURL = strings.TrimRight(strings.TrimSpace(cfg.RSSHubURL), "/")

	if cfg.CascadeMinTextLen <= 0 {
		cfg.CascadeMinTextLen = 10
	}
	if cfg.MergeMinHintTextLen <= 0 {
		cfg.MergeMinHintTextLen = 10
	}
	if cfg.MergeSubstantialTextLen < cfg.MergeMinHintTextLen {
		cfg.MergeSubstantialTextLen = cfg.MergeMinHintTextLen
	}
	if cfg.CacheMaxMemoryMB <= 0 {
		cfg.CacheMaxMemoryMB = 64
	}
	if cfg.CacheMaxValueKB <= 0 {
		cfg.CacheMaxValueKB = 4096
	}
	if cfg.PostRetentionCap <= 0 {
		cfg.PostRetentionCap = 50
	}
	if cfg.TokenTTLHours <= 0 {
		cfg.TokenTTLHours = 24
	}
	if strings.TrimSpace(cfg.UserAgentMobile) == "" {
		cfg.UserAgentMobile = defaultMobileUA
	}
	if strings.TrimSpace(cfg.UserAgentDesktop) == "" {
		cfg.UserAgentDesktop = defaultDesktopUA
	}
	if strings.TrimSpace(cfg.AcceptLanguage) == "" {
		cfg.AcceptLanguage = "zh-CN,zh;q=0.9,en;q=0.8"
	}
	cfg.CORSAllowedOrigins = splitList(cfg.CORSAllowedOrigins)
	cfg.WeiboRSSTemplates = splitList(cfg.WeiboRSSTemplates)
	cfg.WeiboMobileEndpoints = splitList(cfg.WeiboMobileEndpoints)
	cfg.DouyinItemInfoEndpoints = splitList(cfg.DouyinItemInfoEndpoints)
	cfg.DouyinRSSTemplates = splitList(cfg.DouyinRSSTemplates)
	cfg.XhsRSSTemplates = splitList(cfg.XhsRSSTemplates)
}

// splitList accepts both YAML lists and comma separated env values.
func splitList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
