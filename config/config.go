package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/Permissionless-Software-Foundation/avax-dex/log"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

type config struct {
	// Label sets log output prefix.
	Label      string
	Listen     string
	DebugLevel int `mapstructure:"debug_level"`

	// MySQL configs.
	User     string
	Password string `json:"-"`
	Hostname string
	Port     string
	Database string

	// Ledger node base urls, e.g. http://127.0.0.1:9650.
	RPCs         []string `mapstructure:"rpc_url"`
	NetworkID    uint32   `mapstructure:"network_id"`
	BlockchainID string   `mapstructure:"blockchain_id"`
	AvaxAssetID  string   `mapstructure:"avax_asset_id"`
	HRP          string   `mapstructure:"hrp"`

	Mnemonic string `json:"-"`

	// TxFee overrides the fee reported by the ledger when non-zero.
	TxFee            uint64 `mapstructure:"tx_fee"`
	BuyFeeMultiplier uint64 `mapstructure:"buy_fee_multiplier"`

	AppID                 string `mapstructure:"app_id"`
	P2WDBURL              string `mapstructure:"p2wdb_url"`
	WebhookService        string `mapstructure:"webhook_service"`
	WebhookTarget         string `mapstructure:"webhook_target"`
	WebhookBackoffSeconds int    `mapstructure:"webhook_backoff_seconds"`
	WebhookMaxAttempts    int    `mapstructure:"webhook_max_attempts"`

	// RedisAddr enables webhook de-duplication when set.
	RedisAddr string `mapstructure:"redis_addr"`

	ReapIntervalSeconds int `mapstructure:"reap_interval_seconds"`

	// AliyunMail is an optional config which will be used in mail alert package.
	AliyunMail AliyunMailConfig `mapstructure:"aliyun_mail"`
}

// AliyunMailConfig is the struct for aliyun mail configs.
type AliyunMailConfig struct {
	AccountName     string
	Region          string
	AccessKeyID     string
	AccessKeySecret string `json:"-"`
	Receiver        []string
}

var (
	cfg  config
	lock sync.RWMutex
)

// Load reads config/config.* and keeps watching it for changes.
func Load(display bool) {
	viper.SetConfigName("config")
	viper.AddConfigPath("./config")
	// Incase test cases require loading configs.
	viper.AddConfigPath("../config")
	setDefaults()

	if err := load(display); err != nil {
		panic(err)
	}

	log.UpdatePrefix(GetLabel())
	log.SetLevel(GetDebugLevel())

	viper.WatchConfig()
	viper.OnConfigChange(onConfigChange)
}

func setDefaults() {
	viper.SetDefault("listen", ":5700")
	viper.SetDefault("debug_level", 1)
	viper.SetDefault("network_id", 1)
	viper.SetDefault("buy_fee_multiplier", 2)
	viper.SetDefault("app_id", "avax-dex-002")
	viper.SetDefault("p2wdb_url", "http://localhost:5010")
	viper.SetDefault("webhook_target", "http://localhost:5700/p2wdb")
	viper.SetDefault("webhook_backoff_seconds", 2)
	viper.SetDefault("reap_interval_seconds", 300)
}

func load(display bool) error {
	err := viper.ReadInConfig()
	if err != nil {
		return err
	}

	var next config
	err = viper.Unmarshal(&next)
	if err != nil {
		return err
	}

	update(&next)

	if err := check(&next); err != nil {
		return err
	}

	if display {
		configContent, _ := json.MarshalIndent(next, "", "    ")
		log.Println(string(configContent))
	}

	lock.Lock()
	cfg = next
	lock.Unlock()

	return nil
}

func update(c *config) {
	for i := 0; i < len(c.RPCs); i++ {
		rpc := c.RPCs[i]
		if !strings.HasPrefix(rpc, "http") {
			c.RPCs[i] = "http://" + rpc
		}
		c.RPCs[i] = strings.TrimSuffix(c.RPCs[i], "/")
	}

	c.P2WDBURL = strings.TrimSuffix(c.P2WDBURL, "/")
	if c.WebhookService == "" {
		c.WebhookService = c.P2WDBURL + "/webhook"
	}
}

func get() config {
	lock.RLock()
	defer lock.RUnlock()
	return cfg
}

// GetDbConnStr returns mysql connection string.
func GetDbConnStr() string {
	c := get()
	str := fmt.Sprintf(
		"%s:%s@tcp(%s:%s)/%s",
		c.User,
		c.Password,
		c.Hostname,
		c.Port,
		c.Database,
	)

	params := []string{
		"charset=utf8mb4",
		"parseTime=True",
		"loc=Local",
	}

	return fmt.Sprintf("%s?%s", str, strings.Join(params, "&"))
}

// GetLabel returns custome label as console output prefix.
func GetLabel() string {
	return get().Label
}

// GetListen returns the REST listen address.
func GetListen() string {
	return get().Listen
}

// GetDebugLevel returns the log verbosity.
func GetDebugLevel() int {
	return get().DebugLevel
}

// GetRPCs returns all ledger node urls from config.
func GetRPCs() []string {
	return append([]string(nil), get().RPCs...)
}

// GetNetworkID returns the ledger network id.
func GetNetworkID() uint32 {
	return get().NetworkID
}

// GetBlockchainID returns the cb58 id of the asset chain.
func GetBlockchainID() string {
	return get().BlockchainID
}

// GetAvaxAssetID returns the cb58 id of the fee/settlement asset.
func GetAvaxAssetID() string {
	return get().AvaxAssetID
}

// GetHRP returns the bech32 human readable part for addresses.
func GetHRP() string {
	c := get()
	if c.HRP != "" {
		return c.HRP
	}
	return HRPForNetwork(c.NetworkID)
}

// HRPForNetwork maps well known network ids to their address prefix.
func HRPForNetwork(networkID uint32) string {
	switch networkID {
	case 1:
		return "avax"
	case 5:
		return "fuji"
	case 12345:
		return "local"
	default:
		return "custom"
	}
}

// GetMnemonic returns the wallet mnemonic.
func GetMnemonic() string {
	return get().Mnemonic
}

// GetTxFee returns the configured fee override, 0 means ask the ledger.
func GetTxFee() uint64 {
	return get().TxFee
}

// GetBuyFeeMultiplier returns how many ledger fees a buy offer must reserve.
func GetBuyFeeMultiplier() uint64 {
	return get().BuyFeeMultiplier
}

// GetAppID returns the P2WDB application id.
func GetAppID() string {
	return get().AppID
}

// GetP2WDBURL returns the P2WDB service url.
func GetP2WDBURL() string {
	return get().P2WDBURL
}

// GetWebhookService returns the P2WDB webhook endpoint.
func GetWebhookService() string {
	return get().WebhookService
}

// GetWebhookTarget returns the url P2WDB should call on new entries.
func GetWebhookTarget() string {
	return get().WebhookTarget
}

// GetWebhookRetry returns the webhook backoff and attempt limit.
func GetWebhookRetry() (time.Duration, int) {
	c := get()
	return time.Duration(c.WebhookBackoffSeconds) * time.Second, c.WebhookMaxAttempts
}

// GetRedisAddr returns the redis address, empty if disabled.
func GetRedisAddr() string {
	return get().RedisAddr
}

// GetReapInterval returns the stale order sweep interval.
func GetReapInterval() time.Duration {
	return time.Duration(get().ReapIntervalSeconds) * time.Second
}

// LoadAliyunMailConfig performs a basic check on aliyun mail config.
func LoadAliyunMailConfig() error {
	return checkAliyunMail(get().AliyunMail)
}

// GetAliyunMailConfig returns aliyun mail configs.
func GetAliyunMailConfig() AliyunMailConfig {
	return get().AliyunMail
}

func check(c *config) error {
	if err := checkRPCs(c.RPCs); err != nil {
		return err
	}

	if c.BlockchainID == "" {
		return errors.New("blockchain_id cannot be empty")
	}

	if c.AvaxAssetID == "" {
		return errors.New("avax_asset_id cannot be empty")
	}

	if c.BuyFeeMultiplier < 1 {
		return errors.New("value of 'buy_fee_multiplier' must greater than or equal to 1")
	}

	if c.ReapIntervalSeconds < 1 {
		return errors.New("value of 'reap_interval_seconds' must greater than or equal to 1")
	}

	if c.AppID == "" {
		return errors.New("app_id cannot be empty")
	}

	return nil
}

func checkRPCs(rpcs []string) error {
	if len(rpcs) < 1 {
		return errors.New("at least 1 rpc server url must be set")
	}

	for _, rpc := range rpcs {
		u, err := url.Parse(rpc)
		if err != nil {
			return err
		}

		_, _, err = net.SplitHostPort(u.Host)
		if err != nil {
			return err
		}
	}

	return nil
}

func checkAliyunMail(m AliyunMailConfig) error {
	if m.AccountName == "" {
		return errors.New("aliyun mail account name cannot be empty")
	}

	if m.Region == "" {
		return errors.New("aliyun mail region cannot be empty")
	}

	if m.AccessKeyID == "" {
		return errors.New("aliyun mail accessKeyID cannot be empty")
	}

	if m.AccessKeySecret == "" {
		return errors.New("aliyun mail accessKeySecret cannot be empty")
	}

	if len(m.Receiver) == 0 {
		return errors.New("aliyun mail receiver cannot be empty")
	}

	return nil
}

func onConfigChange(e fsnotify.Event) {
	log.Printf("Config file change detected: %s", e.Name)

	const stdErr = "Failed to read new configuration, current configuration stay unchanged"

	if err := load(true); err != nil {
		log.Printf("%s: %s", stdErr, err)
		return
	}

	log.UpdatePrefix(GetLabel())
	log.SetLevel(GetDebugLevel())
}
