// internal/pkg/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 是所有服务共享的配置结构。
// 通过 CONFIG_PATH 指定的 YAML 文件加载，个别字段允许环境变量覆盖。
type Config struct {
	App struct {
		Checkout CheckoutConfig `yaml:"checkout"`

		FeatureFlags struct {
			// EnableFlashInventory 开启后，标记为 flash-sale 的 SKU 走 Redis 快路径扣减
			EnableFlashInventory bool `yaml:"enable_flash_inventory"`
		} `yaml:"feature_flags"`
	} `yaml:"app"`

	Infra struct {
		Mysql struct {
			Addr     string `yaml:"addr"`
			User     string `yaml:"user"`
			Password string `yaml:"password"`
			Database string `yaml:"database"`
		} `yaml:"mysql"`

		Redis struct {
			Addrs string `yaml:"addrs"` // 逗号分隔
		} `yaml:"redis"`

		Kafka struct {
			Brokers string `yaml:"brokers"` // 逗号分隔
		} `yaml:"kafka"`

		Jaeger struct {
			Endpoint string `yaml:"endpoint"`
		} `yaml:"jaeger"`

		Zookeeper struct {
			Addrs string `yaml:"addrs"` // 逗号分隔
		} `yaml:"zookeeper"`

		Nacos struct {
			ServerAddrs string `yaml:"server_addrs"`
			Namespace   string `yaml:"namespace"`
			Group       string `yaml:"group"`
		} `yaml:"nacos"`

		// Gateway 是外部支付网关的接入配置
		Gateway struct {
			BaseURL string `yaml:"base_url"`
			KeyID   string `yaml:"key_id"`
			Secret  string `yaml:"secret"`
		} `yaml:"gateway"`
	} `yaml:"infra"`
}

// CheckoutConfig 收敛结算流程的业务参数。
type CheckoutConfig struct {
	// Currency 为结算货币的 ISO 4217 代码，金额一律以最小货币单位存储
	Currency string `yaml:"currency"`
	// ShippingFlat 为统一运费（最小货币单位）
	ShippingFlat int64 `yaml:"shipping_flat"`
	// TaxRatePercent 为税率百分比，e.g. 18 表示 18%
	TaxRatePercent int64 `yaml:"tax_rate_percent"`
	// PaymentDeadline 为支付超时时长，超时未支付的订单由 sweeper 取消
	PaymentDeadline time.Duration `yaml:"payment_deadline"`
	// LowStockThreshold 为库存状态降级为 LOW_STOCK 的默认阈值
	LowStockThreshold int `yaml:"low_stock_threshold"`
}

var currentConfig atomic.Pointer[Config]

// LoadConfig 从 path 加载 YAML 配置并缓存为当前配置。
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	applyEnvOverrides(cfg)

	currentConfig.Store(cfg)
	return cfg, nil
}

// GetCurrentConfig 返回进程内当前生效的配置。
// 如果从未显式加载过，则回退到默认值（本地开发场景）。
func GetCurrentConfig() *Config {
	if cfg := currentConfig.Load(); cfg != nil {
		return cfg
	}
	cfg := defaultConfig()
	applyEnvOverrides(cfg)
	currentConfig.Store(cfg)
	return cfg
}

func defaultConfig() *Config {
	cfg := &Config{}
	cfg.App.Checkout = CheckoutConfig{
		Currency:          "INR",
		ShippingFlat:      0,
		TaxRatePercent:    0,
		PaymentDeadline:   30 * time.Minute,
		LowStockThreshold: 5,
	}
	cfg.Infra.Mysql.Addr = "localhost:3306"
	cfg.Infra.Mysql.User = "root"
	cfg.Infra.Mysql.Database = "bazaar"
	cfg.Infra.Redis.Addrs = "localhost:6379"
	cfg.Infra.Kafka.Brokers = "localhost:9092"
	cfg.Infra.Jaeger.Endpoint = "http://localhost:14268/api/traces"
	cfg.Infra.Zookeeper.Addrs = "localhost:2181"
	cfg.Infra.Nacos.ServerAddrs = "localhost:8848"
	cfg.Infra.Nacos.Group = "DEFAULT_GROUP"
	return cfg
}

// applyEnvOverrides 允许容器环境用环境变量覆盖关键的基础设施地址。
func applyEnvOverrides(cfg *Config) {
	overrides := []struct {
		env    string
		target *string
	}{
		{"MYSQL_ADDR", &cfg.Infra.Mysql.Addr},
		{"MYSQL_USER", &cfg.Infra.Mysql.User},
		{"MYSQL_PASSWORD", &cfg.Infra.Mysql.Password},
		{"MYSQL_DATABASE", &cfg.Infra.Mysql.Database},
		{"REDIS_ADDRS", &cfg.Infra.Redis.Addrs},
		{"KAFKA_BROKERS", &cfg.Infra.Kafka.Brokers},
		{"JAEGER_ENDPOINT", &cfg.Infra.Jaeger.Endpoint},
		{"ZOOKEEPER_ADDRS", &cfg.Infra.Zookeeper.Addrs},
		{"NACOS_SERVER_ADDRS", &cfg.Infra.Nacos.ServerAddrs},
		{"NACOS_NAMESPACE", &cfg.Infra.Nacos.Namespace},
		{"NACOS_GROUP", &cfg.Infra.Nacos.Group},
		{"GATEWAY_BASE_URL", &cfg.Infra.Gateway.BaseURL},
		{"GATEWAY_KEY_ID", &cfg.Infra.Gateway.KeyID},
		{"GATEWAY_SECRET", &cfg.Infra.Gateway.Secret},
	}
	for _, o := range overrides {
		if v, ok := os.LookupEnv(o.env); ok {
			*o.target = v
		}
	}
}
