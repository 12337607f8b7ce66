package config

import "time"

type Config struct {
	Environment string
	LogLevel    string
	Server      ServerConfig
	StoreDriver string
	Mysql       MysqlConfig
	Marketplace MarketplaceConfig
	Media       MediaConfig
	TelegramBot TelegramBotConfig
}

type ServerConfig struct {
	Port string
}

type MysqlConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	Database string
}

type MarketplaceConfig struct {
	Endpoints    []string
	ImageHost    string
	Origin       string
	UserAgent    string
	Timeout      time.Duration
	VerifyImages bool
}

type MediaConfig struct {
	UploadDir     string
	PublicBaseUrl string
	Timeout       time.Duration
	Workers       int
}

type TelegramBotConfig struct {
	ChatId string
	Token  string
}

const (
	StoreDriverMysql  = "mysql"
	StoreDriverMemory = "memory"
)

// DefaultEndpoints are card API templates in order of preference; %d is the product id.
var DefaultEndpoints = []string{
	"https://card.wb.ru/cards/v4/detail?appType=1&curr=rub&dest=-1257786&spp=30&nm=%d",
	"https://card.wb.ru/cards/v2/detail?appType=1&curr=rub&dest=-1257786&spp=30&nm=%d",
	"https://card.wb.ru/cards/v1/detail?appType=1&curr=rub&dest=-1257786&nm=%d",
	"https://card.wb.ru/cards/detail?appType=1&curr=rub&dest=-1257786&nm=%d",
}

const (
	DefaultImageHost = "https://basket-%s.wbbasket.ru"
	DefaultOrigin    = "https://www.wildberries.ru"
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36"
)
