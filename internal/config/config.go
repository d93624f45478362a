package config

import (
	"flag"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env       string `yaml:"env" env:"ENV" env-default:"local" env-description:"Environment" env-choices:"local,dev,prod"`
	VaultCash int64  `yaml:"vault_cash" env:"VAULT_CASH" env-default:"10000" env-description:"Whole dollars loaded into the machine at startup"`
}

func MustLoad() *Config {
	var cfg Config

	path := fetchConfigPath()
	if path == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			panic("Failed to read config from environment: " + err.Error())
		}
		return &cfg
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		panic("config file does not exist: " + path)
	}

	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		panic("Failed to read config" + err.Error())
	}

	return &cfg
}

func fetchConfigPath() string {
	var res string

	flag.StringVar(&res, "config", "", "path to config file")
	flag.Parse()

	if res == "" {
		res = os.Getenv("CONFIG_PATH")
	}

	return res
}
