package config

import (
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	log "github.com/sirupsen/logrus"
)

type Application struct {
	Host     string   `koanf:"host"`
	Database Database `koanf:"db"`
	Redis    Redis    `koanf:"redis"`
	Fx       Fx       `koanf:"fx"`
	Rollover Rollover `koanf:"rollover"`
}

type Database struct {
	Host   string `koanf:"host"`
	Port   int    `koanf:"port"`
	User   string `koanf:"user"`
	Pass   string `koanf:"pass"`
	Name   string `koanf:"name"`
	Schema string `koanf:"schema"`
}

type Redis struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`
	Pass    string `koanf:"pass"`
	Db      int    `koanf:"db"`
}

type Fx struct {
	// UsdKrw is the static exchange rate (KRW major units per 1 USD) used when
	// a request does not carry its own rate. Zero disables conversion.
	UsdKrw float64 `koanf:"usdkrw"`
	// CacheTtlSeconds bounds how long a rate stays in the Redis cache.
	CacheTtlSeconds int `koanf:"cachettlseconds"`
}

type Rollover struct {
	// IntervalMinutes is how often the background job rolls every user's
	// active plan forward. Zero disables the job.
	IntervalMinutes int `koanf:"intervalminutes"`
}

func Load(path string) (Application, error) {
	var k = koanf.New(".")

	err := k.Load(structs.Provider(Application{
		Host: "http://localhost:8080",
		Database: Database{
			Host:   "localhost",
			Port:   5432,
			User:   "finplan",
			Pass:   "",
			Name:   "finplan",
			Schema: "finplan",
		},
		Redis: Redis{
			Addr: "localhost:6379",
		},
		Fx: Fx{
			CacheTtlSeconds: 3600,
		},
		Rollover: Rollover{
			IntervalMinutes: 60,
		},
	}, "koanf"), nil)
	if err != nil {
		log.Errorf("error loading config from structs: %v", err)
		return Application{}, err
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if os.IsNotExist(err) {
			log.Infof("Config file not found at %s, using defaults and environment variables", path)
		} else {
			log.Errorf("error loading config from YAML: %v", err)
			return Application{}, err
		}
	} else {
		log.Infof("Loaded configuration from file: %s", path)
	}

	err = k.Load(env.Provider(".", env.Opt{
		Prefix: "FINPLAN_",
		TransformFunc: func(k, v string) (string, any) {
			k = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(k, "FINPLAN_")), "_", ".")
			return k, v
		},
	}), nil)
	if err != nil {
		log.Errorf("error loading config from envs: %v", err)
		return Application{}, err
	}

	var app Application
	if err := k.Unmarshal("", &app); err != nil {
		return Application{}, err
	}

	return app, nil
}
