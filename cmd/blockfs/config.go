package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/kelseyhightower/envconfig"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v2"

	"github.com/weberc2/blockfs/pkg/cache"
	"github.com/weberc2/blockfs/pkg/device"
	. "github.com/weberc2/blockfs/pkg/types"
)

const (
	envVarPrefix = "BLOCKFS"
	appName      = "blockfs"
)

type Config struct {
	Backend     string `envconfig:"BLOCKFS_BACKEND"      yaml:"backend"`
	Image       string `envconfig:"BLOCKFS_IMAGE"        yaml:"image"`
	Sectors     uint32 `envconfig:"BLOCKFS_SECTORS"      yaml:"sectors"`
	CacheBlocks int    `envconfig:"BLOCKFS_CACHE_BLOCKS" yaml:"cacheBlocks"`
	S3Bucket    string `envconfig:"BLOCKFS_S3_BUCKET"    yaml:"s3Bucket"`
	S3Prefix    string `envconfig:"BLOCKFS_S3_PREFIX"    yaml:"s3Prefix"`
}

// LoadConfig layers the config file, then environment variables, then
// flags, and finally fills anything still unset with defaults.
func LoadConfig(ctx *cli.Context) (*Config, error) {
	configFile := ctx.String("config")
	if configFile == "" {
		configFile = os.Getenv(envVarPrefix + "_CONFIG_FILE")
	}
	if configFile == "" {
		configFile = filepath.Join(
			os.Getenv("HOME"),
			".config",
			appName+".yaml",
		)
	}

	var c Config
	data, err := os.ReadFile(configFile)
	if err == nil {
		if err := yaml.UnmarshalStrict(data, &c); err != nil {
			return nil, fmt.Errorf("unmarshaling config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := envconfig.Process(envVarPrefix, &c); err != nil {
		return nil, fmt.Errorf("parsing environment variables: %w", err)
	}

	if image := ctx.String("image"); image != "" {
		c.Image = image
	}

	if c.Backend == "" {
		c.Backend = "file"
	}
	if c.Sectors == 0 {
		c.Sectors = 4096
	}
	if c.CacheBlocks == 0 {
		c.CacheBlocks = cache.DefaultCapacity
	}

	return &c, nil
}

func (c *Config) Validate() error {
	if y, e := func() (string, string) {
		if c.Backend != "file" && c.Backend != "s3" && c.Backend != "pg" {
			return "backend", "BACKEND"
		}
		if c.Backend == "file" && c.Image == "" {
			return "image", "IMAGE"
		}
		if c.Backend == "s3" && c.S3Bucket == "" {
			return "s3Bucket", "S3_BUCKET"
		}
		return "", ""
	}(); y != "" {
		return fmt.Errorf(
			"missing or invalid configuration: %s / %s_%s",
			y,
			envVarPrefix,
			e,
		)
	}
	return nil
}

// openDevice builds the configured backend. mkfs passes create=true so
// backends that distinguish creating a volume from opening one can
// initialize themselves.
func (c *Config) openDevice(create bool) (device.Device, error) {
	switch c.Backend {
	case "file":
		if create {
			return device.CreateFileDevice(c.Image, Sector(c.Sectors))
		}
		return device.OpenFileDevice(c.Image)
	case "s3":
		sess, err := session.NewSession()
		if err != nil {
			return nil, fmt.Errorf("creating AWS session: %w", err)
		}
		return &device.S3Device{
			Client:  s3.New(sess),
			Bucket:  c.S3Bucket,
			Prefix:  c.S3Prefix,
			Sectors: Sector(c.Sectors),
		}, nil
	case "pg":
		dev, err := device.OpenEnv(Sector(c.Sectors))
		if err != nil {
			return nil, fmt.Errorf("opening postgres device: %w", err)
		}
		if create {
			if err := dev.EnsureTable(); err != nil {
				return nil, fmt.Errorf("ensuring sectors table: %w", err)
			}
		}
		return dev, nil
	default:
		return nil, fmt.Errorf("unknown backend `%s`", c.Backend)
	}
}
