package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// GovernanceConfig holds tenant-governance policy knobs that product can tune
// without a redeploy.
type GovernanceConfig struct {
	TrialDays         int    `mapstructure:"trialDays"`
	LoginRatePerMin   int    `mapstructure:"loginRatePerMin"`
	LoginBurst        int    `mapstructure:"loginBurst"`
	ReceiptFooterNote string `mapstructure:"receiptFooterNote"`
}

// DefaultGovernanceConfig returns the built-in policy.
func DefaultGovernanceConfig() GovernanceConfig {
	return GovernanceConfig{
		TrialDays:         7,
		LoginRatePerMin:   10,
		LoginBurst:        5,
		ReceiptFooterNote: "Thank you for training with us.",
	}
}

// GovernanceHolder exposes the current governance policy; the backing file is
// hot-reloaded so a policy change takes effect on the next read.
type GovernanceHolder struct {
	current atomic.Value // holds GovernanceConfig
}

// NewGovernanceHolder loads governance.yml and watches it for changes.
func NewGovernanceHolder() (*GovernanceHolder, error) {
	v := viper.New()

	v.SetConfigName("governance")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/clubcore/config")
	v.AddConfigPath("/etc/clubcore")
	v.AddConfigPath(".")

	v.SetEnvPrefix("CLUBCORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultGovernanceConfig()
	v.SetDefault("governance.trialDays", defaults.TrialDays)
	v.SetDefault("governance.loginRatePerMin", defaults.LoginRatePerMin)
	v.SetDefault("governance.loginBurst", defaults.LoginBurst)
	v.SetDefault("governance.receiptFooterNote", defaults.ReceiptFooterNote)

	fileFound := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		fileFound = false
	}

	var cfg GovernanceConfig
	if err := v.UnmarshalKey("governance", &cfg); err != nil {
		return nil, err
	}
	if err := validateGovernanceConfig(cfg); err != nil {
		return nil, err
	}

	holder := &GovernanceHolder{}
	holder.current.Store(cfg)

	if fileFound {
		v.WatchConfig()
		v.OnConfigChange(func(e fsnotify.Event) {
			var updated GovernanceConfig
			if err := v.UnmarshalKey("governance", &updated); err != nil {
				log.Printf("[governance-config] reload failed: %v", err)
				return
			}
			if err := validateGovernanceConfig(updated); err != nil {
				log.Printf("[governance-config] invalid config ignored: %v", err)
				return
			}
			holder.current.Store(updated)
			log.Printf("[governance-config] reloaded from %s", e.Name)
		})
	}

	return holder, nil
}

// Get returns the current governance policy.
func (h *GovernanceHolder) Get() GovernanceConfig {
	return h.current.Load().(GovernanceConfig)
}

// StaticGovernance pins the holder to a fixed policy with no file watching.
func StaticGovernance(cfg GovernanceConfig) *GovernanceHolder {
	holder := &GovernanceHolder{}
	holder.current.Store(cfg)
	return holder
}

func validateGovernanceConfig(cfg GovernanceConfig) error {
	if cfg.TrialDays < 1 {
		return errors.New("governance.trialDays must be at least 1")
	}
	if cfg.LoginRatePerMin < 1 {
		return errors.New("governance.loginRatePerMin must be at least 1")
	}
	if cfg.LoginBurst < 1 {
		return errors.New("governance.loginBurst must be at least 1")
	}
	return nil
}
