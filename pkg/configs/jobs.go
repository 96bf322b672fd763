package configs

import "github.com/spf13/viper"

// JobsConfig 定时任务配置，cron 为空表示禁用该任务.
type JobsConfig struct {
	Enabled               bool   `mapstructure:"enabled"`
	StatsReportCron       string `mapstructure:"stats_report_cron"`
	CapabilityRefreshCron string `mapstructure:"capability_refresh_cron"`
}

func (c *JobsConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("jobs.enabled", true)
	v.SetDefault("jobs.stats_report_cron", "0 */6 * * *")
	v.SetDefault("jobs.capability_refresh_cron", "15 * * * *")
}
