// conf/defaults.go default values for settings
package conf

import (
	"time"

	"github.com/spf13/viper"
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "MSINet-Go")
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "logs/msinet.log")

	viper.SetDefault("webserver.debug", false)
	viper.SetDefault("webserver.port", "8080")
	viper.SetDefault("webserver.log.enabled", true)
	viper.SetDefault("webserver.log.path", "logs/web.log")

	viper.SetDefault("security.sessionsecret", "")
	viper.SetDefault("security.sessionduration", 7*24*time.Hour)
	viper.SetDefault("security.redirecttohttps", false)

	viper.SetDefault("model.path", "model/msinet.tflite")
	viper.SetDefault("model.labels", []string{"MSI", "MSS"})
	viper.SetDefault("model.threads", 0)
	viper.SetDefault("model.usexnnpack", false)

	viper.SetDefault("uploads.path", "uploads/")

	viper.SetDefault("output.sqlite.enabled", true)
	viper.SetDefault("output.sqlite.path", "msinet.db")
	viper.SetDefault("output.mysql.enabled", false)
	viper.SetDefault("output.mysql.username", "msinet")
	viper.SetDefault("output.mysql.password", "msinet")
	viper.SetDefault("output.mysql.database", "msinet")
	viper.SetDefault("output.mysql.host", "localhost")
	viper.SetDefault("output.mysql.port", "3306")
}
