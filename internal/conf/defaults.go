// conf/defaults.go default values for settings
package conf

import (
	"time"

	"github.com/spf13/viper"
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "AudioFeed")
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "audiofeed.log")
	viper.SetDefault("main.log.rotation", RotationDaily)
	viper.SetDefault("main.log.maxsize", 1048576)
	viper.SetDefault("main.log.rotationday", time.Sunday)

	viper.SetDefault("feed.debug", false)
	viper.SetDefault("feed.transferbuffersize", 4096)
	viper.SetDefault("feed.iotimeoutms", 20)
	viper.SetDefault("feed.maxnodatareads", 50)

	viper.SetDefault("feed.network.maxredirects", 10)
	viper.SetDefault("feed.network.connecttimeoutms", 5000)
	viper.SetDefault("feed.network.readtimeoutms", 10)
	viper.SetDefault("feed.network.useragent", "AudioFeed")
	viper.SetDefault("feed.network.insecuretls", false)

	viper.SetDefault("feed.output.ringcapacity", 65536)

	viper.SetDefault("metrics.enabled", false)
	viper.SetDefault("metrics.listen", "0.0.0.0:8090")
	viper.SetDefault("metrics.debug", false)
}
