package config

import (
	"time"
)

type MQTTConfig struct {
	Broker         string        `yaml:"broker"`
	ClientID       string        `yaml:"client_id"`
	Username       string        `yaml:"username"`
	Password       string        `yaml:"password"`
	CertPath       string        `yaml:"cert_path"`
	KeyPath        string        `yaml:"key_path"`
	RootCAPath     string        `yaml:"root_ca_path"`
	AlertTopic     string        `yaml:"alert_topic"`
	ProfileTopic   string        `yaml:"profile_topic"`
	DashboardTopic string        `yaml:"dashboard_topic"`
	AckTopic       string        `yaml:"ack_topic"`
	QoS            int           `yaml:"qos"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	PublishTimeout time.Duration `yaml:"publish_timeout"`
}

func loadMQTTConfig() *MQTTConfig {
	return &MQTTConfig{
		Broker:         getEnv("MQTT_BROKER", "tls://localhost:8883"),
		ClientID:       getEnv("MQTT_CLIENT_ID", "drowsyguard-processor"),
		Username:       getEnv("MQTT_USERNAME", ""),
		Password:       getEnv("MQTT_PASSWORD", ""),
		CertPath:       getEnv("MQTT_CERT_PATH", ""),
		KeyPath:        getEnv("MQTT_KEY_PATH", ""),
		RootCAPath:     getEnv("MQTT_ROOT_CA_PATH", ""),
		AlertTopic:     getEnv("MQTT_ALERT_TOPIC", "vehicle/alerts/drowsiness"),
		ProfileTopic:   getEnv("MQTT_PROFILE_TOPIC", "vehicle/driver/profile"),
		DashboardTopic: getEnv("MQTT_DASHBOARD_TOPIC", "ambulance/alerts/drowsiness"),
		AckTopic:       getEnv("MQTT_ACK_TOPIC", "vehicle/alerts/drowsiness/ack"),
		QoS:            getEnvAsInt("MQTT_QOS", 1),
		ConnectTimeout: getEnvAsDuration("MQTT_CONNECT_TIMEOUT", 10*time.Second),
		PublishTimeout: getEnvAsDuration("MQTT_PUBLISH_TIMEOUT", 5*time.Second),
	}
}
