package config

type NotificationConfig struct {
	Enabled            bool   `yaml:"enabled"`
	AWSRegion          string `yaml:"aws_region"`
	EscalationTopicARN string `yaml:"escalation_topic_arn"`
	SMSEnabled         bool   `yaml:"sms_enabled"`
}

func loadNotificationConfig() *NotificationConfig {
	return &NotificationConfig{
		Enabled:            getEnvAsBool("NOTIFICATION_ENABLED", false),
		AWSRegion:          getEnv("AWS_REGION", "us-east-1"),
		EscalationTopicARN: getEnv("SNS_ESCALATION_TOPIC_ARN", ""),
		SMSEnabled:         getEnvAsBool("NOTIFICATION_SMS_ENABLED", false),
	}
}
