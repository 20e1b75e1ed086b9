/*
Package config loads the actuatorprobe configuration.

Sources are applied in this order, later ones winning:

	defaults (NewDefault)
	YAML file (LoadFromFile)
	ACTUATORPROBE_* environment variables (LoadFromEnv)
	command line flags, applied by the CLI

# Configuration File

	event:
	  name: afterburner
	  enabled: true
	  tags: perf,nightly
	  actuator_base_url: http://localhost:8080/actuator
	  actuator_env_properties: java.runtime.version,JAVA_OPTS
	  dump_path: /var/tmp/dumps
	  actuator_prop_prefix: actuator   # deprecated, only used as tag
	  test_run_id: ""                  # generated when empty

	transport:
	  connect_timeout: 2s
	  read_timeout: 5s
	  write_timeout: 5s

	retry:
	  max_retries: 2
	  delay: 2s

	logging:
	  level: INFO     # DEBUG, INFO, WARN, ERROR
	  format: text    # text or json

	metrics:
	  enabled: false
	  address: :9090
	  path: /metrics

	mirror:
	  enabled: false
	  bucket: perf-dumps

The mirror section is described in package storage/s3.

# Environment Variables

	ACTUATORPROBE_EVENT_NAME              event.name
	ACTUATORPROBE_EVENT_ENABLED           event.enabled
	ACTUATORPROBE_TAGS                    event.tags
	ACTUATORPROBE_ACTUATOR_BASE_URL       event.actuator_base_url
	ACTUATORPROBE_ACTUATOR_ENV_PROPERTIES event.actuator_env_properties
	ACTUATORPROBE_DUMP_PATH               event.dump_path
	ACTUATORPROBE_ACTUATOR_PROP_PREFIX    event.actuator_prop_prefix
	ACTUATORPROBE_TEST_RUN_ID             event.test_run_id
	ACTUATORPROBE_CONNECT_TIMEOUT         transport.connect_timeout
	ACTUATORPROBE_READ_TIMEOUT            transport.read_timeout
	ACTUATORPROBE_WRITE_TIMEOUT           transport.write_timeout
	ACTUATORPROBE_RETRY_MAX_RETRIES       retry.max_retries
	ACTUATORPROBE_RETRY_DELAY             retry.delay
	ACTUATORPROBE_LOG_LEVEL               logging.level
	ACTUATORPROBE_LOG_FORMAT              logging.format
	ACTUATORPROBE_METRICS_ENABLED         metrics.enabled
	ACTUATORPROBE_METRICS_ADDRESS         metrics.address
	ACTUATORPROBE_MIRROR_ENABLED          mirror.enabled
	ACTUATORPROBE_MIRROR_BUCKET           mirror.bucket
	ACTUATORPROBE_MIRROR_PREFIX           mirror.prefix
	ACTUATORPROBE_MIRROR_REGION           mirror.region
	ACTUATORPROBE_MIRROR_ENDPOINT         mirror.endpoint

Durations use Go syntax (500ms, 2s), booleans anything strconv.ParseBool
accepts. A malformed value makes LoadFromEnv fail instead of being ignored.

# Adapter Context

ToContext turns the event section into the adapter's event.Context. The
property list is split on commas with surrounding whitespace, CR, LF and
tabs removed; empty entries are dropped.
*/
package config
