// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package config

import (
	"strconv"
	"strings"

	"github.com/henskjold73/hydropi/iso"
)

// EnvPrefix is the prefix of every recognized environment variable.
const EnvPrefix = "HYDROPI_"

// applyEnv overrides settings from KEY=VALUE pairs. Unknown HYDROPI_
// variables are ignored.
func (c *Config) applyEnv(environ []string) error {
	for _, env := range environ {
		idx := strings.IndexByte(env, '=')
		if idx < 0 {
			continue
		}
		key, val := env[:idx], env[idx+1:]
		if !strings.HasPrefix(key, EnvPrefix) {
			continue
		}

		var err error
		switch key {
		case "HYDROPI_SCAN_SOURCE":
			c.Scan.Source = strings.ToLower(val)

		case "HYDROPI_SCAN_WINDOW":
			err = parseDuration(key, val, &c.Scan.Window)

		case "HYDROPI_SCAN_INTERVAL":
			err = parseDuration(key, val, &c.Scan.Interval)

		case "HYDROPI_REPLAY_FILE":
			c.Scan.ReplayFile = val

		case "HYDROPI_MANUFACTURER_ID":
			var id uint64
			id, err = strconv.ParseUint(val, 0, 16)
			if err != nil {
				err = &EnvError{Key: key, Err: err}
			}
			c.Scan.ManufacturerID = uint16(id)

		case "HYDROPI_DELIVERY_URL":
			c.Delivery.URL = val

		case "HYDROPI_TENANT_ID":
			c.Delivery.TenantID = val

		case "HYDROPI_API_KEY":
			c.Delivery.APIKey = val

		case "HYDROPI_API_KEY_HEADER":
			c.Delivery.APIKeyHeader = val

		case "HYDROPI_RESEND_AFTER":
			err = parseDuration(key, val, &c.Delivery.ResendAfter)

		case "HYDROPI_DELIVERY_TIMEOUT":
			err = parseDuration(key, val, &c.Delivery.Timeout)

		case "HYDROPI_DELIVERY_ATTEMPTS":
			c.Delivery.Attempts, err = strconv.ParseUint(val, 10, 32)
			if err != nil {
				err = &EnvError{Key: key, Err: err}
			}

		case "HYDROPI_STATE_DIR":
			c.State.Dir = val

		case "HYDROPI_STATUS_ADDR":
			c.Status.Addr = val

		case "HYDROPI_MQTT_BROKER":
			c.MQTT.Broker = val

		case "HYDROPI_MQTT_TOPIC":
			c.MQTT.Topic = val

		case "HYDROPI_LOG_LEVEL":
			c.Log.Level = val
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func parseDuration(key, val string, d *iso.Duration) error {
	if err := d.UnmarshalText([]byte(val)); err != nil {
		return &EnvError{Key: key, Err: err}
	}
	return nil
}
