// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/relabs-tech/camera_gimbal/internal/sensors"
)

// Config holds all application configuration values.
type Config struct {
	// IMU Hardware
	I2CBus            string
	IMUI2CAddr        uint16
	IMUPowerReg       byte
	IMUSampleInterval int // milliseconds
	MockIMU           bool

	// Calibration
	CalibrationPitchSamples int
	CalibrationRollSamples  int
	CalibrationGyroSamples  int
	CalibrationAllGyroAxes  bool
	CalibrationSampleDelay  int // milliseconds
	CalibrationSettleDelay  int // milliseconds, "hold level" wait before sampling

	// Motors (pins are periph names, e.g. "GPIO21")
	PitchMotorPinA   string
	PitchMotorPinB   string
	PitchMotorFreqHz int
	RollMotorPinA    string
	RollMotorPinB    string
	RollMotorFreqHz  int
	YawMotorPinA     string
	YawMotorPinB     string
	YawMotorFreqHz   int
	PWMResolution    int // bits

	// Control loop
	ControlPeriod        int // milliseconds
	ControlTarget        int // degrees
	ControlThreshold     int
	ControlGain          int
	ControlPositiveDuty  [2]int // A,B
	ControlPositiveDwell int    // milliseconds
	ControlNegativeDuty  [2]int // A,B
	ControlNegativeDwell int    // milliseconds
	ControlSettleDwell   int    // milliseconds

	// MQTT
	MQTTBroker          string
	MQTTClientIDGimbal  string
	MQTTClientIDConsole string

	// Topics
	TopicTelemetry string
	TopicPitch     string

	// Web Server
	WebServerPort int

	// Serial console mirror, empty port disables it
	SerialPort     string
	SerialBaudRate int

	// Display
	DisplayEnabled        bool
	DisplayI2CBus         string
	DisplayUpdateInterval int // milliseconds

	// Telemetry
	TelemetryQueueSize int

	// Logging
	LogLevel string
}

// Package-level unexported variables for singleton pattern:
//   - globalConfig: only reachable through InitGlobal and Get.
//   - configOnce: ensures InitGlobal() only runs once.
//   - configMu: write lock for initialization, read lock for Get().
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Default returns the configuration the gimbal was originally tuned with.
func Default() *Config {
	return &Config{
		I2CBus:            "",
		IMUI2CAddr:        sensors.DefaultAddr,
		IMUPowerReg:       sensors.RegPwrMgmt1,
		IMUSampleInterval: 100,

		CalibrationPitchSamples: 200,
		CalibrationRollSamples:  500,
		CalibrationGyroSamples:  200,
		CalibrationSettleDelay:  1000,

		PitchMotorPinA:   "GPIO21",
		PitchMotorPinB:   "GPIO13",
		PitchMotorFreqHz: 16000,
		RollMotorPinA:    "GPIO12",
		RollMotorPinB:    "GPIO27",
		RollMotorFreqHz:  16000,
		YawMotorPinA:     "GPIO26",
		YawMotorPinB:     "GPIO16",
		YawMotorFreqHz:   1000,
		PWMResolution:    8,

		ControlPeriod:        300,
		ControlTarget:        0,
		ControlThreshold:     10,
		ControlGain:          10,
		ControlPositiveDuty:  [2]int{0, 50},
		ControlPositiveDwell: 60,
		ControlNegativeDuty:  [2]int{25, 0},
		ControlNegativeDwell: 100,
		ControlSettleDwell:   100,

		MQTTBroker:          "tcp://localhost:1883",
		MQTTClientIDGimbal:  "camera-gimbal",
		MQTTClientIDConsole: "camera-gimbal-console",
		TopicTelemetry:      "gimbal/telemetry",
		TopicPitch:          "gimbal/pitch",

		WebServerPort: 8080,

		SerialBaudRate: 115200,

		DisplayI2CBus:         "",
		DisplayUpdateInterval: 600,

		TelemetryQueueSize: 16,

		LogLevel: "info",
	}
}

// Load reads the configuration file and returns a Config struct.
// Keys missing from the file keep their Default() value.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()
	return Parse(file)
}

// Parse reads KEY=VALUE lines from r.
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	scanner := bufio.NewScanner(r)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	var err error
	switch key {
	// IMU Hardware
	case "I2C_BUS":
		c.I2CBus = value
	case "IMU_I2C_ADDR":
		addr, perr := strconv.ParseUint(value, 0, 16)
		if perr != nil {
			return fmt.Errorf("invalid IMU_I2C_ADDR %q: %w", value, perr)
		}
		if a := uint16(addr); a != sensors.DefaultAddr && a != sensors.AltAddr {
			return fmt.Errorf("IMU_I2C_ADDR must be 0x%02X or 0x%02X, got 0x%02X", sensors.DefaultAddr, sensors.AltAddr, addr)
		}
		c.IMUI2CAddr = uint16(addr)
	case "IMU_PWR_MGMT_REG":
		reg, perr := strconv.ParseUint(value, 0, 8)
		if perr != nil {
			return fmt.Errorf("invalid IMU_PWR_MGMT_REG %q: %w", value, perr)
		}
		c.IMUPowerReg = byte(reg)
	case "IMU_SAMPLE_INTERVAL":
		c.IMUSampleInterval, err = intInRange(key, value, 1, 60000)
	case "MOCK_IMU":
		c.MockIMU, err = boolValue(key, value)

	// Calibration
	case "CALIBRATION_PITCH_SAMPLES":
		c.CalibrationPitchSamples, err = intInRange(key, value, 0, 65535)
	case "CALIBRATION_ROLL_SAMPLES":
		c.CalibrationRollSamples, err = intInRange(key, value, 0, 65535)
	case "CALIBRATION_GYRO_SAMPLES":
		c.CalibrationGyroSamples, err = intInRange(key, value, 0, 65535)
	case "CALIBRATION_ALL_GYRO_AXES":
		c.CalibrationAllGyroAxes, err = boolValue(key, value)
	case "CALIBRATION_SAMPLE_DELAY":
		c.CalibrationSampleDelay, err = intInRange(key, value, 0, 1000)
	case "CALIBRATION_SETTLE_DELAY":
		c.CalibrationSettleDelay, err = intInRange(key, value, 0, 60000)

	// Motors
	case "PITCH_MOTOR_IN1_PIN":
		c.PitchMotorPinA = value
	case "PITCH_MOTOR_IN2_PIN":
		c.PitchMotorPinB = value
	case "PITCH_MOTOR_FREQ":
		c.PitchMotorFreqHz, err = intInRange(key, value, 1, 1000000)
	case "ROLL_MOTOR_IN1_PIN":
		c.RollMotorPinA = value
	case "ROLL_MOTOR_IN2_PIN":
		c.RollMotorPinB = value
	case "ROLL_MOTOR_FREQ":
		c.RollMotorFreqHz, err = intInRange(key, value, 1, 1000000)
	case "YAW_MOTOR_IN1_PIN":
		c.YawMotorPinA = value
	case "YAW_MOTOR_IN2_PIN":
		c.YawMotorPinB = value
	case "YAW_MOTOR_FREQ":
		c.YawMotorFreqHz, err = intInRange(key, value, 1, 1000000)
	case "PWM_RESOLUTION_BITS":
		c.PWMResolution, err = intInRange(key, value, 1, 16)

	// Control loop
	case "CONTROL_PERIOD":
		c.ControlPeriod, err = intInRange(key, value, 1, 60000)
	case "CONTROL_TARGET":
		c.ControlTarget, err = intInRange(key, value, -90, 90)
	case "CONTROL_THRESHOLD":
		c.ControlThreshold, err = intInRange(key, value, 0, 180)
	case "CONTROL_GAIN":
		c.ControlGain, err = intInRange(key, value, 0, 1000)
	case "CONTROL_POSITIVE_DUTY":
		c.ControlPositiveDuty, err = dutyPair(key, value)
	case "CONTROL_POSITIVE_DWELL":
		c.ControlPositiveDwell, err = intInRange(key, value, 0, 60000)
	case "CONTROL_NEGATIVE_DUTY":
		c.ControlNegativeDuty, err = dutyPair(key, value)
	case "CONTROL_NEGATIVE_DWELL":
		c.ControlNegativeDwell, err = intInRange(key, value, 0, 60000)
	case "CONTROL_SETTLE_DWELL":
		c.ControlSettleDwell, err = intInRange(key, value, 0, 60000)

	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_GIMBAL":
		c.MQTTClientIDGimbal = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value

	// Topics
	case "TOPIC_TELEMETRY":
		c.TopicTelemetry = value
	case "TOPIC_PITCH":
		c.TopicPitch = value

	// Web Server
	case "WEB_SERVER_PORT":
		c.WebServerPort, err = intInRange(key, value, 0, 65535)

	// Serial
	case "SERIAL_PORT":
		c.SerialPort = value
	case "SERIAL_BAUD_RATE":
		c.SerialBaudRate, err = intInRange(key, value, 1, 4000000)

	// Display
	case "DISPLAY_ENABLED":
		c.DisplayEnabled, err = boolValue(key, value)
	case "DISPLAY_I2C_BUS":
		c.DisplayI2CBus = value
	case "DISPLAY_UPDATE_INTERVAL":
		c.DisplayUpdateInterval, err = intInRange(key, value, 10, 60000)

	// Telemetry
	case "TELEMETRY_QUEUE_SIZE":
		c.TelemetryQueueSize, err = intInRange(key, value, 1, 4096)

	// Logging
	case "LOG_LEVEL":
		c.LogLevel = strings.ToLower(value)

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return err
}

func intInRange(key, value string, lo, hi int) (int, error) {
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if v < lo || v > hi {
		return 0, fmt.Errorf("%s must be %d-%d, got %d", key, lo, hi, v)
	}
	return v, nil
}

func boolValue(key, value string) (bool, error) {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return b, nil
}

// dutyPair parses "A,B". At least one side must be zero so the bridge is
// never driven from both inputs at once.
func dutyPair(key, value string) ([2]int, error) {
	parts := strings.Split(value, ",")
	if len(parts) != 2 {
		return [2]int{}, fmt.Errorf("%s must be two comma separated duties, got %q", key, value)
	}
	var out [2]int
	for i, p := range parts {
		v, err := intInRange(key, strings.TrimSpace(p), 0, 65535)
		if err != nil {
			return [2]int{}, err
		}
		out[i] = v
	}
	if out[0] != 0 && out[1] != 0 {
		return [2]int{}, fmt.Errorf("%s must keep one side at 0, got %d,%d", key, out[0], out[1])
	}
	return out, nil
}

// validate checks that all required fields are set and consistent.
func (c *Config) validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	if c.TopicTelemetry == "" || c.TopicPitch == "" {
		return fmt.Errorf("TOPIC_TELEMETRY and TOPIC_PITCH are required")
	}
	if c.PitchMotorPinA == "" || c.PitchMotorPinB == "" {
		return fmt.Errorf("PITCH_MOTOR_IN1_PIN and PITCH_MOTOR_IN2_PIN are required")
	}
	pins := map[string]string{}
	for _, p := range []struct{ key, pin string }{
		{"PITCH_MOTOR_IN1_PIN", c.PitchMotorPinA},
		{"PITCH_MOTOR_IN2_PIN", c.PitchMotorPinB},
		{"ROLL_MOTOR_IN1_PIN", c.RollMotorPinA},
		{"ROLL_MOTOR_IN2_PIN", c.RollMotorPinB},
		{"YAW_MOTOR_IN1_PIN", c.YawMotorPinA},
		{"YAW_MOTOR_IN2_PIN", c.YawMotorPinB},
	} {
		if p.pin == "" {
			continue
		}
		if prev, ok := pins[p.pin]; ok {
			return fmt.Errorf("%s and %s both use pin %s", prev, p.key, p.pin)
		}
		pins[p.pin] = p.key
	}
	maxDuty := 1<<c.PWMResolution - 1
	for _, d := range [][2]int{c.ControlPositiveDuty, c.ControlNegativeDuty} {
		if d[0] > maxDuty || d[1] > maxDuty {
			return fmt.Errorf("control duty %d,%d exceeds %d-bit resolution", d[0], d[1], c.PWMResolution)
		}
	}
	if c.CalibrationPitchSamples == 0 && c.CalibrationRollSamples == 0 && c.CalibrationGyroSamples == 0 {
		return fmt.Errorf("at least one CALIBRATION_*_SAMPLES must be non-zero")
	}
	switch c.LogLevel {
	case "trace", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("LOG_LEVEL %q is not one of trace, debug, info, warn, error", c.LogLevel)
	}
	return nil
}

// InitGlobal initializes the global configuration from file.
// Uses sync.Once to ensure this only runs once, even if called multiple times.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
