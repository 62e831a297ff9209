// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import "fmt"

// MPU-6050 registers used by the gimbal.
const (
	RegAccelXOutH byte = 0x3B
	RegGyroXOutH  byte = 0x43
	RegGyroYOutH  byte = 0x45
	RegGyroZOutH  byte = 0x47
	RegPwrMgmt1   byte = 0x6B
	RegWhoAmI     byte = 0x75

	// DefaultAddr is the address with AD0 low; AltAddr with AD0 high.
	DefaultAddr uint16 = 0x68
	AltAddr     uint16 = 0x69

	// WhoAmIValue is what RegWhoAmI returns on a genuine part.
	WhoAmIValue byte = 0x68

	// AccelCountsPerG at the power-on ±2g range.
	AccelCountsPerG = 16384
	// GyroCountsPerDPS at the power-on ±250°/s range.
	GyroCountsPerDPS = 131
)

// BitField describes a bit range within a register.
type BitField struct {
	Bits        string `json:"bits"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Values      string `json:"values,omitempty"`
}

// RegisterInfo is static metadata for one register.
type RegisterInfo struct {
	Address     byte       `json:"address"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Access      string     `json:"access"` // "R", "W", "RW"
	Default     byte       `json:"default"`
	BitFields   []BitField `json:"bit_fields,omitempty"`
}

var registerMap = []RegisterInfo{
	{Address: RegAccelXOutH, Name: "ACCEL_XOUT_H", Description: "Accelerometer X high byte, followed by X low, Y and Z", Access: "R",
		BitFields: []BitField{
			{Bits: "7:0", Name: "ACCEL_XOUT[15:8]", Description: "X-axis accel high byte", Values: "16384 LSB/g at ±2g"},
		}},
	{Address: RegGyroXOutH, Name: "GYRO_XOUT_H", Description: "Gyroscope X (roll) high byte", Access: "R",
		BitFields: []BitField{
			{Bits: "7:0", Name: "GYRO_XOUT[15:8]", Description: "X-axis rate high byte", Values: "131 LSB/(°/s) at ±250°/s"},
		}},
	{Address: RegGyroYOutH, Name: "GYRO_YOUT_H", Description: "Gyroscope Y (pitch) high byte", Access: "R",
		BitFields: []BitField{
			{Bits: "7:0", Name: "GYRO_YOUT[15:8]", Description: "Y-axis rate high byte", Values: "131 LSB/(°/s) at ±250°/s"},
		}},
	{Address: RegGyroZOutH, Name: "GYRO_ZOUT_H", Description: "Gyroscope Z (yaw) high byte", Access: "R",
		BitFields: []BitField{
			{Bits: "7:0", Name: "GYRO_ZOUT[15:8]", Description: "Z-axis rate high byte", Values: "131 LSB/(°/s) at ±250°/s"},
		}},
	{Address: RegPwrMgmt1, Name: "PWR_MGMT_1", Description: "Power management 1", Access: "RW", Default: 0x40,
		BitFields: []BitField{
			{Bits: "7", Name: "DEVICE_RESET", Description: "Reset all registers", Values: "1=Reset"},
			{Bits: "6", Name: "SLEEP", Description: "Sleep mode", Values: "0=Awake, 1=Sleep"},
			{Bits: "2:0", Name: "CLKSEL", Description: "Clock source", Values: "0=Internal 8MHz, 1=PLL gyro X"},
		}},
	{Address: RegWhoAmI, Name: "WHO_AM_I", Description: "Device identity", Access: "R", Default: WhoAmIValue,
		BitFields: []BitField{
			{Bits: "6:1", Name: "WHO_AM_I", Description: "Upper 6 bits of the 7-bit address", Values: "0x68"},
		}},
}

// Registers returns the register metadata table.
func Registers() []RegisterInfo {
	out := make([]RegisterInfo, len(registerMap))
	copy(out, registerMap)
	return out
}

// RegisterName returns the datasheet name for addr, or its hex form.
func RegisterName(addr byte) string {
	for _, r := range registerMap {
		if r.Address == addr {
			return r.Name
		}
	}
	return fmt.Sprintf("0x%02X", addr)
}
