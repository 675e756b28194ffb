// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import "fmt"

// MPU6886 register addresses.
const (
	RegSmplrtDiv    byte = 0x19
	RegConfig       byte = 0x1A
	RegGyroConfig   byte = 0x1B
	RegAccelConfig  byte = 0x1C
	RegAccelConfig2 byte = 0x1D
	RegFIFOEn       byte = 0x23
	RegIntPinCfg    byte = 0x37
	RegIntEnable    byte = 0x38
	RegIntStatus    byte = 0x3A
	RegAccelXoutH   byte = 0x3B
	RegTempOutH     byte = 0x41
	RegGyroXoutH    byte = 0x43
	RegUserCtrl     byte = 0x6A
	RegPwrMgmt1     byte = 0x6B
	RegPwrMgmt2     byte = 0x6C
	RegWhoAmI       byte = 0x75
)

// Gyro full-scale selections, GYRO_CONFIG[4:3].
const (
	GFS250DPS byte = iota
	GFS500DPS
	GFS1000DPS
	GFS2000DPS
)

// Accel full-scale selections, ACCEL_CONFIG[4:3].
const (
	AFS2G byte = iota
	AFS4G
	AFS8G
	AFS16G
)

// WhoAmIMPU6886 is the WHO_AM_I value of a genuine MPU6886.
const WhoAmIMPU6886 byte = 0x19

// BitField describes one field inside a register.
type BitField struct {
	Bits        string `json:"bits"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Values      string `json:"values,omitempty"`
}

// RegisterInfo is register metadata served by the register debug tool.
type RegisterInfo struct {
	Address     byte       `json:"-"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Access      string     `json:"access"` // "R", "W", "RW"
	Default     byte       `json:"-"`
	BitFields   []BitField `json:"bit_fields,omitempty"`
}

// Writable reports whether the register accepts writes.
func (r RegisterInfo) Writable() bool {
	return r.Access == "RW" || r.Access == "W"
}

var mpu6886RegisterMap = []RegisterInfo{
	// Configuration
	{Address: RegSmplrtDiv, Name: "SMPLRT_DIV", Description: "Sample Rate Divider", Access: "RW",
		BitFields: []BitField{
			{Bits: "7:0", Name: "SMPLRT_DIV", Description: "Sample Rate = Internal_Sample_Rate / (1 + SMPLRT_DIV)", Values: "0-255"},
		}},
	{Address: RegConfig, Name: "CONFIG", Description: "Configuration (gyro/temp DLPF)", Access: "RW", Default: 0x80,
		BitFields: []BitField{
			{Bits: "6", Name: "FIFO_MODE", Description: "FIFO mode", Values: "0=Overwrite, 1=Block new data"},
			{Bits: "5:3", Name: "EXT_SYNC_SET", Description: "FSYNC pin sampling", Values: "0=Disabled"},
			{Bits: "2:0", Name: "DLPF_CFG", Description: "Gyro Low Pass Filter", Values: "0=250Hz, 1=176Hz, 2=92Hz, 3=41Hz, 4=20Hz, 5=10Hz, 6=5Hz, 7=3281Hz"},
		}},
	{Address: RegGyroConfig, Name: "GYRO_CONFIG", Description: "Gyroscope Configuration", Access: "RW",
		BitFields: []BitField{
			{Bits: "7:5", Name: "XG_ST/YG_ST/ZG_ST", Description: "Gyro self-test", Values: "0=Disabled, 1=Enabled"},
			{Bits: "4:3", Name: "FS_SEL", Description: "Gyro Full Scale Range", Values: "0=±250°/s, 1=±500°/s, 2=±1000°/s, 3=±2000°/s"},
			{Bits: "1:0", Name: "FCHOICE_B", Description: "Gyro DLPF bypass", Values: "0=DLPF enabled"},
		}},
	{Address: RegAccelConfig, Name: "ACCEL_CONFIG", Description: "Accelerometer Configuration", Access: "RW",
		BitFields: []BitField{
			{Bits: "7:5", Name: "XA_ST/YA_ST/ZA_ST", Description: "Accel self-test", Values: "0=Disabled, 1=Enabled"},
			{Bits: "4:3", Name: "ACCEL_FS_SEL", Description: "Accel Full Scale Range", Values: "0=±2g, 1=±4g, 2=±8g, 3=±16g"},
		}},
	{Address: RegAccelConfig2, Name: "ACCEL_CONFIG2", Description: "Accelerometer Configuration 2", Access: "RW",
		BitFields: []BitField{
			{Bits: "5:4", Name: "DEC2_CFG", Description: "Low power averaging", Values: "0=4 samples, 1=8, 2=16, 3=32"},
			{Bits: "3", Name: "ACCEL_FCHOICE_B", Description: "Accel DLPF bypass", Values: "0=DLPF enabled, 1=Bypass"},
			{Bits: "2:0", Name: "A_DLPF_CFG", Description: "Accel Low Pass Filter", Values: "0=218Hz, 1=218Hz, 2=99Hz, 3=45Hz, 4=21Hz, 5=10Hz, 6=5Hz, 7=420Hz"},
		}},
	{Address: RegFIFOEn, Name: "FIFO_EN", Description: "FIFO Enable", Access: "RW",
		BitFields: []BitField{
			{Bits: "4", Name: "GYRO_FIFO_EN", Description: "Write gyro and temp to FIFO", Values: "0=Disabled, 1=Enabled"},
			{Bits: "3", Name: "ACC_FIFO_EN", Description: "Write accel to FIFO", Values: "0=Disabled, 1=Enabled"},
		}},

	// Interrupts
	{Address: RegIntPinCfg, Name: "INT_PIN_CFG", Description: "INT Pin Configuration", Access: "RW",
		BitFields: []BitField{
			{Bits: "7", Name: "INT_LEVEL", Description: "INT pin active low", Values: "0=Active high, 1=Active low"},
			{Bits: "6", Name: "INT_OPEN", Description: "INT pin open drain", Values: "0=Push-pull, 1=Open drain"},
			{Bits: "5", Name: "LATCH_INT_EN", Description: "Latch INT pin", Values: "0=50us pulse, 1=Latch until cleared"},
			{Bits: "4", Name: "INT_RD_CLEAR", Description: "Clear INT on any read", Values: "0=Status read only, 1=Any read"},
		}},
	{Address: RegIntEnable, Name: "INT_ENABLE", Description: "Interrupt Enable", Access: "RW",
		BitFields: []BitField{
			{Bits: "4", Name: "FIFO_OFLOW_EN", Description: "FIFO overflow interrupt", Values: "0=Disabled, 1=Enabled"},
			{Bits: "0", Name: "DATA_RDY_INT_EN", Description: "Data ready interrupt", Values: "0=Disabled, 1=Enabled"},
		}},
	{Address: RegIntStatus, Name: "INT_STATUS", Description: "Interrupt Status", Access: "R",
		BitFields: []BitField{
			{Bits: "4", Name: "FIFO_OFLOW_INT", Description: "FIFO overflow interrupt status"},
			{Bits: "0", Name: "DATA_RDY_INT", Description: "Data ready interrupt status"},
		}},

	// Sensor data
	{Address: 0x3B, Name: "ACCEL_XOUT_H", Description: "Accelerometer X-Axis High Byte", Access: "R"},
	{Address: 0x3C, Name: "ACCEL_XOUT_L", Description: "Accelerometer X-Axis Low Byte", Access: "R"},
	{Address: 0x3D, Name: "ACCEL_YOUT_H", Description: "Accelerometer Y-Axis High Byte", Access: "R"},
	{Address: 0x3E, Name: "ACCEL_YOUT_L", Description: "Accelerometer Y-Axis Low Byte", Access: "R"},
	{Address: 0x3F, Name: "ACCEL_ZOUT_H", Description: "Accelerometer Z-Axis High Byte", Access: "R"},
	{Address: 0x40, Name: "ACCEL_ZOUT_L", Description: "Accelerometer Z-Axis Low Byte", Access: "R"},
	{Address: 0x41, Name: "TEMP_OUT_H", Description: "Temperature High Byte", Access: "R"},
	{Address: 0x42, Name: "TEMP_OUT_L", Description: "Temperature Low Byte", Access: "R"},
	{Address: 0x43, Name: "GYRO_XOUT_H", Description: "Gyroscope X-Axis High Byte", Access: "R"},
	{Address: 0x44, Name: "GYRO_XOUT_L", Description: "Gyroscope X-Axis Low Byte", Access: "R"},
	{Address: 0x45, Name: "GYRO_YOUT_H", Description: "Gyroscope Y-Axis High Byte", Access: "R"},
	{Address: 0x46, Name: "GYRO_YOUT_L", Description: "Gyroscope Y-Axis Low Byte", Access: "R"},
	{Address: 0x47, Name: "GYRO_ZOUT_H", Description: "Gyroscope Z-Axis High Byte", Access: "R"},
	{Address: 0x48, Name: "GYRO_ZOUT_L", Description: "Gyroscope Z-Axis Low Byte", Access: "R"},

	// Power and identity
	{Address: RegUserCtrl, Name: "USER_CTRL", Description: "User Control", Access: "RW",
		BitFields: []BitField{
			{Bits: "6", Name: "FIFO_EN", Description: "Enable FIFO operation", Values: "0=Disabled, 1=Enabled"},
			{Bits: "2", Name: "FIFO_RST", Description: "Reset FIFO", Values: "1=Reset (self-clearing)"},
			{Bits: "0", Name: "SIG_COND_RST", Description: "Reset signal paths", Values: "1=Reset (self-clearing)"},
		}},
	{Address: RegPwrMgmt1, Name: "PWR_MGMT_1", Description: "Power Management 1", Access: "RW", Default: 0x40,
		BitFields: []BitField{
			{Bits: "7", Name: "DEVICE_RESET", Description: "Reset all registers", Values: "1=Reset (self-clearing)"},
			{Bits: "6", Name: "SLEEP", Description: "Sleep mode", Values: "0=Wake, 1=Sleep"},
			{Bits: "2:0", Name: "CLKSEL", Description: "Clock source", Values: "0=Internal 20MHz, 1=Auto select PLL"},
		}},
	{Address: RegPwrMgmt2, Name: "PWR_MGMT_2", Description: "Power Management 2", Access: "RW",
		BitFields: []BitField{
			{Bits: "5:3", Name: "STBY_XA/YA/ZA", Description: "Accel axis standby", Values: "0=On, 1=Standby"},
			{Bits: "2:0", Name: "STBY_XG/YG/ZG", Description: "Gyro axis standby", Values: "0=On, 1=Standby"},
		}},
	{Address: RegWhoAmI, Name: "WHO_AM_I", Description: "Device ID", Access: "R", Default: WhoAmIMPU6886,
		BitFields: []BitField{
			{Bits: "7:0", Name: "WHOAMI", Description: "Device ID", Values: "0x19 for MPU6886"},
		}},
}

// MPU6886RegisterMap returns metadata for the MPU6886 registers this tool
// knows about, in address order.
func MPU6886RegisterMap() []RegisterInfo {
	out := make([]RegisterInfo, len(mpu6886RegisterMap))
	copy(out, mpu6886RegisterMap)
	return out
}

// LookupRegister returns the metadata for addr.
func LookupRegister(addr byte) (RegisterInfo, bool) {
	for _, r := range mpu6886RegisterMap {
		if r.Address == addr {
			return r, true
		}
	}
	return RegisterInfo{}, false
}

// RegisterName returns the datasheet name of addr, or its hex form.
func RegisterName(addr byte) string {
	if r, ok := LookupRegister(addr); ok {
		return r.Name
	}
	return fmt.Sprintf("0x%02X", addr)
}
