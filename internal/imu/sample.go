package imu

// Sample is one latched raw MPU6886 reading.
type Sample struct {
	Source string `json:"source"`

	Ax int16 `json:"ax"` // accel
	Ay int16 `json:"ay"`
	Az int16 `json:"az"`

	Gx int16 `json:"gx"` // gyro
	Gy int16 `json:"gy"`
	Gz int16 `json:"gz"`

	Temp int16 `json:"temp"` // raw TEMP_OUT
}

// RegisterWriter is raw single-byte register access to an IMU.
// The board grants it explicitly; nothing reaches into a driver for it.
type RegisterWriter interface {
	WriteRegister8(reg, value byte) error
}

// Refresher latches the newest sample inside the driver.
type Refresher interface {
	Update() error
}
