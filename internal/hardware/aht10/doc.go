// Package aht10 drives an AHT10 temperature and humidity sensor on a Linux
// I2C character device (/dev/i2c-N).
//
// Each Humidity or Temperature call triggers a fresh measurement, waits for
// the conversion and decodes the 6-byte frame:
//
//	byte 0      status (bit 7 busy, bit 3 calibrated)
//	byte 1..3   20-bit relative humidity, high nibble of byte 3
//	byte 3..5   20-bit temperature, low nibble of byte 3
//
// Humidity is raw*100/2^20 %RH, temperature is raw*200/2^20-50 °C.
//
// The driver is not safe for concurrent use from different processes
// sharing the bus; within one process calls are serialised.
package aht10
