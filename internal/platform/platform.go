// Package platform provides the concrete resource factories behind the
// HAL service: real MCU peripherals on RP2 targets, in-memory fakes
// everywhere else so the whole stack runs on a development host.
package platform
